//
//   Copyright © 2019 Uncharted Software Inc.
//
//   Licensed under the Apache License, Version 2.0 (the "License");
//   you may not use this file except in compliance with the License.
//   You may obtain a copy of the License at
//
//       http://www.apache.org/licenses/LICENSE-2.0
//
//   Unless required by applicable law or agreed to in writing, software
//   distributed under the License is distributed on an "AS IS" BASIS,
//   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//   See the License for the specific language governing permissions and
//   limitations under the License.

package model

import (
	"github.com/uncharted-distil/distil-madmp/model"
)

// Dataset is a row of the dataset table.
type Dataset struct {
	ID        string `sql:"id"`
	DatasetID string `sql:"dataset_id"`
	RecordPID string `sql:"record_pid"`
}

// NewDataset creates a row from a dataset.
func NewDataset(ds *model.Dataset) *Dataset {
	return &Dataset{
		ID:        ds.ID,
		DatasetID: ds.DatasetID,
		RecordPID: ds.RecordPID,
	}
}

// ToModel converts the row.
func (ds *Dataset) ToModel() *model.Dataset {
	return &model.Dataset{
		ID:        ds.ID,
		DatasetID: ds.DatasetID,
		RecordPID: ds.RecordPID,
	}
}

// DMP is a row of the dmp table.
type DMP struct {
	ID    string `sql:"id"`
	DMPID string `sql:"dmp_id"`
}

// ToModel converts the row, attaching the linked datasets.
func (d *DMP) ToModel(datasets []*Dataset) *model.DataManagementPlan {
	dmp := &model.DataManagementPlan{
		ID:       d.ID,
		DMPID:    d.DMPID,
		Datasets: make([]*model.Dataset, 0, len(datasets)),
	}
	for _, ds := range datasets {
		dmp.Datasets = append(dmp.Datasets, ds.ToModel())
	}
	return dmp
}
