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

// Package model holds the repository entities maDMPs are mapped onto.
package model

import (
	"time"
)

// User is a repository account. Record owners are users.
type User struct {
	ID     int64  `json:"id"`
	Email  string `json:"email"`
	Active bool   `json:"active"`
}

// Record is a published record or a draft. Data holds the record document,
// typically an `access` and a `metadata` section.
type Record struct {
	ID      string                 `json:"id"`
	RecID   string                 `json:"recid"`
	DOI     string                 `json:"doi,omitempty"`
	Draft   bool                   `json:"is_draft"`
	Data    map[string]interface{} `json:"data"`
	Created time.Time              `json:"created"`
	Updated time.Time              `json:"updated"`
}

// PID returns the persistent identifier used to link the record.
func (r *Record) PID() string {
	return r.RecID
}

// Dataset is a dataset of one or more DMPs, optionally associated with the
// record holding its distribution.
type Dataset struct {
	ID        string `json:"id"`
	DatasetID string `json:"dataset_id"`
	RecordPID string `json:"record_pid,omitempty"`
}

// HasRecord reports whether a record is associated with the dataset.
func (d *Dataset) HasRecord() bool {
	return d.RecordPID != ""
}

// DataManagementPlan is a DMP known to the repository, identified by the
// dmp_id of the DMP tool.
type DataManagementPlan struct {
	ID       string     `json:"id"`
	DMPID    string     `json:"dmp_id"`
	Datasets []*Dataset `json:"datasets"`
}

// HasDataset reports whether the dataset is linked to the DMP.
func (d *DataManagementPlan) HasDataset(datasetID string) bool {
	for _, ds := range d.Datasets {
		if ds.DatasetID == datasetID {
			return true
		}
	}
	return false
}
