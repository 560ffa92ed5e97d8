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

package convert

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/unchartedsoftware/plog"

	"github.com/uncharted-distil/distil-madmp/madmp"
	"github.com/uncharted-distil/distil-madmp/model"
	"github.com/uncharted-distil/distil-madmp/storage"
)

// Exporter renders stored records as maDMP datasets.
type Exporter struct {
	Store      storage.Storage
	Converters *Set
}

// NewExporter creates an exporter.
func NewExporter(store storage.Storage, converters *Set) *Exporter {
	return &Exporter{
		Store:      store,
		Converters: converters,
	}
}

// ExportDataset converts the record with its matching converter. It returns
// nil if the converter has nothing to report.
func (e *Exporter) ExportDataset(rec *model.Record) (*madmp.Dataset, error) {
	converter := e.Converters.ForRecord(rec)
	if converter == nil {
		return nil, errors.Wrapf(ErrNoConverter, "record `%s`", rec.RecID)
	}
	ds, err := converter.ConvertRecord(rec)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to export record `%s`", rec.RecID)
	}
	return ds, nil
}

// ExportDMP converts the records of the DMP's datasets. Datasets without a
// stored record are skipped.
func (e *Exporter) ExportDMP(ctx context.Context, plan *model.DataManagementPlan) ([]madmp.Dataset, error) {
	datasets := []madmp.Dataset{}
	for _, ds := range plan.Datasets {
		if !ds.HasRecord() {
			continue
		}
		rec, err := e.Store.GetRecordByPID(ctx, ds.RecordPID)
		if storage.IsNotFound(err) {
			log.Warnf("record `%s` of dataset `%s` not found", ds.RecordPID, ds.DatasetID)
			continue
		}
		if err != nil {
			return nil, err
		}

		exported, err := e.ExportDataset(rec)
		if err != nil {
			return nil, err
		}
		if exported != nil {
			datasets = append(datasets, *exported)
		}
	}
	return datasets, nil
}
