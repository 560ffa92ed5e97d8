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

	"github.com/Jeffail/gabs/v2"
	"github.com/pkg/errors"
	log "github.com/unchartedsoftware/plog"

	"github.com/uncharted-distil/distil-madmp/conf"
	"github.com/uncharted-distil/distil-madmp/dmp"
	"github.com/uncharted-distil/distil-madmp/events"
	"github.com/uncharted-distil/distil-madmp/madmp"
	"github.com/uncharted-distil/distil-madmp/metrics"
	"github.com/uncharted-distil/distil-madmp/model"
	"github.com/uncharted-distil/distil-madmp/records"
	"github.com/uncharted-distil/distil-madmp/storage"
)

// ErrNoDMPID is returned for a DMP without dmp_id.
var ErrNoDMPID = errors.New("dmp has no dmp_id")

// errDryRun rolls back dry runs.
var errDryRun = errors.New("dry run")

// Archive stores the raw documents of imports.
type Archive interface {
	Put(ctx context.Context, dmpID string, data []byte) (string, error)
}

// Options controls an import.
type Options struct {
	// HardSync updates the records already associated with datasets.
	HardSync bool
	// DryRun rolls every change back and signals nothing.
	DryRun bool
}

// Result describes what an import changed.
type Result struct {
	DMP      *model.DataManagementPlan
	Created  []*model.Record
	Updated  []*model.Record
	Assigned []*model.Record
	Removed  []*model.Dataset
	DryRun   bool
	Archived string
	// Events lists the changes in order. For a dry run they were discarded.
	Events []events.Event
}

// Importer maps maDMPs onto DMPs, datasets and records.
type Importer struct {
	Store      storage.Storage
	Converters *Set
	Config     *conf.Conf
	Events     events.Publisher
	Archive    Archive
}

// NewImporter creates an importer publishing committed changes to publisher.
func NewImporter(store storage.Storage, converters *Set, config *conf.Conf, publisher events.Publisher) *Importer {
	if publisher == nil {
		publisher = events.Discard
	}
	return &Importer{
		Store:      store,
		Converters: converters,
		Config:     config,
		Events:     publisher,
	}
}

type conversion struct {
	data      *gabs.Container
	converter RecordConverter
}

// Import maps the maDMP in a single transaction. Events of the import are
// published only once it has committed.
func (im *Importer) Import(ctx context.Context, doc *madmp.DMP, opts Options) (*Result, error) {
	if doc.DMPID.Identifier == "" {
		metrics.Imports.WithLabelValues(metrics.StatusFailure).Inc()
		return nil, ErrNoDMPID
	}

	buf := events.NewBuffer()
	result := &Result{DryRun: opts.DryRun}

	err := im.Store.RunInTransaction(ctx, func(tx storage.Storage) error {
		if err := im.convertDMP(ctx, tx, buf, doc, opts, result); err != nil {
			return err
		}
		if opts.DryRun {
			return errDryRun
		}
		return nil
	})
	if err != nil && err != errDryRun {
		metrics.Imports.WithLabelValues(metrics.StatusFailure).Inc()
		return nil, errors.Wrapf(err, "unable to import dmp `%s`", doc.DMPID.Identifier)
	}
	result.Events = buf.Events()

	if opts.DryRun {
		metrics.Imports.WithLabelValues(metrics.StatusDryRun).Inc()
		log.Infof("dry run of dmp `%s`: %d records would be created, %d events discarded",
			doc.DMPID.Identifier, len(result.Created), len(result.Events))
		return result, nil
	}

	metrics.Imports.WithLabelValues(metrics.StatusSuccess).Inc()
	metrics.Records.WithLabelValues("created").Add(float64(len(result.Created)))
	metrics.Records.WithLabelValues("updated").Add(float64(len(result.Updated)))
	buf.Flush(ctx, im.Events)

	if im.Archive != nil {
		im.archive(ctx, doc, result)
	}
	log.Infof("imported dmp `%s` with %d datasets", doc.DMPID.Identifier, len(result.DMP.Datasets))
	return result, nil
}

// archive stores the document as it was received, or its encoding for a DMP
// built in code.
func (im *Importer) archive(ctx context.Context, doc *madmp.DMP, result *Result) {
	data := []byte(doc.Raw)
	if len(data) == 0 {
		var err error
		if data, err = madmp.Wrap(doc); err != nil {
			log.Errorf("unable to archive dmp `%s`: %v", doc.DMPID.Identifier, err)
			return
		}
	}
	key, err := im.Archive.Put(ctx, doc.DMPID.Identifier, data)
	if err != nil {
		log.Errorf("unable to archive dmp `%s`: %v", doc.DMPID.Identifier, err)
		return
	}
	result.Archived = key
}

// convertDMP runs against the transaction tx, buffering its events in buf.
func (im *Importer) convertDMP(ctx context.Context, tx storage.Storage, buf *events.Buffer, doc *madmp.DMP, opts Options, result *Result) error {
	recordSvc := records.New(tx, buf)
	dmpSvc := dmp.New(tx, buf)
	people := NewPeople(doc, im.Config.DefaultContact)

	dmpID := doc.DMPID.Identifier
	plan, err := dmpSvc.GetDMPByID(ctx, dmpID)
	if storage.IsNotFound(err) {
		plan, err = dmpSvc.CreateDMP(ctx, dmpID, nil)
	}
	if err != nil {
		return err
	}
	result.DMP = plan

	previous := map[string]*model.Dataset{}
	for _, ds := range plan.Datasets {
		previous[ds.DatasetID] = ds
	}

	for i := range doc.Dataset {
		ds := &doc.Dataset[i]
		distributions := MatchingDistributions(ds, im.Config.HostURL, im.Config.HostTitle)
		if len(distributions) == 0 {
			// not deposited here
			continue
		}

		datasetID := ds.DatasetID.Identifier
		if len(distributions) > 1 && !im.Config.AllowMultipleDistributions {
			return errors.Wrapf(ErrMultipleDistributions, "dataset `%s` has %d", datasetID, len(distributions))
		}

		conversions := make([]conversion, 0, len(distributions))
		for _, dist := range distributions {
			converter := im.Converters.ForDataset(dist, ds, doc)
			if converter == nil {
				return errors.Wrapf(ErrNoConverter, "dataset `%s`", datasetID)
			}
			data, err := converter.ConvertDataset(ctx, dist, ds, doc, people)
			if err != nil {
				return errors.Wrapf(err, "unable to convert dataset `%s`", datasetID)
			}
			metrics.DatasetsConverted.Inc()
			conversions = append(conversions, conversion{data: data, converter: converter})
		}

		dataset, err := dmpSvc.GetDatasetByID(ctx, datasetID)
		if storage.IsNotFound(err) {
			dataset, err = dmpSvc.CreateDataset(ctx, datasetID, "")
		}
		if err != nil {
			return err
		}
		delete(previous, datasetID)

		if _, err := dmpSvc.AddDataset(ctx, plan, dataset); err != nil {
			return err
		}

		first := conversions[0]
		if !dataset.HasRecord() {
			if err := im.assignRecord(ctx, tx, recordSvc, dmpSvc, dataset, distributions[0], first, result); err != nil {
				return err
			}
			continue
		}

		if opts.HardSync {
			rec, err := recordSvc.GetByPID(ctx, dataset.RecordPID)
			if storage.IsNotFound(err) {
				log.Warnf("record `%s` of dataset `%s` is gone, creating a new one", dataset.RecordPID, datasetID)
				if err := dmpSvc.SetRecord(ctx, dataset, nil); err != nil {
					return err
				}
				if err := im.assignRecord(ctx, tx, recordSvc, dmpSvc, dataset, distributions[0], first, result); err != nil {
					return err
				}
				continue
			}
			if err != nil {
				return err
			}
			updated, err := first.converter.UpdateRecord(ctx, recordSvc, rec, first.data)
			if err != nil {
				return errors.Wrapf(err, "unable to update record `%s`", rec.RecID)
			}
			result.Updated = append(result.Updated, updated)
		}
	}

	// unlink datasets no longer mentioned in the maDMP
	for _, ds := range previous {
		removed, err := dmpSvc.RemoveDataset(ctx, plan, ds)
		if err != nil {
			return err
		}
		if removed {
			result.Removed = append(result.Removed, ds)
		}
	}
	return nil
}

// assignRecord associates the dataset with an unassigned record, or with a
// new draft created from the conversion.
func (im *Importer) assignRecord(ctx context.Context, tx storage.Storage, recordSvc *records.Service, dmpSvc *dmp.Service,
	dataset *model.Dataset, dist *madmp.Distribution, conv conversion, result *Result) error {
	rec, err := FetchUnassignedRecord(ctx, tx, dataset.DatasetID, dist.AccessURL)
	if err != nil {
		return err
	}

	if rec != nil {
		result.Assigned = append(result.Assigned, rec)
	} else {
		rec, err = conv.converter.CreateRecord(ctx, recordSvc, conv.data)
		if err != nil {
			return errors.Wrapf(err, "unable to create record for dataset `%s`", dataset.DatasetID)
		}
		result.Created = append(result.Created, rec)
	}
	return dmpSvc.SetRecord(ctx, dataset, rec)
}
