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

// Package dmp manages DMPs, their datasets and the records the datasets are
// associated with.
package dmp

import (
	"context"

	"github.com/pkg/errors"

	"github.com/uncharted-distil/distil-madmp/events"
	"github.com/uncharted-distil/distil-madmp/model"
	"github.com/uncharted-distil/distil-madmp/storage"
)

// Service wraps the DMP and dataset operations of a store. Changes are
// signalled to the publisher.
type Service struct {
	Store  storage.Storage
	Events events.Publisher
}

// New creates a DMP service.
func New(store storage.Storage, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Discard
	}
	return &Service{
		Store:  store,
		Events: publisher,
	}
}

// CreateDataset creates a dataset, optionally associated with a record PID.
func (s *Service) CreateDataset(ctx context.Context, datasetID, recordPID string) (*model.Dataset, error) {
	ds := &model.Dataset{DatasetID: datasetID, RecordPID: recordPID}
	if err := s.Store.SaveDataset(ctx, ds); err != nil {
		return nil, errors.Wrapf(err, "unable to create dataset `%s`", datasetID)
	}
	s.Events.Publish(ctx, events.Event{Kind: events.DatasetCreated, Dataset: ds})
	return ds, nil
}

// GetDatasetByID returns the dataset with the given dataset_id.
func (s *Service) GetDatasetByID(ctx context.Context, datasetID string) (*model.Dataset, error) {
	return s.Store.GetDataset(ctx, datasetID)
}

// GetDatasetByRecordPID returns the dataset associated with the PID.
func (s *Service) GetDatasetByRecordPID(ctx context.Context, pid string) (*model.Dataset, error) {
	return s.Store.GetDatasetByRecordPID(ctx, pid)
}

// GetDatasetByRecord returns the dataset associated with the record by its
// recid or DOI.
func (s *Service) GetDatasetByRecord(ctx context.Context, rec *model.Record) (*model.Dataset, error) {
	ds, err := s.Store.GetDatasetByRecordPID(ctx, rec.PID())
	if storage.IsNotFound(err) && rec.DOI != "" {
		return s.Store.GetDatasetByRecordPID(ctx, rec.DOI)
	}
	return ds, err
}

// SetRecord associates the dataset with the record, or with none when rec
// is nil.
func (s *Service) SetRecord(ctx context.Context, ds *model.Dataset, rec *model.Record) error {
	oldPID := ds.RecordPID
	newPID := ""
	if rec != nil {
		newPID = rec.PID()
	}
	if oldPID == newPID {
		return nil
	}

	ds.RecordPID = newPID
	if err := s.Store.SaveDataset(ctx, ds); err != nil {
		ds.RecordPID = oldPID
		return errors.Wrapf(err, "unable to set record of dataset `%s`", ds.DatasetID)
	}
	s.Events.Publish(ctx, events.Event{
		Kind:    events.DatasetRecordPIDChanged,
		Dataset: ds,
		Record:  rec,
		OldPID:  oldPID,
		NewPID:  newPID,
	})
	return nil
}

// DeleteDataset removes the dataset from all DMPs and deletes it.
func (s *Service) DeleteDataset(ctx context.Context, ds *model.Dataset) error {
	if err := s.Store.DeleteDataset(ctx, ds.ID); err != nil {
		return errors.Wrapf(err, "unable to delete dataset `%s`", ds.DatasetID)
	}
	s.Events.Publish(ctx, events.Event{Kind: events.DatasetDeleted, Dataset: ds})
	return nil
}

// CreateDMP creates a DMP linked to the datasets.
func (s *Service) CreateDMP(ctx context.Context, dmpID string, datasets []*model.Dataset) (*model.DataManagementPlan, error) {
	dmp := &model.DataManagementPlan{DMPID: dmpID, Datasets: []*model.Dataset{}}
	if err := s.Store.SaveDMP(ctx, dmp); err != nil {
		return nil, errors.Wrapf(err, "unable to create dmp `%s`", dmpID)
	}
	for _, ds := range datasets {
		added, err := s.Store.LinkDataset(ctx, dmp.ID, ds.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to create dmp `%s`", dmpID)
		}
		if added {
			dmp.Datasets = append(dmp.Datasets, ds)
		}
	}
	s.Events.Publish(ctx, events.Event{Kind: events.DMPCreated, DMP: dmp})
	return dmp, nil
}

// GetDMPByID returns the DMP with the given dmp_id.
func (s *Service) GetDMPByID(ctx context.Context, dmpID string) (*model.DataManagementPlan, error) {
	return s.Store.GetDMP(ctx, dmpID)
}

// GetDMPsByRecordPID returns the DMPs of the dataset associated with the
// PID. Unknown PIDs have no DMPs.
func (s *Service) GetDMPsByRecordPID(ctx context.Context, pid string) ([]*model.DataManagementPlan, error) {
	ds, err := s.Store.GetDatasetByRecordPID(ctx, pid)
	if storage.IsNotFound(err) {
		return []*model.DataManagementPlan{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.Store.ListDMPsByDataset(ctx, ds.ID)
}

// GetDMPsByRecord returns the DMPs of the dataset associated with the
// record.
func (s *Service) GetDMPsByRecord(ctx context.Context, rec *model.Record) ([]*model.DataManagementPlan, error) {
	ds, err := s.GetDatasetByRecord(ctx, rec)
	if storage.IsNotFound(err) {
		return []*model.DataManagementPlan{}, nil
	}
	if err != nil {
		return nil, err
	}
	return s.Store.ListDMPsByDataset(ctx, ds.ID)
}

// AddDataset links the dataset to the DMP. It returns false if the dataset
// was already linked.
func (s *Service) AddDataset(ctx context.Context, dmp *model.DataManagementPlan, ds *model.Dataset) (bool, error) {
	added, err := s.Store.LinkDataset(ctx, dmp.ID, ds.ID)
	if err != nil {
		return false, errors.Wrapf(err, "unable to add dataset `%s` to dmp `%s`", ds.DatasetID, dmp.DMPID)
	}
	if !added {
		return false, nil
	}
	dmp.Datasets = append(dmp.Datasets, ds)
	s.Events.Publish(ctx, events.Event{Kind: events.DMPDatasetAdded, DMP: dmp, Dataset: ds})
	return true, nil
}

// RemoveDataset unlinks the dataset from the DMP. It returns false if the
// dataset was not linked.
func (s *Service) RemoveDataset(ctx context.Context, dmp *model.DataManagementPlan, ds *model.Dataset) (bool, error) {
	removed, err := s.Store.UnlinkDataset(ctx, dmp.ID, ds.ID)
	if err != nil {
		return false, errors.Wrapf(err, "unable to remove dataset `%s` from dmp `%s`", ds.DatasetID, dmp.DMPID)
	}
	if !removed {
		return false, nil
	}
	kept := make([]*model.Dataset, 0, len(dmp.Datasets))
	for _, d := range dmp.Datasets {
		if d.ID != ds.ID {
			kept = append(kept, d)
		}
	}
	dmp.Datasets = kept
	s.Events.Publish(ctx, events.Event{Kind: events.DMPDatasetRemoved, DMP: dmp, Dataset: ds})
	return true, nil
}

// DeleteDMP deletes the DMP. Its datasets are kept.
func (s *Service) DeleteDMP(ctx context.Context, dmp *model.DataManagementPlan) error {
	if err := s.Store.DeleteDMP(ctx, dmp.ID); err != nil {
		return errors.Wrapf(err, "unable to delete dmp `%s`", dmp.DMPID)
	}
	s.Events.Publish(ctx, events.Event{Kind: events.DMPDeleted, DMP: dmp})
	return nil
}

// ListDMPs returns all DMPs.
func (s *Service) ListDMPs(ctx context.Context) ([]*model.DataManagementPlan, error) {
	return s.Store.ListDMPs(ctx)
}
