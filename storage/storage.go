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

// Package storage defines the persistence of users, records, datasets and
// DMPs.
package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/uncharted-distil/distil-madmp/model"
)

var (
	// ErrNotFound is returned when the requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique identifier is already taken.
	ErrConflict = errors.New("conflict")
)

// IsNotFound checks whether the cause of err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Cause(err) == ErrNotFound
}

// IsConflict checks whether the cause of err is ErrConflict.
func IsConflict(err error) bool {
	return errors.Cause(err) == ErrConflict
}

// Storage persists the repository entities. Lookups of missing entities
// return ErrNotFound and saves violating a unique identifier ErrConflict.
type Storage interface {
	// users
	CreateUser(ctx context.Context, user *model.User) error
	FindUserByEmail(ctx context.Context, email string) (*model.User, error)
	ListUsers(ctx context.Context) ([]*model.User, error)

	// records; PID lookups match the recid or the DOI
	CreateRecord(ctx context.Context, rec *model.Record) error
	UpdateRecord(ctx context.Context, rec *model.Record) error
	DeleteRecord(ctx context.Context, id string) error
	GetRecord(ctx context.Context, id string) (*model.Record, error)
	GetRecordByPID(ctx context.Context, pid string) (*model.Record, error)
	ListRecords(ctx context.Context) ([]*model.Record, error)

	// datasets; Save inserts or updates by internal id, gets are by dataset_id
	SaveDataset(ctx context.Context, ds *model.Dataset) error
	DeleteDataset(ctx context.Context, id string) error
	GetDataset(ctx context.Context, datasetID string) (*model.Dataset, error)
	GetDatasetByRecordPID(ctx context.Context, pid string) (*model.Dataset, error)

	// dmps, returned with their linked datasets; SaveDMP does not touch links
	SaveDMP(ctx context.Context, dmp *model.DataManagementPlan) error
	DeleteDMP(ctx context.Context, id string) error
	GetDMP(ctx context.Context, dmpID string) (*model.DataManagementPlan, error)
	ListDMPs(ctx context.Context) ([]*model.DataManagementPlan, error)
	ListDMPsByDataset(ctx context.Context, id string) ([]*model.DataManagementPlan, error)

	// links between dmps and datasets, by their internal ids
	LinkDataset(ctx context.Context, dmpID, datasetID string) (bool, error)
	UnlinkDataset(ctx context.Context, dmpID, datasetID string) (bool, error)

	// RunInTransaction runs fn against a transactional view of the store.
	// Returning an error from fn rolls back every change made through tx.
	RunInTransaction(ctx context.Context, fn func(tx Storage) error) error
}
