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

// Package memory is an in-process storage.Storage. Transactions are
// serialized with writes and work on a copy of the whole store, committed by
// swapping it in.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/uncharted-distil/distil-madmp/model"
	"github.com/uncharted-distil/distil-madmp/storage"
)

var _ storage.Storage = (*Store)(nil)

type state struct {
	nextUserID int64
	users      map[int64]*model.User
	records    map[string]*model.Record
	datasets   map[string]*model.Dataset
	dmps       map[string]*model.DataManagementPlan
	// dmp id -> linked dataset ids, in link order
	links map[string][]string
}

func newState() *state {
	return &state{
		nextUserID: 1,
		users:      make(map[int64]*model.User),
		records:    make(map[string]*model.Record),
		datasets:   make(map[string]*model.Dataset),
		dmps:       make(map[string]*model.DataManagementPlan),
		links:      make(map[string][]string),
	}
}

func (s *state) clone() *state {
	c := newState()
	c.nextUserID = s.nextUserID
	for id, u := range s.users {
		c.users[id] = copyUser(u)
	}
	for id, r := range s.records {
		c.records[id] = copyRecord(r)
	}
	for id, d := range s.datasets {
		c.datasets[id] = copyDataset(d)
	}
	for id, d := range s.dmps {
		c.dmps[id] = &model.DataManagementPlan{ID: d.ID, DMPID: d.DMPID}
	}
	for id, l := range s.links {
		c.links[id] = append([]string(nil), l...)
	}
	return c
}

// Store is the in-memory storage.
type Store struct {
	mu sync.RWMutex
	// held by transactions and writes
	txMu sync.Mutex
	data *state
}

// New creates an empty store.
func New() *Store {
	return &Store{data: newState()}
}

// lock serializes a write with running transactions and returns the unlock
// function.
func (s *Store) lock() func() {
	s.txMu.Lock()
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		s.txMu.Unlock()
	}
}

// RunInTransaction runs fn against a working copy of the store while holding
// the transaction lock. The copy replaces the store once fn returns without
// error, so reads outside the transaction only see committed state.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx storage.Storage) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	working := &Store{data: s.data.clone()}
	s.mu.RUnlock()

	if err := fn(&tx{working}); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = working.data
	s.mu.Unlock()
	return nil
}

// tx joins nested transactions into the running one.
type tx struct {
	*Store
}

func (t *tx) RunInTransaction(ctx context.Context, fn func(tx storage.Storage) error) error {
	return fn(t)
}

// CreateUser stores a user, assigning the next id when none is set.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	defer s.lock()()

	for _, u := range s.data.users {
		if strings.EqualFold(u.Email, user.Email) || u.ID == user.ID {
			return errors.Wrapf(storage.ErrConflict, "user `%s`", user.Email)
		}
	}
	if user.ID == 0 {
		user.ID = s.data.nextUserID
	}
	if user.ID >= s.data.nextUserID {
		s.data.nextUserID = user.ID + 1
	}
	s.data.users[user.ID] = copyUser(user)
	return nil
}

// FindUserByEmail looks the user up case-insensitively.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.data.users {
		if strings.EqualFold(u.Email, email) {
			return copyUser(u), nil
		}
	}
	return nil, errors.Wrapf(storage.ErrNotFound, "user `%s`", email)
}

// ListUsers returns the users ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*model.User, 0, len(s.data.users))
	for _, u := range s.data.users {
		users = append(users, copyUser(u))
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *Store) pidTaken(rec *model.Record) bool {
	for _, r := range s.data.records {
		if r.ID == rec.ID {
			continue
		}
		if r.RecID == rec.RecID || (rec.DOI != "" && r.DOI == rec.DOI) {
			return true
		}
	}
	return false
}

// CreateRecord stores a new record. Its id, recid and DOI must be unused.
func (s *Store) CreateRecord(ctx context.Context, rec *model.Record) error {
	if rec.ID == "" || rec.RecID == "" {
		return errors.New("record requires an id and a recid")
	}

	defer s.lock()()

	if _, ok := s.data.records[rec.ID]; ok || s.pidTaken(rec) {
		return errors.Wrapf(storage.ErrConflict, "record `%s`", rec.RecID)
	}
	s.data.records[rec.ID] = copyRecord(rec)
	return nil
}

// UpdateRecord replaces a stored record.
func (s *Store) UpdateRecord(ctx context.Context, rec *model.Record) error {
	defer s.lock()()

	if _, ok := s.data.records[rec.ID]; !ok {
		return errors.Wrapf(storage.ErrNotFound, "record `%s`", rec.ID)
	}
	if s.pidTaken(rec) {
		return errors.Wrapf(storage.ErrConflict, "record `%s`", rec.RecID)
	}
	s.data.records[rec.ID] = copyRecord(rec)
	return nil
}

// DeleteRecord removes a record by id.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	defer s.lock()()

	if _, ok := s.data.records[id]; !ok {
		return errors.Wrapf(storage.ErrNotFound, "record `%s`", id)
	}
	delete(s.data.records, id)
	return nil
}

// GetRecord returns a record by id.
func (s *Store) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.data.records[id]
	if !ok {
		return nil, errors.Wrapf(storage.ErrNotFound, "record `%s`", id)
	}
	return copyRecord(r), nil
}

// GetRecordByPID returns the record with the given recid or DOI.
func (s *Store) GetRecordByPID(ctx context.Context, pid string) (*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if pid != "" {
		for _, r := range s.data.records {
			if r.RecID == pid || r.DOI == pid {
				return copyRecord(r), nil
			}
		}
	}
	return nil, errors.Wrapf(storage.ErrNotFound, "record `%s`", pid)
}

// ListRecords returns the records ordered by creation time.
func (s *Store) ListRecords(ctx context.Context) ([]*model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := make([]*model.Record, 0, len(s.data.records))
	for _, r := range s.data.records {
		records = append(records, copyRecord(r))
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].Created.Equal(records[j].Created) {
			return records[i].RecID < records[j].RecID
		}
		return records[i].Created.Before(records[j].Created)
	})
	return records, nil
}

// SaveDataset inserts or updates a dataset, assigning an id to new ones.
func (s *Store) SaveDataset(ctx context.Context, ds *model.Dataset) error {
	defer s.lock()()

	for _, d := range s.data.datasets {
		if d.DatasetID == ds.DatasetID && d.ID != ds.ID {
			return errors.Wrapf(storage.ErrConflict, "dataset `%s`", ds.DatasetID)
		}
	}
	if ds.ID == "" {
		ds.ID = uuid.New().String()
	}
	s.data.datasets[ds.ID] = copyDataset(ds)
	return nil
}

// DeleteDataset removes a dataset and its links to DMPs.
func (s *Store) DeleteDataset(ctx context.Context, id string) error {
	defer s.lock()()

	if _, ok := s.data.datasets[id]; !ok {
		return errors.Wrapf(storage.ErrNotFound, "dataset `%s`", id)
	}
	delete(s.data.datasets, id)
	for dmpID := range s.data.links {
		s.data.links[dmpID] = remove(s.data.links[dmpID], id)
	}
	return nil
}

// GetDataset returns a dataset by its dataset_id.
func (s *Store) GetDataset(ctx context.Context, datasetID string) (*model.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.data.datasets {
		if d.DatasetID == datasetID {
			return copyDataset(d), nil
		}
	}
	return nil, errors.Wrapf(storage.ErrNotFound, "dataset `%s`", datasetID)
}

// GetDatasetByRecordPID returns the dataset associated with a record PID.
func (s *Store) GetDatasetByRecordPID(ctx context.Context, pid string) (*model.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if pid != "" {
		for _, d := range s.data.datasets {
			if d.RecordPID == pid {
				return copyDataset(d), nil
			}
		}
	}
	return nil, errors.Wrapf(storage.ErrNotFound, "dataset with record `%s`", pid)
}

// SaveDMP inserts or updates a DMP, assigning an id to new ones.
func (s *Store) SaveDMP(ctx context.Context, dmp *model.DataManagementPlan) error {
	defer s.lock()()

	for _, d := range s.data.dmps {
		if d.DMPID == dmp.DMPID && d.ID != dmp.ID {
			return errors.Wrapf(storage.ErrConflict, "dmp `%s`", dmp.DMPID)
		}
	}
	if dmp.ID == "" {
		dmp.ID = uuid.New().String()
	}
	s.data.dmps[dmp.ID] = &model.DataManagementPlan{ID: dmp.ID, DMPID: dmp.DMPID}
	return nil
}

// DeleteDMP removes a DMP and its links to datasets.
func (s *Store) DeleteDMP(ctx context.Context, id string) error {
	defer s.lock()()

	if _, ok := s.data.dmps[id]; !ok {
		return errors.Wrapf(storage.ErrNotFound, "dmp `%s`", id)
	}
	delete(s.data.dmps, id)
	delete(s.data.links, id)
	return nil
}

// GetDMP returns a DMP by its dmp_id.
func (s *Store) GetDMP(ctx context.Context, dmpID string) (*model.DataManagementPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, d := range s.data.dmps {
		if d.DMPID == dmpID {
			return s.loadDMP(d), nil
		}
	}
	return nil, errors.Wrapf(storage.ErrNotFound, "dmp `%s`", dmpID)
}

// ListDMPs returns all DMPs ordered by dmp_id.
func (s *Store) ListDMPs(ctx context.Context) ([]*model.DataManagementPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dmps := make([]*model.DataManagementPlan, 0, len(s.data.dmps))
	for _, d := range s.data.dmps {
		dmps = append(dmps, s.loadDMP(d))
	}
	sortDMPs(dmps)
	return dmps, nil
}

// ListDMPsByDataset returns the DMPs linked to the dataset with the given id.
func (s *Store) ListDMPsByDataset(ctx context.Context, id string) ([]*model.DataManagementPlan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	dmps := []*model.DataManagementPlan{}
	for dmpID, linked := range s.data.links {
		if contains(linked, id) {
			dmps = append(dmps, s.loadDMP(s.data.dmps[dmpID]))
		}
	}
	sortDMPs(dmps)
	return dmps, nil
}

// LinkDataset links a dataset to a DMP, reporting false if already linked.
func (s *Store) LinkDataset(ctx context.Context, dmpID, datasetID string) (bool, error) {
	defer s.lock()()

	if err := s.checkLink(dmpID, datasetID); err != nil {
		return false, err
	}
	if contains(s.data.links[dmpID], datasetID) {
		return false, nil
	}
	s.data.links[dmpID] = append(s.data.links[dmpID], datasetID)
	return true, nil
}

// UnlinkDataset removes a link, reporting false if there was none.
func (s *Store) UnlinkDataset(ctx context.Context, dmpID, datasetID string) (bool, error) {
	defer s.lock()()

	if err := s.checkLink(dmpID, datasetID); err != nil {
		return false, err
	}
	if !contains(s.data.links[dmpID], datasetID) {
		return false, nil
	}
	s.data.links[dmpID] = remove(s.data.links[dmpID], datasetID)
	return true, nil
}

func (s *Store) checkLink(dmpID, datasetID string) error {
	if _, ok := s.data.dmps[dmpID]; !ok {
		return errors.Wrapf(storage.ErrNotFound, "dmp `%s`", dmpID)
	}
	if _, ok := s.data.datasets[datasetID]; !ok {
		return errors.Wrapf(storage.ErrNotFound, "dataset `%s`", datasetID)
	}
	return nil
}

func (s *Store) loadDMP(d *model.DataManagementPlan) *model.DataManagementPlan {
	dmp := &model.DataManagementPlan{ID: d.ID, DMPID: d.DMPID, Datasets: []*model.Dataset{}}
	for _, id := range s.data.links[d.ID] {
		dmp.Datasets = append(dmp.Datasets, copyDataset(s.data.datasets[id]))
	}
	return dmp
}

func sortDMPs(dmps []*model.DataManagementPlan) {
	sort.Slice(dmps, func(i, j int) bool { return dmps[i].DMPID < dmps[j].DMPID })
}

func contains(ids []string, id string) bool {
	for _, i := range ids {
		if i == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	kept := ids[:0]
	for _, i := range ids {
		if i != id {
			kept = append(kept, i)
		}
	}
	return kept
}

func copyUser(u *model.User) *model.User {
	c := *u
	return &c
}

func copyDataset(d *model.Dataset) *model.Dataset {
	c := *d
	return &c
}

func copyRecord(r *model.Record) *model.Record {
	c := *r
	c.Data, _ = copyValue(r.Data).(map[string]interface{})
	return &c
}

func copyValue(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		if t == nil {
			return t
		}
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			m[k] = copyValue(e)
		}
		return m
	case []interface{}:
		if t == nil {
			return t
		}
		l := make([]interface{}, len(t))
		for i, e := range t {
			l[i] = copyValue(e)
		}
		return l
	case []string:
		return append([]string(nil), t...)
	default:
		return v
	}
}
