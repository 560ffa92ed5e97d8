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

// Package records creates, updates and deletes records and drafts.
package records

import (
	"context"
	"encoding/base32"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/uncharted-distil/distil-madmp/events"
	"github.com/uncharted-distil/distil-madmp/model"
	"github.com/uncharted-distil/distil-madmp/storage"
)

const mintAttempts = 5

// recids use the lowercase Crockford alphabet.
var recidEncoding = base32.NewEncoding("0123456789abcdefghjkmnpqrstvwxyz").WithPadding(base32.NoPadding)

// MintRecID returns a random recid of the form `xxxxx-xxxxx`.
func MintRecID() string {
	id := uuid.New()
	encoded := recidEncoding.EncodeToString(id[:7])
	return encoded[:5] + "-" + encoded[5:10]
}

// Service wraps the record operations of a store. Changes are signalled to
// the publisher.
type Service struct {
	Store  storage.Storage
	Events events.Publisher
	Now    func() time.Time
}

// New creates a record service.
func New(store storage.Storage, publisher events.Publisher) *Service {
	if publisher == nil {
		publisher = events.Discard
	}
	return &Service{
		Store:  store,
		Events: publisher,
		Now:    time.Now,
	}
}

// Create stores a new record or draft with a freshly minted id and recid.
func (s *Service) Create(ctx context.Context, data map[string]interface{}, draft bool) (*model.Record, error) {
	if data == nil {
		data = map[string]interface{}{}
	}
	now := s.Now().UTC()

	var err error
	for i := 0; i < mintAttempts; i++ {
		rec := &model.Record{
			ID:      uuid.New().String(),
			RecID:   MintRecID(),
			Draft:   draft,
			Data:    data,
			Created: now,
			Updated: now,
		}
		err = s.Store.CreateRecord(ctx, rec)
		if err == nil {
			s.Events.Publish(ctx, events.Event{Kind: events.RecordCreated, Record: rec})
			return rec, nil
		}
		if !storage.IsConflict(err) {
			break
		}
	}
	return nil, errors.Wrap(err, "unable to create record")
}

// Update stores the changed record.
func (s *Service) Update(ctx context.Context, rec *model.Record) error {
	rec.Updated = s.Now().UTC()
	if err := s.Store.UpdateRecord(ctx, rec); err != nil {
		return errors.Wrapf(err, "unable to update record `%s`", rec.RecID)
	}
	s.Events.Publish(ctx, events.Event{Kind: events.RecordUpdated, Record: rec})
	return nil
}

// Delete removes the record.
func (s *Service) Delete(ctx context.Context, rec *model.Record) error {
	if err := s.Store.DeleteRecord(ctx, rec.ID); err != nil {
		return errors.Wrapf(err, "unable to delete record `%s`", rec.RecID)
	}
	s.Events.Publish(ctx, events.Event{Kind: events.RecordDeleted, Record: rec})
	return nil
}

// Get returns the record with the given id.
func (s *Service) Get(ctx context.Context, id string) (*model.Record, error) {
	return s.Store.GetRecord(ctx, id)
}

// GetByPID returns the record with the given recid or DOI.
func (s *Service) GetByPID(ctx context.Context, pid string) (*model.Record, error) {
	return s.Store.GetRecordByPID(ctx, pid)
}

// List returns all records and drafts.
func (s *Service) List(ctx context.Context) ([]*model.Record, error) {
	return s.Store.ListRecords(ctx)
}
