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

package memory

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncharted-distil/distil-madmp/model"
	"github.com/uncharted-distil/distil-madmp/storage"
)

func TestUsers(t *testing.T) {
	ctx := context.Background()
	s := New()

	alice := &model.User{Email: "Alice@example.org", Active: true}
	require.NoError(t, s.CreateUser(ctx, alice))
	assert.Equal(t, int64(1), alice.ID)
	require.NoError(t, s.CreateUser(ctx, &model.User{Email: "bob@example.org"}))

	err := s.CreateUser(ctx, &model.User{Email: "alice@EXAMPLE.org"})
	assert.True(t, storage.IsConflict(err))

	found, err := s.FindUserByEmail(ctx, "alice@example.org")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	_, err = s.FindUserByEmail(ctx, "carol@example.org")
	assert.True(t, storage.IsNotFound(err))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "bob@example.org", users[1].Email)
	assert.Equal(t, int64(2), users[1].ID)
}

func TestRecords(t *testing.T) {
	ctx := context.Background()
	s := New()

	now := time.Date(2021, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &model.Record{
		ID:      "1",
		RecID:   "abcde-fghij",
		DOI:     "10.1234/abc",
		Data:    map[string]interface{}{"metadata": map[string]interface{}{"title": "first"}},
		Created: now,
	}
	require.NoError(t, s.CreateRecord(ctx, rec))
	require.NoError(t, s.CreateRecord(ctx, &model.Record{ID: "2", RecID: "zzzzz-zzzzz", Created: now.Add(-time.Hour)}))

	assert.True(t, storage.IsConflict(s.CreateRecord(ctx, &model.Record{ID: "3", RecID: "abcde-fghij"})))
	assert.True(t, storage.IsConflict(s.CreateRecord(ctx, &model.Record{ID: "3", RecID: "other-other", DOI: "10.1234/abc"})))
	assert.Error(t, s.CreateRecord(ctx, &model.Record{RecID: "no-id"}))

	byDOI, err := s.GetRecordByPID(ctx, "10.1234/abc")
	require.NoError(t, err)
	assert.Equal(t, "1", byDOI.ID)
	byRecID, err := s.GetRecordByPID(ctx, "zzzzz-zzzzz")
	require.NoError(t, err)
	assert.Equal(t, "2", byRecID.ID)
	_, err = s.GetRecordByPID(ctx, "")
	assert.True(t, storage.IsNotFound(err))

	// returned records are copies
	byDOI.Data["metadata"].(map[string]interface{})["title"] = "changed"
	stored, err := s.GetRecord(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "first", stored.Data["metadata"].(map[string]interface{})["title"])

	stored.Draft = true
	require.NoError(t, s.UpdateRecord(ctx, stored))
	stored, err = s.GetRecord(ctx, "1")
	require.NoError(t, err)
	assert.True(t, stored.Draft)
	assert.True(t, storage.IsNotFound(s.UpdateRecord(ctx, &model.Record{ID: "missing"})))

	records, err := s.ListRecords(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2", records[0].ID)

	require.NoError(t, s.DeleteRecord(ctx, "2"))
	assert.True(t, storage.IsNotFound(s.DeleteRecord(ctx, "2")))
}

func TestDatasetsAndDMPs(t *testing.T) {
	ctx := context.Background()
	s := New()

	ds1 := &model.Dataset{DatasetID: "ds-1", RecordPID: "abcde-fghij"}
	ds2 := &model.Dataset{DatasetID: "ds-2"}
	require.NoError(t, s.SaveDataset(ctx, ds1))
	require.NoError(t, s.SaveDataset(ctx, ds2))
	assert.NotEmpty(t, ds1.ID)
	assert.True(t, storage.IsConflict(s.SaveDataset(ctx, &model.Dataset{DatasetID: "ds-1"})))

	found, err := s.GetDatasetByRecordPID(ctx, "abcde-fghij")
	require.NoError(t, err)
	assert.Equal(t, ds1.ID, found.ID)
	_, err = s.GetDatasetByRecordPID(ctx, "")
	assert.True(t, storage.IsNotFound(err))

	dmp := &model.DataManagementPlan{DMPID: "dmp-1"}
	require.NoError(t, s.SaveDMP(ctx, dmp))
	other := &model.DataManagementPlan{DMPID: "dmp-0"}
	require.NoError(t, s.SaveDMP(ctx, other))
	assert.True(t, storage.IsConflict(s.SaveDMP(ctx, &model.DataManagementPlan{DMPID: "dmp-1"})))

	added, err := s.LinkDataset(ctx, dmp.ID, ds1.ID)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = s.LinkDataset(ctx, dmp.ID, ds1.ID)
	require.NoError(t, err)
	assert.False(t, added)
	_, err = s.LinkDataset(ctx, dmp.ID, ds2.ID)
	require.NoError(t, err)
	_, err = s.LinkDataset(ctx, other.ID, ds2.ID)
	require.NoError(t, err)
	_, err = s.LinkDataset(ctx, dmp.ID, "missing")
	assert.True(t, storage.IsNotFound(err))

	loaded, err := s.GetDMP(ctx, "dmp-1")
	require.NoError(t, err)
	require.Len(t, loaded.Datasets, 2)
	assert.Equal(t, "ds-1", loaded.Datasets[0].DatasetID)
	assert.True(t, loaded.HasDataset("ds-2"))

	byDataset, err := s.ListDMPsByDataset(ctx, ds2.ID)
	require.NoError(t, err)
	require.Len(t, byDataset, 2)
	assert.Equal(t, "dmp-0", byDataset[0].DMPID)

	removed, err := s.UnlinkDataset(ctx, dmp.ID, ds2.ID)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = s.UnlinkDataset(ctx, dmp.ID, ds2.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, s.DeleteDataset(ctx, ds1.ID))
	loaded, err = s.GetDMP(ctx, "dmp-1")
	require.NoError(t, err)
	assert.Empty(t, loaded.Datasets)

	require.NoError(t, s.DeleteDMP(ctx, other.ID))
	dmps, err := s.ListDMPs(ctx)
	require.NoError(t, err)
	require.Len(t, dmps, 1)
	byDataset, err = s.ListDMPsByDataset(ctx, ds2.ID)
	require.NoError(t, err)
	assert.Empty(t, byDataset)
}

func TestTransactionRollback(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.SaveDMP(ctx, &model.DataManagementPlan{DMPID: "kept"}))

	failure := errors.New("abort")
	err := s.RunInTransaction(ctx, func(tx storage.Storage) error {
		if err := tx.SaveDMP(ctx, &model.DataManagementPlan{DMPID: "dropped"}); err != nil {
			return err
		}
		// nested transactions join the outer one
		return tx.RunInTransaction(ctx, func(tx storage.Storage) error {
			if err := tx.CreateUser(ctx, &model.User{Email: "x@example.org"}); err != nil {
				return err
			}
			return failure
		})
	})
	assert.Equal(t, failure, err)

	dmps, err := s.ListDMPs(ctx)
	require.NoError(t, err)
	require.Len(t, dmps, 1)
	assert.Equal(t, "kept", dmps[0].DMPID)
	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	assert.Empty(t, users)

	err = s.RunInTransaction(ctx, func(tx storage.Storage) error {
		return tx.SaveDMP(ctx, &model.DataManagementPlan{DMPID: "committed"})
	})
	require.NoError(t, err)
	_, err = s.GetDMP(ctx, "committed")
	assert.NoError(t, err)
}

func TestTransactionIsolation(t *testing.T) {
	ctx := context.Background()
	s := New()

	written := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.RunInTransaction(ctx, func(tx storage.Storage) error {
			if err := tx.SaveDMP(ctx, &model.DataManagementPlan{DMPID: "pending"}); err != nil {
				return err
			}
			close(written)
			<-release
			return errors.New("dry run")
		})
	}()
	<-written

	// uncommitted changes stay invisible
	_, err := s.GetDMP(ctx, "pending")
	assert.True(t, storage.IsNotFound(err))
	dmps, err := s.ListDMPs(ctx)
	require.NoError(t, err)
	assert.Empty(t, dmps)

	// writes wait for the transaction and survive its rollback
	created := make(chan error, 1)
	go func() {
		created <- s.CreateUser(ctx, &model.User{Email: "outside@example.org"})
	}()
	select {
	case <-created:
		t.Fatal("write completed while the transaction was running")
	case <-time.After(time.Millisecond * 50):
	}

	close(release)
	assert.Error(t, <-done)
	require.NoError(t, <-created)

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "outside@example.org", users[0].Email)
	_, err = s.GetDMP(ctx, "pending")
	assert.True(t, storage.IsNotFound(err))
}
