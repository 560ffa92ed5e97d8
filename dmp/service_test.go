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

package dmp

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncharted-distil/distil-madmp/events"
	"github.com/uncharted-distil/distil-madmp/model"
	"github.com/uncharted-distil/distil-madmp/storage"
	"github.com/uncharted-distil/distil-madmp/storage/memory"
)

func kinds(buf *events.Buffer) []events.Kind {
	var result []events.Kind
	for _, ev := range buf.Events() {
		result = append(result, ev.Kind)
	}
	return result
}

func TestDatasets(t *testing.T) {
	ctx := context.Background()
	buf := events.NewBuffer()
	svc := New(memory.New(), buf)

	ds, err := svc.CreateDataset(ctx, "ds-1", "")
	require.NoError(t, err)
	assert.False(t, ds.HasRecord())

	_, err = svc.CreateDataset(ctx, "ds-1", "")
	assert.True(t, storage.IsConflict(err))

	rec := &model.Record{ID: "r1", RecID: "abcde-fghij", DOI: "10.1234/x"}
	require.NoError(t, svc.SetRecord(ctx, ds, rec))
	assert.True(t, ds.HasRecord())

	// no change, no event
	require.NoError(t, svc.SetRecord(ctx, ds, rec))

	byRecord, err := svc.GetDatasetByRecord(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, ds.ID, byRecord.ID)
	byPID, err := svc.GetDatasetByRecordPID(ctx, "abcde-fghij")
	require.NoError(t, err)
	assert.Equal(t, "ds-1", byPID.DatasetID)

	_, err = svc.GetDatasetByID(ctx, "ds-2")
	assert.True(t, storage.IsNotFound(err))
	_, err = svc.GetDatasetByRecordPID(ctx, "zzzzz-zzzzz")
	assert.True(t, storage.IsNotFound(err))

	require.NoError(t, svc.SetRecord(ctx, ds, nil))
	assert.False(t, ds.HasRecord())

	require.NoError(t, svc.DeleteDataset(ctx, ds))
	_, err = svc.GetDatasetByID(ctx, "ds-1")
	assert.True(t, storage.IsNotFound(err))

	evs := buf.Events()
	assert.Equal(t, []events.Kind{
		events.DatasetCreated,
		events.DatasetRecordPIDChanged,
		events.DatasetRecordPIDChanged,
		events.DatasetDeleted,
	}, kinds(buf))
	assert.Equal(t, "", evs[1].OldPID)
	assert.Equal(t, "abcde-fghij", evs[1].NewPID)
	assert.Equal(t, "abcde-fghij", evs[2].OldPID)
	assert.Equal(t, "", evs[2].NewPID)
}

func TestDMPs(t *testing.T) {
	ctx := context.Background()
	buf := events.NewBuffer()
	svc := New(memory.New(), buf)

	ds1, err := svc.CreateDataset(ctx, "ds-1", "abcde-fghij")
	require.NoError(t, err)
	ds2, err := svc.CreateDataset(ctx, "ds-2", "")
	require.NoError(t, err)
	buf.Reset()

	plan, err := svc.CreateDMP(ctx, "dmp-1", []*model.Dataset{ds1})
	require.NoError(t, err)
	assert.Len(t, plan.Datasets, 1)

	added, err := svc.AddDataset(ctx, plan, ds2)
	require.NoError(t, err)
	assert.True(t, added)
	added, err = svc.AddDataset(ctx, plan, ds2)
	require.NoError(t, err)
	assert.False(t, added)
	assert.Len(t, plan.Datasets, 2)

	loaded, err := svc.GetDMPByID(ctx, "dmp-1")
	require.NoError(t, err)
	assert.True(t, loaded.HasDataset("ds-2"))

	rec := &model.Record{ID: "r1", RecID: "abcde-fghij"}
	dmps, err := svc.GetDMPsByRecord(ctx, rec)
	require.NoError(t, err)
	require.Len(t, dmps, 1)
	assert.Equal(t, "dmp-1", dmps[0].DMPID)

	dmps, err = svc.GetDMPsByRecordPID(ctx, "unknown")
	require.NoError(t, err)
	assert.NotNil(t, dmps)
	assert.Empty(t, dmps)
	dmps, err = svc.GetDMPsByRecord(ctx, &model.Record{ID: "r2", RecID: "zzzzz-zzzzz"})
	require.NoError(t, err)
	assert.Empty(t, dmps)

	removed, err := svc.RemoveDataset(ctx, plan, ds2)
	require.NoError(t, err)
	assert.True(t, removed)
	removed, err = svc.RemoveDataset(ctx, plan, ds2)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Len(t, plan.Datasets, 1)

	all, err := svc.ListDMPs(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.DeleteDMP(ctx, plan))
	_, err = svc.GetDMPByID(ctx, "dmp-1")
	assert.True(t, storage.IsNotFound(err))

	// datasets survive their dmp
	_, err = svc.GetDatasetByID(ctx, "ds-1")
	assert.NoError(t, err)

	assert.Equal(t, []events.Kind{
		events.DMPCreated,
		events.DMPDatasetAdded,
		events.DMPDatasetRemoved,
		events.DMPDeleted,
	}, kinds(buf))
}
