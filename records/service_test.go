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

package records

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncharted-distil/distil-madmp/events"
	"github.com/uncharted-distil/distil-madmp/storage"
	"github.com/uncharted-distil/distil-madmp/storage/memory"
)

func TestMintRecID(t *testing.T) {
	pattern := regexp.MustCompile(`^[0-9a-z]{5}-[0-9a-z]{5}$`)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		recid := MintRecID()
		assert.Regexp(t, pattern, recid)
		assert.False(t, seen[recid])
		seen[recid] = true
	}
}

func TestLifecycle(t *testing.T) {
	ctx := context.Background()
	buf := events.NewBuffer()
	svc := New(memory.New(), buf)
	now := time.Date(2021, 5, 4, 10, 0, 0, 0, time.UTC)
	svc.Now = func() time.Time { return now }

	rec, err := svc.Create(ctx, map[string]interface{}{"metadata": map[string]interface{}{"title": "Gallery images"}}, true)
	require.NoError(t, err)
	assert.True(t, rec.Draft)
	assert.Equal(t, now, rec.Created)

	found, err := svc.GetByPID(ctx, rec.RecID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, found.ID)

	now = now.Add(time.Hour)
	found.DOI = "10.1234/gallery"
	require.NoError(t, svc.Update(ctx, found))
	assert.Equal(t, now, found.Updated)

	byDOI, err := svc.GetByPID(ctx, "10.1234/gallery")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, byDOI.ID)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.Delete(ctx, byDOI))
	_, err = svc.Get(ctx, rec.ID)
	assert.True(t, storage.IsNotFound(err))
	assert.Error(t, svc.Delete(ctx, byDOI))

	var kinds []events.Kind
	for _, ev := range buf.Events() {
		kinds = append(kinds, ev.Kind)
	}
	assert.Equal(t, []events.Kind{events.RecordCreated, events.RecordUpdated, events.RecordDeleted}, kinds)
}

func TestCreateWithoutPublisher(t *testing.T) {
	svc := New(memory.New(), nil)
	rec, err := svc.Create(context.Background(), nil, false)
	require.NoError(t, err)
	assert.NotNil(t, rec.Data)
	assert.False(t, rec.Draft)
}
