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

package events

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/uncharted-distil/distil-madmp/model"
)

func TestBusDispatchesByKind(t *testing.T) {
	ctx := context.Background()
	bus := NewBus()

	var seen []string
	bus.Subscribe(func(ctx context.Context, ev Event) error {
		seen = append(seen, "first:"+string(ev.Kind))
		return errors.New("handler failure")
	}, RecordCreated, RecordUpdated)
	bus.Subscribe(func(ctx context.Context, ev Event) error {
		seen = append(seen, "second:"+string(ev.Kind))
		return nil
	}, RecordCreated)

	bus.Publish(ctx, Event{Kind: RecordCreated})
	bus.Publish(ctx, Event{Kind: RecordUpdated})
	bus.Publish(ctx, Event{Kind: DMPDeleted})

	assert.Equal(t, []string{"first:record-created", "second:record-created", "first:record-updated"}, seen)
}

func TestBufferFlush(t *testing.T) {
	ctx := context.Background()
	bus := NewBus()

	var kinds []Kind
	bus.Subscribe(func(ctx context.Context, ev Event) error {
		kinds = append(kinds, ev.Kind)
		return nil
	}, DatasetCreated, DMPDatasetAdded)

	buf := NewBuffer()
	ds := &model.Dataset{DatasetID: "ds-1"}
	buf.Publish(ctx, Event{Kind: DatasetCreated, Dataset: ds})
	buf.Publish(ctx, Event{Kind: DMPDatasetAdded, Dataset: ds})
	assert.Len(t, buf.Events(), 2)
	assert.Empty(t, kinds)

	buf.Flush(ctx, bus)
	assert.Equal(t, []Kind{DatasetCreated, DMPDatasetAdded}, kinds)
	assert.Empty(t, buf.Events())

	buf.Publish(ctx, Event{Kind: DatasetCreated})
	buf.Reset()
	buf.Flush(ctx, bus)
	assert.Len(t, kinds, 2)

	Discard.Publish(ctx, Event{Kind: DatasetCreated})
}
