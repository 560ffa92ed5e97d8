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

// Package events signals changes to records, datasets and DMPs.
package events

import (
	"context"
	"sync"

	log "github.com/unchartedsoftware/plog"

	"github.com/uncharted-distil/distil-madmp/model"
)

// Kind names an event.
type Kind string

const (
	// DatasetCreated is sent after a dataset is created.
	DatasetCreated Kind = "dataset-created"
	// DatasetDeleted is sent after a dataset is deleted.
	DatasetDeleted Kind = "dataset-deleted"
	// DatasetRecordPIDChanged is sent when a dataset is associated with
	// another record. OldPID and NewPID are set.
	DatasetRecordPIDChanged Kind = "dataset-record-pid-changed"
	// DMPCreated is sent after a DMP is created.
	DMPCreated Kind = "dmp-created"
	// DMPDeleted is sent after a DMP is deleted.
	DMPDeleted Kind = "dmp-deleted"
	// DMPDatasetAdded is sent after a dataset is linked to a DMP.
	DMPDatasetAdded Kind = "dmp-dataset-added"
	// DMPDatasetRemoved is sent after a dataset is unlinked from a DMP.
	DMPDatasetRemoved Kind = "dmp-dataset-removed"
	// RecordCreated is sent after a record or draft is created.
	RecordCreated Kind = "record-created"
	// RecordUpdated is sent after a record or draft is updated.
	RecordUpdated Kind = "record-updated"
	// RecordDeleted is sent after a record or draft is deleted.
	RecordDeleted Kind = "record-deleted"
)

// Event carries the entities affected by a change.
type Event struct {
	Kind    Kind
	Dataset *model.Dataset
	DMP     *model.DataManagementPlan
	Record  *model.Record
	OldPID  string
	NewPID  string
}

// Handler reacts to an event.
type Handler func(ctx context.Context, ev Event) error

// Publisher accepts events.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// Discard drops every event.
var Discard Publisher = discard{}

type discard struct{}

func (discard) Publish(ctx context.Context, ev Event) {}

// Bus dispatches events synchronously to the handlers subscribed to their
// kind, in subscription order. Handler errors are logged and never stop the
// dispatch.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Kind][]Handler
}

// NewBus creates a bus without subscribers.
func NewBus() *Bus {
	return &Bus{
		handlers: make(map[Kind][]Handler),
	}
}

// Subscribe registers a handler for the kinds.
func (b *Bus) Subscribe(handler Handler, kinds ...Kind) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, kind := range kinds {
		b.handlers[kind] = append(b.handlers[kind], handler)
	}
}

// Publish runs the handlers of the event kind.
func (b *Bus) Publish(ctx context.Context, ev Event) {
	b.mu.RLock()
	handlers := b.handlers[ev.Kind]
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, ev); err != nil {
			log.Errorf("%s handler failed: %v", ev.Kind, err)
		}
	}
}

// Buffer holds events until Flush. It is used to delay signals until the
// surrounding transaction has committed.
type Buffer struct {
	mu     sync.Mutex
	events []Event
}

// NewBuffer creates an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{}
}

// Publish appends the event.
func (b *Buffer) Publish(ctx context.Context, ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
}

// Events returns the buffered events.
func (b *Buffer) Events() []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Event(nil), b.events...)
}

// Reset drops the buffered events.
func (b *Buffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = nil
}

// Flush publishes the buffered events to p in order and empties the buffer.
func (b *Buffer) Flush(ctx context.Context, p Publisher) {
	b.mu.Lock()
	events := b.events
	b.events = nil
	b.mu.Unlock()

	for _, ev := range events {
		p.Publish(ctx, ev)
	}
}
