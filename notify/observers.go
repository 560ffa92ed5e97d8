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

package notify

import (
	"context"

	log "github.com/unchartedsoftware/plog"

	"github.com/uncharted-distil/distil-madmp/events"
	"github.com/uncharted-distil/distil-madmp/storage"
)

// Subscribe registers the observers sending notifications for the
// lifecycle events of the bus.
func (n *Notifier) Subscribe(bus *events.Bus) {
	bus.Subscribe(n.onDatasetAdded, events.DMPDatasetAdded)
	bus.Subscribe(n.onDatasetDeleted, events.DatasetDeleted)
	bus.Subscribe(n.onRecordPIDChanged, events.DatasetRecordPIDChanged)
	bus.Subscribe(n.onRecordUpdated, events.RecordUpdated)
	bus.Subscribe(n.onRecordDeleted, events.RecordDeleted)
}

func (n *Notifier) onDatasetAdded(ctx context.Context, ev events.Event) error {
	if ev.DMP == nil || ev.Dataset == nil {
		return nil
	}
	target := Target{Dataset: ev.Dataset}
	sent, err := n.SendDatasetAddition(ctx, ev.DMP, target)
	logOutcome("addition", target, sent, err)
	return nil
}

func (n *Notifier) onDatasetDeleted(ctx context.Context, ev events.Event) error {
	if ev.Dataset == nil {
		return nil
	}
	target := Target{Dataset: ev.Dataset}
	sent, err := n.SendDistributionDeletion(ctx, target)
	logOutcome("deletion", target, sent, err)
	return nil
}

func (n *Notifier) onRecordPIDChanged(ctx context.Context, ev events.Event) error {
	if ev.Dataset == nil {
		return nil
	}
	target := Target{Dataset: ev.Dataset}
	sent, err := n.SendDistributionUpdate(ctx, target)
	logOutcome("update", target, sent, err)
	return nil
}

func (n *Notifier) onRecordUpdated(ctx context.Context, ev events.Event) error {
	if ev.Record == nil {
		return nil
	}
	ds, err := n.Datasets.GetDatasetByRecord(ctx, ev.Record)
	if storage.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	target := Target{Record: ev.Record, Dataset: ds}
	sent, err := n.SendDistributionUpdate(ctx, target)
	logOutcome("update", target, sent, err)
	return nil
}

func (n *Notifier) onRecordDeleted(ctx context.Context, ev events.Event) error {
	if ev.Record == nil {
		return nil
	}
	// the record is gone, so it is handed over as is
	ds, err := n.Datasets.GetDatasetByRecord(ctx, ev.Record)
	if storage.IsNotFound(err) {
		return nil
	}
	if err != nil {
		return err
	}
	target := Target{Record: ev.Record, Dataset: ds}
	sent, err := n.SendDistributionDeletion(ctx, target)
	logOutcome("deletion", target, sent, err)
	return nil
}

// logOutcome reports without failing the dispatch.
func logOutcome(kind string, target Target, sent bool, err error) {
	switch {
	case err != nil:
		log.Errorf("unable to send %s for %s: %v", kind, describe(target), err)
	case sent:
		log.Infof("sent %s for %s", kind, describe(target))
	default:
		log.Infof("no %s sent for %s", kind, describe(target))
	}
}
