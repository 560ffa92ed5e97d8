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

// Package notify tells the DMP tool about changes to the distributions hosted
// here. Bodies are partial maDMP dataset objects.
package notify

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	log "github.com/unchartedsoftware/plog"

	"github.com/uncharted-distil/distil-madmp/conf"
	"github.com/uncharted-distil/distil-madmp/convert"
	"github.com/uncharted-distil/distil-madmp/dmp"
	"github.com/uncharted-distil/distil-madmp/madmp"
	"github.com/uncharted-distil/distil-madmp/metrics"
	"github.com/uncharted-distil/distil-madmp/model"
	"github.com/uncharted-distil/distil-madmp/rest"
	"github.com/uncharted-distil/distil-madmp/storage"
)

const (
	// TypeUpdate labels distribution updates.
	TypeUpdate = "update"
	// TypeDeletion labels distribution deletions.
	TypeDeletion = "deletion"
	// TypeAddition labels dataset additions.
	TypeAddition = "addition"
)

// dataset ids safe to put in a URL path
var simpleIDPattern = regexp.MustCompile(`^[\w\-.]+$`)

// Target identifies the record a notification is about. Any one field is
// enough. Record takes precedence over RecordID, then Dataset, DatasetID and
// PID.
type Target struct {
	Record    *model.Record
	RecordID  string
	Dataset   *model.Dataset
	DatasetID string
	PID       string
}

// Notifier sends notifications to the DMP tool endpoints.
type Notifier struct {
	Config   conf.DMPTool
	Client   *rest.Client
	Store    storage.Storage
	Datasets *dmp.Service
	Exporter *convert.Exporter
}

// New creates a notifier exporting records with exporter. Requests give up
// after the configured timeout, if set.
func New(config conf.DMPTool, store storage.Storage, exporter *convert.Exporter) *Notifier {
	client := rest.NewClient("", config.Token)
	if config.Timeout > 0 {
		client.SetHTTPClient(&http.Client{Timeout: config.Timeout})
	}
	return &Notifier{
		Config:   config,
		Client:   client,
		Store:    store,
		Datasets: dmp.New(store, nil),
		Exporter: exporter,
	}
}

// PrepareEndpointURL replaces the `%s` or `{}` placeholder of url with id.
func PrepareEndpointURL(url string, id string) string {
	if strings.Contains(url, "%s") {
		return strings.Replace(url, "%s", id, 1)
	}
	if strings.Contains(url, "{}") {
		return strings.Replace(url, "{}", id, 1)
	}
	return url
}

// IsSimpleID checks whether the dataset id can be used in a URL path.
func IsSimpleID(id string) bool {
	return simpleIDPattern.MatchString(id)
}

// resolve finds the record and its dataset. It returns nil values if either
// cannot be found.
func (n *Notifier) resolve(ctx context.Context, target Target) (*model.Record, *model.Dataset, error) {
	rec := target.Record
	ds := target.Dataset
	var err error

	if rec == nil && target.RecordID != "" {
		rec, err = n.Store.GetRecord(ctx, target.RecordID)
		if err != nil && !storage.IsNotFound(err) {
			return nil, nil, err
		}
	}
	if rec == nil && ds == nil && target.DatasetID != "" {
		ds, err = n.Store.GetDataset(ctx, target.DatasetID)
		if err != nil && !storage.IsNotFound(err) {
			return nil, nil, err
		}
	}
	if rec == nil && ds == nil && target.PID != "" {
		// only records associated with a dataset are of interest
		ds, err = n.Store.GetDatasetByRecordPID(ctx, target.PID)
		if err != nil && !storage.IsNotFound(err) {
			return nil, nil, err
		}
	}
	if rec == nil && ds != nil && ds.HasRecord() {
		rec, err = n.Store.GetRecordByPID(ctx, ds.RecordPID)
		if err != nil && !storage.IsNotFound(err) {
			return nil, nil, err
		}
	}
	if rec == nil {
		return nil, nil, nil
	}

	if ds == nil {
		ds, err = n.Datasets.GetDatasetByRecord(ctx, rec)
		if storage.IsNotFound(err) {
			return nil, nil, nil
		}
		if err != nil {
			return nil, nil, err
		}
	}
	return rec, ds, nil
}

func (n *Notifier) record(kind string, sent bool, err error) {
	status := metrics.StatusSuccess
	switch {
	case err != nil:
		status = metrics.StatusFailure
	case !sent:
		status = metrics.StatusSkipped
	}
	metrics.Notifications.WithLabelValues(kind, status).Inc()
}

// SendDistributionUpdate PATCHes the exported record to the dataset
// endpoint. It returns false if nothing was sent or the tool refused it.
func (n *Notifier) SendDistributionUpdate(ctx context.Context, target Target) (bool, error) {
	sent, err := n.sendDistribution(ctx, target, TypeUpdate)
	n.record(TypeUpdate, sent, err)
	return sent, err
}

// SendDistributionDeletion DELETEs the exported record at the dataset
// endpoint.
func (n *Notifier) SendDistributionDeletion(ctx context.Context, target Target) (bool, error) {
	sent, err := n.sendDistribution(ctx, target, TypeDeletion)
	n.record(TypeDeletion, sent, err)
	return sent, err
}

func (n *Notifier) sendDistribution(ctx context.Context, target Target, kind string) (bool, error) {
	rec, ds, err := n.resolve(ctx, target)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}

	body, err := n.Exporter.ExportDataset(rec)
	if err != nil {
		return false, err
	}
	if body == nil && kind == TypeUpdate {
		return false, nil
	}

	var endpoint string
	if IsSimpleID(ds.DatasetID) {
		endpoint = PrepareEndpointURL(n.Config.DatasetEndpointURL, ds.DatasetID)
	} else {
		// the tool finds the dataset by the id in the body
		endpoint = n.Config.DatasetsEndpointURL
		if body == nil || body.DatasetID.Identifier == "" {
			return false, nil
		}
	}
	if endpoint == "" {
		return false, nil
	}

	var res *rest.Response
	if kind == TypeUpdate {
		res, err = n.Client.PatchJSON(ctx, endpoint, payload(body))
	} else {
		res, err = n.Client.Delete(ctx, endpoint, payload(body))
	}
	if err != nil {
		return false, errors.Wrapf(err, "unable to send %s of dataset `%s`", kind, ds.DatasetID)
	}
	if !res.OK() {
		log.Warnf("%s of dataset `%s` refused by %s: %s", kind, ds.DatasetID, endpoint, res.Status)
		return false, nil
	}
	return true, nil
}

// SendDatasetAddition POSTs the exported record of the dataset to the DMP
// endpoint.
func (n *Notifier) SendDatasetAddition(ctx context.Context, plan *model.DataManagementPlan, target Target) (bool, error) {
	sent, err := n.sendAddition(ctx, plan, target)
	n.record(TypeAddition, sent, err)
	return sent, err
}

func (n *Notifier) sendAddition(ctx context.Context, plan *model.DataManagementPlan, target Target) (bool, error) {
	if plan == nil {
		return false, nil
	}
	rec, ds, err := n.resolve(ctx, target)
	if err != nil {
		return false, err
	}
	if rec == nil {
		return false, nil
	}

	body, err := n.Exporter.ExportDataset(rec)
	if err != nil {
		return false, err
	}
	endpoint := PrepareEndpointURL(n.Config.DMPEndpointURL, plan.DMPID)
	if endpoint == "" {
		return false, nil
	}

	res, err := n.Client.PostJSON(ctx, endpoint, payload(body))
	if err != nil {
		return false, errors.Wrapf(err, "unable to send addition of dataset `%s` to dmp `%s`", ds.DatasetID, plan.DMPID)
	}
	if !res.OK() {
		log.Warnf("addition of dataset `%s` refused by %s: %s", ds.DatasetID, endpoint, res.Status)
		return false, nil
	}
	return true, nil
}

// describe names the target in logs.
func describe(target Target) string {
	switch {
	case target.Record != nil:
		return fmt.Sprintf("record `%s`", target.Record.RecID)
	case target.RecordID != "":
		return fmt.Sprintf("record `%s`", target.RecordID)
	case target.Dataset != nil:
		return fmt.Sprintf("dataset `%s`", target.Dataset.DatasetID)
	case target.DatasetID != "":
		return fmt.Sprintf("dataset `%s`", target.DatasetID)
	}
	return fmt.Sprintf("pid `%s`", target.PID)
}

// payload avoids encoding a nil dataset as a typed nil body.
func payload(body *madmp.Dataset) interface{} {
	if body == nil {
		return nil
	}
	return body
}
