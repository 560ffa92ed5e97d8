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

// Package convert maps maDMP datasets onto records and records back onto
// maDMP datasets. The mapping of a deployment is implemented by a
// RecordConverter registered under a name.
package convert

import (
	"context"

	"github.com/Jeffail/gabs/v2"
	"github.com/pkg/errors"

	"github.com/uncharted-distil/distil-madmp/madmp"
	"github.com/uncharted-distil/distil-madmp/model"
	"github.com/uncharted-distil/distil-madmp/records"
)

var (
	// ErrNoOwners is returned when no contributor has a relevant role.
	ErrNoOwners = errors.New("the contributors contain no suitable record owners by role")
	// ErrUnknownContributors is returned when relevant contributors have no
	// user account.
	ErrUnknownContributors = errors.New("DMP contains unknown contributors")
	// ErrNoUsers is returned when no contributor has a user account.
	ErrNoUsers = errors.New("no registered users found for any email address")
	// ErrNoConverter is returned when no converter matches.
	ErrNoConverter = errors.New("no matching converter registered")
	// ErrMultipleDistributions is returned when a dataset has more than one
	// distribution on this host.
	ErrMultipleDistributions = errors.New("dataset has multiple matching distributions on this host")
	// ErrInvalidDate is returned for dates that cannot be parsed.
	ErrInvalidDate = errors.New("invalid date")
)

// IsLookupError checks whether err means that the maDMP could not be mapped.
func IsLookupError(err error) bool {
	switch errors.Cause(err) {
	case ErrNoOwners, ErrUnknownContributors, ErrNoUsers, ErrNoConverter, ErrMultipleDistributions:
		return true
	}
	return false
}

// RecordConverter converts between maDMP dataset distributions and records.
type RecordConverter interface {
	// MatchesDataset checks if the converter is suitable for the
	// distribution.
	MatchesDataset(dist *madmp.Distribution, ds *madmp.Dataset, dmp *madmp.DMP) bool
	// MatchesRecord checks if the converter is suitable for the record.
	MatchesRecord(rec *model.Record) bool
	// ConvertDataset returns the record data for the distribution.
	ConvertDataset(ctx context.Context, dist *madmp.Distribution, ds *madmp.Dataset, dmp *madmp.DMP, people *People) (*gabs.Container, error)
	// ConvertRecord returns the maDMP dataset describing the record, or nil
	// if there is nothing to report.
	ConvertRecord(rec *model.Record) (*madmp.Dataset, error)
	// DatasetMetadataModel returns the metadata standard of the record, or
	// of the converter if rec is nil.
	DatasetMetadataModel(rec *model.Record) madmp.Metadata
	// CreateRecord stores the record data as a new draft.
	CreateRecord(ctx context.Context, svc *records.Service, data *gabs.Container) (*model.Record, error)
	// UpdateRecord updates the record with the new, partial data.
	UpdateRecord(ctx context.Context, svc *records.Service, rec *model.Record, data *gabs.Container) (*model.Record, error)
}

// Base supplies the record handling shared by converters. Converters embed
// it and implement the remaining methods.
type Base struct{}

// MatchesRecord accepts any stored record or draft.
func (Base) MatchesRecord(rec *model.Record) bool {
	return rec != nil
}

// CreateRecord stores the data as a new draft.
func (Base) CreateRecord(ctx context.Context, svc *records.Service, data *gabs.Container) (*model.Record, error) {
	fields, ok := data.Data().(map[string]interface{})
	if !ok {
		return nil, errors.New("record data is not an object")
	}
	return svc.Create(ctx, fields, true)
}

// UpdateRecord merges the access and metadata sections of data into the
// record. Owners and creator of the record are kept.
func (Base) UpdateRecord(ctx context.Context, svc *records.Service, rec *model.Record, data *gabs.Container) (*model.Record, error) {
	if rec.Data == nil {
		rec.Data = map[string]interface{}{}
	}
	for _, section := range []string{"access", "metadata"} {
		update, ok := data.Search(section).Data().(map[string]interface{})
		if !ok {
			continue
		}
		current, ok := rec.Data[section].(map[string]interface{})
		if !ok {
			current = map[string]interface{}{}
		}
		for k, v := range update {
			if section == "access" && (k == "owners" || k == "created_by") {
				continue
			}
			current[k] = v
		}
		rec.Data[section] = current
	}

	if err := svc.Update(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}
