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

package convert

import (
	"context"
	"regexp"

	"github.com/uncharted-distil/distil-madmp/model"
	"github.com/uncharted-distil/distil-madmp/storage"
)

var accessURLPattern = regexp.MustCompile(`^https?://.*?/records/([^/?#]+)`)

// FetchUnassignedRecord looks for an existing record not yet associated with
// any dataset. A record referenced by the access URL takes precedence over
// one whose PID equals the dataset identifier. It returns nil if there is
// none.
func FetchUnassignedRecord(ctx context.Context, store storage.Storage, datasetID, accessURL string) (*model.Record, error) {
	var candidates []string
	if m := accessURLPattern.FindStringSubmatch(accessURL); m != nil {
		candidates = append(candidates, m[1])
	}
	if datasetID != "" {
		candidates = append(candidates, StripIdentifier(datasetID))
	}

	for _, pid := range candidates {
		rec, err := store.GetRecordByPID(ctx, pid)
		if storage.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}

		assigned, err := isAssigned(ctx, store, rec)
		if err != nil {
			return nil, err
		}
		if !assigned {
			return rec, nil
		}
	}
	return nil, nil
}

func isAssigned(ctx context.Context, store storage.Storage, rec *model.Record) (bool, error) {
	for _, pid := range []string{rec.RecID, rec.DOI} {
		if pid == "" {
			continue
		}
		_, err := store.GetDatasetByRecordPID(ctx, pid)
		if err == nil {
			return true, nil
		}
		if !storage.IsNotFound(err) {
			return false, err
		}
	}
	return false, nil
}
