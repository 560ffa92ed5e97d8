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

package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/uncharted-distil/distil-madmp/model"
	"github.com/uncharted-distil/distil-madmp/postgres"
	pgmodel "github.com/uncharted-distil/distil-madmp/postgres/model"
)

// SaveDataset inserts or updates a dataset, assigning an id to new ones.
func (s *Store) SaveDataset(ctx context.Context, ds *model.Dataset) error {
	if ds.ID == "" {
		ds.ID = uuid.New().String()
	}
	row := pgmodel.NewDataset(ds)

	_, err := s.q(ctx).Exec(
		fmt.Sprintf(`INSERT INTO %s (id, dataset_id, record_pid) VALUES (?, ?, NULLIF(?, ''))
			ON CONFLICT (id) DO UPDATE SET dataset_id = EXCLUDED.dataset_id, record_pid = EXCLUDED.record_pid;`,
			postgres.DatasetTableName),
		row.ID, row.DatasetID, row.RecordPID)
	return mapError(err, "dataset `%s`", ds.DatasetID)
}

// DeleteDataset removes a dataset. Its links cascade.
func (s *Store) DeleteDataset(ctx context.Context, id string) error {
	res, err := s.q(ctx).Exec(
		fmt.Sprintf("DELETE FROM %s WHERE id = ?;", postgres.DatasetTableName), id)
	return affected(res, err, "dataset `%s`", id)
}

// GetDataset returns a dataset by its dataset_id.
func (s *Store) GetDataset(ctx context.Context, datasetID string) (*model.Dataset, error) {
	return s.getDataset(ctx, "dataset_id = ?", datasetID)
}

// GetDatasetByRecordPID returns the dataset associated with a record PID.
func (s *Store) GetDatasetByRecordPID(ctx context.Context, pid string) (*model.Dataset, error) {
	return s.getDataset(ctx, "record_pid = ?", pid)
}

func (s *Store) getDataset(ctx context.Context, where string, param string) (*model.Dataset, error) {
	var row pgmodel.Dataset
	_, err := s.q(ctx).QueryOne(&row,
		fmt.Sprintf("SELECT id, dataset_id, record_pid FROM %s WHERE %s LIMIT 1;", postgres.DatasetTableName, where),
		param)
	if err != nil {
		return nil, mapError(err, "dataset `%s`", param)
	}
	return row.ToModel(), nil
}

// LinkDataset links a dataset to a DMP, reporting false if already linked.
func (s *Store) LinkDataset(ctx context.Context, dmpID, datasetID string) (bool, error) {
	res, err := s.q(ctx).Exec(
		fmt.Sprintf("INSERT INTO %s (dmp_id, dataset_id) VALUES (?, ?) ON CONFLICT DO NOTHING;", postgres.DMPDatasetTableName),
		dmpID, datasetID)
	if err != nil {
		return false, mapError(err, "link of dataset `%s` to dmp `%s`", datasetID, dmpID)
	}
	return res.RowsAffected() > 0, nil
}

// UnlinkDataset removes a link, reporting false if there was none.
func (s *Store) UnlinkDataset(ctx context.Context, dmpID, datasetID string) (bool, error) {
	res, err := s.q(ctx).Exec(
		fmt.Sprintf("DELETE FROM %s WHERE dmp_id = ? AND dataset_id = ?;", postgres.DMPDatasetTableName),
		dmpID, datasetID)
	if err != nil {
		return false, mapError(err, "link of dataset `%s` to dmp `%s`", datasetID, dmpID)
	}
	return res.RowsAffected() > 0, nil
}
