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

// SaveDMP inserts or updates a DMP, assigning an id to new ones.
func (s *Store) SaveDMP(ctx context.Context, dmp *model.DataManagementPlan) error {
	if dmp.ID == "" {
		dmp.ID = uuid.New().String()
	}

	_, err := s.q(ctx).Exec(
		fmt.Sprintf("INSERT INTO %s (id, dmp_id) VALUES (?, ?) ON CONFLICT (id) DO UPDATE SET dmp_id = EXCLUDED.dmp_id;", postgres.DMPTableName),
		dmp.ID, dmp.DMPID)
	return mapError(err, "dmp `%s`", dmp.DMPID)
}

// DeleteDMP removes a DMP. Its links cascade.
func (s *Store) DeleteDMP(ctx context.Context, id string) error {
	res, err := s.q(ctx).Exec(
		fmt.Sprintf("DELETE FROM %s WHERE id = ?;", postgres.DMPTableName), id)
	return affected(res, err, "dmp `%s`", id)
}

// GetDMP returns a DMP by its dmp_id.
func (s *Store) GetDMP(ctx context.Context, dmpID string) (*model.DataManagementPlan, error) {
	var row pgmodel.DMP
	_, err := s.q(ctx).QueryOne(&row,
		fmt.Sprintf("SELECT id, dmp_id FROM %s WHERE dmp_id = ?;", postgres.DMPTableName), dmpID)
	if err != nil {
		return nil, mapError(err, "dmp `%s`", dmpID)
	}
	return s.loadDMP(ctx, &row)
}

// ListDMPs returns all DMPs ordered by dmp_id.
func (s *Store) ListDMPs(ctx context.Context) ([]*model.DataManagementPlan, error) {
	return s.listDMPs(ctx,
		fmt.Sprintf("SELECT id, dmp_id FROM %s ORDER BY dmp_id;", postgres.DMPTableName))
}

// ListDMPsByDataset returns the DMPs linked to the dataset with the given id.
func (s *Store) ListDMPsByDataset(ctx context.Context, id string) ([]*model.DataManagementPlan, error) {
	return s.listDMPs(ctx,
		fmt.Sprintf(`SELECT d.id, d.dmp_id FROM %s d JOIN %s l ON l.dmp_id = d.id
			WHERE l.dataset_id = ? ORDER BY d.dmp_id;`, postgres.DMPTableName, postgres.DMPDatasetTableName),
		id)
}

func (s *Store) listDMPs(ctx context.Context, query string, params ...interface{}) ([]*model.DataManagementPlan, error) {
	var rows []pgmodel.DMP
	if _, err := s.q(ctx).Query(&rows, query, params...); err != nil {
		return nil, mapError(err, "dmps")
	}

	dmps := make([]*model.DataManagementPlan, 0, len(rows))
	for i := range rows {
		dmp, err := s.loadDMP(ctx, &rows[i])
		if err != nil {
			return nil, err
		}
		dmps = append(dmps, dmp)
	}
	return dmps, nil
}

func (s *Store) loadDMP(ctx context.Context, row *pgmodel.DMP) (*model.DataManagementPlan, error) {
	var datasets []*pgmodel.Dataset
	_, err := s.q(ctx).Query(&datasets,
		fmt.Sprintf(`SELECT ds.id, ds.dataset_id, ds.record_pid FROM %s ds JOIN %s l ON l.dataset_id = ds.id
			WHERE l.dmp_id = ? ORDER BY l.seq;`, postgres.DatasetTableName, postgres.DMPDatasetTableName),
		row.ID)
	if err != nil {
		return nil, mapError(err, "datasets of dmp `%s`", row.DMPID)
	}
	return row.ToModel(datasets), nil
}
