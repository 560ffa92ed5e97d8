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

	"github.com/uncharted-distil/distil-madmp/model"
	"github.com/uncharted-distil/distil-madmp/postgres"
	pgmodel "github.com/uncharted-distil/distil-madmp/postgres/model"
)

const recordColumns = "id, recid, doi, draft, data, created, updated"

// CreateRecord inserts a record. An empty DOI is stored as NULL.
func (s *Store) CreateRecord(ctx context.Context, rec *model.Record) error {
	row, err := pgmodel.NewRecord(rec)
	if err != nil {
		return err
	}

	_, err = s.q(ctx).Exec(
		fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, NULLIF(?, ''), ?, ?, ?, ?);", postgres.RecordTableName, recordColumns),
		row.ID, row.RecID, row.DOI, row.Draft, row.Data, row.Created, row.Updated)
	return mapError(err, "record `%s`", rec.RecID)
}

// UpdateRecord replaces the stored record with the same id.
func (s *Store) UpdateRecord(ctx context.Context, rec *model.Record) error {
	row, err := pgmodel.NewRecord(rec)
	if err != nil {
		return err
	}

	res, err := s.q(ctx).Exec(
		fmt.Sprintf("UPDATE %s SET recid = ?, doi = NULLIF(?, ''), draft = ?, data = ?, updated = ? WHERE id = ?;", postgres.RecordTableName),
		row.RecID, row.DOI, row.Draft, row.Data, row.Updated, row.ID)
	return affected(res, err, "record `%s`", rec.ID)
}

// DeleteRecord removes a record by id.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	res, err := s.q(ctx).Exec(
		fmt.Sprintf("DELETE FROM %s WHERE id = ?;", postgres.RecordTableName), id)
	return affected(res, err, "record `%s`", id)
}

// GetRecord returns a record by id.
func (s *Store) GetRecord(ctx context.Context, id string) (*model.Record, error) {
	return s.getRecord(ctx, "id = ?", id)
}

// GetRecordByPID returns the record with the given recid or DOI.
func (s *Store) GetRecordByPID(ctx context.Context, pid string) (*model.Record, error) {
	return s.getRecord(ctx, "recid = ? OR doi = ?", pid, pid)
}

func (s *Store) getRecord(ctx context.Context, where string, params ...interface{}) (*model.Record, error) {
	var row pgmodel.Record
	_, err := s.q(ctx).QueryOne(&row,
		fmt.Sprintf("SELECT %s FROM %s WHERE %s LIMIT 1;", recordColumns, postgres.RecordTableName, where),
		params...)
	if err != nil {
		return nil, mapError(err, "record `%v`", params[0])
	}
	return row.ToModel()
}

// ListRecords returns the records ordered by creation time.
func (s *Store) ListRecords(ctx context.Context) ([]*model.Record, error) {
	var rows []pgmodel.Record
	_, err := s.q(ctx).Query(&rows,
		fmt.Sprintf("SELECT %s FROM %s ORDER BY created, recid;", recordColumns, postgres.RecordTableName))
	if err != nil {
		return nil, mapError(err, "records")
	}

	records := make([]*model.Record, 0, len(rows))
	for i := range rows {
		rec, err := rows[i].ToModel()
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
