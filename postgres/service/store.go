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

	"github.com/go-pg/pg"
	"github.com/pkg/errors"

	"github.com/uncharted-distil/distil-madmp/model"
	"github.com/uncharted-distil/distil-madmp/postgres"
	pgmodel "github.com/uncharted-distil/distil-madmp/postgres/model"
	"github.com/uncharted-distil/distil-madmp/storage"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

var _ storage.Storage = (*Store)(nil)

// querier is satisfied by both *pg.DB and *pg.Tx.
type querier interface {
	Exec(query interface{}, params ...interface{}) (pg.Result, error)
	Query(model, query interface{}, params ...interface{}) (pg.Result, error)
	QueryOne(model, query interface{}, params ...interface{}) (pg.Result, error)
}

// Store implements storage.Storage on the repository tables.
type Store struct {
	DB *pg.DB
	tx *pg.Tx
}

// NewStore creates a store on the database.
func NewStore(database *postgres.Database) *Store {
	return &Store{
		DB: database.DB,
	}
}

func (s *Store) q(ctx context.Context) querier {
	if s.tx != nil {
		return s.tx
	}
	return s.DB.WithContext(ctx)
}

// RunInTransaction runs fn in a database transaction. Nested calls join the
// running transaction.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx storage.Storage) error) error {
	if s.tx != nil {
		return fn(s)
	}
	return s.DB.WithContext(ctx).RunInTransaction(func(tx *pg.Tx) error {
		return fn(&Store{DB: s.DB, tx: tx})
	})
}

// mapError translates missing rows and constraint violations into the
// storage errors.
func mapError(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	if err == pg.ErrNoRows {
		return errors.Wrapf(storage.ErrNotFound, format, args...)
	}
	if pgErr, ok := err.(pg.Error); ok {
		switch pgErr.Field('C') {
		case uniqueViolation:
			return errors.Wrapf(storage.ErrConflict, format, args...)
		case foreignKeyViolation:
			return errors.Wrapf(storage.ErrNotFound, format, args...)
		}
	}
	return errors.Wrapf(err, format, args...)
}

func affected(res pg.Result, err error, format string, args ...interface{}) error {
	if err != nil {
		return mapError(err, format, args...)
	}
	if res.RowsAffected() == 0 {
		return errors.Wrapf(storage.ErrNotFound, format, args...)
	}
	return nil
}

// CreateUser inserts a user, assigning a serial id when none is set.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	var err error
	if user.ID == 0 {
		_, err = s.q(ctx).QueryOne(pg.Scan(&user.ID),
			fmt.Sprintf("INSERT INTO %s (email, active) VALUES (?, ?) RETURNING id;", postgres.UserTableName),
			user.Email, user.Active)
	} else {
		_, err = s.q(ctx).Exec(
			fmt.Sprintf("INSERT INTO %s (id, email, active) VALUES (?, ?, ?);", postgres.UserTableName),
			user.ID, user.Email, user.Active)
	}
	return mapError(err, "user `%s`", user.Email)
}

// FindUserByEmail looks the user up case-insensitively.
func (s *Store) FindUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var row pgmodel.User
	_, err := s.q(ctx).QueryOne(&row,
		fmt.Sprintf("SELECT id, email, active FROM %s WHERE lower(email) = lower(?);", postgres.UserTableName),
		email)
	if err != nil {
		return nil, mapError(err, "user `%s`", email)
	}
	return row.ToModel(), nil
}

// ListUsers returns the users ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]*model.User, error) {
	var rows []pgmodel.User
	_, err := s.q(ctx).Query(&rows,
		fmt.Sprintf("SELECT id, email, active FROM %s ORDER BY id;", postgres.UserTableName))
	if err != nil {
		return nil, mapError(err, "users")
	}

	users := make([]*model.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].ToModel())
	}
	return users, nil
}
