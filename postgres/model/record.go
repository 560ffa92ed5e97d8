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

package model

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"

	"github.com/uncharted-distil/distil-madmp/model"
)

// User is a row of the user table.
type User struct {
	ID     int64  `sql:"id"`
	Email  string `sql:"email"`
	Active bool   `sql:"active"`
}

// ToModel converts the row.
func (u *User) ToModel() *model.User {
	return &model.User{ID: u.ID, Email: u.Email, Active: u.Active}
}

// Record is a row of the record table. Data holds the JSON document.
type Record struct {
	ID      string    `sql:"id"`
	RecID   string    `sql:"recid"`
	DOI     string    `sql:"doi"`
	Draft   bool      `sql:"draft"`
	Data    string    `sql:"data"`
	Created time.Time `sql:"created"`
	Updated time.Time `sql:"updated"`
}

// NewRecord creates a row from a record.
func NewRecord(rec *model.Record) (*Record, error) {
	data := rec.Data
	if data == nil {
		data = map[string]interface{}{}
	}
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to marshal record `%s`", rec.RecID)
	}

	return &Record{
		ID:      rec.ID,
		RecID:   rec.RecID,
		DOI:     rec.DOI,
		Draft:   rec.Draft,
		Data:    string(bytes),
		Created: rec.Created,
		Updated: rec.Updated,
	}, nil
}

// ToModel converts the row, decoding the document.
func (r *Record) ToModel() (*model.Record, error) {
	rec := &model.Record{
		ID:      r.ID,
		RecID:   r.RecID,
		DOI:     r.DOI,
		Draft:   r.Draft,
		Data:    map[string]interface{}{},
		Created: r.Created.UTC(),
		Updated: r.Updated.UTC(),
	}
	if r.Data != "" {
		if err := json.Unmarshal([]byte(r.Data), &rec.Data); err != nil {
			return nil, errors.Wrapf(err, "unable to unmarshal record `%s`", r.RecID)
		}
	}
	return rec, nil
}
