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

package postgres

import (
	"fmt"

	"github.com/go-pg/pg"
	log "github.com/unchartedsoftware/plog"

	"github.com/uncharted-distil/distil-madmp/conf"
)

const (
	// UserTableName holds the repository accounts.
	UserTableName = "madmp_users"
	// RecordTableName holds records and drafts.
	RecordTableName = "madmp_records"
	// DatasetTableName holds the datasets of DMPs.
	DatasetTableName = "madmp_datasets"
	// DMPTableName holds the DMPs.
	DMPTableName = "madmp_dmps"
	// DMPDatasetTableName links DMPs and datasets.
	DMPDatasetTableName = "madmp_dmp_datasets"

	userTableCreationSQL = `CREATE TABLE IF NOT EXISTS %s (
			id		BIGSERIAL		PRIMARY KEY,
			email	varchar(255)	NOT NULL,
			active	boolean			NOT NULL DEFAULT true
		);
		CREATE UNIQUE INDEX IF NOT EXISTS %[1]s_email_idx ON %[1]s (lower(email));`
	recordTableCreationSQL = `CREATE TABLE IF NOT EXISTS %s (
			id		uuid			PRIMARY KEY,
			recid	varchar(20)		NOT NULL UNIQUE,
			doi		varchar(255)	UNIQUE,
			draft	boolean			NOT NULL DEFAULT false,
			data	jsonb			NOT NULL DEFAULT '{}',
			created	timestamptz		NOT NULL,
			updated	timestamptz		NOT NULL
		);`
	datasetTableCreationSQL = `CREATE TABLE IF NOT EXISTS %s (
			id			uuid			PRIMARY KEY,
			dataset_id	text			NOT NULL UNIQUE,
			record_pid	varchar(255)
		);
		CREATE INDEX IF NOT EXISTS %[1]s_record_pid_idx ON %[1]s (record_pid);`
	dmpTableCreationSQL = `CREATE TABLE IF NOT EXISTS %s (
			id		uuid	PRIMARY KEY,
			dmp_id	text	NOT NULL UNIQUE
		);`
	dmpDatasetTableCreationSQL = `CREATE TABLE IF NOT EXISTS %s (
			seq			BIGSERIAL,
			dmp_id		uuid	NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
			dataset_id	uuid	NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
			PRIMARY KEY (dmp_id, dataset_id)
		);`
)

// Database is a connection to the repository database.
type Database struct {
	DB *pg.DB
}

// NewDatabase creates a new database instance.
func NewDatabase(config *conf.Conf) (*Database, error) {
	db := pg.Connect(&pg.Options{
		Addr:     fmt.Sprintf("%s:%d", config.Database.Host, config.Database.Port),
		User:     config.Database.User,
		Password: config.Database.Password,
		Database: config.Database.Database,
	})

	database := &Database{
		DB: db,
	}

	return database, nil
}

// Close closes the connection pool.
func (d *Database) Close() error {
	return d.DB.Close()
}

// CreateTables creates the repository tables if they do not exist.
func (d *Database) CreateTables() error {
	log.Infof("Creating repository tables.")
	statements := []string{
		fmt.Sprintf(userTableCreationSQL, UserTableName),
		fmt.Sprintf(recordTableCreationSQL, RecordTableName),
		fmt.Sprintf(datasetTableCreationSQL, DatasetTableName),
		fmt.Sprintf(dmpTableCreationSQL, DMPTableName),
		fmt.Sprintf(dmpDatasetTableCreationSQL, DMPDatasetTableName, DMPTableName, DatasetTableName),
	}
	for _, statement := range statements {
		if _, err := d.DB.Exec(statement); err != nil {
			return err
		}
	}

	return nil
}

// DropTables drops the repository tables, link table first.
func (d *Database) DropTables() error {
	for _, table := range []string{DMPDatasetTableName, DMPTableName, DatasetTableName, RecordTableName, UserTableName} {
		if err := d.DropTable(table); err != nil {
			return err
		}
	}

	return nil
}

// DropTable drops the specified table from the database.
func (d *Database) DropTable(tableName string) error {
	log.Infof("Dropping table %s", tableName)
	drop := fmt.Sprintf("DROP TABLE IF EXISTS %s;", tableName)
	_, err := d.DB.Exec(drop)
	if err != nil {
		return err
	}
	log.Infof("Dropped table %s", tableName)

	return nil
}
