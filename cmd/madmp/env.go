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

package main

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/unchartedsoftware/plog"

	"github.com/uncharted-distil/distil-madmp/conf"
	"github.com/uncharted-distil/distil-madmp/convert"
	"github.com/uncharted-distil/distil-madmp/events"
	"github.com/uncharted-distil/distil-madmp/index"
	"github.com/uncharted-distil/distil-madmp/madmp"
	"github.com/uncharted-distil/distil-madmp/notify"
	"github.com/uncharted-distil/distil-madmp/postgres"
	"github.com/uncharted-distil/distil-madmp/postgres/service"
	"github.com/uncharted-distil/distil-madmp/s3"
	"github.com/uncharted-distil/distil-madmp/storage"
	"github.com/uncharted-distil/distil-madmp/storage/memory"
)

// env holds the wired services of a command.
type env struct {
	config    *conf.Conf
	store     storage.Storage
	bus       *events.Bus
	importer  *convert.Importer
	exporter  *convert.Exporter
	validator *madmp.Validator
	database  *postgres.Database
}

func (e *env) Close() {
	if e.database == nil {
		return
	}
	if err := e.database.Close(); err != nil {
		log.Warnf("unable to close database: %v", err)
	}
}

// openDatabase connects to the configured postgres database.
func openDatabase(config *conf.Conf) (*postgres.Database, error) {
	if config.Database.Database == "" {
		return nil, errors.New("missing `database.database` setting")
	}
	return postgres.NewDatabase(config)
}

// newValidator loads the configured schema, or the bundled one.
func newValidator(config *conf.Conf) (*madmp.Validator, error) {
	if config.SchemaFile != "" {
		return madmp.NewValidatorFromFile(config.SchemaFile)
	}
	return madmp.NewValidator()
}

// newArchive connects to the configured archive bucket.
func newArchive(config *conf.Conf) (*s3.Archive, error) {
	if config.S3.Bucket == "" {
		return nil, errors.New("missing `s3.bucket` setting")
	}
	client, err := s3.NewClient(config.S3, nil)
	if err != nil {
		return nil, err
	}
	return s3.NewArchive(client, config.S3), nil
}

// newEnv wires the services on postgres, or on a fresh memory store if
// inMemory is set. Notifications, indexing and archiving are enabled by their
// settings.
func newEnv(ctx context.Context, config *conf.Conf, inMemory bool) (*env, error) {
	e := &env{config: config, bus: events.NewBus()}

	if inMemory {
		log.Warnf("using an in-memory store, nothing will be persisted")
		e.store = memory.New()
	} else {
		database, err := openDatabase(config)
		if err != nil {
			return nil, err
		}
		e.database = database
		e.store = service.NewStore(database)
	}

	converters, err := convert.NewSetFromConfig(config, e.store)
	if err != nil {
		e.Close()
		return nil, errors.Wrap(err, "unable to create record converters")
	}
	e.exporter = convert.NewExporter(e.store, converters)
	e.importer = convert.NewImporter(e.store, converters, config, e.bus)

	e.validator, err = newValidator(config)
	if err != nil {
		e.Close()
		return nil, err
	}

	if config.DMPTool.Notify {
		notify.New(config.DMPTool, e.store, e.exporter).Subscribe(e.bus)
		log.Infof("sending notifications to the DMP tool")
	}

	if config.Elastic.Endpoint != "" {
		client, err := index.NewClient(config.Elastic.Endpoint)
		if err != nil {
			e.Close()
			return nil, err
		}
		indexer := index.NewIndexer(client, config.Elastic.Index)
		if err := indexer.CreateIndex(ctx, false); err != nil {
			e.Close()
			return nil, err
		}
		indexer.Subscribe(e.bus)
		log.Infof("indexing records into `%s`", config.Elastic.Index)
	}

	if config.S3.Bucket != "" {
		archive, err := newArchive(config)
		if err != nil {
			e.Close()
			return nil, err
		}
		e.importer.Archive = archive
		log.Infof("archiving maDMPs in bucket `%s`", config.S3.Bucket)
	}

	return e, nil
}
