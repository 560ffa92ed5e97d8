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

// Package index keeps an Elasticsearch index of the records.
package index

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/Jeffail/gabs/v2"
	"github.com/pkg/errors"
	log "github.com/unchartedsoftware/plog"
	"gopkg.in/olivere/elastic.v5"

	"github.com/uncharted-distil/distil-madmp/events"
	"github.com/uncharted-distil/distil-madmp/model"
)

const (
	// RecordType is the mapping type of the indexed records.
	RecordType = "record"

	timeout = time.Second * 30
)

const indexMapping = `{
	"settings": {
		"analysis": {
			"filter": {
				"ngram_filter": {
					"type": "ngram",
					"min_gram": 4,
					"max_gram": 20
				}
			},
			"analyzer": {
				"ngram_analyzer": {
					"type": "custom",
					"tokenizer": "standard",
					"filter": [
						"lowercase",
						"ngram_filter"
					]
				}
			}
		}
	},
	"mappings": {
		"record": {
			"properties": {
				"recid": {
					"type": "keyword"
				},
				"doi": {
					"type": "keyword"
				},
				"draft": {
					"type": "boolean"
				},
				"title": {
					"type": "text",
					"analyzer": "ngram_analyzer"
				},
				"description": {
					"type": "text"
				},
				"created": {
					"type": "date"
				},
				"updated": {
					"type": "date"
				},
				"data": {
					"type": "object",
					"enabled": false
				}
			}
		}
	}
}`

// NewClient connects to the Elasticsearch endpoint.
func NewClient(endpoint string) (*elastic.Client, error) {
	client, err := elastic.NewClient(
		elastic.SetURL(endpoint),
		elastic.SetHttpClient(&http.Client{Timeout: timeout}),
		elastic.SetMaxRetries(10),
		elastic.SetSniff(false),
		elastic.SetGzip(true))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to connect to elasticsearch at `%s`", endpoint)
	}
	return client, nil
}

// Indexer writes records to an index.
type Indexer struct {
	Client *elastic.Client
	Index  string
}

// NewIndexer creates an indexer for the named index.
func NewIndexer(client *elastic.Client, index string) *Indexer {
	return &Indexer{
		Client: client,
		Index:  index,
	}
}

// CreateIndex creates the index with the record mappings. An existing
// index is kept unless overwrite is set.
func (i *Indexer) CreateIndex(ctx context.Context, overwrite bool) error {
	exists, err := i.Client.IndexExists(i.Index).Do(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to complete check for existence of index %s", i.Index)
	}

	if exists {
		if !overwrite {
			return nil
		}
		deleted, err := i.Client.DeleteIndex(i.Index).Do(ctx)
		if err != nil {
			return errors.Wrapf(err, "failed to delete index %s", i.Index)
		}
		if !deleted.Acknowledged {
			return fmt.Errorf("failed to create index `%s`, index could not be deleted", i.Index)
		}
	}

	created, err := i.Client.CreateIndex(i.Index).BodyString(indexMapping).Do(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to create index %s", i.Index)
	}
	if !created.Acknowledged {
		return fmt.Errorf("failed to create new index %s", i.Index)
	}
	return nil
}

// Document returns the indexed representation of the record.
func Document(rec *model.Record) map[string]interface{} {
	data := gabs.Wrap(rec.Data)
	title, _ := data.Path("metadata.titles.0.title").Data().(string)
	description, _ := data.Path("metadata.descriptions.0.description").Data().(string)

	doc := map[string]interface{}{
		"recid":       rec.RecID,
		"draft":       rec.Draft,
		"title":       title,
		"description": description,
		"created":     rec.Created.UTC().Format(time.RFC3339),
		"updated":     rec.Updated.UTC().Format(time.RFC3339),
		"data":        rec.Data,
	}
	if rec.DOI != "" {
		doc["doi"] = rec.DOI
	}
	return doc
}

// IndexRecord adds or replaces the document of the record.
func (i *Indexer) IndexRecord(ctx context.Context, rec *model.Record) error {
	_, err := i.Client.Index().
		Index(i.Index).
		Type(RecordType).
		Id(rec.RecID).
		BodyJson(Document(rec)).
		Do(ctx)
	if err != nil {
		return errors.Wrapf(err, "failed to add record `%s` to index `%s`", rec.RecID, i.Index)
	}
	return nil
}

// DeleteRecord removes the document of the record. Missing documents are
// ignored.
func (i *Indexer) DeleteRecord(ctx context.Context, rec *model.Record) error {
	_, err := i.Client.Delete().
		Index(i.Index).
		Type(RecordType).
		Id(rec.RecID).
		Do(ctx)
	if err != nil && !elastic.IsNotFound(err) {
		return errors.Wrapf(err, "failed to remove record `%s` from index `%s`", rec.RecID, i.Index)
	}
	return nil
}

// Subscribe keeps the index in sync with the record events of the bus.
func (i *Indexer) Subscribe(bus *events.Bus) {
	bus.Subscribe(i.handle, events.RecordCreated, events.RecordUpdated, events.RecordDeleted)
}

func (i *Indexer) handle(ctx context.Context, ev events.Event) error {
	if ev.Record == nil {
		return nil
	}
	switch ev.Kind {
	case events.RecordCreated, events.RecordUpdated:
		return i.IndexRecord(ctx, ev.Record)
	case events.RecordDeleted:
		log.Infof("removing record `%s` from index `%s`", ev.Record.RecID, i.Index)
		return i.DeleteRecord(ctx, ev.Record)
	}
	return nil
}
