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
	"testing"
	"time"

	"github.com/Jeffail/gabs/v2"
	"github.com/stretchr/testify/require"

	"github.com/uncharted-distil/distil-madmp/conf"
	"github.com/uncharted-distil/distil-madmp/madmp"
	"github.com/uncharted-distil/distil-madmp/model"
	"github.com/uncharted-distil/distil-madmp/storage/memory"
)

const fullDMP = "../madmp/testdata/full.json"

var testNow = time.Date(2020, 5, 1, 12, 0, 0, 0, time.UTC)

func testConfig() *conf.Conf {
	config := conf.Default()
	config.HostURL = "https://test.invenio.cern.ch"
	config.HostTitle = "Invenio"
	config.DefaultContact = "repository@test.invenio.cern.ch"
	config.ResourceTypeTranslation = map[string]string{"image": "image", "text": "publication"}
	config.ResourceSubtypeTranslation = map[string]string{"image": "image-photo"}
	return config
}

type fixture struct {
	ctx       context.Context
	config    *conf.Conf
	store     *memory.Store
	converter *RDMConverter
	doc       *madmp.DMP
	miksa     *model.User
	smith     *model.User
}

func newFixture(t *testing.T) *fixture {
	ctx := context.Background()
	store := memory.New()

	miksa := &model.User{Email: "tmiksa@sba-research.org", Active: true}
	smith := &model.User{Email: "john.smith@tuwien.ac.at", Active: true}
	require.NoError(t, store.CreateUser(ctx, miksa))
	require.NoError(t, store.CreateUser(ctx, smith))

	config := testConfig()
	converter, err := NewRDMConverter(Deps{Config: config, Users: store})
	require.NoError(t, err)
	rdm := converter.(*RDMConverter)
	rdm.Now = func() time.Time { return testNow }

	doc, err := madmp.ParseFile(fullDMP)
	require.NoError(t, err)

	return &fixture{
		ctx:       ctx,
		config:    config,
		store:     store,
		converter: rdm,
		doc:       doc,
		miksa:     miksa,
		smith:     smith,
	}
}

func (f *fixture) set() *Set {
	return &Set{Fallback: f.converter}
}

// stubConverter matches datasets of type "stub".
type stubConverter struct {
	Base
	name string
}

func (s *stubConverter) MatchesDataset(dist *madmp.Distribution, ds *madmp.Dataset, dmp *madmp.DMP) bool {
	return ds.Type == "stub"
}

func (s *stubConverter) ConvertDataset(ctx context.Context, dist *madmp.Distribution, ds *madmp.Dataset, dmp *madmp.DMP, people *People) (*gabs.Container, error) {
	return gabs.Wrap(map[string]interface{}{
		"metadata": map[string]interface{}{"title": ds.Title, "converter": s.name},
	}), nil
}

func (s *stubConverter) ConvertRecord(rec *model.Record) (*madmp.Dataset, error) {
	return &madmp.Dataset{Title: s.name, DatasetID: madmp.Identifier{Identifier: rec.RecID, Type: "other"}}, nil
}

func (s *stubConverter) DatasetMetadataModel(rec *model.Record) madmp.Metadata {
	return madmp.Metadata{Description: s.name}
}
