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

package conf

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	config := Default()

	assert.Equal(t, "eng", config.DefaultLanguage)
	assert.Equal(t, "open", config.DefaultDataAccess)
	assert.Equal(t, "rdm", config.FallbackRecordConverter)
	assert.Equal(t, "localhost", config.Database.Host)
	assert.Equal(t, 5432, config.Database.Port)
	assert.Equal(t, ":8080", config.Server.Address)
	assert.False(t, config.AllowMultipleDistributions)
	assert.False(t, config.DMPTool.Notify)
	assert.Equal(t, time.Second*30, config.DMPTool.Timeout)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "madmp.yaml")
	err := os.WriteFile(path, []byte(`
host_url: https://test.invenio.cern.ch
host_title: Invenio
allow_multiple_distributions: true
relevant_contributor_roles:
  - data_steward
  - contact_person
resource_type_translation:
  image: image
extra_fields:
  - target: subjects
    path: $.keyword
dmp_tool:
  dataset: https://dmp.example.org/datasets/%s
  token: secret
  notify: true
  timeout: 5s
database:
  database: madmp
  port: 5433
`), 0644)
	require.NoError(t, err)

	config, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://test.invenio.cern.ch", config.HostURL)
	assert.Equal(t, "Invenio", config.HostTitle)
	assert.True(t, config.AllowMultipleDistributions)
	assert.Equal(t, []string{"data_steward", "contact_person"}, config.RelevantContributorRoles)
	assert.Equal(t, "image", config.ResourceTypeTranslation["image"])
	assert.Equal(t, []FieldMapping{{Target: "subjects", Path: "$.keyword"}}, config.ExtraFields)
	assert.Equal(t, "https://dmp.example.org/datasets/%s", config.DMPTool.DatasetEndpointURL)
	assert.Equal(t, "secret", config.DMPTool.Token)
	assert.True(t, config.DMPTool.Notify)
	assert.Equal(t, time.Second*5, config.DMPTool.Timeout)
	assert.Equal(t, "madmp", config.Database.Database)
	assert.Equal(t, 5433, config.Database.Port)

	// untouched keys keep their defaults
	assert.Equal(t, "eng", config.DefaultLanguage)
	assert.Equal(t, "madmp-records", config.Elastic.Index)
}

func TestLoadEnvironment(t *testing.T) {
	t.Setenv("MADMP_HOST_TITLE", "Env Repository")
	t.Setenv("MADMP_DMP_TOOL_TOKEN", "from-env")

	config, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "Env Repository", config.HostTitle)
	assert.Equal(t, "from-env", config.DMPTool.Token)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
