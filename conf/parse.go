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
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "MADMP"

var defaults = map[string]interface{}{
	"host_url":                     "",
	"host_title":                   "",
	"default_contact":              "",
	"default_language":             "eng",
	"default_data_access":          "open",
	"resource_type_translation":    map[string]string{},
	"resource_subtype_translation": map[string]string{},
	"allow_multiple_distributions": false,
	"allow_unknown_contributors":   false,
	"relevant_contributor_roles":   []string{},
	"record_creator_user_id":       0,
	"licenses_file":                "",
	"schema_file":                  "",
	"record_converters":            []string{},
	"fallback_record_converter":    "rdm",
	"extra_fields":                 []FieldMapping{},
	"dmp_tool.dmp":                 "",
	"dmp_tool.dmps":                "",
	"dmp_tool.dataset":             "",
	"dmp_tool.datasets":            "",
	"dmp_tool.token":               "",
	"dmp_tool.notify":              false,
	"dmp_tool.timeout":             time.Second * 30,
	"database.database":            "",
	"database.host":                "localhost",
	"database.port":                5432,
	"database.user":                "",
	"database.password":            "",
	"elastic.endpoint":             "",
	"elastic.index":                "madmp-records",
	"s3.bucket":                    "",
	"s3.prefix":                    "madmp",
	"s3.region":                    "us-east-1",
	"s3.endpoint":                  "",
	"server.address":               ":8080",
}

// Load reads the configuration from the optional YAML file at path and from
// MADMP_* environment variables, e.g. MADMP_DMP_TOOL_TOKEN.
func Load(path string) (*Conf, error) {
	v := newViper()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "failed to read config file `%s`", path)
		}
	}

	config := &Conf{}
	if err := v.Unmarshal(config); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}

	return config, nil
}

// Default returns the configuration with every default applied, ignoring
// the environment.
func Default() *Conf {
	config := &Conf{}
	if err := newViper().Unmarshal(config); err != nil {
		panic(err)
	}
	return config
}

func newViper() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	return v
}
