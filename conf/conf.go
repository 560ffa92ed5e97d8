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
	"time"
)

// Conf represents all the maDMP runtime settings of a deployment.
type Conf struct {
	// repository identity, as referenced by distribution hosts
	HostURL   string `mapstructure:"host_url"`
	HostTitle string `mapstructure:"host_title"`

	// mapping defaults
	DefaultContact    string `mapstructure:"default_contact"`
	DefaultLanguage   string `mapstructure:"default_language"`
	DefaultDataAccess string `mapstructure:"default_data_access"`

	ResourceTypeTranslation    map[string]string `mapstructure:"resource_type_translation"`
	ResourceSubtypeTranslation map[string]string `mapstructure:"resource_subtype_translation"`

	AllowMultipleDistributions bool     `mapstructure:"allow_multiple_distributions"`
	AllowUnknownContributors   bool     `mapstructure:"allow_unknown_contributors"`
	RelevantContributorRoles   []string `mapstructure:"relevant_contributor_roles"`
	RecordCreatorUserID        int64    `mapstructure:"record_creator_user_id"`

	LicensesFile string `mapstructure:"licenses_file"`
	// schema replacing the bundled maDMP 1.0 schema
	SchemaFile string `mapstructure:"schema_file"`

	// converters, tried in order before the fallback
	RecordConverters        []string       `mapstructure:"record_converters"`
	FallbackRecordConverter string         `mapstructure:"fallback_record_converter"`
	ExtraFields             []FieldMapping `mapstructure:"extra_fields"`

	DMPTool  DMPTool  `mapstructure:"dmp_tool"`
	Database Database `mapstructure:"database"`
	Elastic  Elastic  `mapstructure:"elastic"`
	S3       S3       `mapstructure:"s3"`
	Server   Server   `mapstructure:"server"`
}

// FieldMapping copies the value found at the JSONPath expression Path in a
// maDMP dataset into the record metadata at the dotted Target path.
type FieldMapping struct {
	Target string `mapstructure:"target"`
	Path   string `mapstructure:"path"`
}

// DMPTool holds the endpoints of the DMP tool receiving notifications.
type DMPTool struct {
	DMPEndpointURL      string        `mapstructure:"dmp"`
	DMPsEndpointURL     string        `mapstructure:"dmps"`
	DatasetEndpointURL  string        `mapstructure:"dataset"`
	DatasetsEndpointURL string        `mapstructure:"datasets"`
	Token               string        `mapstructure:"token"`
	Notify              bool          `mapstructure:"notify"`
	Timeout             time.Duration `mapstructure:"timeout"`
}

// Database holds the postgres connection settings.
type Database struct {
	Database string `mapstructure:"database"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
}

// Elastic holds the record search index settings.
type Elastic struct {
	Endpoint string `mapstructure:"endpoint"`
	Index    string `mapstructure:"index"`
}

// S3 holds the document archive settings.
type S3 struct {
	Bucket   string `mapstructure:"bucket"`
	Prefix   string `mapstructure:"prefix"`
	Region   string `mapstructure:"region"`
	Endpoint string `mapstructure:"endpoint"`
}

// Server holds the REST server settings.
type Server struct {
	Address string `mapstructure:"address"`
}
