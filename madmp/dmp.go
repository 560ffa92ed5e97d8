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

// Package madmp models machine-actionable data management plans as defined
// by the RDA DMP Common Standard 1.0.
package madmp

import (
	"encoding/json"
)

// Identifier is the identifier/type pair used throughout the standard, for
// dmp_id, dataset_id, contact_id, contributor_id and metadata_standard_id.
type Identifier struct {
	Identifier string `json:"identifier"`
	Type       string `json:"type"`
}

// Document is the top level envelope of a maDMP JSON file.
type Document struct {
	DMP *DMP `json:"dmp"`
}

// DMP is a data management plan. Raw holds the document it was parsed from,
// if any.
type DMP struct {
	Title                    string        `json:"title"`
	Description              string        `json:"description,omitempty"`
	Language                 string        `json:"language,omitempty"`
	Created                  string        `json:"created,omitempty"`
	Modified                 string        `json:"modified,omitempty"`
	EthicalIssuesExist       string        `json:"ethical_issues_exist,omitempty"`
	EthicalIssuesDescription string        `json:"ethical_issues_description,omitempty"`
	EthicalIssuesReport      string        `json:"ethical_issues_report,omitempty"`
	DMPID                    Identifier    `json:"dmp_id"`
	Contact                  *Contact      `json:"contact,omitempty"`
	Contributor              []Contributor `json:"contributor,omitempty"`
	Cost                     []Cost        `json:"cost,omitempty"`
	Dataset                  []Dataset     `json:"dataset,omitempty"`
	Project                  []Project     `json:"project,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Contact is the person responsible for the DMP.
type Contact struct {
	Name      string     `json:"name,omitempty"`
	Mbox      string     `json:"mbox,omitempty"`
	ContactID Identifier `json:"contact_id"`
}

// Contributor is a person contributing to the DMP, with one or more roles.
type Contributor struct {
	Name          string     `json:"name"`
	Mbox          string     `json:"mbox,omitempty"`
	Role          []string   `json:"role,omitempty"`
	ContributorID Identifier `json:"contributor_id"`
}

// Cost is a cost item of the DMP.
type Cost struct {
	Title        string   `json:"title"`
	Description  string   `json:"description,omitempty"`
	CurrencyCode string   `json:"currency_code,omitempty"`
	Value        *float64 `json:"value,omitempty"`
}

// Project is a project the DMP belongs to.
type Project struct {
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Start       string    `json:"start,omitempty"`
	End         string    `json:"end,omitempty"`
	Funding     []Funding `json:"funding,omitempty"`
}

// Funding is the funding of a project.
type Funding struct {
	FunderID      Identifier  `json:"funder_id"`
	FundingStatus string      `json:"funding_status,omitempty"`
	GrantID       *Identifier `json:"grant_id,omitempty"`
}

// Dataset is a dataset described by the DMP. Raw keeps the dataset as it
// appeared in the document, including fields not modelled here.
type Dataset struct {
	Title              string               `json:"title"`
	Description        string               `json:"description,omitempty"`
	Type               string               `json:"type,omitempty"`
	Language           string               `json:"language,omitempty"`
	Issued             string               `json:"issued,omitempty"`
	Keyword            []string             `json:"keyword,omitempty"`
	PersonalData       string               `json:"personal_data,omitempty"`
	SensitiveData      string               `json:"sensitive_data,omitempty"`
	PreservationStmt   string               `json:"preservation_statement,omitempty"`
	DataQualityAssur   []string             `json:"data_quality_assurance,omitempty"`
	DatasetID          Identifier           `json:"dataset_id"`
	Distribution       []Distribution       `json:"distribution,omitempty"`
	Metadata           []Metadata           `json:"metadata,omitempty"`
	SecurityAndPrivacy []SecurityAndPrivacy `json:"security_and_privacy,omitempty"`
	TechnicalResource  []TechnicalResource  `json:"technical_resource,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Distribution is a physical manifestation of a dataset, hosted somewhere.
type Distribution struct {
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	AccessURL      string    `json:"access_url,omitempty"`
	DownloadURL    string    `json:"download_url,omitempty"`
	AvailableUntil string    `json:"available_until,omitempty"`
	ByteSize       *int64    `json:"byte_size,omitempty"`
	DataAccess     string    `json:"data_access,omitempty"`
	Format         []string  `json:"format,omitempty"`
	Host           *Host     `json:"host,omitempty"`
	License        []License `json:"license,omitempty"`
}

// Host is the repository or system hosting a distribution.
type Host struct {
	Title             string   `json:"title"`
	URL               string   `json:"url"`
	Description       string   `json:"description,omitempty"`
	Availability      string   `json:"availability,omitempty"`
	BackupFrequency   string   `json:"backup_frequency,omitempty"`
	BackupType        string   `json:"backup_type,omitempty"`
	CertifiedWith     string   `json:"certified_with,omitempty"`
	GeoLocation       string   `json:"geo_location,omitempty"`
	PIDSystem         []string `json:"pid_system,omitempty"`
	StorageType       string   `json:"storage_type,omitempty"`
	SupportVersioning string   `json:"support_versioning,omitempty"`
}

// License is the license of a distribution, effective from StartDate.
type License struct {
	LicenseRef string `json:"license_ref"`
	StartDate  string `json:"start_date"`
}

// Metadata names a metadata standard used to describe a dataset.
type Metadata struct {
	Description        string     `json:"description,omitempty"`
	Language           string     `json:"language,omitempty"`
	MetadataStandardID Identifier `json:"metadata_standard_id"`
}

// SecurityAndPrivacy is a security or privacy statement about a dataset.
type SecurityAndPrivacy struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// TechnicalResource is a technical resource needed to work with a dataset.
type TechnicalResource struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// UnmarshalJSON decodes the dataset and keeps a copy of the raw input.
func (d *Dataset) UnmarshalJSON(data []byte) error {
	type plain Dataset
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*d = Dataset(p)
	d.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// RawValue returns the raw dataset as generic JSON values, for path based
// lookups. A dataset built in code is marshalled on the fly.
func (d *Dataset) RawValue() (interface{}, error) {
	raw := d.Raw
	if len(raw) == 0 {
		var err error
		raw, err = json.Marshal(d)
		if err != nil {
			return nil, err
		}
	}

	var value interface{}
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, err
	}
	return value, nil
}
