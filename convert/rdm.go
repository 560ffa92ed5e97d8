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
	"fmt"
	"strings"
	"time"

	"github.com/Jeffail/gabs/v2"
	"github.com/PaesslerAG/jsonpath"
	"github.com/pkg/errors"
	log "github.com/unchartedsoftware/plog"

	"github.com/uncharted-distil/distil-madmp/conf"
	"github.com/uncharted-distil/distil-madmp/license"
	"github.com/uncharted-distil/distil-madmp/madmp"
	"github.com/uncharted-distil/distil-madmp/model"
	"github.com/uncharted-distil/distil-madmp/storage"
)

const (
	// RDMConverterName is the registered name of the RDMConverter.
	RDMConverterName = "rdm"

	noTitle       = "[No Title]"
	noDescription = "[No Description]"
	doiResolver   = "https://doi.org/"
)

// RDMMetadataModel is the metadata standard of the RDM records.
var RDMMetadataModel = madmp.Metadata{
	Description: "Datacite-based metadata model used by Invenio RDM",
	Language:    "eng",
	MetadataStandardID: madmp.Identifier{
		Identifier: "https://schema.datacite.org/meta/kernel-4.3/",
		Type:       "url",
	},
}

func init() {
	Register(RDMConverterName, NewRDMConverter)
}

// RDMConverter maps maDMP distributions onto the Datacite based metadata
// model of Invenio RDM records.
type RDMConverter struct {
	Base

	Config   *conf.Conf
	Users    UserFinder
	Licenses *license.Catalog
	Now      func() time.Time
}

// NewRDMConverter creates the converter. A missing catalog defaults to the
// built-in licenses.
func NewRDMConverter(deps Deps) (RecordConverter, error) {
	if deps.Config == nil {
		return nil, errors.New("missing config")
	}
	if deps.Users == nil {
		return nil, errors.New("missing user lookup")
	}
	catalog := deps.Licenses
	if catalog == nil {
		catalog = license.NewCatalog()
	}

	return &RDMConverter{
		Config:   deps.Config,
		Users:    deps.Users,
		Licenses: catalog,
		Now:      time.Now,
	}, nil
}

// MatchesDataset is true if the dataset is described with a Datacite
// metadata standard.
func (c *RDMConverter) MatchesDataset(dist *madmp.Distribution, ds *madmp.Dataset, dmp *madmp.DMP) bool {
	for _, m := range ds.Metadata {
		if strings.Contains(strings.ToLower(m.MetadataStandardID.Identifier), "datacite.org") {
			return true
		}
	}
	return false
}

// DatasetMetadataModel returns the RDM metadata model.
func (c *RDMConverter) DatasetMetadataModel(rec *model.Record) madmp.Metadata {
	return RDMMetadataModel
}

func (c *RDMConverter) language(ds *madmp.Dataset) string {
	if ds.Language != "" {
		return ds.Language
	}
	return c.Config.DefaultLanguage
}

func (c *RDMConverter) accessRight(dist *madmp.Distribution) string {
	if dist.DataAccess != "" {
		return dist.DataAccess
	}
	return c.Config.DefaultDataAccess
}

func (c *RDMConverter) resourceType(ds *madmp.Dataset) map[string]interface{} {
	typ := strings.ToLower(ds.Type)
	resourceType, ok := c.Config.ResourceTypeTranslation[typ]
	if !ok {
		resourceType = "other"
	}
	return map[string]interface{}{
		"type":    resourceType,
		"subtype": c.Config.ResourceSubtypeTranslation[typ],
	}
}

func (c *RDMConverter) title(ds *madmp.Dataset) map[string]interface{} {
	title := ds.Title
	if title == "" {
		title = noTitle
	}
	return map[string]interface{}{
		"title": title,
		"type":  "MainTitle",
		"lang":  c.language(ds),
	}
}

func (c *RDMConverter) description(ds *madmp.Dataset) map[string]interface{} {
	description := ds.Description
	if description == "" {
		description = noDescription
	}
	return map[string]interface{}{
		"description": description,
		"type":        "Other",
		"lang":        c.language(ds),
	}
}

// earliestLicenseStart returns the earliest license start date, or the zero
// time when the distribution has no licenses.
func earliestLicenseStart(dist *madmp.Distribution) (time.Time, error) {
	var earliest time.Time
	for _, l := range dist.License {
		start, err := ParseDate(l.StartDate)
		if err != nil {
			return time.Time{}, errors.Wrapf(err, "invalid license start date of `%s`", l.LicenseRef)
		}
		if earliest.IsZero() || start.Before(earliest) {
			earliest = start
		}
	}
	return earliest, nil
}

// owners resolves the relevant contributors to user accounts.
func (c *RDMConverter) owners(ctx context.Context, dmp *madmp.DMP) ([]*model.User, error) {
	relevant := FilterContributors(dmp.Contributor, c.Config.RelevantContributorRoles)
	if len(relevant) == 0 {
		return nil, ErrNoOwners
	}

	var emails, unknown []string
	var users []*model.User
	seen := map[int64]bool{}
	for _, contributor := range relevant {
		if contributor.Mbox == "" {
			continue
		}
		emails = append(emails, contributor.Mbox)

		user, err := c.Users.FindUserByEmail(ctx, contributor.Mbox)
		if storage.IsNotFound(err) {
			unknown = append(unknown, contributor.Mbox)
			continue
		}
		if err != nil {
			return nil, errors.Wrapf(err, "unable to look up contributor `%s`", contributor.Mbox)
		}
		if !seen[user.ID] {
			seen[user.ID] = true
			users = append(users, user)
		}
	}

	if len(unknown) > 0 && !c.Config.AllowUnknownContributors {
		return nil, errors.Wrapf(ErrUnknownContributors, "%v", unknown)
	}
	if len(users) == 0 {
		return nil, errors.Wrapf(ErrNoUsers, "%v", emails)
	}
	return users, nil
}

// ConvertDataset maps the distribution, its dataset and the DMP persons to
// RDM record data.
func (c *RDMConverter) ConvertDataset(ctx context.Context, dist *madmp.Distribution, ds *madmp.Dataset, dmp *madmp.DMP, people *People) (*gabs.Container, error) {
	if people == nil {
		people = NewPeople(dmp, c.Config.DefaultContact)
	}

	earliest, err := earliestLicenseStart(dist)
	if err != nil {
		return nil, err
	}
	users, err := c.owners(ctx, dmp)
	if err != nil {
		return nil, err
	}

	licenses := make([]interface{}, 0, len(dist.License))
	for _, l := range dist.License {
		licenses = append(licenses, c.Licenses.Translate(l.LicenseRef).Fields())
	}

	now := c.Now().UTC()
	accessRight := c.accessRight(dist)
	metadata := map[string]interface{}{
		"contact":          people.Contact,
		"resource_type":    c.resourceType(ds),
		"creators":         toList(people.Creators),
		"titles":           []interface{}{c.title(ds)},
		"contributors":     toList(people.Contributors),
		"dates":            []interface{}{},
		"language":         c.language(ds),
		"licenses":         licenses,
		"descriptions":     []interface{}{c.description(ds)},
		"publication_date": FormatDate(now),
	}
	if !earliest.IsZero() && now.Before(earliest) {
		metadata["embargo_date"] = FormatDate(earliest)
	}

	owners := make([]interface{}, 0, len(users))
	for _, u := range users {
		owners = append(owners, u.ID)
	}
	createdBy := c.Config.RecordCreatorUserID
	if createdBy == 0 {
		createdBy = users[0].ID
	}

	record := gabs.Wrap(map[string]interface{}{
		"access": map[string]interface{}{
			"access_right":        accessRight,
			"files_restricted":    accessRight != "open",
			"metadata_restricted": false,
			"owners":              owners,
			"created_by":          createdBy,
		},
		"metadata": metadata,
	})

	if err := c.copyExtraFields(ds, record); err != nil {
		return nil, err
	}
	return record, nil
}

// copyExtraFields copies the configured JSONPath matches of the raw dataset
// into the record metadata. Paths without a match are skipped.
func (c *RDMConverter) copyExtraFields(ds *madmp.Dataset, record *gabs.Container) error {
	if len(c.Config.ExtraFields) == 0 {
		return nil
	}
	raw, err := ds.RawValue()
	if err != nil {
		return errors.Wrapf(err, "unable to read dataset `%s`", ds.DatasetID.Identifier)
	}

	for _, mapping := range c.Config.ExtraFields {
		if mapping.Target == "" || mapping.Path == "" {
			continue
		}
		value, err := jsonpath.Get(mapping.Path, raw)
		if err != nil {
			log.Warnf("extra field `%s` (%s) not copied: %v", mapping.Target, mapping.Path, err)
			continue
		}
		if _, err := record.SetP(value, "metadata."+mapping.Target); err != nil {
			return errors.Wrapf(err, "unable to set extra field `%s`", mapping.Target)
		}
	}
	return nil
}

// ConvertRecord renders the record as a maDMP dataset with a single
// distribution on this host.
func (c *RDMConverter) ConvertRecord(rec *model.Record) (*madmp.Dataset, error) {
	if rec == nil || rec.Data == nil {
		return nil, nil
	}
	data := gabs.Wrap(rec.Data)
	if !data.Exists("metadata") {
		return nil, nil
	}

	title, _ := data.Path("metadata.titles.0.title").Data().(string)
	description, _ := data.Path("metadata.descriptions.0.description").Data().(string)
	language, _ := data.Path("metadata.language").Data().(string)
	accessRight, _ := data.Path("access.access_right").Data().(string)
	if title == "" {
		title = noTitle
	}
	if accessRight == "" {
		accessRight = c.Config.DefaultDataAccess
	}

	startDate, _ := data.Path("metadata.embargo_date").Data().(string)
	if startDate == "" {
		startDate, _ = data.Path("metadata.publication_date").Data().(string)
	}
	if startDate == "" {
		startDate = FormatDate(rec.Created)
	}

	var licenses []madmp.License
	for _, l := range data.Path("metadata.licenses").Children() {
		ref, _ := l.Search("uri").Data().(string)
		if ref == "" {
			ref, _ = l.Search("identifier").Data().(string)
		}
		if ref == "" {
			continue
		}
		licenses = append(licenses, madmp.License{LicenseRef: ref, StartDate: startDate})
	}

	hostURL := strings.TrimSuffix(c.Config.HostURL, "/")
	accessURL := fmt.Sprintf("%s/records/%s", hostURL, rec.RecID)
	dist := madmp.Distribution{
		Title:       title,
		Description: description,
		AccessURL:   accessURL,
		DownloadURL: accessURL + "/files",
		DataAccess:  accessRight,
		License:     licenses,
		Host: &madmp.Host{
			Title: c.Config.HostTitle,
			URL:   c.Config.HostURL,
		},
	}

	datasetID := madmp.Identifier{Identifier: rec.RecID, Type: "other"}
	if rec.DOI != "" {
		datasetID = madmp.Identifier{Identifier: doiResolver + rec.DOI, Type: "doi"}
	}

	return &madmp.Dataset{
		Title:         title,
		Description:   description,
		Language:      language,
		PersonalData:  "unknown",
		SensitiveData: "unknown",
		DatasetID:     datasetID,
		Distribution:  []madmp.Distribution{dist},
		Metadata:      []madmp.Metadata{c.DatasetMetadataModel(rec)},
	}, nil
}

func toList(items []map[string]interface{}) []interface{} {
	list := make([]interface{}, 0, len(items))
	for _, item := range items {
		list = append(list, item)
	}
	return list
}
