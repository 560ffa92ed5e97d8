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
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/uncharted-distil/distil-madmp/madmp"
)

func TestSplitName(t *testing.T) {
	given, family, ok := SplitName("Maximilian Moser")
	assert.True(t, ok)
	assert.Equal(t, "Maximilian", given)
	assert.Equal(t, "Moser", family)

	given, family, ok = SplitName("Moser, Maximilian")
	assert.True(t, ok)
	assert.Equal(t, "Maximilian", given)
	assert.Equal(t, "Moser", family)

	given, family, ok = SplitName("John von Neumann")
	assert.True(t, ok)
	assert.Equal(t, "John von", given)
	assert.Equal(t, "Neumann", family)

	given, family, ok = SplitName("von Neumann, John Louis")
	assert.True(t, ok)
	assert.Equal(t, "John Louis", given)
	assert.Equal(t, "von Neumann", family)

	_, _, ok = SplitName("Madonna")
	assert.False(t, ok)
	_, _, ok = SplitName("  Madonna  ")
	assert.False(t, ok)
	_, _, ok = SplitName("Madonna,")
	assert.False(t, ok)
}

func TestIdentifierTypeAllowed(t *testing.T) {
	assert.True(t, IdentifierTypeAllowed("orcid"))
	assert.True(t, IdentifierTypeAllowed("Orcid"))
	assert.True(t, IdentifierTypeAllowed("ROR"))
	assert.False(t, IdentifierTypeAllowed("other"))
	assert.False(t, IdentifierTypeAllowed(""))
}

func TestMapPersons(t *testing.T) {
	f := newFixture(t)
	miksa, smith := f.doc.Contributor[0], f.doc.Contributor[1]

	creator := MapCreator(miksa)
	assert.Equal(t, "Tomasz Miksa", creator["name"])
	assert.Equal(t, "Personal", creator["type"])
	assert.Equal(t, "Tomasz", creator["given_name"])
	assert.Equal(t, "Miksa", creator["family_name"])
	assert.Equal(t, map[string]interface{}{"orcid": "0000-0002-4929-7875"}, creator["identifiers"])
	assert.NotContains(t, creator, "role")

	contributor := MapContributor(smith)
	assert.Equal(t, "John", contributor["given_name"])
	assert.Equal(t, "Smith", contributor["family_name"])
	assert.Equal(t, "contact_person", contributor["role"])
	assert.Empty(t, contributor["identifiers"])

	anonymous := MapContributor(madmp.Contributor{Name: "Madonna"})
	assert.NotContains(t, anonymous, "given_name")
	assert.NotContains(t, anonymous, "role")
}

func TestMapContact(t *testing.T) {
	assert.Equal(t, "default@example.org", MapContact(nil, "default@example.org"))
	assert.Equal(t, "default@example.org", MapContact(&madmp.Contact{Name: "No Mail"}, "default@example.org"))
	assert.Equal(t, "a@example.org", MapContact(&madmp.Contact{Mbox: "a@example.org"}, "default@example.org"))

	f := newFixture(t)
	people := NewPeople(f.doc, f.config.DefaultContact)
	assert.Equal(t, "TMiksa@sba-research.org", people.Contact)
	assert.Len(t, people.Creators, 2)
	assert.Len(t, people.Contributors, 2)
}

func TestFilterContributors(t *testing.T) {
	f := newFixture(t)

	all := FilterContributors(f.doc.Contributor, nil)
	assert.Len(t, all, 2)

	stewards := FilterContributors(f.doc.Contributor, []string{"data_steward"})
	require.Len(t, stewards, 1)
	assert.Equal(t, "Tomasz Miksa", stewards[0].Name)

	// any of the roles counts
	researchers := FilterContributors(f.doc.Contributor, []string{"researcher"})
	require.Len(t, researchers, 1)
	assert.Equal(t, "Smith, John", researchers[0].Name)

	assert.Empty(t, FilterContributors(f.doc.Contributor, []string{"funder"}))
}

func TestMatchingDistributions(t *testing.T) {
	f := newFixture(t)

	images := MatchingDistributions(&f.doc.Dataset[0], f.config.HostURL, f.config.HostTitle)
	require.Len(t, images, 1)
	assert.Equal(t, "Gallery images (TIFF)", images[0].Title)

	assert.Empty(t, MatchingDistributions(&f.doc.Dataset[1], f.config.HostURL, f.config.HostTitle))
	assert.Empty(t, MatchingDistributions(&f.doc.Dataset[2], f.config.HostURL, f.config.HostTitle))

	// a matching title is enough
	byTitle := MatchingDistributions(&f.doc.Dataset[0], "https://elsewhere.org", "Invenio")
	assert.Len(t, byTitle, 1)
	assert.Empty(t, MatchingDistributions(&f.doc.Dataset[0], "", ""))
}

func TestStripIdentifier(t *testing.T) {
	assert.Equal(t, "10.5281/zenodo.0001", StripIdentifier("https://doi.org/10.5281/zenodo.0001"))
	assert.Equal(t, "10.5281/zenodo.0001", StripIdentifier("http://dx.doi.org/10.5281/zenodo.0001"))
	assert.Equal(t, "catalogue-1", StripIdentifier("catalogue-1"))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2020-06-30")
	require.NoError(t, err)
	assert.True(t, time.Date(2020, 6, 30, 0, 0, 0, 0, time.UTC).Equal(d))
	assert.Equal(t, "2020-06-30", FormatDate(d))

	d, err = ParseDate("2020-06-30T10:20:30Z")
	require.NoError(t, err)
	assert.Equal(t, "2020-06-30", FormatDate(d))

	_, err = ParseDate("Hello!")
	assert.Equal(t, ErrInvalidDate, errors.Cause(err))
}
