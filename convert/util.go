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
	"regexp"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"

	"github.com/uncharted-distil/distil-madmp/madmp"
)

const dateFormat = "2006-01-02"

var (
	urlIdentifierPattern = regexp.MustCompile(`^https?://.*?/(.+)$`)
	familyFirstPattern   = regexp.MustCompile(`^\s*(\S[^,]*?)\s*,\s*(\S.*?)\s*$`)
	givenFirstPattern    = regexp.MustCompile(`^\s*(\S.*?)\s+(\S+)\s*$`)

	allowedIdentifierTypes = []string{"orcid", "ror"}
)

// People holds the persons of a DMP in the record representation.
type People struct {
	Contact      string
	Creators     []map[string]interface{}
	Contributors []map[string]interface{}
}

// NewPeople maps the contact and contributors of the DMP.
func NewPeople(dmp *madmp.DMP, defaultContact string) *People {
	people := &People{
		Contact:      MapContact(dmp.Contact, defaultContact),
		Creators:     make([]map[string]interface{}, 0, len(dmp.Contributor)),
		Contributors: make([]map[string]interface{}, 0, len(dmp.Contributor)),
	}
	for _, c := range dmp.Contributor {
		people.Creators = append(people.Creators, MapCreator(c))
		people.Contributors = append(people.Contributors, MapContributor(c))
	}
	return people
}

// SplitName separates a full name of the forms "Given Family" and
// "Family, Given". Without a comma the family name is the last word.
func SplitName(name string) (given string, family string, ok bool) {
	if m := familyFirstPattern.FindStringSubmatch(name); m != nil {
		return m[2], m[1], true
	}
	if m := givenFirstPattern.FindStringSubmatch(name); m != nil {
		return m[1], m[2], true
	}
	return "", "", false
}

// IdentifierTypeAllowed checks whether a person identifier type is kept in
// records.
func IdentifierTypeAllowed(typ string) bool {
	for _, allowed := range allowedIdentifierTypes {
		if strings.EqualFold(typ, allowed) {
			return true
		}
	}
	return false
}

// MapContact returns the mail address of the contact, or the default.
func MapContact(contact *madmp.Contact, defaultContact string) string {
	if contact == nil || contact.Mbox == "" {
		return defaultContact
	}
	return contact.Mbox
}

func mapPerson(c madmp.Contributor) map[string]interface{} {
	identifiers := map[string]interface{}{}
	if IdentifierTypeAllowed(c.ContributorID.Type) && c.ContributorID.Identifier != "" {
		identifiers[strings.ToLower(c.ContributorID.Type)] = c.ContributorID.Identifier
	}

	person := map[string]interface{}{
		"name":         c.Name,
		"type":         "Personal",
		"identifiers":  identifiers,
		"affiliations": []interface{}{},
	}
	if given, family, ok := SplitName(c.Name); ok {
		person["given_name"] = given
		person["family_name"] = family
	}
	return person
}

// MapCreator maps a contributor to a record creator.
func MapCreator(c madmp.Contributor) map[string]interface{} {
	return mapPerson(c)
}

// MapContributor maps a contributor to a record contributor, with the
// first of its roles.
func MapContributor(c madmp.Contributor) map[string]interface{} {
	person := mapPerson(c)
	if len(c.Role) > 0 {
		person["role"] = c.Role[0]
	}
	return person
}

// IsRelevantContributor checks whether any role of the contributor is one of
// the relevant roles. Every contributor is relevant when no roles are given.
func IsRelevantContributor(c madmp.Contributor, roles []string) bool {
	if len(roles) == 0 {
		return true
	}
	for _, role := range c.Role {
		for _, relevant := range roles {
			if role == relevant {
				return true
			}
		}
	}
	return false
}

// FilterContributors keeps the relevant contributors.
func FilterContributors(contributors []madmp.Contributor, roles []string) []madmp.Contributor {
	filtered := []madmp.Contributor{}
	for _, c := range contributors {
		if IsRelevantContributor(c, roles) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// DistributionMatchesHost checks whether the distribution is hosted by the
// repository identified by url or title.
func DistributionMatchesHost(dist *madmp.Distribution, hostURL, hostTitle string) bool {
	if dist.Host == nil {
		return false
	}
	urlMatches := hostURL != "" && dist.Host.URL == hostURL
	titleMatches := hostTitle != "" && dist.Host.Title == hostTitle
	return urlMatches || titleMatches
}

// MatchingDistributions returns the distributions of the dataset hosted by
// the repository.
func MatchingDistributions(ds *madmp.Dataset, hostURL, hostTitle string) []*madmp.Distribution {
	matching := []*madmp.Distribution{}
	for i := range ds.Distribution {
		if DistributionMatchesHost(&ds.Distribution[i], hostURL, hostTitle) {
			matching = append(matching, &ds.Distribution[i])
		}
	}
	return matching
}

// StripIdentifier removes a URL prefix such as "https://doi.org/" from a
// PID.
func StripIdentifier(identifier string) string {
	if m := urlIdentifierPattern.FindStringSubmatch(identifier); m != nil {
		return m[1]
	}
	return identifier
}

// ParseDate parses a date in any common layout.
func ParseDate(value string) (time.Time, error) {
	t, err := dateparse.ParseAny(value)
	if err != nil {
		return time.Time{}, errors.Wrapf(ErrInvalidDate, "`%s`: %v", value, err)
	}
	return t, nil
}

// FormatDate formats a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(dateFormat)
}
