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

package license

import (
	"io/ioutil"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Other is used when no known license matches.
var Other = &License{
	Identifier: "Other",
	Name:       "Other",
	URI:        "",
	Scheme:     "Other",
	values:     []string{"other"},
}

// Known returns the built-in list of licenses.
func Known() []*License {
	return []*License{
		New("0BSD", "Zero-Clause BSD", "", ""),
		New("BSD-1-Clause", "1-Clause BSD License", "", "BSD-1"),
		New("BSD-2-Clause", "2-Clause BSD License", "", "BSD-2"),
		New("BSD-3-Clause", "3-Clause BSD License", "", "BSD-3"),
		New("Apache-2.0", "Apache License, Version 2.0", "", ""),
		New("GPL-2.0", "GNU General Public License Version 2", "", ""),
		New("GPL-3.0", "GNU General Public License Version 3", "", ""),
		New("AGPL-3.0", "GNU Affero General Public License Version 3", "", ""),
		New("LGPL-2.0", "GNU Library General Public License Version 2", "", ""),
		New("LGPL-2.1", "GNU Lesser General Public License Version 2.1", "", ""),
		New("LGPL-3.0", "GNU Lesser General Public License Version 3", "", ""),
		New("MIT", "MIT License", "", ""),
		New("MIT-0", "MIT No Attribution License", "", ""),
		New("MPL-2.0", "Mozilla Public License 2.0", "", ""),
		New("CDDL-1.0", "Common Development and Distribution License 1.0", "", ""),
		New("EPL-2.0", "Eclipse Public License Version 2.0", "", ""),
		New("unlicense", "The Unlicense", "", ""),
		NewCC("CC0", "Public Domain Dedication", "https://creativecommons.org/publicdomain/zero/1.0/"),
		NewCC("CC BY", "Attribution", "https://creativecommons.org/licenses/by/4.0/"),
		NewCC("CC BY-SA", "Attribution-ShareAlike", "https://creativecommons.org/licenses/by-sa/4.0/"),
		NewCC("CC BY-ND", "Attribution-NoDerivs", "https://creativecommons.org/licenses/by-nd/4.0/"),
		NewCC("CC BY-NC", "Attribution-NonCommercial", "https://creativecommons.org/licenses/by-nc/4.0/"),
		NewCC("CC BY-NC-SA", "Attribution-NonCommercial-ShareAlike", "https://creativecommons.org/licenses/by-nc-sa/4.0/"),
		NewCC("CC BY-NC-ND", "Attribution-NonCommercial-NoDerivs", "https://creativecommons.org/licenses/by-nc-nd/4.0/"),
	}
}

// Catalog is an ordered list of licenses. The first match wins.
type Catalog struct {
	Licenses []*License
}

// NewCatalog returns a catalog of the built-in licenses.
func NewCatalog() *Catalog {
	return &Catalog{Licenses: Known()}
}

// LoadCatalog returns the built-in catalog preceded by the licenses listed in
// the YAML file at path.
func LoadCatalog(path string) (*Catalog, error) {
	catalog := NewCatalog()
	if path == "" {
		return catalog, nil
	}

	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read license file `%s`", path)
	}

	var file struct {
		Licenses []*License `yaml:"licenses"`
	}
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrapf(err, "failed to parse license file `%s`", path)
	}

	custom := make([]*License, 0, len(file.Licenses))
	for _, l := range file.Licenses {
		if l.Identifier == "" {
			return nil, errors.Errorf("license without identifier in `%s`", path)
		}
		l.init()
		custom = append(custom, l)
	}
	catalog.Licenses = append(custom, catalog.Licenses...)

	return catalog, nil
}

// Find returns the first license matching any of the values, or nil.
func (c *Catalog) Find(values ...string) *License {
	for _, l := range c.Licenses {
		if l.Matches(values...) {
			return l
		}
	}
	return nil
}

// Translate returns the first license matching any of the values, falling
// back to Other.
func (c *Catalog) Translate(values ...string) *License {
	if l := c.Find(values...); l != nil {
		return l
	}
	return Other
}
