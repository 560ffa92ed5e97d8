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
	"fmt"
	"strings"
)

const uriTemplate = "https://opensource.org/licenses/%s"

// License describes a license known to the repository.
type License struct {
	Identifier string `yaml:"identifier" json:"identifier"`
	Name       string `yaml:"name" json:"license"`
	URI        string `yaml:"uri" json:"uri"`
	Scheme     string `yaml:"scheme" json:"scheme"`

	// CreativeCommons licenses also match their dashed identifier.
	CreativeCommons bool `yaml:"creative_commons" json:"-"`

	values []string
}

// New creates a license. An empty uri defaults to the opensource.org page of
// the identifier and an empty scheme defaults to the identifier.
func New(identifier, name, uri, scheme string) *License {
	l := &License{
		Identifier: identifier,
		Name:       name,
		URI:        uri,
		Scheme:     scheme,
	}
	l.init()
	return l
}

// NewCC creates a Creative Commons license.
func NewCC(identifier, name, uri string) *License {
	l := New(identifier, name, uri, "")
	l.CreativeCommons = true
	return l
}

func (l *License) init() {
	if l.Scheme == "" {
		l.Scheme = l.Identifier
	}
	if l.URI == "" {
		l.URI = fmt.Sprintf(uriTemplate, l.Identifier)
	}

	values := []string{l.Identifier, strings.TrimSuffix(l.Identifier, ".0"), l.URI, l.Scheme, l.Name}

	const http, https = "http://", "https://"
	if strings.HasPrefix(l.URI, http) {
		values = append(values, https+l.URI[len(http):])
	} else if strings.HasPrefix(l.URI, https) {
		values = append(values, http+l.URI[len(https):])
	}
	for _, v := range values[2:] {
		if strings.HasSuffix(v, "/") && v != "/" {
			values = append(values, strings.TrimSuffix(v, "/"))
		}
	}

	l.values = make([]string, len(values))
	for i, v := range values {
		l.values[i] = strings.ToLower(v)
	}
}

// Matches checks case-insensitively whether any of the values refers to the
// license, by identifier (with and without a `.0` suffix), URI, scheme or
// name.
func (l *License) Matches(values ...string) bool {
	if l.values == nil {
		l.init()
	}

	for _, value := range values {
		value = strings.ToLower(value)
		for _, known := range l.values {
			if value == known {
				return true
			}
		}
	}

	if l.CreativeCommons {
		dashed := strings.ToLower(strings.ReplaceAll(l.Identifier, " ", "-"))
		for _, value := range values {
			if strings.ToLower(value) == dashed {
				return true
			}
		}
	}

	return false
}

// Fields returns the license in the record metadata representation.
func (l *License) Fields() map[string]interface{} {
	return map[string]interface{}{
		"license":    l.Name,
		"uri":        l.URI,
		"identifier": l.Identifier,
		"scheme":     l.Scheme,
	}
}
