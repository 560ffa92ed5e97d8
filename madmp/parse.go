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

package madmp

import (
	"encoding/json"
	"io/ioutil"

	"github.com/Jeffail/gabs/v2"
	"github.com/pkg/errors"
)

// ErrNoDMP is returned when a document has no DMP object.
var ErrNoDMP = errors.New("document does not contain a dmp")

// Parse decodes a maDMP document. Both the `{"dmp": {...}}` envelope and a
// bare DMP object are accepted. The document is kept as the Raw field.
func Parse(data []byte) (*DMP, error) {
	body, err := Unwrap(data)
	if err != nil {
		return nil, err
	}

	dmp := &DMP{}
	if err := json.Unmarshal(body, dmp); err != nil {
		return nil, errors.Wrap(err, "failed to decode dmp")
	}
	dmp.Raw = append(json.RawMessage(nil), data...)
	return dmp, nil
}

// ParseFile reads and decodes the maDMP document at path.
func ParseFile(path string) (*DMP, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read maDMP file `%s`", path)
	}
	return Parse(data)
}

// Unwrap returns the JSON of the DMP object contained in the document.
func Unwrap(data []byte) ([]byte, error) {
	doc, err := gabs.ParseJSON(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse maDMP json")
	}

	if doc.Exists("dmp") {
		doc = doc.Path("dmp")
	} else if !doc.Exists("dmp_id") {
		return nil, ErrNoDMP
	}

	if _, ok := doc.Data().(map[string]interface{}); !ok {
		return nil, ErrNoDMP
	}
	return doc.Bytes(), nil
}

// Wrap puts the DMP into its document envelope.
func Wrap(dmp *DMP) ([]byte, error) {
	data, err := json.Marshal(&Document{DMP: dmp})
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode dmp")
	}
	return data, nil
}
