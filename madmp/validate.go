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
	_ "embed"
	"fmt"
	"io/ioutil"
	"sync"

	"github.com/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema/maDMP-schema-1.0.json
var schemaV1 []byte

var (
	defaultSchema     *gojsonschema.Schema
	defaultSchemaErr  error
	defaultSchemaOnce sync.Once
)

// ValidationError is a single violation of the maDMP schema.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validator checks maDMP documents against a JSON schema.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator returns a validator for the bundled RDA maDMP 1.0 schema.
func NewValidator() (*Validator, error) {
	defaultSchemaOnce.Do(func() {
		defaultSchema, defaultSchemaErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(schemaV1))
	})
	if defaultSchemaErr != nil {
		return nil, errors.Wrap(defaultSchemaErr, "failed to load bundled maDMP schema")
	}
	return &Validator{schema: defaultSchema}, nil
}

// NewValidatorFromFile returns a validator for the schema file at path.
func NewValidatorFromFile(path string) (*Validator, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read schema file `%s`", path)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load schema file `%s`", path)
	}
	return &Validator{schema: schema}, nil
}

// Errors lists every schema violation of the document. A bare DMP object is
// wrapped into its envelope before validation.
func (v *Validator) Errors(data []byte) ([]ValidationError, error) {
	body, err := Unwrap(data)
	if err != nil {
		return nil, err
	}
	doc := append(append([]byte(`{"dmp":`), body...), '}')

	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(doc))
	if err != nil {
		return nil, errors.Wrap(err, "failed to validate maDMP")
	}

	errs := make([]ValidationError, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		errs = append(errs, ValidationError{
			Field:   re.Field(),
			Message: re.Description(),
		})
	}
	return errs, nil
}

// Validate reports whether the document follows the schema.
func (v *Validator) Validate(data []byte) bool {
	errs, err := v.Errors(data)
	return err == nil && len(errs) == 0
}

// ErrorMessages lists the messages of all schema violations.
func (v *Validator) ErrorMessages(data []byte) ([]string, error) {
	errs, err := v.Errors(data)
	if err != nil {
		return nil, err
	}
	messages := make([]string, len(errs))
	for i, e := range errs {
		messages[i] = e.Error()
	}
	return messages, nil
}

// Validate checks the document against the bundled schema.
func Validate(data []byte) bool {
	v, err := NewValidator()
	if err != nil {
		return false
	}
	return v.Validate(data)
}

// ErrorMessages lists the violations of the bundled schema.
func ErrorMessages(data []byte) ([]string, error) {
	v, err := NewValidator()
	if err != nil {
		return nil, err
	}
	return v.ErrorMessages(data)
}

// ValidateWithSchema checks the document against the schema file at path.
func ValidateWithSchema(data []byte, path string) (bool, error) {
	v, err := NewValidatorFromFile(path)
	if err != nil {
		return false, err
	}
	return v.Validate(data), nil
}
