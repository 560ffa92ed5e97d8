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
	"io/ioutil"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFile(t *testing.T) {
	dmp, err := ParseFile("./testdata/full.json")
	require.NoError(t, err)

	assert.Equal(t, "https://doi.org/10.0000/00.0000/dmp-1", dmp.DMPID.Identifier)
	assert.Equal(t, "doi", dmp.DMPID.Type)
	assert.Equal(t, "TMiksa@sba-research.org", dmp.Contact.Mbox)
	assert.Len(t, dmp.Contributor, 2)
	assert.Equal(t, []string{"contact_person", "researcher"}, dmp.Contributor[1].Role)
	assert.Len(t, dmp.Dataset, 3)

	ds := dmp.Dataset[0]
	assert.Equal(t, "Gallery images", ds.Title)
	assert.Equal(t, "image", ds.Type)
	assert.Len(t, ds.Distribution, 1)
	assert.Equal(t, "Invenio", ds.Distribution[0].Host.Title)
	assert.Equal(t, "2020-06-30", ds.Distribution[0].License[0].StartDate)
	assert.Equal(t, "https://schema.datacite.org/meta/kernel-4.3/", ds.Metadata[0].MetadataStandardID.Identifier)
	assert.NotEmpty(t, ds.Raw)

	assert.Empty(t, dmp.Dataset[2].Distribution)
}

func TestParseKeepsDocument(t *testing.T) {
	data := []byte(`{"dmp": {"title": "t", "dmp_id": {"identifier": "d", "type": "other"},
		"ethical_issues_description": "none known", "ethical_issues_report": "https://example.org/r"}}`)
	dmp, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "none known", dmp.EthicalIssuesDescription)
	assert.Equal(t, "https://example.org/r", dmp.EthicalIssuesReport)
	assert.Equal(t, string(data), string(dmp.Raw))

	wrapped, err := Wrap(dmp)
	require.NoError(t, err)
	assert.Contains(t, string(wrapped), `"ethical_issues_report":"https://example.org/r"`)
	assert.NotContains(t, string(wrapped), "Raw")
}

func TestParseBareDMP(t *testing.T) {
	dmp, err := ParseFile("./testdata/bare.json")
	require.NoError(t, err)

	assert.Equal(t, "dmp-bare", dmp.DMPID.Identifier)
	assert.Equal(t, "leo.messi@barcelona.com", dmp.Contact.Mbox)
	assert.Empty(t, dmp.Dataset)
}

func TestParseNoDMP(t *testing.T) {
	_, err := Parse([]byte(`{"plan": {}}`))
	assert.Equal(t, ErrNoDMP, err)

	_, err = Parse([]byte(`{"dmp": "not an object"}`))
	assert.Equal(t, ErrNoDMP, err)

	_, err = Parse([]byte(`{not json`))
	assert.Error(t, err)
}

func TestDatasetRawValue(t *testing.T) {
	dmp, err := ParseFile("./testdata/full.json")
	require.NoError(t, err)

	value, err := dmp.Dataset[0].RawValue()
	require.NoError(t, err)
	fields, ok := value.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"gallery", "images"}, fields["keyword"])

	built := &Dataset{Title: "built in code"}
	value, err = built.RawValue()
	require.NoError(t, err)
	assert.Equal(t, "built in code", value.(map[string]interface{})["title"])
}

func TestWrap(t *testing.T) {
	data, err := Wrap(&DMP{Title: "wrapped", DMPID: Identifier{Identifier: "dmp-w", Type: "other"}})
	require.NoError(t, err)

	dmp, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "wrapped", dmp.Title)
	assert.Equal(t, "dmp-w", dmp.DMPID.Identifier)
}

func TestValidate(t *testing.T) {
	full, err := ioutil.ReadFile("./testdata/full.json")
	require.NoError(t, err)
	bare, err := ioutil.ReadFile("./testdata/bare.json")
	require.NoError(t, err)
	invalid, err := ioutil.ReadFile("./testdata/invalid.json")
	require.NoError(t, err)

	assert.True(t, Validate(full))
	assert.True(t, Validate(bare))
	assert.False(t, Validate(invalid))
}

func TestErrorMessages(t *testing.T) {
	invalid, err := ioutil.ReadFile("./testdata/invalid.json")
	require.NoError(t, err)

	v, err := NewValidator()
	require.NoError(t, err)

	errs, err := v.Errors(invalid)
	require.NoError(t, err)
	assert.NotEmpty(t, errs)

	fields := map[string]bool{}
	for _, e := range errs {
		fields[e.Field] = true
		assert.NotEmpty(t, e.Message)
	}
	assert.True(t, fields["dmp"], "missing required dmp fields should be reported")
	assert.True(t, fields["dmp.language"])

	messages, err := ErrorMessages(invalid)
	require.NoError(t, err)
	assert.Len(t, messages, len(errs))

	full, err := ioutil.ReadFile("./testdata/full.json")
	require.NoError(t, err)
	messages, err = ErrorMessages(full)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestValidateWithSchema(t *testing.T) {
	full, err := ioutil.ReadFile("./testdata/full.json")
	require.NoError(t, err)

	valid, err := ValidateWithSchema(full, "./schema/maDMP-schema-1.0.json")
	require.NoError(t, err)
	assert.True(t, valid)

	_, err = ValidateWithSchema(full, "./schema/missing.json")
	assert.Error(t, err)
}
