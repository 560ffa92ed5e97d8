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

package util

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exports", "dmp-1.json")

	require.NoError(t, WriteOutput(path, []byte(`{"dmp":{}}`), nil))
	assert.True(t, FileExists(path))

	data, err := ReadInput(path, nil)
	require.NoError(t, err)
	assert.Equal(t, `{"dmp":{}}`, string(data))

	var stdout bytes.Buffer
	require.NoError(t, WriteOutput("", []byte("a"), &stdout))
	require.NoError(t, WriteOutput(Stdio, []byte("b"), &stdout))
	assert.Equal(t, "ab", stdout.String())
}

func TestReadInput(t *testing.T) {
	data, err := ReadInput(Stdio, strings.NewReader("piped"))
	require.NoError(t, err)
	assert.Equal(t, "piped", string(data))

	_, err = ReadInput(filepath.Join(t.TempDir(), "missing.json"), nil)
	assert.Error(t, err)
	assert.False(t, FileExists(filepath.Join(t.TempDir(), "missing.json")))
}
