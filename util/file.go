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
	"io"
	"io/ioutil"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// Stdio names standard input or output in place of a file path.
const Stdio = "-"

// WriteFileWithDirs writes the file and creates any missing directories along
// the way.
func WriteFileWithDirs(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	if dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, os.ModePerm); err != nil {
			return errors.Wrapf(err, "unable to create directory `%s`", dir)
		}
	}

	if err := ioutil.WriteFile(filename, data, perm); err != nil {
		return errors.Wrapf(err, "unable to write `%s`", filename)
	}
	return nil
}

// FileExists checks to see if a file exists.
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	if err == nil {
		return true
	}
	if os.IsNotExist(err) {
		return false
	}
	return true
}

// ReadInput reads the file at path, or stdin for Stdio.
func ReadInput(path string, stdin io.Reader) ([]byte, error) {
	if path == Stdio {
		data, err := ioutil.ReadAll(stdin)
		if err != nil {
			return nil, errors.Wrap(err, "unable to read stdin")
		}
		return data, nil
	}
	if !FileExists(path) {
		return nil, errors.Errorf("file `%s` does not exist", path)
	}
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read `%s`", path)
	}
	return data, nil
}

// WriteOutput writes data to the file at path, or to stdout for Stdio and
// an empty path.
func WriteOutput(path string, data []byte, stdout io.Writer) error {
	if path == "" || path == Stdio {
		_, err := stdout.Write(data)
		return errors.Wrap(err, "unable to write output")
	}
	return WriteFileWithDirs(path, data, 0644)
}
