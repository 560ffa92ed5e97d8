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

package rest

import (
	"context"
	"io/ioutil"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo(t *testing.T) {
	var method, path, auth, contentType, body string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method = r.Method
		path = r.URL.Path
		auth = r.Header.Get("Authorization")
		contentType = r.Header.Get("Content-Type")
		data, _ := ioutil.ReadAll(r.Body)
		body = string(data)
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer ts.Close()

	ctx := context.Background()
	client := NewClient(ts.URL+"/", "secret")

	res, err := client.PostJSON(ctx, "datasets", map[string]string{"title": "images"})
	require.NoError(t, err)
	assert.True(t, res.OK())
	assert.Equal(t, http.StatusCreated, res.StatusCode)
	assert.Equal(t, `{"ok":true}`, string(res.Body))
	assert.Equal(t, "POST", method)
	assert.Equal(t, "/datasets", path)
	assert.Equal(t, "Bearer secret", auth)
	assert.Equal(t, "application/json", contentType)
	assert.JSONEq(t, `{"title":"images"}`, body)

	res, err = client.PatchJSON(ctx, ts.URL+"/datasets/1", map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, "PATCH", method)
	assert.Equal(t, "/datasets/1", path)

	res, err = client.Delete(ctx, "/missing", nil)
	require.NoError(t, err)
	assert.False(t, res.OK())
	assert.Equal(t, "DELETE", method)
	assert.Equal(t, "application/json", contentType)
	assert.Equal(t, "", body)

	anonymous := NewClient(ts.URL, "")
	_, err = anonymous.Delete(ctx, "datasets/1", nil)
	require.NoError(t, err)
	assert.Equal(t, "", auth)
}

func TestConnectionError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := NewClient(url, "").PostJSON(context.Background(), "datasets", nil)
	assert.Error(t, err)
}
