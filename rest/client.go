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
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

const defaultTimeout = time.Second * 30

// Response is the status and body of a completed request.
type Response struct {
	StatusCode int
	Status     string
	Body       []byte
}

// OK is true for 2xx statuses.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Client represents a basic JSON REST client.
type Client struct {
	baseEndpoint string
	token        string
	client       *http.Client
}

// NewClient instantiates a REST client. Relative functions are resolved
// against baseEndpoint. A non-empty token is sent as bearer authorization.
func NewClient(baseEndpoint string, token string) *Client {
	return &Client{
		baseEndpoint: strings.TrimSuffix(baseEndpoint, "/"),
		token:        token,
		client:       &http.Client{Timeout: defaultTimeout},
	}
}

// SetHTTPClient replaces the underlying HTTP client.
func (c *Client) SetHTTPClient(client *http.Client) {
	c.client = client
}

func (c *Client) url(function string) string {
	if strings.HasPrefix(function, "http://") || strings.HasPrefix(function, "https://") || c.baseEndpoint == "" {
		return function
	}
	return fmt.Sprintf("%s/%s", c.baseEndpoint, strings.TrimPrefix(function, "/"))
}

// Do submits a request with the JSON encoding of body, if not nil. Requests
// always declare a JSON content type. Any completed request returns a
// response, whatever its status.
func (c *Client) Do(ctx context.Context, method string, function string, body interface{}) (*Response, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "Unable to encode request")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(function), reader)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to create request")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to %s request", strings.ToLower(method))
	}
	defer res.Body.Close()

	result, err := ioutil.ReadAll(res.Body)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to read result")
	}

	return &Response{
		StatusCode: res.StatusCode,
		Status:     res.Status,
		Body:       result,
	}, nil
}

// PostJSON submits a POST request.
func (c *Client) PostJSON(ctx context.Context, function string, body interface{}) (*Response, error) {
	return c.Do(ctx, http.MethodPost, function, body)
}

// PatchJSON submits a PATCH request.
func (c *Client) PatchJSON(ctx context.Context, function string, body interface{}) (*Response, error) {
	return c.Do(ctx, http.MethodPatch, function, body)
}

// Delete submits a DELETE request, with an optional body.
func (c *Client) Delete(ctx context.Context, function string, body interface{}) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, function, body)
}
