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

package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/uncharted-distil/distil-madmp/convert"
	"github.com/uncharted-distil/distil-madmp/madmp"
	"github.com/uncharted-distil/distil-madmp/storage"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

func newError(code int, message string, cause error, details ...string) *echo.HTTPError {
	he := echo.NewHTTPError(code, ErrorResponse{Message: message, Errors: details})
	if cause != nil {
		he = he.SetInternal(cause)
	}
	return he
}

func badRequest(message string, cause error, details ...string) *echo.HTTPError {
	return newError(http.StatusBadRequest, message, cause, details...)
}

func notFound(message string) *echo.HTTPError {
	return newError(http.StatusNotFound, message, nil)
}

// fromError maps service errors onto responses.
func fromError(err error) *echo.HTTPError {
	switch {
	case storage.IsNotFound(err):
		return newError(http.StatusNotFound, err.Error(), err)
	case convert.IsLookupError(err):
		return newError(http.StatusUnprocessableEntity, err.Error(), err)
	}
	switch errors.Cause(err) {
	case convert.ErrNoDMPID, convert.ErrInvalidDate, madmp.ErrNoDMP:
		return badRequest(err.Error(), err)
	}
	return newError(http.StatusInternalServerError, "internal error", err)
}
