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

// Package api serves the maDMP import and export endpoints.
package api

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/unchartedsoftware/plog"

	"github.com/uncharted-distil/distil-madmp/convert"
	"github.com/uncharted-distil/distil-madmp/events"
	"github.com/uncharted-distil/distil-madmp/madmp"
	"github.com/uncharted-distil/distil-madmp/storage"
)

// Server holds the services behind the endpoints.
type Server struct {
	Store     storage.Storage
	Importer  *convert.Importer
	Exporter  *convert.Exporter
	Validator *madmp.Validator
	Events    events.Publisher
	Gatherer  prometheus.Gatherer
}

// New creates the echo instance with every route registered.
func New(s *Server) *echo.Echo {
	if s.Events == nil {
		s.Events = events.Discard
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(logRequests)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		if he, ok := err.(*echo.HTTPError); ok && he.Internal != nil && he.Code >= 500 {
			log.Errorf("%s %s: %+v", c.Request().Method, c.Request().URL, he.Internal)
		}
		e.DefaultHTTPErrorHandler(err, c)
	}

	api := e.Group("/api")
	api.POST("/dmps", s.ImportDMP)
	api.GET("/dmps", s.ListDMPs)
	api.GET("/dmps/:dmpId", s.GetDMP)
	api.DELETE("/dmps/:dmpId", s.DeleteDMP)
	api.GET("/dmps/:dmpId/madmp", s.ExportDMP)
	api.POST("/madmp/validate", s.ValidateMaDMP)
	api.GET("/records/:recid", s.GetRecord)
	api.GET("/records/:recid/dmps", s.GetRecordDMPs)
	api.GET("/records/:recid/madmp", s.ExportRecord)

	if s.Gatherer != nil {
		e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})))
	}
	return e
}

func logRequests(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		if err != nil {
			c.Error(err)
		}
		log.Infof("%s %s %d in %v", c.Request().Method, c.Request().URL, c.Response().Status, time.Since(start))
		return nil
	}
}
