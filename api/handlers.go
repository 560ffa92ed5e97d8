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
	"context"
	"io/ioutil"
	"net/http"
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/uncharted-distil/distil-madmp/convert"
	"github.com/uncharted-distil/distil-madmp/dmp"
	"github.com/uncharted-distil/distil-madmp/events"
	"github.com/uncharted-distil/distil-madmp/madmp"
	"github.com/uncharted-distil/distil-madmp/model"
	"github.com/uncharted-distil/distil-madmp/storage"
)

// DatasetSummary names a dataset and holds its record, which is null for a
// dataset without one.
type DatasetSummary struct {
	DatasetID string        `json:"dataset_id"`
	RecordPID string        `json:"record_pid,omitempty"`
	Record    *model.Record `json:"record"`
}

// DMPSummary describes a DMP and its datasets.
type DMPSummary struct {
	DMPID    string           `json:"dmp_id"`
	Datasets []DatasetSummary `json:"datasets"`
}

// ImportResponse is the summary of the imported DMP with the records the
// import touched.
type ImportResponse struct {
	DMPSummary
	Created  []string `json:"created"`
	Updated  []string `json:"updated"`
	Assigned []string `json:"assigned"`
	DryRun   bool     `json:"dry_run"`
	Archived string   `json:"archived,omitempty"`
	// kinds of the changes, in order
	Events []events.Kind `json:"events"`
}

// ValidationResponse reports the schema violations of a document.
type ValidationResponse struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// MaDMPExport holds the exported datasets of a DMP.
type MaDMPExport struct {
	DMPID   string          `json:"dmp_id"`
	Dataset []madmp.Dataset `json:"dataset"`
}

// Summarize lists the datasets of the DMP with their records. Records found
// in known are not looked up in the store.
func Summarize(ctx context.Context, store storage.Storage, plan *model.DataManagementPlan, known ...*model.Record) (DMPSummary, error) {
	byPID := make(map[string]*model.Record, len(known))
	for _, rec := range known {
		byPID[rec.PID()] = rec
	}

	summary := DMPSummary{DMPID: plan.DMPID, Datasets: []DatasetSummary{}}
	for _, ds := range plan.Datasets {
		item := DatasetSummary{DatasetID: ds.DatasetID, RecordPID: ds.RecordPID}
		if ds.HasRecord() {
			rec, ok := byPID[ds.RecordPID]
			if !ok {
				var err error
				rec, err = store.GetRecordByPID(ctx, ds.RecordPID)
				if err != nil && !storage.IsNotFound(err) {
					return DMPSummary{}, errors.Wrapf(err, "unable to load record `%s`", ds.RecordPID)
				}
			}
			item.Record = rec
		}
		summary.Datasets = append(summary.Datasets, item)
	}
	return summary, nil
}

func (s *Server) summarizeAll(ctx context.Context, plans []*model.DataManagementPlan) ([]DMPSummary, error) {
	summaries := make([]DMPSummary, len(plans))
	for i, plan := range plans {
		summary, err := Summarize(ctx, s.Store, plan)
		if err != nil {
			return nil, err
		}
		summaries[i] = summary
	}
	return summaries, nil
}

func kinds(evs []events.Event) []events.Kind {
	result := make([]events.Kind, len(evs))
	for i, ev := range evs {
		result[i] = ev.Kind
	}
	return result
}

func recids(recs []*model.Record) []string {
	ids := make([]string, len(recs))
	for i, rec := range recs {
		ids[i] = rec.RecID
	}
	return ids
}

// param returns the unescaped path parameter. DMP ids are often DOIs.
func param(c echo.Context, name string) string {
	value := c.Param(name)
	if unescaped, err := url.PathUnescape(value); err == nil {
		return unescaped
	}
	return value
}

func queryFlag(c echo.Context, name string) (bool, error) {
	value := c.QueryParam(name)
	if value == "" {
		return false, nil
	}
	flag, err := strconv.ParseBool(value)
	if err != nil {
		return false, badRequest("invalid value of `"+name+"`", err)
	}
	return flag, nil
}

// ImportDMP imports the maDMP in the request body.
func (s *Server) ImportDMP(c echo.Context) error {
	hardSync, err := queryFlag(c, "hard_sync")
	if err != nil {
		return err
	}
	dryRun, err := queryFlag(c, "dry_run")
	if err != nil {
		return err
	}

	data, err := ioutil.ReadAll(c.Request().Body)
	if err != nil {
		return badRequest("unable to read request body", err)
	}
	violations, err := s.Validator.ErrorMessages(data)
	if err != nil {
		return badRequest("invalid maDMP document", err)
	}
	if len(violations) > 0 {
		return badRequest("maDMP document violates the schema", nil, violations...)
	}
	doc, err := madmp.Parse(data)
	if err != nil {
		return badRequest("invalid maDMP document", err)
	}

	result, err := s.Importer.Import(c.Request().Context(), doc, convert.Options{HardSync: hardSync, DryRun: dryRun})
	if err != nil {
		return fromError(err)
	}

	// records of a dry run only exist in the result
	touched := append(append(append([]*model.Record{}, result.Created...), result.Updated...), result.Assigned...)
	summary, err := Summarize(c.Request().Context(), s.Store, result.DMP, touched...)
	if err != nil {
		return fromError(err)
	}

	status := http.StatusOK
	if dryRun {
		status = http.StatusAccepted
	}
	return c.JSON(status, ImportResponse{
		DMPSummary: summary,
		Created:    recids(result.Created),
		Updated:    recids(result.Updated),
		Assigned:   recids(result.Assigned),
		DryRun:     result.DryRun,
		Archived:   result.Archived,
		Events:     kinds(result.Events),
	})
}

// ListDMPs lists the summaries of all DMPs.
func (s *Server) ListDMPs(c echo.Context) error {
	ctx := c.Request().Context()
	plans, err := s.Store.ListDMPs(ctx)
	if err != nil {
		return fromError(err)
	}
	summaries, err := s.summarizeAll(ctx, plans)
	if err != nil {
		return fromError(err)
	}
	return c.JSON(http.StatusOK, summaries)
}

// GetDMP returns the summary of a DMP.
func (s *Server) GetDMP(c echo.Context) error {
	ctx := c.Request().Context()
	plan, err := s.Store.GetDMP(ctx, param(c, "dmpId"))
	if err != nil {
		return fromError(err)
	}
	summary, err := Summarize(ctx, s.Store, plan)
	if err != nil {
		return fromError(err)
	}
	return c.JSON(http.StatusOK, summary)
}

// DeleteDMP deletes a DMP. Its datasets and records are kept.
func (s *Server) DeleteDMP(c echo.Context) error {
	ctx := c.Request().Context()
	buf := events.NewBuffer()
	err := s.Store.RunInTransaction(ctx, func(tx storage.Storage) error {
		svc := dmp.New(tx, buf)
		plan, err := svc.GetDMPByID(ctx, param(c, "dmpId"))
		if err != nil {
			return err
		}
		return svc.DeleteDMP(ctx, plan)
	})
	if err != nil {
		return fromError(err)
	}
	buf.Flush(ctx, s.Events)
	return c.NoContent(http.StatusNoContent)
}

// ExportDMP renders the records of a DMP as maDMP datasets.
func (s *Server) ExportDMP(c echo.Context) error {
	ctx := c.Request().Context()
	plan, err := s.Store.GetDMP(ctx, param(c, "dmpId"))
	if err != nil {
		return fromError(err)
	}
	datasets, err := s.Exporter.ExportDMP(ctx, plan)
	if err != nil {
		return fromError(err)
	}
	return c.JSON(http.StatusOK, MaDMPExport{DMPID: plan.DMPID, Dataset: datasets})
}

// ValidateMaDMP checks the request body against the maDMP schema.
func (s *Server) ValidateMaDMP(c echo.Context) error {
	data, err := ioutil.ReadAll(c.Request().Body)
	if err != nil {
		return badRequest("unable to read request body", err)
	}
	violations, err := s.Validator.ErrorMessages(data)
	if err != nil {
		violations = []string{err.Error()}
	}
	return c.JSON(http.StatusOK, ValidationResponse{Valid: len(violations) == 0, Errors: violations})
}

// GetRecord returns a record by recid.
func (s *Server) GetRecord(c echo.Context) error {
	rec, err := s.Store.GetRecordByPID(c.Request().Context(), param(c, "recid"))
	if err != nil {
		return fromError(err)
	}
	return c.JSON(http.StatusOK, rec)
}

// GetRecordDMPs lists the DMPs a record belongs to.
func (s *Server) GetRecordDMPs(c echo.Context) error {
	ctx := c.Request().Context()
	rec, err := s.Store.GetRecordByPID(ctx, param(c, "recid"))
	if err != nil {
		return fromError(err)
	}
	plans, err := dmp.New(s.Store, nil).GetDMPsByRecord(ctx, rec)
	if err != nil {
		return fromError(err)
	}
	summaries, err := s.summarizeAll(ctx, plans)
	if err != nil {
		return fromError(err)
	}
	return c.JSON(http.StatusOK, summaries)
}

// ExportRecord renders a record as a maDMP dataset.
func (s *Server) ExportRecord(c echo.Context) error {
	rec, err := s.Store.GetRecordByPID(c.Request().Context(), param(c, "recid"))
	if err != nil {
		return fromError(err)
	}
	ds, err := s.Exporter.ExportDataset(rec)
	if err != nil {
		return fromError(err)
	}
	if ds == nil {
		return notFound("record `" + rec.RecID + "` has no maDMP representation")
	}
	return c.JSON(http.StatusOK, ds)
}
