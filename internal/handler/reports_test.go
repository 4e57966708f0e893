package handler

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/hvirtan/reportpipe/internal/store"
	"github.com/hvirtan/reportpipe/internal/testutil"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestReportHandler_GetReport(t *testing.T) {
	t.Run("success - report returned with embedded json", func(t *testing.T) {
		// arrange
		rep := &store.Report{
			ReportID:     "report-1",
			ReportRunID:  "run-1",
			Title:        "weekly sales - 2026-08-29",
			ContentHTML:  "<html><body><h1>weekly sales</h1></body></html>",
			ContentJSON:  `{"pipeline":"weekly sales","sections":[]}`,
			RenderBlocks: `[{"type":"bar_chart","title":"Revenue","data":[1,2]}]`,
			CreatedOn:    time.Now().UTC(),
		}
		mockReports := new(testutil.MockReportReader)
		mockReports.On("ReadReportByID", mock.Anything, rep.ReportID).Return(rep, nil)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/reports/report-1", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/reports/:report_id")
		c.SetParamNames("report_id")
		c.SetParamValues(rep.ReportID)
		h := NewReportHandler(mockReports)

		// act
		err := h.GetReport(c)

		// assert
		assert.NoError(t, err)
		assert.Equal(t, http.StatusOK, rec.Code)
		var response struct {
			ReportID     string `json:"report_id"`
			Title        string `json:"title"`
			ContentJSON  struct {
				Pipeline string `json:"pipeline"`
			} `json:"content_json"`
			RenderBlocks []map[string]any `json:"render_blocks"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
		assert.Equal(t, rep.ReportID, response.ReportID)
		assert.Equal(t, rep.Title, response.Title)
		assert.Equal(t, "weekly sales", response.ContentJSON.Pipeline)
		assert.Len(t, response.RenderBlocks, 1)
		assert.Equal(t, "bar_chart", response.RenderBlocks[0]["type"])
	})
	t.Run("failure - report not found", func(t *testing.T) {
		// arrange
		mockReports := new(testutil.MockReportReader)
		mockReports.On("ReadReportByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)

		e := echo.New()
		req := httptest.NewRequest(http.MethodGet, "/reports/missing", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.SetPath("/reports/:report_id")
		c.SetParamNames("report_id")
		c.SetParamValues("missing")
		h := NewReportHandler(mockReports)

		// act
		err := h.GetReport(c)

		// assert
		assert.Error(t, err)
		he, ok := err.(*echo.HTTPError)
		assert.True(t, ok)
		assert.Equal(t, http.StatusNotFound, he.Code)
	})
}
