package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/hvirtan/reportpipe/internal/store"
	"github.com/labstack/echo/v4"
)

type ReportReader interface {
	ReadReportByID(ctx context.Context, reportID string) (*store.Report, error)
}

type ReportHandler struct {
	reports ReportReader
}

func NewReportHandler(reports ReportReader) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func SetupReportRoutes(e *echo.Echo, h *ReportHandler) {
	e.GET("/reports/:report_id", h.GetReport)
}

func (h *ReportHandler) GetReport(c echo.Context) error {
	rp := new(ReportParams)
	if err := c.Bind(rp); err != nil {
		return newError(err, http.StatusBadRequest, "invalid report id")
	}
	rep, err := h.reports.ReadReportByID(c.Request().Context(), rp.ReportID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return newError(err, http.StatusNotFound, "report not found")
		}
		return newError(err, http.StatusInternalServerError, "unable to read report")
	}
	return c.JSON(http.StatusOK, ReportResponse{
		ReportID:     rep.ReportID,
		RunID:        rep.ReportRunID,
		Title:        rep.Title,
		ContentHTML:  rep.ContentHTML,
		ContentJSON:  json.RawMessage(rep.ContentJSON),
		RenderBlocks: json.RawMessage(rep.RenderBlocks),
		CreatedOn:    rep.CreatedOn,
	})
}
