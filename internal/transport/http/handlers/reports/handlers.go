package reportshandler

import (
	"context"
	"encoding/csv"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"thodemy/internal/domain/auth"
	"thodemy/internal/domain/evaluation"
	"thodemy/internal/transport/http/api"
	"thodemy/internal/transport/http/middleware"
	"thodemy/internal/transport/http/shared"
)

// Reporter produces one summary row per evaluation.
type Reporter interface {
	Report(ctx context.Context, filter evaluation.ListFilter) ([]evaluation.ReportRow, error)
}

type Handler struct {
	Reports Reporter
	Perms   middleware.PermissionStore
}

func NewHandler(reports Reporter, perms middleware.PermissionStore) *Handler {
	return &Handler{Reports: reports, Perms: perms}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/reports", func(r chi.Router) {
		r.With(middleware.RequirePermission(auth.PermReportsRead, h.Perms)).Get("/evaluations", h.handleEvaluationReport)
	})
}

// handleEvaluationReport lists rollups for the filtered evaluations as JSON,
// or as CSV when format=csv.
func (h *Handler) handleEvaluationReport(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 200, 1000)
	filter := evaluation.ListFilter{
		UserID: r.URL.Query().Get("userId"),
		Status: r.URL.Query().Get("status"),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	validator := shared.NewValidator()
	validator.UUID("userId", filter.UserID)
	if validator.Reject(w, reqID) {
		return
	}
	rows, err := h.Reports.Report(r.Context(), filter)
	if errors.Is(err, evaluation.ErrInvalidStatus) {
		api.Fail(w, http.StatusBadRequest, "invalid_request", err.Error(), reqID)
		return
	}
	if err != nil {
		slog.Warn("evaluation report failed", "err", err)
		api.Fail(w, http.StatusInternalServerError, "report_failed", "failed to build evaluation report", reqID)
		return
	}

	if r.URL.Query().Get("format") != "csv" {
		api.Success(w, rows, reqID)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="evaluation-report.csv"`)
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"evaluation_id", "user_id", "trainee", "status", "bootcamp_percent", "performance_percent", "overall_score", "rating", "activities_complete", "activities_total"}); err != nil {
		slog.Warn("report export header failed", "err", err)
	}
	for _, row := range rows {
		record := []string{
			row.EvaluationID,
			row.UserID,
			row.TraineeName,
			row.Status,
			formatPercent(row.BootcampPercent),
			formatPercent(row.PerformancePercent),
			formatPercent(row.OverallScore),
			row.Rating,
			strconv.Itoa(row.ActivitiesComplete),
			strconv.Itoa(row.ActivitiesTotal),
		}
		if err := writer.Write(record); err != nil {
			slog.Warn("report export row failed", "err", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		slog.Warn("report export flush failed", "err", err)
	}
}

func formatPercent(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
