package evaluationshandler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"thodemy/internal/domain/audit"
	"thodemy/internal/domain/auth"
	"thodemy/internal/domain/evaluation"
	"thodemy/internal/platform/metrics"
	"thodemy/internal/transport/http/api"
	"thodemy/internal/transport/http/middleware"
	"thodemy/internal/transport/http/shared"
)

// AuditRecorder stores who changed which evaluation.
type AuditRecorder interface {
	Record(ctx context.Context, actorID, action, entityType, entityID string, before, after any) error
}

type Handler struct {
	Service *evaluation.Service
	Perms   middleware.PermissionStore
	Audit   AuditRecorder
	Metrics *metrics.Collector
}

func NewHandler(service *evaluation.Service, perms middleware.PermissionStore, auditor AuditRecorder, collector *metrics.Collector) *Handler {
	return &Handler{Service: service, Perms: perms, Audit: auditor, Metrics: collector}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	read := middleware.RequirePermission(auth.PermEvaluationsRead, h.Perms)
	write := middleware.RequirePermission(auth.PermEvaluationsWrite, h.Perms)
	grade := middleware.RequirePermission(auth.PermEvaluationsGrade, h.Perms)

	r.Route("/evaluations", func(r chi.Router) {
		r.With(read).Get("/", h.handleList)
		r.With(write).Post("/", h.handleCreate)

		r.Route("/{evaluationID}", func(r chi.Router) {
			r.Use(requireUUIDParam("evaluationID"))
			r.With(read).Get("/", h.handleGet)
			r.With(read).Get("/summary", h.handleSummary)
			r.With(write).Patch("/", h.handleUpdate)
			r.With(middleware.RequirePermission(auth.PermEvaluationsDelete, h.Perms)).Delete("/", h.handleDelete)

			r.With(grade).Post("/scores", h.handleSaveScores)
			r.With(grade).Delete("/scores/{sheet}/{criterionKey}", h.handleDeleteScore)
			r.With(grade).Post("/activities/{activityKey}/grade", h.handleGradeActivity)
			r.With(grade).Post("/activities/{activityKey}/not-submitted", h.handleNotSubmitted)
			r.With(grade).Delete("/activities/{activityKey}", h.handleDeleteActivity)
			r.With(grade).Post("/auto-populate", h.handleAutoPopulate)

			export := middleware.RequirePermission(auth.PermEvaluationsExport, h.Perms)
			r.With(export).Get("/export.xlsx", h.handleExportXLSX)
			r.With(export).Get("/export.pdf", h.handleExportPDF)
		})
	})
}

func requireUUIDParam(name string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, err := uuid.Parse(chi.URLParam(r, name)); err != nil {
				api.Fail(w, http.StatusNotFound, "evaluation_not_found", "evaluation not found", middleware.GetRequestID(r.Context()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// pathParam returns a route parameter with percent-escapes decoded.
func pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	value, err := url.PathUnescape(chi.URLParam(r, name))
	if err != nil {
		api.FailWithDetails(w, http.StatusBadRequest, "invalid_request", "invalid path parameter", map[string]string{name: "is not a valid escaped path segment"}, middleware.GetRequestID(r.Context()))
		return "", false
	}
	return value, true
}

func (h *Handler) record(r *http.Request, action, evaluationID string, before, after any) {
	if h.Audit == nil {
		return
	}
	actor := ""
	if user, ok := middleware.GetUser(r.Context()); ok {
		actor = user.UserID
	}
	if err := h.Audit.Record(r.Context(), actor, action, audit.EntityEvaluation, evaluationID, before, after); err != nil {
		slog.Warn("audit evaluation."+action+" failed", "err", err)
	}
}

// writeError maps domain errors onto the API envelope.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	reqID := middleware.GetRequestID(r.Context())
	var gradingErr *evaluation.GradingError
	switch {
	case errors.As(err, &gradingErr):
		shared.FailValidation(w, reqID, []shared.ValidationIssue{{Field: "scores." + gradingErr.Criterion, Reason: gradingErr.Reason}})
	case errors.Is(err, evaluation.ErrEvaluationNotFound):
		api.Fail(w, http.StatusNotFound, "evaluation_not_found", err.Error(), reqID)
	case errors.Is(err, evaluation.ErrScoreNotFound):
		api.Fail(w, http.StatusNotFound, "score_not_found", err.Error(), reqID)
	case errors.Is(err, evaluation.ErrActivityNotFound):
		api.Fail(w, http.StatusNotFound, "activity_not_found", err.Error(), reqID)
	case errors.Is(err, evaluation.ErrFinalized):
		api.Fail(w, http.StatusConflict, "evaluation_finalized", err.Error(), reqID)
	case errors.Is(err, evaluation.ErrInvalidStatus),
		errors.Is(err, evaluation.ErrInvalidSheet),
		errors.Is(err, evaluation.ErrInvalidSource),
		errors.Is(err, evaluation.ErrInvalidPeriod),
		errors.Is(err, evaluation.ErrNothingToUpdate):
		api.Fail(w, http.StatusBadRequest, "invalid_request", err.Error(), reqID)
	default:
		slog.Error("evaluation request failed", "path", r.URL.Path, "requestId", reqID, "err", err)
		api.Fail(w, http.StatusInternalServerError, "evaluation_error", "evaluation request failed", reqID)
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := shared.DecodeJSON(r, dst); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", middleware.GetRequestID(r.Context()))
		return false
	}
	return true
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	page := shared.ParsePagination(r, 50, 200)
	filter := evaluation.ListFilter{
		UserID: r.URL.Query().Get("userId"),
		Status: r.URL.Query().Get("status"),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	validator := shared.NewValidator()
	validator.UUID("userId", filter.UserID)
	validator.Enum("status", filter.Status, evaluation.Statuses, "must be one of draft, in_progress, finalized")
	if validator.Reject(w, reqID) {
		return
	}

	items, total, err := h.Service.List(r.Context(), filter)
	if err != nil {
		writeError(w, r, err)
		return
	}
	shared.WriteTotalCount(w, total)
	api.Success(w, items, reqID)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	detail, err := h.Service.Get(r.Context(), chi.URLParam(r, "evaluationID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, detail, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Service.Summary(r.Context(), chi.URLParam(r, "evaluationID"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	api.Success(w, summary, middleware.GetRequestID(r.Context()))
}

type createRequest struct {
	UserID         string         `json:"userId" validate:"required,uuid"`
	LearningPathID string         `json:"learningPathId" validate:"omitempty,uuid"`
	EvaluatorID    string         `json:"evaluatorId" validate:"omitempty,uuid"`
	TraineeInfo    map[string]any `json:"traineeInfo"`
	PeriodStart    *string        `json:"periodStart"`
	PeriodEnd      *string        `json:"periodEnd"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	var payload createRequest
	if !decode(w, r, &payload) {
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	start := validator.OptionalDate("periodStart", payload.PeriodStart)
	end := validator.OptionalDate("periodEnd", payload.PeriodEnd)
	if start != nil && end != nil {
		validator.DateOrder("periodStart", *start, "periodEnd", *end)
	}
	if validator.Reject(w, reqID) {
		return
	}

	if payload.EvaluatorID == "" {
		if user, ok := middleware.GetUser(r.Context()); ok {
			payload.EvaluatorID = user.UserID
		}
	}
	created, err := h.Service.Create(r.Context(), evaluation.CreateInput{
		UserID:         payload.UserID,
		LearningPathID: payload.LearningPathID,
		EvaluatorID:    payload.EvaluatorID,
		TraineeInfo:    payload.TraineeInfo,
		PeriodStart:    start,
		PeriodEnd:      end,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionCreate, created.ID, nil, created)
	api.Created(w, created, reqID)
}

type updateRequest struct {
	Status         *string        `json:"status" validate:"omitempty,oneof=draft in_progress finalized"`
	UserID         *string        `json:"userId" validate:"omitempty,uuid"`
	LearningPathID *string        `json:"learningPathId" validate:"omitempty,uuid"`
	EvaluatorID    *string        `json:"evaluatorId" validate:"omitempty,uuid"`
	TraineeInfo    map[string]any `json:"traineeInfo"`
	PeriodStart    *string        `json:"periodStart"`
	PeriodEnd      *string        `json:"periodEnd"`
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "evaluationID")
	var payload updateRequest
	if !decode(w, r, &payload) {
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	patch := evaluation.Patch{
		Status:         payload.Status,
		UserID:         payload.UserID,
		LearningPathID: payload.LearningPathID,
		EvaluatorID:    payload.EvaluatorID,
		TraineeInfo:    payload.TraineeInfo,
		PeriodStart:    validator.OptionalDate("periodStart", payload.PeriodStart),
		PeriodEnd:      validator.OptionalDate("periodEnd", payload.PeriodEnd),
	}
	if validator.Reject(w, reqID) {
		return
	}

	updated, err := h.Service.Update(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionUpdate, id, nil, payload)
	api.Success(w, updated, reqID)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "evaluationID")
	if err := h.Service.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionDelete, id, nil, nil)
	api.Success(w, map[string]string{"id": id, "status": "deleted"}, middleware.GetRequestID(r.Context()))
}
