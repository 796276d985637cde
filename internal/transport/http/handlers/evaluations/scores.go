package evaluationshandler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"thodemy/internal/domain/audit"
	"thodemy/internal/domain/evaluation"
	"thodemy/internal/transport/http/api"
	"thodemy/internal/transport/http/middleware"
	"thodemy/internal/transport/http/shared"
)

type scoreInput struct {
	Sheet          string   `json:"sheet" validate:"required"`
	Category       string   `json:"category" validate:"max=100"`
	CriterionKey   string   `json:"criterionKey" validate:"notblank,max=200"`
	CriterionLabel string   `json:"criterionLabel" validate:"max=300"`
	Score          *float64 `json:"score" validate:"omitempty,gte=0"`
	MaxScore       *float64 `json:"maxScore" validate:"omitempty,gt=0"`
	Weight         *float64 `json:"weight" validate:"omitempty,gte=0"`
	Remarks        string   `json:"remarks" validate:"max=2000"`
	Source         string   `json:"source"`
	SourceRefID    string   `json:"sourceRefId"`
	Status         string   `json:"status" validate:"omitempty,oneof=graded not_submitted ungraded"`
}

type saveScoresRequest struct {
	Scores []scoreInput `json:"scores" validate:"required,min=1,max=500,dive"`
}

func (in scoreInput) toScore() evaluation.Score {
	source := in.Source
	if source == "" {
		source = evaluation.SourceManual
	}
	return evaluation.Score{
		Sheet:          in.Sheet,
		Category:       in.Category,
		CriterionKey:   in.CriterionKey,
		CriterionLabel: in.CriterionLabel,
		Score:          in.Score,
		MaxScore:       in.MaxScore,
		Weight:         in.Weight,
		Remarks:        in.Remarks,
		Source:         source,
		SourceRefID:    in.SourceRefID,
		Status:         in.Status,
	}
}

func (h *Handler) handleSaveScores(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "evaluationID")
	var payload saveScoresRequest
	if !decode(w, r, &payload) {
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	pending := make([]evaluation.Score, 0, len(payload.Scores))
	for i, in := range payload.Scores {
		field := "scores[" + strconv.Itoa(i) + "]"
		validator.Enum(field+".sheet", in.Sheet, evaluation.Sheets, "is not a known score sheet")
		validator.Enum(field+".source", in.Source, evaluation.Sources, "must be one of manual, auto_quiz, auto_activity")
		pending = append(pending, in.toScore())
	}
	if validator.Reject(w, reqID) {
		return
	}

	detail, err := h.Service.SaveScores(r.Context(), id, pending)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.ScoresSaved(len(pending))
	h.record(r, audit.ActionSaveScores, id, nil, map[string]any{"count": len(pending)})
	api.Success(w, detail, reqID)
}

func (h *Handler) handleDeleteScore(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "evaluationID")
	sheet, ok := pathParam(w, r, "sheet")
	if !ok {
		return
	}
	criterionKey, ok := pathParam(w, r, "criterionKey")
	if !ok {
		return
	}
	if err := h.Service.DeleteScore(r.Context(), id, sheet, criterionKey); err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionDeleteScore, id, map[string]string{"sheet": sheet, "criterionKey": criterionKey}, nil)
	api.Success(w, map[string]string{"sheet": sheet, "criterionKey": criterionKey, "status": "deleted"}, middleware.GetRequestID(r.Context()))
}

type gradeRequest struct {
	Label   string             `json:"label" validate:"max=300"`
	Remarks string             `json:"remarks" validate:"max=2000"`
	Scores  map[string]float64 `json:"scores" validate:"required"`
}

// handleGradeActivity accepts a complete rubric for one activity. Partial
// grades are rejected with the first missing or out-of-range criterion.
func (h *Handler) handleGradeActivity(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "evaluationID")
	activityKey, ok := pathParam(w, r, "activityKey")
	if !ok {
		return
	}
	var payload gradeRequest
	if !decode(w, r, &payload) {
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, reqID) {
		return
	}

	detail, err := h.Service.GradeActivity(r.Context(), id, activityKey, evaluation.ActivityGrade{
		Label:   payload.Label,
		Remarks: payload.Remarks,
		Scores:  payload.Scores,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.ScoresSaved(len(payload.Scores))
	h.record(r, audit.ActionGrade, id, nil, map[string]any{"activity": activityKey, "scores": payload.Scores})
	api.Success(w, detail, reqID)
}

type notSubmittedRequest struct {
	Label   string `json:"label" validate:"max=300"`
	Remarks string `json:"remarks" validate:"max=2000"`
}

func (h *Handler) handleNotSubmitted(w http.ResponseWriter, r *http.Request) {
	reqID := middleware.GetRequestID(r.Context())
	id := chi.URLParam(r, "evaluationID")
	activityKey, ok := pathParam(w, r, "activityKey")
	if !ok {
		return
	}
	var payload notSubmittedRequest
	if r.ContentLength != 0 && !decode(w, r, &payload) {
		return
	}
	validator := shared.NewValidator()
	validator.Struct(payload)
	if validator.Reject(w, reqID) {
		return
	}

	detail, err := h.Service.MarkNotSubmitted(r.Context(), id, activityKey, payload.Label, payload.Remarks)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionNotSubmitted, id, nil, map[string]string{"activity": activityKey})
	api.Success(w, detail, reqID)
}

func (h *Handler) handleDeleteActivity(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "evaluationID")
	activityKey, ok := pathParam(w, r, "activityKey")
	if !ok {
		return
	}
	deleted, err := h.Service.DeleteActivity(r.Context(), id, activityKey)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.record(r, audit.ActionDeleteActivity, id, map[string]any{"activity": activityKey, "rows": deleted}, nil)
	api.Success(w, map[string]any{"activity": activityKey, "deleted": deleted}, middleware.GetRequestID(r.Context()))
}

func (h *Handler) handleAutoPopulate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "evaluationID")
	result, err := h.Service.AutoPopulate(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.AutoPopulated(result.Count)
	h.record(r, audit.ActionAutoPopulate, id, nil, map[string]int{"count": result.Count})
	api.Success(w, result, middleware.GetRequestID(r.Context()))
}
