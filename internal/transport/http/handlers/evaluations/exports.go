package evaluationshandler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"thodemy/internal/domain/audit"
	"thodemy/internal/domain/evaluation"
	"thodemy/internal/transport/http/api"
)

func (h *Handler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "xlsx", h.Service.ExportWorkbook)
}

func (h *Handler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "pdf", h.Service.ExportPDF)
}

func (h *Handler) export(w http.ResponseWriter, r *http.Request, format string, render func(context.Context, string) (evaluation.Export, error)) {
	id := chi.URLParam(r, "evaluationID")
	out, err := render(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	h.Metrics.Export(format)
	h.record(r, audit.ActionExport, id, nil, map[string]string{"format": format, "filename": out.Filename})
	api.Attachment(w, out.Filename, out.ContentType, out.Data)
}
