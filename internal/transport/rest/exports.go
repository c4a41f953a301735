package rest

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (h *Handler) exportDebts(w http.ResponseWriter, r *http.Request) {
	req, err := ParseExportRequest(r)
	if err != nil {
		DomainError(w, err)
		return
	}

	exportID, err := h.exports.StartDebtsExport(r.Context(), req.Fields, req.ToDebtsFilter(), req.RequestedBy)
	if err != nil {
		log.Printf("[HTTP] startDebtsExport error: %v", err)
		ErrorInternal(w, "failed to start export")
		return
	}

	SuccessAccepted(w, "Exportación encolada", map[string]any{
		"export_id": exportID,
	})
}

func (h *Handler) exportPayments(w http.ResponseWriter, r *http.Request) {
	req, err := ParseExportRequest(r)
	if err != nil {
		DomainError(w, err)
		return
	}

	exportID, err := h.exports.StartPaymentsExport(r.Context(), req.Fields, req.ToPaymentsFilter(), req.RequestedBy)
	if err != nil {
		log.Printf("[HTTP] startPaymentsExport error: %v", err)
		ErrorInternal(w, "failed to start export")
		return
	}

	SuccessAccepted(w, "Exportación encolada", map[string]any{
		"export_id": exportID,
	})
}

func (h *Handler) listExports(w http.ResponseWriter, r *http.Request) {
	exports, err := h.exports.GetExports(r.Context())
	if err != nil {
		log.Printf("[HTTP] listExports error: %v", err)
		ErrorInternal(w, "failed to get exports")
		return
	}
	Success(w, "", exports)
}

func (h *Handler) getExport(w http.ResponseWriter, r *http.Request) {
	exportIDParam := chi.URLParam(r, "export_id")
	if exportIDParam == "" {
		ErrorBadRequest(w, "export_id is required")
		return
	}
	exportID := "exports:" + exportIDParam

	export, err := h.exports.GetExport(r.Context(), exportID)
	if err != nil {
		log.Printf("[HTTP] getExport error: %v", err)
		ErrorNotFound(w, "export not found")
		return
	}
	Success(w, "", export)
}
