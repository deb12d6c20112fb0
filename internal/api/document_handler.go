package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/phrazzld/docgen-api/internal/api/shared"
	"github.com/phrazzld/docgen-api/internal/platform/logger"
	"github.com/phrazzld/docgen-api/internal/service"
)

// Response messages
const (
	AcceptedMessage  = "Document generation started"
	GeneratedMessage = "Document generated"
)

// DocumentHandler handles document generation HTTP requests
type DocumentHandler struct {
	generationService service.GenerationService
	logger            *slog.Logger
}

// NewDocumentHandler creates a new DocumentHandler
func NewDocumentHandler(generationService service.GenerationService, logger *slog.Logger) *DocumentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentHandler{
		generationService: generationService,
		logger:            logger.With("component", "document_handler"),
	}
}

// GenerateAsync handles POST /api/documents/generate/async requests.
// The request is validated and queued; the document itself is delivered to
// the callback URL later.
func (h *DocumentHandler) GenerateAsync(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req GenerateRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		log.Debug("failed to decode generate request", "error", err)
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	requestID, err := h.generationService.Submit(r.Context(), req.toSubmitRequest())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, AcceptedResponse{
		RequestID: requestID,
		Message:   AcceptedMessage,
	})
}

// GenerateSync handles POST /api/documents/generate/sync requests.
// The document is rendered before the response is written.
func (h *DocumentHandler) GenerateSync(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req GenerateSyncRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		log.Debug("failed to decode generate request", "error", err)
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	url, err := h.generationService.Generate(r.Context(), string(req.UserID), req.DocType)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, GeneratedResponse{
		Message:     GeneratedMessage,
		DocumentURL: url,
	})
}

// GetStatus handles GET /api/documents/{request_id} requests.
func (h *DocumentHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	requestID := chi.URLParam(r, "request_id")
	if requestID == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "request_id is required")
		return
	}

	status, err := h.generationService.GetStatus(r.Context(), requestID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, statusToResponse(status))
}

// ListLogs handles GET /api/admin/logs?limit=N requests.
func (h *DocumentHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid limit: must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.generationService.ListLogs(r.Context(), limit)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	resp := LogListResponse{Logs: make([]LogEntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Logs = append(resp.Logs, logEntryToResponse(e))
	}
	resp.Count = len(resp.Logs)
	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// Routes mounts the document and admin endpoints on r.
func (h *DocumentHandler) Routes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/documents/generate/sync", h.GenerateSync)
		r.Post("/documents/generate/async", h.GenerateAsync)
		r.Get("/documents/{request_id}", h.GetStatus)
		r.Get("/admin/logs", h.ListLogs)
	})
}
