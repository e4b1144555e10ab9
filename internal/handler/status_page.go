package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"statusboard/internal/domain"
	models "statusboard/internal/domain/models/statuspage"
	spSvc "statusboard/internal/domain/services/statuspage"
	"statusboard/internal/httputil"

	"github.com/google/uuid"
)

// StatusPageHandler handles status page and layout HTTP requests
type StatusPageHandler struct {
	layoutService spSvc.LayoutService
	logger        *slog.Logger
}

// NewStatusPageHandler creates a new status page handler
func NewStatusPageHandler(layoutService spSvc.LayoutService, logger *slog.Logger) *StatusPageHandler {
	return &StatusPageHandler{
		layoutService: layoutService,
		logger:        logger,
	}
}

// RegisterRoutes mounts the status page API on mux
func (h *StatusPageHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /health", h.HealthCheck)
	mux.HandleFunc("GET /api/status-pages", h.ListStatusPages)
	mux.HandleFunc("POST /api/status-pages", h.CreateStatusPage)
	mux.HandleFunc("GET /api/status-pages/{id}", h.GetStatusPage)
	mux.HandleFunc("GET /api/status-pages/{id}/layout", h.GetLayout)
	mux.HandleFunc("POST /api/status-pages/{id}/layout/projection", h.Project)
	mux.HandleFunc("POST /api/status-pages/{id}/layout/drop", h.Drop)
	mux.HandleFunc("PUT /api/status-pages/{id}/items", h.UpdateItems)
}

// HealthCheck is a simple health check endpoint
// GET /health
func (h *StatusPageHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"time":   time.Now(),
	})
}

// ListStatusPages lists all status pages without their items
// GET /api/status-pages
func (h *StatusPageHandler) ListStatusPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.layoutService.ListStatusPages(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, pages)
}

// CreateStatusPage creates a status page with its initial layout
// POST /api/status-pages
// Returns 201 if created, 409 with the existing page if the subdomain is taken
func (h *StatusPageHandler) CreateStatusPage(w http.ResponseWriter, r *http.Request) {
	var req spSvc.CreateStatusPageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	page, err := h.layoutService.CreateStatusPage(r.Context(), &req)
	if err != nil {
		HandleCreateConflict(w, err, func(id string) (*models.StatusPage, error) {
			return h.layoutService.GetStatusPage(r.Context(), id)
		})
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, page)
}

// GetStatusPage returns a page with its items in the server ordering shape
// GET /api/status-pages/{id}
func (h *StatusPageHandler) GetStatusPage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.statusPageID(w, r)
	if !ok {
		return
	}

	page, err := h.layoutService.GetStatusPage(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, page)
}

// GetLayout returns the nested tree and its flattened form
// GET /api/status-pages/{id}/layout
func (h *StatusPageHandler) GetLayout(w http.ResponseWriter, r *http.Request) {
	id, ok := h.statusPageID(w, r)
	if !ok {
		return
	}

	l, err := h.layoutService.GetLayout(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, l)
}

// Project computes where an in-progress drag would land
// POST /api/status-pages/{id}/layout/projection
func (h *StatusPageHandler) Project(w http.ResponseWriter, r *http.Request) {
	id, ok := h.statusPageID(w, r)
	if !ok {
		return
	}

	var req spSvc.DragRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	projection, err := h.layoutService.Project(r.Context(), id, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, projection)
}

// Drop applies a finished drag and returns the new layout
// POST /api/status-pages/{id}/layout/drop
func (h *StatusPageHandler) Drop(w http.ResponseWriter, r *http.Request) {
	id, ok := h.statusPageID(w, r)
	if !ok {
		return
	}

	var req spSvc.DragRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	l, err := h.layoutService.Drop(r.Context(), id, &req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, l)
}

// UpdateItems replaces the ordering of a page's items
// PUT /api/status-pages/{id}/items
func (h *StatusPageHandler) UpdateItems(w http.ResponseWriter, r *http.Request) {
	id, ok := h.statusPageID(w, r)
	if !ok {
		return
	}

	var req spSvc.UpdateItemsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.StatusPageItems == nil {
		httputil.RespondError(w, http.StatusBadRequest, "statusPageItems is required")
		return
	}

	l, err := h.layoutService.UpdateItems(r.Context(), id, req.StatusPageItems)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httputil.RespondJSON(w, http.StatusOK, l)
}

func (h *StatusPageHandler) statusPageID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := PathParam(w, r, "id", "Status page ID")
	if !ok {
		return "", false
	}
	if _, err := uuid.Parse(id); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid status page ID format")
		return "", false
	}
	return id, true
}

// fail logs unexpected errors before mapping them to a response
func (h *StatusPageHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	if !isDomainSentinel(err) {
		h.logger.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"user_id", httputil.GetUserID(r),
			"request_id", httputil.GetRequestID(r),
			"error", err,
		)
	}
	handleError(w, err)
}

func isDomainSentinel(err error) bool {
	return errors.Is(err, domain.ErrValidation) ||
		errors.Is(err, domain.ErrNotFound) ||
		errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, domain.ErrConflict)
}
