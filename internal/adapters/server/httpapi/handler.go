// Package httpapi provides the REST HTTP adapter for the server surfaces.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/evanschultz/arcboard/internal/adapters/server/common"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// maxRequestBodyBytes limits decoded JSON payload size for fail-closed request handling.
const maxRequestBodyBytes int64 = 1 << 20

// Handler serves the versioned API subrouter mounted under `/api/v1`.
type Handler struct {
	board  common.BoardService
	router chi.Router
}

// APIError represents one structured API failure response.
type APIError struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Hint    string         `json:"hint,omitempty"`
	Context map[string]any `json:"context,omitempty"`
}

// ErrorEnvelope wraps one structured API error.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// NewHandler constructs the API router over one board service.
func NewHandler(board common.BoardService) *Handler {
	h := &Handler{board: board}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: "endpoint not found",
		})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusMethodNotAllowed, APIError{
			Code:    "method_not_allowed",
			Message: "method not allowed",
		})
	})

	r.Route("/tasks", func(r chi.Router) {
		r.Get("/", h.handleListTasks)
		r.Post("/", h.handleAddTask)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", h.handleRemoveTask)
			r.Post("/toggle", h.handleToggleTask)
			r.Post("/priority", h.handleCyclePriority)
			r.Post("/tap", h.handleTap)
			r.Post("/release", h.handleRelease)
		})
	})
	r.Get("/layout", h.handleLayout)
	r.Get("/archive", h.handleArchive)
	r.Post("/reset", h.handleReset)
	h.router = r
	return h
}

// ServeHTTP routes one versioned API request to the matching handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.board == nil {
		writeJSONError(w, http.StatusServiceUnavailable, APIError{
			Code:    "service_unavailable",
			Message: "board service is not configured",
		})
		return
	}
	h.router.ServeHTTP(w, r)
}

// handleListTasks serves GET `/tasks`.
func (h *Handler) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.board.ListTasks(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// handleAddTask serves POST `/tasks`.
func (h *Handler) handleAddTask(w http.ResponseWriter, r *http.Request) {
	var req common.AddTaskRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	task, err := h.board.AddTask(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.Header().Set("Location", "tasks/"+task.ID)
	writeJSON(w, http.StatusCreated, task)
}

// handleRemoveTask serves DELETE `/tasks/{id}`.
func (h *Handler) handleRemoveTask(w http.ResponseWriter, r *http.Request) {
	if err := h.board.RemoveTask(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeErrorFrom(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleToggleTask serves POST `/tasks/{id}/toggle`.
func (h *Handler) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	task, err := h.board.ToggleTask(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleCyclePriority serves POST `/tasks/{id}/priority`.
func (h *Handler) handleCyclePriority(w http.ResponseWriter, r *http.Request) {
	task, err := h.board.CyclePriority(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// handleTap serves POST `/tasks/{id}/tap`.
func (h *Handler) handleTap(w http.ResponseWriter, r *http.Request) {
	res, err := h.board.Tap(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleRelease serves POST `/tasks/{id}/release`.
func (h *Handler) handleRelease(w http.ResponseWriter, r *http.Request) {
	var req common.ReleaseRequest
	if err := decodeJSONBody(r.Context(), w, r, &req); err != nil {
		writeErrorFrom(w, err)
		return
	}
	req.TaskID = chi.URLParam(r, "id")
	res, err := h.board.Release(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleLayout serves GET `/layout`.
func (h *Handler) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req common.LayoutRequest
	if raw := strings.TrimSpace(r.URL.Query().Get("viewport_height")); raw != "" {
		height, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, APIError{
				Code:    "invalid_request",
				Message: "viewport_height must be a number",
				Context: map[string]any{"viewport_height": raw},
			})
			return
		}
		req.ViewportHeight = height
	}
	res, err := h.board.Layout(r.Context(), req)
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// handleArchive serves GET `/archive`.
func (h *Handler) handleArchive(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.board.Archive(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// handleReset serves POST `/reset`.
func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if err := h.board.Reset(r.Context()); err != nil {
		writeErrorFrom(w, err)
		return
	}
	tasks, err := h.board.ListTasks(r.Context())
	if err != nil {
		writeErrorFrom(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tasks": tasks})
}

// writeErrorFrom maps adapter errors into structured HTTP responses.
func writeErrorFrom(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: "unknown error",
		})
	case errors.Is(err, common.ErrNotFound):
		writeJSONError(w, http.StatusNotFound, APIError{
			Code:    "not_found",
			Message: err.Error(),
		})
	case errors.Is(err, common.ErrNotDraggable):
		writeJSONError(w, http.StatusConflict, APIError{
			Code:    "not_draggable",
			Message: err.Error(),
			Hint:    "Done cards are restored with POST /tasks/{id}/tap.",
		})
	case errors.Is(err, common.ErrInvalidRequest):
		writeJSONError(w, http.StatusBadRequest, APIError{
			Code:    "invalid_request",
			Message: err.Error(),
		})
	default:
		writeJSONError(w, http.StatusInternalServerError, APIError{
			Code:    "internal_error",
			Message: err.Error(),
		})
	}
}

// writeJSONError writes one structured error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, apiErr APIError) {
	writeJSON(w, statusCode, ErrorEnvelope{Error: apiErr})
}

// writeJSON writes one JSON response envelope.
func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, fmt.Sprintf(`{"error":{"code":"encode_error","message":"%s"}}`, err.Error()), http.StatusInternalServerError)
	}
}

// decodeJSONBody decodes one required JSON request body with strict shape checks.
func decodeJSONBody(ctx context.Context, w http.ResponseWriter, r *http.Request, out any) error {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)
	defer reader.Close()

	decoder := json.NewDecoder(reader)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		return fmt.Errorf("decode request body: %w", errors.Join(common.ErrInvalidRequest, err))
	}
	if err := decoder.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode request body: trailing content: %w", common.ErrInvalidRequest)
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("request canceled: %w", ctx.Err())
	default:
		return nil
	}
}
