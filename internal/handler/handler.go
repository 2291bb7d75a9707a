// Package handler provides HTTP request handlers.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/memopad/memopad/internal/auth"
	"github.com/memopad/memopad/internal/handler/dto"
	"github.com/memopad/memopad/internal/model"
)

// SessionResolver resolves the principal behind a request.
type SessionResolver interface {
	Resolve(r *http.Request) (*model.Principal, error)
}

// Handler serves the pages and fallbacks that are not tied to a resource.
type Handler struct {
	version string
}

// New creates a new Handler instance.
func New(version string) *Handler {
	return &Handler{version: version}
}

// HomeResponse is the signed-in landing page.
type HomeResponse struct {
	Message string            `json:"message"`
	Version string            `json:"version"`
	User    *dto.UserResponse `json:"user,omitempty"`
	Memos   string            `json:"memos"`
}

// Home is the landing page; the route guard only lets signed-in users through.
// GET /
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	response := HomeResponse{
		Message: "Welcome to memopad",
		Version: h.version,
		Memos:   "/api/memos",
	}
	if p := auth.PrincipalFromContext(r.Context()); p != nil {
		user := dto.ToUserResponse(p)
		response.User = &user
	}
	writeJSON(w, http.StatusOK, response)
}

// NotFound handles 404 responses.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
}

// MethodNotAllowed handles 405 responses.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, dto.ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// decodeJSON reads a JSON request body into dst and answers malformed bodies itself.
// It returns false when a response has already been written.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
		return false
	}
	return true
}
