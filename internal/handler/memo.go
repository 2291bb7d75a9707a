package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/memopad/memopad/internal/auth"
	"github.com/memopad/memopad/internal/handler/dto"
	"github.com/memopad/memopad/internal/middleware"
	"github.com/memopad/memopad/internal/model"
	"github.com/memopad/memopad/internal/service"
)

// MemoHandler handles memo CRUD endpoints.
type MemoHandler struct {
	svc      *service.MemoService
	sessions SessionResolver
	logger   *slog.Logger
}

// NewMemoHandler creates a new MemoHandler.
func NewMemoHandler(svc *service.MemoService, sessions SessionResolver, logger *slog.Logger) *MemoHandler {
	return &MemoHandler{
		svc:      svc,
		sessions: sessions,
		logger:   logger,
	}
}

// Create handles POST /api/memos.
func (h *MemoHandler) Create(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req dto.MemoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	memo, err := h.svc.CreateMemo(r.Context(), principal, service.MemoInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("memo_created",
		"memo_id", memo.ID,
		"owner_id", principal.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.ToMemoResponse(memo))
}

// List handles GET /api/memos.
func (h *MemoHandler) List(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	memos, err := h.svc.ListMemos(r.Context(), principal, service.ListMemosInput{
		Query: r.URL.Query().Get("q"),
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToMemoListResponse(memos))
}

// Update handles PUT /api/memos/{id}.
func (h *MemoHandler) Update(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	var req dto.MemoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id := chi.URLParam(r, "id")
	memo, err := h.svc.UpdateMemo(r.Context(), principal, id, service.MemoInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("memo_updated",
		"memo_id", memo.ID,
		"owner_id", principal.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.ToMemoResponse(memo))
}

// Delete handles DELETE /api/memos/{id}.
func (h *MemoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	principal, ok := h.principal(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := h.svc.DeleteMemo(r.Context(), principal, id); err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("memo_deleted",
		"memo_id", id,
		"owner_id", principal.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Memo deleted"})
}

// principal re-resolves the session for this request.
// It writes a 401 and returns false when there is none.
func (h *MemoHandler) principal(w http.ResponseWriter, r *http.Request) (*model.Principal, bool) {
	p, err := h.sessions.Resolve(r)
	if err != nil {
		h.logger.Error("session resolution failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
	}
	if err != nil || p == nil {
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
		return nil, false
	}
	return p, true
}

// handleServiceError maps service errors to HTTP responses.
func (h *MemoHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error: verr.Message,
			Code:  "INVALID_INPUT",
			Field: verr.Field,
		})
	case errors.Is(err, service.ErrMemoNotFound):
		writeError(w, http.StatusNotFound, "MEMO_NOT_FOUND", "Memo not found")
	default:
		h.logger.Error("internal_error",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
			"user_id", auth.UserIDFromContext(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
