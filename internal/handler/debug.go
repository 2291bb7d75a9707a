package handler

import (
	"net/http"

	"github.com/memopad/memopad/internal/config"
)

// DebugHandler exposes configuration diagnostics outside production.
type DebugHandler struct {
	cfg *config.Config
}

// NewDebugHandler creates a new DebugHandler.
func NewDebugHandler(cfg *config.Config) *DebugHandler {
	return &DebugHandler{cfg: cfg}
}

// EnvResponse reports which settings are present. Values are never included.
type EnvResponse struct {
	AppEnv   string          `json:"appEnv"`
	Settings map[string]bool `json:"settings"`
}

// Env handles GET /api/debug/env.
// Returns 404 in production.
func (h *DebugHandler) Env(w http.ResponseWriter, r *http.Request) {
	if h.cfg.IsProduction() {
		writeError(w, http.StatusNotFound, "NOT_FOUND", "resource not found")
		return
	}

	writeJSON(w, http.StatusOK, EnvResponse{
		AppEnv: h.cfg.AppEnv,
		Settings: map[string]bool{
			"DATABASE_URL":         h.cfg.DatabaseURL != "",
			"REDIS_URL":            h.cfg.RedisURL != "",
			"SESSION_SECRET":       h.cfg.SessionSecret != "",
			"CORS_ALLOWED_ORIGINS": h.cfg.CORSAllowedOrigins != "",
		},
	})
}
