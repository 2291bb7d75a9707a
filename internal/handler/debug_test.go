package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memopad/memopad/internal/config"
)

func TestDebugHandler_Env(t *testing.T) {
	cfg := &config.Config{
		AppEnv:        "development",
		DatabaseURL:   "postgres://user:hunter2@db:5432/memopad",
		RedisURL:      "redis://cache:6379",
		SessionSecret: "super-secret-value-that-must-not-leak",
	}
	h := NewDebugHandler(cfg)

	rec := httptest.NewRecorder()
	h.Env(rec, httptest.NewRequest(http.MethodGet, "/api/debug/env", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.NotContains(t, body, "hunter2")
	assert.NotContains(t, body, "super-secret-value")

	var resp EnvResponse
	require.NoError(t, json.Unmarshal([]byte(body), &resp))
	assert.Equal(t, "development", resp.AppEnv)
	assert.True(t, resp.Settings["DATABASE_URL"])
	assert.True(t, resp.Settings["SESSION_SECRET"])
	assert.False(t, resp.Settings["CORS_ALLOWED_ORIGINS"])
}

func TestDebugHandler_Env_HiddenInProduction(t *testing.T) {
	h := NewDebugHandler(&config.Config{AppEnv: "production"})

	rec := httptest.NewRecorder()
	h.Env(rec, httptest.NewRequest(http.MethodGet, "/api/debug/env", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
