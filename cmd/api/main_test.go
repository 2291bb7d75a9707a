package main

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memopad/memopad/internal/auth"
	"github.com/memopad/memopad/internal/cache"
	"github.com/memopad/memopad/internal/config"
	"github.com/memopad/memopad/internal/handler/dto"
	"github.com/memopad/memopad/internal/metrics"
	"github.com/memopad/memopad/internal/service"
	"github.com/memopad/memopad/internal/testutil"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &config.Config{
		AppEnv:                 "test",
		SessionSecret:          "router-test-secret-0123456789abcdef",
		SessionIssuer:          "memopad",
		SessionTTL:             time.Hour,
		SessionCookieName:      "memopad.session-token",
		SignInPath:             "/auth/signin",
		MaxRequestBodySize:     1 << 20,
		RateLimitSignInEnabled: true,
		RateLimitSignInPerMin:  60,
		RateLimitSignInBurst:   10,
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := testutil.NewMemoryStore()
	cacheClient := cache.NewWithClient(client)
	recorder := metrics.NewPrometheus("memopad")
	sessions := auth.NewSessionManager(cfg.SessionSecret, cfg.SessionIssuer, cfg.SessionTTL)

	return setupRouter(routerDeps{
		cfg:      cfg,
		logger:   logger,
		resolver: auth.NewResolver(sessions, cacheClient, store, cfg.SessionCookieName, logger),
		sessions: sessions,
		limiter:  cacheClient,
		metrics:  recorder,
		memos:    service.NewMemoService(store, recorder),
		accounts: service.NewAccountService(store, recorder),
		cache:    cacheClient,
	})
}

func serve(h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func signIn(t *testing.T, h http.Handler, email string) string {
	t.Helper()

	creds := `{"email":"` + email + `","password":"s3cret-pass"}`
	rec := serve(h, http.MethodPost, "/api/auth/signup", "", creds)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = serve(h, http.MethodPost, "/api/auth/signin", "", creds)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp dto.SignInResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Token
}

func TestRouter_GuardWithoutSession(t *testing.T) {
	h := newTestRouter(t)

	t.Run("home redirects to sign-in", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/", "", "")
		require.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/auth/signin?callbackUrl=%2F", rec.Header().Get("Location"))
	})

	t.Run("memo api is unauthorized", func(t *testing.T) {
		for _, path := range []string{"/api/memos", "/api/memos/abc"} {
			rec := serve(h, http.MethodGet, path, "", "")
			assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		}
	})

	t.Run("public routes pass", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/auth/signin", "", "").Code)
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/auth/session", "", "").Code)
		assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/healthz", "", "").Code)
		assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/about", "", "").Code)
	})
}

func TestRouter_MemoLifecycle(t *testing.T) {
	h := newTestRouter(t)
	alice := signIn(t, h, "alice@example.com")
	bob := signIn(t, h, "bob@example.com")

	rec := serve(h, http.MethodGet, "/", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodPost, "/api/memos", alice, `{"title":"Groceries","content":"eggs"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var memo dto.MemoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&memo))

	rec = serve(h, http.MethodGet, "/api/memos", bob, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = serve(h, http.MethodPut, "/api/memos/"+memo.ID, bob, `{"title":"mine now"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h, http.MethodDelete, "/api/memos/"+memo.ID, bob, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(h, http.MethodPut, "/api/memos/"+memo.ID, alice, `{"title":"Shopping","content":"eggs, milk"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodGet, "/api/memos", alice, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed []dto.MemoResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&listed))
	require.Len(t, listed, 1)
	assert.Equal(t, memo.ID, listed[0].ID)
	assert.Equal(t, "Shopping", listed[0].Title)
	assert.Equal(t, "eggs, milk", listed[0].Content)
	assert.True(t, listed[0].CreatedAt.Equal(memo.CreatedAt))

	rec = serve(h, http.MethodDelete, "/api/memos/"+memo.ID, alice, "")
	require.Equal(t, http.StatusOK, rec.Code)

	rec = serve(h, http.MethodGet, "/api/memos", alice, "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRouter_SignOutRevokesToken(t *testing.T) {
	h := newTestRouter(t)
	token := signIn(t, h, "carol@example.com")

	require.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/memos", token, "").Code)
	require.Equal(t, http.StatusOK, serve(h, http.MethodPost, "/api/auth/signout", token, "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(h, http.MethodGet, "/api/memos", token, "").Code)
}

func TestRouter_Metrics(t *testing.T) {
	h := newTestRouter(t)
	serve(h, http.MethodGet, "/api/memos", "", "")

	rec := serve(h, http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `memopad_route_guard_denied_total{kind="unauthorized"} 1`)
}

func TestRedactURL(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", ""},
		{"postgres://memopad:hunter2@db:5432/memopad", "postgres://memopad@db:5432/memopad"},
		{"redis://:hunter2@cache:6379", "redis://redacted@cache:6379"},
		{"redis://cache:6379", "redis://cache:6379"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, redactURL(tt.raw))
	}
}

func TestSanitizeError(t *testing.T) {
	dsn := "postgres://memopad:hunter2@db:5432/memopad"
	err := errors.New("dial " + dsn + ": connection refused password=hunter2")

	got := sanitizeError(err, dsn)
	assert.NotContains(t, got, "hunter2")
	assert.Contains(t, got, "connection refused")
	assert.Empty(t, sanitizeError(nil))
}
