package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/memopad/memopad/internal/auth"
	"github.com/memopad/memopad/internal/handler/dto"
	"github.com/memopad/memopad/internal/middleware"
	"github.com/memopad/memopad/internal/service"
)

// AuthConfig holds session cookie and sign-in page settings.
type AuthConfig struct {
	CookieSecure bool
	SignInPath   string
}

// AuthHandler handles account and session endpoints.
type AuthHandler struct {
	accounts *service.AccountService
	sessions *auth.SessionManager
	resolver *auth.Resolver
	cfg      AuthConfig
	logger   *slog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts *service.AccountService, sessions *auth.SessionManager, resolver *auth.Resolver, cfg AuthConfig, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		sessions: sessions,
		resolver: resolver,
		cfg:      cfg,
		logger:   logger,
	}
}

// SignUp handles POST /api/auth/signup.
func (h *AuthHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req dto.SignUpRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.accounts.SignUp(r.Context(), service.SignUpInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("user_signed_up",
		"user_id", user.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusCreated, dto.ToUserResponse(user.Principal()))
}

// SignIn handles POST /api/auth/signin.
// On success the session token is returned and set as an HttpOnly cookie.
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req dto.SignInRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.accounts.Authenticate(r.Context(), service.SignInInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	principal := user.Principal()
	token, claims, err := h.sessions.Issue(principal)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	expiresAt := claims.ExpiresAt.Time.UTC()

	http.SetCookie(w, h.sessionCookie(token, expiresAt))

	h.logger.Info("user_signed_in",
		"user_id", user.ID,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.SignInResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      dto.ToUserResponse(principal),
	})
}

// SignOut handles POST /api/auth/signout.
// Signing out without a session still clears the cookie.
func (h *AuthHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	session, err := h.resolver.ResolveSession(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if session != nil {
		if err := h.resolver.Revoke(r.Context(), session); err != nil {
			h.handleServiceError(w, r, err)
			return
		}
		h.logger.Info("user_signed_out",
			"user_id", session.Principal.ID,
			"request_id", middleware.GetRequestID(r.Context()),
		)
	}

	http.SetCookie(w, h.expiredCookie())
	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Signed out"})
}

// Session handles GET /api/auth/session.
// Without a session the body is an empty object.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	session, err := h.resolver.ResolveSession(r)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	if session == nil {
		writeJSON(w, http.StatusOK, dto.SessionResponse{})
		return
	}

	user := dto.ToUserResponse(session.Principal)
	expires := session.ExpiresAt
	writeJSON(w, http.StatusOK, dto.SessionResponse{User: &user, Expires: &expires})
}

// SignInPage handles GET /auth/signin.
// It describes the sign-in endpoints; rendering is left to the client.
func (h *AuthHandler) SignInPage(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, dto.SignInPageResponse{
		Page:        h.cfg.SignInPath,
		SignInURL:   "/api/auth/signin",
		SignUpURL:   "/api/auth/signup",
		CallbackURL: r.URL.Query().Get("callbackUrl"),
	})
}

func (h *AuthHandler) sessionCookie(token string, expiresAt time.Time) *http.Cookie {
	return &http.Cookie{
		Name:     h.resolver.CookieName(),
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     h.resolver.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

// handleServiceError maps service errors to HTTP responses.
func (h *AuthHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{
			Error: verr.Message,
			Code:  "INVALID_INPUT",
			Field: verr.Field,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password")
	case errors.Is(err, service.ErrEmailTaken):
		writeError(w, http.StatusConflict, "EMAIL_TAKEN", "Email already registered")
	default:
		h.logger.Error("internal_error",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
			"user_id", auth.UserIDFromContext(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An internal error occurred")
	}
}
