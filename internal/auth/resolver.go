package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/memopad/memopad/internal/cache"
	"github.com/memopad/memopad/internal/model"
	"github.com/memopad/memopad/internal/repository"
)

// SessionStore caches resolved sessions and tracks revoked ones.
type SessionStore interface {
	GetSession(ctx context.Context, tokenHash string) (*cache.CachedSession, error)
	SetSession(ctx context.Context, tokenHash string, session *cache.CachedSession, ttl time.Duration) error
	DeleteSession(ctx context.Context, tokenHash string) error
	RevokeSession(ctx context.Context, tokenID string, ttl time.Duration) error
	IsSessionRevoked(ctx context.Context, tokenID string) (bool, error)
}

// UserFinder loads accounts by ID.
type UserFinder interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// Session is a verified, live session.
type Session struct {
	Principal *model.Principal
	TokenID   string
	TokenHash string
	ExpiresAt time.Time
}

// Resolver turns an incoming request into the principal of its session.
type Resolver struct {
	sessions   *SessionManager
	store      SessionStore
	users      UserFinder
	cookieName string
	logger     *slog.Logger
	now        func() time.Time
}

// NewResolver creates a session resolver.
func NewResolver(sessions *SessionManager, store SessionStore, users UserFinder, cookieName string, logger *slog.Logger) *Resolver {
	return &Resolver{
		sessions:   sessions,
		store:      store,
		users:      users,
		cookieName: cookieName,
		logger:     logger,
		now:        time.Now,
	}
}

// CookieName returns the name of the session cookie.
func (r *Resolver) CookieName() string {
	return r.cookieName
}

// Resolve returns the principal of the request's session.
// A missing, invalid, expired or revoked session yields (nil, nil).
// A non-nil error means the session could not be checked; callers must fail closed.
func (r *Resolver) Resolve(req *http.Request) (*model.Principal, error) {
	session, err := r.ResolveSession(req)
	if err != nil || session == nil {
		return nil, err
	}
	return session.Principal, nil
}

// ResolveSession is Resolve with session metadata.
func (r *Resolver) ResolveSession(req *http.Request) (*Session, error) {
	token := r.TokenFromRequest(req)
	if token == "" {
		return nil, nil
	}

	ctx := req.Context()
	tokenHash := TokenHash(token)
	now := r.now()

	cached, err := r.store.GetSession(ctx, tokenHash)
	if err != nil {
		return nil, fmt.Errorf("read session cache: %w", err)
	}
	if cached != nil && time.Unix(cached.ExpiresAt, 0).After(now) {
		return &Session{
			Principal: &model.Principal{ID: cached.UserID, Email: cached.Email, Name: cached.Name},
			TokenID:   cached.TokenID,
			TokenHash: tokenHash,
			ExpiresAt: time.Unix(cached.ExpiresAt, 0).UTC(),
		}, nil
	}

	claims, err := r.sessions.Parse(token)
	if err != nil {
		r.logger.Debug("session token rejected", "error", err)
		return nil, nil
	}

	revoked, err := r.store.IsSessionRevoked(ctx, claims.ID)
	if err != nil {
		return nil, fmt.Errorf("check session revocation: %w", err)
	}
	if revoked {
		return nil, nil
	}

	user, err := r.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load session user: %w", err)
	}

	session := &Session{
		Principal: user.Principal(),
		TokenID:   claims.ID,
		TokenHash: tokenHash,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}

	entry := &cache.CachedSession{
		TokenID:   session.TokenID,
		UserID:    user.ID,
		Email:     user.Email,
		Name:      user.Name,
		ExpiresAt: session.ExpiresAt.Unix(),
	}
	if err := r.store.SetSession(ctx, tokenHash, entry, session.ExpiresAt.Sub(now)); err != nil {
		r.logger.Warn("failed to cache session", "error", err)
		return session, nil
	}

	// A sign-out racing this lookup may have evicted the cache before the
	// entry above was written. Check again so it cannot outlive the revocation.
	revoked, err = r.store.IsSessionRevoked(ctx, claims.ID)
	if err != nil {
		_ = r.store.DeleteSession(ctx, tokenHash)
		return nil, fmt.Errorf("check session revocation: %w", err)
	}
	if revoked {
		if err := r.store.DeleteSession(ctx, tokenHash); err != nil {
			return nil, fmt.Errorf("evict revoked session: %w", err)
		}
		return nil, nil
	}

	return session, nil
}

// Revoke ends a session before its natural expiry.
func (r *Resolver) Revoke(ctx context.Context, session *Session) error {
	if err := r.store.RevokeSession(ctx, session.TokenID, session.ExpiresAt.Sub(r.now())); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	if err := r.store.DeleteSession(ctx, session.TokenHash); err != nil {
		return fmt.Errorf("evict session: %w", err)
	}
	return nil
}

// TokenFromRequest extracts the session token from the cookie or a Bearer header.
func (r *Resolver) TokenFromRequest(req *http.Request) string {
	if c, err := req.Cookie(r.cookieName); err == nil && c.Value != "" {
		return c.Value
	}

	header := req.Header.Get("Authorization")
	if header == "" {
		return ""
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
