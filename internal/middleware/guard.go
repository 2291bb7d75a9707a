package middleware

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/memopad/memopad/internal/auth"
	"github.com/memopad/memopad/internal/metrics"
	"github.com/memopad/memopad/internal/model"
)

// RouteKind says how a denied request is answered.
type RouteKind int

const (
	// RoutePublic never requires a session.
	RoutePublic RouteKind = iota
	// RoutePage is a browser page; denial redirects to sign-in.
	RoutePage
	// RouteAPI is a JSON endpoint; denial is a 401.
	RouteAPI
)

// Decision is the guard's verdict for one request.
type Decision int

const (
	// Allow lets the request through.
	Allow Decision = iota
	// RedirectToSignIn sends a browser to the sign-in page.
	RedirectToSignIn
	// Unauthorized rejects an API request with 401.
	Unauthorized
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectToSignIn:
		return "redirect"
	case Unauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Rule matches a path either exactly or as a subtree.
type Rule struct {
	// Exact matches only this path.
	Exact string
	// Tree matches this path and everything below it.
	Tree string
	Kind RouteKind
}

// Matches reports whether the rule applies to path.
func (r Rule) Matches(path string) bool {
	if r.Exact != "" {
		return path == r.Exact
	}
	return path == r.Tree || strings.HasPrefix(path, r.Tree+"/")
}

// RequiresSession reports whether the rule's routes need a principal.
func (r Rule) RequiresSession() bool {
	return r.Kind != RoutePublic
}

// Rules is the ordered route table. The first match governs;
// unmatched paths are public.
var Rules = []Rule{
	{Exact: "/", Kind: RoutePage},
	{Tree: "/api/memos", Kind: RouteAPI},
	{Tree: "/auth", Kind: RoutePublic},
	{Tree: "/api/auth", Kind: RoutePublic},
}

// MatchRule returns the first rule matching path.
func MatchRule(path string) (Rule, bool) {
	for _, rule := range Rules {
		if rule.Matches(path) {
			return rule, true
		}
	}
	return Rule{}, false
}

// Decide classifies a request from its path and whether it carries a valid session.
// It has no side effects.
func Decide(path string, hasPrincipal bool) Decision {
	rule, ok := MatchRule(path)
	if !ok || !rule.RequiresSession() || hasPrincipal {
		return Allow
	}
	if rule.Kind == RoutePage {
		return RedirectToSignIn
	}
	return Unauthorized
}

// SessionResolver resolves the principal behind a request.
type SessionResolver interface {
	Resolve(r *http.Request) (*model.Principal, error)
}

// GuardConfig holds configuration for the route guard.
type GuardConfig struct {
	Resolver   SessionResolver
	SignInPath string
	Logger     *slog.Logger
	Metrics    metrics.Recorder
}

// Guard returns middleware that enforces the route table.
// Sessions are resolved only for protected routes; on Allow the principal
// is stored in the request context. Resolver failures deny the request.
func Guard(cfg GuardConfig) func(http.Handler) http.Handler {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NewNoop()
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rule, ok := MatchRule(r.URL.Path)
			if !ok || !rule.RequiresSession() {
				next.ServeHTTP(w, r)
				return
			}

			principal, err := cfg.Resolver.Resolve(r)
			if err != nil {
				cfg.Logger.Error("session resolution failed",
					slog.String("error", err.Error()),
					slog.String("path", r.URL.Path),
					slog.String("request_id", GetRequestID(r.Context())),
				)
				principal = nil
			}

			decision := Decide(r.URL.Path, principal != nil)
			switch decision {
			case Allow:
				if principal != nil {
					noteUser(r.Context(), principal.ID)
				}
				next.ServeHTTP(w, r.WithContext(auth.ContextWithPrincipal(r.Context(), principal)))
			case RedirectToSignIn:
				cfg.Metrics.IncGuardDenied(decision.String())
				http.Redirect(w, r, signInURL(cfg.SignInPath, r.URL.RequestURI()), http.StatusFound)
			default:
				cfg.Metrics.IncGuardDenied(decision.String())
				writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
			}
		})
	}
}

// signInURL builds the sign-in redirect target carrying the original location.
func signInURL(signInPath, callback string) string {
	q := url.Values{}
	q.Set("callbackUrl", callback)
	return signInPath + "?" + q.Encode()
}
