package auth

import (
	"context"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"gatekeeper/internal/logger"
)

var (
	ErrSessionRevoked = errors.New("session revoked")
	ErrStaleSession   = errors.New("session out of date")
)

// SessionChecker confirms that a verified token still describes a live
// session for the current state of the user.
type SessionChecker interface {
	CheckSession(ctx context.Context, c Claims) error
}

// Authorizer answers permission questions for a role.
type Authorizer interface {
	HasPermission(ctx context.Context, role, permission string) bool
	HasAnyPermission(ctx context.Context, role string, permissions []string) bool
	HasAllPermissions(ctx context.Context, role string, permissions []string) bool
}

// RequireSession rejects requests without a valid session token and puts the
// principal into the request context. checker may be nil.
func RequireSession(codec *Codec, checker SessionChecker, lg *zap.SugaredLogger) func(http.Handler) http.Handler {
	lg = logger.OrNop(lg)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := codec.Verify(TokenFromRequest(r))
			if err != nil {
				http.Error(w, "invalid or expired session", http.StatusUnauthorized)
				return
			}
			if checker != nil {
				if err := checker.CheckSession(r.Context(), claims); err != nil {
					switch {
					case errors.Is(err, ErrSessionRevoked), errors.Is(err, ErrStaleSession):
						codec.Revoke(w)
						http.Error(w, "session expired", http.StatusUnauthorized)
					default:
						lg.Warnw("session check failed", "user", claims.ID, "error", err)
						http.Error(w, "temporarily unavailable", http.StatusServiceUnavailable)
					}
					return
				}
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func RequirePermission(a Authorizer, permission string) func(http.Handler) http.Handler {
	return requirePermission(func(ctx context.Context, role string) bool {
		return a.HasPermission(ctx, role, permission)
	})
}

func RequireAny(a Authorizer, permissions ...string) func(http.Handler) http.Handler {
	return requirePermission(func(ctx context.Context, role string) bool {
		return a.HasAnyPermission(ctx, role, permissions)
	})
}

func RequireAll(a Authorizer, permissions ...string) func(http.Handler) http.Handler {
	return requirePermission(func(ctx context.Context, role string) bool {
		return a.HasAllPermissions(ctx, role, permissions)
	})
}

func requirePermission(allowed func(ctx context.Context, role string) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, "missing session", http.StatusUnauthorized)
				return
			}
			if !allowed(r.Context(), claims.Role) {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
