package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/PabloPavan/bookshelf_api/internal/auth"
	"github.com/PabloPavan/bookshelf_api/internal/identity"
	"github.com/PabloPavan/bookshelf_api/internal/session"
)

type Authenticator interface {
	AuthenticateToken(ctx context.Context, token string) (auth.Principal, error)
	AuthenticateSession(ctx context.Context, sessionID, csrfToken, method string) (auth.SessionInfo, bool, error)
}

type AuthOptions struct {
	AllowToken   bool
	AllowSession bool
	Cookie       session.CookieConfig
}

// AuthMiddleware resolves the caller from a bearer token or, failing that,
// the session cookie. Session callers must echo X-CSRF-Token on unsafe methods.
func AuthMiddleware(authenticator Authenticator, opts AuthOptions) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authenticator == nil {
				writeError(w, http.StatusInternalServerError, "auth not configured")
				return
			}

			if opts.AllowToken {
				if token := bearerToken(r); token != "" {
					principal, err := authenticator.AuthenticateToken(r.Context(), token)
					if err != nil {
						writeAppError(w, r, err)
						return
					}

					ctx := identity.WithUser(r.Context(), principal.UserID, principal.Role)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			if !opts.AllowSession {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			sessionID := ""
			if reqCookie, err := r.Cookie(opts.Cookie.CookieName()); err == nil {
				sessionID = reqCookie.Value
			}

			csrfToken := r.Header.Get("X-CSRF-Token")
			sess, refreshed, err := authenticator.AuthenticateSession(r.Context(), sessionID, csrfToken, r.Method)
			if err != nil {
				writeAppError(w, r, err)
				return
			}

			if refreshed {
				opts.Cookie.Write(w, sess.ID, sess.ExpiresAt)
			}

			ctx := identity.WithUser(r.Context(), sess.UserID, sess.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	parts := strings.Fields(header)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
