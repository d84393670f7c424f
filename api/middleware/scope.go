package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/pantrypal-backend/api/responses"
	"github.com/angelmondragon/pantrypal-backend/internal/pantry"
	"github.com/angelmondragon/pantrypal-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/pantrypal-backend/pkg/errors"
	"github.com/angelmondragon/pantrypal-backend/pkg/logger"
	"github.com/google/uuid"
)

// PantrySessionHeader carries the session token for clients that do not keep cookies.
const PantrySessionHeader = "X-Pantry-Session"

// SessionResolver issues or refreshes anonymous pantry session tokens.
type SessionResolver interface {
	Resolve(ctx context.Context, provided string) (string, bool, error)
	TTL() time.Duration
}

// ScopeOptions configures how PantryScope partitions requests.
type ScopeOptions struct {
	Mode         config.ScopeMode
	Sessions     SessionResolver
	CookieName   string
	SecureCookie bool
}

// PantryScope resolves the pantry scope once per request and stores it in the
// context. Identity mode expects Auth to have run first.
func PantryScope(opts ScopeOptions, logg *logger.Logger) func(http.Handler) http.Handler {
	cookieName := strings.TrimSpace(opts.CookieName)
	if cookieName == "" {
		cookieName = "pantry_session"
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			var scope pantry.Scope

			switch opts.Mode {
			case config.ScopeModeGlobal:
				scope = pantry.GlobalScope()

			case config.ScopeModeSession:
				if opts.Sessions == nil {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pantry sessions unavailable"))
					return
				}
				token, issued, err := opts.Sessions.Resolve(ctx, providedSessionToken(r, cookieName))
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve pantry session"))
					return
				}
				// Resolve slides the server-side TTL for live tokens, so the cookie
				// is re-sent every time to keep both expiries aligned.
				setSessionCookie(w, cookieName, token, opts.Sessions.TTL(), opts.SecureCookie)
				if issued && logg != nil {
					logg.Debug(ctx, "pantry.session_issued")
				}
				w.Header().Set(PantrySessionHeader, token)
				scope = pantry.SessionScope(token)

			case config.ScopeModeIdentity:
				userID, err := uuid.Parse(UserIDFromContext(ctx))
				if err != nil || userID == uuid.Nil {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in required"))
					return
				}
				scope = pantry.IdentityScope(userID)

			default:
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "unknown pantry scope mode"))
				return
			}

			ctx = WithScope(ctx, scope)
			if logg != nil {
				ctx = logg.WithScope(ctx, string(scope.Kind), scope.Collection())
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func setSessionCookie(w http.ResponseWriter, name, token string, ttl time.Duration, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Expires:  time.Now().Add(ttl).UTC(),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func providedSessionToken(r *http.Request, cookieName string) string {
	if header := strings.TrimSpace(r.Header.Get(PantrySessionHeader)); header != "" {
		return header
	}
	if cookie, err := r.Cookie(cookieName); err == nil {
		return strings.TrimSpace(cookie.Value)
	}
	return ""
}
