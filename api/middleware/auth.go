package middleware

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/prostore-backend/api/responses"
	"github.com/angelmondragon/prostore-backend/api/validators"
	"github.com/angelmondragon/prostore-backend/internal/identity"
	pkgAuth "github.com/angelmondragon/prostore-backend/pkg/auth"
	"github.com/angelmondragon/prostore-backend/pkg/auth/session"
	"github.com/angelmondragon/prostore-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
	"github.com/angelmondragon/prostore-backend/pkg/logger"
)

// Authenticate resolves the caller's identity. Requests without an
// Authorization header continue as anonymous shoppers; a header that does
// not verify is rejected.
func Authenticate(cfg config.JWTConfig, verifier session.AccessSessionChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			id := identity.Anonymous(SessionCartIDFromContext(ctx))

			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if raw == "" {
				next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, id)))
				return
			}

			token := validators.BearerToken(raw)
			if token == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}
			if claims.ID == "" {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing session id"))
				return
			}

			if verifier != nil {
				ok, err := verifier.HasSession(ctx, claims.ID)
				if err != nil {
					responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "validate session"))
					return
				}
				if !ok {
					responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session unavailable"))
					return
				}
			}

			userID := claims.UserID
			id.UserID = &userID
			id.Role = claims.Role
			id.Name = claims.Name
			id.Email = claims.Email

			ctx = WithIdentity(ctx, id)
			ctx = WithAccessID(ctx, claims.ID)
			ctx = logg.WithFields(ctx, map[string]any{
				logger.FieldUserID: userID.String(),
				"actor_role":       string(claims.Role),
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous callers.
func RequireAuth(logg *logger.Logger) func(http.Handler) http.Handler {
	return guard(logg, func(id identity.Identity) error {
		_, err := id.RequireUser()
		return err
	})
}

// RequireAdmin lets only authenticated admins through.
func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return guard(logg, func(id identity.Identity) error {
		_, err := id.RequireAdmin()
		return err
	})
}

func guard(logg *logger.Logger, allow func(identity.Identity) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := allow(IdentityFromContext(r.Context())); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
