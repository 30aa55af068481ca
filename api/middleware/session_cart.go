package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/prostore-backend/pkg/logger"
)

// SessionCartCookie names the cookie carrying the anonymous cart key.
const SessionCartCookie = "sessionCartId"

const defaultSessionCartTTL = 30 * 24 * time.Hour

// SessionCart makes sure every request carries a session cart id, minting
// one and setting the cookie when the client has none.
func SessionCart(ttl time.Duration, secure bool, logg *logger.Logger) func(http.Handler) http.Handler {
	if ttl <= 0 {
		ttl = defaultSessionCartTTL
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionCartID := ""
			if c, err := r.Cookie(SessionCartCookie); err == nil {
				if parsed, parseErr := uuid.Parse(strings.TrimSpace(c.Value)); parseErr == nil {
					sessionCartID = parsed.String()
				}
			}
			if sessionCartID == "" {
				sessionCartID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     SessionCartCookie,
					Value:    sessionCartID,
					Path:     "/",
					MaxAge:   int(ttl.Seconds()),
					Expires:  time.Now().Add(ttl),
					HttpOnly: true,
					Secure:   secure,
					SameSite: http.SameSiteLaxMode,
				})
			}

			ctx := WithSessionCartID(r.Context(), sessionCartID)
			if logg != nil {
				ctx = logg.WithSessionCartID(ctx, sessionCartID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
