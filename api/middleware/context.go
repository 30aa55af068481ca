package middleware

import (
	"context"

	"github.com/angelmondragon/prostore-backend/internal/identity"
)

type contextKey string

const (
	ctxIdentity      contextKey = "identity"
	ctxAccessID      contextKey = "access_id"
	ctxSessionCartID contextKey = "session_cart_id"
)

// IdentityFromContext returns the caller resolved by SessionCart and
// Authenticate. Requests that passed neither yield the zero identity.
func IdentityFromContext(ctx context.Context) identity.Identity {
	if ctx == nil {
		return identity.Identity{}
	}
	if v, ok := ctx.Value(ctxIdentity).(identity.Identity); ok {
		return v
	}
	return identity.Anonymous(SessionCartIDFromContext(ctx))
}

// WithIdentity stores the caller on the context.
func WithIdentity(ctx context.Context, id identity.Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxIdentity, id)
}

// AccessIDFromContext returns the jti of the verified access token.
func AccessIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxAccessID).(string); ok {
		return v
	}
	return ""
}

// WithAccessID stores the jti of the verified access token.
func WithAccessID(ctx context.Context, accessID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxAccessID, accessID)
}

func SessionCartIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxSessionCartID).(string); ok {
		return v
	}
	return ""
}

// WithSessionCartID injects the anonymous cart key into the context.
func WithSessionCartID(ctx context.Context, sessionCartID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxSessionCartID, sessionCartID)
}

// UserIDFromContext returns the authenticated user id as a string, or "".
func UserIDFromContext(ctx context.Context) string {
	id := IdentityFromContext(ctx)
	if !id.Authenticated() {
		return ""
	}
	return id.UserID.String()
}
