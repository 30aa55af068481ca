package identity

import (
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/prostore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
)

// Identity is the acting principal of a request: an authenticated user,
// an anonymous session cart, or both. It is passed explicitly into every
// aggregate operation.
type Identity struct {
	UserID        *uuid.UUID
	Role          enums.Role
	Name          string
	Email         string
	SessionCartID string
}

// Anonymous returns an identity carrying only the session cart id.
func Anonymous(sessionCartID string) Identity {
	return Identity{SessionCartID: strings.TrimSpace(sessionCartID)}
}

// Authenticated reports whether a user id is present.
func (i Identity) Authenticated() bool {
	return i.UserID != nil && *i.UserID != uuid.Nil
}

// IsAdmin reports whether the caller is an authenticated admin.
func (i Identity) IsAdmin() bool {
	return i.Authenticated() && i.Role == enums.RoleAdmin
}

// HasSessionCart reports whether an anonymous cart key is present.
func (i Identity) HasSessionCart() bool {
	return i.SessionCartID != ""
}

// RequireUser returns the user id or an unauthorized error.
func (i Identity) RequireUser() (uuid.UUID, error) {
	if !i.Authenticated() {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user is not authenticated")
	}
	return *i.UserID, nil
}

// RequireAdmin returns the user id when the caller is an admin.
func (i Identity) RequireAdmin() (uuid.UUID, error) {
	userID, err := i.RequireUser()
	if err != nil {
		return uuid.Nil, err
	}
	if i.Role != enums.RoleAdmin {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "user is not authorized")
	}
	return userID, nil
}

// RequireCartKey ensures at least one cart lookup key exists.
func (i Identity) RequireCartKey() error {
	if !i.Authenticated() && !i.HasSessionCart() {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "cart session not found")
	}
	return nil
}
