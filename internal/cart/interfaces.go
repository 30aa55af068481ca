package cart

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/prostore-backend/pkg/db/models"
)

// CartRepository defines the persistence surface required by the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	FindByUser(ctx context.Context, userID uuid.UUID, lock bool) (*models.Cart, error)
	FindBySession(ctx context.Context, sessionCartID string, lock bool) (*models.Cart, error)
	Create(ctx context.Context, cart *models.Cart) error
	SaveItems(ctx context.Context, cart *models.Cart) error
	DeleteByUserExcept(ctx context.Context, userID, keepID uuid.UUID) error
	AssignUser(ctx context.Context, cartID, userID uuid.UUID) error
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type productLookup interface {
	FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Product, error)
}

// productInvalidator drops any cached rendering of a product detail.
type productInvalidator interface {
	Invalidate(ctx context.Context, slug string) error
}
