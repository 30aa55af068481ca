package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/prostore-backend/pkg/db/models"
)

// Repository exposes persistence operations for carts.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a cart repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) CartRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByUser loads the newest cart owned by userID, or nil when none exists.
// With lock set the row is held FOR UPDATE until the transaction ends.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID, lock bool) (*models.Cart, error) {
	return r.findOne(ctx, lock, "user_id = ?", userID)
}

// FindBySession loads the newest anonymous cart keyed by the session id.
// Carts re-owned by a user keep their session id but are excluded.
func (r *Repository) FindBySession(ctx context.Context, sessionCartID string, lock bool) (*models.Cart, error) {
	return r.findOne(ctx, lock, "session_cart_id = ? AND user_id IS NULL", sessionCartID)
}

func (r *Repository) findOne(ctx context.Context, lock bool, query string, args ...any) (*models.Cart, error) {
	q := r.db.WithContext(ctx)
	if lock {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var cart models.Cart
	err := q.Where(query, args...).Order("created_at DESC").Take(&cart).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Create inserts a new cart.
func (r *Repository) Create(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Create(cart).Error
}

// SaveItems writes the item list and the four derived totals.
func (r *Repository) SaveItems(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cart.ID).
		Updates(map[string]any{
			"items":          cart.Items,
			"items_price":    cart.ItemsPrice,
			"shipping_price": cart.ShippingPrice,
			"tax_price":      cart.TaxPrice,
			"total_price":    cart.TotalPrice,
		}).Error
}

// DeleteByUserExcept removes every cart of userID other than keepID.
func (r *Repository) DeleteByUserExcept(ctx context.Context, userID, keepID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("user_id = ? AND id <> ?", userID, keepID).
		Delete(&models.Cart{}).Error
}

// AssignUser re-owns a cart to userID.
func (r *Repository) AssignUser(ctx context.Context, cartID, userID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("user_id", userID).Error
}
