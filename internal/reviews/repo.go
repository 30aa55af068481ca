package reviews

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/prostore-backend/pkg/db/models"
)

// Repository persists reviews and computes their aggregate.
type Repository struct {
	db *gorm.DB
}

// NewRepository binds a review repository to db.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByProductAndUser returns the user's review of a product or nil.
func (r *Repository) FindByProductAndUser(ctx context.Context, productID, userID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", productID, userID).
		Take(&review).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &review, nil
}

// Create inserts a review.
func (r *Repository) Create(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).Create(review).Error
}

// UpdateContent rewrites the mutable review fields.
func (r *Repository) UpdateContent(ctx context.Context, review *models.Review) error {
	return r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("id = ?", review.ID).
		Updates(map[string]any{
			"rating":      review.Rating,
			"title":       review.Title,
			"description": review.Description,
		}).Error
}

// Aggregate is the mean rating and count of a product's reviews.
type Aggregate struct {
	Average decimal.Decimal
	Count   int64
}

// AggregateForProduct computes AVG(rating) and COUNT(*) for productID.
func (r *Repository) AggregateForProduct(ctx context.Context, productID uuid.UUID) (Aggregate, error) {
	var row struct {
		Average decimal.NullDecimal
		Count   int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Select("AVG(rating) AS average, COUNT(*) AS count").
		Where("product_id = ?", productID).
		Scan(&row).Error
	if err != nil {
		return Aggregate{}, err
	}
	agg := Aggregate{Count: row.Count}
	if row.Average.Valid {
		agg.Average = row.Average.Decimal
	}
	return agg, nil
}

// ListByProduct returns reviews with their authors, newest first.
func (r *Repository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]models.Review, error) {
	var rows []models.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("product_id = ?", productID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}
