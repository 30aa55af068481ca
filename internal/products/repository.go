package product

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/prostore-backend/pkg/db/models"
	"github.com/angelmondragon/prostore-backend/pkg/enums"
	"github.com/angelmondragon/prostore-backend/pkg/pagination"
)

// ErrStockExhausted is returned when a stock decrement would go negative.
var ErrStockExhausted = errors.New("product stock exhausted")

// Repository provides product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// FindByID loads a product by id.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDWithTx loads a product inside an open transaction.
func (r *Repository) FindByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	if err := tx.Where("id = ?", id).Take(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// LockByIDWithTx loads a product and holds its row lock until the
// transaction ends.
func (r *Repository) LockByIDWithTx(tx *gorm.DB, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads a product by its unique slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	if err := r.db.WithContext(ctx).Where("slug = ?", slug).Take(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateRatingWithTx writes the review aggregate onto the product.
func (r *Repository) UpdateRatingWithTx(tx *gorm.DB, id uuid.UUID, rating decimal.Decimal, numReviews int) error {
	return tx.Model(&models.Product{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"rating":      rating,
			"num_reviews": numReviews,
		}).Error
}

// DecrementStockWithTx subtracts qty from stock, refusing to go below zero.
func (r *Repository) DecrementStockWithTx(tx *gorm.DB, id uuid.UUID, qty int) error {
	res := tx.Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockExhausted
	}
	return nil
}

// DecrementStockClampedWithTx subtracts qty from stock, flooring at zero.
// short is true when stock could not cover qty. A missing product is
// reported as gorm.ErrRecordNotFound.
func (r *Repository) DecrementStockClampedWithTx(tx *gorm.DB, id uuid.UUID, qty int) (short bool, err error) {
	if err := r.DecrementStockWithTx(tx, id, qty); err == nil {
		return false, nil
	} else if !errors.Is(err, ErrStockExhausted) {
		return false, err
	}
	res := tx.Model(&models.Product{}).Where("id = ?", id).Update("stock", 0)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		return false, gorm.ErrRecordNotFound
	}
	return true, nil
}

// Latest returns the newest products.
func (r *Repository) Latest(ctx context.Context, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// Featured returns featured products, newest first.
func (r *Repository) Featured(ctx context.Context, limit int) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Where("is_featured = ?", true).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// SearchFilter narrows catalog searches. Zero values mean "any".
type SearchFilter struct {
	Query     string
	Category  string
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	MinRating *decimal.Decimal
	Sort      enums.ProductSort
}

// Search returns one page of matching products and the total match count.
func (r *Repository) Search(ctx context.Context, filter SearchFilter, page pagination.Params) ([]models.Product, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.Product
	err := r.filtered(ctx, filter).
		Order(sortClause(filter.Sort)).
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *Repository) filtered(ctx context.Context, filter SearchFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Product{})
	if term := strings.TrimSpace(filter.Query); term != "" {
		q = q.Where("LOWER(name) LIKE ?", "%"+strings.ToLower(term)+"%")
	}
	if filter.Category != "" {
		q = q.Where("category = ?", filter.Category)
	}
	if filter.MinPrice != nil {
		q = q.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		q = q.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.MinRating != nil {
		q = q.Where("rating >= ?", *filter.MinRating)
	}
	return q
}

func sortClause(sort enums.ProductSort) string {
	switch sort {
	case enums.ProductSortLowest:
		return "price ASC, created_at DESC"
	case enums.ProductSortHighest:
		return "price DESC, created_at DESC"
	case enums.ProductSortRating:
		return "rating DESC, created_at DESC"
	default:
		return "created_at DESC"
	}
}

// CategoryCount is a category with its product count.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int64  `json:"count"`
}

// Categories groups products by category.
func (r *Repository) Categories(ctx context.Context) ([]CategoryCount, error) {
	var rows []CategoryCount
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Select("category, COUNT(*) AS count").
		Group("category").
		Order("category ASC").
		Scan(&rows).Error
	return rows, err
}

// ListAll returns every product ordered by creation time.
func (r *Repository) ListAll(ctx context.Context) ([]models.Product, error) {
	var rows []models.Product
	err := r.db.WithContext(ctx).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// Count returns the number of products.
func (r *Repository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Product{}).Count(&total).Error
	return total, err
}

// Create inserts a product.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// UpdateListing writes the admin-editable columns. Rating and review count
// are owned by the review aggregate and are never touched here.
func (r *Repository) UpdateListing(ctx context.Context, product *models.Product) error {
	res := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ?", product.ID).
		Updates(map[string]any{
			"name":        product.Name,
			"slug":        product.Slug,
			"category":    product.Category,
			"images":      product.Images,
			"brand":       product.Brand,
			"description": product.Description,
			"stock":       product.Stock,
			"price":       product.Price,
			"is_featured": product.IsFeatured,
			"banner":      product.Banner,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Delete removes a product by id.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
