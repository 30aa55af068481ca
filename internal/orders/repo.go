package orders

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/prostore-backend/pkg/db/models"
	"github.com/angelmondragon/prostore-backend/pkg/pagination"
	"github.com/angelmondragon/prostore-backend/pkg/types"
)

// ErrTransitionRejected is returned when a guarded state update matched no
// row because the order already moved on.
var ErrTransitionRejected = errors.New("order state transition rejected")

// SaleRow is the narrow projection used to build sales charts.
type SaleRow struct {
	CreatedAt  time.Time
	TotalPrice decimal.Decimal
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(order).Error
}

func (r *repository) CreateItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Preload("User").
		Where("id = ?", id).
		Take(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// LockByID loads the order FOR UPDATE together with its items.
func (r *repository) LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		Take(&order).Error
	if err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("order_id = ?", id).Find(&order.Items).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, int64, error) {
	scoped := func() *gorm.DB {
		return r.db.WithContext(ctx).Model(&models.Order{}).Where("user_id = ?", userID)
	}
	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Order
	err := scoped().
		Preload("Items").
		Order("created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&rows).Error
	return rows, total, err
}

// ListAdmin pages every order newest first, optionally filtered by a
// case-insensitive match on the buyer's name.
func (r *repository) ListAdmin(ctx context.Context, query string, params pagination.Params) ([]models.Order, int64, error) {
	scoped := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.Order{})
		if term := strings.TrimSpace(query); term != "" && term != "all" {
			q = q.Joins("JOIN users ON users.id = orders.user_id").
				Where("LOWER(users.name) LIKE ?", "%"+strings.ToLower(term)+"%")
		}
		return q
	}
	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.Order
	err := scoped().
		Select("orders.*").
		Preload("User").
		Order("orders.created_at DESC").
		Offset(params.Offset()).
		Limit(params.Limit).
		Find(&rows).Error
	return rows, total, err
}

// MarkPaid flips is_paid only while it is still false.
func (r *repository) MarkPaid(ctx context.Context, id uuid.UUID, at time.Time, result *types.PaymentResult) error {
	values := map[string]any{
		"is_paid": true,
		"paid_at": at,
	}
	if result != nil {
		values["payment_result"] = result
	}
	return r.guardedUpdate(ctx, values, "id = ? AND is_paid = ?", id, false)
}

// MarkDelivered flips is_delivered only for paid, undelivered orders.
func (r *repository) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	values := map[string]any{
		"is_delivered": true,
		"delivered_at": at,
	}
	return r.guardedUpdate(ctx, values, "id = ? AND is_paid = ? AND is_delivered = ?", id, true, false)
}

// SetPaymentResult records a processor reference on an unpaid order.
func (r *repository) SetPaymentResult(ctx context.Context, id uuid.UUID, result *types.PaymentResult) error {
	return r.guardedUpdate(ctx, map[string]any{"payment_result": result}, "id = ? AND is_paid = ?", id, false)
}

func (r *repository) guardedUpdate(ctx context.Context, values map[string]any, query string, args ...any) error {
	res := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where(query, args...).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrTransitionRejected
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Order{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *repository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&total).Error
	return total, err
}

func (r *repository) TotalSales(ctx context.Context) (decimal.Decimal, error) {
	var sum decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("SUM(total_price)").
		Row().
		Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	if !sum.Valid {
		return decimal.Zero, nil
	}
	return sum.Decimal.Round(2), nil
}

func (r *repository) SalesSince(ctx context.Context, since time.Time) ([]SaleRow, error) {
	var rows []SaleRow
	err := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Select("created_at, total_price").
		Where("created_at >= ?", since).
		Order("created_at ASC").
		Scan(&rows).Error
	return rows, err
}

func (r *repository) Latest(ctx context.Context, limit int) ([]models.Order, error) {
	var rows []models.Order
	err := r.db.WithContext(ctx).
		Preload("User").
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
