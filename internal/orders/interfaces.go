package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/prostore-backend/pkg/db/models"
	"github.com/angelmondragon/prostore-backend/pkg/pagination"
	"github.com/angelmondragon/prostore-backend/pkg/types"
)

// Repository defines persistence operations for orders and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	CreateItems(ctx context.Context, items []models.OrderItem) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	LockByID(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, params pagination.Params) ([]models.Order, int64, error)
	ListAdmin(ctx context.Context, query string, params pagination.Params) ([]models.Order, int64, error)
	MarkPaid(ctx context.Context, id uuid.UUID, at time.Time, result *types.PaymentResult) error
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error
	SetPaymentResult(ctx context.Context, id uuid.UUID, result *types.PaymentResult) error
	Delete(ctx context.Context, id uuid.UUID) error
	Count(ctx context.Context) (int64, error)
	TotalSales(ctx context.Context) (decimal.Decimal, error)
	SalesSince(ctx context.Context, since time.Time) ([]SaleRow, error)
	Latest(ctx context.Context, limit int) ([]models.Order, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type userLookup interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

type stockStore interface {
	DecrementStockClampedWithTx(tx *gorm.DB, id uuid.UUID, qty int) (bool, error)
}

type counter interface {
	Count(ctx context.Context) (int64, error)
}

type productInvalidator interface {
	Invalidate(ctx context.Context, slug string) error
}
