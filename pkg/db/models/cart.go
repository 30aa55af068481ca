package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/prostore-backend/pkg/types"
)

// Cart is the per-identity pending purchase. The four price columns are
// derived from Items and are rewritten on every mutation.
type Cart struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID        *uuid.UUID      `gorm:"column:user_id;type:uuid"`
	SessionCartID string          `gorm:"column:session_cart_id;not null"`
	Items         types.CartItems `gorm:"column:items;type:jsonb;not null"`
	ItemsPrice    decimal.Decimal `gorm:"column:items_price;type:numeric(12,2);not null"`
	ShippingPrice decimal.Decimal `gorm:"column:shipping_price;type:numeric(12,2);not null"`
	TaxPrice      decimal.Decimal `gorm:"column:tax_price;type:numeric(12,2);not null"`
	TotalPrice    decimal.Decimal `gorm:"column:total_price;type:numeric(12,2);not null"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

func (Cart) TableName() string { return "carts" }

func (c *Cart) BeforeCreate(*gorm.DB) error {
	ensureID(&c.ID)
	if c.Items == nil {
		c.Items = types.CartItems{}
	}
	return nil
}
