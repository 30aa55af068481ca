package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CartItem is a single cart line. Price is the unit price captured when the
// product was first added.
type CartItem struct {
	ProductID uuid.UUID       `json:"productId" validate:"required"`
	Name      string          `json:"name" validate:"required,min=1"`
	Slug      string          `json:"slug" validate:"required,min=1"`
	Image     string          `json:"image" validate:"required,min=1"`
	Price     decimal.Decimal `json:"price"`
	Qty       int             `json:"qty" validate:"gte=1"`
}

// CartItems is persisted as a jsonb array on the carts row.
type CartItems []CartItem

// Find returns the index of the line for productID or -1.
func (c CartItems) Find(productID uuid.UUID) int {
	for i, item := range c {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy of the slice so mutations never leak into a
// previously loaded row.
func (c CartItems) Clone() CartItems {
	if c == nil {
		return nil
	}
	out := make(CartItems, len(c))
	copy(out, c)
	return out
}

func (c CartItems) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	buf, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("cart items: %w", err)
	}
	return string(buf), nil
}

func (c *CartItems) Scan(value interface{}) error {
	if value == nil {
		*c = CartItems{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return fmt.Errorf("cart items: %w", err)
	}
	decoded := CartItems{}
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("cart items: %w", err)
	}
	*c = decoded
	return nil
}
