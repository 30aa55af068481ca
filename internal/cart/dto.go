package cart

import (
	"github.com/google/uuid"

	"github.com/angelmondragon/prostore-backend/pkg/db/models"
	"github.com/angelmondragon/prostore-backend/pkg/types"
)

// CartDTO renders a cart with prices as fixed two-decimal strings.
type CartDTO struct {
	ID            uuid.UUID     `json:"id"`
	UserID        *uuid.UUID    `json:"userId,omitempty"`
	SessionCartID string        `json:"sessionCartId"`
	Items         []CartItemDTO `json:"items"`
	ItemsPrice    string        `json:"itemsPrice"`
	ShippingPrice string        `json:"shippingPrice"`
	TaxPrice      string        `json:"taxPrice"`
	TotalPrice    string        `json:"totalPrice"`
}

// CartItemDTO is a single rendered cart line.
type CartItemDTO struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Image     string    `json:"image"`
	Price     string    `json:"price"`
	Qty       int       `json:"qty"`
}

// AddItemInput is the line the caller wants to add. It is validated for
// shape, but only ProductID is trusted.
type AddItemInput = types.CartItem

// MutationResult is returned by AddItem and RemoveItem.
type MutationResult struct {
	Message string
	Cart    *models.Cart
}

// ToDTO maps a cart row. A nil cart maps to nil.
func ToDTO(cart *models.Cart) *CartDTO {
	if cart == nil {
		return nil
	}
	items := make([]CartItemDTO, 0, len(cart.Items))
	for _, item := range cart.Items {
		items = append(items, CartItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Slug:      item.Slug,
			Image:     item.Image,
			Price:     item.Price.StringFixed(2),
			Qty:       item.Qty,
		})
	}
	return &CartDTO{
		ID:            cart.ID,
		UserID:        cart.UserID,
		SessionCartID: cart.SessionCartID,
		Items:         items,
		ItemsPrice:    cart.ItemsPrice.StringFixed(2),
		ShippingPrice: cart.ShippingPrice.StringFixed(2),
		TaxPrice:      cart.TaxPrice.StringFixed(2),
		TotalPrice:    cart.TotalPrice.StringFixed(2),
	}
}
