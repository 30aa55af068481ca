package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/prostore-backend/pkg/db/models"
	"github.com/angelmondragon/prostore-backend/pkg/enums"
	"github.com/angelmondragon/prostore-backend/pkg/types"
)

// OrderDTO is the transport shape of an order with fixed two-decimal prices.
type OrderDTO struct {
	ID              uuid.UUID             `json:"id"`
	UserID          uuid.UUID             `json:"userId"`
	User            *BuyerDTO             `json:"user,omitempty"`
	ShippingAddress types.ShippingAddress `json:"shippingAddress"`
	PaymentMethod   enums.PaymentMethod   `json:"paymentMethod"`
	PaymentResult   *types.PaymentResult  `json:"paymentResult,omitempty"`
	Items           []OrderItemDTO        `json:"orderitems"`
	ItemsPrice      string                `json:"itemsPrice"`
	ShippingPrice   string                `json:"shippingPrice"`
	TaxPrice        string                `json:"taxPrice"`
	TotalPrice      string                `json:"totalPrice"`
	IsPaid          bool                  `json:"isPaid"`
	PaidAt          *time.Time            `json:"paidAt,omitempty"`
	IsDelivered     bool                  `json:"isDelivered"`
	DeliveredAt     *time.Time            `json:"deliveredAt,omitempty"`
	CreatedAt       time.Time             `json:"createdAt"`
}

// BuyerDTO is the subset of the user shown on an order.
type BuyerDTO struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// OrderItemDTO is one purchased line.
type OrderItemDTO struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Image     string    `json:"image"`
	Price     string    `json:"price"`
	Qty       int       `json:"qty"`
}

// PlaceOrderResult tells the client where to continue after checkout.
type PlaceOrderResult struct {
	OrderID    uuid.UUID `json:"orderId"`
	RedirectTo string    `json:"redirectTo"`
}

// Overview is the admin dashboard summary.
type Overview struct {
	OrdersCount   int64        `json:"ordersCount"`
	ProductsCount int64        `json:"productsCount"`
	UsersCount    int64        `json:"usersCount"`
	TotalSales    string       `json:"totalSales"`
	SalesData     []MonthSales `json:"salesData"`
	LatestSales   []LatestSale `json:"latestSales"`
}

// MonthSales is one bar of the monthly sales chart, keyed "MM/YY".
type MonthSales struct {
	Month      string `json:"month"`
	TotalSales string `json:"totalSales"`
}

// LatestSale is a row of the recent sales table.
type LatestSale struct {
	ID         uuid.UUID `json:"id"`
	UserName   string    `json:"userName"`
	TotalPrice string    `json:"totalPrice"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ToDTO maps an order row. Items are rendered in insertion order.
func ToDTO(order *models.Order) *OrderDTO {
	if order == nil {
		return nil
	}
	items := make([]OrderItemDTO, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemDTO{
			ProductID: item.ProductID,
			Name:      item.Name,
			Slug:      item.Slug,
			Image:     item.Image,
			Price:     item.Price.StringFixed(2),
			Qty:       item.Qty,
		})
	}
	dto := &OrderDTO{
		ID:              order.ID,
		UserID:          order.UserID,
		ShippingAddress: order.ShippingAddress,
		PaymentMethod:   order.PaymentMethod,
		PaymentResult:   paymentResultOf(order),
		Items:           items,
		ItemsPrice:      order.ItemsPrice.StringFixed(2),
		ShippingPrice:   order.ShippingPrice.StringFixed(2),
		TaxPrice:        order.TaxPrice.StringFixed(2),
		TotalPrice:      order.TotalPrice.StringFixed(2),
		IsPaid:          order.IsPaid,
		PaidAt:          order.PaidAt,
		IsDelivered:     order.IsDelivered,
		DeliveredAt:     order.DeliveredAt,
		CreatedAt:       order.CreatedAt,
	}
	if order.User != nil {
		dto.User = &BuyerDTO{Name: order.User.Name, Email: order.User.Email}
	}
	return dto
}

func toDTOs(rows []models.Order) []OrderDTO {
	out := make([]OrderDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *ToDTO(&rows[i]))
	}
	return out
}

// paymentResultOf treats an empty decoded result the same as none.
func paymentResultOf(order *models.Order) *types.PaymentResult {
	if order.PaymentResult == nil || *order.PaymentResult == (types.PaymentResult{}) {
		return nil
	}
	return order.PaymentResult
}
