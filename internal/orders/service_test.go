package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/prostore-backend/internal/cart"
	"github.com/angelmondragon/prostore-backend/internal/identity"
	product "github.com/angelmondragon/prostore-backend/internal/products"
	"github.com/angelmondragon/prostore-backend/internal/testdb"
	"github.com/angelmondragon/prostore-backend/internal/users"
	"github.com/angelmondragon/prostore-backend/pkg/db"
	"github.com/angelmondragon/prostore-backend/pkg/db/models"
	"github.com/angelmondragon/prostore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
	"github.com/angelmondragon/prostore-backend/pkg/types"
)

type harness struct {
	conn     *gorm.DB
	svc      Service
	carts    cart.Service
	users    *users.Repository
	products *product.Repository
}

func newHarness(t *testing.T) harness {
	t.Helper()
	conn := testdb.Open(t)
	tx := db.Wrap(conn)
	productRepo := product.NewRepository(conn)
	cartRepo := cart.NewRepository(conn)
	userRepo := users.NewRepository(conn)

	cartSvc, err := cart.NewService(cart.ServiceParams{Repo: cartRepo, Products: productRepo, TxRunner: tx})
	require.NoError(t, err)
	svc, err := NewService(ServiceParams{
		Repo:        NewRepository(conn),
		Carts:       cartRepo,
		Users:       userRepo,
		Stock:       productRepo,
		Products:    productRepo,
		UserCounter: userRepo,
		TxRunner:    tx,
		PageSize:    2,
	})
	require.NoError(t, err)
	return harness{conn: conn, svc: svc, carts: cartSvc, users: userRepo, products: productRepo}
}

var sampleAddress = types.ShippingAddress{
	FullName:      "Jane Doe",
	StreetAddress: "1 Main St",
	City:          "Springfield",
	PostalCode:    "12345",
	Country:       "USA",
}

// shopper creates a user with a checkout-ready profile and one unit of p in
// their cart.
func (h harness) shopper(t *testing.T, method enums.PaymentMethod, products ...*models.Product) identity.Identity {
	t.Helper()
	ctx := context.Background()
	user := testdb.MustCreateUser(t, h.conn, enums.RoleUser)
	require.NoError(t, h.users.UpdateAddress(ctx, user.ID, sampleAddress))
	require.NoError(t, h.users.UpdatePaymentMethod(ctx, user.ID, method))
	id := identity.Identity{UserID: &user.ID, Role: enums.RoleUser, SessionCartID: uuid.NewString()}
	for _, p := range products {
		_, err := h.carts.AddItem(ctx, id, cart.AddItemInput{
			ProductID: p.ID, Name: p.Name, Slug: p.Slug, Image: p.FirstImage(), Price: p.Price, Qty: 1,
		})
		require.NoError(t, err)
	}
	return id
}

func admin() identity.Identity {
	adminID := uuid.New()
	return identity.Identity{UserID: &adminID, Role: enums.RoleAdmin}
}

func TestPlaceOrderCopiesCartAndClearsIt(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := testdb.MustCreateProduct(t, h.conn, "20.00", 3)
	buyer := h.shopper(t, enums.PaymentMethodPayPal, p)

	res, err := h.svc.PlaceOrder(ctx, buyer)
	require.NoError(t, err)
	require.Equal(t, "/order/"+res.OrderID.String(), res.RedirectTo)

	order, err := h.svc.GetByID(ctx, buyer, res.OrderID)
	require.NoError(t, err)
	dto := ToDTO(order)
	require.Equal(t, "20.00", dto.ItemsPrice)
	require.Equal(t, "10.00", dto.ShippingPrice)
	require.Equal(t, "3.00", dto.TaxPrice)
	require.Equal(t, "33.00", dto.TotalPrice)
	require.Equal(t, enums.PaymentMethodPayPal, dto.PaymentMethod)
	require.Equal(t, "Springfield", dto.ShippingAddress.City)
	require.Len(t, dto.Items, 1)
	require.Equal(t, p.Slug, dto.Items[0].Slug)
	require.False(t, dto.IsPaid)
	require.Nil(t, dto.PaymentResult)

	current, err := h.carts.GetCurrentCart(ctx, buyer)
	require.NoError(t, err)
	require.Empty(t, current.Items)
	require.True(t, current.TotalPrice.IsZero())

	_, err = h.svc.PlaceOrder(ctx, buyer)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Equal(t, "Your cart is empty", pkgerrors.As(err).Message())
}

func TestPlaceOrderRequiresCheckoutSteps(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := testdb.MustCreateProduct(t, h.conn, "20.00", 3)

	user := testdb.MustCreateUser(t, h.conn, enums.RoleUser)
	id := identity.Identity{UserID: &user.ID, Role: enums.RoleUser}
	_, err := h.carts.AddItem(ctx, id, cart.AddItemInput{ProductID: p.ID, Name: p.Name, Slug: p.Slug, Image: p.FirstImage(), Price: p.Price, Qty: 1})
	require.NoError(t, err)

	_, err = h.svc.PlaceOrder(ctx, id)
	require.Equal(t, "No shipping address", pkgerrors.As(err).Message())
	require.Equal(t, map[string]any{"redirectTo": "/shipping-address"}, pkgerrors.As(err).Details())

	require.NoError(t, h.users.UpdateAddress(ctx, user.ID, sampleAddress))
	_, err = h.svc.PlaceOrder(ctx, id)
	require.Equal(t, "No payment method", pkgerrors.As(err).Message())

	_, err = h.svc.PlaceOrder(ctx, identity.Anonymous("s"))
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized))
}

func TestOrderVisibility(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := testdb.MustCreateProduct(t, h.conn, "20.00", 3)
	buyer := h.shopper(t, enums.PaymentMethodPayPal, p)
	res, err := h.svc.PlaceOrder(ctx, buyer)
	require.NoError(t, err)

	stranger := h.shopper(t, enums.PaymentMethodPayPal)
	_, err = h.svc.GetByID(ctx, stranger, res.OrderID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = h.svc.GetByID(ctx, admin(), res.OrderID)
	require.NoError(t, err)

	_, err = h.svc.GetByID(ctx, buyer, uuid.New())
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestPaymentAndDeliveryAreMonotonic(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := testdb.MustCreateProduct(t, h.conn, "45.00", 3)
	buyer := h.shopper(t, enums.PaymentMethodPayPal, p)
	res, err := h.svc.PlaceOrder(ctx, buyer)
	require.NoError(t, err)

	err = h.svc.Deliver(ctx, res.OrderID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	result := &types.PaymentResult{ID: "PAY-1", Status: "COMPLETED", EmailAddress: "buyer@example.com", PricePaid: "61.75"}
	paid, err := h.svc.MarkPaid(ctx, res.OrderID, result)
	require.NoError(t, err)
	require.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)

	stock, err := h.products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stock.Stock)

	_, err = h.svc.MarkPaid(ctx, res.OrderID, result)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
	stock, err = h.products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 2, stock.Stock)

	require.NoError(t, h.svc.Deliver(ctx, res.OrderID))
	err = h.svc.Deliver(ctx, res.OrderID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))

	order, err := h.svc.GetByID(ctx, buyer, res.OrderID)
	require.NoError(t, err)
	require.True(t, order.IsPaid)
	require.True(t, order.IsDelivered)
	require.Equal(t, "PAY-1", order.PaymentResult.ID)

	err = h.svc.AttachPaymentResult(ctx, res.OrderID, types.PaymentResult{ID: "late"})
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestMarkPaidFloorsOversoldStock(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := testdb.MustCreateProduct(t, h.conn, "10.00", 1)
	buyer := h.shopper(t, enums.PaymentMethodStripe, p)
	res, err := h.svc.PlaceOrder(ctx, buyer)
	require.NoError(t, err)

	require.NoError(t, h.conn.Model(&models.Product{}).Where("id = ?", p.ID).Update("stock", 0).Error)
	_, err = h.svc.MarkPaid(ctx, res.OrderID, nil)
	require.NoError(t, err)

	got, err := h.products.FindByID(ctx, p.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.Stock)
}

func TestMarkPaidCODRequiresCashOnDelivery(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := testdb.MustCreateProduct(t, h.conn, "10.00", 4)

	card := h.shopper(t, enums.PaymentMethodStripe, p)
	cardOrder, err := h.svc.PlaceOrder(ctx, card)
	require.NoError(t, err)
	err = h.svc.MarkPaidCOD(ctx, cardOrder.OrderID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	cash := h.shopper(t, enums.PaymentMethodCashOnDelivery, p)
	cashOrder, err := h.svc.PlaceOrder(ctx, cash)
	require.NoError(t, err)
	require.NoError(t, h.svc.MarkPaidCOD(ctx, cashOrder.OrderID))
	err = h.svc.MarkPaidCOD(ctx, cashOrder.OrderID)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeStateConflict))
}

func TestListingAndDelete(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := testdb.MustCreateProduct(t, h.conn, "10.00", 10)
	buyer := h.shopper(t, enums.PaymentMethodPayPal)
	for i := 0; i < 3; i++ {
		_, err := h.carts.AddItem(ctx, buyer, cart.AddItemInput{ProductID: p.ID, Name: p.Name, Slug: p.Slug, Image: p.FirstImage(), Price: p.Price, Qty: 1})
		require.NoError(t, err)
		_, err = h.svc.PlaceOrder(ctx, buyer)
		require.NoError(t, err)
	}

	mine, err := h.svc.ListMine(ctx, buyer, 1)
	require.NoError(t, err)
	require.Len(t, mine.Data, 2)
	require.Equal(t, 2, mine.TotalPages)

	all, err := h.svc.AdminList(ctx, "test user", 1)
	require.NoError(t, err)
	require.Equal(t, 2, all.TotalPages)
	require.NotNil(t, all.Data[0].User)

	none, err := h.svc.AdminList(ctx, "nobody", 1)
	require.NoError(t, err)
	require.Empty(t, none.Data)
	require.Equal(t, 0, none.TotalPages)

	target := mine.Data[0].ID
	require.NoError(t, h.svc.Delete(ctx, target))
	require.True(t, pkgerrors.IsCode(h.svc.Delete(ctx, target), pkgerrors.CodeNotFound))

	var items int64
	require.NoError(t, h.conn.Model(&models.OrderItem{}).Where("order_id = ?", target).Count(&items).Error)
	require.Zero(t, items)
}

func TestOverview(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	p := testdb.MustCreateProduct(t, h.conn, "20.00", 10)
	for i := 0; i < 2; i++ {
		buyer := h.shopper(t, enums.PaymentMethodPayPal, p)
		_, err := h.svc.PlaceOrder(ctx, buyer)
		require.NoError(t, err)
	}

	overview, err := h.svc.Overview(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, overview.OrdersCount)
	require.EqualValues(t, 1, overview.ProductsCount)
	require.EqualValues(t, 2, overview.UsersCount)
	require.Equal(t, "66.00", overview.TotalSales)
	require.Len(t, overview.LatestSales, 2)
	require.Equal(t, "Test User", overview.LatestSales[0].UserName)
	require.Len(t, overview.SalesData, 1)
	require.Equal(t, "66.00", overview.SalesData[0].TotalSales)
}

func TestMonthlySalesBuckets(t *testing.T) {
	jan := time.Date(2025, time.January, 3, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2025, time.February, 9, 0, 0, 0, 0, time.UTC)
	rows := []SaleRow{
		{CreatedAt: jan, TotalPrice: decimalOf("10.50")},
		{CreatedAt: jan.AddDate(0, 0, 5), TotalPrice: decimalOf("4.50")},
		{CreatedAt: feb, TotalPrice: decimalOf("7")},
	}
	require.Equal(t, []MonthSales{
		{Month: "01/25", TotalSales: "15.00"},
		{Month: "02/25", TotalSales: "7.00"},
	}, monthlySales(rows))
	require.Empty(t, monthlySales(nil))
}

func decimalOf(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}
