package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/prostore-backend/internal/cart"
	"github.com/angelmondragon/prostore-backend/internal/identity"
	"github.com/angelmondragon/prostore-backend/pkg/db/models"
	"github.com/angelmondragon/prostore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
	"github.com/angelmondragon/prostore-backend/pkg/logger"
	"github.com/angelmondragon/prostore-backend/pkg/metrics"
	"github.com/angelmondragon/prostore-backend/pkg/pagination"
	"github.com/angelmondragon/prostore-backend/pkg/types"
)

const (
	latestSalesLimit = 6
	salesWindow      = 12
)

// Service is the checkout orchestrator and the owner of the order
// payment/delivery state machine.
type Service interface {
	PlaceOrder(ctx context.Context, id identity.Identity) (*PlaceOrderResult, error)
	GetByID(ctx context.Context, id identity.Identity, orderID uuid.UUID) (*models.Order, error)
	ListMine(ctx context.Context, id identity.Identity, page int) (pagination.Page[OrderDTO], error)
	AdminList(ctx context.Context, query string, page int) (pagination.Page[OrderDTO], error)
	Delete(ctx context.Context, orderID uuid.UUID) error
	MarkPaid(ctx context.Context, orderID uuid.UUID, result *types.PaymentResult) (*models.Order, error)
	MarkPaidCOD(ctx context.Context, orderID uuid.UUID) error
	Deliver(ctx context.Context, orderID uuid.UUID) error
	AttachPaymentResult(ctx context.Context, orderID uuid.UUID, result types.PaymentResult) error
	Overview(ctx context.Context) (*Overview, error)
}

// ServiceParams wires the orders service collaborators.
type ServiceParams struct {
	Repo        Repository
	Carts       cart.CartRepository
	Users       userLookup
	Stock       stockStore
	Products    counter
	UserCounter counter
	TxRunner    txRunner
	Invalidator productInvalidator
	Metrics     *metrics.StoreMetrics
	Logger      *logger.Logger
	PageSize    int
	Clock       func() time.Time
}

type service struct {
	repo        Repository
	carts       cart.CartRepository
	users       userLookup
	stock       stockStore
	products    counter
	userCounter counter
	tx          txRunner
	invalidator productInvalidator
	metrics     *metrics.StoreMetrics
	logg        *logger.Logger
	pageSize    int
	now         func() time.Time
}

// NewService builds an orders service with the required dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user lookup required")
	}
	if params.Stock == nil {
		return nil, fmt.Errorf("stock store required")
	}
	if params.TxRunner == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	now := params.Clock
	if now == nil {
		now = time.Now
	}
	return &service{
		repo:        params.Repo,
		carts:       params.Carts,
		users:       params.Users,
		stock:       params.Stock,
		products:    params.Products,
		userCounter: params.UserCounter,
		tx:          params.TxRunner,
		invalidator: params.Invalidator,
		metrics:     params.Metrics,
		logg:        params.Logger,
		pageSize:    params.PageSize,
		now:         now,
	}, nil
}

// PlaceOrder turns the caller's cart into an order and empties the cart.
func (s *service) PlaceOrder(ctx context.Context, id identity.Identity) (*PlaceOrderResult, error) {
	userID, err := id.RequireUser()
	if err != nil {
		return nil, err
	}
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "User not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load user")
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		carts := s.carts.WithTx(tx)
		current, err := carts.FindByUser(ctx, userID, true)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
		}
		if current == nil || len(current.Items) == 0 {
			return checkoutStep("Your cart is empty", "/cart")
		}
		if user.Address == nil || user.Address.IsZero() {
			return checkoutStep("No shipping address", "/shipping-address")
		}
		if user.PaymentMethod == nil || !user.PaymentMethod.IsValid() {
			return checkoutStep("No payment method", "/payment-method")
		}

		order = &models.Order{
			UserID:          userID,
			ShippingAddress: *user.Address,
			PaymentMethod:   *user.PaymentMethod,
			ItemsPrice:      current.ItemsPrice,
			ShippingPrice:   current.ShippingPrice,
			TaxPrice:        current.TaxPrice,
			TotalPrice:      current.TotalPrice,
		}
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}

		items := make([]models.OrderItem, 0, len(current.Items))
		for _, line := range current.Items {
			items = append(items, models.OrderItem{
				OrderID:   order.ID,
				ProductID: line.ProductID,
				Qty:       line.Qty,
				Price:     line.Price,
				Name:      line.Name,
				Slug:      line.Slug,
				Image:     line.Image,
			})
		}
		if err := repo.CreateItems(ctx, items); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order items")
		}
		order.Items = items

		current.Items = types.CartItems{}
		current.ItemsPrice = decimal.Zero
		current.ShippingPrice = decimal.Zero
		current.TaxPrice = decimal.Zero
		current.TotalPrice = decimal.Zero
		if err := carts.SaveItems(ctx, current); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear cart")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.metrics.IncOrderPlaced(order.PaymentMethod.String())
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"order_id": order.ID.String(), "payment_method": order.PaymentMethod.String()})
		s.logg.Info(logCtx, "order placed")
	}
	return &PlaceOrderResult{OrderID: order.ID, RedirectTo: "/order/" + order.ID.String()}, nil
}

// GetByID returns the order to its owner or to an admin.
func (s *service) GetByID(ctx context.Context, id identity.Identity, orderID uuid.UUID) (*models.Order, error) {
	userID, err := id.RequireUser()
	if err != nil {
		return nil, err
	}
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID && !id.IsAdmin() {
		return nil, orderNotFound()
	}
	return order, nil
}

func (s *service) ListMine(ctx context.Context, id identity.Identity, page int) (pagination.Page[OrderDTO], error) {
	userID, err := id.RequireUser()
	if err != nil {
		return pagination.Page[OrderDTO]{}, err
	}
	params := pagination.Params{Page: page}.Normalize(s.pageSize)
	rows, total, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return pagination.New(toDTOs(rows), total, params.Limit), nil
}

func (s *service) AdminList(ctx context.Context, query string, page int) (pagination.Page[OrderDTO], error) {
	params := pagination.Params{Page: page}.Normalize(s.pageSize)
	rows, total, err := s.repo.ListAdmin(ctx, query, params)
	if err != nil {
		return pagination.Page[OrderDTO]{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return pagination.New(toDTOs(rows), total, params.Limit), nil
}

func (s *service) Delete(ctx context.Context, orderID uuid.UUID) error {
	if err := s.repo.Delete(ctx, orderID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return orderNotFound()
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete order")
	}
	return nil
}

// MarkPaid moves an order from Created to Paid and takes the purchased
// units out of stock in the same transaction. Stock that cannot cover an
// item is floored at zero and logged; the payment has already happened.
func (s *service) MarkPaid(ctx context.Context, orderID uuid.UUID, result *types.PaymentResult) (*models.Order, error) {
	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		var err error
		order, err = repo.LockByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return orderNotFound()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.IsPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "Order is already paid")
		}

		for _, item := range order.Items {
			short, err := s.stock.DecrementStockClampedWithTx(tx, item.ProductID, item.Qty)
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				s.warn(ctx, order.ID, item.ProductID, "paid item no longer in catalog")
			case err != nil:
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement stock")
			case short:
				s.warn(ctx, order.ID, item.ProductID, "stock oversold on payment")
			}
		}

		paidAt := s.now().UTC()
		if err := repo.MarkPaid(ctx, order.ID, paidAt, result); err != nil {
			if errors.Is(err, ErrTransitionRejected) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "Order is already paid")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order paid")
		}
		order.IsPaid = true
		order.PaidAt = &paidAt
		if result != nil {
			order.PaymentResult = result
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, item := range order.Items {
		s.invalidate(ctx, item.Slug)
	}
	return order, nil
}

// MarkPaidCOD is the admin confirmation that a cash-on-delivery order was paid.
func (s *service) MarkPaidCOD(ctx context.Context, orderID uuid.UUID) error {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return err
	}
	if order.PaymentMethod != enums.PaymentMethodCashOnDelivery {
		return pkgerrors.New(pkgerrors.CodeValidation, "Order is not a cash on delivery order")
	}
	_, err = s.MarkPaid(ctx, orderID, nil)
	return err
}

// Deliver moves a paid order to Delivered.
func (s *service) Deliver(ctx context.Context, orderID uuid.UUID) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		order, err := repo.LockByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return orderNotFound()
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if !order.IsPaid {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "Order is not paid")
		}
		if order.IsDelivered {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "Order is already delivered")
		}
		if err := repo.MarkDelivered(ctx, order.ID, s.now().UTC()); err != nil {
			if errors.Is(err, ErrTransitionRejected) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "Order is already delivered")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark order delivered")
		}
		return nil
	})
}

// AttachPaymentResult stores a processor reference on an unpaid order.
func (s *service) AttachPaymentResult(ctx context.Context, orderID uuid.UUID, result types.PaymentResult) error {
	if err := s.repo.SetPaymentResult(ctx, orderID, &result); err != nil {
		if errors.Is(err, ErrTransitionRejected) {
			if _, loadErr := s.load(ctx, orderID); loadErr != nil {
				return loadErr
			}
			return pkgerrors.New(pkgerrors.CodeStateConflict, "Order is already paid")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store payment result")
	}
	return nil
}

func (s *service) load(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, orderNotFound()
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func (s *service) invalidate(ctx context.Context, slug string) {
	if s.invalidator == nil || slug == "" {
		return
	}
	if err := s.invalidator.Invalidate(ctx, slug); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithField(ctx, "slug", slug), "product cache invalidation failed: "+err.Error())
	}
}

func (s *service) warn(ctx context.Context, orderID, productID uuid.UUID, msg string) {
	if s.logg == nil {
		return
	}
	ctx = s.logg.WithFields(ctx, map[string]any{"order_id": orderID.String(), "product_id": productID.String()})
	s.logg.Warn(ctx, msg)
}

func orderNotFound() error {
	return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
}

// checkoutStep reports the checkout page the client must complete first.
func checkoutStep(message, redirect string) error {
	return pkgerrors.New(pkgerrors.CodeValidation, message).
		WithDetails(map[string]any{"redirectTo": redirect})
}
