package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/prostore-backend/internal/identity"
	"github.com/angelmondragon/prostore-backend/pkg/db/models"
	"github.com/angelmondragon/prostore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
	"github.com/angelmondragon/prostore-backend/pkg/logger"
	"github.com/angelmondragon/prostore-backend/pkg/metrics"
	"github.com/angelmondragon/prostore-backend/pkg/types"
)

const (
	providerStripe = "stripe"

	// GuardScope namespaces the per-order payment confirmation guard.
	GuardScope = "payment"

	paymentFailedMessage = "Error in PayPal payment"
)

// StripeIntent is what the client needs to confirm a card payment.
type StripeIntent struct {
	ID           string `json:"id"`
	ClientSecret string `json:"clientSecret"`
}

// StripeConfirmation is a verified Stripe success notification.
type StripeConfirmation struct {
	OrderID     uuid.UUID
	ProcessorID string
	Status      string
	Email       string
	AmountCents int64
	EventType   string
}

// Service drives payment capture for orders.
type Service interface {
	CreatePayPalOrder(ctx context.Context, id identity.Identity, orderID uuid.UUID) (string, error)
	ApprovePayPalOrder(ctx context.Context, id identity.Identity, orderID uuid.UUID, paypalOrderID string) error
	CreateStripePaymentIntent(ctx context.Context, id identity.Identity, orderID uuid.UUID) (*StripeIntent, error)
	ConfirmStripePayment(ctx context.Context, c StripeConfirmation) error
}

type orderStore interface {
	GetByID(ctx context.Context, id identity.Identity, orderID uuid.UUID) (*models.Order, error)
	MarkPaid(ctx context.Context, orderID uuid.UUID, result *types.PaymentResult) (*models.Order, error)
	AttachPaymentResult(ctx context.Context, orderID uuid.UUID, result types.PaymentResult) error
}

type confirmationGuard interface {
	Claim(ctx context.Context, id string) (bool, error)
	Release(ctx context.Context, id string) error
}

// ServiceParams wires the payment service. PayPal and Stripe are optional;
// the matching operations fail with a dependency error when absent.
type ServiceParams struct {
	Orders   orderStore
	PayPal   PayPalAPI
	Stripe   StripeIntents
	Currency string
	Guard    confirmationGuard
	Metrics  *metrics.StoreMetrics
	Logger   *logger.Logger
}

type service struct {
	orders   orderStore
	paypal   PayPalAPI
	stripe   StripeIntents
	currency string
	guard    confirmationGuard
	metrics  *metrics.StoreMetrics
	logg     *logger.Logger
}

// NewService builds the payment service.
func NewService(params ServiceParams) (Service, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("order store required")
	}
	if params.Guard == nil {
		return nil, fmt.Errorf("payment guard required")
	}
	currency := strings.ToLower(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = string(stripe.CurrencyUSD)
	}
	return &service{
		orders:   params.Orders,
		paypal:   params.PayPal,
		stripe:   params.Stripe,
		currency: currency,
		guard:    params.Guard,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// CreatePayPalOrder opens a PayPal order for the order total and records
// the PayPal id so the later approval can be matched.
func (s *service) CreatePayPalOrder(ctx context.Context, id identity.Identity, orderID uuid.UUID) (string, error) {
	if s.paypal == nil {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "paypal is not configured")
	}
	order, err := s.payableOrder(ctx, id, orderID)
	if err != nil {
		return "", err
	}
	if order.PaymentMethod != enums.PaymentMethodPayPal {
		return "", notPayableWithPayPal()
	}
	paypalID, err := s.paypal.CreateOrder(ctx, order.TotalPrice)
	if err != nil {
		s.metrics.IncPayment(providerPayPal, metrics.OutcomeFailure)
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create paypal order")
	}
	if err := s.orders.AttachPaymentResult(ctx, order.ID, types.PaymentResult{ID: paypalID, PricePaid: "0"}); err != nil {
		return "", err
	}
	return paypalID, nil
}

// ApprovePayPalOrder captures the approved PayPal order and marks the
// order paid.
func (s *service) ApprovePayPalOrder(ctx context.Context, id identity.Identity, orderID uuid.UUID, paypalOrderID string) error {
	if s.paypal == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "paypal is not configured")
	}
	order, err := s.payableOrder(ctx, id, orderID)
	if err != nil {
		return err
	}
	if order.PaymentMethod != enums.PaymentMethodPayPal {
		return notPayableWithPayPal()
	}
	if order.PaymentResult == nil || order.PaymentResult.ID == "" || order.PaymentResult.ID != paypalOrderID {
		return pkgerrors.New(pkgerrors.CodeValidation, paymentFailedMessage)
	}

	capture, err := s.paypal.CaptureOrder(ctx, paypalOrderID)
	if err != nil {
		s.metrics.IncPayment(providerPayPal, metrics.OutcomeFailure)
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "capture paypal order")
	}
	if capture.ID != order.PaymentResult.ID || capture.Status != paypalCompleted {
		s.metrics.IncPayment(providerPayPal, metrics.OutcomeFailure)
		return pkgerrors.New(pkgerrors.CodeValidation, paymentFailedMessage)
	}

	return s.confirm(ctx, providerPayPal, order.ID, &types.PaymentResult{
		ID:           capture.ID,
		Status:       capture.Status,
		EmailAddress: capture.PayerEmail,
		PricePaid:    capture.AmountPaid,
	})
}

// CreateStripePaymentIntent starts a card payment for an unpaid Stripe order.
func (s *service) CreateStripePaymentIntent(ctx context.Context, id identity.Identity, orderID uuid.UUID) (*StripeIntent, error) {
	if s.stripe == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "stripe is not configured")
	}
	order, err := s.payableOrder(ctx, id, orderID)
	if err != nil {
		return nil, err
	}
	if order.PaymentMethod != enums.PaymentMethodStripe {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order is not payable with Stripe")
	}

	params := &stripe.PaymentIntentCreateParams{
		Amount:   stripe.Int64(AmountInCents(order.TotalPrice)),
		Currency: stripe.String(s.currency),
	}
	params.AddMetadata("orderId", order.ID.String())
	params.SetIdempotencyKey("order-intent-" + order.ID.String())

	intent, err := s.stripe.Create(ctx, params)
	if err != nil {
		s.metrics.IncPayment(providerStripe, metrics.OutcomeFailure)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create payment intent")
	}
	return &StripeIntent{ID: intent.ID, ClientSecret: intent.ClientSecret}, nil
}

// ConfirmStripePayment marks the order paid from a verified webhook. A
// repeated or late confirmation for a paid order is accepted as a no-op.
func (s *service) ConfirmStripePayment(ctx context.Context, c StripeConfirmation) error {
	if c.OrderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "orderId metadata missing")
	}
	err := s.confirm(ctx, providerStripe, c.OrderID, &types.PaymentResult{
		ID:           c.ProcessorID,
		Status:       "COMPLETED",
		EmailAddress: c.Email,
		PricePaid:    decimal.New(c.AmountCents, -2).StringFixed(2),
	})
	if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
		return nil
	}
	return err
}

// confirm runs MarkPaid at most once per order. The claim is dropped again
// when MarkPaid fails for a reason other than the order already being paid.
func (s *service) confirm(ctx context.Context, provider string, orderID uuid.UUID, result *types.PaymentResult) error {
	claimed, err := s.guard.Claim(ctx, orderID.String())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim payment confirmation")
	}
	if !claimed {
		s.metrics.IncPayment(provider, metrics.OutcomeDuplicate)
		return pkgerrors.New(pkgerrors.CodeStateConflict, "Order is already paid")
	}

	if _, err := s.orders.MarkPaid(ctx, orderID, result); err != nil {
		if !pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			if releaseErr := s.guard.Release(ctx, orderID.String()); releaseErr != nil && s.logg != nil {
				s.logg.Error(ctx, "release payment guard", releaseErr)
			}
			s.metrics.IncPayment(provider, metrics.OutcomeFailure)
		} else {
			s.metrics.IncPayment(provider, metrics.OutcomeDuplicate)
		}
		return err
	}

	s.metrics.IncPayment(provider, metrics.OutcomeSuccess)
	if s.logg != nil {
		logCtx := s.logg.WithFields(ctx, map[string]any{"order_id": orderID.String(), "provider": provider})
		s.logg.Info(logCtx, "order paid")
	}
	return nil
}

func (s *service) payableOrder(ctx context.Context, id identity.Identity, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.orders.GetByID(ctx, id, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != *id.UserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "user is not authorized")
	}
	if order.IsPaid {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "Order is already paid")
	}
	return order, nil
}

// AmountInCents converts a two-decimal price to the processor's minor units,
// rounding half away from zero.
func AmountInCents(total decimal.Decimal) int64 {
	return total.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}

var errNoOrderMetadata = errors.New("orderId metadata missing")

// ConfirmationFromIntent extracts the confirmation from a succeeded
// payment intent.
func ConfirmationFromIntent(intent *stripe.PaymentIntent) (StripeConfirmation, error) {
	if intent == nil {
		return StripeConfirmation{}, errNoOrderMetadata
	}
	orderID, err := uuid.Parse(intent.Metadata["orderId"])
	if err != nil {
		return StripeConfirmation{}, errNoOrderMetadata
	}
	c := StripeConfirmation{
		OrderID:     orderID,
		ProcessorID: intent.ID,
		Status:      string(intent.Status),
		AmountCents: intent.AmountReceived,
		EventType:   string(stripe.EventTypePaymentIntentSucceeded),
	}
	if c.AmountCents == 0 {
		c.AmountCents = intent.Amount
	}
	if intent.ReceiptEmail != "" {
		c.Email = intent.ReceiptEmail
	}
	return c, nil
}

// ConfirmationFromCharge extracts the confirmation from a succeeded charge.
func ConfirmationFromCharge(charge *stripe.Charge) (StripeConfirmation, error) {
	if charge == nil {
		return StripeConfirmation{}, errNoOrderMetadata
	}
	orderID, err := uuid.Parse(charge.Metadata["orderId"])
	if err != nil {
		return StripeConfirmation{}, errNoOrderMetadata
	}
	c := StripeConfirmation{
		OrderID:     orderID,
		ProcessorID: charge.ID,
		Status:      string(charge.Status),
		AmountCents: charge.Amount,
		EventType:   string(stripe.EventTypeChargeSucceeded),
	}
	if charge.BillingDetails != nil {
		c.Email = charge.BillingDetails.Email
	}
	return c, nil
}

func notPayableWithPayPal() error {
	return pkgerrors.New(pkgerrors.CodeValidation, "order is not payable with PayPal")
}
