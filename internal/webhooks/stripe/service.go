package stripewebhook

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/prostore-backend/internal/payments"
	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
	"github.com/angelmondragon/prostore-backend/pkg/logger"
)

// EventScope namespaces the per-event delivery guard.
const EventScope = "stripe-event"

type paymentConfirmer interface {
	ConfirmStripePayment(ctx context.Context, c payments.StripeConfirmation) error
}

// ServiceParams wires the webhook service collaborators.
type ServiceParams struct {
	Payments paymentConfirmer
	Logger   *logger.Logger
}

// Service turns verified Stripe events into order payment confirmations.
type Service struct {
	payments paymentConfirmer
	logg     *logger.Logger
}

// NewService builds the Stripe event handler.
func NewService(params ServiceParams) (*Service, error) {
	if params.Payments == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "payment service required")
	}
	return &Service{payments: params.Payments, logg: params.Logger}, nil
}

// HandleEvent confirms payment for succeeded intents and charges. Other
// event types are acknowledged without action.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	var (
		confirmation payments.StripeConfirmation
		err          error
	)
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode payment intent event")
		}
		confirmation, err = payments.ConfirmationFromIntent(&intent)
	case stripe.EventTypeChargeSucceeded:
		var charge stripe.Charge
		if err := json.Unmarshal(event.Data.Raw, &charge); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode charge event")
		}
		confirmation, err = payments.ConfirmationFromCharge(&charge)
	default:
		if s.logg != nil {
			s.logg.Debug(ctx, fmt.Sprintf("stripe event %s ignored", event.Type))
		}
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "stripe event missing order reference")
	}
	return s.payments.ConfirmStripePayment(ctx, confirmation)
}
