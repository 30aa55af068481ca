package payments

import (
	"context"

	"github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/prostore-backend/pkg/logger"
)

// StripeIntents exposes the subset of Stripe operations checkout needs.
type StripeIntents interface {
	Create(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
}

// IntentCreator is the Stripe account client.
type IntentCreator interface {
	CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
}

type stripeIntentClient struct {
	api     IntentCreator
	breaker *gobreaker.CircuitBreaker[*stripe.PaymentIntent]
}

// NewStripeIntents puts the Stripe client behind a circuit breaker.
func NewStripeIntents(api IntentCreator, logg *logger.Logger) StripeIntents {
	return &stripeIntentClient{api: api, breaker: newBreaker[*stripe.PaymentIntent]("stripe", logg)}
}

func (c *stripeIntentClient) Create(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error) {
	return c.breaker.Execute(func() (*stripe.PaymentIntent, error) {
		return c.api.CreatePaymentIntent(ctx, params)
	})
}
