package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"
	"github.com/stripe/stripe-go/v84/webhook"

	"github.com/angelmondragon/prostore-backend/pkg/config"
	"github.com/angelmondragon/prostore-backend/pkg/logger"
)

// Mode selects Stripe test or live keys.
type Mode string

const (
	ModeTest Mode = "test"
	ModeLive Mode = "live"
)

const defaultCurrency = "usd"

// signatureTolerance is how old a webhook signature may be.
const signatureTolerance = 5 * time.Minute

// keyPrefixes lists the secret and restricted key prefixes valid per mode.
var keyPrefixes = map[Mode][]string{
	ModeTest: {"sk_test_", "rk_test_"},
	ModeLive: {"sk_live_", "rk_live_"},
}

var (
	errAPIKeyRequired   = errors.New("stripe api key is required")
	errSecretRequired   = errors.New("stripe webhook secret is required")
	errInvalidStripeEnv = fmt.Errorf("stripe environment must be %q or %q", ModeTest, ModeLive)
)

// Client talks to Stripe for one account and verifies its webhooks.
type Client struct {
	api           *stripe.Client
	mode          Mode
	webhookSecret string
	currency      string
}

// NewClient validates cfg and builds a client. Every configuration problem
// is reported at once.
func NewClient(ctx context.Context, cfg config.StripeConfig, logg *logger.Logger) (*Client, error) {
	mode := Mode(cfg.Environment())
	apiKey := strings.TrimSpace(cfg.APIKey)
	secret := strings.TrimSpace(cfg.Secret)

	var problems []error
	if _, ok := keyPrefixes[mode]; !ok {
		problems = append(problems, errInvalidStripeEnv)
	}
	if apiKey == "" {
		problems = append(problems, errAPIKeyRequired)
	} else if prefixes, ok := keyPrefixes[mode]; ok && !hasAnyPrefix(apiKey, prefixes) {
		problems = append(problems, fmt.Errorf("stripe %s mode requires a %s key", mode, strings.Join(prefixes, " or ")))
	}
	if secret == "" {
		problems = append(problems, errSecretRequired)
	}
	if err := errors.Join(problems...); err != nil {
		return nil, err
	}

	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	logg.Info(logg.WithFields(ctx, map[string]any{"stripe_mode": string(mode), "currency": currency}), "stripe client initialized")
	return &Client{
		api:           stripe.NewClient(apiKey),
		mode:          mode,
		webhookSecret: secret,
		currency:      currency,
	}, nil
}

// CreatePaymentIntent creates an intent on the configured account.
func (c *Client) CreatePaymentIntent(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("stripe client not initialized")
	}
	return c.api.V1PaymentIntents.Create(ctx, params)
}

// VerifyEvent checks the Stripe-Signature header against the webhook secret
// and decodes the event.
func (c *Client) VerifyEvent(payload []byte, signature string) (stripe.Event, error) {
	if c == nil {
		return stripe.Event{}, errors.New("stripe client not initialized")
	}
	return webhook.ConstructEventWithTolerance(payload, signature, c.webhookSecret, signatureTolerance)
}

// Mode reports whether the client uses test or live keys.
func (c *Client) Mode() Mode {
	if c == nil {
		return ""
	}
	return c.mode
}

// Currency is the ISO currency code used for payment intents.
func (c *Client) Currency() string {
	if c == nil || c.currency == "" {
		return defaultCurrency
	}
	return c.currency
}

func hasAnyPrefix(s string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(s, p) {
			return true
		}
	}
	return false
}
