package payments

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/angelmondragon/prostore-backend/pkg/config"
	"github.com/angelmondragon/prostore-backend/pkg/logger"
)

const (
	providerPayPal   = "paypal"
	paypalCompleted  = "COMPLETED"
	paypalMaxPayload = 1 << 20
)

// PayPalCapture is the subset of a PayPal capture response the store keeps.
type PayPalCapture struct {
	ID         string
	Status     string
	PayerEmail string
	AmountPaid string
}

// PayPalAPI is the PayPal Orders v2 surface used by checkout.
type PayPalAPI interface {
	CreateOrder(ctx context.Context, amount decimal.Decimal) (string, error)
	CaptureOrder(ctx context.Context, paypalOrderID string) (*PayPalCapture, error)
}

// PayPalClient talks to the PayPal REST API. Tokens come from the OAuth2
// client-credentials flow and are cached until they expire.
type PayPalClient struct {
	http    *http.Client
	baseURL string
	breaker *gobreaker.CircuitBreaker[[]byte]
}

// NewPayPalClient builds a client for the configured PayPal environment.
func NewPayPalClient(ctx context.Context, cfg config.PayPalConfig, logg *logger.Logger) (*PayPalClient, error) {
	if !cfg.Enabled() {
		return nil, errors.New("paypal client id and secret are required")
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if base == "" {
		return nil, errors.New("paypal api url is required")
	}
	creds := clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.AppSecret,
		TokenURL:     base + "/v1/oauth2/token",
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	httpClient := creds.Client(ctx)
	httpClient.Timeout = cfg.Timeout
	return newPayPalClient(httpClient, base, logg), nil
}

func newPayPalClient(httpClient *http.Client, baseURL string, logg *logger.Logger) *PayPalClient {
	return &PayPalClient{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		breaker: newBreaker[[]byte]("paypal", logg),
	}
}

type paypalAmount struct {
	CurrencyCode string `json:"currency_code"`
	Value        string `json:"value"`
}

type paypalCreateRequest struct {
	Intent        string `json:"intent"`
	PurchaseUnits []struct {
		Amount paypalAmount `json:"amount"`
	} `json:"purchase_units"`
}

type paypalOrder struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Payer  struct {
		EmailAddress string `json:"email_address"`
	} `json:"payer"`
	PurchaseUnits []struct {
		Payments struct {
			Captures []struct {
				Amount paypalAmount `json:"amount"`
			} `json:"captures"`
		} `json:"payments"`
	} `json:"purchase_units"`
}

// CreateOrder opens a PayPal order for amount in USD and returns its id.
func (c *PayPalClient) CreateOrder(ctx context.Context, amount decimal.Decimal) (string, error) {
	req := paypalCreateRequest{Intent: "CAPTURE"}
	req.PurchaseUnits = make([]struct {
		Amount paypalAmount `json:"amount"`
	}, 1)
	req.PurchaseUnits[0].Amount = paypalAmount{CurrencyCode: "USD", Value: amount.StringFixed(2)}

	var order paypalOrder
	if err := c.post(ctx, "/v2/checkout/orders", req, &order); err != nil {
		return "", err
	}
	if order.ID == "" {
		return "", errors.New("paypal: order id missing from response")
	}
	return order.ID, nil
}

// CaptureOrder captures an approved PayPal order.
func (c *PayPalClient) CaptureOrder(ctx context.Context, paypalOrderID string) (*PayPalCapture, error) {
	if strings.TrimSpace(paypalOrderID) == "" {
		return nil, errors.New("paypal order id is required")
	}
	var order paypalOrder
	if err := c.post(ctx, "/v2/checkout/orders/"+paypalOrderID+"/capture", nil, &order); err != nil {
		return nil, err
	}
	capture := &PayPalCapture{
		ID:         order.ID,
		Status:     order.Status,
		PayerEmail: order.Payer.EmailAddress,
	}
	if len(order.PurchaseUnits) > 0 && len(order.PurchaseUnits[0].Payments.Captures) > 0 {
		capture.AmountPaid = order.PurchaseUnits[0].Payments.Captures[0].Amount.Value
	}
	return capture, nil
}

func (c *PayPalClient) post(ctx context.Context, path string, body any, out any) error {
	raw, err := c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader = http.NoBody
		if body != nil {
			payload, err := json.Marshal(body)
			if err != nil {
				return nil, fmt.Errorf("paypal: encode request: %w", err)
			}
			reader = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("paypal: %w", err)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(io.LimitReader(resp.Body, paypalMaxPayload))
		if err != nil {
			return nil, fmt.Errorf("paypal: read response: %w", err)
		}
		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
			return nil, &APIError{Provider: providerPayPal, StatusCode: resp.StatusCode, Body: string(data)}
		}
		return data, nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("paypal: decode response: %w", err)
	}
	return nil
}
