package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v84"

	"github.com/angelmondragon/prostore-backend/internal/payments"
	stripewebhook "github.com/angelmondragon/prostore-backend/internal/webhooks/stripe"
	"github.com/angelmondragon/prostore-backend/pkg/config"
	pkgstripe "github.com/angelmondragon/prostore-backend/pkg/stripe"
	"github.com/angelmondragon/prostore-backend/pkg/types"
)

func newTestGuard(t *testing.T, store *inMemoryStore) *payments.Guard {
	t.Helper()
	guard, err := payments.NewGuard(store, time.Minute, stripewebhook.EventScope)
	require.NoError(t, err)
	return guard
}

func postEvent(handler http.Handler, payload []byte, signature string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/stripe", bytes.NewReader(payload))
	if signature != "" {
		req.Header.Set("Stripe-Signature", signature)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestStripeWebhook_SuccessAndIdempotent(t *testing.T) {
	payload, header := buildSignedEvent(t)
	service := &fakeStripeWebhookService{}
	store := newInMemoryStore()
	handler := StripeWebhook(service, newVerifier(t), newTestGuard(t, store), nil)

	rec := postEvent(handler, payload, header)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 1, service.calls)

	var body types.Envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.Success)
	require.Equal(t, "Event processed", body.Message)

	rec = postEvent(handler, payload, header)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	require.Equal(t, 1, service.calls, "duplicate delivery must not be processed")
}

func TestStripeWebhook_FailureReleasesClaim(t *testing.T) {
	payload, header := buildSignedEvent(t)
	service := &fakeStripeWebhookService{err: errors.New("db down")}
	store := newInMemoryStore()
	handler := StripeWebhook(service, newVerifier(t), newTestGuard(t, store), nil)

	rec := postEvent(handler, payload, header)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Empty(t, store.data)

	service.err = nil
	rec = postEvent(handler, payload, header)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, 2, service.calls)
}

func TestStripeWebhook_InvalidSignature(t *testing.T) {
	payload, _ := buildSignedEvent(t)
	service := &fakeStripeWebhookService{}
	handler := StripeWebhook(service, newVerifier(t), newTestGuard(t, newInMemoryStore()), nil)

	rec := postEvent(handler, payload, "t=1,v1=invalid")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, service.calls)
}

func TestStripeWebhook_MissingSignature(t *testing.T) {
	payload, _ := buildSignedEvent(t)
	service := &fakeStripeWebhookService{}
	handler := StripeWebhook(service, newVerifier(t), newTestGuard(t, newInMemoryStore()), nil)

	rec := postEvent(handler, payload, "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Zero(t, service.calls)
}

func TestStripeWebhook_NotConfigured(t *testing.T) {
	handler := StripeWebhook(nil, nil, nil, nil)
	rec := postEvent(handler, []byte("{}"), "t=1,v1=x")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func buildSignedEvent(t *testing.T) ([]byte, string) {
	t.Helper()
	intent := &stripe.PaymentIntent{
		ID:       "pi_" + uuid.NewString(),
		Status:   stripe.PaymentIntentStatusSucceeded,
		Amount:   6176,
		Currency: stripe.CurrencyUSD,
		Metadata: map[string]string{"orderId": uuid.NewString()},
	}
	rawIntent, err := json.Marshal(intent)
	require.NoError(t, err)
	event := &stripe.Event{
		ID:         "evt_" + uuid.NewString(),
		Type:       stripe.EventTypePaymentIntentSucceeded,
		Object:     "event",
		APIVersion: stripe.APIVersion,
		Data:       &stripe.EventData{Raw: rawIntent},
	}
	payload, err := json.Marshal(event)
	require.NoError(t, err)
	return payload, buildStripeSignatureHeader(payload, "whsec_test", time.Now().Unix())
}

func buildStripeSignatureHeader(payload []byte, secret string, ts int64) string {
	signedPayload := fmt.Sprintf("%d.%s", ts, payload)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(signedPayload))
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

type fakeStripeWebhookService struct {
	calls int
	err   error
}

func (f *fakeStripeWebhookService) HandleEvent(ctx context.Context, event *stripe.Event) error {
	f.calls++
	return f.err
}

func newVerifier(t *testing.T) *pkgstripe.Client {
	t.Helper()
	client, err := pkgstripe.NewClient(context.Background(), config.StripeConfig{APIKey: "sk_test_123", Secret: "whsec_test"}, nil)
	require.NoError(t, err)
	return client
}

type inMemoryStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newInMemoryStore() *inMemoryStore {
	return &inMemoryStore{data: make(map[string]string)}
}

func (s *inMemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *inMemoryStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *inMemoryStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("ps:idempotency:%s:%s", scope, id)
}

func (s *inMemoryStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}
