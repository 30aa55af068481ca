package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/prostore-backend/internal/cart"
	"github.com/angelmondragon/prostore-backend/internal/identity"
	"github.com/angelmondragon/prostore-backend/pkg/db/models"
	"github.com/angelmondragon/prostore-backend/pkg/types"
)

type stubCartService struct {
	cart.Service
	gotID      identity.Identity
	gotItem    cart.AddItemInput
	gotRemoved uuid.UUID
	result     *cart.MutationResult
	current    *models.Cart
}

func (s *stubCartService) GetCurrentCart(ctx context.Context, id identity.Identity) (*models.Cart, error) {
	s.gotID = id
	return s.current, nil
}

func (s *stubCartService) AddItem(ctx context.Context, id identity.Identity, input cart.AddItemInput) (*cart.MutationResult, error) {
	s.gotID = id
	s.gotItem = input
	return s.result, nil
}

func (s *stubCartService) RemoveItem(ctx context.Context, id identity.Identity, productID uuid.UUID) (*cart.MutationResult, error) {
	s.gotID = id
	s.gotRemoved = productID
	return s.result, nil
}

func sampleCart(productID uuid.UUID) *models.Cart {
	return &models.Cart{
		ID:            uuid.New(),
		SessionCartID: "cart-cookie",
		Items: types.CartItems{{
			ProductID: productID, Name: "Polo", Slug: "polo", Image: "/p.jpg",
			Price: decimal.RequireFromString("20"), Qty: 1,
		}},
		ItemsPrice:    decimal.RequireFromString("20"),
		ShippingPrice: decimal.RequireFromString("10"),
		TaxPrice:      decimal.RequireFromString("3"),
		TotalPrice:    decimal.RequireFromString("33"),
	}
}

func TestCartAddItem(t *testing.T) {
	productID := uuid.New()
	svc := &stubCartService{result: &cart.MutationResult{Message: "Polo added to cart", Cart: sampleCart(productID)}}

	body := `{"productId":"` + productID.String() + `","name":"Polo","slug":"polo","image":"/p.jpg","price":"20.00","qty":1}`
	req := asSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body)), "cart-cookie")
	rec := serve(CartAddItem(svc, testLogger()), req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	env := decodeEnvelope(t, rec)
	require.Equal(t, "Polo added to cart", env.Message)
	require.Equal(t, "cart-cookie", svc.gotID.SessionCartID)
	require.Equal(t, productID, svc.gotItem.ProductID)

	var dto cart.CartDTO
	require.NoError(t, json.Unmarshal(env.Data, &dto))
	require.Equal(t, "20.00", dto.ItemsPrice)
	require.Equal(t, "10.00", dto.ShippingPrice)
	require.Equal(t, "3.00", dto.TaxPrice)
	require.Equal(t, "33.00", dto.TotalPrice)
}

func TestCartAddItemRejectsZeroQty(t *testing.T) {
	svc := &stubCartService{}
	body := `{"productId":"` + uuid.NewString() + `","name":"Polo","slug":"polo","image":"/p.jpg","price":"20.00","qty":0}`
	req := asSession(httptest.NewRequest(http.MethodPost, "/api/v1/cart/items", strings.NewReader(body)), "cart-cookie")
	rec := serve(CartAddItem(svc, testLogger()), req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartRemoveItem(t *testing.T) {
	productID := uuid.New()
	svc := &stubCartService{result: &cart.MutationResult{Message: "Polo removed from cart", Cart: sampleCart(productID)}}

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/"+productID.String(), nil)
	req = withURLParams(asSession(req, "cart-cookie"), "productID", productID.String())
	rec := serve(CartRemoveItem(svc, testLogger()), req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, productID, svc.gotRemoved)

	req = withURLParams(httptest.NewRequest(http.MethodDelete, "/api/v1/cart/items/x", nil), "productID", "x")
	rec = serve(CartRemoveItem(svc, testLogger()), req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartGetWithoutCart(t *testing.T) {
	svc := &stubCartService{}
	req := asSession(httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil), "cart-cookie")
	rec := serve(CartGet(svc, testLogger()), req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, decodeEnvelope(t, rec).Success)
	require.NotContains(t, rec.Body.String(), "items")
}
