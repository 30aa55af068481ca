package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
)

type signIn struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

func TestDecodeJSONBody(t *testing.T) {
	var dest signIn
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@example.com","password":"123456"}`))
	require.NoError(t, DecodeJSONBody(req, &dest))
	require.Equal(t, "a@example.com", dest.Email)

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","password":"1"}`))
	err := DecodeJSONBody(req, &dest)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Equal(t, map[string]string{
		"email":    "must be a valid email",
		"password": "must be at least 6",
	}, pkgerrors.As(err).Details())

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@example.com","password":"123456","admin":true}`))
	require.True(t, pkgerrors.IsCode(DecodeJSONBody(req, &dest), pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyRejectsMalformedPayloads(t *testing.T) {
	cases := map[string]string{
		"empty":    ``,
		"trailing": `{"email":"a@example.com","password":"123456"}{"email":"b@example.com"}`,
		"array":    `[1,2]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			var dest signIn
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
			err := DecodeJSONBody(req, &dest)
			require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
			require.Equal(t, "invalid request body", pkgerrors.As(err).Message())
		})
	}
}

func TestQueryHelpers(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&q=+shirt+&bad=x", nil)
	page, err := ParseQueryInt(req, "page", 1, 1, 100)
	require.NoError(t, err)
	require.Equal(t, 3, page)

	page, err = ParseQueryInt(req, "missing", 1, 1, 100)
	require.NoError(t, err)
	require.Equal(t, 1, page)

	_, err = ParseQueryInt(req, "bad", 1, 1, 100)
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	require.Equal(t, "shirt", QueryString(req, "q"))
}

func TestParseUUIDParam(t *testing.T) {
	id := uuid.New()
	rc := chi.NewRouteContext()
	rc.URLParams.Add("orderID", id.String())
	rc.URLParams.Add("productID", "nope")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	got, err := ParseUUIDParam(req, "orderID")
	require.NoError(t, err)
	require.Equal(t, id, got)

	_, err = ParseUUIDParam(req, "productID")
	require.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestBearerToken(t *testing.T) {
	require.Equal(t, "abc", BearerToken("Bearer abc"))
	require.Equal(t, "abc", BearerToken("bearer  abc "))
	require.Equal(t, "abc", BearerToken("abc"))
	require.Equal(t, "", BearerToken(""))
}
