package responses

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/prostore-backend/pkg/errors"
	"github.com/angelmondragon/prostore-backend/pkg/types"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) types.Envelope {
	t.Helper()
	var body types.Envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, "Item added to cart", map[string]string{"hello": "world"})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	body := decode(t, w)
	require.True(t, body.Success)
	require.Equal(t, "Item added to cart", body.Message)
	require.Equal(t, "world", body.Data.(map[string]any)["hello"])
	require.Empty(t, body.Code)
}

func TestWriteErrorKeepsClientMessage(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "No shipping address").
		WithDetails(map[string]any{"redirectTo": "/shipping-address"})
	WriteError(t.Context(), nil, w, err)

	require.Equal(t, http.StatusBadRequest, w.Code)
	body := decode(t, w)
	require.False(t, body.Success)
	require.Equal(t, "No shipping address", body.Message)
	require.Equal(t, string(pkgerrors.CodeValidation), body.Code)
	require.Equal(t, map[string]any{"redirectTo": "/shipping-address"}, body.Details)
}

func TestWriteErrorStatusMapping(t *testing.T) {
	cases := []struct {
		code   pkgerrors.Code
		status int
	}{
		{pkgerrors.CodeUnauthorized, http.StatusUnauthorized},
		{pkgerrors.CodeNotFound, http.StatusNotFound},
		{pkgerrors.CodeInsufficient, http.StatusConflict},
		{pkgerrors.CodeStateConflict, http.StatusUnprocessableEntity},
		{pkgerrors.CodeRateLimit, http.StatusTooManyRequests},
		{pkgerrors.CodeDependency, http.StatusServiceUnavailable},
	}
	for _, c := range cases {
		w := httptest.NewRecorder()
		WriteError(t.Context(), nil, w, pkgerrors.New(c.code, "x"))
		require.Equal(t, c.status, w.Code, string(c.code))
	}
}

func TestWriteErrorHidesUnclassifiedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(t.Context(), nil, w, errors.New("pq: connection refused"))

	require.Equal(t, http.StatusInternalServerError, w.Code)
	body := decode(t, w)
	require.Equal(t, string(pkgerrors.CodeInternal), body.Code)
	require.Equal(t, "internal server error", body.Message)
	require.Nil(t, body.Details)
}

func TestWriteErrorClassifiesUniqueViolation(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(t.Context(), nil, w, fmt.Errorf("insert product: %w", &pgconn.PgError{Code: "23505", ConstraintName: "products_slug_key"}))

	require.Equal(t, http.StatusConflict, w.Code)
	body := decode(t, w)
	require.Equal(t, string(pkgerrors.CodeConflict), body.Code)
	require.Equal(t, "resource already exists", body.Message)
}
