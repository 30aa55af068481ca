package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/prostore-backend/api/middleware"
	"github.com/angelmondragon/prostore-backend/internal/identity"
	"github.com/angelmondragon/prostore-backend/pkg/enums"
	"github.com/angelmondragon/prostore-backend/pkg/logger"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

func withURLParams(req *http.Request, kv ...string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		routeCtx.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, routeCtx))
}

func asUser(req *http.Request, userID uuid.UUID, role enums.Role) *http.Request {
	id := identity.Identity{UserID: &userID, Role: role, Name: "Jane", Email: "jane@example.com"}
	return req.WithContext(middleware.WithIdentity(req.Context(), id))
}

func asSession(req *http.Request, sessionCartID string) *http.Request {
	ctx := middleware.WithSessionCartID(req.Context(), sessionCartID)
	return req.WithContext(middleware.WithIdentity(ctx, identity.Anonymous(sessionCartID)))
}

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}
