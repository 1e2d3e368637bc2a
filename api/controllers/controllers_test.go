package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxemarket/storefront-backend/api/middleware"
	"github.com/luxemarket/storefront-backend/pkg/config"
	"github.com/luxemarket/storefront-backend/pkg/enums"
	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
	"github.com/luxemarket/storefront-backend/pkg/logger"
	"github.com/luxemarket/storefront-backend/pkg/types"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: logger.ParseLevel("debug"), Output: io.Discard})
}

// newRequest builds a request with chi URL params and, when userID is set,
// an authenticated identity.
func newRequest(method, target, body string, userID uuid.UUID, params map[string]string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	ctx := req.Context()
	if len(params) > 0 {
		routeCtx := chi.NewRouteContext()
		for k, v := range params {
			routeCtx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, routeCtx)
	}
	if userID != uuid.Nil {
		ctx = middleware.WithIdentity(ctx, userID, enums.RoleUser, "access-1")
	}
	return req.WithContext(ctx)
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) types.ErrorEnvelope {
	t.Helper()
	var env types.ErrorEnvelope
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	return env
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{}
	cfg.App.Env = "test"

	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	rec := serve(HealthReady(cfg, testLogger(), map[string]Pinger{"db": ok, "redis": ok}), httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test", rec.Header().Get("X-LuxeMarket-Env"))

	rec = serve(HealthReady(cfg, testLogger(), map[string]Pinger{"db": ok, "redis": down}), httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	env := decodeError(t, rec)
	assert.Equal(t, string(pkgerrors.CodeDependency), env.Error.Code)
	assert.Equal(t, map[string]any{"redis": "connection refused"}, env.Error.Details)
}

func TestSizingRecommend(t *testing.T) {
	rec := serve(SizingRecommend(testLogger()), newRequest(http.MethodPost, "/api/v1/ups/recommend", `{"loadWatts":600,"backupHours":2}`, uuid.Nil, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"loadWatts":600,"backupHours":2,"wattHours":1200,"batteryAh":100,"voltage":12}}`, rec.Body.String())

	rec = serve(SizingRecommend(testLogger()), newRequest(http.MethodPost, "/api/v1/ups/recommend", `{"loadWatts":0,"backupHours":2}`, uuid.Nil, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequireUserRejectsAnonymous(t *testing.T) {
	handlers := map[string]http.HandlerFunc{
		"cart":         CartGet(&stubCart{}, testLogger()),
		"checkout":     CheckoutBegin(&stubCheckout{}, testLogger()),
		"installation": InstallationsMine(stubInstallations{}, testLogger()),
	}
	for name, h := range handlers {
		t.Run(name, func(t *testing.T) {
			rec := serve(h, newRequest(http.MethodGet, "/", "", uuid.Nil, nil))
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestNilServiceIsInternalError(t *testing.T) {
	rec := serve(ProductList(nil, testLogger()), newRequest(http.MethodGet, "/api/v1/products", "", uuid.Nil, nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestDecimalBodyAccepted(t *testing.T) {
	var body productRequest
	require.NoError(t, json.Unmarshal([]byte(`{"name":"x","price":"149.99","category":"inverter"}`), &body))
	input, err := body.toInput()
	require.NoError(t, err)
	assert.True(t, input.Price.Equal(decimal.RequireFromString("149.99")))
	assert.Equal(t, enums.ProductCategoryInverter, input.Category)
}

func TestAuthRegisterSetsTokenHeader(t *testing.T) {
	body := `{"name":"Ada","email":"ada@example.com","password":"s3cret-pass"}`
	rec := serve(AuthRegister(&stubAuth{}, testLogger()), newRequest(http.MethodPost, "/api/v1/auth/register", body, uuid.Nil, nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "access", rec.Header().Get(tokenHeader))
}

func TestAuthLoginRejectsUnknownFields(t *testing.T) {
	body := `{"email":"ada@example.com","password":"x","remember":true}`
	rec := serve(AuthLogin(&stubAuth{}, testLogger()), newRequest(http.MethodPost, "/api/v1/auth/login", body, uuid.Nil, nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
