package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxemarket/storefront-backend/internal/checkout"
	"github.com/luxemarket/storefront-backend/pkg/kv"
	"github.com/luxemarket/storefront-backend/pkg/storeapi"
)

const testProductID = "3f0c1e2a-6a51-4d0e-9d9b-6f6c3c1f0a11"

type fakeAPI struct {
	mu        sync.Mutex
	orders    []map[string]any
	keys      []string
	auth      []string
	loggedOut bool
}

func (f *fakeAPI) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/products/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != testProductID {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":{"code":"NOT_FOUND","message":"product not found"}}`)
			return
		}
		_, _ = io.WriteString(w, `{"data":{"id":"`+testProductID+`","name":"HomeGuard 1100VA","price":100,"salePrice":90,"discount":10,"category":"UPS - Home","stock":5,"inStock":true,"imageUrl":"/img/hg.jpg"}}`)
	})
	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"accessToken":"access-1","refreshToken":"refresh-1","user":{"email":"ana@example.com"}}}`)
	})
	mux.HandleFunc("POST /api/v1/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.loggedOut = true
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /api/v1/orders", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.orders = append(f.orders, body)
		f.keys = append(f.keys, r.Header.Get("Idempotency-Key"))
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.mu.Unlock()
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"data":{"id":"9a1b2c3d-0000-4000-8000-000000000001","status":"Processing","totalPrice":180}}`)
	})
	mux.HandleFunc("POST /api/v1/ups/recommend", func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"data":{"loadWatts":600,"backupHours":2,"wattHours":1200,"batteryAh":100,"voltage":12}}`)
	})
	return mux
}

type harness struct {
	api   *fakeAPI
	url   string
	state string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	api := &fakeAPI{}
	srv := httptest.NewServer(api.handler())
	t.Cleanup(srv.Close)
	return &harness{api: api, url: srv.URL, state: filepath.Join(t.TempDir(), "state.json")}
}

func (h *harness) run(stdin string, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd(strings.NewReader(stdin), &out)
	cmd.SetArgs(append([]string{"--api-url", h.url, "--state-file", h.state}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) stored(t *testing.T, key string) (string, bool) {
	t.Helper()
	store, err := kv.NewFileStore(h.state)
	require.NoError(t, err)
	value, ok, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	return value, ok
}

func TestCartCommandsPersistToStateFile(t *testing.T) {
	h := newHarness(t)

	out, err := h.run("", "cart", "add", testProductID)
	require.NoError(t, err)
	assert.Contains(t, out, "Added to cart")
	assert.Contains(t, out, "HomeGuard 1100VA has been added to your cart.")

	_, err = h.run("", "cart", "add", testProductID)
	require.NoError(t, err)

	out, err = h.run("", "cart", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "2 item(s), total 180.00")

	_, err = h.run("", "cart", "remove", testProductID)
	require.NoError(t, err)
	raw, ok := h.stored(t, kv.KeyCart)
	require.True(t, ok)
	assert.Contains(t, raw, `"quantity":1`)

	out, err = h.run("", "cart", "delete", testProductID)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed from cart")

	out, err = h.run("", "cart", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Your cart is empty.")
}

func TestCartAddUnknownProduct(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "cart", "add", "missing")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "product not found")
}

func TestCheckoutRequiresLogin(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "checkout")
	assert.ErrorIs(t, err, storeapi.ErrNotLoggedIn)
}

func TestCheckoutEmptyCartPointsToCatalog(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "login", "--email", "ana@example.com", "--password", "pw")
	require.NoError(t, err)

	out, err := h.run("", "checkout")
	assert.ErrorIs(t, err, checkout.ErrEmptyCart)
	assert.Contains(t, out, "storefront products list")
}

func TestCheckoutWithFlagsPlacesOrderAndClearsCart(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "login", "--email", "ana@example.com", "--password", "pw")
	require.NoError(t, err)
	for i := 0; i < 2; i++ {
		_, err = h.run("", "cart", "add", testProductID)
		require.NoError(t, err)
	}

	out, err := h.run("", "checkout", "--no-prompt",
		"--first-name", "Ana", "--last-name", "Diaz", "--email", "ana@example.com",
		"--address", "1 Main St", "--city", "Pune", "--zip", "411001")
	require.NoError(t, err)
	assert.Contains(t, out, "Order 9a1b2c3d-0000-4000-8000-000000000001 placed")
	assert.Contains(t, out, "Order placed successfully!")

	require.Len(t, h.api.orders, 1)
	assert.Equal(t, "Bearer access-1", h.api.auth[0])
	assert.NotEmpty(t, h.api.keys[0])
	assert.EqualValues(t, 180, h.api.orders[0]["totalPrice"])
	assert.Equal(t, map[string]any{"method": checkout.PaymentCashOnDelivery}, h.api.orders[0]["paymentInfo"])

	out, err = h.run("", "cart", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "Your cart is empty.")
}

func TestCheckoutPromptsForMissingFields(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "login", "--email", "ana@example.com", "--password", "pw")
	require.NoError(t, err)
	_, err = h.run("", "cart", "add", testProductID)
	require.NoError(t, err)

	answers := strings.Join([]string{"Ana", "Diaz", "ana@example.com", "1 Main St", "Pune", "411001",
		"4111 1111 1111 1234", "Ana Diaz", "12/29", "123"}, "\n") + "\n"
	out, err := h.run(answers, "checkout", "--with-payment")
	require.NoError(t, err)
	assert.Contains(t, out, "Missing Information")
	assert.Contains(t, out, "Card: **** 1234")

	require.Len(t, h.api.orders, 1)
	assert.Equal(t, map[string]any{"method": checkout.PaymentCard, "cardLast4": "1234"}, h.api.orders[0]["paymentInfo"])
}

func TestCheckoutNoPromptReportsMissingFields(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "login", "--email", "ana@example.com", "--password", "pw")
	require.NoError(t, err)
	_, err = h.run("", "cart", "add", testProductID)
	require.NoError(t, err)

	_, err = h.run("", "checkout", "--no-prompt", "--first-name", "Ana")
	var missing *checkout.ValidationError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, checkout.StepShipping, missing.Step)
	assert.Contains(t, missing.Fields, "zipCode")
	assert.Empty(t, h.api.orders)
}

func TestLogoutForgetsSession(t *testing.T) {
	h := newHarness(t)
	_, err := h.run("", "login", "--email", "ana@example.com", "--password", "pw")
	require.NoError(t, err)
	raw, ok := h.stored(t, kv.KeyToken)
	require.True(t, ok)
	assert.Contains(t, raw, "access-1")

	out, err := h.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed out.")
	assert.True(t, h.api.loggedOut)
	_, ok = h.stored(t, kv.KeyToken)
	assert.False(t, ok)

	out, err = h.run("", "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Not signed in.")
}

func TestUPSRecommend(t *testing.T) {
	h := newHarness(t)
	out, err := h.run("", "ups", "recommend", "--load", "600", "--hours", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Energy needed: 1200 Wh")
	assert.Contains(t, out, "Battery: 100 Ah at 12V")
}

func TestLoadSettingsFromConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "storefront.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api_url: http://shop.test\ncheckout:\n  include_payment: true\ntimeout: 3s\n"), 0o600))

	s, err := loadSettings(viper.New(), path)
	require.NoError(t, err)
	assert.Equal(t, "http://shop.test", s.APIURL)
	assert.True(t, s.IncludePayment)
	assert.Equal(t, "3s", s.Timeout.String())
}

func TestLoadSettingsEnvOverridesDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("STOREFRONT_API_URL", "http://env.test")
	t.Setenv("STOREFRONT_CHECKOUT_INCLUDE_PAYMENT", "true")

	s, err := loadSettings(viper.New(), "")
	require.NoError(t, err)
	assert.Equal(t, "http://env.test", s.APIURL)
	assert.True(t, s.IncludePayment)
	assert.True(t, strings.HasSuffix(s.StateFile, filepath.Join(".luxemarket", "state.json")))
}

func TestLoadSettingsMissingExplicitConfig(t *testing.T) {
	_, err := loadSettings(viper.New(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}
