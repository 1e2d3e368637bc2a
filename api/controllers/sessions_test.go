package controllers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxemarket/storefront-backend/internal/cart"
	"github.com/luxemarket/storefront-backend/internal/checkout"
	"github.com/luxemarket/storefront-backend/internal/sessions"
	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
)

func TestCartAddReturnsNotices(t *testing.T) {
	svc := &stubCart{result: sessions.CartResult{
		Cart: cart.Empty(),
		Notices: []cart.Notice{{
			Title:       "Added to cart",
			Description: "Smart UPS has been added to your cart.",
			Duration:    2 * time.Second,
			Severity:    cart.SeverityDefault,
		}},
	}}
	body := `{"productId":"` + uuid.NewString() + `"}`

	rec := serve(CartAdd(svc, testLogger()), newRequest(http.MethodPost, "/api/v1/cart/items", body, uuid.New(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"data": {"items": [], "totalItems": 0, "totalPrice": 0},
		"notices": [{"title": "Added to cart", "description": "Smart UPS has been added to your cart.", "durationMs": 2000, "severity": "default"}]
	}`, rec.Body.String())
}

func TestCartAddRequiresProduct(t *testing.T) {
	rec := serve(CartAdd(&stubCart{}, testLogger()), newRequest(http.MethodPost, "/api/v1/cart/items", `{}`, uuid.New(), nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCartRemoveUsesPathParam(t *testing.T) {
	svc := &stubCart{result: sessions.CartResult{Cart: cart.Empty()}}
	productID := uuid.New()
	rec := serve(CartRemove(svc, testLogger()), newRequest(http.MethodPost, "/", "", uuid.New(), map[string]string{"productId": productID.String()}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, productID, svc.removed)
	assert.NotContains(t, rec.Body.String(), "notices")
}

func TestCheckoutShippingPassesFormThrough(t *testing.T) {
	svc := &stubCheckout{view: sessions.CheckoutView{Cart: cart.Empty()}}
	body := `{"firstName":"Ada","lastName":"Lovelace","email":"ada@example.com","address":"1 Main St","city":"London","zipCode":"N1"}`

	rec := serve(CheckoutShipping(svc, testLogger()), newRequest(http.MethodPut, "/", body, uuid.New(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, checkout.ShippingInfo{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Address:   "1 Main St",
		City:      "London",
		ZipCode:   "N1",
	}, svc.shipping)
}

func TestCheckoutShippingAcceptsPartialForm(t *testing.T) {
	svc := &stubCheckout{view: sessions.CheckoutView{Cart: cart.Empty()}}
	rec := serve(CheckoutShipping(svc, testLogger()), newRequest(http.MethodPut, "/", `{"firstName":"Ada"}`, uuid.New(), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ada", svc.shipping.FirstName)
}

func TestCheckoutSubmitFailureCarriesNotices(t *testing.T) {
	svc := &stubCheckout{
		view: sessions.CheckoutView{Notices: []cart.Notice{{
			Title:    "Order failed",
			Severity: cart.SeverityDestructive,
		}}},
		err: pkgerrors.New(pkgerrors.CodeStateConflict, "cart is empty"),
	}

	rec := serve(CheckoutSubmit(svc, testLogger()), newRequest(http.MethodPost, "/", "", uuid.New(), nil))
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	var env struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
		Notices []struct {
			Title    string `json:"title"`
			Severity string `json:"severity"`
		} `json:"notices"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env))
	assert.Equal(t, string(pkgerrors.CodeStateConflict), env.Error.Code)
	require.Len(t, env.Notices, 1)
	assert.Equal(t, "Order failed", env.Notices[0].Title)
	assert.Equal(t, "destructive", env.Notices[0].Severity)
}

func TestCheckoutSubmitSuccessIsCreated(t *testing.T) {
	svc := &stubCheckout{view: sessions.CheckoutView{
		Snapshot: checkout.Snapshot{Complete: true, OrderID: "ord-1"},
		Cart:     cart.Empty(),
		Order:    &checkout.PlacedOrder{OrderID: "ord-1"},
	}}
	rec := serve(CheckoutSubmit(svc, testLogger()), newRequest(http.MethodPost, "/", "", uuid.New(), nil))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"orderId":"ord-1"`)
}

func TestCheckoutCancel(t *testing.T) {
	svc := &stubCheckout{}
	userID := uuid.New()
	rec := serve(CheckoutCancel(svc, testLogger()), newRequest(http.MethodDelete, "/", "", userID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, userID, svc.cancelled)
}
