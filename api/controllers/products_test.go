package controllers

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luxemarket/storefront-backend/pkg/enums"
	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
)

func TestProductListParsesFilters(t *testing.T) {
	svc := &stubProducts{}
	req := newRequest(http.MethodGet, "/api/v1/products?category=ups%20-%20home&q=smart&minPrice=100&maxPrice=500.50&inStock=true&limit=5", "", uuid.Nil, nil)

	rec := serve(ProductList(svc, testLogger()), req)
	require.Equal(t, http.StatusOK, rec.Code)

	filter := svc.listInput.Filter
	require.NotNil(t, filter.Category)
	assert.Equal(t, enums.ProductCategoryUPSHome, *filter.Category)
	assert.Equal(t, "smart", filter.Query)
	require.NotNil(t, filter.MinPrice)
	assert.Equal(t, "100", filter.MinPrice.String())
	require.NotNil(t, filter.MaxPrice)
	assert.Equal(t, "500.5", filter.MaxPrice.String())
	assert.True(t, filter.InStock)
	assert.Equal(t, 5, svc.listInput.Limit)
}

func TestProductListRejectsBadInput(t *testing.T) {
	cases := map[string]string{
		"unknown category": "/api/v1/products?category=solar",
		"negative price":   "/api/v1/products?minPrice=-1",
		"bad bool":         "/api/v1/products?inStock=maybe",
		"limit too large":  "/api/v1/products?limit=1000",
	}
	for name, target := range cases {
		t.Run(name, func(t *testing.T) {
			rec := serve(ProductList(&stubProducts{}, testLogger()), newRequest(http.MethodGet, target, "", uuid.Nil, nil))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestProductDetail(t *testing.T) {
	id := uuid.New()

	rec := serve(ProductDetail(&stubProducts{}, testLogger()), newRequest(http.MethodGet, "/", "", uuid.Nil, map[string]string{"productId": "nope"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	missing := &stubProducts{err: pkgerrors.New(pkgerrors.CodeNotFound, "product not found")}
	rec = serve(ProductDetail(missing, testLogger()), newRequest(http.MethodGet, "/", "", uuid.Nil, map[string]string{"productId": id.String()}))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(ProductDetail(&stubProducts{}, testLogger()), newRequest(http.MethodGet, "/", "", uuid.Nil, map[string]string{"productId": id.String()}))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id.String())
}

func TestAdminProductCreate(t *testing.T) {
	body := `{"name":"Smart UPS","price":"199.00","category":"UPS - Office","stock":4,"discount":10}`
	rec := serve(AdminProductCreate(&stubProducts{}, testLogger()), newRequest(http.MethodPost, "/", body, uuid.New(), nil))
	assert.Equal(t, http.StatusCreated, rec.Code)

	bad := `{"name":"Smart UPS","price":"199.00","category":"UPS - Office","discount":120}`
	rec = serve(AdminProductCreate(&stubProducts{}, testLogger()), newRequest(http.MethodPost, "/", bad, uuid.New(), nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	env := decodeError(t, rec)
	assert.Equal(t, string(pkgerrors.CodeValidation), env.Error.Code)
}

func TestAdminProductUpdateLeavesOmittedFields(t *testing.T) {
	svc := &stubProducts{}
	id := uuid.New()
	rec := serve(AdminProductUpdate(svc, testLogger()), newRequest(http.MethodPatch, "/", `{"stock":0,"category":"accessories"}`, uuid.New(), map[string]string{"productId": id.String()}))
	require.Equal(t, http.StatusOK, rec.Code)

	require.NotNil(t, svc.update.Stock)
	assert.Equal(t, 0, *svc.update.Stock)
	require.NotNil(t, svc.update.Category)
	assert.Equal(t, enums.ProductCategoryAccessories, *svc.update.Category)
	assert.Nil(t, svc.update.Name)
	assert.Nil(t, svc.update.Price)
}

func TestAdminProductDelete(t *testing.T) {
	svc := &stubProducts{}
	id := uuid.New()
	rec := serve(AdminProductDelete(svc, testLogger()), newRequest(http.MethodDelete, "/", "", uuid.New(), map[string]string{"productId": id.String()}))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, id, svc.deleted)
}
