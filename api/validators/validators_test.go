package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
)

type lineInput struct {
	Quantity int `json:"quantity" validate:"gte=1"`
}

type orderInput struct {
	Email string      `json:"email" validate:"required,email"`
	Items []lineInput `json:"items" validate:"required,min=1,dive"`
}

func TestDecodeJSONBodyValidates(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"nope","items":[{"quantity":0}]}`))
	var dest orderInput
	err := DecodeJSONBody(req, &dest)
	require.Error(t, err)

	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
	assert.Equal(t, map[string]string{
		"email":             "must be a valid email",
		"items[0].quantity": "must be 1 or more",
	}, typed.Details())
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.co","items":[{"quantity":1}],"admin":true}`))
	var dest orderInput
	err := DecodeJSONBody(req, &dest)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyEmpty(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(""))
	var dest orderInput
	err := DecodeJSONBody(req, &dest)
	require.Error(t, err)
	assert.Equal(t, "request body is required", pkgerrors.As(err).Message())
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=5&cursor=abc", nil)
	params, err := ParsePagination(req)
	require.NoError(t, err)
	assert.Equal(t, 5, params.Limit)
	assert.Equal(t, "abc", params.Cursor)

	req = httptest.NewRequest(http.MethodGet, "/?limit=500", nil)
	_, err = ParsePagination(req)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryDecimalAndBool(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?minPrice=10.50&inStock=true&maxPrice=-1", nil)
	min, err := ParseQueryDecimal(req, "minPrice")
	require.NoError(t, err)
	assert.Equal(t, "10.5", min.String())

	missing, err := ParseQueryDecimal(req, "other")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = ParseQueryDecimal(req, "maxPrice")
	assert.Error(t, err)

	inStock, err := ParseQueryBool(req, "inStock")
	require.NoError(t, err)
	assert.True(t, inStock)
}

func TestParseUUIDParam(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rc := chi.NewRouteContext()
	rc.URLParams.Add("id", "not-a-uuid")
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))

	_, err := ParseUUIDParam(req, "id")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestSearchTerm(t *testing.T) {
	assert.Equal(t, "ups", SearchTerm("  ups  ", 10))
	assert.Equal(t, "inver", SearchTerm("inverter", 5))
	assert.Equal(t, "home ups", SearchTerm("home \t\n  ups", 20))
	assert.Equal(t, "home", SearchTerm("home ups", 5))
	assert.Equal(t, "bad", SearchTerm("b\x00a\x07d", 0))
	assert.Equal(t, "ünï", SearchTerm("ünïcode", 3))
}
