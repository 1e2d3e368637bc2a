// Package storeapi is the HTTP client the terminal storefront uses to talk
// to the storefront API. Error envelopes come back as typed pkg/errors
// values carrying the server's code and message.
package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/luxemarket/storefront-backend/internal/auth"
	"github.com/luxemarket/storefront-backend/internal/checkout"
	"github.com/luxemarket/storefront-backend/internal/exchange"
	"github.com/luxemarket/storefront-backend/internal/orders"
	"github.com/luxemarket/storefront-backend/internal/products"
	"github.com/luxemarket/storefront-backend/internal/sizing"
	"github.com/luxemarket/storefront-backend/internal/users"
	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
	"github.com/luxemarket/storefront-backend/pkg/pagination"
	"github.com/luxemarket/storefront-backend/pkg/types"
)

const (
	DefaultBaseURL = "http://localhost:8080"
	apiPrefix      = "/api/v1"

	errorBodyReadLimit int64 = 4096
	defaultTimeout           = 15 * time.Second
)

// Client calls the storefront API. The zero value is not usable; build one
// with NewClient.
type Client struct {
	httpClient *http.Client
	baseURL    string
	newKey     func() string
}

type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithIdempotencyKeys overrides how order submissions are keyed.
func WithIdempotencyKeys(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.newKey = fn
		}
	}
}

func NewClient(baseURL string, opts ...Option) (*Client, error) {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if trimmed == "" {
		trimmed = DefaultBaseURL
	}
	if _, err := url.ParseRequestURI(trimmed); err != nil {
		return nil, fmt.Errorf("storeapi: invalid base url %q: %w", baseURL, err)
	}

	client := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    trimmed,
		newKey:     uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// ProductQuery mirrors the catalog filters. Zero values are omitted.
type ProductQuery struct {
	Query    string
	Category string
	MinPrice *decimal.Decimal
	MaxPrice *decimal.Decimal
	InStock  bool
	Limit    int
	Cursor   string
}

func (q ProductQuery) values() url.Values {
	v := url.Values{}
	if s := strings.TrimSpace(q.Query); s != "" {
		v.Set("q", s)
	}
	if s := strings.TrimSpace(q.Category); s != "" {
		v.Set("category", s)
	}
	if q.MinPrice != nil {
		v.Set("minPrice", q.MinPrice.String())
	}
	if q.MaxPrice != nil {
		v.Set("maxPrice", q.MaxPrice.String())
	}
	if q.InStock {
		v.Set("inStock", "true")
	}
	if q.Limit > 0 {
		v.Set("limit", fmt.Sprint(q.Limit))
	}
	if q.Cursor != "" {
		v.Set("cursor", q.Cursor)
	}
	return v
}

func (c *Client) ListProducts(ctx context.Context, q ProductQuery) (pagination.Page[products.ProductDTO], error) {
	var page pagination.Page[products.ProductDTO]
	err := c.do(ctx, request{method: http.MethodGet, path: "/products", query: q.values()}, &page)
	return page, err
}

func (c *Client) GetProduct(ctx context.Context, id string) (products.ProductDTO, error) {
	var product products.ProductDTO
	err := c.do(ctx, request{method: http.MethodGet, path: "/products/" + url.PathEscape(strings.TrimSpace(id))}, &product)
	return product, err
}

func (c *Client) RelatedProducts(ctx context.Context, id string) ([]products.ProductDTO, error) {
	var related []products.ProductDTO
	err := c.do(ctx, request{method: http.MethodGet, path: "/products/" + url.PathEscape(strings.TrimSpace(id)) + "/related"}, &related)
	return related, err
}

// Login exchanges credentials for a token pair.
func (c *Client) Login(ctx context.Context, email, password string) (auth.AuthResponse, error) {
	var out auth.AuthResponse
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   "/auth/login",
		body:   auth.LoginRequest{Email: email, Password: password},
	}, &out)
	return out, err
}

// Register is keyed so a retried sign-up replays the first response.
func (c *Client) Register(ctx context.Context, in auth.RegisterRequest) (auth.AuthResponse, error) {
	var out auth.AuthResponse
	err := c.do(ctx, request{
		method:         http.MethodPost,
		path:           "/auth/register",
		body:           in,
		idempotencyKey: c.newKey(),
	}, &out)
	return out, err
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/auth/logout", token: token}, nil)
}

func (c *Client) Me(ctx context.Context, token string) (users.UserDTO, error) {
	var user users.UserDTO
	err := c.do(ctx, request{method: http.MethodGet, path: "/auth/me", token: token}, &user)
	return user, err
}

// PlaceOrder satisfies checkout.OrderPlacer. Each call carries a fresh
// Idempotency-Key; the workflow's submit guard keeps it to one call per
// submission.
func (c *Client) PlaceOrder(ctx context.Context, submission checkout.OrderSubmission, credential string) (checkout.PlacedOrder, error) {
	var order orders.OrderDTO
	if err := c.do(ctx, request{
		method:         http.MethodPost,
		path:           "/orders",
		token:          credential,
		body:           submission,
		idempotencyKey: c.newKey(),
	}, &order); err != nil {
		return checkout.PlacedOrder{}, err
	}
	return checkout.PlacedOrder{
		OrderID:    order.ID.String(),
		Status:     string(order.Status),
		TotalPrice: order.TotalPrice,
	}, nil
}

func (c *Client) MyOrders(ctx context.Context, token string, limit int, cursor string) (pagination.Page[orders.OrderDTO], error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", fmt.Sprint(limit))
	}
	if cursor != "" {
		q.Set("cursor", cursor)
	}
	var page pagination.Page[orders.OrderDTO]
	err := c.do(ctx, request{method: http.MethodGet, path: "/orders", token: token, query: q}, &page)
	return page, err
}

func (c *Client) EstimateExchange(ctx context.Context, in exchange.EstimateInput) (exchange.EstimateResult, error) {
	var out exchange.EstimateResult
	err := c.do(ctx, request{method: http.MethodPost, path: "/exchange/estimate", body: in}, &out)
	return out, err
}

func (c *Client) RecommendUPS(ctx context.Context, in sizing.Input) (sizing.Recommendation, error) {
	var out sizing.Recommendation
	err := c.do(ctx, request{method: http.MethodPost, path: "/ups/recommend", body: in}, &out)
	return out, err
}

type request struct {
	method         string
	path           string
	query          url.Values
	token          string
	body           any
	idempotencyKey string
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "storefront client not configured")
	}

	target := c.baseURL + apiPrefix + req.path
	if len(req.query) > 0 {
		target += "?" + req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		payload, err := json.Marshal(req.body)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode request")
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, target, body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if req.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.token)
	}
	if req.idempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.idempotencyKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "storefront api unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if resp.StatusCode == http.StatusNoContent || out == nil {
		return nil
	}

	envelope := struct {
		Data any `json:"data"`
	}{Data: out}
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode response")
	}
	return nil
}

func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))

	var envelope types.ErrorEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error.Code == "" {
		return pkgerrors.Wrap(codeForStatus(resp.StatusCode),
			fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw))),
			http.StatusText(resp.StatusCode))
	}

	apiErr := pkgerrors.New(pkgerrors.Code(envelope.Error.Code), envelope.Error.Message)
	if envelope.Error.Details != nil {
		apiErr = apiErr.WithDetails(envelope.Error.Details)
	}
	return apiErr
}

func codeForStatus(status int) pkgerrors.Code {
	switch status {
	case http.StatusBadRequest:
		return pkgerrors.CodeValidation
	case http.StatusUnauthorized:
		return pkgerrors.CodeUnauthorized
	case http.StatusForbidden:
		return pkgerrors.CodeForbidden
	case http.StatusNotFound:
		return pkgerrors.CodeNotFound
	case http.StatusTooManyRequests:
		return pkgerrors.CodeRateLimit
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return pkgerrors.CodeDependency
	}
	return pkgerrors.CodeInternal
}

// IsUnauthorized reports whether the server rejected the credential.
func IsUnauthorized(err error) bool {
	return pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized)
}

var _ checkout.OrderPlacer = (*Client)(nil)

// ErrNotLoggedIn is returned by callers that need a token and have none.
var ErrNotLoggedIn = errors.New("not logged in; run `storefront login` first")
