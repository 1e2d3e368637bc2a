package controllers

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/luxemarket/storefront-backend/internal/auth"
	"github.com/luxemarket/storefront-backend/internal/cart"
	"github.com/luxemarket/storefront-backend/internal/checkout"
	"github.com/luxemarket/storefront-backend/internal/installations"
	"github.com/luxemarket/storefront-backend/internal/orders"
	"github.com/luxemarket/storefront-backend/internal/products"
	"github.com/luxemarket/storefront-backend/internal/sessions"
	"github.com/luxemarket/storefront-backend/internal/users"
	"github.com/luxemarket/storefront-backend/pkg/enums"
	"github.com/luxemarket/storefront-backend/pkg/pagination"
)

type stubProducts struct {
	listInput products.ListInput
	update    products.UpdateInput
	deleted   uuid.UUID
	err       error
}

func (s *stubProducts) List(_ context.Context, input products.ListInput) (pagination.Page[products.ProductDTO], error) {
	s.listInput = input
	return pagination.Page[products.ProductDTO]{Items: []products.ProductDTO{}}, s.err
}

func (s *stubProducts) Get(_ context.Context, id uuid.UUID) (*products.ProductDTO, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &products.ProductDTO{ID: id, Name: "Smart UPS 1500VA"}, nil
}

func (s *stubProducts) Related(context.Context, uuid.UUID) ([]products.ProductDTO, error) {
	return []products.ProductDTO{}, s.err
}

func (s *stubProducts) Create(_ context.Context, input products.ProductInput) (*products.ProductDTO, error) {
	return &products.ProductDTO{ID: uuid.New(), Name: input.Name, Price: input.Price, Category: input.Category}, s.err
}

func (s *stubProducts) Update(_ context.Context, id uuid.UUID, input products.UpdateInput) (*products.ProductDTO, error) {
	s.update = input
	return &products.ProductDTO{ID: id}, s.err
}

func (s *stubProducts) Delete(_ context.Context, id uuid.UUID) error {
	s.deleted = id
	return s.err
}

type stubCart struct {
	removed uuid.UUID
	result  sessions.CartResult
	err     error
}

func (s *stubCart) Get(context.Context, uuid.UUID) (cart.State, error) { return cart.Empty(), s.err }

func (s *stubCart) Add(context.Context, uuid.UUID, uuid.UUID) (sessions.CartResult, error) {
	return s.result, s.err
}

func (s *stubCart) Remove(_ context.Context, _ uuid.UUID, productID uuid.UUID) (sessions.CartResult, error) {
	s.removed = productID
	return s.result, s.err
}

func (s *stubCart) Delete(context.Context, uuid.UUID, uuid.UUID) (sessions.CartResult, error) {
	return s.result, s.err
}

func (s *stubCart) Clear(context.Context, uuid.UUID) (sessions.CartResult, error) {
	return s.result, s.err
}

type stubCheckout struct {
	shipping  checkout.ShippingInfo
	cancelled uuid.UUID
	view      sessions.CheckoutView
	err       error
}

func (s *stubCheckout) Begin(context.Context, uuid.UUID) (sessions.CheckoutView, error) {
	return s.view, s.err
}

func (s *stubCheckout) State(context.Context, uuid.UUID) (sessions.CheckoutView, error) {
	return s.view, s.err
}

func (s *stubCheckout) SetShipping(_ context.Context, _ uuid.UUID, info checkout.ShippingInfo) (sessions.CheckoutView, error) {
	s.shipping = info
	return s.view, s.err
}

func (s *stubCheckout) SetPayment(context.Context, uuid.UUID, checkout.PaymentInfo) (sessions.CheckoutView, error) {
	return s.view, s.err
}

func (s *stubCheckout) Advance(context.Context, uuid.UUID) (sessions.CheckoutView, error) {
	return s.view, s.err
}

func (s *stubCheckout) Retreat(context.Context, uuid.UUID) (sessions.CheckoutView, error) {
	return s.view, s.err
}

func (s *stubCheckout) Submit(context.Context, uuid.UUID) (sessions.CheckoutView, error) {
	return s.view, s.err
}

func (s *stubCheckout) Cancel(userID uuid.UUID) { s.cancelled = userID }

type stubOrders struct {
	actor  orders.Actor
	status *enums.OrderStatus
	err    error
}

func (s *stubOrders) Place(_ context.Context, actor orders.Actor, req orders.PlaceOrderRequest) (*orders.OrderDTO, error) {
	s.actor = actor
	if s.err != nil {
		return nil, s.err
	}
	return &orders.OrderDTO{ID: uuid.New(), TotalPrice: req.TotalPrice}, nil
}

func (s *stubOrders) Mine(_ context.Context, actor orders.Actor, _ pagination.Params) (pagination.Page[orders.OrderDTO], error) {
	s.actor = actor
	return pagination.Page[orders.OrderDTO]{Items: []orders.OrderDTO{}}, s.err
}

func (s *stubOrders) Get(_ context.Context, actor orders.Actor, id uuid.UUID) (*orders.OrderDTO, error) {
	s.actor = actor
	if s.err != nil {
		return nil, s.err
	}
	return &orders.OrderDTO{ID: id, TotalPrice: decimal.NewFromInt(10)}, nil
}

func (s *stubOrders) AdminList(_ context.Context, status *enums.OrderStatus, _ pagination.Params) (pagination.Page[orders.OrderDTO], error) {
	s.status = status
	return pagination.Page[orders.OrderDTO]{Items: []orders.OrderDTO{}}, s.err
}

func (s *stubOrders) UpdateStatus(_ context.Context, actor orders.Actor, id uuid.UUID, status enums.OrderStatus) (*orders.OrderDTO, error) {
	s.actor = actor
	s.status = &status
	return &orders.OrderDTO{ID: id, Status: status}, s.err
}

type stubInstallations struct{}

func (stubInstallations) Create(context.Context, uuid.UUID, installations.CreateInput) (*installations.RequestDTO, error) {
	return &installations.RequestDTO{}, nil
}

func (stubInstallations) Mine(context.Context, uuid.UUID) ([]installations.RequestDTO, error) {
	return []installations.RequestDTO{}, nil
}

func (stubInstallations) AdminList(context.Context, *enums.InstallationStatus, pagination.Params) (pagination.Page[installations.RequestDTO], error) {
	return pagination.Page[installations.RequestDTO]{}, nil
}

func (stubInstallations) UpdateStatus(_ context.Context, _ uuid.UUID, id uuid.UUID, status enums.InstallationStatus) (*installations.RequestDTO, error) {
	return &installations.RequestDTO{ID: id, Status: status}, nil
}

type stubAuth struct {
	loggedOut string
}

func (s *stubAuth) Register(context.Context, auth.RegisterRequest) (*auth.AuthResponse, error) {
	return &auth.AuthResponse{TokenPair: auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"}}, nil
}

func (s *stubAuth) Login(context.Context, auth.LoginRequest) (*auth.AuthResponse, error) {
	return &auth.AuthResponse{TokenPair: auth.TokenPair{AccessToken: "access", RefreshToken: "refresh"}}, nil
}

func (s *stubAuth) Refresh(context.Context, auth.RefreshRequest) (*auth.TokenPair, error) {
	return &auth.TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"}, nil
}

func (s *stubAuth) Logout(_ context.Context, accessID string) error {
	s.loggedOut = accessID
	return nil
}

func (s *stubAuth) Me(_ context.Context, userID uuid.UUID) (*users.UserDTO, error) {
	return &users.UserDTO{ID: userID}, nil
}
