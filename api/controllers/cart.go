package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/luxemarket/storefront-backend/api/responses"
	"github.com/luxemarket/storefront-backend/api/validators"
	"github.com/luxemarket/storefront-backend/internal/cart"
	"github.com/luxemarket/storefront-backend/internal/sessions"
	"github.com/luxemarket/storefront-backend/pkg/logger"
)

// CartService is the subset of sessions.CartService the handlers use.
type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (cart.State, error)
	Add(ctx context.Context, userID, productID uuid.UUID) (sessions.CartResult, error)
	Remove(ctx context.Context, userID, productID uuid.UUID) (sessions.CartResult, error)
	Delete(ctx context.Context, userID, productID uuid.UUID) (sessions.CartResult, error)
	Clear(ctx context.Context, userID uuid.UUID) (sessions.CartResult, error)
}

type addCartItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
}

func CartGet(svc CartService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("cart", logg)
	}
	return endpoint(logg, http.StatusOK, func(r *http.Request) (cart.State, error) {
		userID, err := requireUser(r)
		if err != nil {
			return cart.State{}, err
		}
		return svc.Get(r.Context(), userID)
	})
}

// CartAdd adds one unit of the product in the body.
func CartAdd(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, userID uuid.UUID) (sessions.CartResult, error) {
		body, err := decode[addCartItemRequest](r)
		if err != nil {
			return sessions.CartResult{}, err
		}
		return svc.Add(r.Context(), userID, body.ProductID)
	})
}

// CartRemove takes one unit off the line, dropping it at zero.
func CartRemove(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, userID uuid.UUID) (sessions.CartResult, error) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			return sessions.CartResult{}, err
		}
		return svc.Remove(r.Context(), userID, productID)
	})
}

// CartDelete drops the whole line.
func CartDelete(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, userID uuid.UUID) (sessions.CartResult, error) {
		productID, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			return sessions.CartResult{}, err
		}
		return svc.Delete(r.Context(), userID, productID)
	})
}

func CartClear(svc CartService, logg *logger.Logger) http.HandlerFunc {
	return cartHandler(svc, logg, func(r *http.Request, userID uuid.UUID) (sessions.CartResult, error) {
		return svc.Clear(r.Context(), userID)
	})
}

// cartHandler writes the cart with whatever notices op produced, on
// success and failure alike.
func cartHandler(svc CartService, logg *logger.Logger, op func(r *http.Request, userID uuid.UUID) (sessions.CartResult, error)) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("cart", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := op(r, userID)
		notices := sessions.ResponseNotices(result.Notices)
		if err != nil {
			responses.WriteErrorWithNotices(r.Context(), logg, w, err, notices)
			return
		}
		responses.WriteWithNotices(w, http.StatusOK, result.Cart, notices)
	}
}
