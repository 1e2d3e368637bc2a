package controllers

import (
	"net/http"

	"github.com/luxemarket/storefront-backend/api/middleware"
	"github.com/luxemarket/storefront-backend/api/validators"
	"github.com/luxemarket/storefront-backend/internal/orders"
	"github.com/luxemarket/storefront-backend/pkg/enums"
	"github.com/luxemarket/storefront-backend/pkg/logger"
)

func actorFrom(r *http.Request) (orders.Actor, error) {
	userID, err := requireUser(r)
	if err != nil {
		return orders.Actor{}, err
	}
	return orders.Actor{UserID: userID, Role: middleware.RoleFromContext(r.Context())}, nil
}

// orderEndpoint resolves the actor before fn runs.
func orderEndpoint[Out any](logg *logger.Logger, status int, fn func(r *http.Request, actor orders.Actor) (Out, error)) http.HandlerFunc {
	return endpoint(logg, status, func(r *http.Request) (Out, error) {
		actor, err := actorFrom(r)
		if err != nil {
			var zero Out
			return zero, err
		}
		return fn(r, actor)
	})
}

// OrderPlace accepts a complete order payload from clients that run their
// own checkout.
func OrderPlace(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("order", logg)
	}
	return orderEndpoint(logg, http.StatusCreated, func(r *http.Request, actor orders.Actor) (*orders.OrderDTO, error) {
		in, err := decode[orders.PlaceOrderRequest](r)
		if err != nil {
			return nil, err
		}
		return svc.Place(r.Context(), actor, in)
	})
}

func OrdersMine(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("order", logg)
	}
	return orderEndpoint(logg, http.StatusOK, func(r *http.Request, actor orders.Actor) (any, error) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			return nil, err
		}
		return svc.Mine(r.Context(), actor, params)
	})
}

func OrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("order", logg)
	}
	return orderEndpoint(logg, http.StatusOK, func(r *http.Request, actor orders.Actor) (*orders.OrderDTO, error) {
		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			return nil, err
		}
		return svc.Get(r.Context(), actor, id)
	})
}

func AdminOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("order", logg)
	}
	return endpoint(logg, http.StatusOK, func(r *http.Request) (any, error) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			return nil, err
		}
		status, err := statusFilter(r, enums.ParseOrderStatus)
		if err != nil {
			return nil, err
		}
		return svc.AdminList(r.Context(), status, params)
	})
}

func AdminOrderStatus(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("order", logg)
	}
	return orderEndpoint(logg, http.StatusOK, func(r *http.Request, actor orders.Actor) (*orders.OrderDTO, error) {
		id, err := validators.ParseUUIDParam(r, "orderId")
		if err != nil {
			return nil, err
		}
		in, err := decode[orders.UpdateStatusRequest](r)
		if err != nil {
			return nil, err
		}
		return svc.UpdateStatus(r.Context(), actor, id, in.Status)
	})
}
