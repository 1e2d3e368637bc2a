package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/luxemarket/storefront-backend/api/responses"
	"github.com/luxemarket/storefront-backend/internal/checkout"
	"github.com/luxemarket/storefront-backend/internal/sessions"
	"github.com/luxemarket/storefront-backend/pkg/logger"
)

// CheckoutService is the subset of sessions.CheckoutRegistry the handlers use.
type CheckoutService interface {
	Begin(ctx context.Context, userID uuid.UUID) (sessions.CheckoutView, error)
	State(ctx context.Context, userID uuid.UUID) (sessions.CheckoutView, error)
	SetShipping(ctx context.Context, userID uuid.UUID, info checkout.ShippingInfo) (sessions.CheckoutView, error)
	SetPayment(ctx context.Context, userID uuid.UUID, info checkout.PaymentInfo) (sessions.CheckoutView, error)
	Advance(ctx context.Context, userID uuid.UUID) (sessions.CheckoutView, error)
	Retreat(ctx context.Context, userID uuid.UUID) (sessions.CheckoutView, error)
	Submit(ctx context.Context, userID uuid.UUID) (sessions.CheckoutView, error)
	Cancel(userID uuid.UUID)
}

// Form fields are stored as typed; completeness is checked when advancing.
type shippingRequest struct {
	FirstName string `json:"firstName" validate:"max=100"`
	LastName  string `json:"lastName" validate:"max=100"`
	Email     string `json:"email" validate:"max=255"`
	Address   string `json:"address" validate:"max=255"`
	City      string `json:"city" validate:"max=100"`
	State     string `json:"state" validate:"max=100"`
	ZipCode   string `json:"zipCode" validate:"max=20"`
}

type paymentRequest struct {
	CardNumber string `json:"cardNumber" validate:"max=32"`
	NameOnCard string `json:"nameOnCard" validate:"max=120"`
	Expiry     string `json:"expiry" validate:"max=7"`
	CVV        string `json:"cvv" validate:"max=4"`
}

func CheckoutBegin(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(svc, logg, http.StatusOK, func(r *http.Request, userID uuid.UUID) (sessions.CheckoutView, error) {
		return svc.Begin(r.Context(), userID)
	})
}

func CheckoutState(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(svc, logg, http.StatusOK, func(r *http.Request, userID uuid.UUID) (sessions.CheckoutView, error) {
		return svc.State(r.Context(), userID)
	})
}

func CheckoutShipping(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(svc, logg, http.StatusOK, func(r *http.Request, userID uuid.UUID) (sessions.CheckoutView, error) {
		body, err := decode[shippingRequest](r)
		if err != nil {
			return sessions.CheckoutView{}, err
		}
		return svc.SetShipping(r.Context(), userID, checkout.ShippingInfo(body))
	})
}

func CheckoutPayment(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(svc, logg, http.StatusOK, func(r *http.Request, userID uuid.UUID) (sessions.CheckoutView, error) {
		body, err := decode[paymentRequest](r)
		if err != nil {
			return sessions.CheckoutView{}, err
		}
		return svc.SetPayment(r.Context(), userID, checkout.PaymentInfo(body))
	})
}

func CheckoutAdvance(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(svc, logg, http.StatusOK, func(r *http.Request, userID uuid.UUID) (sessions.CheckoutView, error) {
		return svc.Advance(r.Context(), userID)
	})
}

func CheckoutRetreat(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(svc, logg, http.StatusOK, func(r *http.Request, userID uuid.UUID) (sessions.CheckoutView, error) {
		return svc.Retreat(r.Context(), userID)
	})
}

// CheckoutSubmit places the order from the final step. A placed order is
// returned with 201; the session ends once the redirect fires.
func CheckoutSubmit(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	return checkoutHandler(svc, logg, http.StatusCreated, func(r *http.Request, userID uuid.UUID) (sessions.CheckoutView, error) {
		return svc.Submit(r.Context(), userID)
	})
}

func CheckoutCancel(svc CheckoutService, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("checkout", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		svc.Cancel(userID)
		responses.WriteNoContent(w)
	}
}

func checkoutHandler(svc CheckoutService, logg *logger.Logger, status int, op func(r *http.Request, userID uuid.UUID) (sessions.CheckoutView, error)) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("checkout", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := op(r, userID)
		notices := sessions.ResponseNotices(view.Notices)
		if err != nil {
			responses.WriteErrorWithNotices(r.Context(), logg, w, err, notices)
			return
		}
		responses.WriteWithNotices(w, status, view, notices)
	}
}
