package controllers

import (
	"net/http"

	"github.com/luxemarket/storefront-backend/api/validators"
	"github.com/luxemarket/storefront-backend/internal/exchange"
	"github.com/luxemarket/storefront-backend/pkg/logger"
)

// ExchangeEstimate is public so shoppers can price a trade-in before
// signing in.
func ExchangeEstimate(svc exchange.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("exchange", logg)
	}
	return endpoint(logg, http.StatusOK, func(r *http.Request) (exchange.EstimateResult, error) {
		in, err := decode[exchange.EstimateInput](r)
		if err != nil {
			return exchange.EstimateResult{}, err
		}
		return svc.Estimate(r.Context(), in)
	})
}

func ExchangeCreate(svc exchange.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("exchange", logg)
	}
	return endpoint(logg, http.StatusCreated, func(r *http.Request) (*exchange.RequestDTO, error) {
		userID, err := requireUser(r)
		if err != nil {
			return nil, err
		}
		in, err := decode[exchange.CreateInput](r)
		if err != nil {
			return nil, err
		}
		return svc.Create(r.Context(), userID, in)
	})
}

func AdminExchangeRequests(svc exchange.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("exchange", logg)
	}
	return endpoint(logg, http.StatusOK, func(r *http.Request) (any, error) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			return nil, err
		}
		return svc.List(r.Context(), params)
	})
}
