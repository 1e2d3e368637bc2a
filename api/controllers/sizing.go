package controllers

import (
	"errors"
	"net/http"

	"github.com/luxemarket/storefront-backend/internal/sizing"
	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
	"github.com/luxemarket/storefront-backend/pkg/logger"
)

func SizingRecommend(logg *logger.Logger) http.HandlerFunc {
	return endpoint(logg, http.StatusOK, func(r *http.Request) (any, error) {
		in, err := decode[sizing.Input](r)
		if err != nil {
			return nil, err
		}
		rec, err := sizing.Recommend(in)
		if errors.Is(err, sizing.ErrInvalidLoad) || errors.Is(err, sizing.ErrInvalidBackup) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, err.Error())
		}
		return rec, err
	})
}
