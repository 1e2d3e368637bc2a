package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/luxemarket/storefront-backend/api/middleware"
	"github.com/luxemarket/storefront-backend/api/responses"
	"github.com/luxemarket/storefront-backend/api/validators"
	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
	"github.com/luxemarket/storefront-backend/pkg/logger"
)

// endpoint writes fn's result in the success envelope with status, or its
// error in the error envelope.
func endpoint[Out any](logg *logger.Logger, status int, fn func(r *http.Request) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := fn(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, out)
	}
}

// decode reads and validates the JSON body as an In.
func decode[In any](r *http.Request) (In, error) {
	var in In
	err := validators.DecodeJSONBody(r, &in)
	return in, err
}

// unavailableHandler answers every request with INTERNAL_ERROR. Routes use
// it when their service was not wired.
func unavailableHandler(name string, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, unavailable(name))
	}
}

func unavailable(name string) error {
	return pkgerrors.New(pkgerrors.CodeInternal, name+" service unavailable")
}

func requireUser(r *http.Request) (uuid.UUID, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return userID, nil
}

// statusFilter parses ?status with parse; absent means no filter.
func statusFilter[T any](r *http.Request, parse func(string) (T, error)) (*T, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("status"))
	if raw == "" {
		return nil, nil
	}
	v, err := parse(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
	}
	return &v, nil
}
