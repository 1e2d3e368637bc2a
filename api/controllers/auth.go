package controllers

import (
	"context"
	"net/http"

	"github.com/luxemarket/storefront-backend/api/middleware"
	"github.com/luxemarket/storefront-backend/api/responses"
	"github.com/luxemarket/storefront-backend/internal/auth"
	pkgerrors "github.com/luxemarket/storefront-backend/pkg/errors"
	"github.com/luxemarket/storefront-backend/pkg/logger"
)

const tokenHeader = "X-LM-Token"

type bearer interface {
	BearerToken() string
}

// issue decodes an In, runs call, and returns the result with its access
// token copied into X-LM-Token.
func issue[In any, Out bearer](logg *logger.Logger, status int, call func(context.Context, In) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		in, err := decode[In](r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		out, err := call(r.Context(), in)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		w.Header().Set(tokenHeader, out.BearerToken())
		responses.WriteSuccessStatus(w, status, out)
	}
}

func AuthRegister(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("auth", logg)
	}
	return issue(logg, http.StatusCreated, svc.Register)
}

func AuthLogin(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("auth", logg)
	}
	return issue(logg, http.StatusOK, svc.Login)
}

// AuthRefresh is public: the access token in the body may already be expired.
func AuthRefresh(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("auth", logg)
	}
	return issue(logg, http.StatusOK, svc.Refresh)
}

func AuthLogout(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("auth", logg)
	}
	return func(w http.ResponseWriter, r *http.Request) {
		accessID := middleware.AccessIDFromContext(r.Context())
		if accessID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "session context missing"))
			return
		}
		if err := svc.Logout(r.Context(), accessID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

func AuthMe(svc auth.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("auth", logg)
	}
	return endpoint(logg, http.StatusOK, func(r *http.Request) (any, error) {
		userID, err := requireUser(r)
		if err != nil {
			return nil, err
		}
		return svc.Me(r.Context(), userID)
	})
}
