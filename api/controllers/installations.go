package controllers

import (
	"net/http"

	"github.com/luxemarket/storefront-backend/api/validators"
	"github.com/luxemarket/storefront-backend/internal/installations"
	"github.com/luxemarket/storefront-backend/pkg/enums"
	"github.com/luxemarket/storefront-backend/pkg/logger"
)

func InstallationCreate(svc installations.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("installation", logg)
	}
	return endpoint(logg, http.StatusCreated, func(r *http.Request) (*installations.RequestDTO, error) {
		userID, err := requireUser(r)
		if err != nil {
			return nil, err
		}
		in, err := decode[installations.CreateInput](r)
		if err != nil {
			return nil, err
		}
		return svc.Create(r.Context(), userID, in)
	})
}

func InstallationsMine(svc installations.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("installation", logg)
	}
	return endpoint(logg, http.StatusOK, func(r *http.Request) ([]installations.RequestDTO, error) {
		userID, err := requireUser(r)
		if err != nil {
			return nil, err
		}
		return svc.Mine(r.Context(), userID)
	})
}

func AdminInstallations(svc installations.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("installation", logg)
	}
	return endpoint(logg, http.StatusOK, func(r *http.Request) (any, error) {
		params, err := validators.ParsePagination(r)
		if err != nil {
			return nil, err
		}
		status, err := statusFilter(r, enums.ParseInstallationStatus)
		if err != nil {
			return nil, err
		}
		return svc.AdminList(r.Context(), status, params)
	})
}

func AdminInstallationStatus(svc installations.Service, logg *logger.Logger) http.HandlerFunc {
	if svc == nil {
		return unavailableHandler("installation", logg)
	}
	return endpoint(logg, http.StatusOK, func(r *http.Request) (*installations.RequestDTO, error) {
		actorID, err := requireUser(r)
		if err != nil {
			return nil, err
		}
		id, err := validators.ParseUUIDParam(r, "installationId")
		if err != nil {
			return nil, err
		}
		in, err := decode[installations.UpdateStatusInput](r)
		if err != nil {
			return nil, err
		}
		return svc.UpdateStatus(r.Context(), actorID, id, in.Status)
	})
}
