package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockhub-backend/api/responses"
	"github.com/angelmondragon/stockhub-backend/api/validators"
	"github.com/angelmondragon/stockhub-backend/internal/companyctx"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
	"github.com/angelmondragon/stockhub-backend/pkg/logger"
)

// CompanyContextService is the selection surface used by the context endpoints.
type CompanyContextService interface {
	ValidateAndRestore(ctx context.Context, userID uuid.UUID) (companyctx.Selection, error)
	Switch(ctx context.Context, userID, companyID uuid.UUID) (companyctx.Selection, error)
	Clear(ctx context.Context, userID uuid.UUID) error
}

type switchCompanyRequest struct {
	CompanyID uuid.UUID `json:"company_id" validate:"required"`
}

// CompanyContextCurrent revalidates the stored selection, auto-selecting the
// first accessible company when none is usable.
func CompanyContextCurrent(svc CompanyContextService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "company context unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		selection, err := svc.ValidateAndRestore(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, selection)
	}
}

// CompanyContextSwitch selects the caller's current company.
func CompanyContextSwitch(svc CompanyContextService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "company context unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body switchCompanyRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		selection, err := svc.Switch(r.Context(), userID, body.CompanyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, selection)
	}
}

// CompanyContextClear drops the caller's current company selection.
func CompanyContextClear(svc CompanyContextService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "company context unavailable"))
			return
		}
		userID, err := requireUser(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Clear(r.Context(), userID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}
