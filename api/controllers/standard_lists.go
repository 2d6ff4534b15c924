package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/stockhub-backend/api/responses"
	"github.com/angelmondragon/stockhub-backend/api/validators"
	"github.com/angelmondragon/stockhub-backend/internal/standardlists"
	"github.com/angelmondragon/stockhub-backend/internal/withdrawals"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
	"github.com/angelmondragon/stockhub-backend/pkg/logger"
	"github.com/angelmondragon/stockhub-backend/pkg/types"
)

type listEntryRequest struct {
	ItemID   uuid.UUID       `json:"item_id" validate:"required"`
	Quantity decimal.Decimal `json:"quantity"`
}

type listCreateRequest struct {
	Name        string             `json:"name" validate:"required,min=1,max=255"`
	Description *string            `json:"description,omitempty"`
	Entries     []listEntryRequest `json:"items" validate:"dive"`
}

type listUpdateRequest struct {
	Name        *string              `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description types.NullableString `json:"description,omitempty"`
	Entries     []listEntryRequest   `json:"items,omitempty" validate:"omitempty,dive"`
}

func toEntryInputs(entries []listEntryRequest) []standardlists.EntryInput {
	if entries == nil {
		return nil
	}
	out := make([]standardlists.EntryInput, 0, len(entries))
	for _, entry := range entries {
		out = append(out, standardlists.EntryInput{ItemID: entry.ItemID, Quantity: entry.Quantity})
	}
	return out
}

// StandardListList lists the current company's standard lists.
func StandardListList(svc standardlists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "standard list service unavailable"))
			return
		}
		scope, err := requireScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := pageParams(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := svc.List(r.Context(), scope, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, page)
	}
}

// StandardListGet returns a standard list with its entries.
func StandardListGet(svc standardlists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "standard list service unavailable"))
			return
		}
		scope, err := requireScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseURLUUID(r, "listId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.Get(r.Context(), scope, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// StandardListCreate creates a standard list with its entries.
func StandardListCreate(svc standardlists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "standard list service unavailable"))
			return
		}
		scope, err := requireScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body listCreateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Create(r.Context(), scope, standardlists.CreateInput{
			Name:        validators.SanitizeString(body.Name, 255),
			Description: body.Description,
			Entries:     toEntryInputs(body.Entries),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// StandardListUpdate renames a list and, when items is present, replaces
// every entry.
func StandardListUpdate(svc standardlists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "standard list service unavailable"))
			return
		}
		scope, err := requireScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseURLUUID(r, "listId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body listUpdateRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		updated, err := svc.Update(r.Context(), scope, id, standardlists.UpdateInput{
			Name:        body.Name,
			Description: body.Description,
			Entries:     toEntryInputs(body.Entries),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, updated)
	}
}

// StandardListDelete removes a standard list.
func StandardListDelete(svc standardlists.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "standard list service unavailable"))
			return
		}
		scope, err := requireScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseURLUUID(r, "listId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), scope, id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteNoContent(w)
	}
}

// StandardListWithdraw withdraws every entry of a list or nothing. A
// shortage is answered with 422 and the full shortage report.
func StandardListWithdraw(executor withdrawals.Executor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if executor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawal executor unavailable"))
			return
		}
		scope, err := requireScope(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		id, err := validators.ParseURLUUID(r, "listId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := executor.ExecuteBulkWithdraw(r.Context(), scope, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if result.Status == enums.WithdrawalInsufficientStock {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInsufficient, "insufficient stock").WithDetails(map[string]any{
				"list_id":   result.ListID,
				"shortages": result.Shortages,
			}))
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
