package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockhub-backend/api/middleware"
	"github.com/angelmondragon/stockhub-backend/api/validators"
	"github.com/angelmondragon/stockhub-backend/internal/permissions"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
	"github.com/angelmondragon/stockhub-backend/pkg/pagination"
)

func requireUser(r *http.Request) (uuid.UUID, error) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == uuid.Nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return userID, nil
}

func requireScope(r *http.Request) (permissions.Scope, error) {
	scope, ok := middleware.ScopeFromContext(r.Context())
	if !ok {
		return permissions.Scope{}, pkgerrors.New(pkgerrors.CodeValidation, "no company selected")
	}
	return scope, nil
}

func pageParams(r *http.Request) (pagination.Params, error) {
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Params{}, err
	}
	return pagination.Params{
		Limit:  limit,
		Cursor: r.URL.Query().Get("cursor"),
	}, nil
}
