package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/indyhub/exchange-backend/api/middleware"
	"github.com/indyhub/exchange-backend/internal/orders"
	pkgerrors "github.com/indyhub/exchange-backend/pkg/errors"
)

// actorFromRequest reconstructs the acting user from the auth middleware
// context.
func actorFromRequest(r *http.Request) (orders.Actor, error) {
	userID, err := uuid.Parse(middleware.UserIDFromContext(r.Context()))
	if err != nil || userID == uuid.Nil {
		return orders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	corporationID := middleware.CorporationIDFromContext(r.Context())
	if corporationID == 0 {
		return orders.Actor{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "corporation context missing")
	}
	return orders.Actor{
		UserID:        userID,
		CorporationID: corporationID,
		Role:          middleware.CharacterNameFromContext(r.Context()),
	}, nil
}

func uuidParam(r *http.Request, name string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid identifier").
			WithDetails(map[string]any{"param": name})
	}
	return id, nil
}

func int64Param(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "identifier must be a positive integer").
			WithDetails(map[string]any{"param": name})
	}
	return value, nil
}

func queryLimit(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer")
	}
	return value, nil
}

func queryBool(r *http.Request, key string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return false, nil
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "invalid boolean query parameter").
			WithDetails(map[string]any{"param": key})
	}
	return value, nil
}
