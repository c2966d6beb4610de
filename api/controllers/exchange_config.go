package controllers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/indyhub/exchange-backend/api/middleware"
	"github.com/indyhub/exchange-backend/api/responses"
	"github.com/indyhub/exchange-backend/api/validators"
	"github.com/indyhub/exchange-backend/internal/exchangeconfig"
	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/logger"
)

type exchangeConfigResponse struct {
	CorporationID             int64           `json:"corporation_id"`
	StructureID               *int64          `json:"structure_id,omitempty"`
	StructureName             *string         `json:"structure_name,omitempty"`
	HangarDivision            int             `json:"hangar_division"`
	SellMarkupPercent         decimal.Decimal `json:"sell_markup_percent"`
	SellMarkupBase            decimal.Decimal `json:"sell_markup_base"`
	BuyMarkupPercent          decimal.Decimal `json:"buy_markup_percent"`
	BuyMarkupBase             decimal.Decimal `json:"buy_markup_base"`
	RequireContractValidation bool            `json:"require_contract_validation"`
	IsActive                  bool            `json:"is_active"`
	LastPriceSyncAt           *time.Time      `json:"last_price_sync_at,omitempty"`
	LastStockSyncAt           *time.Time      `json:"last_stock_sync_at,omitempty"`
	UpdatedAt                 time.Time       `json:"updated_at"`
}

func exchangeConfigFromModel(cfg *models.ExchangeConfig) exchangeConfigResponse {
	return exchangeConfigResponse{
		CorporationID:             cfg.CorporationID,
		StructureID:               cfg.StructureID,
		StructureName:             cfg.StructureName,
		HangarDivision:            cfg.HangarDivision,
		SellMarkupPercent:         cfg.SellMarkupPercent,
		SellMarkupBase:            cfg.SellMarkupBase,
		BuyMarkupPercent:          cfg.BuyMarkupPercent,
		BuyMarkupBase:             cfg.BuyMarkupBase,
		RequireContractValidation: cfg.RequireContractValidation,
		IsActive:                  cfg.IsActive,
		LastPriceSyncAt:           cfg.LastPriceSyncAt,
		LastStockSyncAt:           cfg.LastStockSyncAt,
		UpdatedAt:                 cfg.UpdatedAt,
	}
}

// ExchangeConfigGet returns the corporation's exchange policy.
func ExchangeConfigGet(svc exchangeconfig.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		corporationID := middleware.CorporationIDFromContext(r.Context())

		cfg, err := svc.Get(r.Context(), corporationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, exchangeConfigFromModel(cfg))
	}
}

type exchangeConfigUpdateRequest struct {
	StructureID               *int64           `json:"structure_id"`
	StructureName             *string          `json:"structure_name"`
	HangarDivision            *int             `json:"hangar_division"`
	SellMarkupPercent         *decimal.Decimal `json:"sell_markup_percent"`
	SellMarkupBase            *decimal.Decimal `json:"sell_markup_base"`
	BuyMarkupPercent          *decimal.Decimal `json:"buy_markup_percent"`
	BuyMarkupBase             *decimal.Decimal `json:"buy_markup_base"`
	RequireContractValidation *bool            `json:"require_contract_validation"`
	IsActive                  *bool            `json:"is_active"`
}

// ExchangeConfigUpdate applies a partial update; omitted fields keep their value.
func ExchangeConfigUpdate(svc exchangeconfig.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		corporationID := middleware.CorporationIDFromContext(r.Context())

		var payload exchangeConfigUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if payload.StructureName != nil {
			trimmed := validators.SanitizeString(*payload.StructureName, 255)
			payload.StructureName = &trimmed
		}

		cfg, err := svc.Update(r.Context(), corporationID, exchangeconfig.UpdateInput{
			StructureID:               payload.StructureID,
			StructureName:             payload.StructureName,
			HangarDivision:            payload.HangarDivision,
			SellMarkupPercent:         payload.SellMarkupPercent,
			SellMarkupBase:            payload.SellMarkupBase,
			BuyMarkupPercent:          payload.BuyMarkupPercent,
			BuyMarkupBase:             payload.BuyMarkupBase,
			RequireContractValidation: payload.RequireContractValidation,
			IsActive:                  payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, exchangeConfigFromModel(cfg))
	}
}
