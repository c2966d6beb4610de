package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/indyhub/exchange-backend/api/middleware"
	"github.com/indyhub/exchange-backend/api/responses"
	"github.com/indyhub/exchange-backend/api/validators"
	"github.com/indyhub/exchange-backend/internal/stock"
	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/logger"
)

type stockEntryResponse struct {
	TypeID          int64           `json:"type_id"`
	TypeName        string          `json:"type_name"`
	Quantity        int64           `json:"quantity"`
	JitaBuyPrice    decimal.Decimal `json:"jita_buy_price"`
	JitaSellPrice   decimal.Decimal `json:"jita_sell_price"`
	MemberBuyPrice  decimal.Decimal `json:"member_buy_price"`
	MemberSellPrice decimal.Decimal `json:"member_sell_price"`
	LastPriceSyncAt *time.Time      `json:"last_price_sync_at"`
	LastStockSyncAt *time.Time      `json:"last_stock_sync_at"`
}

func stockEntryFromModel(entry models.StockEntry) stockEntryResponse {
	return stockEntryResponse{
		TypeID:          entry.TypeID,
		TypeName:        entry.TypeName,
		Quantity:        entry.Quantity,
		JitaBuyPrice:    entry.JitaBuyPrice,
		JitaSellPrice:   entry.JitaSellPrice,
		MemberBuyPrice:  entry.MemberBuyPrice,
		MemberSellPrice: entry.MemberSellPrice,
		LastPriceSyncAt: entry.LastPriceSyncAt,
		LastStockSyncAt: entry.LastStockSyncAt,
	}
}

type stockListResponse struct {
	Entries    []stockEntryResponse `json:"entries"`
	NextCursor string               `json:"next_cursor,omitempty"`
}

// StockList returns the corporation's stock ledger, cursor-paginated.
func StockList(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		corporationID := middleware.CorporationIDFromContext(r.Context())

		limit, err := queryLimit(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		inStock, err := queryBool(r, "inStock")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), corporationID, stock.ListInput{
			Limit:   limit,
			Cursor:  strings.TrimSpace(r.URL.Query().Get("cursor")),
			Search:  validators.SanitizeString(r.URL.Query().Get("search"), 100),
			InStock: inStock,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := stockListResponse{
			Entries:    make([]stockEntryResponse, 0, len(result.Entries)),
			NextCursor: result.NextCursor,
		}
		for _, entry := range result.Entries {
			resp.Entries = append(resp.Entries, stockEntryFromModel(entry))
		}
		responses.WriteSuccess(w, resp)
	}
}

// StockGet returns one stock entry by EVE type id.
func StockGet(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		corporationID := middleware.CorporationIDFromContext(r.Context())

		typeID, err := int64Param(r, "typeId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entry, err := svc.Get(r.Context(), corporationID, typeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stockEntryFromModel(*entry))
	}
}

type priceSyncEntry struct {
	TypeID   int64           `json:"type_id" validate:"required,gt=0"`
	TypeName string          `json:"type_name" validate:"required"`
	JitaBuy  decimal.Decimal `json:"jita_buy"`
	JitaSell decimal.Decimal `json:"jita_sell"`
}

type priceSyncRequest struct {
	Entries []priceSyncEntry `json:"entries" validate:"required,min=1,dive"`
}

// StockSyncPrices upserts reference prices pushed by the market sync.
func StockSyncPrices(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		corporationID := middleware.CorporationIDFromContext(r.Context())

		var payload priceSyncRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries := make([]stock.PriceSyncEntry, 0, len(payload.Entries))
		for _, entry := range payload.Entries {
			entries = append(entries, stock.PriceSyncEntry{
				TypeID:   entry.TypeID,
				TypeName: strings.TrimSpace(entry.TypeName),
				JitaBuy:  entry.JitaBuy,
				JitaSell: entry.JitaSell,
			})
		}

		count, err := svc.SyncPrices(r.Context(), corporationID, entries)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"synced": count})
	}
}

type quantitySyncEntry struct {
	TypeID   int64  `json:"type_id" validate:"required,gt=0"`
	TypeName string `json:"type_name" validate:"required"`
	Quantity int64  `json:"quantity" validate:"min=0"`
}

type quantitySyncRequest struct {
	Entries []quantitySyncEntry `json:"entries" validate:"required,min=1,dive"`
}

// StockSyncStock upserts hangar quantities pushed by the asset sync.
func StockSyncStock(svc stock.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		corporationID := middleware.CorporationIDFromContext(r.Context())

		var payload quantitySyncRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		entries := make([]stock.QuantitySyncEntry, 0, len(payload.Entries))
		for _, entry := range payload.Entries {
			entries = append(entries, stock.QuantitySyncEntry{
				TypeID:   entry.TypeID,
				TypeName: strings.TrimSpace(entry.TypeName),
				Quantity: entry.Quantity,
			})
		}

		count, err := svc.SyncStock(r.Context(), corporationID, entries)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]int{"synced": count})
	}
}
