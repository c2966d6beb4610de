package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/indyhub/exchange-backend/api/middleware"
	"github.com/indyhub/exchange-backend/api/responses"
	"github.com/indyhub/exchange-backend/internal/transactions"
	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/enums"
	pkgerrors "github.com/indyhub/exchange-backend/pkg/errors"
	"github.com/indyhub/exchange-backend/pkg/logger"
)

type transactionResponse struct {
	ID             uuid.UUID             `json:"id"`
	Type           enums.TransactionType `json:"type"`
	UserID         uuid.UUID             `json:"user_id"`
	TypeID         int64                 `json:"type_id"`
	TypeName       string                `json:"type_name"`
	Quantity       int64                 `json:"quantity"`
	UnitPrice      decimal.Decimal       `json:"unit_price"`
	TotalPrice     decimal.Decimal       `json:"total_price"`
	OrderReference string                `json:"order_reference"`
	CompletedAt    time.Time             `json:"completed_at"`
}

func transactionFromModel(row models.Transaction) transactionResponse {
	return transactionResponse{
		ID:             row.ID,
		Type:           row.Type,
		UserID:         row.UserID,
		TypeID:         row.TypeID,
		TypeName:       row.TypeName,
		Quantity:       row.Quantity,
		UnitPrice:      row.UnitPrice,
		TotalPrice:     row.TotalPrice,
		OrderReference: row.OrderReference,
		CompletedAt:    row.CompletedAt,
	}
}

type transactionListResponse struct {
	Transactions []transactionResponse `json:"transactions"`
	NextCursor   string                `json:"next_cursor,omitempty"`
}

func transactionListInput(r *http.Request) (transactions.ListInput, error) {
	limit, err := queryLimit(r)
	if err != nil {
		return transactions.ListInput{}, err
	}
	input := transactions.ListInput{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}
	if raw := strings.TrimSpace(r.URL.Query().Get("typeId")); raw != "" {
		typeID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || typeID <= 0 {
			return transactions.ListInput{}, pkgerrors.New(pkgerrors.CodeValidation, "typeId must be a positive integer")
		}
		input.TypeID = &typeID
	}
	return input, nil
}

// TransactionsOwn lists the acting member's settlement history.
func TransactionsOwn(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := transactionListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListOwn(r.Context(), actor.CorporationID, actor.UserID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transactionListToResponse(result))
	}
}

// TransactionsAll lists the corporation-wide settlement history.
func TransactionsAll(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		corporationID := middleware.CorporationIDFromContext(r.Context())

		input, err := transactionListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListAll(r.Context(), corporationID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, transactionListToResponse(result))
	}
}

func transactionListToResponse(result *transactions.List) transactionListResponse {
	resp := transactionListResponse{
		Transactions: make([]transactionResponse, 0, len(result.Transactions)),
		NextCursor:   result.NextCursor,
	}
	for _, row := range result.Transactions {
		resp.Transactions = append(resp.Transactions, transactionFromModel(row))
	}
	return resp
}
