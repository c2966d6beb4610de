package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/indyhub/exchange-backend/api/responses"
	"github.com/indyhub/exchange-backend/api/validators"
	"github.com/indyhub/exchange-backend/internal/orders"
	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/enums"
	"github.com/indyhub/exchange-backend/pkg/logger"
)

type orderItemRequest struct {
	TypeID   int64 `json:"type_id" validate:"required,gt=0"`
	Quantity int64 `json:"quantity" validate:"required,gt=0"`
}

type sellOrderCreateRequest struct {
	Items []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	Notes *string            `json:"notes"`
}

type orderItemResponse struct {
	ID                   uuid.UUID       `json:"id"`
	TypeID               int64           `json:"type_id"`
	TypeName             string          `json:"type_name"`
	Quantity             int64           `json:"quantity"`
	UnitPrice            decimal.Decimal `json:"unit_price"`
	TotalPrice           decimal.Decimal `json:"total_price"`
	ESIContractID        *int64          `json:"esi_contract_id,omitempty"`
	ESIContractValidated bool            `json:"esi_contract_validated"`
}

type sellOrderResponse struct {
	ID                uuid.UUID             `json:"id"`
	OrderReference    string                `json:"order_reference"`
	SellerUserID      uuid.UUID             `json:"seller_user_id"`
	Status            enums.SellOrderStatus `json:"status"`
	TotalPrice        decimal.Decimal       `json:"total_price"`
	PaymentJournalRef *string               `json:"payment_journal_ref,omitempty"`
	RejectionReason   *string               `json:"rejection_reason,omitempty"`
	Notes             *string               `json:"notes,omitempty"`
	ApprovedAt        *time.Time            `json:"approved_at,omitempty"`
	VerifiedAt        *time.Time            `json:"verified_at,omitempty"`
	CompletedAt       *time.Time            `json:"completed_at,omitempty"`
	Items             []orderItemResponse   `json:"items"`
	CreatedAt         time.Time             `json:"created_at"`
}

func sellOrderFromModel(order *models.SellOrder) sellOrderResponse {
	resp := sellOrderResponse{
		ID:                order.ID,
		OrderReference:    order.OrderReference,
		SellerUserID:      order.SellerUserID,
		Status:            order.Status,
		TotalPrice:        order.TotalPrice,
		PaymentJournalRef: order.PaymentJournalRef,
		RejectionReason:   order.RejectionReason,
		Notes:             order.Notes,
		ApprovedAt:        order.ApprovedAt,
		VerifiedAt:        order.VerifiedAt,
		CompletedAt:       order.CompletedAt,
		Items:             make([]orderItemResponse, 0, len(order.Items)),
		CreatedAt:         order.CreatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, orderItemResponse{
			ID:                   item.ID,
			TypeID:               item.TypeID,
			TypeName:             item.TypeName,
			Quantity:             item.Quantity,
			UnitPrice:            item.UnitPrice,
			TotalPrice:           item.TotalPrice,
			ESIContractID:        item.ESIContractID,
			ESIContractValidated: item.ESIContractValidated,
		})
	}
	return resp
}

type sellOrderListResponse struct {
	Orders     []sellOrderResponse `json:"orders"`
	NextCursor string              `json:"next_cursor,omitempty"`
}

// SellOrderCreate opens a sell order with prices frozen at creation.
func SellOrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload sellOrderCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.CreateSellInput{Actor: actor, Notes: trimNotes(payload.Notes)}
		for _, item := range payload.Items {
			input.Items = append(input.Items, orders.ItemInput{TypeID: item.TypeID, Quantity: item.Quantity})
		}

		order, err := svc.CreateSell(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, sellOrderFromModel(order))
	}
}

// SellOrderList pages through sell orders. Members see their own by default;
// managers can drop own=true to see the whole queue.
func SellOrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := listInputFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.ListSell(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := sellOrderListResponse{
			Orders:     make([]sellOrderResponse, 0, len(result.Orders)),
			NextCursor: result.NextCursor,
		}
		for i := range result.Orders {
			resp.Orders = append(resp.Orders, sellOrderFromModel(&result.Orders[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

// SellOrderDetail returns one sell order, owner or manager only.
func SellOrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.GetSell(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sellOrderFromModel(order))
	}
}

// SellOrderApprove moves a pending sell order into the approved state.
func SellOrderApprove(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return sellOrderTransition(svc, logg, func(r *http.Request, actor orders.Actor, orderID uuid.UUID) (*models.SellOrder, error) {
		return svc.ApproveSell(r.Context(), orderID, actor)
	})
}

type verifyPaymentRequest struct {
	JournalRef string `json:"journal_ref" validate:"required"`
}

// SellOrderVerifyPayment records the ISK payout journal reference.
func SellOrderVerifyPayment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload verifyPaymentRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.VerifyPayment(r.Context(), orderID, actor, strings.TrimSpace(payload.JournalRef))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sellOrderFromModel(order))
	}
}

// SellOrderComplete settles a payment-verified sell order into the pool.
func SellOrderComplete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return sellOrderTransition(svc, logg, func(r *http.Request, actor orders.Actor, orderID uuid.UUID) (*models.SellOrder, error) {
		return svc.CompleteSell(r.Context(), orderID, actor)
	})
}

type rejectRequest struct {
	Reason string `json:"reason"`
}

// SellOrderReject declines a pending or approved sell order.
func SellOrderReject(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload rejectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.RejectSell(r.Context(), orderID, actor, validators.SanitizeString(payload.Reason, 500))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sellOrderFromModel(order))
	}
}

// SellOrderCancel lets the seller withdraw a pending order.
func SellOrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return sellOrderTransition(svc, logg, func(r *http.Request, actor orders.Actor, orderID uuid.UUID) (*models.SellOrder, error) {
		return svc.CancelSell(r.Context(), orderID, actor)
	})
}

type validateContractRequest struct {
	ContractID int64 `json:"contract_id" validate:"required,gt=0"`
}

// SellOrderValidateContract records ESI contract validation on one item.
func SellOrderValidateContract(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		itemID, err := uuidParam(r, "itemId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload validateContractRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ValidateSellContractItem(r.Context(), orderID, itemID, actor, payload.ContractID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"validated": true})
	}
}

func sellOrderTransition(
	svc orders.Service,
	logg *logger.Logger,
	fn func(*http.Request, orders.Actor, uuid.UUID) (*models.SellOrder, error),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		orderID, err := uuidParam(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := fn(r, actor, orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, sellOrderFromModel(order))
	}
}

func trimNotes(notes *string) *string {
	if notes == nil {
		return nil
	}
	trimmed := validators.SanitizeString(*notes, 1000)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

func listInputFromQuery(r *http.Request) (orders.ListInput, error) {
	limit, err := queryLimit(r)
	if err != nil {
		return orders.ListInput{}, err
	}
	own, err := queryBool(r, "own")
	if err != nil {
		return orders.ListInput{}, err
	}
	return orders.ListInput{
		Limit:  limit,
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		Status: strings.TrimSpace(r.URL.Query().Get("status")),
		Own:    own,
	}, nil
}
