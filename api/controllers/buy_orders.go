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
	pkgerrors "github.com/indyhub/exchange-backend/pkg/errors"
	"github.com/indyhub/exchange-backend/pkg/logger"
)

type buyOrderCreateRequest struct {
	Items          []orderItemRequest `json:"items" validate:"required,min=1,dive"`
	DeliveryMethod *string            `json:"delivery_method"`
	Notes          *string            `json:"notes"`
}

type buyOrderItemResponse struct {
	orderItemResponse
	StockAvailableAtCreation int64 `json:"stock_available_at_creation"`
}

type buyOrderResponse struct {
	ID              uuid.UUID              `json:"id"`
	OrderReference  string                 `json:"order_reference"`
	BuyerUserID     uuid.UUID              `json:"buyer_user_id"`
	Status          enums.BuyOrderStatus   `json:"status"`
	TotalPrice      decimal.Decimal        `json:"total_price"`
	DeliveryMethod  *enums.DeliveryMethod  `json:"delivery_method,omitempty"`
	RejectionReason *string                `json:"rejection_reason,omitempty"`
	Notes           *string                `json:"notes,omitempty"`
	ApprovedAt      *time.Time             `json:"approved_at,omitempty"`
	CompletedAt     *time.Time             `json:"completed_at,omitempty"`
	Items           []buyOrderItemResponse `json:"items"`
	CreatedAt       time.Time              `json:"created_at"`
}

func buyOrderFromModel(order *models.BuyOrder) buyOrderResponse {
	resp := buyOrderResponse{
		ID:              order.ID,
		OrderReference:  order.OrderReference,
		BuyerUserID:     order.BuyerUserID,
		Status:          order.Status,
		TotalPrice:      order.TotalPrice,
		DeliveryMethod:  order.DeliveryMethod,
		RejectionReason: order.RejectionReason,
		Notes:           order.Notes,
		ApprovedAt:      order.ApprovedAt,
		CompletedAt:     order.CompletedAt,
		Items:           make([]buyOrderItemResponse, 0, len(order.Items)),
		CreatedAt:       order.CreatedAt,
	}
	for _, item := range order.Items {
		resp.Items = append(resp.Items, buyOrderItemResponse{
			orderItemResponse: orderItemResponse{
				ID:                   item.ID,
				TypeID:               item.TypeID,
				TypeName:             item.TypeName,
				Quantity:             item.Quantity,
				UnitPrice:            item.UnitPrice,
				TotalPrice:           item.TotalPrice,
				ESIContractID:        item.ESIContractID,
				ESIContractValidated: item.ESIContractValidated,
			},
			StockAvailableAtCreation: item.StockAvailableAtCreation,
		})
	}
	return resp
}

type buyOrderListResponse struct {
	Orders     []buyOrderResponse `json:"orders"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// BuyOrderCreate opens a buy order against the current stock snapshot.
func BuyOrderCreate(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload buyOrderCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := orders.CreateBuyInput{Actor: actor, Notes: trimNotes(payload.Notes)}
		if payload.DeliveryMethod != nil {
			method, err := enums.ParseDeliveryMethod(strings.TrimSpace(*payload.DeliveryMethod))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery method"))
				return
			}
			input.DeliveryMethod = &method
		}
		for _, item := range payload.Items {
			input.Items = append(input.Items, orders.ItemInput{TypeID: item.TypeID, Quantity: item.Quantity})
		}

		order, err := svc.CreateBuy(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, buyOrderFromModel(order))
	}
}

// BuyOrderList pages through buy orders.
func BuyOrderList(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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

		result, err := svc.ListBuy(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp := buyOrderListResponse{
			Orders:     make([]buyOrderResponse, 0, len(result.Orders)),
			NextCursor: result.NextCursor,
		}
		for i := range result.Orders {
			resp.Orders = append(resp.Orders, buyOrderFromModel(&result.Orders[i]))
		}
		responses.WriteSuccess(w, resp)
	}
}

// BuyOrderDetail returns one buy order, owner or manager only.
func BuyOrderDetail(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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

		order, err := svc.GetBuy(r.Context(), orderID, actor)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, buyOrderFromModel(order))
	}
}

// BuyOrderApprove moves a pending buy order into the approved state.
func BuyOrderApprove(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return buyOrderTransition(svc, logg, func(r *http.Request, actor orders.Actor, orderID uuid.UUID) (*models.BuyOrder, error) {
		return svc.ApproveBuy(r.Context(), orderID, actor)
	})
}

type buyOrderCompleteRequest struct {
	DeliveryMethod *string `json:"delivery_method"`
}

// BuyOrderComplete settles an approved buy order out of the pool.
func BuyOrderComplete(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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

		var method *enums.DeliveryMethod
		if r.ContentLength > 0 {
			var payload buyOrderCompleteRequest
			if err := validators.DecodeJSONBody(r, &payload); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			if payload.DeliveryMethod != nil {
				parsed, err := enums.ParseDeliveryMethod(strings.TrimSpace(*payload.DeliveryMethod))
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery method"))
					return
				}
				method = &parsed
			}
		}

		order, err := svc.CompleteBuy(r.Context(), orderID, actor, method)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, buyOrderFromModel(order))
	}
}

// BuyOrderReject declines a pending or approved buy order.
func BuyOrderReject(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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

		order, err := svc.RejectBuy(r.Context(), orderID, actor, validators.SanitizeString(payload.Reason, 500))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, buyOrderFromModel(order))
	}
}

// BuyOrderCancel lets the buyer withdraw a pending order.
func BuyOrderCancel(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return buyOrderTransition(svc, logg, func(r *http.Request, actor orders.Actor, orderID uuid.UUID) (*models.BuyOrder, error) {
		return svc.CancelBuy(r.Context(), orderID, actor)
	})
}

// BuyOrderValidateContract records ESI contract validation on one item.
func BuyOrderValidateContract(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
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

		if err := svc.ValidateBuyContractItem(r.Context(), orderID, itemID, actor, payload.ContractID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"validated": true})
	}
}

func buyOrderTransition(
	svc orders.Service,
	logg *logger.Logger,
	fn func(*http.Request, orders.Actor, uuid.UUID) (*models.BuyOrder, error),
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
		responses.WriteSuccess(w, buyOrderFromModel(order))
	}
}
