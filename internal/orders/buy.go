package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/enums"
	pkgerrors "github.com/indyhub/exchange-backend/pkg/errors"
	"github.com/indyhub/exchange-backend/pkg/outbox"
	"github.com/indyhub/exchange-backend/pkg/outbox/payloads"
	"github.com/indyhub/exchange-backend/pkg/pagination"
)

func (s *service) CreateBuy(ctx context.Context, input CreateBuyInput) (*models.BuyOrder, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateItems(input.Items); err != nil {
		return nil, err
	}
	if input.DeliveryMethod != nil && !input.DeliveryMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery method")
	}
	if _, err := s.activeConfig(ctx, input.Actor.CorporationID); err != nil {
		return nil, err
	}

	reference, err := NewOrderReference()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "assign order reference")
	}

	orderID := uuid.New()
	total := decimal.Zero
	items := make([]models.BuyOrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		entry, err := s.lookupEntry(ctx, input.Actor.CorporationID, item.TypeID)
		if err != nil {
			return nil, err
		}
		// the snapshot caps the request; the settlement guard re-checks at
		// completion time since stock may have moved in between
		if item.Quantity > entry.Quantity {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds available stock").
				WithDetails(map[string]any{
					"type_id":   item.TypeID,
					"requested": item.Quantity,
					"available": entry.Quantity,
				})
		}
		unitPrice := entry.MemberSellPrice
		linePrice := unitPrice.Mul(decimal.NewFromInt(item.Quantity))
		total = total.Add(linePrice)
		items = append(items, models.BuyOrderItem{
			ID:                       uuid.New(),
			OrderID:                  orderID,
			TypeID:                   item.TypeID,
			TypeName:                 entry.TypeName,
			Quantity:                 item.Quantity,
			UnitPrice:                unitPrice,
			TotalPrice:               linePrice,
			StockAvailableAtCreation: entry.Quantity,
		})
	}

	order := &models.BuyOrder{
		ID:             orderID,
		OrderReference: reference,
		CorporationID:  input.Actor.CorporationID,
		BuyerUserID:    input.Actor.UserID,
		Status:         enums.BuyOrderStatusPending,
		TotalPrice:     total,
		DeliveryMethod: input.DeliveryMethod,
		Notes:          input.Notes,
		Items:          items,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).CreateBuyOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create buy order")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBuyOrderSubmitted,
			AggregateType: enums.AggregateBuyOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         eventActor(input.Actor),
			Data: payloads.BuyOrderSubmittedEvent{
				OrderID:        order.ID,
				OrderReference: order.OrderReference,
				CorporationID:  order.CorporationID,
				BuyerUserID:    order.BuyerUserID,
				TotalPrice:     order.TotalPrice,
				Currency:       enums.CurrencyISK,
				ItemCount:      len(order.Items),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) GetBuy(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.BuyOrder, error) {
	order, err := s.loadBuyOrder(ctx, s.repo, orderID, actor.CorporationID)
	if err != nil {
		return nil, err
	}
	if order.BuyerUserID != actor.UserID {
		if err := s.requireManager(ctx, actor); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (s *service) ListBuy(ctx context.Context, actor Actor, input ListInput) (*BuyOrderList, error) {
	filters := BuyOrderFilters{}
	if input.Status != "" {
		status, err := enums.ParseBuyOrderStatus(input.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status filter")
		}
		filters.Status = &status
	}
	if input.Own {
		userID := actor.UserID
		filters.BuyerUserID = &userID
	} else if err := s.requireManager(ctx, actor); err != nil {
		return nil, err
	}

	params := pagination.Params{Limit: input.Limit, Cursor: input.Cursor}
	orders, err := s.repo.ListBuyOrders(ctx, actor.CorporationID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list buy orders")
	}

	limit := pagination.NormalizeLimit(input.Limit)
	result := &BuyOrderList{Orders: orders}
	if len(orders) > limit {
		result.Orders = orders[:limit]
		last := result.Orders[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

func (s *service) ApproveBuy(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.BuyOrder, error) {
	if err := s.requireManager(ctx, actor); err != nil {
		return nil, err
	}

	var order *models.BuyOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.loadBuyOrder(ctx, repo, orderID, actor.CorporationID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		affected, err := repo.UpdateBuyOrderStatus(ctx, orderID,
			[]enums.BuyOrderStatus{enums.BuyOrderStatusPending},
			enums.BuyOrderStatusApproved,
			map[string]any{
				"approved_by_user_id": actor.UserID,
				"approved_at":         now,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve buy order")
		}
		if affected == 0 {
			return invalidTransition(loaded.Status.String(), enums.BuyOrderStatusApproved.String())
		}

		loaded.Status = enums.BuyOrderStatusApproved
		loaded.ApprovedByUserID = &actor.UserID
		loaded.ApprovedAt = &now
		order = loaded
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBuyOrderApproved,
			AggregateType: enums.AggregateBuyOrder,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor:         eventActor(actor),
			Data: payloads.BuyOrderApprovedEvent{
				OrderID:          loaded.ID,
				OrderReference:   loaded.OrderReference,
				CorporationID:    loaded.CorporationID,
				BuyerUserID:      loaded.BuyerUserID,
				ApprovedByUserID: actor.UserID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) CompleteBuy(ctx context.Context, orderID uuid.UUID, actor Actor, deliveryMethod *enums.DeliveryMethod) (*models.BuyOrder, error) {
	if err := s.requireManager(ctx, actor); err != nil {
		return nil, err
	}
	if deliveryMethod != nil && !deliveryMethod.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid delivery method")
	}
	cfg, err := s.configs.Get(ctx, actor.CorporationID)
	if err != nil {
		return nil, err
	}

	var order *models.BuyOrder
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.loadBuyOrder(ctx, repo, orderID, actor.CorporationID)
		if err != nil {
			return err
		}
		if cfg.RequireContractValidation {
			if err := buyItemsValidated(loaded.Items); err != nil {
				return err
			}
		}

		completedAt := time.Now().UTC()
		updates := map[string]any{
			"completed_at":         completedAt,
			"delivered_by_user_id": actor.UserID,
		}
		if deliveryMethod != nil {
			updates["delivery_method"] = *deliveryMethod
		}
		affected, err := repo.UpdateBuyOrderStatus(ctx, orderID,
			[]enums.BuyOrderStatus{enums.BuyOrderStatusApproved},
			enums.BuyOrderStatusCompleted,
			updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete buy order")
		}
		if affected == 0 {
			return invalidTransition(loaded.Status.String(), enums.BuyOrderStatusCompleted.String())
		}

		if _, err := s.settlement.SettleBuy(ctx, tx, loaded, completedAt); err != nil {
			return err
		}

		loaded.Status = enums.BuyOrderStatusCompleted
		loaded.CompletedAt = &completedAt
		loaded.DeliveredByUserID = &actor.UserID
		if deliveryMethod != nil {
			loaded.DeliveryMethod = deliveryMethod
		}
		order = loaded
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBuyOrderCompleted,
			AggregateType: enums.AggregateBuyOrder,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor:         eventActor(actor),
			Data: payloads.BuyOrderCompletedEvent{
				OrderID:        loaded.ID,
				OrderReference: loaded.OrderReference,
				CorporationID:  loaded.CorporationID,
				BuyerUserID:    loaded.BuyerUserID,
				TotalPrice:     loaded.TotalPrice,
				Currency:       enums.CurrencyISK,
				DeliveryMethod: loaded.DeliveryMethod,
				CompletedAt:    completedAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) RejectBuy(ctx context.Context, orderID uuid.UUID, actor Actor, reason string) (*models.BuyOrder, error) {
	if err := s.requireManager(ctx, actor); err != nil {
		return nil, err
	}

	var order *models.BuyOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.loadBuyOrder(ctx, repo, orderID, actor.CorporationID)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if reason != "" {
			updates["rejection_reason"] = reason
		}
		affected, err := repo.UpdateBuyOrderStatus(ctx, orderID,
			[]enums.BuyOrderStatus{enums.BuyOrderStatusPending, enums.BuyOrderStatusApproved},
			enums.BuyOrderStatusRejected,
			updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject buy order")
		}
		if affected == 0 {
			return invalidTransition(loaded.Status.String(), enums.BuyOrderStatusRejected.String())
		}

		loaded.Status = enums.BuyOrderStatusRejected
		if reason != "" {
			loaded.RejectionReason = &reason
		}
		order = loaded
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBuyOrderRejected,
			AggregateType: enums.AggregateBuyOrder,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor:         eventActor(actor),
			Data: payloads.BuyOrderRejectedEvent{
				OrderID:          loaded.ID,
				OrderReference:   loaded.OrderReference,
				BuyerUserID:      loaded.BuyerUserID,
				RejectedByUserID: actor.UserID,
				Reason:           reason,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) CancelBuy(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.BuyOrder, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var order *models.BuyOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.loadBuyOrder(ctx, repo, orderID, actor.CorporationID)
		if err != nil {
			return err
		}
		if loaded.BuyerUserID != actor.UserID {
			if err := s.requireManager(ctx, actor); err != nil {
				return err
			}
		}

		affected, err := repo.UpdateBuyOrderStatus(ctx, orderID,
			[]enums.BuyOrderStatus{enums.BuyOrderStatusPending},
			enums.BuyOrderStatusCancelled,
			nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel buy order")
		}
		if affected == 0 {
			return invalidTransition(loaded.Status.String(), enums.BuyOrderStatusCancelled.String())
		}

		loaded.Status = enums.BuyOrderStatusCancelled
		order = loaded
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventBuyOrderCancelled,
			AggregateType: enums.AggregateBuyOrder,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor:         eventActor(actor),
			Data: payloads.BuyOrderCancelledEvent{
				OrderID:        loaded.ID,
				OrderReference: loaded.OrderReference,
				BuyerUserID:    loaded.BuyerUserID,
				CancelledAt:    time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) ValidateBuyContractItem(ctx context.Context, orderID, itemID uuid.UUID, actor Actor, contractID int64) error {
	if contractID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "contract id required")
	}

	order, err := s.loadBuyOrder(ctx, s.repo, orderID, actor.CorporationID)
	if err != nil {
		return err
	}
	if order.BuyerUserID != actor.UserID {
		if err := s.requireManager(ctx, actor); err != nil {
			return err
		}
	}
	if order.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order already finalized")
	}

	item, err := s.repo.FindBuyOrderItem(ctx, itemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
	}
	if item.OrderID != order.ID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "item does not belong to order")
	}

	err = s.repo.UpdateBuyOrderItem(ctx, itemID, map[string]any{
		"esi_contract_id":           contractID,
		"esi_contract_validated":    true,
		"esi_validation_checked_at": time.Now().UTC(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record contract validation")
	}
	return nil
}

func (s *service) loadBuyOrder(ctx context.Context, repo Repository, orderID uuid.UUID, corporationID int64) (*models.BuyOrder, error) {
	order, err := repo.FindBuyOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buy order")
	}
	if order.CorporationID != corporationID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func buyItemsValidated(items []models.BuyOrderItem) error {
	var missing []string
	for _, item := range items {
		if !item.ESIContractValidated {
			missing = append(missing, item.ID.String())
		}
	}
	if len(missing) > 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "contract validation required before completion").
			WithDetails(map[string]any{"unvalidated_items": missing})
	}
	return nil
}
