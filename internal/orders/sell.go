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

func (s *service) CreateSell(ctx context.Context, input CreateSellInput) (*models.SellOrder, error) {
	if input.Actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if err := validateItems(input.Items); err != nil {
		return nil, err
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
	items := make([]models.SellOrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		entry, err := s.lookupEntry(ctx, input.Actor.CorporationID, item.TypeID)
		if err != nil {
			return nil, err
		}
		// the corporation pays the member its buy price, frozen at creation
		unitPrice := entry.MemberBuyPrice
		linePrice := unitPrice.Mul(decimal.NewFromInt(item.Quantity))
		total = total.Add(linePrice)
		items = append(items, models.SellOrderItem{
			ID:         uuid.New(),
			OrderID:    orderID,
			TypeID:     item.TypeID,
			TypeName:   entry.TypeName,
			Quantity:   item.Quantity,
			UnitPrice:  unitPrice,
			TotalPrice: linePrice,
		})
	}

	order := &models.SellOrder{
		ID:             orderID,
		OrderReference: reference,
		CorporationID:  input.Actor.CorporationID,
		SellerUserID:   input.Actor.UserID,
		Status:         enums.SellOrderStatusPending,
		TotalPrice:     total,
		Notes:          input.Notes,
		Items:          items,
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if _, err := s.repo.WithTx(tx).CreateSellOrder(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create sell order")
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSellOrderSubmitted,
			AggregateType: enums.AggregateSellOrder,
			AggregateID:   order.ID,
			Version:       1,
			Actor:         eventActor(input.Actor),
			Data: payloads.SellOrderSubmittedEvent{
				OrderID:        order.ID,
				OrderReference: order.OrderReference,
				CorporationID:  order.CorporationID,
				SellerUserID:   order.SellerUserID,
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

func (s *service) GetSell(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.SellOrder, error) {
	order, err := s.loadSellOrder(ctx, s.repo, orderID, actor.CorporationID)
	if err != nil {
		return nil, err
	}
	if order.SellerUserID != actor.UserID {
		if err := s.requireManager(ctx, actor); err != nil {
			return nil, err
		}
	}
	return order, nil
}

func (s *service) ListSell(ctx context.Context, actor Actor, input ListInput) (*SellOrderList, error) {
	filters := SellOrderFilters{}
	if input.Status != "" {
		status, err := enums.ParseSellOrderStatus(input.Status)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order status filter")
		}
		filters.Status = &status
	}
	if input.Own {
		userID := actor.UserID
		filters.SellerUserID = &userID
	} else if err := s.requireManager(ctx, actor); err != nil {
		return nil, err
	}

	params := pagination.Params{Limit: input.Limit, Cursor: input.Cursor}
	orders, err := s.repo.ListSellOrders(ctx, actor.CorporationID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list sell orders")
	}

	limit := pagination.NormalizeLimit(input.Limit)
	result := &SellOrderList{Orders: orders}
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

func (s *service) ApproveSell(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.SellOrder, error) {
	if err := s.requireManager(ctx, actor); err != nil {
		return nil, err
	}

	var order *models.SellOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.loadSellOrder(ctx, repo, orderID, actor.CorporationID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		affected, err := repo.UpdateSellOrderStatus(ctx, orderID,
			[]enums.SellOrderStatus{enums.SellOrderStatusPending},
			enums.SellOrderStatusApproved,
			map[string]any{
				"approved_by_user_id": actor.UserID,
				"approved_at":         now,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "approve sell order")
		}
		if affected == 0 {
			return invalidTransition(loaded.Status.String(), enums.SellOrderStatusApproved.String())
		}

		loaded.Status = enums.SellOrderStatusApproved
		loaded.ApprovedByUserID = &actor.UserID
		loaded.ApprovedAt = &now
		order = loaded
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSellOrderApproved,
			AggregateType: enums.AggregateSellOrder,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor:         eventActor(actor),
			Data: payloads.SellOrderApprovedEvent{
				OrderID:          loaded.ID,
				OrderReference:   loaded.OrderReference,
				CorporationID:    loaded.CorporationID,
				SellerUserID:     loaded.SellerUserID,
				ApprovedByUserID: actor.UserID,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) VerifyPayment(ctx context.Context, orderID uuid.UUID, actor Actor, journalRef string) (*models.SellOrder, error) {
	if err := s.requireManager(ctx, actor); err != nil {
		return nil, err
	}
	if journalRef == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment journal reference required")
	}

	var order *models.SellOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.loadSellOrder(ctx, repo, orderID, actor.CorporationID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		affected, err := repo.UpdateSellOrderStatus(ctx, orderID,
			[]enums.SellOrderStatus{enums.SellOrderStatusApproved},
			enums.SellOrderStatusPaymentVerified,
			map[string]any{
				"verified_by_user_id": actor.UserID,
				"payment_journal_ref": journalRef,
				"verified_at":         now,
			})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify sell order payment")
		}
		if affected == 0 {
			return invalidTransition(loaded.Status.String(), enums.SellOrderStatusPaymentVerified.String())
		}

		loaded.Status = enums.SellOrderStatusPaymentVerified
		loaded.VerifiedByUserID = &actor.UserID
		loaded.PaymentJournalRef = &journalRef
		loaded.VerifiedAt = &now
		order = loaded
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSellOrderPaymentVerified,
			AggregateType: enums.AggregateSellOrder,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor:         eventActor(actor),
			Data: payloads.SellOrderPaymentVerifiedEvent{
				OrderID:           loaded.ID,
				OrderReference:    loaded.OrderReference,
				SellerUserID:      loaded.SellerUserID,
				VerifiedByUserID:  actor.UserID,
				PaymentJournalRef: journalRef,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) CompleteSell(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.SellOrder, error) {
	if err := s.requireManager(ctx, actor); err != nil {
		return nil, err
	}
	cfg, err := s.configs.Get(ctx, actor.CorporationID)
	if err != nil {
		return nil, err
	}

	var order *models.SellOrder
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.loadSellOrder(ctx, repo, orderID, actor.CorporationID)
		if err != nil {
			return err
		}
		if cfg.RequireContractValidation {
			if err := sellItemsValidated(loaded.Items); err != nil {
				return err
			}
		}

		completedAt := time.Now().UTC()
		affected, err := repo.UpdateSellOrderStatus(ctx, orderID,
			[]enums.SellOrderStatus{enums.SellOrderStatusPaymentVerified},
			enums.SellOrderStatusCompleted,
			map[string]any{"completed_at": completedAt})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete sell order")
		}
		if affected == 0 {
			return invalidTransition(loaded.Status.String(), enums.SellOrderStatusCompleted.String())
		}

		if _, err := s.settlement.SettleSell(ctx, tx, loaded, completedAt); err != nil {
			return err
		}

		loaded.Status = enums.SellOrderStatusCompleted
		loaded.CompletedAt = &completedAt
		order = loaded
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSellOrderCompleted,
			AggregateType: enums.AggregateSellOrder,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor:         eventActor(actor),
			Data: payloads.SellOrderCompletedEvent{
				OrderID:        loaded.ID,
				OrderReference: loaded.OrderReference,
				CorporationID:  loaded.CorporationID,
				SellerUserID:   loaded.SellerUserID,
				TotalPrice:     loaded.TotalPrice,
				Currency:       enums.CurrencyISK,
				CompletedAt:    completedAt,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) RejectSell(ctx context.Context, orderID uuid.UUID, actor Actor, reason string) (*models.SellOrder, error) {
	if err := s.requireManager(ctx, actor); err != nil {
		return nil, err
	}

	var order *models.SellOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.loadSellOrder(ctx, repo, orderID, actor.CorporationID)
		if err != nil {
			return err
		}

		updates := map[string]any{}
		if reason != "" {
			updates["rejection_reason"] = reason
		}
		affected, err := repo.UpdateSellOrderStatus(ctx, orderID,
			[]enums.SellOrderStatus{enums.SellOrderStatusPending, enums.SellOrderStatusApproved},
			enums.SellOrderStatusRejected,
			updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject sell order")
		}
		if affected == 0 {
			return invalidTransition(loaded.Status.String(), enums.SellOrderStatusRejected.String())
		}

		loaded.Status = enums.SellOrderStatusRejected
		if reason != "" {
			loaded.RejectionReason = &reason
		}
		order = loaded
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSellOrderRejected,
			AggregateType: enums.AggregateSellOrder,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor:         eventActor(actor),
			Data: payloads.SellOrderRejectedEvent{
				OrderID:          loaded.ID,
				OrderReference:   loaded.OrderReference,
				SellerUserID:     loaded.SellerUserID,
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

func (s *service) CancelSell(ctx context.Context, orderID uuid.UUID, actor Actor) (*models.SellOrder, error) {
	if actor.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	var order *models.SellOrder
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		loaded, err := s.loadSellOrder(ctx, repo, orderID, actor.CorporationID)
		if err != nil {
			return err
		}
		if loaded.SellerUserID != actor.UserID {
			if err := s.requireManager(ctx, actor); err != nil {
				return err
			}
		}

		affected, err := repo.UpdateSellOrderStatus(ctx, orderID,
			[]enums.SellOrderStatus{enums.SellOrderStatusPending},
			enums.SellOrderStatusCancelled,
			nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel sell order")
		}
		if affected == 0 {
			return invalidTransition(loaded.Status.String(), enums.SellOrderStatusCancelled.String())
		}

		loaded.Status = enums.SellOrderStatusCancelled
		order = loaded
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSellOrderCancelled,
			AggregateType: enums.AggregateSellOrder,
			AggregateID:   loaded.ID,
			Version:       1,
			Actor:         eventActor(actor),
			Data: payloads.SellOrderCancelledEvent{
				OrderID:        loaded.ID,
				OrderReference: loaded.OrderReference,
				SellerUserID:   loaded.SellerUserID,
				CancelledAt:    time.Now().UTC(),
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *service) ValidateSellContractItem(ctx context.Context, orderID, itemID uuid.UUID, actor Actor, contractID int64) error {
	if contractID <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "contract id required")
	}

	order, err := s.loadSellOrder(ctx, s.repo, orderID, actor.CorporationID)
	if err != nil {
		return err
	}
	if order.SellerUserID != actor.UserID {
		if err := s.requireManager(ctx, actor); err != nil {
			return err
		}
	}
	if order.Status.IsTerminal() {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order already finalized")
	}

	item, err := s.repo.FindSellOrderItem(ctx, itemID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "order item not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order item")
	}
	if item.OrderID != order.ID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "item does not belong to order")
	}

	err = s.repo.UpdateSellOrderItem(ctx, itemID, map[string]any{
		"esi_contract_id":           contractID,
		"esi_contract_validated":    true,
		"esi_validation_checked_at": time.Now().UTC(),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record contract validation")
	}
	return nil
}

// loadSellOrder scopes lookups to the actor's corporation; orders of other
// corporations read as not found.
func (s *service) loadSellOrder(ctx context.Context, repo Repository, orderID uuid.UUID, corporationID int64) (*models.SellOrder, error) {
	order, err := repo.FindSellOrder(ctx, orderID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load sell order")
	}
	if order.CorporationID != corporationID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return order, nil
}

func sellItemsValidated(items []models.SellOrderItem) error {
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
