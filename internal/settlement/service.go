package settlement

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indyhub/exchange-backend/internal/transactions"
	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/enums"
	pkgerrors "github.com/indyhub/exchange-backend/pkg/errors"
	"github.com/indyhub/exchange-backend/pkg/metrics"
	"github.com/indyhub/exchange-backend/pkg/outbox"
	"github.com/indyhub/exchange-backend/pkg/outbox/payloads"
)

type stockAdjuster interface {
	Adjust(ctx context.Context, tx *gorm.DB, corporationID, typeID, delta int64) (*models.StockEntry, error)
}

type outboxEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service records the stock movement and the immutable transaction rows for
// an order, all inside the caller's transaction boundary. Any failure aborts
// the whole settlement.
type Service interface {
	SettleSell(ctx context.Context, tx *gorm.DB, order *models.SellOrder, completedAt time.Time) ([]models.Transaction, error)
	SettleBuy(ctx context.Context, tx *gorm.DB, order *models.BuyOrder, completedAt time.Time) ([]models.Transaction, error)
}

type service struct {
	txRepo         transactions.Repository
	stock          stockAdjuster
	emitter        outboxEmitter
	metrics        *metrics.SettlementMetrics
	alertThreshold int64
}

// NewService builds the settlement recorder. The alert threshold, when
// positive, emits a stock alert event whenever a buy settlement leaves an
// entry at or below it.
func NewService(txRepo transactions.Repository, stock stockAdjuster, emitter outboxEmitter, m *metrics.SettlementMetrics, alertThreshold int64) (Service, error) {
	if txRepo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	if stock == nil {
		return nil, fmt.Errorf("stock adjuster required")
	}
	if emitter == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{
		txRepo:         txRepo,
		stock:          stock,
		emitter:        emitter,
		metrics:        m,
		alertThreshold: alertThreshold,
	}, nil
}

func (s *service) SettleSell(ctx context.Context, tx *gorm.DB, order *models.SellOrder, completedAt time.Time) ([]models.Transaction, error) {
	started := time.Now()
	rows, err := s.settleSell(ctx, tx, order, completedAt)
	s.record("sell", started, err)
	return rows, err
}

func (s *service) SettleBuy(ctx context.Context, tx *gorm.DB, order *models.BuyOrder, completedAt time.Time) ([]models.Transaction, error) {
	started := time.Now()
	rows, err := s.settleBuy(ctx, tx, order, completedAt)
	s.record("buy", started, err)
	return rows, err
}

func (s *service) settleSell(ctx context.Context, tx *gorm.DB, order *models.SellOrder, completedAt time.Time) ([]models.Transaction, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settlement requires a transaction")
	}
	if order == nil || len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeSettlementFailed, "settlement aborted").
			WithDetails(map[string]any{"reason": "order has no items"})
	}
	if order.Status == enums.SellOrderStatusCompleted || order.CompletedAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadySettled, "order already settled")
	}

	rows := make([]models.Transaction, 0, len(order.Items))
	for _, item := range order.Items {
		if _, err := s.stock.Adjust(ctx, tx, order.CorporationID, item.TypeID, item.Quantity); err != nil {
			return nil, err
		}
		rows = append(rows, models.Transaction{
			ID:             uuid.New(),
			Type:           enums.TransactionTypeSellToPool,
			CorporationID:  order.CorporationID,
			UserID:         order.SellerUserID,
			TypeID:         item.TypeID,
			TypeName:       item.TypeName,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			TotalPrice:     item.TotalPrice,
			OrderReference: order.OrderReference,
			OrderID:        order.ID,
			CompletedAt:    completedAt,
		})
	}

	if err := s.txRepo.WithTx(tx).Insert(ctx, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert settlement transactions")
	}
	return rows, nil
}

func (s *service) settleBuy(ctx context.Context, tx *gorm.DB, order *models.BuyOrder, completedAt time.Time) ([]models.Transaction, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "settlement requires a transaction")
	}
	if order == nil || len(order.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeSettlementFailed, "settlement aborted").
			WithDetails(map[string]any{"reason": "order has no items"})
	}
	if order.Status == enums.BuyOrderStatusCompleted || order.CompletedAt != nil {
		return nil, pkgerrors.New(pkgerrors.CodeAlreadySettled, "order already settled")
	}

	rows := make([]models.Transaction, 0, len(order.Items))
	for _, item := range order.Items {
		entry, err := s.stock.Adjust(ctx, tx, order.CorporationID, item.TypeID, -item.Quantity)
		if err != nil {
			return nil, err
		}
		if s.alertThreshold > 0 && entry.Quantity <= s.alertThreshold {
			if err := s.emitThresholdAlert(ctx, tx, entry); err != nil {
				return nil, err
			}
		}
		rows = append(rows, models.Transaction{
			ID:             uuid.New(),
			Type:           enums.TransactionTypeBuyFromPool,
			CorporationID:  order.CorporationID,
			UserID:         order.BuyerUserID,
			TypeID:         item.TypeID,
			TypeName:       item.TypeName,
			Quantity:       item.Quantity,
			UnitPrice:      item.UnitPrice,
			TotalPrice:     item.TotalPrice,
			OrderReference: order.OrderReference,
			OrderID:        order.ID,
			CompletedAt:    completedAt,
		})
	}

	if err := s.txRepo.WithTx(tx).Insert(ctx, rows); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "insert settlement transactions")
	}
	return rows, nil
}

func (s *service) emitThresholdAlert(ctx context.Context, tx *gorm.DB, entry *models.StockEntry) error {
	return s.emitter.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventStockThresholdBreached,
		AggregateType: enums.AggregateStockEntry,
		AggregateID:   entry.ID,
		Version:       1,
		Data: payloads.StockThresholdBreachedEvent{
			StockEntryID:  entry.ID,
			CorporationID: entry.CorporationID,
			TypeID:        entry.TypeID,
			TypeName:      entry.TypeName,
			Quantity:      entry.Quantity,
			Threshold:     s.alertThreshold,
		},
	})
}

func (s *service) record(orderType string, started time.Time, err error) {
	s.metrics.ObserveDuration(orderType, time.Since(started))
	if err == nil {
		s.metrics.IncSettled(orderType)
		return
	}
	reason := "dependency"
	if domainErr := pkgerrors.As(err); domainErr != nil {
		reason = string(domainErr.Code())
	}
	s.metrics.IncFailure(orderType, reason)
}
