package settlement

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/indyhub/exchange-backend/internal/exchangeconfig"
	"github.com/indyhub/exchange-backend/internal/pricing"
	"github.com/indyhub/exchange-backend/internal/stock"
	"github.com/indyhub/exchange-backend/internal/transactions"
	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/enums"
	pkgerrors "github.com/indyhub/exchange-backend/pkg/errors"
	"github.com/indyhub/exchange-backend/pkg/outbox"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type noopMarkupSource struct{}

func (noopMarkupSource) Markup(context.Context, int64) (pricing.MarkupConfig, error) {
	return pricing.MarkupConfig{}, nil
}

type captureEmitter struct {
	events []outbox.DomainEvent
	err    error
}

func (c *captureEmitter) Emit(_ context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, event)
	return nil
}

func setupSettlementTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	stockTable := `
CREATE TABLE IF NOT EXISTS material_exchange_stock (
  id TEXT PRIMARY KEY,
  corporation_id INTEGER NOT NULL,
  type_id INTEGER NOT NULL,
  type_name TEXT NOT NULL,
  quantity INTEGER NOT NULL DEFAULT 0,
  jita_buy_price NUMERIC NOT NULL DEFAULT 0,
  jita_sell_price NUMERIC NOT NULL DEFAULT 0,
  member_buy_price NUMERIC NOT NULL DEFAULT 0,
  member_sell_price NUMERIC NOT NULL DEFAULT 0,
  last_price_sync_at DATETIME,
  last_stock_sync_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (corporation_id, type_id)
);`
	txTable := `
CREATE TABLE IF NOT EXISTS material_exchange_transactions (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  corporation_id INTEGER NOT NULL,
  user_id TEXT NOT NULL,
  type_id INTEGER NOT NULL,
  type_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  total_price NUMERIC NOT NULL,
  order_reference TEXT NOT NULL,
  order_id TEXT NOT NULL,
  completed_at DATETIME NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(stockTable).Error)
	require.NoError(t, db.Exec(txTable).Error)
	return db
}

type settlementHarness struct {
	db      *gorm.DB
	svc     Service
	txRepo  transactions.Repository
	emitter *captureEmitter
	stock   stock.Service
}

func newHarness(t *testing.T, alertThreshold int64) *settlementHarness {
	t.Helper()

	db := setupSettlementTestDB(t)
	stockSvc, err := stock.NewService(
		stock.NewRepository(db),
		gormTxRunner{db: db},
		noopMarkupSource{},
		exchangeconfig.NewRepository(db),
	)
	require.NoError(t, err)

	txRepo := transactions.NewRepository(db)
	emitter := &captureEmitter{}
	svc, err := NewService(txRepo, stockSvc, emitter, nil, alertThreshold)
	require.NoError(t, err)

	return &settlementHarness{db: db, svc: svc, txRepo: txRepo, emitter: emitter, stock: stockSvc}
}

func (h *settlementHarness) seedStock(t *testing.T, typeID, quantity int64, name string) models.StockEntry {
	t.Helper()
	entry := models.StockEntry{
		ID:            uuid.New(),
		CorporationID: 98000001,
		TypeID:        typeID,
		TypeName:      name,
		Quantity:      quantity,
	}
	require.NoError(t, h.db.Create(&entry).Error)
	return entry
}

func (h *settlementHarness) stockQuantity(t *testing.T, typeID int64) int64 {
	t.Helper()
	var entry models.StockEntry
	require.NoError(t, h.db.Where("corporation_id = ? AND type_id = ?", 98000001, typeID).First(&entry).Error)
	return entry.Quantity
}

func buyOrder(qty int64, typeID int64, name string, unitPrice string) *models.BuyOrder {
	id := uuid.New()
	price := decimal.RequireFromString(unitPrice)
	total := price.Mul(decimal.NewFromInt(qty))
	return &models.BuyOrder{
		ID:             id,
		OrderReference: "MX-" + id.String()[:6],
		CorporationID:  98000001,
		BuyerUserID:    uuid.New(),
		Status:         enums.BuyOrderStatusApproved,
		TotalPrice:     total,
		Items: []models.BuyOrderItem{
			{
				ID:         uuid.New(),
				OrderID:    id,
				TypeID:     typeID,
				TypeName:   name,
				Quantity:   qty,
				UnitPrice:  price,
				TotalPrice: total,
			},
		},
	}
}

func TestBuySettlementDrainsStockThenRejects(t *testing.T) {
	h := newHarness(t, 0)
	h.seedStock(t, 34, 10, "Tritanium")
	ctx := context.Background()
	completedAt := time.Now().UTC()

	first := buyOrder(10, 34, "Tritanium", "5.00")
	var settled []models.Transaction
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var settleErr error
		settled, settleErr = h.svc.SettleBuy(ctx, tx, first, completedAt)
		return settleErr
	})
	require.NoError(t, err)
	require.Len(t, settled, 1)
	assert.Equal(t, int64(10), settled[0].Quantity)
	assert.Equal(t, enums.TransactionTypeBuyFromPool, settled[0].Type)
	assert.Equal(t, int64(0), h.stockQuantity(t, 34))

	// one unit past empty fails atomically and leaves the order settleable later
	second := buyOrder(1, 34, "Tritanium", "5.00")
	err = h.db.Transaction(func(tx *gorm.DB) error {
		_, settleErr := h.svc.SettleBuy(ctx, tx, second, completedAt)
		return settleErr
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, pkgerrors.As(err).Code())
	assert.Equal(t, int64(0), h.stockQuantity(t, 34))

	rows, listErr := h.txRepo.FindByOrder(ctx, second.ID)
	require.NoError(t, listErr)
	assert.Empty(t, rows, "failed settlement must not leave transaction rows")
}

func TestBuySettlementIsAllOrNothing(t *testing.T) {
	h := newHarness(t, 0)
	h.seedStock(t, 34, 100, "Tritanium")
	h.seedStock(t, 35, 2, "Pyerite")
	ctx := context.Background()

	id := uuid.New()
	order := &models.BuyOrder{
		ID:             id,
		OrderReference: "MX-MIXED1",
		CorporationID:  98000001,
		BuyerUserID:    uuid.New(),
		Status:         enums.BuyOrderStatusApproved,
		Items: []models.BuyOrderItem{
			{ID: uuid.New(), OrderID: id, TypeID: 34, TypeName: "Tritanium", Quantity: 50, UnitPrice: decimal.RequireFromString("5.00"), TotalPrice: decimal.RequireFromString("250.00")},
			{ID: uuid.New(), OrderID: id, TypeID: 35, TypeName: "Pyerite", Quantity: 5, UnitPrice: decimal.RequireFromString("10.00"), TotalPrice: decimal.RequireFromString("50.00")},
		},
	}

	err := h.db.Transaction(func(tx *gorm.DB) error {
		_, settleErr := h.svc.SettleBuy(ctx, tx, order, time.Now().UTC())
		return settleErr
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeInsufficientStock, pkgerrors.As(err).Code())

	// the first item's decrement must have rolled back with the failure
	assert.Equal(t, int64(100), h.stockQuantity(t, 34))
	assert.Equal(t, int64(2), h.stockQuantity(t, 35))
}

func TestSellSettlementCreditsStockPerItem(t *testing.T) {
	h := newHarness(t, 0)
	h.seedStock(t, 34, 0, "Tritanium")
	h.seedStock(t, 35, 10, "Pyerite")
	ctx := context.Background()
	completedAt := time.Now().UTC()

	id := uuid.New()
	order := &models.SellOrder{
		ID:             id,
		OrderReference: "MX-SELL01",
		CorporationID:  98000001,
		SellerUserID:   uuid.New(),
		Status:         enums.SellOrderStatusPaymentVerified,
		TotalPrice:     decimal.RequireFromString("650.00"),
		Items: []models.SellOrderItem{
			{ID: uuid.New(), OrderID: id, TypeID: 34, TypeName: "Tritanium", Quantity: 5, UnitPrice: decimal.RequireFromString("100.00"), TotalPrice: decimal.RequireFromString("500.00")},
			{ID: uuid.New(), OrderID: id, TypeID: 35, TypeName: "Pyerite", Quantity: 3, UnitPrice: decimal.RequireFromString("50.00"), TotalPrice: decimal.RequireFromString("150.00")},
		},
	}

	var settled []models.Transaction
	err := h.db.Transaction(func(tx *gorm.DB) error {
		var settleErr error
		settled, settleErr = h.svc.SettleSell(ctx, tx, order, completedAt)
		return settleErr
	})
	require.NoError(t, err)
	require.Len(t, settled, 2)

	total := decimal.Zero
	for _, row := range settled {
		assert.Equal(t, enums.TransactionTypeSellToPool, row.Type)
		assert.Equal(t, "MX-SELL01", row.OrderReference)
		total = total.Add(row.TotalPrice)
	}
	assert.True(t, total.Equal(decimal.RequireFromString("650.00")), "transactions must sum to the order total, got %s", total)

	assert.Equal(t, int64(5), h.stockQuantity(t, 34))
	assert.Equal(t, int64(13), h.stockQuantity(t, 35))
}

func TestSettleCompletedOrderFails(t *testing.T) {
	h := newHarness(t, 0)
	h.seedStock(t, 34, 10, "Tritanium")
	ctx := context.Background()

	order := buyOrder(1, 34, "Tritanium", "5.00")
	order.Status = enums.BuyOrderStatusCompleted
	err := h.db.Transaction(func(tx *gorm.DB) error {
		_, settleErr := h.svc.SettleBuy(ctx, tx, order, time.Now().UTC())
		return settleErr
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeAlreadySettled, pkgerrors.As(err).Code())

	sell := &models.SellOrder{
		ID:             uuid.New(),
		OrderReference: "MX-DONE01",
		CorporationID:  98000001,
		SellerUserID:   uuid.New(),
		Status:         enums.SellOrderStatusCompleted,
		Items:          []models.SellOrderItem{{TypeID: 34, TypeName: "Tritanium", Quantity: 1, UnitPrice: decimal.RequireFromString("1.00"), TotalPrice: decimal.RequireFromString("1.00")}},
	}
	err = h.db.Transaction(func(tx *gorm.DB) error {
		_, settleErr := h.svc.SettleSell(ctx, tx, sell, time.Now().UTC())
		return settleErr
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeAlreadySettled, pkgerrors.As(err).Code())
}

func TestBuySettlementEmitsThresholdAlert(t *testing.T) {
	h := newHarness(t, 5)
	entry := h.seedStock(t, 34, 7, "Tritanium")
	ctx := context.Background()

	order := buyOrder(3, 34, "Tritanium", "5.00")
	err := h.db.Transaction(func(tx *gorm.DB) error {
		_, settleErr := h.svc.SettleBuy(ctx, tx, order, time.Now().UTC())
		return settleErr
	})
	require.NoError(t, err)

	require.Len(t, h.emitter.events, 1)
	event := h.emitter.events[0]
	assert.Equal(t, enums.EventStockThresholdBreached, event.EventType)
	assert.Equal(t, enums.AggregateStockEntry, event.AggregateType)
	assert.Equal(t, entry.ID, event.AggregateID)
}

func TestSettleWithEmptyItems(t *testing.T) {
	h := newHarness(t, 0)
	err := h.db.Transaction(func(tx *gorm.DB) error {
		_, settleErr := h.svc.SettleBuy(context.Background(), tx, &models.BuyOrder{Status: enums.BuyOrderStatusApproved}, time.Now().UTC())
		return settleErr
	})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeSettlementFailed, pkgerrors.As(err).Code())
}
