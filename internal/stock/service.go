package stock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/indyhub/exchange-backend/internal/exchangeconfig"
	"github.com/indyhub/exchange-backend/internal/pricing"
	"github.com/indyhub/exchange-backend/pkg/db/models"
	pkgerrors "github.com/indyhub/exchange-backend/pkg/errors"
	"github.com/indyhub/exchange-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type markupSource interface {
	Markup(ctx context.Context, corporationID int64) (pricing.MarkupConfig, error)
}

// ListInput carries stock listing parameters.
type ListInput struct {
	Limit   int
	Cursor  string
	Search  string
	InStock bool
}

// List is one page of stock entries.
type List struct {
	Entries    []models.StockEntry
	NextCursor string
}

// PriceSyncEntry is one reference-price row pushed by the market sync.
type PriceSyncEntry struct {
	TypeID   int64
	TypeName string
	JitaBuy  decimal.Decimal
	JitaSell decimal.Decimal
}

// QuantitySyncEntry is one hangar quantity row pushed by the asset sync.
type QuantitySyncEntry struct {
	TypeID   int64
	TypeName string
	Quantity int64
}

// Service is the stock ledger.
type Service interface {
	Get(ctx context.Context, corporationID, typeID int64) (*models.StockEntry, error)
	List(ctx context.Context, corporationID int64, input ListInput) (*List, error)
	// Adjust applies a signed quantity delta inside the caller's transaction
	// and returns the updated entry. Results that would go negative are
	// rejected, never clamped.
	Adjust(ctx context.Context, tx *gorm.DB, corporationID, typeID, delta int64) (*models.StockEntry, error)
	SyncPrices(ctx context.Context, corporationID int64, entries []PriceSyncEntry) (int, error)
	SyncStock(ctx context.Context, corporationID int64, entries []QuantitySyncEntry) (int, error)
}

type service struct {
	repo    Repository
	tx      txRunner
	markups markupSource
	configs exchangeconfig.Repository
}

// NewService builds the stock ledger service. The config repository stamps
// sync timestamps in the same transaction as the upserts.
func NewService(repo Repository, tx txRunner, markups markupSource, configs exchangeconfig.Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if markups == nil {
		return nil, fmt.Errorf("markup source required")
	}
	if configs == nil {
		return nil, fmt.Errorf("config repository required")
	}
	return &service{repo: repo, tx: tx, markups: markups, configs: configs}, nil
}

func (s *service) Get(ctx context.Context, corporationID, typeID int64) (*models.StockEntry, error) {
	entry, err := s.repo.FindByType(ctx, corporationID, typeID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock entry not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock entry")
	}
	return entry, nil
}

func (s *service) List(ctx context.Context, corporationID int64, input ListInput) (*List, error) {
	params := pagination.Params{Limit: input.Limit, Cursor: input.Cursor}
	entries, err := s.repo.List(ctx, corporationID, params, ListFilters{
		Search:  input.Search,
		InStock: input.InStock,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock entries")
	}

	limit := pagination.NormalizeLimit(input.Limit)
	result := &List{Entries: entries}
	if len(entries) > limit {
		result.Entries = entries[:limit]
		last := result.Entries[limit-1]
		result.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return result, nil
}

func (s *service) Adjust(ctx context.Context, tx *gorm.DB, corporationID, typeID, delta int64) (*models.StockEntry, error) {
	if tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "stock adjustment requires a transaction")
	}
	repo := s.repo.WithTx(tx)

	affected, err := repo.AdjustQuantity(ctx, corporationID, typeID, delta)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "adjust stock quantity")
	}
	if affected == 0 {
		entry, err := repo.FindByType(ctx, corporationID, typeID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock entry not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock entry")
		}
		return nil, pkgerrors.New(pkgerrors.CodeInsufficientStock, "insufficient stock").
			WithDetails(map[string]any{
				"type_id":   typeID,
				"requested": -delta,
				"available": entry.Quantity,
			})
	}

	entry, err := repo.FindByType(ctx, corporationID, typeID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload stock entry")
	}
	return entry, nil
}

func (s *service) SyncPrices(ctx context.Context, corporationID int64, entries []PriceSyncEntry) (int, error) {
	if len(entries) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "no price entries supplied")
	}
	markup, err := s.markups.Markup(ctx, corporationID)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	rows := make([]models.StockEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.TypeID <= 0 || entry.TypeName == "" {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "price entries require type id and name")
		}
		if entry.JitaBuy.IsNegative() || entry.JitaSell.IsNegative() {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "reference prices must be non-negative")
		}
		memberBuy, memberSell := pricing.MemberPrices(entry.JitaBuy, entry.JitaSell, markup)
		rows = append(rows, models.StockEntry{
			ID:              uuid.New(),
			CorporationID:   corporationID,
			TypeID:          entry.TypeID,
			TypeName:        entry.TypeName,
			JitaBuyPrice:    entry.JitaBuy,
			JitaSellPrice:   entry.JitaSell,
			MemberBuyPrice:  memberBuy,
			MemberSellPrice: memberSell,
		})
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpsertPrices(ctx, rows, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert reference prices")
		}
		return s.configs.WithTx(tx).StampPriceSync(ctx, corporationID, now)
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

func (s *service) SyncStock(ctx context.Context, corporationID int64, entries []QuantitySyncEntry) (int, error) {
	if len(entries) == 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "no stock entries supplied")
	}

	now := time.Now().UTC()
	rows := make([]models.StockEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.TypeID <= 0 || entry.TypeName == "" {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "stock entries require type id and name")
		}
		if entry.Quantity < 0 {
			return 0, pkgerrors.New(pkgerrors.CodeValidation, "stock quantities must be non-negative")
		}
		rows = append(rows, models.StockEntry{
			ID:            uuid.New(),
			CorporationID: corporationID,
			TypeID:        entry.TypeID,
			TypeName:      entry.TypeName,
			Quantity:      entry.Quantity,
		})
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).UpsertQuantities(ctx, rows, now); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert stock quantities")
		}
		return s.configs.WithTx(tx).StampStockSync(ctx, corporationID, now)
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
