package stock

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/pagination"
)

// ListFilters narrows stock listings.
type ListFilters struct {
	Search  string
	InStock bool
}

// Repository defines persistence operations for the stock ledger.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByType(ctx context.Context, corporationID, typeID int64) (*models.StockEntry, error)
	List(ctx context.Context, corporationID int64, params pagination.Params, filters ListFilters) ([]models.StockEntry, error)
	AdjustQuantity(ctx context.Context, corporationID, typeID, delta int64) (int64, error)
	UpsertPrices(ctx context.Context, entries []models.StockEntry, at time.Time) error
	UpsertQuantities(ctx context.Context, entries []models.StockEntry, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a stock repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByType(ctx context.Context, corporationID, typeID int64) (*models.StockEntry, error) {
	var entry models.StockEntry
	err := r.db.WithContext(ctx).
		Where("corporation_id = ? AND type_id = ?", corporationID, typeID).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *repository) List(ctx context.Context, corporationID int64, params pagination.Params, filters ListFilters) ([]models.StockEntry, error) {
	query := r.db.WithContext(ctx).
		Where("corporation_id = ?", corporationID)

	if filters.Search != "" {
		query = query.Where("type_name LIKE ?", "%"+filters.Search+"%")
	}
	if filters.InStock {
		query = query.Where("quantity > 0")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at > ?) OR (created_at = ? AND id > ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var entries []models.StockEntry
	err = query.
		Order("created_at ASC").
		Order("id ASC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// AdjustQuantity applies a signed delta with a floor of zero. The WHERE
// clause is the compare-and-swap: zero rows affected means the guard failed.
func (r *repository) AdjustQuantity(ctx context.Context, corporationID, typeID, delta int64) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.StockEntry{}).
		Where("corporation_id = ? AND type_id = ? AND quantity + ? >= 0", corporationID, typeID, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	return res.RowsAffected, res.Error
}

func (r *repository) UpsertPrices(ctx context.Context, entries []models.StockEntry, at time.Time) error {
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		entries[i].LastPriceSyncAt = &at
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "corporation_id"}, {Name: "type_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"type_name",
				"jita_buy_price",
				"jita_sell_price",
				"member_buy_price",
				"member_sell_price",
				"last_price_sync_at",
				"updated_at",
			}),
		}).
		Create(&entries).Error
}

func (r *repository) UpsertQuantities(ctx context.Context, entries []models.StockEntry, at time.Time) error {
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		entries[i].LastStockSyncAt = &at
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "corporation_id"}, {Name: "type_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"type_name",
				"quantity",
				"last_stock_sync_at",
				"updated_at",
			}),
		}).
		Create(&entries).Error
}
