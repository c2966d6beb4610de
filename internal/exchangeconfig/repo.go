package exchangeconfig

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/indyhub/exchange-backend/pkg/db/models"
)

// Repository defines persistence operations for per-corporation exchange
// configuration rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindByCorporation(ctx context.Context, corporationID int64) (*models.ExchangeConfig, error)
	ListActive(ctx context.Context) ([]models.ExchangeConfig, error)
	Create(ctx context.Context, cfg *models.ExchangeConfig) (*models.ExchangeConfig, error)
	Update(ctx context.Context, corporationID int64, updates map[string]any) (int64, error)
	StampPriceSync(ctx context.Context, corporationID int64, at time.Time) error
	StampStockSync(ctx context.Context, corporationID int64, at time.Time) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a config repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindByCorporation(ctx context.Context, corporationID int64) (*models.ExchangeConfig, error) {
	var cfg models.ExchangeConfig
	err := r.db.WithContext(ctx).
		Where("corporation_id = ?", corporationID).
		First(&cfg).Error
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *repository) ListActive(ctx context.Context) ([]models.ExchangeConfig, error) {
	var configs []models.ExchangeConfig
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("corporation_id ASC").
		Find(&configs).Error
	if err != nil {
		return nil, err
	}
	return configs, nil
}

func (r *repository) Create(ctx context.Context, cfg *models.ExchangeConfig) (*models.ExchangeConfig, error) {
	if err := r.db.WithContext(ctx).Create(cfg).Error; err != nil {
		return nil, err
	}
	return cfg, nil
}

func (r *repository) Update(ctx context.Context, corporationID int64, updates map[string]any) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ExchangeConfig{}).
		Where("corporation_id = ?", corporationID).
		Updates(updates)
	return res.RowsAffected, res.Error
}

func (r *repository) StampPriceSync(ctx context.Context, corporationID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ExchangeConfig{}).
		Where("corporation_id = ?", corporationID).
		UpdateColumn("last_price_sync_at", at).Error
}

func (r *repository) StampStockSync(ctx context.Context, corporationID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.ExchangeConfig{}).
		Where("corporation_id = ?", corporationID).
		UpdateColumn("last_stock_sync_at", at).Error
}
