package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeConfig holds the per-corporation exchange policy. One row per
// corporation; created by administrative action only.
type ExchangeConfig struct {
	ID                         uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CorporationID              int64           `gorm:"column:corporation_id;not null;uniqueIndex"`
	StructureID                *int64          `gorm:"column:structure_id"`
	StructureName              *string         `gorm:"column:structure_name"`
	HangarDivision             int             `gorm:"column:hangar_division;not null;default:1"`
	SellMarkupPercent          decimal.Decimal `gorm:"column:sell_markup_percent;type:numeric(6,2);not null;default:0"`
	SellMarkupBase             decimal.Decimal `gorm:"column:sell_markup_base;type:numeric(20,2);not null;default:0"`
	BuyMarkupPercent           decimal.Decimal `gorm:"column:buy_markup_percent;type:numeric(6,2);not null;default:0"`
	BuyMarkupBase              decimal.Decimal `gorm:"column:buy_markup_base;type:numeric(20,2);not null;default:0"`
	RequireContractValidation  bool            `gorm:"column:require_contract_validation;not null;default:false"`
	IsActive                   bool            `gorm:"column:is_active;not null;default:true"`
	LastPriceSyncAt            *time.Time      `gorm:"column:last_price_sync_at"`
	LastStockSyncAt            *time.Time      `gorm:"column:last_stock_sync_at"`
	CreatedAt                  time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                  time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the legacy table name.
func (ExchangeConfig) TableName() string { return "material_exchange_configs" }
