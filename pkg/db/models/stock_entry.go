package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StockEntry tracks one item type held in a corporation's exchange pool.
// Reference prices come from the Jita market sync; member prices are derived
// through the pricing engine and must respect the operator margin.
type StockEntry struct {
	ID              uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CorporationID   int64           `gorm:"column:corporation_id;not null;uniqueIndex:idx_stock_corp_type"`
	TypeID          int64           `gorm:"column:type_id;not null;uniqueIndex:idx_stock_corp_type"`
	TypeName        string          `gorm:"column:type_name;not null"`
	Quantity        int64           `gorm:"column:quantity;not null;default:0"`
	JitaBuyPrice    decimal.Decimal `gorm:"column:jita_buy_price;type:numeric(20,2);not null;default:0"`
	JitaSellPrice   decimal.Decimal `gorm:"column:jita_sell_price;type:numeric(20,2);not null;default:0"`
	MemberBuyPrice  decimal.Decimal `gorm:"column:member_buy_price;type:numeric(20,2);not null;default:0"`
	MemberSellPrice decimal.Decimal `gorm:"column:member_sell_price;type:numeric(20,2);not null;default:0"`
	LastPriceSyncAt *time.Time      `gorm:"column:last_price_sync_at"`
	LastStockSyncAt *time.Time      `gorm:"column:last_stock_sync_at"`
	CreatedAt       time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the legacy table name.
func (StockEntry) TableName() string { return "material_exchange_stock" }
