package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/indyhub/exchange-backend/pkg/enums"
)

// Transaction is the immutable record of one settled item movement. Rows are
// inserted exactly once per settled order item and never updated.
type Transaction struct {
	ID             uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Type           enums.TransactionType `gorm:"column:type;type:transaction_type;not null"`
	CorporationID  int64                 `gorm:"column:corporation_id;not null;index"`
	UserID         uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	TypeID         int64                 `gorm:"column:type_id;not null"`
	TypeName       string                `gorm:"column:type_name;not null"`
	Quantity       int64                 `gorm:"column:quantity;not null"`
	UnitPrice      decimal.Decimal       `gorm:"column:unit_price;type:numeric(20,2);not null"`
	TotalPrice     decimal.Decimal       `gorm:"column:total_price;type:numeric(20,2);not null"`
	OrderReference string                `gorm:"column:order_reference;not null;index"`
	OrderID        uuid.UUID             `gorm:"column:order_id;type:uuid;not null"`
	CompletedAt    time.Time             `gorm:"column:completed_at;not null"`
	CreatedAt      time.Time             `gorm:"column:created_at;autoCreateTime"`
}

// TableName pins the legacy table name.
func (Transaction) TableName() string { return "material_exchange_transactions" }
