package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/indyhub/exchange-backend/pkg/enums"
)

// BuyOrder is a member buying materials out of the corporation pool.
type BuyOrder struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderReference    string                `gorm:"column:order_reference;not null;uniqueIndex"`
	CorporationID     int64                 `gorm:"column:corporation_id;not null;index"`
	BuyerUserID       uuid.UUID             `gorm:"column:buyer_user_id;type:uuid;not null;index"`
	Status            enums.BuyOrderStatus  `gorm:"column:status;type:buy_order_status;not null;default:'pending'"`
	TotalPrice        decimal.Decimal       `gorm:"column:total_price;type:numeric(20,2);not null;default:0"`
	DeliveryMethod    *enums.DeliveryMethod `gorm:"column:delivery_method;type:delivery_method"`
	ApprovedByUserID  *uuid.UUID            `gorm:"column:approved_by_user_id;type:uuid"`
	ApprovedAt        *time.Time            `gorm:"column:approved_at"`
	DeliveredByUserID *uuid.UUID            `gorm:"column:delivered_by_user_id;type:uuid"`
	RejectionReason   *string               `gorm:"column:rejection_reason"`
	Notes             *string               `gorm:"column:notes"`
	CompletedAt       *time.Time            `gorm:"column:completed_at"`
	Items             []BuyOrderItem        `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the legacy table name.
func (BuyOrder) TableName() string { return "material_exchange_buy_orders" }

// BuyOrderItem snapshots one item line and the stock level observed at
// creation, so approvers can see what was promised versus what remains.
type BuyOrderItem struct {
	ID                       uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID                  uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	TypeID                   int64           `gorm:"column:type_id;not null"`
	TypeName                 string          `gorm:"column:type_name;not null"`
	Quantity                 int64           `gorm:"column:quantity;not null"`
	UnitPrice                decimal.Decimal `gorm:"column:unit_price;type:numeric(20,2);not null"`
	TotalPrice               decimal.Decimal `gorm:"column:total_price;type:numeric(20,2);not null"`
	StockAvailableAtCreation int64           `gorm:"column:stock_available_at_creation;not null;default:0"`
	ESIContractID            *int64          `gorm:"column:esi_contract_id"`
	ESIContractValidated     bool            `gorm:"column:esi_contract_validated;not null;default:false"`
	ESIValidationAt          *time.Time      `gorm:"column:esi_validation_checked_at"`
	CreatedAt                time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt                time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the legacy table name.
func (BuyOrderItem) TableName() string { return "material_exchange_buy_order_items" }
