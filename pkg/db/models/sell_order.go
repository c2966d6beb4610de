package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/indyhub/exchange-backend/pkg/enums"
)

// SellOrder is a member offering materials to the corporation pool.
type SellOrder struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderReference    string                `gorm:"column:order_reference;not null;uniqueIndex"`
	CorporationID     int64                 `gorm:"column:corporation_id;not null;index"`
	SellerUserID      uuid.UUID             `gorm:"column:seller_user_id;type:uuid;not null;index"`
	Status            enums.SellOrderStatus `gorm:"column:status;type:sell_order_status;not null;default:'pending'"`
	TotalPrice        decimal.Decimal       `gorm:"column:total_price;type:numeric(20,2);not null;default:0"`
	ApprovedByUserID  *uuid.UUID            `gorm:"column:approved_by_user_id;type:uuid"`
	ApprovedAt        *time.Time            `gorm:"column:approved_at"`
	VerifiedByUserID  *uuid.UUID            `gorm:"column:verified_by_user_id;type:uuid"`
	PaymentJournalRef *string               `gorm:"column:payment_journal_ref"`
	VerifiedAt        *time.Time            `gorm:"column:verified_at"`
	RejectionReason   *string               `gorm:"column:rejection_reason"`
	Notes             *string               `gorm:"column:notes"`
	CompletedAt       *time.Time            `gorm:"column:completed_at"`
	Items             []SellOrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the legacy table name.
func (SellOrder) TableName() string { return "material_exchange_sell_orders" }

// SellOrderItem snapshots one item line at order creation time.
type SellOrderItem struct {
	ID                   uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID              uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	TypeID               int64           `gorm:"column:type_id;not null"`
	TypeName             string          `gorm:"column:type_name;not null"`
	Quantity             int64           `gorm:"column:quantity;not null"`
	UnitPrice            decimal.Decimal `gorm:"column:unit_price;type:numeric(20,2);not null"`
	TotalPrice           decimal.Decimal `gorm:"column:total_price;type:numeric(20,2);not null"`
	ESIContractID        *int64          `gorm:"column:esi_contract_id"`
	ESIContractValidated bool            `gorm:"column:esi_contract_validated;not null;default:false"`
	ESIValidationAt      *time.Time      `gorm:"column:esi_validation_checked_at"`
	CreatedAt            time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TableName pins the legacy table name.
func (SellOrderItem) TableName() string { return "material_exchange_sell_order_items" }
