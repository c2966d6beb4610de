package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/indyhub/exchange-backend/pkg/enums"
)

// SellOrderSubmittedEvent signals a member handed materials to the pool for review.
type SellOrderSubmittedEvent struct {
	OrderID        uuid.UUID       `json:"order_id"`
	OrderReference string          `json:"order_reference"`
	CorporationID  int64           `json:"corporation_id"`
	SellerUserID   uuid.UUID       `json:"seller_user_id"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Currency       enums.Currency  `json:"currency"`
	ItemCount      int             `json:"item_count"`
}

// SellOrderApprovedEvent is emitted when a manager approves a pending sell order.
type SellOrderApprovedEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	OrderReference   string    `json:"order_reference"`
	CorporationID    int64     `json:"corporation_id"`
	SellerUserID     uuid.UUID `json:"seller_user_id"`
	ApprovedByUserID uuid.UUID `json:"approved_by_user_id"`
}

// SellOrderPaymentVerifiedEvent records the ISK payout journal reference.
type SellOrderPaymentVerifiedEvent struct {
	OrderID           uuid.UUID `json:"order_id"`
	OrderReference    string    `json:"order_reference"`
	SellerUserID      uuid.UUID `json:"seller_user_id"`
	VerifiedByUserID  uuid.UUID `json:"verified_by_user_id"`
	PaymentJournalRef string    `json:"payment_journal_ref"`
}

// SellOrderCompletedEvent surfaces the settled totals once stock has been credited.
type SellOrderCompletedEvent struct {
	OrderID        uuid.UUID       `json:"order_id"`
	OrderReference string          `json:"order_reference"`
	CorporationID  int64           `json:"corporation_id"`
	SellerUserID   uuid.UUID       `json:"seller_user_id"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Currency       enums.Currency  `json:"currency"`
	CompletedAt    time.Time       `json:"completed_at"`
}

// SellOrderRejectedEvent is emitted when a manager declines an order.
type SellOrderRejectedEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	OrderReference   string    `json:"order_reference"`
	SellerUserID     uuid.UUID `json:"seller_user_id"`
	RejectedByUserID uuid.UUID `json:"rejected_by_user_id"`
	Reason           string    `json:"reason,omitempty"`
}

// SellOrderCancelledEvent is emitted when the seller withdraws a pending order.
type SellOrderCancelledEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	OrderReference string    `json:"order_reference"`
	SellerUserID   uuid.UUID `json:"seller_user_id"`
	CancelledAt    time.Time `json:"cancelled_at"`
}

// BuyOrderSubmittedEvent signals a member requested materials from the pool.
type BuyOrderSubmittedEvent struct {
	OrderID        uuid.UUID       `json:"order_id"`
	OrderReference string          `json:"order_reference"`
	CorporationID  int64           `json:"corporation_id"`
	BuyerUserID    uuid.UUID       `json:"buyer_user_id"`
	TotalPrice     decimal.Decimal `json:"total_price"`
	Currency       enums.Currency  `json:"currency"`
	ItemCount      int             `json:"item_count"`
}

// BuyOrderApprovedEvent is emitted when a manager approves a pending buy order.
type BuyOrderApprovedEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	OrderReference   string    `json:"order_reference"`
	CorporationID    int64     `json:"corporation_id"`
	BuyerUserID      uuid.UUID `json:"buyer_user_id"`
	ApprovedByUserID uuid.UUID `json:"approved_by_user_id"`
}

// BuyOrderCompletedEvent surfaces delivery details once stock has been debited.
type BuyOrderCompletedEvent struct {
	OrderID        uuid.UUID             `json:"order_id"`
	OrderReference string                `json:"order_reference"`
	CorporationID  int64                 `json:"corporation_id"`
	BuyerUserID    uuid.UUID             `json:"buyer_user_id"`
	TotalPrice     decimal.Decimal       `json:"total_price"`
	Currency       enums.Currency        `json:"currency"`
	DeliveryMethod *enums.DeliveryMethod `json:"delivery_method,omitempty"`
	CompletedAt    time.Time             `json:"completed_at"`
}

// BuyOrderRejectedEvent is emitted when a manager declines an order.
type BuyOrderRejectedEvent struct {
	OrderID          uuid.UUID `json:"order_id"`
	OrderReference   string    `json:"order_reference"`
	BuyerUserID      uuid.UUID `json:"buyer_user_id"`
	RejectedByUserID uuid.UUID `json:"rejected_by_user_id"`
	Reason           string    `json:"reason,omitempty"`
}

// BuyOrderCancelledEvent is emitted when the buyer withdraws a pending order.
type BuyOrderCancelledEvent struct {
	OrderID        uuid.UUID `json:"order_id"`
	OrderReference string    `json:"order_reference"`
	BuyerUserID    uuid.UUID `json:"buyer_user_id"`
	CancelledAt    time.Time `json:"cancelled_at"`
}

// StockThresholdBreachedEvent warns that pool stock dropped below the alert floor.
type StockThresholdBreachedEvent struct {
	StockEntryID  uuid.UUID `json:"stock_entry_id"`
	CorporationID int64     `json:"corporation_id"`
	TypeID        int64     `json:"type_id"`
	TypeName      string    `json:"type_name"`
	Quantity      int64     `json:"quantity"`
	Threshold     int64     `json:"threshold"`
}

// NotificationRequestedEvent tells the notification consumer to alert a user.
type NotificationRequestedEvent struct {
	UserID         uuid.UUID               `json:"user_id"`
	Type           enums.NotificationType  `json:"type"`
	Level          enums.NotificationLevel `json:"level"`
	Title          string                  `json:"title"`
	Message        string                  `json:"message"`
	Link           string                  `json:"link,omitempty"`
	OrderReference string                  `json:"order_reference,omitempty"`
}
