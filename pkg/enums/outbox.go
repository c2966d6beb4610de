package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateSellOrder    OutboxAggregateType = "sell_order"
	AggregateBuyOrder     OutboxAggregateType = "buy_order"
	AggregateStockEntry   OutboxAggregateType = "stock_entry"
	AggregateTransaction  OutboxAggregateType = "transaction"
	AggregateNotification OutboxAggregateType = "notification"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateSellOrder,
	AggregateBuyOrder,
	AggregateStockEntry,
	AggregateTransaction,
	AggregateNotification,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventSellOrderSubmitted       OutboxEventType = "sell_order_submitted"
	EventSellOrderApproved        OutboxEventType = "sell_order_approved"
	EventSellOrderPaymentVerified OutboxEventType = "sell_order_payment_verified"
	EventSellOrderCompleted       OutboxEventType = "sell_order_completed"
	EventSellOrderRejected        OutboxEventType = "sell_order_rejected"
	EventSellOrderCancelled       OutboxEventType = "sell_order_cancelled"
	EventBuyOrderSubmitted        OutboxEventType = "buy_order_submitted"
	EventBuyOrderApproved         OutboxEventType = "buy_order_approved"
	EventBuyOrderCompleted        OutboxEventType = "buy_order_completed"
	EventBuyOrderRejected         OutboxEventType = "buy_order_rejected"
	EventBuyOrderCancelled        OutboxEventType = "buy_order_cancelled"
	EventStockThresholdBreached   OutboxEventType = "stock_threshold_breached"
	EventNotificationRequested    OutboxEventType = "notification_requested"
)

var validEventTypes = []OutboxEventType{
	EventSellOrderSubmitted,
	EventSellOrderApproved,
	EventSellOrderPaymentVerified,
	EventSellOrderCompleted,
	EventSellOrderRejected,
	EventSellOrderCancelled,
	EventBuyOrderSubmitted,
	EventBuyOrderApproved,
	EventBuyOrderCompleted,
	EventBuyOrderRejected,
	EventBuyOrderCancelled,
	EventStockThresholdBreached,
	EventNotificationRequested,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
