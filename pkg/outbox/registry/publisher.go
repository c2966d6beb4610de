package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/indyhub/exchange-backend/pkg/config"
	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/enums"
	"github.com/indyhub/exchange-backend/pkg/outbox"
	"github.com/indyhub/exchange-backend/pkg/outbox/payloads"
)

// EventDescriptor links an event type to its aggregate/topic/payload schema.
type EventDescriptor struct {
	EventType      enums.OutboxEventType
	AggregateType  enums.OutboxAggregateType
	Topic          string
	PayloadFactory func() interface{}
}

// ResolvedEvent is the result of decoding an outbox row.
type ResolvedEvent struct {
	Descriptor EventDescriptor
	Envelope   outbox.PayloadEnvelope
	Payload    interface{}
}

// EventRegistry maps each supported event type to its descriptor.
type EventRegistry struct {
	entries map[enums.OutboxEventType]EventDescriptor
}

// NonRetryableError signals the dispatcher should stop retrying a row.
type NonRetryableError struct {
	Err error
}

// Error implements error.
func (e NonRetryableError) Error() string {
	if e.Err == nil {
		return "non-retryable error"
	}
	return e.Err.Error()
}

// Unwrap exposes the wrapped error.
func (e NonRetryableError) Unwrap() error {
	return e.Err
}

// NewEventRegistry builds the registry with the configured topic names.
func NewEventRegistry(cfg config.PubSubConfig) (*EventRegistry, error) {
	if cfg.ExchangeTopic == "" {
		return nil, fmt.Errorf("exchange topic is required")
	}
	if cfg.NotificationTopic == "" {
		return nil, fmt.Errorf("notification topic is required")
	}

	reg := &EventRegistry{entries: make(map[enums.OutboxEventType]EventDescriptor)}
	exchangeTopic := cfg.ExchangeTopic
	notificationTopic := cfg.NotificationTopic

	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventSellOrderSubmitted,
			AggregateType:  enums.AggregateSellOrder,
			Topic:          exchangeTopic,
			PayloadFactory: func() interface{} { return &payloads.SellOrderSubmittedEvent{} },
		},
		{
			EventType:      enums.EventSellOrderApproved,
			AggregateType:  enums.AggregateSellOrder,
			Topic:          exchangeTopic,
			PayloadFactory: func() interface{} { return &payloads.SellOrderApprovedEvent{} },
		},
		{
			EventType:      enums.EventSellOrderPaymentVerified,
			AggregateType:  enums.AggregateSellOrder,
			Topic:          exchangeTopic,
			PayloadFactory: func() interface{} { return &payloads.SellOrderPaymentVerifiedEvent{} },
		},
		{
			EventType:      enums.EventSellOrderCompleted,
			AggregateType:  enums.AggregateSellOrder,
			Topic:          exchangeTopic,
			PayloadFactory: func() interface{} { return &payloads.SellOrderCompletedEvent{} },
		},
		{
			EventType:      enums.EventSellOrderRejected,
			AggregateType:  enums.AggregateSellOrder,
			Topic:          exchangeTopic,
			PayloadFactory: func() interface{} { return &payloads.SellOrderRejectedEvent{} },
		},
		{
			EventType:      enums.EventSellOrderCancelled,
			AggregateType:  enums.AggregateSellOrder,
			Topic:          exchangeTopic,
			PayloadFactory: func() interface{} { return &payloads.SellOrderCancelledEvent{} },
		},
	} {
		reg.register(desc)
	}
	for _, desc := range []EventDescriptor{
		{
			EventType:      enums.EventBuyOrderSubmitted,
			AggregateType:  enums.AggregateBuyOrder,
			Topic:          exchangeTopic,
			PayloadFactory: func() interface{} { return &payloads.BuyOrderSubmittedEvent{} },
		},
		{
			EventType:      enums.EventBuyOrderApproved,
			AggregateType:  enums.AggregateBuyOrder,
			Topic:          exchangeTopic,
			PayloadFactory: func() interface{} { return &payloads.BuyOrderApprovedEvent{} },
		},
		{
			EventType:      enums.EventBuyOrderCompleted,
			AggregateType:  enums.AggregateBuyOrder,
			Topic:          exchangeTopic,
			PayloadFactory: func() interface{} { return &payloads.BuyOrderCompletedEvent{} },
		},
		{
			EventType:      enums.EventBuyOrderRejected,
			AggregateType:  enums.AggregateBuyOrder,
			Topic:          exchangeTopic,
			PayloadFactory: func() interface{} { return &payloads.BuyOrderRejectedEvent{} },
		},
		{
			EventType:      enums.EventBuyOrderCancelled,
			AggregateType:  enums.AggregateBuyOrder,
			Topic:          exchangeTopic,
			PayloadFactory: func() interface{} { return &payloads.BuyOrderCancelledEvent{} },
		},
	} {
		reg.register(desc)
	}
	reg.register(EventDescriptor{
		EventType:      enums.EventStockThresholdBreached,
		AggregateType:  enums.AggregateStockEntry,
		Topic:          exchangeTopic,
		PayloadFactory: func() interface{} { return &payloads.StockThresholdBreachedEvent{} },
	})
	reg.register(EventDescriptor{
		EventType:      enums.EventNotificationRequested,
		AggregateType:  enums.AggregateNotification,
		Topic:          notificationTopic,
		PayloadFactory: func() interface{} { return &payloads.NotificationRequestedEvent{} },
	})

	return reg, nil
}

func (r *EventRegistry) register(desc EventDescriptor) {
	if desc.PayloadFactory == nil {
		return
	}
	r.entries[desc.EventType] = desc
}

// Resolve validates the row and decodes its typed payload.
func (r *EventRegistry) Resolve(event models.OutboxEvent) (*ResolvedEvent, error) {
	desc, ok := r.entries[event.EventType]
	if !ok {
		return nil, NewNonRetryableError(fmt.Errorf("unsupported event type %s", event.EventType))
	}
	if desc.AggregateType != event.AggregateType {
		return nil, NewNonRetryableError(fmt.Errorf("aggregate mismatch: expected %s got %s", desc.AggregateType, event.AggregateType))
	}
	if event.AggregateID == uuid.Nil {
		return nil, NewNonRetryableError(fmt.Errorf("missing aggregate_id"))
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(event.Payload, &envelope); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode envelope: %w", err))
	}

	trimmed := bytes.TrimSpace(envelope.Data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, NewNonRetryableError(fmt.Errorf("payload missing for %s", event.EventType))
	}

	payload := desc.PayloadFactory()
	if payload == nil {
		return nil, NewNonRetryableError(fmt.Errorf("payload factory not configured for %s", event.EventType))
	}
	if err := json.Unmarshal(envelope.Data, payload); err != nil {
		return nil, NewNonRetryableError(fmt.Errorf("decode %s payload: %w", event.EventType, err))
	}

	return &ResolvedEvent{
		Descriptor: desc,
		Envelope:   envelope,
		Payload:    payload,
	}, nil
}

// NewNonRetryableError wraps an error to signal no retries.
func NewNonRetryableError(err error) NonRetryableError {
	return NonRetryableError{Err: err}
}
