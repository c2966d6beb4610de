package notifications

import (
	"context"
	"encoding/json"
	"fmt"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/enums"
	"github.com/indyhub/exchange-backend/pkg/logger"
	"github.com/indyhub/exchange-backend/pkg/outbox"
	"github.com/indyhub/exchange-backend/pkg/outbox/idempotency"
	"github.com/indyhub/exchange-backend/pkg/outbox/payloads"
)

const exchangeNotificationConsumer = "exchange-worker"

type repository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type managerDirectory interface {
	ListUsersWithCapability(ctx context.Context, capability enums.Capability) ([]uuid.UUID, error)
}

// Consumer turns exchange domain events into per-user in-app notifications.
// Order owners hear about their own orders; managers hear about new work
// and stock alerts.
type Consumer struct {
	repo         repository
	subscription *pubsub.Subscriber
	idempotency  *idempotency.Manager
	managers     managerDirectory
	logg         *logger.Logger
}

// NewConsumer builds an exchange notification consumer.
func NewConsumer(repo repository, subscription *pubsub.Subscriber, manager *idempotency.Manager, managers managerDirectory, logg *logger.Logger) (*Consumer, error) {
	if repo == nil {
		return nil, fmt.Errorf("notifications repository required")
	}
	if subscription == nil {
		return nil, fmt.Errorf("domain subscription required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if managers == nil {
		return nil, fmt.Errorf("manager directory required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		repo:         repo,
		subscription: subscription,
		idempotency:  manager,
		managers:     managers,
		logg:         logg,
	}, nil
}

// Run starts the consumer loop until the context is canceled.
func (c *Consumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		result := c.process(ctx, msg)
		if result.nack {
			msg.Nack()
			return
		}
		msg.Ack()
	})
}

type processResult struct {
	ack  bool
	nack bool
}

func (c *Consumer) process(ctx context.Context, msg *pubsub.Message) processResult {
	rawType := msg.Attributes["event_type"]
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": msg.ID,
		"event_type": rawType,
	})

	eventType, err := enums.ParseOutboxEventType(rawType)
	if err != nil {
		c.logg.Warn(logCtx, "skipping unrecognized event")
		return processResult{ack: true}
	}

	var envelope outbox.PayloadEnvelope
	if err := json.Unmarshal(msg.Data, &envelope); err != nil {
		c.logg.Error(logCtx, "failed to decode envelope", err)
		return processResult{ack: true}
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		c.logg.Error(logCtx, "invalid event id", err)
		return processResult{ack: true}
	}

	already, err := c.idempotency.CheckAndMarkProcessed(ctx, exchangeNotificationConsumer, eventID)
	if err != nil {
		c.logg.Error(logCtx, "idempotency check failed", err)
		return processResult{nack: true}
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return processResult{ack: true}
	}

	rows, err := c.buildNotifications(ctx, eventType, envelope.Data)
	if err != nil {
		c.logg.Error(logCtx, "failed to build notifications", err)
		_ = c.idempotency.Delete(ctx, exchangeNotificationConsumer, eventID)
		return processResult{nack: true}
	}
	if len(rows) == 0 {
		return processResult{ack: true}
	}

	if err := c.persist(ctx, rows); err != nil {
		c.logg.Error(logCtx, "failed to store notifications", err)
		_ = c.idempotency.Delete(ctx, exchangeNotificationConsumer, eventID)
		return processResult{nack: true}
	}

	logCtx = c.logg.WithFields(logCtx, map[string]any{"notification_count": len(rows)})
	c.logg.Info(logCtx, "notifications created")
	return processResult{ack: true}
}

func (c *Consumer) persist(ctx context.Context, rows []models.Notification) error {
	var errs error
	for i := range rows {
		if err := c.repo.Create(ctx, &rows[i]); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("notify user %s: %w", rows[i].UserID, err))
		}
	}
	return errs
}

func (c *Consumer) buildNotifications(ctx context.Context, eventType enums.OutboxEventType, data json.RawMessage) ([]models.Notification, error) {
	switch eventType {
	case enums.EventSellOrderSubmitted:
		var payload payloads.SellOrderSubmittedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return c.fanOutToManagers(ctx,
			"New sell order",
			fmt.Sprintf("Sell order %s awaits review (%s ISK).", payload.OrderReference, payload.TotalPrice.StringFixed(2)),
			sellOrderLink(payload.OrderID),
			enums.NotificationLevelInfo,
		)
	case enums.EventSellOrderApproved:
		var payload payloads.SellOrderApprovedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return []models.Notification{userNotification(payload.SellerUserID,
			"Sell order approved",
			fmt.Sprintf("Sell order %s was approved. Deliver the materials to complete it.", payload.OrderReference),
			sellOrderLink(payload.OrderID),
			enums.NotificationLevelSuccess,
		)}, nil
	case enums.EventSellOrderPaymentVerified:
		var payload payloads.SellOrderPaymentVerifiedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return []models.Notification{userNotification(payload.SellerUserID,
			"Payment verified",
			fmt.Sprintf("Payment for sell order %s was verified (journal %s).", payload.OrderReference, payload.PaymentJournalRef),
			sellOrderLink(payload.OrderID),
			enums.NotificationLevelSuccess,
		)}, nil
	case enums.EventSellOrderCompleted:
		var payload payloads.SellOrderCompletedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return []models.Notification{userNotification(payload.SellerUserID,
			"Sell order completed",
			fmt.Sprintf("Sell order %s settled for %s ISK.", payload.OrderReference, payload.TotalPrice.StringFixed(2)),
			sellOrderLink(payload.OrderID),
			enums.NotificationLevelSuccess,
		)}, nil
	case enums.EventSellOrderRejected:
		var payload payloads.SellOrderRejectedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("Sell order %s was rejected.", payload.OrderReference)
		if payload.Reason != "" {
			message = fmt.Sprintf("Sell order %s was rejected: %s", payload.OrderReference, payload.Reason)
		}
		return []models.Notification{userNotification(payload.SellerUserID,
			"Sell order rejected",
			message,
			sellOrderLink(payload.OrderID),
			enums.NotificationLevelDanger,
		)}, nil
	case enums.EventSellOrderCancelled:
		var payload payloads.SellOrderCancelledEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return c.fanOutToManagers(ctx,
			"Sell order cancelled",
			fmt.Sprintf("Sell order %s was withdrawn by the seller.", payload.OrderReference),
			sellOrderLink(payload.OrderID),
			enums.NotificationLevelInfo,
		)
	case enums.EventBuyOrderSubmitted:
		var payload payloads.BuyOrderSubmittedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return c.fanOutToManagers(ctx,
			"New buy order",
			fmt.Sprintf("Buy order %s awaits review (%s ISK).", payload.OrderReference, payload.TotalPrice.StringFixed(2)),
			buyOrderLink(payload.OrderID),
			enums.NotificationLevelInfo,
		)
	case enums.EventBuyOrderApproved:
		var payload payloads.BuyOrderApprovedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return []models.Notification{userNotification(payload.BuyerUserID,
			"Buy order approved",
			fmt.Sprintf("Buy order %s was approved. Send payment to proceed.", payload.OrderReference),
			buyOrderLink(payload.OrderID),
			enums.NotificationLevelSuccess,
		)}, nil
	case enums.EventBuyOrderCompleted:
		var payload payloads.BuyOrderCompletedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("Buy order %s is complete.", payload.OrderReference)
		if payload.DeliveryMethod != nil {
			message = fmt.Sprintf("Buy order %s is complete, delivery via %s.", payload.OrderReference, payload.DeliveryMethod.String())
		}
		return []models.Notification{userNotification(payload.BuyerUserID,
			"Buy order completed",
			message,
			buyOrderLink(payload.OrderID),
			enums.NotificationLevelSuccess,
		)}, nil
	case enums.EventBuyOrderRejected:
		var payload payloads.BuyOrderRejectedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		message := fmt.Sprintf("Buy order %s was rejected.", payload.OrderReference)
		if payload.Reason != "" {
			message = fmt.Sprintf("Buy order %s was rejected: %s", payload.OrderReference, payload.Reason)
		}
		return []models.Notification{userNotification(payload.BuyerUserID,
			"Buy order rejected",
			message,
			buyOrderLink(payload.OrderID),
			enums.NotificationLevelDanger,
		)}, nil
	case enums.EventBuyOrderCancelled:
		var payload payloads.BuyOrderCancelledEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		return c.fanOutToManagers(ctx,
			"Buy order cancelled",
			fmt.Sprintf("Buy order %s was withdrawn by the buyer.", payload.OrderReference),
			buyOrderLink(payload.OrderID),
			enums.NotificationLevelInfo,
		)
	case enums.EventStockThresholdBreached:
		var payload payloads.StockThresholdBreachedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		rows, err := c.fanOutToManagers(ctx,
			"Stock running low",
			fmt.Sprintf("%s is down to %d units (alert floor %d).", payload.TypeName, payload.Quantity, payload.Threshold),
			fmt.Sprintf("/exchange/stock/%d", payload.TypeID),
			enums.NotificationLevelWarning,
		)
		if err != nil {
			return nil, err
		}
		for i := range rows {
			rows[i].Type = enums.NotificationTypeStockAlert
		}
		return rows, nil
	case enums.EventNotificationRequested:
		var payload payloads.NotificationRequestedEvent
		if err := json.Unmarshal(data, &payload); err != nil {
			return nil, err
		}
		if payload.UserID == uuid.Nil {
			return nil, fmt.Errorf("notification request without user id")
		}
		row := models.Notification{
			ID:      uuid.New(),
			UserID:  payload.UserID,
			Type:    payload.Type,
			Level:   payload.Level,
			Title:   payload.Title,
			Message: payload.Message,
		}
		if payload.Link != "" {
			row.Link = stringPtr(payload.Link)
		}
		return []models.Notification{row}, nil
	default:
		return nil, nil
	}
}

func (c *Consumer) fanOutToManagers(ctx context.Context, title, message, link string, level enums.NotificationLevel) ([]models.Notification, error) {
	managers, err := c.managers.ListUsersWithCapability(ctx, enums.CapabilityManageMaterialExchange)
	if err != nil {
		return nil, err
	}
	rows := make([]models.Notification, 0, len(managers))
	for _, userID := range managers {
		rows = append(rows, userNotification(userID, title, message, link, level))
	}
	return rows, nil
}

func userNotification(userID uuid.UUID, title, message, link string, level enums.NotificationLevel) models.Notification {
	return models.Notification{
		ID:      uuid.New(),
		UserID:  userID,
		Type:    enums.NotificationTypeOrderUpdate,
		Level:   level,
		Title:   title,
		Message: message,
		Link:    stringPtr(link),
	}
}

func sellOrderLink(orderID uuid.UUID) string {
	return fmt.Sprintf("/exchange/sell-orders/%s", orderID)
}

func buyOrderLink(orderID uuid.UUID) string {
	return fmt.Sprintf("/exchange/buy-orders/%s", orderID)
}

func stringPtr(value string) *string {
	return &value
}
