package enums

import "fmt"

// NotificationType maps to the notification_type enum in Postgres.
type NotificationType string

const (
	NotificationTypeOrderUpdate NotificationType = "order_update"
	NotificationTypeStockAlert  NotificationType = "stock_alert"
	NotificationTypeSystem      NotificationType = "system"
)

var validNotificationTypes = []NotificationType{
	NotificationTypeOrderUpdate,
	NotificationTypeStockAlert,
	NotificationTypeSystem,
}

// IsValid checks whether the given type matches the canonical enum.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw strings into NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}

// NotificationLevel controls how clients render a notification.
type NotificationLevel string

const (
	NotificationLevelInfo    NotificationLevel = "info"
	NotificationLevelSuccess NotificationLevel = "success"
	NotificationLevelWarning NotificationLevel = "warning"
	NotificationLevelDanger  NotificationLevel = "danger"
)

var validNotificationLevels = []NotificationLevel{
	NotificationLevelInfo,
	NotificationLevelSuccess,
	NotificationLevelWarning,
	NotificationLevelDanger,
}

// IsValid checks whether the given level matches the canonical enum.
func (n NotificationLevel) IsValid() bool {
	for _, candidate := range validNotificationLevels {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationLevel converts raw strings into NotificationLevel.
func ParseNotificationLevel(value string) (NotificationLevel, error) {
	for _, candidate := range validNotificationLevels {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification level %q", value)
}
