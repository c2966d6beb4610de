package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/indyhub/exchange-backend/pkg/enums"
)

// Notification stores in-app notification payloads scoped to users.
type Notification struct {
	ID        uuid.UUID               `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID               `gorm:"type:uuid;not null;index"`
	Type      enums.NotificationType  `gorm:"type:notification_type;not null"`
	Level     enums.NotificationLevel `gorm:"type:notification_level;not null;default:'info'"`
	Title     string                  `gorm:"type:text;not null"`
	Message   string                  `gorm:"type:text;not null"`
	Link      *string                 `gorm:"type:text"`
	ReadAt    *time.Time              `gorm:"type:timestamptz"`
	CreatedAt time.Time               `gorm:"type:timestamptz;default:now()"`
}
