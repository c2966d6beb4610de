package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/indyhub/exchange-backend/pkg/enums"
)

// CapabilityGrant mirrors a permission granted to a user on the host
// platform. Rows are synced in by the platform, never written by this
// service's request paths.
type CapabilityGrant struct {
	ID         uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex:idx_grant_user_capability"`
	Capability enums.Capability `gorm:"column:capability;type:capability;not null;uniqueIndex:idx_grant_user_capability"`
	CreatedAt  time.Time        `gorm:"column:created_at;autoCreateTime"`
}

// TableName pins the legacy table name.
func (CapabilityGrant) TableName() string { return "capability_grants" }
