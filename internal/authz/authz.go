package authz

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/enums"
	pkgerrors "github.com/indyhub/exchange-backend/pkg/errors"
)

// Checker answers capability questions for a user. Grants are synced into
// capability_grants by the host platform; this service only reads them.
type Checker interface {
	HasPermission(ctx context.Context, userID uuid.UUID, capability enums.Capability) (bool, error)
	ListUsersWithCapability(ctx context.Context, capability enums.Capability) ([]uuid.UUID, error)
}

type checker struct {
	db *gorm.DB
}

// NewChecker builds a capability checker over the grants table.
func NewChecker(db *gorm.DB) (Checker, error) {
	if db == nil {
		return nil, fmt.Errorf("db handle required")
	}
	return &checker{db: db}, nil
}

func (c *checker) HasPermission(ctx context.Context, userID uuid.UUID, capability enums.Capability) (bool, error) {
	if userID == uuid.Nil {
		return false, nil
	}
	if !capability.IsValid() {
		return false, pkgerrors.New(pkgerrors.CodeInternal, "unknown capability")
	}
	var count int64
	err := c.db.WithContext(ctx).
		Model(&models.CapabilityGrant{}).
		Where("user_id = ? AND capability = ?", userID, capability).
		Count(&count).Error
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check capability grant")
	}
	return count > 0, nil
}

// ListUsersWithCapability returns every user holding the capability, used
// for manager fan-out when notifying about order activity.
func (c *checker) ListUsersWithCapability(ctx context.Context, capability enums.Capability) ([]uuid.UUID, error) {
	if !capability.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "unknown capability")
	}
	var userIDs []uuid.UUID
	err := c.db.WithContext(ctx).
		Model(&models.CapabilityGrant{}).
		Where("capability = ?", capability).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list capability grants")
	}
	return userIDs, nil
}

// Require returns a FORBIDDEN error unless the user holds the capability.
func Require(ctx context.Context, checker Checker, userID uuid.UUID, capability enums.Capability) error {
	ok, err := checker.HasPermission(ctx, userID, capability)
	if err != nil {
		return err
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeForbidden, "missing required capability").
			WithDetails(map[string]any{"capability": capability})
	}
	return nil
}
