package authz

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/enums"
	pkgerrors "github.com/indyhub/exchange-backend/pkg/errors"
)

func setupAuthzTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS capability_grants (
  id TEXT PRIMARY KEY,
  user_id TEXT NOT NULL,
  capability TEXT NOT NULL,
  created_at DATETIME,
  UNIQUE (user_id, capability)
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func grant(t *testing.T, db *gorm.DB, userID uuid.UUID, capability enums.Capability) {
	t.Helper()
	require.NoError(t, db.Create(&models.CapabilityGrant{
		ID:         uuid.New(),
		UserID:     userID,
		Capability: capability,
	}).Error)
}

func TestHasPermission(t *testing.T) {
	db := setupAuthzTestDB(t)
	checker, err := NewChecker(db)
	require.NoError(t, err)

	manager := uuid.New()
	member := uuid.New()
	grant(t, db, manager, enums.CapabilityManageMaterialExchange)
	grant(t, db, manager, enums.CapabilityAccessHub)
	grant(t, db, member, enums.CapabilityAccessHub)

	ok, err := checker.HasPermission(context.Background(), manager, enums.CapabilityManageMaterialExchange)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = checker.HasPermission(context.Background(), member, enums.CapabilityManageMaterialExchange)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = checker.HasPermission(context.Background(), uuid.Nil, enums.CapabilityAccessHub)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = checker.HasPermission(context.Background(), member, enums.Capability("launch_titan"))
	require.Error(t, err)
}

func TestListUsersWithCapability(t *testing.T) {
	db := setupAuthzTestDB(t)
	checker, err := NewChecker(db)
	require.NoError(t, err)

	first := uuid.New()
	second := uuid.New()
	member := uuid.New()
	grant(t, db, first, enums.CapabilityManageMaterialExchange)
	grant(t, db, second, enums.CapabilityManageMaterialExchange)
	grant(t, db, member, enums.CapabilityAccessHub)

	managers, err := checker.ListUsersWithCapability(context.Background(), enums.CapabilityManageMaterialExchange)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uuid.UUID{first, second}, managers)

	_, err = checker.ListUsersWithCapability(context.Background(), enums.Capability("launch_titan"))
	require.Error(t, err)
}

func TestRequire(t *testing.T) {
	db := setupAuthzTestDB(t)
	checker, err := NewChecker(db)
	require.NoError(t, err)

	member := uuid.New()
	grant(t, db, member, enums.CapabilityAccessHub)

	require.NoError(t, Require(context.Background(), checker, member, enums.CapabilityAccessHub))

	err = Require(context.Background(), checker, member, enums.CapabilityManageMaterialExchange)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeForbidden, pkgerrors.As(err).Code())
}
