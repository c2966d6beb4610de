package transactions

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/enums"
	pkgerrors "github.com/indyhub/exchange-backend/pkg/errors"
	"github.com/indyhub/exchange-backend/pkg/pagination"
)

const testCorpID int64 = 98000001

func setupTransactionsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS material_exchange_transactions (
  id TEXT PRIMARY KEY,
  type TEXT NOT NULL,
  corporation_id INTEGER NOT NULL,
  user_id TEXT NOT NULL,
  type_id INTEGER NOT NULL,
  type_name TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  unit_price NUMERIC NOT NULL,
  total_price NUMERIC NOT NULL,
  order_reference TEXT NOT NULL,
  order_id TEXT NOT NULL,
  completed_at DATETIME NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func seedTransaction(t *testing.T, db *gorm.DB, userID uuid.UUID, typeID int64, createdAt time.Time) models.Transaction {
	t.Helper()
	row := models.Transaction{
		ID:             uuid.New(),
		Type:           enums.TransactionTypeSellToPool,
		CorporationID:  testCorpID,
		UserID:         userID,
		TypeID:         typeID,
		TypeName:       fmt.Sprintf("Type %d", typeID),
		Quantity:       10,
		UnitPrice:      decimal.RequireFromString("4.75"),
		TotalPrice:     decimal.RequireFromString("47.50"),
		OrderReference: "MX-7KQP2MNF",
		OrderID:        uuid.New(),
		CompletedAt:    createdAt,
		CreatedAt:      createdAt,
	}
	require.NoError(t, db.Create(&row).Error)
	return row
}

func TestListFiltersByUserAndType(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seller := uuid.New()
	other := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	seedTransaction(t, db, seller, 34, base)
	seedTransaction(t, db, seller, 35, base.Add(time.Minute))
	seedTransaction(t, db, other, 34, base.Add(2*time.Minute))

	rows, err := repo.List(ctx, testCorpID, pagination.Params{}, Filters{})
	require.NoError(t, err)
	assert.Len(t, rows, 3)

	rows, err = repo.List(ctx, testCorpID, pagination.Params{}, Filters{UserID: &seller})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	typeID := int64(34)
	rows, err = repo.List(ctx, testCorpID, pagination.Params{}, Filters{TypeID: &typeID})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = repo.List(ctx, testCorpID+1, pagination.Params{}, Filters{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestListOrdersNewestFirst(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)

	userID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	oldest := seedTransaction(t, db, userID, 34, base)
	newest := seedTransaction(t, db, userID, 34, base.Add(time.Minute))

	rows, err := repo.List(context.Background(), testCorpID, pagination.Params{}, Filters{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, newest.ID, rows[0].ID)
	assert.Equal(t, oldest.ID, rows[1].ID)
}

func TestFindByOrder(t *testing.T) {
	db := setupTransactionsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	userID := uuid.New()
	row := seedTransaction(t, db, userID, 34, time.Now().UTC())

	rows, err := repo.FindByOrder(ctx, row.OrderID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, row.ID, rows[0].ID)

	rows, err = repo.FindByOrder(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestServiceListPaginates(t *testing.T) {
	db := setupTransactionsTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	ctx := context.Background()

	userID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		seedTransaction(t, db, userID, 34, base.Add(time.Duration(i)*time.Minute))
	}

	first, err := svc.ListAll(ctx, testCorpID, ListInput{Limit: 2})
	require.NoError(t, err)
	require.Len(t, first.Transactions, 2)
	require.NotEmpty(t, first.NextCursor)

	rest, err := svc.ListAll(ctx, testCorpID, ListInput{Limit: 2, Cursor: first.NextCursor})
	require.NoError(t, err)
	require.Len(t, rest.Transactions, 1)
	assert.Empty(t, rest.NextCursor)
	assert.True(t, rest.Transactions[0].CreatedAt.Before(first.Transactions[1].CreatedAt))
}

func TestServiceListOwnScopesToUser(t *testing.T) {
	db := setupTransactionsTestDB(t)
	svc, err := NewService(NewRepository(db))
	require.NoError(t, err)
	ctx := context.Background()

	seller := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)
	seedTransaction(t, db, seller, 34, base)
	seedTransaction(t, db, uuid.New(), 34, base.Add(time.Minute))

	result, err := svc.ListOwn(ctx, testCorpID, seller, ListInput{})
	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, seller, result.Transactions[0].UserID)

	_, err = svc.ListOwn(ctx, testCorpID, uuid.Nil, ListInput{})
	require.Error(t, err)
	assert.Equal(t, pkgerrors.CodeUnauthorized, pkgerrors.As(err).Code())
}
