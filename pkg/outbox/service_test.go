package outbox

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/indyhub/exchange-backend/pkg/db/models"
	"github.com/indyhub/exchange-backend/pkg/enums"
)

func setupOutboxTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS outbox_events (
  id TEXT PRIMARY KEY,
  event_type TEXT NOT NULL,
  aggregate_type TEXT NOT NULL,
  aggregate_id TEXT NOT NULL,
  payload TEXT NOT NULL,
  created_at DATETIME,
  published_at DATETIME,
  attempt_count INTEGER NOT NULL DEFAULT 0,
  last_error TEXT
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func TestEmitQueuesEnvelope(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	orderID := uuid.New()
	actorID := uuid.New()
	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventSellOrderApproved,
			AggregateType: enums.AggregateSellOrder,
			AggregateID:   orderID,
			Actor:         &ActorRef{UserID: actorID, CorporationID: 98000001},
			Data:          map[string]string{"order_reference": "MX-7K2Q4D"},
			Version:       1,
		})
	})
	require.NoError(t, err)

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 5)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, enums.EventSellOrderApproved, row.EventType)
	assert.Equal(t, enums.AggregateSellOrder, row.AggregateType)
	assert.Equal(t, orderID, row.AggregateID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(row.Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)
	assert.False(t, envelope.OccurredAt.IsZero())
	require.NotNil(t, envelope.Actor)
	assert.Equal(t, actorID, envelope.Actor.UserID)
	assert.Equal(t, int64(98000001), envelope.Actor.CorporationID)

	var data map[string]string
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, "MX-7K2Q4D", data["order_reference"])
}

func TestEmitRequiresTransaction(t *testing.T) {
	svc := NewService(NewRepository(nil), nil)
	err := svc.Emit(context.Background(), nil, DomainEvent{})
	require.Error(t, err)
}

func TestEmitIfNotExistsSkipsDuplicate(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)
	svc := NewService(repo, nil)

	orderID := uuid.New()
	event := DomainEvent{
		EventType:     enums.EventBuyOrderCompleted,
		AggregateType: enums.AggregateBuyOrder,
		AggregateID:   orderID,
		Data:          map[string]string{"order_reference": "MX-9XJ2PL"},
		Version:       1,
	}

	for i := 0; i < 2; i++ {
		err := db.Transaction(func(tx *gorm.DB) error {
			return svc.EmitIfNotExists(context.Background(), tx, event)
		})
		require.NoError(t, err)
	}

	var count int64
	require.NoError(t, db.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestFetchSkipsPublishedAndExhaustedRows(t *testing.T) {
	db := setupOutboxTestDB(t)
	repo := NewRepository(db)

	published := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventSellOrderSubmitted,
		AggregateType: enums.AggregateSellOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
	}
	exhausted := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventSellOrderRejected,
		AggregateType: enums.AggregateSellOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
	}
	pending := models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventSellOrderCompleted,
		AggregateType: enums.AggregateSellOrder,
		AggregateID:   uuid.New(),
		Payload:       json.RawMessage(`{}`),
	}
	require.NoError(t, repo.Insert(db, published))
	require.NoError(t, repo.Insert(db, exhausted))
	require.NoError(t, repo.Insert(db, pending))

	require.NoError(t, repo.MarkPublishedTx(db, published.ID))
	require.NoError(t, repo.MarkFailedTx(db, exhausted.ID, assert.AnError))

	rows, err := repo.FetchUnpublishedForPublish(db, 10, 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, pending.ID, rows[0].ID)

	var failed models.OutboxEvent
	require.NoError(t, db.First(&failed, "id = ?", exhausted.ID).Error)
	assert.Equal(t, 1, failed.AttemptCount)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, assert.AnError.Error(), *failed.LastError)
}
