package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	"github.com/angelmondragon/stockhub-backend/pkg/outbox/payloads"
)

func TestEmitWritesEnvelopeInsideTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)
	companyID := uuid.New()
	listID := uuid.New()

	err := conn.Transaction(func(tx *gorm.DB) error {
		return svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventStockWithdrawn,
			AggregateType: enums.AggregateStandardList,
			AggregateID:   listID,
			CompanyID:     &companyID,
			Actor:         &ActorRef{UserID: uuid.New(), CompanyID: &companyID},
			Data:          payloads.StockWithdrawnEvent{CompanyID: companyID, StandardListID: listID, ListName: "Kit"},
		})
	})
	require.NoError(t, err)

	var rows []models.OutboxEvent
	require.NoError(t, conn.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, enums.EventStockWithdrawn, rows[0].EventType)
	require.NotNil(t, rows[0].CompanyID)
	assert.Equal(t, companyID, *rows[0].CompanyID)

	var envelope PayloadEnvelope
	require.NoError(t, json.Unmarshal(rows[0].Payload, &envelope))
	assert.Equal(t, 1, envelope.Version)
	assert.NotEmpty(t, envelope.EventID)

	var data payloads.StockWithdrawnEvent
	require.NoError(t, json.Unmarshal(envelope.Data, &data))
	assert.Equal(t, "Kit", data.ListName)
}

func TestEmitRolledBackWithTransaction(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)
	boom := errors.New("boom")

	err := conn.Transaction(func(tx *gorm.DB) error {
		if err := svc.Emit(context.Background(), tx, DomainEvent{
			EventType:     enums.EventStockMovementRecorded,
			AggregateType: enums.AggregateItem,
			AggregateID:   uuid.New(),
		}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, conn.Model(&models.OutboxEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEmitValidatesInput(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)

	require.Error(t, svc.Emit(context.Background(), nil, DomainEvent{}))
	require.Error(t, svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     "unknown",
		AggregateType: enums.AggregateItem,
	}))
}

func TestRepositoryPublishLifecycle(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	svc := NewService(repo, nil)

	for i := 0; i < 3; i++ {
		require.NoError(t, svc.Emit(context.Background(), conn, DomainEvent{
			EventType:     enums.EventStockMovementRecorded,
			AggregateType: enums.AggregateItem,
			AggregateID:   uuid.New(),
		}))
	}

	rows, err := repo.FetchUnpublishedForPublish(conn, 10, 2)
	require.NoError(t, err)
	require.Len(t, rows, 3)

	require.NoError(t, repo.MarkPublishedTx(conn, rows[0].ID))
	require.NoError(t, repo.MarkFailedTx(conn, rows[1].ID, errors.New("channel down")))
	require.NoError(t, repo.MarkFailedTx(conn, rows[1].ID, errors.New("channel down")))

	pending, err := repo.FetchUnpublishedForPublish(conn, 10, 2)
	require.NoError(t, err)
	require.Len(t, pending, 1, "published and exhausted rows are skipped")
	assert.Equal(t, rows[2].ID, pending[0].ID)

	count, err := repo.CountPending(nil, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	var failed models.OutboxEvent
	require.NoError(t, conn.First(&failed, "id = ?", rows[1].ID).Error)
	assert.Equal(t, 2, failed.AttemptCount)
	require.NotNil(t, failed.LastError)
	assert.Equal(t, "channel down", *failed.LastError)
}

func TestEmitDerivesAggregateType(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)

	require.NoError(t, svc.Emit(context.Background(), conn, DomainEvent{
		EventType:   enums.EventCompanyOwnerAssigned,
		AggregateID: uuid.New(),
	}))
	var row models.OutboxEvent
	require.NoError(t, conn.First(&row).Error)
	assert.Equal(t, enums.AggregateCompany, row.AggregateType)

	err := svc.Emit(context.Background(), conn, DomainEvent{
		EventType:     enums.EventStockWithdrawn,
		AggregateType: enums.AggregateItem,
		AggregateID:   uuid.New(),
	})
	require.ErrorContains(t, err, "belongs to")
}

func TestRelayMessageCarriesStoredEnvelope(t *testing.T) {
	conn := dbtest.Open(t)
	svc := NewService(NewRepository(conn), nil)
	companyID := uuid.New()

	require.NoError(t, svc.Emit(context.Background(), conn, DomainEvent{
		EventType:   enums.EventStockMovementRecorded,
		AggregateID: uuid.New(),
		CompanyID:   &companyID,
		Data:        map[string]string{"note": "restock"},
	}))
	var row models.OutboxEvent
	require.NoError(t, conn.First(&row).Error)

	msg := NewRelayMessage(row)
	assert.Equal(t, row.ID, msg.OutboxID)
	assert.Equal(t, "item", msg.AggregateType)

	env, err := DecodeEnvelope(msg.Envelope)
	require.NoError(t, err)
	assert.JSONEq(t, `{"note":"restock"}`, string(env.Data))

	_, err = DecodeEnvelope([]byte(`{"version":9,"data":{}}`))
	require.ErrorContains(t, err, "unsupported envelope version")
}
