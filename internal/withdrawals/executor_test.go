package withdrawals

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/internal/ledger"
	"github.com/angelmondragon/stockhub-backend/internal/permissions"
	"github.com/angelmondragon/stockhub-backend/internal/standardlists"
	"github.com/angelmondragon/stockhub-backend/pkg/db"
	"github.com/angelmondragon/stockhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
	"github.com/angelmondragon/stockhub-backend/pkg/logger"
	"github.com/angelmondragon/stockhub-backend/pkg/metrics"
	"github.com/angelmondragon/stockhub-backend/pkg/outbox"
)

type fixture struct {
	conn     *gorm.DB
	exec     Executor
	scope    permissions.Scope
	company  *models.Company
	registry *prometheus.Registry
}

func newFixture(t *testing.T) fixture {
	return newFixtureWithLedger(t, func(svc ledger.Service) ledger.Service { return svc })
}

func newFixtureWithLedger(t *testing.T, wrap func(ledger.Service) ledger.Service) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	ledgerSvc, err := ledger.NewService(ledger.NewRepository(conn))
	require.NoError(t, err)
	reg := prometheus.NewRegistry()
	exec, err := NewExecutor(ExecutorParams{
		Lists:   standardlists.NewRepository(conn),
		Ledger:  wrap(ledgerSvc),
		Tx:      db.NewFromConn(conn),
		Events:  outbox.NewService(outbox.NewRepository(conn), nil),
		Metrics: metrics.NewWithdrawalMetrics(reg),
		Logger:  logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	})
	require.NoError(t, err)

	owner := dbtest.MustUser(t, conn, false)
	company := dbtest.MustCompany(t, conn, owner.ID, "Acme")
	return fixture{
		conn:     conn,
		exec:     exec,
		company:  company,
		registry: reg,
		scope:    permissions.Scope{CompanyID: company.ID, UserID: owner.ID, Permission: enums.PermissionWrite},
	}
}

func (f fixture) outcomeCount(t *testing.T, outcome string) float64 {
	t.Helper()
	families, err := f.registry.Gather()
	require.NoError(t, err)
	for _, family := range families {
		if family.GetName() != "stockhub_withdrawals_total" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == outcome {
					return metric.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func (f fixture) movementCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, f.conn.Model(&models.StockMovement{}).Count(&count).Error)
	return count
}

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestWithdrawRejectsWholeListWhenAnyEntryIsShort(t *testing.T) {
	f := newFixture(t)
	a := dbtest.MustItem(t, f.conn, f.company.ID, "A", 3)
	b := dbtest.MustItem(t, f.conn, f.company.ID, "B", 10)
	list := dbtest.MustStandardList(t, f.conn, f.company.ID, "Mista", map[uuid.UUID]int64{a.ID: 5, b.ID: 2})

	result, err := f.exec.ExecuteBulkWithdraw(context.Background(), f.scope, list.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawalInsufficientStock, result.Status)
	assert.Equal(t, list.ID, result.ListID)
	assert.Empty(t, result.Movements)
	require.Len(t, result.Shortages, 1)

	shortage := result.Shortages[0]
	assert.Equal(t, a.ID, shortage.ItemID)
	assert.Equal(t, "A", shortage.ItemName)
	assert.True(t, shortage.Available.Equal(qty(3)))
	assert.True(t, shortage.Required.Equal(qty(5)))
	assert.True(t, shortage.Shortfall.Equal(qty(2)))

	assert.True(t, dbtest.ReloadItem(t, f.conn, a.ID).CurrentStock.Equal(qty(3)))
	assert.True(t, dbtest.ReloadItem(t, f.conn, b.ID).CurrentStock.Equal(qty(10)))
	assert.Zero(t, f.movementCount(t))

	var events int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Count(&events).Error)
	assert.Zero(t, events)
	assert.Equal(t, 1.0, f.outcomeCount(t, metrics.OutcomeInsufficientStock))
}

func TestWithdrawReportsEveryShortage(t *testing.T) {
	f := newFixture(t)
	a := dbtest.MustItem(t, f.conn, f.company.ID, "A", 1)
	b := dbtest.MustItem(t, f.conn, f.company.ID, "B", 0)
	list := dbtest.MustStandardList(t, f.conn, f.company.ID, "Vazia", map[uuid.UUID]int64{a.ID: 2, b.ID: 4})

	result, err := f.exec.ExecuteBulkWithdraw(context.Background(), f.scope, list.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawalInsufficientStock, result.Status)
	assert.Len(t, result.Shortages, 2)
}

func TestWithdrawCompletesWhenEveryEntryIsCovered(t *testing.T) {
	f := newFixture(t)
	a := dbtest.MustItem(t, f.conn, f.company.ID, "A", 10)
	b := dbtest.MustItem(t, f.conn, f.company.ID, "B", 5)
	list := dbtest.MustStandardList(t, f.conn, f.company.ID, "Semanal", map[uuid.UUID]int64{a.ID: 2, b.ID: 1})

	result, err := f.exec.ExecuteBulkWithdraw(context.Background(), f.scope, list.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawalCompleted, result.Status)
	assert.Empty(t, result.Shortages)
	require.Len(t, result.Movements, 2)

	assert.True(t, dbtest.ReloadItem(t, f.conn, a.ID).CurrentStock.Equal(qty(8)))
	assert.True(t, dbtest.ReloadItem(t, f.conn, b.ID).CurrentStock.Equal(qty(4)))

	var written []models.StockMovement
	require.NoError(t, f.conn.Find(&written).Error)
	require.Len(t, written, 2)
	for _, movement := range written {
		assert.Equal(t, enums.MovementTypeSaida, movement.MovementType)
		assert.Equal(t, f.company.ID, movement.CompanyID)
		require.NotNil(t, movement.StandardListID)
		assert.Equal(t, list.ID, *movement.StandardListID)
		require.NotNil(t, movement.CreatedBy)
		assert.Equal(t, f.scope.UserID, *movement.CreatedBy)
		require.NotNil(t, movement.Description)
		assert.Equal(t, "Retirada da lista padrão: Semanal", *movement.Description)
	}

	var events []models.OutboxEvent
	require.NoError(t, f.conn.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, enums.EventStockWithdrawn, events[0].EventType)
	assert.Equal(t, 1.0, f.outcomeCount(t, metrics.OutcomeCompleted))
}

func TestWithdrawExactBalanceDrainsToZero(t *testing.T) {
	f := newFixture(t)
	a := dbtest.MustItem(t, f.conn, f.company.ID, "A", 4)
	list := dbtest.MustStandardList(t, f.conn, f.company.ID, "Tudo", map[uuid.UUID]int64{a.ID: 4})

	result, err := f.exec.ExecuteBulkWithdraw(context.Background(), f.scope, list.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.WithdrawalCompleted, result.Status)
	assert.True(t, dbtest.ReloadItem(t, f.conn, a.ID).CurrentStock.IsZero())
}

func TestWithdrawForeignListIsNotFound(t *testing.T) {
	f := newFixture(t)
	stranger := dbtest.MustUser(t, f.conn, false)
	other := dbtest.MustCompany(t, f.conn, stranger.ID, "Other")
	item := dbtest.MustItem(t, f.conn, other.ID, "X", 10)
	list := dbtest.MustStandardList(t, f.conn, other.ID, "Alheia", map[uuid.UUID]int64{item.ID: 1})

	_, err := f.exec.ExecuteBulkWithdraw(context.Background(), f.scope, list.ID)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
	assert.True(t, dbtest.ReloadItem(t, f.conn, item.ID).CurrentStock.Equal(qty(10)))
	assert.Equal(t, 1.0, f.outcomeCount(t, metrics.OutcomeError))
}

func TestWithdrawEmptyListIsValidationError(t *testing.T) {
	f := newFixture(t)
	list := dbtest.MustStandardList(t, f.conn, f.company.ID, "Vazia", nil)

	_, err := f.exec.ExecuteBulkWithdraw(context.Background(), f.scope, list.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestWithdrawRequiresWritePermission(t *testing.T) {
	f := newFixture(t)
	a := dbtest.MustItem(t, f.conn, f.company.ID, "A", 10)
	list := dbtest.MustStandardList(t, f.conn, f.company.ID, "Semanal", map[uuid.UUID]int64{a.ID: 1})

	reader := f.scope
	reader.Permission = enums.PermissionRead
	_, err := f.exec.ExecuteBulkWithdraw(context.Background(), reader, list.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	assert.Zero(t, f.movementCount(t))
}

// brokenLedger fails every Apply after the first failAfter calls.
type brokenLedger struct {
	ledger.Service
	failAfter int
	calls     int
}

func (l *brokenLedger) Apply(ctx context.Context, tx *gorm.DB, movement *models.StockMovement) error {
	l.calls++
	if l.calls > l.failAfter {
		return errors.New("connection reset by peer")
	}
	return l.Service.Apply(ctx, tx, movement)
}

func TestWithdrawBackendFailureMidBatchWritesNothing(t *testing.T) {
	broken := &brokenLedger{failAfter: 1}
	f := newFixtureWithLedger(t, func(svc ledger.Service) ledger.Service {
		broken.Service = svc
		return broken
	})
	a := dbtest.MustItem(t, f.conn, f.company.ID, "A", 10)
	b := dbtest.MustItem(t, f.conn, f.company.ID, "B", 5)
	list := dbtest.MustStandardList(t, f.conn, f.company.ID, "Semanal", map[uuid.UUID]int64{a.ID: 2, b.ID: 1})

	result, err := f.exec.ExecuteBulkWithdraw(context.Background(), f.scope, list.ID)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency), "got %v", err)
	assert.Equal(t, 2, broken.calls)

	assert.Zero(t, f.movementCount(t))
	assert.True(t, dbtest.ReloadItem(t, f.conn, a.ID).CurrentStock.Equal(qty(10)))
	assert.True(t, dbtest.ReloadItem(t, f.conn, b.ID).CurrentStock.Equal(qty(5)))

	var events int64
	require.NoError(t, f.conn.Model(&models.OutboxEvent{}).Count(&events).Error)
	assert.Zero(t, events)
	assert.Equal(t, 1.0, f.outcomeCount(t, metrics.OutcomeError))
	assert.Zero(t, f.outcomeCount(t, metrics.OutcomeCompleted))
}

func TestCollectShortagesCombinesRepeatedItems(t *testing.T) {
	item := &models.Item{ID: uuid.New(), Name: "A", CurrentStock: qty(5)}
	entries := []models.StandardListItem{
		{ItemID: item.ID, Quantity: qty(3)},
		{ItemID: item.ID, Quantity: qty(3)},
	}
	shortages := collectShortages(entries, map[uuid.UUID]*models.Item{item.ID: item})
	require.Len(t, shortages, 1)
	assert.True(t, shortages[0].Shortfall.Equal(qty(1)))
}

func TestNewExecutorRequiresDependencies(t *testing.T) {
	_, err := NewExecutor(ExecutorParams{})
	assert.Error(t, err)
}
