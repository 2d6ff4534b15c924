// Package withdrawals executes a standard list as one all-or-nothing batch
// of exit movements.
package withdrawals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/internal/ledger"
	"github.com/angelmondragon/stockhub-backend/internal/movements"
	"github.com/angelmondragon/stockhub-backend/internal/permissions"
	"github.com/angelmondragon/stockhub-backend/internal/repo"
	"github.com/angelmondragon/stockhub-backend/internal/standardlists"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
	"github.com/angelmondragon/stockhub-backend/pkg/logger"
	"github.com/angelmondragon/stockhub-backend/pkg/metrics"
	"github.com/angelmondragon/stockhub-backend/pkg/outbox"
	"github.com/angelmondragon/stockhub-backend/pkg/outbox/payloads"
)

const descriptionPrefix = "Retirada da lista padrão: "

// errShortage rolls the transaction back after shortages were collected.
var errShortage = errors.New("withdrawal has shortages")

// WithdrawResult reports a withdrawal attempt. Shortages are set only when
// Status is insufficient_stock; Movements only when it is completed.
type WithdrawResult struct {
	Status    enums.WithdrawalStatus  `json:"status"`
	ListID    uuid.UUID               `json:"list_id"`
	Movements []movements.MovementDTO `json:"movements"`
	Shortages []ledger.Shortage       `json:"shortages"`
}

type listRepository interface {
	WithTx(tx *gorm.DB) *standardlists.Repository
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Executor runs bulk withdrawals.
type Executor interface {
	ExecuteBulkWithdraw(ctx context.Context, scope permissions.Scope, listID uuid.UUID) (*WithdrawResult, error)
}

type ExecutorParams struct {
	Lists   listRepository
	Ledger  ledger.Service
	Tx      txRunner
	Events  eventEmitter
	Metrics *metrics.WithdrawalMetrics
	Logger  *logger.Logger
}

type executor struct {
	lists   listRepository
	ledger  ledger.Service
	tx      txRunner
	events  eventEmitter
	metrics *metrics.WithdrawalMetrics
	logg    *logger.Logger
}

func NewExecutor(params ExecutorParams) (Executor, error) {
	if params.Lists == nil {
		return nil, fmt.Errorf("standard list repository required")
	}
	if params.Ledger == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &executor{
		lists:   params.Lists,
		ledger:  params.Ledger,
		tx:      params.Tx,
		events:  params.Events,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// ExecuteBulkWithdraw checks every entry of the list against the locked
// balances and either writes one exit per entry or writes nothing. Shortages
// are a normal outcome and come back in the result with a nil error.
func (e *executor) ExecuteBulkWithdraw(ctx context.Context, scope permissions.Scope, listID uuid.UUID) (*WithdrawResult, error) {
	if err := scope.Require(enums.PermissionWrite); err != nil {
		return nil, err
	}
	ctx = e.logg.WithFields(ctx, map[string]any{
		"company_id":       scope.CompanyID.String(),
		"standard_list_id": listID.String(),
	})

	started := time.Now()
	result, err := e.execute(ctx, scope, listID)
	switch {
	case err != nil:
		e.metrics.Observe(metrics.OutcomeError, 0, time.Since(started))
		if !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) && !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			e.logg.Error(ctx, "withdrawal.failed", err)
		}
		return nil, err
	case result.Status == enums.WithdrawalInsufficientStock:
		e.metrics.Observe(metrics.OutcomeInsufficientStock, 0, time.Since(started))
		e.logg.Info(e.logg.WithField(ctx, "shortages", len(result.Shortages)), "withdrawal.insufficient_stock")
	default:
		e.metrics.Observe(metrics.OutcomeCompleted, len(result.Movements), time.Since(started))
		e.logg.Info(e.logg.WithField(ctx, "movements", len(result.Movements)), "withdrawal.completed")
	}
	return result, nil
}

func (e *executor) execute(ctx context.Context, scope permissions.Scope, listID uuid.UUID) (*WithdrawResult, error) {
	var result *WithdrawResult
	err := e.tx.WithTx(ctx, func(tx *gorm.DB) error {
		list, err := e.lists.WithTx(tx).FindWithEntries(ctx, scope.CompanyID, listID)
		if err != nil {
			return err
		}
		if len(list.Items) == 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "standard list has no entries")
		}

		ids := make([]uuid.UUID, 0, len(list.Items))
		for _, entry := range list.Items {
			ids = append(ids, entry.ItemID)
		}
		locked, err := e.ledger.LockItems(ctx, tx, scope.CompanyID, ids)
		if err != nil {
			return err
		}

		if len(locked) < len(uniqueIDs(ids)) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		shortages := collectShortages(list.Items, locked)
		if len(shortages) > 0 {
			result = &WithdrawResult{
				Status:    enums.WithdrawalInsufficientStock,
				ListID:    list.ID,
				Movements: []movements.MovementDTO{},
				Shortages: shortages,
			}
			return errShortage
		}

		written, err := e.withdraw(ctx, tx, scope, list, locked)
		if err != nil {
			return err
		}
		result = &WithdrawResult{
			Status:    enums.WithdrawalCompleted,
			ListID:    list.ID,
			Movements: written,
			Shortages: []ledger.Shortage{},
		}
		return nil
	})
	if errors.Is(err, errShortage) {
		return result, nil
	}
	if err != nil {
		return nil, repo.MapError(err, "standard list", "execute withdrawal")
	}
	return result, nil
}

// withdraw writes one exit per entry. A guarded decrement that fails here
// means a concurrent change and aborts the whole batch.
func (e *executor) withdraw(ctx context.Context, tx *gorm.DB, scope permissions.Scope, list *models.StandardList, locked map[uuid.UUID]*models.Item) ([]movements.MovementDTO, error) {
	description := descriptionPrefix + list.Name
	listID := list.ID
	now := time.Now().UTC()

	written := make([]movements.MovementDTO, 0, len(list.Items))
	lines := make([]payloads.StockWithdrawnLine, 0, len(list.Items))
	for _, entry := range list.Items {
		movement := &models.StockMovement{
			CompanyID:      scope.CompanyID,
			ItemID:         entry.ItemID,
			MovementType:   enums.MovementTypeSaida,
			Quantity:       entry.Quantity,
			Description:    &description,
			Date:           now,
			StandardListID: &listID,
			CreatedBy:      scope.Actor(),
		}
		if err := e.ledger.Apply(ctx, tx, movement); err != nil {
			return nil, err
		}
		written = append(written, movements.FromModel(movement, locked[entry.ItemID].Name))
		lines = append(lines, payloads.StockWithdrawnLine{
			MovementID: movement.ID,
			ItemID:     entry.ItemID,
			Quantity:   entry.Quantity,
		})
	}

	companyID := scope.CompanyID
	err := e.events.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventStockWithdrawn,
		AggregateType: enums.AggregateStandardList,
		AggregateID:   list.ID,
		CompanyID:     &companyID,
		Actor:         &outbox.ActorRef{UserID: scope.UserID, CompanyID: &companyID},
		Data: payloads.StockWithdrawnEvent{
			CompanyID:      companyID,
			StandardListID: list.ID,
			ListName:       list.Name,
			Lines:          lines,
		},
	})
	if err != nil {
		return nil, err
	}
	return written, nil
}

// collectShortages compares every entry with its locked balance. Entries for
// the same item are checked against their combined quantity.
func collectShortages(entries []models.StandardListItem, locked map[uuid.UUID]*models.Item) []ledger.Shortage {
	required := make(map[uuid.UUID]decimal.Decimal, len(entries))
	order := make([]uuid.UUID, 0, len(entries))
	for _, entry := range entries {
		if _, seen := required[entry.ItemID]; !seen {
			order = append(order, entry.ItemID)
		}
		required[entry.ItemID] = required[entry.ItemID].Add(entry.Quantity)
	}

	var shortages []ledger.Shortage
	for _, id := range order {
		item, ok := locked[id]
		if !ok {
			continue
		}
		if item.CurrentStock.LessThan(required[id]) {
			shortages = append(shortages, ledger.NewShortage(item, required[id]))
		}
	}
	return shortages
}

func uniqueIDs(ids []uuid.UUID) map[uuid.UUID]struct{} {
	out := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out
}
