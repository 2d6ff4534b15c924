package movements

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/internal/ledger"
	"github.com/angelmondragon/stockhub-backend/internal/permissions"
	"github.com/angelmondragon/stockhub-backend/internal/repo"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
	"github.com/angelmondragon/stockhub-backend/pkg/outbox"
	"github.com/angelmondragon/stockhub-backend/pkg/outbox/payloads"
	"github.com/angelmondragon/stockhub-backend/pkg/pagination"
)

type movementRepository interface {
	List(ctx context.Context, companyID uuid.UUID, filter ListFilter, cursor *pagination.Cursor, limit int) ([]movementRow, error)
	FindItem(ctx context.Context, companyID, itemID uuid.UUID) (*models.Item, error)
}

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes the movement ledger to the API.
type Service interface {
	List(ctx context.Context, scope permissions.Scope, filter ListFilter, params pagination.Params) (*pagination.Page[MovementDTO], error)
	Record(ctx context.Context, scope permissions.Scope, input RecordInput) (*MovementDTO, error)
}

type service struct {
	repo   movementRepository
	ledger ledger.Service
	tx     txRunner
	events eventEmitter
}

// NewService wires the movement service.
func NewService(repo movementRepository, ledgerSvc ledger.Service, tx txRunner, events eventEmitter) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("movement repository required")
	}
	if ledgerSvc == nil {
		return nil, fmt.Errorf("ledger service required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if events == nil {
		return nil, fmt.Errorf("outbox emitter required")
	}
	return &service{repo: repo, ledger: ledgerSvc, tx: tx, events: events}, nil
}

func (s *service) List(ctx context.Context, scope permissions.Scope, filter ListFilter, params pagination.Params) (*pagination.Page[MovementDTO], error) {
	if err := scope.Require(enums.PermissionRead); err != nil {
		return nil, err
	}
	if filter.MovementType != nil && !filter.MovementType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "movement_type must be entrada or saida")
	}
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "from must not be after to")
	}
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.List(ctx, scope.CompanyID, filter, cursor, params.Limit)
	if err != nil {
		return nil, repo.MapError(err, "movement", "list movements")
	}
	dtos := make([]MovementDTO, 0, len(rows))
	for i := range rows {
		dtos = append(dtos, FromModel(&rows[i].StockMovement, rows[i].ItemName))
	}
	page := pagination.BuildPage(dtos, params.Limit, func(m MovementDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.Date, ID: m.ID}
	})
	return &page, nil
}

func (s *service) Record(ctx context.Context, scope permissions.Scope, input RecordInput) (*MovementDTO, error) {
	if err := scope.Require(enums.PermissionWrite); err != nil {
		return nil, err
	}
	if input.ItemID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item_id is required")
	}

	movement := &models.StockMovement{
		CompanyID:    scope.CompanyID,
		ItemID:       input.ItemID,
		MovementType: input.MovementType,
		Quantity:     input.Quantity,
		Description:  trimOptional(input.Description),
		CreatedBy:    scope.Actor(),
	}
	if input.Date != nil {
		movement.Date = input.Date.UTC()
	}

	var itemName string
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		locked, err := s.ledger.LockItems(ctx, tx, scope.CompanyID, []uuid.UUID{input.ItemID})
		if err != nil {
			return err
		}
		item, ok := locked[input.ItemID]
		if !ok {
			return pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
		}
		itemName = item.Name

		if err := s.ledger.Apply(ctx, tx, movement); err != nil {
			return err
		}

		balance := item.CurrentStock.Add(movement.Quantity)
		if movement.MovementType == enums.MovementTypeSaida {
			balance = item.CurrentStock.Sub(movement.Quantity)
		}
		companyID := scope.CompanyID
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockMovementRecorded,
			AggregateType: enums.AggregateItem,
			AggregateID:   item.ID,
			CompanyID:     &companyID,
			Actor:         &outbox.ActorRef{UserID: scope.UserID, CompanyID: &companyID},
			Data: payloads.StockMovementRecordedEvent{
				MovementID:   movement.ID,
				CompanyID:    companyID,
				ItemID:       item.ID,
				MovementType: movement.MovementType,
				Quantity:     movement.Quantity,
				BalanceAfter: balance,
			},
		})
	})
	if err != nil {
		return nil, repo.MapError(err, "movement", "record movement")
	}

	dto := FromModel(movement, itemName)
	return &dto, nil
}

func trimOptional(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
