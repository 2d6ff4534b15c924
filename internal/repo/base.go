package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/angelmondragon/stockhub-backend/pkg/pagination"
)

// ErrCompanyRequired is returned when a scoped query is built without a company.
var ErrCompanyRequired = errors.New("company id is required for scoped queries")

// Base provides a shared foundation for domain repositories.
type Base struct {
	db *gorm.DB
}

// NewBase constructs a Base repository backed by the provided GORM connection.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB returns the GORM connection bound to the supplied context (if any).
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}

// WithTx returns a Base that issues every query on tx.
func (b Base) WithTx(tx *gorm.DB) Base {
	return Base{db: tx}
}

// Scoped restricts the statement's own table to rows of companyID. The column
// is qualified with the current table so joins cannot widen the filter.
func (b Base) Scoped(ctx context.Context, companyID uuid.UUID) (*gorm.DB, error) {
	if companyID == uuid.Nil {
		return nil, ErrCompanyRequired
	}
	return b.DB(ctx).Where(CompanyClause(companyID)), nil
}

// CompanyClause is the company_id equality predicate on the current table.
func CompanyClause(companyID uuid.UUID) clause.Expression {
	return clause.Eq{
		Column: clause.Column{Table: clause.CurrentTable, Name: "company_id"},
		Value:  companyID,
	}
}

// KeysetDesc orders query newest first on (column, id) and resumes after
// cursor. It fetches one extra row so callers can detect a following page.
func KeysetDesc(query *gorm.DB, table, column string, cursor *pagination.Cursor, limit int) *gorm.DB {
	col := table + "." + column
	id := table + ".id"
	if cursor != nil {
		query = query.Where("("+col+", "+id+") < (?, ?)", cursor.CreatedAt, cursor.ID)
	}
	return query.Order(col + " DESC").Order(id + " DESC").Limit(pagination.LimitWithBuffer(limit))
}
