package standardlists

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/internal/repo"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/pagination"
)

const entryCountColumn = "(SELECT COUNT(*) FROM standard_list_items sli WHERE sli.standard_list_id = standard_lists.id) AS entry_count"

// Repository persists standard lists and their entries.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{Base: r.Base.WithTx(tx)}
}

// List returns the company's lists newest first with their entry counts.
func (r *Repository) List(ctx context.Context, companyID uuid.UUID, cursor *pagination.Cursor, limit int) ([]listRow, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return nil, err
	}
	query = query.Model(&models.StandardList{}).Select("standard_lists.*, " + entryCountColumn)
	var rows []listRow
	err = repo.KeysetDesc(query, "standard_lists", "created_at", cursor, limit).Scan(&rows).Error
	return rows, err
}

// Find loads the list header.
func (r *Repository) Find(ctx context.Context, companyID, id uuid.UUID) (*models.StandardList, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return nil, err
	}
	var list models.StandardList
	if err := query.Where("id = ?", id).First(&list).Error; err != nil {
		return nil, err
	}
	return &list, nil
}

// FindWithEntries loads the list header together with its entries.
func (r *Repository) FindWithEntries(ctx context.Context, companyID, id uuid.UUID) (*models.StandardList, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return nil, err
	}
	var list models.StandardList
	err = query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("standard_list_items.created_at ASC").Order("standard_list_items.id ASC")
	}).Where("id = ?", id).First(&list).Error
	if err != nil {
		return nil, err
	}
	return &list, nil
}

// Entries lists a list's lines joined to item names from the same company.
func (r *Repository) Entries(ctx context.Context, companyID, listID uuid.UUID) ([]entryRow, error) {
	if companyID == uuid.Nil {
		return nil, repo.ErrCompanyRequired
	}
	var rows []entryRow
	err := r.DB(ctx).Table("standard_list_items").
		Select("standard_list_items.item_id, items.name AS item_name, standard_list_items.quantity").
		Joins("JOIN items ON items.id = standard_list_items.item_id").
		Where("standard_list_items.standard_list_id = ? AND items.company_id = ?", listID, companyID).
		Order("items.name ASC").
		Scan(&rows).Error
	return rows, err
}

// Create inserts the list and its entries.
func (r *Repository) Create(ctx context.Context, companyID uuid.UUID, list *models.StandardList) error {
	if companyID == uuid.Nil {
		return repo.ErrCompanyRequired
	}
	list.CompanyID = companyID
	return r.DB(ctx).Create(list).Error
}

func (r *Repository) UpdateDetails(ctx context.Context, companyID uuid.UUID, list *models.StandardList) (bool, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return false, err
	}
	result := query.Model(&models.StandardList{}).
		Where("id = ?", list.ID).
		Updates(map[string]any{
			"name":        list.Name,
			"description": list.Description,
			"updated_at":  time.Now().UTC(),
		})
	return result.RowsAffected > 0, result.Error
}

// ReplaceEntries deletes every entry of listID and inserts entries.
func (r *Repository) ReplaceEntries(ctx context.Context, listID uuid.UUID, entries []models.StandardListItem) error {
	db := r.DB(ctx)
	if err := db.Where("standard_list_id = ?", listID).Delete(&models.StandardListItem{}).Error; err != nil {
		return err
	}
	if len(entries) == 0 {
		return nil
	}
	for i := range entries {
		entries[i].StandardListID = listID
	}
	return db.Create(&entries).Error
}

// Delete removes the list. Entries cascade.
func (r *Repository) Delete(ctx context.Context, companyID, id uuid.UUID) (bool, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return false, err
	}
	if err := r.DB(ctx).Where("standard_list_id IN (?)",
		r.DB(ctx).Model(&models.StandardList{}).Select("id").Where("id = ? AND company_id = ?", id, companyID),
	).Delete(&models.StandardListItem{}).Error; err != nil {
		return false, err
	}
	result := query.Where("id = ?", id).Delete(&models.StandardList{})
	return result.RowsAffected > 0, result.Error
}

// CountItemsInCompany counts how many of ids are items of companyID.
func (r *Repository) CountItemsInCompany(ctx context.Context, companyID uuid.UUID, ids []uuid.UUID) (int64, error) {
	query, err := r.Scoped(ctx, companyID)
	if err != nil {
		return 0, err
	}
	var count int64
	err = query.Model(&models.Item{}).Where("id IN ?", ids).Count(&count).Error
	return count, err
}
