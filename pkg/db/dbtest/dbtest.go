// Package dbtest opens isolated in-memory SQLite databases carrying the
// application schema, for repository and service tests.
package dbtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/pkg/db"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
)

// Open returns a fresh SQLite database with foreign keys enabled.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:stockhub_" + uuid.NewString() + "?mode=memory&cache=shared&_foreign_keys=on"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.BootstrapSQLite(context.Background(), conn); err != nil {
		t.Fatalf("bootstrap schema: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}

// Client wraps Open in a db.Client.
func Client(t testing.TB) *db.Client {
	t.Helper()
	return db.NewFromConn(Open(t))
}

func MustUser(t testing.TB, conn *gorm.DB, superAdmin bool) *models.User {
	t.Helper()
	user := &models.User{
		Email:        fmt.Sprintf("user_%s@example.com", uuid.NewString()),
		Name:         "Test User",
		PasswordHash: "hash",
		IsSuperAdmin: superAdmin,
		IsActive:     true,
	}
	if err := conn.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

func MustCompany(t testing.TB, conn *gorm.DB, ownerID uuid.UUID, name string) *models.Company {
	t.Helper()
	company := &models.Company{Name: name, OwnerID: &ownerID, IsActive: true}
	if err := conn.Create(company).Error; err != nil {
		t.Fatalf("create company: %v", err)
	}
	return company
}

func MustMembership(t testing.TB, conn *gorm.DB, companyID, userID uuid.UUID, permission enums.Permission) *models.CompanyMembership {
	t.Helper()
	membership := &models.CompanyMembership{
		CompanyID:      companyID,
		UserID:         userID,
		PermissionType: permission,
		IsActive:       true,
	}
	if err := conn.Create(membership).Error; err != nil {
		t.Fatalf("create membership: %v", err)
	}
	return membership
}

func MustItem(t testing.TB, conn *gorm.DB, companyID uuid.UUID, name string, stock int64) *models.Item {
	t.Helper()
	item := &models.Item{
		CompanyID:    companyID,
		Name:         name,
		CurrentStock: decimal.NewFromInt(stock),
		MinimumStock: decimal.Zero,
	}
	if err := conn.Create(item).Error; err != nil {
		t.Fatalf("create item: %v", err)
	}
	return item
}

// MustStandardList creates a list whose entries are given as item id → quantity.
func MustStandardList(t testing.TB, conn *gorm.DB, companyID uuid.UUID, name string, entries map[uuid.UUID]int64) *models.StandardList {
	t.Helper()
	list := &models.StandardList{CompanyID: companyID, Name: name}
	for itemID, qty := range entries {
		list.Items = append(list.Items, models.StandardListItem{ItemID: itemID, Quantity: decimal.NewFromInt(qty)})
	}
	if err := conn.Create(list).Error; err != nil {
		t.Fatalf("create standard list: %v", err)
	}
	return list
}

// ReloadItem reads the item back from the database.
func ReloadItem(t testing.TB, conn *gorm.DB, id uuid.UUID) *models.Item {
	t.Helper()
	var item models.Item
	if err := conn.First(&item, "id = ?", id).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	return &item
}
