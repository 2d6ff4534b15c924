package users

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockhub-backend/pkg/db"
	"github.com/angelmondragon/stockhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	"github.com/angelmondragon/stockhub-backend/pkg/pagination"
)

func TestCreateAndFindByEmailNormalizes(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	created, err := repo.Create(ctx, CreateUserDTO{Email: "  Ana@Example.com ", Name: " Ana ", PasswordHash: "h"})
	require.NoError(t, err)
	assert.Equal(t, "ana@example.com", created.Email)
	assert.Equal(t, "Ana", created.Name)
	assert.True(t, created.IsActive)

	found, err := repo.FindByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.Create(ctx, CreateUserDTO{Email: "ana@example.com", Name: "Dup", PasswordHash: "h"})
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestFindByIDMissing(t *testing.T) {
	repo := NewRepository(dbtest.Open(t))
	_, err := repo.FindByID(context.Background(), uuid.New())
	assert.True(t, db.IsNotFound(err))
}

func TestIsSuperAdminReadsFlag(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	admin := dbtest.MustUser(t, conn, true)
	regular := dbtest.MustUser(t, conn, false)

	ok, err := repo.IsSuperAdmin(ctx, admin.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.IsSuperAdmin(ctx, regular.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = repo.IsSuperAdmin(ctx, uuid.New())
	require.NoError(t, err)
	assert.False(t, ok)

	found, err := repo.SetSuperAdmin(ctx, regular.ID, true)
	require.NoError(t, err)
	assert.True(t, found)
	ok, err = repo.IsSuperAdmin(ctx, regular.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	found, err = repo.SetSuperAdmin(ctx, uuid.New(), true)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestListWithCountsAndWithoutCompany(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	owner := dbtest.MustUser(t, conn, false)
	member := dbtest.MustUser(t, conn, false)
	loner := dbtest.MustUser(t, conn, false)
	revoked := dbtest.MustUser(t, conn, false)

	company := dbtest.MustCompany(t, conn, owner.ID, "Alpha")
	dbtest.MustMembership(t, conn, company.ID, member.ID, enums.PermissionWrite)
	gone := dbtest.MustMembership(t, conn, company.ID, revoked.ID, enums.PermissionRead)
	require.NoError(t, conn.Model(&models.CompanyMembership{}).Where("id = ?", gone.ID).Update("is_active", false).Error)

	rows, err := repo.ListWithCounts(ctx, nil, 10)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	counts := map[uuid.UUID]UserSummaryDTO{}
	for _, row := range rows {
		counts[row.ID] = row
	}
	assert.Equal(t, int64(1), counts[owner.ID].OwnedCount)
	assert.Equal(t, int64(0), counts[owner.ID].MembershipCount)
	assert.Equal(t, int64(1), counts[member.ID].MembershipCount)
	assert.Equal(t, int64(0), counts[revoked.ID].MembershipCount)

	orphans, err := repo.ListWithoutCompany(ctx)
	require.NoError(t, err)
	ids := []uuid.UUID{}
	for _, u := range orphans {
		ids = append(ids, u.ID)
	}
	assert.ElementsMatch(t, []uuid.UUID{loner.ID, revoked.ID}, ids)
}

func TestListWithCountsPaginates(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 3; i++ {
		u := dbtest.MustUser(t, conn, false)
		require.NoError(t, conn.Model(&models.User{}).Where("id = ?", u.ID).UpdateColumn("created_at", base.Add(time.Duration(i)*time.Minute)).Error)
	}

	first, err := repo.ListWithCounts(ctx, nil, 2)
	require.NoError(t, err)
	page := pagination.BuildPage(first, 2, func(u UserSummaryDTO) pagination.Cursor {
		return pagination.Cursor{CreatedAt: u.CreatedAt, ID: u.ID}
	})
	require.Len(t, page.Items, 2)
	require.NotEmpty(t, page.NextCursor)

	cursor, err := pagination.ParseCursor(page.NextCursor)
	require.NoError(t, err)
	second, err := repo.ListWithCounts(ctx, cursor, 2)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.True(t, second[0].CreatedAt.Before(page.Items[1].CreatedAt))
}
