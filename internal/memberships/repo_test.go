package memberships

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/stockhub-backend/pkg/db"
	"github.com/angelmondragon/stockhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
)

func TestCreateRejectsOwnerPermission(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	owner := dbtest.MustUser(t, conn, false)
	company := dbtest.MustCompany(t, conn, owner.ID, "Acme")
	member := dbtest.MustUser(t, conn, false)

	_, err := repo.Create(context.Background(), company.ID, member.ID, enums.PermissionOwner, &owner.ID)
	require.Error(t, err)
}

func TestOnlyOneActiveMembershipPerPair(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	owner := dbtest.MustUser(t, conn, false)
	company := dbtest.MustCompany(t, conn, owner.ID, "Acme")
	member := dbtest.MustUser(t, conn, false)

	_, err := repo.Create(ctx, company.ID, member.ID, enums.PermissionRead, &owner.ID)
	require.NoError(t, err)

	_, err = repo.Create(ctx, company.ID, member.ID, enums.PermissionWrite, &owner.ID)
	require.Error(t, err)
	assert.True(t, db.IsUniqueViolation(err, ""))
}

func TestDeactivateAndReactivate(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	owner := dbtest.MustUser(t, conn, false)
	company := dbtest.MustCompany(t, conn, owner.ID, "Acme")
	member := dbtest.MustUser(t, conn, false)
	created := dbtest.MustMembership(t, conn, company.ID, member.ID, enums.PermissionWrite)

	removed, err := repo.Deactivate(ctx, company.ID, member.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	_, err = repo.FindActive(ctx, company.ID, member.ID)
	assert.True(t, db.IsNotFound(err))

	removed, err = repo.Deactivate(ctx, company.ID, member.ID)
	require.NoError(t, err)
	assert.False(t, removed)

	latest, err := repo.FindLatest(ctx, company.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, latest.ID)
	assert.False(t, latest.IsActive)

	reactivated, err := repo.Reactivate(ctx, latest.ID, enums.PermissionAdmin, &owner.ID)
	require.NoError(t, err)
	assert.True(t, reactivated)

	reactivated, err = repo.Reactivate(ctx, latest.ID, enums.PermissionRead, &owner.ID)
	require.NoError(t, err)
	assert.False(t, reactivated)

	active, err := repo.FindActive(ctx, company.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, active.ID)
	assert.Equal(t, enums.PermissionAdmin, active.PermissionType)
}

func TestUpdatePermissionOnlyTouchesActiveRows(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	owner := dbtest.MustUser(t, conn, false)
	company := dbtest.MustCompany(t, conn, owner.ID, "Acme")
	member := dbtest.MustUser(t, conn, false)

	updated, err := repo.UpdatePermission(ctx, company.ID, member.ID, enums.PermissionAdmin)
	require.NoError(t, err)
	assert.False(t, updated)

	dbtest.MustMembership(t, conn, company.ID, member.ID, enums.PermissionRead)
	updated, err = repo.UpdatePermission(ctx, company.ID, member.ID, enums.PermissionAdmin)
	require.NoError(t, err)
	assert.True(t, updated)

	active, err := repo.FindActive(ctx, company.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PermissionAdmin, active.PermissionType)
}

func TestListCompanyMembersJoinsProfiles(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	owner := dbtest.MustUser(t, conn, false)
	company := dbtest.MustCompany(t, conn, owner.ID, "Acme")
	reader := dbtest.MustUser(t, conn, false)
	former := dbtest.MustUser(t, conn, false)
	dbtest.MustMembership(t, conn, company.ID, reader.ID, enums.PermissionRead)
	dbtest.MustMembership(t, conn, company.ID, former.ID, enums.PermissionWrite)
	_, err := repo.Deactivate(ctx, company.ID, former.ID)
	require.NoError(t, err)

	members, err := repo.ListCompanyMembers(ctx, company.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, reader.ID, members[0].UserID)
	assert.Equal(t, reader.Email, members[0].Email)
	assert.Equal(t, enums.PermissionRead, members[0].PermissionType)
}

func TestDeactivateForUserIn(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	ctx := context.Background()
	owner := dbtest.MustUser(t, conn, false)
	first := dbtest.MustCompany(t, conn, owner.ID, "First")
	second := dbtest.MustCompany(t, conn, owner.ID, "Second")
	member := dbtest.MustUser(t, conn, false)
	dbtest.MustMembership(t, conn, first.ID, member.ID, enums.PermissionRead)
	dbtest.MustMembership(t, conn, second.ID, member.ID, enums.PermissionRead)

	affected, err := repo.DeactivateForUserIn(ctx, member.ID, nil)
	require.NoError(t, err)
	assert.Zero(t, affected)

	affected, err = repo.DeactivateForUserIn(ctx, member.ID, []uuid.UUID{first.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, affected)

	remaining, err := repo.ListActiveForUser(ctx, member.ID)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, second.ID, remaining[0].CompanyID)
}
