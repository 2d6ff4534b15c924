package companies

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/internal/memberships"
	"github.com/angelmondragon/stockhub-backend/internal/permissions"
	"github.com/angelmondragon/stockhub-backend/internal/users"
	"github.com/angelmondragon/stockhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
)

func newTestService(t *testing.T, conn *gorm.DB) Service {
	t.Helper()
	repo := NewRepository(conn)
	membershipRepo := memberships.NewRepository(conn)
	resolver, err := permissions.NewResolver(repo, membershipRepo)
	require.NoError(t, err)
	svc, err := NewService(repo, membershipRepo, users.NewRepository(conn), resolver, "pt-BR")
	require.NoError(t, err)
	return svc
}

func TestNewServiceRejectsBadLocale(t *testing.T) {
	conn := dbtest.Open(t)
	repo := NewRepository(conn)
	membershipRepo := memberships.NewRepository(conn)
	resolver, err := permissions.NewResolver(repo, membershipRepo)
	require.NoError(t, err)

	_, err = NewService(repo, membershipRepo, users.NewRepository(conn), resolver, "not a locale!")
	require.Error(t, err)
	_, err = NewService(nil, membershipRepo, users.NewRepository(conn), resolver, "pt-BR")
	require.Error(t, err)
}

func TestListAccessibleUnionsOwnedAndMemberCompanies(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	me := dbtest.MustUser(t, conn, false)
	other := dbtest.MustUser(t, conn, false)

	zeta := dbtest.MustCompany(t, conn, me.ID, "Zeta")
	alamo := dbtest.MustCompany(t, conn, other.ID, "Álamo")
	beta := dbtest.MustCompany(t, conn, other.ID, "beta")
	closed := dbtest.MustCompany(t, conn, other.ID, "Closed")
	revoked := dbtest.MustCompany(t, conn, other.ID, "Revoked")
	dbtest.MustCompany(t, conn, other.ID, "Unrelated")

	dbtest.MustMembership(t, conn, alamo.ID, me.ID, enums.PermissionRead)
	dbtest.MustMembership(t, conn, beta.ID, me.ID, enums.PermissionAdmin)
	dbtest.MustMembership(t, conn, closed.ID, me.ID, enums.PermissionWrite)
	dbtest.MustMembership(t, conn, revoked.ID, me.ID, enums.PermissionWrite)
	require.NoError(t, conn.Model(closed).Update("is_active", false).Error)
	_, err := memberships.NewRepository(conn).Deactivate(ctx, revoked.ID, me.ID)
	require.NoError(t, err)

	got, err := svc.ListAccessible(ctx, me.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, alamo.ID, got[0].ID)
	assert.Equal(t, enums.PermissionRead, got[0].Permission)
	assert.Equal(t, beta.ID, got[1].ID)
	assert.Equal(t, enums.PermissionAdmin, got[1].Permission)
	assert.Equal(t, zeta.ID, got[2].ID)
	assert.Equal(t, enums.PermissionOwner, got[2].Permission)
}

func TestListAccessibleEmptyIsNotAnError(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestService(t, conn)
	loner := dbtest.MustUser(t, conn, false)

	got, err := svc.ListAccessible(context.Background(), loner.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestListAccessibleReportsBackendFailure(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestService(t, conn)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	got, err := svc.ListAccessible(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}

func TestCreateMakesCallerOwner(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestService(t, conn)
	ctx := context.Background()
	me := dbtest.MustUser(t, conn, false)

	_, err := svc.Create(ctx, me.ID, CreateCompanyInput{Name: "   "})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	created, err := svc.Create(ctx, me.ID, CreateCompanyInput{Name: " Depósito Central "})
	require.NoError(t, err)
	assert.Equal(t, "Depósito Central", created.Name)
	assert.Equal(t, enums.PermissionOwner, created.Permission)
	require.NotNil(t, created.OwnerID)
	assert.Equal(t, me.ID, *created.OwnerID)

	fetched, err := svc.Get(ctx, me.ID, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)
}

func TestUpdateAndDeactivatePermissions(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	owner := dbtest.MustUser(t, conn, false)
	admin := dbtest.MustUser(t, conn, false)
	writer := dbtest.MustUser(t, conn, false)
	outsider := dbtest.MustUser(t, conn, false)
	company := dbtest.MustCompany(t, conn, owner.ID, "Acme")
	dbtest.MustMembership(t, conn, company.ID, admin.ID, enums.PermissionAdmin)
	dbtest.MustMembership(t, conn, company.ID, writer.ID, enums.PermissionWrite)

	renamed := "Acme Ltda"
	_, err := svc.Update(ctx, writer.ID, company.ID, UpdateCompanyInput{Name: &renamed})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.Update(ctx, outsider.ID, company.ID, UpdateCompanyInput{Name: &renamed})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	updated, err := svc.Update(ctx, admin.ID, company.ID, UpdateCompanyInput{Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, renamed, updated.Name)

	err = svc.Deactivate(ctx, admin.ID, company.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	require.NoError(t, svc.Deactivate(ctx, owner.ID, company.ID))

	_, err = svc.Get(ctx, owner.ID, company.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	listed, err := svc.ListAccessible(ctx, admin.ID)
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestAddMemberByEmail(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	owner := dbtest.MustUser(t, conn, false)
	writer := dbtest.MustUser(t, conn, false)
	invitee := dbtest.MustUser(t, conn, false)
	company := dbtest.MustCompany(t, conn, owner.ID, "Acme")
	dbtest.MustMembership(t, conn, company.ID, writer.ID, enums.PermissionWrite)

	_, err := svc.AddMemberByEmail(ctx, writer.ID, company.ID, AddMemberInput{Email: invitee.Email, Permission: enums.PermissionRead})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, err = svc.AddMemberByEmail(ctx, owner.ID, company.ID, AddMemberInput{Email: "nobody@example.com", Permission: enums.PermissionRead})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	_, err = svc.AddMemberByEmail(ctx, owner.ID, company.ID, AddMemberInput{Email: owner.Email, Permission: enums.PermissionAdmin})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = svc.AddMemberByEmail(ctx, owner.ID, company.ID, AddMemberInput{Email: invitee.Email, Permission: enums.PermissionOwner})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	added, err := svc.AddMemberByEmail(ctx, owner.ID, company.ID, AddMemberInput{Email: invitee.Email, Permission: enums.PermissionRead})
	require.NoError(t, err)
	assert.Equal(t, invitee.ID, added.UserID)
	assert.Equal(t, enums.PermissionRead, added.PermissionType)

	_, err = svc.AddMemberByEmail(ctx, owner.ID, company.ID, AddMemberInput{Email: invitee.Email, Permission: enums.PermissionWrite})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict))

	require.NoError(t, svc.RemoveMember(ctx, owner.ID, company.ID, invitee.ID))
	err = svc.RemoveMember(ctx, owner.ID, company.ID, invitee.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	readded, err := svc.AddMemberByEmail(ctx, owner.ID, company.ID, AddMemberInput{Email: invitee.Email, Permission: enums.PermissionWrite})
	require.NoError(t, err)
	assert.Equal(t, added.MembershipID, readded.MembershipID)
	assert.Equal(t, enums.PermissionWrite, readded.PermissionType)
}

// racingMemberships reactivates the row itself before the service does.
type racingMemberships struct {
	*memberships.Repository
}

func (r racingMemberships) Reactivate(ctx context.Context, id uuid.UUID, permission enums.Permission, actor *uuid.UUID) (bool, error) {
	if _, err := r.Repository.Reactivate(ctx, id, enums.PermissionRead, actor); err != nil {
		return false, err
	}
	return r.Repository.Reactivate(ctx, id, permission, actor)
}

func TestAddMemberByEmailLosingReactivationRaceIsConflict(t *testing.T) {
	conn := dbtest.Open(t)
	ctx := context.Background()
	repo := NewRepository(conn)
	membershipRepo := memberships.NewRepository(conn)
	resolver, err := permissions.NewResolver(repo, membershipRepo)
	require.NoError(t, err)
	svc, err := NewService(repo, racingMemberships{membershipRepo}, users.NewRepository(conn), resolver, "pt-BR")
	require.NoError(t, err)

	owner := dbtest.MustUser(t, conn, false)
	invitee := dbtest.MustUser(t, conn, false)
	company := dbtest.MustCompany(t, conn, owner.ID, "Acme")
	dbtest.MustMembership(t, conn, company.ID, invitee.ID, enums.PermissionRead)
	_, err = membershipRepo.Deactivate(ctx, company.ID, invitee.ID)
	require.NoError(t, err)

	_, err = svc.AddMemberByEmail(ctx, owner.ID, company.ID, AddMemberInput{Email: invitee.Email, Permission: enums.PermissionWrite})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeConflict), "got %v", err)

	active, err := membershipRepo.FindActive(ctx, company.ID, invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PermissionRead, active.PermissionType)
}

func TestMemberPermissionChangesApplyImmediately(t *testing.T) {
	conn := dbtest.Open(t)
	svc := newTestService(t, conn)
	ctx := context.Background()

	owner := dbtest.MustUser(t, conn, false)
	member := dbtest.MustUser(t, conn, false)
	company := dbtest.MustCompany(t, conn, owner.ID, "Acme")
	dbtest.MustMembership(t, conn, company.ID, member.ID, enums.PermissionRead)

	_, err := svc.ListMembers(ctx, member.ID, company.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	err = svc.UpdateMemberPermission(ctx, owner.ID, company.ID, member.ID, enums.Permission("superuser"))
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	require.NoError(t, svc.UpdateMemberPermission(ctx, owner.ID, company.ID, member.ID, enums.PermissionAdmin))

	members, err := svc.ListMembers(ctx, member.ID, company.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, enums.PermissionAdmin, members[0].PermissionType)

	err = svc.UpdateMemberPermission(ctx, owner.ID, company.ID, uuid.New(), enums.PermissionRead)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
