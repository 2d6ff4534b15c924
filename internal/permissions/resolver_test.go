package permissions

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
)

type stubMemberships struct {
	calls int
	row   *models.CompanyMembership
	err   error
}

func (s *stubMemberships) FindActive(context.Context, uuid.UUID, uuid.UUID) (*models.CompanyMembership, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if s.row == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.row, nil
}

type stubCompanies struct {
	company *models.Company
	err     error
}

func (s stubCompanies) FindByID(context.Context, uuid.UUID) (*models.Company, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.company == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.company, nil
}

func TestOwnerShortCircuitsMembershipLookup(t *testing.T) {
	owner := uuid.New()
	members := &stubMemberships{}
	resolver, err := NewResolver(stubCompanies{}, members)
	require.NoError(t, err)

	company := &models.Company{ID: uuid.New(), OwnerID: &owner, IsActive: true}
	permission, err := resolver.ResolvePermission(context.Background(), owner, company)
	require.NoError(t, err)
	assert.Equal(t, enums.PermissionOwner, permission)
	assert.Zero(t, members.calls)
}

func TestResolvePermissionFromMembership(t *testing.T) {
	owner := uuid.New()
	company := &models.Company{ID: uuid.New(), OwnerID: &owner, IsActive: true}
	user := uuid.New()

	cases := []struct {
		name    string
		members *stubMemberships
		want    enums.Permission
		wantErr bool
	}{
		{name: "write member", members: &stubMemberships{row: &models.CompanyMembership{PermissionType: enums.PermissionWrite, IsActive: true}}, want: enums.PermissionWrite},
		{name: "no membership", members: &stubMemberships{}, want: enums.PermissionNone},
		{name: "owner stored on membership", members: &stubMemberships{row: &models.CompanyMembership{PermissionType: enums.PermissionOwner, IsActive: true}}, want: enums.PermissionNone},
		{name: "backend failure", members: &stubMemberships{err: errors.New("down")}, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resolver, err := NewResolver(stubCompanies{}, tc.members)
			require.NoError(t, err)
			got, err := resolver.ResolvePermission(context.Background(), user, company)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestInactiveCompanyGrantsNothing(t *testing.T) {
	owner := uuid.New()
	resolver, err := NewResolver(stubCompanies{}, &stubMemberships{})
	require.NoError(t, err)

	permission, err := resolver.ResolvePermission(context.Background(), owner, &models.Company{ID: uuid.New(), OwnerID: &owner})
	require.NoError(t, err)
	assert.Equal(t, enums.PermissionNone, permission)
}

func TestRequireMapsOutcomes(t *testing.T) {
	owner := uuid.New()
	reader := uuid.New()
	company := &models.Company{ID: uuid.New(), OwnerID: &owner, IsActive: true}
	members := &stubMemberships{row: &models.CompanyMembership{PermissionType: enums.PermissionRead, IsActive: true}}
	resolver, err := NewResolver(stubCompanies{company: company}, members)
	require.NoError(t, err)
	ctx := context.Background()

	got, permission, err := resolver.Require(ctx, reader, company.ID, enums.PermissionRead)
	require.NoError(t, err)
	assert.Equal(t, company.ID, got.ID)
	assert.Equal(t, enums.PermissionRead, permission)

	_, _, err = resolver.Require(ctx, reader, company.ID, enums.PermissionWrite)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	_, _, err = resolver.Require(ctx, owner, company.ID, enums.PermissionOwner)
	require.NoError(t, err)

	missing, err := NewResolver(stubCompanies{}, members)
	require.NoError(t, err)
	_, _, err = missing.Require(ctx, owner, uuid.New(), enums.PermissionRead)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	broken, err := NewResolver(stubCompanies{err: errors.New("db down")}, members)
	require.NoError(t, err)
	_, _, err = broken.Require(ctx, owner, company.ID, enums.PermissionRead)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
