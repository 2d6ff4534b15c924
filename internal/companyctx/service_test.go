package companyctx

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/internal/companies"
	"github.com/angelmondragon/stockhub-backend/internal/memberships"
	"github.com/angelmondragon/stockhub-backend/internal/permissions"
	"github.com/angelmondragon/stockhub-backend/internal/users"
	"github.com/angelmondragon/stockhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
	"github.com/angelmondragon/stockhub-backend/pkg/logger"
)

type memoryStore struct {
	selections map[uuid.UUID]PersistedSelection
	saves      int
	loadErr    error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{selections: map[uuid.UUID]PersistedSelection{}}
}

func (m *memoryStore) Load(_ context.Context, userID uuid.UUID) (*PersistedSelection, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	selection, ok := m.selections[userID]
	if !ok {
		return nil, nil
	}
	return &selection, nil
}

func (m *memoryStore) Save(_ context.Context, userID uuid.UUID, selection PersistedSelection) error {
	m.saves++
	m.selections[userID] = selection
	return nil
}

func (m *memoryStore) Clear(_ context.Context, userID uuid.UUID) error {
	delete(m.selections, userID)
	return nil
}

type fixture struct {
	conn  *gorm.DB
	store *memoryStore
	svc   *Service
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	companyRepo := companies.NewRepository(conn)
	membershipRepo := memberships.NewRepository(conn)
	resolver, err := permissions.NewResolver(companyRepo, membershipRepo)
	require.NoError(t, err)
	directory, err := companies.NewService(companyRepo, membershipRepo, users.NewRepository(conn), resolver, "pt-BR")
	require.NoError(t, err)
	store := newMemoryStore()
	svc, err := NewService(store, resolver, directory, logger.New(logger.Options{Output: io.Discard}))
	require.NoError(t, err)
	return fixture{conn: conn, store: store, svc: svc}
}

func TestValidateAndRestoreAutoSelectsFirstCompany(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me := dbtest.MustUser(t, f.conn, false)
	other := dbtest.MustUser(t, f.conn, false)
	dbtest.MustCompany(t, f.conn, me.ID, "Mercado")
	first := dbtest.MustCompany(t, f.conn, other.ID, "Armazém")
	dbtest.MustMembership(t, f.conn, first.ID, me.ID, enums.PermissionRead)

	selection, err := f.svc.ValidateAndRestore(ctx, me.ID)
	require.NoError(t, err)
	require.True(t, selection.IsSelected())
	assert.Equal(t, first.ID, selection.Company.ID)
	assert.Equal(t, enums.PermissionRead, selection.Permission)
	assert.Equal(t, first.ID, f.store.selections[me.ID].Company.ID)
}

func TestValidateAndRestoreWithoutCompaniesIsUnselected(t *testing.T) {
	f := newFixture(t)
	loner := dbtest.MustUser(t, f.conn, false)

	selection, err := f.svc.ValidateAndRestore(context.Background(), loner.ID)
	require.NoError(t, err)
	assert.False(t, selection.IsSelected())
	assert.Zero(t, f.store.saves)

	raw, err := selection.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"company":null,"permission":null}`, string(raw))
}

func TestValidateAndRestoreRefreshesStoredPermission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := dbtest.MustUser(t, f.conn, false)
	member := dbtest.MustUser(t, f.conn, false)
	company := dbtest.MustCompany(t, f.conn, owner.ID, "Acme")
	dbtest.MustMembership(t, f.conn, company.ID, member.ID, enums.PermissionRead)

	// stored value claims admin; the live membership only grants read
	f.store.selections[member.ID] = PersistedSelection{
		Company:    companies.CompanyDTO{ID: company.ID, Name: "Stale name"},
		Permission: enums.PermissionAdmin,
	}

	selection, err := f.svc.ValidateAndRestore(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PermissionRead, selection.Permission)
	assert.Equal(t, "Acme", selection.Company.Name)
	assert.Equal(t, enums.PermissionRead, f.store.selections[member.ID].Permission)
}

func TestValidateAndRestoreDropsRevokedSelection(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := dbtest.MustUser(t, f.conn, false)
	member := dbtest.MustUser(t, f.conn, false)
	company := dbtest.MustCompany(t, f.conn, owner.ID, "Acme")

	f.store.selections[member.ID] = PersistedSelection{
		Company:    companies.CompanyDTO{ID: company.ID, Name: "Acme"},
		Permission: enums.PermissionWrite,
	}

	selection, err := f.svc.ValidateAndRestore(ctx, member.ID)
	require.NoError(t, err)
	assert.False(t, selection.IsSelected())
	assert.NotContains(t, f.store.selections, member.ID)
}

func TestSwitchRejectsInaccessibleCompanyAndKeepsPriorState(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	me := dbtest.MustUser(t, f.conn, false)
	other := dbtest.MustUser(t, f.conn, false)
	mine := dbtest.MustCompany(t, f.conn, me.ID, "Mine")
	theirs := dbtest.MustCompany(t, f.conn, other.ID, "Theirs")

	selection, err := f.svc.Switch(ctx, me.ID, mine.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PermissionOwner, selection.Permission)

	_, err = f.svc.Switch(ctx, me.ID, theirs.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	assert.Equal(t, mine.ID, f.store.selections[me.ID].Company.ID)

	_, err = f.svc.Switch(ctx, me.ID, uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	assert.Equal(t, mine.ID, f.store.selections[me.ID].Company.ID)
}

func TestCurrentRevalidatesOnEveryCall(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := dbtest.MustUser(t, f.conn, false)
	member := dbtest.MustUser(t, f.conn, false)
	company := dbtest.MustCompany(t, f.conn, owner.ID, "Acme")
	dbtest.MustMembership(t, f.conn, company.ID, member.ID, enums.PermissionWrite)

	_, err := f.svc.Current(ctx, member.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Switch(ctx, member.ID, company.ID)
	require.NoError(t, err)

	selection, err := f.svc.Current(ctx, member.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PermissionWrite, selection.Permission)

	_, err = memberships.NewRepository(f.conn).Deactivate(ctx, company.ID, member.ID)
	require.NoError(t, err)

	_, err = f.svc.Current(ctx, member.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))
	assert.NotContains(t, f.store.selections, member.ID)
}

func TestStoreFailureIsNotAnEmptySelection(t *testing.T) {
	f := newFixture(t)
	f.store.loadErr = errors.New("redis down")

	_, err := f.svc.ValidateAndRestore(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	_, err = f.svc.Current(context.Background(), uuid.New())
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
}
