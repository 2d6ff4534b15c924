package standardlists

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockhub-backend/internal/permissions"
	"github.com/angelmondragon/stockhub-backend/pkg/db"
	"github.com/angelmondragon/stockhub-backend/pkg/db/dbtest"
	"github.com/angelmondragon/stockhub-backend/pkg/db/models"
	"github.com/angelmondragon/stockhub-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
	"github.com/angelmondragon/stockhub-backend/pkg/pagination"
	"github.com/angelmondragon/stockhub-backend/pkg/types"
)

type fixture struct {
	conn    *gorm.DB
	svc     Service
	scope   permissions.Scope
	company *models.Company
}

func newFixture(t *testing.T, permission enums.Permission) fixture {
	t.Helper()
	conn := dbtest.Open(t)
	svc, err := NewService(NewRepository(conn), db.NewFromConn(conn))
	require.NoError(t, err)
	owner := dbtest.MustUser(t, conn, false)
	company := dbtest.MustCompany(t, conn, owner.ID, "Acme")
	return fixture{
		conn:    conn,
		svc:     svc,
		company: company,
		scope:   permissions.Scope{CompanyID: company.ID, UserID: owner.ID, Permission: permission},
	}
}

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestMergeEntriesSumsDuplicates(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	merged := mergeEntries([]EntryInput{
		{ItemID: a, Quantity: qty(2)},
		{ItemID: b, Quantity: qty(1)},
		{ItemID: a, Quantity: qty(3)},
	})
	require.Len(t, merged, 2)
	assert.Equal(t, a, merged[0].ItemID)
	assert.True(t, merged[0].Quantity.Equal(qty(5)))
	assert.Equal(t, b, merged[1].ItemID)
}

func TestCreateAndGetWithItemNames(t *testing.T) {
	f := newFixture(t, enums.PermissionWrite)
	ctx := context.Background()
	rice := dbtest.MustItem(t, f.conn, f.company.ID, "Arroz", 10)
	beans := dbtest.MustItem(t, f.conn, f.company.ID, "Feijão", 10)

	created, err := f.svc.Create(ctx, f.scope, CreateInput{
		Name: "Cesta básica",
		Entries: []EntryInput{
			{ItemID: rice.ID, Quantity: qty(2)},
			{ItemID: beans.ID, Quantity: qty(1)},
			{ItemID: rice.ID, Quantity: qty(1)},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "Cesta básica", created.Name)
	require.NotNil(t, created.CreatedBy)
	require.Len(t, created.Entries, 2)
	assert.Equal(t, "Arroz", created.Entries[0].ItemName)
	assert.True(t, created.Entries[0].Quantity.Equal(qty(3)))
	assert.Equal(t, "Feijão", created.Entries[1].ItemName)

	page, err := f.svc.List(ctx, f.scope, pagination.Params{Limit: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, 2, page.Items[0].EntryCount)
}

func TestCreateRejectsForeignItems(t *testing.T) {
	f := newFixture(t, enums.PermissionWrite)
	stranger := dbtest.MustUser(t, f.conn, false)
	other := dbtest.MustCompany(t, f.conn, stranger.ID, "Other")
	foreign := dbtest.MustItem(t, f.conn, other.ID, "Segredo", 3)

	_, err := f.svc.Create(context.Background(), f.scope, CreateInput{
		Name:    "Lista",
		Entries: []EntryInput{{ItemID: foreign.ID, Quantity: qty(1)}},
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	var count int64
	require.NoError(t, f.conn.Model(&models.StandardList{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCreateRejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture(t, enums.PermissionWrite)
	item := dbtest.MustItem(t, f.conn, f.company.ID, "Arroz", 1)

	_, err := f.svc.Create(context.Background(), f.scope, CreateInput{
		Name:    "Lista",
		Entries: []EntryInput{{ItemID: item.ID, Quantity: decimal.Zero}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = f.svc.Create(context.Background(), f.scope, CreateInput{
		Name:    "Lista",
		Entries: []EntryInput{{ItemID: item.ID, Quantity: decimal.RequireFromString("0.0004")}},
	})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestUpdateReplacesEntries(t *testing.T) {
	f := newFixture(t, enums.PermissionWrite)
	ctx := context.Background()
	rice := dbtest.MustItem(t, f.conn, f.company.ID, "Arroz", 10)
	oil := dbtest.MustItem(t, f.conn, f.company.ID, "Óleo", 10)
	list := dbtest.MustStandardList(t, f.conn, f.company.ID, "Semanal", map[uuid.UUID]int64{rice.ID: 2})

	desc := "toda segunda"
	updated, err := f.svc.Update(ctx, f.scope, list.ID, UpdateInput{
		Description: types.NullableString{Valid: true, Value: &desc},
		Entries:     []EntryInput{{ItemID: oil.ID, Quantity: qty(4)}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Semanal", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, desc, *updated.Description)
	require.Len(t, updated.Entries, 1)
	assert.Equal(t, oil.ID, updated.Entries[0].ItemID)

	renamed := "Quinzenal"
	updated, err = f.svc.Update(ctx, f.scope, list.ID, UpdateInput{Name: &renamed})
	require.NoError(t, err)
	assert.Equal(t, renamed, updated.Name)
	require.Len(t, updated.Entries, 1, "entries untouched when not supplied")
}

func TestUpdateWithForeignItemKeepsPreviousEntries(t *testing.T) {
	f := newFixture(t, enums.PermissionWrite)
	ctx := context.Background()
	rice := dbtest.MustItem(t, f.conn, f.company.ID, "Arroz", 10)
	list := dbtest.MustStandardList(t, f.conn, f.company.ID, "Semanal", map[uuid.UUID]int64{rice.ID: 2})

	stranger := dbtest.MustUser(t, f.conn, false)
	other := dbtest.MustCompany(t, f.conn, stranger.ID, "Other")
	foreign := dbtest.MustItem(t, f.conn, other.ID, "Segredo", 3)

	renamed := "Renomeada"
	_, err := f.svc.Update(ctx, f.scope, list.ID, UpdateInput{
		Name:    &renamed,
		Entries: []EntryInput{{ItemID: foreign.ID, Quantity: qty(1)}},
	})
	require.Error(t, err)

	got, err := f.svc.Get(ctx, f.scope, list.ID)
	require.NoError(t, err)
	assert.Equal(t, "Semanal", got.Name)
	require.Len(t, got.Entries, 1)
	assert.Equal(t, rice.ID, got.Entries[0].ItemID)
}

func TestDeleteCascadesAndRequiresAdmin(t *testing.T) {
	f := newFixture(t, enums.PermissionWrite)
	ctx := context.Background()
	rice := dbtest.MustItem(t, f.conn, f.company.ID, "Arroz", 10)
	list := dbtest.MustStandardList(t, f.conn, f.company.ID, "Semanal", map[uuid.UUID]int64{rice.ID: 2})

	err := f.svc.Delete(ctx, f.scope, list.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeForbidden))

	admin := f.scope
	admin.Permission = enums.PermissionAdmin
	require.NoError(t, f.svc.Delete(ctx, admin, list.ID))

	var entries int64
	require.NoError(t, f.conn.Model(&models.StandardListItem{}).Count(&entries).Error)
	assert.Zero(t, entries)

	err = f.svc.Delete(ctx, admin, list.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestCrossTenantListIsNotFound(t *testing.T) {
	f := newFixture(t, enums.PermissionAdmin)
	ctx := context.Background()
	stranger := dbtest.MustUser(t, f.conn, false)
	other := dbtest.MustCompany(t, f.conn, stranger.ID, "Other")
	foreign := dbtest.MustStandardList(t, f.conn, other.ID, "Privada", nil)

	_, err := f.svc.Get(ctx, f.scope, foreign.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	err = f.svc.Delete(ctx, f.scope, foreign.ID)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))

	var count int64
	require.NoError(t, f.conn.Model(&models.StandardList{}).Where("id = ?", foreign.ID).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
