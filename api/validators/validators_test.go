package validators

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/angelmondragon/stockhub-backend/pkg/errors"
)

type createItemBody struct {
	Name     string  `json:"name" validate:"required,min=1,max=255"`
	Email    string  `json:"contact_email" validate:"omitempty,email"`
	Comments *string `json:"comments,omitempty"`
}

func jsonRequest(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
}

func TestDecodeJSONBodyAccepts(t *testing.T) {
	var dest createItemBody
	require.NoError(t, DecodeJSONBody(jsonRequest(`{"name":"Bolts"}`), &dest))
	assert.Equal(t, "Bolts", dest.Name)
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	var dest createItemBody
	err := DecodeJSONBody(jsonRequest(`{"name":"Bolts","sku":"x"}`), &dest)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyRejectsTrailingObject(t *testing.T) {
	var dest createItemBody
	err := DecodeJSONBody(jsonRequest(`{"name":"a"}{"name":"b"}`), &dest)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	var dest createItemBody
	err := DecodeJSONBody(jsonRequest(`{"contact_email":"nope"}`), &dest)
	appErr := pkgerrors.As(err)
	require.NotNil(t, appErr)
	details, ok := appErr.Details().(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "is required", details["name"])
	assert.Equal(t, "must be a valid email", details["contact_email"])
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "Main warehouse", SanitizeString("  Main \t\n warehouse ", 0))
	assert.Equal(t, "Über", SanitizeString("Über-Lager", 4))
	assert.Equal(t, "ab", SanitizeString("ab c", 3))
	assert.Empty(t, SanitizeString("   ", 10))
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=30&bad=x&big=900", nil)

	v, err := ParseQueryInt(req, "limit", 20, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 30, v)

	v, err = ParseQueryInt(req, "missing", 20, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, 20, v)

	_, err = ParseQueryInt(req, "bad", 20, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	_, err = ParseQueryInt(req, "big", 20, 1, 100)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}

func TestParseQueryTimeAcceptsDates(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?from=2026-03-01&to=2026-03-02T10:00:00Z", nil)

	from, err := ParseQueryTime(req, "from")
	require.NoError(t, err)
	require.NotNil(t, from)
	assert.Equal(t, 1, from.Day())

	to, err := ParseQueryTime(req, "to")
	require.NoError(t, err)
	assert.Equal(t, 10, to.Hour())
}

func TestParseURLUUIDMalformedIsNotFound(t *testing.T) {
	id := uuid.New()
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("id", id.String())
	rctx.URLParams.Add("bad", "123")
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))

	got, err := ParseURLUUID(req, "id")
	require.NoError(t, err)
	assert.Equal(t, id, got)

	_, err = ParseURLUUID(req, "bad")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}
