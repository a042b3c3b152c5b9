package headers_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perma-web/wttp/internal/testutil"
	"github.com/perma-web/wttp/pkg/headers"
	"github.com/perma-web/wttp/pkg/logging"
	"github.com/perma-web/wttp/pkg/types"
)

func newTestRegistry(t testing.TB, defaultHeader types.HeaderInfo) *headers.Registry {
	t.Helper()
	return headers.NewRegistry(testutil.NewKV(t), defaultHeader, logging.NewTestLogger())
}

func TestCreateOrGet_Dedup(t *testing.T) {
	reg := newTestRegistry(t, types.HeaderInfo{})

	h := headers.NewHeader(types.CachePresetShort, types.CORSPresetPublicRead, types.Role{})

	addr1, err := reg.CreateOrGet(h)
	require.NoError(t, err)

	addr2, err := reg.CreateOrGet(h)
	require.NoError(t, err)
	assert.Equal(t, addr1, addr2, "identical headers must dedup to one address")

	// A different header gets a different address.
	h.Redirect = types.Redirect{Code: 301, Location: "/elsewhere"}
	addr3, err := reg.CreateOrGet(h)
	require.NoError(t, err)
	assert.NotEqual(t, addr1, addr3)
}

func TestCreateOrGet_RoundTrip(t *testing.T) {
	reg := newTestRegistry(t, types.HeaderInfo{})

	h := types.HeaderInfo{
		Cache: types.CacheControl{Immutable: true, Custom: "max-age=1"},
		CORS: types.CORSPolicy{
			Methods: types.AllMethods,
			Origins: types.PublicOrigins(),
		},
		Redirect: types.Redirect{Code: 301, Location: "/next"},
	}

	addr, err := reg.CreateOrGet(h)
	require.NoError(t, err)

	got, err := reg.Get(addr)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestAddressOf_MatchesCreateOrGet(t *testing.T) {
	reg := newTestRegistry(t, types.HeaderInfo{})

	h := headers.NewHeader(types.CachePresetNone, types.CORSPresetPublicReadWrite, types.Role{})

	pure, err := headers.AddressOf(h)
	require.NoError(t, err)

	stored, err := reg.CreateOrGet(h)
	require.NoError(t, err)
	assert.Equal(t, pure, stored)
}

func TestResolve_DefaultHeader(t *testing.T) {
	def := headers.NewHeader(types.CachePresetNone, types.CORSPresetPublicRead, types.Role{})
	reg := newTestRegistry(t, def)

	got, err := reg.Resolve(types.Address{})
	require.NoError(t, err)
	assert.Equal(t, def, got)
}

func TestGet_Unknown(t *testing.T) {
	reg := newTestRegistry(t, types.HeaderInfo{})

	_, err := reg.Get(types.AddressOf([]byte("no such header")))
	assert.True(t, errors.Is(err, types.ErrNotFound), "got %v", err)
}

func TestExpandCORSPreset_Private(t *testing.T) {
	admin := types.RoleFromString("site-admin")
	c := headers.ExpandCORSPreset(types.CORSPolicy{Preset: types.CORSPresetPrivate}, admin)

	assert.Equal(t, types.AllMethods, c.Methods)
	assert.Equal(t, types.PublicRole, c.Origins[types.MethodGet])
	assert.Equal(t, admin, c.Origins[types.MethodPut])
	assert.Equal(t, admin, c.Origins[types.MethodPatch])
	assert.Equal(t, admin, c.Origins[types.MethodDelete])
	assert.Equal(t, admin, c.Origins[types.MethodDefine])
}

func TestExpandCachePreset_Permanent(t *testing.T) {
	c := headers.ExpandCachePreset(types.CacheControl{Preset: types.CachePresetPermanent})
	assert.True(t, c.Immutable)
}
