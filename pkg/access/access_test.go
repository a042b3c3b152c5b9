package access_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/perma-web/wttp/pkg/access"
	"github.com/perma-web/wttp/pkg/logging"
	"github.com/perma-web/wttp/pkg/types"
)

var (
	editorRole = types.RoleFromString("editor")
	alice      = types.AccountFromString("alice")
	bob        = types.AccountFromString("bob")
	admin      = types.AccountFromString("admin")
)

func newTestEngine(t testing.TB) (*access.Engine, *access.MemoryRoles) {
	t.Helper()
	roles := access.NewMemoryRoles()
	return access.NewEngine(roles, logging.NewTestLogger()), roles
}

func editorHeader() types.HeaderInfo {
	h := types.HeaderInfo{
		CORS: types.CORSPolicy{
			Methods: types.AllMethods,
			Origins: types.PublicOrigins(),
		},
	}
	h.CORS.Origins[types.MethodPut] = editorRole
	return h
}

func TestAuthorize_PublicRoleAdmitsAnyone(t *testing.T) {
	engine, _ := newTestEngine(t)

	err := engine.Authorize(editorHeader(), types.MethodGet, bob)
	assert.NoError(t, err)
}

func TestAuthorize_OriginRole(t *testing.T) {
	engine, roles := newTestEngine(t)
	header := editorHeader()

	// Without the role: forbidden.
	err := engine.Authorize(header, types.MethodPut, alice)
	assert.True(t, errors.Is(err, types.ErrForbidden), "got %v", err)

	// With the role: allowed.
	roles.Grant(alice, editorRole)
	assert.NoError(t, engine.Authorize(header, types.MethodPut, alice))

	// Revoked again: forbidden.
	roles.Revoke(alice, editorRole)
	err = engine.Authorize(header, types.MethodPut, alice)
	assert.True(t, errors.Is(err, types.ErrForbidden), "got %v", err)
}

func TestAuthorize_MethodBitUnset(t *testing.T) {
	engine, _ := newTestEngine(t)

	header := editorHeader()
	header.CORS.Methods = header.CORS.Methods.Without(types.MethodDelete)

	err := engine.Authorize(header, types.MethodDelete, alice)
	assert.True(t, errors.Is(err, types.ErrMethodNotAllowed), "got %v", err)
}

func TestAuthorize_SuperAdminBypassesOriginAndBitmask(t *testing.T) {
	engine, roles := newTestEngine(t)
	roles.Grant(admin, types.SuperAdminRole)

	header := editorHeader()
	header.CORS.Methods = 0 // every method bit off

	for m := types.Method(0); m < types.MethodCount; m++ {
		assert.NoError(t, engine.Authorize(header, m, admin), "method %s", m)
	}
}

func TestAuthorize_ImmutableBlocksMutationEvenForSuperAdmin(t *testing.T) {
	engine, roles := newTestEngine(t)
	roles.Grant(admin, types.SuperAdminRole)

	header := editorHeader()
	header.Cache.Immutable = true

	for _, m := range []types.Method{types.MethodPut, types.MethodPatch, types.MethodDelete, types.MethodDefine} {
		err := engine.Authorize(header, m, admin)
		assert.True(t, errors.Is(err, types.ErrImmutable), "method %s: got %v", m, err)
	}

	// Reads stay open.
	assert.NoError(t, engine.Authorize(header, types.MethodGet, admin))
	assert.NoError(t, engine.Authorize(header, types.MethodHead, bob))
}

func TestAuthorize_DefineRequiresOptionsBit(t *testing.T) {
	engine, _ := newTestEngine(t)

	header := editorHeader()
	header.CORS.Methods = header.CORS.Methods.Without(types.MethodOptions)

	err := engine.Authorize(header, types.MethodDefine, alice)
	assert.True(t, errors.Is(err, types.ErrMethodNotAllowed), "got %v", err)

	header.CORS.Methods = header.CORS.Methods.With(types.MethodOptions)
	assert.NoError(t, engine.Authorize(header, types.MethodDefine, alice))
}

func TestMemoryRoles_PublicRoleWithoutGrant(t *testing.T) {
	roles := access.NewMemoryRoles()
	assert.True(t, roles.HasRole(bob, types.PublicRole))
	assert.False(t, roles.HasRole(bob, editorRole))
	assert.False(t, roles.HasRole(bob, types.SuperAdminRole))
}
