// Package access implements the authorization engine: given the header
// governing a resource, a method and a caller, decide whether the call may
// proceed. Role membership itself lives behind the RoleRegistry interface;
// granting and revoking roles is not a protocol operation.
package access

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/perma-web/wttp/pkg/types"
)

// RoleRegistry answers caller-to-role membership queries.
type RoleRegistry interface {
	HasRole(account types.Account, role types.Role) bool
}

type Engine struct {
	roles RoleRegistry
	log   *logrus.Logger
}

func NewEngine(roles RoleRegistry, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.New()
	}
	return &Engine{
		roles: roles,
		log:   log,
	}
}

// Authorize evaluates, in order:
//
//  1. Immutability: a mutating method on an immutable resource is refused
//     for everyone, super-admin included.
//  2. Super-admin: bypasses the method-bitmask and origin checks.
//  3. Method bitmask: the method's bit must be set in the header. DEFINE
//     additionally requires the OPTIONS bit, so a header cannot be
//     redefined through a policy that hides its own method surface.
//  4. Origin role: PublicRole admits anyone, otherwise the caller must
//     hold the role in the method's origin slot.
//
// The returned error wraps one of the types sentinels.
func (e *Engine) Authorize(header types.HeaderInfo, method types.Method, caller types.Account) error {
	if method.Mutates() && header.Cache.Immutable {
		return fmt.Errorf("%s: %w", method, types.ErrImmutable)
	}

	if e.roles.HasRole(caller, types.SuperAdminRole) {
		return nil
	}

	if !header.CORS.Methods.Has(method) {
		return fmt.Errorf("%s: %w", method, types.ErrMethodNotAllowed)
	}
	if method == types.MethodDefine && !header.CORS.Methods.Has(types.MethodOptions) {
		return fmt.Errorf("DEFINE requires OPTIONS to be enabled: %w", types.ErrMethodNotAllowed)
	}

	required := header.CORS.Origins[method]
	if required == types.PublicRole {
		return nil
	}
	if e.roles.HasRole(caller, required) {
		return nil
	}

	e.log.WithFields(logrus.Fields{
		"method": method.String(),
		"caller": caller.String(),
		"role":   required.String(),
	}).Debug("origin check failed")

	return fmt.Errorf("%s requires role %s: %w", method, required, types.ErrForbidden)
}

// IsSuperAdmin reports whether the caller holds the bypass-all role.
func (e *Engine) IsSuperAdmin(caller types.Account) bool {
	return e.roles.HasRole(caller, types.SuperAdminRole)
}
