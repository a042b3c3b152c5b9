package access

import (
	"sync"

	"github.com/perma-web/wttp/pkg/types"
)

// MemoryRoles is the in-process RoleRegistry. Sites embedded in a larger
// system can substitute their own implementation; the engine only ever
// calls HasRole.
type MemoryRoles struct {
	mu      sync.RWMutex
	members map[types.Account]map[types.Role]struct{}
}

func NewMemoryRoles() *MemoryRoles {
	return &MemoryRoles{
		members: make(map[types.Account]map[types.Role]struct{}),
	}
}

func (m *MemoryRoles) Grant(account types.Account, role types.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()

	roles, ok := m.members[account]
	if !ok {
		roles = make(map[types.Role]struct{})
		m.members[account] = roles
	}
	roles[role] = struct{}{}
}

func (m *MemoryRoles) Revoke(account types.Account, role types.Role) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if roles, ok := m.members[account]; ok {
		delete(roles, role)
	}
}

func (m *MemoryRoles) HasRole(account types.Account, role types.Role) bool {
	// Everyone holds the public role without a grant.
	if role == types.PublicRole {
		return true
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	roles, ok := m.members[account]
	if !ok {
		return false
	}
	_, ok = roles[role]
	return ok
}
