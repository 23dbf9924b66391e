package access

import (
	"errors"
	"fmt"

	"github.com/openfund/pfm/internal/types"
)

// Error definitions for authorization checks
var (
	ErrUnauthorized = errors.New("account lacks required role")
)

// Store holds (account, role) grants. Grants are administrative state seeded at
// initialization and adjusted by admins; Require is the hot path every
// privileged operation runs through.
type Store struct {
	grants map[types.Account]map[types.Role]struct{}
}

// NewStore creates a role store seeded with the given grants.
func NewStore(seed map[types.Account][]types.Role) *Store {
	s := &Store{grants: make(map[types.Account]map[types.Role]struct{})}
	for account, roles := range seed {
		for _, role := range roles {
			s.Grant(account, role)
		}
	}
	return s
}

// Grant adds a role to an account. Granting an already-held role is a no-op.
func (s *Store) Grant(account types.Account, role types.Role) {
	if _, ok := s.grants[account]; !ok {
		s.grants[account] = make(map[types.Role]struct{})
	}
	s.grants[account][role] = struct{}{}
}

// Revoke removes a role from an account. Revoking an absent role is a no-op.
func (s *Store) Revoke(account types.Account, role types.Role) {
	if roles, ok := s.grants[account]; ok {
		delete(roles, role)
	}
}

// Has reports whether the account holds the role.
func (s *Store) Has(account types.Account, role types.Role) bool {
	roles, ok := s.grants[account]
	if !ok {
		return false
	}
	_, ok = roles[role]
	return ok
}

// Require fails ErrUnauthorized unless the account holds the role. No side effects.
func (s *Store) Require(account types.Account, role types.Role) error {
	if !s.Has(account, role) {
		return errors.Join(ErrUnauthorized,
			fmt.Errorf("account %s is missing role %s", account, role))
	}
	return nil
}
