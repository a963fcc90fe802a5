// Package access implements capability checks consumed by the ledger
// and order services: administrator, self, and order-owner. The
// administrator identity is a configuration value injected at
// construction, never ambient state.
package access

import (
	"github.com/gridmesh/energymarket/internal/domain"
)

// Gate performs caller capability checks.
type Gate struct {
	admin string
}

// NewGate creates a Gate with the given administrator address.
func NewGate(admin string) *Gate {
	return &Gate{admin: admin}
}

// RequireAdmin returns ErrAuthorization unless caller is the
// administrator.
func (g *Gate) RequireAdmin(caller string) error {
	if caller != g.admin {
		return domain.ErrAuthorization
	}
	return nil
}

// RequireSelf returns ErrAuthorization unless caller is subject.
func (g *Gate) RequireSelf(caller, subject string) error {
	if caller != subject {
		return domain.ErrAuthorization
	}
	return nil
}

// RequireOwner returns ErrAuthorization unless caller owns the order.
func (g *Gate) RequireOwner(caller string, o *domain.Order) error {
	if caller != o.Owner {
		return domain.ErrAuthorization
	}
	return nil
}
