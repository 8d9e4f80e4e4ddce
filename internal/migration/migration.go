// Package migration holds the migration record and the path object
// that accumulates a sequence of migrations between two placement
// snapshots, along with the work-list derivation and the stable dump
// format used for equality.
package migration

import (
	"fmt"

	"github.com/yourusername/migplan/internal/registry"
)

// Migration is a single guest relocation: (guest, from_host, to_host)
// with from_host != to_host. Cost is captured at construction time
// from the guest's registered RAM, matching vmmigration.py's
// cost() == vm.ram.
type Migration struct {
	Guest    string
	FromHost string
	ToHost   string
	ram      int
}

// New builds a Migration, resolving guest RAM against reg. It fails
// if fromHost equals toHost or guest is unregistered.
func New(reg *registry.Registry, guest, fromHost, toHost string) (Migration, error) {
	if fromHost == toHost {
		return Migration{}, fmt.Errorf("migration: %s: from and to host both %q", guest, fromHost)
	}
	g, ok := reg.Guest(guest)
	if !ok {
		return Migration{}, fmt.Errorf("migration: unknown guest %q", guest)
	}
	return Migration{Guest: guest, FromHost: fromHost, ToHost: toHost, ram: g.RAM}, nil
}

// Cost is the RAM required to carry out the migration.
func (m Migration) Cost() int {
	return m.ram
}

func (m Migration) String() string {
	return fmt.Sprintf("%s: %s -> %s  cost %d", m.Guest, m.FromHost, m.ToHost, m.ram)
}
