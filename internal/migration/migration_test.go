package migration

import (
	"testing"

	"github.com/yourusername/migplan/internal/placement"
	"github.com/yourusername/migplan/internal/registry"
)

func simpleSwapRegistry(t *testing.T) *registry.Registry {
	t.Helper()
	reg := registry.New()
	if _, err := reg.NewGuest("vm1", "x86_64", 256); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.NewGuest("vm2", "x86_64", 256); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.NewHost("host1", "x86_64", 4096, 256); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.NewHost("host2", "x86_64", 4096, 256); err != nil {
		t.Fatal(err)
	}
	return reg
}

func TestNewMigrationSameHost(t *testing.T) {
	reg := simpleSwapRegistry(t)
	if _, err := New(reg, "vm1", "host1", "host1"); err == nil {
		t.Fatal("expected error for from == to host")
	}
}

func TestMigrationCost(t *testing.T) {
	reg := simpleSwapRegistry(t)
	m, err := New(reg, "vm1", "host1", "host2")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := m.Cost(); got != 256 {
		t.Errorf("Cost() = %d, want 256", got)
	}
}

func TestComparePlacementsAndDump(t *testing.T) {
	reg := simpleSwapRegistry(t)
	initial, err := placement.FromPlacement(reg, map[string][]string{
		"host1": {"vm1"}, "host2": {"vm2"},
	})
	if err != nil {
		t.Fatal(err)
	}
	final, err := placement.FromPlacement(reg, map[string][]string{
		"host1": {"vm2"}, "host2": {"vm1"},
	})
	if err != nil {
		t.Fatal(err)
	}

	path, err := NewPath(initial, final)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(path.GuestsToShutdown) != 0 || len(path.GuestsToProvision) != 0 {
		t.Fatalf("expected no shutdowns/provisions, got %+v / %+v", path.GuestsToShutdown, path.GuestsToProvision)
	}
	wantMigrate := []string{"vm1", "vm2"}
	if len(path.GuestsToMigrate) != len(wantMigrate) {
		t.Fatalf("GuestsToMigrate = %v, want %v", path.GuestsToMigrate, wantMigrate)
	}

	m1, err := New(reg, "vm1", "host1", "host2")
	if err != nil {
		t.Fatal(err)
	}
	m2, err := New(reg, "vm2", "host2", "host1")
	if err != nil {
		t.Fatal(err)
	}
	path.SetSequence([]Migration{m1, m2})

	want := "shutdown: \n! vm1: host1 -> host2  cost 256\n! vm2: host2 -> host1  cost 256\nprovision: \n"
	if got := path.Dump(); got != want {
		t.Errorf("Dump() =\n%q\nwant\n%q", got, want)
	}
	if path.Cost != 512 {
		t.Errorf("Cost = %d, want 512", path.Cost)
	}
}

func TestPathEqual(t *testing.T) {
	reg := simpleSwapRegistry(t)
	initial, _ := placement.FromPlacement(reg, map[string][]string{"host1": {"vm1"}, "host2": {"vm2"}})
	final, _ := placement.FromPlacement(reg, map[string][]string{"host1": {"vm2"}, "host2": {"vm1"}})

	pathA, err := NewPath(initial, final)
	if err != nil {
		t.Fatal(err)
	}
	pathB, err := NewPath(initial, final)
	if err != nil {
		t.Fatal(err)
	}
	m1, _ := New(reg, "vm1", "host1", "host2")
	m2, _ := New(reg, "vm2", "host2", "host1")
	pathA.SetSequence([]Migration{m1, m2})
	pathB.SetSequence([]Migration{m1, m2})

	if !pathA.Equal(pathB) {
		t.Error("expected identical paths to be equal")
	}
}

func TestPathWalk(t *testing.T) {
	reg := simpleSwapRegistry(t)
	initial, _ := placement.FromPlacement(reg, map[string][]string{"host1": {"vm1"}, "host2": {"vm2"}})
	final, _ := placement.FromPlacement(reg, map[string][]string{"host1": {"vm2"}, "host2": {"vm1"}})
	path, err := NewPath(initial, final)
	if err != nil {
		t.Fatal(err)
	}
	m1, _ := New(reg, "vm1", "host1", "host2")
	m2, _ := New(reg, "vm2", "host2", "host1")
	path.SetSequence([]Migration{m1, m2})

	var keys []string
	if err := path.Walk(func(s *placement.Snapshot) bool {
		keys = append(keys, s.CanonicalKey())
		return true
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("expected 3 snapshots walked, got %d: %v", len(keys), keys)
	}
	if keys[len(keys)-1] != path.StateBeforeProvisions.CanonicalKey() {
		t.Errorf("final walked snapshot = %q, want %q", keys[len(keys)-1], path.StateBeforeProvisions.CanonicalKey())
	}
}

func TestNewPathInvalidEndpoint(t *testing.T) {
	reg := registry.New()
	if _, err := reg.NewGuest("big", "x86_64", 4000); err != nil {
		t.Fatal(err)
	}
	if _, err := reg.NewHost("small", "x86_64", 1024, 256); err != nil {
		t.Fatal(err)
	}
	bad, err := placement.FromPlacement(reg, map[string][]string{"small": {"big"}})
	if err != nil {
		t.Fatal(err)
	}
	ok, err := placement.FromPlacement(reg, map[string][]string{"small": {}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewPath(bad, ok); err == nil {
		t.Fatal("expected error for infeasible initial endpoint")
	}
}
