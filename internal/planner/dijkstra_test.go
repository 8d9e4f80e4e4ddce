package planner

import "testing"

func TestShortestPathSimpleSwap(t *testing.T) {
	reg := buildRegistry(t,
		[]guestSpec{{"vm1", "x86_64", 256}, {"vm2", "x86_64", 256}},
		[]hostSpec{{"host1", "x86_64", 4096}, {"host2", "x86_64", 4096}})
	initial := snapshot(t, reg, map[string][]string{"host1": {"vm1"}, "host2": {"vm2"}})
	final := snapshot(t, reg, map[string][]string{"host1": {"vm2"}, "host2": {"vm1"}})

	p := New(reg, initial, final, ShortestPathPlanner{})
	path, err := p.FindPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path == nil {
		t.Fatal("expected a plan, got nil")
	}
	assertValidPlan(t, path)
	if path.Cost != 512 {
		t.Errorf("Cost = %d, want 512", path.Cost)
	}
}

func TestShortestPathSwapViaTempHost(t *testing.T) {
	reg := buildRegistry(t,
		[]guestSpec{{"vm1", "x86_64", 3256}, {"vm2", "x86_64", 3256}},
		[]hostSpec{{"host1", "x86_64", 4096}, {"host2", "x86_64", 4096}, {"host3", "x86_64", 4096}})
	initial := snapshot(t, reg, map[string][]string{"host1": {"vm1"}, "host2": {"vm2"}, "host3": {}})
	final := snapshot(t, reg, map[string][]string{"host1": {"vm2"}, "host2": {"vm1"}, "host3": {}})

	p := New(reg, initial, final, ShortestPathPlanner{})
	path, err := p.FindPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path == nil {
		t.Fatal("expected a plan, got nil")
	}
	assertValidPlan(t, path)
	if path.Cost != 3*3256 {
		t.Errorf("Cost = %d, want %d", path.Cost, 3*3256)
	}
}

func TestShortestPathDeadlockReturnsNoPlan(t *testing.T) {
	reg := buildRegistry(t,
		[]guestSpec{{"vm1", "x86_64", 3256}, {"vm2", "x86_64", 3256}},
		[]hostSpec{{"host1", "x86_64", 4096}, {"host2", "x86_64", 4096}})
	initial := snapshot(t, reg, map[string][]string{"host1": {"vm1"}, "host2": {"vm2"}})
	final := snapshot(t, reg, map[string][]string{"host1": {"vm2"}, "host2": {"vm1"}})

	p := New(reg, initial, final, ShortestPathPlanner{})
	path, err := p.FindPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path != nil {
		t.Fatalf("expected no plan, got %v", path.Dump())
	}
}

func TestShortestPathNoOpWhenAlreadyAtGoal(t *testing.T) {
	reg := buildRegistry(t,
		[]guestSpec{{"vm1", "x86_64", 256}},
		[]hostSpec{{"host1", "x86_64", 4096}})
	initial := snapshot(t, reg, map[string][]string{"host1": {"vm1"}})
	final := snapshot(t, reg, map[string][]string{"host1": {"vm1"}})

	p := New(reg, initial, final, ShortestPathPlanner{})
	path, err := p.FindPath()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if path == nil {
		t.Fatal("expected an empty plan, got nil")
	}
	if len(path.Sequence) != 0 {
		t.Errorf("expected empty sequence, got %v", path.Sequence)
	}
}
