package planner

import (
	"sort"

	"github.com/yourusername/migplan/internal/migration"
	"github.com/yourusername/migplan/internal/placement"
)

// maxDisplacementDepth bounds the depth of a single displacement
// chain. The true bound is the number of guests on the contended
// host, which is always small for realistic pools; this constant
// guards against a runaway recursion surfacing as a stack overflow
// instead of a diagnosable PlannerInvariantError.
const maxDisplacementDepth = 256

// DisplacementPlanner is the recursive displacement strategy: the
// hard core of the system. It searches for a sequence of migrations
// from path.StateAfterShutdowns to path.StateBeforeProvisions, one
// guest in guests_to_migrate at a time, resolving contention by
// displacing occupants of the destination host under a strict
// three-class priority order.
type DisplacementPlanner struct{}

func (DisplacementPlanner) run(p *Planner, path *migration.Path) ([]migration.Migration, error) {
	todo := make(map[string]bool, len(path.GuestsToMigrate))
	for _, g := range path.GuestsToMigrate {
		todo[g] = true
	}
	return solve(p, path, path.StateAfterShutdowns, todo)
}

func sortedSet(set map[string]bool) []string {
	names := make([]string, 0, len(set))
	for name := range set {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func cloneSet(set map[string]bool) map[string]bool {
	next := make(map[string]bool, len(set))
	for k, v := range set {
		next[k] = v
	}
	return next
}

func withAdded(set map[string]bool, name string) map[string]bool {
	next := cloneSet(set)
	next[name] = true
	return next
}

// updateTodo returns a copy of todo reflecting the effect of having
// just applied m: if the guest arrived at its final target, it is
// removed; otherwise (a move away from target, e.g. a displacement)
// it is (re)inserted, adding migration debt.
func updateTodo(todo map[string]bool, path *migration.Path, m migration.Migration) map[string]bool {
	next := cloneSet(todo)
	target, _ := path.TargetHost(m.Guest)
	if m.ToHost == target {
		delete(next, m.Guest)
	} else {
		next[m.Guest] = true
	}
	return next
}

// solve is the top-level loop: try each guest still in todo, in
// sorted order, as the next direct migration; recurse on whatever
// state results; backtrack to the next guest if the recursion
// dead-ends.
func solve(p *Planner, path *migration.Path, current *placement.Snapshot, todo map[string]bool) ([]migration.Migration, error) {
	atGoal := current.Equal(path.StateBeforeProvisions)
	todoEmpty := len(todo) == 0
	if atGoal && todoEmpty {
		return []migration.Migration{}, nil
	}
	if atGoal != todoEmpty {
		return nil, &PlannerInvariantError{Reason: "reached goal with work remaining, or vice versa"}
	}

	for _, guest := range sortedSet(todo) {
		fromHost, _ := current.Host(guest)
		toHost, _ := path.TargetHost(guest)
		m, err := migration.New(p.reg, guest, fromHost, toHost)
		if err != nil {
			return nil, &PlannerInvariantError{Reason: err.Error()}
		}

		segment, nextState, nextTodo, _, err := solveTo(p, path, current, m, todo, map[string]bool{}, 0)
		if err != nil {
			return nil, err
		}
		if segment == nil {
			continue
		}

		rest, err := solve(p, path, nextState, nextTodo)
		if err != nil {
			return nil, err
		}
		if rest == nil {
			continue
		}
		return append(segment, rest...), nil
	}
	return nil, nil
}

// solveTo attempts the direct migration m; if infeasible, falls back
// to displacing occupants of m's destination host.
func solveTo(p *Planner, path *migration.Path, current *placement.Snapshot, m migration.Migration, todo, locked map[string]bool, depth int) (segment []migration.Migration, nextState *placement.Snapshot, nextTodo, nextLocked map[string]bool, err error) {
	if seg, state, ok := solveSingle(current, m, todo, path); ok {
		return seg, state, updateTodo(todo, path, m), locked, nil
	}
	return displace(p, path, current, m, todo, locked, depth)
}

// solveSingle performs m directly with no recursion, succeeding only
// if the result is feasible.
func solveSingle(current *placement.Snapshot, m migration.Migration, todo map[string]bool, path *migration.Path) ([]migration.Migration, *placement.Snapshot, bool) {
	next, err := current.TryMigrate(m.Guest, m.ToHost)
	if err != nil {
		return nil, nil, false
	}
	return []migration.Migration{m}, next, true
}

type candidateClass int

const (
	classRequiredToFinal candidateClass = iota + 1
	classRequiredToNonFinal
	classNotRequired
)

type candidate struct {
	migration migration.Migration
	class     candidateClass
}

// candidates enumerates, in strict priority order, the migrations
// that might clear room on host H for onBehalfOf.
func candidates(p *Planner, path *migration.Path, current *placement.Snapshot, todo, locked map[string]bool, host string) []candidate {
	var out []candidate
	guestsOnHost := current.GuestsOn(host)
	hosts := current.Hosts()

	var requiredGuests []string
	for _, v := range guestsOnHost {
		if todo[v] && !locked[v] {
			requiredGuests = append(requiredGuests, v)
			target, _ := path.TargetHost(v)
			if mv, err := migration.New(p.reg, v, host, target); err == nil {
				out = append(out, candidate{mv, classRequiredToFinal})
			}
		}
	}

	for _, v := range requiredGuests {
		target, _ := path.TargetHost(v)
		for _, h := range hosts {
			if h == host || h == target {
				continue
			}
			if mv, err := migration.New(p.reg, v, host, h); err == nil {
				out = append(out, candidate{mv, classRequiredToNonFinal})
			}
		}
	}

	for _, v := range guestsOnHost {
		if todo[v] || locked[v] {
			continue
		}
		for _, h := range hosts {
			if h == host {
				continue
			}
			if mv, err := migration.New(p.reg, v, host, h); err == nil {
				out = append(out, candidate{mv, classNotRequired})
			}
		}
	}
	return out
}

// displace tries to clear room on onBehalfOf.ToHost so onBehalfOf can
// proceed, by migrating another occupant of that host out of the way
// first (possibly recursively, for class-1 candidates).
func displace(p *Planner, path *migration.Path, current *placement.Snapshot, onBehalfOf migration.Migration, todo, locked map[string]bool, depth int) (segment []migration.Migration, nextState *placement.Snapshot, nextTodo, nextLocked map[string]bool, err error) {
	if depth > maxDisplacementDepth {
		return nil, nil, nil, nil, &PlannerInvariantError{Reason: "max displacement depth exceeded"}
	}

	u := onBehalfOf.Guest
	host := onBehalfOf.ToHost
	lockedWithU := withAdded(locked, u)

	for _, c := range candidates(p, path, current, todo, lockedWithU, host) {
		if c.migration.Guest == onBehalfOf.Guest && c.migration.ToHost == onBehalfOf.ToHost {
			return nil, nil, nil, nil, &PlannerInvariantError{Reason: "displacement candidate equals the migration it is meant to serve"}
		}

		var partial []migration.Migration
		var stateAfter *placement.Snapshot
		var todoAfter, lockedAfter map[string]bool
		var ok bool

		if c.class == classRequiredToFinal {
			var derr error
			partial, stateAfter, todoAfter, lockedAfter, derr = solveTo(p, path, current, c.migration, todo, lockedWithU, depth+1)
			if derr != nil {
				return nil, nil, nil, nil, derr
			}
			ok = partial != nil
		} else {
			partial, stateAfter, ok = solveSingle(current, c.migration, todo, path)
			if ok {
				todoAfter = updateTodo(todo, path, c.migration)
				lockedAfter = lockedWithU
			}
		}
		if !ok {
			continue
		}

		if final, err := stateAfter.TryMigrate(u, host); err == nil {
			finalTodo := updateTodo(todoAfter, path, onBehalfOf)
			return append(partial, onBehalfOf), final, finalTodo, lockedAfter, nil
		}

		lockedForRecurse := withAdded(lockedAfter, c.migration.Guest)
		subPartial, subState, subTodo, subLocked, suberr := displace(p, path, stateAfter, onBehalfOf, todoAfter, lockedForRecurse, depth+1)
		if suberr != nil {
			return nil, nil, nil, nil, suberr
		}
		if subPartial == nil {
			continue
		}
		return append(partial, subPartial...), subState, subTodo, subLocked, nil
	}

	return nil, nil, nil, nil, nil
}
