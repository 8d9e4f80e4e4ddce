// Package planner implements the planner framework plus the two
// concrete strategies: the recursive displacement planner and the
// Dijkstra shortest-path planner.
package planner

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/migplan/internal/migration"
	"github.com/yourusername/migplan/internal/placement"
	"github.com/yourusername/migplan/internal/registry"
)

// Strategy is implemented by each search algorithm. run receives the
// framework-built path shell (boundary snapshots and work lists
// already computed) and returns the migration sequence to get from
// StateAfterShutdowns to StateBeforeProvisions, or a nil sequence
// with a nil error to signal "no plan found".
type Strategy interface {
	run(p *Planner, path *migration.Path) ([]migration.Migration, error)
}

// Planner validates a pair of endpoint snapshots, builds the path
// shell, and delegates the core search to a Strategy. A Planner
// instance is single-shot: FindPath may be called exactly once.
type Planner struct {
	reg      *registry.Registry
	initial  *placement.Snapshot
	final    *placement.Snapshot
	strategy Strategy

	used    bool
	runID   uuid.UUID
	debug   strings.Builder
	started time.Time
	ended   time.Time

	// cache deduplicates snapshot instances by canonical key; used by
	// ShortestPathPlanner to avoid revisiting placements already seen.
	cache map[string]*placement.Snapshot
}

// New builds a planner over reg that will search from initial to
// final using strategy.
func New(reg *registry.Registry, initial, final *placement.Snapshot, strategy Strategy) *Planner {
	return &Planner{
		reg:      reg,
		initial:  initial,
		final:    final,
		strategy: strategy,
		cache:    make(map[string]*placement.Snapshot),
	}
}

// FindPath runs the planner once. It returns (path, nil) on success,
// (nil, nil) if no plan was found, or (nil, err) for InvalidEndpoint
// or PlannerInvariant failures.
func (p *Planner) FindPath() (*migration.Path, error) {
	if p.used {
		return nil, &ReusedPlannerError{}
	}
	p.used = true
	p.runID = uuid.New()
	p.started = time.Now()
	p.logf("run %s: starting planner %T", p.runID, p.strategy)

	path, err := migration.NewPath(p.initial, p.final)
	if err != nil {
		p.logf("run %s: invalid endpoint: %v", p.runID, err)
		return nil, &InvalidEndpointError{Reason: err}
	}

	seq, err := p.strategy.run(p, path)
	p.ended = time.Now()
	if err != nil {
		p.logf("run %s: failed: %v", p.runID, err)
		if invariant, ok := err.(*PlannerInvariantError); ok {
			invariant.Debug = p.debug.String()
		}
		return nil, err
	}
	if seq == nil {
		p.logf("run %s: no plan found", p.runID)
		return nil, nil
	}

	path.SetSequence(seq)
	p.logf("run %s: found plan, %d migrations, cost %d, elapsed %s", p.runID, len(seq), path.Cost, p.ElapsedTime())
	return path, nil
}

// ElapsedTime returns the duration since run() began. Before the run
// completes it is measured against the current time.
func (p *Planner) ElapsedTime() time.Duration {
	if p.started.IsZero() {
		return 0
	}
	if p.ended.IsZero() {
		return time.Since(p.started)
	}
	return p.ended.Sub(p.started)
}

// Debug returns the accumulated debug log for this run, regardless of
// outcome.
func (p *Planner) Debug() string {
	return p.debug.String()
}

// RunID returns the UUID correlating this run's debug log entries.
func (p *Planner) RunID() uuid.UUID {
	return p.runID
}

func (p *Planner) logf(format string, args ...interface{}) {
	line := fmt.Sprintf(format, args...)
	p.debug.WriteString(line)
	p.debug.WriteByte('\n')
	log.Print(line)
}

// cacheGet returns the canonical snapshot instance for key, if one has
// already been seen during this run.
func (p *Planner) cacheGet(key string) (*placement.Snapshot, bool) {
	s, ok := p.cache[key]
	return s, ok
}

// cachePut registers s under its own canonical key, returning the
// canonical instance (s itself, the first time a given key is seen).
func (p *Planner) cachePut(s *placement.Snapshot) *placement.Snapshot {
	key := s.CanonicalKey()
	if existing, ok := p.cache[key]; ok {
		return existing
	}
	p.cache[key] = s
	return s
}
