package migration

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yourusername/migplan/internal/placement"
)

// Path holds the initial and final placement snapshots, the derived
// work lists, the two boundary snapshots the planner actually
// searches between, and (once a strategy has run) the ordered
// migration sequence and its cumulative cost.
type Path struct {
	Initial *placement.Snapshot
	Final   *placement.Snapshot

	GuestsToShutdown  []string          // sorted
	GuestsToMigrate   []string          // sorted
	GuestsToProvision map[string]string // guest -> target host

	StateAfterShutdowns   *placement.Snapshot
	StateBeforeProvisions *placement.Snapshot

	Sequence []Migration
	Cost     int
}

// ComparePlacements derives the three work lists from a pair of
// endpoint snapshots, ported from compare_endpoints: guests present
// only in initial must shut down, guests present only in final must
// be provisioned (with their target host recorded), and guests
// present in both whose host differs must migrate.
func ComparePlacements(initial, final *placement.Snapshot) (toShutdown, toMigrate []string, toProvision map[string]string) {
	toProvision = make(map[string]string)

	for _, guest := range initial.Guests() {
		if !final.HasGuest(guest) {
			toShutdown = append(toShutdown, guest)
			continue
		}
		fromHost, _ := initial.Host(guest)
		toHost, _ := final.Host(guest)
		if fromHost != toHost {
			toMigrate = append(toMigrate, guest)
		}
	}
	for _, guest := range final.Guests() {
		if !initial.HasGuest(guest) {
			toHost, _ := final.Host(guest)
			toProvision[guest] = toHost
		}
	}

	sort.Strings(toShutdown)
	sort.Strings(toMigrate)
	return toShutdown, toMigrate, toProvision
}

// NewPath validates that both endpoints are feasible, derives the
// work lists, and builds the boundary snapshots the planner searches
// between. It fails with an error describing the infeasible endpoint
// if either snapshot is infeasible (surfaced by the planner framework
// as InvalidEndpoint).
func NewPath(initial, final *placement.Snapshot) (*Path, error) {
	if err := initial.CheckFeasible(); err != nil {
		return nil, fmt.Errorf("initial placement infeasible: %w", err)
	}
	if err := final.CheckFeasible(); err != nil {
		return nil, fmt.Errorf("final placement infeasible: %w", err)
	}

	toShutdown, toMigrate, toProvision := ComparePlacements(initial, final)

	afterShutdowns := initial
	for _, guest := range toShutdown {
		next, err := afterShutdowns.Shutdown(guest)
		if err != nil {
			return nil, fmt.Errorf("deriving state_after_shutdowns: %w", err)
		}
		afterShutdowns = next
	}

	beforeProvisions := final
	provisionGuests := make([]string, 0, len(toProvision))
	for guest := range toProvision {
		provisionGuests = append(provisionGuests, guest)
	}
	sort.Strings(provisionGuests)
	for _, guest := range provisionGuests {
		next, err := beforeProvisions.Shutdown(guest)
		if err != nil {
			return nil, fmt.Errorf("deriving state_before_provisions: %w", err)
		}
		beforeProvisions = next
	}

	return &Path{
		Initial:               initial,
		Final:                 final,
		GuestsToShutdown:      toShutdown,
		GuestsToMigrate:       toMigrate,
		GuestsToProvision:     toProvision,
		StateAfterShutdowns:   afterShutdowns,
		StateBeforeProvisions: beforeProvisions,
	}, nil
}

// TargetHost returns the guest's host in the final placement.
func (p *Path) TargetHost(guest string) (string, bool) {
	return p.Final.Host(guest)
}

// SetSequence attaches the strategy's migration sequence and
// computes the cumulative cost.
func (p *Path) SetSequence(sequence []Migration) {
	p.Sequence = sequence
	cost := 0
	for _, m := range sequence {
		cost += m.Cost()
	}
	p.Cost = cost
}

// ProvisionGuests returns the guests to provision sorted by name.
func (p *Path) ProvisionGuests() []string {
	guests := make([]string, 0, len(p.GuestsToProvision))
	for guest := range p.GuestsToProvision {
		guests = append(guests, guest)
	}
	sort.Strings(guests)
	return guests
}

// Dump renders the stable, line-oriented textual path format: a
// shutdown line, one "!" line per migration, and a provision line,
// each newline-terminated.
func (p *Path) Dump() string {
	var b strings.Builder
	fmt.Fprintf(&b, "shutdown: %s\n", strings.Join(p.GuestsToShutdown, ", "))
	for _, m := range p.Sequence {
		fmt.Fprintf(&b, "! %s\n", m.String())
	}
	fmt.Fprintf(&b, "provision: %s\n", strings.Join(p.ProvisionGuests(), ", "))
	return b.String()
}

// Equal compares two paths by their dump strings, as VMPoolPath.__eq__
// does.
func (p *Path) Equal(other *Path) bool {
	if other == nil {
		return false
	}
	return p.Dump() == other.Dump()
}

// Walk yields every intermediate snapshot reached while applying the
// migration sequence in order, starting at StateAfterShutdowns and
// ending at StateBeforeProvisions. It stops early if yield returns
// false.
func (p *Path) Walk(yield func(*placement.Snapshot) bool) error {
	current := p.StateAfterShutdowns
	if !yield(current) {
		return nil
	}
	for _, m := range p.Sequence {
		next, err := current.Migrate(m.Guest, m.ToHost)
		if err != nil {
			return fmt.Errorf("walk: replaying %s: %w", m, err)
		}
		current = next
		if !yield(current) {
			return nil
		}
	}
	return nil
}
