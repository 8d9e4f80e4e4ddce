package planner

import (
	"github.com/yourusername/migplan/internal/migration"
	"github.com/yourusername/migplan/internal/placement"
	"github.com/yourusername/migplan/internal/vodict"
)

// ShortestPathPlanner is the reference alternative strategy: Dijkstra
// over the implicit graph whose nodes are feasible placements and
// whose edges are single feasible migrations weighted by guest RAM.
// It is exhaustive (always finds a plan if one exists) but
// exponential, tractable only on small pools; the displacement
// planner trades that completeness for tractable runtime.
type ShortestPathPlanner struct{}

func (ShortestPathPlanner) run(p *Planner, path *migration.Path) ([]migration.Migration, error) {
	start := path.StateAfterShutdowns
	goal := path.StateBeforeProvisions
	startKey := start.CanonicalKey()
	goalKey := goal.CanonicalKey()
	if startKey == goalKey {
		return []migration.Migration{}, nil
	}

	migrateSet := make(map[string]bool, len(path.GuestsToMigrate))
	for _, g := range path.GuestsToMigrate {
		migrateSet[g] = true
	}

	frontier := vodict.New()
	if err := frontier.Insert(startKey, 0); err != nil {
		return nil, err
	}

	p.cachePut(start)
	dist := map[string]int{startKey: 0}
	prevKey := map[string]string{}
	prevEdge := map[string]migration.Migration{}
	closed := map[string]bool{}

	for frontier.Len() > 0 {
		key, d, err := frontier.PopFront()
		if err != nil {
			return nil, err
		}
		if closed[key] {
			continue
		}
		closed[key] = true

		if key == goalKey {
			return reconstructSequence(prevKey, prevEdge, goalKey), nil
		}

		current, _ := p.cacheGet(key)
		for _, m := range neighbourEdges(p, current, migrateSet) {
			next, err := current.TryMigrate(m.Guest, m.ToHost)
			if err != nil {
				continue
			}
			nk := next.CanonicalKey()
			if closed[nk] {
				continue
			}
			nd := d + m.Cost()
			if existing, ok := dist[nk]; ok && nd >= existing {
				continue
			}
			dist[nk] = nd
			p.cachePut(next)
			prevKey[nk] = key
			prevEdge[nk] = m
			if frontier.Contains(nk) {
				frontier.Set(nk, nd)
			} else if err := frontier.Insert(nk, nd); err != nil {
				return nil, err
			}
		}
	}
	return nil, nil
}

// neighbourEdges enumerates every single-guest migration reachable
// from current, guests already required to migrate first (ported
// from explore_neighbours' moved_vms + unmoved_vms ordering), each
// group and each host in canonical sorted order.
func neighbourEdges(p *Planner, current *placement.Snapshot, migrateSet map[string]bool) []migration.Migration {
	guests := current.Guests()
	ordered := make([]string, 0, len(guests))
	for _, g := range guests {
		if migrateSet[g] {
			ordered = append(ordered, g)
		}
	}
	for _, g := range guests {
		if !migrateSet[g] {
			ordered = append(ordered, g)
		}
	}

	hosts := current.Hosts()
	var edges []migration.Migration
	for _, g := range ordered {
		from, _ := current.Host(g)
		for _, h := range hosts {
			if h == from {
				continue
			}
			if m, err := migration.New(p.reg, g, from, h); err == nil {
				edges = append(edges, m)
			}
		}
	}
	return edges
}

func reconstructSequence(prevKey map[string]string, prevEdge map[string]migration.Migration, goalKey string) []migration.Migration {
	var reversed []migration.Migration
	key := goalKey
	for {
		edge, ok := prevEdge[key]
		if !ok {
			break
		}
		reversed = append(reversed, edge)
		key = prevKey[key]
	}
	seq := make([]migration.Migration, len(reversed))
	for i, m := range reversed {
		seq[len(reversed)-1-i] = m
	}
	return seq
}
