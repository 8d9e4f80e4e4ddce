package planner

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"testing"
	"time"

	"github.com/yourusername/migplan/internal/fixtures"
	"github.com/yourusername/migplan/internal/placement"
	"github.com/yourusername/migplan/internal/registry"
)

// soakAbortThreshold bounds how long a single randomized scenario may
// take either planner to resolve, ported from soaktest.py's 3.0
// second abort threshold.
const soakAbortThreshold = 3 * time.Second

// randomlyPopulateHosts fills each host with random guests until the
// next guest wouldn't fit, ported from testcases/random.py's
// randomly_populate_hosts.
func randomlyPopulateHosts(rng *rand.Rand, reg *registry.Registry, hosts []registry.Host, minRAM, maxRAM int) map[string][]string {
	placementMap := make(map[string][]string, len(hosts))
	n := 0
	for _, host := range hosts {
		placementMap[host.Name] = nil
		free := host.RAM - host.ReservedRAM
		for {
			ram := minRAM + rng.Intn(maxRAM-minRAM+1)
			if ram > free {
				break
			}
			n++
			name := fmt.Sprintf("soakvm%03d", n)
			if _, err := reg.NewGuest(name, "x86_64", ram); err != nil {
				break
			}
			placementMap[host.Name] = append(placementMap[host.Name], name)
			free -= ram
		}
	}
	return placementMap
}

// randomlyShuffle repeatedly tries to move a random guest to a random
// different host, keeping only feasible moves, ported from
// testcases/random.py's randomly_shuffle.
func randomlyShuffle(rng *rand.Rand, reg *registry.Registry, start *placement.Snapshot, attempts int) *placement.Snapshot {
	current := start
	guests := current.Guests()
	if len(guests) == 0 {
		return current
	}
	hosts := current.Hosts()
	if len(hosts) < 2 {
		return current
	}

	for i := 0; i < attempts; i++ {
		guest := guests[rng.Intn(len(guests))]
		order := rng.Perm(len(hosts))
		for _, idx := range order {
			host := hosts[idx]
			if from, _ := current.Host(guest); from == host {
				continue
			}
			if next, err := current.TryMigrate(guest, host); err == nil {
				current = next
				break
			}
		}
	}
	return current
}

func runOneSoakScenario(t *testing.T, rng *rand.Rand, iteration int) {
	t.Helper()

	reg := registry.New()
	var hosts []registry.Host
	for i := 0; i < 5; i++ {
		h, err := reg.NewHost(fmt.Sprintf("soakhost%d", i+1), "x86_64", 4096, registry.DefaultReservedRAM)
		if err != nil {
			t.Fatalf("iteration %d: registering host: %v", iteration, err)
		}
		hosts = append(hosts, h)
	}

	byHost := randomlyPopulateHosts(rng, reg, hosts, 128, 1024)
	initial, err := placement.FromPlacement(reg, byHost)
	if err != nil {
		t.Fatalf("iteration %d: building initial placement: %v", iteration, err)
	}
	final := randomlyShuffle(rng, reg, initial, 40)

	for _, strategy := range []Strategy{DisplacementPlanner{}, ShortestPathPlanner{}} {
		p := New(reg, initial, final, strategy)
		start := time.Now()
		path, err := p.FindPath()
		elapsed := time.Since(start)

		scenario := soakScenarioFixture(reg, byHost, final)

		if err != nil {
			persistSoakFailure(t, scenario, fmt.Sprintf("error: %v", err), p.Debug())
			t.Fatalf("iteration %d, %T: unexpected error: %v\ndebug log:\n%s", iteration, strategy, err, p.Debug())
		}
		if elapsed > soakAbortThreshold {
			persistSoakFailure(t, scenario, "timeout", p.Debug())
			t.Fatalf("iteration %d, %T: exceeded abort threshold: %s", iteration, strategy, elapsed)
		}
		if path == nil {
			continue // no plan found is an acceptable outcome for either strategy
		}
		assertValidPlan(t, path)
	}
}

func soakScenarioFixture(reg *registry.Registry, byHost map[string][]string, final *placement.Snapshot) *fixtures.Scenario {
	s := &fixtures.Scenario{Name: "soak", Initial: byHost}
	s.Final = make(map[string][]string)
	for _, host := range final.Hosts() {
		s.Final[host] = final.GuestsOn(host)
	}
	for _, guest := range final.Guests() {
		g, _ := reg.Guest(guest)
		s.Guests = append(s.Guests, fixtures.GuestDef{Name: g.Name, Arch: g.Arch, RAM: g.RAM})
	}
	for host := range byHost {
		h, _ := reg.Host(host)
		s.Hosts = append(s.Hosts, fixtures.HostDef{Name: h.Name, Arch: h.Arch, RAM: h.RAM, ReservedRAM: h.ReservedRAM})
	}
	return s
}

func persistSoakFailure(t *testing.T, scenario *fixtures.Scenario, outcome, dump string) {
	t.Helper()
	corpus, err := fixtures.OpenCorpus(filepath.Join(t.TempDir(), "soak_failures.db"))
	if err != nil {
		t.Logf("could not open regression corpus: %v", err)
		return
	}
	defer corpus.Close()
	if err := corpus.Record(scenario, outcome, dump); err != nil {
		t.Logf("could not persist soak failure: %v", err)
	}
}

func TestSoakRandomizedScenarios(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping soak test in -short mode")
	}
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		runOneSoakScenario(t, rng, i)
	}
}
