// Package placement implements the placement snapshot: a value-typed
// guest-to-host assignment, its feasibility predicate, and the
// deterministic string identity used for equality and caching.
package placement

import (
	"sort"
	"strings"

	"github.com/yourusername/migplan/internal/registry"
)

// Snapshot is an immutable assignment of every guest to exactly one
// host. Every derivation (AddGuest, RemoveGuest, Migrate, Shutdown,
// Provision) returns an independent copy; the receiver is never
// mutated. This makes snapshots safe to share across concurrent
// readers and across planner instances.
type Snapshot struct {
	reg          *registry.Registry
	guestToHost  map[string]string
	hostToGuests map[string]map[string]struct{}
}

// New returns an empty snapshot with no hosts or guests, resolving
// entity names against reg.
func New(reg *registry.Registry) *Snapshot {
	return &Snapshot{
		reg:          reg,
		guestToHost:  make(map[string]string),
		hostToGuests: make(map[string]map[string]struct{}),
	}
}

// FromPlacement builds a snapshot from a host name -> guest names
// mapping. A host with no guests yet must still appear as a key with
// an empty (possibly nil) slice so it is represented in the snapshot.
func FromPlacement(reg *registry.Registry, byHost map[string][]string) (*Snapshot, error) {
	s := New(reg)
	hosts := make([]string, 0, len(byHost))
	for host := range byHost {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)

	for _, host := range hosts {
		if _, ok := reg.Host(host); !ok {
			return nil, &UnknownHostError{Host: host}
		}
		s.hostToGuests[host] = make(map[string]struct{})
		for _, guest := range byHost[host] {
			if _, ok := reg.Guest(guest); !ok {
				return nil, &UnknownGuestError{Guest: guest}
			}
			next, err := s.AddGuest(guest, host)
			if err != nil {
				return nil, err
			}
			s = next
		}
	}
	return s, nil
}

// clone returns a deep, independent copy of s.
func (s *Snapshot) clone() *Snapshot {
	next := &Snapshot{
		reg:          s.reg,
		guestToHost:  make(map[string]string, len(s.guestToHost)),
		hostToGuests: make(map[string]map[string]struct{}, len(s.hostToGuests)),
	}
	for guest, host := range s.guestToHost {
		next.guestToHost[guest] = host
	}
	for host, guests := range s.hostToGuests {
		set := make(map[string]struct{}, len(guests))
		for guest := range guests {
			set[guest] = struct{}{}
		}
		next.hostToGuests[host] = set
	}
	return next
}

// Registry returns the entity registry this snapshot resolves names
// against.
func (s *Snapshot) Registry() *registry.Registry {
	return s.reg
}

// AddGuest returns a new snapshot with guest placed on host. It fails
// with *DuplicateGuestError if guest is already placed anywhere.
func (s *Snapshot) AddGuest(guest, host string) (*Snapshot, error) {
	if _, exists := s.guestToHost[guest]; exists {
		return nil, &DuplicateGuestError{Guest: guest}
	}
	next := s.clone()
	next.guestToHost[guest] = host
	if next.hostToGuests[host] == nil {
		next.hostToGuests[host] = make(map[string]struct{})
	}
	next.hostToGuests[host][guest] = struct{}{}
	return next, nil
}

// RemoveGuest returns a new snapshot with guest removed from its
// current host. It fails with *UnknownGuestError if guest is not
// placed.
func (s *Snapshot) RemoveGuest(guest string) (*Snapshot, error) {
	host, exists := s.guestToHost[guest]
	if !exists {
		return nil, &UnknownGuestError{Guest: guest}
	}
	next := s.clone()
	delete(next.guestToHost, guest)
	delete(next.hostToGuests[host], guest)
	return next, nil
}

// Migrate returns a new snapshot with guest moved to toHost. It does
// not check feasibility of the result. It fails with
// *UnknownHostError if toHost is not registered, or *SameHostError if
// guest is already on toHost.
func (s *Snapshot) Migrate(guest, toHost string) (*Snapshot, error) {
	if _, ok := s.reg.Host(toHost); !ok {
		return nil, &UnknownHostError{Host: toHost}
	}
	from, exists := s.guestToHost[guest]
	if !exists {
		return nil, &UnknownGuestError{Guest: guest}
	}
	if from == toHost {
		return nil, &SameHostError{Guest: guest, Host: toHost}
	}
	next := s.clone()
	delete(next.hostToGuests[from], guest)
	if next.hostToGuests[toHost] == nil {
		next.hostToGuests[toHost] = make(map[string]struct{})
	}
	next.hostToGuests[toHost][guest] = struct{}{}
	next.guestToHost[guest] = toHost
	return next, nil
}

// Shutdown returns a new snapshot with guest removed entirely.
func (s *Snapshot) Shutdown(guest string) (*Snapshot, error) {
	return s.RemoveGuest(guest)
}

// Provision returns a new snapshot with guest placed on host.
func (s *Snapshot) Provision(guest, host string) (*Snapshot, error) {
	return s.AddGuest(guest, host)
}

// TryMigrate returns the snapshot resulting from migrating guest to
// toHost only if that result is feasible; otherwise it returns the
// specific infeasibility reason without mutating anything.
func (s *Snapshot) TryMigrate(guest, toHost string) (*Snapshot, error) {
	next, err := s.Migrate(guest, toHost)
	if err != nil {
		return nil, err
	}
	if err := next.CheckFeasible(); err != nil {
		return nil, err
	}
	return next, nil
}

// Host returns the host a guest currently occupies.
func (s *Snapshot) Host(guest string) (string, bool) {
	host, ok := s.guestToHost[guest]
	return host, ok
}

// Guests returns every guest name present in the snapshot, sorted.
func (s *Snapshot) Guests() []string {
	guests := make([]string, 0, len(s.guestToHost))
	for guest := range s.guestToHost {
		guests = append(guests, guest)
	}
	sort.Strings(guests)
	return guests
}

// Hosts returns every host name present in the snapshot, sorted.
func (s *Snapshot) Hosts() []string {
	hosts := make([]string, 0, len(s.hostToGuests))
	for host := range s.hostToGuests {
		hosts = append(hosts, host)
	}
	sort.Strings(hosts)
	return hosts
}

// HasGuest reports whether guest is placed in the snapshot.
func (s *Snapshot) HasGuest(guest string) bool {
	_, ok := s.guestToHost[guest]
	return ok
}

// GuestsOn returns the guests currently placed on host, sorted.
func (s *Snapshot) GuestsOn(host string) []string {
	set := s.hostToGuests[host]
	guests := make([]string, 0, len(set))
	for guest := range set {
		guests = append(guests, guest)
	}
	sort.Strings(guests)
	return guests
}

// CheckFeasible checks every host's guest-RAM plus reserved RAM fits
// its total RAM, and every guest's architecture is hostable on its
// assigned host's architecture.
func (s *Snapshot) CheckFeasible() error {
	for _, host := range s.Hosts() {
		if err := s.checkHostFeasible(host); err != nil {
			return err
		}
	}
	return nil
}

func (s *Snapshot) checkHostFeasible(hostName string) error {
	host, ok := s.reg.Host(hostName)
	if !ok {
		return &UnknownHostError{Host: hostName}
	}

	guestRAM := 0
	for guest := range s.hostToGuests[hostName] {
		g, ok := s.reg.Guest(guest)
		if !ok {
			return &UnknownGuestError{Guest: guest}
		}
		guestRAM += g.RAM
	}
	if guestRAM+host.ReservedRAM > host.RAM {
		return newRamExceededError(hostName, guestRAM, host.ReservedRAM, host.RAM)
	}

	for guest := range s.hostToGuests[hostName] {
		g, _ := s.reg.Guest(guest)
		if !registry.CanHost(host.Arch, g.Arch) {
			return newArchIncompatibleError(hostName, host.Arch, guest, g.Arch)
		}
	}
	return nil
}

// CanonicalKey returns the deterministic string identity of the
// snapshot: hosts sorted, guests within each host sorted, joined as
// "host[g1 g2 ...]" segments separated by single spaces.
func (s *Snapshot) CanonicalKey() string {
	var parts []string
	for _, host := range s.Hosts() {
		guests := s.GuestsOn(host)
		parts = append(parts, host+"["+strings.Join(guests, " ")+"]")
	}
	return strings.Join(parts, " ")
}

// Equal reports whether s and other have identical host->guests
// partitions.
func (s *Snapshot) Equal(other *Snapshot) bool {
	if other == nil {
		return false
	}
	return s.CanonicalKey() == other.CanonicalKey()
}

func (s *Snapshot) String() string {
	return s.CanonicalKey()
}
