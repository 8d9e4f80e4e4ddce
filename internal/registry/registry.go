// Package registry holds the process-wide entity model: immutable
// Guest and Host descriptors, name-keyed registries, and the fixed
// guest/host architecture compatibility matrix.
package registry

import "fmt"

// Guest describes an immutable virtual machine: a name, an
// architecture tag, and its required RAM in megabytes.
type Guest struct {
	Name string
	Arch string
	RAM  int
}

// Host describes an immutable physical machine: a name, an
// architecture tag, its total RAM, and the RAM reserved for the
// hypervisor/dom0.
type Host struct {
	Name        string
	Arch        string
	RAM         int
	ReservedRAM int
}

// DefaultReservedRAM is the RAM set aside for the hypervisor/dom0 on
// a host when none is specified explicitly.
const DefaultReservedRAM = 256

// archCompat is hard-coded policy, not configuration: it declares
// which guest architectures a given host architecture may run.
var archCompat = map[string]map[string]bool{
	"i386":   {"i386": true},
	"x86_64": {"i386": true, "x86_64": true},
}

// CanHost reports whether a guest of the given architecture may run
// on a host of the given architecture.
func CanHost(hostArch, guestArch string) bool {
	allowed, ok := archCompat[hostArch]
	if !ok {
		return false
	}
	return allowed[guestArch]
}

// Registry is a process-wide, name-keyed set of Guest and Host
// descriptors. It is written only during setup and is safe to read
// concurrently thereafter.
type Registry struct {
	guests map[string]Guest
	hosts  map[string]Host
}

// global is the default process-wide registry used by the package
// level NewGuest/NewHost/Reset helpers.
var global = New()

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		guests: make(map[string]Guest),
		hosts:  make(map[string]Host),
	}
}

// NewGuest registers a guest in the process-wide registry.
func NewGuest(name, arch string, ram int) (Guest, error) {
	return global.NewGuest(name, arch, ram)
}

// NewHost registers a host in the process-wide registry with the
// default reserved RAM.
func NewHost(name, arch string, ram int) (Host, error) {
	return global.NewHost(name, arch, ram, DefaultReservedRAM)
}

// NewHostReserved registers a host in the process-wide registry with
// an explicit reserved RAM.
func NewHostReserved(name, arch string, ram, reservedRAM int) (Host, error) {
	return global.NewHost(name, arch, ram, reservedRAM)
}

// LookupGuest looks up a guest by name in the process-wide registry.
func LookupGuest(name string) (Guest, bool) {
	return global.Guest(name)
}

// LookupHost looks up a host by name in the process-wide registry.
func LookupHost(name string) (Host, bool) {
	return global.Host(name)
}

// Reset clears the process-wide registry. Intended for test
// isolation between scenarios.
func Reset() {
	global = New()
}

// Global returns the process-wide registry.
func Global() *Registry {
	return global
}

// NewGuest registers a guest descriptor under r, keyed by name.
func (r *Registry) NewGuest(name, arch string, ram int) (Guest, error) {
	if _, exists := r.guests[name]; exists {
		return Guest{}, fmt.Errorf("registry: guest %q already registered", name)
	}
	g := Guest{Name: name, Arch: arch, RAM: ram}
	r.guests[name] = g
	return g, nil
}

// NewHost registers a host descriptor under r, keyed by name.
func (r *Registry) NewHost(name, arch string, ram, reservedRAM int) (Host, error) {
	if _, exists := r.hosts[name]; exists {
		return Host{}, fmt.Errorf("registry: host %q already registered", name)
	}
	h := Host{Name: name, Arch: arch, RAM: ram, ReservedRAM: reservedRAM}
	r.hosts[name] = h
	return h, nil
}

// Guest looks up a guest by name.
func (r *Registry) Guest(name string) (Guest, bool) {
	g, ok := r.guests[name]
	return g, ok
}

// Host looks up a host by name.
func (r *Registry) Host(name string) (Host, bool) {
	h, ok := r.hosts[name]
	return h, ok
}
