// Package fixtures loads named migration scenarios from YAML files
// and persists randomized soak-test scenarios to a SQLite regression
// corpus, the Go-native equivalent of original_source/testcases/fixed.py
// and src/soaktest.py's ad-hoc generation.
package fixtures

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/yourusername/migplan/internal/placement"
	"github.com/yourusername/migplan/internal/registry"
)

// HostDef describes one host entry in a scenario file.
type HostDef struct {
	Name        string `yaml:"name"`
	Arch        string `yaml:"arch"`
	RAM         int    `yaml:"ram"`
	ReservedRAM int    `yaml:"reserved_ram"`
}

// GuestDef describes one guest entry in a scenario file.
type GuestDef struct {
	Name string `yaml:"name"`
	Arch string `yaml:"arch"`
	RAM  int    `yaml:"ram"`
}

// Scenario is a named pool plus its initial and final placement, as
// loaded from a testdata/*.yaml file.
type Scenario struct {
	Name    string              `yaml:"name"`
	Hosts   []HostDef           `yaml:"hosts"`
	Guests  []GuestDef          `yaml:"guests"`
	Initial map[string][]string `yaml:"initial"`
	Final   map[string][]string `yaml:"final"`
}

// Load reads and parses a single scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixtures: reading %s: %w", path, err)
	}
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("fixtures: parsing %s: %w", path, err)
	}
	return &s, nil
}

// LoadDir reads every *.yaml file in dir, sorted by filename.
func LoadDir(dir string) ([]*Scenario, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("fixtures: reading dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".yaml" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	scenarios := make([]*Scenario, 0, len(names))
	for _, name := range names {
		s, err := Load(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}

// Build registers every guest and host in a fresh registry and
// constructs the initial and final placement snapshots.
func (s *Scenario) Build() (*registry.Registry, *placement.Snapshot, *placement.Snapshot, error) {
	reg := registry.New()
	for _, g := range s.Guests {
		if _, err := reg.NewGuest(g.Name, g.Arch, g.RAM); err != nil {
			return nil, nil, nil, fmt.Errorf("fixtures: %s: %w", s.Name, err)
		}
	}
	for _, h := range s.Hosts {
		reserved := h.ReservedRAM
		if reserved == 0 {
			reserved = registry.DefaultReservedRAM
		}
		if _, err := reg.NewHost(h.Name, h.Arch, h.RAM, reserved); err != nil {
			return nil, nil, nil, fmt.Errorf("fixtures: %s: %w", s.Name, err)
		}
	}

	initial, err := placement.FromPlacement(reg, s.Initial)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fixtures: %s: initial placement: %w", s.Name, err)
	}
	final, err := placement.FromPlacement(reg, s.Final)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("fixtures: %s: final placement: %w", s.Name, err)
	}
	return reg, initial, final, nil
}
