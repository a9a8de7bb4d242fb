package artifact

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dmgcalc/internal/game/attr"
	"github.com/cory-johannsen/dmgcalc/internal/game/rules"
)

// Set is the static description of an artifact set.
type Set struct {
	Name string `yaml:"name"`
	// Elem restricts the static bonuses to builds of that element.
	Elem string             `yaml:"elem"`
	Two  map[string]float64 `yaml:"two"`
	Four map[string]float64 `yaml:"four"`
	// Buffs are four piece conditional bonuses.
	Buffs rules.BuffList `yaml:"buffs"`
}

// Validate checks the set invariants.
func (s *Set) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("artifact set name must not be empty")
	}
	scratch := attr.New()
	for _, m := range []map[string]float64{s.Two, s.Four} {
		for k := range m {
			if !scratch.Apply(k, 0) {
				return fmt.Errorf("artifact set %q: unknown bonus key %q", s.Name, k)
			}
		}
	}
	return nil
}

// Bonuses returns the static modifiers active with count pieces equipped by a
// build of element elem, sorted by key.
func (s *Set) Bonuses(count int, elem string) []attr.Modifier {
	if s.Elem != "" && s.Elem != elem {
		return nil
	}
	var out []attr.Modifier
	if count >= 2 {
		out = append(out, sortedModifiers(s.Two)...)
	}
	if count >= 4 {
		out = append(out, sortedModifiers(s.Four)...)
	}
	return out
}

func sortedModifiers(m map[string]float64) []attr.Modifier {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]attr.Modifier, 0, len(keys))
	for _, k := range keys {
		out = append(out, attr.Modifier{Key: k, Value: m[k]})
	}
	return out
}

// SetCatalog holds artifact sets keyed by name. It is read-only after loading.
type SetCatalog struct {
	sets map[string]*Set
}

// NewSetCatalog creates an empty SetCatalog.
func NewSetCatalog() *SetCatalog {
	return &SetCatalog{sets: make(map[string]*Set)}
}

// Register adds s, replacing any set with the same name.
func (c *SetCatalog) Register(s *Set) {
	c.sets[s.Name] = s
}

// Get returns the set named name, or (nil, false).
func (c *SetCatalog) Get(name string) (*Set, bool) {
	s, ok := c.sets[name]
	return s, ok
}

// Len returns the number of registered sets.
func (c *SetCatalog) Len() int {
	return len(c.sets)
}

// LoadDirectory reads every *.yaml file in dir as a Set.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil SetCatalog, or an error if any file fails
// to parse or validate.
func LoadDirectory(dir string) (*SetCatalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading artifact dir %q: %w", dir, err)
	}
	cat := NewSetCatalog()
	for _, e := range entries {
		if e.IsDir() || !(strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var s Set
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		cat.Register(&s)
	}
	return cat, nil
}
