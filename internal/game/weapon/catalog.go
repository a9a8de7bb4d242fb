package weapon

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lookup resolves weapon metadata by name.
type Lookup interface {
	Get(name string) (*Descriptor, error)
}

// Catalog holds weapon Descriptors keyed by name. It is read-only after
// loading and safe for concurrent use.
type Catalog struct {
	byName map[string]*Descriptor
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{byName: make(map[string]*Descriptor)}
}

// Register adds d, replacing any weapon of the same name.
//
// Precondition: d must be non-nil and valid.
func (c *Catalog) Register(d *Descriptor) {
	c.byName[d.Name] = d
}

// Get returns the weapon named name.
//
// Postcondition: Returns a Descriptor or an error wrapping ErrNotFound.
func (c *Catalog) Get(name string) (*Descriptor, error) {
	d, ok := c.byName[name]
	if !ok {
		return nil, fmt.Errorf("weapon %q: %w", name, ErrNotFound)
	}
	return d, nil
}

// All returns every weapon sorted by name.
func (c *Catalog) All() []*Descriptor {
	out := make([]*Descriptor, 0, len(c.byName))
	for _, d := range c.byName {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LoadDirectory reads every *.yaml file in dir as a Descriptor.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Catalog, or an error if any file fails to
// parse, compile or validate.
func LoadDirectory(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading weapon dir %q: %w", dir, err)
	}
	cat := NewCatalog()
	for _, e := range entries {
		if e.IsDir() || !(strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}
		var d Descriptor
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&d); err != nil {
			return nil, fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("validating %q: %w", path, err)
		}
		cat.Register(&d)
	}
	return cat, nil
}
