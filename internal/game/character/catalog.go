package character

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Query identifies a character; Elem disambiguates variants sharing an ID.
type Query struct {
	ID   int
	Elem string
}

// Lookup resolves character metadata.
type Lookup interface {
	Get(q Query) (*Descriptor, error)
}

// Catalog holds all known Descriptors keyed by ID and by name.
// It is read-only after loading and safe for concurrent use.
type Catalog struct {
	byID   map[int][]*Descriptor
	byName map[string]*Descriptor
}

// NewCatalog creates an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		byID:   make(map[int][]*Descriptor),
		byName: make(map[string]*Descriptor),
	}
}

// Register adds d to the catalog. Variants with the same ID and a different
// element are kept side by side; the first registered variant is the default.
//
// Precondition: d must be non-nil and valid.
func (c *Catalog) Register(d *Descriptor) {
	variants := c.byID[d.ID]
	for i, v := range variants {
		if v.Elem == d.Elem {
			variants[i] = d
			c.byName[d.Name] = d
			return
		}
	}
	c.byID[d.ID] = append(variants, d)
	if _, ok := c.byName[d.Name]; !ok {
		c.byName[d.Name] = d
	}
}

// Get resolves q to a Descriptor.
//
// Postcondition: Returns a Descriptor or an error wrapping ErrNotFound.
func (c *Catalog) Get(q Query) (*Descriptor, error) {
	variants := c.byID[q.ID]
	if len(variants) == 0 {
		return nil, fmt.Errorf("id %d: %w", q.ID, ErrNotFound)
	}
	if q.Elem != "" {
		for _, v := range variants {
			if v.Elem == q.Elem {
				return v, nil
			}
		}
	}
	return variants[0], nil
}

// GetByName returns the default Descriptor registered under name.
func (c *Catalog) GetByName(name string) (*Descriptor, bool) {
	d, ok := c.byName[name]
	return d, ok
}

// All returns every registered Descriptor ordered by ID then element.
func (c *Catalog) All() []*Descriptor {
	var out []*Descriptor
	for _, vs := range c.byID {
		out = append(out, vs...)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ID != out[j].ID {
			return out[i].ID < out[j].ID
		}
		return out[i].Elem < out[j].Elem
	})
	return out
}

// LoadDirectory reads every *.yaml file in dir, parses each as a Descriptor,
// and returns a populated Catalog.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a non-nil Catalog, or an error if any file fails to
// parse or validate.
func LoadDirectory(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading character dir %q: %w", dir, err)
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
