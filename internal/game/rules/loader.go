package rules

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// buffDoc is the YAML form of a BuffSpec. Data keeps its node so entries are
// compiled in document order.
type buffDoc struct {
	Title string    `yaml:"title"`
	Cons  int       `yaml:"cons"`
	Check string    `yaml:"check"`
	Data  yaml.Node `yaml:"data"`
}

type detailDoc struct {
	Title  string             `yaml:"title"`
	Params map[string]float64 `yaml:"params"`
	Dmg    string             `yaml:"dmg"`
}

type moduleDoc struct {
	Name          string             `yaml:"name"`
	EnemyName     string             `yaml:"enemy_name"`
	MainAttr      []string           `yaml:"main_attr"`
	DefaultParams map[string]float64 `yaml:"default_params"`
	DefaultDetail int                `yaml:"default_detail"`
	Details       []detailDoc        `yaml:"details"`
	Buffs         []buffDoc          `yaml:"buffs"`
}

// BuffList is a YAML-decodable list of buffs. Weapon and artifact catalogs
// embed it to share the buff schema of rule modules.
type BuffList []*BuffSpec

// UnmarshalYAML compiles a sequence of buff documents.
func (b *BuffList) UnmarshalYAML(value *yaml.Node) error {
	var docs []buffDoc
	if err := value.Decode(&docs); err != nil {
		return err
	}
	out := make(BuffList, 0, len(docs))
	for i, d := range docs {
		spec, err := compileBuff(fmt.Sprintf("buff[%d]", i), d)
		if err != nil {
			return err
		}
		out = append(out, spec)
	}
	*b = out
	return nil
}

// WithSource returns a copy of the list with every buff labelled source.
func (b BuffList) WithSource(source string) []*BuffSpec {
	out := make([]*BuffSpec, len(b))
	for i, spec := range b {
		c := *spec
		c.Source = source
		out[i] = &c
	}
	return out
}

func compileBuff(name string, d buffDoc) (*BuffSpec, error) {
	if d.Title != "" {
		name = d.Title
	}
	spec := &BuffSpec{Title: d.Title, MinCons: d.Cons}
	if strings.TrimSpace(d.Check) != "" {
		proto, err := compileSnippet(name+"#check", d.Check)
		if err != nil {
			return nil, err
		}
		spec.Check = luaPredicate(proto)
	}
	if d.Data.Kind == 0 {
		return spec, nil
	}
	if d.Data.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%s: data must be a mapping: %w", name, ErrInvalidRuleModule)
	}
	for i := 0; i+1 < len(d.Data.Content); i += 2 {
		key := d.Data.Content[i].Value
		rule, err := compileValue(name+"#"+key, d.Data.Content[i+1])
		if err != nil {
			return nil, err
		}
		spec.Data = append(spec.Data, Modifier{Key: key, Rule: rule})
	}
	return spec, nil
}

// compileValue turns a numeric scalar into a Literal and anything else into a
// Lua-backed Computed rule.
func compileValue(name string, n *yaml.Node) (NumericRule, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("%s: value must be a scalar: %w", name, ErrInvalidRuleModule)
	}
	if n.Tag == "!!int" || n.Tag == "!!float" {
		var v float64
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("%s: %w: %v", name, ErrInvalidRuleModule, err)
		}
		return Literal(v), nil
	}
	proto, err := compileSnippet(name, n.Value)
	if err != nil {
		return nil, err
	}
	return luaComputed(proto), nil
}

// compile turns a parsed module document into a validated Module.
func (d moduleDoc) compile() (*Module, error) {
	m := &Module{
		Name:               d.Name,
		EnemyName:          d.EnemyName,
		MainAttr:           d.MainAttr,
		DefaultParams:      Params(d.DefaultParams),
		DefaultDetailIndex: d.DefaultDetail,
	}
	for i, dd := range d.Details {
		name := fmt.Sprintf("%s/detail[%d]", d.Name, i)
		if strings.TrimSpace(dd.Dmg) == "" {
			return nil, fmt.Errorf("%s %q: dmg formula missing: %w", name, dd.Title, ErrInvalidRuleModule)
		}
		proto, err := compileSnippet(name, dd.Dmg)
		if err != nil {
			return nil, err
		}
		m.Details = append(m.Details, &DetailSpec{
			Title:  dd.Title,
			Params: Params(dd.Params),
			Dmg:    luaDamage(proto),
		})
	}
	for i, bd := range d.Buffs {
		spec, err := compileBuff(fmt.Sprintf("%s/buff[%d]", d.Name, i), bd)
		if err != nil {
			return nil, err
		}
		spec.Source = "character"
		m.Buffs = append(m.Buffs, spec)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Parse decodes and compiles one rule module document.
//
// Postcondition: Returns a valid Module or an error wrapping
// ErrInvalidRuleModule for malformed content.
func Parse(data []byte) (*Module, error) {
	var doc moduleDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRuleModule, err)
	}
	return doc.compile()
}

// LoadDirectory reads every *.yaml file in dir, compiles each as a Module,
// and returns a Registry of the modules that loaded.
//
// A malformed file only disables its own character: its failure is collected
// and the remaining files still load.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns a nil Registry only when dir cannot be read.
// Otherwise returns a non-nil Registry and the joined per-file failures, each
// wrapping ErrInvalidRuleModule, or nil when every file loaded.
func LoadDirectory(dir string) (*Registry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading rules dir %q: %w", dir, err)
	}
	reg := NewRegistry()
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !(strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := loadFile(reg, path); err != nil {
			errs = append(errs, err)
		}
	}
	return reg, errors.Join(errs...)
}

func loadFile(reg *Registry, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %q: %w: %w", path, ErrInvalidRuleModule, err)
	}
	m, err := Parse(data)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", path, err)
	}
	if err := reg.Register(m); err != nil {
		return fmt.Errorf("registering %q: %w", path, err)
	}
	return nil
}
