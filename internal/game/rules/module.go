// Package rules defines the data contract of per-character rule modules
// (buffs and damage details), the evaluation context they run against, and
// the YAML/Lua loader that turns content files into modules.
//
// Modules are read-only after loading and shared between evaluations; all
// per-evaluation state lives in a Context.
package rules

import (
	"errors"
	"fmt"
	"maps"
)

var (
	// ErrInvalidScenario is returned for a bad detail index or scenario.
	ErrInvalidScenario = errors.New("invalid scenario")
	// ErrMissingTalent is returned when a formula references talent data the
	// build does not carry. Other details of the same module remain usable.
	ErrMissingTalent = errors.New("missing talent")
	// ErrInvalidRuleModule is returned when a rule module is malformed or a
	// formula faults at runtime.
	ErrInvalidRuleModule = errors.New("invalid rule module")
	// ErrUnsupported is returned when no rule module exists for a character.
	ErrUnsupported = errors.New("no damage rules for character")
)

// NumericRule is a buff value: either a Literal or a Computed function of
// the live context.
type NumericRule interface {
	Resolve(ctx *Context) (float64, error)
}

// Literal is a constant buff value.
type Literal float64

// Resolve returns the literal.
func (l Literal) Resolve(*Context) (float64, error) { return float64(l), nil }

// Computed derives a buff value from the context at evaluation time.
type Computed func(ctx *Context) (float64, error)

// Resolve invokes the function.
func (c Computed) Resolve(ctx *Context) (float64, error) { return c(ctx) }

// Resolve evaluates r against ctx. A nil rule is a malformed module.
func Resolve(r NumericRule, ctx *Context) (float64, error) {
	if r == nil {
		return 0, fmt.Errorf("nil buff value: %w", ErrInvalidRuleModule)
	}
	return r.Resolve(ctx)
}

// Predicate decides whether a buff is active. A nil Predicate always holds.
type Predicate func(ctx *Context) (bool, error)

// Holds evaluates p, treating nil as true.
func (p Predicate) Holds(ctx *Context) (bool, error) {
	if p == nil {
		return true, nil
	}
	return p(ctx)
}

// Modifier is one keyed entry of a buff's data.
type Modifier struct {
	Key  string
	Rule NumericRule
}

// BuffSpec is a conditional modifier contribution.
type BuffSpec struct {
	// Title may contain [key] placeholders resolved against the final modifiers.
	Title string
	// Check is the optional activation predicate.
	Check Predicate
	// MinCons is the minimum constellation rank; 0 means ungated.
	MinCons int
	// Data holds the modifier entries in declared order.
	Data []Modifier
	// Source labels where the buff came from: "character", "weapon", "artifact".
	Source string
}

// DamageFunc computes the outcome of a detail.
type DamageFunc func(ctx *Context, h Helpers) (Outcome, error)

// DetailSpec is a named, selectable damage computation.
type DetailSpec struct {
	Title string
	// Params, when non-nil, replaces the scenario params for this detail.
	Params Params
	Dmg    DamageFunc
}

// Module is the rule module of one character.
type Module struct {
	Name               string
	Details            []*DetailSpec
	Buffs              []*BuffSpec
	MainAttr           []string
	EnemyName          string
	DefaultParams      Params
	DefaultDetailIndex int
}

// Validate checks that every detail carries a damage function and every buff
// entry a value.
//
// Postcondition: Returns nil or an error wrapping ErrInvalidRuleModule.
func (m *Module) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("module name must not be empty: %w", ErrInvalidRuleModule)
	}
	for i, d := range m.Details {
		if d == nil || d.Dmg == nil {
			return fmt.Errorf("%s detail %d has no damage function: %w", m.Name, i, ErrInvalidRuleModule)
		}
	}
	for i, b := range m.Buffs {
		if b == nil {
			return fmt.Errorf("%s buff %d is nil: %w", m.Name, i, ErrInvalidRuleModule)
		}
		for _, e := range b.Data {
			if e.Rule == nil {
				return fmt.Errorf("%s buff %q key %q has no value: %w", m.Name, b.Title, e.Key, ErrInvalidRuleModule)
			}
		}
	}
	if len(m.Details) > 0 && (m.DefaultDetailIndex < 0 || m.DefaultDetailIndex >= len(m.Details)) {
		return fmt.Errorf("%s default detail %d out of range: %w", m.Name, m.DefaultDetailIndex, ErrInvalidRuleModule)
	}
	return nil
}

// Detail returns the detail at idx.
//
// Postcondition: Returns an error wrapping ErrInvalidScenario when idx is out of range.
func (m *Module) Detail(idx int) (*DetailSpec, error) {
	if idx < 0 || idx >= len(m.Details) {
		return nil, fmt.Errorf("%s detail index %d of %d: %w", m.Name, idx, len(m.Details), ErrInvalidScenario)
	}
	return m.Details[idx], nil
}

// Params are scenario parameters. Missing keys read as 0.
type Params map[string]float64

// Get returns the value of key or 0.
func (p Params) Get(key string) float64 {
	return p[key]
}

// Merge returns a new Params holding p overlaid by over.
func (p Params) Merge(over Params) Params {
	out := make(Params, len(p)+len(over))
	maps.Copy(out, p)
	maps.Copy(out, over)
	return out
}

// ModifierMap is the cumulative value of every modifier key contributed by
// the active buffs.
type ModifierMap map[string]float64

// Add accumulates v under key.
func (m ModifierMap) Add(key string, v float64) {
	m[key] += v
}
