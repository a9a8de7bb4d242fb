// Package dmg evaluates character rule modules against a build: it folds the
// buffs of the character, its weapon and its artifact sets into the build's
// attributes and runs the selected damage detail.
package dmg

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dmgcalc/internal/game/profile"
	"github.com/cory-johannsen/dmgcalc/internal/game/rules"
	"github.com/cory-johannsen/dmgcalc/internal/game/weapon"
)

// DefaultEnemyLevel is the enemy level used when neither the scenario nor the
// evaluator options name one.
const DefaultEnemyLevel = 91

// DefaultMode labels scenarios that name no mode.
const DefaultMode = "profile"

// CritMode selects how a damage outcome is reduced to one value.
type CritMode string

const (
	// CritExpected reports the crit-rate weighted expectation.
	CritExpected CritMode = "expected"
	// CritDiscrete reports the critical hit; the non-critical hit is
	// reported alongside.
	CritDiscrete CritMode = "discrete"
)

// ParseCritMode validates s. The empty string yields the empty mode, which
// defers to the evaluator default.
func ParseCritMode(s string) (CritMode, error) {
	switch CritMode(s) {
	case "", CritExpected, CritDiscrete:
		return CritMode(s), nil
	default:
		return "", fmt.Errorf("crit mode %q: %w", s, rules.ErrInvalidScenario)
	}
}

// Scenario selects what to compute. Zero fields take defaults.
type Scenario struct {
	EnemyLevel int
	Mode       string
	// DetailIndex selects the detail; nil uses the module default.
	DetailIndex *int
	// Params are overlaid on the module defaults unless the detail carries
	// its own params.
	Params   rules.Params
	CritMode CritMode
}

// Result is the outcome of one detail evaluation.
type Result struct {
	Index int `json:"index"`
	// Title is the detail title with [key] placeholders resolved.
	Title      string            `json:"title"`
	Kind       rules.OutcomeKind `json:"kind"`
	Value      float64           `json:"value"`
	Crit       float64           `json:"crit"`
	NonCrit    float64           `json:"nonCrit"`
	Avg        float64           `json:"avg"`
	CritMode   CritMode          `json:"critMode"`
	Mode       string            `json:"mode"`
	EnemyLevel int               `json:"enemyLevel"`
	EnemyName  string            `json:"enemyName,omitempty"`
	Params     rules.Params      `json:"params"`
	Breakdown  []Term            `json:"breakdown,omitempty"`
	// Buffs are the active buffs with their titles resolved.
	Buffs     []AppliedBuff     `json:"buffs"`
	Modifiers rules.ModifierMap `json:"modifiers"`
}

// DetailResult pairs a detail with its result or its error.
type DetailResult struct {
	Index  int
	Title  string
	Result *Result
	Err    error
}

// MarshalJSON renders Err as its message.
func (d DetailResult) MarshalJSON() ([]byte, error) {
	out := struct {
		Index  int     `json:"index"`
		Title  string  `json:"title"`
		Result *Result `json:"result,omitempty"`
		Error  string  `json:"error,omitempty"`
	}{Index: d.Index, Title: d.Title, Result: d.Result}
	if d.Err != nil {
		out.Error = d.Err.Error()
	}
	return json.Marshal(out)
}

// DetailInfo describes one selectable detail.
type DetailInfo struct {
	Index   int    `json:"index"`
	Title   string `json:"title"`
	Default bool   `json:"default"`
}

// Options tune an Evaluator.
type Options struct {
	DefaultEnemyLevel int
	CritMode          CritMode
	ScriptLimit       int
}

// Evaluator computes damage details. It is safe for concurrent use; every
// call owns its own context and attribute copy.
type Evaluator struct {
	rules    *rules.Registry
	weapons  weapon.Lookup
	resolver *profile.AttrResolver
	buffs    *BuffEngine
	opts     Options
	logger   *zap.Logger
}

// NewEvaluator creates an Evaluator.
//
// Precondition: all arguments must be non-nil.
func NewEvaluator(reg *rules.Registry, weapons weapon.Lookup, resolver *profile.AttrResolver, opts Options, logger *zap.Logger) *Evaluator {
	if opts.DefaultEnemyLevel <= 0 {
		opts.DefaultEnemyLevel = DefaultEnemyLevel
	}
	if opts.CritMode == "" {
		opts.CritMode = CritExpected
	}
	return &Evaluator{
		rules:    reg,
		weapons:  weapons,
		resolver: resolver,
		buffs:    NewBuffEngine(logger),
		opts:     opts,
		logger:   logger,
	}
}

// HasDmg reports whether damage can be evaluated for b.
func (e *Evaluator) HasDmg(b *profile.Build) bool {
	return b.HasData() && e.rules.Has(b.Name())
}

// Details lists the details of the character named name.
//
// Postcondition: Returns an error wrapping rules.ErrUnsupported when no rule
// module exists.
func (e *Evaluator) Details(name string) ([]DetailInfo, error) {
	m, ok := e.rules.Get(name)
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, rules.ErrUnsupported)
	}
	out := make([]DetailInfo, len(m.Details))
	for i, d := range m.Details {
		out[i] = DetailInfo{Index: i, Title: d.Title, Default: i == m.DefaultDetailIndex}
	}
	return out, nil
}

// EvaluateDetail evaluates one detail of b's rule module.
//
// Postcondition: Returns a Result, or an error wrapping rules.ErrUnsupported
// (no module or no build data), rules.ErrInvalidScenario (bad index or crit
// mode), rules.ErrMissingTalent or rules.ErrInvalidRuleModule. Neither the
// module nor b's cached attributes are modified.
func (e *Evaluator) EvaluateDetail(b *profile.Build, sc Scenario) (*Result, error) {
	m, ok := e.rules.Get(b.Name())
	if !ok {
		return nil, fmt.Errorf("%s: %w", b.Name(), rules.ErrUnsupported)
	}
	idx := m.DefaultDetailIndex
	if sc.DetailIndex != nil {
		idx = *sc.DetailIndex
	}
	return e.evaluate(m, b, sc, idx)
}

// EvaluateAll evaluates every detail of b's rule module. A failing detail is
// reported in its DetailResult and does not stop the others.
//
// Postcondition: Returns an error only when the module is unavailable.
func (e *Evaluator) EvaluateAll(b *profile.Build, sc Scenario) ([]DetailResult, error) {
	m, ok := e.rules.Get(b.Name())
	if !ok {
		return nil, fmt.Errorf("%s: %w", b.Name(), rules.ErrUnsupported)
	}
	out := make([]DetailResult, len(m.Details))
	for i, d := range m.Details {
		res, err := e.evaluate(m, b, sc, i)
		if err != nil {
			e.logger.Warn("detail evaluation failed",
				zap.String("character", b.Name()),
				zap.Int("detail", i),
				zap.String("title", d.Title),
				zap.Error(err),
			)
		}
		title := d.Title
		if res != nil {
			title = res.Title
		}
		out[i] = DetailResult{Index: i, Title: title, Result: res, Err: err}
	}
	return out, nil
}

func (e *Evaluator) evaluate(m *rules.Module, b *profile.Build, sc Scenario, idx int) (*Result, error) {
	if !b.HasData() {
		return nil, fmt.Errorf("%s has no usable build data: %w", b.Name(), rules.ErrUnsupported)
	}
	detail, err := m.Detail(idx)
	if err != nil {
		return nil, err
	}
	critMode, err := ParseCritMode(string(sc.CritMode))
	if err != nil {
		return nil, err
	}
	if critMode == "" {
		critMode = e.opts.CritMode
	}
	enemyLevel := sc.EnemyLevel
	if enemyLevel <= 0 {
		enemyLevel = e.opts.DefaultEnemyLevel
	}
	mode := sc.Mode
	if mode == "" {
		mode = DefaultMode
	}

	base, err := e.resolver.ResolveOrFetch(b)
	if err != nil {
		return nil, err
	}

	params := sc.Params
	if detail.Params != nil {
		params = detail.Params
	}
	ctx := &rules.Context{
		Name:        b.Name(),
		Level:       b.Level,
		Cons:        b.Cons,
		Element:     b.Elem,
		Talents:     talentViews(b),
		Attr:        base.Clone(),
		Params:      m.DefaultParams.Merge(params),
		Modifiers:   rules.ModifierMap{},
		Weapon:      rules.WeaponRef{Name: b.Weapon.Name, Affix: b.Weapon.Affix},
		ScriptLimit: e.opts.ScriptLimit,
	}
	defer ctx.Close()

	mods, applied, err := e.buffs.Evaluate(e.buffList(m, b), ctx)
	if err != nil {
		return nil, err
	}

	calc := newCalculator(ctx.Attr, b.Level, b.Elem, enemyLevel)
	out, err := detail.Dmg(ctx, calc)
	if err != nil {
		return nil, fmt.Errorf("%s detail %d %q: %w", m.Name, idx, detail.Title, err)
	}

	for i := range applied {
		applied[i].Title = rules.ResolveTitle(applied[i].Title, mods)
	}
	res := &Result{
		Index:      idx,
		Title:      rules.ResolveTitle(detail.Title, mods),
		Kind:       out.Kind,
		Crit:       out.Crit,
		NonCrit:    out.NonCrit,
		Avg:        out.Avg,
		CritMode:   critMode,
		Mode:       mode,
		EnemyLevel: enemyLevel,
		EnemyName:  m.EnemyName,
		Params:     ctx.Params,
		Breakdown:  calc.terms,
		Buffs:      applied,
		Modifiers:  mods,
	}
	switch {
	case out.Kind != rules.KindDamage:
		res.Value = out.Value
	case critMode == CritDiscrete:
		res.Value = out.Crit
	default:
		res.Value = out.Avg
	}
	e.logger.Debug("detail evaluated",
		zap.String("character", b.Name()),
		zap.Int("detail", idx),
		zap.Float64("value", res.Value),
		zap.Int("buffs", len(applied)),
		zap.Int64("lua_instructions", ctx.ScriptInstructions()),
	)
	return res, nil
}

// buffList orders the buffs of the character module, the equipped weapon and
// the artifact sets.
func (e *Evaluator) buffList(m *rules.Module, b *profile.Build) []*rules.BuffSpec {
	list := append([]*rules.BuffSpec(nil), m.Buffs...)
	w, err := e.weapons.Get(b.Weapon.Name)
	switch {
	case err == nil:
		list = append(list, w.PassiveBuffs()...)
	case errors.Is(err, weapon.ErrNotFound):
		e.logger.Debug("weapon has no passive data", zap.String("weapon", b.Weapon.Name))
	default:
		e.logger.Warn("weapon lookup failed", zap.String("weapon", b.Weapon.Name), zap.Error(err))
	}
	if b.Artis != nil {
		list = append(list, b.Artis.Buffs...)
	}
	return list
}

// talentViews evaluates every talent table of b at its effective level.
func talentViews(b *profile.Build) map[string]rules.TalentView {
	out := make(map[string]rules.TalentView, len(b.Talent))
	for slot, t := range b.Talent {
		tables, ok := b.Char.Tables(slot, t.Level)
		if !ok {
			continue
		}
		out[slot] = rules.TalentView{Level: t.Level, Tables: tables}
	}
	return out
}
