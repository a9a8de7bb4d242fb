// Package character provides the character metadata catalog: base stat
// curves, talent multiplier tables and constellation talent boosts.
package character

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/dmgcalc/internal/game/growth"
)

// ErrNotFound is returned when a character identity cannot be resolved.
var ErrNotFound = errors.New("character not found")

// Ascension is the bonus stat a character gains through promotion, expressed
// as a modifier key and its value at the final tier.
type Ascension struct {
	Key   string  `yaml:"key"`
	Value float64 `yaml:"value"`
}

// TalentTable is one multiplier table of a talent. Either Levels lists the
// value vector for every talent level, or Base is the level 1 vector scaled
// by Curve (or per component by Curves).
type TalentTable struct {
	Base   []float64   `yaml:"base"`
	Curve  string      `yaml:"curve"`
	Curves []string    `yaml:"curves"`
	Levels [][]float64 `yaml:"levels"`
}

// At returns the value vector of the table at talent level.
//
// Precondition: the table passed Validate.
func (t TalentTable) At(level int) []float64 {
	if level < 1 {
		level = 1
	}
	if len(t.Levels) > 0 {
		if level > len(t.Levels) {
			level = len(t.Levels)
		}
		return append([]float64(nil), t.Levels[level-1]...)
	}
	out := make([]float64, len(t.Base))
	for i, v := range t.Base {
		curve := t.Curve
		if i < len(t.Curves) {
			curve = t.Curves[i]
		}
		scale, err := growth.TalentScale(curve, level)
		if err != nil {
			scale = 1
		}
		out[i] = v * scale
	}
	return out
}

// Validate checks that the table is well formed.
func (t TalentTable) Validate() error {
	if len(t.Levels) == 0 && len(t.Base) == 0 {
		return errors.New("table needs base or levels")
	}
	if !growth.KnownCurve(t.Curve) {
		return fmt.Errorf("unknown curve %q", t.Curve)
	}
	for _, c := range t.Curves {
		if !growth.KnownCurve(c) {
			return fmt.Errorf("unknown curve %q", c)
		}
	}
	return nil
}

// Descriptor is the static metadata of one playable character.
//
// Precondition: ID > 0 and Name non-empty after loading.
type Descriptor struct {
	ID         int                               `yaml:"id"`
	Name       string                            `yaml:"name"`
	Elem       string                            `yaml:"elem"`
	Star       int                               `yaml:"star"`
	WeaponType string                            `yaml:"weapon"`
	HP         growth.StatCurve                  `yaml:"hp"`
	Atk        growth.StatCurve                  `yaml:"atk"`
	Def        growth.StatCurve                  `yaml:"def"`
	Ascension  Ascension                         `yaml:"ascension"`
	TalentCons map[string]int                    `yaml:"talent_cons"`
	Talent     map[string]map[string]TalentTable `yaml:"talent"`
	Weights    map[string]float64                `yaml:"weights"`
}

// Validate checks the descriptor invariants.
func (d *Descriptor) Validate() error {
	if d.ID <= 0 {
		return fmt.Errorf("character %q: id must be > 0", d.Name)
	}
	if d.Name == "" {
		return fmt.Errorf("character %d: name must not be empty", d.ID)
	}
	for slot, tables := range d.Talent {
		for name, tbl := range tables {
			if err := tbl.Validate(); err != nil {
				return fmt.Errorf("character %q talent %s/%s: %w", d.Name, slot, name, err)
			}
		}
	}
	return nil
}

// Tables returns every multiplier table of slot evaluated at level.
// The second return is false when the character has no such slot.
func (d *Descriptor) Tables(slot string, level int) (map[string][]float64, bool) {
	tables, ok := d.Talent[slot]
	if !ok {
		return nil, false
	}
	out := make(map[string][]float64, len(tables))
	for name, tbl := range tables {
		out[name] = tbl.At(level)
	}
	return out, true
}

// DefaultWeights is used for artifact scoring when a character declares none.
var DefaultWeights = map[string]float64{"atkPct": 75, "atkPlus": 75, "cpct": 100, "cdmg": 100}

// ArtifactWeights returns the scoring weight of each modifier key.
func (d *Descriptor) ArtifactWeights() map[string]float64 {
	if len(d.Weights) == 0 {
		return DefaultWeights
	}
	return d.Weights
}
