// Package weapon provides the weapon catalog: base attack curves, secondary
// stats and passive buffs keyed by refinement.
package weapon

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/dmgcalc/internal/game/attr"
	"github.com/cory-johannsen/dmgcalc/internal/game/growth"
	"github.com/cory-johannsen/dmgcalc/internal/game/rules"
)

// ErrNotFound is returned when a weapon name is not in the catalog.
var ErrNotFound = errors.New("weapon not found")

// MaxAffix is the highest refinement rank.
const MaxAffix = 5

// SubStat is the secondary stat of a weapon, interpolated from its level 1
// value to its level 90 value.
type SubStat struct {
	Key  string  `yaml:"key"`
	Base float64 `yaml:"base"`
	Max  float64 `yaml:"max"`
}

// At returns the secondary stat value at level.
func (s SubStat) At(level int) float64 {
	return growth.Linear(s.Base, s.Max, level)
}

// Descriptor is the static metadata of one weapon.
type Descriptor struct {
	Name  string           `yaml:"name"`
	Star  int              `yaml:"star"`
	Type  string           `yaml:"type"`
	Atk   growth.StatCurve `yaml:"atk"`
	Sub   SubStat          `yaml:"sub"`
	Buffs rules.BuffList   `yaml:"buffs"`
}

// Validate checks the descriptor invariants.
func (d *Descriptor) Validate() error {
	if d.Name == "" {
		return errors.New("weapon name must not be empty")
	}
	if d.Star < 1 || d.Star > 5 {
		return fmt.Errorf("weapon %q: star %d out of range", d.Name, d.Star)
	}
	if d.Sub.Key != "" && !attr.New().Apply(d.Sub.Key, 0) {
		return fmt.Errorf("weapon %q: unknown sub stat %q", d.Name, d.Sub.Key)
	}
	return nil
}

// Stats returns the modifiers the weapon contributes at level and promote:
// its base attack and its secondary stat.
//
// Postcondition: The first modifier is always atkBase.
func (d *Descriptor) Stats(level, promote int) []attr.Modifier {
	mods := []attr.Modifier{{Key: "atkBase", Value: d.Atk.At(level, promote)}}
	if d.Sub.Key != "" {
		mods = append(mods, attr.Modifier{Key: d.Sub.Key, Value: d.Sub.At(level)})
	}
	return mods
}

// PassiveBuffs returns the passive buffs labelled with their source.
func (d *Descriptor) PassiveBuffs() []*rules.BuffSpec {
	return d.Buffs.WithSource("weapon")
}

// ClampAffix bounds a refinement rank to [1, MaxAffix].
func ClampAffix(affix int) int {
	if affix < 1 {
		return 1
	}
	if affix > MaxAffix {
		return MaxAffix
	}
	return affix
}
