// Package growth holds the level curves shared by characters, weapons and talents.
package growth

import "fmt"

// MaxLevel is the highest character and weapon level.
const MaxLevel = 90

// MaxTalentLevel is the highest talent level including constellation boosts.
const MaxTalentLevel = 15

// promoteCaps lists the level cap of each promotion tier; a level above
// promoteCaps[i] requires at least tier i+1.
var promoteCaps = [...]int{20, 40, 50, 60, 70, 80}

// promoteFraction is the share of the total ascension bonus unlocked per tier.
var promoteFraction = [...]float64{0, 38.0 / 182, 65.0 / 182, 101.0 / 182, 128.0 / 182, 155.0 / 182, 1}

// CalcPromote returns the lowest promotion tier that allows level.
//
// Postcondition: Returns a value in [0, 6].
func CalcPromote(level int) int {
	promote := 0
	for _, limit := range promoteCaps {
		if level > limit {
			promote++
		}
	}
	return promote
}

// PromoteFraction returns the unlocked share of the ascension bonus for tier.
// Out of range tiers are clamped.
func PromoteFraction(promote int) float64 {
	if promote < 0 {
		promote = 0
	}
	if promote >= len(promoteFraction) {
		promote = len(promoteFraction) - 1
	}
	return promoteFraction[promote]
}

// ascensionStatFraction is the share of the ascension stat unlocked per tier.
var ascensionStatFraction = [...]float64{0, 0, 0.25, 0.5, 0.5, 0.75, 1}

// AscensionStatFraction returns the unlocked share of a character's
// ascension stat for tier. Out of range tiers are clamped.
func AscensionStatFraction(promote int) float64 {
	if promote < 0 {
		promote = 0
	}
	if promote >= len(ascensionStatFraction) {
		promote = len(ascensionStatFraction) - 1
	}
	return ascensionStatFraction[promote]
}

// StatCurve describes one base stat: its level 1 value, its value at level 90
// before ascension, and the total bonus granted by all ascensions.
type StatCurve struct {
	Base      float64 `yaml:"base"`
	Grow      float64 `yaml:"grow"`
	Ascension float64 `yaml:"ascension"`
}

// At returns the stat value for level and promote.
//
// Postcondition: At(1, 0) == Base.
func (c StatCurve) At(level, promote int) float64 {
	if level < 1 {
		level = 1
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	growth := (c.Grow - c.Base) * float64(level-1) / float64(MaxLevel-1)
	return c.Base + growth + c.Ascension*PromoteFraction(promote)
}

// Linear interpolates between the level 1 and level 90 value.
func Linear(lv1, lv90 float64, level int) float64 {
	if level < 1 {
		level = 1
	}
	if level > MaxLevel {
		level = MaxLevel
	}
	return lv1 + (lv90-lv1)*float64(level-1)/float64(MaxLevel-1)
}

var talentCurves = map[string][MaxTalentLevel]float64{
	"skill":  {1, 1.075, 1.15, 1.25, 1.325, 1.4, 1.5, 1.6, 1.7, 1.8, 1.9, 2, 2.125, 2.25, 2.375},
	"attack": {1, 1.081, 1.163, 1.279, 1.36, 1.453, 1.581, 1.709, 1.837, 1.977, 2.137, 2.325, 2.513, 2.701, 2.906},
	"flat":   {1, 1.1, 1.21, 1.33, 1.46, 1.6, 1.76, 1.93, 2.11, 2.31, 2.52, 2.75, 3, 3.27, 3.56},
	"const":  {1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1, 1},
}

// TalentScale returns the multiplier of curve at talent level.
//
// Precondition: level in [1, MaxTalentLevel].
// Postcondition: Returns an error for an unknown curve name.
func TalentScale(curve string, level int) (float64, error) {
	if curve == "" {
		curve = "skill"
	}
	c, ok := talentCurves[curve]
	if !ok {
		return 0, fmt.Errorf("unknown talent curve %q", curve)
	}
	if level < 1 {
		level = 1
	}
	if level > MaxTalentLevel {
		level = MaxTalentLevel
	}
	return c[level-1], nil
}

// KnownCurve reports whether name is a registered talent curve.
func KnownCurve(name string) bool {
	if name == "" {
		return true
	}
	_, ok := talentCurves[name]
	return ok
}
