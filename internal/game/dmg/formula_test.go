package dmg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dmgcalc/internal/game/dmg"
)

func TestDefenseMultiplier(t *testing.T) {
	assert.InDelta(t, 0.5, dmg.DefenseMultiplier(90, 90, 0, 0), 1e-12)
	assert.InDelta(t, 190.0/(190+191), dmg.DefenseMultiplier(90, 91, 0, 0), 1e-12)
	assert.InDelta(t, 190.0/(190+191*0.4), dmg.DefenseMultiplier(90, 91, 0, 60), 1e-12)
	assert.InDelta(t, 1, dmg.DefenseMultiplier(90, 91, 100, 0), 1e-12)
}

func TestResistanceMultiplier_Piecewise(t *testing.T) {
	assert.InDelta(t, 0.9, dmg.ResistanceMultiplier(10), 1e-12)
	assert.InDelta(t, 1.1, dmg.ResistanceMultiplier(-20), 1e-12)
	assert.InDelta(t, 1, dmg.ResistanceMultiplier(0), 1e-12)
	assert.InDelta(t, 1/(1+3.2), dmg.ResistanceMultiplier(80), 1e-12)
}

func TestReactionMultiplier(t *testing.T) {
	assert.Equal(t, 1.5, dmg.ReactionMultiplier("pyro", dmg.Vaporize, 0, 0))
	assert.Equal(t, 2.0, dmg.ReactionMultiplier("pyro", dmg.Melt, 0, 0))
	assert.Equal(t, 2.0, dmg.ReactionMultiplier("hydro", dmg.Vaporize, 0, 0))
	assert.Equal(t, 1.0, dmg.ReactionMultiplier("hydro", dmg.Melt, 500, 0))
	assert.Equal(t, 1.0, dmg.ReactionMultiplier("electro", dmg.Vaporize, 500, 0))
	assert.InDelta(t, 1.5*(1+1.39), dmg.ReactionMultiplier("pyro", dmg.Vaporize, 1400, 0), 1e-12)
	assert.InDelta(t, 2*(1+0.15), dmg.ReactionMultiplier("pyro", dmg.Melt, 0, 15), 1e-12)
}

func TestPropertyResistanceMultiplier_DecreasingAndPositive(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := rapid.Float64Range(-200, 300).Draw(t, "a")
		b := rapid.Float64Range(a, 300).Draw(t, "b")
		ma, mb := dmg.ResistanceMultiplier(a), dmg.ResistanceMultiplier(b)
		assert.Greater(t, mb, 0.0)
		assert.GreaterOrEqual(t, ma+1e-12, mb)
	})
}

func TestPropertyDefenseMultiplier_InUnitInterval(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := dmg.DefenseMultiplier(
			rapid.IntRange(1, 90).Draw(t, "lv"),
			rapid.IntRange(1, 200).Draw(t, "enemy"),
			rapid.Float64Range(0, 100).Draw(t, "def"),
			rapid.Float64Range(0, 100).Draw(t, "ignore"),
		)
		assert.Greater(t, m, 0.0)
		assert.LessOrEqual(t, m, 1.0)
	})
}
