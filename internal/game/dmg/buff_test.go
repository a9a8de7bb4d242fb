package dmg_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dmgcalc/internal/game/attr"
	"github.com/cory-johannsen/dmgcalc/internal/game/dmg"
	"github.com/cory-johannsen/dmgcalc/internal/game/rules"
)

func literalBuff(title, key string, v float64) *rules.BuffSpec {
	return &rules.BuffSpec{Title: title, Data: []rules.Modifier{{Key: key, Rule: rules.Literal(v)}}}
}

func freshContext(cons int) *rules.Context {
	set := attr.New()
	set.AddBase(attr.Atk, 1000)
	return &rules.Context{Name: "t", Cons: cons, Attr: set, Modifiers: rules.ModifierMap{}}
}

func TestBuffEngine_SumsSameKey(t *testing.T) {
	engine := dmg.NewBuffEngine(zap.NewNop())
	ctx := freshContext(0)
	mods, applied, err := engine.Evaluate([]*rules.BuffSpec{
		literalBuff("a", "atkPct", 10),
		literalBuff("b", "atkPct", 10),
	}, ctx)
	require.NoError(t, err)
	assert.Equal(t, 20.0, mods["atkPct"])
	assert.Len(t, applied, 2)
	assert.Equal(t, 20.0, ctx.Attr.Get(attr.Atk).Pct)
}

func TestPropertyBuffEngine_OrderIndependentForLiterals(t *testing.T) {
	engine := dmg.NewBuffEngine(zap.NewNop())
	keys := []string{"atkPct", "dmg", "qDmg", "kx", "unknownKey"}
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(1, 8).Draw(t, "n")
		buffs := make([]*rules.BuffSpec, n)
		for i := range buffs {
			buffs[i] = literalBuff("b", rapid.SampledFrom(keys).Draw(t, "key"), rapid.Float64Range(-50, 50).Draw(t, "v"))
		}
		perm := rapid.Permutation(buffs).Draw(t, "perm")

		m1, _, err := engine.Evaluate(buffs, freshContext(0))
		require.NoError(t, err)
		m2, _, err := engine.Evaluate(perm, freshContext(0))
		require.NoError(t, err)
		for _, k := range keys {
			assert.InDelta(t, m1[k], m2[k], 1e-9, k)
		}
	})
}

func TestPropertyBuffEngine_ConsGate(t *testing.T) {
	engine := dmg.NewBuffEngine(zap.NewNop())
	rapid.Check(t, func(t *rapid.T) {
		cons := rapid.IntRange(0, 6).Draw(t, "cons")
		b := literalBuff("c2", "qCpct", 100)
		b.MinCons = 2
		mods, applied, err := engine.Evaluate([]*rules.BuffSpec{b}, freshContext(cons))
		require.NoError(t, err)
		if cons >= 2 {
			assert.Equal(t, 100.0, mods["qCpct"])
			assert.Len(t, applied, 1)
		} else {
			assert.NotContains(t, mods, "qCpct")
			assert.Empty(t, applied)
		}
	})
}

func TestBuffEngine_LaterBuffsSeeEarlierEffects(t *testing.T) {
	engine := dmg.NewBuffEngine(zap.NewNop())
	reader := &rules.BuffSpec{
		Title: "reader",
		Data: []rules.Modifier{{Key: "dmg", Rule: rules.Computed(func(ctx *rules.Context) (float64, error) {
			return ctx.Calc(ctx.Attr.Get(attr.Atk)) / 100, nil
		})}},
	}
	mods, applied, err := engine.Evaluate([]*rules.BuffSpec{literalBuff("atk", "atkPct", 50), reader}, freshContext(0))
	require.NoError(t, err)
	assert.InDelta(t, 15, mods["dmg"], 1e-9)
	assert.Equal(t, []attr.Modifier{{Key: "dmg", Value: 15}}, applied[1].Values)
}

func TestBuffEngine_CheckPredicate(t *testing.T) {
	engine := dmg.NewBuffEngine(zap.NewNop())
	b := literalBuff("gated", "kx", 20)
	b.Check = func(ctx *rules.Context) (bool, error) { return ctx.Modifiers["atkPct"] > 0, nil }

	mods, _, err := engine.Evaluate([]*rules.BuffSpec{b}, freshContext(0))
	require.NoError(t, err)
	assert.NotContains(t, mods, "kx")

	mods, _, err = engine.Evaluate([]*rules.BuffSpec{literalBuff("atk", "atkPct", 1), b}, freshContext(0))
	require.NoError(t, err)
	assert.Equal(t, 20.0, mods["kx"])
}

func TestBuffEngine_UnknownKeyIsInert(t *testing.T) {
	engine := dmg.NewBuffEngine(zap.NewNop())
	ctx := freshContext(0)
	before := ctx.Attr.Clone()
	mods, _, err := engine.Evaluate([]*rules.BuffSpec{literalBuff("x", "neverRead", 5)}, ctx)
	require.NoError(t, err)
	assert.Equal(t, 5.0, mods["neverRead"])
	assert.Equal(t, before, ctx.Attr)
}

func TestBuffEngine_PropagatesErrors(t *testing.T) {
	engine := dmg.NewBuffEngine(zap.NewNop())
	failing := &rules.BuffSpec{Title: "bad", Data: []rules.Modifier{{Key: "dmg", Rule: rules.Computed(func(*rules.Context) (float64, error) {
		return 0, rules.ErrMissingTalent
	})}}}
	_, _, err := engine.Evaluate([]*rules.BuffSpec{failing}, freshContext(0))
	assert.ErrorIs(t, err, rules.ErrMissingTalent)

	badCheck := literalBuff("check", "dmg", 1)
	badCheck.Check = func(*rules.Context) (bool, error) { return false, errors.New("boom") }
	_, _, err = engine.Evaluate([]*rules.BuffSpec{badCheck}, freshContext(0))
	assert.Error(t, err)
}
