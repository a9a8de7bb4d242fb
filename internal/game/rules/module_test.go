package rules_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dmgcalc/internal/game/rules"
)

func constDamage(v float64) rules.DamageFunc {
	return func(*rules.Context, rules.Helpers) (rules.Outcome, error) {
		return rules.ValueOutcome(v), nil
	}
}

func TestModule_Validate(t *testing.T) {
	valid := &rules.Module{
		Name:    "m",
		Details: []*rules.DetailSpec{{Title: "a", Dmg: constDamage(1)}},
		Buffs:   []*rules.BuffSpec{{Title: "b", Data: []rules.Modifier{{Key: "dmg", Rule: rules.Literal(1)}}}},
	}
	require.NoError(t, valid.Validate())

	cases := map[string]*rules.Module{
		"no name":       {Details: valid.Details},
		"nil detail fn": {Name: "m", Details: []*rules.DetailSpec{{Title: "a"}}},
		"nil buff":      {Name: "m", Buffs: []*rules.BuffSpec{nil}},
		"nil rule":      {Name: "m", Buffs: []*rules.BuffSpec{{Data: []rules.Modifier{{Key: "dmg"}}}}},
		"bad default":   {Name: "m", Details: valid.Details, DefaultDetailIndex: 1},
	}
	for name, m := range cases {
		assert.ErrorIs(t, m.Validate(), rules.ErrInvalidRuleModule, name)
	}
}

func TestModule_Detail_OutOfRange(t *testing.T) {
	m := &rules.Module{Name: "m", Details: []*rules.DetailSpec{{Title: "a", Dmg: constDamage(1)}}}
	d, err := m.Detail(0)
	require.NoError(t, err)
	assert.Equal(t, "a", d.Title)
	for _, idx := range []int{-1, 1, 99} {
		_, err := m.Detail(idx)
		assert.ErrorIs(t, err, rules.ErrInvalidScenario)
	}
}

func TestResolve_NilRule(t *testing.T) {
	_, err := rules.Resolve(nil, nil)
	assert.ErrorIs(t, err, rules.ErrInvalidRuleModule)
}

func TestPredicate_NilHolds(t *testing.T) {
	var p rules.Predicate
	ok, err := p.Holds(nil)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestParams_Merge_OverlayWins(t *testing.T) {
	base := rules.Params{"ban": 1, "num": 60}
	merged := base.Merge(rules.Params{"num": 30, "type": 1})
	assert.Equal(t, rules.Params{"ban": 1, "num": 30, "type": 1}, merged)
	assert.Equal(t, 60.0, base.Get("num"), "merge must not mutate the receiver")
	assert.Equal(t, 0.0, merged.Get("absent"))
}

func TestRegistry_RegisterRejectsInvalid(t *testing.T) {
	reg := rules.NewRegistry()
	assert.ErrorIs(t, reg.Register(nil), rules.ErrInvalidRuleModule)
	assert.ErrorIs(t, reg.Register(&rules.Module{}), rules.ErrInvalidRuleModule)
	require.NoError(t, reg.Register(&rules.Module{Name: "b"}))
	require.NoError(t, reg.Register(&rules.Module{Name: "a"}))
	assert.Equal(t, []string{"a", "b"}, reg.Names())
	_, ok := reg.Get("c")
	assert.False(t, ok)
}

func TestPropertyModifierMap_AddSums(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		vals := rapid.SliceOf(rapid.Float64Range(-100, 100)).Draw(t, "vals")
		m := rules.ModifierMap{}
		sum := 0.0
		for _, v := range vals {
			m.Add("k", v)
			sum += v
		}
		assert.InDelta(t, sum, m["k"], 1e-9)
	})
}
