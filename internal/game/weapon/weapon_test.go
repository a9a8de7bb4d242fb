package weapon_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dmgcalc/internal/game/attr"
	"github.com/cory-johannsen/dmgcalc/internal/game/rules"
	"github.com/cory-johannsen/dmgcalc/internal/game/weapon"
)

const sampleWeapon = `
name: 试作
star: 4
type: claymore
atk: {base: 40, grow: 400, ascension: 60}
sub: {key: atkPct, base: 10, max: 40}
buffs:
  - title: 攻击提高[atkPct]%
    data:
      atkPct: refine({10, 20, 30, 40, 50})
`

func writeWeapon(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

func TestLoadDirectory_Sample(t *testing.T) {
	dir := t.TempDir()
	writeWeapon(t, dir, "w.yaml", sampleWeapon)
	cat, err := weapon.LoadDirectory(dir)
	require.NoError(t, err)

	d, err := cat.Get("试作")
	require.NoError(t, err)
	assert.Equal(t, 4, d.Star)
	require.Len(t, d.Buffs, 1)

	buffs := d.PassiveBuffs()
	assert.Equal(t, "weapon", buffs[0].Source)
	assert.Equal(t, "", d.Buffs[0].Source, "PassiveBuffs must not mutate the catalog entry")

	ctx := &rules.Context{Attr: attr.New(), Weapon: rules.WeaponRef{Name: d.Name, Affix: 3}}
	t.Cleanup(ctx.Close)
	v, err := rules.Resolve(buffs[0].Data[0].Rule, ctx)
	require.NoError(t, err)
	assert.Equal(t, 30.0, v)
}

func TestDescriptor_Stats(t *testing.T) {
	dir := t.TempDir()
	writeWeapon(t, dir, "w.yaml", sampleWeapon)
	cat, err := weapon.LoadDirectory(dir)
	require.NoError(t, err)
	d, _ := cat.Get("试作")

	lv1 := d.Stats(1, 0)
	require.Len(t, lv1, 2)
	assert.Equal(t, attr.Modifier{Key: "atkBase", Value: 40}, lv1[0])
	assert.Equal(t, attr.Modifier{Key: "atkPct", Value: 10}, lv1[1])

	lv90 := d.Stats(90, 6)
	assert.InDelta(t, 460, lv90[0].Value, 1e-9)
	assert.InDelta(t, 40, lv90[1].Value, 1e-9)
}

func TestCatalog_GetUnknown(t *testing.T) {
	_, err := weapon.NewCatalog().Get("nothing")
	assert.ErrorIs(t, err, weapon.ErrNotFound)
}

func TestLoadDirectory_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown field": "name: a\nstar: 4\nbogus: 1\n",
		"no name":       "star: 4\n",
		"bad star":      "name: a\nstar: 9\n",
		"bad sub":       "name: a\nstar: 4\nsub: {key: nonsense, base: 1, max: 2}\n",
		"bad buff":      "name: a\nstar: 4\nbuffs:\n  - title: b\n    data:\n      x: \"@@@\"\n",
	}
	for name, body := range cases {
		dir := t.TempDir()
		writeWeapon(t, dir, "w.yaml", body)
		_, err := weapon.LoadDirectory(dir)
		assert.Error(t, err, name)
	}
}

func TestLoadDirectory_RealWeapons(t *testing.T) {
	cat, err := weapon.LoadDirectory("../../../content/weapons")
	require.NoError(t, err)
	for _, name := range []string{"薙草之稻光", "「渔获」", "狼的末路"} {
		_, err := cat.Get(name)
		assert.NoError(t, err, name)
	}
	assert.Len(t, cat.All(), 3)
}

func TestEngulfingLightning_AtkFromRecharge(t *testing.T) {
	cat, err := weapon.LoadDirectory("../../../content/weapons")
	require.NoError(t, err)
	d, err := cat.Get("薙草之稻光")
	require.NoError(t, err)

	set := attr.New()
	set.AddBase(attr.Recharge, 100)
	set.AddPlus(attr.Recharge, 150)
	ctx := &rules.Context{Attr: set, Weapon: rules.WeaponRef{Name: d.Name, Affix: 1}}
	t.Cleanup(ctx.Close)

	v, err := rules.Resolve(d.Buffs[0].Data[0].Rule, ctx)
	require.NoError(t, err)
	assert.InDelta(t, 42, v, 1e-9)

	set.AddPlus(attr.Recharge, 300)
	v, err = rules.Resolve(d.Buffs[0].Data[0].Rule, ctx)
	require.NoError(t, err)
	assert.InDelta(t, 80, v, 1e-9, "capped at the refinement maximum")

	ok, err := d.Buffs[1].Check.Holds(ctx)
	require.NoError(t, err)
	assert.False(t, ok, "burst buff inactive without the burst param")
}

func TestPropertyClampAffix_InRange(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		a := weapon.ClampAffix(rapid.IntRange(-10, 20).Draw(t, "affix"))
		assert.GreaterOrEqual(t, a, 1)
		assert.LessOrEqual(t, a, weapon.MaxAffix)
	})
}
