package attr_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dmgcalc/internal/game/attr"
)

func TestStat_Total(t *testing.T) {
	s := attr.Stat{Base: 1000, Plus: 311, Pct: 46.6}
	assert.InDelta(t, 1000*1.466+311, s.Total(), 1e-9)
}

func TestSet_Get_MissingIsZero(t *testing.T) {
	s := attr.New()
	assert.Equal(t, attr.Stat{}, s.Get("nonexistent"))
	assert.Equal(t, 0.0, s.Total("nonexistent"))
	var nilSet *attr.Set
	assert.Equal(t, attr.Stat{}, nilSet.Get(attr.Atk))
}

func TestSet_Apply_ScaledKeys(t *testing.T) {
	s := attr.New()
	assert.True(t, s.Apply("atkBase", 500))
	assert.True(t, s.Apply("atkPct", 20))
	assert.True(t, s.Apply("atkPlus", 100))
	assert.Equal(t, attr.Stat{Base: 500, Plus: 100, Pct: 20}, s.Get(attr.Atk))
}

func TestSet_Apply_SkillKeys(t *testing.T) {
	s := attr.New()
	assert.True(t, s.Apply("qDmg", 27))
	assert.True(t, s.Apply("qCpct", 100))
	assert.True(t, s.Apply("a2Dmg", 16))
	assert.True(t, s.Apply("qIgnore", 60))
	assert.Equal(t, 27.0, s.Skill("q").Dmg)
	assert.Equal(t, 100.0, s.Skill("q").Cpct)
	assert.Equal(t, 60.0, s.Skill("q").Ignore)
	assert.Equal(t, 16.0, s.Skill("a2").Dmg)
}

func TestSet_Apply_EnemyKeys(t *testing.T) {
	s := attr.New()
	assert.True(t, s.Apply("kx", 40))
	assert.True(t, s.Apply("phyKx", 15))
	assert.True(t, s.Apply("enemyDef", 30))
	assert.Equal(t, attr.Enemy{Kx: 40, PhyKx: 15, Def: 30}, s.Enemy)
}

func TestSet_Apply_UnknownKeyInert(t *testing.T) {
	s := attr.New()
	before := s.Clone()
	assert.False(t, s.Apply("somethingElse", 10))
	assert.Equal(t, before, s)
}

func TestSet_ApplyAll_ReportsUnknown(t *testing.T) {
	s := attr.New()
	unknown := s.ApplyAll([]attr.Modifier{{Key: "cpct", Value: 5}, {Key: "zz", Value: 1}})
	assert.Equal(t, []string{"zz"}, unknown)
	assert.Equal(t, 5.0, s.Total(attr.Cpct))
}

func TestSet_Clone_Independent(t *testing.T) {
	s := attr.New()
	s.AddBase(attr.Atk, 100)
	c := s.Clone()
	c.AddPlus(attr.Atk, 50)
	c.Apply("qDmg", 10)
	assert.Equal(t, 100.0, s.Total(attr.Atk))
	assert.Equal(t, 0.0, s.Skill("q").Dmg)
}

func TestPropertySet_ApplySums(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		vals := rapid.SliceOfN(rapid.Float64Range(-100, 100), 1, 8).Draw(t, "vals")
		s := attr.New()
		want := 0.0
		for _, v := range vals {
			s.Apply("cdmg", v)
			want += v
		}
		assert.InDelta(t, want, s.Get(attr.Cdmg).Plus, 1e-6)
	})
}
