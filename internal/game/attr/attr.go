// Package attr defines the attribute set of a build and the modifier key
// grammar used by equipment, artifacts and buffs to change it.
package attr

import (
	"maps"
	"regexp"
	"sort"
)

// Stat is one additive attribute. Base comes from the character and weapon,
// Plus from artifacts and buffs, Pct scales Base.
type Stat struct {
	Base float64 `json:"base"`
	Plus float64 `json:"plus"`
	Pct  float64 `json:"pct"`
}

// Total returns Base*(1+Pct/100) + Plus.
func (s Stat) Total() float64 {
	return s.Base*(1+s.Pct/100) + s.Plus
}

// Skill holds the per damage key bonuses (normal attack "a", charged "a2",
// plunge "a3", skill "e", burst "q").
type Skill struct {
	Pct    float64 `json:"pct"`
	Multi  float64 `json:"multi"`
	Plus   float64 `json:"plus"`
	Dmg    float64 `json:"dmg"`
	Cpct   float64 `json:"cpct"`
	Cdmg   float64 `json:"cdmg"`
	Def    float64 `json:"def"`
	Ignore float64 `json:"ignore"`
}

// Enemy holds the accumulated reductions applied to the target.
type Enemy struct {
	Kx     float64 `json:"kx"`
	PhyKx  float64 `json:"phyKx"`
	Def    float64 `json:"def"`
	Ignore float64 `json:"ignore"`
}

// Stat names.
const (
	HP       = "hp"
	Atk      = "atk"
	Def      = "def"
	Mastery  = "mastery"
	Recharge = "recharge"
	Cpct     = "cpct"
	Cdmg     = "cdmg"
	Heal     = "heal"
	Dmg      = "dmg"
	Phy      = "phy"
	Shield   = "shield"
	Vaporize = "vaporize"
	Melt     = "melt"
)

// SkillKeys lists the damage keys that carry a Skill record.
var SkillKeys = []string{"a", "a2", "a3", "e", "q"}

// Set is the full attribute view of a build. Lookups of absent stats yield
// the zero Stat.
//
// A Set is not safe for concurrent mutation; evaluation works on a Clone.
type Set struct {
	Stats  map[string]Stat  `json:"stats"`
	Skills map[string]Skill `json:"skills"`
	Enemy  Enemy            `json:"enemy"`
}

// New returns an empty Set with every skill key present.
func New() *Set {
	s := &Set{
		Stats:  make(map[string]Stat),
		Skills: make(map[string]Skill, len(SkillKeys)),
	}
	for _, k := range SkillKeys {
		s.Skills[k] = Skill{}
	}
	return s
}

// Get returns the stat for key, or the zero Stat.
func (s *Set) Get(key string) Stat {
	if s == nil {
		return Stat{}
	}
	return s.Stats[key]
}

// Total is shorthand for Get(key).Total().
func (s *Set) Total(key string) float64 {
	return s.Get(key).Total()
}

// Skill returns the skill record for key, or the zero Skill.
func (s *Set) Skill(key string) Skill {
	if s == nil {
		return Skill{}
	}
	return s.Skills[key]
}

// Clone returns a deep copy of s.
//
// Postcondition: Mutating the clone never affects s.
func (s *Set) Clone() *Set {
	if s == nil {
		return New()
	}
	return &Set{
		Stats:  maps.Clone(s.Stats),
		Skills: maps.Clone(s.Skills),
		Enemy:  s.Enemy,
	}
}

// Keys returns the stat names present in s in sorted order.
func (s *Set) Keys() []string {
	out := make([]string, 0, len(s.Stats))
	for k := range s.Stats {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// AddBase adds v to the base of key.
func (s *Set) AddBase(key string, v float64) {
	st := s.Stats[key]
	st.Base += v
	s.Stats[key] = st
}

// AddPlus adds v to the plus of key.
func (s *Set) AddPlus(key string, v float64) {
	st := s.Stats[key]
	st.Plus += v
	s.Stats[key] = st
}

// AddPct adds v to the percentage of key.
func (s *Set) AddPct(key string, v float64) {
	st := s.Stats[key]
	st.Pct += v
	s.Stats[key] = st
}

var (
	scaledKey = regexp.MustCompile(`^(hp|atk|def)(Base|Plus|Pct)$`)
	skillKey  = regexp.MustCompile(`^(a|a2|a3|e|q)(Pct|Multi|Plus|Dmg|Cpct|Cdmg|Def|Ignore)$`)
)

var plusKeys = map[string]bool{
	Mastery: true, Recharge: true, Cpct: true, Cdmg: true, Heal: true,
	Dmg: true, Phy: true, Shield: true, Vaporize: true, Melt: true,
}

// Apply adds value under modifier key and reports whether the key is known.
// Unknown keys leave s untouched.
func (s *Set) Apply(key string, value float64) bool {
	if m := scaledKey.FindStringSubmatch(key); m != nil {
		switch m[2] {
		case "Base":
			s.AddBase(m[1], value)
		case "Plus":
			s.AddPlus(m[1], value)
		case "Pct":
			s.AddPct(m[1], value)
		}
		return true
	}
	if plusKeys[key] {
		s.AddPlus(key, value)
		return true
	}
	if m := skillKey.FindStringSubmatch(key); m != nil {
		sk := s.Skills[m[1]]
		switch m[2] {
		case "Pct":
			sk.Pct += value
		case "Multi":
			sk.Multi += value
		case "Plus":
			sk.Plus += value
		case "Dmg":
			sk.Dmg += value
		case "Cpct":
			sk.Cpct += value
		case "Cdmg":
			sk.Cdmg += value
		case "Def":
			sk.Def += value
		case "Ignore":
			sk.Ignore += value
		}
		s.Skills[m[1]] = sk
		return true
	}
	switch key {
	case "kx":
		s.Enemy.Kx += value
	case "phyKx":
		s.Enemy.PhyKx += value
	case "enemyDef":
		s.Enemy.Def += value
	case "ignore":
		s.Enemy.Ignore += value
	default:
		return false
	}
	return true
}

// Modifier is a single keyed contribution.
type Modifier struct {
	Key   string  `json:"key" yaml:"key"`
	Value float64 `json:"value" yaml:"value"`
}

// ApplyAll applies every modifier in order and returns the keys that were not
// recognised.
func (s *Set) ApplyAll(mods []Modifier) []string {
	var unknown []string
	for _, m := range mods {
		if !s.Apply(m.Key, m.Value) {
			unknown = append(unknown, m.Key)
		}
	}
	return unknown
}
