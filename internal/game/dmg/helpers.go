package dmg

import (
	"github.com/cory-johannsen/dmgcalc/internal/game/attr"
	"github.com/cory-johannsen/dmgcalc/internal/game/rules"
)

// Term is the breakdown of one helper call.
type Term struct {
	Helper     string  `json:"helper"`
	Key        string  `json:"key,omitempty"`
	Element    string  `json:"element,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty"`
	Base       float64 `json:"base"`
	Bonus      float64 `json:"bonus,omitempty"`
	CritRate   float64 `json:"critRate,omitempty"`
	CritDmg    float64 `json:"critDmg,omitempty"`
	Defense    float64 `json:"defense,omitempty"`
	Resistance float64 `json:"resistance,omitempty"`
	Reaction   float64 `json:"reaction,omitempty"`
}

// calculator implements rules.Helpers over a fully buffed attribute set.
type calculator struct {
	set        *attr.Set
	level      int
	elem       string
	enemyLevel int
	terms      []Term
}

var _ rules.Helpers = (*calculator)(nil)

func newCalculator(set *attr.Set, level int, elem string, enemyLevel int) *calculator {
	return &calculator{set: set, level: level, elem: elem, enemyLevel: enemyLevel}
}

// Dmg scales a talent multiplier (percent of attack) into a base value and
// runs it through Basic.
func (c *calculator) Dmg(pct float64, key, ele string) rules.Outcome {
	sk := c.set.Skill(key)
	atk := c.set.Total(attr.Atk)
	base := atk*(pct+sk.Pct)/100*(1+sk.Multi/100) + sk.Plus
	return c.basic("dmg", pct, base, key, ele)
}

// Basic applies bonus, crit, defense, resistance and reaction to base.
func (c *calculator) Basic(base float64, key, ele string) rules.Outcome {
	return c.basic("basic", 0, base, key, ele)
}

func (c *calculator) basic(helper string, pct, base float64, key, ele string) rules.Outcome {
	sk := c.set.Skill(key)
	enemy := c.set.Enemy
	physical := ele == ElemPhysical

	bonusKey := attr.Dmg
	if physical {
		bonusKey = attr.Phy
	}
	bonus := 1 + (c.set.Total(bonusKey)+sk.Dmg)/100
	cpct := clamp(c.set.Total(attr.Cpct)+sk.Cpct, 0, 100) / 100
	cdmg := (c.set.Total(attr.Cdmg) + sk.Cdmg) / 100

	def := DefenseMultiplier(c.level, c.enemyLevel, enemy.Def+sk.Def, enemy.Ignore+sk.Ignore)
	res := baseResistance - enemy.Kx
	if physical {
		res -= enemy.PhyKx
	}
	resMulti := ResistanceMultiplier(res)

	reaction := 1.0
	if ele == Vaporize || ele == Melt {
		reaction = ReactionMultiplier(c.elem, ele, c.set.Total(attr.Mastery), c.set.Total(ele))
	}

	nonCrit := base * bonus * def * resMulti * reaction
	out := rules.Outcome{
		Kind:    rules.KindDamage,
		NonCrit: nonCrit,
		Crit:    nonCrit * (1 + cdmg),
		Avg:     nonCrit * (1 + cpct*cdmg),
	}
	c.terms = append(c.terms, Term{
		Helper:     helper,
		Key:        key,
		Element:    ele,
		Multiplier: pct,
		Base:       base,
		Bonus:      bonus,
		CritRate:   cpct,
		CritDmg:    cdmg,
		Defense:    def,
		Resistance: resMulti,
		Reaction:   reaction,
	})
	return out
}

// Shield returns v unchanged; shields are not damage.
func (c *calculator) Shield(v float64) rules.Outcome {
	c.terms = append(c.terms, Term{Helper: "shield", Base: v})
	return rules.ShieldOutcome(v)
}

// Heal applies the healing bonus to v.
func (c *calculator) Heal(v float64) rules.Outcome {
	bonus := 1 + c.set.Total(attr.Heal)/100
	h := v * bonus
	c.terms = append(c.terms, Term{Helper: "heal", Base: v, Bonus: bonus})
	return rules.Outcome{Kind: rules.KindHeal, Value: h, Crit: h, NonCrit: h, Avg: h}
}
