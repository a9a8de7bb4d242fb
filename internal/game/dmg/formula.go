package dmg

// Reaction names accepted as the element argument of dmg and basic.
const (
	ElemPhysical = "phy"
	Vaporize     = "vaporize"
	Melt         = "melt"
)

// baseResistance is the enemy resistance before any reduction, in percent.
const baseResistance = 10

// reactionBase is the amplifying multiplier per character element and reaction.
var reactionBase = map[string]map[string]float64{
	"pyro":  {Vaporize: 1.5, Melt: 2},
	"hydro": {Vaporize: 2},
	"cryo":  {Melt: 1.5},
}

// DefenseMultiplier returns the share of damage left after enemy defense.
// enemyDef and ignore are percentages of defense reduced and ignored.
func DefenseMultiplier(level, enemyLevel int, enemyDef, ignore float64) float64 {
	self := float64(level + 100)
	enemy := float64(enemyLevel+100) * (1 - enemyDef/100) * (1 - ignore/100)
	if enemy < 0 {
		enemy = 0
	}
	return self / (self + enemy)
}

// ResistanceMultiplier returns the share of damage left after an enemy
// resistance of res percent.
func ResistanceMultiplier(res float64) float64 {
	switch {
	case res < 0:
		return 1 - res/200
	case res < 75:
		return 1 - res/100
	default:
		return 1 / (1 + 4*res/100)
	}
}

// ReactionMultiplier returns the amplifying multiplier of reaction for a
// character of elem with the given elemental mastery and reaction bonus (in
// percent). Reactions that do not apply to elem return 1.
func ReactionMultiplier(elem, reaction string, mastery, bonus float64) float64 {
	base, ok := reactionBase[elem][reaction]
	if !ok {
		return 1
	}
	return base * (1 + 2.78*mastery/(mastery+1400) + bonus/100)
}

// clamp bounds v to [lo, hi].
func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
