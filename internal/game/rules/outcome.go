package rules

// OutcomeKind tells what a detail produced.
type OutcomeKind string

const (
	// KindDamage is a hit run through bonus, crit and mitigation math.
	KindDamage OutcomeKind = "damage"
	// KindShield is a flat absorption amount.
	KindShield OutcomeKind = "shield"
	// KindHeal is a healing amount.
	KindHeal OutcomeKind = "heal"
	// KindValue is a plain number returned by a formula.
	KindValue OutcomeKind = "value"
)

// Outcome is the result of a damage function.
type Outcome struct {
	Kind    OutcomeKind
	Crit    float64
	NonCrit float64
	Avg     float64
	// Value is set for shield, heal and plain outcomes.
	Value float64
}

// Helpers are the calculators exposed to damage functions.
type Helpers interface {
	// Dmg applies the standard damage formula to a talent multiplier (in
	// percent of attack) for damage key (a, a2, a3, e, q). ele is "" for the
	// character element, "phy" for physical, or an amplifying reaction.
	Dmg(pct float64, key, ele string) Outcome
	// Basic applies bonus, crit and mitigation to a precomputed base value.
	Basic(base float64, key, ele string) Outcome
	// Shield returns a flat absorption amount without any mitigation.
	Shield(v float64) Outcome
	// Heal applies the healing bonus to v.
	Heal(v float64) Outcome
}

// ShieldOutcome returns the outcome of a flat shield.
func ShieldOutcome(v float64) Outcome {
	return Outcome{Kind: KindShield, Value: v, Crit: v, NonCrit: v, Avg: v}
}

// ValueOutcome wraps a plain number.
func ValueOutcome(v float64) Outcome {
	return Outcome{Kind: KindValue, Value: v, Crit: v, NonCrit: v, Avg: v}
}
