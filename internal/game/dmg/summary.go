package dmg

import (
	"github.com/cory-johannsen/dmgcalc/internal/game/profile"
)

// MainAttr is one headline stat named by a rule module.
type MainAttr struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Summary is a build summary extended with what the character's rule module
// declares. Without a module HasDmg is false and the module fields are empty.
type Summary struct {
	profile.Summary
	HasDmg    bool         `json:"hasDmg"`
	EnemyName string       `json:"enemyName,omitempty"`
	MainAttr  []MainAttr   `json:"mainAttr,omitempty"`
	Details   []DetailInfo `json:"details,omitempty"`
}

// Summarize describes b for display. It succeeds for builds without damage
// rules or without complete data.
//
// Postcondition: Returns the summary, or an error when b's attributes cannot
// be resolved.
func (e *Evaluator) Summarize(b *profile.Build) (*Summary, error) {
	base, err := e.resolver.Summarize(b)
	if err != nil {
		return nil, err
	}
	out := &Summary{Summary: base, HasDmg: e.HasDmg(b)}
	m, ok := e.rules.Get(b.Name())
	if !ok {
		return out, nil
	}
	out.EnemyName = m.EnemyName
	set := b.Attr()
	for _, key := range m.MainAttr {
		out.MainAttr = append(out.MainAttr, MainAttr{Key: key, Value: set.Total(key)})
	}
	out.Details, _ = e.Details(b.Name())
	return out, nil
}
