package dmg

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dmgcalc/internal/game/attr"
	"github.com/cory-johannsen/dmgcalc/internal/game/rules"
)

// AppliedBuff records one active buff and the values it contributed.
type AppliedBuff struct {
	Title  string          `json:"title"`
	Source string          `json:"source"`
	Values []attr.Modifier `json:"values"`
}

// BuffEngine folds buff lists into an evaluation context.
type BuffEngine struct {
	logger *zap.Logger
}

// NewBuffEngine creates a BuffEngine.
//
// Precondition: logger must not be nil.
func NewBuffEngine(logger *zap.Logger) *BuffEngine {
	return &BuffEngine{logger: logger}
}

// Evaluate applies buffs to ctx in declared order. A buff is active when its
// constellation gate is met and its check holds against the context as
// extended by every earlier buff. Each value of an active buff is added to
// ctx.Modifiers and applied to ctx.Attr before the next value resolves;
// values under keys the attribute set does not know only accumulate.
//
// Precondition: ctx.Attr and ctx.Modifiers must not be nil and ctx.Attr must
// be owned by this evaluation.
// Postcondition: Returns ctx.Modifiers and the active buffs in order, or the
// first error raised by a check or value.
func (e *BuffEngine) Evaluate(buffs []*rules.BuffSpec, ctx *rules.Context) (rules.ModifierMap, []AppliedBuff, error) {
	var applied []AppliedBuff
	for _, b := range buffs {
		if b.MinCons > 0 && ctx.Cons < b.MinCons {
			continue
		}
		ok, err := b.Check.Holds(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("buff %q check: %w", b.Title, err)
		}
		if !ok {
			continue
		}
		ab := AppliedBuff{Title: b.Title, Source: b.Source}
		for _, m := range b.Data {
			v, err := rules.Resolve(m.Rule, ctx)
			if err != nil {
				return nil, nil, fmt.Errorf("buff %q key %q: %w", b.Title, m.Key, err)
			}
			ctx.Modifiers.Add(m.Key, v)
			ctx.Attr.Apply(m.Key, v)
			ab.Values = append(ab.Values, attr.Modifier{Key: m.Key, Value: v})
		}
		applied = append(applied, ab)
	}
	e.logger.Debug("buffs evaluated",
		zap.String("character", ctx.Name),
		zap.Int("candidates", len(buffs)),
		zap.Int("active", len(applied)),
	)
	return ctx.Modifiers, applied, nil
}
