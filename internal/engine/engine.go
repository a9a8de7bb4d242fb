// Package engine loads the content catalogs named by configuration and wires
// them into a ready-to-use evaluator.
package engine

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dmgcalc/internal/config"
	"github.com/cory-johannsen/dmgcalc/internal/game/artifact"
	"github.com/cory-johannsen/dmgcalc/internal/game/character"
	"github.com/cory-johannsen/dmgcalc/internal/game/dmg"
	"github.com/cory-johannsen/dmgcalc/internal/game/profile"
	"github.com/cory-johannsen/dmgcalc/internal/game/rules"
	"github.com/cory-johannsen/dmgcalc/internal/game/weapon"
)

// Engine bundles the loaded catalogs and the evaluator built on them.
type Engine struct {
	Characters *character.Catalog
	Weapons    *weapon.Catalog
	Sets       *artifact.SetCatalog
	Rules      *rules.Registry
	Deps       profile.Deps
	Resolver   *profile.AttrResolver
	Evaluator  *dmg.Evaluator
}

// Load reads every content directory and builds an Engine.
//
// Precondition: cfg has passed config.Validate; logger must be non-nil.
// Postcondition: Returns a ready Engine or the first loading error. Malformed
// rule modules are logged and skipped rather than failing the load.
func Load(cfg config.Config, logger *zap.Logger) (*Engine, error) {
	start := time.Now()

	chars, err := character.LoadDirectory(cfg.Content.Characters)
	if err != nil {
		return nil, fmt.Errorf("loading characters: %w", err)
	}
	weapons, err := weapon.LoadDirectory(cfg.Content.Weapons)
	if err != nil {
		return nil, fmt.Errorf("loading weapons: %w", err)
	}
	sets, err := artifact.LoadDirectory(cfg.Content.Artifacts)
	if err != nil {
		return nil, fmt.Errorf("loading artifact sets: %w", err)
	}
	reg, err := rules.LoadDirectory(cfg.Content.Rules)
	if reg == nil {
		return nil, fmt.Errorf("loading rule modules: %w", err)
	}
	if err != nil {
		logger.Warn("rule modules skipped; their characters report no damage data",
			zap.String("dir", cfg.Content.Rules),
			zap.Error(err),
		)
	}
	critMode, err := dmg.ParseCritMode(cfg.Engine.CritMode)
	if err != nil {
		return nil, err
	}

	resolver := profile.NewAttrResolver(weapons, cfg.Engine.AttrCalc, logger)
	eng := &Engine{
		Characters: chars,
		Weapons:    weapons,
		Sets:       sets,
		Rules:      reg,
		Deps: profile.Deps{
			Characters:  chars,
			Artifacts:   artifact.NewSetScorer(sets),
			DataSources: cfg.Engine.DataSources,
		},
		Resolver: resolver,
		Evaluator: dmg.NewEvaluator(reg, weapons, resolver, dmg.Options{
			DefaultEnemyLevel: cfg.Engine.DefaultEnemyLevel,
			CritMode:          critMode,
			ScriptLimit:       cfg.Engine.ScriptInstructionLimit,
		}, logger),
	}

	logger.Info("content loaded",
		zap.Int("characters", len(chars.All())),
		zap.Int("weapons", len(weapons.All())),
		zap.Int("artifact_sets", sets.Len()),
		zap.Int("rule_modules", len(reg.Names())),
		zap.Duration("elapsed", time.Since(start)),
	)
	return eng, nil
}
