// Package main provides a command-line damage calculator. It evaluates a
// profile read from a JSON file or loaded from the profile store and prints
// the result as JSON.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dmgcalc/internal/config"
	"github.com/cory-johannsen/dmgcalc/internal/engine"
	"github.com/cory-johannsen/dmgcalc/internal/game/dmg"
	"github.com/cory-johannsen/dmgcalc/internal/game/profile"
	"github.com/cory-johannsen/dmgcalc/internal/game/rules"
	"github.com/cory-johannsen/dmgcalc/internal/observability"
	"github.com/cory-johannsen/dmgcalc/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	profilePath := flag.String("profile", "", "path to a JSON build descriptor")
	uid := flag.String("uid", "", "player uid; with -char loads the stored profile when -profile is empty")
	charID := flag.Int("char", 0, "character id of the stored profile")
	detail := flag.Int("detail", -1, "detail index (-1 = module default)")
	enemyLevel := flag.Int("enemy-level", 0, "enemy level (0 = configured default)")
	critMode := flag.String("crit", "", "crit mode: expected or discrete (empty = configured default)")
	paramList := flag.String("params", "", "scenario params as key=value,key=value")
	all := flag.Bool("all", false, "evaluate every detail")
	list := flag.Bool("list", false, "list the details of the build's character and exit")
	summary := flag.Bool("summary", false, "print the profile summary and exit")
	save := flag.Bool("save", false, "store the build under -uid after evaluation")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	logger, err := observability.NewLogger(cfg.Logging, "dmgcalc")
	if err != nil {
		log.Fatalf("initializing logger: %v", err)
	}
	defer logger.Sync()

	eng, err := engine.Load(cfg, logger)
	if err != nil {
		logger.Fatal("loading content", zap.Error(err))
	}

	var repo *postgres.ProfileRepository
	if *profilePath == "" || *save {
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			logger.Fatal("connecting to database", zap.Error(err))
		}
		defer pool.Close()
		repo = postgres.NewProfileRepository(pool.DB())
	}

	raw, err := loadRaw(ctx, *profilePath, *uid, *charID, repo)
	if err != nil {
		logger.Fatal("loading profile", zap.Error(err))
	}
	b, err := profile.New(raw, *uid, eng.Deps)
	if err != nil {
		logger.Fatal("building profile", zap.Error(err))
	}

	if *list {
		details, err := eng.Evaluator.Details(b.Name())
		if err != nil {
			logger.Fatal("listing details", zap.Error(err))
		}
		printJSON(details)
		return
	}
	if *summary || !eng.Evaluator.HasDmg(b) {
		sum, err := eng.Evaluator.Summarize(b)
		if err != nil {
			logger.Fatal("summarising profile", zap.Error(err))
		}
		printJSON(sum)
		if !sum.HasDmg && !*summary {
			fmt.Fprintf(os.Stderr, "%s: no damage data available\n", b.Name())
			os.Exit(2)
		}
		return
	}

	params, err := parseParams(*paramList)
	if err != nil {
		logger.Fatal("parsing params", zap.Error(err))
	}
	sc := dmg.Scenario{
		EnemyLevel: *enemyLevel,
		Params:     params,
		CritMode:   dmg.CritMode(*critMode),
	}
	if *detail >= 0 {
		sc.DetailIndex = detail
	}

	if *all {
		results, err := eng.Evaluator.EvaluateAll(b, sc)
		if err != nil {
			logger.Fatal("evaluating", zap.Error(err))
		}
		printJSON(results)
	} else {
		res, err := eng.Evaluator.EvaluateDetail(b, sc)
		if err != nil {
			logger.Fatal("evaluating", zap.Error(err))
		}
		printJSON(res)
	}

	if *save {
		if *uid == "" {
			logger.Fatal("-save requires -uid")
		}
		if err := repo.Save(ctx, *uid, b.Serialize()); err != nil {
			logger.Fatal("saving profile", zap.Error(err))
		}
		logger.Info("profile saved", zap.String("uid", *uid), zap.Int("char", b.ID()))
	}
}

func loadRaw(ctx context.Context, path, uid string, charID int, repo *postgres.ProfileRepository) (profile.RawDescriptor, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return profile.RawDescriptor{}, fmt.Errorf("reading %q: %w", path, err)
		}
		return profile.ParseRaw(data)
	}
	if uid == "" || charID <= 0 {
		return profile.RawDescriptor{}, errors.New("either -profile or -uid with -char is required")
	}
	sp, err := repo.Get(ctx, uid, charID)
	if err != nil {
		return profile.RawDescriptor{}, err
	}
	return sp.Profile.Raw(), nil
}

// parseParams reads "k=v,k=v" into scenario params.
func parseParams(s string) (rules.Params, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	out := rules.Params{}
	for _, pair := range strings.Split(s, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("param %q: want key=value", pair)
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, fmt.Errorf("param %q: %w", k, err)
		}
		out[k] = f
	}
	return out, nil
}

func printJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		log.Fatalf("encoding output: %v", err)
	}
}
