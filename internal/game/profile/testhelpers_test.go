package profile_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/dmgcalc/internal/game/artifact"
	"github.com/cory-johannsen/dmgcalc/internal/game/attr"
	"github.com/cory-johannsen/dmgcalc/internal/game/character"
	"github.com/cory-johannsen/dmgcalc/internal/game/profile"
	"github.com/cory-johannsen/dmgcalc/internal/game/weapon"
)

const (
	xinyanID = 10000044
	raidenID = 10000052
	aetherID = 10000005
)

var fixedNow = time.Date(2024, 3, 5, 7, 9, 0, 0, time.UTC)

type fixture struct {
	deps    profile.Deps
	weapons *weapon.Catalog
}

func newFixture(t testing.TB) fixture {
	t.Helper()
	chars, err := character.LoadDirectory("../../../content/characters")
	require.NoError(t, err)
	sets, err := artifact.LoadDirectory("../../../content/artifacts")
	require.NoError(t, err)
	weapons, err := weapon.LoadDirectory("../../../content/weapons")
	require.NoError(t, err)
	return fixture{
		deps: profile.Deps{
			Characters: chars,
			Artifacts:  artifact.NewSetScorer(sets),
			Now:        func() time.Time { return fixedNow },
		},
		weapons: weapons,
	}
}

func fullRaw(id int) profile.RawDescriptor {
	return profile.RawDescriptor{
		ID:     id,
		Level:  90,
		Weapon: &profile.RawWeapon{Name: "狼的末路", Level: 90, Affix: 1},
		Talent: map[string]int{"a": 6, "e": 9, "q": 9},
		Artis: []artifact.Piece{
			{Slot: 1, Set: "苍白之火", Level: 20, Star: 5, Main: attr.Modifier{Key: "hpPlus", Value: 4780},
				Attrs: []attr.Modifier{{Key: "cpct", Value: 7.8}, {Key: "cdmg", Value: 14}}},
			{Slot: 2, Set: "苍白之火", Level: 20, Star: 5, Main: attr.Modifier{Key: "atkPlus", Value: 311},
				Attrs: []attr.Modifier{{Key: "atkPct", Value: 9.9}}},
		},
	}
}
