package profile_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dmgcalc/internal/game/artifact"
	"github.com/cory-johannsen/dmgcalc/internal/game/character"
	"github.com/cory-johannsen/dmgcalc/internal/game/profile"
)

func TestNew_UnknownCharacter_NotFound(t *testing.T) {
	f := newFixture(t)
	b, err := profile.New(profile.RawDescriptor{ID: 1}, "100000001", f.deps)
	assert.ErrorIs(t, err, character.ErrNotFound)
	assert.Nil(t, b)
}

func TestNew_Defaults(t *testing.T) {
	f := newFixture(t)
	b, err := profile.New(profile.RawDescriptor{ID: xinyanID}, "", f.deps)
	require.NoError(t, err)
	assert.Equal(t, "辛焱", b.Name())
	assert.Equal(t, 1, b.Level)
	assert.Equal(t, 0, b.Cons)
	assert.Equal(t, 0, b.Promote)
	assert.Equal(t, "enka", b.DataSource)
	assert.Equal(t, "pyro", b.Elem)
	assert.Equal(t, fixedNow, b.Time)
	assert.Nil(t, b.Weapon)
	assert.Nil(t, b.Talent)
	assert.Nil(t, b.Artis)
	assert.NotEqual(t, uuid.Nil, b.Key)
}

func TestNew_LvTakesPrecedence(t *testing.T) {
	f := newFixture(t)
	b, err := profile.New(profile.RawDescriptor{ID: xinyanID, Lv: 80, Level: 90}, "", f.deps)
	require.NoError(t, err)
	assert.Equal(t, 80, b.Level)
	assert.Equal(t, 5, b.Promote)
}

func TestNew_ExplicitPromoteKept(t *testing.T) {
	f := newFixture(t)
	zero := 0
	b, err := profile.New(profile.RawDescriptor{ID: xinyanID, Level: 90, Promote: &zero}, "", f.deps)
	require.NoError(t, err)
	assert.Equal(t, 0, b.Promote)
}

func TestPropertyWeaponPromote_ZeroBelowTwenty(t *testing.T) {
	f := newFixture(t)
	rapid.Check(t, func(t *rapid.T) {
		lv := rapid.IntRange(1, 19).Draw(t, "lv")
		promote := rapid.IntRange(0, 6).Draw(t, "promote")
		raw := profile.RawDescriptor{ID: xinyanID, Weapon: &profile.RawWeapon{Name: "狼的末路", Level: lv, Promote: &promote}}
		b, err := profile.New(raw, "", f.deps)
		require.NoError(t, err)
		assert.Equal(t, 0, b.Weapon.Promote)
	})
}

func TestNew_WeaponDefaults(t *testing.T) {
	f := newFixture(t)
	raw := profile.RawDescriptor{ID: xinyanID, Weapon: &profile.RawWeapon{Name: "狼的末路", Lv: 70, Rank: 5, Affix: 9}}
	b, err := profile.New(raw, "", f.deps)
	require.NoError(t, err)
	assert.Equal(t, profile.Weapon{Name: "狼的末路", Star: 5, Level: 70, Promote: 4, Affix: 5}, *b.Weapon)
}

func TestHasData_Complete(t *testing.T) {
	f := newFixture(t)
	b, err := profile.New(fullRaw(xinyanID), "", f.deps)
	require.NoError(t, err)
	assert.True(t, b.HasData())
	assert.True(t, b.HasArtis())
}

func TestHasData_MissingParts(t *testing.T) {
	f := newFixture(t)
	strip := map[string]func(*profile.RawDescriptor){
		"weapon": func(r *profile.RawDescriptor) { r.Weapon = nil },
		"talent": func(r *profile.RawDescriptor) { r.Talent = nil },
		"artis":  func(r *profile.RawDescriptor) { r.Artis = nil },
	}
	for name, fn := range strip {
		raw := fullRaw(xinyanID)
		fn(&raw)
		b, err := profile.New(raw, "", f.deps)
		require.NoError(t, err)
		assert.False(t, b.HasData(), name)
		assert.False(t, b.HasArtis(), name)
	}
}

func TestPropertyHasData_UntrustedSource(t *testing.T) {
	f := newFixture(t)
	rapid.Check(t, func(t *rapid.T) {
		src := rapid.StringMatching(`[a-z]{1,8}`).Filter(func(s string) bool {
			return s != "enka" && s != "change" && s != "miao"
		}).Draw(t, "source")
		raw := fullRaw(xinyanID)
		raw.DataSource = src
		b, err := profile.New(raw, "", f.deps)
		require.NoError(t, err)
		assert.False(t, b.HasData())
	})
}

func TestHasData_ConfiguredSources(t *testing.T) {
	f := newFixture(t)
	f.deps.DataSources = []string{"input"}
	raw := fullRaw(xinyanID)
	raw.DataSource = "input"
	b, err := profile.New(raw, "", f.deps)
	require.NoError(t, err)
	assert.True(t, b.HasData())

	raw.DataSource = "enka"
	b, err = profile.New(raw, "", f.deps)
	require.NoError(t, err)
	assert.False(t, b.HasData())
}

func TestHasData_TravelerNeedsElement(t *testing.T) {
	f := newFixture(t)
	raw := fullRaw(aetherID)
	b, err := profile.New(raw, "", f.deps)
	require.NoError(t, err)
	assert.Equal(t, "空", b.Name())
	assert.False(t, b.HasData())

	raw.Elem = "anemo"
	b, err = profile.New(raw, "", f.deps)
	require.NoError(t, err)
	assert.True(t, b.HasData())
}

func TestHasArtis_EmptyList(t *testing.T) {
	f := newFixture(t)
	raw := fullRaw(xinyanID)
	raw.Artis = []artifact.Piece{}
	b, err := profile.New(raw, "", f.deps)
	require.NoError(t, err)
	assert.True(t, b.HasData())
	assert.False(t, b.HasArtis())
}

func TestCostume_Variants(t *testing.T) {
	f := newFixture(t)

	raw := fullRaw(xinyanID)
	raw.Costume = profile.Costume{200301, 200302}
	b, err := profile.New(raw, "", f.deps)
	require.NoError(t, err)
	id, variant := b.Costume()
	assert.Equal(t, 200301, id)
	assert.Equal(t, profile.CostumeNormal, variant)

	raw.Cons = 6
	b, err = profile.New(raw, "", f.deps)
	require.NoError(t, err)
	_, variant = b.Costume()
	assert.Equal(t, profile.CostumeSuper, variant)

	raw.Cons = 0
	raw.Talent = map[string]int{"a": 1, "e": 1, "q": 1}
	b, err = profile.New(raw, "", f.deps)
	require.NoError(t, err)
	assert.Equal(t, "111", b.Talent.OriginalSequence())
	_, variant = b.Costume()
	assert.Equal(t, profile.CostumeNormal, variant)

	raw.Talent = map[string]int{"a": 10, "e": 10, "q": 10}
	b, err = profile.New(raw, "", f.deps)
	require.NoError(t, err)
	_, variant = b.Costume()
	assert.Equal(t, profile.CostumeSuper, variant)
}

func TestCostume_UnmarshalNumberOrList(t *testing.T) {
	var raw profile.RawDescriptor
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"costume":7}`), &raw))
	assert.Equal(t, 7, raw.Costume.ID())
	require.NoError(t, json.Unmarshal([]byte(`{"id":1,"costume":[8,9]}`), &raw))
	assert.Equal(t, 8, raw.Costume.ID())
	assert.Error(t, json.Unmarshal([]byte(`{"id":1,"costume":"x"}`), &raw))
}

func TestPanel_LegacyNames(t *testing.T) {
	var p profile.Panel
	require.NoError(t, json.Unmarshal([]byte(`{"atk":2000,"hInc":10,"cRate":60,"cDmg":150,"dmgBonus":46.6,"phyBonus":5}`), &p))
	assert.Equal(t, profile.Panel{Atk: 2000, Heal: 10, Cpct: 60, Cdmg: 150, Dmg: 46.6, Phy: 5}, p)

	require.NoError(t, json.Unmarshal([]byte(`{"cpct":70,"cRate":60}`), &p))
	assert.Equal(t, 70.0, p.Cpct)
}

func TestDataSourceName(t *testing.T) {
	f := newFixture(t)
	cases := map[string]string{"": "Enka.Network", "enka": "Enka.Network", "miao": "喵喵Api", "input": "Input", "other": "Enka.Network"}
	for src, want := range cases {
		b, err := profile.New(profile.RawDescriptor{ID: xinyanID, DataSource: src}, "", f.deps)
		require.NoError(t, err)
		assert.Equal(t, want, b.DataSourceName(), src)
	}
}

func TestUpdateTime_Format(t *testing.T) {
	f := newFixture(t)
	b, err := profile.New(profile.RawDescriptor{ID: xinyanID}, "", f.deps)
	require.NoError(t, err)
	assert.Equal(t, "03-05 07:09", b.UpdateTime())
}

func TestParseRaw_UpdateTimeForms(t *testing.T) {
	local := time.Date(2023, 5, 1, 12, 0, 0, 0, time.Local).UnixMilli()
	cases := map[string]int64{
		`1709622540000`:               1709622540000,
		`"1709622540000"`:             1709622540000,
		`"2023-05-01 12:00:00"`:       local,
		`"2023-05-01T12:00:00+08:00"`: time.Date(2023, 5, 1, 4, 0, 0, 0, time.UTC).UnixMilli(),
		`""`:                          0,
		`null`:                        0,
	}
	for js, want := range cases {
		raw, err := profile.ParseRaw([]byte(`{"id": 10000044, "level": 90, "updateTime": ` + js + `}`))
		require.NoError(t, err, js)
		assert.Equal(t, profile.Timestamp(want), raw.UpdateTime, js)
	}

	_, err := profile.ParseRaw([]byte(`{"id": 10000044, "updateTime": "yesterday"}`))
	assert.Error(t, err)
}

func TestNew_StringUpdateTime(t *testing.T) {
	f := newFixture(t)
	raw, err := profile.ParseRaw([]byte(`{"id": 10000044, "level": 90, "updateTime": "2023-05-01 12:00:00"}`))
	require.NoError(t, err)
	b, err := profile.New(raw, "", f.deps)
	require.NoError(t, err)
	assert.Equal(t, "05-01 12:00", b.UpdateTime())
}

func TestSerialize_RoundTripTalentLevels(t *testing.T) {
	f := newFixture(t)
	rapid.Check(t, func(t *rapid.T) {
		raw := fullRaw(raidenID)
		raw.Cons = rapid.IntRange(0, 6).Draw(t, "cons")
		raw.Talent = map[string]int{
			"a": rapid.IntRange(1, 10).Draw(t, "a"),
			"e": rapid.IntRange(1, 10).Draw(t, "e"),
			"q": rapid.IntRange(1, 10).Draw(t, "q"),
		}
		b, err := profile.New(raw, "1", f.deps)
		require.NoError(t, err)

		data, err := json.Marshal(b)
		require.NoError(t, err)
		again, err := profile.ParseRaw(data)
		require.NoError(t, err)
		b2, err := profile.New(again, "1", f.deps)
		require.NoError(t, err)

		assert.Equal(t, b.TalentLevels(), b2.TalentLevels())
		assert.Equal(t, b.OriginalTalent(), b2.OriginalTalent())
		assert.Equal(t, *b.Weapon, *b2.Weapon)
		assert.Equal(t, b.Level, b2.Level)
		assert.Equal(t, b.Promote, b2.Promote)
		assert.Equal(t, b.Time.UnixMilli(), b2.Time.UnixMilli())
		assert.Equal(t, b.Artis.Pieces, b2.Artis.Pieces)
	})
}

func TestSerialize_TalentIsOriginalLevels(t *testing.T) {
	f := newFixture(t)
	raw := fullRaw(raidenID)
	raw.Cons = 3
	b, err := profile.New(raw, "", f.deps)
	require.NoError(t, err)
	assert.Equal(t, 12, b.TalentLevels()["q"])
	s := b.Serialize()
	assert.Equal(t, map[string]int{"a": 6, "e": 9, "q": 9}, s.Talent)
	assert.Equal(t, "雷电将军", s.Name)

	b2, err := profile.New(s.Raw(), "", f.deps)
	require.NoError(t, err)
	assert.Equal(t, b.TalentLevels(), b2.TalentLevels())
}
