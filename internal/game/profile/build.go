// Package profile builds immutable character builds from raw descriptors and
// resolves their final attribute sets.
package profile

import (
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/dmgcalc/internal/game/artifact"
	"github.com/cory-johannsen/dmgcalc/internal/game/attr"
	"github.com/cory-johannsen/dmgcalc/internal/game/character"
	"github.com/cory-johannsen/dmgcalc/internal/game/growth"
	"github.com/cory-johannsen/dmgcalc/internal/game/weapon"
)

// DefaultDataSource is assumed when a descriptor names none.
const DefaultDataSource = "enka"

// trustedSources are the data sources whose builds carry usable data.
var trustedSources = map[string]bool{"enka": true, "change": true, "miao": true}

// dataSourceNames are the display names of known data sources.
var dataSourceNames = map[string]string{
	"enka":  "Enka.Network",
	"miao":  "喵喵Api",
	"input": "Input",
}

// travelerNames are the characters whose element is chosen by the player.
var travelerNames = map[string]bool{"空": true, "荧": true}

// weaponPromoteFloor is the weapon level below which a weapon cannot be ascended.
const weaponPromoteFloor = 20

// Weapon is the equipped weapon of a build.
type Weapon struct {
	Name    string `json:"name"`
	Star    int    `json:"star"`
	Level   int    `json:"level"`
	Promote int    `json:"promote"`
	Affix   int    `json:"affix"`
}

// Deps are the collaborators used to construct a Build.
type Deps struct {
	Characters character.Lookup
	Artifacts  artifact.Scorer
	// Now stamps builds that carry no update time. Defaults to time.Now.
	Now func() time.Time
	// DataSources overrides the trusted data sources when non-empty.
	DataSources []string
}

// Build is one character's equipped and levelled state. It is immutable once
// constructed, apart from the attribute cache written by AttrResolver.
type Build struct {
	// Key identifies this build instance for single-flight attribute resolution.
	Key  uuid.UUID
	UID  string
	Char *character.Descriptor

	Elem       string
	Level      int
	Promote    int
	Cons       int
	Fetter     int
	DataSource string
	Time       time.Time

	// Weapon, Talent and Artis are nil when the descriptor omitted them.
	Weapon *Weapon
	Talent character.TalentSet
	Artis  *artifact.Scored

	Declared  *Panel
	Overrides Overrides

	costume Costume
	trusted map[string]bool
	attr    atomic.Pointer[attr.Set]
}

// New constructs a Build from raw.
//
// Precondition: deps.Characters and deps.Artifacts must not be nil.
// Postcondition: Returns a Build, or an error wrapping character.ErrNotFound
// when the identity cannot be resolved, or artifact.ErrInvalidPiece for
// malformed artifacts. No partial Build is ever returned.
func New(raw RawDescriptor, uid string, deps Deps) (*Build, error) {
	desc, err := deps.Characters.Get(character.Query{ID: raw.ID, Elem: raw.Elem})
	if err != nil {
		return nil, fmt.Errorf("resolving character %d: %w", raw.ID, err)
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}

	b := &Build{
		Key:        uuid.New(),
		UID:        uid,
		Char:       desc,
		Elem:       firstString(raw.Elem, desc.Elem),
		Level:      firstInt(raw.Lv, raw.Level, 1),
		Cons:       raw.Cons,
		Fetter:     raw.Fetter,
		DataSource: firstString(raw.DataSource, DefaultDataSource),
		Declared:   raw.Attr,
		costume:    raw.Costume,
		trusted:    trustedSources,
	}
	if len(deps.DataSources) > 0 {
		b.trusted = make(map[string]bool, len(deps.DataSources))
		for _, src := range deps.DataSources {
			b.trusted[src] = true
		}
	}
	if raw.Overrides != nil {
		b.Overrides = *raw.Overrides
	}
	if raw.Promote != nil {
		b.Promote = *raw.Promote
	} else {
		b.Promote = growth.CalcPromote(b.Level)
	}
	switch {
	case raw.Time != 0:
		b.Time = raw.Time.Time()
	case raw.UpdateTime != 0:
		b.Time = raw.UpdateTime.Time()
	default:
		b.Time = now()
	}

	if raw.Weapon != nil {
		b.Weapon = newWeapon(*raw.Weapon)
	}
	if raw.Talent != nil {
		b.Talent = desc.Talents(raw.Talent, b.Cons)
	}
	if raw.Artis != nil {
		scored, err := deps.Artifacts.Score(desc, b.Elem, raw.Artis)
		if err != nil {
			return nil, fmt.Errorf("scoring artifacts of %s: %w", desc.Name, err)
		}
		b.Artis = scored
	}
	return b, nil
}

func newWeapon(raw RawWeapon) *Weapon {
	w := &Weapon{
		Name:  raw.Name,
		Star:  firstInt(raw.Rank, raw.Star, 1),
		Level: firstInt(raw.Level, raw.Lv, 1),
		Affix: weapon.ClampAffix(raw.Affix),
	}
	if raw.Promote != nil {
		w.Promote = *raw.Promote
	} else {
		w.Promote = growth.CalcPromote(w.Level)
	}
	if w.Level < weaponPromoteFloor {
		w.Promote = 0
	}
	return w
}

func firstInt(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstString(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// ID returns the character id.
func (b *Build) ID() int { return b.Char.ID }

// Name returns the character display name.
func (b *Build) Name() string { return b.Char.Name }

// HasData reports whether the build carries trustworthy, complete data.
func (b *Build) HasData() bool {
	if !b.trusted[b.DataSource] {
		return false
	}
	if b.Weapon == nil || b.Talent == nil || b.Artis == nil {
		return false
	}
	if travelerNames[b.Name()] {
		return b.Elem != ""
	}
	return true
}

// HasArtis reports whether the build has data and at least one artifact.
func (b *Build) HasArtis() bool {
	return b.HasData() && b.Artis.Length > 0
}

// Costume variants.
const (
	CostumeNormal = "normal"
	CostumeSuper  = "super"
)

// Costume returns the worn costume id and its variant. The super variant is
// unlocked by full constellations, an elite artifact mark, or all three
// talents trained to level 10 (original levels "10"+"10"+"10").
func (b *Build) Costume() (int, string) {
	id := b.costume.ID()
	if b.Cons == 6 || (b.Artis != nil && artifact.EliteClasses[b.Artis.MarkClass]) || b.Talent.OriginalSequence() == "101010" {
		return id, CostumeSuper
	}
	return id, CostumeNormal
}

// OriginalTalent returns the trained talent levels before constellation boosts.
func (b *Build) OriginalTalent() map[string]int {
	return b.Talent.Originals()
}

// TalentLevels returns the effective talent levels.
func (b *Build) TalentLevels() map[string]int {
	return b.Talent.Levels()
}

// DataSourceName returns the display name of the build's data source.
func (b *Build) DataSourceName() string {
	if n, ok := dataSourceNames[b.DataSource]; ok {
		return n
	}
	return dataSourceNames[DefaultDataSource]
}

// UpdateTime formats the build timestamp as "MM-DD HH:mm", or "" when unset.
func (b *Build) UpdateTime() string {
	if b.Time.IsZero() {
		return ""
	}
	return b.Time.Format("01-02 15:04")
}

// Attr returns the cached attribute set, or nil if not yet resolved. The
// returned set is shared and must not be mutated.
func (b *Build) Attr() *attr.Set {
	return b.attr.Load()
}

// Serialized is the durable projection of a Build. Talent holds trained
// levels only; effective levels are re-derived from cons when loaded.
type Serialized struct {
	ID         int              `json:"id"`
	Name       string           `json:"name"`
	Elem       string           `json:"elem"`
	Level      int              `json:"level"`
	Promote    int              `json:"promote"`
	Fetter     int              `json:"fetter"`
	Costume    int              `json:"costume"`
	Cons       int              `json:"cons"`
	Talent     map[string]int   `json:"talent,omitempty"`
	Attr       *Panel           `json:"attr,omitempty"`
	Overrides  *Overrides       `json:"overrides,omitempty"`
	Weapon     *Weapon          `json:"weapon,omitempty"`
	Artis      []artifact.Piece `json:"artis"`
	DataSource string           `json:"dataSource"`
	Time       int64            `json:"_time"`
}

// Serialize projects the build into its durable form. The attribute panel is
// the resolved one when available, otherwise the declared one.
func (b *Build) Serialize() Serialized {
	costume, _ := b.Costume()
	s := Serialized{
		ID:         b.ID(),
		Name:       b.Name(),
		Elem:       b.Elem,
		Level:      b.Level,
		Promote:    b.Promote,
		Fetter:     b.Fetter,
		Costume:    costume,
		Cons:       b.Cons,
		Weapon:     b.Weapon,
		DataSource: b.DataSource,
		Time:       b.Time.UnixMilli(),
		Attr:       b.Declared,
	}
	if b.Talent != nil {
		s.Talent = b.Talent.Originals()
	}
	if b.Overrides != (Overrides{}) {
		o := b.Overrides
		s.Overrides = &o
	}
	if b.Artis != nil {
		s.Artis = append([]artifact.Piece{}, b.Artis.Pieces...)
	}
	if set := b.Attr(); set != nil {
		p := PanelOf(set)
		s.Attr = &p
	}
	return s
}

// MarshalJSON encodes the serialized projection.
func (b *Build) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Serialize())
}

// Raw converts the projection back into a descriptor for New.
func (s Serialized) Raw() RawDescriptor {
	raw := RawDescriptor{
		ID:         s.ID,
		Elem:       s.Elem,
		Level:      s.Level,
		Cons:       s.Cons,
		Fetter:     s.Fetter,
		Costume:    Costume{s.Costume},
		DataSource: s.DataSource,
		Time:       Timestamp(s.Time),
		Attr:       s.Attr,
		Overrides:  s.Overrides,
		Talent:     s.Talent,
		Artis:      s.Artis,
	}
	promote := s.Promote
	raw.Promote = &promote
	if s.Weapon != nil {
		wp := s.Weapon.Promote
		raw.Weapon = &RawWeapon{
			Name:    s.Weapon.Name,
			Star:    s.Weapon.Star,
			Level:   s.Weapon.Level,
			Promote: &wp,
			Affix:   s.Weapon.Affix,
		}
	}
	return raw
}

// PanelOf summarises an attribute set as a display panel.
func PanelOf(set *attr.Set) Panel {
	return Panel{
		Atk:      set.Total(attr.Atk),
		AtkBase:  set.Get(attr.Atk).Base,
		Def:      set.Total(attr.Def),
		DefBase:  set.Get(attr.Def).Base,
		HP:       set.Total(attr.HP),
		HPBase:   set.Get(attr.HP).Base,
		Mastery:  set.Total(attr.Mastery),
		Recharge: set.Total(attr.Recharge),
		Heal:     set.Total(attr.Heal),
		Cpct:     set.Total(attr.Cpct),
		Cdmg:     set.Total(attr.Cdmg),
		Dmg:      set.Total(attr.Dmg),
		Phy:      set.Total(attr.Phy),
	}
}
