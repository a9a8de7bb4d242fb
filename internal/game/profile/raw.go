package profile

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cory-johannsen/dmgcalc/internal/game/artifact"
)

// Costume decodes either a single costume id or a list whose first entry is
// the worn costume.
type Costume []int

// UnmarshalJSON accepts a number, an array of numbers or null.
func (c *Costume) UnmarshalJSON(data []byte) error {
	var one int
	if err := json.Unmarshal(data, &one); err == nil {
		*c = Costume{one}
		return nil
	}
	var many []int
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("costume must be a number or a list of numbers: %w", err)
	}
	*c = many
	return nil
}

// ID returns the worn costume id, or 0.
func (c Costume) ID() int {
	if len(c) == 0 {
		return 0
	}
	return c[0]
}

// Timestamp is a build update time in Unix milliseconds.
type Timestamp int64

// timestampLayouts are the string forms accepted besides epoch milliseconds.
// Layouts without a zone are read in local time.
var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02"}

// UnmarshalJSON accepts epoch milliseconds as a number or a numeric string,
// an RFC 3339 string, "YYYY-MM-DD HH:mm:ss", or null.
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var ms int64
	if err := json.Unmarshal(data, &ms); err == nil {
		*ts = Timestamp(ms)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a number or a string: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*ts = 0
		return nil
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		*ts = Timestamp(ms)
		return nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			*ts = Timestamp(t.UnixMilli())
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}

// Time converts ts to a time.Time in local time.
func (ts Timestamp) Time() time.Time {
	return time.UnixMilli(int64(ts))
}

// Panel is a displayed attribute panel. The scaled stats carry both their
// total and their base; every other stat is a total.
type Panel struct {
	Atk      float64 `json:"atk"`
	AtkBase  float64 `json:"atkBase"`
	Def      float64 `json:"def"`
	DefBase  float64 `json:"defBase"`
	HP       float64 `json:"hp"`
	HPBase   float64 `json:"hpBase"`
	Mastery  float64 `json:"mastery"`
	Recharge float64 `json:"recharge"`
	Heal     float64 `json:"heal"`
	Cpct     float64 `json:"cpct"`
	Cdmg     float64 `json:"cdmg"`
	Dmg      float64 `json:"dmg"`
	Phy      float64 `json:"phy"`
}

// UnmarshalJSON also accepts the legacy names hInc, cRate, cDmg, dmgBonus
// and phyBonus. Canonical names win when both are present.
func (p *Panel) UnmarshalJSON(data []byte) error {
	type plain Panel
	var doc struct {
		plain
		HInc     *float64 `json:"hInc"`
		CRate    *float64 `json:"cRate"`
		CDmg     *float64 `json:"cDmg"`
		DmgBonus *float64 `json:"dmgBonus"`
		PhyBonus *float64 `json:"phyBonus"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*p = Panel(doc.plain)
	legacy := []struct {
		alt *float64
		dst *float64
	}{
		{doc.HInc, &p.Heal},
		{doc.CRate, &p.Cpct},
		{doc.CDmg, &p.Cdmg},
		{doc.DmgBonus, &p.Dmg},
		{doc.PhyBonus, &p.Phy},
	}
	for _, l := range legacy {
		if l.alt != nil && *l.dst == 0 {
			*l.dst = *l.alt
		}
	}
	return nil
}

// Overrides are flat bonuses declared by the caller and added on top of the
// computed attributes.
type Overrides struct {
	Heal float64 `json:"heal,omitempty"`
	Cpct float64 `json:"cpct,omitempty"`
	Cdmg float64 `json:"cdmg,omitempty"`
	Dmg  float64 `json:"dmg,omitempty"`
	Phy  float64 `json:"phy,omitempty"`
}

// RawWeapon is the weapon section of a RawDescriptor.
type RawWeapon struct {
	Name    string `json:"name"`
	Star    int    `json:"star"`
	Rank    int    `json:"rank"`
	Level   int    `json:"level"`
	Lv      int    `json:"lv"`
	Promote *int   `json:"promote"`
	Affix   int    `json:"affix"`
}

// RawDescriptor is the loosely typed build input. Every field is optional
// except ID.
type RawDescriptor struct {
	ID         int              `json:"id"`
	Elem       string           `json:"elem"`
	Lv         int              `json:"lv"`
	Level      int              `json:"level"`
	Cons       int              `json:"cons"`
	Fetter     int              `json:"fetter"`
	Costume    Costume          `json:"costume"`
	DataSource string           `json:"dataSource"`
	UpdateTime Timestamp        `json:"updateTime"`
	Time       Timestamp        `json:"_time"`
	Attr       *Panel           `json:"attr"`
	Overrides  *Overrides       `json:"overrides"`
	Weapon     *RawWeapon       `json:"weapon"`
	Talent     map[string]int   `json:"talent"`
	Artis      []artifact.Piece `json:"artis"`
	Promote    *int             `json:"promote"`
}

// ParseRaw decodes a RawDescriptor from JSON.
func ParseRaw(data []byte) (RawDescriptor, error) {
	var raw RawDescriptor
	if err := json.Unmarshal(data, &raw); err != nil {
		return RawDescriptor{}, fmt.Errorf("decoding build descriptor: %w", err)
	}
	return raw, nil
}
