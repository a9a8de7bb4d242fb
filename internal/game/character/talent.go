package character

import (
	"strconv"

	"github.com/cory-johannsen/dmgcalc/internal/game/growth"
)

// TalentSlots lists the talent slots in display order.
var TalentSlots = []string{"a", "e", "q"}

// constellationBoost is the talent level gained from a constellation boost.
const constellationBoost = 3

// Talent is the effective and the originally trained level of one slot.
type Talent struct {
	Level    int `json:"level"`
	Original int `json:"original"`
}

// TalentSet maps a slot ("a", "e", "q") to its levels.
type TalentSet map[string]Talent

// Levels reduces the set to effective levels.
func (t TalentSet) Levels() map[string]int {
	out := make(map[string]int, len(t))
	for k, v := range t {
		out[k] = v.Level
	}
	return out
}

// Originals reduces the set to trained levels.
func (t TalentSet) Originals() map[string]int {
	out := make(map[string]int, len(t))
	for k, v := range t {
		out[k] = v.Original
	}
	return out
}

// OriginalSequence joins the original levels in slot order, e.g. "101010".
func (t TalentSet) OriginalSequence() string {
	s := ""
	for _, slot := range TalentSlots {
		if v, ok := t[slot]; ok {
			s += strconv.Itoa(v.Original)
		}
	}
	return s
}

// Talents builds the talent set of a character from trained levels, adding
// the constellation boost to every slot whose boost rank is reached.
//
// Postcondition: Every Level is in [1, growth.MaxTalentLevel]; Original is
// the input level clamped to [1, 10].
func (d *Descriptor) Talents(originals map[string]int, cons int) TalentSet {
	out := make(TalentSet, len(originals))
	for slot, lv := range originals {
		if lv < 1 {
			lv = 1
		}
		if lv > 10 {
			lv = 10
		}
		level := lv
		if rank, ok := d.TalentCons[slot]; ok && rank > 0 && cons >= rank {
			level += constellationBoost
		}
		if level > growth.MaxTalentLevel {
			level = growth.MaxTalentLevel
		}
		out[slot] = Talent{Level: level, Original: lv}
	}
	return out
}
