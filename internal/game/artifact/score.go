package artifact

import (
	"fmt"
	"math"
	"sort"

	"github.com/cory-johannsen/dmgcalc/internal/game/attr"
	"github.com/cory-johannsen/dmgcalc/internal/game/character"
	"github.com/cory-johannsen/dmgcalc/internal/game/rules"
)

// rollUnit is the average value of one sub stat roll per modifier key.
var rollUnit = map[string]float64{
	"cpct":     3.89,
	"cdmg":     7.77,
	"atkPct":   5.83,
	"atkPlus":  19.45,
	"hpPct":    5.83,
	"hpPlus":   298.75,
	"defPct":   7.29,
	"defPlus":  23.15,
	"mastery":  23.31,
	"recharge": 6.48,
}

// markPerRoll converts a fully weighted roll to mark points; one crit damage
// roll is worth its own value.
const markPerRoll = 7.77

// markClasses lists each class with the inclusive upper bound of the average
// mark per piece it covers. The last class is open ended.
var markClasses = []struct {
	Class string
	Upper float64
}{
	{"D", 10},
	{"C", 16.5},
	{"B", 23.1},
	{"A", 29.7},
	{"S", 36.3},
	{"SS", 42.9},
	{"SSS", 49.5},
	{"ACE", 56.1},
	{"ACE²", 66},
}

// EliteClasses are the mark classes that unlock the super costume.
var EliteClasses = map[string]bool{"ACE": true, "ACE²": true}

// MarkClass returns the class of an average mark per piece.
func MarkClass(avg float64) string {
	for _, mc := range markClasses {
		if avg <= mc.Upper {
			return mc.Class
		}
	}
	return markClasses[len(markClasses)-1].Class
}

// PieceMark returns the weighted roll score of one piece's sub stats.
func PieceMark(p Piece, weights map[string]float64) float64 {
	total := 0.0
	for _, a := range p.Attrs {
		unit, ok := rollUnit[a.Key]
		if !ok {
			continue
		}
		total += a.Value / unit * weights[a.Key] / 100 * markPerRoll
	}
	return total
}

// Scored is the aggregate of a build's artifacts.
type Scored struct {
	Pieces []Piece
	// Sets counts equipped pieces per set name.
	Sets map[string]int
	// Modifiers are the piece stats followed by active set bonuses.
	Modifiers []attr.Modifier
	// Buffs are the conditional four piece bonuses, labelled "artifact".
	Buffs     []*rules.BuffSpec
	Mark      float64
	MarkClass string
	Length    int
}

// Scorer aggregates and scores the artifacts of a build.
type Scorer interface {
	Score(desc *character.Descriptor, elem string, pieces []Piece) (*Scored, error)
}

// SetScorer scores pieces against an artifact set catalog.
type SetScorer struct {
	sets *SetCatalog
}

// NewSetScorer creates a SetScorer.
//
// Precondition: sets must not be nil.
func NewSetScorer(sets *SetCatalog) *SetScorer {
	return &SetScorer{sets: sets}
}

// Score validates the pieces, sums their stats, activates set bonuses and
// computes the mark. Unknown set names contribute no bonus.
//
// Precondition: desc must not be nil.
// Postcondition: Returns a Scored with Length == len(pieces), or an error
// wrapping ErrInvalidPiece.
func (s *SetScorer) Score(desc *character.Descriptor, elem string, pieces []Piece) (*Scored, error) {
	sorted := append([]Piece(nil), pieces...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Slot < sorted[j].Slot })

	out := &Scored{
		Pieces: sorted,
		Sets:   make(map[string]int),
		Length: len(sorted),
	}
	seen := make(map[int]bool, len(sorted))
	weights := desc.ArtifactWeights()
	for _, p := range sorted {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if seen[p.Slot] {
			return nil, fmt.Errorf("slot %d equipped twice: %w", p.Slot, ErrInvalidPiece)
		}
		seen[p.Slot] = true
		if p.Set != "" {
			out.Sets[p.Set]++
		}
		out.Modifiers = append(out.Modifiers, p.Modifiers()...)
		out.Mark += PieceMark(p, weights)
	}

	names := make([]string, 0, len(out.Sets))
	for name := range out.Sets {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		set, ok := s.sets.Get(name)
		if !ok {
			continue
		}
		count := out.Sets[name]
		out.Modifiers = append(out.Modifiers, set.Bonuses(count, elem)...)
		if count >= 4 {
			out.Buffs = append(out.Buffs, set.Buffs.WithSource("artifact")...)
		}
	}

	out.Mark = math.Round(out.Mark*10) / 10
	if out.Length > 0 {
		out.MarkClass = MarkClass(out.Mark / float64(out.Length))
	} else {
		out.MarkClass = MarkClass(0)
	}
	return out, nil
}
