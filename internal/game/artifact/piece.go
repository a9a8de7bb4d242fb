// Package artifact scores artifact pieces and resolves artifact set bonuses.
package artifact

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/dmgcalc/internal/game/attr"
)

// ErrInvalidPiece is returned for a malformed artifact piece.
var ErrInvalidPiece = errors.New("invalid artifact piece")

// Slot numbers run from flower (1) to circlet (5).
const (
	SlotFlower  = 1
	SlotCirclet = 5
)

// Piece is one equipped artifact.
type Piece struct {
	Slot  int             `json:"slot"`
	Set   string          `json:"set"`
	Level int             `json:"level"`
	Star  int             `json:"star"`
	Main  attr.Modifier   `json:"main"`
	Attrs []attr.Modifier `json:"attrs"`
}

// Validate checks the slot range and that every stat key is a known modifier.
func (p Piece) Validate() error {
	if p.Slot < SlotFlower || p.Slot > SlotCirclet {
		return fmt.Errorf("slot %d: %w", p.Slot, ErrInvalidPiece)
	}
	scratch := attr.New()
	if p.Main.Key != "" && !scratch.Apply(p.Main.Key, 0) {
		return fmt.Errorf("slot %d main stat %q: %w", p.Slot, p.Main.Key, ErrInvalidPiece)
	}
	for _, a := range p.Attrs {
		if !scratch.Apply(a.Key, 0) {
			return fmt.Errorf("slot %d sub stat %q: %w", p.Slot, a.Key, ErrInvalidPiece)
		}
	}
	return nil
}

// Modifiers returns the main stat followed by the sub stats.
func (p Piece) Modifiers() []attr.Modifier {
	out := make([]attr.Modifier, 0, len(p.Attrs)+1)
	if p.Main.Key != "" {
		out = append(out, p.Main)
	}
	return append(out, p.Attrs...)
}
