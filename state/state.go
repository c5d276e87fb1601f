// Package state defines the game state seen by the solver and the dense
// index that numbers every state.
package state

import (
	"fmt"
	"math/bits"
	"strings"

	"github.com/domino14/yahtzee/dice"
	"github.com/domino14/yahtzee/scoring"
)

// MaxRerolls is the number of optional rerolls after the first roll of a
// round.
const MaxRerolls = 2

// Mask has bit i set once the variant's i-th category has been written.
type Mask uint16

func (m Mask) Has(i int) bool {
	return m&(1<<i) != 0
}

func (m Mask) With(i int) Mask {
	return m | 1<<i
}

// Filled is the number of written categories.
func (m Mask) Filled() int {
	return bits.OnesCount16(uint16(m))
}

// GameState is what the policy needs to know to act: the canonical roll, the
// written categories, and how many rerolls are left this round.
type GameState struct {
	Dice    dice.Dice
	Mask    Mask
	Rerolls uint8
}

// Start is the state at the top of a round with the given roll.
func Start(d dice.Dice, m Mask) GameState {
	return GameState{Dice: dice.Canonicalize(d), Mask: m, Rerolls: MaxRerolls}
}

func (s GameState) String() string {
	return fmt.Sprintf("<dice: %v mask: %b rerolls: %d>", s.Dice, s.Mask, s.Rerolls)
}

// Describe renders the state with category names for the variant.
func (s GameState) Describe(v scoring.Variant) string {
	var open []string
	for i, c := range v.Categories {
		if !s.Mask.Has(i) {
			open = append(open, c.String())
		}
	}
	return fmt.Sprintf("dice %v, %d rerolls left, open: %s",
		s.Dice, s.Rerolls, strings.Join(open, ", "))
}
