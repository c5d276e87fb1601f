package state

import (
	"fmt"

	"github.com/domino14/yahtzee/dice"
	"github.com/domino14/yahtzee/scoring"
)

// Index numbers a state densely in [0, N).
type Index uint32

// Encoder maps states to indexes and back:
//
//	index = rerolls*(numMasks*numCombos) + mask*numCombos + diceID
//
// where diceID is the roll's lexicographic rank and mask is used as-is.
type Encoder struct {
	variant  scoring.Variant
	table    *dice.Table
	numMasks int
	combos   int
	full     Mask
}

func NewEncoder(v scoring.Variant, t *dice.Table) *Encoder {
	n := v.NumCategories()
	if n == 0 || n > 16 {
		panic(fmt.Sprintf("variant %s has %d categories", v.Name, n))
	}
	return &Encoder{
		variant:  v,
		table:    t,
		numMasks: 1 << n,
		combos:   t.Len(),
		full:     Mask(1<<n - 1),
	}
}

func (e *Encoder) Variant() scoring.Variant {
	return e.variant
}

func (e *Encoder) Table() *dice.Table {
	return e.table
}

func (e *Encoder) NumMasks() int {
	return e.numMasks
}

func (e *Encoder) NumCombos() int {
	return e.combos
}

// NumStates is N.
func (e *Encoder) NumStates() int {
	return (MaxRerolls + 1) * e.numMasks * e.combos
}

// FullMask has every category written.
func (e *Encoder) FullMask() Mask {
	return e.full
}

func (e *Encoder) IsTerminal(s GameState) bool {
	return s.Mask == e.full
}

// Rounds left before the sheet is full.
func (e *Encoder) RoundsLeft(m Mask) int {
	return e.variant.NumCategories() - m.Filled()
}

// Base is the index of (dice 0, mask, rerolls); a whole block of numCombos
// states follows it.
func (e *Encoder) Base(m Mask, rerolls int) int {
	return rerolls*e.numMasks*e.combos + int(m)*e.combos
}

// Encode returns the index of a state. It panics on a malformed state:
// non-canonical dice, a mask with bits beyond the variant, or too many
// rerolls.
func (e *Encoder) Encode(s GameState) Index {
	if s.Rerolls > MaxRerolls {
		panic(fmt.Sprintf("malformed state: %d rerolls", s.Rerolls))
	}
	if s.Mask&^e.full != 0 {
		panic(fmt.Sprintf("malformed state: mask %b has bits beyond %d categories",
			s.Mask, e.variant.NumCategories()))
	}
	return Index(e.Base(s.Mask, int(s.Rerolls)) + e.table.ID(s.Dice))
}

// Decode inverts Encode. An index outside [0, N) is a programming error.
func (e *Encoder) Decode(i Index) GameState {
	if int(i) >= e.NumStates() {
		panic(fmt.Sprintf("malformed state: index %d out of range [0, %d)", i, e.NumStates()))
	}
	idx := int(i)
	diceID := idx % e.combos
	idx /= e.combos
	m := idx % e.numMasks
	r := idx / e.numMasks
	return GameState{
		Dice:    e.table.Combo(diceID),
		Mask:    Mask(m),
		Rerolls: uint8(r),
	}
}
