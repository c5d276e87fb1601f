// Package action defines what a player can do in a state: reroll some dice
// or write the roll into an open category.
package action

import (
	"errors"
	"fmt"

	"github.com/samber/lo"

	"github.com/domino14/yahtzee/dice"
	"github.com/domino14/yahtzee/state"
)

var ErrInvalidAction = errors.New("invalid action")

// Type tags an Action.
type Type uint8

const (
	TypeReroll Type = iota
	TypeWrite
)

// ID is a compact action encoding: a reroll is its mask (1..31) and a write
// to category c is WriteBase+c. Ties between equally good actions are
// always broken toward the smaller ID, so rerolls come before writes.
type ID uint8

const WriteBase ID = 1 << dice.NumDice

// Action is either Reroll(mask) or Write(category).
type Action struct {
	typ      Type
	mask     dice.RerollMask
	category uint8
}

func Reroll(m dice.RerollMask) Action {
	return Action{typ: TypeReroll, mask: m}
}

func Write(category int) Action {
	return Action{typ: TypeWrite, category: uint8(category)}
}

func (a Action) Type() Type {
	return a.typ
}

func (a Action) IsReroll() bool {
	return a.typ == TypeReroll
}

// Mask is only meaningful for rerolls.
func (a Action) Mask() dice.RerollMask {
	return a.mask
}

// Category is only meaningful for writes.
func (a Action) Category() int {
	return int(a.category)
}

func (a Action) ID() ID {
	if a.typ == TypeReroll {
		return ID(a.mask)
	}
	return WriteBase + ID(a.category)
}

// FromID decodes an action ID. It does not check legality.
func FromID(id ID) Action {
	if id < WriteBase {
		return Reroll(dice.RerollMask(id))
	}
	return Write(int(id - WriteBase))
}

func (a Action) String() string {
	if a.typ == TypeReroll {
		return fmt.Sprintf("reroll(%05b)", uint8(a.mask))
	}
	return fmt.Sprintf("write(%d)", a.category)
}

// Describe names the action in terms of the state it applies to, e.g.
// "reroll 3 6, keep 2 2 5" or "write Full House".
func Describe(a Action, s state.GameState, enc *state.Encoder) string {
	if a.IsReroll() {
		kept, _ := s.Dice.Split(a.mask)
		return fmt.Sprintf("reroll %v, keep %v", facesString(a.mask.Faces(s.Dice)), kept)
	}
	return "write " + enc.Variant().Category(a.Category()).String()
}

func facesString(f []uint8) string {
	b := make([]byte, len(f))
	for i, v := range f {
		b[i] = '0' + v
	}
	return string(b)
}

// Check returns ErrInvalidAction if the action cannot be taken in s.
// Rerolls must select at least one die and need a reroll left; writes need
// an open category inside the variant.
func Check(a Action, s state.GameState, enc *state.Encoder) error {
	if enc.IsTerminal(s) {
		return fmt.Errorf("%w: game is over", ErrInvalidAction)
	}
	switch a.typ {
	case TypeReroll:
		if s.Rerolls == 0 {
			return fmt.Errorf("%w: no rerolls left", ErrInvalidAction)
		}
		if a.mask == dice.KeepAll || !a.mask.Valid() {
			return fmt.Errorf("%w: reroll mask %05b", ErrInvalidAction, a.mask)
		}
	case TypeWrite:
		if a.Category() >= enc.Variant().NumCategories() {
			return fmt.Errorf("%w: category %d out of range", ErrInvalidAction, a.category)
		}
		if s.Mask.Has(a.Category()) {
			return fmt.Errorf("%w: %v already written", ErrInvalidAction,
				enc.Variant().Category(a.Category()))
		}
	default:
		return fmt.Errorf("%w: unknown type %d", ErrInvalidAction, a.typ)
	}
	return nil
}

// MustCheck panics on an illegal action. The engine uses it where an illegal
// action can only come from a bug.
func MustCheck(a Action, s state.GameState, enc *state.Encoder) {
	if err := Check(a, s, enc); err != nil {
		panic(fmt.Sprintf("%v in %v", err, s))
	}
}

// Legal lists the actions available in s in ascending ID order: one reroll
// per distinct set of faces to pick up, then a write for every open
// category. Terminal states have none.
func Legal(s state.GameState, enc *state.Encoder) []Action {
	if enc.IsTerminal(s) {
		return nil
	}
	var out []Action
	if s.Rerolls > 0 {
		diceID := enc.Table().ID(s.Dice)
		out = lo.Map(enc.Table().CanonicalMasks(diceID), func(m dice.RerollMask, _ int) Action {
			return Reroll(m)
		})
	}
	open := lo.Filter(lo.Range(enc.Variant().NumCategories()), func(i int, _ int) bool {
		return !s.Mask.Has(i)
	})
	for _, c := range open {
		out = append(out, Write(c))
	}
	return out
}
