package action

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/yahtzee/dice"
	"github.com/domino14/yahtzee/scoring"
	"github.com/domino14/yahtzee/state"
)

func reducedEncoder() *state.Encoder {
	return state.NewEncoder(scoring.Reduced, dice.Shared())
}

func TestIDRoundTrip(t *testing.T) {
	is := is.New(t)
	for _, a := range []Action{Reroll(1), Reroll(31), Write(0), Write(12)} {
		is.Equal(FromID(a.ID()), a)
	}
	is.True(Reroll(31).ID() < Write(0).ID())
}

func TestLegalOrder(t *testing.T) {
	is := is.New(t)
	enc := reducedEncoder()
	s := state.GameState{Dice: dice.MustNew(4, 4, 4, 4, 4), Mask: 0b1010101, Rerolls: 1}
	acts := Legal(s, enc)
	is.Equal(len(acts), 5+3)
	for i := 1; i < len(acts); i++ {
		is.True(acts[i-1].ID() < acts[i].ID())
	}
	is.Equal(acts[5], Write(1))
	is.Equal(acts[6], Write(3))
	is.Equal(acts[7], Write(5))
}

func TestLegalNoRerolls(t *testing.T) {
	is := is.New(t)
	enc := reducedEncoder()
	s := state.GameState{Dice: dice.MustNew(1, 2, 3, 4, 5), Mask: 0, Rerolls: 0}
	acts := Legal(s, enc)
	is.Equal(len(acts), 7)
	for _, a := range acts {
		is.True(!a.IsReroll())
	}
}

func TestLegalTerminal(t *testing.T) {
	is := is.New(t)
	enc := reducedEncoder()
	s := state.GameState{Dice: dice.MustNew(1, 2, 3, 4, 5), Mask: enc.FullMask(), Rerolls: 2}
	is.Equal(len(Legal(s, enc)), 0)
}

func TestLegalActionsPassCheck(t *testing.T) {
	is := is.New(t)
	enc := reducedEncoder()
	for i := 0; i < enc.NumStates(); i += 97 {
		s := enc.Decode(state.Index(i))
		for _, a := range Legal(s, enc) {
			is.NoErr(Check(a, s, enc))
		}
	}
}

func TestCheck(t *testing.T) {
	is := is.New(t)
	enc := reducedEncoder()
	s := state.GameState{Dice: dice.MustNew(1, 2, 3, 4, 5), Mask: 0b1, Rerolls: 0}
	is.True(errors.Is(Check(Reroll(1), s, enc), ErrInvalidAction))
	is.True(errors.Is(Check(Write(0), s, enc), ErrInvalidAction))
	is.True(errors.Is(Check(Write(7), s, enc), ErrInvalidAction))
	is.NoErr(Check(Write(1), s, enc))
	s.Rerolls = 2
	is.True(errors.Is(Check(Reroll(dice.KeepAll), s, enc), ErrInvalidAction))
	is.NoErr(Check(Reroll(0b101), s, enc))
}

func TestMustCheckPanics(t *testing.T) {
	is := is.New(t)
	enc := reducedEncoder()
	s := state.GameState{Dice: dice.MustNew(1, 2, 3, 4, 5), Mask: 0b1, Rerolls: 0}
	defer func() {
		is.True(recover() != nil)
	}()
	MustCheck(Write(0), s, enc)
}

func TestDescribe(t *testing.T) {
	is := is.New(t)
	enc := reducedEncoder()
	s := state.Start(dice.MustNew(2, 2, 5, 3, 6), 0)
	// canonical 2 2 3 5 6; mask 0b10100 picks up 3 and 6
	is.Equal(Describe(Reroll(0b10100), s, enc), "reroll 36, keep 225")
	is.Equal(Describe(Write(2), s, enc), "write Full House")
}
