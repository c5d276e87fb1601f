package state

import (
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/yahtzee/dice"
	"github.com/domino14/yahtzee/scoring"
)

func TestNumStates(t *testing.T) {
	is := is.New(t)
	is.Equal(NewEncoder(scoring.Reduced, dice.Shared()).NumStates(), 3*128*252)
	is.Equal(NewEncoder(scoring.Full, dice.Shared()).NumStates(), 3*8192*252)
}

func TestRoundTripAllIndexes(t *testing.T) {
	is := is.New(t)
	enc := NewEncoder(scoring.Reduced, dice.Shared())
	for i := 0; i < enc.NumStates(); i++ {
		s := enc.Decode(Index(i))
		if enc.Encode(s) != Index(i) {
			is.Fail() // round trip broken
		}
	}
}

func TestRoundTripStates(t *testing.T) {
	is := is.New(t)
	enc := NewEncoder(scoring.Full, dice.Shared())
	states := []GameState{
		Start(dice.MustNew(1, 1, 1, 1, 1), 0),
		{Dice: dice.MustNew(6, 5, 4, 3, 2), Mask: 0b1010101010101, Rerolls: 0},
		{Dice: dice.MustNew(2, 2, 3, 3, 3), Mask: enc.FullMask(), Rerolls: 1},
	}
	for _, s := range states {
		is.Equal(enc.Decode(enc.Encode(s)), s)
	}
}

func TestIndexFormula(t *testing.T) {
	is := is.New(t)
	tb := dice.Shared()
	enc := NewEncoder(scoring.Reduced, tb)
	d := dice.MustNew(2, 3, 4, 5, 6)
	s := GameState{Dice: d, Mask: 0b101, Rerolls: 1}
	want := 1*(128*252) + 5*252 + tb.ID(d)
	is.Equal(int(enc.Encode(s)), want)
}

func TestDecodeOutOfRangePanics(t *testing.T) {
	is := is.New(t)
	enc := NewEncoder(scoring.Reduced, dice.Shared())
	defer func() {
		is.True(recover() != nil)
	}()
	enc.Decode(Index(enc.NumStates()))
}

func TestEncodeMalformedPanics(t *testing.T) {
	enc := NewEncoder(scoring.Reduced, dice.Shared())
	cases := []GameState{
		{Dice: dice.Dice{1, 1, 1, 1, 7}, Rerolls: 0},
		{Dice: dice.MustNew(1, 1, 1, 1, 1), Rerolls: 3},
		{Dice: dice.MustNew(1, 1, 1, 1, 1), Mask: 1 << 7},
	}
	for _, c := range cases {
		func() {
			is := is.New(t)
			defer func() {
				is.True(recover() != nil)
			}()
			enc.Encode(c)
		}()
	}
}

func TestTerminal(t *testing.T) {
	is := is.New(t)
	enc := NewEncoder(scoring.Reduced, dice.Shared())
	is.True(enc.IsTerminal(GameState{Dice: dice.MustNew(1, 2, 3, 4, 5), Mask: 0x7f}))
	is.True(!enc.IsTerminal(GameState{Dice: dice.MustNew(1, 2, 3, 4, 5), Mask: 0x3f}))
	is.Equal(enc.RoundsLeft(0b11), 5)
}
