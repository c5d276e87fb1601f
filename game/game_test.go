package game

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/yahtzee/action"
	"github.com/domino14/yahtzee/dice"
	"github.com/domino14/yahtzee/scoring"
	"github.com/domino14/yahtzee/state"
)

func TestSeedReplays(t *testing.T) {
	is := is.New(t)
	a := New(scoring.Full, 42)
	b := New(scoring.Full, 42)
	is.Equal(a.CurrentDice(), b.CurrentDice())
	for range 2 {
		is.NoErr(a.ApplyReroll(dice.RerollAll))
		is.NoErr(b.ApplyReroll(dice.RerollAll))
		is.Equal(a.CurrentDice(), b.CurrentDice())
	}

	c := New(scoring.Full, 0)
	is.True(c.Seed() != 0)
}

func TestRerolls(t *testing.T) {
	is := is.New(t)
	g := New(scoring.Reduced, 7)
	is.Equal(g.RerollsRemaining(), 2)
	is.True(errors.Is(g.ApplyReroll(dice.KeepAll), ErrBadMask))

	is.NoErr(g.SetDice(dice.MustNew(6, 6, 6, 6, 1)))
	is.NoErr(g.ApplyReroll(0b00001))
	d := g.CurrentDice()
	is.Equal(d.Counts()[6] >= 4, true)
	is.NoErr(g.ApplyReroll(dice.RerollAll))
	is.Equal(g.RerollsRemaining(), 0)
	is.True(errors.Is(g.ApplyReroll(dice.RerollAll), ErrNoRerolls))
	is.Equal(len(g.rolls), 3)
}

func TestWriteStartsNextRound(t *testing.T) {
	is := is.New(t)
	g := New(scoring.Reduced, 3)
	is.NoErr(g.SetDice(dice.MustNew(2, 3, 4, 5, 6)))
	is.NoErr(g.ApplyReroll(dice.RerollAll))
	is.NoErr(g.SetDice(dice.MustNew(2, 3, 4, 5, 6)))
	ls, _ := scoring.Reduced.Index(scoring.LargeStraight)
	pts, bonus, err := g.ApplyWrite(ls)
	is.NoErr(err)
	is.Equal(pts, scoring.LargeStraightScore)
	is.True(!bonus)
	is.Equal(g.Round(), 1)
	is.Equal(g.RerollsRemaining(), 2)
	is.Equal(len(g.AvailableCategories()), 6)
	is.Equal(g.PotentialScores()[ls], -1)

	_, _, err = g.ApplyWrite(ls)
	is.True(errors.Is(err, scoring.ErrCategoryFilled))
}

func TestUndoRound(t *testing.T) {
	is := is.New(t)
	g := New(scoring.Reduced, 11)
	is.True(errors.Is(g.UndoRound(), scoring.ErrNothingToUndo))

	opening := g.CurrentDice()
	is.NoErr(g.ApplyReroll(dice.RerollAll))
	c, _ := scoring.Reduced.Index(scoring.Chance)
	_, _, err := g.ApplyWrite(c)
	is.NoErr(err)
	is.NoErr(g.ApplyReroll(dice.RerollAll))

	is.NoErr(g.UndoRound())
	is.Equal(g.Round(), 0)
	is.Equal(g.CurrentDice(), opening)
	is.Equal(g.RerollsRemaining(), 2)
	is.Equal(g.Total(), 0)
	is.Equal(len(g.AvailableCategories()), 7)
}

func TestUndoRemovesBonus(t *testing.T) {
	is := is.New(t)
	g := New(scoring.Full, 5)
	// four of each face in the upper section is exactly 84
	for face := 1; face <= 6; face++ {
		odd := 1
		if face == 1 {
			odd = 2
		}
		is.NoErr(g.SetDice(dice.MustNew(face, face, face, face, odd)))
		_, bonus, err := g.ApplyWrite(face - 1)
		is.NoErr(err)
		is.Equal(bonus, face == 6)
	}
	is.True(g.Sheet().BonusAwarded())
	is.Equal(g.Total(), 84+scoring.BonusScore)

	is.NoErr(g.UndoRound())
	is.True(!g.Sheet().BonusAwarded())
	is.Equal(g.Total(), 84-24)
}

func TestPlayToEnd(t *testing.T) {
	is := is.New(t)
	g := New(scoring.Full, 99)
	for !g.Over() {
		acts := action.Legal(g.State(), g.enc)
		is.True(len(acts) > 0)
		// always write into the first open box
		w := acts[len(acts)-len(g.AvailableCategories())]
		is.True(!w.IsReroll())
		is.NoErr(g.Apply(w))
	}
	is.Equal(len(g.Rounds()), 13)
	is.True(errors.Is(g.ApplyReroll(dice.RerollAll), ErrGameOver))
	_, _, err := g.ApplyWrite(0)
	is.True(errors.Is(err, ErrGameOver))
	is.True(errors.Is(g.SetDice(dice.MustNew(1, 1, 1, 1, 1)), ErrGameOver))
}

func TestValidate(t *testing.T) {
	is := is.New(t)
	g := New(scoring.Reduced, 17)
	enc := state.NewEncoder(scoring.Reduced, dice.Shared())
	s, err := Validate(g, enc)
	is.NoErr(err)
	is.Equal(s, g.State())

	full := New(scoring.Full, 17)
	_, err = Validate(full, enc)
	is.True(err != nil)
}
