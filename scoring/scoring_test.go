package scoring

import (
	"errors"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/yahtzee/dice"
)

func TestScore(t *testing.T) {
	type tc struct {
		roll      []int
		cat       Category
		qualifies bool
		score     int
	}
	cases := []tc{
		{[]int{1, 1, 1, 2, 2}, Ones, true, 3},
		{[]int{6, 6, 2, 6, 1}, Sixes, true, 18},
		{[]int{1, 2, 3, 4, 5}, Sixes, true, 0},
		{[]int{3, 3, 3, 2, 5}, ThreeOfAKind, true, 16},
		{[]int{3, 3, 1, 2, 5}, ThreeOfAKind, false, 0},
		{[]int{4, 4, 4, 4, 1}, FourOfAKind, true, 17},
		{[]int{4, 4, 4, 1, 1}, FourOfAKind, false, 0},
		{[]int{2, 2, 3, 3, 3}, FullHouse, true, 25},
		{[]int{2, 2, 2, 2, 3}, FullHouse, false, 0},
		{[]int{5, 5, 5, 5, 5}, FullHouse, false, 0},
		{[]int{1, 2, 3, 4, 6}, SmallStraight, true, 30},
		{[]int{3, 4, 5, 6, 6}, SmallStraight, true, 30},
		{[]int{1, 2, 3, 5, 6}, SmallStraight, false, 0},
		{[]int{2, 3, 4, 5, 6}, LargeStraight, true, 40},
		{[]int{1, 2, 3, 4, 6}, LargeStraight, false, 0},
		{[]int{1, 1, 1, 1, 1}, LargeStraight, false, 0},
		{[]int{6, 6, 6, 6, 6}, Yahtzee, true, 50},
		{[]int{6, 6, 6, 6, 5}, Yahtzee, false, 0},
		{[]int{6, 6, 6, 6, 5}, Chance, true, 29},
	}
	for _, c := range cases {
		t.Run(c.cat.String(), func(t *testing.T) {
			is := is.New(t)
			d := dice.MustNew(c.roll...)
			is.Equal(Qualifies(c.cat, d, false), c.qualifies)
			is.Equal(Score(c.cat, d, false), c.score)
		})
	}
}

func TestJokerFullHouse(t *testing.T) {
	is := is.New(t)
	d := dice.MustNew(5, 5, 5, 5, 5)
	is.True(!Qualifies(FullHouse, d, false))
	is.True(Qualifies(FullHouse, d, true))
	is.Equal(Score(FullHouse, d, true), FullHouseScore)
}

func TestParseCategory(t *testing.T) {
	is := is.New(t)
	c, err := ParseCategory("full house")
	is.NoErr(err)
	is.Equal(c, FullHouse)
	c, err = ParseCategory("Three-of-a-Kind")
	is.NoErr(err)
	is.Equal(c, ThreeOfAKind)
	_, err = ParseCategory("pair")
	is.True(err != nil)
}

func TestVariants(t *testing.T) {
	is := is.New(t)
	is.Equal(Reduced.NumCategories(), 7)
	is.Equal(Full.NumCategories(), 13)
	is.True(!Reduced.HasUpper())
	is.True(Full.HasUpper())
	i, ok := Reduced.Index(Yahtzee)
	is.True(ok)
	is.Equal(i, 5)
	_, ok = Reduced.Index(Ones)
	is.True(!ok)
	v, err := VariantByName("13")
	is.NoErr(err)
	is.Equal(v.Name, "full")
}

func writeUpper(t *testing.T, s *Scoresheet, rolls [][]int) []bool {
	is := is.New(t)
	var bonuses []bool
	for i, r := range rolls {
		_, b, err := s.Write(i, dice.MustNew(r...))
		is.NoErr(err)
		bonuses = append(bonuses, b)
	}
	return bonuses
}

func TestBonusBorderline(t *testing.T) {
	is := is.New(t)
	s := NewScoresheet(Full)
	bonuses := writeUpper(t, s, [][]int{
		{1, 1, 1, 2, 2}, // 3
		{2, 2, 2, 1, 1}, // 6
		{3, 3, 3, 2, 2}, // 9
		{4, 4, 4, 2, 2}, // 12
		{5, 5, 5, 2, 2}, // 15
		{6, 6, 6, 2, 2}, // 18
	})
	is.Equal(bonuses, []bool{false, false, false, false, false, true})
	is.Equal(s.UpperTotal(), 63)
	is.True(s.BonusAwarded())
	is.Equal(s.Total(), 63+35)
}

func TestBonusAwardedOnce(t *testing.T) {
	is := is.New(t)
	s := NewScoresheet(Full)
	// Sixes and fives cross the threshold early; later upper writes must
	// not award it again.
	order := []struct {
		idx  int
		roll []int
	}{
		{5, []int{6, 6, 6, 6, 6}}, // 30
		{4, []int{5, 5, 5, 5, 5}}, // 25
		{3, []int{4, 4, 1, 1, 1}}, // 8 -> 63
		{2, []int{3, 3, 3, 3, 1}}, // 12
		{0, []int{1, 2, 2, 2, 2}}, // 1
	}
	awarded := 0
	for _, o := range order {
		_, b, err := s.Write(o.idx, dice.MustNew(o.roll...))
		is.NoErr(err)
		if b {
			awarded++
		}
	}
	is.Equal(awarded, 1)
	is.Equal(s.Total(), 30+25+8+12+1+35)
}

func TestBonusNotReached(t *testing.T) {
	is := is.New(t)
	s := NewScoresheet(Full)
	writeUpper(t, s, [][]int{
		{1, 1, 1, 2, 2},
		{2, 2, 2, 1, 1},
		{3, 3, 3, 2, 2},
		{4, 4, 4, 2, 2},
		{5, 5, 5, 2, 2},
		{6, 6, 1, 2, 2},
	})
	is.Equal(s.UpperTotal(), 57)
	is.True(!s.BonusAwarded())
	is.Equal(s.Total(), 57)
}

func TestUndo(t *testing.T) {
	is := is.New(t)
	s := NewScoresheet(Full)
	_, err := s.Undo()
	is.True(errors.Is(err, ErrNothingToUndo))

	_, _, err = s.Write(5, dice.MustNew(6, 6, 6, 6, 6))
	is.NoErr(err)
	_, _, err = s.Write(4, dice.MustNew(5, 5, 5, 5, 5))
	is.NoErr(err)
	_, bonus, err := s.Write(3, dice.MustNew(4, 4, 1, 1, 1))
	is.NoErr(err)
	is.True(bonus)
	is.Equal(s.Mask(), uint16(0b111000))

	e, err := s.Undo()
	is.NoErr(err)
	is.Equal(e.Index, 3)
	is.True(!s.BonusAwarded())
	is.Equal(s.Mask(), uint16(0b110000))
	is.True(!s.Filled(3))

	// writing it again re-awards the bonus exactly once
	_, bonus, err = s.Write(3, dice.MustNew(4, 4, 4, 1, 1))
	is.NoErr(err)
	is.True(bonus)
}

func TestWriteErrors(t *testing.T) {
	is := is.New(t)
	s := NewScoresheet(Reduced)
	_, _, err := s.Write(0, dice.MustNew(1, 1, 1, 2, 3))
	is.NoErr(err)
	_, _, err = s.Write(0, dice.MustNew(1, 1, 1, 2, 3))
	is.True(errors.Is(err, ErrCategoryFilled))
	_, _, err = s.Write(7, dice.MustNew(1, 1, 1, 2, 3))
	is.True(errors.Is(err, ErrBonusNotWritable))
	_, _, err = s.Write(9, dice.MustNew(1, 1, 1, 2, 3))
	is.True(errors.Is(err, ErrCategoryRange))
}

func TestPotential(t *testing.T) {
	is := is.New(t)
	s := NewScoresheet(Reduced)
	d := dice.MustNew(2, 2, 3, 3, 3)
	_, _, err := s.Write(6, d)
	is.NoErr(err)
	is.Equal(s.Potential(d), []int{13, 0, 25, 0, 0, 0, -1})
	is.Equal(s.Available(), []int{0, 1, 2, 3, 4, 5})
}
