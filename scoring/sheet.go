package scoring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/domino14/yahtzee/dice"
)

var (
	ErrCategoryFilled   = errors.New("category already written")
	ErrCategoryRange    = errors.New("category index out of range")
	ErrSheetFull        = errors.New("scoresheet is full")
	ErrNothingToUndo    = errors.New("nothing to undo")
	ErrBonusNotWritable = errors.New("the bonus cannot be written")
)

// Entry is one written box.
type Entry struct {
	Index int
	Score int
	Dice  dice.Dice
}

// Scoresheet records the boxes written so far in one game. The upper bonus
// is awarded automatically, once, by the write that first brings the upper
// total to BonusThreshold.
type Scoresheet struct {
	variant Variant
	scores  []int
	filled  []bool
	history []Entry
	// number of writes at which the bonus was awarded, 0 if not yet.
	bonusAt int
}

func NewScoresheet(v Variant) *Scoresheet {
	return &Scoresheet{
		variant: v,
		scores:  make([]int, v.NumCategories()),
		filled:  make([]bool, v.NumCategories()),
	}
}

func (s *Scoresheet) Variant() Variant {
	return s.variant
}

// Potential returns what each box would score with the given dice, -1 for
// boxes already written.
func (s *Scoresheet) Potential(d dice.Dice) []int {
	out := make([]int, len(s.scores))
	for i := range out {
		if s.filled[i] {
			out[i] = -1
			continue
		}
		out[i] = s.variant.Score(i, d)
	}
	return out
}

// Write scores the dice in box i. It returns the points written and whether
// this write earned the bonus.
func (s *Scoresheet) Write(i int, d dice.Dice) (int, bool, error) {
	if i == s.variant.NumCategories() {
		return 0, false, ErrBonusNotWritable
	}
	if i < 0 || i > s.variant.NumCategories() {
		return 0, false, fmt.Errorf("%w: %d", ErrCategoryRange, i)
	}
	if s.filled[i] {
		return 0, false, fmt.Errorf("%w: %v", ErrCategoryFilled, s.variant.Category(i))
	}
	pts := s.variant.Score(i, d)
	s.scores[i] = pts
	s.filled[i] = true
	s.history = append(s.history, Entry{Index: i, Score: pts, Dice: d})

	bonus := false
	if s.bonusAt == 0 && s.variant.Category(i).Upper() && s.UpperTotal() >= BonusThreshold {
		s.bonusAt = len(s.history)
		bonus = true
	}
	return pts, bonus, nil
}

// Undo clears the most recently written box, and the bonus with it if that
// write earned the bonus.
func (s *Scoresheet) Undo() (Entry, error) {
	if len(s.history) == 0 {
		return Entry{}, ErrNothingToUndo
	}
	last := s.history[len(s.history)-1]
	if s.bonusAt == len(s.history) {
		s.bonusAt = 0
	}
	s.history = s.history[:len(s.history)-1]
	s.filled[last.Index] = false
	s.scores[last.Index] = 0
	return last, nil
}

func (s *Scoresheet) Filled(i int) bool {
	return s.filled[i]
}

// Mask has bit i set for every written box.
func (s *Scoresheet) Mask() uint16 {
	var m uint16
	for i, f := range s.filled {
		if f {
			m |= 1 << i
		}
	}
	return m
}

// Available lists unwritten box indexes in ascending order.
func (s *Scoresheet) Available() []int {
	var out []int
	for i, f := range s.filled {
		if !f {
			out = append(out, i)
		}
	}
	return out
}

func (s *Scoresheet) Full() bool {
	return len(s.history) == len(s.filled)
}

func (s *Scoresheet) Rounds() int {
	return len(s.history)
}

func (s *Scoresheet) History() []Entry {
	return append([]Entry(nil), s.history...)
}

func (s *Scoresheet) UpperTotal() int {
	t := 0
	for i, c := range s.variant.Categories {
		if c.Upper() && s.filled[i] {
			t += s.scores[i]
		}
	}
	return t
}

func (s *Scoresheet) BonusAwarded() bool {
	return s.bonusAt != 0
}

// Total is every written box plus the bonus if earned.
func (s *Scoresheet) Total() int {
	t := 0
	for i, f := range s.filled {
		if f {
			t += s.scores[i]
		}
	}
	if s.BonusAwarded() {
		t += BonusScore
	}
	return t
}

func (s *Scoresheet) String() string {
	var sb strings.Builder
	for i, c := range s.variant.Categories {
		if s.filled[i] {
			fmt.Fprintf(&sb, "%-16s %3d\n", c, s.scores[i])
		} else {
			fmt.Fprintf(&sb, "%-16s ---\n", c)
		}
	}
	if s.variant.HasUpper() {
		b := 0
		if s.BonusAwarded() {
			b = BonusScore
		}
		fmt.Fprintf(&sb, "%-16s %3d\n", Bonus, b)
	}
	fmt.Fprintf(&sb, "%-16s %3d\n", "Total", s.Total())
	return sb.String()
}
