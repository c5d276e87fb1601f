// Package scoring implements the Yahtzee scoring categories and the
// scoresheet, including the upper-section bonus.
package scoring

import (
	"fmt"
	"strings"

	"github.com/domino14/yahtzee/dice"
)

// Category is a scoring box. Bonus is derived and can never be chosen.
type Category uint8

const (
	Ones Category = iota
	Twos
	Threes
	Fours
	Fives
	Sixes
	ThreeOfAKind
	FourOfAKind
	FullHouse
	SmallStraight
	LargeStraight
	Yahtzee
	Chance
	Bonus
)

const (
	FullHouseScore     = 25
	SmallStraightScore = 30
	LargeStraightScore = 40
	YahtzeeScore       = 50

	BonusThreshold = 63
	BonusScore     = 35
)

var categoryNames = [...]string{
	"Ones", "Twos", "Threes", "Fours", "Fives", "Sixes",
	"Three-of-a-Kind", "Four-of-a-Kind", "Full House",
	"Small Straight", "Large Straight", "Yahtzee", "Chance", "Bonus",
}

func (c Category) String() string {
	if int(c) < len(categoryNames) {
		return categoryNames[c]
	}
	return fmt.Sprintf("Category(%d)", c)
}

// Upper reports whether the category counts toward the bonus threshold.
func (c Category) Upper() bool {
	return c <= Sixes
}

// ParseCategory accepts names case-insensitively, ignoring spaces and dashes
// ("fullhouse", "Full House", "three-of-a-kind").
func ParseCategory(s string) (Category, error) {
	norm := func(x string) string {
		x = strings.ToLower(x)
		return strings.NewReplacer(" ", "", "-", "", "_", "").Replace(x)
	}
	want := norm(s)
	for i, n := range categoryNames {
		if norm(n) == want {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown category %q", s)
}

func longestRun(counts [dice.NumFaces + 1]uint8) int {
	best, run := 0, 0
	for f := 1; f <= dice.NumFaces; f++ {
		if counts[f] > 0 {
			run++
			best = max(best, run)
		} else {
			run = 0
		}
	}
	return best
}

func maxCount(counts [dice.NumFaces + 1]uint8) int {
	m := uint8(0)
	for _, c := range counts {
		m = max(m, c)
	}
	return int(m)
}

// Qualifies reports whether the roll meets the category's requirement.
// Upper categories and Chance always qualify. When jokerFullHouse is set a
// Yahtzee also counts as a Full House.
func Qualifies(c Category, d dice.Dice, jokerFullHouse bool) bool {
	counts := d.Counts()
	switch c {
	case Ones, Twos, Threes, Fours, Fives, Sixes, Chance:
		return true
	case ThreeOfAKind:
		return maxCount(counts) >= 3
	case FourOfAKind:
		return maxCount(counts) >= 4
	case FullHouse:
		var two, three bool
		for _, n := range counts[1:] {
			switch n {
			case 2:
				two = true
			case 3:
				three = true
			case 5:
				if jokerFullHouse {
					return true
				}
			}
		}
		return two && three
	case SmallStraight:
		return longestRun(counts) >= 4
	case LargeStraight:
		return longestRun(counts) == 5
	case Yahtzee:
		return maxCount(counts) == dice.NumDice
	}
	return false
}

// Score returns what the roll is worth in the category, or 0 if the roll
// doesn't qualify. Writing a non-qualifying roll is legal; it just scores 0.
func Score(c Category, d dice.Dice, jokerFullHouse bool) int {
	if !Qualifies(c, d, jokerFullHouse) {
		return 0
	}
	switch c {
	case Ones, Twos, Threes, Fours, Fives, Sixes:
		face := int(c-Ones) + 1
		return int(d.Counts()[face]) * face
	case ThreeOfAKind, FourOfAKind, Chance:
		return d.Sum()
	case FullHouse:
		return FullHouseScore
	case SmallStraight:
		return SmallStraightScore
	case LargeStraight:
		return LargeStraightScore
	case Yahtzee:
		return YahtzeeScore
	}
	return 0
}
