package scoring

import (
	"fmt"
	"strings"

	"github.com/domino14/yahtzee/dice"
)

// Variant fixes which categories are on the sheet and in which order. A
// category's position in Categories is its bit in the category mask.
type Variant struct {
	Name       string
	Categories []Category
	// JokerFullHouse lets a Yahtzee be written as a Full House.
	JokerFullHouse bool
}

var (
	// Reduced is the seven-box lower-section game.
	Reduced = Variant{
		Name: "reduced",
		Categories: []Category{
			ThreeOfAKind, FourOfAKind, FullHouse, SmallStraight,
			LargeStraight, Yahtzee, Chance,
		},
	}
	// Full is the standard thirteen-box game. The bonus is tracked by the
	// scoresheet.
	Full = Variant{
		Name: "full",
		Categories: []Category{
			Ones, Twos, Threes, Fours, Fives, Sixes,
			ThreeOfAKind, FourOfAKind, FullHouse, SmallStraight,
			LargeStraight, Yahtzee, Chance,
		},
	}
)

// VariantByName looks up a built-in variant.
func VariantByName(name string) (Variant, error) {
	switch strings.ToLower(name) {
	case "reduced", "7":
		return Reduced, nil
	case "full", "13":
		return Full, nil
	}
	return Variant{}, fmt.Errorf("unknown variant %q", name)
}

func (v Variant) NumCategories() int {
	return len(v.Categories)
}

// Category returns the category at index i, panicking if out of range.
func (v Variant) Category(i int) Category {
	if i < 0 || i >= len(v.Categories) {
		panic(fmt.Sprintf("invalid action: category index %d out of range for %s variant", i, v.Name))
	}
	return v.Categories[i]
}

// Index is the inverse of Category; ok is false if the variant doesn't have
// the category.
func (v Variant) Index(c Category) (int, bool) {
	for i, vc := range v.Categories {
		if vc == c {
			return i, true
		}
	}
	return -1, false
}

// HasUpper reports whether any upper-section category is on the sheet.
func (v Variant) HasUpper() bool {
	for _, c := range v.Categories {
		if c.Upper() {
			return true
		}
	}
	return false
}

// Score scores the roll in the variant's i-th category.
func (v Variant) Score(i int, d dice.Dice) int {
	return Score(v.Category(i), d, v.JokerFullHouse)
}

func (v Variant) Qualifies(i int, d dice.Dice) bool {
	return Qualifies(v.Category(i), d, v.JokerFullHouse)
}
