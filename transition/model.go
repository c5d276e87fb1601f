// Package transition is the stochastic side of the game: where a reroll can
// land, what the next round opens with, and what writing a category earns.
package transition

import (
	"fmt"
	"math"

	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat/combin"

	"github.com/domino14/yahtzee/action"
	"github.com/domino14/yahtzee/dice"
	"github.com/domino14/yahtzee/state"
)

// Outcome is one resulting roll and its probability.
type Outcome struct {
	Dice int
	Prob float64
}

// StateOutcome is a successor state and its probability.
type StateOutcome struct {
	State state.GameState
	Prob  float64
}

// Model precomputes, for every kept subset, the exact distribution over
// canonical rolls once the remaining dice are thrown, plus a score table for
// every roll and category. It is immutable after NewModel and shared
// read-only by solver threads.
type Model struct {
	enc   *state.Encoder
	table *dice.Table

	// indexed by keep id
	keepOutcomes [][]Outcome
	rollAll      int

	// scores[diceID*numCategories + c]
	scores []int
	ncats  int
}

func NewModel(enc *state.Encoder) *Model {
	t := enc.Table()
	m := &Model{
		enc:          enc,
		table:        t,
		keepOutcomes: make([][]Outcome, t.NumKeeps()),
		ncats:        enc.Variant().NumCategories(),
	}
	for kid := 0; kid < t.NumKeeps(); kid++ {
		m.keepOutcomes[kid] = enumerate(t, t.Keep(kid))
	}
	var ok bool
	m.rollAll, ok = t.KeepID(dice.Keep{})
	if !ok {
		panic("empty keep missing from dice table")
	}

	v := enc.Variant()
	m.scores = make([]int, t.Len()*m.ncats)
	for id := 0; id < t.Len(); id++ {
		d := t.Combo(id)
		for c := 0; c < m.ncats; c++ {
			m.scores[id*m.ncats+c] = v.Score(c, d)
		}
	}
	log.Debug().Str("variant", v.Name).Int("keeps", t.NumKeeps()).
		Int("states", enc.NumStates()).Msg("built-transition-model")
	return m
}

// enumerate throws the missing dice in every one of the 6^k equally likely
// ordered ways, merges each throw with the kept dice and counts canonical
// results. Probabilities are count / 6^k.
func enumerate(t *dice.Table, k dice.Keep) []Outcome {
	n := dice.NumDice - k.Len()
	counts := make([]int, t.Len())
	total := 0
	if n == 0 {
		counts[t.ID(dice.Merge(k, nil))] = 1
		total = 1
	} else {
		lens := make([]int, n)
		for i := range lens {
			lens[i] = dice.NumFaces
		}
		gen := combin.NewCartesianGenerator(lens)
		prod := make([]int, n)
		rolled := make([]int, n)
		for gen.Next() {
			prod = gen.Product(prod)
			for i, p := range prod {
				rolled[i] = p + 1
			}
			counts[t.ID(dice.Merge(k, rolled))]++
			total++
		}
	}
	if want := int(math.Pow(dice.NumFaces, float64(n))); total != want {
		panic(fmt.Sprintf("enumerated %d throws of %d dice, expected %d", total, n, want))
	}
	var out []Outcome
	for id, c := range counts {
		if c > 0 {
			out = append(out, Outcome{Dice: id, Prob: float64(c) / float64(total)})
		}
	}
	return out
}

func (m *Model) Encoder() *state.Encoder {
	return m.enc
}

// KeepOutcomes returns the distribution after keeping subset kid and
// throwing the rest. The returned slice must not be modified.
func (m *Model) KeepOutcomes(kid int) []Outcome {
	return m.keepOutcomes[kid]
}

// Reroll is the distribution over canonical rolls after picking up the dice
// selected by mask. A zero mask is the deterministic self-transition.
func (m *Model) Reroll(d dice.Dice, mask dice.RerollMask) []Outcome {
	if !mask.Valid() {
		panic(fmt.Sprintf("invalid action: reroll mask %b", mask))
	}
	return m.keepOutcomes[m.table.KeptBy(m.table.ID(d), mask)]
}

// RollAll is the opening roll of a round: all five dice thrown.
func (m *Model) RollAll() []Outcome {
	return m.keepOutcomes[m.rollAll]
}

// Score looks up what roll diceID earns in the variant's category c.
func (m *Model) Score(diceID, c int) int {
	return m.scores[diceID*m.ncats+c]
}

// Reward is the immediate score for taking a in s: zero for rerolls, the
// category score of the current dice for writes. Writing a filled category
// panics.
func (m *Model) Reward(s state.GameState, a action.Action) int {
	action.MustCheck(a, s, m.enc)
	if a.IsReroll() {
		return 0
	}
	return m.Score(m.table.ID(s.Dice), a.Category())
}

// Next is the full distribution over successor states. A write that fills
// the sheet leads to the terminal state with the same dice and zero
// rerolls, with probability 1.
func (m *Model) Next(s state.GameState, a action.Action) []StateOutcome {
	action.MustCheck(a, s, m.enc)
	if a.IsReroll() {
		outs := m.Reroll(s.Dice, a.Mask())
		res := make([]StateOutcome, len(outs))
		for i, o := range outs {
			res[i] = StateOutcome{
				State: state.GameState{Dice: m.table.Combo(o.Dice), Mask: s.Mask, Rerolls: s.Rerolls - 1},
				Prob:  o.Prob,
			}
		}
		return res
	}
	next := s.Mask.With(a.Category())
	if next == m.enc.FullMask() {
		return []StateOutcome{{State: state.GameState{Dice: s.Dice, Mask: next}, Prob: 1}}
	}
	outs := m.RollAll()
	res := make([]StateOutcome, len(outs))
	for i, o := range outs {
		res[i] = StateOutcome{
			State: state.GameState{Dice: m.table.Combo(o.Dice), Mask: next, Rerolls: state.MaxRerolls},
			Prob:  o.Prob,
		}
	}
	return res
}
