// Package game runs a live single-player game: it rolls the dice, applies
// rerolls and writes, and keeps the scoresheet.
package game

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"lukechampine.com/frand"

	"github.com/domino14/yahtzee/action"
	"github.com/domino14/yahtzee/dice"
	"github.com/domino14/yahtzee/scoring"
	"github.com/domino14/yahtzee/state"
)

var (
	ErrNoRerolls = errors.New("no rerolls left this round")
	ErrGameOver  = errors.New("game is over")
	ErrBadMask   = errors.New("reroll mask must select at least one die")
)

// Round is the log of one finished round.
type Round struct {
	Category int
	Score    int
	// Rolls holds the dice after the opening roll and after each reroll.
	Rolls []dice.Dice
}

// Game is one game in progress. It is not safe for concurrent use.
type Game struct {
	enc   *state.Encoder
	sheet *scoring.Scoresheet
	seed  uint64
	rng   *rand.Rand

	dice    dice.Dice
	rerolls int
	rolls   []dice.Dice
	rounds  []Round
}

// Roll throws n dice.
func Roll(rng *rand.Rand, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = rng.IntN(dice.NumFaces) + 1
	}
	return out
}

// New starts a game and makes its opening roll. A zero seed picks a random
// one; Seed reports it either way, so a game can be replayed.
func New(v scoring.Variant, seed uint64) *Game {
	enc := state.NewEncoder(v, dice.Shared())
	if seed == 0 {
		seed = frand.Uint64n(1<<63) + 1
	}
	g := &Game{
		enc:   enc,
		sheet: scoring.NewScoresheet(enc.Variant()),
		seed:  seed,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	g.startRound()
	return g
}

func (g *Game) startRound() {
	g.dice = dice.Merge(dice.Keep{}, Roll(g.rng, dice.NumDice))
	g.rerolls = state.MaxRerolls
	g.rolls = []dice.Dice{g.dice}
}

func (g *Game) Seed() uint64 {
	return g.seed
}

func (g *Game) Variant() scoring.Variant {
	return g.enc.Variant()
}

func (g *Game) Sheet() *scoring.Scoresheet {
	return g.sheet
}

func (g *Game) CurrentDice() dice.Dice {
	return g.dice
}

func (g *Game) RerollsRemaining() int {
	return g.rerolls
}

// Round is the 0-based number of the round in progress.
func (g *Game) Round() int {
	return len(g.rounds)
}

func (g *Game) Rounds() []Round {
	return g.rounds
}

func (g *Game) Over() bool {
	return g.sheet.Full()
}

// AvailableCategories are the categories still open, in variant order.
func (g *Game) AvailableCategories() []scoring.Category {
	var out []scoring.Category
	for _, i := range g.sheet.Available() {
		out = append(out, g.Variant().Category(i))
	}
	return out
}

// PotentialScores is what every category would score with the current
// dice, -1 for categories already written.
func (g *Game) PotentialScores() []int {
	return g.sheet.Potential(g.dice)
}

func (g *Game) Total() int {
	return g.sheet.Total()
}

// State is the solver's view of the game. The bonus is not part of it.
func (g *Game) State() state.GameState {
	return state.GameState{
		Dice:    g.dice,
		Mask:    state.Mask(g.sheet.Mask()),
		Rerolls: uint8(g.rerolls),
	}
}

// SetDice replaces the current roll, for entering a physical game by hand.
func (g *Game) SetDice(d dice.Dice) error {
	if g.Over() {
		return ErrGameOver
	}
	d = dice.Canonicalize(d)
	if !d.Valid() {
		return dice.ErrMalformedDice
	}
	g.dice = d
	g.rolls[len(g.rolls)-1] = d
	return nil
}

// ApplyReroll rerolls the dice selected by m (positions in the sorted roll).
func (g *Game) ApplyReroll(m dice.RerollMask) error {
	if g.Over() {
		return ErrGameOver
	}
	if g.rerolls == 0 {
		return ErrNoRerolls
	}
	if !m.Valid() || m == dice.KeepAll {
		return fmt.Errorf("%w: %d", ErrBadMask, m)
	}
	kept, n := g.dice.Split(m)
	g.dice = dice.Merge(kept, Roll(g.rng, n))
	g.rerolls--
	g.rolls = append(g.rolls, g.dice)
	return nil
}

// ApplyWrite writes the current dice into the variant's category i and
// starts the next round. bonus is true if this write earned the upper
// bonus.
func (g *Game) ApplyWrite(i int) (pts int, bonus bool, err error) {
	if g.Over() {
		return 0, false, ErrGameOver
	}
	pts, bonus, err = g.sheet.Write(i, g.dice)
	if err != nil {
		return 0, false, err
	}
	g.rounds = append(g.rounds, Round{Category: i, Score: pts, Rolls: g.rolls})
	if !g.Over() {
		g.startRound()
	}
	return pts, bonus, nil
}

// Apply plays a solver action.
func (g *Game) Apply(a action.Action) error {
	if a.IsReroll() {
		return g.ApplyReroll(a.Mask())
	}
	_, _, err := g.ApplyWrite(a.Category())
	return err
}

// UndoRound takes back the last write. The round restarts from its opening
// roll with all rerolls available; anything done in the current round is
// discarded.
func (g *Game) UndoRound() error {
	if len(g.rounds) == 0 {
		return scoring.ErrNothingToUndo
	}
	if _, err := g.sheet.Undo(); err != nil {
		return err
	}
	last := g.rounds[len(g.rounds)-1]
	g.rounds = g.rounds[:len(g.rounds)-1]
	g.dice = last.Rolls[0]
	g.rerolls = state.MaxRerolls
	g.rolls = []dice.Dice{g.dice}
	return nil
}

// Live is the view of a game in progress that a player needs.
type Live interface {
	CurrentDice() dice.Dice
	RerollsRemaining() int
	AvailableCategories() []scoring.Category
}

// Validate checks that a live game fits the encoder's variant and returns
// its solver state.
func Validate(l Live, enc *state.Encoder) (state.GameState, error) {
	d := dice.Canonicalize(l.CurrentDice())
	if !d.Valid() {
		return state.GameState{}, fmt.Errorf("%w: %v", dice.ErrMalformedDice, l.CurrentDice())
	}
	r := l.RerollsRemaining()
	if r < 0 || r > state.MaxRerolls {
		return state.GameState{}, fmt.Errorf("rerolls remaining out of range: %d", r)
	}
	v := enc.Variant()
	mask := enc.FullMask()
	for _, c := range l.AvailableCategories() {
		i, ok := v.Index(c)
		if !ok {
			return state.GameState{}, fmt.Errorf("category %v is not in the %s variant", c, v.Name)
		}
		mask &^= 1 << i
	}
	if mask == enc.FullMask() {
		return state.GameState{}, ErrGameOver
	}
	return state.GameState{Dice: d, Mask: mask, Rerolls: uint8(r)}, nil
}
