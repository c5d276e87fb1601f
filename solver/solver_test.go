package solver

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/assert"

	"github.com/domino14/yahtzee/dice"
	"github.com/domino14/yahtzee/scoring"
	"github.com/domino14/yahtzee/state"
	"github.com/domino14/yahtzee/transition"
)

var reducedModel = sync.OnceValue(func() *transition.Model {
	return transition.NewModel(state.NewEncoder(scoring.Reduced, dice.Shared()))
})

var reducedExact = sync.OnceValue(func() *Result {
	res, err := New(reducedModel()).Solve(context.Background(), 0, ModeTopological)
	if err != nil {
		panic(err)
	}
	return res
})

func maskWithOnly(v scoring.Variant, c scoring.Category) state.Mask {
	idx, ok := v.Index(c)
	if !ok {
		panic("category not in variant")
	}
	full := state.Mask(1<<v.NumCategories() - 1)
	return full &^ (1 << idx)
}

func TestTopologicalConverges(t *testing.T) {
	is := is.New(t)
	res := reducedExact()
	is.Equal(res.Status, StatusConverged)
	is.Equal(res.Mode, ModeTopological)
	is.Equal(res.Table.Len(), reducedModel().Encoder().NumStates())
}

func TestTerminalStatesAreZero(t *testing.T) {
	is := is.New(t)
	vt := reducedExact().Table
	enc := vt.Encoder()
	for r := 0; r <= state.MaxRerolls; r++ {
		for d := 0; d < enc.NumCombos(); d++ {
			is.Equal(vt.At(state.Index(enc.Base(enc.FullMask(), r)+d)), 0.0)
		}
	}
	is.Equal(vt.RoundStart(enc.FullMask()), 0.0)
}

func TestLastRoundChance(t *testing.T) {
	vt := reducedExact().Table
	m := maskWithOnly(scoring.Reduced, scoring.Chance)

	// No rerolls: just the sum.
	s := state.GameState{Dice: dice.MustNew(2, 3, 3, 5, 6), Mask: m, Rerolls: 0}
	assert.InDelta(t, 19.0, vt.Value(s), 1e-12)

	// Each die independently: reroll below 5 with two throws left,
	// below 4 (3.5 expected) with one. 5 * 14/3.
	s = state.GameState{Dice: dice.MustNew(1, 1, 1, 1, 1), Mask: m, Rerolls: 2}
	assert.InDelta(t, 70.0/3, vt.Value(s), 1e-9)
	assert.InDelta(t, 70.0/3, vt.RoundStart(m), 1e-9)

	s = state.GameState{Dice: dice.MustNew(6, 6, 6, 6, 6), Mask: m, Rerolls: 2}
	assert.InDelta(t, 30.0, vt.Value(s), 1e-12)
}

func TestLastRoundYahtzee(t *testing.T) {
	vt := reducedExact().Table
	m := maskWithOnly(scoring.Reduced, scoring.Yahtzee)
	// P(Yahtzee within three rolls) = 2783176 / 6^10
	assert.InDelta(t, 50*2783176.0/60466176.0, vt.RoundStart(m), 1e-9)
}

func TestSweepMatchesTopological(t *testing.T) {
	is := is.New(t)
	exact := reducedExact().Table
	res, err := New(reducedModel(), WithThreads(3)).Solve(context.Background(), 1e-6, ModeSweep)
	is.NoErr(err)
	is.Equal(res.Status, StatusConverged)
	is.True(res.Delta <= 1e-6)
	// 7 rounds of 3 decisions each; the chain is exact after that many
	// sweeps and one more shows no change.
	is.True(res.Sweeps <= 7*3+1)
	for i := 0; i < exact.Len(); i++ {
		assert.InDelta(t, exact.At(state.Index(i)), res.Table.At(state.Index(i)), 1e-9)
	}
	assert.InDelta(t, exact.GameValue(), res.Table.GameValue(), 1e-9)
}

func TestSweepIsMonotone(t *testing.T) {
	is := is.New(t)
	var prev []float64
	violations := 0
	sweeps := 0
	obs := func(sweep int, delta float64, values []float64) {
		sweeps++
		if prev != nil {
			for i, v := range values {
				if v < prev[i] {
					violations++
				}
			}
		}
		prev = append(prev[:0], values...)
	}
	res, err := New(reducedModel(), WithSweepObserver(obs)).Solve(context.Background(), 1e-6, ModeSweep)
	is.NoErr(err)
	is.Equal(res.Status, StatusConverged)
	is.Equal(sweeps, res.Sweeps)
	is.Equal(violations, 0)
}

func TestSweepCap(t *testing.T) {
	is := is.New(t)
	res, err := New(reducedModel(), WithMaxSweeps(3)).Solve(context.Background(), 1e-6, ModeSweep)
	is.NoErr(err)
	is.Equal(res.Status, StatusNotConverged)
	is.Equal(res.Sweeps, 3)
	is.True(res.Delta > 1e-6)
}

func TestCanceledSolveIsNotAnError(t *testing.T) {
	is := is.New(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := New(reducedModel()).Solve(ctx, 1e-6, ModeSweep)
	is.NoErr(err)
	is.Equal(res.Status, StatusNotConverged)
	is.Equal(res.Sweeps, 0)
	is.Equal(res.Table.GameValue(), 0.0)

	res, err = New(reducedModel()).Solve(ctx, 1e-6, ModeTopological)
	is.NoErr(err)
	is.Equal(res.Status, StatusNotConverged)
}

func TestBadTolerance(t *testing.T) {
	is := is.New(t)
	_, err := New(reducedModel()).Solve(context.Background(), -1, ModeSweep)
	is.True(errors.Is(err, ErrBadTolerance))
}

func TestNewValueTable(t *testing.T) {
	is := is.New(t)
	exact := reducedExact().Table
	vals := append([]float64(nil), exact.Values()...)
	vt, err := NewValueTable(reducedModel(), vals)
	is.NoErr(err)
	is.Equal(vt.GameValue(), exact.GameValue())

	_, err = NewValueTable(reducedModel(), vals[:10])
	is.True(err != nil)
}

func TestParseMode(t *testing.T) {
	is := is.New(t)
	m, err := ParseMode("sweep")
	is.NoErr(err)
	is.Equal(m, ModeSweep)
	m, err = ParseMode("Topological")
	is.NoErr(err)
	is.Equal(m, ModeTopological)
	_, err = ParseMode("policy")
	is.True(err != nil)
}

func TestFullVariant(t *testing.T) {
	if testing.Short() {
		t.Skip("solves 6.2M states")
	}
	is := is.New(t)
	model := transition.NewModel(state.NewEncoder(scoring.Full, dice.Shared()))
	res, err := New(model).Solve(context.Background(), 0, ModeTopological)
	is.NoErr(err)
	is.Equal(res.Status, StatusConverged)
	// The upper bonus isn't part of the state, so this sits below the
	// well-known 254.59 for the game with bonus.
	gv := res.Table.GameValue()
	is.True(gv > 200 && gv < 254.59)
}
