package solution

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/matryer/is"

	"github.com/domino14/yahtzee/dice"
	"github.com/domino14/yahtzee/policy"
	"github.com/domino14/yahtzee/scoring"
	"github.com/domino14/yahtzee/solver"
	"github.com/domino14/yahtzee/state"
	"github.com/domino14/yahtzee/transition"
)

var reducedModel = sync.OnceValue(func() *transition.Model {
	return transition.NewModel(state.NewEncoder(scoring.Reduced, dice.Shared()))
})

var reducedSolution = sync.OnceValue(func() *Solution {
	res, err := solver.New(reducedModel()).Solve(context.Background(), 1e-6, solver.ModeSweep)
	if err != nil {
		panic(err)
	}
	pol, err := policy.Extract(context.Background(), res.Table, 0)
	if err != nil {
		panic(err)
	}
	return FromResult(res, 1e-6, pol)
})

func TestRoundTrip(t *testing.T) {
	is := is.New(t)
	sol := reducedSolution()
	var buf bytes.Buffer
	is.NoErr(Write(&buf, sol))

	got, err := Read(&buf, reducedModel())
	is.NoErr(err)
	is.Equal(got.Mode, solver.ModeSweep)
	is.Equal(got.Status, solver.StatusConverged)
	is.Equal(got.Sweeps, sol.Sweeps)
	is.Equal(got.Tolerance, 1e-6)
	is.Equal(got.Table.Values(), sol.Table.Values())
	is.Equal(got.Table.GameValue(), sol.Table.GameValue())
	is.True(got.Policy != nil)
	is.Equal(got.Policy.Actions(), sol.Policy.Actions())
}

func TestWithoutPolicy(t *testing.T) {
	is := is.New(t)
	sol := *reducedSolution()
	sol.Policy = nil
	var buf bytes.Buffer
	is.NoErr(Write(&buf, &sol))
	got, err := Read(&buf, reducedModel())
	is.NoErr(err)
	is.True(got.Policy == nil)
}

func TestIncompatible(t *testing.T) {
	is := is.New(t)
	var buf bytes.Buffer
	is.NoErr(Write(&buf, reducedSolution()))
	data := buf.Bytes()

	full := transition.NewModel(state.NewEncoder(scoring.Full, dice.Shared()))
	_, err := Read(bytes.NewReader(data), full)
	is.True(errors.Is(err, ErrIncompatible))

	renamed := scoring.Reduced
	renamed.Name = "house-rules"
	other := transition.NewModel(state.NewEncoder(renamed, dice.Shared()))
	_, err = Read(bytes.NewReader(data), other)
	is.True(errors.Is(err, ErrIncompatible))
}

func TestBadFormat(t *testing.T) {
	is := is.New(t)
	_, err := Read(bytes.NewReader([]byte("definitely not gzip")), reducedModel())
	is.True(errors.Is(err, ErrBadFormat))

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err = zw.Write([]byte("ABCD\x01\x00"))
	is.NoErr(err)
	is.NoErr(zw.Close())
	_, err = Read(&buf, reducedModel())
	is.True(errors.Is(err, ErrBadFormat))
}

func TestSaveLoad(t *testing.T) {
	is := is.New(t)
	path := filepath.Join(t.TempDir(), "reduced"+Extension)
	is.NoErr(Save(path, reducedSolution()))
	got, err := Load(path, reducedModel())
	is.NoErr(err)
	is.Equal(got.Table.GameValue(), reducedSolution().Table.GameValue())

	_, err = Load(filepath.Join(t.TempDir(), "missing"), reducedModel())
	is.True(err != nil)
}
