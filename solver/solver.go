// Package solver computes the optimal expected score of every state by
// value iteration over the full state space.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/pbnjay/memory"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/yahtzee/state"
	"github.com/domino14/yahtzee/transition"
)

const DefaultMaxSweeps = 200

var (
	ErrBadTolerance       = errors.New("tolerance must be a non-negative number")
	ErrInsufficientMemory = errors.New("not enough memory for the value table")
)

// Result is what a solve produced. A canceled or capped solve is not an
// error; it comes back with StatusNotConverged.
type Result struct {
	Table   *ValueTable
	Status  Status
	Mode    Mode
	Sweeps  int
	Delta   float64
	Elapsed time.Duration
}

// SweepObserver is called after every completed sweep in sweep mode with the
// sweep number, its delta, and the new values. It must not keep or modify
// the slice.
type SweepObserver func(sweep int, delta float64, values []float64)

type Solver struct {
	model     *transition.Model
	threads   int
	maxSweeps int
	observer  SweepObserver
}

type Option func(*Solver)

func WithThreads(n int) Option {
	return func(s *Solver) {
		s.threads = max(1, n)
	}
}

// WithMaxSweeps caps sweep mode; 0 means no cap.
func WithMaxSweeps(n int) Option {
	return func(s *Solver) {
		s.maxSweeps = n
	}
}

func WithSweepObserver(o SweepObserver) Option {
	return func(s *Solver) {
		s.observer = o
	}
}

func New(model *transition.Model, opts ...Option) *Solver {
	s := &Solver{
		model:     model,
		threads:   max(1, runtime.NumCPU()),
		maxSweeps: DefaultMaxSweeps,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Solver) Threads() int {
	return s.threads
}

func (s *Solver) checkMemory(ctx context.Context, buffers int) error {
	need := uint64(s.model.Encoder().NumStates()) * 8 * uint64(buffers)
	total := memory.TotalMemory()
	if total == 0 {
		// unknown platform
		return nil
	}
	if need > total {
		return fmt.Errorf("%w: need %d bytes, have %d", ErrInsufficientMemory, need, total)
	}
	if need > total/2 {
		zerolog.Ctx(ctx).Warn().Uint64("need", need).Uint64("total", total).
			Msg("value-table-uses-over-half-of-memory")
	}
	return nil
}

// Solve runs value iteration. tolerance only matters for sweep mode, where
// sweeping stops once the largest change in a sweep is at most tolerance.
// Canceling ctx stops the solve early; the partial table is returned with
// StatusNotConverged and no error.
func (s *Solver) Solve(ctx context.Context, tolerance float64, mode Mode) (*Result, error) {
	if math.IsNaN(tolerance) || tolerance < 0 {
		return nil, ErrBadTolerance
	}
	logger := zerolog.Ctx(ctx)
	enc := s.model.Encoder()
	logger.Info().Str("variant", enc.Variant().Name).Str("mode", mode.String()).
		Int("states", enc.NumStates()).Int("threads", s.threads).
		Float64("tolerance", tolerance).Msg("solve-starting")

	tstart := time.Now()
	var res *Result
	var err error
	switch mode {
	case ModeTopological:
		if err = s.checkMemory(ctx, 1); err != nil {
			return nil, err
		}
		res, err = s.solveTopological(ctx)
	case ModeSweep:
		if err = s.checkMemory(ctx, 2); err != nil {
			return nil, err
		}
		res, err = s.solveSweep(ctx, tolerance)
	default:
		return nil, fmt.Errorf("unknown mode %v", mode)
	}
	if err != nil {
		return nil, err
	}
	res.Mode = mode
	res.Elapsed = time.Since(tstart)
	logger.Info().Str("status", res.Status.String()).Int("sweeps", res.Sweeps).
		Float64("delta", res.Delta).Float64("game-value", res.Table.GameValue()).
		Dur("elapsed", res.Elapsed).Msg("solve-ended")
	return res, nil
}

// solveTopological visits masks in order of decreasing filled count. Every
// successor of a mask has one more category written, so by the time a layer
// runs all of its successors are final and a single backup is exact. Masks
// within a layer are independent and split between threads.
func (s *Solver) solveTopological(ctx context.Context) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	enc := s.model.Encoder()
	ncats := enc.Variant().NumCategories()
	values := make([]float64, enc.NumStates())
	rs := make([]float64, enc.NumMasks())

	layers := make([][]state.Mask, ncats+1)
	for m := 0; m < enc.NumMasks(); m++ {
		f := state.Mask(m).Filled()
		layers[f] = append(layers[f], state.Mask(m))
	}

	status := StatusConverged
	for filled := ncats - 1; filled >= 0; filled-- {
		if ctx.Err() != nil {
			logger.Info().Int("filled", filled).Msg("solve-canceled")
			status = StatusNotConverged
			break
		}
		layer := layers[filled]
		g := errgroup.Group{}
		for t := 0; t < s.threads; t++ {
			g.Go(func() error {
				b := newBacker(s.model)
				for i := t; i < len(layer); i += s.threads {
					m := layer[i]
					b.backupMask(m, values, values, rs, nil)
					rs[m] = expect(s.model.RollAll(), values[enc.Base(m, state.MaxRerolls):])
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		logger.Debug().Int("filled", filled).Int("masks", len(layer)).Msg("layer-done")
	}

	vt := &ValueTable{model: s.model, values: values, roundStart: rs}
	return &Result{Table: vt, Status: status, Sweeps: 1}, nil
}

// solveSweep is the classic value iteration: repeated full sweeps over all
// states. Each sweep reads only the previous sweep's buffer and writes the
// other one, so threads never see a half-updated table. Starting from zero,
// values never decrease from one sweep to the next.
func (s *Solver) solveSweep(ctx context.Context, tolerance float64) (*Result, error) {
	logger := zerolog.Ctx(ctx)
	enc := s.model.Encoder()
	old := make([]float64, enc.NumStates())
	cur := make([]float64, enc.NumStates())
	rs := make([]float64, enc.NumMasks())

	res := &Result{Status: StatusNotConverged, Delta: math.Inf(1)}
	for sweep := 1; ; sweep++ {
		delta, err := s.sweepOnce(ctx, old, cur, rs)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				// Not actually an error; keep the last full sweep.
				logger.Info().Int("sweep", sweep).AnErr("ctx", err).Msg("solve-canceled")
				break
			}
			return nil, err
		}
		old, cur = cur, old
		res.Sweeps = sweep
		res.Delta = delta
		logger.Debug().Int("sweep", sweep).Float64("delta", delta).Msg("sweep-done")
		if s.observer != nil {
			s.observer(sweep, delta, old)
		}
		if delta <= tolerance {
			res.Status = StatusConverged
			break
		}
		if s.maxSweeps > 0 && sweep >= s.maxSweeps {
			logger.Warn().Int("sweeps", sweep).Float64("delta", delta).Msg("sweep-cap-reached")
			break
		}
	}

	vt := &ValueTable{model: s.model, values: old, roundStart: make([]float64, enc.NumMasks())}
	computeRoundStart(s.model, old, vt.roundStart)
	res.Table = vt
	return res, nil
}

// sweepOnce backs up every non-terminal state of src into dst and returns
// the largest change. rs is scratch space for the round-start values of src.
func (s *Solver) sweepOnce(ctx context.Context, src, dst, rs []float64) (float64, error) {
	enc := s.model.Encoder()
	computeRoundStart(s.model, src, rs)
	full := enc.FullMask()
	deltas := make([]float64, s.threads)

	g, gctx := errgroup.WithContext(ctx)
	for t := 0; t < s.threads; t++ {
		g.Go(func() error {
			b := newBacker(s.model)
			for m := t; m < enc.NumMasks(); m += s.threads {
				if state.Mask(m) == full {
					continue
				}
				if err := gctx.Err(); err != nil {
					return err
				}
				deltas[t] = max(deltas[t], b.backupMask(state.Mask(m), src, dst, rs, src))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	delta := 0.0
	for _, d := range deltas {
		delta = max(delta, d)
	}
	return delta, nil
}
