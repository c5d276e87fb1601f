// Package montecarlo plays games out under a policy with real random dice,
// to measure what the policy scores in practice.
package montecarlo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"
	"lukechampine.com/frand"

	"github.com/domino14/yahtzee/action"
	"github.com/domino14/yahtzee/dice"
	"github.com/domino14/yahtzee/game"
	"github.com/domino14/yahtzee/policy"
	"github.com/domino14/yahtzee/state"
	"github.com/domino14/yahtzee/stats"
	"github.com/domino14/yahtzee/transition"
)

var (
	ErrBadStart = errors.New("starting state is malformed")
	ErrBadGames = errors.New("number of games must not be negative")
)

const defaultCheckInterval = 500

// LogGame is one simulated game, for serializing to a log stream.
type LogGame struct {
	Game   int       `yaml:"game"`
	Thread int       `yaml:"thread"`
	Score  int       `yaml:"score"`
	Turns  []LogTurn `yaml:"turns"`
}

// LogTurn is a single decision.
type LogTurn struct {
	Dice    string `yaml:"dice"`
	Rerolls int    `yaml:"rerolls"`
	Action  string `yaml:"action"`
	Reward  int    `yaml:"reward,omitempty"`
}

// Summary is the outcome of a simulation.
type Summary struct {
	Games   int
	Mean    float64
	Stdev   float64
	StdErr  float64
	Min     float64
	Max     float64
	Stopped bool
	Elapsed time.Duration
	// Scores has every game's score in completion order.
	Scores []float64
}

type Simulator struct {
	model   *transition.Model
	decider policy.Decider
	threads int
	seed    uint64
	// seed used by the last run
	lastSeed uint64

	stop          StoppingCondition
	maxError      float64
	checkInterval int

	logStream io.Writer
}

type Option func(*Simulator)

func WithThreads(n int) Option {
	return func(s *Simulator) {
		s.threads = max(1, n)
	}
}

// WithSeed fixes the dice. Game i always sees the same dice for a given
// seed, whatever the thread count. 0 picks a random seed.
func WithSeed(seed uint64) Option {
	return func(s *Simulator) {
		s.seed = seed
	}
}

// WithStoppingCondition ends the run early once the confidence interval
// around the mean is no wider than maxError points either side.
func WithStoppingCondition(sc StoppingCondition, maxError float64) Option {
	return func(s *Simulator) {
		s.stop = sc
		s.maxError = maxError
	}
}

// WithLogStream writes every game as a YAML document to w.
func WithLogStream(w io.Writer) Option {
	return func(s *Simulator) {
		s.logStream = w
	}
}

func NewSimulator(model *transition.Model, decider policy.Decider, opts ...Option) *Simulator {
	s := &Simulator{
		model:         model,
		decider:       decider,
		threads:       max(1, runtime.NumCPU()),
		checkInterval: defaultCheckInterval,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Seed is the seed of the last run.
func (s *Simulator) Seed() uint64 {
	return s.lastSeed
}

func (s *Simulator) checkStart(start state.GameState) error {
	enc := s.model.Encoder()
	if !start.Dice.Valid() || start.Dice != dice.Canonicalize(start.Dice) {
		return fmt.Errorf("%w: dice %v", ErrBadStart, start.Dice)
	}
	if start.Rerolls > state.MaxRerolls {
		return fmt.Errorf("%w: %d rerolls", ErrBadStart, start.Rerolls)
	}
	if int(start.Mask) >= enc.NumMasks() {
		return fmt.Errorf("%w: mask %b", ErrBadStart, start.Mask)
	}
	return nil
}

// Run plays up to games games from start and summarizes the points scored
// from start onward (the upper bonus is not counted). Canceling ctx ends
// the run early; that is not an error.
func (s *Simulator) Run(ctx context.Context, start state.GameState, games int) (*Summary, error) {
	if err := s.checkStart(start); err != nil {
		return nil, err
	}
	if games < 0 {
		return nil, fmt.Errorf("%w: %d", ErrBadGames, games)
	}
	logger := zerolog.Ctx(ctx)
	seed := s.seed
	if seed == 0 {
		seed = frand.Uint64n(1<<63) + 1
	}
	s.lastSeed = seed
	logger.Info().Int("games", games).Int("threads", s.threads).Uint64("seed", seed).
		Str("start", start.String()).Msg("sim-starting")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		stat    stats.Statistic
		scores  = make([]float64, 0, games)
		next    atomic.Int64
		stopped atomic.Bool
	)

	logChan := make(chan []byte)
	writer := errgroup.Group{}
	if s.logStream != nil {
		writer.Go(func() error {
			for b := range logChan {
				if _, err := s.logStream.Write(b); err != nil {
					logger.Err(err).Msg("log-stream-write")
				}
			}
			return nil
		})
	}

	tstart := time.Now()
	g := errgroup.Group{}
	for t := 0; t < s.threads; t++ {
		g.Go(func() error {
			for ctx.Err() == nil {
				i := int(next.Add(1) - 1)
				if i >= games {
					return nil
				}
				rng := rand.New(rand.NewPCG(seed, uint64(i)))
				var lg *LogGame
				if s.logStream != nil {
					lg = &LogGame{Game: i, Thread: t}
				}
				score := s.playOut(rng, start, lg)
				if lg != nil {
					out, err := yaml.Marshal(lg)
					if err != nil {
						return err
					}
					logChan <- append([]byte("---\n"), out...)
				}

				mu.Lock()
				stat.Push(float64(score))
				scores = append(scores, float64(score))
				n := stat.Iterations()
				done := s.stop != StopNone && n%s.checkInterval == 0 &&
					s.stop.satisfied(&stat, s.maxError)
				mu.Unlock()
				if done {
					logger.Info().Int("games", n).Msg("reached-stopping-condition")
					stopped.Store(true)
					cancel()
				}
			}
			return nil
		})
	}
	err := g.Wait()
	close(logChan)
	writer.Wait()
	if err != nil {
		return nil, err
	}

	sum := &Summary{
		Games:   stat.Iterations(),
		Mean:    stat.Mean(),
		Stdev:   stat.Stdev(),
		StdErr:  stat.StandardError(),
		Min:     stat.Min(),
		Max:     stat.Max(),
		Stopped: stopped.Load(),
		Elapsed: time.Since(tstart),
		Scores:  scores,
	}
	logger.Info().Int("games", sum.Games).Float64("mean", sum.Mean).Float64("stderr", sum.StdErr).
		Bool("stopped", sum.Stopped).Dur("elapsed", sum.Elapsed).Msg("sim-ended")
	return sum, nil
}

// playOut follows the decider from start to the end of the game and
// returns the points it scored.
func (s *Simulator) playOut(rng *rand.Rand, start state.GameState, lg *LogGame) int {
	enc := s.model.Encoder()
	st := start
	total := 0
	for {
		a, ok := s.decider.Decide(st)
		if !ok {
			break
		}
		r := s.model.Reward(st, a)
		total += r
		if lg != nil {
			lg.Turns = append(lg.Turns, LogTurn{
				Dice:    st.Dice.String(),
				Rerolls: int(st.Rerolls),
				Action:  action.Describe(a, st, enc),
				Reward:  r,
			})
		}
		if a.IsReroll() {
			kept, n := st.Dice.Split(a.Mask())
			st.Dice = dice.Merge(kept, game.Roll(rng, n))
			st.Rerolls--
			continue
		}
		st.Mask = st.Mask.With(a.Category())
		if st.Mask == enc.FullMask() {
			break
		}
		st = state.Start(dice.Merge(dice.Keep{}, game.Roll(rng, dice.NumDice)), st.Mask)
	}
	if lg != nil {
		lg.Score = total
	}
	return total
}
