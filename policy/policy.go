// Package policy turns a solved value table into decisions.
//
// Among actions with equal Q the one with the smallest action.ID wins, so
// rerolls beat writes and smaller masks and category indexes beat larger
// ones. Every function here follows that rule, so BestAction and an
// extracted Policy always agree.
package policy

import (
	"context"
	"runtime"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/domino14/yahtzee/action"
	"github.com/domino14/yahtzee/solver"
	"github.com/domino14/yahtzee/state"
)

// Scored is an action with its immediate reward and its Q value.
type Scored struct {
	Action action.Action
	Reward int
	Q      float64
}

// Decider picks an action for a state. ok is false for terminal states.
type Decider interface {
	Decide(s state.GameState) (a action.Action, ok bool)
}

// QValues scores every legal action of s, in legal (ascending ID) order.
func QValues(s state.GameState, vt *solver.ValueTable) []Scored {
	enc := vt.Encoder()
	model := vt.Model()
	acts := action.Legal(s, enc)
	if len(acts) == 0 {
		return nil
	}
	diceID := enc.Table().ID(s.Dice)
	out := make([]Scored, len(acts))
	for i, a := range acts {
		if a.IsReroll() {
			kid := enc.Table().KeptBy(diceID, a.Mask())
			out[i] = Scored{Action: a, Q: vt.KeepValue(s.Mask, int(s.Rerolls)-1, kid)}
			continue
		}
		r := model.Score(diceID, a.Category())
		out[i] = Scored{
			Action: a,
			Reward: r,
			Q:      float64(r) + vt.RoundStart(s.Mask.With(a.Category())),
		}
	}
	return out
}

// BestAction returns the argmax-Q action of s. ok is false if s is terminal.
func BestAction(s state.GameState, vt *solver.ValueTable) (action.Action, float64, bool) {
	qs := QValues(s, vt)
	if len(qs) == 0 {
		return action.Action{}, 0, false
	}
	best := 0
	for i := 1; i < len(qs); i++ {
		if qs[i].Q > qs[best].Q {
			best = i
		}
	}
	return qs[best].Action, qs[best].Q, true
}

// TableDecider decides on the fly from a value table.
type TableDecider struct {
	Table *solver.ValueTable
}

func (d TableDecider) Decide(s state.GameState) (action.Action, bool) {
	a, _, ok := BestAction(s, d.Table)
	return a, ok
}

// NoAction marks terminal states in a Policy.
const NoAction action.ID = 0xff

// Policy is the best action ID of every state, indexed by state.Index.
type Policy struct {
	enc     *state.Encoder
	actions []action.ID
}

// NewPolicy wraps a decoded action array.
func NewPolicy(enc *state.Encoder, actions []action.ID) *Policy {
	if len(actions) != enc.NumStates() {
		panic("policy length does not match the state space")
	}
	return &Policy{enc: enc, actions: actions}
}

func (p *Policy) Encoder() *state.Encoder {
	return p.enc
}

func (p *Policy) At(i state.Index) action.ID {
	return p.actions[i]
}

// Actions exposes the backing array for serialization. Do not modify it.
func (p *Policy) Actions() []action.ID {
	return p.actions
}

func (p *Policy) Decide(s state.GameState) (action.Action, bool) {
	id := p.actions[p.enc.Encode(s)]
	if id == NoAction {
		return action.Action{}, false
	}
	return action.FromID(id), true
}

// Extract computes the best action of every state. The work is split by
// mask across threads; each thread computes every keep's value once per
// (mask, rerolls) block and reuses it for all rolls.
func Extract(ctx context.Context, vt *solver.ValueTable, threads int) (*Policy, error) {
	if threads <= 0 {
		threads = runtime.NumCPU()
	}
	enc := vt.Encoder()
	model := vt.Model()
	tb := enc.Table()
	ncats := enc.Variant().NumCategories()
	acts := make([]action.ID, enc.NumStates())

	g, gctx := errgroup.WithContext(ctx)
	for t := 0; t < threads; t++ {
		g.Go(func() error {
			keepVals := make([]float64, tb.NumKeeps())
			for mi := t; mi < enc.NumMasks(); mi += threads {
				if err := gctx.Err(); err != nil {
					return err
				}
				m := state.Mask(mi)
				if m == enc.FullMask() {
					for r := 0; r <= state.MaxRerolls; r++ {
						base := enc.Base(m, r)
						for d := 0; d < enc.NumCombos(); d++ {
							acts[base+d] = NoAction
						}
					}
					continue
				}
				for r := 0; r <= state.MaxRerolls; r++ {
					if r > 0 {
						for kid := range keepVals {
							keepVals[kid] = vt.KeepValue(m, r-1, kid)
						}
					}
					base := enc.Base(m, r)
					for d := 0; d < enc.NumCombos(); d++ {
						bestID := NoAction
						bestQ := 0.0
						if r > 0 {
							for _, mk := range tb.CanonicalMasks(d) {
								q := keepVals[tb.KeptBy(d, mk)]
								if bestID == NoAction || q > bestQ {
									bestID, bestQ = action.Reroll(mk).ID(), q
								}
							}
						}
						for c := 0; c < ncats; c++ {
							if m.Has(c) {
								continue
							}
							q := float64(model.Score(d, c)) + vt.RoundStart(m.With(c))
							if bestID == NoAction || q > bestQ {
								bestID, bestQ = action.Write(c).ID(), q
							}
						}
						acts[base+d] = bestID
					}
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	zerolog.Ctx(ctx).Debug().Int("states", len(acts)).Msg("policy-extracted")
	return &Policy{enc: enc, actions: acts}, nil
}
