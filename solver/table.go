package solver

import (
	"fmt"

	"github.com/domino14/yahtzee/state"
	"github.com/domino14/yahtzee/transition"
)

// ValueTable is the optimal expected remaining score of every state, indexed
// by state.Index. It is read-only once returned by the solver.
type ValueTable struct {
	model  *transition.Model
	values []float64
	// expected value at the top of a round, before the opening roll, per mask.
	roundStart []float64
}

// NewValueTable wraps values (for example, read back from disk). The slice is
// owned by the table afterward.
func NewValueTable(model *transition.Model, values []float64) (*ValueTable, error) {
	enc := model.Encoder()
	if len(values) != enc.NumStates() {
		return nil, fmt.Errorf("value table has %d entries, %s variant needs %d",
			len(values), enc.Variant().Name, enc.NumStates())
	}
	vt := &ValueTable{model: model, values: values}
	vt.roundStart = make([]float64, enc.NumMasks())
	computeRoundStart(model, values, vt.roundStart)
	return vt, nil
}

// computeRoundStart fills rs[m] with the value of mask m before its opening
// roll. The full mask is worth 0.
func computeRoundStart(model *transition.Model, values []float64, rs []float64) {
	enc := model.Encoder()
	full := enc.FullMask()
	for m := range rs {
		if state.Mask(m) == full {
			rs[m] = 0
			continue
		}
		rs[m] = expect(model.RollAll(), values[enc.Base(state.Mask(m), state.MaxRerolls):])
	}
}

func (vt *ValueTable) Model() *transition.Model {
	return vt.model
}

func (vt *ValueTable) Encoder() *state.Encoder {
	return vt.model.Encoder()
}

func (vt *ValueTable) Len() int {
	return len(vt.values)
}

func (vt *ValueTable) At(i state.Index) float64 {
	return vt.values[i]
}

func (vt *ValueTable) Value(s state.GameState) float64 {
	return vt.values[vt.Encoder().Encode(s)]
}

// Values exposes the backing array for serialization. Do not modify it.
func (vt *ValueTable) Values() []float64 {
	return vt.values
}

// RoundStart is the expected remaining score with mask m written, before
// the next round's opening roll.
func (vt *ValueTable) RoundStart(m state.Mask) float64 {
	return vt.roundStart[m]
}

// GameValue is the expected final score of a new game under optimal play.
func (vt *ValueTable) GameValue() float64 {
	return vt.roundStart[0]
}

// KeepValue is the expected value of keeping subset kid with the given mask
// and rerollsAfter rerolls left once the throw lands.
func (vt *ValueTable) KeepValue(m state.Mask, rerollsAfter int, kid int) float64 {
	return expect(vt.model.KeepOutcomes(kid), vt.values[vt.Encoder().Base(m, rerollsAfter):])
}

// expect sums prob * block[dice] over the outcomes.
func expect(outs []transition.Outcome, block []float64) float64 {
	v := 0.0
	for _, o := range outs {
		v += o.Prob * block[o.Dice]
	}
	return v
}
