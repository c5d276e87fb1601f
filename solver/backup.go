package solver

import (
	"math"

	"github.com/domino14/yahtzee/dice"
	"github.com/domino14/yahtzee/state"
	"github.com/domino14/yahtzee/transition"
)

// backer performs Bellman backups one mask at a time. Each goroutine owns
// one; the scratch space is not shared.
type backer struct {
	model  *transition.Model
	enc    *state.Encoder
	table  *dice.Table
	ncats  int
	combos int

	keepVals []float64
	write    []float64
}

func newBacker(model *transition.Model) *backer {
	enc := model.Encoder()
	return &backer{
		model:    model,
		enc:      enc,
		table:    enc.Table(),
		ncats:    enc.Variant().NumCategories(),
		combos:   enc.NumCombos(),
		keepVals: make([]float64, enc.Table().NumKeeps()),
		write:    make([]float64, enc.NumCombos()),
	}
}

// backupMask recomputes every state with mask m (all rolls, all reroll
// levels) into dst. Level r reads level r-1 of the same mask from src, and
// rs holds the round-start value of every mask. If old is non-nil the
// largest absolute change against it is returned.
//
//	Q(s, write c)  = score(dice, c) + rs[m|c]
//	Q(s, reroll k) = sum over throws of P * V(m, r-1, dice')
//
// Keep values are computed once per level and shared by every roll that can
// leave that keep.
func (b *backer) backupMask(m state.Mask, src, dst, rs, old []float64) float64 {
	for d := 0; d < b.combos; d++ {
		best := math.Inf(-1)
		for c := 0; c < b.ncats; c++ {
			if m.Has(c) {
				continue
			}
			q := float64(b.model.Score(d, c)) + rs[m.With(c)]
			if q > best {
				best = q
			}
		}
		b.write[d] = best
	}

	base := b.enc.Base(m, 0)
	copy(dst[base:base+b.combos], b.write)

	for r := 1; r <= state.MaxRerolls; r++ {
		prev := src[b.enc.Base(m, r-1):]
		for kid := range b.keepVals {
			b.keepVals[kid] = expect(b.model.KeepOutcomes(kid), prev)
		}
		base = b.enc.Base(m, r)
		for d := 0; d < b.combos; d++ {
			best := b.write[d]
			for _, mk := range b.table.CanonicalMasks(d) {
				if v := b.keepVals[b.table.KeptBy(d, mk)]; v > best {
					best = v
				}
			}
			dst[base+d] = best
		}
	}

	if old == nil {
		return 0
	}
	delta := 0.0
	for r := 0; r <= state.MaxRerolls; r++ {
		base = b.enc.Base(m, r)
		for i := base; i < base+b.combos; i++ {
			delta = max(delta, math.Abs(dst[i]-old[i]))
		}
	}
	return delta
}
