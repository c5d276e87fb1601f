package dice

import (
	"fmt"
	"slices"
	"sync"

	"github.com/cespare/xxhash/v2"
	"gonum.org/v1/gonum/stat/combin"
)

// NumCombos is the number of distinct five-die multisets, C(6+5-1, 5).
var NumCombos = combin.Binomial(NumFaces+NumDice-1, NumDice)

const numMasks = 1 << NumDice

// 6^5 slots; a sorted roll maps to a unique base-6 key.
const keySpace = 7776

// Table holds the rank of every canonical roll, every possible kept subset,
// and for each roll the reroll masks that lead to distinct keeps. It is
// immutable once built and safe to share between goroutines.
type Table struct {
	combos []Dice
	ranks  []int16

	keeps   []Keep
	keepIDs map[Keep]int

	// per roll, per mask
	keepOf [][numMasks]int16
	repr   [][numMasks]RerollMask
	masks  [][]RerollMask

	checksum uint64
}

// Shared returns a process-wide table, built on first use.
var Shared = sync.OnceValue(NewTable)

// multisets returns every sorted multiset of k faces, in lexicographic order.
func multisets(k int) [][]uint8 {
	if k == 0 {
		return [][]uint8{{}}
	}
	// stars and bars: a k-combination c of n+k-1 items maps to the
	// non-decreasing sequence c[i]-i+1.
	cs := combin.Combinations(NumFaces+k-1, k)
	out := make([][]uint8, len(cs))
	for i, c := range cs {
		m := make([]uint8, k)
		for j, v := range c {
			m[j] = uint8(v - j + 1)
		}
		out[i] = m
	}
	slices.SortFunc(out, func(a, b []uint8) int {
		return slices.Compare(a, b)
	})
	return out
}

func key(d Dice) int {
	k := 0
	for i := NumDice - 1; i >= 0; i-- {
		k = k*NumFaces + int(d[i]-1)
	}
	return k
}

func NewTable() *Table {
	t := &Table{
		ranks:   make([]int16, keySpace),
		keepIDs: make(map[Keep]int),
	}
	for i := range t.ranks {
		t.ranks[i] = -1
	}
	for _, m := range multisets(NumDice) {
		var d Dice
		copy(d[:], m)
		t.ranks[key(d)] = int16(len(t.combos))
		t.combos = append(t.combos, d)
	}
	if len(t.combos) != NumCombos {
		panic(fmt.Sprintf("enumerated %d rolls, expected %d", len(t.combos), NumCombos))
	}

	for k := 0; k <= NumDice; k++ {
		for _, m := range multisets(k) {
			kp := NewKeep(m...)
			t.keepIDs[kp] = len(t.keeps)
			t.keeps = append(t.keeps, kp)
		}
	}

	t.keepOf = make([][numMasks]int16, len(t.combos))
	t.repr = make([][numMasks]RerollMask, len(t.combos))
	t.masks = make([][]RerollMask, len(t.combos))
	for id, d := range t.combos {
		firstMask := make(map[int]RerollMask)
		for m := RerollMask(0); m < numMasks; m++ {
			kp, _ := d.Split(m)
			kid := t.keepIDs[kp]
			t.keepOf[id][m] = int16(kid)
			first, seen := firstMask[kid]
			if !seen {
				firstMask[kid] = m
				first = m
				if m != KeepAll {
					t.masks[id] = append(t.masks[id], m)
				}
			}
			t.repr[id][m] = first
		}
	}

	h := xxhash.New()
	for _, d := range t.combos {
		h.Write(d[:])
	}
	t.checksum = h.Sum64()
	return t
}

// Len is the number of canonical rolls.
func (t *Table) Len() int {
	return len(t.combos)
}

// ID returns the lexicographic rank of a canonical roll. Passing dice that
// are not canonical is a programming error.
func (t *Table) ID(d Dice) int {
	if !d.Valid() {
		panic(fmt.Sprintf("malformed state: dice %v are not canonical", [NumDice]uint8(d)))
	}
	return int(t.ranks[key(d)])
}

func (t *Table) Combo(id int) Dice {
	if id < 0 || id >= len(t.combos) {
		panic(fmt.Sprintf("malformed state: dice id %d out of range", id))
	}
	return t.combos[id]
}

func (t *Table) NumKeeps() int {
	return len(t.keeps)
}

func (t *Table) Keep(id int) Keep {
	return t.keeps[id]
}

func (t *Table) KeepID(k Keep) (int, bool) {
	id, ok := t.keepIDs[k]
	return id, ok
}

// KeptBy returns the id of the keep left on the table when the mask is
// applied to roll diceID.
func (t *Table) KeptBy(diceID int, m RerollMask) int {
	return int(t.keepOf[diceID][m&RerollAll])
}

// CanonicalMasks lists, in ascending order, one non-empty reroll mask per
// distinct kept subset of the roll. Masks that reroll the same faces are
// collapsed onto the smallest of them.
func (t *Table) CanonicalMasks(diceID int) []RerollMask {
	return t.masks[diceID]
}

// CanonicalMask maps any mask onto the representative in CanonicalMasks
// that rerolls the same faces.
func (t *Table) CanonicalMask(diceID int, m RerollMask) RerollMask {
	return t.repr[diceID][m&RerollAll]
}

// Checksum identifies the roll ordering. Persisted tables carry it so that
// a file written against another ordering is rejected.
func (t *Table) Checksum() uint64 {
	return t.checksum
}
