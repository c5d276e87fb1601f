// Package dice contains the canonical five-die multiset used everywhere in
// the engine, along with reroll masks and kept subsets.
package dice

import (
	"errors"
	"fmt"
	"math/bits"
	"slices"
	"strconv"
	"strings"
)

const (
	NumDice  = 5
	NumFaces = 6
)

var (
	ErrMalformedDice = errors.New("malformed dice")
)

// Dice is a multiset of five dice, always kept sorted ascending so that every
// permutation of the same roll compares equal.
type Dice [NumDice]uint8

// New canonicalizes the given face values into a Dice. It returns
// ErrMalformedDice if there are not exactly five values or any value is
// outside [1, 6].
func New(vals ...int) (Dice, error) {
	var d Dice
	if len(vals) != NumDice {
		return d, fmt.Errorf("%w: need %d dice, got %d", ErrMalformedDice, NumDice, len(vals))
	}
	for i, v := range vals {
		if v < 1 || v > NumFaces {
			return d, fmt.Errorf("%w: face %d out of range", ErrMalformedDice, v)
		}
		d[i] = uint8(v)
	}
	return Canonicalize(d), nil
}

// MustNew is New that panics. Meant for tests and constant tables.
func MustNew(vals ...int) Dice {
	d, err := New(vals...)
	if err != nil {
		panic(err)
	}
	return d
}

// Canonicalize sorts the dice ascending.
func Canonicalize(d Dice) Dice {
	slices.Sort(d[:])
	return d
}

// Parse reads dice written either as a run of digits ("11345") or
// separated by spaces or commas ("1 1 3 4 5", "1,1,3,4,5").
func Parse(s string) (Dice, error) {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "[]()")
	var fields []string
	if strings.ContainsAny(s, " ,") {
		fields = strings.FieldsFunc(s, func(r rune) bool {
			return r == ' ' || r == ','
		})
	} else {
		fields = strings.Split(s, "")
	}
	vals := make([]int, 0, len(fields))
	for _, f := range fields {
		v, err := strconv.Atoi(f)
		if err != nil {
			return Dice{}, fmt.Errorf("%w: %q", ErrMalformedDice, f)
		}
		vals = append(vals, v)
	}
	return New(vals...)
}

// Valid reports whether every die is a legal face and the dice are sorted.
func (d Dice) Valid() bool {
	for i, v := range d {
		if v < 1 || v > NumFaces {
			return false
		}
		if i > 0 && d[i-1] > v {
			return false
		}
	}
	return true
}

// Counts returns how many dice show each face; index 0 is unused.
func (d Dice) Counts() [NumFaces + 1]uint8 {
	var c [NumFaces + 1]uint8
	for _, v := range d {
		c[v]++
	}
	return c
}

func (d Dice) Sum() int {
	s := 0
	for _, v := range d {
		s += int(v)
	}
	return s
}

func (d Dice) String() string {
	var sb strings.Builder
	for _, v := range d {
		sb.WriteByte('0' + v)
	}
	return sb.String()
}

// Split removes the dice selected by the mask. It returns what is kept and
// how many dice go back into the cup.
func (d Dice) Split(m RerollMask) (Keep, int) {
	var k Keep
	for i, v := range d {
		if m&(1<<i) == 0 {
			k.vals[k.n] = v
			k.n++
		}
	}
	return k, NumDice - int(k.n)
}

// Merge combines kept dice with freshly rolled faces and canonicalizes.
// It panics if the total isn't five dice.
func Merge(k Keep, rolled []int) Dice {
	if int(k.n)+len(rolled) != NumDice {
		panic(fmt.Sprintf("cannot merge %d kept dice with %d rolled", k.n, len(rolled)))
	}
	var d Dice
	copy(d[:], k.vals[:k.n])
	for i, r := range rolled {
		d[int(k.n)+i] = uint8(r)
	}
	return Canonicalize(d)
}

// RerollMask selects dice positions (in canonical order) to pick up and roll
// again. Bit i refers to the die at index i.
type RerollMask uint8

const (
	KeepAll   RerollMask = 0
	RerollAll RerollMask = 1<<NumDice - 1
)

func (m RerollMask) Count() int {
	return bits.OnesCount8(uint8(m & RerollAll))
}

// Valid reports whether the mask only refers to existing positions.
func (m RerollMask) Valid() bool {
	return m&^RerollAll == 0
}

// Faces lists the face values that a mask rerolls from the given dice.
func (m RerollMask) Faces(d Dice) []uint8 {
	faces := make([]uint8, 0, NumDice)
	for i, v := range d {
		if m&(1<<i) != 0 {
			faces = append(faces, v)
		}
	}
	return faces
}

// MaskFor picks the dice showing the given faces, taking the leftmost
// matching die for each. It fails if d doesn't hold those faces.
func MaskFor(d Dice, faces ...int) (RerollMask, error) {
	var m RerollMask
	for _, f := range faces {
		found := false
		for i, v := range d {
			if int(v) == f && m&(1<<i) == 0 {
				m |= 1 << i
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("%w: %v has no more %d to reroll", ErrMalformedDice, d, f)
		}
	}
	return m, nil
}

// Keep is a sorted sub-multiset of zero to five dice: what stays on the
// table during a reroll.
type Keep struct {
	vals [NumDice]uint8
	n    uint8
}

func NewKeep(vals ...uint8) Keep {
	if len(vals) > NumDice {
		panic(fmt.Sprintf("keep of %d dice", len(vals)))
	}
	var k Keep
	copy(k.vals[:], vals)
	k.n = uint8(len(vals))
	slices.Sort(k.vals[:k.n])
	return k
}

func (k Keep) Len() int {
	return int(k.n)
}

func (k Keep) Values() []uint8 {
	return slices.Clone(k.vals[:k.n])
}

func (k Keep) String() string {
	if k.n == 0 {
		return "-"
	}
	var sb strings.Builder
	for _, v := range k.vals[:k.n] {
		sb.WriteByte('0' + v)
	}
	return sb.String()
}
