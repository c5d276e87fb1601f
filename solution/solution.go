// Package solution persists solved value tables, and optionally their
// policies, so a solve only has to happen once per variant.
//
// A file is gzipped. Inside, all integers are little-endian:
//
//	magic     [4]byte  "YHTZ"
//	version   uint16
//	namelen   uint8, then the variant name
//	header    (see fileHeader)
//	values    N float64
//	policy    N bytes, if header.HasPolicy is set
//
// The header carries N and a checksum of the dice ordering so a file can
// only be loaded against the exact state numbering it was written with.
package solution

import (
	"bufio"
	"compress/gzip"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/domino14/yahtzee/action"
	"github.com/domino14/yahtzee/policy"
	"github.com/domino14/yahtzee/solver"
	"github.com/domino14/yahtzee/transition"
)

const (
	Version = 1
	// Extension is the file extension the shell and cache use.
	Extension = ".yhtz"
)

var magic = [4]byte{'Y', 'H', 'T', 'Z'}

var (
	ErrBadFormat    = errors.New("not a solution file")
	ErrIncompatible = errors.New("solution file does not match this state space")
)

type fileHeader struct {
	NumCategories uint8
	NumStates     uint64
	DiceChecksum  uint64
	Mode          uint8
	Status        uint8
	Sweeps        uint32
	Tolerance     float64
	HasPolicy     uint8
}

// Solution is a solved table plus how it was solved.
type Solution struct {
	Table     *solver.ValueTable
	Policy    *policy.Policy
	Mode      solver.Mode
	Status    solver.Status
	Sweeps    int
	Tolerance float64
}

// FromResult packages a solver result. pol may be nil.
func FromResult(res *solver.Result, tolerance float64, pol *policy.Policy) *Solution {
	return &Solution{
		Table:     res.Table,
		Policy:    pol,
		Mode:      res.Mode,
		Status:    res.Status,
		Sweeps:    res.Sweeps,
		Tolerance: tolerance,
	}
}

func Write(w io.Writer, sol *Solution) error {
	enc := sol.Table.Encoder()
	name := enc.Variant().Name
	if len(name) > 255 {
		return fmt.Errorf("variant name too long: %q", name)
	}
	zw := gzip.NewWriter(w)
	bw := bufio.NewWriter(zw)

	hdr := fileHeader{
		NumCategories: uint8(enc.Variant().NumCategories()),
		NumStates:     uint64(enc.NumStates()),
		DiceChecksum:  enc.Table().Checksum(),
		Mode:          uint8(sol.Mode),
		Status:        uint8(sol.Status),
		Sweeps:        uint32(sol.Sweeps),
		Tolerance:     sol.Tolerance,
	}
	if sol.Policy != nil {
		hdr.HasPolicy = 1
	}
	for _, v := range []any{magic, uint16(Version), uint8(len(name)), []byte(name), hdr, sol.Table.Values()} {
		if err := binary.Write(bw, binary.LittleEndian, v); err != nil {
			return err
		}
	}
	if sol.Policy != nil {
		if err := binary.Write(bw, binary.LittleEndian, sol.Policy.Actions()); err != nil {
			return err
		}
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	return zw.Close()
}

// Read loads a solution for the model's state space. It fails with
// ErrIncompatible if the file was written for another variant or dice
// ordering.
func Read(r io.Reader, model *transition.Model) (*Solution, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadFormat, err)
	}
	defer zr.Close()
	br := bufio.NewReader(zr)

	var m [4]byte
	var version uint16
	var nameLen uint8
	if err := binary.Read(br, binary.LittleEndian, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadFormat, err)
	}
	if m != magic {
		return nil, ErrBadFormat
	}
	if err := binary.Read(br, binary.LittleEndian, &version); err != nil {
		return nil, err
	}
	if version != Version {
		return nil, fmt.Errorf("%w: version %d, want %d", ErrBadFormat, version, Version)
	}
	if err := binary.Read(br, binary.LittleEndian, &nameLen); err != nil {
		return nil, err
	}
	name := make([]byte, nameLen)
	if _, err := io.ReadFull(br, name); err != nil {
		return nil, err
	}
	var hdr fileHeader
	if err := binary.Read(br, binary.LittleEndian, &hdr); err != nil {
		return nil, err
	}

	enc := model.Encoder()
	switch {
	case string(name) != enc.Variant().Name:
		return nil, fmt.Errorf("%w: file is for variant %q, not %q", ErrIncompatible, name, enc.Variant().Name)
	case int(hdr.NumCategories) != enc.Variant().NumCategories():
		return nil, fmt.Errorf("%w: %d categories, want %d", ErrIncompatible, hdr.NumCategories, enc.Variant().NumCategories())
	case hdr.NumStates != uint64(enc.NumStates()):
		return nil, fmt.Errorf("%w: %d states, want %d", ErrIncompatible, hdr.NumStates, enc.NumStates())
	case hdr.DiceChecksum != enc.Table().Checksum():
		return nil, fmt.Errorf("%w: dice ordering checksum %x, want %x", ErrIncompatible, hdr.DiceChecksum, enc.Table().Checksum())
	}

	values := make([]float64, hdr.NumStates)
	if err := binary.Read(br, binary.LittleEndian, values); err != nil {
		return nil, err
	}
	vt, err := solver.NewValueTable(model, values)
	if err != nil {
		return nil, err
	}
	sol := &Solution{
		Table:     vt,
		Mode:      solver.Mode(hdr.Mode),
		Status:    solver.Status(hdr.Status),
		Sweeps:    int(hdr.Sweeps),
		Tolerance: hdr.Tolerance,
	}
	if hdr.HasPolicy == 1 {
		acts := make([]action.ID, hdr.NumStates)
		if err := binary.Read(br, binary.LittleEndian, acts); err != nil {
			return nil, err
		}
		sol.Policy = policy.NewPolicy(enc, acts)
	}
	return sol, nil
}

func Save(path string, sol *Solution) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, sol); err != nil {
		f.Close()
		return err
	}
	log.Info().Str("path", path).Str("variant", sol.Table.Encoder().Variant().Name).Msg("saved-solution")
	return f.Close()
}

func Load(path string, model *transition.Model) (*Solution, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	sol, err := Read(f, model)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	log.Info().Str("path", path).Str("status", sol.Status.String()).Msg("loaded-solution")
	return sol, nil
}
