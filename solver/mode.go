package solver

import (
	"fmt"
	"strings"
)

// Mode selects how the Bellman backups are scheduled.
type Mode int

const (
	// ModeTopological does one exact backward pass, from the last round to
	// the first.
	ModeTopological Mode = iota
	// ModeSweep repeats full double-buffered (Jacobi) sweeps from an all-zero
	// table until the largest change in a sweep is within the tolerance.
	ModeSweep
)

func (m Mode) String() string {
	switch m {
	case ModeTopological:
		return "topological"
	case ModeSweep:
		return "sweep"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "topological", "topo", "exact":
		return ModeTopological, nil
	case "sweep", "jacobi":
		return ModeSweep, nil
	}
	return 0, fmt.Errorf("unknown solve mode %q", s)
}

// Status reports whether the solve finished.
type Status int

const (
	StatusConverged Status = iota
	// StatusNotConverged means the solve was canceled or hit the sweep cap.
	// The table is the last complete sweep (or, for topological, holds
	// final values only for the layers that finished).
	StatusNotConverged
)

func (s Status) String() string {
	switch s {
	case StatusConverged:
		return "converged"
	case StatusNotConverged:
		return "not-converged"
	}
	return fmt.Sprintf("Status(%d)", int(s))
}
