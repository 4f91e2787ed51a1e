package domain

import (
	"strings"

	"go.trai.ch/zerr"
)

// Mode selects which engines run for each root.
type Mode string

const (
	// ModeSolver runs only the constraint solver.
	ModeSolver Mode = "solver"
	// ModeReference runs only the reference resolver.
	ModeReference Mode = "reference"
	// ModeCompare runs both engines and classifies the result.
	ModeCompare Mode = "compare"
	// ModeAll runs both engines and cross-checks each against the other's lock.
	ModeAll Mode = "all"
)

// ParseMode parses a mode name. The empty string is ModeAll.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAll, nil
	case ModeSolver, ModeReference, ModeCompare, ModeAll:
		return m, nil
	default:
		return "", zerr.With(zerr.Wrap(ErrInvalidMode, "parse mode"), "mode", s)
	}
}

// RunsSolver reports whether the constraint solver runs in this mode.
func (m Mode) RunsSolver() bool {
	return m != ModeReference
}

// RunsReference reports whether the reference resolver runs in this mode.
func (m Mode) RunsReference() bool {
	return m != ModeSolver
}

// Compares reports whether both engines run and get classified against each other.
func (m Mode) Compares() bool {
	return m == ModeCompare || m == ModeAll
}

// ChecksLocks reports whether lock cross-checks run.
func (m Mode) ChecksLocks() bool {
	return m == ModeAll
}
