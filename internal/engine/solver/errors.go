package solver

import "go.trai.ch/zerr"

var (
	// ErrNoSolution is returned when no assignment satisfies the request.
	ErrNoSolution = zerr.New("no solution")

	errNoCandidate    = zerr.New("no candidate version matches")
	errMissingFeature = zerr.New("feature not declared")
	errUnknownDep     = zerr.New("feature refers to an unknown dependency")
	errLinksConflict  = zerr.New("native library already linked by another package")
)
