package checker

import "go.trai.ch/crosscheck/internal/core/domain"

// Classify classifies a pair of engine outcomes that carry no resolution.
// This is exported for testing purposes only.
func Classify(solver, reference domain.Outcome, solverErr, referenceErr error, referenceCycle bool) (domain.Classification, error) {
	return (&Checker{}).classify(
		run{outcome: solver, err: solverErr},
		run{outcome: reference, err: referenceErr, cycle: referenceCycle},
	)
}
