package domain

import "strings"

// Outcome is the result of one engine run on one root.
type Outcome string

const (
	// OutcomeSolved indicates the engine produced an assignment.
	OutcomeSolved Outcome = "solved"
	// OutcomeNoSolution indicates the engine proved no valid assignment exists.
	OutcomeNoSolution Outcome = "no_solution"
	// OutcomeError indicates the engine failed for a reason other than unsolvability.
	OutcomeError Outcome = "error"
	// OutcomeTimeout indicates the run was cut off by the per-unit deadline.
	OutcomeTimeout Outcome = "timeout"
	// OutcomeSkipped indicates the engine was not run.
	OutcomeSkipped Outcome = "skipped"
)

// Classification is the verdict of comparing both engines on one root.
type Classification string

const (
	// ClassificationAgree indicates both engines reached the same solvability conclusion.
	ClassificationAgree Classification = "agree"
	// ClassificationDisagree indicates a hard disagreement or an inconsistent solution.
	ClassificationDisagree Classification = "disagree"
	// ClassificationSkipped indicates cross-validation did not happen or hit a known benign divergence.
	ClassificationSkipped Classification = "skipped"
	// ClassificationTimeout indicates the unit exceeded its deadline.
	ClassificationTimeout Classification = "timeout"
)

// IsFailure reports whether the classification must fail a run.
func (c Classification) IsFailure() bool {
	return c == ClassificationDisagree
}

// NormalizeClassification converts a string to a Classification, defaulting to
// disagree if unknown so that a corrupted manifest never hides a failure.
func NormalizeClassification(s string) Classification {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case string(ClassificationAgree):
		return ClassificationAgree
	case string(ClassificationSkipped):
		return ClassificationSkipped
	case string(ClassificationTimeout):
		return ClassificationTimeout
	default:
		return ClassificationDisagree
	}
}

// Comparison is the record produced for one (package, version) root.
// Durations are in seconds; zero means the step did not run.
type Comparison struct {
	Package           InternedString
	Version           Version
	SolverOutcome     Outcome
	ReferenceOutcome  Outcome
	SolverTime        float64
	ReferenceTime     float64
	SolverLockTime    float64
	ReferenceLockTime float64
	Classification    Classification
	// Reason carries the error that led to a disagreement, if any.
	Reason error
}

// Root returns the (package, version) the comparison was made for.
func (c Comparison) Root() Root {
	return Root{Package: c.Package, Version: c.Version}
}

// Manifest maps a regression case file name to its accepted classification.
type Manifest map[string]Classification
