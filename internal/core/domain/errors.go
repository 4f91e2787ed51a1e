package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidVersion is returned when a raw record carries a malformed version string.
	ErrInvalidVersion = zerr.New("invalid version")

	// ErrInvalidRequirement is returned when a dependency carries a malformed requirement string.
	ErrInvalidRequirement = zerr.New("invalid version requirement")

	// ErrInvalidDepKind is returned when a dependency kind is not normal, dev or build.
	ErrInvalidDepKind = zerr.New("invalid dependency kind")

	// ErrMissingName is returned when a raw record or dependency has no name.
	ErrMissingName = zerr.New("missing package name")

	// ErrReleaseNotFound is returned when a (package, version) pair is not in the snapshot.
	ErrReleaseNotFound = zerr.New("release not found")

	// ErrInvalidRoot is returned when a "<package>@<version>" reference cannot be parsed.
	ErrInvalidRoot = zerr.New("invalid root reference")

	// ErrInconsistentSolution is returned when an engine reports a solution that violates
	// a requirement, a feature implication or a links constraint.
	ErrInconsistentSolution = zerr.New("inconsistent solution")

	// ErrNotReproducible is returned when minimization starts from a snapshot that does not disagree.
	ErrNotReproducible = zerr.New("disagreement not reproducible")

	// ErrDisagreement is returned when at least one root produced a hard disagreement.
	ErrDisagreement = zerr.New("engines disagree")

	// ErrRegression is returned when a regression case changed classification.
	ErrRegression = zerr.New("regression case changed classification")

	// ErrInvalidMode is returned when an operation mode is not recognized.
	ErrInvalidMode = zerr.New("invalid mode, expected 'solver', 'reference', 'compare' or 'all'")

	// ErrInvalidPattern is returned when an ecosystem exclusion pattern is malformed.
	ErrInvalidPattern = zerr.New("invalid package pattern")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")

	// ErrIndexReadFailed is returned when the registry index cannot be read.
	ErrIndexReadFailed = zerr.New("failed to read registry index")

	// ErrIndexRecordInvalid is returned for an index line that is not a valid record.
	ErrIndexRecordInvalid = zerr.New("malformed index record")

	// ErrSnapshotReadFailed is returned when a snapshot file cannot be read.
	ErrSnapshotReadFailed = zerr.New("failed to read snapshot")

	// ErrSnapshotDecodeFailed is returned when a snapshot file cannot be decoded.
	ErrSnapshotDecodeFailed = zerr.New("failed to decode snapshot")

	// ErrSnapshotWriteFailed is returned when a snapshot file cannot be written.
	ErrSnapshotWriteFailed = zerr.New("failed to write snapshot")

	// ErrReportWriteFailed is returned when the report sink cannot be written.
	ErrReportWriteFailed = zerr.New("failed to write report")

	// ErrLockStoreReadFailed is returned when the lock store cannot be read.
	ErrLockStoreReadFailed = zerr.New("failed to read lock store")

	// ErrLockStoreWriteFailed is returned when the lock store cannot be written.
	ErrLockStoreWriteFailed = zerr.New("failed to write lock store")
)
