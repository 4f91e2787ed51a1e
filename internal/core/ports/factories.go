package ports

// The adapters below are bound to paths known only once the run configuration
// is loaded, so the dependency graph provides constructors for them.

// RecordSourceFactory opens the registry index at dir.
type RecordSourceFactory func(dir string) RecordSource

// SnapshotStoreFactory opens the regression directory at dir.
type SnapshotStoreFactory func(dir string) SnapshotStore

// ReportSinkFactory creates the report file at path.
type ReportSinkFactory func(path string) (ReportSink, error)

// LockStoreFactory opens the lock store file at path.
type LockStoreFactory func(path string) (LockStore, error)
