package domain

import "time"

const (
	// DefaultConfigFile is the name of the run configuration file.
	DefaultConfigFile = "crosscheck.yaml"
	// DefaultIndexDir is where the registry index is read from.
	DefaultIndexDir = "index"
	// DefaultRegressionDir holds persisted failing cases.
	DefaultRegressionDir = "testdata/cases"
	// DefaultReportPath is where the comparison report is written.
	DefaultReportPath = "out.csv"
	// DefaultLockStorePath holds recorded historical solutions.
	DefaultLockStorePath = ".crosscheck/locks.json"
	// ManifestFile records the accepted classification of each regression case.
	ManifestFile = "accepted.yaml"
)

// DefaultExclude is the ecosystem subset excluded unless IncludeAll is set.
var DefaultExclude = []string{"*solana*"}

// Ecosystem selects which packages enter the snapshot.
type Ecosystem struct {
	// Exclude holds glob patterns matched against package names.
	Exclude []string
	// IncludeAll disables Exclude.
	IncludeAll bool
}

// Config holds the values of a run.
type Config struct {
	Ecosystem     Ecosystem
	IncludeYanked bool
	Mode          Mode
	// Workers is the worker pool size. Zero means one per CPU.
	Workers int
	// Filter restricts roots to package names containing it.
	Filter string
	// Timeout bounds each unit of work. Zero disables it.
	Timeout       time.Duration
	IndexDir      string
	RegressionDir string
	ReportPath    string
	LockStorePath string
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() Config {
	return Config{
		Ecosystem:     Ecosystem{Exclude: DefaultExclude},
		Mode:          ModeAll,
		IndexDir:      DefaultIndexDir,
		RegressionDir: DefaultRegressionDir,
		ReportPath:    DefaultReportPath,
		LockStorePath: DefaultLockStorePath,
	}
}
