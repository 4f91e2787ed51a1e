// Package config provides the run configuration loader for crosscheck.
package config

import (
	"errors"
	"io/fs"
	"os"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/crosscheck/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new configuration loader.
func NewLoader(log ports.Logger) *Loader {
	return &Loader{Logger: log}
}

// Load reads the configuration file at path. A missing file yields the defaults.
func (l *Loader) Load(path string) (domain.Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path is provided by user
	if errors.Is(err, fs.ErrNotExist) {
		l.Logger.Info("no " + path + " found, using defaults")
		return domain.DefaultConfig(), nil
	}
	if err != nil {
		return domain.Config{}, zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", path)
	}
	return Parse(data)
}

// Parse decodes a configuration document and overlays it on the defaults.
func Parse(data []byte) (domain.Config, error) {
	var file Configfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return domain.Config{}, zerr.Wrap(domain.ErrConfigParseFailed, err.Error())
	}

	cfg := domain.DefaultConfig()
	if file.Ecosystem.Exclude != nil {
		cfg.Ecosystem.Exclude = canonicalizeStrings(file.Ecosystem.Exclude)
	}
	for _, pattern := range cfg.Ecosystem.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return domain.Config{}, zerr.With(zerr.Wrap(domain.ErrInvalidPattern, "ecosystem.exclude"), "pattern", pattern)
		}
	}
	cfg.Ecosystem.IncludeAll = file.Ecosystem.IncludeAll
	cfg.IncludeYanked = file.IncludeYanked

	mode, err := domain.ParseMode(file.Mode)
	if err != nil {
		return domain.Config{}, zerr.With(err, "field", "mode")
	}
	cfg.Mode = mode

	if file.Workers != nil {
		if *file.Workers < 0 {
			return domain.Config{}, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "workers must not be negative"), "workers", *file.Workers)
		}
		cfg.Workers = *file.Workers
	}
	cfg.Filter = file.Filter

	if file.Timeout != "" {
		timeout, err := time.ParseDuration(file.Timeout)
		if err != nil || timeout < 0 {
			return domain.Config{}, zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "invalid timeout"), "timeout", file.Timeout)
		}
		cfg.Timeout = timeout
	}

	setIfNotEmpty(&cfg.IndexDir, file.Paths.Index)
	setIfNotEmpty(&cfg.RegressionDir, file.Paths.Regressions)
	setIfNotEmpty(&cfg.ReportPath, file.Paths.Report)
	setIfNotEmpty(&cfg.LockStorePath, file.Paths.Locks)
	return cfg, nil
}

// Filter builds the snapshot predicates for cfg: excluded ecosystem patterns
// and, unless included, yanked releases.
func Filter(cfg domain.Config) domain.Filter {
	var f domain.Filter
	if !cfg.Ecosystem.IncludeAll && len(cfg.Ecosystem.Exclude) > 0 {
		patterns := cfg.Ecosystem.Exclude
		f.Package = func(name string) bool {
			for _, p := range patterns {
				// Patterns are validated on load.
				if ok, _ := doublestar.Match(p, name); ok {
					return false
				}
			}
			return true
		}
	}
	if !cfg.IncludeYanked {
		f.Release = domain.ExcludeYanked
	}
	return f
}

func setIfNotEmpty(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func canonicalizeStrings(strs []string) []string {
	sorted := slices.Clone(strs)
	slices.Sort(sorted)
	return slices.Compact(sorted)
}
