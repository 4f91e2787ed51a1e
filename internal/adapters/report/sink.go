// Package report writes comparison records as CSV.
package report

import (
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"go.trai.ch/crosscheck/internal/core/domain"
	"go.trai.ch/zerr"
)

// Header is the first row of every report.
var Header = []string{
	"package",
	"version",
	"solver_time",
	"reference_time",
	"solver_lock_time",
	"reference_lock_time",
	"solver_outcome",
	"classification",
}

// Sink implements ports.ReportSink. Every record is flushed as it is written
// so an interrupted run leaves a readable report.
type Sink struct {
	w      *csv.Writer
	closer io.Closer
}

// NewSink writes the header to w and returns a sink appending to it.
func NewSink(w io.Writer) (*Sink, error) {
	s := &Sink{w: csv.NewWriter(w)}
	if err := s.row(Header); err != nil {
		return nil, err
	}
	return s, nil
}

// Create truncates the file at path and returns a sink writing to it.
func Create(path string) (*Sink, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrReportWriteFailed, err.Error()), "path", path)
		}
	}
	f, err := os.Create(path) //nolint:gosec // path is the configured report location
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrReportWriteFailed, err.Error()), "path", path)
	}
	s, err := NewSink(f)
	if err != nil {
		_ = f.Close()
		return nil, zerr.With(err, "path", path)
	}
	s.closer = f
	return s, nil
}

// Write appends one record.
func (s *Sink) Write(c domain.Comparison) error {
	return s.row([]string{
		c.Package.String(),
		c.Version.String(),
		seconds(c.SolverTime),
		seconds(c.ReferenceTime),
		seconds(c.SolverLockTime),
		seconds(c.ReferenceLockTime),
		string(c.SolverOutcome),
		string(c.Classification),
	})
}

// Close flushes pending output and closes the underlying file, if any.
func (s *Sink) Close() error {
	s.w.Flush()
	err := s.w.Error()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return zerr.Wrap(domain.ErrReportWriteFailed, err.Error())
	}
	return nil
}

func (s *Sink) row(fields []string) error {
	if err := s.w.Write(fields); err != nil {
		return zerr.Wrap(domain.ErrReportWriteFailed, err.Error())
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return zerr.Wrap(domain.ErrReportWriteFailed, err.Error())
	}
	return nil
}

func seconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
