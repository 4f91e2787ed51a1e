// Package progrock provides the Progrock implementation of ports.Progress.
package progrock

import (
	"github.com/opencontainers/go-digest"
	"github.com/vito/progrock"
	"go.trai.ch/crosscheck/internal/core/ports"
)

// Recorder implements ports.Progress using the vito/progrock library.
// Every unit of work is recorded as one vertex.
type Recorder struct {
	w   progrock.Writer
	rec *progrock.Recorder
}

var _ ports.Progress = (*Recorder)(nil)

// New creates a new Recorder with a default tape.
func New() *Recorder {
	return NewRecorder(progrock.NewTape())
}

// NewRecorder creates a new Recorder with the given writer.
func NewRecorder(w progrock.Writer) *Recorder {
	return &Recorder{
		w:   w,
		rec: progrock.NewRecorder(w),
	}
}

// Unit starts recording a new vertex.
func (r *Recorder) Unit(name string) ports.ProgressUnit {
	return &Unit{vertex: r.rec.Vertex(digest.FromString(name), name)}
}

// Close flushes and closes the recording session.
func (r *Recorder) Close() error {
	if c, ok := r.w.(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
