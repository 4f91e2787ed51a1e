package ports

import (
	"context"
	"io"
)

//go:generate mockgen -source=telemetry.go -destination=mocks/mock_telemetry.go -package=mocks

// Tracer is the entry point for creating spans.
type Tracer interface {
	// Start creates a new span.
	Start(ctx context.Context, name string, opts ...SpanOption) (context.Context, Span)
}

// Span represents a unit of work.
type Span interface {
	io.Writer
	// End completes the span.
	End()
	// RecordError records an error for the span.
	RecordError(err error)
	// SetAttribute adds a key-value pair to the span.
	SetAttribute(key string, value any)
}

// SpanConfig holds configuration for a starting span.
type SpanConfig struct {
	// Root starts a new trace instead of nesting under the span in ctx.
	Root bool
}

// SpanOption is a functional option for configuring a span.
type SpanOption func(*SpanConfig)

// AsRoot starts the span as the root of a new trace.
func AsRoot() SpanOption {
	return func(c *SpanConfig) { c.Root = true }
}

// Progress reports per-unit progress of a batch to the terminal.
type Progress interface {
	// Unit starts tracking a named unit of work.
	Unit(name string) ProgressUnit
	// Close finishes the progress display.
	Close() error
}

// ProgressUnit is one tracked unit of work.
type ProgressUnit interface {
	io.Writer
	// Done marks the unit finished; a non-nil error marks it failed.
	Done(err error)
	// Skipped marks the unit finished without cross-validation.
	Skipped()
}
