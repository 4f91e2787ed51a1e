// Package ports defines the core interfaces for the application.
package ports

import (
	"context"
	"iter"

	"go.trai.ch/crosscheck/internal/core/domain"
)

// RecordSource yields raw release records from a registry index.
//
// A non-nil error paired with a zero record reports a malformed entry; the
// caller decides whether to continue. Fatal I/O errors end the sequence.
//
//go:generate go run go.uber.org/mock/mockgen -source=source.go -destination=mocks/mock_source.go -package=mocks
type RecordSource interface {
	Records(ctx context.Context) iter.Seq2[domain.RawRelease, error]
}
