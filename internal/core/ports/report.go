package ports

import "go.trai.ch/crosscheck/internal/core/domain"

// ReportSink receives one record per checked root.
// Implementations are not safe for concurrent use; a single writer owns the sink.
//
//go:generate go run go.uber.org/mock/mockgen -source=report.go -destination=mocks/mock_report.go -package=mocks
type ReportSink interface {
	// Write appends a record.
	Write(c domain.Comparison) error

	// Close flushes buffered records and releases the sink.
	Close() error
}
