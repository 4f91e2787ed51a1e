package ports

import "go.trai.ch/crosscheck/internal/core/domain"

// LockStore holds recorded historical solutions.
//
//go:generate go run go.uber.org/mock/mockgen -source=lockstore.go -destination=mocks/mock_lockstore.go -package=mocks
type LockStore interface {
	// Get retrieves the recorded lock for a root.
	// Returns nil, nil if not found.
	Get(root domain.Root) (*domain.Lockfile, error)

	// Put records a lock.
	Put(lock domain.Lockfile) error
}
