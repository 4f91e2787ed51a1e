package ports

import "go.trai.ch/crosscheck/internal/core/domain"

// SnapshotStore persists registry snapshots as regression cases.
//
//go:generate go run go.uber.org/mock/mockgen -source=snapshot.go -destination=mocks/mock_snapshot.go -package=mocks
type SnapshotStore interface {
	// Load reads the snapshot file at path.
	Load(path string) ([]domain.RawRelease, error)

	// Save writes the records as the case for root and returns the file path.
	Save(root domain.Root, records []domain.RawRelease) (string, error)

	// Cases lists the case files of the regression directory in sorted order.
	Cases() ([]string, error)

	// Manifest returns the accepted classification of every known case.
	// A missing manifest is empty, not an error.
	Manifest() (domain.Manifest, error)

	// SaveManifest replaces the accepted classifications.
	SaveManifest(m domain.Manifest) error
}
