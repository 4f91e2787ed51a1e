package ports

import (
	"context"

	"go.trai.ch/crosscheck/internal/core/domain"
)

// Oracle decides whether a snapshot still reproduces a disagreement for a root.
//
//go:generate go run go.uber.org/mock/mockgen -source=oracle.go -destination=mocks/mock_oracle.go -package=mocks
type Oracle interface {
	Disagrees(ctx context.Context, reg *domain.Registry, root domain.Root) bool
}
