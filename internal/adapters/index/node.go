package index

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/crosscheck/internal/core/ports"
)

// NodeID is the graft node providing the index reader constructor.
const NodeID graft.ID = "adapter.index"

func init() {
	graft.Register(graft.Node[ports.RecordSourceFactory]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.RecordSourceFactory, error) {
			return func(dir string) ports.RecordSource {
				return NewSource(dir)
			}, nil
		},
	})
}
