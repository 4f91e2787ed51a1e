package snapshot

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/crosscheck/internal/core/ports"
)

// NodeID is the graft node providing the snapshot store constructor.
const NodeID graft.ID = "adapter.snapshot"

func init() {
	graft.Register(graft.Node[ports.SnapshotStoreFactory]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.SnapshotStoreFactory, error) {
			return func(dir string) ports.SnapshotStore {
				return NewStore(dir)
			}, nil
		},
	})
}
