package lockstore

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/crosscheck/internal/core/ports"
)

// NodeID is the graft node providing the lock store constructor.
const NodeID graft.ID = "adapter.lock_store"

func init() {
	graft.Register(graft.Node[ports.LockStoreFactory]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.LockStoreFactory, error) {
			return func(path string) (ports.LockStore, error) {
				store, err := NewStore(path)
				if err != nil {
					return nil, err
				}
				return store, nil
			}, nil
		},
	})
}
