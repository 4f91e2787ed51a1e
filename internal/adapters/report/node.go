package report

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/crosscheck/internal/core/ports"
)

// NodeID is the graft node providing the report sink constructor.
const NodeID graft.ID = "adapter.report"

func init() {
	graft.Register(graft.Node[ports.ReportSinkFactory]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ReportSinkFactory, error) {
			return func(path string) (ports.ReportSink, error) {
				sink, err := Create(path)
				if err != nil {
					return nil, err
				}
				return sink, nil
			}, nil
		},
	})
}
