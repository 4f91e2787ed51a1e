package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/crosscheck/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/crosscheck/internal/adapters/index"              //nolint:depguard // Wired in app layer
	"go.trai.ch/crosscheck/internal/adapters/lockstore"          //nolint:depguard // Wired in app layer
	"go.trai.ch/crosscheck/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/crosscheck/internal/adapters/report"             //nolint:depguard // Wired in app layer
	"go.trai.ch/crosscheck/internal/adapters/snapshot"           //nolint:depguard // Wired in app layer
	"go.trai.ch/crosscheck/internal/adapters/telemetry"          //nolint:depguard // Wired in app layer
	"go.trai.ch/crosscheck/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/crosscheck/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			logger.NodeID,
			telemetry.TracerNodeID,
			progrock.NodeID,
			index.NodeID,
			snapshot.NodeID,
			report.NodeID,
			lockstore.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	progress, err := graft.Dep[ports.Progress](ctx)
	if err != nil {
		return nil, err
	}

	sources, err := graft.Dep[ports.RecordSourceFactory](ctx)
	if err != nil {
		return nil, err
	}

	snapshots, err := graft.Dep[ports.SnapshotStoreFactory](ctx)
	if err != nil {
		return nil, err
	}

	reports, err := graft.Dep[ports.ReportSinkFactory](ctx)
	if err != nil {
		return nil, err
	}

	locks, err := graft.Dep[ports.LockStoreFactory](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, log, tracer, progress, sources, snapshots, reports, locks), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:    app,
		Logger: log,
	}, nil
}
