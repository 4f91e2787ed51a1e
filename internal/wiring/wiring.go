// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/crosscheck/internal/adapters/config"
	_ "go.trai.ch/crosscheck/internal/adapters/index"
	_ "go.trai.ch/crosscheck/internal/adapters/lockstore"
	_ "go.trai.ch/crosscheck/internal/adapters/logger"
	_ "go.trai.ch/crosscheck/internal/adapters/report"
	_ "go.trai.ch/crosscheck/internal/adapters/snapshot"
	_ "go.trai.ch/crosscheck/internal/adapters/telemetry"
	_ "go.trai.ch/crosscheck/internal/adapters/telemetry/progrock"
	// Register app nodes.
	_ "go.trai.ch/crosscheck/internal/app"
)
