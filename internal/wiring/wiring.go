// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/kiln/internal/adapters/conda"
	_ "go.trai.ch/kiln/internal/adapters/config"
	_ "go.trai.ch/kiln/internal/adapters/envstate"
	_ "go.trai.ch/kiln/internal/adapters/installer"
	_ "go.trai.ch/kiln/internal/adapters/lockfile"
	_ "go.trai.ch/kiln/internal/adapters/logger"
	_ "go.trai.ch/kiln/internal/adapters/metadata"
	_ "go.trai.ch/kiln/internal/adapters/pip"
	_ "go.trai.ch/kiln/internal/adapters/telemetry"
	// Register app and engine nodes.
	_ "go.trai.ch/kiln/internal/app"
	_ "go.trai.ch/kiln/internal/engine/planner"
	_ "go.trai.ch/kiln/internal/engine/syncer"
)
