// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "go.trai.ch/seer/internal/adapters/config"
	_ "go.trai.ch/seer/internal/adapters/logger"
	_ "go.trai.ch/seer/internal/adapters/ruledb"
	_ "go.trai.ch/seer/internal/adapters/telemetry/progrock"
	_ "go.trai.ch/seer/internal/adapters/trigger"
	// Register app and engine nodes.
	_ "go.trai.ch/seer/internal/app"
	_ "go.trai.ch/seer/internal/engine/builder"
	_ "go.trai.ch/seer/internal/engine/scheduler"
)
