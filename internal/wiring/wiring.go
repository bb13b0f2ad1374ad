// Package wiring registers all Graft nodes for the application.
package wiring

import (
	// Register adapter nodes.
	_ "zr/internal/adapters/approval"
	_ "zr/internal/adapters/cas"
	_ "zr/internal/adapters/config"
	_ "zr/internal/adapters/fs"
	_ "zr/internal/adapters/history"
	_ "zr/internal/adapters/logger"
	_ "zr/internal/adapters/shell"
	_ "zr/internal/adapters/telemetry"
	_ "zr/internal/adapters/vcs"
	// Register engine nodes.
	_ "zr/internal/engine/expr"
	// Register app nodes.
	_ "zr/internal/app"
)
