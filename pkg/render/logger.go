package render

import (
	"log/slog"

	"github.com/taigrr/softengine/internal/logging"
)

// SetLogger configures the logger for render and the packages it drives
// (texture, models). By default nothing is logged. Pass nil to restore
// silence.
//
// Levels in use:
//   - [slog.LevelDebug]: buffer allocation, texture and scene loads
//   - [slog.LevelWarn]: texture fallbacks, skipped geometry
func SetLogger(l *slog.Logger) {
	logging.SetLogger(l)
}

// Logger returns the current logger. Safe for concurrent use.
func Logger() *slog.Logger {
	return logging.Logger()
}
