package shaderlab

import (
	"log/slog"

	"github.com/soypat/shaderlab/glrender"
)

// SetLogger sets the logger used by shaderlab and its glrender programs.
// Program creation and release is logged at Info level and batch commits at Debug level.
// A nil logger disables logging, which is the default.
func SetLogger(l *slog.Logger) {
	glrender.SetLogger(l)
}

// Logger returns the current logger.
func Logger() *slog.Logger {
	return glrender.Logger()
}
