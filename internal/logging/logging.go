package logging

import (
	"fmt"

	"go.uber.org/zap"

	"doubtsolver/internal/config"
)

// New builds a JSON production logger, or a console logger in development
// mode, at the configured level.
func New(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
	}
	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = level
	// Keep stdout free for command output.
	zc.OutputPaths = []string{"stderr"}
	return zc.Build()
}
