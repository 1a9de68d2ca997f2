package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"

	"doubtsolver/internal/config"
)

func TestNew(t *testing.T) {
	logger, err := New(config.LoggingConfig{Level: "warn"})
	if err != nil {
		t.Fatal(err)
	}
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Error("warn should be enabled")
	}
	if _, err := New(config.LoggingConfig{Level: "chatty", Development: true}); err == nil {
		t.Error("expected error for unknown level")
	}
}
