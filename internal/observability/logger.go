package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/leslieo2/go-status-board/internal/config"
)

// Logger is the process-wide logger. Components take a named child of it.
type Logger struct {
	*zap.Logger
}

// NewLogger builds a zap logger from the logging configuration.
// An unknown level falls back to info. Errors of the logger itself go to stderr.
func NewLogger(cfg config.LoggingConfig) (*Logger, error) {
	zapConfig := zap.NewProductionConfig()
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zapConfig.Level = zap.NewAtomicLevelAt(level)

	zapConfig.Encoding = "console"
	if cfg.Format == "json" {
		zapConfig.Encoding = "json"
	}
	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	if cfg.Output != "" {
		zapConfig.OutputPaths = []string{cfg.Output}
	}
	zapConfig.ErrorOutputPaths = []string{"stderr"}
	zapConfig.InitialFields = map[string]interface{}{"app": "go-status-board"}

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{logger}, nil
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() *Logger {
	return &Logger{zap.NewNop()}
}

// Component returns the child logger for one part of the board,
// e.g. "scanner" or "render".
func (l *Logger) Component(name string) *zap.Logger {
	return l.Logger.Named(name)
}

func (l *Logger) Sync() error {
	return l.Logger.Sync()
}
