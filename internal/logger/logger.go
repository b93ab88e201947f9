// Package logger provides the process-wide zap sugared logger.
package logger

import (
	"fmt"
	"net/url"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	logger *zap.SugaredLogger
	once   sync.Once
)

// Init builds the global logger for the given level and environment.
// Only the first call has any effect.
func Init(level, environment string) {
	once.Do(func() {
		logger = build(level, environment)
	})
}

// GetLogger returns the global logger, initializing it with defaults if needed
func GetLogger() *zap.SugaredLogger {
	once.Do(func() {
		logger = build(os.Getenv("CARTWISE_LOG_LEVEL"), os.Getenv("CARTWISE_LOG_ENVIRONMENT"))
	})
	return logger
}

// Close flushes buffered log entries
func Close() error {
	if logger == nil {
		return nil
	}
	if err := logger.Sync(); err != nil {
		fmt.Fprintf(os.Stderr, "Error syncing logger: %v\n", err)
		return err
	}
	return nil
}

func build(levelStr, environment string) *zap.SugaredLogger {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(levelStr)); err != nil {
		level = zapcore.InfoLevel
	}

	var cfg zap.Config
	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	zapLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	return zapLogger.Sugar()
}

// MaskConnectionString hides the password of a URL-style connection string
func MaskConnectionString(connStr string) string {
	u, err := url.Parse(connStr)
	if err != nil || u.User == nil {
		return connStr
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}
