// Package logging sets up the zap.Logger used throughout the server.
package logging

import (
	"context"
	"github.com/gobuffalo/nulls"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
	"os"
)

// Defaults for Config.
const (
	DefaultMaxSize  = 64
	DefaultKeepDays = 7
)

// Config is the logging configuration.
type Config struct {
	// StdoutLogLevel is the minimum level for logging to stdout.
	StdoutLogLevel zapcore.Level `json:"stdout_log_level"`
	// HighPriorityOutput is an optional file to write warnings and errors to.
	HighPriorityOutput nulls.String `json:"high_priority_output"`
	// DebugOutput is an optional file to write all entries to.
	DebugOutput nulls.String `json:"debug_output"`
	// MaxSize is the maximum size in megabytes of log files before they get
	// rotated.
	MaxSize int `json:"max_size" validate:"gte=0"`
	// KeepDays is the number of days to keep rotated log files.
	KeepDays int `json:"keep_days" validate:"gte=0"`
	// PublishLevel is the minimum level for entries that are forwarded for
	// publishing. If not set, no entries are published.
	PublishLevel nulls.String `json:"publish_level"`
}

// NewLogger creates the zap.Logger for the given Config. The returned channel
// receives entries for publishing if Config.PublishLevel is set. Entries of the
// given omitted loggers are never published.
func NewLogger(ctx context.Context, config Config, omitPublish ...string) (*zap.Logger, <-chan LogEntry, error) {
	encConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	cores := make([]zapcore.Core, 0)
	// Stdout with colorful level output.
	stdOutEncConfig := encConfig
	stdOutEncConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cores = append(cores, zapcore.NewCore(
		zapcore.NewConsoleEncoder(stdOutEncConfig),
		zapcore.Lock(os.Stdout),
		zap.LevelEnablerFunc(func(level zapcore.Level) bool {
			return level >= config.StdoutLogLevel && level < zap.ErrorLevel
		})))
	// Errors.
	cores = append(cores, zapcore.NewCore(
		zapcore.NewConsoleEncoder(encConfig),
		zapcore.Lock(os.Stderr),
		zap.LevelEnablerFunc(func(level zapcore.Level) bool {
			return level >= zap.ErrorLevel
		})))
	if config.HighPriorityOutput.Valid {
		cores = append(cores, fileCore(encConfig, config, config.HighPriorityOutput.String, zap.WarnLevel))
	}
	if config.DebugOutput.Valid {
		cores = append(cores, fileCore(encConfig, config, config.DebugOutput.String, zap.DebugLevel))
	}
	var publishLog <-chan LogEntry
	if config.PublishLevel.Valid {
		var publishLevel zapcore.Level
		err := publishLevel.UnmarshalText([]byte(config.PublishLevel.String))
		if err != nil {
			return nil, nil, err
		}
		var core zapcore.Core
		core, publishLog = NewPublishCore(ctx, publishLevel, omitPublish...)
		cores = append(cores, core)
	}
	return zap.New(zapcore.NewTee(cores...)), publishLog, nil
}

// fileCore creates a zapcore.Core that writes to the given file with
// rotation.
func fileCore(encConfig zapcore.EncoderConfig, config Config, filename string, minLevel zapcore.Level) zapcore.Core {
	maxSize := config.MaxSize
	if maxSize == 0 {
		maxSize = DefaultMaxSize
	}
	keepDays := config.KeepDays
	if keepDays == 0 {
		keepDays = DefaultKeepDays
	}
	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(encConfig),
		zapcore.AddSync(&lumberjack.Logger{
			Filename: filename,
			MaxSize:  maxSize,
			MaxAge:   keepDays,
		}),
		zap.LevelEnablerFunc(func(level zapcore.Level) bool {
			return level >= minLevel
		}))
}
