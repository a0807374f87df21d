// Package zap provides a Zap implementation of the bridgekit Logger
// interface.
//
// Usage:
//
//	import zaplogger "github.com/madcok-co/bridgekit/contrib/logger/zap"
//
//	logger, _ := zaplogger.NewDriver(nil)
//	a := adapter.New(cfg, adapter.WithLogger(logger))
package zap

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/madcok-co/bridgekit/pkg/contracts"
)

// Driver implements contracts.Logger using Zap.
type Driver struct {
	sugar *zap.SugaredLogger
}

// Config for creating a new Zap driver.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path

	// DefaultFields are attached to every entry
	DefaultFields map[string]any
}

// DefaultConfig returns a sensible production configuration.
func DefaultConfig() *Config {
	return &Config{
		Level:  "info",
		Format: "json",
		Output: "stdout",
	}
}

// NewDriver creates a Zap logger driver.
func NewDriver(cfg *Config) (*Driver, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var level zapcore.Level
	switch cfg.Level {
	case contracts.LogLevelDebug:
		level = zapcore.DebugLevel
	case contracts.LogLevelWarn:
		level = zapcore.WarnLevel
	case contracts.LogLevelError:
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	var output zapcore.WriteSyncer
	switch cfg.Output {
	case "stderr":
		output = zapcore.AddSync(os.Stderr)
	case "stdout", "":
		output = zapcore.AddSync(os.Stdout)
	default:
		file, err := os.OpenFile(cfg.Output, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			return nil, err
		}
		output = zapcore.AddSync(file)
	}

	core := zapcore.NewCore(encoder, output, level)
	logger := zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))

	sugar := logger.Sugar()
	if len(cfg.DefaultFields) > 0 {
		fields := make([]any, 0, len(cfg.DefaultFields)*2)
		for k, v := range cfg.DefaultFields {
			fields = append(fields, k, v)
		}
		sugar = sugar.With(fields...)
	}

	return &Driver{sugar: sugar}, nil
}

// NewDriverWithLogger wraps an existing zap logger.
func NewDriverWithLogger(logger *zap.Logger) *Driver {
	return &Driver{sugar: logger.Sugar()}
}

func (d *Driver) Debug(msg string, fields ...any) { d.sugar.Debugw(msg, fields...) }
func (d *Driver) Info(msg string, fields ...any)  { d.sugar.Infow(msg, fields...) }
func (d *Driver) Warn(msg string, fields ...any)  { d.sugar.Warnw(msg, fields...) }
func (d *Driver) Error(msg string, fields ...any) { d.sugar.Errorw(msg, fields...) }

// With returns a logger with fields attached to every entry.
func (d *Driver) With(fields ...any) contracts.Logger {
	return &Driver{sugar: d.sugar.With(fields...)}
}

// Named returns a named sub-logger.
func (d *Driver) Named(name string) contracts.Logger {
	return &Driver{sugar: d.sugar.Named(name)}
}

// Sync flushes buffered entries.
func (d *Driver) Sync() error {
	return d.sugar.Sync()
}
