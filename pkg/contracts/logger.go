package contracts

// Logger is the generic logging interface used across bridgekit.
// Implementations can wrap zap, zerolog, slog, etc.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)

	// With returns a logger with additional fields attached to every entry
	With(fields ...any) Logger

	// Named returns a sub-logger with a name prefix
	Named(name string) Logger

	// Sync flushes any buffered log entries
	Sync() error
}

// LogLevel constants
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

// NopLogger is a Logger that discards everything. Useful as a default
// and in tests.
type NopLogger struct{}

func (NopLogger) Debug(msg string, fields ...any) {}
func (NopLogger) Info(msg string, fields ...any)  {}
func (NopLogger) Warn(msg string, fields ...any)  {}
func (NopLogger) Error(msg string, fields ...any) {}
func (n NopLogger) With(fields ...any) Logger     { return n }
func (n NopLogger) Named(name string) Logger      { return n }
func (NopLogger) Sync() error                     { return nil }
