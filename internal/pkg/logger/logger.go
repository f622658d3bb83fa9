// Package logger builds the Sugared Zap loggers used across hosewatch. Loggers
// emit JSON to stdout and, when a telemetry LoggerProvider is registered, are
// teed into an OpenTelemetry bridge core so log records reach the collector.
//
// There is no package-level logger: the root logger is created once by the
// entrypoint and injected into every component, which derives its own child
// logger (e.g. one per network watcher) with With.
package logger

import (
	"io"
	"os"

	"github.com/gabapcia/hosewatch/internal/pkg/telemetry"

	"go.opentelemetry.io/contrib/bridges/otelzap"
	"go.opentelemetry.io/otel/log"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// config holds configuration options for the logger.
type config struct {
	level  string    // the minimum log level (debug, info, warn, error, panic, fatal)
	output io.Writer // destination of the JSON core
	name   string    // instrumentation scope used by the OTEL bridge
}

// Option configures a logger before it is built.
type Option func(*config)

// WithLevel sets the minimum log level.
// Example levels: "debug", "info", "warn", "error", "panic", "fatal".
func WithLevel(l string) Option {
	return func(c *config) {
		c.level = l
	}
}

// WithOutput redirects the JSON core to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		c.output = w
	}
}

// WithName sets the instrumentation scope name reported by the OTEL bridge.
func WithName(name string) Option {
	return func(c *config) {
		c.name = name
	}
}

// New builds a SugaredLogger. By default it logs JSON to stdout at the "info"
// level. If an OpenTelemetry LoggerProvider is available through
// telemetry.LoggerProvider(), an OTEL bridge core is added next to the JSON one.
//
// Returns an error if parsing the log level fails.
func New(opts ...Option) (*zap.SugaredLogger, error) {
	cfg := config{
		level:  "info",
		output: os.Stdout,
		name:   telemetry.ServiceName,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	level, err := zapcore.ParseLevel(cfg.level)
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderCfg),
			zapcore.Lock(zapcore.AddSync(cfg.output)),
			level,
		),
	}

	if lp := telemetry.LoggerProvider(); lp != nil {
		cores = append(cores, otelCore(cfg.name, lp, level))
	}

	return zap.New(zapcore.NewTee(cores...)).Sugar(), nil
}

// otelCore bridges records at or above level to the OpenTelemetry provider.
// When the provider is already stricter than level, its core is used as is.
func otelCore(name string, lp log.LoggerProvider, level zapcore.Level) zapcore.Core {
	core := otelzap.NewCore(name, otelzap.WithLoggerProvider(lp))

	leveled, err := zapcore.NewIncreaseLevelCore(core, level)
	if err != nil {
		return core
	}
	return leveled
}

// Nop returns a logger that discards everything. Useful as a default for
// optional logger dependencies.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
