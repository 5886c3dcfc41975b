package logger

import (
	"cmp"
	"context"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

const (
	FormatJSON    = "json"
	FormatConsole = "console"
	FormatPretty  = "pretty"
)

// Logger is a zerolog logger bound to one service.
type Logger struct {
	zl      zerolog.Logger
	service string
}

// New builds a logger from cfg. An unknown level falls back to info.
func New(cfg *Config, serviceName string) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	out := outputWriter(cfg.Output)

	var zl zerolog.Logger
	switch strings.ToLower(cfg.Format) {
	case FormatConsole, FormatPretty:
		zl = zerolog.New(consoleWriter(out, serviceName, cfg.NoColor))
	default:
		zl = zerolog.New(out).With().Str("service", serviceName).Logger()
	}
	zc := zl.Level(level).With().Timestamp()
	if cfg.Caller {
		zc = zc.CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + 2)
	}
	return &Logger{zl: zc.Logger(), service: serviceName}
}

// NewDefault logs info and above to stderr in console format.
func NewDefault(serviceName string) *Logger {
	cfg := Config{}
	cfg.ApplyDefaults()
	return New(&cfg, serviceName)
}

// NewNop discards everything.
func NewNop() *Logger {
	return &Logger{zl: zerolog.Nop(), service: "nop"}
}

// NewWriter writes JSON lines to w without timestamps.
func NewWriter(w io.Writer, level string) *Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	return &Logger{zl: zerolog.New(w).Level(lvl), service: "writer"}
}

type runIDKey struct{}

// ContextWithRunID tags ctx so WithContext adds run_id to every line.
func ContextWithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey{}, runID)
}

// WithContext adds the run id and the active span's trace id, when present.
func (l *Logger) WithContext(ctx context.Context) *Logger {
	zc := l.zl.With()
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		zc = zc.Str(FieldTraceID, sc.TraceID().String())
	}
	if runID, ok := ctx.Value(runIDKey{}).(string); ok {
		zc = zc.Str(FieldRunID, runID)
	}
	return l.with(zc)
}

func (l *Logger) WithComponent(name string) *Logger {
	return l.with(l.zl.With().Str(FieldComponent, name))
}

func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return l.with(l.zl.With().Fields(fields))
}

func (l *Logger) WithError(err error) *Logger {
	return l.with(l.zl.With().Err(err))
}

func (l *Logger) with(zc zerolog.Context) *Logger {
	return &Logger{zl: zc.Logger(), service: l.service}
}

func (l *Logger) Debug(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Debug(), msg, fields)
}

func (l *Logger) Info(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Info(), msg, fields)
}

func (l *Logger) Warn(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Warn(), msg, fields)
}

func (l *Logger) Error(msg string, fields ...map[string]interface{}) {
	emit(l.zl.Error(), msg, fields)
}

func emit(e *zerolog.Event, msg string, fields []map[string]interface{}) {
	for _, f := range fields {
		e = e.Fields(f)
	}
	e.Msg(msg)
}

var global atomic.Pointer[Logger]

// Init replaces the global logger.
func Init(cfg Config) {
	cfg.ApplyDefaults()
	global.Store(New(&cfg, cmp.Or(cfg.ServiceName, "default")))
}

// SetGlobalLogger replaces the global logger.
func SetGlobalLogger(l *Logger) { global.Store(l) }

// GetGlobalLogger returns the global logger, creating a default one on
// first use.
func GetGlobalLogger() *Logger {
	if l := global.Load(); l != nil {
		return l
	}
	global.CompareAndSwap(nil, NewDefault("default"))
	return global.Load()
}

func Debug(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Debug(msg, fields...) }
func Info(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Info(msg, fields...) }
func Warn(msg string, fields ...map[string]interface{})  { GetGlobalLogger().Warn(msg, fields...) }
func Error(msg string, fields ...map[string]interface{}) { GetGlobalLogger().Error(msg, fields...) }

func outputWriter(output string) io.Writer {
	if strings.EqualFold(output, "stdout") {
		return os.Stdout
	}
	return os.Stderr
}
