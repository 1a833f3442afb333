package log

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"moul.io/zapfilter"
)

type (
	Level  = zapcore.Level
	Field  = zap.Field
	Option = zap.Option
)

const (
	DebugLevel = zapcore.DebugLevel
	InfoLevel  = zapcore.InfoLevel
	WarnLevel  = zapcore.WarnLevel
	ErrorLevel = zapcore.ErrorLevel
	FatalLevel = zapcore.FatalLevel
)

// Logger is a thin wrapper around zap.Logger.
// It carries the level so derived loggers can be compared in tests.
type Logger struct {
	l     *zap.Logger
	level Level
}

var (
	WithCaller    = zap.WithCaller
	AddCallerSkip = zap.AddCallerSkip
	AddStacktrace = zap.AddStacktrace

	String     = zap.String
	Strings    = zap.Strings
	Int        = zap.Int
	Int32      = zap.Int32
	Ints       = zap.Ints
	Float64    = zap.Float64
	Float64s   = zap.Float64s
	Bool       = zap.Bool
	Duration   = zap.Duration
	Time       = zap.Time
	Any        = zap.Any
	ErrorField = zap.Error
)

var std = New(os.Stderr, InfoLevel)

func Default() *Logger { return std }

// ResetDefault replaces the package level logger.
// Not safe for concurrent use, call it during startup.
func ResetDefault(l *Logger) {
	std = l
}

func ParseLevel(text string) (Level, error) {
	return zapcore.ParseLevel(text)
}

// New creates a json logger writing to writer.
func New(writer io.Writer, level Level, opts ...Option) *Logger {
	return newLogger(writer, level, jsonEncoder(), "", opts...)
}

// DevLogger creates a console logger suitable for local development.
func DevLogger(writer io.Writer, level Level, opts ...Option) *Logger {
	return newLogger(writer, level, consoleEncoder(), "", opts...)
}

// NewWithRules is like New/DevLogger (depending on format) but additionally
// filters entries by zapfilter rules, e.g. "info+:* debug+:strategy.*".
// When rules are given they replace the level check.
//
//nolint:whitespace // editor/linter issue
func NewWithRules(
	writer io.Writer, format string, level Level, rules string, opts ...Option,
) *Logger {
	enc := jsonEncoder()
	if format != "json" {
		enc = consoleEncoder()
	}
	return newLogger(writer, level, enc, rules, opts...)
}

//nolint:whitespace // editor/linter issue
func newLogger(
	writer io.Writer, level Level, enc zapcore.Encoder, rules string, opts ...Option,
) *Logger {
	if writer == nil {
		panic("the writer is nil")
	}
	var core zapcore.Core = zapcore.NewCore(enc, zapcore.AddSync(writer), level)
	if strings.TrimSpace(rules) != "" {
		if filter, err := zapfilter.ParseRules(rules); err == nil {
			// rules decide, so the inner core must see everything
			inner := zapcore.NewCore(enc, zapcore.AddSync(writer), zapcore.DebugLevel)
			core = zapfilter.NewFilteringCore(inner, filter)
		}
	}
	return &Logger{l: zap.New(core, opts...), level: level}
}

func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.RFC3339TimeEncoder
	return zapcore.NewJSONEncoder(cfg)
}

func consoleEncoder() zapcore.Encoder {
	cfg := zap.NewDevelopmentEncoderConfig()
	cfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func (l *Logger) Named(name string) *Logger {
	return &Logger{l: l.l.Named(name), level: l.level}
}

func (l *Logger) WithOptions(opts ...Option) *Logger {
	return &Logger{l: l.l.WithOptions(opts...), level: l.level}
}

func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{l: l.l.With(fields...), level: l.level}
}

func (l *Logger) Level() Level { return l.level }

// Zap exposes the underlying logger for libraries expecting zap directly.
func (l *Logger) Zap() *zap.Logger { return l.l }

func (l *Logger) Debug(msg string, fields ...Field) { l.l.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.l.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.l.Warn(msg, fields...) }
func (l *Logger) Error(msg string, fields ...Field) { l.l.Error(msg, fields...) }
func (l *Logger) Fatal(msg string, fields ...Field) { l.l.Fatal(msg, fields...) }

func (l *Logger) Log(lvl Level, msg string, fields ...Field) { l.l.Log(lvl, msg, fields...) }

func (l *Logger) Sync() error { return l.l.Sync() }

func Debug(msg string, fields ...Field) { std.l.Debug(msg, fields...) }
func Info(msg string, fields ...Field)  { std.l.Info(msg, fields...) }
func Warn(msg string, fields ...Field)  { std.l.Warn(msg, fields...) }
func Error(msg string, fields ...Field) { std.l.Error(msg, fields...) }
func Fatal(msg string, fields ...Field) { std.l.Fatal(msg, fields...) }

func Sync() error { return std.Sync() }
