// Package logger provides structured logging for Gurukul Hub.
// It keeps a small field-based API over zerolog so call sites do not
// depend on the backend.
package logger

import (
	"context"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Level is the zerolog severity.
type Level = zerolog.Level

const (
	LevelDebug = zerolog.DebugLevel
	LevelInfo  = zerolog.InfoLevel
	LevelWarn  = zerolog.WarnLevel
	LevelError = zerolog.ErrorLevel
)

func init() {
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.TimeFieldFormat = time.RFC3339
}

// ParseLevel maps LOG_LEVEL values. Unknown input means info.
func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return LevelInfo
	}
	return lvl
}

// Field is one key/value pair attached to an entry.
type Field struct {
	Key   string
	Value any
}

func String(key, value string) Field          { return Field{key, value} }
func Int(key string, value int) Field         { return Field{key, value} }
func Int64(key string, value int64) Field     { return Field{key, value} }
func Float64(key string, value float64) Field { return Field{key, value} }
func Bool(key string, value bool) Field       { return Field{key, value} }
func Any(key string, value any) Field         { return Field{key, value} }

// Duration is written in milliseconds.
func Duration(key string, value time.Duration) Field { return Field{key, value} }

// Err records the error message under "error"; a nil error is written as null.
func Err(err error) Field {
	if err == nil {
		return Field{"error", nil}
	}
	return Field{"error", err.Error()}
}

func flatten(fields []Field) []any {
	kv := make([]any, 0, 2*len(fields))
	for _, f := range fields {
		kv = append(kv, f.Key, f.Value)
	}
	return kv
}

// Logger wraps a zerolog.Logger.
type Logger struct {
	zl zerolog.Logger
}

// Options configures New.
type Options struct {
	Output io.Writer
	Level  Level
	// Console switches to the human-readable zerolog console writer.
	Console bool
	Caller  bool
}

func DefaultOptions() Options {
	return Options{Output: os.Stdout, Level: LevelInfo, Caller: true}
}

func New(opts Options) *Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.Kitchen}
	}

	zc := zerolog.New(out).Level(opts.Level).With().Timestamp()
	if opts.Caller {
		// the entry methods below add one frame
		zc = zc.CallerWithSkipFrameCount(zerolog.CallerSkipFrameCount + 1)
	}
	return &Logger{zl: zc.Logger()}
}

func Default() *Logger { return New(DefaultOptions()) }

// Nop discards everything.
func Nop() *Logger { return &Logger{zl: zerolog.Nop()} }

// With returns a child logger carrying fields on every entry.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{zl: l.zl.With().Fields(flatten(fields)).Logger()}
}

func (l *Logger) write(e *zerolog.Event, msg string, fields []Field) {
	if e == nil {
		return
	}
	e.Fields(flatten(fields)).Msg(msg)
}

func (l *Logger) Debug(msg string, fields ...Field) { l.write(l.zl.Debug(), msg, fields) }
func (l *Logger) Info(msg string, fields ...Field)  { l.write(l.zl.Info(), msg, fields) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.write(l.zl.Warn(), msg, fields) }
func (l *Logger) Error(msg string, fields ...Field) { l.write(l.zl.Error(), msg, fields) }

type ctxKey struct{}

// WithContext stores l in ctx; the HTTP layer uses it for request-scoped loggers.
func WithContext(ctx context.Context, l *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, l)
}

// FromContext returns the logger stored by WithContext, or Default.
func FromContext(ctx context.Context) *Logger {
	if l, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return l
	}
	return Default()
}

func (l *Logger) WithRequestID(id string) *Logger { return l.With(String("request_id", id)) }

// Domain fields.
func FccID(id string) Field         { return String("fcc_id", id) }
func TaskID(id int64) Field         { return Int64("task_id", id) }
func PaymentID(id int64) Field      { return Int64("payment_id", id) }
func SessionID(id int64) Field      { return Int64("session_id", id) }
func Score(v int) Field             { return Int("score", v) }
func Component(name string) Field   { return String("component", name) }
func Latency(d time.Duration) Field { return Duration("latency_ms", d) }
