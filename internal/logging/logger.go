package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
)

// Field is a structured key/value pair attached to a diagnostic message.
type Field struct {
	Key   string
	Value any
}

// String creates a string field.
func String(key, value string) Field { return Field{Key: key, Value: value} }

// Strings creates a string slice field.
func Strings(key string, value []string) Field { return Field{Key: key, Value: value} }

// Int creates an int field.
func Int(key string, value int) Field { return Field{Key: key, Value: value} }

// Uint64 creates a uint64 field.
func Uint64(key string, value uint64) Field { return Field{Key: key, Value: value} }

// Float64 creates a float64 field.
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }

// Err creates a field holding err under the "error" key.
func Err(err error) Field { return Field{Key: "error", Value: err} }

// Logger is the diagnostic logging interface used across catlog.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, err error, fields ...Field)
	Printf(format string, args ...any)
	Println(args ...any)
}

// ─────────────────────────────────────────────────────────────────────────────
// zerolog
// ─────────────────────────────────────────────────────────────────────────────

// ZerologAdapter implements Logger on top of a zerolog.Logger.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// NewZerologAdapter wraps an existing zerolog logger.
func NewZerologAdapter(logger zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{logger: logger}
}

// NewDefaultLogger returns a zerolog-backed logger writing JSON to stderr.
func NewDefaultLogger() *ZerologAdapter {
	return NewLogger(os.Stderr, "catlog")
}

// NewLogger returns a zerolog-backed logger writing to w with a timestamp
// and a "component" field.
func NewLogger(w io.Writer, component string) *ZerologAdapter {
	zl := zerolog.New(w).With().Timestamp().Str("component", component).Logger()
	return NewZerologAdapter(zl)
}

// NewConsoleLogger returns a zerolog-backed logger with human readable output.
func NewConsoleLogger(w io.Writer, component string, noColor bool) *ZerologAdapter {
	cw := zerolog.ConsoleWriter{Out: w, NoColor: noColor, TimeFormat: "15:04:05"}
	zl := zerolog.New(cw).With().Timestamp().Str("component", component).Logger()
	return NewZerologAdapter(zl)
}

func (z *ZerologAdapter) Debug(msg string, fields ...Field) {
	applyFields(z.logger.Debug(), fields).Msg(msg)
}

func (z *ZerologAdapter) Info(msg string, fields ...Field) {
	applyFields(z.logger.Info(), fields).Msg(msg)
}

func (z *ZerologAdapter) Warn(msg string, fields ...Field) {
	applyFields(z.logger.Warn(), fields).Msg(msg)
}

func (z *ZerologAdapter) Error(msg string, err error, fields ...Field) {
	applyFields(z.logger.Error().Err(err), fields).Msg(msg)
}

func (z *ZerologAdapter) Printf(format string, args ...any) {
	z.logger.Info().Msgf(format, args...)
}

func (z *ZerologAdapter) Println(args ...any) {
	z.logger.Info().Msg(strings.TrimSuffix(fmt.Sprintln(args...), "\n"))
}

func applyFields(e *zerolog.Event, fields []Field) *zerolog.Event {
	for _, f := range fields {
		switch v := f.Value.(type) {
		case string:
			e = e.Str(f.Key, v)
		case []string:
			e = e.Strs(f.Key, v)
		case int:
			e = e.Int(f.Key, v)
		case int64:
			e = e.Int64(f.Key, v)
		case uint64:
			e = e.Uint64(f.Key, v)
		case float64:
			e = e.Float64(f.Key, v)
		case error:
			e = e.AnErr(f.Key, v)
		case bool:
			e = e.Bool(f.Key, v)
		default:
			e = e.Interface(f.Key, v)
		}
	}
	return e
}

// ─────────────────────────────────────────────────────────────────────────────
// logrus
// ─────────────────────────────────────────────────────────────────────────────

// LogrusAdapter implements Logger on top of a logrus.FieldLogger.
type LogrusAdapter struct {
	logger logrus.FieldLogger
}

// NewLogrusAdapter wraps an existing logrus logger or entry.
func NewLogrusAdapter(logger logrus.FieldLogger) *LogrusAdapter {
	return &LogrusAdapter{logger: logger}
}

// NewLogrusLogger returns a text-formatted logrus logger writing to w.
func NewLogrusLogger(w io.Writer, component string, level logrus.Level) *LogrusAdapter {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{DisableTimestamp: false, FullTimestamp: true})
	return NewLogrusAdapter(l.WithField("component", component))
}

func (l *LogrusAdapter) entry(fields []Field) logrus.FieldLogger {
	if len(fields) == 0 {
		return l.logger
	}
	lf := make(logrus.Fields, len(fields))
	for _, f := range fields {
		lf[f.Key] = f.Value
	}
	return l.logger.WithFields(lf)
}

func (l *LogrusAdapter) Debug(msg string, fields ...Field) { l.entry(fields).Debug(msg) }

func (l *LogrusAdapter) Info(msg string, fields ...Field) { l.entry(fields).Info(msg) }

func (l *LogrusAdapter) Warn(msg string, fields ...Field) { l.entry(fields).Warn(msg) }

func (l *LogrusAdapter) Error(msg string, err error, fields ...Field) {
	l.entry(fields).WithError(err).Error(msg)
}

func (l *LogrusAdapter) Printf(format string, args ...any) { l.logger.Printf(format, args...) }

func (l *LogrusAdapter) Println(args ...any) { l.logger.Println(args...) }

// ─────────────────────────────────────────────────────────────────────────────
// standard library
// ─────────────────────────────────────────────────────────────────────────────

// StdLoggerAdapter implements Logger on top of the standard library logger.
// Messages are rendered as "[LEVEL] msg key=value ...".
type StdLoggerAdapter struct {
	logger *log.Logger
}

// NewStdLoggerAdapter wraps an existing *log.Logger.
func NewStdLoggerAdapter(logger *log.Logger) *StdLoggerAdapter {
	return &StdLoggerAdapter{logger: logger}
}

func (s *StdLoggerAdapter) write(level, msg string, fields []Field) {
	var b strings.Builder
	b.WriteString("[")
	b.WriteString(level)
	b.WriteString("] ")
	b.WriteString(msg)
	for _, f := range fields {
		fmt.Fprintf(&b, " %s=%v", f.Key, f.Value)
	}
	s.logger.Println(b.String())
}

func (s *StdLoggerAdapter) Debug(msg string, fields ...Field) { s.write("DEBUG", msg, fields) }

func (s *StdLoggerAdapter) Info(msg string, fields ...Field) { s.write("INFO", msg, fields) }

func (s *StdLoggerAdapter) Warn(msg string, fields ...Field) { s.write("WARN", msg, fields) }

func (s *StdLoggerAdapter) Error(msg string, err error, fields ...Field) {
	s.write("ERROR", msg, append([]Field{Err(err)}, fields...))
}

func (s *StdLoggerAdapter) Printf(format string, args ...any) { s.logger.Printf(format, args...) }

func (s *StdLoggerAdapter) Println(args ...any) { s.logger.Println(args...) }

// ─────────────────────────────────────────────────────────────────────────────
// no-op
// ─────────────────────────────────────────────────────────────────────────────

// NewNop returns a Logger that discards everything.
func NewNop() Logger {
	return NewZerologAdapter(zerolog.Nop())
}
