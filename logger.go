package gomcp

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// errorLogField is the field key errors are logged under.
const errorLogField = "error"

// Logger is the logging abstraction used throughout the package. Adapters
// exist for the standard library (log, slog), logrus, and zap; callers can
// plug in anything else by implementing it.
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})

	WithFields(fields map[string]interface{}) Logger
	WithContext(ctx context.Context) Logger
	WithErr(err error) Logger
}

// DefaultLogger writes level-prefixed lines through the standard log package.
type DefaultLogger struct {
	out    *log.Logger
	fields map[string]interface{}
}

// NewDefaultLogger returns a DefaultLogger writing to stderr.
func NewDefaultLogger() Logger {
	return NewDefaultLoggerWithWriter(os.Stderr)
}

// NewDefaultLoggerWithWriter returns a DefaultLogger writing to w.
func NewDefaultLoggerWithWriter(w io.Writer) Logger {
	return &DefaultLogger{out: log.New(w, "", log.LstdFlags)}
}

func (l *DefaultLogger) Debug(args ...interface{}) { l.emit("DEBUG", args...) }
func (l *DefaultLogger) Info(args ...interface{})  { l.emit("INFO", args...) }
func (l *DefaultLogger) Warn(args ...interface{})  { l.emit("WARN", args...) }
func (l *DefaultLogger) Error(args ...interface{}) { l.emit("ERROR", args...) }

func (l *DefaultLogger) WithFields(fields map[string]interface{}) Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &DefaultLogger{out: l.out, fields: merged}
}

func (l *DefaultLogger) WithContext(ctx context.Context) Logger {
	return l
}

func (l *DefaultLogger) WithErr(err error) Logger {
	return l.WithFields(map[string]interface{}{errorLogField: err})
}

func (l *DefaultLogger) emit(level string, args ...interface{}) {
	msg := fmt.Sprint(args...)
	if len(l.fields) == 0 {
		l.out.Printf("[%s] %s", level, msg)
		return
	}
	keys := make([]string, 0, len(l.fields))
	for k := range l.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%v", k, l.fields[k]))
	}
	l.out.Printf("[%s] %s %s", level, msg, strings.Join(parts, " "))
}

// NullLogger discards everything. Useful in tests.
type NullLogger struct{}

// NewNullLogger returns a Logger that does nothing.
func NewNullLogger() Logger {
	return &NullLogger{}
}

func (l *NullLogger) Debug(args ...interface{})                       {}
func (l *NullLogger) Info(args ...interface{})                        {}
func (l *NullLogger) Warn(args ...interface{})                        {}
func (l *NullLogger) Error(args ...interface{})                       {}
func (l *NullLogger) WithFields(fields map[string]interface{}) Logger { return l }
func (l *NullLogger) WithContext(ctx context.Context) Logger          { return l }
func (l *NullLogger) WithErr(err error) Logger                        { return l }

// SlogLogger adapts a *slog.Logger.
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps the given slog logger; nil selects slog.Default.
func NewSlogLogger(logger *slog.Logger) Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) Debug(args ...interface{}) { l.logger.Debug(fmt.Sprint(args...)) }
func (l *SlogLogger) Info(args ...interface{})  { l.logger.Info(fmt.Sprint(args...)) }
func (l *SlogLogger) Warn(args ...interface{})  { l.logger.Warn(fmt.Sprint(args...)) }
func (l *SlogLogger) Error(args ...interface{}) { l.logger.Error(fmt.Sprint(args...)) }

func (l *SlogLogger) WithFields(fields map[string]interface{}) Logger {
	attrs := make([]any, 0, len(fields))
	for k, v := range fields {
		attrs = append(attrs, slog.Any(k, v))
	}
	return &SlogLogger{logger: l.logger.With(attrs...)}
}

func (l *SlogLogger) WithContext(ctx context.Context) Logger {
	return l
}

func (l *SlogLogger) WithErr(err error) Logger {
	return &SlogLogger{logger: l.logger.With(slog.Any(errorLogField, err))}
}

// LogrusLogger adapts a *logrus.Logger.
type LogrusLogger struct {
	entry *logrus.Entry
}

// NewLogrusLogger wraps the given logrus logger; nil selects the logrus
// standard logger.
func NewLogrusLogger(logger *logrus.Logger) Logger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogrusLogger{entry: logrus.NewEntry(logger)}
}

func (l *LogrusLogger) Debug(args ...interface{}) { l.entry.Debug(args...) }
func (l *LogrusLogger) Info(args ...interface{})  { l.entry.Info(args...) }
func (l *LogrusLogger) Warn(args ...interface{})  { l.entry.Warn(args...) }
func (l *LogrusLogger) Error(args ...interface{}) { l.entry.Error(args...) }

func (l *LogrusLogger) WithFields(fields map[string]interface{}) Logger {
	return &LogrusLogger{entry: l.entry.WithFields(logrus.Fields(fields))}
}

func (l *LogrusLogger) WithContext(ctx context.Context) Logger {
	return &LogrusLogger{entry: l.entry.WithContext(ctx)}
}

func (l *LogrusLogger) WithErr(err error) Logger {
	return &LogrusLogger{entry: l.entry.WithError(err)}
}

// ZapLogger adapts a *zap.Logger.
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger wraps the given zap logger; nil selects zap's production
// configuration.
func NewZapLogger(logger *zap.Logger) Logger {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	return &ZapLogger{logger: logger}
}

func (l *ZapLogger) Debug(args ...interface{}) { l.logger.Sugar().Debug(args...) }
func (l *ZapLogger) Info(args ...interface{})  { l.logger.Sugar().Info(args...) }
func (l *ZapLogger) Warn(args ...interface{})  { l.logger.Sugar().Warn(args...) }
func (l *ZapLogger) Error(args ...interface{}) { l.logger.Sugar().Error(args...) }

func (l *ZapLogger) WithFields(fields map[string]interface{}) Logger {
	zapFields := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zapFields = append(zapFields, zap.Any(k, v))
	}
	return &ZapLogger{logger: l.logger.With(zapFields...)}
}

func (l *ZapLogger) WithContext(ctx context.Context) Logger {
	return l
}

func (l *ZapLogger) WithErr(err error) Logger {
	return &ZapLogger{logger: l.logger.With(zap.Error(err))}
}
