package log

import (
	"io"
	"os"
	"strings"

	serr "xpick/internal/errors"

	"github.com/sirupsen/logrus"
)

var logger = NewLogger()

// Field is a single structured key/value attached to a log line
type Field struct {
	Key   string
	Value interface{}
}

// F builds a Field
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Option configures a Logger
type Option func(*logrus.Logger)

// WithOutput sends log lines to w
func WithOutput(w io.Writer) Option {
	return func(l *logrus.Logger) {
		l.SetOutput(w)
	}
}

// WithJSON switches to one JSON object per line
func WithJSON() Option {
	return func(l *logrus.Logger) {
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime: "timestamp",
				logrus.FieldKeyMsg:  "message",
			},
		})
	}
}

// WithFile tees log lines to path in addition to the current output, so it
// goes after WithOutput. The file is opened for append and stays open for the
// life of the process.
func WithFile(path string) Option {
	return func(l *logrus.Logger) {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			l.WithField("path", path).Warnf("cannot open log file: %v", err)
			return
		}
		l.SetOutput(io.MultiWriter(l.Out, f))
	}
}

// WithLevel sets the minimum level by name (debug, info, warn, error).
// Unknown names leave the level unchanged.
func WithLevel(level string) Option {
	return func(l *logrus.Logger) {
		if lvl, err := logrus.ParseLevel(strings.ToLower(level)); err == nil {
			l.SetLevel(lvl)
		}
	}
}

// Logger writes leveled, structured log lines
type Logger struct {
	entry *logrus.Entry
}

// NewLogger creates a logger writing text lines to stderr at info level
func NewLogger(opts ...Option) *Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
		DisableColors:   true,
	})
	for _, opt := range opts {
		opt(l)
	}
	return &Logger{entry: logrus.NewEntry(l)}
}

// With returns a child logger carrying the given fields
func (l *Logger) With(fields ...Field) *Logger {
	data := make(logrus.Fields, len(fields))
	for _, f := range fields {
		data[f.Key] = f.Value
	}
	return &Logger{entry: l.entry.WithFields(data)}
}

// WithError returns a child logger describing err. Typed application errors
// contribute their kind and subject (path, param or command).
func (l *Logger) WithError(err error) *Logger {
	if err == nil {
		return l.With(F("error", "<nil>"))
	}
	fields := []Field{F("error", err.Error()), F("error_kind", int(serr.KindOf(err)))}

	var fileErr *serr.FileError
	var cfgErr *serr.ConfigError
	var cmdErr *serr.CommandError
	switch {
	case serr.As(err, &fileErr):
		fields = append(fields, F("path", fileErr.Path()))
	case serr.As(err, &cfgErr):
		fields = append(fields, F("param", cfgErr.Param()))
	case serr.As(err, &cmdErr):
		fields = append(fields, F("command", cmdErr.Command()), F("exit_status", cmdErr.ExitStatus()))
	}
	return l.With(fields...)
}

// SetLevel changes the minimum level of the underlying logger
func (l *Logger) SetLevel(level string) {
	WithLevel(level)(l.entry.Logger)
}

// IsDebug reports whether debug lines are emitted
func (l *Logger) IsDebug() bool {
	return l.entry.Logger.IsLevelEnabled(logrus.DebugLevel)
}

func (l *Logger) Debug(msg string) { l.entry.Debug(msg) }
func (l *Logger) Info(msg string)  { l.entry.Info(msg) }
func (l *Logger) Warn(msg string)  { l.entry.Warn(msg) }
func (l *Logger) Error(msg string) { l.entry.Error(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.entry.Warnf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }

// Configure replaces the package-level logger
func Configure(opts ...Option) {
	logger = NewLogger(opts...)
}

// Default returns the package-level logger
func Default() *Logger {
	return logger
}

// LogError logs err at error level with its structured fields
func LogError(err error, msg string) {
	logger.WithError(err).Error(msg)
}

// SetDebug toggles debug output on the package-level logger
func SetDebug(debug bool) {
	if debug {
		logger.SetLevel("debug")
		return
	}
	logger.SetLevel("info")
}

// LogWithFields returns the package-level logger with fields attached
func LogWithFields(fields ...Field) *Logger {
	return logger.With(fields...)
}

// LogWithError returns the package-level logger describing err
func LogWithError(err error) *Logger {
	return logger.WithError(err)
}

func Info(msg string)                           { logger.Info(msg) }
func Infof(format string, args ...interface{})  { logger.Infof(format, args...) }
func Warn(msg string)                           { logger.Warn(msg) }
func Warnf(format string, args ...interface{})  { logger.Warnf(format, args...) }
func Error(msg string)                          { logger.Error(msg) }
func Errorf(format string, args ...interface{}) { logger.Errorf(format, args...) }
func Debug(msg string)                          { logger.Debug(msg) }
func Debugf(format string, args ...interface{}) { logger.Debugf(format, args...) }
