// Package logging provides structured logging for CLI, GUI and tray modes.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/driftsync/syncshell/internal/events"
)

// DebugEnvVar turns on debug output when set to a non-empty value other than "0".
const DebugEnvVar = "SYNCSHELL_DEBUG"

// Logger wraps zerolog with mode-specific behavior.
type Logger struct {
	zlog     zerolog.Logger
	mode     string // "cli", "gui" or "tray"
	eventBus *events.EventBus
	console  io.Writer
	file     *FileSink
}

// NewLogger creates a new logger for the specified mode. In GUI and tray
// modes, warnings and errors are also published on eventBus (if non-nil).
func NewLogger(mode string, eventBus *events.EventBus) *Logger {
	var out io.Writer = os.Stderr
	if mode == "cli" {
		// CLI mode: stdout for logs, stderr is reserved for progress bars
		out = os.Stdout
	}

	l := &Logger{
		mode:     mode,
		eventBus: eventBus,
		console:  consoleWriter(out),
	}
	l.rebuild()
	return l
}

// NewDefaultCLILogger creates a default CLI logger.
func NewDefaultCLILogger() *Logger {
	return NewLogger("cli", nil)
}

// NewNopLogger returns a logger that discards everything. Used by tests.
func NewNopLogger() *Logger {
	return &Logger{zlog: zerolog.Nop(), mode: "cli"}
}

func consoleWriter(w io.Writer) io.Writer {
	return zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
}

func (l *Logger) rebuild() {
	var w io.Writer = l.console
	if l.file != nil {
		w = zerolog.MultiLevelWriter(l.console, l.file)
	}
	zl := zerolog.New(w).With().Timestamp().Str("mode", l.mode).Logger()
	if l.eventBus != nil && l.mode != "cli" {
		zl = zl.Hook(busHook{bus: l.eventBus})
	}
	l.zlog = zl
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// Fatal returns a fatal level event.
func (l *Logger) Fatal() *zerolog.Event {
	return l.zlog.Fatal()
}

// With creates a child logger with additional context.
func (l *Logger) With() zerolog.Context {
	return l.zlog.With()
}

// Zerolog returns the underlying logger for packages that take a zerolog.Logger.
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

// Component returns a zerolog.Logger tagged with the given component name.
func (l *Logger) Component(name string) zerolog.Logger {
	return l.zlog.With().Str("component", name).Logger()
}

// SetOutput changes the console writer, e.g. to route logs above mpb bars.
func (l *Logger) SetOutput(w io.Writer) {
	l.console = consoleWriter(w)
	l.rebuild()
}

// EnableFile tees all log output into a rotating file at path.
func (l *Logger) EnableFile(path string) error {
	sink, err := NewFileSink(path)
	if err != nil {
		return err
	}
	if l.file != nil {
		l.file.Close()
	}
	l.file = sink
	l.rebuild()
	return nil
}

// Close flushes and closes the file sink, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.rebuild()
	return err
}

// Debugf logs a debug message with printf-style formatting.
// This is only shown when debug/verbose mode is enabled.
func (l *Logger) Debugf(format string, args ...interface{}) {
	l.zlog.Debug().Msgf(format, args...)
}

// Infof logs an info message with printf-style formatting.
func (l *Logger) Infof(format string, args ...interface{}) {
	l.zlog.Info().Msgf(format, args...)
}

// Errorf logs an error message with printf-style formatting.
func (l *Logger) Errorf(format string, args ...interface{}) {
	l.zlog.Error().Msgf(format, args...)
}

// Warnf logs a warning message with printf-style formatting.
func (l *Logger) Warnf(format string, args ...interface{}) {
	l.zlog.Warn().Msgf(format, args...)
}

// SetGlobalLevel sets the global log level.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

// DebugRequested reports whether the debug environment variable is set.
func DebugRequested() bool {
	v := strings.TrimSpace(os.Getenv(DebugEnvVar))
	return v != "" && v != "0" && !strings.EqualFold(v, "false")
}

type busHook struct {
	bus *events.EventBus
}

func (h busHook) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	switch {
	case level >= zerolog.ErrorLevel:
		h.bus.PublishLog(events.ErrorLevel, msg, "shell", nil)
	case level == zerolog.WarnLevel:
		h.bus.PublishLog(events.WarnLevel, msg, "shell", nil)
	}
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if DebugRequested() {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
}
