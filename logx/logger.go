package logx

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// OutputFormat defines the log output format
type OutputFormat string

const (
	FormatConsole    OutputFormat = "console"
	FormatCloudWatch OutputFormat = "cloudwatch"
	FormatJSON       OutputFormat = "json"
)

// ParseFormat maps a format name to an OutputFormat, defaulting to console
func ParseFormat(s string) OutputFormat {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "json":
		return FormatJSON
	case "cloudwatch":
		return FormatCloudWatch
	default:
		return FormatConsole
	}
}

// Logger represents a logger instance.
// Child loggers created with With share the parent's sink and settings.
type Logger struct {
	sink   *sink
	prefix string
}

type sink struct {
	mu         sync.Mutex
	level      Level
	out        io.Writer
	showCaller bool
	colored    bool
	format     OutputFormat
}

// New creates a new logger with default settings
func New() *Logger {
	return &Logger{
		sink: &sink{
			level:      InfoLevel,
			out:        os.Stdout,
			showCaller: true,
			colored:    true,
			format:     FormatConsole,
		},
	}
}

// Discard returns a logger that drops every message
func Discard() *Logger {
	l := New()
	l.SetOutput(io.Discard)
	l.SetLevel(OffLevel)
	return l
}

// With returns a child logger whose messages carry an extra prefix segment
func (l *Logger) With(prefix string) *Logger {
	p := prefix
	if l.prefix != "" {
		p = l.prefix + "." + prefix
	}
	return &Logger{sink: l.sink, prefix: p}
}

// SetLevel sets the minimum log level
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.level = level
}

// SetOutput sets the output destination
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.out = w
}

// SetPrefix sets a prefix for all log messages
func (l *Logger) SetPrefix(prefix string) {
	l.prefix = prefix
}

// SetShowCaller enables or disables showing caller information
func (l *Logger) SetShowCaller(show bool) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.showCaller = show
}

// SetColored enables or disables colored output
func (l *Logger) SetColored(colored bool) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.colored = colored
}

// SetFormat sets the output format. CloudWatch and JSON are never colored.
func (l *Logger) SetFormat(format OutputFormat) {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	l.sink.format = format
	if format != FormatConsole {
		l.sink.colored = false
	}
}

// IsLevelEnabled checks if a level is enabled
func (l *Logger) IsLevelEnabled(level Level) bool {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return level >= l.sink.level && level < OffLevel
}

// findCaller finds the first caller outside of the logx package
func findCaller() string {
	for i := 2; i < 15; i++ {
		_, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		if strings.Contains(filepath.ToSlash(file), "/logx/") && !strings.HasSuffix(file, "_test.go") {
			continue
		}
		return fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	return ""
}

func (l *Logger) log(level Level, msg string, args ...any) {
	if !l.IsLevelEnabled(level) {
		return
	}

	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	var caller string
	if s.showCaller {
		caller = findCaller()
	}
	message := msg
	if len(args) > 0 {
		message = fmt.Sprintf(msg, args...)
	}

	switch s.format {
	case FormatJSON:
		entry := map[string]any{
			"timestamp": time.Now().Format(time.RFC3339),
			"level":     level.String(),
			"message":   message,
		}
		if l.prefix != "" {
			entry["prefix"] = l.prefix
		}
		if caller != "" {
			entry["caller"] = caller
		}
		if data, err := json.Marshal(entry); err == nil {
			fmt.Fprintln(s.out, string(data))
		}
	case FormatCloudWatch:
		fmt.Fprintln(s.out, l.line(time.Now().UTC().Format("2006-01-02T15:04:05.000Z"), level.String(), caller, message))
	default:
		levelStr := level.String()
		if s.colored {
			levelStr = level.Colorize()
		}
		fmt.Fprintln(s.out, l.line(time.Now().Format("2006-01-02 15:04:05"), levelStr, caller, message))
	}
}

func (l *Logger) line(ts, level, caller, message string) string {
	var b strings.Builder
	b.WriteString("[" + ts + "] ")
	if l.prefix != "" {
		b.WriteString(l.prefix + " ")
	}
	b.WriteString("[" + level + "]")
	if caller != "" {
		b.WriteString(" " + caller)
	}
	b.WriteString(": " + message)
	return b.String()
}

// Trace logs a message at trace level
func (l *Logger) Trace(msg string, args ...any) {
	l.log(TraceLevel, msg, args...)
}

// Debug logs a message at debug level
func (l *Logger) Debug(msg string, args ...any) {
	l.log(DebugLevel, msg, args...)
}

// Info logs a message at info level
func (l *Logger) Info(msg string, args ...any) {
	l.log(InfoLevel, msg, args...)
}

// Warn logs a message at warn level
func (l *Logger) Warn(msg string, args ...any) {
	l.log(WarnLevel, msg, args...)
}

// Error logs a message at error level
func (l *Logger) Error(msg string, args ...any) {
	l.log(ErrorLevel, msg, args...)
}

// Fatal logs a message at error level and exits
func (l *Logger) Fatal(msg string, args ...any) {
	l.log(ErrorLevel, msg, args...)
	os.Exit(1)
}
