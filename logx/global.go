package logx

import (
	"io"
	"os"
	"strings"
)

var defaultLogger *Logger

func init() {
	defaultLogger = New()
	ConfigureFromEnv(defaultLogger)
}

// ConfigureFromEnv applies LOG_LEVEL, LOG_FORMAT, LOG_COLOR and LOG_CALLER to l
func ConfigureFromEnv(l *Logger) {
	if logLevel := os.Getenv("LOG_LEVEL"); logLevel != "" {
		if level, err := ParseLevel(logLevel); err == nil {
			l.SetLevel(level)
		}
	}

	if format := os.Getenv("LOG_FORMAT"); format != "" {
		l.SetFormat(ParseFormat(format))
	}

	if colorEnv := os.Getenv("LOG_COLOR"); colorEnv != "" {
		l.SetColored(strings.ToLower(colorEnv) != "false")
	}

	if callerEnv := os.Getenv("LOG_CALLER"); callerEnv != "" {
		l.SetShowCaller(strings.ToLower(callerEnv) != "false")
	}
}

// SetLevel sets the global log level
func SetLevel(level Level) {
	defaultLogger.SetLevel(level)
}

// SetOutput sets the global output destination
func SetOutput(w io.Writer) {
	defaultLogger.SetOutput(w)
}

// SetFormat sets the global log format
func SetFormat(format OutputFormat) {
	defaultLogger.SetFormat(format)
}

// SetColored sets the global colored output
func SetColored(colored bool) {
	defaultLogger.SetColored(colored)
}

// GetLogger returns the default logger instance
func GetLogger() *Logger {
	return defaultLogger
}

// Global logging functions
func Trace(msg string, args ...any) {
	defaultLogger.Trace(msg, args...)
}

func Debug(msg string, args ...any) {
	defaultLogger.Debug(msg, args...)
}

func Info(msg string, args ...any) {
	defaultLogger.Info(msg, args...)
}

func Warn(msg string, args ...any) {
	defaultLogger.Warn(msg, args...)
}

func Error(msg string, args ...any) {
	defaultLogger.Error(msg, args...)
}

func Fatal(msg string, args ...any) {
	defaultLogger.Fatal(msg, args...)
}
