// Package logger is a thin leveled wrapper over the standard logger. Debug
// output is gated behind verbose mode; everything else always prints.
package logger

import (
	"io"
	"log"
	"os"
)

type Logger struct {
	*log.Logger
	verbose bool
}

type Option func(*Logger)

func WithOutput(w io.Writer) Option {
	return func(l *Logger) {
		l.Logger = log.New(w, l.Logger.Prefix(), l.Logger.Flags())
	}
}

func WithPrefix(prefix string) Option {
	return func(l *Logger) {
		l.Logger = log.New(l.Logger.Writer(), prefix, l.Logger.Flags())
	}
}

func WithVerbose(verbose bool) Option {
	return func(l *Logger) {
		l.verbose = verbose
	}
}

func New(options ...Option) *Logger {
	l := &Logger{
		Logger: log.New(os.Stdout, "", log.LstdFlags),
	}

	for _, opt := range options {
		opt(l)
	}

	return l
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.Printf("INFO: "+format, args...)
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.Printf("WARN: "+format, args...)
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.Printf("ERROR: "+format, args...)
}

func (l *Logger) Debug(format string, args ...interface{}) {
	if l.verbose {
		l.Printf("DEBUG: "+format, args...)
	}
}

func (l *Logger) Fatal(format string, args ...interface{}) {
	l.Fatalf("FATAL: "+format, args...)
}
