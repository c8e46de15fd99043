package utils

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"
)

// Level orders log severities.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// ParseLevel maps "debug", "info", "warn" and "error"; anything else is info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug
	case "warn", "warning":
		return LevelWarn
	case "error":
		return LevelError
	}
	return LevelInfo
}

// Logger provides leveled logging throughout the application.
type Logger struct {
	min    Level
	prefix string
	out    *log.Logger
	err    *log.Logger
}

// NewLogger creates a Logger writing info and below to stdout, errors to stderr.
func NewLogger() *Logger {
	return NewLoggerTo(os.Stdout, os.Stderr, LevelDebug)
}

// NewLoggerTo creates a Logger on explicit writers, dropping entries below min.
func NewLoggerTo(out, errOut io.Writer, min Level) *Logger {
	return &Logger{
		min: min,
		out: log.New(out, "", 0),
		err: log.New(errOut, "", 0),
	}
}

// With returns a copy whose messages are tagged with [component].
func (l *Logger) With(component string) *Logger {
	c := *l
	c.prefix = "[" + component + "] "
	return &c
}

func (l *Logger) timestamp() string {
	return time.Now().Format("2006-01-02 15:04:05")
}

func (l *Logger) write(lv Level, tag string, format string, args ...any) {
	if lv < l.min {
		return
	}
	line := fmt.Sprintf("[%s] %s %s%s", l.timestamp(), tag, l.prefix, fmt.Sprintf(format, args...))
	if lv == LevelError {
		l.err.Println(line)
		return
	}
	l.out.Println(line)
}

func (l *Logger) Info(format string, args ...any) {
	l.write(LevelInfo, "\033[32mINFO\033[0m ", format, args...)
}

func (l *Logger) Warn(format string, args ...any) {
	l.write(LevelWarn, "\033[33mWARN\033[0m ", format, args...)
}

func (l *Logger) Error(format string, args ...any) {
	l.write(LevelError, "\033[31mERROR\033[0m", format, args...)
}

func (l *Logger) Debug(format string, args ...any) {
	l.write(LevelDebug, "\033[36mDEBUG\033[0m", format, args...)
}
