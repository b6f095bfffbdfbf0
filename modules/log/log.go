// Copyright 2026 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package log provides leveled logging for the pgp library and its CLI.
//
// The library itself only emits TRACE/DEBUG diagnostics; anything the caller
// must act on is returned as an error instead. The default writer is the
// process stderr with colors when it is a terminal.
package log

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

const (
	colorReset  = "\033[0m"
	colorBlue   = "\033[1;34m"
	colorGreen  = "\033[1;32m"
	colorYellow = "\033[1;33m"
	colorRed    = "\033[1;31m"
	colorCyan   = "\033[1;36m"
)

var levelToColor = map[Level]string{
	TRACE: colorCyan,
	DEBUG: colorBlue,
	INFO:  colorGreen,
	WARN:  colorYellow,
	ERROR: colorRed,
	FATAL: colorRed,
}

// Logger dispatches log events at or above its level to a single writer.
type Logger struct {
	mu       sync.Mutex
	level    Level
	out      io.Writer
	useColor bool
}

var defaultLogger = &Logger{
	level:    INFO,
	out:      os.Stderr,
	useColor: isatty.IsTerminal(os.Stderr.Fd()),
}

// GetLogger returns the process-wide logger.
func GetLogger() *Logger {
	return defaultLogger
}

// SetLevel changes the minimum level that will be written.
func (l *Logger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// SetOutput redirects the logger, disabling colors.
func (l *Logger) SetOutput(w io.Writer) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.out = w
	l.useColor = false
}

// GetLevel returns the current minimum level.
func (l *Logger) GetLevel() Level {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.level
}

// LevelEnabled reports whether events at the given level would be written.
func (l *Logger) LevelEnabled(level Level) bool {
	return level >= l.GetLevel()
}

func (l *Logger) log(level Level, format string, v ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level || l.level == NONE {
		return
	}
	prefix := level.String()
	if l.useColor {
		prefix = levelToColor[level] + prefix + colorReset
	}
	fmt.Fprintf(l.out, "%s [%s] %s\n", time.Now().Format("2006/01/02 15:04:05"), prefix, fmt.Sprintf(format, v...))
}

func Trace(format string, v ...any) {
	defaultLogger.log(TRACE, format, v...)
}

func Debug(format string, v ...any) {
	defaultLogger.log(DEBUG, format, v...)
}

func Info(format string, v ...any) {
	defaultLogger.log(INFO, format, v...)
}

func Warn(format string, v ...any) {
	defaultLogger.log(WARN, format, v...)
}

func Error(format string, v ...any) {
	defaultLogger.log(ERROR, format, v...)
}

// Fatal logs at FATAL level and exits the process.
func Fatal(format string, v ...any) {
	defaultLogger.log(FATAL, format, v...)
	os.Exit(1)
}
