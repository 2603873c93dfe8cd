// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package logging provides the small structured-ish logger the rest
// of this module uses, calling stdlib "log" directly rather than
// adopting a separate logging framework.
package logging

import (
	"io"
	"log"
	"os"
)

// Logger wraps a stdlib *log.Logger with a debug gate, so preread's
// per-connection debug logging on a malformed ClientHello can be
// switched on in development and off in production without touching
// call sites.
type Logger struct {
	*log.Logger
	debug bool
}

// New creates a Logger writing to w with the given prefix. debug
// controls whether Debugf actually writes anything.
func New(w io.Writer, prefix string, debug bool) *Logger {
	return &Logger{Logger: log.New(w, prefix, log.LstdFlags), debug: debug}
}

// Default returns a Logger writing to stderr with debug logging off.
func Default() *Logger {
	return New(os.Stderr, "prereadtls: ", false)
}

// Debugf logs at debug level; a no-op unless the Logger was
// constructed with debug enabled.
func (l *Logger) Debugf(format string, args ...any) {
	if l == nil || !l.debug {
		return
	}
	l.Printf("DEBUG "+format, args...)
}

// Warnf logs at warning level.
func (l *Logger) Warnf(format string, args ...any) {
	if l == nil {
		return
	}
	l.Printf("WARN "+format, args...)
}
