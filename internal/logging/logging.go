// Package logging provides the leveled logger shared by all components.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/fatih/color"
)

// Logger writes leveled messages through a stdlib logger.
// A nil *Logger discards everything.
type Logger struct {
	out   *log.Logger
	debug bool
}

// New returns a Logger writing to w
func New(w io.Writer, debug bool) *Logger {
	return &Logger{out: log.New(w, "tso: ", log.LstdFlags), debug: debug}
}

// Default returns a Logger writing to stderr
func Default(debug bool) *Logger {
	return New(os.Stderr, debug)
}

// Discard returns a Logger that drops every message
func Discard() *Logger {
	return New(io.Discard, false)
}

// DebugEnabled reports whether Debugf messages are written
func (l *Logger) DebugEnabled() bool {
	return l != nil && l.debug
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.DebugEnabled() {
		l.print("DEBUG", format, args...)
	}
}

func (l *Logger) Infof(format string, args ...any) {
	l.print("INFO", format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.print(color.YellowString("WARN"), format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.print(color.RedString("ERROR"), format, args...)
}

func (l *Logger) print(level, format string, args ...any) {
	if l == nil {
		return
	}
	l.out.Printf("%s %s", level, fmt.Sprintf(format, args...))
}
