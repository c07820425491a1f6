// Package audit implements an append-only, flush-per-entry audit log file
// with the fixed entry grammar described in spec §4.10/§6.
package audit

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Type enumerates the entry kinds the audit grammar allows.
type Type string

const (
	TypeSystem     Type = "SYSTEM"
	TypeInput      Type = "INPUT"
	TypeCommand    Type = "COMMAND"
	TypeInfo       Type = "INFO"
	TypeError      Type = "ERROR"
	TypeWarning    Type = "WARNING"
	TypeAgent      Type = "AGENT"
	TypeToolResult Type = "TOOL_RESULT"
)

// Logger owns an append-only file under dir, named by the local start time
// to second resolution (audit_YYYYMMDD_HHMMSS.log). Record timestamps carry
// millisecond resolution.
type Logger struct {
	mu          sync.Mutex
	file        *os.File
	disabled    bool
	runtimeOff  bool
	logger      *log.Logger
	now         func() time.Time
}

// Open creates (or appends to) the audit log file under dir and writes the
// opening SYSTEM "Audit started" record. I/O errors here disable auditing
// silently (a warning is emitted through fallback) rather than propagating,
// per the audit-io error-handling row.
func Open(dir string, fallback *log.Logger) *Logger {
	l := &Logger{logger: fallback, now: time.Now}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		l.disable(err)
		return l
	}
	name := fmt.Sprintf("audit_%s.log", l.now().Format("20060102_150405"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		l.disable(err)
		return l
	}
	l.file = f
	l.writeLocked(TypeSystem, "Audit started")
	return l
}

func (l *Logger) disable(err error) {
	l.disabled = true
	if l.logger != nil {
		l.logger.Printf("audit logger disabled: %v", err)
	}
}

// Log writes one flushed record. Every record is flushed before Log
// returns.
func (l *Logger) Log(t Type, content string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeLocked(t, content)
}

func (l *Logger) writeLocked(t Type, content string) {
	if l.disabled || l.file == nil {
		return
	}
	if l.runtimeOff && t != TypeSystem {
		return
	}
	line := fmt.Sprintf("[%s] [%s] %s\n", l.now().Format("2006-01-02T15:04:05.000"), t, content)
	if _, err := l.file.WriteString(line); err != nil {
		l.disable(err)
		return
	}
	if err := l.file.Sync(); err != nil {
		l.disable(err)
	}
}

// Stop writes the closing SYSTEM "Audit stopped" record and releases the
// file handle.
func (l *Logger) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeLocked(TypeSystem, "Audit stopped")
	if l.file != nil {
		_ = l.file.Close()
		l.file = nil
	}
}

// Disabled reports whether an earlier I/O error, or a runtime toggle,
// disabled this logger.
func (l *Logger) Disabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.disabled || l.runtimeOff
}

// SetEnabled toggles auditing at runtime without touching the underlying
// file, mirroring the Notifier's runtime toggle (spec §4.9). SYSTEM bookend
// records are always written regardless of this toggle.
func (l *Logger) SetEnabled(enabled bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.runtimeOff = !enabled
}

// Enabled reports the runtime toggle state (independent of I/O disablement).
func (l *Logger) Enabled() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.runtimeOff
}
