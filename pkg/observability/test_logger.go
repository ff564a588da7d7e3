package observability

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/theory-cloud/sitetheory/pkg/sanitization"
)

type entryLog struct {
	mu      sync.Mutex
	entries []LogEntry
}

// TestLogger records sanitized entries in memory. Loggers derived through the With* calls
// append to the same log.
type TestLogger struct {
	log   *entryLog
	scope LogEntry
}

var _ StructuredLogger = (*TestLogger)(nil)

func NewTestLogger() *TestLogger {
	return &TestLogger{log: &entryLog{}}
}

// Entries returns a copy of everything logged so far.
func (l *TestLogger) Entries() []LogEntry {
	l.log.mu.Lock()
	defer l.log.mu.Unlock()
	return append([]LogEntry(nil), l.log.entries...)
}

// Find returns the first entry with the given message.
func (l *TestLogger) Find(message string) (LogEntry, bool) {
	for _, e := range l.Entries() {
		if e.Message == message {
			return e, true
		}
	}
	return LogEntry{}, false
}

func (l *TestLogger) Debug(message string, fields ...map[string]any) {
	l.record("debug", message, fields)
}
func (l *TestLogger) Info(message string, fields ...map[string]any) {
	l.record("info", message, fields)
}
func (l *TestLogger) Warn(message string, fields ...map[string]any) {
	l.record("warn", message, fields)
}
func (l *TestLogger) Error(message string, fields ...map[string]any) {
	l.record("error", message, fields)
}

func (l *TestLogger) WithFields(fields map[string]any) StructuredLogger {
	next := l.derive()
	maps.Copy(next.scope.Fields, fields)
	return next
}

func (l *TestLogger) WithRequestID(requestID string) StructuredLogger {
	next := l.derive()
	next.scope.RequestID = requestID
	return next
}

func (l *TestLogger) WithStackID(stackID string) StructuredLogger {
	next := l.derive()
	next.scope.StackID = stackID
	return next
}

func (l *TestLogger) WithResourceID(resourceID string) StructuredLogger {
	next := l.derive()
	next.scope.ResourceID = resourceID
	return next
}

func (l *TestLogger) Flush(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}

func (l *TestLogger) derive() *TestLogger {
	next := &TestLogger{log: l.log, scope: l.scope}
	next.scope.Fields = maps.Clone(l.scope.Fields)
	if next.scope.Fields == nil {
		next.scope.Fields = map[string]any{}
	}
	return next
}

func (l *TestLogger) record(level, message string, fields []map[string]any) {
	entry := l.scope
	entry.Timestamp = time.Now()
	entry.Level = level
	entry.Message = sanitization.SanitizeLogString(message)
	entry.Fields = make(map[string]any, len(l.scope.Fields))
	for _, set := range append([]map[string]any{l.scope.Fields}, fields...) {
		for k, v := range set {
			entry.Fields[k] = sanitization.SanitizeFieldValue(k, v)
		}
	}

	l.log.mu.Lock()
	l.log.entries = append(l.log.entries, entry)
	l.log.mu.Unlock()
}
