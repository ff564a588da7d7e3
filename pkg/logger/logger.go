// Package logger holds the process-wide structured logger used by the assemblers and the
// custom resource handlers.
package logger

import (
	"sync"

	"github.com/theory-cloud/sitetheory/pkg/observability"
	"github.com/theory-cloud/sitetheory/pkg/sanitization"
)

var (
	globalMu     sync.RWMutex
	globalLogger = observability.NewNoOpLogger()
)

// Logger returns the process-wide logger; a no-op logger until SetLogger is called.
func Logger() observability.StructuredLogger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// SetLogger replaces the process-wide logger. Passing nil restores the no-op logger.
func SetLogger(next observability.StructuredLogger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	if next == nil {
		next = observability.NewNoOpLogger()
	}
	globalLogger = next
}

// SanitizeSettings returns a loggable view of a settings document.
func SanitizeSettings(settings map[string]string) map[string]any {
	return sanitization.SanitizeSettings(settings)
}
