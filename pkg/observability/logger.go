package observability

import (
	"context"
	"time"
)

// LogEntry is one recorded log line with its scoping ids pulled out of the fields.
type LogEntry struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`

	RequestID  string `json:"request_id,omitempty"`
	StackID    string `json:"stack_id,omitempty"`
	ResourceID string `json:"resource_id,omitempty"`
}

// StructuredLogger is the logging surface shared by the assemblers and the custom resource
// handlers.
type StructuredLogger interface {
	Debug(message string, fields ...map[string]any)
	Info(message string, fields ...map[string]any)
	Warn(message string, fields ...map[string]any)
	Error(message string, fields ...map[string]any)

	WithFields(fields map[string]any) StructuredLogger
	WithRequestID(requestID string) StructuredLogger
	WithStackID(stackID string) StructuredLogger
	WithResourceID(resourceID string) StructuredLogger

	Flush(ctx context.Context) error
}

// LoggerConfig configures logger implementations. Empty values pick the backend default.
type LoggerConfig struct {
	Format       string `json:"format" yaml:"format"`
	Level        string `json:"level" yaml:"level"`
	EnableCaller bool   `json:"enable_caller" yaml:"enableCaller"`
}
