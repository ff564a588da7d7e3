package observability

import "context"

type noopLogger struct{}

var _ StructuredLogger = noopLogger{}

func NewNoOpLogger() StructuredLogger {
	return noopLogger{}
}

func (noopLogger) Debug(string, ...map[string]any) {}
func (noopLogger) Info(string, ...map[string]any)  {}
func (noopLogger) Warn(string, ...map[string]any)  {}
func (noopLogger) Error(string, ...map[string]any) {}

func (n noopLogger) WithFields(map[string]any) StructuredLogger { return n }
func (n noopLogger) WithRequestID(string) StructuredLogger      { return n }
func (n noopLogger) WithStackID(string) StructuredLogger        { return n }
func (n noopLogger) WithResourceID(string) StructuredLogger     { return n }
func (noopLogger) Flush(context.Context) error                  { return nil }
