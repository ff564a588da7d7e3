// Package zap implements observability.StructuredLogger on go.uber.org/zap. Error entries
// can additionally be forwarded to a Notifier such as SNS.
package zap

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	ubzap "go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/theory-cloud/sitetheory/pkg/observability"
	"github.com/theory-cloud/sitetheory/pkg/sanitization"
)

// Scope keys written on every scoped entry.
const (
	keyRequestID  = "request_id"
	keyStackID    = "stack_id"
	keyResourceID = "resource_id"
)

type Option func(*options)

type options struct {
	out      zapcore.WriteSyncer
	notifier Notifier
}

// WithOutput writes entries to w instead of stdout.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = zapcore.AddSync(w)
	}
}

// WithNotifier forwards every error entry to n.
func WithNotifier(n Notifier) Option {
	return func(o *options) {
		o.notifier = n
	}
}

// Logger is a StructuredLogger backed by a *zap.Logger. Derived loggers share the core.
type Logger struct {
	log *ubzap.Logger
}

var _ observability.StructuredLogger = (*Logger)(nil)

// New builds a Logger. Format defaults to json inside Lambda and console elsewhere; level
// defaults to info.
func New(cfg observability.LoggerConfig, opts ...Option) (*Logger, error) {
	o := options{out: zapcore.Lock(os.Stdout)}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}

	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	encoder, err := newEncoder(cfg)
	if err != nil {
		return nil, err
	}

	core := zapcore.NewCore(encoder, o.out, level)
	if o.notifier != nil {
		core = zapcore.NewTee(core, newNotifyCore(o.notifier))
	}

	var zopts []ubzap.Option
	if cfg.EnableCaller {
		zopts = append(zopts, ubzap.AddCaller(), ubzap.AddCallerSkip(1))
	}
	return &Logger{log: ubzap.New(core, zopts...)}, nil
}

func parseLevel(level string) (zapcore.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "":
		return zapcore.InfoLevel, nil
	case "warning":
		return zapcore.WarnLevel, nil
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil || lvl > zapcore.ErrorLevel {
		return 0, fmt.Errorf("observability/zap: unsupported log level %q", level)
	}
	return lvl, nil
}

func newEncoder(cfg observability.LoggerConfig) (zapcore.Encoder, error) {
	enc := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		MessageKey:     "message",
		EncodeTime:     zapcore.RFC3339TimeEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		LineEnding:     zapcore.DefaultLineEnding,
	}
	if cfg.EnableCaller {
		enc.CallerKey = "caller"
		enc.EncodeCaller = zapcore.ShortCallerEncoder
	}

	format := strings.ToLower(strings.TrimSpace(cfg.Format))
	if format == "" {
		format = "console"
		if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
			format = "json"
		}
	}
	switch format {
	case "json":
		return zapcore.NewJSONEncoder(enc), nil
	case "console":
		return zapcore.NewConsoleEncoder(enc), nil
	default:
		return nil, fmt.Errorf("observability/zap: unsupported log format %q", format)
	}
}

func (l *Logger) Debug(message string, fields ...map[string]any) {
	l.log.Debug(sanitization.SanitizeLogString(message), zapFields(fields...)...)
}

func (l *Logger) Info(message string, fields ...map[string]any) {
	l.log.Info(sanitization.SanitizeLogString(message), zapFields(fields...)...)
}

func (l *Logger) Warn(message string, fields ...map[string]any) {
	l.log.Warn(sanitization.SanitizeLogString(message), zapFields(fields...)...)
}

func (l *Logger) Error(message string, fields ...map[string]any) {
	l.log.Error(sanitization.SanitizeLogString(message), zapFields(fields...)...)
}

func (l *Logger) WithFields(fields map[string]any) observability.StructuredLogger {
	return &Logger{log: l.log.With(zapFields(fields)...)}
}

func (l *Logger) WithRequestID(requestID string) observability.StructuredLogger {
	return l.withScope(keyRequestID, requestID)
}

func (l *Logger) WithStackID(stackID string) observability.StructuredLogger {
	return l.withScope(keyStackID, stackID)
}

func (l *Logger) WithResourceID(resourceID string) observability.StructuredLogger {
	return l.withScope(keyResourceID, resourceID)
}

func (l *Logger) withScope(key, value string) *Logger {
	return &Logger{log: l.log.With(ubzap.String(key, sanitization.SanitizeLogString(value)))}
}

// Flush syncs the underlying writer. Terminals and pipes that cannot sync are not an error.
func (l *Logger) Flush(context.Context) error {
	err := l.log.Sync()
	if err != nil && isUnsyncable(err) {
		return nil
	}
	return err
}

func isUnsyncable(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "invalid argument") || strings.Contains(msg, "inappropriate ioctl")
}

// zapFields merges field sets, later sets winning, and sanitizes each value. Keys are sorted
// so console output is stable.
func zapFields(sets ...map[string]any) []ubzap.Field {
	merged := map[string]any{}
	for _, set := range sets {
		for k, v := range set {
			merged[k] = v
		}
	}
	if len(merged) == 0 {
		return nil
	}
	keys := make([]string, 0, len(merged))
	for k := range merged {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]ubzap.Field, 0, len(keys))
	for _, k := range keys {
		out = append(out, ubzap.Any(k, sanitization.SanitizeFieldValue(k, merged[k])))
	}
	return out
}
