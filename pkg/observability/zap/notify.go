package zap

import (
	"context"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/theory-cloud/sitetheory/pkg/observability"
)

// notifyTimeout bounds a single notification so a slow topic cannot hold a custom resource
// response past its deadline.
const notifyTimeout = 5 * time.Second

// Notifier receives every error entry written through a Logger built WithNotifier.
type Notifier interface {
	Notify(ctx context.Context, entry observability.LogEntry) error
}

// notifyCore is a zapcore.Core that hands error entries to a Notifier. A failed notification
// surfaces through zap's ErrorOutput and never drops the log line itself.
type notifyCore struct {
	notifier Notifier
	fields   []zapcore.Field
}

func newNotifyCore(n Notifier) zapcore.Core {
	return &notifyCore{notifier: n}
}

func (c *notifyCore) Enabled(lvl zapcore.Level) bool {
	return lvl >= zapcore.ErrorLevel
}

func (c *notifyCore) With(fields []zapcore.Field) zapcore.Core {
	next := &notifyCore{notifier: c.notifier}
	next.fields = append(append(next.fields, c.fields...), fields...)
	return next
}

func (c *notifyCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

func (c *notifyCore) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	entry := observability.LogEntry{
		Timestamp:  ent.Time,
		Level:      ent.Level.String(),
		Message:    ent.Message,
		RequestID:  takeString(enc.Fields, keyRequestID),
		StackID:    takeString(enc.Fields, keyStackID),
		ResourceID: takeString(enc.Fields, keyResourceID),
	}
	if len(enc.Fields) > 0 {
		entry.Fields = enc.Fields
	}

	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	return c.notifier.Notify(ctx, entry)
}

func (c *notifyCore) Sync() error { return nil }

func takeString(fields map[string]any, key string) string {
	v, ok := fields[key].(string)
	if ok {
		delete(fields, key)
	}
	return v
}
