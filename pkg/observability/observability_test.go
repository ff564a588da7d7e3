package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNoOpLogger(t *testing.T) {
	t.Parallel()

	l := NewNoOpLogger()
	l.WithFields(map[string]any{"k": "v"}).WithStackID("demo").Error("ignored")
	require.NoError(t, l.Flush(context.Background()))
}

func TestTestLogger_DerivedLoggersShareEntries(t *testing.T) {
	t.Parallel()

	base := NewTestLogger()
	base.WithFields(map[string]any{"site": "blog"}).Info("one")

	derived := base.WithRequestID("req-1").WithStackID("demo").WithResourceID("SiteCopy")
	derived.Warn("two", map[string]any{"password": "hunter2", "objects": 3})
	base.Info("three")

	entries := base.Entries()
	require.Len(t, entries, 3)
	require.Equal(t, "blog", entries[0].Fields["site"])

	two := entries[1]
	require.Equal(t, "warn", two.Level)
	require.Equal(t, "req-1", two.RequestID)
	require.Equal(t, "demo", two.StackID)
	require.Equal(t, "SiteCopy", two.ResourceID)
	require.Equal(t, "[REDACTED]", two.Fields["password"])
	require.Equal(t, "3", two.Fields["objects"])

	// Scope set on a derived logger does not leak back.
	require.Empty(t, entries[2].RequestID)
	require.NotContains(t, entries[2].Fields, "site")
}

func TestTestLogger_StripsLineBreaksFromMessages(t *testing.T) {
	t.Parallel()

	l := NewTestLogger()
	l.Error("copy failed\r\nforged line")

	e, ok := l.Find("copy failedforged line")
	require.True(t, ok)
	require.Equal(t, "error", e.Level)
}

func TestTestLogger_FlushHonorsCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, NewTestLogger().Flush(ctx), context.Canceled)
}

func TestLogEvent_MapsLevelsAndScopes(t *testing.T) {
	t.Parallel()

	l := NewTestLogger()

	LogEvent(l, Event{
		Level:      "warn",
		Name:       "settings.override",
		StackID:    "demo",
		ResourceID: "SiteCopy",
		RequestID:  "req_1",
		Fields:     map[string]any{"key": "apiEndpoint", "status": 404},
	})
	LogEvent(l, Event{Name: "website.phase"})
	LogEvent(l, Event{Level: "error", Name: "copy.failed"})
	LogEvent(l, Event{Level: "debug", Name: "plan.add"})
	LogEvent(l, Event{})
	LogEvent(nil, Event{Name: "ignored"})

	entries := l.Entries()
	require.Len(t, entries, 4)
	require.Equal(t, "warn", entries[0].Level)
	require.Equal(t, "settings.override", entries[0].Message)
	require.Equal(t, "req_1", entries[0].RequestID)
	require.Equal(t, "demo", entries[0].StackID)
	require.Equal(t, "SiteCopy", entries[0].ResourceID)
	require.Equal(t, "404", entries[0].Fields["status"])
	require.Equal(t, "settings.override", entries[0].Fields["event"])
	require.Equal(t, "info", entries[1].Level)
	require.Equal(t, "error", entries[2].Level)
	require.Equal(t, "debug", entries[3].Level)
}
