package zap

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/sitetheory/pkg/observability"
	"github.com/theory-cloud/sitetheory/testkit"
)

type recordingNotifier struct {
	mu      sync.Mutex
	entries []observability.LogEntry
	err     error
}

func (n *recordingNotifier) Notify(_ context.Context, entry observability.LogEntry) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries = append(n.entries, entry)
	return n.err
}

func TestLogger_NotifiesErrorEntriesOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n := &recordingNotifier{}
	l, err := New(observability.LoggerConfig{Format: "json", Level: "debug"}, WithOutput(&buf), WithNotifier(n))
	require.NoError(t, err)

	scoped := l.WithFields(map[string]any{"bucket": "site"}).
		WithStackID("demo").
		WithResourceID("SiteCopy").
		WithRequestID("req-1")
	scoped.Info("copy.start")
	scoped.Warn("copy.slow")
	scoped.Error("copy.failed", map[string]any{"error": errors.New("access denied"), "password": "p"})

	require.Len(t, n.entries, 1)
	got := n.entries[0]
	require.Equal(t, "error", got.Level)
	require.Equal(t, "copy.failed", got.Message)
	require.Equal(t, "demo", got.StackID)
	require.Equal(t, "SiteCopy", got.ResourceID)
	require.Equal(t, "req-1", got.RequestID)
	require.Equal(t, map[string]any{
		"bucket":   "site",
		"error":    "access denied",
		"password": "[REDACTED]",
	}, got.Fields)
	require.False(t, got.Timestamp.IsZero())

	// The line is still written even though the entry was also forwarded.
	require.Len(t, decodeLines(t, &buf), 3)
}

func TestLogger_NotifierFailureKeepsLogLine(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n := &recordingNotifier{err: errors.New("throttled")}
	l, err := New(observability.LoggerConfig{Format: "json"}, WithOutput(&buf), WithNotifier(n))
	require.NoError(t, err)

	l.Error("invalidation.failed")
	require.Len(t, n.entries, 1)
	lines := decodeLines(t, &buf)
	require.Len(t, lines, 1)
	require.Equal(t, "invalidation.failed", lines[0]["message"])
}

func TestSNSNotifier_PublishesEntry(t *testing.T) {
	t.Setenv("AWS_LAMBDA_FUNCTION_NAME", "SiteTheoryCopier")
	t.Setenv("AWS_REGION", "us-west-2")

	client := testkit.NewFakeSNSClient()
	l, err := New(observability.LoggerConfig{Format: "json"},
		WithOutput(&bytes.Buffer{}),
		WithNotifier(NewSNSNotifier(client, " arn:aws:sns:us-west-2:111111111111:site-errors ", "")))
	require.NoError(t, err)

	l.WithStackID("demo").Error("copy.failed", map[string]any{"bucket": "site"})

	published := client.Published()
	require.Len(t, published, 1)
	require.Equal(t, "arn:aws:sns:us-west-2:111111111111:site-errors", published[0].TopicARN)
	require.Equal(t, "sitetheory: SiteTheoryCopier", published[0].Subject)

	var body struct {
		Function string                 `json:"function"`
		Region   string                 `json:"region"`
		Entry    observability.LogEntry `json:"entry"`
	}
	require.NoError(t, json.Unmarshal([]byte(published[0].Message), &body))
	require.Equal(t, "SiteTheoryCopier", body.Function)
	require.Equal(t, "us-west-2", body.Region)
	require.Equal(t, "copy.failed", body.Entry.Message)
	require.Equal(t, "demo", body.Entry.StackID)
	require.Equal(t, "site", body.Entry.Fields["bucket"])
}

func TestSNSNotifier_SubjectAndErrors(t *testing.T) {
	t.Parallel()

	client := testkit.NewFakeSNSClient()
	long := NewSNSNotifier(client, "arn:topic", "site\nerrors "+string(bytes.Repeat([]byte("x"), 200)))
	require.NoError(t, long.Notify(context.Background(), observability.LogEntry{Message: "m"}))
	subject := client.Published()[0].Subject
	require.Len(t, subject, maxSubjectLen)
	require.NotContains(t, subject, "\n")

	require.Error(t, NewSNSNotifier(client, "", "").Notify(context.Background(), observability.LogEntry{}))
	require.Error(t, NewSNSNotifier(nil, "arn:topic", "").Notify(context.Background(), observability.LogEntry{}))
}
