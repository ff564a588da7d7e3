package zap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/sitetheory/pkg/observability"
)

func TestReadEnvironment(t *testing.T) {
	t.Setenv(EnvLogLevel, " debug ")
	t.Setenv(EnvLogFormat, "json")
	t.Setenv(EnvErrorTopicARN, "arn:aws:sns:us-west-2:111111111111:site-errors")
	t.Setenv(EnvErrorSubject, "site errors")

	require.Equal(t, Environment{
		Logger:        observability.LoggerConfig{Level: "debug", Format: "json"},
		ErrorTopicARN: "arn:aws:sns:us-west-2:111111111111:site-errors",
		ErrorSubject:  "site errors",
	}, ReadEnvironment())
}

func TestNewFromEnvironment_WithoutTopic(t *testing.T) {
	t.Setenv(EnvLogLevel, "warn")
	t.Setenv(EnvLogFormat, "")
	t.Setenv(EnvErrorTopicARN, "")

	l, err := NewFromEnvironment(context.Background())
	require.NoError(t, err)
	require.NotNil(t, l)
}

func TestNewFromEnvironment_RejectsBadLevel(t *testing.T) {
	t.Setenv(EnvLogLevel, "loud")
	t.Setenv(EnvErrorTopicARN, "")

	_, err := NewFromEnvironment(context.Background())
	require.Error(t, err)
}
