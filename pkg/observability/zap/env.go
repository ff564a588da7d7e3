package zap

import (
	"context"
	"os"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/theory-cloud/sitetheory/pkg/observability"
)

// Environment variables read by NewFromEnvironment.
const (
	EnvLogLevel      = "SITETHEORY_LOG_LEVEL"
	EnvLogFormat     = "SITETHEORY_LOG_FORMAT"
	EnvErrorTopicARN = "SITETHEORY_ERROR_TOPIC_ARN"
	EnvErrorSubject  = "SITETHEORY_ERROR_SUBJECT"
)

// Environment is the logging configuration of a handler process.
type Environment struct {
	Logger        observability.LoggerConfig
	ErrorTopicARN string
	ErrorSubject  string
}

// ReadEnvironment reads the SITETHEORY_* logging variables.
func ReadEnvironment() Environment {
	get := func(key string) string { return strings.TrimSpace(os.Getenv(key)) }
	return Environment{
		Logger: observability.LoggerConfig{
			Level:  get(EnvLogLevel),
			Format: get(EnvLogFormat),
		},
		ErrorTopicARN: get(EnvErrorTopicARN),
		ErrorSubject:  get(EnvErrorSubject),
	}
}

// NewFromEnvironment builds the logger used by the custom resource handlers. Error entries
// are published to SNS when SITETHEORY_ERROR_TOPIC_ARN is set.
func NewFromEnvironment(ctx context.Context) (*Logger, error) {
	env := ReadEnvironment()
	if env.ErrorTopicARN == "" {
		return New(env.Logger)
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, err
	}
	return New(env.Logger, WithNotifier(NewSNSNotifier(sns.NewFromConfig(cfg), env.ErrorTopicARN, env.ErrorSubject)))
}
