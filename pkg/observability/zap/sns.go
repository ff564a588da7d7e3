package zap

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"

	"github.com/theory-cloud/sitetheory/pkg/observability"
	"github.com/theory-cloud/sitetheory/pkg/sanitization"
)

// SNS caps subjects at 100 characters and messages at 256 KiB.
const (
	maxSubjectLen = 100
	maxMessageLen = 256 * 1024
)

// SNSPublisher is the subset of the SNS client the notifier uses.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes error entries to a topic as JSON, tagged with the Lambda function
// that logged them.
type SNSNotifier struct {
	client   SNSPublisher
	topicARN string
	subject  string
}

var _ Notifier = (*SNSNotifier)(nil)

// NewSNSNotifier publishes to topicARN. An empty subject defaults to
// "sitetheory: <function name>".
func NewSNSNotifier(client SNSPublisher, topicARN, subject string) *SNSNotifier {
	return &SNSNotifier{
		client:   client,
		topicARN: strings.TrimSpace(topicARN),
		subject:  strings.TrimSpace(subject),
	}
}

type snsMessage struct {
	Function string                 `json:"function,omitempty"`
	Region   string                 `json:"region,omitempty"`
	Entry    observability.LogEntry `json:"entry"`
}

func (n *SNSNotifier) Notify(ctx context.Context, entry observability.LogEntry) error {
	if n.client == nil || n.topicARN == "" {
		return errors.New("observability/zap: sns notifier has no client or topic")
	}

	function := os.Getenv("AWS_LAMBDA_FUNCTION_NAME")
	body, err := json.Marshal(snsMessage{
		Function: function,
		Region:   os.Getenv("AWS_REGION"),
		Entry:    entry,
	})
	if err != nil {
		return err
	}
	message := string(body)
	if len(message) > maxMessageLen {
		message = message[:maxMessageLen]
	}

	subject := n.subject
	if subject == "" {
		subject = "sitetheory"
		if function != "" {
			subject += ": " + function
		}
	}
	subject = sanitization.SanitizeLogString(subject)
	if len(subject) > maxSubjectLen {
		subject = subject[:maxSubjectLen]
	}

	_, err = n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	return err
}
