package testkit

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
)

// SNSMessage is one message published to the fake.
type SNSMessage struct {
	TopicARN string
	Subject  string
	Message  string
}

// FakeSNSClient records published error notifications.
type FakeSNSClient struct {
	mu        sync.Mutex
	published []SNSMessage

	PublishErr error
}

func NewFakeSNSClient() *FakeSNSClient {
	return &FakeSNSClient{}
}

func (f *FakeSNSClient) Publish(_ context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if f.PublishErr != nil {
		return nil, f.PublishErr
	}
	if params == nil || aws.ToString(params.TopicArn) == "" {
		return nil, fmt.Errorf("testkit: publish requires a topic arn")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, SNSMessage{
		TopicARN: aws.ToString(params.TopicArn),
		Subject:  aws.ToString(params.Subject),
		Message:  aws.ToString(params.Message),
	})
	return &sns.PublishOutput{MessageId: aws.String(fmt.Sprintf("msg-%d", len(f.published)))}, nil
}

// Published returns a copy of every message published so far.
func (f *FakeSNSClient) Published() []SNSMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SNSMessage(nil), f.published...)
}
