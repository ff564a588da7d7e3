package testkit

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
)

type InvalidationCall struct {
	DistributionID  string
	CallerReference string
	Paths           []string
}

// FakeCloudFrontClient records invalidations.
type FakeCloudFrontClient struct {
	mu    sync.Mutex
	clock *ManualClock

	Calls []InvalidationCall
	// Attempts counts every call, failed ones included.
	Attempts int

	CreateErr error
}

func NewFakeCloudFrontClient(clock *ManualClock) *FakeCloudFrontClient {
	if clock == nil {
		clock = NewManualClock(time.Unix(0, 0).UTC())
	}
	return &FakeCloudFrontClient{clock: clock}
}

func (f *FakeCloudFrontClient) CreateInvalidation(
	_ context.Context,
	params *cloudfront.CreateInvalidationInput,
	_ ...func(*cloudfront.Options),
) (*cloudfront.CreateInvalidationOutput, error) {
	if f == nil {
		return nil, errors.New("testkit: cloudfront client is nil")
	}
	if params == nil || params.InvalidationBatch == nil || params.InvalidationBatch.Paths == nil {
		return nil, errors.New("testkit: invalidation batch is empty")
	}
	batch := params.InvalidationBatch
	if int(aws.ToInt32(batch.Paths.Quantity)) != len(batch.Paths.Items) {
		return nil, fmt.Errorf("testkit: quantity %d does not match %d paths", aws.ToInt32(batch.Paths.Quantity), len(batch.Paths.Items))
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.Attempts++
	if f.CreateErr != nil {
		return nil, f.CreateErr
	}
	f.Calls = append(f.Calls, InvalidationCall{
		DistributionID:  aws.ToString(params.DistributionId),
		CallerReference: aws.ToString(batch.CallerReference),
		Paths:           append([]string(nil), batch.Paths.Items...),
	})
	id := fmt.Sprintf("I%d", len(f.Calls))
	return &cloudfront.CreateInvalidationOutput{
		Invalidation: &types.Invalidation{
			Id:                aws.String(id),
			Status:            aws.String("InProgress"),
			CreateTime:        aws.Time(f.clock.Now()),
			InvalidationBatch: batch,
		},
		Location: aws.String("https://cloudfront.amazonaws.com/2020-05-31/distribution/" + aws.ToString(params.DistributionId) + "/invalidation/" + id),
	}, nil
}
