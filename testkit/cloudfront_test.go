package testkit

import (
	"context"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"
)

func TestFakeCloudFrontClient_CreateInvalidation(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	client := NewFakeCloudFrontClient(NewManualClock(now))

	if _, err := client.CreateInvalidation(context.Background(), &cloudfront.CreateInvalidationInput{}); err == nil {
		t.Fatal("expected error for empty batch")
	}

	out, err := client.CreateInvalidation(context.Background(), &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String("E123"),
		InvalidationBatch: &types.InvalidationBatch{
			CallerReference: aws.String("ref-1"),
			Paths:           &types.Paths{Quantity: aws.Int32(2), Items: []string{"/a", "/b"}},
		},
	})
	if err != nil {
		t.Fatalf("CreateInvalidation returned error: %v", err)
	}
	if aws.ToString(out.Invalidation.Id) != "I1" || !aws.ToTime(out.Invalidation.CreateTime).Equal(now) {
		t.Fatalf("unexpected invalidation: %#v", out.Invalidation)
	}
	if len(client.Calls) != 1 || client.Calls[0].DistributionID != "E123" || len(client.Calls[0].Paths) != 2 {
		t.Fatalf("unexpected calls: %#v", client.Calls)
	}

	_, err = client.CreateInvalidation(context.Background(), &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String("E123"),
		InvalidationBatch: &types.InvalidationBatch{
			CallerReference: aws.String("ref-2"),
			Paths:           &types.Paths{Quantity: aws.Int32(3), Items: []string{"/a"}},
		},
	})
	if err == nil {
		t.Fatal("expected quantity mismatch error")
	}

	client.CreateErr = context.DeadlineExceeded
	if _, err := client.CreateInvalidation(context.Background(), &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String("E123"),
		InvalidationBatch: &types.InvalidationBatch{
			CallerReference: aws.String("ref-3"),
			Paths:           &types.Paths{Quantity: aws.Int32(1), Items: []string{"/*"}},
		},
	}); err == nil {
		t.Fatal("expected injected error")
	}
}
