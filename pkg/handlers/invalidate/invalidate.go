// Package invalidate implements the custom resource that invalidates a CloudFront distribution
// after its content changed. The invalidation is requested once per Create or Update; a
// failure is reported to CloudFormation and never retried here.
package invalidate

import (
	"context"
	"errors"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront/types"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/customresource"
	"github.com/theory-cloud/sitetheory/pkg/logger"
	"github.com/theory-cloud/sitetheory/pkg/observability"
)

type CloudFrontAPI interface {
	CreateInvalidation(
		ctx context.Context,
		params *cloudfront.CreateInvalidationInput,
		optFns ...func(*cloudfront.Options),
	) (*cloudfront.CreateInvalidationOutput, error)
}

type Handler struct {
	client CloudFrontAPI
	ids    sitetheory.IDGenerator
	logger observability.StructuredLogger
}

type Option func(*Handler)

// WithIDGenerator sets the source of caller references.
func WithIDGenerator(ids sitetheory.IDGenerator) Option {
	return func(h *Handler) {
		if ids != nil {
			h.ids = ids
		}
	}
}

func WithLogger(l observability.StructuredLogger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

func New(client CloudFrontAPI, opts ...Option) *Handler {
	h := &Handler{client: client, ids: sitetheory.ULIDGenerator{}}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// PhysicalID names the invalidation resource of a distribution. It is stable across updates so
// CloudFormation never replaces the resource.
func PhysicalID(distributionID string) string {
	return "invalidation:" + distributionID
}

// Handle is a cfn.CustomResourceFunction.
func (h *Handler) Handle(ctx context.Context, event cfn.Event) (string, map[string]interface{}, error) {
	log := h.logger
	if log == nil {
		log = logger.Logger()
	}
	log = log.WithRequestID(event.RequestID).WithStackID(event.StackID).WithResourceID(event.LogicalResourceID)

	var req customresource.Invalidation
	if err := customresource.Decode(event.ResourceProperties, &req); err != nil {
		return event.PhysicalResourceID, nil, err
	}

	if event.RequestType == cfn.RequestDelete {
		log.Info("invalidation delete is a no-op")
		physicalID := event.PhysicalResourceID
		if physicalID == "" {
			physicalID = PhysicalID(req.DistributionID)
		}
		return physicalID, nil, nil
	}

	if err := req.Validate(); err != nil {
		return event.PhysicalResourceID, nil, err
	}
	physicalID := PhysicalID(req.DistributionID)
	if h.client == nil {
		return physicalID, nil, sitetheory.ProvisioningFailure("invalidate", errors.New("cloudfront client is nil"))
	}

	paths := req.Paths()
	ref := h.ids.NewID()
	out, err := h.client.CreateInvalidation(ctx, &cloudfront.CreateInvalidationInput{
		DistributionId: aws.String(req.DistributionID),
		InvalidationBatch: &types.InvalidationBatch{
			CallerReference: aws.String(ref),
			Paths: &types.Paths{
				Quantity: aws.Int32(int32(len(paths))),
				Items:    paths,
			},
		},
	})
	if err != nil {
		log.Error("invalidation failed", map[string]any{
			"error":        err.Error(),
			"distribution": req.DistributionID,
		})
		return physicalID, nil, sitetheory.ProvisioningFailure("invalidate", err)
	}

	data := map[string]interface{}{"CallerReference": ref}
	if out != nil && out.Invalidation != nil {
		data["InvalidationId"] = aws.ToString(out.Invalidation.Id)
	}
	log.Info("invalidation requested", map[string]any{
		"distribution":     req.DistributionID,
		"paths":            paths,
		"caller_reference": ref,
		"source_key":       req.SourceKey,
	})
	return physicalID, data, nil
}
