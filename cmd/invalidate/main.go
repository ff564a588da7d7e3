// Command invalidate is the Lambda handler behind the distribution invalidation custom resource.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudfront"

	"github.com/theory-cloud/sitetheory/pkg/handlers/invalidate"
	"github.com/theory-cloud/sitetheory/pkg/logger"
	"github.com/theory-cloud/sitetheory/pkg/observability/zap"
)

func main() {
	ctx := context.Background()

	l, err := zap.NewFromEnvironment(ctx)
	if err != nil {
		log.Fatalf("invalidate: init logger: %v", err)
	}
	logger.SetLogger(l)

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		l.Error("invalidate.config_failed", map[string]any{"error": err.Error()})
		log.Fatalf("invalidate: load aws config: %v", err)
	}

	h := invalidate.New(cloudfront.NewFromConfig(cfg))
	lambda.Start(cfn.LambdaWrap(h.Handle))
}
