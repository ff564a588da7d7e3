// Command copier is the Lambda handler behind the website copy custom resource.
package main

import (
	"context"
	"log"

	"github.com/aws/aws-lambda-go/cfn"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/theory-cloud/sitetheory/pkg/handlers/copier"
	"github.com/theory-cloud/sitetheory/pkg/logger"
	"github.com/theory-cloud/sitetheory/pkg/observability/zap"
)

func main() {
	ctx := context.Background()

	l, err := zap.NewFromEnvironment(ctx)
	if err != nil {
		log.Fatalf("copier: init logger: %v", err)
	}
	logger.SetLogger(l)

	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		l.Error("copier.config_failed", map[string]any{"error": err.Error()})
		log.Fatalf("copier: load aws config: %v", err)
	}

	h := copier.New(s3.NewFromConfig(cfg))
	lambda.Start(cfn.LambdaWrap(h.Handle))
}
