package website

import (
	"fmt"
	"strings"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/artifacts"
)

func validate(props Props, mode Mode) error {
	var problems sitetheory.Problems
	problems.Add(props.Artifacts.Validate())

	if props.Route53 != nil && strings.TrimSpace(props.Route53.HostedZoneName) == "" {
		problems.Addf("route53.hostedZoneName", "hosted zone name is required")
	}

	switch mode {
	case ModeStorageOnly:
		if props.S3 != nil {
			if props.S3.IndexDocument != "" {
				problems.Add(artifacts.ValidateRelativePath("s3.indexDocument", props.S3.IndexDocument))
			}
			if props.S3.ErrorDocument != "" {
				problems.Add(artifacts.ValidateRelativePath("s3.errorDocument", props.S3.ErrorDocument))
			}
		}
	case ModeDistributed:
		validateCloudFront(&problems, *props.CloudFront)
		for i, s := range props.Artifacts.PolicyStatements {
			if s.GrantsPublicAccess() {
				problems.Addf(fmt.Sprintf("policyStatements[%d]", i), "a distributed website must not grant public access")
			}
		}
		for i, s := range props.Artifacts.AdditionalPolicyStatements {
			if s.GrantsPublicAccess() {
				problems.Addf(fmt.Sprintf("additionalPolicyStatements[%d]", i), "a distributed website must not grant public access")
			}
		}
	}
	return problems.Err()
}

func validateCloudFront(problems *sitetheory.Problems, cf CloudFrontConfig) {
	if strings.HasPrefix(cf.defaultFile(), "/") {
		problems.Addf("cloudfront.defaultFile", "default file cannot start with a /, got %s", cf.defaultFile())
	} else {
		problems.Add(artifacts.ValidateRelativePath("cloudfront.defaultFile", cf.defaultFile()))
	}
	if !priceClasses[cf.priceClass()] {
		problems.Addf("cloudfront.priceClass", "unknown price class %q", cf.PriceClass)
	}
	for i, p := range cf.InvalidationPaths {
		if !strings.HasPrefix(p, "/") {
			problems.Addf(fmt.Sprintf("cloudfront.invalidationPaths[%d]", i), "invalidation path %q must start with /", p)
		}
	}
	for i, e := range cf.ErrorConfigurations {
		field := fmt.Sprintf("cloudfront.errorConfigurations[%d]", i)
		if e.ErrorCode < 400 || e.ErrorCode > 599 {
			problems.Addf(field+".errorCode", "error code %d is not an HTTP error", e.ErrorCode)
		}
		if e.ResponsePagePath != "" && !strings.HasPrefix(e.ResponsePagePath, "/") {
			problems.Addf(field+".responsePagePath", "response page path %q must start with /", e.ResponsePagePath)
		}
	}

	defaults := 0
	if len(cf.Behaviors) == 0 {
		defaults++
	}
	validateBehaviors(problems, "cloudfront.behaviors", cf.Behaviors, &defaults)
	ids := map[string]bool{}
	for i, origin := range cf.OriginConfigs {
		field := fmt.Sprintf("cloudfront.originConfigs[%d]", i)
		if len(origin.Behaviors) == 0 {
			problems.Addf(field+".behaviors", "at least one behavior is required")
		}
		if origin.ID != "" {
			if ids[origin.ID] {
				problems.Addf(field+".id", "duplicate origin id %q", origin.ID)
			}
			ids[origin.ID] = true
		}
		if origin.OriginPath != "" && !strings.HasPrefix(origin.OriginPath, "/") {
			problems.Addf(field+".originPath", "origin path %q must start with /", origin.OriginPath)
		}
		validateBehaviors(problems, field+".behaviors", origin.Behaviors, &defaults)
	}
	if defaults != 1 {
		problems.Addf("cloudfront.behaviors", "exactly one default behavior is required, got %d", defaults)
	}
}

func validateBehaviors(problems *sitetheory.Problems, field string, behaviors []Behavior, defaults *int) {
	for i, b := range behaviors {
		if b.IsDefaultBehavior {
			*defaults++
			continue
		}
		if strings.TrimSpace(b.PathPattern) == "" {
			problems.Addf(fmt.Sprintf("%s[%d].pathPattern", field, i), "a non-default behavior needs a path pattern")
		}
	}
}
