package website

import (
	"github.com/theory-cloud/sitetheory/pkg/artifacts"
	"github.com/theory-cloud/sitetheory/pkg/plan"
)

func accountRoot() artifacts.Principal {
	return artifacts.Principal{
		Type: artifacts.PrincipalAWS,
		ID:   "arn:" + plan.Ref(plan.PseudoPartition) + ":iam::" + plan.Ref(plan.PseudoAccountID) + ":root",
	}
}

func publicRead(bucketARN string) artifacts.PolicyStatement {
	return artifacts.PolicyStatement{
		Sid:        "PublicReadGetObject",
		Effect:     artifacts.EffectAllow,
		Actions:    []string{"s3:GetObject"},
		Resources:  []string{bucketARN + "/*"},
		Principals: []artifacts.Principal{{Type: artifacts.PrincipalAWS, ID: "*"}},
	}
}

// derivePolicy returns the bucket access policy: full access for the deploying account,
// read and list for the origin access identity when one is given, then the caller's
// additional statements. Caller supplied policyStatements replace the derived policy, and an
// explicitly empty list leaves the bucket without one.
func derivePolicy(cfg artifacts.CopyConfiguration, bucketARN, oaiCanonicalUser string) []artifacts.PolicyStatement {
	if cfg.PolicyStatements != nil {
		return withDefaults(cfg.PolicyStatements, bucketARN)
	}

	out := []artifacts.PolicyStatement{{
		Sid:        "AccountFullAccess",
		Effect:     artifacts.EffectAllow,
		Actions:    []string{"s3:*"},
		Resources:  []string{bucketARN + "/*"},
		Principals: []artifacts.Principal{accountRoot()},
	}}
	if oaiCanonicalUser != "" {
		oai := []artifacts.Principal{{Type: artifacts.PrincipalCanonicalUser, ID: oaiCanonicalUser}}
		out = append(out,
			artifacts.PolicyStatement{
				Sid:        "OriginAccessIdentityRead",
				Effect:     artifacts.EffectAllow,
				Actions:    []string{"s3:GetObject"},
				Resources:  []string{bucketARN + "/*"},
				Principals: oai,
			},
			artifacts.PolicyStatement{
				Sid:        "OriginAccessIdentityList",
				Effect:     artifacts.EffectAllow,
				Actions:    []string{"s3:ListBucket"},
				Resources:  []string{bucketARN},
				Principals: oai,
			},
		)
	}
	return append(out, withDefaults(cfg.AdditionalPolicyStatements, bucketARN)...)
}

// withDefaults fills the effect and scopes resource-less statements to the bucket objects.
func withDefaults(in []artifacts.PolicyStatement, bucketARN string) []artifacts.PolicyStatement {
	out := make([]artifacts.PolicyStatement, 0, len(in))
	for _, s := range in {
		s.Effect = s.EffectOrDefault()
		if len(s.Resources) == 0 {
			s.Resources = []string{bucketARN + "/*"}
		}
		out = append(out, s)
	}
	return out
}

// copierStatements grants the copier write access to the destination and read access to the source.
func copierStatements(source artifacts.BucketRef, bucketARN string) []artifacts.PolicyStatement {
	return []artifacts.PolicyStatement{
		{
			Effect:    artifacts.EffectAllow,
			Actions:   []string{"s3:Get*", "s3:List*", "s3:Put*", "s3:DeleteObject"},
			Resources: []string{bucketARN, bucketARN + "/*"},
		},
		{
			Effect:    artifacts.EffectAllow,
			Actions:   []string{"s3:Get*", "s3:List*"},
			Resources: []string{source.ARN(), source.ObjectsARN()},
		},
	}
}
