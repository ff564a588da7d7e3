package sitetheorycdk

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/artifacts"
	"github.com/theory-cloud/sitetheory/pkg/plan"
	"github.com/theory-cloud/sitetheory/pkg/siteconfig"
)

// ArtifactsProps locates the website build and what is written next to it. Either
// SourceBucket or CodeBuild supplies the source.
type ArtifactsProps struct {
	SourceBucket *string `field:"optional" json:"sourceBucket" yaml:"sourceBucket"`
	SourceKey    *string `field:"optional" json:"sourceKey" yaml:"sourceKey"`
	// ZipSubfolder selects the archive entries to extract; "" extracts everything.
	ZipSubfolder *string `field:"optional" json:"zipSubfolder" yaml:"zipSubfolder"`
	// CopyMode is SUBFOLDER (default) or ROOT.
	CopyMode *string `field:"optional" json:"copyMode" yaml:"copyMode"`
	// CodeBuild reads the source from the stack's CodeBuild deployment parameters.
	CodeBuild CodeBuildArtifacts `field:"optional" json:"codeBuild" yaml:"codeBuild"`

	Settings                   *map[string]*string            `field:"optional" json:"settings" yaml:"settings"`
	InjectedArtifacts          *[]*artifacts.InjectedArtifact `field:"optional" json:"injectedArtifacts" yaml:"injectedArtifacts"`
	PolicyStatements           *[]*artifacts.PolicyStatement  `field:"optional" json:"policyStatements" yaml:"policyStatements"`
	AdditionalPolicyStatements *[]*artifacts.PolicyStatement  `field:"optional" json:"additionalPolicyStatements" yaml:"additionalPolicyStatements"`
}

// config converts the props into the configuration section form.
func (p *ArtifactsProps) config() (siteconfig.ArtifactsConfig, error) {
	if p == nil {
		return siteconfig.ArtifactsConfig{}, sitetheory.ConfigurationError("artifacts", "artifacts are required")
	}
	cfg := siteconfig.ArtifactsConfig{
		SourceBucket:               deref(p.SourceBucket),
		SourceKey:                  deref(p.SourceKey),
		ZipSubfolder:               deref(p.ZipSubfolder),
		CopyMode:                   deref(p.CopyMode),
		Settings:                   derefMap(p.Settings),
		InjectedArtifacts:          derefSlice(p.InjectedArtifacts),
		PolicyStatements:           derefSlice(p.PolicyStatements),
		AdditionalPolicyStatements: derefSlice(p.AdditionalPolicyStatements),
	}
	if p.CodeBuild != nil {
		if cfg.SourceBucket != "" {
			return siteconfig.ArtifactsConfig{}, sitetheory.ConfigurationError("artifacts.sourceBucket", "sourceBucket and codeBuild are mutually exclusive")
		}
		cfg.CodeBuild = true
		if cfg.ZipSubfolder == "" {
			cfg.ZipSubfolder = p.CodeBuild.WebsiteSubfolder()
		}
		if cfg.Settings == nil {
			cfg.Settings = p.CodeBuild.WebsiteSettings()
		}
	}
	return cfg, nil
}

// shadowStack returns the plan stack decisions are taken on for constructs placed in scope.
// Its name is the scope's construct path, so derived names follow the construct tree.
func shadowStack(scope constructs.Construct) *plan.Stack {
	stack := awscdk.Stack_Of(scope)
	var opts []plan.StackOption
	if region := stack.Region(); region != nil && !*awscdk.Token_IsUnresolved(region) {
		opts = append(opts, plan.WithRegion(*region))
	}
	if account := stack.Account(); account != nil && !*awscdk.Token_IsUnresolved(account) {
		opts = append(opts, plan.WithAccount(*account))
	}
	return plan.NewStack(*scope.Node().Path(), opts...)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	return b != nil && *b
}

func derefInt(n *float64) int {
	if n == nil {
		return 0
	}
	return int(*n)
}

func derefMap(m *map[string]*string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(*m))
	for k, v := range *m {
		out[k] = deref(v)
	}
	return out
}

func derefSlice[T any](items *[]*T) []T {
	if items == nil {
		return nil
	}
	out := make([]T, 0, len(*items))
	for _, item := range *items {
		if item != nil {
			out = append(out, *item)
		}
	}
	return out
}
