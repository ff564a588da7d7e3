package sitetheorycdk

import (
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/sitetheory/pkg/artifacts"
)

// CodeBuildArtifacts sources a website from the archive a CodeBuild pipeline passes through
// the CodeBuildBucket and CodeBuildKey stack parameters.
type CodeBuildArtifacts interface {
	// BucketParameter is the stack parameter naming the output bucket.
	BucketParameter() awscdk.CfnParameter
	// KeyParameter is the stack parameter naming the output archive.
	KeyParameter() awscdk.CfnParameter
	WebsiteSubfolder() string
	WebsiteSettings() map[string]string
}

type CodeBuildArtifactsProps struct {
	// WebsiteSubfolder is the archive folder holding the built website. Defaults to
	// website/build/.
	WebsiteSubfolder *string             `field:"optional" json:"websiteSubfolder" yaml:"websiteSubfolder"`
	WebsiteSettings  *map[string]*string `field:"optional" json:"websiteSettings" yaml:"websiteSettings"`
}

type codeBuildArtifacts struct {
	bucket    awscdk.CfnParameter
	key       awscdk.CfnParameter
	subfolder string
	settings  map[string]string
}

// NewCodeBuildArtifacts declares the CodeBuild parameters on the stack of scope. The
// parameters exist once per stack: later providers share the first declaration.
func NewCodeBuildArtifacts(scope constructs.Construct, props *CodeBuildArtifactsProps) CodeBuildArtifacts {
	if props == nil {
		props = &CodeBuildArtifactsProps{}
	}
	stack := awscdk.Stack_Of(scope)
	c := &codeBuildArtifacts{
		bucket:    stackParameter(stack, artifacts.CodeBuildBucketParameter, "S3 bucket holding the CodeBuild output archive"),
		key:       stackParameter(stack, artifacts.CodeBuildKeyParameter, "S3 key of the CodeBuild output archive"),
		subfolder: artifacts.CodeBuildWebsiteSubfolder,
		settings:  derefMap(props.WebsiteSettings),
	}
	if sub := strings.TrimSpace(deref(props.WebsiteSubfolder)); sub != "" {
		c.subfolder = sub
	}
	return c
}

func stackParameter(stack awscdk.Stack, name, description string) awscdk.CfnParameter {
	if existing, ok := stack.Node().TryFindChild(jsii.String(name)).(awscdk.CfnParameter); ok {
		return existing
	}
	p := awscdk.NewCfnParameter(stack, jsii.String(name), &awscdk.CfnParameterProps{
		Type:        jsii.String("String"),
		Description: jsii.String(description),
	})
	p.OverrideLogicalId(jsii.String(name))
	return p
}

func (c *codeBuildArtifacts) BucketParameter() awscdk.CfnParameter { return c.bucket }
func (c *codeBuildArtifacts) KeyParameter() awscdk.CfnParameter    { return c.key }
func (c *codeBuildArtifacts) WebsiteSubfolder() string             { return c.subfolder }

func (c *codeBuildArtifacts) WebsiteSettings() map[string]string {
	if c.settings == nil {
		return nil
	}
	out := make(map[string]string, len(c.settings))
	for k, v := range c.settings {
		out[k] = v
	}
	return out
}
