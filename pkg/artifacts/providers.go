package artifacts

import (
	"strings"

	"github.com/theory-cloud/sitetheory/pkg/plan"
)

// Deployment parameters declared by CodeBuildArtifacts.
const (
	CodeBuildBucketParameter = "CodeBuildBucket"
	CodeBuildKeyParameter    = "CodeBuildKey"

	// CodeBuildWebsiteSubfolder is where CodeBuild pipelines place the built website in the
	// output archive.
	CodeBuildWebsiteSubfolder = "website/build/"
)

// WebsiteArtifactProvider supplies the copy configuration for a website.
type WebsiteArtifactProvider interface {
	WebsiteCopyConfiguration() (CopyConfiguration, error)
}

// LambdaCodeProvider supplies the code location for a Lambda function.
type LambdaCodeProvider interface {
	LambdaCode() (LambdaCode, error)
}

// LambdaCode is a function package stored in S3.
type LambdaCode struct {
	Bucket BucketRef
	Key    string
}

// CodeProperty renders the location as an AWS::Lambda::Function Code property.
func (c LambdaCode) CodeProperty() map[string]any {
	return map[string]any{"S3Bucket": c.Bucket.Name, "S3Key": c.Key}
}

// SAMLocation renders the location as an AWS::Serverless::Function CodeUri.
func (c LambdaCode) SAMLocation() map[string]any {
	return map[string]any{"Bucket": c.Bucket.Name, "Key": c.Key}
}

// CodeBuildArtifacts reads its source from the CodeBuildBucket and CodeBuildKey deployment
// parameters. The parameters are declared once per stack regardless of how many providers
// reference them.
type CodeBuildArtifacts struct {
	stack        *plan.Stack
	settings     map[string]string
	zipSubfolder string
}

// CodeBuildOption configures CodeBuildArtifacts.
type CodeBuildOption func(*CodeBuildArtifacts)

// WithWebsiteSettings sets the settings written next to the website.
func WithWebsiteSettings(settings map[string]string) CodeBuildOption {
	return func(c *CodeBuildArtifacts) {
		if settings == nil {
			c.settings = nil
			return
		}
		c.settings = make(map[string]string, len(settings))
		for k, v := range settings {
			c.settings[k] = v
		}
	}
}

// WithWebsiteSubfolder overrides the archive subfolder holding the website.
func WithWebsiteSubfolder(subfolder string) CodeBuildOption {
	return func(c *CodeBuildArtifacts) {
		if subfolder = strings.TrimSpace(subfolder); subfolder != "" {
			c.zipSubfolder = subfolder
		}
	}
}

func NewCodeBuildArtifacts(stack *plan.Stack, opts ...CodeBuildOption) *CodeBuildArtifacts {
	c := &CodeBuildArtifacts{stack: stack, zipSubfolder: CodeBuildWebsiteSubfolder}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

func (c *CodeBuildArtifacts) parameter(name, description string) (*plan.Resource, error) {
	return c.stack.Registry.Resolve(name, func() (*plan.Resource, error) {
		return plan.NewResource(name, plan.TypeParameter, map[string]any{
			"Type":        "String",
			"Description": description,
		}), nil
	})
}

// Bucket returns the bucket holding the CodeBuild output.
func (c *CodeBuildArtifacts) Bucket() (BucketRef, error) {
	p, err := c.parameter(CodeBuildBucketParameter, "S3 bucket holding the CodeBuild output archive")
	if err != nil {
		return BucketRef{}, err
	}
	return BucketRef{Name: plan.Param(p.ID)}, nil
}

// Key returns the object key of the CodeBuild output archive.
func (c *CodeBuildArtifacts) Key() (string, error) {
	p, err := c.parameter(CodeBuildKeyParameter, "S3 key of the CodeBuild output archive")
	if err != nil {
		return "", err
	}
	return plan.Param(p.ID), nil
}

func (c *CodeBuildArtifacts) WebsiteCopyConfiguration() (CopyConfiguration, error) {
	bucket, err := c.Bucket()
	if err != nil {
		return CopyConfiguration{}, err
	}
	key, err := c.Key()
	if err != nil {
		return CopyConfiguration{}, err
	}
	loc, err := NewArtifactLocation(bucket, key, c.zipSubfolder)
	if err != nil {
		return CopyConfiguration{}, err
	}
	cfg := CopyConfiguration{Location: loc, Mode: CopyModeRoot}
	if c.settings != nil {
		cfg = cfg.WithSettings(c.settings)
	}
	return cfg, nil
}

func (c *CodeBuildArtifacts) LambdaCode() (LambdaCode, error) {
	bucket, err := c.Bucket()
	if err != nil {
		return LambdaCode{}, err
	}
	key, err := c.Key()
	if err != nil {
		return LambdaCode{}, err
	}
	return LambdaCode{Bucket: bucket, Key: key}, nil
}

// AssetArtifacts points at an archive already uploaded as a deployment asset.
type AssetArtifacts struct {
	Bucket   BucketRef
	Key      string
	Settings map[string]string
}

func (a AssetArtifacts) WebsiteCopyConfiguration() (CopyConfiguration, error) {
	loc, err := NewArtifactLocation(a.Bucket, a.Key, zipAllEntries)
	if err != nil {
		return CopyConfiguration{}, err
	}
	cfg := CopyConfiguration{Location: loc}
	if a.Settings != nil {
		cfg = cfg.WithSettings(a.Settings)
	}
	return cfg, nil
}

func (a AssetArtifacts) LambdaCode() (LambdaCode, error) {
	loc, err := NewArtifactLocation(a.Bucket, a.Key, "")
	if err != nil {
		return LambdaCode{}, err
	}
	return LambdaCode{Bucket: loc.Bucket, Key: loc.Key}, nil
}
