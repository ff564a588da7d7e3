package sitetheorycdk

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/plan"
	"github.com/theory-cloud/sitetheory/pkg/website"
)

type StaticWebsiteProps struct {
	Artifacts *ArtifactsProps `field:"required" json:"artifacts" yaml:"artifacts"`
	// Route53 names the site inside an existing hosted zone.
	Route53 *website.DNSConfig `field:"optional" json:"route53" yaml:"route53"`
	// CloudFront fronts the bucket with a distribution. Mutually exclusive with S3.
	CloudFront *website.CloudFrontConfig `field:"optional" json:"cloudfront" yaml:"cloudfront"`
	// S3 serves the site from the bucket website endpoint.
	S3 *website.S3Config `field:"optional" json:"s3" yaml:"s3"`
	// HandlerCodePath holds the built copier and invalidate handlers.
	HandlerCodePath *string `field:"optional" json:"handlerCodePath" yaml:"handlerCodePath"`
}

// StaticWebsite is a website bucket filled from the build artifacts, optionally behind a
// CloudFront distribution and a Route53 name.
type StaticWebsite interface {
	constructs.Construct
	Website() *website.Website
	Bucket() awss3.CfnBucket
	// Distribution is nil for storage-only sites.
	Distribution() awscloudfront.CfnDistribution
	Endpoint() *string
	Resources() *Materialized
}

type staticWebsite struct {
	constructs.Construct
	site      *website.Website
	resources *Materialized
}

func (s *staticWebsite) Website() *website.Website { return s.site }
func (s *staticWebsite) Resources() *Materialized  { return s.resources }

func (s *staticWebsite) Bucket() awss3.CfnBucket {
	if s.site.Bucket == nil {
		return nil
	}
	b, _ := s.resources.Construct(s.site.Bucket.ID).(awss3.CfnBucket)
	return b
}

func (s *staticWebsite) Distribution() awscloudfront.CfnDistribution {
	if s.site.Distribution == nil {
		return nil
	}
	d, _ := s.resources.Construct(s.site.Distribution.ID).(awscloudfront.CfnDistribution)
	return d
}

func (s *staticWebsite) Endpoint() *string {
	return s.resources.Resolve(s.site.Endpoint())
}

// NewStaticWebsite validates props and assembles the site before touching the construct
// tree, so a rejected configuration leaves scope unchanged.
func NewStaticWebsite(scope constructs.Construct, id *string, props *StaticWebsiteProps) (StaticWebsite, error) {
	if props == nil {
		return nil, sitetheory.ConfigurationError("props", "props are required")
	}
	if id == nil || *id == "" {
		return nil, sitetheory.ConfigurationError("id", "construct id is required")
	}

	shadow := shadowStack(scope)
	site, err := assembleWebsite(shadow, *id, props)
	if err != nil {
		return nil, err
	}

	this := constructs.NewConstruct(scope, id)
	resources, err := Materialize(this, shadow, WithHandlerCode(deref(props.HandlerCodePath)))
	if err != nil {
		return nil, err
	}
	s := &staticWebsite{Construct: this, site: site, resources: resources}
	awscdk.NewCfnOutput(this, jsii.String("Endpoint"), &awscdk.CfnOutputProps{
		Value:       s.Endpoint(),
		Description: jsii.String("Website endpoint"),
	})
	return s, nil
}

func assembleWebsite(shadow *plan.Stack, id string, props *StaticWebsiteProps) (*website.Website, error) {
	site, err := websiteProps(shadow, props)
	if err != nil {
		return nil, err
	}
	return website.Assemble(shadow, id, site)
}

func websiteProps(shadow *plan.Stack, props *StaticWebsiteProps) (website.Props, error) {
	cfg, err := props.Artifacts.config()
	if err != nil {
		return website.Props{}, err
	}
	copyCfg, err := cfg.CopyConfiguration(shadow)
	if err != nil {
		return website.Props{}, err
	}
	return website.Props{
		Artifacts:  copyCfg,
		Route53:    props.Route53,
		CloudFront: props.CloudFront,
		S3:         props.S3,
	}, nil
}
