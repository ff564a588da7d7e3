package sitetheorycdk

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/assertions"
	"github.com/aws/jsii-runtime-go"
	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/artifacts"
	"github.com/theory-cloud/sitetheory/pkg/siteconfig"
	"github.com/theory-cloud/sitetheory/pkg/website"
)

// requireNode skips tests that need the jsii runtime.
func requireNode(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("node"); err != nil {
		t.Skip("node is required to synthesize CDK constructs")
	}
}

func handlerCode(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, pkg := range []string{"copier", "invalidate"} {
		require.NoError(t, os.MkdirAll(filepath.Join(dir, pkg), 0o755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, pkg, "bootstrap"), []byte("#!/bin/sh\n"), 0o755))
	}
	return dir
}

func testStack() awscdk.Stack {
	app := awscdk.NewApp(nil)
	return awscdk.NewStack(app, jsii.String("Demo"), &awscdk.StackProps{
		Env: &awscdk.Environment{Account: jsii.String("111111111111"), Region: jsii.String("us-west-2")},
	})
}

func TestNewStaticWebsite_Distributed(t *testing.T) {
	requireNode(t)

	stack := testStack()
	code := handlerCode(t)
	site, err := NewStaticWebsite(stack, jsii.String("Site"), &StaticWebsiteProps{
		Artifacts: &ArtifactsProps{
			CodeBuild: NewCodeBuildArtifacts(stack, &CodeBuildArtifactsProps{
				WebsiteSettings: &map[string]*string{"stage": jsii.String("prod")},
			}),
		},
		CloudFront:      &website.CloudFrontConfig{SinglePageWebapp: true, InvalidationPaths: []string{}},
		HandlerCodePath: jsii.String(code),
	})
	require.NoError(t, err)
	require.NotNil(t, site.Bucket())
	require.NotNil(t, site.Distribution())
	require.Equal(t, website.ModeDistributed, site.Website().Mode)

	template := assertions.Template_FromStack(stack, nil)
	template.ResourceCountIs(jsii.String("AWS::S3::Bucket"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("AWS::CloudFront::Distribution"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("AWS::CloudFront::CloudFrontOriginAccessIdentity"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("AWS::CloudFormation::CustomResource"), jsii.Number(2))
	template.ResourceCountIs(jsii.String("AWS::Lambda::Function"), jsii.Number(2))
	template.HasParameter(jsii.String(artifacts.CodeBuildBucketParameter), map[string]interface{}{"Type": "String"})
	template.HasParameter(jsii.String(artifacts.CodeBuildKeyParameter), map[string]interface{}{"Type": "String"})
	template.HasResourceProperties(jsii.String("AWS::CloudFront::Distribution"), map[string]interface{}{
		"DistributionConfig": assertions.Match_ObjectLike(&map[string]interface{}{
			"DefaultRootObject": "index.html",
			"CustomErrorResponses": []interface{}{
				map[string]interface{}{"ErrorCode": 404, "ResponseCode": 200, "ResponsePagePath": "/index.html"},
			},
		}),
	})
	template.HasResourceProperties(jsii.String("AWS::IAM::Role"), map[string]interface{}{
		"ManagedPolicyArns": []interface{}{
			map[string]interface{}{"Fn::Sub": "arn:${AWS::Partition}:iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"},
		},
	})
}

func TestNewStaticWebsite_SharesHandlersAcrossSites(t *testing.T) {
	requireNode(t)

	stack := testStack()
	code := handlerCode(t)
	for _, id := range []string{"Blog", "Docs"} {
		_, err := NewStaticWebsite(stack, jsii.String(id), &StaticWebsiteProps{
			Artifacts: &ArtifactsProps{
				SourceBucket: jsii.String("build-artifacts"),
				SourceKey:    jsii.String(id + ".zip"),
			},
			CloudFront:      &website.CloudFrontConfig{},
			HandlerCodePath: jsii.String(code),
		})
		require.NoError(t, err)
	}

	template := assertions.Template_FromStack(stack, nil)
	template.ResourceCountIs(jsii.String("AWS::S3::Bucket"), jsii.Number(2))
	template.ResourceCountIs(jsii.String("AWS::CloudFront::Distribution"), jsii.Number(2))
	// One copier function serves both sites; each site grants it its own policy.
	template.ResourceCountIs(jsii.String("AWS::Lambda::Function"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("AWS::IAM::Policy"), jsii.Number(2))
}

func TestNewStaticWebsite_LiteralTemplatesSurviveSynthesis(t *testing.T) {
	requireNode(t)

	stack := testStack()
	_, err := NewStaticWebsite(stack, jsii.String("Site"), &StaticWebsiteProps{
		Artifacts: &ArtifactsProps{
			SourceBucket: jsii.String("build-artifacts"),
			SourceKey:    jsii.String("out.zip"),
			Settings:     &map[string]*string{"greeting": jsii.String("hello ${name}")},
			InjectedArtifacts: &[]*artifacts.InjectedArtifact{
				{Path: "./greet.js", Content: "const m = `hello ${name}`;"},
			},
		},
		HandlerCodePath: jsii.String(handlerCode(t)),
	})
	require.NoError(t, err)

	template := assertions.Template_FromStack(stack, nil)
	template.HasResourceProperties(jsii.String("AWS::CloudFormation::CustomResource"), map[string]interface{}{
		"Files": []interface{}{
			map[string]interface{}{"path": "greet.js", "content": "const m = `hello ${name}`;"},
			map[string]interface{}{"path": "settings.json", "content": `{"greeting":"hello ${name}"}`},
		},
	})
}

func TestNewStaticWebsite_StorageOnlyAliasUsesRegionalEndpoint(t *testing.T) {
	requireNode(t)

	app := awscdk.NewApp(nil)
	stack := awscdk.NewStack(app, jsii.String("Demo"), &awscdk.StackProps{
		Env: &awscdk.Environment{Account: jsii.String("111111111111"), Region: jsii.String("eu-central-1")},
	})
	_, err := NewStaticWebsite(stack, jsii.String("Site"), &StaticWebsiteProps{
		Artifacts: &ArtifactsProps{SourceBucket: jsii.String("build-artifacts"), SourceKey: jsii.String("out.zip")},
		S3:        &website.S3Config{},
		Route53: &website.DNSConfig{
			HostedZoneName: "example.com",
			HostedZoneID:   "Z123",
			RecordName:     "www",
		},
		HandlerCodePath: jsii.String(handlerCode(t)),
	})
	require.NoError(t, err)

	template := assertions.Template_FromStack(stack, nil)
	template.HasResourceProperties(jsii.String("AWS::Route53::RecordSet"), map[string]interface{}{
		"Type": "A",
		"AliasTarget": assertions.Match_ObjectLike(&map[string]interface{}{
			"DNSName": "s3-website.eu-central-1.amazonaws.com",
		}),
	})
}

func TestNewStaticWebsite_RejectsBeforeTouchingScope(t *testing.T) {
	requireNode(t)

	stack := testStack()
	_, err := NewStaticWebsite(stack, jsii.String("Site"), &StaticWebsiteProps{
		Artifacts:  &ArtifactsProps{SourceBucket: jsii.String("b"), SourceKey: jsii.String("k.zip")},
		CloudFront: &website.CloudFrontConfig{},
		S3:         &website.S3Config{},
	})
	require.Error(t, err)
	require.True(t, sitetheory.IsConfigurationError(err))
	require.Nil(t, stack.Node().TryFindChild(jsii.String("Site")))
}

func TestNewVpc_FlowLogsAndTrail(t *testing.T) {
	requireNode(t)

	stack := testStack()
	v, err := NewVpc(stack, jsii.String("Network"), &VpcProps{
		MaxAzs:           jsii.Number(2),
		EnableFlowLogs:   jsii.Bool(true),
		EnableCloudTrail: jsii.Bool(true),
	})
	require.NoError(t, err)
	require.NotNil(t, v.Vpc())

	template := assertions.Template_FromStack(stack, nil)
	template.HasResourceProperties(jsii.String("AWS::EC2::VPC"), map[string]interface{}{
		"CidrBlock":          "10.0.0.0/16",
		"EnableDnsHostnames": true,
	})
	template.ResourceCountIs(jsii.String("AWS::EC2::FlowLog"), jsii.Number(1))
	template.ResourceCountIs(jsii.String("AWS::CloudTrail::Trail"), jsii.Number(1))
}

func TestSynth_WritesCloudAssembly(t *testing.T) {
	requireNode(t)

	doc, err := siteconfig.Parse([]byte(`
stack:
  name: demo
  region: us-west-2
  account: "111111111111"
website:
  artifacts:
    sourceBucket: build-artifacts
    sourceKey: out.zip
  s3:
    indexDocument: index.html
`))
	require.NoError(t, err)

	out := t.TempDir()
	dir, err := Synth(doc, SynthOptions{OutDir: out, HandlerCodePath: handlerCode(t)})
	require.NoError(t, err)
	require.Equal(t, out, dir)
	_, err = os.Stat(filepath.Join(out, "demo.template.json"))
	require.NoError(t, err)
}
