package siteconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/artifacts"
	"github.com/theory-cloud/sitetheory/pkg/plan"
	"github.com/theory-cloud/sitetheory/pkg/website"
)

const distributedSite = `
stack:
  name: demo
  region: us-west-2
website:
  artifacts:
    sourceBucket: build-artifacts
    sourceKey: out.zip
    zipSubfolder: "."
    settings:
      apiEndpoint: api.example.com
  cloudfront:
    singlePageWebapp: true
    invalidationPaths: []
  route53:
    hostedZoneName: example.com
    recordName: www
`

func TestParse_DistributedWebsite(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(distributedSite))
	require.NoError(t, err)
	require.Equal(t, "demo", doc.Stack.Name)

	stack := doc.NewStack()
	require.Equal(t, "us-west-2", stack.Region)

	props, err := doc.WebsiteProps(stack)
	require.NoError(t, err)
	require.Equal(t, "build-artifacts", props.Artifacts.Location.Bucket.Name)
	require.Equal(t, artifacts.CopyModeSubfolder, props.Artifacts.Mode)
	require.True(t, props.CloudFront.SinglePageWebapp)
	require.NotNil(t, props.CloudFront.InvalidationPaths)
	require.Empty(t, props.CloudFront.InvalidationPaths)

	res, err := doc.Assemble(stack)
	require.NoError(t, err)
	require.Equal(t, website.ModeDistributed, res.Website.Mode)
	require.Equal(t, "www.example.com", res.Website.Endpoint())
	require.NotNil(t, res.Website.Invalidation)

	content, ok := res.Website.Files.Get(artifacts.SettingsFile)
	require.True(t, ok)
	require.Equal(t, `{"apiEndpoint":"api.example.com"}`, content)
}

func TestParse_CodeBuildWebapp(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(`
stack:
  name: demo
website:
  artifacts:
    codeBuild: true
  cloudfront: {}
webapp:
  api:
    restApiId: abc123
    stageName: prod
vpc:
  maxAzs: 2
  enableFlowLogs: true
`))
	require.NoError(t, err)

	stack := doc.NewStack()
	res, err := doc.Assemble(stack)
	require.NoError(t, err)
	require.NotNil(t, res.Network)
	require.NotNil(t, res.Webapp)
	require.Same(t, res.Webapp.Website, res.Website)

	require.Equal(t, artifacts.CopyModeRoot, res.Website.CopyMode)
	require.Equal(t, "/", res.Website.DestinationPath)
	require.Equal(t, 2, stack.Graph.Count(plan.TypeParameter))
	require.Equal(t, plan.Param(artifacts.CodeBuildBucketParameter), res.Website.CopyRequest.SourceBucket)
	require.Equal(t, "website/build/", res.Website.CopyRequest.ZipSubfolder)

	endpoint, ok := res.Website.Settings.Get("apiEndpoint")
	require.True(t, ok)
	require.Equal(t, "https://abc123.execute-api.${AWS::Region}.amazonaws.com/prod", endpoint)
}

func TestParse_LiteralTemplatesStayLiteral(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(`
stack:
  name: demo
website:
  artifacts:
    sourceBucket: build-artifacts
    sourceKey: out.zip
    settings:
      greeting: "hello ${name}"
    injectedArtifacts:
      - path: ./greet.js
        content: "const m = ` + "`hello ${name}`" + `;"
`))
	require.NoError(t, err)

	res, err := doc.Assemble(doc.NewStack())
	require.NoError(t, err)

	greeting, ok := res.Website.Settings.Get("greeting")
	require.True(t, ok)
	require.Empty(t, plan.References(greeting))
	require.Equal(t, "hello ${name}", plan.Unescape(greeting))

	script, ok := res.Website.Files.Get("greet.js")
	require.True(t, ok)
	require.Empty(t, plan.References(script))
	require.Equal(t, "const m = `hello ${name}`;", plan.Unescape(script))
}

func TestParse_EmptyPolicyStatementsAreKept(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(`
stack:
  name: demo
website:
  artifacts:
    sourceBucket: build-artifacts
    policyStatements: []
  cloudfront: {}
`))
	require.NoError(t, err)

	stack := doc.NewStack()
	props, err := doc.WebsiteProps(stack)
	require.NoError(t, err)
	require.NotNil(t, props.Artifacts.PolicyStatements)
	require.Empty(t, props.Artifacts.PolicyStatements)

	res, err := doc.Assemble(stack)
	require.NoError(t, err)
	require.Nil(t, res.Website.BucketPolicy)
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	cases := map[string]struct {
		doc   string
		field string
	}{
		"empty":          {doc: "", field: "document"},
		"unknown field":  {doc: "stack: {name: demo}\nwebsite: {artifacts: {sourceBucket: b}}\nbogus: 1\n", field: "document"},
		"missing name":   {doc: "website: {artifacts: {sourceBucket: b}}\n", field: "stack.name"},
		"missing source": {doc: "stack: {name: demo}\nwebsite: {artifacts: {}}\n", field: "website.artifacts.sourceBucket"},
		"bad copy mode":  {doc: "stack: {name: demo}\nwebsite: {artifacts: {sourceBucket: b, copyMode: SIDEWAYS}}\n", field: "website.artifacts.copyMode"},
		"webapp alone":   {doc: "stack: {name: demo}\nvpc: {}\nwebapp: {api: {restApiId: a, stageName: b}}\n", field: "website"},
	}
	for name, tc := range cases {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := Parse([]byte(tc.doc))
			require.True(t, sitetheory.IsConfigurationError(err), "%v", err)
			require.ErrorContains(t, err, tc.field)
		})
	}
}

func TestAssemble_PrefixesFieldPaths(t *testing.T) {
	t.Parallel()

	doc, err := Parse([]byte(`
stack: {name: demo}
website:
  artifacts:
    sourceBucket: build-artifacts
    zipSubfolder: "."
`))
	require.NoError(t, err)

	_, err = doc.Assemble(nil)
	require.True(t, sitetheory.IsConfigurationError(err))
	require.ErrorContains(t, err, "website.artifacts.zipSubfolder")

	doc, err = Parse([]byte(`
stack: {name: demo}
website:
  artifacts: {sourceBucket: build-artifacts, sourceKey: out.zip, zipSubfolder: "."}
  cloudfront: {defaultFile: /index.html}
`))
	require.NoError(t, err)
	stack := doc.NewStack()
	_, err = doc.Assemble(stack)
	require.ErrorContains(t, err, "website.cloudfront.defaultFile")
	require.Zero(t, stack.Graph.Len())
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "site.yaml")
	require.NoError(t, os.WriteFile(path, []byte(distributedSite), 0o600))

	doc, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "www", doc.Website.Route53.RecordName)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	require.False(t, sitetheory.IsConfigurationError(err))
}

func TestWithFieldPrefix(t *testing.T) {
	t.Parallel()

	var problems sitetheory.Problems
	problems.Addf("a", "first")
	problems.Addf("website.b", "second")
	problems.Add(sitetheory.DependencyResolutionError("zone", nil))

	err := withFieldPrefix(problems.Err(), "website")
	require.ErrorContains(t, err, "website.a")
	require.ErrorContains(t, err, "website.b")
	require.NotContains(t, err.Error(), "website.website.b")
	require.True(t, sitetheory.IsDependencyResolutionError(err))
}
