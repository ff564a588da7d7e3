package sitetheorycdk

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/siteconfig"
)

// SynthOptions controls where Synth writes the cloud assembly.
type SynthOptions struct {
	OutDir          string
	HandlerCodePath string
}

// Synth assembles doc into a single CDK stack and synthesizes it. It returns the cloud
// assembly directory.
func Synth(doc *siteconfig.Document, opts SynthOptions) (dir string, err error) {
	if doc == nil {
		return "", sitetheory.ConfigurationError("document", "site configuration is required")
	}
	if err := doc.Validate(); err != nil {
		return "", err
	}

	// jsii reports construct errors (missing environment for lookups, invalid props) as panics.
	defer func() {
		if r := recover(); r != nil {
			err = sitetheory.ProvisioningFailure("synth", fmt.Errorf("%v", r))
		}
	}()

	appProps := &awscdk.AppProps{}
	if opts.OutDir != "" {
		appProps.Outdir = jsii.String(opts.OutDir)
	}
	app := awscdk.NewApp(appProps)

	stackProps := &awscdk.StackProps{StackName: jsii.String(doc.Stack.Name)}
	if doc.Stack.Region != "" || doc.Stack.Account != "" {
		env := &awscdk.Environment{}
		if doc.Stack.Region != "" {
			env.Region = jsii.String(doc.Stack.Region)
		}
		if doc.Stack.Account != "" {
			env.Account = jsii.String(doc.Stack.Account)
		}
		stackProps.Env = env
	}
	stack := awscdk.NewStack(app, jsii.String(doc.Stack.Name), stackProps)

	result, err := doc.Assemble(nil)
	if err != nil {
		return "", err
	}
	resources, err := Materialize(stack, result.Stack, WithHandlerCode(opts.HandlerCodePath))
	if err != nil {
		return "", err
	}
	if result.Website != nil {
		awscdk.NewCfnOutput(stack, jsii.String("WebsiteEndpoint"), &awscdk.CfnOutputProps{
			Value: resources.Resolve(result.Website.Endpoint()),
		})
	}
	if result.Webapp != nil {
		awscdk.NewCfnOutput(stack, jsii.String("ApiEndpoint"), &awscdk.CfnOutputProps{
			Value: resources.Resolve(result.Webapp.APIEndpoint),
		})
	}

	assembly := app.Synth(nil)
	return *assembly.Directory(), nil
}
