package sitetheorycdk

import (
	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscognito"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/webapp"
)

type ServerlessWebappProps struct {
	Api      *webapp.APIConfig      `field:"required" json:"api" yaml:"api"`
	Dns      *webapp.DNSConfig      `field:"optional" json:"dns" yaml:"dns"`
	Identity *webapp.IdentityConfig `field:"optional" json:"identity" yaml:"identity"`
	// Website configures the static site. Its Route53 is derived from Dns.
	Website *StaticWebsiteProps `field:"required" json:"website" yaml:"website"`
}

// ServerlessWebapp couples an existing REST API with a Cognito identity pool and the static
// website calling both.
type ServerlessWebapp interface {
	constructs.Construct
	Webapp() *webapp.Webapp
	Site() StaticWebsite
	IdentityPool() awscognito.CfnIdentityPool
	ApiEndpoint() *string
	Resources() *Materialized
}

type serverlessWebapp struct {
	constructs.Construct
	app       *webapp.Webapp
	site      *staticWebsite
	resources *Materialized
}

func (w *serverlessWebapp) Webapp() *webapp.Webapp   { return w.app }
func (w *serverlessWebapp) Site() StaticWebsite      { return w.site }
func (w *serverlessWebapp) Resources() *Materialized { return w.resources }

func (w *serverlessWebapp) IdentityPool() awscognito.CfnIdentityPool {
	if w.app.IdentityPool == nil {
		return nil
	}
	pool, _ := w.resources.Construct(w.app.IdentityPool.ID).(awscognito.CfnIdentityPool)
	return pool
}

func (w *serverlessWebapp) ApiEndpoint() *string {
	return w.resources.Resolve(w.app.APIEndpoint)
}

func NewServerlessWebapp(scope constructs.Construct, id *string, props *ServerlessWebappProps) (ServerlessWebapp, error) {
	if props == nil {
		return nil, sitetheory.ConfigurationError("props", "props are required")
	}
	if id == nil || *id == "" {
		return nil, sitetheory.ConfigurationError("id", "construct id is required")
	}
	if props.Api == nil {
		return nil, sitetheory.ConfigurationError("api", "api is required")
	}
	if props.Website == nil {
		return nil, sitetheory.ConfigurationError("website", "website is required")
	}

	shadow := shadowStack(scope)
	siteProps, err := websiteProps(shadow, props.Website)
	if err != nil {
		return nil, err
	}
	appProps := webapp.Props{API: *props.Api, DNS: props.Dns, Website: siteProps}
	if props.Identity != nil {
		appProps.Identity = *props.Identity
	}
	app, err := webapp.Assemble(shadow, *id, appProps)
	if err != nil {
		return nil, err
	}

	this := constructs.NewConstruct(scope, id)
	resources, err := Materialize(this, shadow, WithHandlerCode(deref(props.Website.HandlerCodePath)))
	if err != nil {
		return nil, err
	}
	w := &serverlessWebapp{
		Construct: this,
		app:       app,
		site:      &staticWebsite{Construct: this, site: app.Website, resources: resources},
		resources: resources,
	}
	awscdk.NewCfnOutput(this, jsii.String("ApiEndpoint"), &awscdk.CfnOutputProps{
		Value: w.ApiEndpoint(),
	})
	awscdk.NewCfnOutput(this, jsii.String("WebsiteEndpoint"), &awscdk.CfnOutputProps{
		Value: w.site.Endpoint(),
	})
	return w, nil
}
