package webapp

import (
	"strings"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/artifacts"
	"github.com/theory-cloud/sitetheory/pkg/logger"
	"github.com/theory-cloud/sitetheory/pkg/naming"
	"github.com/theory-cloud/sitetheory/pkg/observability"
	"github.com/theory-cloud/sitetheory/pkg/plan"
	"github.com/theory-cloud/sitetheory/pkg/website"
)

const (
	cognitoIdentity = "cognito-identity.amazonaws.com"
	// settingsContributor names the webapp in the settings contribution log.
	settingsContributor = "webapp"
)

// executeAPITemplate is the default invoke URL of a REST API stage, in Fn::Sub syntax.
const executeAPITemplate = "https://${API_ID}.execute-api.${AWS::Region}.amazonaws.com/${STAGE}"

// Webapp is the assembled application.
type Webapp struct {
	ID           string
	APIID        string
	Stage        string
	APIEndpoint  string
	EndpointType EndpointType

	Certificate       *plan.Resource
	DomainName        *plan.Resource
	BasePathMapping   *plan.Resource
	ARecord           *plan.Resource
	AAAARecord        *plan.Resource
	IdentityPool      *plan.Resource
	AuthenticatedRole *plan.Resource
	RoleAttachment    *plan.Resource
	HostedZone        *plan.Import

	Settings      artifacts.Settings
	Contributions []artifacts.Contribution
	Website       *website.Website
}

// Assemble adds the application to stack. The settings it contributes (apiEndpoint,
// cognitoPoolId, region) are merged over the caller's website settings before the website is
// assembled, so settings.json carries them.
func Assemble(stack *plan.Stack, id string, props Props) (*Webapp, error) {
	if stack == nil {
		return nil, sitetheory.ConfigurationError("stack", "stack is required")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, sitetheory.ConfigurationError("id", "construct id is required")
	}
	if err := props.validate(); err != nil {
		return nil, err
	}

	app := &Webapp{
		ID:    id,
		APIID: props.API.RestAPIID,
		Stage: props.API.StageName,
	}
	b := stack.Batch()

	if dns := props.DNS; dns != nil {
		zone := strings.Trim(dns.HostedZoneName, ".")
		if dns.HostedZoneID != "" {
			app.HostedZone = stack.Registry.Register(string(plan.TypeHostedZone), zone, dns.HostedZoneID)
		} else {
			imp, err := stack.Registry.Import(string(plan.TypeHostedZone), zone)
			if err != nil {
				return nil, err
			}
			app.HostedZone = imp
		}
		app.customDomain(stack, b, *dns)
	} else {
		app.APIEndpoint = executeAPIEndpoint(app.APIID, app.Stage, stack.RegionRef())
	}

	app.identity(stack, b, props.Identity)

	builder := artifacts.NewSettingsBuilder(props.Website.Artifacts.Settings).
		Merge(settingsContributor, map[string]string{
			"apiEndpoint":   app.APIEndpoint,
			"cognitoPoolId": plan.Ref(app.IdentityPool.ID),
			"region":        stack.RegionRef(),
		})
	app.Settings = builder.Finalize()
	app.Contributions = builder.Contributions()

	siteProps := props.Website
	siteProps.Artifacts = siteProps.Artifacts.WithSettings(app.Settings.Map())
	if dns := props.DNS; dns != nil {
		siteProps.Route53 = &website.DNSConfig{
			HostedZoneName: dns.HostedZoneName,
			RecordName:     dns.WebsiteRecordName,
			HostedZoneID:   dns.HostedZoneID,
		}
	}

	// The website commits on its own; a reused id fails there before anything of the
	// application is added.
	site, err := website.Assemble(stack, plan.LogicalID(id, "Website"), siteProps)
	if err != nil {
		return nil, err
	}
	app.Website = site
	if err := b.Commit(); err != nil {
		return nil, err
	}

	for _, c := range app.Contributions {
		observability.LogEvent(logger.Logger(), observability.Event{
			Level:      "debug",
			Name:       "webapp.settings_contribution",
			StackID:    stack.Name,
			ResourceID: id,
			Fields: map[string]any{
				"contributor": c.Contributor,
				"key":         c.Key,
				"overrides":   c.Overrides,
			},
		})
	}
	observability.LogEvent(logger.Logger(), observability.Event{
		Level:      "info",
		Name:       "webapp.assembled",
		StackID:    stack.Name,
		ResourceID: id,
		Fields: map[string]any{
			"api_endpoint":  app.APIEndpoint,
			"endpoint_type": string(app.EndpointType),
		},
	})
	return app, nil
}

// executeAPIEndpoint substitutes the API id and stage into the invoke URL and leaves the region
// to the provisioning engine unless the stack pins it.
func executeAPIEndpoint(apiID, stage, region string) string {
	return strings.NewReplacer(
		"${API_ID}", apiID,
		"${STAGE}", stage,
		plan.Ref(plan.PseudoRegion), region,
	).Replace(executeAPITemplate)
}

func (app *Webapp) customDomain(stack *plan.Stack, b *plan.Batch, dns DNSConfig) {
	app.EndpointType = dns.endpointType()
	app.APIEndpoint = naming.FQDN(dns.apiRecordName(), dns.HostedZoneName)

	region := stack.RegionRef()
	if app.EndpointType == EndpointEdge {
		// Edge endpoints are served through CloudFront, which reads certificates from us-east-1.
		region = "us-east-1"
	}
	app.Certificate = b.Add(plan.NewResource(plan.LogicalID(app.ID, "APICert", string(app.EndpointType)), plan.TypeCertificate, map[string]any{
		"DomainName":       app.APIEndpoint,
		"ValidationMethod": "DNS",
		"Region":           region,
		"HostedZoneId":     app.HostedZone.PhysicalID,
		"HostedZoneName":   app.HostedZone.Name,
	}))

	domain := map[string]any{
		"DomainName":            app.APIEndpoint,
		"EndpointConfiguration": map[string]any{"Types": []string{string(app.EndpointType)}},
	}
	distName, distZone := "RegionalDomainName", "RegionalHostedZoneId"
	if app.EndpointType == EndpointEdge {
		domain["CertificateArn"] = plan.Ref(app.Certificate.ID)
		distName, distZone = "DistributionDomainName", "DistributionHostedZoneId"
	} else {
		domain["RegionalCertificateArn"] = plan.Ref(app.Certificate.ID)
	}
	app.DomainName = b.Add(plan.NewResource(plan.LogicalID(app.ID, "APIGDNS"), plan.TypeAPIDomainName, domain), app.Certificate.ID)

	app.BasePathMapping = b.Add(plan.NewResource(plan.LogicalID(app.ID, "APIGMapping"), plan.TypeAPIBasePathMapping, map[string]any{
		"BasePath":   "",
		"Stage":      app.Stage,
		"DomainName": plan.Ref(app.DomainName.ID),
		"RestApiId":  app.APIID,
	}), app.DomainName.ID)

	target := map[string]any{
		"DNSName":      plan.GetAtt(app.DomainName.ID, distName),
		"HostedZoneId": plan.GetAtt(app.DomainName.ID, distZone),
	}
	record := func(recordType string) *plan.Resource {
		return b.Add(plan.NewResource(plan.LogicalID(app.ID, "APIGRecord", recordType), plan.TypeRecordSet, map[string]any{
			"Name":           app.APIEndpoint,
			"Type":           recordType,
			"HostedZoneName": naming.ZoneName(dns.HostedZoneName),
			"HostedZoneId":   app.HostedZone.PhysicalID,
			"AliasTarget":    target,
		}), app.DomainName.ID)
	}
	app.ARecord = record("A")
	app.AAAARecord = record("AAAA")
}

func (app *Webapp) identity(stack *plan.Stack, b *plan.Batch, cfg IdentityConfig) {
	pool := map[string]any{
		"AllowUnauthenticatedIdentities": cfg.AllowUnauthenticated,
	}
	if cfg.IdentityPoolName != "" {
		pool["IdentityPoolName"] = cfg.IdentityPoolName
	}
	if len(cfg.SupportedLoginProviders) > 0 {
		pool["SupportedLoginProviders"] = cfg.SupportedLoginProviders
	}
	if len(cfg.CognitoProviders) > 0 {
		pool["CognitoIdentityProviders"] = cfg.CognitoProviders
	}
	app.IdentityPool = b.Add(plan.NewResource(plan.LogicalID(app.ID, "IdentityPool"), plan.TypeIdentityPool, pool))
	poolRef := plan.Ref(app.IdentityPool.ID)

	app.AuthenticatedRole = b.Add(plan.NewResource(plan.LogicalID(app.ID, "AuthedRole"), plan.TypeRole, map[string]any{
		"AssumeRolePolicy": []artifacts.PolicyStatement{{
			Effect:     artifacts.EffectAllow,
			Actions:    []string{"sts:AssumeRoleWithWebIdentity"},
			Principals: []artifacts.Principal{{Type: artifacts.PrincipalFederated, ID: cognitoIdentity}},
			Conditions: map[string]map[string]string{
				"StringEquals":           {cognitoIdentity + ":aud": poolRef},
				"ForAnyValue:StringLike": {cognitoIdentity + ":amr": "authenticated"},
			},
		}},
		"Policies": []artifacts.PolicyStatement{{
			Effect:    artifacts.EffectAllow,
			Actions:   []string{"execute-api:Invoke"},
			Resources: []string{invokeARN(stack, app.APIID, app.Stage)},
		}},
	}), app.IdentityPool.ID)

	app.RoleAttachment = b.Add(plan.NewResource(plan.LogicalID(app.ID, "RoleAttachment"), plan.TypeIdentityPoolRoleAttachment, map[string]any{
		"IdentityPoolId": poolRef,
		"Roles":          map[string]string{"authenticated": plan.GetAtt(app.AuthenticatedRole.ID, "Arn")},
	}), app.IdentityPool.ID, app.AuthenticatedRole.ID)
}

func invokeARN(stack *plan.Stack, apiID, stage string) string {
	return "arn:" + plan.Ref(plan.PseudoPartition) + ":execute-api:" + stack.RegionRef() + ":" +
		stack.AccountRef() + ":" + apiID + "/" + stage + "/*"
}
