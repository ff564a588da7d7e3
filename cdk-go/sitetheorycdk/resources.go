package sitetheorycdk

import (
	"fmt"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsapigateway"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscertificatemanager"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudfront"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscloudtrail"
	"github.com/aws/aws-cdk-go/awscdk/v2/awscognito"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsiam"
	"github.com/aws/aws-cdk-go/awscdk/v2/awslambda"
	"github.com/aws/aws-cdk-go/awscdk/v2/awsroute53"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3"
	"github.com/aws/aws-cdk-go/awscdk/v2/awss3assets"
	"github.com/aws/aws-cdk-go/awscdk/v2/regioninfo"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/plan"
	"github.com/theory-cloud/sitetheory/pkg/webapp"
	"github.com/theory-cloud/sitetheory/pkg/website"
)

// edgeRegion is where CloudFront reads certificates from.
const edgeRegion = "us-east-1"

type builder func(m *materializer, scope constructs.Construct, r *plan.Resource) constructs.IConstruct

var builders = map[plan.ResourceType]builder{
	plan.TypeParameter:                  (*materializer).parameter,
	plan.TypeBucket:                     (*materializer).bucket,
	plan.TypeBucketPolicy:               (*materializer).bucketPolicy,
	plan.TypeOriginAccessIdentity:       (*materializer).originAccessIdentity,
	plan.TypeDistribution:               (*materializer).distribution,
	plan.TypeCertificate:                (*materializer).certificate,
	plan.TypeRecordSet:                  (*materializer).recordSet,
	plan.TypeCustomResource:             (*materializer).customResource,
	plan.TypeFunction:                   (*materializer).function,
	plan.TypeRole:                       (*materializer).role,
	plan.TypePolicy:                     (*materializer).managedPolicy,
	plan.TypeAPIDomainName:              (*materializer).apiDomainName,
	plan.TypeAPIBasePathMapping:         (*materializer).basePathMapping,
	plan.TypeIdentityPool:               (*materializer).identityPool,
	plan.TypeIdentityPoolRoleAttachment: (*materializer).roleAttachment,
	plan.TypeVPC:                        (*materializer).vpc,
	plan.TypeFlowLog:                    (*materializer).flowLog,
	plan.TypeTrail:                      (*materializer).trail,
}

func (m *materializer) parameter(scope constructs.Construct, r *plan.Resource) constructs.IConstruct {
	p := awscdk.NewCfnParameter(scope, jsii.String(r.ID), &awscdk.CfnParameterProps{
		Type:        m.prop(r, "Type"),
		Description: jsii.String(r.String("Description")),
	})
	p.OverrideLogicalId(jsii.String(r.ID))
	return p
}

func (m *materializer) bucket(scope constructs.Construct, r *plan.Resource) constructs.IConstruct {
	props := &awss3.CfnBucketProps{BucketName: m.prop(r, "BucketName")}
	if site, ok := r.Properties["WebsiteConfiguration"].(map[string]any); ok {
		cfg := &awss3.CfnBucket_WebsiteConfigurationProperty{}
		if index, ok := site["IndexDocument"].(string); ok && index != "" {
			cfg.IndexDocument = jsii.String(index)
		}
		if errDoc, ok := site["ErrorDocument"].(string); ok && errDoc != "" {
			cfg.ErrorDocument = jsii.String(errDoc)
		}
		props.WebsiteConfiguration = cfg
	}
	public := r.Bool("PublicReadAccess")
	if _, blocked := r.Properties["PublicAccessBlockConfiguration"]; blocked || public {
		block := jsii.Bool(!public)
		props.PublicAccessBlockConfiguration = &awss3.CfnBucket_PublicAccessBlockConfigurationProperty{
			BlockPublicAcls:       block,
			BlockPublicPolicy:     block,
			IgnorePublicAcls:      block,
			RestrictPublicBuckets: block,
		}
	}
	b := awss3.NewCfnBucket(scope, jsii.String(r.ID), props)
	b.OverrideLogicalId(jsii.String(r.ID))
	return b
}

func (m *materializer) bucketPolicy(scope constructs.Construct, r *plan.Resource) constructs.IConstruct {
	p := awss3.NewCfnBucketPolicy(scope, jsii.String(r.ID), &awss3.CfnBucketPolicyProps{
		Bucket:         m.anyProp(r, "Bucket"),
		PolicyDocument: m.policy(r, "Statements"),
	})
	p.OverrideLogicalId(jsii.String(r.ID))
	return p
}

func (m *materializer) originAccessIdentity(scope constructs.Construct, r *plan.Resource) constructs.IConstruct {
	oai := awscloudfront.NewCfnCloudFrontOriginAccessIdentity(scope, jsii.String(r.ID), &awscloudfront.CfnCloudFrontOriginAccessIdentityProps{
		CloudFrontOriginAccessIdentityConfig: &awscloudfront.CfnCloudFrontOriginAccessIdentity_CloudFrontOriginAccessIdentityConfigProperty{
			Comment: m.prop(r, "Comment"),
		},
	})
	oai.OverrideLogicalId(jsii.String(r.ID))
	return oai
}

func (m *materializer) distribution(scope constructs.Construct, r *plan.Resource) constructs.IConstruct {
	viewerPolicy := m.prop(r, "ViewerProtocolPolicy")
	origins, _ := r.Properties["Origins"].([]website.Origin)
	oai := r.String("OriginAccessIdentity")

	cfg := &awscloudfront.CfnDistribution_DistributionConfigProperty{
		Enabled:           jsii.Bool(true),
		DefaultRootObject: m.prop(r, "DefaultRootObject"),
		Ipv6Enabled:       jsii.Bool(r.Bool("IPV6Enabled")),
		HttpVersion:       m.prop(r, "HttpVersion"),
		PriceClass:        m.prop(r, "PriceClass"),
		Aliases:           m.list(r, "Aliases"),
	}

	cfOrigins := make([]interface{}, 0, len(origins))
	var defaultBehavior *awscloudfront.CfnDistribution_DefaultCacheBehaviorProperty
	var behaviors []interface{}
	var fallback *website.Behavior
	var fallbackOrigin string
	for _, o := range origins {
		origin := &awscloudfront.CfnDistribution_OriginProperty{
			Id:         jsii.String(o.ID),
			DomainName: m.str(o.DomainName),
		}
		if o.OriginPath != "" {
			origin.OriginPath = m.str(o.OriginPath)
		}
		if o.S3 {
			origin.S3OriginConfig = &awscloudfront.CfnDistribution_S3OriginConfigProperty{
				OriginAccessIdentity: m.str("origin-access-identity/cloudfront/" + oai),
			}
		} else {
			origin.CustomOriginConfig = &awscloudfront.CfnDistribution_CustomOriginConfigProperty{
				OriginProtocolPolicy: jsii.String("https-only"),
			}
		}
		cfOrigins = append(cfOrigins, origin)

		for i := range o.Behaviors {
			b := o.Behaviors[i]
			switch {
			case b.IsDefaultBehavior && defaultBehavior == nil:
				defaultBehavior = &awscloudfront.CfnDistribution_DefaultCacheBehaviorProperty{
					TargetOriginId:       jsii.String(o.ID),
					ViewerProtocolPolicy: viewerPolicy,
					AllowedMethods:       jsii.Strings(allowedMethods(b)...),
					Compress:             jsii.Bool(b.Compress),
					ForwardedValues:      &awscloudfront.CfnDistribution_ForwardedValuesProperty{QueryString: jsii.Bool(b.ForwardQueryString)},
					DefaultTtl:           ttl(b),
				}
			case b.PathPattern != "":
				behaviors = append(behaviors, &awscloudfront.CfnDistribution_CacheBehaviorProperty{
					PathPattern:          jsii.String(b.PathPattern),
					TargetOriginId:       jsii.String(o.ID),
					ViewerProtocolPolicy: viewerPolicy,
					AllowedMethods:       jsii.Strings(allowedMethods(b)...),
					Compress:             jsii.Bool(b.Compress),
					ForwardedValues:      &awscloudfront.CfnDistribution_ForwardedValuesProperty{QueryString: jsii.Bool(b.ForwardQueryString)},
					DefaultTtl:           ttl(b),
				})
			}
			if fallback == nil {
				fallback, fallbackOrigin = &b, o.ID
			}
		}
	}
	if defaultBehavior == nil && fallback != nil {
		defaultBehavior = &awscloudfront.CfnDistribution_DefaultCacheBehaviorProperty{
			TargetOriginId:       jsii.String(fallbackOrigin),
			ViewerProtocolPolicy: viewerPolicy,
			AllowedMethods:       jsii.Strings(allowedMethods(*fallback)...),
			Compress:             jsii.Bool(fallback.Compress),
			ForwardedValues:      &awscloudfront.CfnDistribution_ForwardedValuesProperty{QueryString: jsii.Bool(fallback.ForwardQueryString)},
		}
	}
	cfg.Origins = &cfOrigins
	if defaultBehavior != nil {
		cfg.DefaultCacheBehavior = defaultBehavior
	}
	if len(behaviors) > 0 {
		cfg.CacheBehaviors = &behaviors
	}

	if responses, ok := r.Properties["CustomErrorResponses"].([]website.ErrorResponse); ok && len(responses) > 0 {
		out := make([]interface{}, 0, len(responses))
		for _, e := range responses {
			resp := &awscloudfront.CfnDistribution_CustomErrorResponseProperty{
				ErrorCode: jsii.Number(float64(e.ErrorCode)),
			}
			if e.ResponseCode != 0 {
				resp.ResponseCode = jsii.Number(float64(e.ResponseCode))
			}
			if e.ResponsePagePath != "" {
				resp.ResponsePagePath = jsii.String(e.ResponsePagePath)
			}
			if e.ErrorCachingMinTTL != 0 {
				resp.ErrorCachingMinTtl = jsii.Number(float64(e.ErrorCachingMinTTL))
			}
			out = append(out, resp)
		}
		cfg.CustomErrorResponses = &out
	}

	if cert, ok := r.Properties["ViewerCertificate"].(map[string]any); ok {
		vc := &awscloudfront.CfnDistribution_ViewerCertificateProperty{}
		if arn, ok := cert["AcmCertificateArn"].(string); ok {
			vc.AcmCertificateArn = m.str(arn)
		}
		if method, ok := cert["SslSupportMethod"].(string); ok {
			vc.SslSupportMethod = jsii.String(method)
		}
		if version, ok := cert["MinimumProtocolVersion"].(string); ok {
			vc.MinimumProtocolVersion = jsii.String(version)
		}
		cfg.ViewerCertificate = vc
	}

	d := awscloudfront.NewCfnDistribution(scope, jsii.String(r.ID), &awscloudfront.CfnDistributionProps{
		DistributionConfig: cfg,
	})
	d.OverrideLogicalId(jsii.String(r.ID))
	return d
}

func allowedMethods(b website.Behavior) []string {
	if len(b.AllowedMethods) == 0 {
		return []string{"GET", "HEAD"}
	}
	return b.AllowedMethods
}

func ttl(b website.Behavior) *float64 {
	if b.DefaultTTLSeconds <= 0 {
		return nil
	}
	return jsii.Number(float64(b.DefaultTTLSeconds))
}

// certificate realises a DNS validated certificate. A certificate pinned to a region other
// than the stack's is requested there through a DnsValidatedCertificate; its ARN replaces
// the plain Ref in every reference.
func (m *materializer) certificate(scope constructs.Construct, r *plan.Resource) constructs.IConstruct {
	region := r.String("Region")
	if region == edgeRegion && m.stackRegion() != edgeRegion {
		zone := awsroute53.HostedZone_FromHostedZoneAttributes(scope, jsii.String(r.ID+"Zone"), &awsroute53.HostedZoneAttributes{
			HostedZoneId: m.prop(r, "HostedZoneId"),
			ZoneName:     jsii.String(r.String("HostedZoneName")),
		})
		cert := awscertificatemanager.NewDnsValidatedCertificate(scope, jsii.String(r.ID), &awscertificatemanager.DnsValidatedCertificateProps{
			DomainName: m.prop(r, "DomainName"),
			HostedZone: zone,
			Region:     jsii.String(edgeRegion),
		})
		m.tokens[r.ID] = func(string) *string { return cert.CertificateArn() }
		return cert
	}

	cert := awscertificatemanager.NewCfnCertificate(scope, jsii.String(r.ID), &awscertificatemanager.CfnCertificateProps{
		DomainName:       m.prop(r, "DomainName"),
		ValidationMethod: m.prop(r, "ValidationMethod"),
		DomainValidationOptions: &[]interface{}{
			&awscertificatemanager.CfnCertificate_DomainValidationOptionProperty{
				DomainName:   m.prop(r, "DomainName"),
				HostedZoneId: m.prop(r, "HostedZoneId"),
			},
		},
	})
	cert.OverrideLogicalId(jsii.String(r.ID))
	return cert
}

// stackRegion returns the stack region, or "" when it is only known at deployment.
func (m *materializer) stackRegion() string {
	region := m.stack.Region()
	if region == nil || *awscdk.Token_IsUnresolved(region) {
		return ""
	}
	return *region
}

func (m *materializer) recordSet(scope constructs.Construct, r *plan.Resource) constructs.IConstruct {
	props := &awsroute53.CfnRecordSetProps{
		Name: m.prop(r, "Name"),
		Type: m.prop(r, "Type"),
	}
	if zone := m.prop(r, "HostedZoneId"); zone != nil {
		props.HostedZoneId = zone
	} else {
		props.HostedZoneName = m.prop(r, "HostedZoneName")
	}
	if target, ok := r.Properties["AliasTarget"].(map[string]any); ok {
		alias := &awsroute53.CfnRecordSet_AliasTargetProperty{}
		if name, ok := target["DNSName"].(string); ok {
			alias.DnsName = m.str(name)
		}
		if zone, ok := target["HostedZoneId"].(string); ok {
			alias.HostedZoneId = m.str(zone)
		}
		props.AliasTarget = alias
	}
	rec := awsroute53.NewCfnRecordSet(scope, jsii.String(r.ID), props)
	rec.OverrideLogicalId(jsii.String(r.ID))
	return rec
}

func (m *materializer) customResource(scope constructs.Construct, r *plan.Resource) constructs.IConstruct {
	props := make(map[string]interface{}, len(r.Properties))
	for k, v := range r.Properties {
		if k == "ServiceToken" {
			continue
		}
		props[k] = m.value(v)
	}
	cr := awscdk.NewCustomResource(scope, jsii.String(r.ID), &awscdk.CustomResourceProps{
		ServiceToken: m.prop(r, "ServiceToken"),
		Properties:   &props,
	})
	if cfn, ok := cr.Node().DefaultChild().(awscdk.CfnResource); ok {
		cfn.OverrideLogicalId(jsii.String(r.ID))
	}
	return cr
}

func (m *materializer) function(scope constructs.Construct, r *plan.Resource) constructs.IConstruct {
	pkg := r.String("Package")
	if pkg == "" {
		m.fail(sitetheory.ConfigurationError("package", "function %q names no handler package", r.ID))
		pkg = r.ID
	}
	code := awss3assets.NewAsset(scope, jsii.String(r.ID+"Code"), &awss3assets.AssetProps{
		Path: jsii.String(m.handlerAsset(pkg)),
	})
	fn := awslambda.NewCfnFunction(scope, jsii.String(r.ID), &awslambda.CfnFunctionProps{
		Code: &awslambda.CfnFunction_CodeProperty{
			S3Bucket: code.S3BucketName(),
			S3Key:    code.S3ObjectKey(),
		},
		Description: m.prop(r, "Description"),
		Handler:     m.prop(r, "Handler"),
		Runtime:     m.prop(r, "Runtime"),
		Role:        m.anyProp(r, "Role"),
		Timeout:     number(r, "Timeout"),
		MemorySize:  number(r, "MemorySize"),
	})
	fn.OverrideLogicalId(jsii.String(r.ID))
	return fn
}

func (m *materializer) role(scope constructs.Construct, r *plan.Resource) constructs.IConstruct {
	props := &awsiam.CfnRoleProps{
		AssumeRolePolicyDocument: m.policy(r, "AssumeRolePolicy"),
		ManagedPolicyArns:        m.listAny(r, "ManagedPolicyArns"),
	}
	if inline := m.policy(r, "Policies"); inline != nil {
		props.Policies = &[]interface{}{
			&awsiam.CfnRole_PolicyProperty{
				PolicyName:     jsii.String(r.ID + "Policy"),
				PolicyDocument: inline,
			},
		}
	}
	role := awsiam.NewCfnRole(scope, jsii.String(r.ID), props)
	role.OverrideLogicalId(jsii.String(r.ID))
	return role
}

func (m *materializer) managedPolicy(scope constructs.Construct, r *plan.Resource) constructs.IConstruct {
	p := awsiam.NewCfnPolicy(scope, jsii.String(r.ID), &awsiam.CfnPolicyProps{
		PolicyName:     m.prop(r, "PolicyName"),
		PolicyDocument: m.policy(r, "Statements"),
		Roles:          m.list(r, "Roles"),
	})
	p.OverrideLogicalId(jsii.String(r.ID))
	return p
}

func (m *materializer) apiDomainName(scope constructs.Construct, r *plan.Resource) constructs.IConstruct {
	props := &awsapigateway.CfnDomainNameProps{
		DomainName:             m.prop(r, "DomainName"),
		CertificateArn:         m.prop(r, "CertificateArn"),
		RegionalCertificateArn: m.prop(r, "RegionalCertificateArn"),
	}
	if endpoint, ok := r.Properties["EndpointConfiguration"].(map[string]any); ok {
		if types, ok := endpoint["Types"].([]string); ok {
			props.EndpointConfiguration = &awsapigateway.CfnDomainName_EndpointConfigurationProperty{
				Types: jsii.Strings(types...),
			}
		}
	}
	d := awsapigateway.NewCfnDomainName(scope, jsii.String(r.ID), props)
	d.OverrideLogicalId(jsii.String(r.ID))
	return d
}

func (m *materializer) basePathMapping(scope constructs.Construct, r *plan.Resource) constructs.IConstruct {
	bp := awsapigateway.NewCfnBasePathMapping(scope, jsii.String(r.ID), &awsapigateway.CfnBasePathMappingProps{
		DomainName: m.anyProp(r, "DomainName"),
		RestApiId:  m.anyProp(r, "RestApiId"),
		Stage:      m.anyProp(r, "Stage"),
		BasePath:   m.prop(r, "BasePath"),
	})
	bp.OverrideLogicalId(jsii.String(r.ID))
	return bp
}

func (m *materializer) identityPool(scope constructs.Construct, r *plan.Resource) constructs.IConstruct {
	props := &awscognito.CfnIdentityPoolProps{
		AllowUnauthenticatedIdentities: jsii.Bool(r.Bool("AllowUnauthenticatedIdentities")),
		IdentityPoolName:               m.prop(r, "IdentityPoolName"),
	}
	if logins, ok := r.Properties["SupportedLoginProviders"].(map[string]string); ok && len(logins) > 0 {
		props.SupportedLoginProviders = m.value(logins)
	}
	if providers, ok := r.Properties["CognitoIdentityProviders"].([]webapp.CognitoProvider); ok && len(providers) > 0 {
		out := make([]interface{}, 0, len(providers))
		for _, p := range providers {
			out = append(out, &awscognito.CfnIdentityPool_CognitoIdentityProviderProperty{
				ClientId:             m.str(p.ClientID),
				ProviderName:         m.str(p.ProviderName),
				ServerSideTokenCheck: jsii.Bool(p.ServerSideTokenCheck),
			})
		}
		props.CognitoIdentityProviders = &out
	}
	pool := awscognito.NewCfnIdentityPool(scope, jsii.String(r.ID), props)
	pool.OverrideLogicalId(jsii.String(r.ID))
	return pool
}

func (m *materializer) roleAttachment(scope constructs.Construct, r *plan.Resource) constructs.IConstruct {
	a := awscognito.NewCfnIdentityPoolRoleAttachment(scope, jsii.String(r.ID), &awscognito.CfnIdentityPoolRoleAttachmentProps{
		IdentityPoolId: m.anyProp(r, "IdentityPoolId"),
		Roles:          m.value(r.Properties["Roles"]),
	})
	a.OverrideLogicalId(jsii.String(r.ID))
	return a
}

// vpc uses the L2 Vpc so subnets, routes and gateways follow the AZ limit. Its VPC keeps the
// plan id as logical id.
func (m *materializer) vpc(scope constructs.Construct, r *plan.Resource) constructs.IConstruct {
	props := &awsec2.VpcProps{
		IpAddresses:            awsec2.IpAddresses_Cidr(jsii.String(r.String("CidrBlock"))),
		EnableDnsHostnames:     jsii.Bool(r.Bool("EnableDnsHostnames")),
		EnableDnsSupport:       jsii.Bool(r.Bool("EnableDnsSupport")),
		DefaultInstanceTenancy: awsec2.DefaultInstanceTenancy_DEFAULT,
		MaxAzs:                 number(r, "MaxAZs"),
	}
	if r.String("InstanceTenancy") == "dedicated" {
		props.DefaultInstanceTenancy = awsec2.DefaultInstanceTenancy_DEDICATED
	}
	vpc := awsec2.NewVpc(scope, jsii.String(r.ID), props)
	if cfn, ok := vpc.Node().DefaultChild().(awscdk.CfnResource); ok {
		cfn.OverrideLogicalId(jsii.String(r.ID))
	}
	return vpc
}

func (m *materializer) flowLog(scope constructs.Construct, r *plan.Resource) constructs.IConstruct {
	fl := awsec2.NewCfnFlowLog(scope, jsii.String(r.ID), &awsec2.CfnFlowLogProps{
		ResourceId:               m.anyProp(r, "ResourceId"),
		ResourceType:             m.prop(r, "ResourceType"),
		TrafficType:              m.prop(r, "TrafficType"),
		LogGroupName:             m.anyProp(r, "LogGroupName"),
		DeliverLogsPermissionArn: m.anyProp(r, "DeliverLogsPermissionArn"),
	})
	fl.OverrideLogicalId(jsii.String(r.ID))
	return fl
}

func (m *materializer) trail(scope constructs.Construct, r *plan.Resource) constructs.IConstruct {
	t := awscloudtrail.NewCfnTrail(scope, jsii.String(r.ID), &awscloudtrail.CfnTrailProps{
		IsLogging:                  jsii.Bool(r.Bool("IsLogging")),
		S3BucketName:               m.anyProp(r, "S3BucketName"),
		IncludeGlobalServiceEvents: jsii.Bool(r.Bool("IncludeGlobalServiceEvents")),
		IsMultiRegionTrail:         jsii.Bool(r.Bool("IsMultiRegionTrail")),
		EnableLogFileValidation:    jsii.Bool(r.Bool("EnableLogFileValidation")),
	})
	t.OverrideLogicalId(jsii.String(r.ID))
	return t
}

// lookup resolves an external resource the plan left to the provisioning engine.
func (m *materializer) lookup(kind, name string) *string {
	key := kind + ":" + name
	if v, ok := m.lookups[key]; ok {
		return v
	}

	var v *string
	switch kind {
	case string(plan.TypeHostedZone):
		zone := awsroute53.HostedZone_FromLookup(m.scope, jsii.String("Lookup"+plan.LogicalID(name)), &awsroute53.HostedZoneProviderProps{
			DomainName: jsii.String(name),
		})
		v = zone.HostedZoneId()
	case website.S3WebsiteZoneLookup:
		// The name is the stack region; the fact table covers pinned and deferred regions.
		v = m.stack.RegionalFact(regioninfo.FactName_S3_STATIC_WEBSITE_ZONE_53_HOSTED_ZONE_ID(), nil)
	case website.S3WebsiteEndpointLookup:
		v = m.stack.RegionalFact(regioninfo.FactName_S3_STATIC_WEBSITE_ENDPOINT(), nil)
	default:
		m.fail(sitetheory.DependencyResolutionError(key, fmt.Errorf("unknown lookup kind %q", kind)))
		v = jsii.String("")
	}
	m.lookups[key] = v
	return v
}
