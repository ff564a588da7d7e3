package website

import (
	"fmt"
	"path"
	"strings"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/artifacts"
	"github.com/theory-cloud/sitetheory/pkg/customresource"
	"github.com/theory-cloud/sitetheory/pkg/logger"
	"github.com/theory-cloud/sitetheory/pkg/naming"
	"github.com/theory-cloud/sitetheory/pkg/observability"
	"github.com/theory-cloud/sitetheory/pkg/plan"
)

type assembler struct {
	stack *plan.Stack
	batch *plan.Batch
	id    string
	props Props
	site  *Website
}

// Assemble validates props and adds the website's resources to stack. Every configuration
// and lookup error is reported before the first resource is added.
func Assemble(stack *plan.Stack, id string, props Props) (*Website, error) {
	if stack == nil {
		return nil, sitetheory.ConfigurationError("stack", "stack is required")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, sitetheory.ConfigurationError("id", "construct id is required")
	}

	mode, err := ResolveMode(props)
	if err != nil {
		return nil, err
	}
	if err := validate(props, mode); err != nil {
		return nil, err
	}

	a := &assembler{
		stack: stack,
		batch: stack.Batch(),
		id:    id,
		props: props,
		site:  &Website{ID: id, Mode: mode},
	}
	if err := a.configure(); err != nil {
		return nil, err
	}

	a.storage()
	a.copy()
	a.site.enter(PhaseStorageCreated)

	if mode == ModeDistributed {
		a.distribution()
		a.site.enter(PhaseDistributionCreated)
		if a.props.Route53 != nil {
			a.site.enter(PhaseDNSAndCertAttached)
		}
		if a.props.CloudFront.InvalidationPaths != nil {
			a.invalidation()
			a.site.enter(PhaseInvalidationTriggered)
		}
	} else if a.props.Route53 != nil {
		a.websiteRecord()
	}
	a.bucketPolicy()

	if err := a.batch.Commit(); err != nil {
		return nil, err
	}
	a.site.enter(PhaseComplete)

	for _, phase := range a.site.Phases {
		a.log("debug", "website.phase", map[string]any{"phase": string(phase)})
	}
	a.log("info", "website.assembled", map[string]any{
		"mode":        mode.String(),
		"copy_mode":   a.site.CopyMode.String(),
		"destination": a.site.DestinationPath,
		"settings":    logger.SanitizeSettings(a.site.Settings.Map()),
		"files":       a.site.Files.Paths(),
	})
	return a.site, nil
}

func (a *assembler) log(level, event string, fields map[string]any) {
	observability.LogEvent(logger.Logger(), observability.Event{
		Level:      level,
		Name:       event,
		StackID:    a.stack.Name,
		ResourceID: a.id,
		Fields:     fields,
	})
}

func (a *assembler) resourceID(parts ...string) string {
	return plan.LogicalID(append([]string{a.id}, parts...)...)
}

// configure takes every decision that needs no resource: placement, settings, files, and
// the hosted zone lookup.
func (a *assembler) configure() error {
	site := a.site
	cfg := a.props.Artifacts

	site.CopyMode = cfg.Mode
	if site.Mode == ModeStorageOnly && cfg.Mode != artifacts.CopyModeRoot {
		// A website endpoint serves the bucket root; there is no origin path to point at a subfolder.
		site.CopyMode = artifacts.CopyModeRoot
		a.log("debug", "website.copy_mode_forced", map[string]any{"requested": cfg.Mode.String()})
	}
	site.DestinationPath = artifacts.ResolveDestination(site.CopyMode, a.stack.Identity(a.id))
	site.OriginPath = artifacts.OriginPath(site.DestinationPath)

	site.Settings = artifacts.NewSettingsBuilder(cfg.Settings).Finalize()
	files, err := artifacts.InjectedFiles(cfg, site.Settings)
	if err != nil {
		return err
	}
	site.Files = files

	if dns := a.props.Route53; dns != nil {
		site.FQDN = dns.FQDN()
		zone := strings.Trim(dns.HostedZoneName, ".")
		if dns.HostedZoneID != "" {
			site.HostedZone = a.stack.Registry.Register(string(plan.TypeHostedZone), zone, dns.HostedZoneID)
		} else {
			imp, err := a.stack.Registry.Import(string(plan.TypeHostedZone), zone)
			if err != nil {
				return err
			}
			site.HostedZone = imp
		}
	}

	site.enter(PhaseConfigured)
	return nil
}

func (a *assembler) storage() {
	site := a.site
	props := map[string]any{}

	if site.Mode == ModeStorageOnly {
		site.IndexDocument = a.props.S3.indexDocument()
		site.ErrorDocument = a.props.S3.errorDocument()
		site.PublicRead = true
		website := map[string]any{"IndexDocument": site.IndexDocument}
		if site.ErrorDocument != "" {
			website["ErrorDocument"] = site.ErrorDocument
		}
		props["WebsiteConfiguration"] = website
		props["PublicReadAccess"] = true
		if site.FQDN != "" {
			// Website endpoints only answer for a bucket named after the host.
			props["BucketName"] = site.FQDN
		}
	} else {
		props["PublicAccessBlockConfiguration"] = map[string]any{
			"BlockPublicAcls":       true,
			"BlockPublicPolicy":     true,
			"IgnorePublicAcls":      true,
			"RestrictPublicBuckets": true,
		}
	}
	site.Bucket = a.batch.Add(plan.NewResource(a.resourceID("Bucket"), plan.TypeBucket, props))
}

func (a *assembler) bucketARN() string {
	return plan.GetAtt(a.site.Bucket.ID, "Arn")
}

func (a *assembler) copy() {
	site := a.site
	cfg := a.props.Artifacts
	fnID, roleID := sharedFunction(a.batch, CopierFunction, "Copies website artifacts into their serving bucket", nil)

	site.CopierStatements = copierStatements(cfg.Location.Bucket, a.bucketARN())
	site.CopierPolicy = a.batch.Add(plan.NewResource(a.resourceID("Copier", "Policy"), plan.TypePolicy, map[string]any{
		"PolicyName": a.resourceID("Copier", "Policy"),
		"Roles":      []string{plan.Ref(roleID)},
		"Statements": site.CopierStatements,
	}), site.Bucket.ID, roleID)

	loc := cfg.Location
	req := customresource.Copy{
		ServiceToken:      plan.GetAtt(fnID, "Arn"),
		SourceBucket:      loc.Bucket.Name,
		SourceKey:         loc.Key,
		ZipSubfolder:      loc.ZipSubfolder,
		DestinationBucket: plan.Ref(site.Bucket.ID),
		DestinationPrefix: artifacts.ObjectPrefix(site.DestinationPath),
		Files:             site.Files,
	}
	req.Digest = naming.ShortHash(strings.Join([]string{
		site.Files.Digest(), loc.Bucket.Name, loc.Key, loc.ZipSubfolder, req.DestinationPrefix,
	}, "|"), 0)
	site.CopyRequest = req

	props, _ := customresource.Map(req)
	site.Copy = a.batch.Add(plan.NewResource(a.resourceID("Copy"), plan.TypeCustomResource, props),
		site.Bucket.ID, site.CopierPolicy.ID, fnID)
}

func (a *assembler) distribution() {
	site := a.site
	cf := *a.props.CloudFront
	site.DefaultFile = cf.defaultFile()

	site.OriginAccessIdentity = a.batch.Add(plan.NewResource(a.resourceID("OAI"), plan.TypeOriginAccessIdentity, map[string]any{
		"Comment": "Access to " + a.stack.Identity(a.id),
	}))
	oaiID := plan.Ref(site.OriginAccessIdentity.ID)
	bucketDomain := plan.GetAtt(site.Bucket.ID, "RegionalDomainName")

	for i, extra := range cf.OriginConfigs {
		origin := Origin{
			ID:         extra.ID,
			DomainName: extra.DomainName,
			OriginPath: extra.OriginPath,
			Behaviors:  extra.Behaviors,
		}
		if origin.ID == "" {
			origin.ID = fmt.Sprintf("origin%d", i+1)
		}
		if origin.DomainName == "" {
			origin.S3 = true
			origin.DomainName = bucketDomain
			origin.OriginPath = artifacts.OriginPath(path.Join(site.DestinationPath, extra.OriginPath))
		}
		site.Origins = append(site.Origins, origin)
	}

	behaviors := cf.Behaviors
	if len(behaviors) == 0 {
		behaviors = []Behavior{{
			IsDefaultBehavior: true,
			AllowedMethods:    []string{"GET", "HEAD", "OPTIONS"},
			Compress:          true,
		}}
	}
	site.Origins = append(site.Origins, Origin{
		ID:         "website",
		DomainName: bucketDomain,
		OriginPath: site.OriginPath,
		S3:         true,
		Behaviors:  behaviors,
	})

	site.ErrorResponses = append(site.ErrorResponses, cf.ErrorConfigurations...)
	if cf.SinglePageWebapp {
		site.ErrorResponses = append(site.ErrorResponses, ErrorResponse{
			ErrorCode:        404,
			ResponseCode:     200,
			ResponsePagePath: "/" + site.DefaultFile,
		})
	}

	props := map[string]any{
		"Enabled":              true,
		"DefaultRootObject":    site.DefaultFile,
		"IPV6Enabled":          true,
		"HttpVersion":          "http2",
		"ViewerProtocolPolicy": "redirect-to-https",
		"PriceClass":           cf.priceClass(),
		"OriginAccessIdentity": oaiID,
		"Origins":              site.Origins,
		"CustomErrorResponses": site.ErrorResponses,
	}
	deps := []string{site.Bucket.ID, site.OriginAccessIdentity.ID}

	if dns := a.props.Route53; dns != nil {
		site.Certificate = a.batch.Add(plan.NewResource(a.resourceID("Certificate"), plan.TypeCertificate, map[string]any{
			"DomainName":       site.FQDN,
			"ValidationMethod": "DNS",
			// CloudFront only accepts certificates from us-east-1.
			"Region":         "us-east-1",
			"HostedZoneId":   site.HostedZone.PhysicalID,
			"HostedZoneName": site.HostedZone.Name,
		}))
		props["Aliases"] = []string{site.FQDN}
		props["ViewerCertificate"] = map[string]any{
			"AcmCertificateArn":      plan.Ref(site.Certificate.ID),
			"SslSupportMethod":       "sni-only",
			"MinimumProtocolVersion": "TLSv1.2_2021",
		}
		deps = append(deps, site.Certificate.ID)
	}

	site.Distribution = a.batch.Add(plan.NewResource(a.resourceID("Distribution"), plan.TypeDistribution, props), deps...)

	if a.props.Route53 != nil {
		target := map[string]any{
			"DNSName":      plan.GetAtt(site.Distribution.ID, "DomainName"),
			"HostedZoneId": CloudFrontHostedZoneID,
		}
		site.ARecord = a.record("A", target, site.Distribution.ID)
		site.AAAARecord = a.record("AAAA", target, site.Distribution.ID)
	}
}

func (a *assembler) websiteRecord() {
	region := a.stack.RegionRef()
	target := map[string]any{
		"DNSName":      plan.Lookup(S3WebsiteEndpointLookup, region),
		"HostedZoneId": plan.Lookup(S3WebsiteZoneLookup, region),
	}
	a.site.ARecord = a.record("A", target, a.site.Bucket.ID)
}

func (a *assembler) record(recordType string, target map[string]any, dependsOn string) *plan.Resource {
	dns := a.props.Route53
	return a.batch.Add(plan.NewResource(a.resourceID("Record", recordType), plan.TypeRecordSet, map[string]any{
		"Name":           a.site.FQDN,
		"Type":           recordType,
		"HostedZoneName": naming.ZoneName(dns.HostedZoneName),
		"HostedZoneId":   a.site.HostedZone.PhysicalID,
		"AliasTarget":    target,
	}), dependsOn)
}

func (a *assembler) invalidation() {
	site := a.site
	fnID, _ := sharedFunction(a.batch, InvalidatorFunction, "Invalidates CloudFront caches after a website update",
		[]artifacts.PolicyStatement{{
			Effect:    artifacts.EffectAllow,
			Actions:   []string{"cloudfront:CreateInvalidation"},
			Resources: []string{"*"},
		}})

	site.InvalidationPaths = append([]string{}, a.props.CloudFront.InvalidationPaths...)
	req := customresource.Invalidation{
		ServiceToken:      plan.GetAtt(fnID, "Arn"),
		DistributionID:    plan.Ref(site.Distribution.ID),
		InvalidationPaths: customresource.JoinPaths(site.InvalidationPaths),
		CopyDigest:        site.CopyRequest.Digest,
		SourceKey:         site.CopyRequest.SourceKey,
	}
	site.InvalidateRequest = &req

	props, _ := customresource.Map(req)
	site.Invalidation = a.batch.Add(plan.NewResource(a.resourceID("Invalidation"), plan.TypeCustomResource, props),
		site.Copy.ID, site.Distribution.ID, fnID)
}

func (a *assembler) bucketPolicy() {
	site := a.site
	oai := ""
	deps := []string{site.Bucket.ID}
	if site.OriginAccessIdentity != nil {
		oai = plan.GetAtt(site.OriginAccessIdentity.ID, "S3CanonicalUserId")
		deps = append(deps, site.OriginAccessIdentity.ID)
	}
	site.AccessPolicy = derivePolicy(a.props.Artifacts, a.bucketARN(), oai)

	statements := make([]artifacts.PolicyStatement, 0, len(site.AccessPolicy)+1)
	if site.PublicRead {
		statements = append(statements, publicRead(a.bucketARN()))
	}
	statements = append(statements, site.AccessPolicy...)
	if len(statements) == 0 {
		return
	}

	site.BucketPolicy = a.batch.Add(plan.NewResource(a.resourceID("Bucket", "Policy"), plan.TypeBucketPolicy, map[string]any{
		"Bucket":     plan.Ref(site.Bucket.ID),
		"Statements": statements,
	}), deps...)
}
