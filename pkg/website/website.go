package website

import (
	"github.com/theory-cloud/sitetheory/pkg/artifacts"
	"github.com/theory-cloud/sitetheory/pkg/customresource"
	"github.com/theory-cloud/sitetheory/pkg/plan"
)

// CloudFrontHostedZoneID is the Route53 zone that owns every CloudFront distribution alias.
const CloudFrontHostedZoneID = "Z2FDTNDATAQYW2"

// S3WebsiteZoneLookup is the lookup kind resolving the Route53 zone of the S3 website
// endpoints of a region.
const S3WebsiteZoneLookup = "S3WebsiteHostedZone"

// S3WebsiteEndpointLookup is the lookup kind resolving the S3 website endpoint host of a
// region. Older regions use "s3-website-<region>", newer ones "s3-website.<region>".
const S3WebsiteEndpointLookup = "S3WebsiteEndpoint"

// Origin is a resolved distribution origin.
type Origin struct {
	ID         string     `json:"Id"`
	DomainName string     `json:"DomainName"`
	OriginPath string     `json:"OriginPath,omitempty"`
	S3         bool       `json:"S3,omitempty"`
	Behaviors  []Behavior `json:"Behaviors"`
}

// Website is the assembled result: every decision taken plus the planned resources.
type Website struct {
	ID       string
	Mode     Mode
	CopyMode artifacts.CopyMode

	// DestinationPath is where the copy lands ("/" for the bucket root).
	DestinationPath string
	OriginPath      string
	FQDN            string

	IndexDocument string
	ErrorDocument string
	DefaultFile   string
	PublicRead    bool

	Bucket               *plan.Resource
	BucketPolicy         *plan.Resource
	OriginAccessIdentity *plan.Resource
	Distribution         *plan.Resource
	Certificate          *plan.Resource
	ARecord              *plan.Resource
	AAAARecord           *plan.Resource
	Copy                 *plan.Resource
	CopierPolicy         *plan.Resource
	Invalidation         *plan.Resource
	HostedZone           *plan.Import

	Settings          artifacts.Settings
	Files             artifacts.Files
	AccessPolicy      []artifacts.PolicyStatement
	CopierStatements  []artifacts.PolicyStatement
	Origins           []Origin
	ErrorResponses    []ErrorResponse
	InvalidationPaths []string
	CopyRequest       customresource.Copy
	InvalidateRequest *customresource.Invalidation

	Phases []Phase
}

// Endpoint returns the name the site is served under: the DNS name when configured,
// otherwise the distribution or bucket website domain.
func (w *Website) Endpoint() string {
	if w == nil {
		return ""
	}
	if w.FQDN != "" {
		return w.FQDN
	}
	if w.Distribution != nil {
		return plan.GetAtt(w.Distribution.ID, "DomainName")
	}
	if w.Bucket != nil {
		return plan.GetAtt(w.Bucket.ID, "WebsiteURL")
	}
	return ""
}

// Reached reports whether the deployment passed through phase.
func (w *Website) Reached(phase Phase) bool {
	for _, p := range w.Phases {
		if p == phase {
			return true
		}
	}
	return false
}

func (w *Website) enter(phase Phase) {
	w.Phases = append(w.Phases, phase)
}
