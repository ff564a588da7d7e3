package website

import (
	"fmt"

	"github.com/theory-cloud/sitetheory"
)

// Mode is the composition mode of a website, decided once from the supplied blocks.
type Mode int

const (
	// ModeStorageOnly serves the bucket directly through its website endpoint.
	ModeStorageOnly Mode = iota
	// ModeDistributed serves a private bucket through a CloudFront distribution.
	ModeDistributed
)

func (m Mode) String() string {
	switch m {
	case ModeStorageOnly:
		return "STORAGE_ONLY"
	case ModeDistributed:
		return "DISTRIBUTED"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// ResolveMode selects the composition mode. The S3 and CloudFront blocks are mutually
// exclusive; with neither block the site is storage-only. Supplying both is rejected rather
// than quietly building a storage-only site, so the CloudFront settings are never dropped.
func ResolveMode(props Props) (Mode, error) {
	switch {
	case props.S3 != nil && props.CloudFront != nil:
		return ModeStorageOnly, sitetheory.ConfigurationError("cloudfront",
			"s3 and cloudfront configuration are mutually exclusive: both blocks no longer fall back to a storage-only site; remove cloudfront to serve from the bucket website endpoint or remove s3 to serve through a distribution")
	case props.CloudFront != nil:
		return ModeDistributed, nil
	default:
		return ModeStorageOnly, nil
	}
}

// Phase is a step of a website deployment, recorded in the order it was reached.
type Phase string

const (
	PhaseConfigured            Phase = "CONFIGURED"
	PhaseStorageCreated        Phase = "STORAGE_CREATED"
	PhaseDistributionCreated   Phase = "DISTRIBUTION_CREATED"
	PhaseDNSAndCertAttached    Phase = "DNS_AND_CERT_ATTACHED"
	PhaseInvalidationTriggered Phase = "INVALIDATION_TRIGGERED"
	PhaseComplete              Phase = "COMPLETE"
)
