// Package website assembles a static website: a serving bucket filled by the artifact copy,
// optionally fronted by a CloudFront distribution and named through Route53.
package website

import (
	"github.com/theory-cloud/sitetheory/pkg/artifacts"
	"github.com/theory-cloud/sitetheory/pkg/naming"
)

const (
	DefaultIndexDocument = "index.html"
	DefaultPriceClass    = "PriceClass_100"
)

// Price classes accepted by CloudFront.
var priceClasses = map[string]bool{
	"PriceClass_100": true,
	"PriceClass_200": true,
	"PriceClass_All": true,
}

// Props configures a website. Supplying S3 selects storage-only serving, supplying CloudFront
// selects a distribution; Route53 adds DNS to either.
type Props struct {
	Artifacts  artifacts.CopyConfiguration `json:"artifacts" yaml:"artifacts"`
	Route53    *DNSConfig                  `json:"route53,omitempty" yaml:"route53,omitempty"`
	CloudFront *CloudFrontConfig           `json:"cloudfront,omitempty" yaml:"cloudfront,omitempty"`
	S3         *S3Config                   `json:"s3,omitempty" yaml:"s3,omitempty"`
}

// DNSConfig names the site inside an existing public hosted zone.
type DNSConfig struct {
	HostedZoneName string `json:"hostedZoneName" yaml:"hostedZoneName"`
	RecordName     string `json:"recordName,omitempty" yaml:"recordName,omitempty"`
	// HostedZoneID skips the lookup of the zone by name.
	HostedZoneID string `json:"hostedZoneId,omitempty" yaml:"hostedZoneId,omitempty"`
}

// FQDN is record.zone, or the zone apex without a record name.
func (d DNSConfig) FQDN() string {
	return naming.FQDN(d.RecordName, d.HostedZoneName)
}

// Behavior is one cache behavior of an origin.
type Behavior struct {
	PathPattern        string   `json:"pathPattern,omitempty" yaml:"pathPattern,omitempty"`
	IsDefaultBehavior  bool     `json:"isDefaultBehavior,omitempty" yaml:"isDefaultBehavior,omitempty"`
	AllowedMethods     []string `json:"allowedMethods,omitempty" yaml:"allowedMethods,omitempty"`
	Compress           bool     `json:"compress,omitempty" yaml:"compress,omitempty"`
	ForwardQueryString bool     `json:"forwardQueryString,omitempty" yaml:"forwardQueryString,omitempty"`
	DefaultTTLSeconds  int      `json:"defaultTtlSeconds,omitempty" yaml:"defaultTtlSeconds,omitempty"`
}

// OriginConfig is an extra origin. Without a DomainName it is served from the website
// bucket beneath the copy destination.
type OriginConfig struct {
	ID         string     `json:"id,omitempty" yaml:"id,omitempty"`
	DomainName string     `json:"domainName,omitempty" yaml:"domainName,omitempty"`
	OriginPath string     `json:"originPath,omitempty" yaml:"originPath,omitempty"`
	Behaviors  []Behavior `json:"behaviors" yaml:"behaviors"`
}

// ErrorResponse maps an origin error code to a response page.
type ErrorResponse struct {
	ErrorCode          int    `json:"errorCode" yaml:"errorCode"`
	ResponseCode       int    `json:"responseCode,omitempty" yaml:"responseCode,omitempty"`
	ResponsePagePath   string `json:"responsePagePath,omitempty" yaml:"responsePagePath,omitempty"`
	ErrorCachingMinTTL int    `json:"errorCachingMinTtl,omitempty" yaml:"errorCachingMinTtl,omitempty"`
}

type CloudFrontConfig struct {
	Behaviors  []Behavior `json:"behaviors,omitempty" yaml:"behaviors,omitempty"`
	PriceClass string     `json:"priceClass,omitempty" yaml:"priceClass,omitempty"`
	// DefaultFile is the default root object. It is an object name, never a path starting with /.
	DefaultFile string `json:"defaultFile,omitempty" yaml:"defaultFile,omitempty"`
	// InvalidationPaths are invalidated after every deployment update. Nil disables the
	// invalidation; an empty list invalidates "/*".
	InvalidationPaths   []string        `json:"invalidationPaths,omitempty" yaml:"invalidationPaths,omitempty"`
	OriginConfigs       []OriginConfig  `json:"originConfigs,omitempty" yaml:"originConfigs,omitempty"`
	ErrorConfigurations []ErrorResponse `json:"errorConfigurations,omitempty" yaml:"errorConfigurations,omitempty"`
	// SinglePageWebapp rewrites 404 to the default file with status 200.
	SinglePageWebapp bool `json:"singlePageWebapp,omitempty" yaml:"singlePageWebapp,omitempty"`
}

func (c CloudFrontConfig) defaultFile() string {
	if c.DefaultFile == "" {
		return DefaultIndexDocument
	}
	return c.DefaultFile
}

func (c CloudFrontConfig) priceClass() string {
	if c.PriceClass == "" {
		return DefaultPriceClass
	}
	return c.PriceClass
}

type S3Config struct {
	IndexDocument string `json:"indexDocument,omitempty" yaml:"indexDocument,omitempty"`
	ErrorDocument string `json:"errorDocument,omitempty" yaml:"errorDocument,omitempty"`
}

func (c *S3Config) indexDocument() string {
	if c == nil || c.IndexDocument == "" {
		return DefaultIndexDocument
	}
	return c.IndexDocument
}

func (c *S3Config) errorDocument() string {
	if c == nil {
		return ""
	}
	return c.ErrorDocument
}
