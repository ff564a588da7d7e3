// Package webapp assembles a serverless web application: an API Gateway custom domain, a
// Cognito identity pool allowed to invoke the API, and the static website that talks to both.
package webapp

import (
	"strings"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/website"
)

const DefaultAPIRecordName = "api"

// EndpointType is the API Gateway endpoint configuration of the custom domain.
type EndpointType string

const (
	EndpointRegional EndpointType = "REGIONAL"
	EndpointEdge     EndpointType = "EDGE"
)

// ParseEndpointType reads an endpoint type case-insensitively. Empty selects REGIONAL.
func ParseEndpointType(value string) (EndpointType, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "", string(EndpointRegional):
		return EndpointRegional, nil
	case string(EndpointEdge):
		return EndpointEdge, nil
	default:
		return "", sitetheory.ConfigurationError("dns.endpointType", "unknown endpoint type %q", value)
	}
}

// APIConfig points at an existing REST API and the stage to expose.
type APIConfig struct {
	RestAPIID string `json:"restApiId" yaml:"restApiId"`
	StageName string `json:"stageName" yaml:"stageName"`
}

type DNSConfig struct {
	HostedZoneName    string       `json:"hostedZoneName" yaml:"hostedZoneName"`
	APIRecordName     string       `json:"apiRecordName,omitempty" yaml:"apiRecordName,omitempty"`
	WebsiteRecordName string       `json:"websiteRecordName,omitempty" yaml:"websiteRecordName,omitempty"`
	EndpointType      EndpointType `json:"endpointType,omitempty" yaml:"endpointType,omitempty"`
	HostedZoneID      string       `json:"hostedZoneId,omitempty" yaml:"hostedZoneId,omitempty"`
}

func (d DNSConfig) apiRecordName() string {
	if strings.TrimSpace(d.APIRecordName) == "" {
		return DefaultAPIRecordName
	}
	return d.APIRecordName
}

func (d DNSConfig) endpointType() EndpointType {
	if d.EndpointType == "" {
		return EndpointRegional
	}
	return d.EndpointType
}

// CognitoProvider is a user pool client trusted by the identity pool.
type CognitoProvider struct {
	ClientID             string `json:"clientId" yaml:"clientId"`
	ProviderName         string `json:"providerName" yaml:"providerName"`
	ServerSideTokenCheck bool   `json:"serverSideTokenCheck,omitempty" yaml:"serverSideTokenCheck,omitempty"`
}

type IdentityConfig struct {
	IdentityPoolName        string            `json:"identityPoolName,omitempty" yaml:"identityPoolName,omitempty"`
	AllowUnauthenticated    bool              `json:"allowUnauthenticated,omitempty" yaml:"allowUnauthenticated,omitempty"`
	SupportedLoginProviders map[string]string `json:"supportedLoginProviders,omitempty" yaml:"supportedLoginProviders,omitempty"`
	CognitoProviders        []CognitoProvider `json:"cognitoProviders,omitempty" yaml:"cognitoProviders,omitempty"`
}

// Props configures a serverless web application. Website DNS is derived from DNS when set.
type Props struct {
	API      APIConfig      `json:"api" yaml:"api"`
	DNS      *DNSConfig     `json:"dns,omitempty" yaml:"dns,omitempty"`
	Identity IdentityConfig `json:"identity" yaml:"identity"`
	Website  website.Props  `json:"website" yaml:"website"`
}

func (p Props) validate() error {
	var problems sitetheory.Problems
	if strings.TrimSpace(p.API.RestAPIID) == "" {
		problems.Addf("api.restApiId", "rest api id is required")
	}
	if strings.TrimSpace(p.API.StageName) == "" {
		problems.Addf("api.stageName", "stage name is required")
	}
	if p.DNS != nil {
		if strings.TrimSpace(p.DNS.HostedZoneName) == "" {
			problems.Addf("dns.hostedZoneName", "hosted zone name is required")
		}
		if _, err := ParseEndpointType(string(p.DNS.EndpointType)); err != nil {
			problems.Add(err)
		}
	}
	for i, provider := range p.Identity.CognitoProviders {
		if strings.TrimSpace(provider.ClientID) == "" || strings.TrimSpace(provider.ProviderName) == "" {
			problems.Add(sitetheory.ConfigurationError(
				"identity.cognitoProviders",
				"provider %d needs a client id and a provider name", i,
			))
		}
	}
	if p.Website.Route53 != nil && p.DNS != nil {
		problems.Addf("website.route53", "website dns is derived from dns.websiteRecordName")
	}
	return problems.Err()
}
