package plan

import (
	"regexp"
	"sort"
	"strings"
)

// ResourceType is the CloudFormation type name of a planned resource.
type ResourceType string

const (
	TypeParameter                  ResourceType = "AWS::CloudFormation::Parameter"
	TypeBucket                     ResourceType = "AWS::S3::Bucket"
	TypeBucketPolicy               ResourceType = "AWS::S3::BucketPolicy"
	TypeOriginAccessIdentity       ResourceType = "AWS::CloudFront::CloudFrontOriginAccessIdentity"
	TypeDistribution               ResourceType = "AWS::CloudFront::Distribution"
	TypeCertificate                ResourceType = "AWS::CertificateManager::Certificate"
	TypeRecordSet                  ResourceType = "AWS::Route53::RecordSet"
	TypeHostedZone                 ResourceType = "AWS::Route53::HostedZone"
	TypeCustomResource             ResourceType = "AWS::CloudFormation::CustomResource"
	TypeFunction                   ResourceType = "AWS::Lambda::Function"
	TypeRole                       ResourceType = "AWS::IAM::Role"
	TypePolicy                     ResourceType = "AWS::IAM::Policy"
	TypeAPIDomainName              ResourceType = "AWS::ApiGateway::DomainName"
	TypeAPIBasePathMapping         ResourceType = "AWS::ApiGateway::BasePathMapping"
	TypeIdentityPool               ResourceType = "AWS::Cognito::IdentityPool"
	TypeIdentityPoolRoleAttachment ResourceType = "AWS::Cognito::IdentityPoolRoleAttachment"
	TypeVPC                        ResourceType = "AWS::EC2::VPC"
	TypeFlowLog                    ResourceType = "AWS::EC2::FlowLog"
	TypeTrail                      ResourceType = "AWS::CloudTrail::Trail"
)

// Resource is one declarative node of the plan. Properties hold literal values or deferred
// references produced by Ref/GetAtt/Sub.
type Resource struct {
	ID         string
	Type       ResourceType
	Properties map[string]any
}

// NewResource returns a resource with an initialised property map.
func NewResource(id string, typ ResourceType, props map[string]any) *Resource {
	if props == nil {
		props = map[string]any{}
	}
	return &Resource{ID: id, Type: typ, Properties: props}
}

// String returns the property value for key when it is a string.
func (r *Resource) String(key string) string {
	if r == nil {
		return ""
	}
	v, _ := r.Properties[key].(string)
	return v
}

// Bool returns the property value for key when it is a bool.
func (r *Resource) Bool(key string) bool {
	if r == nil {
		return false
	}
	v, _ := r.Properties[key].(bool)
	return v
}

// Keys returns the property names in sorted order.
func (r *Resource) Keys() []string {
	keys := make([]string, 0, len(r.Properties))
	for k := range r.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var nonAlnum = regexp.MustCompile(`[^A-Za-z0-9]+`)

// LogicalID concatenates parts into a CloudFormation-safe logical id.
func LogicalID(parts ...string) string {
	var b strings.Builder
	for _, part := range parts {
		for _, word := range nonAlnum.Split(part, -1) {
			if word == "" {
				continue
			}
			b.WriteString(strings.ToUpper(word[:1]))
			b.WriteString(word[1:])
		}
	}
	return b.String()
}
