// Package network assembles the application VPC with optional flow logs and a CloudTrail trail.
package network

import (
	"strings"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/artifacts"
	"github.com/theory-cloud/sitetheory/pkg/logger"
	"github.com/theory-cloud/sitetheory/pkg/observability"
	"github.com/theory-cloud/sitetheory/pkg/plan"
)

const (
	CIDR            = "10.0.0.0/16"
	DefaultTenancy  = "default"
	FlowLogsPrefix  = "VpcFlowLogs-"
	flowLogsService = "ec2.amazonaws.com"
	trailService    = "cloudtrail.amazonaws.com"
)

type Props struct {
	// MaxAZs limits the availability zones spanned; zero leaves it to the engine.
	MaxAZs           int  `json:"maxAzs,omitempty" yaml:"maxAzs,omitempty"`
	EnableFlowLogs   bool `json:"enableFlowLogs,omitempty" yaml:"enableFlowLogs,omitempty"`
	EnableCloudTrail bool `json:"enableCloudTrail,omitempty" yaml:"enableCloudTrail,omitempty"`
}

type Network struct {
	ID string

	VPC          *plan.Resource
	FlowLogsRole *plan.Resource
	FlowLog      *plan.Resource
	TrailBucket  *plan.Resource
	TrailPolicy  *plan.Resource
	Trail        *plan.Resource
}

// FlowLogGroup is the log group receiving the flow logs of the VPC.
func (n *Network) FlowLogGroup() string {
	if n == nil || n.VPC == nil {
		return ""
	}
	return FlowLogsPrefix + plan.Ref(n.VPC.ID)
}

func Assemble(stack *plan.Stack, id string, props Props) (*Network, error) {
	if stack == nil {
		return nil, sitetheory.ConfigurationError("stack", "stack is required")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, sitetheory.ConfigurationError("id", "construct id is required")
	}
	if props.MaxAZs < 0 {
		return nil, sitetheory.ConfigurationError("maxAzs", "max availability zones must not be negative, got %d", props.MaxAZs)
	}

	n := &Network{ID: id}
	b := stack.Batch()

	vpc := map[string]any{
		"CidrBlock":          CIDR,
		"EnableDnsHostnames": true,
		"EnableDnsSupport":   true,
		"InstanceTenancy":    DefaultTenancy,
	}
	if props.MaxAZs > 0 {
		vpc["MaxAZs"] = props.MaxAZs
	}
	n.VPC = b.Add(plan.NewResource(id, plan.TypeVPC, vpc))

	if props.EnableFlowLogs {
		n.FlowLogsRole = b.Add(plan.NewResource(plan.LogicalID(id, "FlowLogsRole"), plan.TypeRole, map[string]any{
			"AssumeRolePolicy": []artifacts.PolicyStatement{{
				Effect:     artifacts.EffectAllow,
				Actions:    []string{"sts:AssumeRole"},
				Principals: []artifacts.Principal{{Type: artifacts.PrincipalService, ID: flowLogsService}},
			}},
			"Policies": []artifacts.PolicyStatement{{
				Effect:    artifacts.EffectAllow,
				Actions:   []string{"logs:CreateLogGroup", "logs:CreateLogStream", "logs:PutLogEvents"},
				Resources: []string{"*"},
			}},
		}))
		n.FlowLog = b.Add(plan.NewResource(plan.LogicalID(id, "FlowLogs"), plan.TypeFlowLog, map[string]any{
			"TrafficType":              "ALL",
			"ResourceType":             "VPC",
			"ResourceId":               plan.Ref(n.VPC.ID),
			"LogGroupName":             n.FlowLogGroup(),
			"DeliverLogsPermissionArn": plan.GetAtt(n.FlowLogsRole.ID, "Arn"),
		}), n.VPC.ID, n.FlowLogsRole.ID)
	}

	if props.EnableCloudTrail {
		n.trail(b)
	}

	if err := b.Commit(); err != nil {
		return nil, err
	}
	observability.LogEvent(logger.Logger(), observability.Event{
		Level:      "info",
		Name:       "network.assembled",
		StackID:    stack.Name,
		ResourceID: id,
		Fields: map[string]any{
			"flow_logs":  props.EnableFlowLogs,
			"cloudtrail": props.EnableCloudTrail,
		},
	})
	return n, nil
}

func (n *Network) trail(b *plan.Batch) {
	n.TrailBucket = b.Add(plan.NewResource(plan.LogicalID(n.ID, "CloudTrail", "Bucket"), plan.TypeBucket, map[string]any{
		"PublicAccessBlockConfiguration": map[string]any{
			"BlockPublicAcls":       true,
			"BlockPublicPolicy":     true,
			"IgnorePublicAcls":      true,
			"RestrictPublicBuckets": true,
		},
	}))
	bucketARN := plan.GetAtt(n.TrailBucket.ID, "Arn")
	principal := []artifacts.Principal{{Type: artifacts.PrincipalService, ID: trailService}}
	n.TrailPolicy = b.Add(plan.NewResource(plan.LogicalID(n.ID, "CloudTrail", "Bucket", "Policy"), plan.TypeBucketPolicy, map[string]any{
		"Bucket": plan.Ref(n.TrailBucket.ID),
		"Statements": []artifacts.PolicyStatement{
			{
				Effect:     artifacts.EffectAllow,
				Actions:    []string{"s3:GetBucketAcl"},
				Resources:  []string{bucketARN},
				Principals: principal,
			},
			{
				Effect:     artifacts.EffectAllow,
				Actions:    []string{"s3:PutObject"},
				Resources:  []string{bucketARN + "/AWSLogs/" + plan.Ref(plan.PseudoAccountID) + "/*"},
				Principals: principal,
				Conditions: map[string]map[string]string{
					"StringEquals": {"s3:x-amz-acl": "bucket-owner-full-control"},
				},
			},
		},
	}), n.TrailBucket.ID)
	n.Trail = b.Add(plan.NewResource(plan.LogicalID(n.ID, "CloudTrail"), plan.TypeTrail, map[string]any{
		"IsLogging":                  true,
		"S3BucketName":               plan.Ref(n.TrailBucket.ID),
		"IncludeGlobalServiceEvents": true,
		"IsMultiRegionTrail":         true,
		"EnableLogFileValidation":    true,
	}), n.TrailBucket.ID, n.TrailPolicy.ID)
}
