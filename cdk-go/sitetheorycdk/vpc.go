package sitetheorycdk

import (
	"github.com/aws/aws-cdk-go/awscdk/v2/awsec2"
	"github.com/aws/constructs-go/constructs/v10"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/network"
)

type VpcProps struct {
	MaxAzs           *float64 `field:"optional" json:"maxAzs" yaml:"maxAzs"`
	EnableFlowLogs   *bool    `field:"optional" json:"enableFlowLogs" yaml:"enableFlowLogs"`
	EnableCloudTrail *bool    `field:"optional" json:"enableCloudTrail" yaml:"enableCloudTrail"`
}

func (p *VpcProps) network() network.Props {
	if p == nil {
		return network.Props{}
	}
	return network.Props{
		MaxAZs:           derefInt(p.MaxAzs),
		EnableFlowLogs:   derefBool(p.EnableFlowLogs),
		EnableCloudTrail: derefBool(p.EnableCloudTrail),
	}
}

// Vpc is the application network with its optional flow logs and CloudTrail trail.
type Vpc interface {
	constructs.Construct
	Network() *network.Network
	Vpc() awsec2.Vpc
	Resources() *Materialized
}

type vpc struct {
	constructs.Construct
	network   *network.Network
	resources *Materialized
}

func (v *vpc) Network() *network.Network { return v.network }
func (v *vpc) Resources() *Materialized  { return v.resources }

func (v *vpc) Vpc() awsec2.Vpc {
	out, _ := v.resources.Construct(v.network.VPC.ID).(awsec2.Vpc)
	return out
}

func NewVpc(scope constructs.Construct, id *string, props *VpcProps) (Vpc, error) {
	if id == nil || *id == "" {
		return nil, sitetheory.ConfigurationError("id", "construct id is required")
	}
	shadow := shadowStack(scope)
	n, err := network.Assemble(shadow, *id, props.network())
	if err != nil {
		return nil, err
	}

	this := constructs.NewConstruct(scope, id)
	resources, err := Materialize(this, shadow)
	if err != nil {
		return nil, err
	}
	return &vpc{Construct: this, network: n, resources: resources}, nil
}
