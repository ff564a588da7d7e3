package testkit

import (
	"testing"

	"github.com/aws/aws-lambda-go/cfn"

	"github.com/theory-cloud/sitetheory/pkg/customresource"
)

func TestCustomResourceEvent_Defaults(t *testing.T) {
	ev := CustomResourceEvent(CustomResourceEventOptions{})
	if ev.RequestType != cfn.RequestCreate {
		t.Fatalf("expected Create, got %q", ev.RequestType)
	}
	if ev.RequestID != "req-create" || ev.LogicalResourceID != "Resource" || ev.ResourceType != "Custom::Resource" {
		t.Fatalf("unexpected defaults: %#v", ev)
	}
	if ev.StackID == "" || ev.ResponseURL == "" {
		t.Fatalf("expected stack id and response url, got %#v", ev)
	}
	if ev.ResourceProperties != nil || ev.OldResourceProperties != nil {
		t.Fatalf("expected no properties, got %#v", ev.ResourceProperties)
	}
}

func TestCustomResourceEvent_TypedProperties(t *testing.T) {
	ev := CustomResourceEvent(CustomResourceEventOptions{
		RequestType:        cfn.RequestUpdate,
		LogicalResourceID:  "SiteInvalidation",
		PhysicalResourceID: "E123",
		Properties:         customresource.Invalidation{DistributionID: "E123", InvalidationPaths: "/a,/b"},
		OldProperties:      map[string]interface{}{"DistributionId": "E000"},
	})
	if ev.ResourceProperties["DistributionId"] != "E123" || ev.ResourceProperties["InvalidationPaths"] != "/a,/b" {
		t.Fatalf("unexpected properties: %#v", ev.ResourceProperties)
	}
	if ev.OldResourceProperties["DistributionId"] != "E000" {
		t.Fatalf("unexpected old properties: %#v", ev.OldResourceProperties)
	}
	if ev.PhysicalResourceID != "E123" || ev.ResourceType != "Custom::SiteInvalidation" {
		t.Fatalf("unexpected event: %#v", ev)
	}
}
