package testkit

import (
	"fmt"
	"strings"

	"github.com/aws/aws-lambda-go/cfn"

	"github.com/theory-cloud/sitetheory/pkg/customresource"
)

const defaultStackID = "arn:aws:cloudformation:us-east-1:123456789012:stack/demo/00000000-0000-0000-0000-000000000000"

type CustomResourceEventOptions struct {
	RequestType        cfn.RequestType
	RequestID          string
	StackID            string
	LogicalResourceID  string
	PhysicalResourceID string
	ResourceType       string
	// Properties is converted with customresource.Map, so typed property structs can be passed.
	Properties    any
	OldProperties any
}

// CustomResourceEvent builds the event CloudFormation sends to a custom resource handler.
func CustomResourceEvent(opts CustomResourceEventOptions) cfn.Event {
	requestType := opts.RequestType
	if requestType == "" {
		requestType = cfn.RequestCreate
	}
	requestID := strings.TrimSpace(opts.RequestID)
	if requestID == "" {
		requestID = fmt.Sprintf("req-%s", strings.ToLower(string(requestType)))
	}
	stackID := strings.TrimSpace(opts.StackID)
	if stackID == "" {
		stackID = defaultStackID
	}
	logicalID := strings.TrimSpace(opts.LogicalResourceID)
	if logicalID == "" {
		logicalID = "Resource"
	}
	resourceType := strings.TrimSpace(opts.ResourceType)
	if resourceType == "" {
		resourceType = "Custom::" + logicalID
	}

	return cfn.Event{
		RequestType:           requestType,
		RequestID:             requestID,
		ResponseURL:           "https://cloudformation-custom-resource-response.example.com/" + requestID,
		ResourceType:          resourceType,
		PhysicalResourceID:    opts.PhysicalResourceID,
		LogicalResourceID:     logicalID,
		StackID:               stackID,
		ResourceProperties:    properties(opts.Properties),
		OldResourceProperties: properties(opts.OldProperties),
	}
}

func properties(v any) map[string]interface{} {
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]interface{}); ok {
		return m
	}
	m, err := customresource.Map(v)
	if err != nil {
		panic(fmt.Sprintf("testkit: properties: %v", err))
	}
	return m
}
