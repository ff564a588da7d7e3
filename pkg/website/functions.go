package website

import (
	"github.com/theory-cloud/sitetheory/pkg/artifacts"
	"github.com/theory-cloud/sitetheory/pkg/plan"
)

// Registry names of the stack-wide Lambda functions backing the custom resources. One
// function of each kind serves every website in a stack.
const (
	CopierFunction      = "SiteTheoryCopier"
	InvalidatorFunction = "SiteTheoryInvalidator"
)

// handlerPackages names the built handler binary (cmd/<package>) each function runs.
var handlerPackages = map[string]string{
	CopierFunction:      "copier",
	InvalidatorFunction: "invalidate",
}

const (
	handlerRuntime    = "provided.al2023"
	handlerEntrypoint = "bootstrap"
	handlerTimeout    = 900
	handlerMemory     = 512
)

func lambdaTrust() []artifacts.PolicyStatement {
	return []artifacts.PolicyStatement{{
		Actions:    []string{"sts:AssumeRole"},
		Principals: []artifacts.Principal{{Type: artifacts.PrincipalService, ID: "lambda.amazonaws.com"}},
	}}
}

// sharedFunction stages the singleton function registered under name with its execution role
// and returns the ids of both.
func sharedFunction(b *plan.Batch, name, description string, inline []artifacts.PolicyStatement) (fnID, roleID string) {
	roleID = b.Shared(name+"Role", func() *plan.Resource {
		props := map[string]any{
			"AssumeRolePolicy":  lambdaTrust(),
			"ManagedPolicyArns": []string{"arn:" + plan.Ref(plan.PseudoPartition) + ":iam::aws:policy/service-role/AWSLambdaBasicExecutionRole"},
		}
		if len(inline) > 0 {
			props["Policies"] = inline
		}
		return plan.NewResource(plan.LogicalID(name, "Role"), plan.TypeRole, props)
	})
	fnID = b.Shared(name+"Function", func() *plan.Resource {
		return plan.NewResource(plan.LogicalID(name, "Function"), plan.TypeFunction, map[string]any{
			"Description": description,
			"Package":     handlerPackages[name],
			"Handler":     handlerEntrypoint,
			"Runtime":     handlerRuntime,
			"Timeout":     handlerTimeout,
			"MemorySize":  handlerMemory,
			"Role":        plan.GetAtt(plan.LogicalID(name, "Role"), "Arn"),
		})
	}, roleID)
	return fnID, roleID
}
