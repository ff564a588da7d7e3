package artifacts

import (
	"fmt"
	"strings"
)

// Principal types accepted in bucket policy statements.
const (
	PrincipalAWS           = "AWS"
	PrincipalCanonicalUser = "CanonicalUser"
	PrincipalService       = "Service"
	PrincipalFederated     = "Federated"
)

const (
	EffectAllow = "Allow"
	EffectDeny  = "Deny"
)

type Principal struct {
	Type string `json:"type" yaml:"type"`
	ID   string `json:"id" yaml:"id"`
}

// PolicyStatement is one statement of the serving bucket's access policy.
type PolicyStatement struct {
	Sid        string      `json:"sid,omitempty" yaml:"sid,omitempty"`
	Effect     string      `json:"effect,omitempty" yaml:"effect,omitempty"`
	Actions    []string    `json:"actions" yaml:"actions"`
	Resources  []string    `json:"resources,omitempty" yaml:"resources,omitempty"`
	Principals []Principal `json:"principals,omitempty" yaml:"principals,omitempty"`
	// Conditions is keyed by operator, then by condition key.
	Conditions map[string]map[string]string `json:"conditions,omitempty" yaml:"conditions,omitempty"`
}

// EffectOrDefault returns the statement effect, Allow when unset.
func (s PolicyStatement) EffectOrDefault() string {
	if strings.TrimSpace(s.Effect) == "" {
		return EffectAllow
	}
	return s.Effect
}

// GrantsPublicAccess reports whether the statement allows anonymous principals.
func (s PolicyStatement) GrantsPublicAccess() bool {
	if s.EffectOrDefault() != EffectAllow {
		return false
	}
	for _, p := range s.Principals {
		if p.ID == "*" {
			return true
		}
	}
	return false
}

func (s PolicyStatement) validate(field string) []error {
	var problems []error
	switch s.EffectOrDefault() {
	case EffectAllow, EffectDeny:
	default:
		problems = append(problems, configProblem(field+".effect", "unknown effect %q", s.Effect))
	}
	if len(s.Actions) == 0 {
		problems = append(problems, configProblem(field+".actions", "at least one action is required"))
	}
	for i, p := range s.Principals {
		switch p.Type {
		case PrincipalAWS, PrincipalCanonicalUser, PrincipalService, PrincipalFederated:
		default:
			problems = append(problems, configProblem(fmt.Sprintf("%s.principals[%d].type", field, i), "unknown principal type %q", p.Type))
		}
		if strings.TrimSpace(p.ID) == "" {
			problems = append(problems, configProblem(fmt.Sprintf("%s.principals[%d].id", field, i), "principal id is required"))
		}
	}
	return problems
}

func cloneStatements(in []PolicyStatement) []PolicyStatement {
	if in == nil {
		return nil
	}
	out := make([]PolicyStatement, len(in))
	for i, s := range in {
		out[i] = PolicyStatement{
			Sid:        s.Sid,
			Effect:     s.Effect,
			Actions:    append([]string(nil), s.Actions...),
			Resources:  append([]string(nil), s.Resources...),
			Principals: append([]Principal(nil), s.Principals...),
			Conditions: cloneConditions(s.Conditions),
		}
	}
	return out
}

func cloneConditions(in map[string]map[string]string) map[string]map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]map[string]string, len(in))
	for op, values := range in {
		inner := make(map[string]string, len(values))
		for k, v := range values {
			inner[k] = v
		}
		out[op] = inner
	}
	return out
}

// PolicyVersion is the IAM policy language version of rendered documents.
const PolicyVersion = "2012-10-17"

// PolicyDocument renders statements as an IAM policy document. Single values are written as
// scalars, as IAM accepts both forms.
func PolicyDocument(statements []PolicyStatement) map[string]any {
	rendered := make([]any, 0, len(statements))
	for _, s := range statements {
		rendered = append(rendered, s.document())
	}
	return map[string]any{
		"Version":   PolicyVersion,
		"Statement": rendered,
	}
}

func (s PolicyStatement) document() map[string]any {
	out := map[string]any{
		"Effect": s.EffectOrDefault(),
		"Action": scalarOrList(s.Actions),
	}
	if s.Sid != "" {
		out["Sid"] = s.Sid
	}
	if len(s.Resources) > 0 {
		out["Resource"] = scalarOrList(s.Resources)
	}
	if len(s.Principals) > 0 {
		byType := map[string][]string{}
		for _, p := range s.Principals {
			byType[p.Type] = append(byType[p.Type], p.ID)
		}
		principal := make(map[string]any, len(byType))
		for typ, ids := range byType {
			principal[typ] = scalarOrList(ids)
		}
		out["Principal"] = principal
	}
	if len(s.Conditions) > 0 {
		conditions := make(map[string]any, len(s.Conditions))
		for op, values := range s.Conditions {
			inner := make(map[string]any, len(values))
			for k, v := range values {
				inner[k] = v
			}
			conditions[op] = inner
		}
		out["Condition"] = conditions
	}
	return out
}

func scalarOrList(values []string) any {
	if len(values) == 1 {
		return values[0]
	}
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
