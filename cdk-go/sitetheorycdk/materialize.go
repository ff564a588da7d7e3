// Package sitetheorycdk renders SiteTheory plans as AWS CDK constructs. The assemblers take
// every decision on a shadow plan.Stack; this package only realises the planned resources,
// pinning each CloudFormation logical id to its plan id so deferred references resolve as
// Fn::Sub variables.
package sitetheorycdk

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aws/aws-cdk-go/awscdk/v2"
	"github.com/aws/constructs-go/constructs/v10"
	"github.com/aws/jsii-runtime-go"

	"github.com/theory-cloud/sitetheory"
	"github.com/theory-cloud/sitetheory/pkg/artifacts"
	"github.com/theory-cloud/sitetheory/pkg/logger"
	"github.com/theory-cloud/sitetheory/pkg/observability"
	"github.com/theory-cloud/sitetheory/pkg/plan"
)

// DefaultHandlerCodePath holds the built custom resource handlers, one directory per handler
// package (copier/bootstrap, invalidate/bootstrap).
const DefaultHandlerCodePath = "dist/handlers"

const subVariablePrefix = "SiteTheoryVar"

type options struct {
	handlerCode string
}

// Option configures Materialize.
type Option func(*options)

// WithHandlerCode sets the directory holding the built handler packages.
func WithHandlerCode(dir string) Option {
	return func(o *options) {
		if dir = strings.TrimSpace(dir); dir != "" {
			o.handlerCode = dir
		}
	}
}

// Materialized maps plan logical ids to the constructs realising them.
type Materialized struct {
	m *materializer
}

// Construct returns the construct realising the plan resource id, or nil.
func (r *Materialized) Construct(id string) constructs.IConstruct {
	if r == nil {
		return nil
	}
	return r.m.built[id]
}

// IDs returns the realised plan ids in sorted order.
func (r *Materialized) IDs() []string {
	if r == nil {
		return nil
	}
	ids := make([]string, 0, len(r.m.built))
	for id := range r.m.built {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Resolve converts a plan value holding deferred references into a CDK token.
func (r *Materialized) Resolve(value string) *string {
	if r == nil {
		return jsii.String(value)
	}
	return r.m.str(value)
}

type materializer struct {
	stack awscdk.Stack
	scope constructs.Construct
	plan  *plan.Stack
	opts  options

	built   map[string]constructs.IConstruct
	reused  map[string]bool
	tokens  map[string]func(attr string) *string
	lookups map[string]*string
	err     error
}

// Materialize realises every resource of stack inside scope, in dependency order, and
// mirrors the plan's edges as construct dependencies. Stack-wide singletons (shared handler
// functions and their roles, deployment parameters) are created once at the stack root and
// found again through the construct tree.
func Materialize(scope constructs.Construct, stack *plan.Stack, opts ...Option) (*Materialized, error) {
	if scope == nil {
		return nil, sitetheory.ConfigurationError("scope", "scope is required")
	}
	if stack == nil {
		return nil, sitetheory.ConfigurationError("stack", "plan stack is required")
	}
	order, err := stack.Graph.Order()
	if err != nil {
		return nil, err
	}

	m := &materializer{
		stack:   awscdk.Stack_Of(scope),
		scope:   scope,
		plan:    stack,
		opts:    options{handlerCode: DefaultHandlerCodePath},
		built:   map[string]constructs.IConstruct{},
		reused:  map[string]bool{},
		tokens:  map[string]func(string) *string{},
		lookups: map[string]*string{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&m.opts)
		}
	}

	for _, r := range order {
		c, err := m.realise(r)
		if err != nil {
			return nil, err
		}
		if m.err != nil {
			return nil, m.err
		}
		m.built[r.ID] = c
	}

	for _, r := range order {
		if m.reused[r.ID] {
			continue
		}
		for _, dep := range stack.Graph.Dependencies(r.ID) {
			if target, ok := m.built[dep]; ok {
				m.built[r.ID].Node().AddDependency(target)
			}
		}
	}

	observability.LogEvent(logger.Logger(), observability.Event{
		Level:   "info",
		Name:    "cdk.materialized",
		StackID: stack.Name,
		Fields: map[string]any{
			"scope":     *scope.Node().Path(),
			"resources": len(m.built),
			"reused":    len(m.reused),
		},
	})
	return &Materialized{m: m}, nil
}

func (m *materializer) realise(r *plan.Resource) (constructs.IConstruct, error) {
	scope := m.scope
	if m.plan.Registry.Owns(r.ID) {
		if existing := m.stack.Node().TryFindChild(jsii.String(r.ID)); existing != nil {
			m.reused[r.ID] = true
			return existing, nil
		}
		scope = m.stack
	}

	build, ok := builders[r.Type]
	if !ok {
		return nil, sitetheory.ConfigurationError("type", "resource %q has unsupported type %q", r.ID, r.Type)
	}
	return build(m, scope, r), nil
}

// handlerAsset returns the code directory of a handler package.
func (m *materializer) handlerAsset(pkg string) string {
	return filepath.Join(m.opts.handlerCode, pkg)
}

// native reports whether ref can stay inside an Fn::Sub body as written.
func (m *materializer) native(ref plan.Reference) bool {
	if ref.IsLookup() || ref.IsToken() {
		return false
	}
	if ref.IsPseudo() {
		return true
	}
	_, custom := m.tokens[ref.ID]
	return !custom
}

func (m *materializer) token(ref plan.Reference) *string {
	switch {
	case ref.IsToken():
		return jsii.String(ref.Raw)
	case ref.IsLookup():
		return m.lookup(ref.LookupKind, ref.LookupName)
	case ref.IsPseudo():
		switch ref.ID {
		case plan.PseudoRegion:
			return awscdk.Aws_REGION()
		case plan.PseudoAccountID:
			return awscdk.Aws_ACCOUNT_ID()
		case plan.PseudoPartition:
			return awscdk.Aws_PARTITION()
		case plan.PseudoURLSuffix:
			return awscdk.Aws_URL_SUFFIX()
		}
		return awscdk.Fn_Ref(jsii.String(ref.ID))
	}
	if custom, ok := m.tokens[ref.ID]; ok {
		return custom(ref.Attr)
	}
	if ref.Attr == "" {
		return awscdk.Fn_Ref(jsii.String(ref.ID))
	}
	return awscdk.Token_AsString(awscdk.Fn_GetAtt(jsii.String(ref.ID), jsii.String(ref.Attr)), nil)
}

// str resolves a plan string. Literals are unescaped, a lone reference becomes its token and
// anything else becomes an Fn::Sub over the original text, escapes included.
func (m *materializer) str(value string) *string {
	segs := plan.Parse(value)
	switch {
	case len(segs) == 0:
		return jsii.String(value)
	case len(segs) == 1 && segs[0].Ref == nil:
		return jsii.String(plan.Unescape(value))
	case len(segs) == 1:
		return m.token(*segs[0].Ref)
	}

	var body strings.Builder
	vars := map[string]*string{}
	for _, seg := range segs {
		switch {
		case seg.Ref == nil:
			body.WriteString(seg.Literal)
		case m.native(*seg.Ref):
			body.WriteString(seg.Ref.Raw)
		default:
			name := fmt.Sprintf("%s%d", subVariablePrefix, len(vars))
			vars[name] = m.token(*seg.Ref)
			body.WriteString("${" + name + "}")
		}
	}
	if len(vars) == 0 {
		return awscdk.Fn_Sub(jsii.String(body.String()), nil)
	}
	return awscdk.Fn_Sub(jsii.String(body.String()), &vars)
}

func (m *materializer) strs(values []string) *[]*string {
	out := make([]*string, 0, len(values))
	for _, v := range values {
		out = append(out, m.str(v))
	}
	return &out
}

// value resolves every string inside a property value.
func (m *materializer) value(v any) interface{} {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return m.str(x)
	case []string:
		return m.strs(x)
	case bool:
		return jsii.Bool(x)
	case int:
		return jsii.Number(float64(x))
	case float64:
		return jsii.Number(x)
	case map[string]string:
		out := make(map[string]interface{}, len(x))
		for k, s := range x {
			out[k] = m.str(s)
		}
		return &out
	case map[string]any:
		out := make(map[string]interface{}, len(x))
		for k, item := range x {
			out[k] = m.value(item)
		}
		return &out
	case []any:
		out := make([]interface{}, 0, len(x))
		for _, item := range x {
			out = append(out, m.value(item))
		}
		return &out
	default:
		return x
	}
}

// prop returns the string property key, or nil when it is absent or empty.
func (m *materializer) prop(r *plan.Resource, key string) *string {
	s := r.String(key)
	if s == "" {
		return nil
	}
	return m.str(s)
}

// anyProp is prop for fields typed interface{}; an absent value stays an untyped nil.
func (m *materializer) anyProp(r *plan.Resource, key string) interface{} {
	if s := m.prop(r, key); s != nil {
		return s
	}
	return nil
}

// listAny is list for fields typed *[]interface{}.
func (m *materializer) listAny(r *plan.Resource, key string) *[]interface{} {
	values := m.list(r, key)
	if values == nil {
		return nil
	}
	out := make([]interface{}, 0, len(*values))
	for _, v := range *values {
		out = append(out, v)
	}
	return &out
}

func (m *materializer) list(r *plan.Resource, key string) *[]*string {
	values, ok := r.Properties[key].([]string)
	if !ok || len(values) == 0 {
		return nil
	}
	return m.strs(values)
}

func number(r *plan.Resource, key string) *float64 {
	switch v := r.Properties[key].(type) {
	case int:
		return jsii.Number(float64(v))
	case float64:
		return jsii.Number(v)
	}
	return nil
}

// policy renders the statements under key as a resolved IAM policy document.
func (m *materializer) policy(r *plan.Resource, key string) interface{} {
	statements, ok := r.Properties[key].([]artifacts.PolicyStatement)
	if !ok || len(statements) == 0 {
		return nil
	}
	return m.value(artifacts.PolicyDocument(statements))
}

func (m *materializer) fail(err error) {
	if m.err == nil {
		m.err = err
	}
}
