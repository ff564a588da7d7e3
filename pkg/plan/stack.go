package plan

import "strings"

// Stack scopes one deployment: its graph, its registry, and the environment it targets.
type Stack struct {
	Name    string
	Region  string
	Account string

	Graph    *Graph
	Registry *Registry
}

// StackOption configures a Stack.
type StackOption func(*Stack)

// WithRegion pins the stack region. When unset, references use the AWS::Region pseudo parameter.
func WithRegion(region string) StackOption {
	return func(s *Stack) {
		s.Region = strings.TrimSpace(region)
	}
}

// WithAccount pins the stack account.
func WithAccount(account string) StackOption {
	return func(s *Stack) {
		s.Account = strings.TrimSpace(account)
	}
}

// WithResolver installs the resolver used for external lookups.
func WithResolver(resolver Resolver) StackOption {
	return func(s *Stack) {
		s.Registry.resolver = resolver
	}
}

func NewStack(name string, opts ...StackOption) *Stack {
	g := NewGraph()
	s := &Stack{
		Name:     strings.TrimSpace(name),
		Graph:    g,
		Registry: newRegistry(g),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Identity returns the construct path of a child, used to derive deterministic names.
func (s *Stack) Identity(path ...string) string {
	parts := make([]string, 0, len(path)+1)
	if s.Name != "" {
		parts = append(parts, s.Name)
	}
	for _, p := range path {
		if p = strings.Trim(p, "/"); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, "/")
}

// RegionRef returns the pinned region, or a deferred reference to the deployment region.
func (s *Stack) RegionRef() string {
	if s.Region != "" {
		return s.Region
	}
	return Ref(PseudoRegion)
}

// AccountRef returns the pinned account, or a deferred reference to the deployment account.
func (s *Stack) AccountRef() string {
	if s.Account != "" {
		return s.Account
	}
	return Ref(PseudoAccountID)
}

// Add registers r and its dependencies in one call.
func (s *Stack) Add(r *Resource, dependsOn ...string) (*Resource, error) {
	if err := s.Graph.Add(r); err != nil {
		return nil, err
	}
	for _, dep := range dependsOn {
		if dep == "" {
			continue
		}
		if err := s.Graph.DependOn(r.ID, dep); err != nil {
			return nil, err
		}
	}
	return r, nil
}
