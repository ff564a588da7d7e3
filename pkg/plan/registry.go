package plan

import (
	"errors"
	"strings"

	"github.com/theory-cloud/sitetheory"
)

// Resolver locates external resources (hosted zones, buckets) by name and returns their
// physical id.
type Resolver interface {
	Resolve(kind, name string) (string, error)
}

// StaticResolver resolves from a fixed "<kind>:<name>" -> physical id table.
type StaticResolver map[string]string

var errNotFound = errors.New("not found")

func (r StaticResolver) Resolve(kind, name string) (string, error) {
	if id, ok := r[importKey(kind, name)]; ok {
		return id, nil
	}
	return "", errNotFound
}

// Import is an external resource referenced, but not created, by the plan.
type Import struct {
	Kind       string
	Name       string
	PhysicalID string
}

// Registry is a per-stack resolve-or-register table keyed by logical name. The first writer
// for a name wins; later callers receive the registered value.
type Registry struct {
	graph    *Graph
	resolver Resolver

	byName  map[string]*Resource
	imports map[string]*Import
}

func newRegistry(g *Graph) *Registry {
	return &Registry{
		graph:   g,
		byName:  map[string]*Resource{},
		imports: map[string]*Import{},
	}
}

// Resolve returns the resource registered under name, creating and adding it on first use.
func (r *Registry) Resolve(name string, create func() (*Resource, error)) (*Resource, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, sitetheory.ConfigurationError("registry", "name is required")
	}
	if existing, ok := r.byName[name]; ok {
		return existing, nil
	}
	res, err := create()
	if err != nil {
		return nil, err
	}
	if err := r.graph.Add(res); err != nil {
		return nil, err
	}
	r.byName[name] = res
	return res, nil
}

func (r *Registry) forget(name string) {
	delete(r.byName, strings.TrimSpace(name))
}

// Lookup returns the resource registered under name.
func (r *Registry) Lookup(name string) (*Resource, error) {
	if existing, ok := r.byName[strings.TrimSpace(name)]; ok {
		return existing, nil
	}
	return nil, sitetheory.DependencyResolutionError(name, errNotFound)
}

// Owns reports whether the resource with logical id was registered as a stack-wide singleton.
func (r *Registry) Owns(id string) bool {
	for _, res := range r.byName {
		if res.ID == id {
			return true
		}
	}
	return false
}

// Import resolves an external resource. With a resolver installed a failed lookup is a
// DependencyResolutionError; without one the lookup is deferred to the provisioning engine.
func (r *Registry) Import(kind, name string) (*Import, error) {
	kind = strings.TrimSpace(kind)
	name = strings.Trim(strings.TrimSpace(name), ".")
	if kind == "" || name == "" {
		return nil, sitetheory.ConfigurationError("import", "kind and name are required")
	}

	key := importKey(kind, name)
	if existing, ok := r.imports[key]; ok {
		return existing, nil
	}

	imp := &Import{Kind: kind, Name: name}
	if r.resolver == nil {
		imp.PhysicalID = Lookup(kind, name)
	} else {
		id, err := r.resolver.Resolve(kind, name)
		if err != nil {
			return nil, sitetheory.DependencyResolutionError(key, err)
		}
		imp.PhysicalID = id
	}
	r.imports[key] = imp
	return imp, nil
}

// Register records an externally identified resource so later Imports reuse it.
func (r *Registry) Register(kind, name, physicalID string) *Import {
	key := importKey(kind, strings.Trim(name, "."))
	if existing, ok := r.imports[key]; ok {
		return existing
	}
	imp := &Import{Kind: kind, Name: strings.Trim(name, "."), PhysicalID: physicalID}
	r.imports[key] = imp
	return imp
}

// Imports returns the external resources referenced so far.
func (r *Registry) Imports() []*Import {
	out := make([]*Import, 0, len(r.imports))
	for _, imp := range r.imports {
		out = append(out, imp)
	}
	sortImports(out)
	return out
}

func importKey(kind, name string) string {
	return kind + ":" + name
}
