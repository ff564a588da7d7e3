package plan

import (
	"errors"
	"fmt"
	"sort"

	"github.com/dominikbraun/graph"

	"github.com/theory-cloud/sitetheory"
)

// Graph is the dependency-ordered resource graph handed to the provisioning engine.
//
// Edges run from a dependency to its dependent, so a topological order lists dependencies first.
type Graph struct {
	g graph.Graph[string, *Resource]
}

func NewGraph() *Graph {
	return &Graph{
		g: graph.New(
			func(r *Resource) string {
				return r.ID
			},
			graph.Directed(),
			graph.Acyclic(),
			graph.PreventCycles(),
		),
	}
}

// Add inserts r. Logical ids are unique within a graph.
func (g *Graph) Add(r *Resource) error {
	if r == nil || r.ID == "" {
		return sitetheory.ConfigurationError("resource", "resource id is required")
	}
	if err := g.g.AddVertex(r); err != nil {
		if errors.Is(err, graph.ErrVertexAlreadyExists) {
			return sitetheory.ConfigurationError("resource", "duplicate logical id %q", r.ID)
		}
		return fmt.Errorf("add %s: %w", r.ID, err)
	}
	return nil
}

// DependOn declares that dependent must be realised after dependency.
func (g *Graph) DependOn(dependent, dependency string) error {
	_, err := g.link(dependent, dependency)
	return err
}

// link adds the edge and reports whether it was new.
func (g *Graph) link(dependent, dependency string) (bool, error) {
	err := g.g.AddEdge(dependency, dependent)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, graph.ErrEdgeAlreadyExists):
		return false, nil
	case errors.Is(err, graph.ErrEdgeCreatesCycle):
		return false, sitetheory.ConfigurationError("dependsOn", "%s -> %s creates a cycle", dependent, dependency)
	case errors.Is(err, graph.ErrVertexNotFound):
		return false, sitetheory.ConfigurationError("dependsOn", "%s -> %s references an unknown resource", dependent, dependency)
	default:
		return false, fmt.Errorf("depend %s on %s: %w", dependent, dependency, err)
	}
}

func (g *Graph) unlink(dependent, dependency string) {
	_ = g.g.RemoveEdge(dependency, dependent)
}

// remove drops the resource with the given id. Its edges must already be gone.
func (g *Graph) remove(id string) {
	_ = g.g.RemoveVertex(id)
}

// Get returns the resource with the given logical id, or nil.
func (g *Graph) Get(id string) *Resource {
	r, err := g.g.Vertex(id)
	if err != nil {
		return nil
	}
	return r
}

// Len returns the number of resources.
func (g *Graph) Len() int {
	n, err := g.g.Order()
	if err != nil {
		return 0
	}
	return n
}

// Order returns every resource, dependencies first, ties broken by logical id.
func (g *Graph) Order() ([]*Resource, error) {
	ids, err := graph.StableTopologicalSort(g.g, func(a, b string) bool {
		return a < b
	})
	if err != nil {
		return nil, err
	}
	out := make([]*Resource, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.Get(id))
	}
	return out, nil
}

// Dependencies returns the logical ids id directly depends on, sorted.
func (g *Graph) Dependencies(id string) []string {
	preds, err := g.g.PredecessorMap()
	if err != nil {
		return nil
	}
	out := make([]string, 0, len(preds[id]))
	for dep := range preds[id] {
		out = append(out, dep)
	}
	sort.Strings(out)
	return out
}

// DependsOn reports whether dependent (transitively) depends on dependency.
func (g *Graph) DependsOn(dependent, dependency string) bool {
	seen := map[string]bool{}
	queue := g.Dependencies(dependent)
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]
		if next == dependency {
			return true
		}
		if seen[next] {
			continue
		}
		seen[next] = true
		queue = append(queue, g.Dependencies(next)...)
	}
	return false
}

// OfType returns the resources of typ in logical id order.
func (g *Graph) OfType(typ ResourceType) []*Resource {
	order, err := g.Order()
	if err != nil {
		return nil
	}
	var out []*Resource
	for _, r := range order {
		if r.Type == typ {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count returns the number of resources of typ.
func (g *Graph) Count(typ ResourceType) int {
	return len(g.OfType(typ))
}
