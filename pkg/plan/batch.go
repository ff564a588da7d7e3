package plan

import (
	"github.com/theory-cloud/sitetheory"
)

type batchItem struct {
	res       *Resource
	dependsOn []string
}

type sharedItem struct {
	name      string
	res       *Resource
	dependsOn []string
}

// Batch stages the resources of one construct so they are added to the stack together.
// Nothing reaches the graph until Commit, and Commit checks every logical id first.
type Batch struct {
	stack  *Stack
	shared []sharedItem
	items  []batchItem
}

// Batch starts a new staging area on s.
func (s *Stack) Batch() *Batch {
	return &Batch{stack: s}
}

// Add stages r, realised after dependsOn.
func (b *Batch) Add(r *Resource, dependsOn ...string) *Resource {
	deps := make([]string, 0, len(dependsOn))
	for _, dep := range dependsOn {
		if dep != "" {
			deps = append(deps, dep)
		}
	}
	b.items = append(b.items, batchItem{res: r, dependsOn: deps})
	return r
}

// Shared returns the id of the stack-wide resource registered under name. When none exists
// yet, create is staged and registered on Commit (first writer wins).
func (b *Batch) Shared(name string, create func() *Resource, dependsOn ...string) string {
	if existing, ok := b.stack.Registry.byName[name]; ok {
		return existing.ID
	}
	for _, s := range b.shared {
		if s.name == name {
			return s.res.ID
		}
	}
	res := create()
	b.shared = append(b.shared, sharedItem{name: name, res: res, dependsOn: dependsOn})
	return res.ID
}

// Resources returns the staged resources in insertion order.
func (b *Batch) Resources() []*Resource {
	out := make([]*Resource, 0, len(b.items))
	for _, item := range b.items {
		out = append(out, item.res)
	}
	return out
}

// Commit adds every staged resource and dependency to the stack. It either applies the whole
// batch or, on any error, leaves the graph and registry as they were.
func (b *Batch) Commit() error {
	seen := map[string]bool{}
	check := func(r *Resource) error {
		if r == nil || r.ID == "" {
			return sitetheory.ConfigurationError("resource", "resource id is required")
		}
		if seen[r.ID] || b.stack.Graph.Get(r.ID) != nil {
			return sitetheory.ConfigurationError("resource", "duplicate logical id %q", r.ID)
		}
		seen[r.ID] = true
		return nil
	}
	for _, s := range b.shared {
		if _, ok := b.stack.Registry.byName[s.name]; ok {
			continue
		}
		if err := check(s.res); err != nil {
			return err
		}
	}
	for _, item := range b.items {
		if err := check(item.res); err != nil {
			return err
		}
	}

	var undo []func()
	rollback := func(err error) error {
		for i := len(undo) - 1; i >= 0; i-- {
			undo[i]()
		}
		return err
	}

	var created []batchItem
	for _, s := range b.shared {
		if _, ok := b.stack.Registry.byName[s.name]; ok {
			continue
		}
		res := s.res
		if _, err := b.stack.Registry.Resolve(s.name, func() (*Resource, error) { return res, nil }); err != nil {
			return rollback(err)
		}
		undo = append(undo, func() {
			b.stack.Registry.forget(s.name)
			b.stack.Graph.remove(res.ID)
		})
		created = append(created, batchItem{res: res, dependsOn: s.dependsOn})
	}
	for _, item := range b.items {
		if err := b.stack.Graph.Add(item.res); err != nil {
			return rollback(err)
		}
		undo = append(undo, func() { b.stack.Graph.remove(item.res.ID) })
	}
	for _, item := range append(created, b.items...) {
		for _, dep := range item.dependsOn {
			if dep == "" {
				continue
			}
			added, err := b.stack.Graph.link(item.res.ID, dep)
			if err != nil {
				return rollback(err)
			}
			if added {
				undo = append(undo, func() { b.stack.Graph.unlink(item.res.ID, dep) })
			}
		}
	}
	return nil
}
