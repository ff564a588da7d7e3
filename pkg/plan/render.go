package plan

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// Render writes the graph in dependency order: one "id (type)" line per resource followed by
// "-> dependency" lines.
func Render(w io.Writer, g *Graph) error {
	order, err := g.Order()
	if err != nil {
		return err
	}
	for _, r := range order {
		if _, err := fmt.Fprintf(w, "%s (%s)\n", r.ID, r.Type); err != nil {
			return err
		}
		for _, dep := range g.Dependencies(r.ID) {
			if _, err := fmt.Fprintf(w, "-> %s\n", dep); err != nil {
				return err
			}
		}
	}
	return nil
}

// String renders g to a string.
func String(g *Graph) (string, error) {
	var b strings.Builder
	err := Render(&b, g)
	return b.String(), err
}

func sortImports(imports []*Import) {
	sort.Slice(imports, func(i, j int) bool {
		return importKey(imports[i].Kind, imports[i].Name) < importKey(imports[j].Kind, imports[j].Name)
	})
}
