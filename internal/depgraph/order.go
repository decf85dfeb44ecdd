package depgraph

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/dominikbraun/graph"

	"github.com/snowappify/snowappify/internal/utils"
)

// CyclicDependencyError reports that no creation order exists. Members holds
// the rendered names of at least one dependency cycle.
type CyclicDependencyError struct {
	Members []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("cyclic dependency between objects: %s", strings.Join(e.Members, ", "))
}

// Order computes a total creation order over the graph: every dependency
// appears before its dependents, independent objects tie-break in ascending
// lexical order of their canonical name. The result is byte-identical across
// runs over identical input. A cycle aborts with CyclicDependencyError; no
// partial order is ever returned.
func Order(g *Graph) ([]string, error) {
	dg := graph.New(graph.StringHash, graph.Directed())

	for _, key := range utils.SortedKeys(g.Nodes) {
		if err := dg.AddVertex(key); err != nil {
			return nil, fmt.Errorf("failed to add graph vertex %s: %w", key, err)
		}
	}

	for _, node := range utils.SortedKeys(g.Edges) {
		for _, dep := range utils.SortedKeys(g.Edges[node]) {
			if _, known := g.Nodes[dep]; !known {
				return nil, fmt.Errorf("object %s depends on %s, which is not in the catalog", g.Nodes[node], dep)
			}
			// Dependency first: an edge dep -> node makes dep precede node
			// in the topological order.
			if err := dg.AddEdge(dep, node); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, fmt.Errorf("failed to add graph edge %s -> %s: %w", dep, node, err)
			}
		}
	}

	keys, err := graph.StableTopologicalSort(dg, func(a, b string) bool { return a < b })
	if err != nil {
		return nil, cycleError(g, dg)
	}

	names := make([]string, 0, len(keys))
	for _, key := range keys {
		names = append(names, g.Nodes[key])
	}
	return names, nil
}

// cycleError names the members of one unresolvable cycle by looking for a
// non-trivial strongly connected component.
func cycleError(g *Graph, dg graph.Graph[string, string]) error {
	sccs, err := graph.StronglyConnectedComponents(dg)
	if err != nil {
		return &CyclicDependencyError{}
	}
	for _, scc := range sccs {
		if len(scc) < 2 {
			continue
		}
		sort.Strings(scc)
		members := make([]string, 0, len(scc))
		for _, key := range scc {
			members = append(members, g.Nodes[key])
		}
		return &CyclicDependencyError{Members: members}
	}
	return &CyclicDependencyError{}
}
