// Package depgraph builds the dependency graph between dumped objects from
// their raw catalog reference lists and computes a deterministic,
// dependency-respecting creation order over it.
package depgraph

import (
	"fmt"
	"strings"

	"github.com/snowappify/snowappify/internal/catalog"
	"github.com/snowappify/snowappify/internal/identifier"
)

// Graph is the dependency graph over catalog objects. It is a plain
// adjacency mapping so tests can state expectations as data literals.
type Graph struct {
	// Nodes maps the canonical node key to the rendered catalog name.
	Nodes map[string]string
	// Edges maps a node key to the set of node keys it depends on.
	Edges map[string]map[string]struct{}
}

// ExternalReference is a reference from a catalog object to a table or view
// owned by a different database than the referencing object's source.
type ExternalReference struct {
	// Referencer is the catalog name of the object holding the reference.
	Referencer string
	// Target is the referenced external object.
	Target identifier.FullyQualifiedName
	// Kind is the referenced object's kind as reported by the source.
	Kind catalog.Kind
}

// BuildResult carries the ordering graph plus the cross-database references
// detected along the way. External references never become ordering edges;
// the rewriter and package-script generator consume them instead.
type BuildResult struct {
	Graph    *Graph
	External []ExternalReference
}

// Build normalizes every raw reference in the catalog into graph edges.
// Nodes are keyed by the canonical name plus the call signature, so callable
// overloads stay distinct objects. References are matched on the bare name
// (argument-list and return-type cruft stripped) and resolve to every
// overload carrying that name. References that resolve to nothing in the
// catalog are dropped from the edge set; references owned by a foreign
// database are reported as external. Malformed reference strings fail with
// an error naming the offending raw text.
func Build(cat catalog.Catalog) (*BuildResult, error) {
	g := &Graph{
		Nodes: make(map[string]string),
		Edges: make(map[string]map[string]struct{}),
	}

	// Index every catalog object by its canonical bare key first, so
	// references resolve regardless of quoting or signature differences.
	// A bare key maps to all overloads sharing it, in sorted order.
	byBareKey := make(map[string][]string)
	for _, name := range cat.SortedNames() {
		fqn := cat[name].FQN()
		key := fqn.Key() + fqn.Args
		g.Nodes[key] = name
		g.Edges[key] = make(map[string]struct{})
		byBareKey[fqn.Key()] = append(byBareKey[fqn.Key()], key)
	}

	var external []ExternalReference
	for _, name := range cat.SortedNames() {
		entry := cat[name]
		fqn := entry.FQN()
		nodeKey := fqn.Key() + fqn.Args
		sourceDB := identifier.Normalize(entry.Database)

		for _, ref := range entry.References {
			target, err := normalizeReference(ref)
			if err != nil {
				return nil, fmt.Errorf("object %s: %w", name, err)
			}
			targetKey := target.Key()
			if targetKey == fqn.Key() {
				// References to the object's own name (itself or a sibling
				// overload) carry no usable ordering information.
				continue
			}
			if identifier.Normalize(target.Database) != sourceDB {
				if ref.Kind != catalog.KindTable && ref.Kind != catalog.KindView {
					return nil, fmt.Errorf("object %s references %s %s in another database; only external tables and views are supported",
						name, ref.Kind, target)
				}
				external = append(external, ExternalReference{
					Referencer: name,
					Target:     target,
					Kind:       ref.Kind,
				})
				continue
			}
			overloads, known := byBareKey[targetKey]
			if !known {
				// System objects and other names outside the catalog do not
				// participate in ordering.
				continue
			}
			// A bare reference cannot name one overload, so it depends on all
			// of them.
			for _, dep := range overloads {
				g.Edges[nodeKey][dep] = struct{}{}
			}
		}
	}

	return &BuildResult{Graph: g, External: external}, nil
}

// normalizeReference canonicalizes one raw reference string into a
// fully-qualified name. Callable references are reported by the source with
// trailing signature or return-type noise after the bare name; everything
// from the first top-level parenthesis on is discarded for matching.
func normalizeReference(ref catalog.Reference) (identifier.FullyQualifiedName, error) {
	raw := strings.TrimSpace(ref.Name)
	if ref.Kind.IsCallable() {
		if i := strings.IndexByte(raw, '('); i >= 0 {
			raw = strings.TrimSpace(raw[:i])
		}
		// SHOW FUNCTIONS style noise: NAME(ARGS):RETURNTYPE
		if i := strings.IndexByte(raw, ':'); i >= 0 {
			raw = strings.TrimSpace(raw[:i])
		}
	}
	fqn, err := identifier.Parse(raw)
	if err != nil {
		return identifier.FullyQualifiedName{}, fmt.Errorf("malformed reference %q: %w", ref.Name, err)
	}
	return fqn.WithoutArguments(), nil
}
