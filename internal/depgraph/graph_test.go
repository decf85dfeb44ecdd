package depgraph

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/snowappify/snowappify/internal/catalog"
)

func TestBuildEdgesFromReferences(t *testing.T) {
	cat := catalog.Catalog{
		"MYDB.PUBLIC.ORDERS": {
			Kind: catalog.KindTable, Database: "MYDB", Schema: "PUBLIC", Name: "ORDERS",
		},
		"MYDB.PUBLIC.ORDER_SUMMARY": {
			Kind: catalog.KindView, Database: "MYDB", Schema: "PUBLIC", Name: "ORDER_SUMMARY",
			References: []catalog.Reference{
				{Name: "MYDB.PUBLIC.ORDERS", Kind: catalog.KindTable},
			},
		},
	}

	result, err := Build(cat)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	wantEdges := map[string]map[string]struct{}{
		"MYDB.PUBLIC.ORDERS":        {},
		"MYDB.PUBLIC.ORDER_SUMMARY": {"MYDB.PUBLIC.ORDERS": {}},
	}
	if diff := cmp.Diff(wantEdges, result.Graph.Edges); diff != "" {
		t.Errorf("edges mismatch (-want +got):\n%s", diff)
	}
	if len(result.External) != 0 {
		t.Errorf("unexpected external references: %v", result.External)
	}
}

func TestBuildNormalizesCallableReferences(t *testing.T) {
	cat := catalog.Catalog{
		"MYDB.PUBLIC.ADD_ONE(NUMBER)": {
			Kind: catalog.KindFunction, Database: "MYDB", Schema: "PUBLIC", Name: "ADD_ONE(NUMBER)",
		},
		"MYDB.PUBLIC.WRAPPER(NUMBER)": {
			Kind: catalog.KindFunction, Database: "MYDB", Schema: "PUBLIC", Name: "WRAPPER(NUMBER)",
			References: []catalog.Reference{
				// Trailing signature and return-type noise must not prevent
				// the bare-name match.
				{Name: "MYDB.PUBLIC.ADD_ONE(FLOAT):FLOAT", Kind: catalog.KindFunction},
			},
		},
	}

	result, err := Build(cat)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	deps := result.Graph.Edges["MYDB.PUBLIC.WRAPPER(NUMBER)"]
	if _, ok := deps["MYDB.PUBLIC.ADD_ONE(NUMBER)"]; !ok {
		t.Errorf("callable reference not normalized, edges: %v", result.Graph.Edges)
	}
}

func TestBuildKeepsCallableOverloadsDistinct(t *testing.T) {
	cat := catalog.Catalog{
		"MYDB.S1.FN(VARCHAR)": {
			Kind: catalog.KindFunction, Database: "MYDB", Schema: "S1", Name: "FN(VARCHAR)",
		},
		"MYDB.S1.FN(NUMBER)": {
			Kind: catalog.KindFunction, Database: "MYDB", Schema: "S1", Name: "FN(NUMBER)",
		},
		"MYDB.S1.V": {
			Kind: catalog.KindView, Database: "MYDB", Schema: "S1", Name: "V",
			References: []catalog.Reference{
				{Name: "MYDB.S1.FN(VARCHAR):VARCHAR", Kind: catalog.KindFunction},
			},
		},
	}

	result, err := Build(cat)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got := len(result.Graph.Nodes); got != len(cat) {
		t.Fatalf("catalog has %d objects but graph has %d nodes: %v", len(cat), got, result.Graph.Nodes)
	}

	// A bare callable reference depends on every overload of that name.
	wantDeps := map[string]struct{}{
		"MYDB.S1.FN(NUMBER)":  {},
		"MYDB.S1.FN(VARCHAR)": {},
	}
	if diff := cmp.Diff(wantDeps, result.Graph.Edges["MYDB.S1.V"]); diff != "" {
		t.Errorf("overload edges mismatch (-want +got):\n%s", diff)
	}

	ordering, err := Order(result.Graph)
	if err != nil {
		t.Fatalf("Order failed: %v", err)
	}
	if len(ordering) != len(cat) {
		t.Fatalf("catalog has %d objects but ordering has %d: %v", len(cat), len(ordering), ordering)
	}
}

func TestBuildDropsSelfAndUnknownReferences(t *testing.T) {
	cat := catalog.Catalog{
		"MYDB.PUBLIC.T": {
			Kind: catalog.KindTable, Database: "MYDB", Schema: "PUBLIC", Name: "T",
			References: []catalog.Reference{
				{Name: "MYDB.PUBLIC.T", Kind: catalog.KindTable},
				{Name: "MYDB.INFORMATION_SCHEMA.TABLES", Kind: catalog.KindView},
			},
		},
	}

	result, err := Build(cat)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if got := len(result.Graph.Edges["MYDB.PUBLIC.T"]); got != 0 {
		t.Errorf("want no edges, got %v", result.Graph.Edges["MYDB.PUBLIC.T"])
	}
}

func TestBuildDetectsExternalReferences(t *testing.T) {
	cat := catalog.Catalog{
		"MYDB.PUBLIC.V": {
			Kind: catalog.KindView, Database: "MYDB", Schema: "PUBLIC", Name: "V",
			References: []catalog.Reference{
				{Name: "OTHERDB.PUBLIC.T", Kind: catalog.KindTable},
			},
		},
	}

	result, err := Build(cat)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if len(result.External) != 1 {
		t.Fatalf("want 1 external reference, got %d", len(result.External))
	}
	ext := result.External[0]
	if ext.Referencer != "MYDB.PUBLIC.V" || ext.Target.String() != "OTHERDB.PUBLIC.T" {
		t.Errorf("unexpected external reference: %+v", ext)
	}
	// External references never become ordering edges.
	if got := len(result.Graph.Edges["MYDB.PUBLIC.V"]); got != 0 {
		t.Errorf("external reference leaked into ordering edges: %v", result.Graph.Edges["MYDB.PUBLIC.V"])
	}
}

func TestBuildRejectsExternalCallableReference(t *testing.T) {
	cat := catalog.Catalog{
		"MYDB.PUBLIC.V": {
			Kind: catalog.KindView, Database: "MYDB", Schema: "PUBLIC", Name: "V",
			References: []catalog.Reference{
				// Only tables and views can be shared into the package; a
				// function in another database has no proxy representation.
				{Name: "OTHERDB.PUBLIC.FN(NUMBER):NUMBER", Kind: catalog.KindFunction},
			},
		},
	}

	_, err := Build(cat)
	if err == nil {
		t.Fatal("Build succeeded, want error for external function reference")
	}
	if !strings.Contains(err.Error(), "OTHERDB.PUBLIC.FN") {
		t.Errorf("error does not name the external target: %v", err)
	}
}

func TestBuildRejectsMalformedReference(t *testing.T) {
	cat := catalog.Catalog{
		"MYDB.PUBLIC.V": {
			Kind: catalog.KindView, Database: "MYDB", Schema: "PUBLIC", Name: "V",
			References: []catalog.Reference{
				{Name: "not-a-qualified-name", Kind: catalog.KindTable},
			},
		},
	}

	_, err := Build(cat)
	if err == nil {
		t.Fatal("Build succeeded, want error for malformed reference")
	}
	if !strings.Contains(err.Error(), "not-a-qualified-name") {
		t.Errorf("error does not identify the offending raw string: %v", err)
	}
}
