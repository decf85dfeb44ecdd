package rewrite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/snowappify/snowappify/internal/catalog"
	"github.com/snowappify/snowappify/internal/depgraph"
	"github.com/snowappify/snowappify/internal/identifier"
)

func newTestRewriter(stages ...string) *Rewriter {
	var refs []identifier.FullyQualifiedName
	for _, s := range stages {
		refs = append(refs, identifier.MustParse(s))
	}
	return New("", refs)
}

func TestRelocateStageImports(t *testing.T) {
	r := newTestRewriter("mydb.myschema.mystage")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "path suffix",
			in:   "imports=('@mydb.myschema.mystage/path/to/file')",
			want: "imports=('/stages/mydb/myschema/mystage/path/to/file')",
		},
		{
			name: "directory import",
			in:   "imports=('@mydb.myschema.mystage/')",
			want: "imports=('/stages/mydb/myschema/mystage/')",
		},
		{
			name: "root reference without suffix",
			in:   "root_location = '@mydb.myschema.mystage'",
			want: "root_location = '/stages/mydb/myschema/mystage'",
		},
		{
			name: "unrelated stage untouched",
			in:   "imports=('@other.schema.stage/file.py')",
			want: "imports=('@other.schema.stage/file.py')",
		},
		{
			name: "longer stage name untouched",
			in:   "imports=('@mydb.myschema.mystage2/file.py')",
			want: "imports=('@mydb.myschema.mystage2/file.py')",
		},
		{
			name: "case insensitive for unquoted parts",
			in:   "imports=('@MYDB.MYSCHEMA.MYSTAGE/lib.py')",
			want: "imports=('/stages/mydb/myschema/mystage/lib.py')",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.RelocateStageImports(tt.in); got != tt.want {
				t.Errorf("RelocateStageImports(%q)\n got %q\nwant %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRewriteQualifiesCreatedName(t *testing.T) {
	r := newTestRewriter()

	tests := []struct {
		name  string
		entry catalog.Entry
		in    string
		want  string
	}{
		{
			name: "database-qualified table",
			entry: catalog.Entry{
				Kind: catalog.KindTable, Database: "MYDB", Schema: "S1", Name: "ORDERS", Path: "S1/ORDERS.sql",
			},
			in:   "create or replace TABLE MYDB.S1.ORDERS (ID NUMBER);",
			want: "create or replace TABLE S1.ORDERS (ID NUMBER);",
		},
		{
			name: "unqualified function keeps its own signature",
			entry: catalog.Entry{
				Kind: catalog.KindFunction, Database: "MYDB", Schema: "S1", Name: "ADD_ONE(NUMBER)", Path: "S1/ADD_ONE.sql",
			},
			in:   "CREATE OR REPLACE FUNCTION ADD_ONE(X NUMBER)\nRETURNS NUMBER\nAS 'X + 1';",
			want: "CREATE OR REPLACE FUNCTION S1.ADD_ONE(X NUMBER)\nRETURNS NUMBER\nAS 'X + 1';",
		},
		{
			name: "ddl keyword preserved over catalog kind",
			entry: catalog.Entry{
				// The catalog says table; the DDL says view. The DDL wins in
				// the emitted text.
				Kind: catalog.KindTable, Database: "MYDB", Schema: "S1", Name: "V1", Path: "S1/V1.sql",
			},
			in:   "create or replace secure view MYDB.S1.V1 as select 1;",
			want: "create or replace secure view S1.V1 as select 1;",
		},
		{
			name: "quoted schema requoted",
			entry: catalog.Entry{
				Kind: catalog.KindTable, Database: "MYDB", Schema: `"my schema"`, Name: "T", Path: "my schema/T.sql",
			},
			in:   `create or replace table MYDB."my schema".T (ID NUMBER);`,
			want: `create or replace table "my schema".T (ID NUMBER);`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Rewrite(tt.in, tt.entry, nil)
			if err != nil {
				t.Fatalf("Rewrite failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Rewrite\n got %q\nwant %q", got, tt.want)
			}
		})
	}
}

func TestRewriteMissingCreateHeader(t *testing.T) {
	r := newTestRewriter()
	entry := catalog.Entry{Kind: catalog.KindTable, Database: "MYDB", Schema: "S1", Name: "T", Path: "S1/T.sql"}

	_, err := r.Rewrite("-- nothing here\nselect 1;", entry, nil)
	var malformed *MalformedDDLError
	if !errors.As(err, &malformed) {
		t.Fatalf("Rewrite returned %v, want *MalformedDDLError", err)
	}
	if malformed.Property != "create statement" || malformed.Path != "S1/T.sql" {
		t.Errorf("unexpected error detail: %+v", malformed)
	}
}

func TestRewriteRedirectsExternalReferences(t *testing.T) {
	r := newTestRewriter()
	entry := catalog.Entry{Kind: catalog.KindView, Database: "MYDB", Schema: "S1", Name: "V", Path: "S1/V.sql"}
	external := []depgraph.ExternalReference{
		{Referencer: "MYDB.S1.V", Target: identifier.MustParse("D2.PUBLIC.T"), Kind: catalog.KindTable},
	}

	in := "create or replace view MYDB.S1.V as\n" +
		"select * from D2.PUBLIC.T\n" +
		"join D2.PUBLIC.T2 on true\n" + // different object, must stay
		"join XD2.PUBLIC.T on true;" // different database, must stay
	got, err := r.Rewrite(in, entry, external)
	if err != nil {
		t.Fatalf("Rewrite failed: %v", err)
	}

	if !strings.Contains(got, "select * from PACKAGE_SHARED.D2_PUBLIC_T\n") {
		t.Errorf("external reference not redirected:\n%s", got)
	}
	if !strings.Contains(got, "D2.PUBLIC.T2") {
		t.Errorf("similar-looking identifier was rewritten:\n%s", got)
	}
	if !strings.Contains(got, "XD2.PUBLIC.T") {
		t.Errorf("substring match was rewritten:\n%s", got)
	}
}

func TestRewriteRedirectsAdjacentExternalReferences(t *testing.T) {
	r := newTestRewriter()
	entry := catalog.Entry{Kind: catalog.KindView, Database: "MYDB", Schema: "S1", Name: "V", Path: "S1/V.sql"}
	external := []depgraph.ExternalReference{
		{Referencer: "MYDB.S1.V", Target: identifier.MustParse("D2.S2.T"), Kind: catalog.KindTable},
	}

	// Occurrences separated by a single character share a boundary; both must
	// still be redirected.
	in := "create or replace view MYDB.S1.V as select * from D2.S2.T,D2.S2.T"
	got, err := r.Rewrite(in, entry, external)
	if err != nil {
		t.Fatalf("Rewrite failed: %v", err)
	}
	want := "create or replace view S1.V as select * from PACKAGE_SHARED.D2_S2_T,PACKAGE_SHARED.D2_S2_T"
	if got != want {
		t.Errorf("Rewrite\n got %q\nwant %q", got, want)
	}
}

func TestRewriteRejectsExternalReferenceFromNonView(t *testing.T) {
	r := newTestRewriter()
	entry := catalog.Entry{Kind: catalog.KindTable, Database: "MYDB", Schema: "S1", Name: "T", Path: "S1/T.sql"}
	external := []depgraph.ExternalReference{
		{Referencer: "MYDB.S1.T", Target: identifier.MustParse("D2.PUBLIC.T"), Kind: catalog.KindTable},
	}

	_, err := r.Rewrite("create or replace table MYDB.S1.T (ID NUMBER);", entry, external)
	var unsupported *UnsupportedExternalReferenceError
	if !errors.As(err, &unsupported) {
		t.Fatalf("Rewrite returned %v, want *UnsupportedExternalReferenceError", err)
	}
	if unsupported.Keyword != "table" {
		t.Errorf("error keyword = %q, want ddl keyword %q", unsupported.Keyword, "table")
	}
}

func TestProxyViewName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"D2.PUBLIC.T", "D2_PUBLIC_T"},
		// A quoted lowercase part forces the whole proxy name into quotes.
		{`D2.PUBLIC."events"`, `"D2_PUBLIC_events"`},
	}
	for _, tt := range tests {
		if got := ProxyViewName(identifier.MustParse(tt.input)); got != tt.want {
			t.Errorf("ProxyViewName(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestRewriteAllRewritesFilesInPlace(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "S1"), 0755); err != nil {
		t.Fatal(err)
	}
	ddlPath := filepath.Join(dir, "S1", "ORDERS.sql")
	if err := os.WriteFile(ddlPath, []byte("create or replace TABLE MYDB.S1.ORDERS (ID NUMBER);"), 0644); err != nil {
		t.Fatal(err)
	}

	cat := catalog.Catalog{
		"MYDB.S1.ORDERS": {Kind: catalog.KindTable, Database: "MYDB", Schema: "S1", Name: "ORDERS", Path: "S1/ORDERS.sql"},
	}

	r := New(dir, nil)
	if err := r.RewriteAll(context.Background(), cat, nil); err != nil {
		t.Fatalf("RewriteAll failed: %v", err)
	}

	got, err := os.ReadFile(ddlPath)
	if err != nil {
		t.Fatal(err)
	}
	want := "create or replace TABLE S1.ORDERS (ID NUMBER);"
	if string(got) != want {
		t.Errorf("rewritten file = %q, want %q", got, want)
	}
}
