// Package setup emits the ordered statement sequence that recreates the
// dumped objects inside an application: role creation, versioned schemas and
// grants, per-object execute-immediate statements following the computed
// build order, and the package-side statements for cross-database references.
package setup

import (
	"fmt"
	"path"

	"github.com/snowappify/snowappify/internal/catalog"
	"github.com/snowappify/snowappify/internal/depgraph"
	"github.com/snowappify/snowappify/internal/identifier"
	"github.com/snowappify/snowappify/internal/logger"
	"github.com/snowappify/snowappify/internal/rewrite"
	"github.com/snowappify/snowappify/internal/utils"
)

// DefaultRole is the application role granted access to every object.
const DefaultRole = "app_public"

// DefaultMetadataPrefix is where the dumped DDL files land inside the app
// artifact, relative to the setup script.
const DefaultMetadataPrefix = "metadata"

// Options configures script generation. Zero values select the defaults.
type Options struct {
	Role           string
	MetadataPrefix string
	PackageSchema  string
}

func (o Options) withDefaults() Options {
	if o.Role == "" {
		o.Role = DefaultRole
	}
	if o.MetadataPrefix == "" {
		o.MetadataPrefix = DefaultMetadataPrefix
	}
	if o.PackageSchema == "" {
		o.PackageSchema = rewrite.DefaultPackageSchema
	}
	return o
}

// grantTemplates maps object kinds to the grant statement issued after the
// object is created. Kinds without an entry get no grant.
var grantTemplates = map[catalog.Kind]string{
	catalog.KindFunction:  "grant usage on function %s to application role %s;",
	catalog.KindProcedure: "grant usage on procedure %s to application role %s;",
	catalog.KindTable:     "grant select on table %s to application role %s;",
	catalog.KindView:      "grant select on view %s to application role %s;",
	catalog.KindStreamlit: "grant usage on streamlit %s to application role %s;",
}

// GenerateSetupStatements walks the build order and the catalog and returns
// the setup script statements in execution order. Ordering entries missing
// from the catalog are skipped with a diagnostic; everything else is emitted
// exactly once.
func GenerateSetupStatements(cat catalog.Catalog, ordering []string, opts Options) []string {
	opts = opts.withDefaults()
	log := logger.Get()

	statements := []string{
		fmt.Sprintf("create application role if not exists %s;", opts.Role),
	}

	// Schemas first, deduplicated, before any object statement.
	schemas := make(map[string]bool)
	for _, name := range cat.SortedNames() {
		schemas[renderIdent(cat[name].Schema)] = true
	}
	for _, schema := range utils.SortedKeys(schemas) {
		statements = append(statements,
			fmt.Sprintf("create or alter versioned schema %s;", schema),
			fmt.Sprintf("grant usage on schema %s to application role %s;", schema, opts.Role),
		)
	}

	for _, name := range ordering {
		entry, ok := cat[name]
		if !ok {
			log.Debug("ordering references object missing from catalog, skipping", "object", name)
			continue
		}
		statements = append(statements,
			fmt.Sprintf("execute immediate from '%s';", path.Join(opts.MetadataPrefix, entry.Path)))
		if tmpl, ok := grantTemplates[entry.Kind]; ok {
			statements = append(statements, fmt.Sprintf(tmpl, grantReference(entry), opts.Role))
		}
	}

	return statements
}

// GeneratePackageStatements returns the application-package statements that
// share external data with the app: the package schema, reference-usage
// grants per external database, and one proxy view per external object. The
// result is empty when there are no external references.
func GeneratePackageStatements(external []depgraph.ExternalReference, opts Options) []string {
	if len(external) == 0 {
		return nil
	}
	opts = opts.withDefaults()

	statements := []string{
		fmt.Sprintf("create schema if not exists %s;", opts.PackageSchema),
		fmt.Sprintf("grant usage on schema %s to share in application package {{ package_name }};", opts.PackageSchema),
	}

	databases := make(map[string]bool)
	targets := make(map[string]identifier.FullyQualifiedName)
	for _, ext := range external {
		databases[renderIdent(ext.Target.Database)] = true
		targets[ext.Target.Key()] = ext.Target
	}

	for _, db := range utils.SortedKeys(databases) {
		statements = append(statements,
			fmt.Sprintf("grant reference_usage on database %s to share in application package {{ package_name }};", db))
	}

	for _, key := range utils.SortedKeys(targets) {
		target := targets[key]
		proxy := opts.PackageSchema + "." + rewrite.ProxyViewName(target)
		statements = append(statements,
			fmt.Sprintf("create view if not exists %s as select * from %s;", proxy, target),
			fmt.Sprintf("grant select on view %s to share in application package {{ package_name }};", proxy),
		)
	}

	return statements
}

// grantReference renders the object as grants refer to it: target schema,
// bare name, and the call signature for callables.
func grantReference(entry catalog.Entry) string {
	fqn := entry.FQN()
	return renderIdent(entry.Schema) + "." + identifier.QuoteIfNeeded(fqn.BareName()) + fqn.Args
}

// renderIdent re-renders a dumped identifier part with canonical quoting.
func renderIdent(part string) string {
	return identifier.QuoteIfNeeded(identifier.Unquote(part))
}
