// Package dumper extracts a live database into the on-disk layout the rest
// of the pipeline consumes: schemas become directories, objects become one
// DDL file each under metadata/<schema>/<object>.sql, stage contents are
// downloaded under stages/, and the catalog plus referenced-stage list are
// written as JSON. Extraction runs to completion before any later stage
// touches the output.
package dumper

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/snowappify/snowappify/internal/catalog"
	"github.com/snowappify/snowappify/internal/identifier"
	"github.com/snowappify/snowappify/internal/logger"
)

// Layout of the dump inside the project directory.
const (
	MetadataDir   = "metadata"
	StagesDir     = "stages"
	CatalogFile   = "catalog.json"
	StageRefsFile = "stage_refs.json"
	OrderingFile  = "ordering.json"
)

// systemSchemas are never dumped.
var systemSchemas = map[string]bool{
	"INFORMATION_SCHEMA": true,
}

// stageTokenRe finds stage-mount tokens (@db.schema.stage) inside dumped
// DDL so referenced stages can be collected for relocation.
var stageTokenRe = regexp.MustCompile(
	`@((?:"[^"]*"|[A-Za-z_][A-Za-z0-9_$]*)\.(?:"[^"]*"|[A-Za-z_][A-Za-z0-9_$]*)\.(?:"[^"]*"|[A-Za-z_][A-Za-z0-9_$]*))`)

// Dumper extracts one database into targetPath.
type Dumper struct {
	db         *sql.DB
	database   string
	targetPath string
}

// New returns a Dumper for the named database writing under targetPath.
func New(db *sql.DB, database, targetPath string) *Dumper {
	return &Dumper{db: db, database: database, targetPath: targetPath}
}

// MetadataPath returns the directory DDL files are dumped into.
func (d *Dumper) MetadataPath() string {
	return filepath.Join(d.targetPath, MetadataDir)
}

// Execute dumps every supported object and returns the completed catalog and
// the referenced-stage list, after persisting both as JSON.
func (d *Dumper) Execute(ctx context.Context) (catalog.Catalog, []identifier.FullyQualifiedName, error) {
	log := logger.Get()
	builder := catalog.NewBuilder()

	refs, err := d.objectReferences(ctx)
	if err != nil {
		return nil, nil, err
	}

	schemas, err := d.listSchemas(ctx)
	if err != nil {
		return nil, nil, err
	}

	for _, schema := range schemas {
		log.Debug("dumping schema", "database", d.database, "schema", schema)
		if err := d.dumpSchema(ctx, builder, schema, refs); err != nil {
			return nil, nil, err
		}
	}

	cat, stageRefs := builder.Finalize()

	if err := cat.Save(filepath.Join(d.targetPath, CatalogFile)); err != nil {
		return nil, nil, err
	}
	if err := catalog.SaveStageRefs(filepath.Join(d.targetPath, StageRefsFile), stageRefs); err != nil {
		return nil, nil, err
	}

	for _, stage := range stageRefs {
		if err := d.downloadStage(ctx, stage); err != nil {
			return nil, nil, err
		}
	}

	return cat, stageRefs, nil
}

// dumpSchema extracts every supported object in one schema.
func (d *Dumper) dumpSchema(ctx context.Context, builder *catalog.Builder, schema string, refs map[string][]catalog.Reference) error {
	kinds := []struct {
		kind catalog.Kind
		list func(context.Context, string) ([]dumpedObject, error)
	}{
		{catalog.KindTable, d.listTables},
		{catalog.KindView, d.listViews},
		{catalog.KindFunction, d.listFunctions},
		{catalog.KindProcedure, d.listProcedures},
		{catalog.KindStage, d.listStages},
		{catalog.KindStreamlit, d.listStreamlits},
	}

	for _, k := range kinds {
		objects, err := k.list(ctx, schema)
		if err != nil {
			return err
		}
		for _, obj := range objects {
			if err := d.dumpObject(ctx, builder, k.kind, schema, obj, refs); err != nil {
				return err
			}
		}
	}
	return nil
}

// dumpedObject is one row of a SHOW command: the object name plus the call
// signature for callables.
type dumpedObject struct {
	name string
	args string
}

// dumpObject writes one object's DDL file and records its catalog entry.
func (d *Dumper) dumpObject(ctx context.Context, builder *catalog.Builder, kind catalog.Kind, schema string, obj dumpedObject, refs map[string][]catalog.Reference) error {
	fqn := identifier.FullyQualifiedName{
		Database: identifier.QuoteIfNeeded(d.database),
		Schema:   identifier.QuoteIfNeeded(schema),
		Name:     identifier.QuoteIfNeeded(obj.name),
		Args:     obj.args,
	}

	ddl, err := d.getDDL(ctx, kind, fqn)
	if err != nil {
		return err
	}

	relPath := schema + "/" + obj.name + ".sql"
	fullPath := filepath.Join(d.MetadataPath(), filepath.FromSlash(relPath))
	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create dump directory: %w", err)
	}
	if err := os.WriteFile(fullPath, []byte(ddl), 0644); err != nil {
		return fmt.Errorf("failed to write DDL for %s: %w", fqn, err)
	}

	name := fqn.Name
	if obj.args != "" {
		name += obj.args
	}
	entry := catalog.Entry{
		Kind:       kind,
		Database:   fqn.Database,
		Schema:     fqn.Schema,
		Name:       name,
		Path:       relPath,
		References: refs[fqn.Key()],
	}
	if err := builder.AddEntry(fqn, entry); err != nil {
		return err
	}

	// Stage mounts referenced by callables and streamlit apps must be
	// relocated later, so collect them while the DDL is in hand.
	if kind.IsCallable() || kind == catalog.KindStreamlit {
		for _, m := range stageTokenRe.FindAllStringSubmatch(ddl, -1) {
			stage, err := identifier.Parse(m[1])
			if err != nil {
				continue
			}
			builder.AddStageReference(stage)
		}
	}
	return nil
}

// getDDL fetches an object's DDL with fully-qualified names enabled.
func (d *Dumper) getDDL(ctx context.Context, kind catalog.Kind, fqn identifier.FullyQualifiedName) (string, error) {
	target := fqn.String()
	query := fmt.Sprintf("select get_ddl('%s', '%s', true)", strings.ToUpper(string(kind)), strings.ReplaceAll(target, "'", "''"))
	logger.Get().Debug("executing query", "query", query)
	var ddl string
	if err := d.db.QueryRowContext(ctx, query).Scan(&ddl); err != nil {
		return "", fmt.Errorf("failed to fetch DDL for %s: %w", target, err)
	}
	return ddl, nil
}

// objectReferences loads the raw dependency list for every object in the
// database, keyed by the referencing object's canonical name.
func (d *Dumper) objectReferences(ctx context.Context) (map[string][]catalog.Reference, error) {
	query := `
		select referencing_schema, referencing_object_name,
		       referenced_database, referenced_schema, referenced_object_name,
		       referenced_object_domain
		from snowflake.account_usage.object_dependencies
		where referencing_database = ?`
	rows, err := d.db.QueryContext(ctx, query, d.database)
	if err != nil {
		return nil, fmt.Errorf("failed to query object dependencies: %w", err)
	}
	defer rows.Close()

	refs := make(map[string][]catalog.Reference)
	for rows.Next() {
		var refSchema, refName, tgtDB, tgtSchema, tgtName, domain string
		if err := rows.Scan(&refSchema, &refName, &tgtDB, &tgtSchema, &tgtName, &domain); err != nil {
			return nil, fmt.Errorf("failed to scan object dependency row: %w", err)
		}
		kind, err := catalog.ParseKind(strings.ToLower(domain))
		if err != nil {
			// Domains we do not dump (sequences, tasks, ...) cannot become
			// ordering edges anyway.
			continue
		}
		referencer := identifier.FullyQualifiedName{
			Database: identifier.QuoteIfNeeded(d.database),
			Schema:   identifier.QuoteIfNeeded(refSchema),
			Name:     identifier.QuoteIfNeeded(refName),
		}
		target := identifier.FullyQualifiedName{
			Database: identifier.QuoteIfNeeded(tgtDB),
			Schema:   identifier.QuoteIfNeeded(tgtSchema),
			Name:     identifier.QuoteIfNeeded(tgtName),
		}
		refs[referencer.Key()] = append(refs[referencer.Key()], catalog.Reference{
			Name: target.String(),
			Kind: kind,
		})
	}
	return refs, rows.Err()
}

// downloadStage pulls a stage's contents under stages/<db>/<schema>/<stage>/.
func (d *Dumper) downloadStage(ctx context.Context, stage identifier.FullyQualifiedName) error {
	dir := filepath.Join(d.targetPath, StagesDir,
		identifier.Unquote(stage.Database),
		identifier.Unquote(stage.Schema),
		identifier.Unquote(stage.Name))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create stage directory: %w", err)
	}
	query := fmt.Sprintf("get @%s 'file://%s/'", stage, filepath.ToSlash(dir))
	if _, err := d.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to download stage %s: %w", stage, err)
	}
	return nil
}
