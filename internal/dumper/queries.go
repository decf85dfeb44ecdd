package dumper

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/snowappify/snowappify/internal/identifier"
	"github.com/snowappify/snowappify/internal/logger"
)

// queryMaps runs a SHOW-style query and returns each row as a column-name to
// value map. SHOW output has wide, version-dependent column sets, so rows
// are scanned generically instead of positionally.
func (d *Dumper) queryMaps(ctx context.Context, query string) ([]map[string]string, error) {
	logger.Get().Debug("executing query", "query", query)
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query %q failed: %w", query, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns for %q: %w", query, err)
	}

	var result []map[string]string
	for rows.Next() {
		values := make([]sql.NullString, len(cols))
		scanArgs := make([]any, len(cols))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, fmt.Errorf("failed to scan row for %q: %w", query, err)
		}
		row := make(map[string]string, len(cols))
		for i, col := range cols {
			row[col] = values[i].String
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

// schemaRef renders db.schema for use in SHOW ... IN SCHEMA commands.
func (d *Dumper) schemaRef(schema string) string {
	return identifier.QuoteIfNeeded(d.database) + "." + identifier.QuoteIfNeeded(schema)
}

func (d *Dumper) listSchemas(ctx context.Context) ([]string, error) {
	rows, err := d.queryMaps(ctx, fmt.Sprintf("show schemas in database %s", identifier.QuoteIfNeeded(d.database)))
	if err != nil {
		return nil, err
	}
	var schemas []string
	for _, row := range rows {
		name := row["name"]
		if systemSchemas[name] {
			continue
		}
		schemas = append(schemas, name)
	}
	return schemas, nil
}

func (d *Dumper) listNamed(ctx context.Context, what, schema string) ([]dumpedObject, error) {
	rows, err := d.queryMaps(ctx, fmt.Sprintf("show %s in schema %s", what, d.schemaRef(schema)))
	if err != nil {
		return nil, err
	}
	var objects []dumpedObject
	for _, row := range rows {
		objects = append(objects, dumpedObject{name: row["name"]})
	}
	return objects, nil
}

func (d *Dumper) listTables(ctx context.Context, schema string) ([]dumpedObject, error) {
	return d.listNamed(ctx, "tables", schema)
}

func (d *Dumper) listViews(ctx context.Context, schema string) ([]dumpedObject, error) {
	return d.listNamed(ctx, "views", schema)
}

func (d *Dumper) listStages(ctx context.Context, schema string) ([]dumpedObject, error) {
	return d.listNamed(ctx, "stages", schema)
}

func (d *Dumper) listStreamlits(ctx context.Context, schema string) ([]dumpedObject, error) {
	return d.listNamed(ctx, "streamlits", schema)
}

func (d *Dumper) listFunctions(ctx context.Context, schema string) ([]dumpedObject, error) {
	return d.listCallables(ctx, "user functions", schema)
}

func (d *Dumper) listProcedures(ctx context.Context, schema string) ([]dumpedObject, error) {
	return d.listCallables(ctx, "procedures", schema)
}

// listCallables lists functions or procedures; the signature needed to
// address a callable comes from the SHOW output's arguments column.
func (d *Dumper) listCallables(ctx context.Context, what, schema string) ([]dumpedObject, error) {
	rows, err := d.queryMaps(ctx, fmt.Sprintf("show %s in schema %s", what, d.schemaRef(schema)))
	if err != nil {
		return nil, err
	}
	var objects []dumpedObject
	for _, row := range rows {
		args, err := signatureFromArguments(row["arguments"])
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", schema, err)
		}
		objects = append(objects, dumpedObject{name: row["name"], args: args})
	}
	return objects, nil
}

// signatureFromArguments extracts the parenthesized argument-type list from
// a SHOW FUNCTIONS/PROCEDURES arguments value, which reads
// "NAME(TYPE, ...) RETURN TYPE".
func signatureFromArguments(arguments string) (string, error) {
	open := strings.IndexByte(arguments, '(')
	end := strings.IndexByte(arguments, ')')
	if open < 0 || end < open {
		return "", fmt.Errorf("unparsable callable arguments %q", arguments)
	}
	return arguments[open : end+1], nil
}
