// Package catalog holds the dumped-object catalog: one entry per extracted
// database object, keyed by its fully-qualified name. The catalog is written
// once by the metadata dumper and read-only for every later pipeline stage.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/snowappify/snowappify/internal/identifier"
	"github.com/snowappify/snowappify/internal/utils"
)

// Kind classifies a dumped object.
type Kind string

const (
	KindFunction  Kind = "function"
	KindProcedure Kind = "procedure"
	KindTable     Kind = "table"
	KindView      Kind = "view"
	KindStage     Kind = "stage"
	KindStreamlit Kind = "streamlit"
)

// ParseKind converts a catalog or SHOW-output label into a Kind.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindFunction, KindProcedure, KindTable, KindView, KindStage, KindStreamlit:
		return Kind(s), nil
	}
	return "", fmt.Errorf("unknown object kind %q", s)
}

// IsCallable reports whether objects of this kind carry a call signature.
func (k Kind) IsCallable() bool {
	return k == KindFunction || k == KindProcedure
}

// Reference is one raw dependency as reported by the source system: the
// referenced name text verbatim plus the kind the source system claims.
type Reference struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Entry describes one dumped object. Path is the DDL file location relative
// to the metadata root, always <schema>/<object-name>.sql.
type Entry struct {
	Kind       Kind        `json:"kind"`
	Database   string      `json:"database"`
	Schema     string      `json:"schema"`
	Name       string      `json:"name"`
	Path       string      `json:"path"`
	References []Reference `json:"references,omitempty"`
}

// FQN reassembles the entry's fully-qualified name. For callables the call
// signature embedded in Name is split off into the Args field.
func (e Entry) FQN() identifier.FullyQualifiedName {
	fqn, err := identifier.Parse(e.Database + "." + e.Schema + "." + e.Name)
	if err != nil {
		// Entries are written by our own dumper; a malformed one means the
		// catalog file was edited by hand. Fall back to the raw parts.
		return identifier.FullyQualifiedName{Database: e.Database, Schema: e.Schema, Name: e.Name}
	}
	return fqn
}

// Catalog maps rendered fully-qualified names to their entries.
type Catalog map[string]Entry

// SortedNames returns the catalog keys in ascending lexical order, for
// deterministic iteration.
func (c Catalog) SortedNames() []string {
	return utils.SortedKeys(c)
}

// Load reads a catalog from its JSON file.
func Load(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	return c, nil
}

// Save writes the catalog as indented JSON. Map keys serialize sorted, so
// repeated runs over identical input produce byte-identical files.
func (c Catalog) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize catalog: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create catalog directory: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
