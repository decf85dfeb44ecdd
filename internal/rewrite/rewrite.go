// Package rewrite mutates dumped DDL text so the objects can be recreated
// inside an application package: stage imports are relocated under the app's
// /stages tree, created names are re-qualified into their target schema, and
// cross-database view references are redirected through local proxy views.
//
// Rewriting is in-place and must run exactly once per object. Re-applying it
// to already-rewritten text is unsupported and can corrupt the output, so
// callers rewrite only freshly dumped trees (or back up the originals).
package rewrite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/snowappify/snowappify/internal/catalog"
	"github.com/snowappify/snowappify/internal/depgraph"
	"github.com/snowappify/snowappify/internal/identifier"
	"github.com/snowappify/snowappify/internal/utils"
)

// DefaultPackageSchema is the application-package schema that hosts proxy
// views over external references.
const DefaultPackageSchema = "PACKAGE_SHARED"

// stagesPrefix is the fixed mount prefix stage contents are relocated under.
const stagesPrefix = "/stages"

// MalformedDDLError reports that an expected structural pattern was absent
// from dumped DDL text. It names the missing property and the source file,
// distinguishing dialect drift from plain I/O failures.
type MalformedDDLError struct {
	Property string
	Path     string
}

func (e *MalformedDDLError) Error() string {
	return fmt.Sprintf("malformed DDL: could not find %s in %s", e.Property, e.Path)
}

// UnsupportedExternalReferenceError reports a non-view object referencing
// data outside its source database. This is a policy violation, not a parse
// failure: only views can be redirected through proxy views.
type UnsupportedExternalReferenceError struct {
	Object  string
	Keyword string
	Target  string
}

func (e *UnsupportedExternalReferenceError) Error() string {
	return fmt.Sprintf("object %s is a %s but references %s in another database; only views may reference external databases",
		e.Object, e.Keyword, e.Target)
}

// Rewriter applies the DDL mutations for one dumped tree.
type Rewriter struct {
	// MetadataRoot is the directory holding <schema>/<object>.sql files.
	MetadataRoot string
	// StageRefs are the stages whose mount tokens must be relocated.
	StageRefs []identifier.FullyQualifiedName
	// PackageSchema hosts the proxy views for external references.
	PackageSchema string
}

// New returns a Rewriter over the dumped tree at metadataRoot.
func New(metadataRoot string, stageRefs []identifier.FullyQualifiedName) *Rewriter {
	return &Rewriter{
		MetadataRoot:  metadataRoot,
		StageRefs:     stageRefs,
		PackageSchema: DefaultPackageSchema,
	}
}

// RewriteAll rewrites every catalog object's DDL file in place. Objects are
// independent, so the work is spread over a bounded worker pool; each file is
// owned exclusively by the goroutine rewriting it. The first failure cancels
// the remaining work and is returned.
func (r *Rewriter) RewriteAll(ctx context.Context, cat catalog.Catalog, external []depgraph.ExternalReference) error {
	extByObject := make(map[string][]depgraph.ExternalReference)
	for _, ext := range external {
		extByObject[ext.Referencer] = append(extByObject[ext.Referencer], ext)
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, name := range cat.SortedNames() {
		entry := cat[name]
		exts := extByObject[name]
		g.Go(func() error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			return r.RewriteObject(entry, exts)
		})
	}
	return g.Wait()
}

// RewriteObject rewrites one object's DDL file in place.
func (r *Rewriter) RewriteObject(entry catalog.Entry, external []depgraph.ExternalReference) error {
	path := filepath.Join(r.MetadataRoot, filepath.FromSlash(entry.Path))
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read DDL for %s: %w", entry.FQN(), err)
	}

	text, err := r.Rewrite(string(raw), entry, external)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("failed to write rewritten DDL for %s: %w", entry.FQN(), err)
	}
	return nil
}

// Rewrite returns the rewritten DDL text for one object.
func (r *Rewriter) Rewrite(text string, entry catalog.Entry, external []depgraph.ExternalReference) (string, error) {
	if entry.Kind == catalog.KindStreamlit {
		return r.reconstructStreamlit(text, entry)
	}

	if entry.Kind.IsCallable() {
		text = r.RelocateStageImports(text)
	}

	header, ok := matchCreateHeader(text)
	if !ok {
		return "", &MalformedDDLError{Property: "create statement", Path: entry.Path}
	}

	// The external-reference policy keys off the kind keyword the DDL itself
	// uses, which can disagree with the catalog's classification.
	if len(external) > 0 && !strings.EqualFold(header.keyword, "view") {
		return "", &UnsupportedExternalReferenceError{
			Object:  entry.FQN().String(),
			Keyword: strings.ToLower(header.keyword),
			Target:  external[0].Target.String(),
		}
	}

	text = header.prefix + header.keyword + header.gap + r.qualifiedName(entry) + header.rest

	if len(external) > 0 {
		text = r.redirectExternalRefs(text, external)
	}
	return text, nil
}

// qualifiedName renders the name the object is recreated under: its own
// schema plus its bare name, each re-quoted as required. Any call signature
// in the DDL stays where it is, untouched after the spliced name.
func (r *Rewriter) qualifiedName(entry catalog.Entry) string {
	schema := identifier.QuoteIfNeeded(identifier.Unquote(entry.Schema))
	name := identifier.QuoteIfNeeded(entry.FQN().BareName())
	return schema + "." + name
}

// RelocateStageImports replaces every known stage-mount token with its
// relocated path under /stages. Directory imports (trailing slash) and root
// references use separate templates so they cannot cross-match, and only
// exact three-part stage names are touched.
func (r *Rewriter) RelocateStageImports(text string) string {
	for _, stage := range r.StageRefs {
		relocated := escapeReplacement(StagePath(stage))
		text = stageDirRe(stage).ReplaceAllString(text, relocated+"/")
		text = stageRootRe(stage).ReplaceAllString(text, relocated+"${1}")
	}
	return text
}

// StagePath returns the relocated mount path for a stage:
// /stages/<database>/<schema>/<stagename>, matching the dumped layout.
func StagePath(stage identifier.FullyQualifiedName) string {
	return stagesPrefix + "/" +
		identifier.Unquote(stage.Database) + "/" +
		identifier.Unquote(stage.Schema) + "/" +
		identifier.Unquote(stage.Name)
}

// redirectExternalRefs replaces each exact occurrence of an external object
// name with its proxy view in the package schema. Identifiers that merely
// look similar (substrings, shorter qualifications) are left untouched.
func (r *Rewriter) redirectExternalRefs(text string, external []depgraph.ExternalReference) string {
	targets := make(map[string]identifier.FullyQualifiedName)
	for _, ext := range external {
		targets[ext.Target.Key()] = ext.Target
	}
	for _, key := range utils.SortedKeys(targets) {
		target := targets[key]
		proxy := escapeReplacement(r.PackageSchema + "." + ProxyViewName(target))
		re := externalRefRe(target)
		// The boundary character is part of the match, so one pass skips an
		// occurrence that starts right after a previous match ends. Rescan
		// until the text is stable; the proxy name can never re-match.
		for {
			replaced := re.ReplaceAllString(text, "${1}"+proxy+"${2}")
			if replaced == text {
				break
			}
			text = replaced
		}
	}
	return text
}

// ProxyViewName derives the local proxy view identifier for an external
// object: database, schema and object name joined with underscores, with
// part separators rewritten so quoting rules still hold for the result.
func ProxyViewName(fqn identifier.FullyQualifiedName) string {
	joined := identifier.Normalize(fqn.Database) + "_" +
		identifier.Normalize(fqn.Schema) + "_" +
		identifier.Normalize(fqn.Name)
	return identifier.QuoteIfNeeded(joined)
}

// escapeReplacement makes a literal string safe for use as a
// Regexp.ReplaceAllString template.
func escapeReplacement(s string) string {
	return strings.ReplaceAll(s, "$", "$$")
}
