package rewrite

import (
	"regexp"
	"strings"

	"github.com/snowappify/snowappify/internal/identifier"
)

// Every anchored pattern against the generated-DDL dialect lives in this
// file. The dialect's phrasing drifts between versions of the source system;
// keeping the text matching in one place means drift is absorbed here only.

// identPart matches one identifier part, quoted or not.
const identPart = `(?:"[^"]*"|[A-Za-z_][A-Za-z0-9_$]*)`

// createHeaderRe matches the create-statement header of a dumped object:
// optional modifiers (or replace, secure, temporary, ...), the object kind
// keyword as actually written, and the created name with up to two
// qualifying parts. The argument list, if any, stays outside the match.
var createHeaderRe = regexp.MustCompile(
	`(?is)\A(\s*create\s+(?:or\s+replace\s+)?(?:[A-Za-z]+\s+)*?)` +
		`(function|procedure|table|view|stage|streamlit)` +
		`(\s+)(` + identPart + `(?:\.` + identPart + `){0,2})`)

// createHeader is the decomposed header match.
type createHeader struct {
	prefix  string // everything through the modifiers, verbatim
	keyword string // the kind keyword exactly as written in the DDL
	gap     string // whitespace between keyword and name
	name    string // the created name as written, possibly qualified
	rest    string // everything after the name (argument list onwards)
}

// matchCreateHeader decomposes ddl's create statement, or reports failure.
func matchCreateHeader(ddl string) (createHeader, bool) {
	m := createHeaderRe.FindStringSubmatchIndex(ddl)
	if m == nil {
		return createHeader{}, false
	}
	return createHeader{
		prefix:  ddl[m[2]:m[3]],
		keyword: ddl[m[4]:m[5]],
		gap:     ddl[m[6]:m[7]],
		name:    ddl[m[8]:m[9]],
		rest:    ddl[m[9]:],
	}, true
}

// Streamlit DDL as dumped is unreliable (missing closing quotes, missing
// fields), so the three fields we need are pulled out by dedicated line
// anchors and the statement is rebuilt from scratch.
var (
	streamlitNameRe = regexp.MustCompile(
		`(?im)^\s*create\s+(?:or\s+replace\s+)?streamlit\s+(` + identPart + `(?:\.` + identPart + `){0,2})`)
	// The closing quote is optional: dumped streamlit DDL is known to drop it.
	streamlitRootLocationRe = regexp.MustCompile(`(?im)^\s*root_location\s*=\s*'([^'\n]*)'?`)
	streamlitMainFileRe     = regexp.MustCompile(`(?im)^\s*main_file\s*=\s*'([^'\n]*?)'?\s*;?\s*$`)
)

// partPattern matches one identifier part in DDL text in either spelling.
// A part written unquoted names an upper-cased object, so occurrences may be
// unquoted in any case or quoted upper-case. A part written quoted matches
// its literal value, plus the unquoted spelling when the value happens to be
// writable bare.
func partPattern(part string) string {
	if identifier.IsQuoted(part) {
		value := identifier.Unquote(part)
		quoted := `"` + regexp.QuoteMeta(strings.ReplaceAll(value, `"`, `""`)) + `"`
		if identifier.NeedsQuoting(value) {
			return quoted
		}
		return `(?:` + quoted + `|(?i:` + regexp.QuoteMeta(value) + `))`
	}
	quoted := `"` + regexp.QuoteMeta(strings.ToUpper(part)) + `"`
	return `(?:` + quoted + `|(?i:` + regexp.QuoteMeta(part) + `))`
}

// fqnPattern matches an exact three-part occurrence of fqn. It deliberately
// has no boundary handling of its own; callers wrap it so that identifiers
// that merely contain or extend the name do not match.
func fqnPattern(fqn identifier.FullyQualifiedName) string {
	return partPattern(fqn.Database) + `\.` + partPattern(fqn.Schema) + `\.` + partPattern(fqn.Name)
}

// Boundary classes for exact-match replacement. Go's regexp has no
// lookaround, so the boundary characters are captured and re-emitted.
const (
	leftBoundary  = `(^|[^A-Za-z0-9_$".@])`
	rightBoundary = `($|[^A-Za-z0-9_$".])`
)

// externalRefRe matches an exact occurrence of an external object name,
// capturing the surrounding boundary characters.
func externalRefRe(fqn identifier.FullyQualifiedName) *regexp.Regexp {
	return regexp.MustCompile(leftBoundary + fqnPattern(fqn) + rightBoundary)
}

// stageDirRe matches a stage-mount token followed by a path suffix
// (directory import form): @db.schema.stage/...
func stageDirRe(stage identifier.FullyQualifiedName) *regexp.Regexp {
	return regexp.MustCompile(`@` + fqnPattern(stage) + `/`)
}

// stageRootBoundary additionally rejects a following slash so the root form
// never cross-matches a directory import.
const stageRootBoundary = `($|[^A-Za-z0-9_$"./])`

// stageRootRe matches a bare stage-mount token with no path suffix.
func stageRootRe(stage identifier.FullyQualifiedName) *regexp.Regexp {
	return regexp.MustCompile(`@` + fqnPattern(stage) + stageRootBoundary)
}
