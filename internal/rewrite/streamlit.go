package rewrite

import (
	"fmt"
	"regexp"

	"github.com/snowappify/snowappify/internal/catalog"
	"github.com/snowappify/snowappify/internal/identifier"
)

var identPartRe = regexp.MustCompile(identPart)

// reconstructStreamlit rebuilds streamlit DDL from scratch. The dumped text
// is unreliable (the source system is known to drop closing quotes and whole
// fields), so instead of patching it we extract exactly three fields through
// dedicated anchors and emit a fresh statement around the relocated root
// location. A missing field is a hard error naming what was unparsable.
func (r *Rewriter) reconstructStreamlit(text string, entry catalog.Entry) (string, error) {
	nameMatch := streamlitNameRe.FindStringSubmatch(text)
	if nameMatch == nil {
		return "", &MalformedDDLError{Property: "name", Path: entry.Path}
	}
	rootMatch := streamlitRootLocationRe.FindStringSubmatch(text)
	if rootMatch == nil {
		return "", &MalformedDDLError{Property: "root_location", Path: entry.Path}
	}
	mainMatch := streamlitMainFileRe.FindStringSubmatch(text)
	if mainMatch == nil {
		return "", &MalformedDDLError{Property: "main_file", Path: entry.Path}
	}

	// The dumped name can be bare or qualified; only its last part survives,
	// re-qualified into the object's target schema.
	parts := identPartRe.FindAllString(nameMatch[1], -1)
	bare := identifier.Unquote(parts[len(parts)-1])

	qualified := identifier.QuoteIfNeeded(identifier.Unquote(entry.Schema)) + "." + identifier.QuoteIfNeeded(bare)
	rootLocation := r.RelocateStageImports(rootMatch[1])

	return fmt.Sprintf("create or replace streamlit %s\nroot_location = '%s'\nmain_file = '%s';\n",
		qualified, rootLocation, mainMatch[1]), nil
}
