package catalog

import (
	"fmt"

	"github.com/snowappify/snowappify/internal/identifier"
)

// Builder accumulates catalog entries and referenced stage ids during
// extraction. The dumper threads one Builder through every schema it visits
// and finalizes it once, so nothing accumulates in package-level state.
type Builder struct {
	entries    map[string]Entry
	stageRefs  []identifier.FullyQualifiedName
	seenStages map[string]bool
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		entries:    make(map[string]Entry),
		seenStages: make(map[string]bool),
	}
}

// AddEntry records one dumped object. Re-adding the same name is an
// extraction bug and fails loudly.
func (b *Builder) AddEntry(fqn identifier.FullyQualifiedName, entry Entry) error {
	key := fqn.String()
	if _, exists := b.entries[key]; exists {
		return fmt.Errorf("duplicate catalog entry %s", key)
	}
	b.entries[key] = entry
	return nil
}

// AddStageReference records a stage whose contents must be relocated during
// rewriting. Duplicates collapse; first-seen order is preserved.
func (b *Builder) AddStageReference(stage identifier.FullyQualifiedName) {
	key := stage.Key()
	if b.seenStages[key] {
		return
	}
	b.seenStages[key] = true
	b.stageRefs = append(b.stageRefs, stage)
}

// Finalize returns the completed catalog and stage reference list. The
// Builder must not be reused afterwards.
func (b *Builder) Finalize() (Catalog, []identifier.FullyQualifiedName) {
	c := make(Catalog, len(b.entries))
	for k, v := range b.entries {
		c[k] = v
	}
	return c, b.stageRefs
}
