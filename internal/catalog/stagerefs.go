package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/snowappify/snowappify/internal/identifier"
)

// SaveStageRefs writes the referenced-stage list as a JSON array of rendered
// fully-qualified names, in first-seen order.
func SaveStageRefs(path string, refs []identifier.FullyQualifiedName) error {
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, ref.String())
	}
	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize stage references: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

// LoadStageRefs reads a referenced-stage list written by SaveStageRefs.
func LoadStageRefs(path string) ([]identifier.FullyQualifiedName, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read stage references: %w", err)
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("failed to parse stage references %s: %w", path, err)
	}
	refs := make([]identifier.FullyQualifiedName, 0, len(names))
	for _, name := range names {
		fqn, err := identifier.Parse(name)
		if err != nil {
			return nil, fmt.Errorf("invalid stage reference in %s: %w", path, err)
		}
		refs = append(refs, fqn)
	}
	return refs, nil
}
