package depgraph

import (
	"encoding/json"
	"fmt"
	"os"
)

// SaveOrdering writes the build order as a JSON array of rendered names so
// collaborators (and humans) can inspect it.
func SaveOrdering(path string, ordering []string) error {
	if ordering == nil {
		ordering = []string{}
	}
	data, err := json.MarshalIndent(ordering, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize ordering: %w", err)
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}
