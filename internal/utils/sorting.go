package utils

import (
	"sort"
)

// SortedKeys returns the keys of a map[string]T in ascending lexical order.
// Used wherever map iteration order must be reproducible.
func SortedKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
