// Package fuzzy holds similarity hashers for extracted files.
package fuzzy

import (
	"sort"
	"strings"
)

// Hasher produces a similarity digest of a file or an in-memory blob.
type Hasher interface {
	Name() string
	HashFile(path string) (string, error)
	HashBytes(data []byte) (string, error)
}

var registry = map[string]Hasher{}

func Register(hasher Hasher) {
	if hasher == nil {
		return
	}
	registry[strings.ToLower(hasher.Name())] = hasher
}

func Lookup(name string) (Hasher, bool) {
	hasher, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return hasher, ok
}

// Available returns the registered names in sorted order.
func Available() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
