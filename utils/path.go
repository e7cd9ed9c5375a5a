package utils

import (
	"os"
	"path/filepath"
	"strings"
)

// Within reports whether target stays below root once symlinks are
// resolved. target need not exist yet: its deepest existing ancestor is
// resolved and the missing tail is appended, so a planted symlink
// directory cannot redirect a later write.
func Within(root, target string) bool {
	absRoot, err := filepath.Abs(resolveExisting(root))
	if err != nil {
		return false
	}
	absTarget, err := filepath.Abs(resolveExisting(target))
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(absRoot, absTarget)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func resolveExisting(p string) string {
	p = filepath.Clean(p)
	var tail []string
	for {
		if _, err := os.Lstat(p); err == nil {
			if real, err := filepath.EvalSymlinks(p); err == nil {
				p = real
			}
			break
		}
		parent := filepath.Dir(p)
		if parent == p {
			break
		}
		tail = append(tail, filepath.Base(p))
		p = parent
	}
	for i := len(tail) - 1; i >= 0; i-- {
		p = filepath.Join(p, tail[i])
	}
	return p
}
