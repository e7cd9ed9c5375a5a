package utils

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWithin(t *testing.T) {
	root := t.TempDir()
	if !Within(root, filepath.Join(root, "a", "b.txt")) {
		t.Fatal("missing child should be within root")
	}
	if Within(root, filepath.Join(filepath.Dir(root), "outside.txt")) {
		t.Fatal("sibling should not be within root")
	}
	if Within(root, filepath.Join(root, "..", "sibling")) {
		t.Fatal("dot-dot escape should not be within root")
	}
	if !Within(root, root) {
		t.Fatal("root is within itself")
	}
}

func TestWithinFollowsPlantedSymlink(t *testing.T) {
	root := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(root, "escape")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if Within(root, link) {
		t.Fatal("symlink to outside dir should not be within root")
	}
	if Within(root, filepath.Join(link, "not-yet", "file.txt")) {
		t.Fatal("write below a planted symlink should not be within root")
	}
}

func TestWithinResolvedRoot(t *testing.T) {
	dir := t.TempDir()
	alias := filepath.Join(t.TempDir(), "alias")
	if err := os.Symlink(dir, alias); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if !Within(alias, filepath.Join(dir, "file.txt")) {
		t.Fatal("root alias should resolve to the same directory")
	}
}
