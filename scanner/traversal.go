package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
)

// fastWalker is an iterative depth-first walk that checks ctx between
// entries. Symlinks are reported, never followed.
type fastWalker struct{}

func (w fastWalker) Walk(ctx context.Context, startPath string, fn fs.WalkDirFunc) error {
	info, err := os.Lstat(startPath)
	if err != nil {
		return fn(startPath, nil, err)
	}
	type item struct {
		path  string
		entry fs.DirEntry
	}
	stack := []item{{path: startPath, entry: fs.FileInfoToDirEntry(info)}}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if err := fn(current.path, current.entry, nil); err != nil {
			if err == fs.SkipDir {
				continue
			}
			return err
		}
		if !current.entry.IsDir() {
			continue
		}

		entries, err := os.ReadDir(current.path)
		if err != nil {
			if ferr := fn(current.path, current.entry, err); ferr != nil && ferr != fs.SkipDir {
				return ferr
			}
			continue
		}
		// Reverse push keeps the pop order lexicographic.
		for i := len(entries) - 1; i >= 0; i-- {
			stack = append(stack, item{
				path:  filepath.Join(current.path, entries[i].Name()),
				entry: entries[i],
			})
		}
	}
	return nil
}
