// Package scanner inventories the files extracted from one layer: what
// they are, their digests, and the text and metadata worth mining for
// hints.
package scanner

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"layercrack/config"
	"layercrack/logger"
	"layercrack/utils"
)

type Scanner struct {
	cfg     *config.Config
	modules []FileModule
	matcher *utils.PatternMatcher
	workers int
}

func New(cfg *config.Config) *Scanner {
	return &Scanner{
		cfg:     cfg,
		modules: buildFileModules(cfg),
		matcher: utils.NewPatternMatcher(cfg.IncludePatterns, cfg.ExcludePatterns),
		workers: runtime.NumCPU(),
	}
}

// ScanDir is New(cfg).Scan.
func ScanDir(ctx context.Context, root string, cfg *config.Config) ([]FileRecord, error) {
	return New(cfg).Scan(ctx, root)
}

type fileTask struct {
	path string
	info os.FileInfo
}

// Scan records every regular file under root, sorted by relative path.
// Symlinks and special files are skipped.
func (s *Scanner) Scan(ctx context.Context, root string) ([]FileRecord, error) {
	var tasks []fileTask
	err := fastWalker{}.Walk(ctx, root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warnf("Failed to access %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if !d.Type().IsRegular() {
			logger.Debugf("Skipping non-regular file %s", path)
			return nil
		}
		info, err := d.Info()
		if err != nil {
			logger.Warnf("Failed to stat file %s: %v", path, err)
			return nil
		}
		tasks = append(tasks, fileTask{path: path, info: info})
		return nil
	})
	if err != nil {
		return nil, err
	}

	records := make([]FileRecord, len(tasks))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(s.workers, 1))
	for i, task := range tasks {
		g.Go(func() error {
			rec, err := processFile(gctx, root, task.path, task.info, s)
			if err != nil {
				return err
			}
			records[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool { return records[i].RelPath < records[j].RelPath })
	return records, nil
}

// FirstArchive picks the nested archive to descend into: the openable
// archive with the lexicographically smallest relative path.
func FirstArchive(records []FileRecord) (FileRecord, bool) {
	best := -1
	for i := range records {
		if !records[i].IsNestedArchive() {
			continue
		}
		if best < 0 || records[i].RelPath < records[best].RelPath {
			best = i
		}
	}
	if best < 0 {
		return FileRecord{}, false
	}
	return records[best], true
}

// Archives lists every archive-kind record, openable or not.
func Archives(records []FileRecord) []FileRecord {
	var out []FileRecord
	for _, r := range records {
		if r.Kind == KindArchive {
			out = append(out, r)
		}
	}
	return out
}

// RelTo reports path relative to root with forward slashes.
func RelTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
