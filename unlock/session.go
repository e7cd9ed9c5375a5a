package unlock

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/semaphore"

	"layercrack/archive"
	"layercrack/logger"
)

type session struct {
	u          *Unlocker
	handles    []archive.Handle
	extractDir string
	key        string
	res        *Result
	bar        *progressbar.ProgressBar
}

// outcome of one trial; staging is set only on success.
type outcome struct {
	index     int
	candidate string
	result    archive.Result
	staging   string
	elapsed   time.Duration
	err       error
}

func (s *session) skip(candidate string) bool {
	if s.key == "" || !s.u.opts.Journal.Tried(s.key, candidate) {
		return false
	}
	s.res.Skipped++
	return true
}

func (s *session) wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.u.limiter != nil {
		return s.u.limiter.Wait(ctx)
	}
	return nil
}

func (s *session) sequential(ctx context.Context, candidates iter.Seq[string]) error {
	for candidate := range candidates {
		if s.skip(candidate) {
			continue
		}
		if err := s.wait(ctx); err != nil {
			return err
		}
		o := s.try(s.handles[0], s.res.Attempts, candidate)
		s.record(o)
		if o.err != nil {
			return o.err
		}
		switch o.result.Outcome {
		case archive.Success:
			return s.commit(o)
		case archive.Corrupt:
			return corruptError(o.result.Err)
		}
	}
	return nil
}

// parallel tries windows of len(handles) candidates at once. Within a
// window the lowest index that succeeds wins, so the reported password is
// the same one a sequential run would find.
func (s *session) parallel(ctx context.Context, candidates iter.Seq[string]) error {
	next, stop := iter.Pull(candidates)
	defer stop()

	workers := int64(len(s.handles))
	sem := semaphore.NewWeighted(workers)
	for {
		var window []string
		for len(window) < len(s.handles) {
			c, ok := next()
			if !ok {
				break
			}
			if s.skip(c) {
				continue
			}
			window = append(window, c)
		}
		if len(window) == 0 {
			return nil
		}

		base := s.res.Attempts
		results := make([]outcome, len(window))
		for i, c := range window {
			if err := s.wait(ctx); err != nil {
				sem.Acquire(context.Background(), workers)
				s.discard(results, -1)
				return err
			}
			if err := sem.Acquire(ctx, 1); err != nil {
				sem.Acquire(context.Background(), workers)
				s.discard(results, -1)
				return err
			}
			go func() {
				defer sem.Release(1)
				results[i] = s.try(s.handles[i], base+i, c)
			}()
		}
		sem.Acquire(context.Background(), workers)
		sem.Release(workers)

		winner := -1
		for i, o := range results {
			if o.err == nil && o.result.Outcome == archive.Success {
				winner = i
				break
			}
			if o.err != nil || o.result.Outcome == archive.Corrupt {
				break
			}
		}
		s.discard(results, winner)

		for i, o := range results {
			s.record(o)
			if o.err != nil {
				return o.err
			}
			switch o.result.Outcome {
			case archive.Corrupt:
				return corruptError(o.result.Err)
			case archive.Success:
				if i == winner {
					return s.commit(o)
				}
			}
		}
	}
}

// discard removes the staging dirs of every successful trial except keep.
func (s *session) discard(results []outcome, keep int) {
	for i, o := range results {
		if i != keep && o.staging != "" {
			os.RemoveAll(o.staging)
		}
	}
}

// try checks candidate cheaply, then extracts into a fresh staging dir
// beside extractDir. Staging is removed unless the trial succeeds.
func (s *session) try(h archive.Handle, index int, candidate string) outcome {
	start := time.Now()
	o := outcome{index: index, candidate: candidate}

	o.result = h.Check(candidate)
	if o.result.Outcome != archive.Success {
		o.elapsed = time.Since(start)
		return o
	}
	staging, err := os.MkdirTemp(filepath.Dir(s.extractDir), "."+filepath.Base(s.extractDir)+"-staging-")
	if err != nil {
		o.err = err
		o.elapsed = time.Since(start)
		return o
	}
	o.result = h.Extract(candidate, staging)
	if o.result.Outcome != archive.Success {
		os.RemoveAll(staging)
	} else {
		o.staging = staging
	}
	o.elapsed = time.Since(start)
	return o
}

func (s *session) record(o outcome) {
	s.res.Attempts++
	if c := s.u.opts.Counter; c != nil {
		c.Add(1)
	}
	if s.bar != nil {
		s.bar.Add(1)
	}
	if s.u.opts.KeepAttempts {
		s.res.Trials = append(s.res.Trials, Trial{Index: o.index, Candidate: o.candidate, Outcome: o.result.Outcome, Elapsed: o.elapsed})
	}
	if every := s.u.opts.ProgressEvery; every > 0 && s.res.Attempts%every == 0 {
		logger.Debugf("Tried %d candidates, last %q", s.res.Attempts, o.candidate)
	}
	if o.err == nil && o.result.Outcome == archive.WrongPassword && s.key != "" {
		if err := s.u.opts.Journal.Failed(s.key, o.candidate); err != nil {
			logger.Warnf("Failed to journal candidate: %v", err)
		}
	}
}

// commit moves the staged entries into extractDir.
func (s *session) commit(o outcome) error {
	defer os.RemoveAll(o.staging)
	entries, err := os.ReadDir(o.staging)
	if err != nil {
		return err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })
	for _, e := range entries {
		from := filepath.Join(o.staging, e.Name())
		to := filepath.Join(s.extractDir, e.Name())
		if err := os.Rename(from, to); err != nil {
			return fmt.Errorf("move %s into %s: %w", e.Name(), s.extractDir, err)
		}
	}
	s.res.Found = true
	s.res.Password = o.candidate
	s.res.Files = o.result.Files
	s.res.Bytes = o.result.Bytes
	return nil
}

// corruptError turns a Corrupt outcome into the error returned to callers.
// Local I/O failures are passed through unchanged.
func corruptError(err error) error {
	if err == nil {
		return ErrCorruptArchive
	}
	if errors.Is(err, archive.ErrCorrupt) || errors.Is(err, archive.ErrUnsafeEntry) {
		return fmt.Errorf("%w: %w", ErrCorruptArchive, err)
	}
	return err
}
