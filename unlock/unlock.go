// Package unlock tries password candidates against one archive and
// extracts it with the first candidate that decrypts cleanly.
package unlock

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/time/rate"

	"layercrack/archive"
	"layercrack/journal"
	"layercrack/logger"
	"layercrack/utils"
)

var ErrCorruptArchive = errors.New("corrupt archive")

type Options struct {
	// Workers above 1 tries candidates in windows of that size.
	Workers int
	// RateLimit caps attempts per second; 0 disables it.
	RateLimit int
	// Progress shows a spinner with the attempt count.
	Progress bool
	// ProgressEvery logs a debug line every n attempts; 0 disables it.
	ProgressEvery int
	// Journal skips candidates that already failed against the same
	// archive content and records new failures.
	Journal *journal.Journal
	// KeepAttempts retains per-candidate records in Result.Trials.
	KeepAttempts bool
	// Counter, when set, is incremented once per attempt.
	Counter *atomic.Int64
	// OpenFn overrides archive.Open.
	OpenFn func(path string) (archive.Handle, error)
}

// Trial is the record of one candidate tried.
type Trial struct {
	Index     int             `json:"index"`
	Candidate string          `json:"candidate"`
	Outcome   archive.Outcome `json:"outcome"`
	Elapsed   time.Duration   `json:"elapsed"`
}

type Result struct {
	Found    bool          `json:"found"`
	Password string        `json:"password,omitempty"`
	Attempts int           `json:"attempts"`
	Skipped  int           `json:"skipped,omitempty"`
	Elapsed  time.Duration `json:"elapsed"`
	Files    int           `json:"files"`
	Bytes    int64         `json:"bytes"`
	Trials   []Trial       `json:"-"`
}

type Unlocker struct {
	opts    Options
	limiter *rate.Limiter
}

func New(opts Options) *Unlocker {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.OpenFn == nil {
		opts.OpenFn = archive.Open
	}
	u := &Unlocker{opts: opts}
	if opts.RateLimit > 0 {
		u.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateLimit)
	}
	return u
}

// Attempt tries candidates in order against archivePath. On success the
// archive content ends up in extractDir; on failure extractDir exists but
// holds nothing from this call. The source archive is never modified.
func (u *Unlocker) Attempt(ctx context.Context, archivePath string, candidates iter.Seq[string], extractDir string) (Result, error) {
	start := time.Now()
	var res Result

	h, err := u.open(archivePath)
	if err != nil {
		return res, err
	}
	handles := []archive.Handle{h}
	defer func() {
		for _, h := range handles {
			h.Close()
		}
	}()
	for i := 1; i < u.opts.Workers; i++ {
		extra, err := u.open(archivePath)
		if err != nil {
			return res, err
		}
		handles = append(handles, extra)
	}

	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return res, err
	}

	run := &session{
		u:          u,
		handles:    handles,
		extractDir: extractDir,
		res:        &res,
		bar:        u.newBar(archivePath),
	}
	if u.opts.Journal != nil {
		if key, err := journal.Fingerprint(archivePath); err == nil {
			run.key = key
			if pw, ok := u.opts.Journal.Solved(key); ok {
				logger.Debugf("Journal has a solved password for %s", archivePath)
				candidates = prepend(pw, candidates)
			}
		} else {
			logger.Warnf("Journal disabled for %s: %v", archivePath, err)
		}
	}

	if u.opts.Workers > 1 {
		err = run.parallel(ctx, candidates)
	} else {
		err = run.sequential(ctx, candidates)
	}
	if run.bar != nil {
		run.bar.Finish()
	}
	res.Elapsed = time.Since(start)
	if err == nil && res.Found && run.key != "" {
		if jerr := u.opts.Journal.MarkSolved(run.key, res.Password); jerr != nil {
			logger.Warnf("Failed to journal solved password: %v", jerr)
		}
	}
	return res, err
}

func (u *Unlocker) open(path string) (archive.Handle, error) {
	h, err := u.opts.OpenFn(path)
	if err != nil {
		if errors.Is(err, archive.ErrCorrupt) {
			return nil, fmt.Errorf("%w: %s: %v", ErrCorruptArchive, path, err)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return h, nil
}

func (u *Unlocker) newBar(path string) *progressbar.ProgressBar {
	if !u.opts.Progress {
		return nil
	}
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("Cracking "+filepath.Base(path)),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetVisibility(utils.ProgressVisible()),
		progressbar.OptionFullWidth(),
	)
}

func prepend(first string, rest iter.Seq[string]) iter.Seq[string] {
	return func(yield func(string) bool) {
		if !yield(first) {
			return
		}
		for c := range rest {
			if c == first {
				continue
			}
			if !yield(c) {
				return
			}
		}
	}
}
