// Package traversal drives a cracking session through nested archives:
// unlock a layer, mine what it contained for hints, descend into the next
// archive, repeat until no archive remains or a layer resists.
package traversal

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"layercrack/archive"
	"layercrack/candidate"
	"layercrack/hints"
	"layercrack/logger"
	"layercrack/metadata"
	"layercrack/scanner"
	"layercrack/tracing"
	"layercrack/unlock"
)

var (
	ErrCandidateSpaceExhausted = errors.New("candidate space exhausted")
	ErrLayerLimit              = errors.New("layer limit reached")
)

const DefaultMaxLayers = 64

type Status string

const (
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Unlocker is satisfied by *unlock.Unlocker.
type Unlocker interface {
	Attempt(ctx context.Context, archivePath string, candidates iter.Seq[string], extractDir string) (unlock.Result, error)
}

// Scanner is satisfied by *scanner.Scanner.
type Scanner interface {
	Scan(ctx context.Context, root string) ([]scanner.FileRecord, error)
}

// Observer hears about layers as they finish. Calls come from the
// goroutine running the session.
type Observer interface {
	LayerStarted(layer int, archivePath, strategy string)
	LayerCracked(rec LayerRecord)
}

type LayerRecord struct {
	Layer         int                  `json:"layer"`
	ArchivePath   string               `json:"archive"`
	Strategy      string               `json:"strategy"`
	Password      string               `json:"password"`
	Strength      candidate.Rating     `json:"strength"`
	Attempts      int                  `json:"attempts"`
	Skipped       int                  `json:"skipped,omitempty"`
	Elapsed       time.Duration        `json:"elapsed"`
	ExtractDir    string               `json:"extract_dir"`
	NestedArchive string               `json:"nested_archive,omitempty"`
	Hints         []hints.Hint         `json:"hints,omitempty"`
	Files         []scanner.FileRecord `json:"files,omitempty"`
}

type LayerPassword struct {
	Layer    int    `json:"layer"`
	Password string `json:"password"`
}

type Summary struct {
	Status         Status          `json:"status"`
	LayersCracked  int             `json:"layers_cracked"`
	FailedLayer    int             `json:"failed_layer,omitempty"`
	Reason         string          `json:"reason,omitempty"`
	Err            error           `json:"-"`
	Passwords      []LayerPassword `json:"passwords"`
	HintsCollected int             `json:"hints_collected"`
	Elapsed        time.Duration   `json:"elapsed"`
}

type Options struct {
	// WorkDir receives one layer-NN directory per cracked layer.
	WorkDir   string
	MaxLayers int
	// LayerTimeout bounds each layer's unlock; 0 disables it.
	LayerTimeout time.Duration
	Policy       candidate.Policy
	// SeedHint stands in for hints before the first layer produced any.
	SeedHint string
	Unlocker Unlocker
	Scanner  Scanner
	Observer Observer
}

// Session is single-use: Run it once.
type Session struct {
	opts Options

	mu      sync.Mutex
	state   State
	history []State
	layers  []LayerRecord
	hints   []hints.Hint

	layer atomic.Int64
}

func New(opts Options) *Session {
	if opts.MaxLayers <= 0 {
		opts.MaxLayers = DefaultMaxLayers
	}
	return &Session{opts: opts, state: AwaitingArchive, history: []State{AwaitingArchive}}
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// History returns every state entered, in order.
func (s *Session) History() []State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]State(nil), s.history...)
}

func (s *Session) Layers() []LayerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]LayerRecord(nil), s.layers...)
}

func (s *Session) Hints() []hints.Hint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]hints.Hint(nil), s.hints...)
}

// CurrentLayer is safe to call from other goroutines while Run is active.
func (s *Session) CurrentLayer() int {
	return int(s.layer.Load())
}

func (s *Session) enter(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !canTransition(s.state, next) {
		panic(fmt.Sprintf("traversal: illegal transition %s -> %s", s.state, next))
	}
	s.state = next
	s.history = append(s.history, next)
}

// Run cracks archivePath and every archive nested inside it. It returns a
// summary in all cases; Summary.Err carries the cause of a failure.
func (s *Session) Run(ctx context.Context, archivePath string) Summary {
	start := time.Now()
	current := archivePath
	latest := s.opts.SeedHint

	for layer := 1; ; layer++ {
		s.layer.Store(int64(layer))
		if layer > s.opts.MaxLayers {
			s.enter(Failed)
			return s.summary(start, layer, ErrLayerLimit)
		}

		rec, nested, err := s.crackLayer(ctx, layer, current, latest)
		if err != nil {
			return s.summary(start, layer, err)
		}
		if len(rec.Hints) > 0 {
			latest = hints.Join(rec.Hints)
		}
		if nested == "" {
			s.enter(NoneFound)
			s.enter(Complete)
			return s.summary(start, 0, nil)
		}
		s.enter(FoundNested)
		s.enter(AwaitingArchive)
		current = nested
	}
}

func (s *Session) crackLayer(ctx context.Context, layer int, archivePath, hint string) (LayerRecord, string, error) {
	ctx, endTask := tracing.StartTask(ctx, "layer")
	defer endTask()
	tracing.Logf(ctx, "layer", "%d %s", layer, archivePath)

	plan := s.opts.Policy.PlanFor(layer, hint)
	rec := LayerRecord{
		Layer:       layer,
		ArchivePath: archivePath,
		Strategy:    plan.Name(),
		ExtractDir:  filepath.Join(s.opts.WorkDir, fmt.Sprintf("layer-%02d", layer)),
	}
	log := logger.WithFields(map[string]interface{}{"layer": layer, "archive": filepath.Base(archivePath)})
	log.Infof("Cracking with %s", rec.Strategy)
	if s.opts.Observer != nil {
		s.opts.Observer.LayerStarted(layer, archivePath, rec.Strategy)
	}

	s.enter(Unlocking)
	uctx, cancel := ctx, context.CancelFunc(func() {})
	if s.opts.LayerTimeout > 0 {
		uctx, cancel = context.WithTimeout(ctx, s.opts.LayerTimeout)
	}
	endRegion := tracing.StartRegion(uctx, "unlock")
	res, err := s.opts.Unlocker.Attempt(uctx, archivePath, plan.Candidates(), rec.ExtractDir)
	endRegion()
	cancel()
	rec.Attempts = res.Attempts
	rec.Skipped = res.Skipped
	rec.Elapsed = res.Elapsed
	if err != nil {
		log.Warnf("Unlock failed after %d attempts: %v", res.Attempts, err)
		s.enter(Exhausted)
		s.enter(Failed)
		return rec, "", err
	}
	if !res.Found {
		log.Warnf("No candidate opened the archive (%d attempts)", res.Attempts)
		s.enter(Exhausted)
		s.enter(Failed)
		return rec, "", ErrCandidateSpaceExhausted
	}
	s.enter(Unlocked)
	rec.Password = res.Password
	rec.Strength = candidate.Strength(res.Password)
	log.WithFields(map[string]interface{}{
		"attempts": res.Attempts,
		"elapsed":  res.Elapsed.Round(time.Millisecond).String(),
	}).Infof("Password found: %s", res.Password)

	// Unlock already extracted into ExtractDir.
	s.enter(Extracting)
	log.Debugf("Extracted %d files (%d bytes) to %s", res.Files, res.Bytes, rec.ExtractDir)

	s.enter(ScanningForHints)
	endRegion = tracing.StartRegion(ctx, "scan")
	files, err := s.opts.Scanner.Scan(ctx, rec.ExtractDir)
	endRegion()
	if err != nil {
		s.enter(Failed)
		s.record(rec)
		return rec, "", fmt.Errorf("scan %s: %w", rec.ExtractDir, err)
	}
	rec.Files = files
	rec.Hints = layerHints(files, layer)
	for _, h := range rec.Hints {
		log.WithFields(map[string]interface{}{"kind": h.Kind, "source": h.Source}).Infof("Hint: %s", oneLine(h.Payload()))
	}

	s.enter(SeekingNestedArchive)
	next, ok := scanner.FirstArchive(files)
	if ok {
		rec.NestedArchive = next.Path
		log.Infof("Nested archive: %s", next.RelPath)
	} else if others := scanner.Archives(files); len(others) > 0 {
		log.Warnf("Ignoring %d archive(s) without a usable codec, first %s (%s)", len(others), others[0].RelPath, others[0].ArchiveFormat)
	}

	s.record(rec)
	return rec, rec.NestedArchive, nil
}

// record keeps a cracked layer, even one whose extraction could not be
// scanned, so its password reaches the summary.
func (s *Session) record(rec LayerRecord) {
	s.mu.Lock()
	s.layers = append(s.layers, rec)
	s.hints = append(s.hints, rec.Hints...)
	s.mu.Unlock()
	if s.opts.Observer != nil {
		s.opts.Observer.LayerCracked(rec)
	}
}

// layerHints mines text bodies, then metadata fields, file by file in
// path order.
func layerHints(files []scanner.FileRecord, layer int) []hints.Hint {
	var out []hints.Hint
	for _, f := range files {
		if f.Text != "" {
			out = append(out, hints.Scan(f.Text, layer, f.RelPath)...)
		}
		if len(f.Metadata) > 0 {
			out = append(out, hints.ScanMetadata(metadata.Text(f.Metadata), layer, f.RelPath)...)
		}
	}
	return out
}

func (s *Session) summary(start time.Time, failedLayer int, err error) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	sum := Summary{
		Status:         StatusComplete,
		LayersCracked:  len(s.layers),
		HintsCollected: len(s.hints),
		Passwords:      make([]LayerPassword, 0, len(s.layers)),
		Elapsed:        time.Since(start),
	}
	for _, l := range s.layers {
		sum.Passwords = append(sum.Passwords, LayerPassword{Layer: l.Layer, Password: l.Password})
	}
	if err != nil {
		sum.Status = StatusFailed
		sum.FailedLayer = failedLayer
		sum.Reason = Reason(err)
		sum.Err = err
	}
	return sum
}

// Reason renders a failure cause for the summary.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrCandidateSpaceExhausted):
		return "candidate space exhausted"
	case errors.Is(err, ErrLayerLimit):
		return "layer limit reached"
	case errors.Is(err, unlock.ErrCorruptArchive):
		return "corrupt archive"
	case errors.Is(err, archive.ErrNotAnArchive):
		return "not an archive"
	case errors.Is(err, archive.ErrUnsupportedFormat):
		return "unsupported archive format"
	case errors.Is(err, context.DeadlineExceeded):
		return "deadline exceeded"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	}
	return err.Error()
}

func oneLine(s string) string {
	const limit = 120
	out := make([]rune, 0, limit)
	for _, r := range s {
		if len(out) == limit {
			return string(out) + "..."
		}
		if r == '\n' || r == '\r' || r == '\t' {
			r = ' '
		}
		out = append(out, r)
	}
	return string(out)
}
