// Package diag watches a cracking run for stalls. When the attempt
// counter stops moving for longer than the threshold it writes a stall
// report, a goroutine profile and, if enabled, the flight recorder window.
package diag

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime/pprof"
	"sync"
	"time"

	"layercrack/logger"
)

type profileWriter interface {
	WriteTo(w io.Writer, debug int) error
}

type Options struct {
	StallThreshold time.Duration
	Dir            string
	GoroutineLeak  bool
	// AttemptsFn reports the total password attempts made so far.
	AttemptsFn func() int64
	// LayerFn reports the layer being cracked, if known.
	LayerFn            func() int
	DumpFlightRecorder func(path string) error
	NowFn              func() time.Time
	ProfileLookupFn    func(name string) profileWriter
}

type Controller struct {
	opts Options

	mu           sync.Mutex
	lastChangeAt time.Time
	lastAttempts int64
	lastDumpAt   time.Time
	dumps        int

	stopCh chan struct{}
	doneCh chan struct{}
}

func NewController(opts Options) *Controller {
	if opts.NowFn == nil {
		opts.NowFn = time.Now
	}
	if opts.ProfileLookupFn == nil {
		opts.ProfileLookupFn = func(name string) profileWriter {
			if p := pprof.Lookup(name); p != nil {
				return p
			}
			return nil
		}
	}
	if opts.Dir == "" {
		opts.Dir = "."
	}
	return &Controller{opts: opts}
}

// Start launches the watchdog. It is a no-op without a threshold or an
// attempt counter, and when already running.
func (c *Controller) Start(ctx context.Context) {
	if c == nil || c.opts.StallThreshold <= 0 || c.opts.AttemptsFn == nil || c.stopCh != nil {
		return
	}

	c.mu.Lock()
	c.lastAttempts = c.opts.AttemptsFn()
	c.lastChangeAt = c.opts.NowFn()
	c.lastDumpAt = time.Time{}
	c.mu.Unlock()

	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	interval := min(max(c.opts.StallThreshold/2, 250*time.Millisecond), 2*time.Second)

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		defer close(c.doneCh)
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stopCh:
				return
			case <-ticker.C:
				c.probe(c.opts.NowFn())
			}
		}
	}()
}

func (c *Controller) Close() {
	if c == nil {
		return
	}
	if c.stopCh != nil {
		close(c.stopCh)
		<-c.doneCh
		c.stopCh = nil
		c.doneCh = nil
	}
	if c.opts.GoroutineLeak {
		if _, err := c.writeProfile("goroutine", 2); err != nil {
			logger.Warnf("Diagnostics goroutine profile dump failed: %v", err)
		}
	}
}

// Dumps reports how many stall reports were written.
func (c *Controller) Dumps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dumps
}

func (c *Controller) probe(now time.Time) {
	attempts := c.opts.AttemptsFn()

	c.mu.Lock()
	if attempts != c.lastAttempts || c.lastChangeAt.IsZero() {
		c.lastAttempts = attempts
		c.lastChangeAt = now
		c.mu.Unlock()
		return
	}
	stalled := now.Sub(c.lastChangeAt)
	threshold := c.opts.StallThreshold
	dump := stalled >= threshold && (c.lastDumpAt.IsZero() || now.Sub(c.lastDumpAt) >= threshold)
	if dump {
		c.lastDumpAt = now
		c.dumps++
	}
	c.mu.Unlock()

	if dump {
		if err := c.dumpStall(now, attempts, stalled); err != nil {
			logger.Warnf("Diagnostics stall dump failed: %v", err)
		}
	}
}

type stallEvent struct {
	Event       string `json:"event"`
	Timestamp   string `json:"timestamp"`
	Layer       int    `json:"layer,omitempty"`
	Attempts    int64  `json:"attempts"`
	ThresholdMS int64  `json:"threshold_ms"`
	StalledMS   int64  `json:"stalled_ms"`
}

func (c *Controller) dumpStall(now time.Time, attempts int64, stalled time.Duration) error {
	if err := os.MkdirAll(c.opts.Dir, 0o755); err != nil {
		return err
	}
	event := stallEvent{
		Event:       "attempts_stalled",
		Timestamp:   now.UTC().Format(time.RFC3339Nano),
		Attempts:    attempts,
		ThresholdMS: c.opts.StallThreshold.Milliseconds(),
		StalledMS:   stalled.Milliseconds(),
	}
	if c.opts.LayerFn != nil {
		event.Layer = c.opts.LayerFn()
	}
	logger.Warnf("No password attempt completed for %s (layer %d, %d attempts so far)", stalled.Round(time.Millisecond), event.Layer, attempts)

	b, err := json.MarshalIndent(event, "", "  ")
	if err != nil {
		return err
	}
	ts := stamp(now)
	if err := os.WriteFile(filepath.Join(c.opts.Dir, "layercrack-stall-"+ts+".json"), b, 0o600); err != nil {
		return err
	}
	if _, err := c.writeProfile("goroutine", 1); err != nil {
		logger.Debugf("Diagnostics goroutine snapshot skipped: %v", err)
	}
	if c.opts.DumpFlightRecorder != nil {
		if err := c.opts.DumpFlightRecorder(filepath.Join(c.opts.Dir, "layercrack-flight-"+ts+".out")); err != nil {
			logger.Warnf("Diagnostics flight recorder dump failed: %v", err)
		}
	}
	return nil
}

func (c *Controller) writeProfile(name string, debug int) (string, error) {
	profile := c.opts.ProfileLookupFn(name)
	if profile == nil {
		return "", fmt.Errorf("pprof profile %q unavailable", name)
	}
	if err := os.MkdirAll(c.opts.Dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(c.opts.Dir, fmt.Sprintf("layercrack-%s-%s.pprof", name, stamp(c.opts.NowFn())))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := profile.WriteTo(f, debug); err != nil {
		return "", err
	}
	return path, nil
}

func stamp(t time.Time) string {
	return t.UTC().Format("20060102-150405.000")
}
