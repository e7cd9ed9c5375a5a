package tracing

import (
	"os"
	"runtime/trace"
	"sync"
	"time"
)

var (
	flightMu       sync.Mutex
	flightRecorder *trace.FlightRecorder
)

// StartFlightRecorder keeps a rolling in-memory trace window that the stall
// watchdog can dump. maxBytes and minAge of zero use runtime defaults.
func StartFlightRecorder(maxBytes uint64, minAge time.Duration) error {
	flightMu.Lock()
	defer flightMu.Unlock()
	if flightRecorder != nil {
		return nil
	}
	fr := trace.NewFlightRecorder(trace.FlightRecorderConfig{MaxBytes: maxBytes, MinAge: minAge})
	if err := fr.Start(); err != nil {
		return err
	}
	flightRecorder = fr
	return nil
}

func StopFlightRecorder() {
	flightMu.Lock()
	defer flightMu.Unlock()
	if flightRecorder != nil {
		flightRecorder.Stop()
		flightRecorder = nil
	}
}

// WriteFlightRecorder snapshots the current window to path. Without a
// running recorder it writes nothing.
func WriteFlightRecorder(path string) error {
	flightMu.Lock()
	defer flightMu.Unlock()
	if flightRecorder == nil || !flightRecorder.Enabled() {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = flightRecorder.WriteTo(f)
	return err
}
