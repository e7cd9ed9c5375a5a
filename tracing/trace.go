//go:build trace

package tracing

import (
	"context"
	"os"
	"runtime/trace"
)

var traceFile *os.File

// Start writes a full runtime trace to path until Stop.
func Start(path string) error {
	if path == "" {
		path = "layercrack.trace"
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := trace.Start(f); err != nil {
		f.Close()
		return err
	}
	traceFile = f
	return nil
}

func Stop() {
	trace.Stop()
	if traceFile != nil {
		traceFile.Close()
		traceFile = nil
	}
}

func StartTask(ctx context.Context, name string) (context.Context, func()) {
	ctx, task := trace.NewTask(ctx, name)
	return ctx, task.End
}

func StartRegion(ctx context.Context, name string) func() {
	return trace.StartRegion(ctx, name).End
}

func Log(ctx context.Context, category, message string) {
	trace.Log(ctx, category, message)
}

func Logf(ctx context.Context, category, format string, args ...any) {
	trace.Logf(ctx, category, format, args...)
}

