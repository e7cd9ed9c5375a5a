//go:build !trace

// Package tracing wraps runtime/trace. Tasks and regions compile to no-ops
// unless built with -tags trace; the flight recorder is always available.
package tracing

import "context"

func Start(path string) error { return nil }

func Stop() {}

func StartTask(ctx context.Context, name string) (context.Context, func()) {
	return ctx, func() {}
}

func StartRegion(ctx context.Context, name string) func() {
	return func() {}
}

func Log(ctx context.Context, category, message string) {}

func Logf(ctx context.Context, category, format string, args ...any) {}
