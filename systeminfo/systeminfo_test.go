package systeminfo

import (
	"context"
	"runtime"
	"testing"

	"layercrack/logger"
)

func init() {
	logger.Init("error")
}

func TestCollect(t *testing.T) {
	info := Collect(context.Background())
	if info.OS != runtime.GOOS || info.Arch != runtime.GOARCH {
		t.Fatalf("unexpected platform: %+v", info)
	}
	if info.LogicalCPUs <= 0 || info.GoVersion == "" {
		t.Fatalf("missing runtime fields: %+v", info)
	}
}

func TestSuggestWorkers(t *testing.T) {
	if n := SuggestWorkers(context.Background()); n < 1 {
		t.Fatalf("expected at least one worker, got %d", n)
	}
}

func TestWorkersFor(t *testing.T) {
	cases := []struct {
		cpus      int
		available uint64
		want      int
	}{
		{8, 0, 8},
		{8, 1 << 30, 8},
		{8, 128 << 20, 2},
		{8, 1 << 20, 1},
		{0, 0, 1},
	}
	for _, c := range cases {
		if got := workersFor(c.cpus, c.available); got != c.want {
			t.Fatalf("workersFor(%d, %d) = %d, want %d", c.cpus, c.available, got, c.want)
		}
	}
}
