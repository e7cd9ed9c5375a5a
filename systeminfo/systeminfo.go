// Package systeminfo describes the host a cracking session ran on and
// sizes the default worker pool from it.
package systeminfo

import (
	"context"
	"runtime"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"

	"layercrack/logger"
)

// Each parallel worker keeps its own archive handle and staging directory.
const workerMemoryBudget = 64 << 20

type HostInfo struct {
	Hostname        string `json:"hostname,omitempty"`
	OS              string `json:"os"`
	Platform        string `json:"platform,omitempty"`
	PlatformVersion string `json:"platform_version,omitempty"`
	KernelVersion   string `json:"kernel_version,omitempty"`
	Arch            string `json:"arch"`
	CPUModel        string `json:"cpu_model,omitempty"`
	LogicalCPUs     int    `json:"logical_cpus"`
	MemoryTotal     uint64 `json:"memory_total,omitempty"`
	MemoryAvailable uint64 `json:"memory_available,omitempty"`
	GoVersion       string `json:"go_version"`
}

// Collect gathers what it can. Individual probe failures are logged and
// leave their fields empty.
func Collect(ctx context.Context) *HostInfo {
	info := &HostInfo{
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
		LogicalCPUs: runtime.NumCPU(),
		GoVersion:   runtime.Version(),
	}
	if h, err := host.InfoWithContext(ctx); err == nil {
		info.Hostname = h.Hostname
		info.Platform = h.Platform
		info.PlatformVersion = h.PlatformVersion
		info.KernelVersion = h.KernelVersion
	} else {
		logger.Warnf("Failed to gather host info: %v", err)
	}
	if n, err := cpu.CountsWithContext(ctx, true); err == nil && n > 0 {
		info.LogicalCPUs = n
	}
	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
	} else if err != nil {
		logger.Debugf("Failed to gather cpu model: %v", err)
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemoryTotal = vm.Total
		info.MemoryAvailable = vm.Available
	} else {
		logger.Warnf("Failed to gather memory info: %v", err)
	}
	return info
}

// SuggestWorkers picks a parallel unlock width: one worker per logical
// CPU, fewer when available memory cannot back them.
func SuggestWorkers(ctx context.Context) int {
	cpus := runtime.NumCPU()
	if n, err := cpu.CountsWithContext(ctx, true); err == nil && n > 0 {
		cpus = n
	}
	var available uint64
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		available = vm.Available
	}
	return workersFor(cpus, available)
}

func workersFor(cpus int, available uint64) int {
	workers := max(cpus, 1)
	if available > 0 {
		workers = min(workers, int(available/workerMemoryBudget))
	}
	return max(workers, 1)
}
