// Package collectors reads the OS resource counters the monitor
// evaluates each cycle. Each collector wraps one gopsutil surface; the
// HostSampler composes them into a single immutable Sample.
package collectors

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/benmeehan/sysmon-agent/internal/models"
	"github.com/rs/zerolog"
)

// ErrNoData indicates the OS returned an empty result for a counter.
var ErrNoData = errors.New("no counter data available")

// ErrSampling wraps any failure to read a resource counter. A sampling
// failure skips the cycle; it never terminates the monitor.
var ErrSampling = errors.New("sampling failed")

// Sampler produces one Sample per monitoring cycle.
type Sampler interface {
	Sample(ctx context.Context) (models.Sample, error)
}

// HostSampler reads CPU, memory, disk, and network counters for the
// local host.
type HostSampler struct {
	cpu    *CPUCollector
	memory *MemoryCollector
	disk   *DiskCollector
	net    *NetworkCollector
	logger zerolog.Logger
}

// NewHostSampler builds a sampler whose CPU reading blocks for
// cpuWindow and whose disk reading covers diskPath.
func NewHostSampler(cpuWindow time.Duration, diskPath string, logger zerolog.Logger) *HostSampler {
	return &HostSampler{
		cpu:    &CPUCollector{Window: cpuWindow, Logger: logger},
		memory: &MemoryCollector{Logger: logger},
		disk:   &DiskCollector{Path: diskPath, Logger: logger},
		net:    &NetworkCollector{Logger: logger},
		logger: logger,
	}
}

// Sample reads every counter and returns one immutable Sample. Any
// unreadable counter fails the whole sample with ErrSampling, since a
// partial cycle would skew threshold evaluation.
func (h *HostSampler) Sample(ctx context.Context) (models.Sample, error) {
	cpuPercent, err := h.cpu.Collect(ctx)
	if err != nil {
		return models.Sample{}, fmt.Errorf("%w: cpu: %w", ErrSampling, err)
	}

	memPercent, err := h.memory.Collect(ctx)
	if err != nil {
		return models.Sample{}, fmt.Errorf("%w: memory: %w", ErrSampling, err)
	}

	diskPercent, err := h.disk.Collect(ctx)
	if err != nil {
		return models.Sample{}, fmt.Errorf("%w: disk: %w", ErrSampling, err)
	}

	netCounters, err := h.net.Collect(ctx)
	if err != nil {
		return models.Sample{}, fmt.Errorf("%w: network: %w", ErrSampling, err)
	}

	return models.Sample{
		Timestamp:     time.Now(),
		CPUPercent:    cpuPercent,
		MemoryPercent: memPercent,
		DiskPercent:   diskPercent,
		Net:           netCounters,
	}, nil
}
