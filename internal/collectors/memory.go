package collectors

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/mem"
)

// MemoryCollector reads the percentage of used virtual memory.
type MemoryCollector struct {
	Logger zerolog.Logger
}

// Collect retrieves the percentage of used virtual memory.
func (m *MemoryCollector) Collect(ctx context.Context) (float64, error) {
	memStats, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, err
	}

	m.Logger.Debug().Float64("memory_percent", memStats.UsedPercent).Msg("Memory usage collected")
	return memStats.UsedPercent, nil
}
