package collectors

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/cpu"
)

// CPUCollector reads overall CPU utilization averaged over a short
// blocking window. An instantaneous reading is meaningless, so Collect
// deliberately blocks for the window.
type CPUCollector struct {
	Window time.Duration
	Logger zerolog.Logger
}

// Collect returns the percentage of CPU used across all cores,
// averaged over the collector's window.
func (c *CPUCollector) Collect(ctx context.Context) (float64, error) {
	percentages, err := cpu.PercentWithContext(ctx, c.Window, false)
	if err != nil {
		return 0, err
	}
	if len(percentages) == 0 {
		return 0, ErrNoData
	}

	c.Logger.Debug().Float64("cpu_percent", percentages[0]).Msg("CPU usage collected")
	return percentages[0], nil
}
