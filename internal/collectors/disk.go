package collectors

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/disk"
)

// DiskCollector reads disk usage of a single mount point.
type DiskCollector struct {
	Path   string
	Logger zerolog.Logger
}

// Collect returns the percentage of disk space used on the collector's
// mount point.
func (d *DiskCollector) Collect(ctx context.Context) (float64, error) {
	path := d.Path
	if path == "" {
		path = "/"
	}

	diskStats, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, err
	}

	d.Logger.Debug().Str("path", path).Float64("disk_percent", diskStats.UsedPercent).Msg("Disk usage collected")
	return diskStats.UsedPercent, nil
}
