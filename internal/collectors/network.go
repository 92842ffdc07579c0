package collectors

import (
	"context"
	"time"

	"github.com/benmeehan/sysmon-agent/internal/models"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/net"
)

// NetworkCollector snapshots the cumulative network byte counters,
// summed over all interfaces. Rate derivation from consecutive
// snapshots belongs to the monitor, not the collector.
type NetworkCollector struct {
	Logger zerolog.Logger
}

// Collect returns the current cumulative bytes sent and received.
func (n *NetworkCollector) Collect(ctx context.Context) (models.NetCounters, error) {
	netStats, err := net.IOCountersWithContext(ctx, false)
	if err != nil {
		return models.NetCounters{}, err
	}
	if len(netStats) == 0 {
		return models.NetCounters{}, ErrNoData
	}

	counters := models.NetCounters{
		BytesSent: netStats[0].BytesSent,
		BytesRecv: netStats[0].BytesRecv,
		At:        time.Now(),
	}

	n.Logger.Debug().
		Uint64("bytes_sent", counters.BytesSent).
		Uint64("bytes_recv", counters.BytesRecv).
		Msg("Network counters collected")
	return counters, nil
}
