package monitor

import (
	"github.com/benmeehan/sysmon-agent/internal/models"
	"github.com/rs/zerolog"
)

// bytesPerMB is the divisor for MB/s rates.
const bytesPerMB = 1e6

// RateCalculator derives per-interval network throughput from
// consecutive cumulative counter snapshots. It owns the previous
// snapshot; only the scheduler loop calls it.
type RateCalculator struct {
	logger  zerolog.Logger
	prev    models.NetCounters
	hasPrev bool
}

// NewRateCalculator returns a calculator with no previous snapshot.
func NewRateCalculator(logger zerolog.Logger) *RateCalculator {
	return &RateCalculator{logger: logger}
}

// Rate converts the current counters into MB/s rates relative to the
// previous snapshot, then stores the current snapshot.
//
// The first call has nothing to diff against and returns an invalid
// zero-rate sample that must not be evaluated against thresholds.
// Non-positive elapsed time is a clock anomaly: logged, zero rates.
// A counter running backwards (interface reset) clamps that rate to 0.
func (r *RateCalculator) Rate(curr models.NetCounters) models.RateSample {
	if !r.hasPrev {
		r.prev = curr
		r.hasPrev = true
		return models.RateSample{}
	}

	prev := r.prev
	r.prev = curr

	elapsed := curr.At.Sub(prev.At).Seconds()
	if elapsed <= 0 {
		r.logger.Warn().
			Time("previous", prev.At).
			Time("current", curr.At).
			Msg("Non-positive elapsed time between samples, reporting zero rates")
		return models.RateSample{Valid: true}
	}

	return models.RateSample{
		SentMBs: counterRate(prev.BytesSent, curr.BytesSent, elapsed),
		RecvMBs: counterRate(prev.BytesRecv, curr.BytesRecv, elapsed),
		Valid:   true,
	}
}

func counterRate(prev, curr uint64, elapsedSeconds float64) float64 {
	if curr < prev {
		return 0
	}
	return float64(curr-prev) / elapsedSeconds / bytesPerMB
}
