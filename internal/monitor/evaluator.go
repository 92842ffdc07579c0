package monitor

import (
	"time"

	"github.com/benmeehan/sysmon-agent/internal/models"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Evaluator compares each metric against its threshold and drives the
// per-metric normal/breached state machine. It mutates the AlertState
// records handed to it each cycle but owns no state of its own, so the
// scheduler loop stays the single owner.
type Evaluator struct {
	thresholds models.Thresholds
	cooldown   time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// NewEvaluator builds an evaluator. cooldown is the minimum gap between
// repeat notifications for a metric that stays continuously breached.
func NewEvaluator(thresholds models.Thresholds, cooldown time.Duration, logger zerolog.Logger) *Evaluator {
	return &Evaluator{
		thresholds: thresholds,
		cooldown:   cooldown,
		logger:     logger,
		now:        time.Now,
	}
}

// NewAlertStates returns the initial not-breached state for every
// monitored metric.
func NewAlertStates() map[models.Metric]*models.AlertState {
	states := make(map[models.Metric]*models.AlertState, len(models.Metrics))
	for _, m := range models.Metrics {
		states[m] = &models.AlertState{}
	}
	return states
}

// Evaluation is the outcome of one cycle's threshold checks.
type Evaluation struct {
	// Breaches holds the metrics to notify this cycle: fresh
	// transitions into breach, plus continuously breached metrics
	// whose cooldown has elapsed.
	Breaches []models.Breach

	// Recoveries holds metrics that returned to normal this cycle.
	Recoveries []models.Recovery

	// Active lists every metric currently over its threshold,
	// regardless of notification eligibility. Used for the status
	// log's alert marker.
	Active []models.Metric
}

// Evaluate runs every metric through the state machine. A value exceeds
// its threshold on strict greater-than; falling back to or below the
// threshold recovers. Network rates are skipped entirely while the rate
// sample is invalid (first cycle), so their states cannot change then.
func (e *Evaluator) Evaluate(states map[models.Metric]*models.AlertState, sample models.Sample, rates models.RateSample) Evaluation {
	now := e.now()
	var result Evaluation

	for _, metric := range models.Metrics {
		value, ok := metricValue(metric, sample, rates)
		if !ok {
			continue
		}

		state := states[metric]
		threshold := e.thresholds.For(metric)

		if value > threshold {
			result.Active = append(result.Active, metric)

			notify := !state.Breached ||
				now.Sub(state.LastNotified) >= e.cooldown
			if notify {
				result.Breaches = append(result.Breaches, models.Breach{
					ID:        uuid.New().String(),
					Metric:    metric,
					Value:     value,
					Threshold: threshold,
					At:        now,
				})
			}

			if !state.Breached {
				e.logger.Warn().
					Str("metric", string(metric)).
					Float64("value", value).
					Float64("threshold", threshold).
					Msg("Threshold breached")
			}
			state.Breached = true
			continue
		}

		if state.Breached {
			state.Breached = false
			result.Recoveries = append(result.Recoveries, models.Recovery{
				Metric: metric,
				Value:  value,
				At:     now,
			})
			e.logger.Info().
				Str("metric", string(metric)).
				Float64("value", value).
				Float64("threshold", threshold).
				Msg("Metric recovered")
		}
	}

	return result
}

// MarkNotified records a successful notification so cooldown
// suppression starts counting. Called only after the dispatcher
// reports success; a failed dispatch leaves the timestamps untouched
// and the next breaching cycle retries.
func (e *Evaluator) MarkNotified(states map[models.Metric]*models.AlertState, breaches []models.Breach) {
	now := e.now()
	for _, b := range breaches {
		if state, ok := states[b.Metric]; ok {
			state.LastNotified = now
		}
	}
}

func metricValue(metric models.Metric, sample models.Sample, rates models.RateSample) (float64, bool) {
	switch metric {
	case models.MetricCPU:
		return sample.CPUPercent, true
	case models.MetricMemory:
		return sample.MemoryPercent, true
	case models.MetricDisk:
		return sample.DiskPercent, true
	case models.MetricNetSent:
		return rates.SentMBs, rates.Valid
	case models.MetricNetRecv:
		return rates.RecvMBs, rates.Valid
	}
	return 0, false
}
