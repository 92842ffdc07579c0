// Package monitor contains the sampling and alerting core: the rate
// calculator, the threshold evaluator, the alert dispatcher, and the
// scheduler service that drives one cycle per interval.
package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/benmeehan/sysmon-agent/internal/collectors"
	"github.com/benmeehan/sysmon-agent/internal/display"
	"github.com/benmeehan/sysmon-agent/internal/models"
	"github.com/rs/zerolog"
)

// Service runs the monitoring loop. It is the single owner of all
// mutable state: the previous-counter snapshot inside the rate
// calculator and the per-metric alert states. Cancellation is
// cooperative and checked between cycles, never mid-cycle, so every
// logged line and sent alert corresponds to a fully evaluated cycle.
type Service struct {
	sampler    collectors.Sampler
	rates      *RateCalculator
	evaluator  *Evaluator
	dispatcher *Dispatcher
	console    *display.Console
	statusLog  zerolog.Logger
	logger     zerolog.Logger

	interval time.Duration
	states   map[models.Metric]*models.AlertState

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewService wires the monitoring core together. dispatcher may be nil
// when the mail transport is not configured; breaches are then logged
// but never mailed.
func NewService(
	sampler collectors.Sampler,
	rates *RateCalculator,
	evaluator *Evaluator,
	dispatcher *Dispatcher,
	console *display.Console,
	interval time.Duration,
	statusLog zerolog.Logger,
	logger zerolog.Logger,
) *Service {
	return &Service{
		sampler:    sampler,
		rates:      rates,
		evaluator:  evaluator,
		dispatcher: dispatcher,
		console:    console,
		statusLog:  statusLog,
		logger:     logger,
		interval:   interval,
		states:     NewAlertStates(),
	}
}

// Start launches the monitoring loop in a separate goroutine.
func (s *Service) Start() error {
	if s.ctx != nil {
		s.logger.Warn().Msg("Monitor service is already running")
		return errors.New("monitor service is already running")
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runLoop()
	}()

	s.logger.Info().Dur("interval", s.interval).Msg("Monitor service started successfully")
	return nil
}

// Stop requests shutdown and waits for the in-flight cycle to finish.
func (s *Service) Stop() error {
	if s.ctx == nil {
		s.logger.Warn().Msg("Monitor service is not running")
		return errors.New("monitor service is not running")
	}

	s.cancel()
	s.wg.Wait()

	s.ctx = nil
	s.cancel = nil

	s.logger.Info().Msg("Monitor service stopped successfully")
	return nil
}

// runLoop drives one cycle immediately, then one per tick. The ticker
// fires on cadence regardless of how long a cycle takes, keeping the
// interval stable under processing jitter.
func (s *Service) runLoop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.runCycle(s.ctx)

	for {
		select {
		case <-ticker.C:
			s.runCycle(s.ctx)
		case <-s.ctx.Done():
			s.logger.Info().Msg("Monitor service stopping gracefully")
			return
		}
	}
}

// runCycle performs one sample -> rate -> evaluate -> render -> log ->
// notify pass. No failure inside a cycle terminates the loop.
func (s *Service) runCycle(ctx context.Context) {
	sample, err := s.sampler.Sample(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("Sampling failed, skipping cycle")
		return
	}

	rates := s.rates.Rate(sample.Net)
	eval := s.evaluator.Evaluate(s.states, sample, rates)

	if s.console != nil {
		s.console.Render(sample, rates)
	}
	s.logStatus(sample, rates, eval.Active)

	if len(eval.Breaches) == 0 {
		return
	}

	if s.dispatcher == nil {
		s.logger.Error().Msg("Email configuration incomplete, skipping alert email")
		return
	}

	if err := s.dispatcher.Notify(ctx, eval.Breaches, sample, rates); err != nil {
		s.logger.Error().Err(err).Msg("Failed to dispatch alert email")
		return
	}
	s.evaluator.MarkNotified(s.states, eval.Breaches)
}

// logStatus appends one structured record for the cycle to the rotating
// status log, with an alert marker listing any breached metrics.
func (s *Service) logStatus(sample models.Sample, rates models.RateSample, active []models.Metric) {
	event := s.statusLog.Info().
		Float64("cpu", sample.CPUPercent).
		Float64("memory", sample.MemoryPercent).
		Float64("disk", sample.DiskPercent).
		Float64("net_sent", rates.SentMBs).
		Float64("net_recv", rates.RecvMBs)

	if len(active) > 0 {
		names := make([]string, 0, len(active))
		for _, m := range active {
			names = append(names, string(m))
		}
		event = event.Strs("alert", names)
	}

	event.Msg("status")
}
