package monitor

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/benmeehan/sysmon-agent/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// scriptedSampler replays a fixed sequence of samples, repeating the
// last one when the script runs out.
type scriptedSampler struct {
	samples []models.Sample
	next    int
	err     error
}

func (s *scriptedSampler) Sample(ctx context.Context) (models.Sample, error) {
	if s.err != nil {
		return models.Sample{}, s.err
	}
	sample := s.samples[s.next]
	if s.next < len(s.samples)-1 {
		s.next++
	}
	return sample, nil
}

func cpuSequence(base time.Time, interval time.Duration, cpu ...float64) []models.Sample {
	samples := make([]models.Sample, len(cpu))
	for i, v := range cpu {
		at := base.Add(time.Duration(i) * interval)
		samples[i] = models.Sample{
			Timestamp:     at,
			CPUPercent:    v,
			MemoryPercent: 40,
			DiskPercent:   40,
			Net: models.NetCounters{
				BytesSent: uint64(i) * 1_000_000,
				BytesRecv: uint64(i) * 1_000_000,
				At:        at,
			},
		}
	}
	return samples
}

func newTestService(sampler *scriptedSampler, dispatcher *Dispatcher, statusBuf *bytes.Buffer) *Service {
	statusLog := zerolog.New(statusBuf).With().Str("hostname", "testhost").Logger()
	return NewService(
		sampler,
		NewRateCalculator(zerolog.Nop()),
		NewEvaluator(testThresholds, time.Hour, zerolog.Nop()),
		dispatcher,
		nil,
		5*time.Second,
		statusLog,
		zerolog.Nop(),
	)
}

func TestService_EndToEndSingleAlert(t *testing.T) {
	// thresholds {cpu:85}, sequence [80, 90, 90, 70], cooldown longer
	// than the window: exactly one email, sent on the second sample.
	m := new(mockMailer)
	m.On("Send", mock.Anything, mock.Anything).Return(nil)

	sampler := &scriptedSampler{samples: cpuSequence(time.Now(), 5*time.Second, 80, 90, 90, 70)}
	var statusBuf bytes.Buffer
	svc := newTestService(sampler, testDispatcher(m), &statusBuf)

	for i := 0; i < 4; i++ {
		svc.runCycle(context.Background())
	}

	m.AssertNumberOfCalls(t, "Send", 1)
	assert.False(t, svc.states[models.MetricCPU].Breached, "state must return to normal on the fourth sample")

	lines := strings.Split(strings.TrimSpace(statusBuf.String()), "\n")
	require.Len(t, lines, 4, "one status record per cycle")
	assert.NotContains(t, lines[0], `"alert"`)
	assert.Contains(t, lines[1], `"alert":["cpu"]`)
	assert.Contains(t, lines[2], `"alert":["cpu"]`)
	assert.NotContains(t, lines[3], `"alert"`)
}

func TestService_TransportFailureDoesNotStopMonitoring(t *testing.T) {
	m := new(mockMailer)
	m.On("Send", mock.Anything, mock.Anything).Return(errors.New("auth failed"))

	sampler := &scriptedSampler{samples: cpuSequence(time.Now(), 5*time.Second, 90, 90, 90)}
	var statusBuf bytes.Buffer
	svc := newTestService(sampler, testDispatcher(m), &statusBuf)

	for i := 0; i < 3; i++ {
		svc.runCycle(context.Background())
	}

	// every cycle still sampled and logged, and the undelivered alert
	// was retried on each breaching cycle
	lines := strings.Split(strings.TrimSpace(statusBuf.String()), "\n")
	assert.Len(t, lines, 3)
	m.AssertNumberOfCalls(t, "Send", 3)
}

func TestService_SamplingFailureSkipsCycle(t *testing.T) {
	sampler := &scriptedSampler{err: errors.New("proc unreadable")}
	var statusBuf bytes.Buffer
	svc := newTestService(sampler, nil, &statusBuf)

	svc.runCycle(context.Background())

	assert.Empty(t, statusBuf.String(), "a failed sample must not produce a status record")
}

func TestService_NilDispatcherLogsAndContinues(t *testing.T) {
	sampler := &scriptedSampler{samples: cpuSequence(time.Now(), 5*time.Second, 90, 90)}
	var statusBuf bytes.Buffer
	svc := newTestService(sampler, nil, &statusBuf)

	svc.runCycle(context.Background())
	svc.runCycle(context.Background())

	lines := strings.Split(strings.TrimSpace(statusBuf.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestService_FirstCycleNeverAlertsOnNetworkRates(t *testing.T) {
	m := new(mockMailer)
	m.On("Send", mock.Anything, mock.Anything).Return(nil)

	// enormous counters on the first sample; without a previous
	// snapshot they must not be interpreted as a rate
	base := time.Now()
	sampler := &scriptedSampler{samples: []models.Sample{{
		Timestamp:     base,
		CPUPercent:    40,
		MemoryPercent: 40,
		DiskPercent:   40,
		Net:           models.NetCounters{BytesSent: 1 << 40, BytesRecv: 1 << 40, At: base},
	}}}
	var statusBuf bytes.Buffer
	svc := newTestService(sampler, testDispatcher(m), &statusBuf)

	svc.runCycle(context.Background())

	m.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	assert.False(t, svc.states[models.MetricNetSent].Breached)
}

func TestService_StartAndStopLifecycle(t *testing.T) {
	sampler := &scriptedSampler{samples: cpuSequence(time.Now(), time.Millisecond, 40, 40)}
	var statusBuf bytes.Buffer
	svc := newTestService(sampler, nil, &statusBuf)
	svc.interval = 10 * time.Millisecond

	require.NoError(t, svc.Start())
	assert.Error(t, svc.Start(), "second start must be rejected")

	time.Sleep(30 * time.Millisecond)
	require.NoError(t, svc.Stop())
	assert.Error(t, svc.Stop(), "second stop must be rejected")

	assert.NotEmpty(t, statusBuf.String())
}
