package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/benmeehan/sysmon-agent/internal/models"
	"github.com/benmeehan/sysmon-agent/pkg/mailer"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrDispatch wraps mail transport failures. A dispatch failure is
// logged by the caller and monitoring continues; the alert is retried
// on the next breach-triggering cycle.
var ErrDispatch = errors.New("alert dispatch failed")

// Dispatcher renders and sends one alert email per cycle covering all
// of that cycle's notifiable breaches.
type Dispatcher struct {
	mailer   mailer.Mailer
	subject  string
	hostname string
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewDispatcher builds a dispatcher sending through the given mailer.
// timeout bounds a single delivery attempt so a hung SMTP connection
// cannot stall the monitoring loop.
func NewDispatcher(m mailer.Mailer, subject, hostname string, interval, timeout time.Duration, logger zerolog.Logger) *Dispatcher {
	return &Dispatcher{
		mailer:   m,
		subject:  subject,
		hostname: hostname,
		interval: interval,
		timeout:  timeout,
		logger:   logger,
	}
}

// Notify sends a single email describing every breach detected this
// cycle, alongside the full metrics table for context.
func (d *Dispatcher) Notify(ctx context.Context, breaches []models.Breach, sample models.Sample, rates models.RateSample) error {
	if len(breaches) == 0 {
		return nil
	}

	msg := mailer.Message{
		Subject:  fmt.Sprintf("%s - %s", d.subject, d.hostname),
		TextBody: d.renderText(breaches, sample, rates),
		HTMLBody: d.renderHTML(breaches, sample, rates),
		Headers:  map[string]string{"X-Alert-ID": uuid.New().String()},
	}

	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	if err := d.mailer.Send(sendCtx, msg); err != nil {
		return fmt.Errorf("%w: %w", ErrDispatch, err)
	}

	d.logger.Info().Int("breaches", len(breaches)).Msg("Alert email dispatched")
	return nil
}

// SendTest delivers one synthetic alert through the configured
// transport. Used by the one-shot test-email mode to validate the email
// configuration without running the monitoring loop.
func (d *Dispatcher) SendTest(ctx context.Context) error {
	now := time.Now()
	sample := models.Sample{
		Timestamp:     now,
		CPUPercent:    95.0,
		MemoryPercent: 85.0,
		DiskPercent:   92.5,
	}
	rates := models.RateSample{SentMBs: 15.3, RecvMBs: 8.7, Valid: true}
	breaches := []models.Breach{
		{ID: uuid.New().String(), Metric: models.MetricCPU, Value: 95.0, Threshold: 85, At: now},
		{ID: uuid.New().String(), Metric: models.MetricDisk, Value: 92.5, Threshold: 90, At: now},
		{ID: uuid.New().String(), Metric: models.MetricNetSent, Value: 15.3, Threshold: 10, At: now},
	}
	return d.Notify(ctx, breaches, sample, rates)
}

type metricRow struct {
	label     string
	value     string
	threshold string
	breached  bool
}

func (d *Dispatcher) rows(breaches []models.Breach, sample models.Sample, rates models.RateSample) []metricRow {
	breached := make(map[models.Metric]bool, len(breaches))
	for _, b := range breaches {
		breached[b.Metric] = true
	}

	row := func(m models.Metric, value, threshold float64, format string) metricRow {
		return metricRow{
			label:     m.Label(),
			value:     fmt.Sprintf(format, value, m.Unit()),
			threshold: fmt.Sprintf(format, threshold, m.Unit()),
			breached:  breached[m],
		}
	}

	return []metricRow{
		row(models.MetricCPU, sample.CPUPercent, thresholdFor(breaches, models.MetricCPU), "%.1f%[2]s"),
		row(models.MetricMemory, sample.MemoryPercent, thresholdFor(breaches, models.MetricMemory), "%.1f%[2]s"),
		row(models.MetricDisk, sample.DiskPercent, thresholdFor(breaches, models.MetricDisk), "%.1f%[2]s"),
		row(models.MetricNetSent, rates.SentMBs, thresholdFor(breaches, models.MetricNetSent), "%.2f %[2]s"),
		row(models.MetricNetRecv, rates.RecvMBs, thresholdFor(breaches, models.MetricNetRecv), "%.2f %[2]s"),
	}
}

func thresholdFor(breaches []models.Breach, m models.Metric) float64 {
	for _, b := range breaches {
		if b.Metric == m {
			return b.Threshold
		}
	}
	return 0
}

func (d *Dispatcher) renderText(breaches []models.Breach, sample models.Sample, rates models.RateSample) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "System alert on %s\n\n", d.hostname)
	sb.WriteString("Active alerts:\n")
	for _, b := range breaches {
		fmt.Fprintf(&sb, " - High %s: %.2f %s (threshold: %.2f %s)\n",
			b.Metric.Label(), b.Value, b.Metric.Unit(), b.Threshold, b.Metric.Unit())
	}
	sb.WriteString("\nResource metrics:\n")
	fmt.Fprintf(&sb, "CPU usage: %.1f%%\n", sample.CPUPercent)
	fmt.Fprintf(&sb, "Memory usage: %.1f%%\n", sample.MemoryPercent)
	fmt.Fprintf(&sb, "Disk usage: %.1f%%\n", sample.DiskPercent)
	fmt.Fprintf(&sb, "Network sent: %.2f MB/s\n", rates.SentMBs)
	fmt.Fprintf(&sb, "Network received: %.2f MB/s\n", rates.RecvMBs)
	fmt.Fprintf(&sb, "\nGenerated at: %s\n", sample.Timestamp.Format("2006-01-02 15:04:05"))
	return sb.String()
}

func (d *Dispatcher) renderHTML(breaches []models.Breach, sample models.Sample, rates models.RateSample) string {
	var sb strings.Builder
	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	fmt.Fprintf(&sb, "<h2>System Resource Alert</h2><p><strong>System:</strong> %s<br><strong>Time:</strong> %s</p>",
		d.hostname, sample.Timestamp.Format("2006-01-02 15:04:05"))

	sb.WriteString("<h3>Active Alerts:</h3><ul>")
	for _, b := range breaches {
		fmt.Fprintf(&sb, "<li style=\"color: #d9534f;\">High %s: %.2f %s (threshold: %.2f %s)</li>",
			b.Metric.Label(), b.Value, b.Metric.Unit(), b.Threshold, b.Metric.Unit())
	}
	sb.WriteString("</ul>")

	sb.WriteString("<h3>Resource Metrics:</h3><table style=\"border-collapse: collapse;\">")
	sb.WriteString("<tr><th style=\"border: 1px solid #ddd; padding: 8px;\">Metric</th>" +
		"<th style=\"border: 1px solid #ddd; padding: 8px;\">Value</th>" +
		"<th style=\"border: 1px solid #ddd; padding: 8px;\">Threshold</th>" +
		"<th style=\"border: 1px solid #ddd; padding: 8px;\">Status</th></tr>")
	for _, r := range d.rows(breaches, sample, rates) {
		status := "Normal"
		style := ""
		threshold := r.threshold
		if !r.breached {
			threshold = "-"
		} else {
			status = "CRITICAL"
			style = " color: #d9534f; font-weight: bold;"
		}
		fmt.Fprintf(&sb, "<tr><td style=\"border: 1px solid #ddd; padding: 8px;\">%s</td>"+
			"<td style=\"border: 1px solid #ddd; padding: 8px;\">%s</td>"+
			"<td style=\"border: 1px solid #ddd; padding: 8px;\">%s</td>"+
			"<td style=\"border: 1px solid #ddd; padding: 8px;%s\">%s</td></tr>",
			r.label, r.value, threshold, style, status)
	}
	sb.WriteString("</table>")

	fmt.Fprintf(&sb, "<p style=\"color: #6c757d; font-size: 0.9em;\">Generated by sysmon-agent. Next check in %s.</p>", d.interval)
	sb.WriteString("</body></html>")
	return sb.String()
}
