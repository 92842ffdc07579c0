// Package display renders per-cycle status lines for the terminal.
// Values are green while comfortably under their threshold, yellow when
// within warningMargin of it, and red once over.
package display

import (
	"fmt"
	"io"

	"github.com/benmeehan/sysmon-agent/internal/models"
	"github.com/fatih/color"
)

// warningMargin is how close a value may get to its threshold before it
// renders yellow.
const warningMargin = 10.0

var (
	normal   = color.New(color.FgGreen).SprintfFunc()
	warning  = color.New(color.FgYellow).SprintfFunc()
	critical = color.New(color.FgRed).SprintfFunc()
)

// Console writes one colorized status line per monitoring cycle.
type Console struct {
	thresholds models.Thresholds
	out        io.Writer
}

// NewConsole builds a renderer writing to out.
func NewConsole(thresholds models.Thresholds, out io.Writer) *Console {
	return &Console{thresholds: thresholds, out: out}
}

// Render prints the status line for one cycle.
func (c *Console) Render(sample models.Sample, rates models.RateSample) {
	fmt.Fprintf(c.out, "[%s] CPU: %s%% | Mem: %s%% | Disk: %s%% | Net: ↑%s MB/s ↓%s MB/s\n",
		sample.Timestamp.Format("2006-01-02 15:04:05"),
		c.colorize(sample.CPUPercent, c.thresholds.CPU, "%.1f"),
		c.colorize(sample.MemoryPercent, c.thresholds.Memory, "%.1f"),
		c.colorize(sample.DiskPercent, c.thresholds.Disk, "%.1f"),
		c.colorize(rates.SentMBs, c.thresholds.NetSent, "%.2f"),
		c.colorize(rates.RecvMBs, c.thresholds.NetRecv, "%.2f"),
	)
}

// Banner prints the startup summary shown before the first cycle.
func (c *Console) Banner(hostname string) {
	fmt.Fprintln(c.out, color.CyanString("Starting system monitor..."))
	fmt.Fprintln(c.out, color.YellowString("Host: %s", hostname))
	fmt.Fprintf(c.out, "Thresholds - CPU: %.0f%% | Memory: %.0f%% | Disk: %.0f%% | Net Sent: %.0fMB/s | Net Recv: %.0fMB/s\n",
		c.thresholds.CPU, c.thresholds.Memory, c.thresholds.Disk, c.thresholds.NetSent, c.thresholds.NetRecv)
}

func (c *Console) colorize(value, threshold float64, format string) string {
	switch {
	case value > threshold:
		return critical(format, value)
	case value > threshold-warningMargin:
		return warning(format, value)
	default:
		return normal(format, value)
	}
}
