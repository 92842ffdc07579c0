package models

import "time"

// Metric identifies one of the monitored host resources.
type Metric string

const (
	MetricCPU     Metric = "cpu"
	MetricMemory  Metric = "memory"
	MetricDisk    Metric = "disk"
	MetricNetSent Metric = "net_sent"
	MetricNetRecv Metric = "net_recv"
)

// Metrics lists every monitored metric in evaluation order.
var Metrics = []Metric{MetricCPU, MetricMemory, MetricDisk, MetricNetSent, MetricNetRecv}

// Unit returns the display unit for the metric's values.
func (m Metric) Unit() string {
	switch m {
	case MetricNetSent, MetricNetRecv:
		return "MB/s"
	default:
		return "%"
	}
}

// Label returns a human-readable name used in alert messages.
func (m Metric) Label() string {
	switch m {
	case MetricCPU:
		return "CPU usage"
	case MetricMemory:
		return "Memory usage"
	case MetricDisk:
		return "Disk usage"
	case MetricNetSent:
		return "Network send rate"
	case MetricNetRecv:
		return "Network receive rate"
	}
	return string(m)
}

// Sample holds the raw resource readings taken in one monitoring cycle.
// It is created once per cycle and never mutated afterwards.
type Sample struct {
	Timestamp     time.Time   `json:"timestamp"`
	CPUPercent    float64     `json:"cpu_percent"`
	MemoryPercent float64     `json:"memory_percent"`
	DiskPercent   float64     `json:"disk_percent"`
	Net           NetCounters `json:"net"`
}

// NetCounters is a snapshot of the cumulative network byte counters.
type NetCounters struct {
	BytesSent uint64    `json:"bytes_sent"`
	BytesRecv uint64    `json:"bytes_recv"`
	At        time.Time `json:"at"`
}

// RateSample is the per-interval network throughput derived from two
// consecutive counter snapshots.
type RateSample struct {
	SentMBs float64 `json:"net_sent_mb_s"`
	RecvMBs float64 `json:"net_recv_mb_s"`

	// Valid is false on the first cycle, when no previous snapshot
	// exists and the rates must not be evaluated against thresholds.
	Valid bool `json:"-"`
}

// Thresholds holds the configured alert limits. Percent metrics are
// 0-100, network metrics are MB/s. Loaded once at startup and immutable
// for the process lifetime.
type Thresholds struct {
	CPU     float64 `yaml:"cpu"`
	Memory  float64 `yaml:"memory"`
	Disk    float64 `yaml:"disk"`
	NetSent float64 `yaml:"net_sent"`
	NetRecv float64 `yaml:"net_recv"`
}

// For returns the limit configured for the given metric.
func (t Thresholds) For(m Metric) float64 {
	switch m {
	case MetricCPU:
		return t.CPU
	case MetricMemory:
		return t.Memory
	case MetricDisk:
		return t.Disk
	case MetricNetSent:
		return t.NetSent
	case MetricNetRecv:
		return t.NetRecv
	}
	return 0
}

// AlertState tracks one metric's position in the normal/breached state
// machine. Owned exclusively by the scheduler loop.
type AlertState struct {
	Breached     bool
	LastNotified time.Time
}

// Breach records one metric crossing its threshold in a cycle.
type Breach struct {
	ID        string    `json:"id"`
	Metric    Metric    `json:"metric"`
	Value     float64   `json:"value"`
	Threshold float64   `json:"threshold"`
	At        time.Time `json:"at"`
}

// Recovery records a metric returning to normal. Recoveries are logged
// but never mailed.
type Recovery struct {
	Metric Metric    `json:"metric"`
	Value  float64   `json:"value"`
	At     time.Time `json:"at"`
}
