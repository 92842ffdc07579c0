package utils

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/benmeehan/sysmon-agent/internal/models"
	"github.com/benmeehan/sysmon-agent/pkg/file"
)

// ErrConfig marks configuration problems that must abort startup.
var ErrConfig = errors.New("invalid configuration")

// Config represents the structure of the configuration file.
type Config struct {
	General struct {
		Interval  time.Duration `yaml:"interval"`   // Delay between monitoring cycles
		CPUWindow time.Duration `yaml:"cpu_window"` // Blocking window used to average CPU usage
		Hostname  string        `yaml:"hostname"`   // Hostname reported in logs and alerts
	} `yaml:"general"`

	Thresholds struct {
		models.Thresholds `yaml:",inline"`
		Cooldown          time.Duration `yaml:"cooldown"` // Minimum gap between repeat alerts per metric
	} `yaml:"thresholds"`

	Logging struct {
		LogFile     string `yaml:"log_file"`     // Path to the rotating status log
		MaxSizeMB   int    `yaml:"max_size"`     // Max log size in MB before rotation
		BackupCount int    `yaml:"backup_count"` // Number of rotated backups to keep
	} `yaml:"logging"`

	Email struct {
		Sender      string        `yaml:"sender"`       // Sender email address
		Receiver    string        `yaml:"receiver"`     // Recipient email address
		Subject     string        `yaml:"subject"`      // Alert email subject prefix
		SMTPServer  string        `yaml:"smtp_server"`  // SMTP server hostname
		SMTPPort    int           `yaml:"smtp_port"`    // SMTP server port
		Username    string        `yaml:"username"`     // SMTP auth username
		PasswordEnv string        `yaml:"password_env"` // Environment variable holding the SMTP password
		Timeout     time.Duration `yaml:"timeout"`      // Upper bound on one dispatch attempt

		// Password is resolved from PasswordEnv at load time and is
		// never read from the file itself.
		Password string `yaml:"-"`
	} `yaml:"email"`
}

// LoadConfig loads the YAML configuration from the specified file,
// resolves the SMTP password from the environment and applies defaults
// for optional fields.
func LoadConfig(filename string, fileClient file.FileOperations) (*Config, error) {
	var config Config
	if err := fileClient.ReadYamlFile(filename, &config); err != nil {
		return nil, fmt.Errorf("%w: reading %s: %w", ErrConfig, filename, err)
	}

	config.applyDefaults()
	config.Email.Password = os.Getenv(config.Email.PasswordEnv)

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) applyDefaults() {
	if c.General.Interval == 0 {
		c.General.Interval = 5 * time.Second
	}
	if c.General.CPUWindow == 0 {
		c.General.CPUWindow = time.Second
	}
	if c.General.Hostname == "" {
		c.General.Hostname, _ = os.Hostname()
	}
	if c.Thresholds.Cooldown == 0 {
		c.Thresholds.Cooldown = 5 * time.Minute
	}
	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = 10
	}
	if c.Email.Subject == "" {
		c.Email.Subject = "System Monitor Alert"
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Email.PasswordEnv == "" {
		c.Email.PasswordEnv = "EMAIL_PASSWORD"
	}
	if c.Email.Timeout == 0 {
		c.Email.Timeout = 10 * time.Second
	}
}

// Validate checks the loaded configuration for values the monitor
// cannot run with. Any error returned here is fatal at startup.
func (c *Config) Validate() error {
	if c.General.Interval <= 0 {
		return fmt.Errorf("%w: general.interval must be positive", ErrConfig)
	}
	if c.General.CPUWindow <= 0 || c.General.CPUWindow >= c.General.Interval {
		return fmt.Errorf("%w: general.cpu_window must be positive and shorter than the interval", ErrConfig)
	}
	for _, m := range []struct {
		name  string
		value float64
	}{
		{"thresholds.cpu", c.Thresholds.CPU},
		{"thresholds.memory", c.Thresholds.Memory},
		{"thresholds.disk", c.Thresholds.Disk},
	} {
		if m.value <= 0 || m.value > 100 {
			return fmt.Errorf("%w: %s must be within (0, 100]", ErrConfig, m.name)
		}
	}
	if c.Thresholds.NetSent < 0 || c.Thresholds.NetRecv < 0 {
		return fmt.Errorf("%w: network thresholds must not be negative", ErrConfig)
	}
	if c.Logging.LogFile == "" {
		return fmt.Errorf("%w: logging.log_file is required", ErrConfig)
	}
	if c.Logging.MaxSizeMB <= 0 {
		return fmt.Errorf("%w: logging.max_size must be positive", ErrConfig)
	}
	if c.Logging.BackupCount < 0 {
		return fmt.Errorf("%w: logging.backup_count must not be negative", ErrConfig)
	}
	return nil
}

// EmailConfigured reports whether every field needed to reach the SMTP
// server is present. An unconfigured transport disables alert mail but
// never blocks monitoring.
func (c *Config) EmailConfigured() bool {
	return c.Email.Sender != "" && c.Email.Receiver != "" &&
		c.Email.SMTPServer != "" && c.Email.Password != ""
}

// MaxLogSizeBytes converts the configured log size limit to bytes.
func (c *Config) MaxLogSizeBytes() int64 {
	return int64(c.Logging.MaxSizeMB) * 1024 * 1024
}

// DefaultConfig is the commented configuration written by --gen-config.
const DefaultConfig = `general:
  # Delay between monitoring cycles.
  interval: 5s
  # Blocking window used to average CPU usage. Must be shorter than the interval.
  cpu_window: 1s
  # Hostname reported in logs and alerts. Defaults to the system hostname.
  hostname: ""

thresholds:
  # CPU usage threshold (%).
  cpu: 85
  # Memory usage threshold (%).
  memory: 80
  # Disk usage threshold (%).
  disk: 90
  # Network send threshold (MB/s).
  net_sent: 10
  # Network receive threshold (MB/s).
  net_recv: 10
  # Minimum gap between repeat alerts while a metric stays breached.
  cooldown: 5m

logging:
  # Path to the rotating status log.
  log_file: /var/log/sysmon-agent.log
  # Max log size in MB before rotation.
  max_size: 10
  # Number of rotated backups to keep.
  backup_count: 5

email:
  sender: your_email@example.com
  receiver: recipient@example.com
  subject: System Monitor Alert
  smtp_server: smtp.example.com
  smtp_port: 587
  username: your_email@example.com
  # The SMTP password is read from this environment variable, never from the file.
  password_env: EMAIL_PASSWORD
  # Upper bound on one dispatch attempt.
  timeout: 10s
`

// WriteDefaultConfig writes DefaultConfig to the given path. It
// refuses to overwrite an existing file so a stray --gen-config cannot
// destroy a tuned configuration.
func WriteDefaultConfig(filename string, fileClient file.FileOperations) error {
	exists, err := fileClient.IsFileExists(filename)
	if err != nil {
		return fmt.Errorf("%w: checking %s: %w", ErrConfig, filename, err)
	}
	if exists {
		return fmt.Errorf("%w: %s already exists, refusing to overwrite", ErrConfig, filename)
	}
	return fileClient.WriteFile(filename, DefaultConfig)
}
