// Package config loads and validates the agent's TOML configuration
// file, expanding ${VAR} environment references before parsing and
// validating the decoded struct's invariants.
package config

import (
	"bytes"
	"fmt"
	"os"
	"regexp"
	"time"

	"github.com/fsnotify/fsnotify"
	validator "github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/ecmoce/sysops-agent/daemon/logger"
)

// DefaultPath is the configuration file location used when none is
// given on the command line.
const DefaultPath = "/etc/sysops-agent/config.toml"

var envRef = regexp.MustCompile(`\$\{([^}]+)\}`)

// AgentConfig identifies this host and where it keeps working data.
type AgentConfig struct {
	Hostname string `mapstructure:"hostname"`
	DataDir  string `mapstructure:"data_dir" validate:"required"`
}

// CollectorConfig is the common shape shared by every procfs/sysfs
// collector's configuration table.
type CollectorConfig struct {
	Enabled         bool `mapstructure:"enabled"`
	IntervalSeconds int  `mapstructure:"interval_seconds" validate:"gt=0"`
}

// LogPattern is one custom dmesg pattern supplied in
// [collectors.log.custom_patterns].
type LogPattern struct {
	Name     string `mapstructure:"name" validate:"required"`
	Pattern  string `mapstructure:"pattern" validate:"required"`
	Severity string `mapstructure:"severity" validate:"oneof=info warn critical emergency"`
}

// CollectorsConfig groups every collector and the log scanner.
type CollectorsConfig struct {
	CPU     CollectorConfig `mapstructure:"cpu"`
	Memory  CollectorConfig `mapstructure:"memory"`
	Disk    DiskConfig      `mapstructure:"disk"`
	Network NetworkConfig   `mapstructure:"network"`
	Process ProcessConfig   `mapstructure:"process"`
	FD      CollectorConfig `mapstructure:"fd"`
	Kernel  CollectorConfig `mapstructure:"kernel"`
	Log     LogConfig       `mapstructure:"log"`
}

// DiskConfig configures the disk collector's mount/fstype blocklists.
type DiskConfig struct {
	CollectorConfig  `mapstructure:",squash"`
	ExcludeFstypes   []string `mapstructure:"exclude_fstypes"`
	ExcludeMounts    []string `mapstructure:"exclude_mounts"`
	StatCacheSeconds int      `mapstructure:"stat_cache_seconds"`
}

// NetworkConfig configures the network collector's interface blocklist.
type NetworkConfig struct {
	CollectorConfig   `mapstructure:",squash"`
	ExcludeInterfaces []string `mapstructure:"exclude_interfaces"`
}

// ProcessConfig configures the optional per-process tracking.
type ProcessConfig struct {
	CollectorConfig `mapstructure:",squash"`
	TopN            int `mapstructure:"top_n"`
}

// LogConfig configures the dmesg-based log scanner.
type LogConfig struct {
	Enabled         bool         `mapstructure:"enabled"`
	IntervalSeconds int          `mapstructure:"interval_seconds" validate:"gt=0"`
	CustomPatterns  []LogPattern `mapstructure:"custom_patterns"`
}

// ThresholdConfig is one metric's warn/critical cut-off pair.
type ThresholdConfig struct {
	WarnPercent     float64 `mapstructure:"warn_percent"`
	CriticalPercent float64 `mapstructure:"critical_percent"`
}

// AnalyzersConfig groups every analyzer's tunables.
type AnalyzersConfig struct {
	Threshold ThresholdAnalyzerConfig `mapstructure:"threshold"`
	ZScore    ZScoreAnalyzerConfig    `mapstructure:"zscore"`
	Trend     TrendAnalyzerConfig     `mapstructure:"trend"`
}

type ThresholdAnalyzerConfig struct {
	CPU    ThresholdConfig `mapstructure:"cpu"`
	Memory ThresholdConfig `mapstructure:"memory"`
	Disk   ThresholdConfig `mapstructure:"disk"`
	FD     ThresholdConfig `mapstructure:"fd"`
}

type ZScoreAnalyzerConfig struct {
	Enabled    bool    `mapstructure:"enabled"`
	WindowSize int     `mapstructure:"window_size"`
	Threshold  float64 `mapstructure:"threshold"`
}

type TrendAnalyzerConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	WindowHours int  `mapstructure:"window_hours"`
}

// StorageConfig configures the ring-buffer store.
type StorageConfig struct {
	RingBufferSize int `mapstructure:"ring_buffer_size" validate:"gt=0"`
}

// AlertingConfig configures the alert manager's dedup window and rate
// limiter.
type AlertingConfig struct {
	DedupWindowSecs     int `mapstructure:"dedup_window_secs" validate:"gt=0"`
	RateLimitPerMinute  int `mapstructure:"rate_limit_per_minute" validate:"gt=0"`
}

// ChannelConfig is the common shape of every outbound alert channel.
type ChannelConfig struct {
	Enabled         bool              `mapstructure:"enabled"`
	Endpoint        string            `mapstructure:"endpoint"`
	Headers         map[string]string `mapstructure:"headers"`
	SeverityFilter  []string          `mapstructure:"severity_filter"`
}

// ChannelsConfig groups every configured alert channel.
type ChannelsConfig struct {
	Discord ChannelConfig `mapstructure:"discord"`
	Slack   ChannelConfig `mapstructure:"slack"`
	Webhook ChannelConfig `mapstructure:"webhook"`
}

// NatsConfig configures the optional remote publisher and message-bus
// reply handlers.
type NatsConfig struct {
	Enabled        bool          `mapstructure:"enabled"`
	URL            string        `mapstructure:"url"`
	SubjectPrefix  string        `mapstructure:"subject_prefix"`
	FlushInterval  time.Duration `mapstructure:"flush_interval"`
	Compress       bool          `mapstructure:"compress"`
	ExposeHandlers bool          `mapstructure:"expose_handlers"`
}

// PrometheusConfig configures the internal metrics-exposition
// endpoint.
type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Bind    string `mapstructure:"bind"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	Level      string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
}

// Config is the complete decoded, validated configuration.
type Config struct {
	Agent      AgentConfig       `mapstructure:"agent"`
	Logging    LoggingConfig     `mapstructure:"logging"`
	Collectors CollectorsConfig  `mapstructure:"collectors"`
	Analyzers  AnalyzersConfig   `mapstructure:"analyzers"`
	Storage    StorageConfig     `mapstructure:"storage"`
	Alerting   AlertingConfig    `mapstructure:"alerting"`
	Channels   ChannelsConfig    `mapstructure:"channels"`
	Nats       NatsConfig        `mapstructure:"nats"`
	Prometheus PrometheusConfig  `mapstructure:"prometheus"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	hostname, _ := os.Hostname()
	return Config{
		Agent: AgentConfig{
			Hostname: hostname,
			DataDir:  "/var/lib/sysops-agent",
		},
		Logging: LoggingConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 7,
		},
		Collectors: CollectorsConfig{
			CPU:    CollectorConfig{Enabled: true, IntervalSeconds: 10},
			Memory: CollectorConfig{Enabled: true, IntervalSeconds: 10},
			Disk: DiskConfig{
				CollectorConfig:  CollectorConfig{Enabled: true, IntervalSeconds: 30},
				ExcludeFstypes:   []string{"tmpfs", "devtmpfs", "overlay", "squashfs", "proc", "sysfs"},
				ExcludeMounts:    []string{"/boot", "/boot/efi"},
				StatCacheSeconds: 5,
			},
			Network: NetworkConfig{
				CollectorConfig:   CollectorConfig{Enabled: true, IntervalSeconds: 10},
				ExcludeInterfaces: []string{"lo"},
			},
			Process: ProcessConfig{
				CollectorConfig: CollectorConfig{Enabled: true, IntervalSeconds: 30},
				TopN:            0,
			},
			FD:     CollectorConfig{Enabled: true, IntervalSeconds: 30},
			Kernel: CollectorConfig{Enabled: true, IntervalSeconds: 60},
			Log: LogConfig{
				Enabled:         true,
				IntervalSeconds: 5,
			},
		},
		Analyzers: AnalyzersConfig{
			Threshold: ThresholdAnalyzerConfig{
				CPU:    ThresholdConfig{WarnPercent: 80, CriticalPercent: 95},
				Memory: ThresholdConfig{WarnPercent: 85, CriticalPercent: 95},
				Disk:   ThresholdConfig{WarnPercent: 80, CriticalPercent: 90},
				FD:     ThresholdConfig{WarnPercent: 80, CriticalPercent: 95},
			},
			ZScore: ZScoreAnalyzerConfig{
				Enabled:    true,
				WindowSize: 360,
				Threshold:  3.0,
			},
			Trend: TrendAnalyzerConfig{
				Enabled:     true,
				WindowHours: 12,
			},
		},
		Storage: StorageConfig{RingBufferSize: 8640},
		Alerting: AlertingConfig{
			DedupWindowSecs:    300,
			RateLimitPerMinute: 10,
		},
		Prometheus: PrometheusConfig{
			Enabled: false,
			Bind:    "127.0.0.1:9469",
		},
	}
}

// Load reads, expands, decodes and validates the configuration file at
// path. A missing file is not an error: Default() is returned instead,
// matching the agent's "degrade silently, never crash on an absent
// optional subsystem" posture for everything except a present-but-
// malformed file, which is a fatal configuration error.
func Load(path string) (Config, error) {
	if path == "" {
		path = DefaultPath
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Blue("no configuration file at %s, using defaults", path)
			return Default(), nil
		}
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	expanded := expandEnv(raw)

	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)
	if err := v.ReadConfig(bytes.NewReader(expanded)); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	// Start from Default() so tables and keys the file omits keep their
	// default values instead of decoding to zero.
	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}

	if err := Validate(cfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid %s: %w", path, err)
	}

	return cfg, nil
}

// Validate checks struct-tag invariants via go-playground/validator.
func Validate(cfg Config) error {
	return validator.New().Struct(cfg)
}

// expandEnv substitutes ${VAR} occurrences with the corresponding
// environment variable, or the empty string when unset, before the
// bytes ever reach the TOML parser.
func expandEnv(raw []byte) []byte {
	return envRef.ReplaceAllFunc(raw, func(match []byte) []byte {
		name := string(envRef.FindSubmatch(match)[1])
		val, _ := os.LookupEnv(name)
		return []byte(val)
	})
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("agent.hostname", d.Agent.Hostname)
	v.SetDefault("agent.data_dir", d.Agent.DataDir)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("storage.ring_buffer_size", d.Storage.RingBufferSize)
	v.SetDefault("alerting.dedup_window_secs", d.Alerting.DedupWindowSecs)
	v.SetDefault("alerting.rate_limit_per_minute", d.Alerting.RateLimitPerMinute)
	v.SetDefault("prometheus.bind", d.Prometheus.Bind)
}

// WatchConfig logs configuration file changes on disk; this agent
// does not hot-swap a running pipeline, so the callback only reports
// the change rather than reloading anything, matching the non-goal on
// dynamic reconfiguration.
func WatchConfig(path string) {
	v := viper.New()
	v.SetConfigFile(path)
	v.OnConfigChange(func(e fsnotify.Event) {
		logger.Blue("configuration file changed on disk: %s (restart to apply)", e.Name)
	})
	v.WatchConfig()
}
