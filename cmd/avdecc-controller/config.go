package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
	"gopkg.in/yaml.v3"

	"github.com/avb-tools/avdecc-go/pkg/acmp"
	"github.com/avb-tools/avdecc-go/pkg/aecp"
	"github.com/avb-tools/avdecc-go/pkg/protocol"
	"github.com/avb-tools/avdecc-go/pkg/uid"
)

// Config holds the controller configuration. Flags override values read
// from the YAML file.
type Config struct {
	Interface string `yaml:"interface"`
	Transport string `yaml:"transport"`

	Entity   EntityConfig   `yaml:"entity"`
	Timeouts TimeoutConfig  `yaml:"timeouts"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Protocol ProtocolConfig `yaml:"protocol_log"`

	Interactive bool `yaml:"interactive"`
}

// EntityConfig describes the controller entity.
type EntityConfig struct {
	// EntityID is allocated from the interface MAC address when null.
	EntityID      uid.ID `yaml:"entity_id"`
	EntityModelID uid.ID `yaml:"entity_model_id"`

	// AvailableDuration is the advertised valid time.
	AvailableDuration time.Duration `yaml:"available_duration"`

	// DiscoveryInterval enables periodic ENTITY_DISCOVER when positive.
	DiscoveryInterval time.Duration `yaml:"discovery_interval"`
}

// TimeoutConfig overrides the protocol timing defaults.
type TimeoutConfig struct {
	Aecp                 time.Duration `yaml:"aecp"`
	AecpRetries          int           `yaml:"aecp_retries"`
	AcmpRetries          int           `yaml:"acmp_retries"`
	MaxInflightPerTarget int           `yaml:"max_inflight_per_target"`
	Command              time.Duration `yaml:"command"`
}

// LogConfig configures operational logging.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Addr     string `yaml:"addr"`
	Path     string `yaml:"path"`
	Announce bool   `yaml:"announce"`
}

// ProtocolConfig configures the protocol trace.
type ProtocolConfig struct {
	File string `yaml:"file"`

	// Slog mirrors trace events to the operational log at debug level.
	Slog bool `yaml:"slog"`
}

// DefaultConfig returns the configuration used without a file.
func DefaultConfig() Config {
	return Config{
		Transport: "pcap",
		Entity: EntityConfig{
			AvailableDuration: 62 * time.Second,
		},
		Timeouts: TimeoutConfig{
			Aecp:                 aecp.DefaultTimeout,
			AecpRetries:          aecp.DefaultRetries,
			MaxInflightPerTarget: aecp.DefaultMaxInflightPerTarget,
			Command:              10 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Metrics: MetricsConfig{Path: "/metrics"},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks values that cannot be caught by the YAML decoder.
func (c *Config) Validate() error {
	if c.Interface == "" {
		return fmt.Errorf("no interface configured")
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Entity.AvailableDuration < 2*time.Second {
		return fmt.Errorf("available_duration %s is below 2s", c.Entity.AvailableDuration)
	}
	if c.Timeouts.Aecp <= 0 || c.Timeouts.Command <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.Timeouts.AecpRetries < 0 || c.Timeouts.AcmpRetries < 0 {
		return fmt.Errorf("retries cannot be negative")
	}
	return nil
}

// bindFlags registers the command line flags. Defaults come from cfg.
func bindFlags(fs *flag.FlagSet, cfg *Config) *string {
	path := fs.String("config", "", "YAML configuration file")
	fs.StringVar(&cfg.Interface, "interface", cfg.Interface, "Network interface name")
	fs.StringVar(&cfg.Transport, "transport", cfg.Transport, "Transport: pcap, afpacket, virtual")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "Log level: debug, info, warn, error")
	fs.StringVar(&cfg.Log.File, "log-file", cfg.Log.File, "Rotated log file (default stderr)")
	fs.StringVar(&cfg.Protocol.File, "protocol-log", cfg.Protocol.File, "Protocol trace file (.alog)")
	fs.StringVar(&cfg.Metrics.Addr, "metrics-addr", cfg.Metrics.Addr, "Prometheus listen address, e.g. :9110")
	fs.BoolVar(&cfg.Metrics.Announce, "announce", cfg.Metrics.Announce, "Announce the metrics endpoint over DNS-SD")
	fs.BoolVar(&cfg.Interactive, "interactive", cfg.Interactive, "Enable interactive command mode")
	fs.DurationVar(&cfg.Entity.DiscoveryInterval, "discovery-interval", cfg.Entity.DiscoveryInterval, "Periodic discovery interval (0 disables)")
	return path
}

// parseArgs resolves the configuration from the command line. A config
// file is loaded first and explicitly set flags are applied on top.
func parseArgs(args []string) (Config, error) {
	fs := flag.NewFlagSet("avdecc-controller", flag.ContinueOnError)
	cfg := DefaultConfig()
	path := bindFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	if *path != "" {
		fromFile, err := LoadConfig(*path)
		if err != nil {
			return cfg, err
		}
		cfg = fromFile
		fs = flag.NewFlagSet("avdecc-controller", flag.ContinueOnError)
		bindFlags(fs, &cfg)
		if err := fs.Parse(args); err != nil {
			return cfg, err
		}
	}
	return cfg, cfg.Validate()
}

// ProtocolConfig maps the configuration onto the protocol settings.
func (c *Config) ProtocolConfig() protocol.Config {
	pc := protocol.DefaultConfig()
	pc.Aecp.Timeout = c.Timeouts.Aecp
	pc.Aecp.Retries = c.Timeouts.AecpRetries
	if c.Timeouts.MaxInflightPerTarget > 0 {
		pc.Aecp.MaxInflightPerTarget = c.Timeouts.MaxInflightPerTarget
	}
	pc.Acmp = acmp.DefaultConfig()
	pc.Acmp.Retries = c.Timeouts.AcmpRetries
	return pc
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level: %s (use: debug, info, warn, error)", s)
	}
}

// setupLogging builds the operational logger. The returned func closes
// the rotated file, if any.
func setupLogging(cfg LogConfig, stderr io.Writer) (*slog.Logger, func() error, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	w := stderr
	closer := func() error { return nil }
	if cfg.File != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		w, closer = lj, lj.Close
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:     level,
		AddSource: level == slog.LevelDebug,
	})
	return slog.New(handler), closer, nil
}
