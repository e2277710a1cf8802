// Package config defines all configuration for the node-feed service.
// Config is loaded from a YAML file (default: configs/config.yaml) with
// overridable fields via HLF_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration. Maps directly to the YAML
// file structure.
type Config struct {
	Reader    ReaderConfig    `mapstructure:"reader"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Sync      SyncConfig      `mapstructure:"sync"`
	Transport TransportConfig `mapstructure:"transport"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// ReaderConfig points at the upstream node's hourly log directories.
// One entry is created per directory that needs tailing (book diffs,
// fills, order status, and so on each live under their own base).
type ReaderConfig struct {
	BookDiffsDir string `mapstructure:"book_diffs_dir"`
	TradesDir    string `mapstructure:"trades_dir"`
	FillsDir     string `mapstructure:"fills_dir"`
	OrdersDir    string `mapstructure:"orders_dir"`
	TwapDir      string `mapstructure:"twap_dir"`
	MiscDir      string `mapstructure:"misc_dir"`
}

// SnapshotConfig names the upstream endpoint and file paths the
// snapshot loader uses for its cleanup/request/wait/load cycle.
type SnapshotConfig struct {
	InfoURL       string `mapstructure:"info_url"`
	ContainerPath string `mapstructure:"container_path"`
	HostPath      string `mapstructure:"host_path"`
}

// SyncConfig tunes the sync coordinator's steady-state cadence.
//
//   - ResyncInterval: how often a fresh snapshot is requested and
//     installed during Live, to correct for any missed or malformed
//     diffs without ever halting live processing.
//   - StatsInterval: how often aggregate applied/skipped counters and
//     book totals are logged.
type SyncConfig struct {
	ResyncInterval time.Duration `mapstructure:"resync_interval"`
	StatsInterval  time.Duration `mapstructure:"stats_interval"`
}

// TransportConfig controls the request/reply + publish/subscribe
// WebSocket server.
type TransportConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads config from a YAML file with env var overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetEnvPrefix("HLF")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Validate checks all required fields.
func (c *Config) Validate() error {
	if c.Reader.BookDiffsDir == "" {
		return fmt.Errorf("reader.book_diffs_dir is required")
	}
	if c.Snapshot.InfoURL == "" {
		return fmt.Errorf("snapshot.info_url is required")
	}
	if c.Snapshot.ContainerPath == "" {
		return fmt.Errorf("snapshot.container_path is required")
	}
	if c.Snapshot.HostPath == "" {
		return fmt.Errorf("snapshot.host_path is required")
	}
	if c.Transport.Enabled && c.Transport.Port == 0 {
		return fmt.Errorf("transport.port is required when transport.enabled is true")
	}
	return nil
}
