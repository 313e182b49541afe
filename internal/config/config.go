// Package config loads the optional YAML configuration file.
//
// Config file locations (priority order):
//  1. $PRIVGUARD_CONFIG
//  2. ./privguard.yaml
//  3. <data dir>/config.yaml
//
// Missing fields take their defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/eliteGoblin/privguard/internal/dispatch"
	"github.com/eliteGoblin/privguard/internal/netmon"
	"github.com/eliteGoblin/privguard/internal/usecase"
)

const (
	// EnvConfigPath is the environment variable for an explicit config path
	EnvConfigPath = "PRIVGUARD_CONFIG"
	// ConfigFileName is the config file name looked up in the working directory
	ConfigFileName = "privguard.yaml"
	// DataDirConfigName is the config file name inside the data directory
	DataDirConfigName = "config.yaml"
)

// Config is the privguard configuration.
type Config struct {
	DataDir   string         `yaml:"data_dir,omitempty"`
	LogLevel  string         `yaml:"log_level,omitempty"`
	HostsFile string         `yaml:"hosts_file,omitempty"`
	Dispatch  DispatchConfig `yaml:"dispatch"`
	Network   NetworkConfig  `yaml:"network"`
	History   HistoryConfig  `yaml:"history"`
}

// DispatchConfig sizes the task coordinator.
type DispatchConfig struct {
	Workers   int `yaml:"workers,omitempty"`
	QueueSize int `yaml:"queue_size,omitempty"`
}

// NetworkConfig tunes the connection monitor.
type NetworkConfig struct {
	ResolverWorkers int      `yaml:"resolver_workers,omitempty"`
	SampleInterval  Duration `yaml:"sample_interval,omitempty"`
	SuspectKeywords []string `yaml:"suspect_keywords,omitempty"`
}

// HistoryConfig bounds the score history.
type HistoryConfig struct {
	MaxEntries int `yaml:"max_entries,omitempty"`
}

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in missing values with defaults
func (c *Config) applyDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Dispatch.Workers <= 0 {
		c.Dispatch.Workers = dispatch.DefaultWorkers
	}
	if c.Dispatch.QueueSize <= 0 {
		c.Dispatch.QueueSize = dispatch.DefaultQueueSize
	}
	if c.Network.ResolverWorkers <= 0 {
		c.Network.ResolverWorkers = netmon.DefaultResolverWorkers
	}
	if c.Network.SampleInterval <= 0 {
		c.Network.SampleInterval = Duration(netmon.DefaultSampleInterval)
	}
	if len(c.Network.SuspectKeywords) == 0 {
		c.Network.SuspectKeywords = append([]string(nil), netmon.DefaultSuspectKeywords...)
	}
	if c.History.MaxEntries <= 0 {
		c.History.MaxEntries = usecase.DefaultMaxHistoryEntries
	}
}

// Load finds and loads the config file, or returns defaults if none is found.
// dataDir is where the third lookup location lives.
func Load(dataDir string) (*Config, string, error) {
	path := FindConfigPath(dataDir)
	if path == "" {
		return DefaultConfig(), "", nil
	}
	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, path, nil
}

// Save writes config to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// FindConfigPath returns the first existing config file, or "".
func FindConfigPath(dataDir string) string {
	if path := os.Getenv(EnvConfigPath); path != "" {
		if fileExists(path) {
			return path
		}
	}

	if fileExists(ConfigFileName) {
		if abs, err := filepath.Abs(ConfigFileName); err == nil {
			return abs
		}
		return ConfigFileName
	}

	if dataDir != "" {
		path := filepath.Join(dataDir, DataDirConfigName)
		if fileExists(path) {
			return path
		}
	}
	return ""
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
