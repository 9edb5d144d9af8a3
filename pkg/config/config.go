package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"minerwatch/internal/model"

	"gopkg.in/yaml.v3"
)

var GlobalConfig *Config

const (
	defaultConfigPath   = "config/config.yaml"
	defaultPollInterval = time.Second
	defaultFetchTimeout = 5 * time.Second
	defaultCachePath    = "cache.json"
	defaultServerPort   = 8090
	defaultRedisPrefix  = "minerwatch:"
)

// Config global configuration
type Config struct {
	Poll        PollConfig     `yaml:"poll"`
	Targets     []model.Target `yaml:"targets"`
	TargetsFile string         `yaml:"targets_file"` // Legacy {"urls": [...]} file
	Cache       CacheConfig    `yaml:"cache"`
	Display     DisplayConfig  `yaml:"display"`
	Server      ServerConfig   `yaml:"server"`
	Logger      LoggerConfig   `yaml:"logger"`

	// Problems found while loading; logged once the logger is up
	Warnings []string `yaml:"-"`
}

// PollConfig poll cycle configuration
type PollConfig struct {
	Interval          Duration `yaml:"interval"`            // Delay between cycles
	FetchTimeout      Duration `yaml:"fetch_timeout"`       // Per-endpoint timeout
	Concurrency       int      `yaml:"concurrency"`         // Parallel fetches per cycle, 1 = sequential
	LegacySuffixMatch *bool    `yaml:"legacy_suffix_match"` // Recover identity when the URL ends with a cached worker_id
}

// SuffixMatchEnabled reports whether URL suffix identity recovery is on (default true)
func (p PollConfig) SuffixMatchEnabled() bool {
	return p.LegacySuffixMatch == nil || *p.LegacySuffixMatch
}

// CacheConfig worker cache persistence configuration
type CacheConfig struct {
	Backend string          `yaml:"backend"` // file, redis, mysql
	File    FileCacheConfig `yaml:"file"`
	Redis   RedisConfig     `yaml:"redis"`
	MySQL   MySQLConfig     `yaml:"mysql"`
}

// FileCacheConfig JSON file cache configuration
type FileCacheConfig struct {
	Path string `yaml:"path"`
}

// RedisConfig Redis configuration
type RedisConfig struct {
	Addr         string `yaml:"addr"`
	Password     string `yaml:"password"`
	DB           int    `yaml:"db"`
	KeyPrefix    string `yaml:"key_prefix"`
	SinglePoller bool   `yaml:"single_poller"` // Only the lock holder polls when instances share the cache
}

// MySQLConfig MySQL configuration
type MySQLConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
}

// DSN builds the go-sql-driver DSN
func (m MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		m.User, m.Password, m.Host, m.Port, m.Database)
}

// DisplayConfig terminal table configuration
type DisplayConfig struct {
	Enabled *bool  `yaml:"enabled"`
	Color   string `yaml:"color"` // auto, always, never
}

// IsEnabled reports whether the terminal table is drawn (default true)
func (d DisplayConfig) IsEnabled() bool {
	return d.Enabled == nil || *d.Enabled
}

// ServerConfig status API configuration
type ServerConfig struct {
	Enabled bool   `yaml:"enabled"`
	Port    int    `yaml:"port"`
	Mode    string `yaml:"mode"`    // debug, release
	APIKey  string `yaml:"api_key"` // Optional bearer token, empty = no auth
}

// LoggerConfig logger configuration
type LoggerConfig struct {
	Level  string           `yaml:"level"`  // debug, info, warn, error
	Output string           `yaml:"output"` // console, file, both
	File   LoggerFileConfig `yaml:"file"`
}

// LoggerFileConfig logger file configuration
type LoggerFileConfig struct {
	Path string `yaml:"path"`
}

// Duration accepts Go duration strings ("1s", "500ms") or bare seconds
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	raw := strings.TrimSpace(value.Value)
	if raw == "" {
		*d = 0
		return nil
	}
	if secs, err := strconv.ParseFloat(raw, 64); err == nil {
		*d = Duration(secs * float64(time.Second))
		return nil
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the value as a time.Duration
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Init initializes configuration.
// A missing or unparsable file never fails: defaults with zero targets are used
// and the problem is recorded in Warnings.
func Init() error {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = defaultConfigPath
	}

	GlobalConfig = Load(configPath)
	return nil
}

// Load reads the configuration at path, falling back to defaults
func Load(path string) *Config {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err != nil:
		cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("config %s not readable, using defaults: %v", path, err))
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			cfg = Config{}
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("config %s is malformed, using defaults: %v", path, err))
		}
	}

	cfg.applyDefaults()
	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Poll.Interval <= 0 {
		c.Poll.Interval = Duration(defaultPollInterval)
	}
	if c.Poll.FetchTimeout <= 0 {
		c.Poll.FetchTimeout = Duration(defaultFetchTimeout)
	}
	if c.Poll.Concurrency <= 0 {
		c.Poll.Concurrency = 1
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "file"
	}
	if c.Cache.File.Path == "" {
		c.Cache.File.Path = defaultCachePath
	}
	if c.Cache.Redis.KeyPrefix == "" {
		c.Cache.Redis.KeyPrefix = defaultRedisPrefix
	}
	if c.Cache.MySQL.Port == 0 {
		c.Cache.MySQL.Port = 3306
	}
	if c.Display.Color == "" {
		c.Display.Color = "auto"
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaultServerPort
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}
	if c.Logger.Output == "" {
		c.Logger.Output = "console"
	}
}

// legacyTargets mirrors the workers.json format
type legacyTargets struct {
	URLs []string `json:"urls"`
}

// ResolveTargets returns the configured targets followed by those of
// targets_file, with blank URLs dropped and duplicate URLs collapsed (first wins).
func (c *Config) ResolveTargets() []model.Target {
	all := make([]model.Target, 0, len(c.Targets))
	all = append(all, c.Targets...)

	if c.TargetsFile != "" {
		data, err := os.ReadFile(c.TargetsFile)
		if err != nil {
			c.Warnings = append(c.Warnings, fmt.Sprintf("targets file %s not readable: %v", c.TargetsFile, err))
		} else {
			var legacy legacyTargets
			if err := json.Unmarshal(data, &legacy); err != nil {
				c.Warnings = append(c.Warnings, fmt.Sprintf("targets file %s is malformed: %v", c.TargetsFile, err))
			} else {
				for _, u := range legacy.URLs {
					all = append(all, model.Target{URL: u})
				}
			}
		}
	}

	seen := make(map[string]struct{}, len(all))
	targets := make([]model.Target, 0, len(all))
	for _, t := range all {
		t.URL = strings.TrimSpace(t.URL)
		t.WorkerID = strings.TrimSpace(t.WorkerID)
		if t.URL == "" {
			continue
		}
		if _, dup := seen[t.URL]; dup {
			continue
		}
		seen[t.URL] = struct{}{}
		targets = append(targets, t)
	}
	return targets
}
