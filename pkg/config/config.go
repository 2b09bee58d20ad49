// Package config provides the scorebox application configuration. This
// is the operator-facing config (source paths, provider mode, check
// interval); the rubric itself lives in the encrypted store.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/scorebox-project/scorebox/pkg/webhook"
)

// Config is the scorebox application configuration.
type Config struct {
	// Provider selects how system state is read: privileged, plain, or
	// auto (probe for elevation at startup, fall back to plain).
	Provider string `yaml:"provider"`

	// Elevate is the command prefix used for privileged reads.
	Elevate []string `yaml:"elevate"`

	Sources  SourcesConfig  `yaml:"sources"`
	Interval string         `yaml:"check_interval"`
	Logging  LoggingConfig  `yaml:"logging"`
	Webhooks WebhooksConfig `yaml:"webhooks"`
}

// WebhooksConfig configures outbound event notifications. Durations are
// strings here so config.yaml stays human-editable.
type WebhooksConfig struct {
	Enabled    bool         `yaml:"enabled"`
	MaxRetries int          `yaml:"max_retries"`
	RetryDelay string       `yaml:"retry_delay"`
	Hooks      []HookConfig `yaml:"hooks"`
}

// HookConfig describes one notification endpoint.
type HookConfig struct {
	URL    string   `yaml:"url"`
	Secret string   `yaml:"secret,omitempty"`
	Events []string `yaml:"events"`
}

// Webhook converts the YAML section into delivery settings. A section
// with no hooks yields a client that sends nothing.
func (w WebhooksConfig) Webhook() *webhook.Config {
	cfg := webhook.DefaultConfig()
	cfg.Enabled = w.Enabled
	if w.MaxRetries > 0 {
		cfg.MaxRetries = w.MaxRetries
	}
	if d, err := time.ParseDuration(w.RetryDelay); err == nil && d > 0 {
		cfg.RetryDelay = d
	}
	for _, h := range w.Hooks {
		events := make([]webhook.EventType, 0, len(h.Events))
		for _, e := range h.Events {
			events = append(events, webhook.EventType(e))
		}
		cfg.Hooks = append(cfg.Hooks, webhook.HookConfig{
			URL:     h.URL,
			Secret:  h.Secret,
			Events:  events,
			Enabled: true,
		})
	}
	return cfg
}

// SourcesConfig locates the system state read each cycle.
type SourcesConfig struct {
	PolicyState    string `yaml:"policy_state"`
	SettingsSecure string `yaml:"settings_secure"`
	SettingsSystem string `yaml:"settings_system"`
	SettingsGlobal string `yaml:"settings_global"`
	PackageIndex   string `yaml:"package_index"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Provider: "auto",
		Elevate:  []string{"sudo", "-n"},
		Sources: SourcesConfig{
			PolicyState:    "/var/lib/policymgr/policy_state.json",
			SettingsSecure: "/var/lib/policymgr/settings_secure.xml",
			SettingsSystem: "/var/lib/policymgr/settings_system.xml",
			SettingsGlobal: "/var/lib/policymgr/settings_global.xml",
			PackageIndex:   "/var/lib/policymgr/packages.json",
		},
		Interval: "2m",
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// CheckInterval parses the configured interval, defaulting to performing
// a check every two minutes when unset or unparseable.
func (c *Config) CheckInterval() time.Duration {
	d, err := time.ParseDuration(c.Interval)
	if err != nil || d <= 0 {
		return 2 * time.Minute
	}
	return d
}

// Set assigns a configuration value by dotted key.
func (c *Config) Set(key, value string) error {
	switch key {
	case "provider":
		switch value {
		case "auto", "privileged", "plain":
			c.Provider = value
		default:
			return fmt.Errorf("invalid provider %q (want auto, privileged or plain)", value)
		}
	case "elevate":
		var prefix []string
		if err := yaml.Unmarshal([]byte(value), &prefix); err != nil {
			return fmt.Errorf("elevate must be a YAML list: %w", err)
		}
		c.Elevate = prefix
	case "check_interval":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid duration %q: %w", value, err)
		}
		c.Interval = value
	case "logging.level":
		c.Logging.Level = value
	case "logging.format":
		c.Logging.Format = value
	case "sources.policy_state":
		c.Sources.PolicyState = value
	case "sources.settings_secure":
		c.Sources.SettingsSecure = value
	case "sources.settings_system":
		c.Sources.SettingsSystem = value
	case "sources.settings_global":
		c.Sources.SettingsGlobal = value
	case "sources.package_index":
		c.Sources.PackageIndex = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	return nil
}

// Get returns a configuration value by dotted key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "provider":
		return c.Provider, nil
	case "elevate":
		out, err := yaml.Marshal(c.Elevate)
		if err != nil {
			return "", err
		}
		return string(out), nil
	case "check_interval":
		return c.Interval, nil
	case "logging.level":
		return c.Logging.Level, nil
	case "logging.format":
		return c.Logging.Format, nil
	case "sources.policy_state":
		return c.Sources.PolicyState, nil
	case "sources.settings_secure":
		return c.Sources.SettingsSecure, nil
	case "sources.settings_system":
		return c.Sources.SettingsSystem, nil
	case "sources.settings_global":
		return c.Sources.SettingsGlobal, nil
	case "sources.package_index":
		return c.Sources.PackageIndex, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Load loads configuration from <stateDir>/config.yaml.
// Returns the default config if the file doesn't exist.
func Load(stateDir string) (*Config, error) {
	cfg := Default()
	cfgPath := filepath.Join(stateDir, "config.yaml")

	data, err := os.ReadFile(cfgPath)
	if os.IsNotExist(err) {
		return cfg, nil // No config file is OK, use defaults
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// Save writes configuration to <stateDir>/config.yaml.
func Save(stateDir string, cfg *Config) error {
	cfgPath := filepath.Join(stateDir, "config.yaml")

	if err := os.MkdirAll(stateDir, 0700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(cfgPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
