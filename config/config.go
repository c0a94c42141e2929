package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config contains configuration for the REAPER agent.
// It is loaded from ~/.config/reaper-agent/config.yaml and can be
// overridden by REAPER_AGENT_* environment variables.
type Config struct {
	// Base is the directory REAPER reads command.json from and writes ack.json to
	Base string `mapstructure:"base" yaml:"base"`
	// SoundsDir is the root of the sample library (kicks/, claps/, hats/, misc/)
	SoundsDir string `mapstructure:"sounds_dir" yaml:"sounds_dir"`
	// ToolsPath is the JSON file describing the tools exposed to the LLM
	ToolsPath string `mapstructure:"tools_path" yaml:"tools_path"`
	// Model is the LLM model to use (e.g. "gpt-4o-mini", "gemini-2.0-flash")
	Model string `mapstructure:"model" yaml:"model"`
	// Provider forces a provider ("openai" or "gemini"); empty infers it from Model
	Provider string `mapstructure:"provider" yaml:"provider"`
	// Bridge contains timing settings for the command/ack file bridge
	Bridge BridgeConfig `mapstructure:"bridge" yaml:"bridge"`

	// Secrets come from the environment only and are never written to the config file.
	OpenAIAPIKey string `mapstructure:"-" yaml:"-"` // OPENAI_API_KEY
	GeminiAPIKey string `mapstructure:"-" yaml:"-"` // GEMINI_API_KEY
	SentryDSN    string `mapstructure:"-" yaml:"-"` // SENTRY_DSN
}

// BridgeConfig contains timing settings for the file-based command bridge.
type BridgeConfig struct {
	// TimeoutSeconds is how long to wait for REAPER to acknowledge a command
	TimeoutSeconds float64 `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	// PollIntervalMS is how often to re-read the ack slot while waiting
	PollIntervalMS int `mapstructure:"poll_interval_ms" yaml:"poll_interval_ms"`
}

// Timeout converts the configured ack wait into a time.Duration.
func (b BridgeConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds * float64(time.Second))
}

// PollInterval returns the ack poll interval as a time.Duration.
func (b BridgeConfig) PollInterval() time.Duration {
	return time.Duration(b.PollIntervalMS) * time.Millisecond
}

// CommandPath returns the path of the command slot inside Base.
func (c *Config) CommandPath() string {
	return filepath.Join(c.Base, "command.json")
}

// AckPath returns the path of the ack slot inside Base.
func (c *Config) AckPath() string {
	return filepath.Join(c.Base, "ack.json")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Base:      ".",
		SoundsDir: "sounds",
		ToolsPath: filepath.Join("tools", "reaper_tools.json"),
		Model:     "gpt-4o-mini",
		Provider:  "",
		Bridge: BridgeConfig{
			TimeoutSeconds: 3.0,
			PollIntervalMS: 50,
		},
	}
}

// Load reads configuration from REAPER_AGENT_CONFIG if set, otherwise from
// ~/.config/reaper-agent/config.yaml. If no config file exists, it creates
// one with default values.
func Load() (*Config, error) {
	if path := os.Getenv("REAPER_AGENT_CONFIG"); path != "" {
		return LoadFromPath(path)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}

	return LoadFromPath(filepath.Join(homeDir, ".config", "reaper-agent", "config.yaml"))
}

// LoadFromPath reads configuration from a specific file path and merges with
// environment variables. If the file doesn't exist, it creates one with default values.
func LoadFromPath(path string) (*Config, error) {
	path = expandPath(path)

	configDir := filepath.Dir(path)
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := writeConfigFile(path, Default()); err != nil {
			return nil, fmt.Errorf("failed to write default config: %w", err)
		}
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	// Enable environment variable overrides
	// Example: REAPER_AGENT_MODEL, REAPER_AGENT_BRIDGE_TIMEOUT_SECONDS
	v.SetEnvPrefix("REAPER_AGENT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Seed defaults so partial config files and env-only keys resolve
	defaults := Default()
	v.SetDefault("base", defaults.Base)
	v.SetDefault("sounds_dir", defaults.SoundsDir)
	v.SetDefault("tools_path", defaults.ToolsPath)
	v.SetDefault("model", defaults.Model)
	v.SetDefault("provider", defaults.Provider)
	v.SetDefault("bridge.timeout_seconds", defaults.Bridge.TimeoutSeconds)
	v.SetDefault("bridge.poll_interval_ms", defaults.Bridge.PollIntervalMS)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Base = expandPath(cfg.Base)
	cfg.SoundsDir = expandPath(cfg.SoundsDir)
	cfg.ToolsPath = expandPath(cfg.ToolsPath)

	cfg.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	cfg.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	cfg.SentryDSN = os.Getenv("SENTRY_DSN")

	return &cfg, nil
}

// writeConfigFile writes a Config struct to a YAML file.
// Uses gopkg.in/yaml.v3 directly to ensure proper tag-based serialization.
func writeConfigFile(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// expandPath expands ~ to the user's home directory in a path string.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(homeDir, path[1:])
	}
	return path
}
