// Package config loads API keys and runtime settings. Environment variables
// take precedence over file configuration; a .env file in the working
// directory is honored for local runs. The resilience core never reads the
// environment itself — everything it needs is passed as explicit parameters
// built from this package.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	GoogleAPIKey    string
	AnthropicAPIKey string
	OpenAIAPIKey    string
	SerperAPIKey    string
	Settings        *Settings
	ConfigDir       string
}

// FileConfig represents the structure of ~/.marketscout/config.yaml
type FileConfig struct {
	APIKeys APIKeysConfig `yaml:"api_keys"`
}

// APIKeysConfig holds API key configuration from file.
type APIKeysConfig struct {
	Google    string `yaml:"google"`
	Anthropic string `yaml:"anthropic"`
	OpenAI    string `yaml:"openai"`
	Serper    string `yaml:"serper"`
}

// Load reads configuration from .env, config files and environment variables.
func Load() (*Config, error) {
	// Best effort: a missing .env is not an error.
	_ = godotenv.Load()

	configDir, err := getConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	fileConfig := loadFileConfig(filepath.Join(configDir, "config.yaml"))

	cfg := &Config{
		GoogleAPIKey:    getEnvOrDefault("GOOGLE_API_KEY", fileConfig.APIKeys.Google),
		AnthropicAPIKey: getEnvOrDefault("ANTHROPIC_API_KEY", fileConfig.APIKeys.Anthropic),
		OpenAIAPIKey:    getEnvOrDefault("OPENAI_API_KEY", fileConfig.APIKeys.OpenAI),
		SerperAPIKey:    getEnvOrDefault("SERPER_API_KEY", fileConfig.APIKeys.Serper),
		ConfigDir:       configDir,
	}

	settingsPath := filepath.Join(configDir, "settings.yaml")
	if _, err := os.Stat(settingsPath); err == nil {
		settings, err := LoadSettings(settingsPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load settings: %w", err)
		}
		cfg.Settings = settings
	} else {
		cfg.Settings = DefaultSettings()
	}

	return cfg, nil
}

// HasBackend returns true if the API key for the given backend is configured.
func (c *Config) HasBackend(name string) bool {
	switch name {
	case "google":
		return c.GoogleAPIKey != ""
	case "anthropic":
		return c.AnthropicAPIKey != ""
	case "openai":
		return c.OpenAIAPIKey != ""
	default:
		return false
	}
}

// MissingKeys returns the API keys required by the settings that are absent.
func (c *Config) MissingKeys() []string {
	var missing []string
	if !c.HasBackend(c.Settings.Backend) {
		missing = append(missing, keyName(c.Settings.Backend))
	}
	if c.SerperAPIKey == "" {
		missing = append(missing, "SERPER_API_KEY")
	}
	return missing
}

func keyName(backend string) string {
	switch backend {
	case "anthropic":
		return "ANTHROPIC_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	default:
		return "GOOGLE_API_KEY"
	}
}

// loadFileConfig reads the config file, returning empty config if not found.
func loadFileConfig(path string) *FileConfig {
	cfg := &FileConfig{}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}

	_ = yaml.Unmarshal(data, cfg)
	return cfg
}

func getEnvOrDefault(envVar, defaultValue string) string {
	if val := os.Getenv(envVar); val != "" {
		return val
	}
	return defaultValue
}

func getConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	configDir := filepath.Join(home, ".marketscout")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		return "", err
	}
	return configDir, nil
}
