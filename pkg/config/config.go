// Package config handles workspace configuration for the navigation CLI.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the workspace configuration (config.yaml). Command-line
// flags override anything set here.
type Config struct {
	// Definition files
	Graph string `yaml:"graph"` // Navigation graph definition path
	Fleet string `yaml:"fleet"` // Device fleet file path

	// Default target device
	Device string `yaml:"device"`

	// Output settings
	ArtifactsDir string `yaml:"artifactsDir"` // Verification evidence directory
	ResultsDir   string `yaml:"resultsDir"`   // Traversal result records directory

	// Result publishing
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig configures the optional Redis result sink.
type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	Prefix   string `yaml:"prefix"`
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
func LoadFromDir(dir string) (*Config, error) {
	// Try config.yaml first
	configPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// Try config.yml
	configPath = filepath.Join(dir, "config.yml")
	if _, err := os.Stat(configPath); err == nil {
		return Load(configPath)
	}

	// No config file found, return empty config
	return &Config{}, nil
}
