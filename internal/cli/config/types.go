// Package config provides configuration management for the medallion
// CLI: defaults, YAML config file, environment variables, and flags,
// merged in ascending priority.
package config

import "github.com/gibbonslabs/medallion/internal/staging"

// StagingConfig selects and configures the staging source.
type StagingConfig struct {
	Type     string            `koanf:"type"`
	Path     string            `koanf:"path"`
	Host     string            `koanf:"host"`
	Port     int               `koanf:"port"`
	Database string            `koanf:"database"`
	Username string            `koanf:"username"`
	Password string            `koanf:"password"`
	Options  map[string]string `koanf:"options"`
}

// Config holds all CLI configuration options.
type Config struct {
	Staging   StagingConfig `koanf:"staging"`
	OutputDir string        `koanf:"output_dir"`
	StatePath string        `koanf:"state_path"`
	Verbose   bool          `koanf:"verbose"`
}

// SourceConfig converts the staging section to the staging package's
// connection config.
func (c *Config) SourceConfig() staging.Config {
	return staging.Config{
		Type:     c.Staging.Type,
		Path:     c.Staging.Path,
		Host:     c.Staging.Host,
		Port:     c.Staging.Port,
		Database: c.Staging.Database,
		Username: c.Staging.Username,
		Password: c.Staging.Password,
		Options:  c.Staging.Options,
	}
}
