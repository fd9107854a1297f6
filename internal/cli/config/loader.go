package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// Defaults applied before any other configuration source.
const (
	DefaultStagingType = "duckdb"
	DefaultStagingPath = "sales.duckdb"
	DefaultOutputDir   = "data"
	DefaultStatePath   = ".medallion/state.db"
)

// Package-level koanf instance and config file tracking.
var (
	k              = koanf.New(".")
	configFileUsed string
	currentConfig  *Config
)

// findConfigFile finds the config file to use.
// Priority: explicit path > medallion.yaml > medallion.yml.
func findConfigFile(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if _, err := os.Stat("medallion.yaml"); err == nil {
		return "medallion.yaml"
	}
	if _, err := os.Stat("medallion.yml"); err == nil {
		return "medallion.yml"
	}
	return ""
}

// normalizeKey maps flat flag/env keys to their nested config keys.
// The CLI uses --staging-type for brevity; the config file nests the
// same setting under staging.type.
func normalizeKey(key string) string {
	if rest, ok := strings.CutPrefix(key, "staging_"); ok {
		return "staging." + rest
	}
	return key
}

// Load merges configuration in ascending priority: defaults, config
// file, MEDALLION_* environment variables, explicitly-set CLI flags.
func Load(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k = koanf.New(".")
	configFileUsed = ""

	// 1. Defaults
	if err := k.Load(confmap.Provider(map[string]interface{}{
		"staging.type": DefaultStagingType,
		"staging.path": DefaultStagingPath,
		"output_dir":   DefaultOutputDir,
		"state_path":   DefaultStatePath,
		"verbose":      false,
	}, "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config file (optional)
	if path := findConfigFile(cfgFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		configFileUsed = path
	}

	// 3. Environment variables
	if err := k.Load(env.Provider("MEDALLION_", ".", func(s string) string {
		return normalizeKey(strings.ToLower(strings.TrimPrefix(s, "MEDALLION_")))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags (highest priority)
	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			key := normalizeKey(strings.ReplaceAll(f.Name, "-", "_"))
			if key == "state" {
				return "state_path", posflag.FlagVal(flags, f)
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	currentConfig = &cfg
	return &cfg, nil
}

// GetConfigFileUsed returns the path of the loaded config file, or ""
// if none was used.
func GetConfigFileUsed() string {
	return configFileUsed
}

// Current returns the most recently loaded config, or nil.
func Current() *Config {
	return currentConfig
}
