package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultStagingType, cfg.Staging.Type)
	assert.Equal(t, DefaultStagingPath, cfg.Staging.Path)
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir)
	assert.Equal(t, DefaultStatePath, cfg.StatePath)
	assert.False(t, cfg.Verbose)
	assert.Empty(t, GetConfigFileUsed())
	assert.Same(t, cfg, Current())
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	content := `
staging:
  type: postgres
  host: db.internal
  port: 5433
  database: staging
  options:
    schema: etl
output_dir: /var/lib/medallion
verbose: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "medallion.yaml"), []byte(content), 0o644))

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Staging.Type)
	assert.Equal(t, "db.internal", cfg.Staging.Host)
	assert.Equal(t, 5433, cfg.Staging.Port)
	assert.Equal(t, "staging", cfg.Staging.Database)
	assert.Equal(t, map[string]string{"schema": "etl"}, cfg.Staging.Options)
	assert.Equal(t, "/var/lib/medallion", cfg.OutputDir)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, "medallion.yaml", GetConfigFileUsed())

	// Unset keys keep their defaults.
	assert.Equal(t, DefaultStatePath, cfg.StatePath)
}

func TestLoadExplicitConfigFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: custom\n"), 0o644))

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "custom", cfg.OutputDir)
	assert.Equal(t, path, GetConfigFileUsed())
}

func TestLoadMissingExplicitConfigFile(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("does-not-exist.yaml", nil)
	assert.Error(t, err)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "medallion.yaml"),
		[]byte("staging:\n  type: duckdb\n"), 0o644))

	t.Setenv("MEDALLION_STAGING_TYPE", "postgres")
	t.Setenv("MEDALLION_OUTPUT_DIR", "envdata")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Staging.Type)
	assert.Equal(t, "envdata", cfg.OutputDir)
}

func testFlags() *pflag.FlagSet {
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("staging-type", DefaultStagingType, "")
	flags.String("staging-path", DefaultStagingPath, "")
	flags.String("output-dir", DefaultOutputDir, "")
	flags.String("state", DefaultStatePath, "")
	flags.Bool("verbose", false, "")
	return flags
}

func TestLoadFlagsOverrideEverything(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MEDALLION_STAGING_TYPE", "postgres")

	flags := testFlags()
	require.NoError(t, flags.Parse([]string{
		"--staging-type", "duckdb",
		"--state", "/tmp/runs.db",
	}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Staging.Type)
	assert.Equal(t, "/tmp/runs.db", cfg.StatePath)
}

func TestLoadUnchangedFlagsDoNotOverride(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("MEDALLION_STAGING_PATH", "env.duckdb")

	flags := testFlags()
	require.NoError(t, flags.Parse(nil))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	// The flag default must not shadow the environment value.
	assert.Equal(t, "env.duckdb", cfg.Staging.Path)
}

func TestSourceConfig(t *testing.T) {
	cfg := Config{
		Staging: StagingConfig{
			Type:     "postgres",
			Host:     "db.internal",
			Port:     5433,
			Database: "staging",
			Username: "etl",
			Options:  map[string]string{"sslmode": "require"},
		},
	}

	sc := cfg.SourceConfig()
	assert.Equal(t, "postgres", sc.Type)
	assert.Equal(t, "db.internal", sc.Host)
	assert.Equal(t, 5433, sc.Port)
	assert.Equal(t, "etl", sc.Username)
	assert.Equal(t, map[string]string{"sslmode": "require"}, sc.Options)
}
