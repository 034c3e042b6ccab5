package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_CreatesDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.xml")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.FileExists(t, path)
	assert.Equal(t, 8089, cfg.Server.Port)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.GetDataDir())
	assert.Equal(t, filepath.Join(dir, "data", "uploads"), cfg.GetUploadDir())
	assert.Equal(t, time.Second, cfg.TickInterval())
	assert.Equal(t, 30*time.Minute, cfg.SessionTimeout())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "<IagroSupervisory>"))
}

func TestLoadConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.xml")

	cfg := DefaultConfig()
	cfg.Server.Port = 9100
	cfg.Simulator.VariablesFile = "plant.yaml"
	cfg.Session.MaxSessions = 7
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 9100, loaded.Server.Port)
	assert.Equal(t, 7, loaded.Session.MaxSessions)
	assert.Equal(t, filepath.Join(dir, "plant.yaml"), loaded.Simulator.VariablesFile)
}

func TestLoadConfig_EnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	data := filepath.Join(dir, "elsewhere")
	t.Setenv("PORT", "9200")
	t.Setenv("DATA_DIR", data)
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "console")
	t.Setenv("LOG_OUTPUT", "stderr")

	cfg, err := LoadConfig(filepath.Join(dir, "config.xml"))
	require.NoError(t, err)
	assert.Equal(t, 9200, cfg.Server.Port)
	assert.Equal(t, data, cfg.GetDataDir())
	assert.Equal(t, filepath.Join(data, "uploads"), cfg.GetUploadDir())
	assert.Equal(t, "debug", cfg.Advanced.LogLevel)
	assert.Equal(t, "console", cfg.Advanced.LogFormat)
	assert.Equal(t, "stderr", cfg.Advanced.LogOutput)
	assert.Equal(t, "0.0.0.0:9200", cfg.GetServerAddr())
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AppConfig)
	}{
		{"port", func(c *AppConfig) { c.Server.Port = 0 }},
		{"tick", func(c *AppConfig) { c.Simulator.TickIntervalMs = 1 }},
		{"toggle", func(c *AppConfig) { c.Simulator.ToggleProbability = 2 }},
		{"sessions", func(c *AppConfig) { c.Session.MaxSessions = 0 }},
		{"log level", func(c *AppConfig) { c.Advanced.LogLevel = "loud" }},
		{"body limit", func(c *AppConfig) { c.Server.BodyLimit = "lots" }},
		{"upload size", func(c *AppConfig) { c.Storage.MaxUploadSize = "12Q" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.xml")
			cfg := DefaultConfig()
			tt.mutate(cfg)
			require.NoError(t, cfg.Save(path))

			_, err := LoadConfig(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_LogOutputResolved(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.xml")

	cfg := DefaultConfig()
	cfg.Advanced.LogOutput = "logs/supervisory.log"
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "logs", "supervisory.log"), loaded.Advanced.LogOutput)
	assert.Equal(t, "10M", loaded.Storage.MaxUploadSize)

	def, err := LoadConfig(filepath.Join(t.TempDir(), "config.xml"))
	require.NoError(t, err)
	assert.Equal(t, "stdout", def.Advanced.LogOutput)
}

func TestLoadConfig_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.xml")
	require.NoError(t, os.WriteFile(path, []byte("<IagroSupervisory><Server>"), 0644))
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestEnsureDirectories(t *testing.T) {
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Storage.DataDirectory = filepath.Join(dir, "d")
	cfg.Storage.UploadsDirectory = filepath.Join(dir, "d", "u")

	require.NoError(t, cfg.EnsureDirectories())
	assert.DirExists(t, cfg.Storage.UploadsDirectory)
}
