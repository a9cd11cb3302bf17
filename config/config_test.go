package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudvet/cloudvet/types"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cloudvet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
version: "1"
region: eu-west-1
depth: comprehensive
concurrency: 8
scanner_concurrency: 3
account_timeout: 2m
pattern_min_fraction: 0.5
accounts:
  - id: "111111111111"
    name: prod
  - id: "222222222222"
    name: staging
history:
  enabled: true
  path: /var/lib/cloudvet
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "eu-west-1", cfg.Region)
	assert.Equal(t, types.DepthComprehensive, cfg.Depth)
	assert.Equal(t, 8, cfg.Concurrency)
	assert.Equal(t, 3, cfg.ScannerConcurrency)
	assert.Equal(t, 2*time.Minute, cfg.AccountTimeout.Std())
	assert.Equal(t, 0.5, cfg.PatternMinFraction)
	require.Len(t, cfg.Accounts, 2)
	assert.Equal(t, "prod", cfg.Accounts[0].Name)
	assert.True(t, cfg.History.Enabled)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
version: "1"
region: us-east-1
accounts:
  - id: "111111111111"
    name: prod
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, types.DepthStandard, cfg.Depth)
	assert.Equal(t, 4, cfg.Concurrency)
	assert.Equal(t, 0.3, cfg.PatternMinFraction)
	assert.Equal(t, 5*time.Minute, cfg.AccountTimeout.Std())
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig("/nonexistent/cloudvet.yaml")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing version", func(c *Config) { c.Version = "" }},
		{"missing region", func(c *Config) { c.Region = "" }},
		{"bad depth", func(c *Config) { c.Depth = "ultra" }},
		{"zero concurrency", func(c *Config) { c.Concurrency = 0 }},
		{"zero scanner concurrency", func(c *Config) { c.ScannerConcurrency = 0 }},
		{"fraction above one", func(c *Config) { c.PatternMinFraction = 1.1 }},
		{"negative fraction", func(c *Config) { c.PatternMinFraction = -0.2 }},
		{"unmapped depth", func(c *Config) { c.DepthServices = map[types.ScanDepth][]types.Service{} }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, Default().Validate())
}

func TestServicesForDepth(t *testing.T) {
	cfg := Default()

	quick, err := cfg.ServicesForDepth(types.DepthQuick)
	require.NoError(t, err)
	comprehensive, err := cfg.ServicesForDepth(types.DepthComprehensive)
	require.NoError(t, err)

	assert.Subset(t, comprehensive, quick, "tiers are supersets")
	assert.Contains(t, comprehensive, types.ServiceDatabases)
	assert.NotContains(t, quick, types.ServiceCompute)

	_, err = cfg.ServicesForDepth("nope")
	assert.Error(t, err)
}
