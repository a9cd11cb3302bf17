// Package config loads the assessment configuration surface.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cloudvet/cloudvet/patterns"
	"github.com/cloudvet/cloudvet/types"
)

// Duration accepts human-readable YAML values like "90s" or "5m"
type Duration time.Duration

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the duration as a time.Duration
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the main configuration
type Config struct {
	Version            string                              `yaml:"version"`
	Region             string                              `yaml:"region"`
	Depth              types.ScanDepth                     `yaml:"depth"`
	Accounts           []types.AccountRef                  `yaml:"accounts"`
	Concurrency        int                                 `yaml:"concurrency"`
	ScannerConcurrency int                                 `yaml:"scanner_concurrency"`
	AccountTimeout     Duration                            `yaml:"account_timeout"`
	PatternMinFraction float64                             `yaml:"pattern_min_fraction"`
	DepthServices      map[types.ScanDepth][]types.Service `yaml:"depth_services,omitempty"`
	History            HistoryConfig                       `yaml:"history,omitempty"`
	Enrichment         EnrichmentConfig                    `yaml:"enrichment,omitempty"`
}

// HistoryConfig controls optional local batch persistence
type HistoryConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// EnrichmentConfig controls the optional AI enrichment step
type EnrichmentConfig struct {
	Enabled bool     `yaml:"enabled"`
	Model   string   `yaml:"model"`
	Timeout Duration `yaml:"timeout"`
}

// DefaultDepthServices is the built-in depth→services mapping. Each
// tier is a superset of the previous one.
func DefaultDepthServices() map[types.ScanDepth][]types.Service {
	return map[types.ScanDepth][]types.Service{
		types.DepthQuick:         {types.ServiceStorage, types.ServiceIdentity},
		types.DepthStandard:      {types.ServiceStorage, types.ServiceIdentity, types.ServiceCompute},
		types.DepthComprehensive: {types.ServiceStorage, types.ServiceIdentity, types.ServiceCompute, types.ServiceDatabases},
	}
}

// Default returns a config with all optional knobs at their defaults
func Default() *Config {
	return &Config{
		Version:            "1",
		Region:             "us-east-1",
		Depth:              types.DepthStandard,
		Concurrency:        4,
		ScannerConcurrency: 2,
		AccountTimeout:     Duration(5 * time.Minute),
		PatternMinFraction: patterns.DefaultMinFraction,
		DepthServices:      DefaultDepthServices(),
	}
}

// LoadConfig loads configuration from file, filling gaps with defaults
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is intentional user input
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(cfg.DepthServices) == 0 {
		cfg.DepthServices = DefaultDepthServices()
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// Validate ensures config has required fields and sane limits
func (c *Config) Validate() error {
	if c.Version == "" {
		return fmt.Errorf("version is required")
	}
	if c.Region == "" {
		return fmt.Errorf("region is required")
	}
	if _, err := types.ParseDepth(string(c.Depth)); err != nil {
		return err
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1")
	}
	if c.ScannerConcurrency < 1 {
		return fmt.Errorf("scanner_concurrency must be >= 1")
	}
	if c.PatternMinFraction < 0 || c.PatternMinFraction > 1 {
		return fmt.Errorf("pattern_min_fraction must be in [0,1]")
	}
	if _, err := c.ServicesForDepth(c.Depth); err != nil {
		return err
	}
	return nil
}

// ServicesForDepth resolves which services a depth tier inspects
func (c *Config) ServicesForDepth(depth types.ScanDepth) ([]types.Service, error) {
	services, ok := c.DepthServices[depth]
	if !ok || len(services) == 0 {
		return nil, fmt.Errorf("no services mapped for depth %s", depth)
	}
	return services, nil
}
