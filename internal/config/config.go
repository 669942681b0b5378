// Package config loads generation settings for the rowbind CLI.
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds one generation run's settings. Zero fields fall back
// to the defaults applied by Load.
type Config struct {
	// Target selects the registered language target (e.g. "go").
	Target string `yaml:"target"`
	// OutDir is the directory generated files are written to.
	OutDir string `yaml:"out_dir"`
	// Package is the package/module name for targets that need one.
	Package string `yaml:"package"`
	// Targets optionally selects several targets at once; when set it
	// takes precedence over Target and output goes to OutDir/<target>.
	Targets []string `yaml:"targets"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Target: "go",
		OutDir: "bindings",
	}
}

// Load reads a YAML config file. Missing fields keep their defaults;
// unknown fields are rejected so typos surface instead of being
// silently ignored.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Target == "" && len(c.Targets) == 0 {
		return fmt.Errorf("no target selected")
	}
	if c.OutDir == "" {
		return fmt.Errorf("out_dir must not be empty")
	}
	return nil
}

// SelectedTargets returns the target names the run should generate,
// in a stable order.
func (c *Config) SelectedTargets() []string {
	if len(c.Targets) > 0 {
		return c.Targets
	}
	return []string{c.Target}
}
