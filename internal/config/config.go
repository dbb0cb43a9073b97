// Package config loads the velocitycmdb configuration file: score
// thresholds, severity thresholds, and worker/timeout defaults. The file
// is YAML, matching the inventory file's format so operators deal with a
// single serialization convention across every persisted file this system
// writes.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ScoreThresholds holds the minimum template-match score required before a
// parse result is accepted, per capture category. Configurable rather
// than constant: fingerprint output and ARP tables match templates with
// different confidence, and operators tune per deployment.
type ScoreThresholds struct {
	Fingerprint int `yaml:"fingerprint"`
	ARP         int `yaml:"arp"`
	Inventory   int `yaml:"inventory"`
}

// SeverityThresholds holds the line-count cutoffs above which a change is
// classified critical rather than moderate, per tracked capture type.
type SeverityThresholds struct {
	ConfigsCriticalLines   int `yaml:"configs_critical_lines"`
	InventoryCriticalLines int `yaml:"inventory_critical_lines"`
}

// Defaults holds operational knobs for collection/fingerprint runs, loaded
// and saved with the config file. The collect and fingerprint commands take
// their worker and timeout values from their own flag defaults and do not
// read these fields.
type Defaults struct {
	MaxWorkers      int `yaml:"max_workers"`
	ConnectTimeoutS int `yaml:"connect_timeout_seconds"`
	CommandTimeoutS int `yaml:"command_timeout_seconds"`
}

// Config is the top-level configuration document, loaded from the path
// named by the CONFIG environment variable or a default location under
// DataDir.
type Config struct {
	DataDir  string             `yaml:"data_dir"`
	Scores   ScoreThresholds    `yaml:"score_thresholds"`
	Severity SeverityThresholds `yaml:"severity_thresholds"`
	Defaults Defaults           `yaml:"defaults"`
}

// Default returns the built-in configuration, used whenever no config
// file is present.
func Default() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		DataDir: filepath.Join(home, ".velocitycmdb", "data"),
		Scores: ScoreThresholds{
			Fingerprint: 20,
			ARP:         25,
			Inventory:   20,
		},
		Severity: SeverityThresholds{
			ConfigsCriticalLines:   50,
			InventoryCriticalLines: 5,
		},
		Defaults: Defaults{
			MaxWorkers:      5,
			ConnectTimeoutS: 10,
			CommandTimeoutS: 15,
		},
	}
}

// Load reads and parses the YAML configuration file at path. Missing fields
// fall back to Default()'s values field by field, so a partial config file
// (e.g. just overriding max_workers) is valid.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	var onDisk Config
	if err := yaml.Unmarshal(data, &onDisk); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	mergeNonZero(cfg, &onDisk)
	return cfg, nil
}

// LoadFromEnvOrDefault resolves the CONFIG environment variable and loads
// it if set; otherwise returns Default().
func LoadFromEnvOrDefault() (*Config, error) {
	path := os.Getenv("CONFIG")
	if path == "" {
		return Default(), nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return Default(), nil
	}
	return Load(path)
}

// Save writes cfg as YAML to path, creating parent directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: creating directory for %s: %w", path, err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("config: writing %s: %w", path, err)
	}
	return nil
}

func mergeNonZero(base, override *Config) {
	if override.DataDir != "" {
		base.DataDir = override.DataDir
	}
	if override.Scores.Fingerprint != 0 {
		base.Scores.Fingerprint = override.Scores.Fingerprint
	}
	if override.Scores.ARP != 0 {
		base.Scores.ARP = override.Scores.ARP
	}
	if override.Scores.Inventory != 0 {
		base.Scores.Inventory = override.Scores.Inventory
	}
	if override.Severity.ConfigsCriticalLines != 0 {
		base.Severity.ConfigsCriticalLines = override.Severity.ConfigsCriticalLines
	}
	if override.Severity.InventoryCriticalLines != 0 {
		base.Severity.InventoryCriticalLines = override.Severity.InventoryCriticalLines
	}
	if override.Defaults.MaxWorkers != 0 {
		base.Defaults.MaxWorkers = override.Defaults.MaxWorkers
	}
	if override.Defaults.ConnectTimeoutS != 0 {
		base.Defaults.ConnectTimeoutS = override.Defaults.ConnectTimeoutS
	}
	if override.Defaults.CommandTimeoutS != 0 {
		base.Defaults.CommandTimeoutS = override.Defaults.CommandTimeoutS
	}
}
