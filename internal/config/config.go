// Package config loads and saves the bankfeed.yaml project configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file at the workspace root.
const FileName = "bankfeed.yaml"

// Config represents the top-level bankfeed.yaml configuration.
type Config struct {
	Project     ProjectConfig     `yaml:"project"`
	Parsing     ParsingConfig     `yaml:"parsing"`
	Categorizer CategorizerConfig `yaml:"categorizer"`
	Reversals   ReversalConfig    `yaml:"reversals"`
	Git         GitConfig         `yaml:"git"`
}

// ProjectConfig identifies the workspace.
type ProjectConfig struct {
	Name      string `yaml:"name"`
	RulesFile string `yaml:"rules_file"`
}

// ParsingConfig controls CSV ingestion behavior.
type ParsingConfig struct {
	// DayFirst resolves ambiguous numeric dates as DD/MM rather than MM/DD.
	DayFirst bool `yaml:"day_first"`
	// BankHint forces a bank column profile instead of inferring one from
	// the file name. Empty means infer.
	BankHint string `yaml:"bank_hint,omitempty"`
}

// CategorizerConfig controls the model-backed categorization pass.
type CategorizerConfig struct {
	Enabled             bool    `yaml:"enabled"`
	Model               string  `yaml:"model"`
	BatchSize           int     `yaml:"batch_size"`
	BatchDelaySeconds   int     `yaml:"batch_delay_seconds"`
	RetryDelaySeconds   int     `yaml:"retry_delay_seconds"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold"`
}

// ReversalConfig controls offsetting-pair detection.
type ReversalConfig struct {
	WindowDays          int     `yaml:"window_days"`
	SimilarityThreshold float64 `yaml:"similarity_threshold"`
}

// GitConfig controls version control of the data directory.
type GitConfig struct {
	AutoCommit  bool   `yaml:"auto_commit"`
	AuthorName  string `yaml:"author_name"`
	AuthorEmail string `yaml:"author_email"`
}

// Load reads a bankfeed.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new workspace.
func Default(projectName string) *Config {
	return &Config{
		Project: ProjectConfig{
			Name:      projectName,
			RulesFile: "rules/rules.yaml",
		},
		Parsing: ParsingConfig{
			DayFirst: true,
		},
		Categorizer: CategorizerConfig{
			Enabled:             true,
			Model:               "gemini-2.0-flash",
			BatchSize:           40,
			BatchDelaySeconds:   2,
			RetryDelaySeconds:   5,
			ConfidenceThreshold: 0.70,
		},
		Reversals: ReversalConfig{
			WindowDays:          14,
			SimilarityThreshold: 0.8,
		},
		Git: GitConfig{
			AutoCommit:  true,
			AuthorName:  "Bankfeed",
			AuthorEmail: "bankfeed@localhost",
		},
	}
}
