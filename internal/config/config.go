// Package config loads project-local configuration with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Scan      ScanConfig      `yaml:"scan,omitempty"`
	Search    SearchConfig    `yaml:"search,omitempty"`
}

// EmbeddingConfig configures the embedding gateway.
type EmbeddingConfig struct {
	URL   string `yaml:"url"`
	Model string `yaml:"model"`
}

// ScanConfig configures traversal defaults.
type ScanConfig struct {
	Workers    int      `yaml:"workers,omitempty"`
	Extensions []string `yaml:"extensions,omitempty"`
	TimeoutMS  int      `yaml:"timeout_ms,omitempty"`
}

// SearchConfig configures search defaults.
type SearchConfig struct {
	ContextLines int `yaml:"context_lines,omitempty"`
	TopN         int `yaml:"top_n,omitempty"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			URL:   "http://localhost:11434",
			Model: "nomic-embed-text",
		},
		Scan: ScanConfig{
			Extensions: []string{"go", "py", "rs", "ts", "js", "cs"},
			TimeoutMS:  10000,
		},
		Search: SearchConfig{
			ContextLines: 2,
			TopN:         10,
		},
	}
}

// Load reads <root>/.codescope/config.yaml, filling unset fields from the
// defaults. A missing file returns the defaults.
func Load(root string) (*Config, error) {
	cfg := Default()

	path := filepath.Join(root, ".codescope", "config.yaml")
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	defaults := Default()
	if cfg.Embedding.URL == "" {
		cfg.Embedding.URL = defaults.Embedding.URL
	}
	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = defaults.Embedding.Model
	}
	if len(cfg.Scan.Extensions) == 0 {
		cfg.Scan.Extensions = defaults.Scan.Extensions
	}
	if cfg.Scan.TimeoutMS <= 0 {
		cfg.Scan.TimeoutMS = defaults.Scan.TimeoutMS
	}
	if cfg.Search.ContextLines <= 0 {
		cfg.Search.ContextLines = defaults.Search.ContextLines
	}
	if cfg.Search.TopN <= 0 {
		cfg.Search.TopN = defaults.Search.TopN
	}
	return cfg, nil
}
