// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the paths where config files are searched in
// order of priority. The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/reviewatlas/config.yaml",
	"/etc/reviewatlas/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// envPrefix namespaces all ReviewAtlas environment variables.
const envPrefix = "REVIEWATLAS_"

// defaultConfig returns a Config with all defaults applied. These are
// overridden by the config file and then by environment variables.
func defaultConfig() *Config {
	return &Config{
		Source: SourceConfig{
			BaseURL: "https://api.mangrove.reviews",
			Timeout: 30 * time.Second,
			// First observed review in the upstream namespace; fetching
			// gt_iat from here returns the full history on a fresh install.
			DefaultWatermark: 1580915880,
		},
		Geocoder: GeocoderConfig{
			BaseURL:         "https://nominatim.openstreetmap.org",
			Timeout:         30 * time.Second,
			RequestInterval: 2500 * time.Millisecond,
			BoxMeters:       30,
		},
		Database: DatabaseConfig{
			Path:      "/data/reviewatlas.duckdb",
			MaxMemory: "1GB",
			Threads:   0,
		},
		Pipeline: PipelineConfig{
			MinInterval:  15 * time.Minute,
			Interval:     1 * time.Hour,
			RunOnStartup: true,
			ImagesDir:    "/data/wordclouds",
			FontFile:     "",
			Filter:       SubjectFilter{},
		},
		Server: ServerConfig{
			Host:    "0.0.0.0",
			Port:    8642,
			Timeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
	}
}

// Load builds the configuration from layered sources:
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if one exists)
//  3. Environment variables: REVIEWATLAS_* overrides
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// REVIEWATLAS_SOURCE_BASE_URL -> source.base_url
	if err := k.Load(env.Provider(envPrefix, ".", envTransform), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// envTransform maps an environment variable name to a koanf path. The
// first underscore separates the section from the key, so multi-word keys
// keep their underscores: SOURCE_BASE_URL -> source.base_url, and nested
// filter keys use double underscores: PIPELINE_FILTER__CATEGORY ->
// pipeline.filter.category.
func envTransform(name string) string {
	s := strings.ToLower(strings.TrimPrefix(name, envPrefix))
	s = strings.Replace(s, "__", ".", 1)
	return strings.Replace(s, "_", ".", 1)
}

// findConfigFile returns the first config file found, or "".
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
