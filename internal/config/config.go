// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

// Package config loads and validates the ReviewAtlas configuration using
// Koanf v2 with layered sources: built-in defaults, an optional YAML file
// and environment variables (highest priority).
package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration for the pipeline and its read API.
type Config struct {
	Source   SourceConfig   `koanf:"source"`
	Geocoder GeocoderConfig `koanf:"geocoder"`
	Database DatabaseConfig `koanf:"database"`
	Pipeline PipelineConfig `koanf:"pipeline"`
	Server   ServerConfig   `koanf:"server"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// SourceConfig holds the external review API connection settings.
//
// Environment variables:
//   - REVIEWATLAS_SOURCE_BASE_URL
//   - REVIEWATLAS_SOURCE_TIMEOUT
type SourceConfig struct {
	BaseURL string        `koanf:"base_url" validate:"required,url"`
	Timeout time.Duration `koanf:"timeout"  validate:"gt=0"`

	// DefaultWatermark is the gt_iat used when the KPI ledger is empty.
	DefaultWatermark int64 `koanf:"default_watermark" validate:"gte=0"`
}

// GeocoderConfig holds the reverse-geocoder (Nominatim) settings.
//
// RequestInterval is the courtesy delay between successive lookups; the
// enricher is a hard serialization point and never issues calls in
// parallel.
type GeocoderConfig struct {
	BaseURL         string        `koanf:"base_url"         validate:"required,url"`
	Timeout         time.Duration `koanf:"timeout"          validate:"gt=0"`
	RequestInterval time.Duration `koanf:"request_interval" validate:"gt=0"`

	// BoxMeters is the bounding-box half-extent around a subject's
	// coordinates, in meters.
	BoxMeters float64 `koanf:"box_meters" validate:"gt=0"`
}

// DatabaseConfig holds DuckDB settings for the persisted tables.
type DatabaseConfig struct {
	Path      string `koanf:"path" validate:"required"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// PipelineConfig controls run scheduling and the artifact outputs.
type PipelineConfig struct {
	// MinInterval is the update-frequency guard: a run that starts within
	// MinInterval of the previous successful run is refused.
	MinInterval time.Duration `koanf:"min_interval" validate:"gte=0"`

	// Interval is the scheduling period when running as a daemon.
	Interval time.Duration `koanf:"interval" validate:"gt=0"`

	RunOnStartup bool `koanf:"run_on_startup"`

	// ImagesDir receives one word-cloud PNG per touched subject.
	ImagesDir string `koanf:"images_dir" validate:"required"`

	// FontFile is the TTF used by the word-cloud renderer. Rendering is
	// skipped with a warning when empty or missing.
	FontFile string `koanf:"font_file"`

	Filter SubjectFilter `koanf:"filter"`
}

// SubjectFilter is the active business filter applied to similar-subject
// candidates. Empty fields match everything.
type SubjectFilter struct {
	Category string `koanf:"category"`
	Country  string `koanf:"country"`
	State    string `koanf:"state"`
}

// ServerConfig holds the HTTP read-path settings.
type ServerConfig struct {
	Host    string        `koanf:"host"    validate:"required"`
	Port    int           `koanf:"port"    validate:"gt=0,lte=65535"`
	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`
}

// LoggingConfig mirrors logging.Config for the koanf layer.
type LoggingConfig struct {
	Level  string `koanf:"level"  validate:"oneof=trace debug info warn warning error fatal disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// Validate checks the configuration after all layers are applied.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Pipeline.MinInterval > c.Pipeline.Interval {
		return fmt.Errorf("pipeline.min_interval (%s) must not exceed pipeline.interval (%s)",
			c.Pipeline.MinInterval, c.Pipeline.Interval)
	}
	return nil
}
