// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

// Package metrics provides Prometheus instrumentation for the pipeline:
// run outcomes and durations, review intake, geocode outcomes and the
// size of the similarity model. Exposed on GET /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline run metrics
	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reviewatlas_run_duration_seconds",
			Help:    "Duration of full pipeline runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	Runs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewatlas_runs_total",
			Help: "Total pipeline runs by outcome",
		},
		[]string{"status"}, // "success", "no_new_reviews", "skipped", "error"
	)

	// Review intake metrics
	ReviewsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reviewatlas_reviews_fetched_total",
			Help: "Raw review payloads fetched from the review source",
		},
	)

	ReviewsAccepted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reviewatlas_reviews_accepted_total",
			Help: "Reviews surviving wrangling and the language filter",
		},
	)

	ReviewsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewatlas_reviews_dropped_total",
			Help: "Reviews discarded during classification",
		},
		[]string{"reason"}, // "non_geo", "language"
	)

	// Geocoding metrics
	GeocodeLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reviewatlas_geocode_lookups_total",
			Help: "Reverse-geocode lookups by outcome",
		},
		[]string{"outcome"}, // "match", "no_match", "ambiguous", "error"
	)

	// Similarity model metrics
	SimilaritySubjects = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reviewatlas_similarity_subjects",
			Help: "Subjects present in the current similarity matrix",
		},
	)

	WordCloudsRendered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "reviewatlas_wordclouds_rendered_total",
			Help: "Word-cloud images rendered for touched subjects",
		},
	)
)
