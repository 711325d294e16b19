// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

// Package models defines the domain types shared between the pipeline
// stages and the persistence layer.
package models

// Sentinel values persisted in the subject registry and attached to
// reviews during classification. They are compared literally everywhere,
// so their exact casing matters.
const (
	// NotDefined marks registry metadata that has not been geocoded yet.
	NotDefined = "not_defined"

	// EnrichmentError marks metadata whose geocode lookup failed. Distinct
	// from NotDefined so failed subjects are not retried on every run.
	EnrichmentError = "error"

	// LanguageEnglish is the only language code that passes the filter.
	LanguageEnglish = "en"

	// LanguageOther is the classification-failure sentinel. Deliberately
	// capitalized, unlike real ISO codes, so it can never collide with one.
	LanguageOther = "Other"
)

// Review is one cleaned review as produced by the wrangler. It exists
// only within a pipeline run; durable state is derived from it.
type Review struct {
	SubjectID   string  `json:"sub"`
	Name        string  `json:"name"`
	Rating      int     `json:"rating"`
	Lon         float64 `json:"lon"`
	Lat         float64 `json:"lat"`
	IAT         int64   `json:"iat"`
	Opinion     string  `json:"opinion"`
	ReviewCount int64   `json:"review_count"`

	// Language is transient, set by the language filter and never persisted.
	Language string `json:"-"`
}

// AggregatedReview is one subject's rollup of all reviews accepted in a
// single run: opinions space-joined, counts summed, ratings averaged
// arithmetically (every row in the batch carries equal weight).
type AggregatedReview struct {
	SubjectID   string
	Name        string
	Lon         float64
	Lat         float64
	Opinion     string
	ReviewCount int64
	Rating      float64
}

// KPIRecord is one append-only ledger row per accepted review.
type KPIRecord struct {
	SubjectID   string `json:"sub"`
	Rating      int    `json:"rating"`
	IATOriginal int64  `json:"iat_original"`
	IAT         string `json:"iat"`
}

// CorpusEntry is one subject's concatenated opinion text.
type CorpusEntry struct {
	SubjectID string `json:"sub"`
	Opinion   string `json:"opinion"`
}

// Subject is one master-registry row. Category, City, State and Country
// hold NotDefined until geocoding succeeds, or EnrichmentError if the
// lookup failed. Rating is the weighted mean over all reviews ever seen.
type Subject struct {
	SubjectID   string  `json:"sub"`
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	City        string  `json:"city"`
	State       string  `json:"state"`
	Country     string  `json:"country"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Rating      float64 `json:"rating"`
	ReviewCount int64   `json:"review_count"`
}

// NeedsEnrichment reports whether the subject still carries the
// not-yet-geocoded sentinel. Subjects in the error state are excluded;
// they are flagged for manual repair, not retried.
func (s *Subject) NeedsEnrichment() bool {
	return s.Category == NotDefined
}
