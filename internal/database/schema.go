// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

package database

import (
	"context"
	"fmt"
	"time"
)

// schemaContext returns a context with timeout for schema operations.
func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the persisted tables.
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	queries := []string{
		// Append-only review history. Rows are never updated or deleted;
		// on-disk order is unconstrained and consumers sort by iat_original.
		`CREATE TABLE IF NOT EXISTS kpi_ledger (
			subject_id   TEXT   NOT NULL,
			rating       INTEGER NOT NULL,
			iat_original BIGINT NOT NULL,
			iat          TEXT   NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_kpi_subject ON kpi_ledger (subject_id)`,
		`CREATE INDEX IF NOT EXISTS idx_kpi_iat ON kpi_ledger (iat_original)`,

		// One row per subject, all opinion text whitespace-joined.
		`CREATE TABLE IF NOT EXISTS subject_corpus (
			subject_id TEXT PRIMARY KEY,
			opinion    TEXT NOT NULL
		)`,

		// Master registry. Category/city/state/country hold 'not_defined'
		// until geocoded or 'error' after a failed lookup.
		`CREATE TABLE IF NOT EXISTS subject_registry (
			subject_id   TEXT PRIMARY KEY,
			name         TEXT NOT NULL,
			category     TEXT NOT NULL,
			city         TEXT NOT NULL,
			state        TEXT NOT NULL,
			country      TEXT NOT NULL,
			lat          DOUBLE NOT NULL,
			lon          DOUBLE NOT NULL,
			rating       DOUBLE NOT NULL,
			review_count BIGINT NOT NULL
		)`,

		// Cosine similarity cells, replaced wholesale on recomputation.
		`CREATE TABLE IF NOT EXISTS similarity_matrix (
			row_id TEXT   NOT NULL,
			col_id TEXT   NOT NULL,
			score  DOUBLE NOT NULL,
			PRIMARY KEY (row_id, col_id)
		)`,

		// Ordered axis labels for the matrix; kept separately so the
		// original row order (and tie-break order) survives round trips.
		`CREATE TABLE IF NOT EXISTS similarity_subjects (
			position   INTEGER NOT NULL,
			subject_id TEXT    NOT NULL,
			PRIMARY KEY (position)
		)`,

		// Highest iat_original covered by the last similarity/word-cloud
		// recomputation. Single row.
		`CREATE TABLE IF NOT EXISTS change_watermark (
			id           INTEGER PRIMARY KEY CHECK (id = 1),
			iat_original BIGINT NOT NULL
		)`,

		// Run log backing the minimum-interval guard and observability.
		`CREATE TABLE IF NOT EXISTS pipeline_runs (
			id               UUID PRIMARY KEY,
			started_at       TIMESTAMP NOT NULL,
			finished_at      TIMESTAMP,
			status           TEXT NOT NULL,
			reviews_fetched  BIGINT NOT NULL DEFAULT 0,
			reviews_accepted BIGINT NOT NULL DEFAULT 0
		)`,
	}

	for _, query := range queries {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}

	return nil
}
