// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Run outcome values recorded in pipeline_runs.
const (
	RunStatusSuccess      = "success"
	RunStatusNoNewReviews = "no_new_reviews"
	RunStatusError        = "error"
)

// RunRecord is one pipeline run log entry.
type RunRecord struct {
	ID              uuid.UUID
	StartedAt       time.Time
	FinishedAt      time.Time
	Status          string
	ReviewsFetched  int64
	ReviewsAccepted int64
}

// LastCompletedRun returns the start time of the most recent run that
// completed without error (including no-new-reviews runs). The second
// return value is false when no such run exists. The minimum-interval
// guard is evaluated against this timestamp; failed runs do not count, so
// a crashed run can be retried immediately.
func (db *DB) LastCompletedRun(ctx context.Context) (time.Time, bool, error) {
	var started time.Time
	err := db.conn.QueryRowContext(ctx, `
		SELECT started_at FROM pipeline_runs
		WHERE status IN (?, ?)
		ORDER BY started_at DESC LIMIT 1`,
		RunStatusSuccess, RunStatusNoNewReviews).Scan(&started)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read last run: %w", err)
	}
	return started, true, nil
}

// RecordRun appends one run log entry.
func (db *DB) RecordRun(ctx context.Context, run RunRecord) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO pipeline_runs (id, started_at, finished_at, status, reviews_fetched, reviews_accepted)
		VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, run.StartedAt, run.FinishedAt, run.Status, run.ReviewsFetched, run.ReviewsAccepted)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	return nil
}
