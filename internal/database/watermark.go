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
)

// ChangeWatermark returns the highest original timestamp covered by the
// last similarity/word-cloud recomputation, or def when no recomputation
// has happened yet.
func (db *DB) ChangeWatermark(ctx context.Context, def int64) (int64, error) {
	var wm int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT iat_original FROM change_watermark WHERE id = 1`).Scan(&wm)
	if errors.Is(err, sql.ErrNoRows) {
		return def, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read change watermark: %w", err)
	}
	return wm, nil
}

// SetChangeWatermark advances the change watermark after the
// similarity-dependent artifacts of a run are complete.
func (db *DB) SetChangeWatermark(ctx context.Context, iat int64) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO change_watermark (id, iat_original) VALUES (1, ?)
		ON CONFLICT (id) DO UPDATE SET iat_original = excluded.iat_original`, iat)
	if err != nil {
		return fmt.Errorf("failed to set change watermark: %w", err)
	}
	return nil
}
