// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/reviewatlas/reviewatlas/internal/models"
)

// FetchWatermark returns the highest original timestamp recorded in the
// KPI ledger, or def when the ledger is empty. The fetcher queries the
// review source for everything strictly newer.
func (db *DB) FetchWatermark(ctx context.Context, def int64) (int64, error) {
	var wm int64
	err := db.conn.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(iat_original), ?) FROM kpi_ledger`, def).Scan(&wm)
	if err != nil {
		return 0, fmt.Errorf("failed to read fetch watermark: %w", err)
	}
	return wm, nil
}

// AppendKPI appends accepted reviews to the ledger inside tx. Rows are
// only ever inserted; the ledger is the immutable source of truth for
// rating history.
func appendKPI(ctx context.Context, tx *sql.Tx, records []models.KPIRecord) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO kpi_ledger (subject_id, rating, iat_original, iat) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare ledger insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.ExecContext(ctx, r.SubjectID, r.Rating, r.IATOriginal, r.IAT); err != nil {
			return fmt.Errorf("failed to append ledger row for %s: %w", r.SubjectID, err)
		}
	}
	return nil
}

// KPIHistory returns ledger rows sorted by original timestamp. With an
// empty subjectID every row is returned. Consumers derive cumulative
// series from the sorted result.
func (db *DB) KPIHistory(ctx context.Context, subjectID string) ([]models.KPIRecord, error) {
	query := `SELECT subject_id, rating, iat_original, iat FROM kpi_ledger`
	args := []any{}
	if subjectID != "" {
		query += ` WHERE subject_id = ?`
		args = append(args, subjectID)
	}
	query += ` ORDER BY iat_original`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query KPI history: %w", err)
	}
	defer rows.Close()

	var records []models.KPIRecord
	for rows.Next() {
		var r models.KPIRecord
		if err := rows.Scan(&r.SubjectID, &r.Rating, &r.IATOriginal, &r.IAT); err != nil {
			return nil, fmt.Errorf("failed to scan KPI row: %w", err)
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

// TouchedSubjects returns the distinct subjects with at least one ledger
// row newer than since, plus the maximum original timestamp among those
// rows. The word-cloud renderer uses this to limit work to subjects that
// changed since the last recomputation.
func (db *DB) TouchedSubjects(ctx context.Context, since int64) ([]string, int64, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT DISTINCT subject_id FROM kpi_ledger WHERE iat_original > ? ORDER BY subject_id`,
		since)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query touched subjects: %w", err)
	}
	defer rows.Close()

	var subjects []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, 0, fmt.Errorf("failed to scan subject id: %w", err)
		}
		subjects = append(subjects, id)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if len(subjects) == 0 {
		return nil, since, nil
	}

	var maxIAT int64
	err = db.conn.QueryRowContext(ctx,
		`SELECT MAX(iat_original) FROM kpi_ledger WHERE iat_original > ?`, since).Scan(&maxIAT)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to read max touched timestamp: %w", err)
	}
	return subjects, maxIAT, nil
}
