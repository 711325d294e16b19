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

// mergeRegistry upserts this run's aggregated subjects into the master
// registry inside tx.
//
// New subjects insert with sentinel geo metadata. Matched subjects keep
// their existing name, coordinates and enrichment fields, and blend the
// rating as a weighted mean — never a naive average of the two values:
//
//	rating = (old_count*old_rating + new_count*new_rating) / (old_count + new_count)
//
// review_count is summed, so it is monotonically non-decreasing.
func mergeRegistry(ctx context.Context, tx *sql.Tx, batch []models.AggregatedReview) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO subject_registry
			(subject_id, name, category, city, state, country, lat, lon, rating, review_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (subject_id) DO UPDATE SET
			rating = (subject_registry.review_count * subject_registry.rating
			          + excluded.review_count * excluded.rating)
			         / (subject_registry.review_count + excluded.review_count),
			review_count = subject_registry.review_count + excluded.review_count`)
	if err != nil {
		return fmt.Errorf("failed to prepare registry upsert: %w", err)
	}
	defer stmt.Close()

	for _, a := range batch {
		_, err := stmt.ExecContext(ctx,
			a.SubjectID, a.Name,
			models.NotDefined, models.NotDefined, models.NotDefined, models.NotDefined,
			a.Lat, a.Lon, a.Rating, a.ReviewCount)
		if err != nil {
			return fmt.Errorf("failed to merge registry row for %s: %w", a.SubjectID, err)
		}
	}
	return nil
}

// Registry returns every registry row ordered by subject id.
func (db *DB) Registry(ctx context.Context) ([]models.Subject, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT subject_id, name, category, city, state, country, lat, lon, rating, review_count
		FROM subject_registry ORDER BY subject_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query registry: %w", err)
	}
	defer rows.Close()

	return scanSubjects(rows)
}

// SubjectsNeedingEnrichment returns registry rows still carrying the
// not-yet-geocoded sentinel. Rows in the error state are excluded.
func (db *DB) SubjectsNeedingEnrichment(ctx context.Context) ([]models.Subject, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT subject_id, name, category, city, state, country, lat, lon, rating, review_count
		FROM subject_registry WHERE category = ? ORDER BY subject_id`, models.NotDefined)
	if err != nil {
		return nil, fmt.Errorf("failed to query unenriched subjects: %w", err)
	}
	defer rows.Close()

	return scanSubjects(rows)
}

// UpdateEnrichment stores geocoded metadata for one subject. Fields the
// geocoder did not provide arrive as the sentinel and are stored as-is.
func (db *DB) UpdateEnrichment(ctx context.Context, subjectID, category, city, state, country string) error {
	_, err := db.conn.ExecContext(ctx, `
		UPDATE subject_registry SET category = ?, city = ?, state = ?, country = ?
		WHERE subject_id = ?`, category, city, state, country, subjectID)
	if err != nil {
		return fmt.Errorf("failed to update enrichment for %s: %w", subjectID, err)
	}
	return nil
}

// MarkEnrichmentError flags all four enrichment fields with the error
// sentinel so the subject is not retried as if untouched.
func (db *DB) MarkEnrichmentError(ctx context.Context, subjectID string) error {
	err := db.UpdateEnrichment(ctx, subjectID,
		models.EnrichmentError, models.EnrichmentError, models.EnrichmentError, models.EnrichmentError)
	if err != nil {
		return fmt.Errorf("failed to mark enrichment error: %w", err)
	}
	return nil
}

func scanSubjects(rows *sql.Rows) ([]models.Subject, error) {
	var subjects []models.Subject
	for rows.Next() {
		var s models.Subject
		err := rows.Scan(&s.SubjectID, &s.Name, &s.Category, &s.City, &s.State, &s.Country,
			&s.Lat, &s.Lon, &s.Rating, &s.ReviewCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan registry row: %w", err)
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}
