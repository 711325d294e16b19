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

// mergeCorpus upserts this run's per-subject opinion rollups into the
// corpus inside tx. An existing row grows by a single joining space; a
// new subject inserts as-is. Exactly one row per subject at all times.
func mergeCorpus(ctx context.Context, tx *sql.Tx, entries []models.CorpusEntry) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO subject_corpus (subject_id, opinion) VALUES (?, ?)
		ON CONFLICT (subject_id) DO UPDATE
		SET opinion = subject_corpus.opinion || ' ' || excluded.opinion`)
	if err != nil {
		return fmt.Errorf("failed to prepare corpus upsert: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.SubjectID, e.Opinion); err != nil {
			return fmt.Errorf("failed to merge corpus row for %s: %w", e.SubjectID, err)
		}
	}
	return nil
}

// Corpus returns every corpus entry whose opinion text contains at least
// one non-whitespace character. Subjects that collected only empty
// opinions have no normalizable content and are excluded from the
// similarity model.
func (db *DB) Corpus(ctx context.Context) ([]models.CorpusEntry, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT subject_id, opinion FROM subject_corpus
		WHERE trim(opinion) <> ''
		ORDER BY subject_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query corpus: %w", err)
	}
	defer rows.Close()

	var entries []models.CorpusEntry
	for rows.Next() {
		var e models.CorpusEntry
		if err := rows.Scan(&e.SubjectID, &e.Opinion); err != nil {
			return nil, fmt.Errorf("failed to scan corpus row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
