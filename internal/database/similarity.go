// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

package database

import (
	"context"
	"database/sql"
	"fmt"
)

// ReplaceSimilarity swaps in a freshly computed similarity matrix.
// subjects holds the axis labels in model order; scores is the square
// matrix aligned to that order. The previous matrix is dropped in the
// same transaction, so readers never observe a partial model.
func (db *DB) ReplaceSimilarity(ctx context.Context, subjects []string, scores [][]float64) error {
	if len(scores) != len(subjects) {
		return fmt.Errorf("similarity matrix is %dx? for %d subjects", len(scores), len(subjects))
	}

	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM similarity_matrix`); err != nil {
			return fmt.Errorf("failed to clear similarity matrix: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM similarity_subjects`); err != nil {
			return fmt.Errorf("failed to clear similarity subjects: %w", err)
		}

		subjStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO similarity_subjects (position, subject_id) VALUES (?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare subject insert: %w", err)
		}
		defer subjStmt.Close()

		cellStmt, err := tx.PrepareContext(ctx,
			`INSERT INTO similarity_matrix (row_id, col_id, score) VALUES (?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("failed to prepare cell insert: %w", err)
		}
		defer cellStmt.Close()

		for i, id := range subjects {
			if _, err := subjStmt.ExecContext(ctx, i, id); err != nil {
				return fmt.Errorf("failed to insert subject %s: %w", id, err)
			}
			if len(scores[i]) != len(subjects) {
				return fmt.Errorf("similarity row %d has %d cells for %d subjects",
					i, len(scores[i]), len(subjects))
			}
			for j, colID := range subjects {
				if _, err := cellStmt.ExecContext(ctx, id, colID, scores[i][j]); err != nil {
					return fmt.Errorf("failed to insert cell (%s,%s): %w", id, colID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace similarity matrix: %w", err)
	}
	return nil
}

// LoadSimilarity returns the persisted matrix in stored axis order.
// An absent model returns empty slices, not an error.
func (db *DB) LoadSimilarity(ctx context.Context) ([]string, [][]float64, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT subject_id FROM similarity_subjects ORDER BY position`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query similarity subjects: %w", err)
	}
	defer rows.Close()

	var subjects []string
	index := make(map[string]int)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, nil, fmt.Errorf("failed to scan subject id: %w", err)
		}
		index[id] = len(subjects)
		subjects = append(subjects, id)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if len(subjects) == 0 {
		return nil, nil, nil
	}

	scores := make([][]float64, len(subjects))
	for i := range scores {
		scores[i] = make([]float64, len(subjects))
	}

	cellRows, err := db.conn.QueryContext(ctx,
		`SELECT row_id, col_id, score FROM similarity_matrix`)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query similarity cells: %w", err)
	}
	defer cellRows.Close()

	for cellRows.Next() {
		var rowID, colID string
		var score float64
		if err := cellRows.Scan(&rowID, &colID, &score); err != nil {
			return nil, nil, fmt.Errorf("failed to scan similarity cell: %w", err)
		}
		i, iok := index[rowID]
		j, jok := index[colID]
		if !iok || !jok {
			return nil, nil, fmt.Errorf("similarity cell (%s,%s) references unknown subject", rowID, colID)
		}
		scores[i][j] = score
	}
	return subjects, scores, cellRows.Err()
}
