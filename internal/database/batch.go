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

// ApplyBatch absorbs one run's accepted reviews into durable state in a
// single transaction: ledger append, corpus merge, registry merge.
//
// Atomicity matters here because the fetch watermark is derived from the
// ledger: if the ledger advanced while the corpus or registry write was
// lost, the next run would silently skip the batch. All-or-nothing means
// a crashed run re-fetches the same reviews and produces the same merge.
func (db *DB) ApplyBatch(ctx context.Context,
	kpi []models.KPIRecord,
	corpus []models.CorpusEntry,
	subjects []models.AggregatedReview,
) error {
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if err := appendKPI(ctx, tx, kpi); err != nil {
			return err
		}
		if err := mergeCorpus(ctx, tx, corpus); err != nil {
			return err
		}
		return mergeRegistry(ctx, tx, subjects)
	})
	if err != nil {
		return fmt.Errorf("failed to apply review batch: %w", err)
	}
	return nil
}
