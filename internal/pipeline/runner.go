// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

// Package pipeline sequences one full ingest run: fetch new reviews past
// the ledger watermark, wrangle and language-filter them, absorb the batch
// into durable state, geocode pending subjects, then rebuild the
// similarity matrix and word clouds from the updated corpus.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/reviewatlas/reviewatlas/internal/config"
	"github.com/reviewatlas/reviewatlas/internal/database"
	"github.com/reviewatlas/reviewatlas/internal/geocode"
	"github.com/reviewatlas/reviewatlas/internal/logging"
	"github.com/reviewatlas/reviewatlas/internal/metrics"
	"github.com/reviewatlas/reviewatlas/internal/similarity"
	"github.com/reviewatlas/reviewatlas/internal/source"
	"github.com/reviewatlas/reviewatlas/internal/textproc"
	"github.com/reviewatlas/reviewatlas/internal/wordcloud"
)

// ErrRunTooSoon is returned when a run is requested before the configured
// minimum interval since the last completed run has elapsed.
var ErrRunTooSoon = errors.New("pipeline: minimum interval since last run has not elapsed")

// Runner owns the stage sequence for a single-instance deployment. Runs
// are strictly sequential; callers must not invoke Run concurrently.
type Runner struct {
	cfg      *config.Config
	db       *database.DB
	client   *source.Client
	enricher *geocode.Enricher
	renderer *wordcloud.Renderer
	log      zerolog.Logger
}

// NewRunner wires a runner from its stage implementations.
func NewRunner(cfg *config.Config, db *database.DB, client *source.Client, enricher *geocode.Enricher, renderer *wordcloud.Renderer) *Runner {
	return &Runner{
		cfg:      cfg,
		db:       db,
		client:   client,
		enricher: enricher,
		renderer: renderer,
		log:      logging.With().Str("component", "pipeline").Logger(),
	}
}

// Run executes one full pipeline pass. A pass with nothing new upstream is
// recorded and returns nil; ErrRunTooSoon means the pass never started.
func (r *Runner) Run(ctx context.Context) error {
	last, found, err := r.db.LastCompletedRun(ctx)
	if err != nil {
		return fmt.Errorf("checking last run: %w", err)
	}
	if found && time.Since(last) < r.cfg.Pipeline.MinInterval {
		metrics.Runs.WithLabelValues("skipped").Inc()
		r.log.Debug().Time("last_run", last).Dur("min_interval", r.cfg.Pipeline.MinInterval).Msg("Run skipped, too soon")
		return ErrRunTooSoon
	}

	run := database.RunRecord{ID: uuid.New(), StartedAt: time.Now().UTC()}
	r.log.Info().Str("run_id", run.ID.String()).Msg("Pipeline run started")

	status, err := r.execute(ctx, &run)
	run.Status = status
	run.FinishedAt = time.Now().UTC()
	metrics.Runs.WithLabelValues(status).Inc()
	metrics.RunDuration.Observe(run.FinishedAt.Sub(run.StartedAt).Seconds())

	if recErr := r.db.RecordRun(ctx, run); recErr != nil {
		if err == nil {
			err = fmt.Errorf("recording run: %w", recErr)
		} else {
			r.log.Error().Err(recErr).Msg("Failed to record run outcome")
		}
	}

	event := r.log.Info()
	if err != nil {
		event = r.log.Error().Err(err)
	}
	event.
		Str("run_id", run.ID.String()).
		Str("status", status).
		Int64("fetched", run.ReviewsFetched).
		Int64("accepted", run.ReviewsAccepted).
		Dur("duration", run.FinishedAt.Sub(run.StartedAt)).
		Msg("Pipeline run finished")
	return err
}

// execute runs the stage sequence and reports the run status to record.
func (r *Runner) execute(ctx context.Context, run *database.RunRecord) (string, error) {
	watermark, err := r.db.FetchWatermark(ctx, r.cfg.Source.DefaultWatermark)
	if err != nil {
		return database.RunStatusError, fmt.Errorf("reading fetch watermark: %w", err)
	}

	raw, err := r.client.FetchSince(ctx, watermark)
	if errors.Is(err, source.ErrNoNewReviews) {
		r.log.Info().Int64("watermark", watermark).Msg("No new reviews upstream")
		return database.RunStatusNoNewReviews, nil
	}
	if err != nil {
		return database.RunStatusError, fmt.Errorf("fetching reviews: %w", err)
	}
	run.ReviewsFetched = int64(len(raw))
	metrics.ReviewsFetched.Add(float64(len(raw)))

	reviews, nonGeo := source.Wrangle(raw)
	metrics.ReviewsDropped.WithLabelValues("non_geo").Add(float64(nonGeo))

	english, nonEnglish := source.FilterEnglish(reviews)
	metrics.ReviewsDropped.WithLabelValues("language").Add(float64(nonEnglish))
	run.ReviewsAccepted = int64(len(english))
	metrics.ReviewsAccepted.Add(float64(len(english)))

	if len(english) == 0 {
		r.log.Info().Int("fetched", len(raw)).Msg("No reviews survived filtering")
		return database.RunStatusNoNewReviews, nil
	}

	batch := source.Aggregate(english)
	err = r.db.ApplyBatch(ctx, source.BuildKPI(english), source.CorpusEntries(batch), batch)
	if err != nil {
		return database.RunStatusError, err
	}
	r.log.Info().
		Int("accepted", len(english)).
		Int("subjects", len(batch)).
		Msg("Review batch applied")

	if _, err := r.enricher.EnrichAll(ctx); err != nil {
		return database.RunStatusError, fmt.Errorf("geocode enrichment: %w", err)
	}

	if err := r.rebuildArtifacts(ctx); err != nil {
		return database.RunStatusError, err
	}
	return database.RunStatusSuccess, nil
}

// rebuildArtifacts recomputes the similarity matrix from the full current
// corpus, renders word clouds for subjects touched since the change
// watermark, then advances that watermark.
func (r *Runner) rebuildArtifacts(ctx context.Context) error {
	corpus, err := r.db.Corpus(ctx)
	if err != nil {
		return fmt.Errorf("loading corpus: %w", err)
	}
	if len(corpus) == 0 {
		r.log.Info().Msg("Corpus empty, skipping similarity and word clouds")
		return nil
	}

	subjects := make([]string, len(corpus))
	docs := make([][]string, len(corpus))
	for i, entry := range corpus {
		subjects[i] = entry.SubjectID
		docs[i] = textproc.Normalize(entry.Opinion)
	}
	docs = textproc.PruneRare(docs)

	matrix, err := similarity.Build(subjects, docs)
	if err != nil {
		return err
	}
	if err := r.db.ReplaceSimilarity(ctx, matrix.Subjects, matrix.Scores); err != nil {
		return fmt.Errorf("persisting similarity matrix: %w", err)
	}
	metrics.SimilaritySubjects.Set(float64(len(matrix.Subjects)))
	r.log.Info().Int("subjects", len(matrix.Subjects)).Msg("Similarity matrix rebuilt")

	return r.renderTouched(ctx, subjects, docs)
}

// renderTouched draws word clouds for subjects with ledger rows past the
// change watermark. Per-subject render failures are logged and skipped;
// only the watermark write can fail the stage, because losing it would
// re-render the whole touched set forever.
func (r *Runner) renderTouched(ctx context.Context, subjects []string, docs [][]string) error {
	since, err := r.db.ChangeWatermark(ctx, r.cfg.Source.DefaultWatermark)
	if err != nil {
		return fmt.Errorf("reading change watermark: %w", err)
	}
	touched, maxIAT, err := r.db.TouchedSubjects(ctx, since)
	if err != nil {
		return fmt.Errorf("listing touched subjects: %w", err)
	}
	if len(touched) == 0 {
		return nil
	}

	if !r.renderer.Enabled() {
		r.log.Warn().Msg("Word-cloud renderer disabled, no font file configured")
	} else {
		tokensBySubject := make(map[string][]string, len(subjects))
		for i, sub := range subjects {
			tokensBySubject[sub] = docs[i]
		}
		rendered := 0
		for _, sub := range touched {
			tokens, ok := tokensBySubject[sub]
			if !ok || len(tokens) == 0 {
				continue
			}
			if err := r.renderer.Render(sub, tokens); err != nil {
				r.log.Warn().Err(err).Str("subject_id", sub).Msg("Word-cloud render failed")
				continue
			}
			rendered++
			metrics.WordCloudsRendered.Inc()
		}
		r.log.Info().Int("rendered", rendered).Int("touched", len(touched)).Msg("Word clouds rendered")
	}

	if err := r.db.SetChangeWatermark(ctx, maxIAT); err != nil {
		return fmt.Errorf("advancing change watermark: %w", err)
	}
	return nil
}
