// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

// Package api exposes the read path consumed by the presentation layer:
// the subject registry, per-subject KPI history, top-K similar subjects
// and health, plus an on-demand pipeline trigger.
package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/reviewatlas/reviewatlas/internal/config"
	"github.com/reviewatlas/reviewatlas/internal/database"
	"github.com/reviewatlas/reviewatlas/internal/logging"
	"github.com/reviewatlas/reviewatlas/internal/models"
	"github.com/reviewatlas/reviewatlas/internal/pipeline"
	"github.com/reviewatlas/reviewatlas/internal/similarity"
)

// maxSimilarSubjects caps a top-K answer.
const maxSimilarSubjects = 3

// runTrigger starts one pipeline pass on demand.
type runTrigger interface {
	Run(ctx context.Context) error
}

// Handlers serves the API from the durable store. The similarity matrix
// is reloaded per request; it is small (subjects x subjects) and DuckDB
// reads are cheap compared to a stale-cache bug.
type Handlers struct {
	db     *database.DB
	cfg    *config.Config
	runner runTrigger
	log    zerolog.Logger
}

// NewHandlers builds the handler set. runner may be nil when the process
// serves reads only; the trigger endpoint then answers 503.
func NewHandlers(db *database.DB, cfg *config.Config, runner runTrigger) *Handlers {
	return &Handlers{
		db:     db,
		cfg:    cfg,
		runner: runner,
		log:    logging.With().Str("component", "api").Logger(),
	}
}

// Subjects returns the full subject registry.
func (h *Handlers) Subjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := h.db.Registry(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load registry")
		respondError(w, http.StatusInternalServerError, "registry_unavailable", "failed to load subject registry")
		return
	}
	respondJSON(w, http.StatusOK, &APIResponse{Status: "ok", Data: subjects})
}

// KPI returns the review ledger, optionally restricted to one subject via
// the subject_id query parameter.
func (h *Handlers) KPI(w http.ResponseWriter, r *http.Request) {
	subjectID := r.URL.Query().Get("subject_id")
	history, err := h.db.KPIHistory(r.Context(), subjectID)
	if err != nil {
		h.log.Error().Err(err).Str("subject_id", subjectID).Msg("Failed to load KPI history")
		respondError(w, http.StatusInternalServerError, "ledger_unavailable", "failed to load KPI history")
		return
	}
	respondJSON(w, http.StatusOK, &APIResponse{Status: "ok", Data: history})
}

// SimilarSubject is one top-K row joined back to display fields.
type SimilarSubject struct {
	SubjectID  string  `json:"sub"`
	Name       string  `json:"name"`
	Rating     float64 `json:"rating"`
	Similarity float64 `json:"similarity"`
}

// Similar returns up to 3 subjects most similar to {id}, restricted to
// the configured business filter and the caller's rating range. A target
// without a matrix row yields an empty list, not an error.
func (h *Handlers) Similar(w http.ResponseWriter, r *http.Request) {
	target, err := url.PathUnescape(chi.URLParam(r, "id"))
	if err != nil || target == "" {
		respondError(w, http.StatusBadRequest, "invalid_subject", "subject id missing or malformed")
		return
	}

	minRating, err := ratingParam(r, "min_rating", 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_rating", "min_rating must be numeric")
		return
	}
	maxRating, err := ratingParam(r, "max_rating", 100)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_rating", "max_rating must be numeric")
		return
	}

	subjects, err := h.db.Registry(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load registry")
		respondError(w, http.StatusInternalServerError, "registry_unavailable", "failed to load subject registry")
		return
	}

	matrixSubjects, scores, err := h.db.LoadSimilarity(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to load similarity matrix")
		respondError(w, http.StatusInternalServerError, "similarity_unavailable", "failed to load similarity matrix")
		return
	}
	matrix := similarity.New(matrixSubjects, scores)

	candidates := filterCandidates(subjects, &h.cfg.Pipeline.Filter, target, minRating, maxRating)
	neighbors := matrix.TopK(target, candidates, maxSimilarSubjects)

	bySub := make(map[string]models.Subject, len(subjects))
	for _, s := range subjects {
		bySub[s.SubjectID] = s
	}
	result := make([]SimilarSubject, 0, len(neighbors))
	for _, n := range neighbors {
		s := bySub[n.SubjectID]
		result = append(result, SimilarSubject{
			SubjectID:  n.SubjectID,
			Name:       s.Name,
			Rating:     s.Rating,
			Similarity: n.Similarity,
		})
	}
	respondJSON(w, http.StatusOK, &APIResponse{Status: "ok", Data: result})
}

// TriggerRun starts a pipeline pass and blocks until it finishes. The
// min-interval guard maps to 429 so schedulers can back off cleanly.
func (h *Handlers) TriggerRun(w http.ResponseWriter, r *http.Request) {
	if h.runner == nil {
		respondError(w, http.StatusServiceUnavailable, "runner_unavailable", "this instance serves reads only")
		return
	}
	err := h.runner.Run(r.Context())
	switch {
	case errors.Is(err, pipeline.ErrRunTooSoon):
		respondError(w, http.StatusTooManyRequests, "run_too_soon", "minimum interval since last run has not elapsed")
	case err != nil:
		h.log.Error().Err(err).Msg("Triggered run failed")
		respondError(w, http.StatusInternalServerError, "run_failed", "pipeline run failed")
	default:
		respondJSON(w, http.StatusOK, &APIResponse{Status: "ok"})
	}
}

// Health reports liveness including a database ping.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, "database_unavailable", "database ping failed")
		return
	}
	respondJSON(w, http.StatusOK, &APIResponse{Status: "ok", Data: map[string]string{"database": "up"}})
}

// filterCandidates applies the business filter and the rating range. The
// target always passes: it must stay in the pool so TopK can identify and
// drop the self row even when its own rating is out of range.
func filterCandidates(subjects []models.Subject, filter *config.SubjectFilter, target string, minRating, maxRating float64) []string {
	ids := make([]string, 0, len(subjects))
	for _, s := range subjects {
		if s.SubjectID == target {
			ids = append(ids, s.SubjectID)
			continue
		}
		if filter.Category != "" && s.Category != filter.Category {
			continue
		}
		if filter.Country != "" && s.Country != filter.Country {
			continue
		}
		if filter.State != "" && s.State != filter.State {
			continue
		}
		if s.Rating < minRating || s.Rating > maxRating {
			continue
		}
		ids = append(ids, s.SubjectID)
	}
	return ids
}

func ratingParam(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return strconv.ParseFloat(raw, 64)
}
