// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

package geocode

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/reviewatlas/reviewatlas/internal/config"
	"github.com/reviewatlas/reviewatlas/internal/logging"
	"github.com/reviewatlas/reviewatlas/internal/metrics"
	"github.com/reviewatlas/reviewatlas/internal/models"
)

// registryStore is the slice of the database layer the enricher needs.
type registryStore interface {
	SubjectsNeedingEnrichment(ctx context.Context) ([]models.Subject, error)
	UpdateEnrichment(ctx context.Context, subjectID, category, city, state, country string) error
	MarkEnrichmentError(ctx context.Context, subjectID string) error
}

// Enricher resolves place metadata for registry subjects that still carry
// the not_defined placeholder, one rate-limited lookup per subject.
type Enricher struct {
	store     registryStore
	client    *Client
	limiter   *rate.Limiter
	boxMeters float64
	log       zerolog.Logger
}

// EnrichStats summarizes one enrichment sweep.
type EnrichStats struct {
	Resolved  int
	NoMatch   int
	Ambiguous int
	Failed    int
}

// NewEnricher builds an enricher. The limiter allows a single in-flight
// token refilled every RequestInterval, which keeps the sweep inside the
// usage policy of the public Nominatim instance.
func NewEnricher(store registryStore, client *Client, cfg *config.GeocoderConfig) *Enricher {
	return &Enricher{
		store:     store,
		client:    client,
		limiter:   rate.NewLimiter(rate.Every(interval(cfg.RequestInterval)), 1),
		boxMeters: cfg.BoxMeters,
		log:       logging.With().Str("component", "geocode").Logger(),
	}
}

// interval guards against a zero RequestInterval in hand-rolled configs so
// the limiter never degenerates into a busy loop against a public service.
func interval(d time.Duration) time.Duration {
	if d <= 0 {
		return time.Second
	}
	return d
}

// EnrichAll looks up every subject still awaiting enrichment. Per-subject
// failures mark that subject with the error sentinel and continue; only a
// failure to read or write the registry itself aborts the sweep.
func (e *Enricher) EnrichAll(ctx context.Context) (EnrichStats, error) {
	var stats EnrichStats

	subjects, err := e.store.SubjectsNeedingEnrichment(ctx)
	if err != nil {
		return stats, fmt.Errorf("listing subjects for enrichment: %w", err)
	}
	if len(subjects) == 0 {
		return stats, nil
	}
	e.log.Info().Int("subjects", len(subjects)).Msg("Starting geocode enrichment sweep")

	for _, subject := range subjects {
		if err := e.limiter.Wait(ctx); err != nil {
			return stats, fmt.Errorf("waiting for geocoder rate limit: %w", err)
		}
		if err := e.enrichOne(ctx, subject, &stats); err != nil {
			return stats, err
		}
	}

	e.log.Info().
		Int("resolved", stats.Resolved).
		Int("no_match", stats.NoMatch).
		Int("ambiguous", stats.Ambiguous).
		Int("failed", stats.Failed).
		Msg("Geocode enrichment sweep completed")
	return stats, nil
}

func (e *Enricher) enrichOne(ctx context.Context, subject models.Subject, stats *EnrichStats) error {
	box := NewBoundingBox(subject.Lon, subject.Lat, e.boxMeters)
	places, err := e.client.Search(ctx, subject.Name, box)
	if err != nil {
		e.log.Warn().Err(err).Str("subject_id", subject.SubjectID).Msg("Geocode lookup failed")
		metrics.GeocodeLookups.WithLabelValues("error").Inc()
		stats.Failed++
		if err := e.store.MarkEnrichmentError(ctx, subject.SubjectID); err != nil {
			return fmt.Errorf("marking enrichment error for %s: %w", subject.SubjectID, err)
		}
		return nil
	}

	place, outcome := pickPlace(places, subject.Lon, subject.Lat)
	metrics.GeocodeLookups.WithLabelValues(outcome).Inc()
	switch outcome {
	case "no_match":
		stats.NoMatch++
		return nil
	case "ambiguous":
		stats.Ambiguous++
		return nil
	}

	stats.Resolved++
	err = e.store.UpdateEnrichment(ctx, subject.SubjectID,
		orNotDefined(place.Type),
		orNotDefined(place.Address.City),
		orNotDefined(place.Address.State),
		orNotDefined(place.Address.Country))
	if err != nil {
		return fmt.Errorf("storing enrichment for %s: %w", subject.SubjectID, err)
	}
	return nil
}

// pickPlace resolves the result cardinality. A single hit wins outright.
// Multiple hits are narrowed to the candidate whose coordinates equal the
// review coordinates at 7-decimal precision; anything still ambiguous (or
// unparseable) leaves the subject untouched for a later sweep.
func pickPlace(places []Place, lon, lat float64) (Place, string) {
	switch len(places) {
	case 0:
		return Place{}, "no_match"
	case 1:
		return places[0], "match"
	}

	wantLon := round7(lon)
	wantLat := round7(lat)
	matched := places[:0:0]
	for _, p := range places {
		pLon, errLon := strconv.ParseFloat(p.Lon, 64)
		pLat, errLat := strconv.ParseFloat(p.Lat, 64)
		if errLon != nil || errLat != nil {
			continue
		}
		if round7(pLon) == wantLon && round7(pLat) == wantLat {
			matched = append(matched, p)
		}
	}
	if len(matched) == 1 {
		return matched[0], "match"
	}
	return Place{}, "ambiguous"
}

func round7(v float64) string {
	return strconv.FormatFloat(v, 'f', 7, 64)
}

func orNotDefined(v string) string {
	if v == "" {
		return models.NotDefined
	}
	return v
}
