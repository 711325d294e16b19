// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

package source

import (
	"strings"

	"github.com/reviewatlas/reviewatlas/internal/models"
)

// Aggregate rolls the accepted batch up to one row per subject seen in
// this run, grouped by (subject id, name, lon, lat): opinions are joined
// with a single space in input order, counts are summed and ratings are
// averaged arithmetically. The simple mean is correct here because every
// row in the batch is exactly one review and so carries equal weight;
// cross-run blending is the registry merge's weighted job.
func Aggregate(reviews []models.Review) []models.AggregatedReview {
	type groupKey struct {
		sub  string
		name string
		lon  float64
		lat  float64
	}

	order := make([]groupKey, 0, len(reviews))
	groups := make(map[groupKey]*aggState, len(reviews))

	for _, r := range reviews {
		key := groupKey{sub: r.SubjectID, name: r.Name, lon: r.Lon, lat: r.Lat}
		g, ok := groups[key]
		if !ok {
			g = &aggState{}
			groups[key] = g
			order = append(order, key)
		}
		if r.Opinion != "" {
			g.opinions = append(g.opinions, r.Opinion)
		}
		g.count += r.ReviewCount
		g.ratingSum += float64(r.Rating)
		g.rows++
	}

	out := make([]models.AggregatedReview, 0, len(order))
	for _, key := range order {
		g := groups[key]
		out = append(out, models.AggregatedReview{
			SubjectID:   key.sub,
			Name:        key.name,
			Lon:         key.lon,
			Lat:         key.lat,
			Opinion:     strings.Join(g.opinions, " "),
			ReviewCount: g.count,
			Rating:      g.ratingSum / float64(g.rows),
		})
	}
	return out
}

type aggState struct {
	opinions  []string
	count     int64
	ratingSum float64
	rows      int64
}

// CorpusEntries projects an aggregated batch to its (subject, opinion)
// pairs for the corpus merge.
func CorpusEntries(batch []models.AggregatedReview) []models.CorpusEntry {
	entries := make([]models.CorpusEntry, 0, len(batch))
	for _, a := range batch {
		entries = append(entries, models.CorpusEntry{SubjectID: a.SubjectID, Opinion: a.Opinion})
	}
	return entries
}
