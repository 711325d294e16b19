// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

package source

import (
	"strings"
	"time"

	"github.com/reviewatlas/reviewatlas/internal/models"
)

// Wrangle cleans a raw batch into Review rows with deterministic field
// names, independent of the upstream API naming:
//
//   - entries whose coordinate scheme is not geodetic are discarded
//     entirely (they carry no usable location),
//   - the subject display name is extracted from the query string
//     embedded in the subject id,
//   - a missing opinion defaults to the empty string (never null),
//   - every row gets ReviewCount 1 to support later summation.
//
// Dropped is the number of non-geo entries removed.
func Wrangle(raw []RawReview) (reviews []models.Review, dropped int) {
	reviews = make([]models.Review, 0, len(raw))
	for _, r := range raw {
		if r.Scheme != "geo" {
			dropped++
			continue
		}

		opinion := ""
		if r.Payload.Opinion != nil {
			opinion = *r.Payload.Opinion
		}

		reviews = append(reviews, models.Review{
			SubjectID:   r.Payload.Sub,
			Name:        subjectName(r.Payload.Sub),
			Rating:      r.Payload.Rating,
			Lon:         r.Geo.Coordinates.Lon,
			Lat:         r.Geo.Coordinates.Lat,
			IAT:         r.Payload.IAT,
			Opinion:     opinion,
			ReviewCount: 1,
		})
	}
	return reviews, dropped
}

// subjectName derives the display name from the structured query string
// embedded in the subject id. Two candidate patterns, first non-empty
// wins: the text between "?q=" and "&u=", else the text after "&q=".
func subjectName(sub string) string {
	if _, after, ok := strings.Cut(sub, "?q="); ok {
		name, _, _ := strings.Cut(after, "&u=")
		if name != "" {
			return name
		}
	}
	_, after, _ := strings.Cut(sub, "&q=")
	return after
}

// BuildKPI derives the append-only ledger rows for an accepted batch,
// keeping the original timestamp and adding a human-readable UTC form.
func BuildKPI(reviews []models.Review) []models.KPIRecord {
	records := make([]models.KPIRecord, 0, len(reviews))
	for _, r := range reviews {
		records = append(records, models.KPIRecord{
			SubjectID:   r.SubjectID,
			Rating:      r.Rating,
			IATOriginal: r.IAT,
			IAT:         time.Unix(r.IAT, 0).UTC().Format("2006-01-02 15:04:05"),
		})
	}
	return records
}
