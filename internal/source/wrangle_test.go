// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

package source

import (
	"testing"

	"github.com/reviewatlas/reviewatlas/internal/models"
)

func strPtr(s string) *string { return &s }

func TestSubjectName(t *testing.T) {
	tests := []struct {
		name string
		sub  string
		want string
	}{
		{"primary pattern", "geo:48.1,11.5?q=Cafe+Luna&u=30", "Cafe+Luna"},
		{"primary without trailing u", "geo:48.1,11.5?q=Cafe+Luna", "Cafe+Luna"},
		{"fallback pattern", "geo:48.1,11.5&q=Old+Bar", "Old+Bar"},
		{"empty primary falls back", "geo:48.1,11.5?q=&q=Back+Up", "Back+Up"},
		{"no pattern at all", "geo:48.1,11.5", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := subjectName(tt.sub); got != tt.want {
				t.Errorf("subjectName(%q) = %q, want %q", tt.sub, got, tt.want)
			}
		})
	}
}

func TestWrangleDropsNonGeo(t *testing.T) {
	raw := []RawReview{
		{Scheme: "geo", Payload: rawPayload{Sub: "geo:?q=A&u=1", Rating: 50, IAT: 10}},
		{Scheme: "https", Payload: rawPayload{Sub: "https://example.com", Rating: 90, IAT: 20}},
		{Scheme: "geo", Payload: rawPayload{Sub: "geo:?q=B&u=2", Rating: 70, IAT: 30}},
	}

	reviews, dropped := Wrangle(raw)
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
	if len(reviews) != 2 {
		t.Fatalf("got %d reviews, want 2", len(reviews))
	}
	if reviews[0].Name != "A" || reviews[1].Name != "B" {
		t.Errorf("names = %q, %q; want A, B", reviews[0].Name, reviews[1].Name)
	}
}

func TestWrangleDefaultsOpinionAndCount(t *testing.T) {
	raw := []RawReview{
		{Scheme: "geo", Payload: rawPayload{Sub: "geo:?q=A&u=1", Opinion: nil}},
		{Scheme: "geo", Payload: rawPayload{Sub: "geo:?q=B&u=1", Opinion: strPtr("tasty")}},
	}

	reviews, _ := Wrangle(raw)
	if reviews[0].Opinion != "" {
		t.Errorf("missing opinion should default to empty string, got %q", reviews[0].Opinion)
	}
	if reviews[1].Opinion != "tasty" {
		t.Errorf("opinion = %q, want tasty", reviews[1].Opinion)
	}
	for i, r := range reviews {
		if r.ReviewCount != 1 {
			t.Errorf("reviews[%d].ReviewCount = %d, want 1", i, r.ReviewCount)
		}
	}
}

func TestBuildKPI(t *testing.T) {
	reviews := []models.Review{
		{SubjectID: "S1", Rating: 80, IAT: 1580915880},
	}

	records := BuildKPI(reviews)
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}
	r := records[0]
	if r.IATOriginal != 1580915880 {
		t.Errorf("IATOriginal = %d, want original timestamp preserved", r.IATOriginal)
	}
	if r.IAT != "2020-02-05 15:18:00" {
		t.Errorf("derived timestamp = %q, want 2020-02-05 15:18:00 (UTC)", r.IAT)
	}
}

func TestAggregateGroupsBySubject(t *testing.T) {
	reviews := []models.Review{
		{SubjectID: "S1", Name: "A", Lon: 1, Lat: 2, Rating: 80, Opinion: "great", ReviewCount: 1},
		{SubjectID: "S1", Name: "A", Lon: 1, Lat: 2, Rating: 60, Opinion: "fine", ReviewCount: 1},
		{SubjectID: "S2", Name: "B", Lon: 3, Lat: 4, Rating: 100, Opinion: "", ReviewCount: 1},
	}

	agg := Aggregate(reviews)
	if len(agg) != 2 {
		t.Fatalf("got %d groups, want 2", len(agg))
	}

	s1 := agg[0]
	if s1.SubjectID != "S1" {
		t.Fatalf("first group = %q, want S1 (input order preserved)", s1.SubjectID)
	}
	if s1.Opinion != "great fine" {
		t.Errorf("joined opinion = %q, want %q", s1.Opinion, "great fine")
	}
	if s1.ReviewCount != 2 {
		t.Errorf("count = %d, want 2", s1.ReviewCount)
	}
	if s1.Rating != 70 {
		t.Errorf("batch rating = %v, want simple mean 70", s1.Rating)
	}

	s2 := agg[1]
	if s2.Opinion != "" || s2.ReviewCount != 1 || s2.Rating != 100 {
		t.Errorf("unexpected S2 rollup: %+v", s2)
	}
}

func TestCorpusEntries(t *testing.T) {
	agg := []models.AggregatedReview{
		{SubjectID: "S1", Opinion: "great fine"},
		{SubjectID: "S2", Opinion: ""},
	}
	entries := CorpusEntries(agg)
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if entries[0] != (models.CorpusEntry{SubjectID: "S1", Opinion: "great fine"}) {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}
