// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

package geocode

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/reviewatlas/reviewatlas/internal/config"
	"github.com/reviewatlas/reviewatlas/internal/models"
)

func testGeocoderConfig(baseURL string) *config.GeocoderConfig {
	return &config.GeocoderConfig{
		BaseURL:         baseURL,
		Timeout:         5 * time.Second,
		RequestInterval: time.Millisecond,
		BoxMeters:       30,
	}
}

func TestNewBoundingBox(t *testing.T) {
	// At the equator a 30 m box spans the same number of degrees in
	// both axes apart from the small circumference difference.
	box := NewBoundingBox(0, 0, 30)
	latSpan := box.LatMax - box.LatMin
	lonSpan := box.LonMax - box.LonMin
	if math.Abs(latSpan-2.0/3710.0) > 1e-9 {
		t.Errorf("latitude span = %v, want %v", latSpan, 2.0/3710.0)
	}
	if math.Abs(lonSpan-latSpan) > 1e-5 {
		t.Errorf("equator lon span %v should be close to lat span %v", lonSpan, latSpan)
	}

	// At 60 degrees north a longitude degree covers half the distance,
	// so the box must be twice as wide in degrees.
	north := NewBoundingBox(10, 60, 30)
	northLonSpan := north.LonMax - north.LonMin
	if math.Abs(northLonSpan/lonSpan-2.0) > 0.01 {
		t.Errorf("lon span ratio at 60N = %v, want ~2", northLonSpan/lonSpan)
	}
}

func TestClientSearch(t *testing.T) {
	var gotQuery url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"48.1374300","lon":"11.5754900","type":"cafe","address":{"city":"Munich","state":"Bavaria","country":"Germany"}}]`))
	}))
	defer server.Close()

	client := NewClient(testGeocoderConfig(server.URL))
	places, err := client.Search(context.Background(), "Cafe Glockenspiel", NewBoundingBox(11.57549, 48.13743, 30))
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(places) != 1 {
		t.Fatalf("Search() returned %d places, want 1", len(places))
	}
	if places[0].Type != "cafe" || places[0].Address.City != "Munich" {
		t.Errorf("unexpected place: %+v", places[0])
	}
	if got := gotQuery.Get("bounded"); got != "1" {
		t.Errorf("bounded = %q, want 1", got)
	}
	if got := gotQuery.Get("q"); got != "Cafe Glockenspiel" {
		t.Errorf("q = %q, want subject name", got)
	}
	if gotQuery.Get("viewbox") == "" {
		t.Error("viewbox parameter missing")
	}
}

func TestClientSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bandwidth limit exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(testGeocoderConfig(server.URL))
	if _, err := client.Search(context.Background(), "anywhere", BoundingBox{}); err == nil {
		t.Fatal("Search() expected error on 429 response")
	}
}

func TestPickPlace(t *testing.T) {
	exact := Place{Lat: "48.1374300", Lon: "11.5754900", Type: "cafe"}
	nearby := Place{Lat: "48.1374310", Lon: "11.5754890", Type: "bar"}

	tests := []struct {
		name        string
		places      []Place
		wantOutcome string
		wantType    string
	}{
		{"no results", nil, "no_match", ""},
		{"single result wins", []Place{nearby}, "match", "bar"},
		{"exact coordinate disambiguates", []Place{exact, nearby}, "match", "cafe"},
		{"all off coordinate", []Place{nearby, {Lat: "48.2", Lon: "11.6"}}, "ambiguous", ""},
		{"duplicate exact stays ambiguous", []Place{exact, exact}, "ambiguous", ""},
		{"unparseable coordinates skipped", []Place{{Lat: "north", Lon: "west"}, exact}, "match", "cafe"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			place, outcome := pickPlace(tt.places, 11.57549, 48.13743)
			if outcome != tt.wantOutcome {
				t.Fatalf("outcome = %q, want %q", outcome, tt.wantOutcome)
			}
			if outcome == "match" && place.Type != tt.wantType {
				t.Errorf("place type = %q, want %q", place.Type, tt.wantType)
			}
		})
	}
}

// fakeStore records enrichment writes without a real database.
type fakeStore struct {
	pending []models.Subject
	updated map[string][4]string
	errored []string
}

func (f *fakeStore) SubjectsNeedingEnrichment(ctx context.Context) ([]models.Subject, error) {
	return f.pending, nil
}

func (f *fakeStore) UpdateEnrichment(ctx context.Context, subjectID, category, city, state, country string) error {
	if f.updated == nil {
		f.updated = make(map[string][4]string)
	}
	f.updated[subjectID] = [4]string{category, city, state, country}
	return nil
}

func (f *fakeStore) MarkEnrichmentError(ctx context.Context, subjectID string) error {
	f.errored = append(f.errored, subjectID)
	return nil
}

func TestEnrichAll(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("q") {
		case "Resolved Venue":
			w.Write([]byte(`[{"lat":"48.1","lon":"11.5","type":"restaurant","address":{"city":"Munich","state":"Bavaria","country":"Germany"}}]`))
		case "Unknown Venue":
			w.Write([]byte(`[]`))
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	store := &fakeStore{pending: []models.Subject{
		{SubjectID: "geo:48.1,11.5?q=Resolved+Venue", Name: "Resolved Venue", Lat: 48.1, Lon: 11.5},
		{SubjectID: "geo:50.0,8.0?q=Unknown+Venue", Name: "Unknown Venue", Lat: 50, Lon: 8},
		{SubjectID: "geo:51.0,9.0?q=Broken+Venue", Name: "Broken Venue", Lat: 51, Lon: 9},
	}}
	cfg := testGeocoderConfig(server.URL)
	enricher := NewEnricher(store, NewClient(cfg), cfg)

	stats, err := enricher.EnrichAll(context.Background())
	if err != nil {
		t.Fatalf("EnrichAll() error = %v", err)
	}
	if stats.Resolved != 1 || stats.NoMatch != 1 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 1 resolved, 1 no_match, 1 failed", stats)
	}

	got, ok := store.updated["geo:48.1,11.5?q=Resolved+Venue"]
	if !ok {
		t.Fatal("resolved subject was not written to the registry")
	}
	want := [4]string{"restaurant", "Munich", "Bavaria", "Germany"}
	if got != want {
		t.Errorf("enrichment = %v, want %v", got, want)
	}
	if len(store.errored) != 1 || store.errored[0] != "geo:51.0,9.0?q=Broken+Venue" {
		t.Errorf("errored = %v, want only the broken venue", store.errored)
	}
	if _, ok := store.updated["geo:50.0,8.0?q=Unknown+Venue"]; ok {
		t.Error("no-match subject should remain untouched for a later sweep")
	}
}

func TestEnrichAllEmptyAddressFields(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"lat":"48.1","lon":"11.5","type":"peak","address":{"country":"Germany"}}]`))
	}))
	defer server.Close()

	store := &fakeStore{pending: []models.Subject{
		{SubjectID: "geo:48.1,11.5?q=Summit", Name: "Summit", Lat: 48.1, Lon: 11.5},
	}}
	cfg := testGeocoderConfig(server.URL)
	enricher := NewEnricher(store, NewClient(cfg), cfg)

	if _, err := enricher.EnrichAll(context.Background()); err != nil {
		t.Fatalf("EnrichAll() error = %v", err)
	}
	got := store.updated["geo:48.1,11.5?q=Summit"]
	want := [4]string{"peak", models.NotDefined, models.NotDefined, "Germany"}
	if got != want {
		t.Errorf("enrichment = %v, want missing fields kept as %s", got, models.NotDefined)
	}
}
