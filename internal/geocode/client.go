// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

// Package geocode enriches subjects with place metadata from a Nominatim
// reverse-search endpoint. Lookups are constrained to a small bounding box
// around the review coordinates so a generic subject name resolves to the
// venue the reviewer actually stood in front of, not a namesake elsewhere.
package geocode

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/goccy/go-json"

	"github.com/reviewatlas/reviewatlas/internal/config"
)

// Earth circumference in meters at the equator, used to convert a
// longitude offset in meters into degrees at a given latitude.
const equatorCircumferenceMeters = 40075000.0

// latDegreesPerBox is the latitude half-extent of the default 30 m search
// box. One degree of latitude is ~111.3 km everywhere, so 30 m is 1/3710
// of a degree.
const latDegreesPerBox = 1.0 / 3710.0

// defaultBoxMeters is the box size latDegreesPerBox was derived for.
const defaultBoxMeters = 30.0

// Place is a single Nominatim search result. Coordinates arrive as strings
// and stay that way until a caller needs to compare them numerically.
type Place struct {
	Lat     string  `json:"lat"`
	Lon     string  `json:"lon"`
	Type    string  `json:"type"`
	Address Address `json:"address"`
}

// Address holds the subset of the Nominatim address breakdown the registry
// stores. Missing fields decode to the empty string.
type Address struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`
}

// BoundingBox is a viewbox around a coordinate, expressed in degrees.
type BoundingBox struct {
	LonMin float64
	LatMin float64
	LonMax float64
	LatMax float64
}

// NewBoundingBox builds a box of roughly meters x meters centered on the
// given coordinate. The longitude extent is widened by 1/cos(lat) so the
// box keeps its physical size away from the equator.
func NewBoundingBox(lon, lat, meters float64) BoundingBox {
	latHalf := latDegreesPerBox * meters / defaultBoxMeters
	metersPerLonDegree := equatorCircumferenceMeters * math.Cos(lat*math.Pi/180) / 360
	lonHalf := meters / metersPerLonDegree
	return BoundingBox{
		LonMin: lon - lonHalf,
		LatMin: lat - latHalf,
		LonMax: lon + lonHalf,
		LatMax: lat + latHalf,
	}
}

// Viewbox renders the box in the lon,lat,lon,lat order Nominatim expects.
func (b BoundingBox) Viewbox() string {
	return fmt.Sprintf("%f,%f,%f,%f", b.LonMin, b.LatMin, b.LonMax, b.LatMax)
}

// Client is a minimal Nominatim search client.
type Client struct {
	baseURL string
	client  *http.Client
}

// NewClient builds a client from the geocoder configuration.
func NewClient(cfg *config.GeocoderConfig) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// Search runs a bounded free-form query and returns every match inside the
// box. An empty result set is not an error; callers decide what a miss
// means for the subject being enriched.
func (c *Client) Search(ctx context.Context, query string, box BoundingBox) ([]Place, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "jsonv2")
	params.Set("addressdetails", "1")
	params.Set("accept-language", "en")
	params.Set("viewbox", box.Viewbox())
	params.Set("bounded", "1")

	reqURL := fmt.Sprintf("%s/search?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating geocode request: %w", err)
	}
	req.Header.Set("User-Agent", "reviewatlas/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying geocoder: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("geocoder returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var places []Place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		return nil, fmt.Errorf("decoding geocoder response: %w", err)
	}
	return places, nil
}
