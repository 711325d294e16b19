// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

// Package source talks to the external review API and turns its raw
// payloads into cleaned review batches: scheme filtering, subject-name
// extraction, language classification and per-run aggregation.
package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/reviewatlas/reviewatlas/internal/config"
)

// ErrNoNewReviews signals that the source has nothing newer than the
// watermark. A normal terminal outcome for a run, not a failure; it is a
// distinct sentinel because the source legitimately returns a non-list
// body in this case.
var ErrNoNewReviews = errors.New("no new reviews")

// Client queries the review source. Failures propagate to the caller
// uncaught — there is no retry at this layer; a failed run resumes from
// the same watermark on the next invocation.
type Client struct {
	baseURL string
	client  *http.Client
}

// RawReview is one review payload as returned by the source.
type RawReview struct {
	Scheme  string     `json:"scheme"`
	Payload rawPayload `json:"payload"`
	Geo     rawGeo     `json:"geo"`
}

type rawPayload struct {
	Sub    string `json:"sub"`
	Rating int    `json:"rating"`
	IAT    int64  `json:"iat"`
	// Opinion is a pointer so an absent field can be defaulted to ""
	// during wrangling instead of surfacing as null downstream.
	Opinion *string `json:"opinion"`
}

type rawGeo struct {
	Coordinates struct {
		Lon float64 `json:"lon"`
		Lat float64 `json:"lat"`
	} `json:"coordinates"`
}

type reviewsResponse struct {
	Reviews []RawReview `json:"reviews"`
}

// NewClient creates a review source client.
func NewClient(cfg *config.SourceConfig) *Client {
	return &Client{
		baseURL: cfg.BaseURL,
		client:  &http.Client{Timeout: cfg.Timeout},
	}
}

// FetchSince returns every review with an original timestamp strictly
// greater than gtIAT, or ErrNoNewReviews when the source has none.
func (c *Client) FetchSince(ctx context.Context, gtIAT int64) ([]RawReview, error) {
	reqURL := fmt.Sprintf("%s/reviews?gt_iat=%d&q=geo:", c.baseURL, gtIAT)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create review request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("review request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("review request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var out reviewsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode review response: %w", err)
	}

	if len(out.Reviews) == 0 {
		return nil, ErrNoNewReviews
	}
	return out.Reviews, nil
}
