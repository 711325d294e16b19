// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

package wordcloud

import (
	"testing"

	"github.com/reviewatlas/reviewatlas/internal/config"
)

func TestSanitizeID(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "geo uri with query",
			in:   "geo:48.13743,11.57549?q=Cafe+Glockenspiel&u=30",
			want: "geo48137431157549qCafeGlockenspielu30",
		},
		{
			name: "plain id unchanged",
			in:   "Subject123",
			want: "Subject123",
		},
		{
			name: "only separators",
			in:   "?&=:/.",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeID(tt.in); got != tt.want {
				t.Errorf("SanitizeID(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestRendererEnabled(t *testing.T) {
	noFont := NewRenderer(&config.PipelineConfig{ImagesDir: t.TempDir()})
	if noFont.Enabled() {
		t.Error("renderer without a font file should be disabled")
	}

	missing := NewRenderer(&config.PipelineConfig{ImagesDir: t.TempDir(), FontFile: "/nonexistent/font.ttf"})
	if missing.Enabled() {
		t.Error("renderer with a missing font file should be disabled")
	}
}

func TestRenderRejectsEmptyTokenList(t *testing.T) {
	r := NewRenderer(&config.PipelineConfig{ImagesDir: t.TempDir(), FontFile: "unused.ttf"})
	if err := r.Render("geo:1,2?q=X", nil); err == nil {
		t.Fatal("Render() expected error for empty token list")
	}
}
