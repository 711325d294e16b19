// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

// Package wordcloud renders one PNG per subject from its normalized
// opinion tokens. Consumers address the image by the sanitized subject id;
// a subject with no image falls back to a placeholder on their side.
package wordcloud

import (
	"fmt"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/psykhi/wordclouds"
	"github.com/rs/zerolog"

	"github.com/reviewatlas/reviewatlas/internal/config"
	"github.com/reviewatlas/reviewatlas/internal/logging"
)

const (
	imageWidth  = 1600
	imageHeight = 800
	maxFontSize = 200
)

// Renderer writes word-cloud PNGs into the configured images directory.
type Renderer struct {
	dir      string
	fontFile string
	log      zerolog.Logger
}

// NewRenderer builds a renderer from the pipeline configuration.
func NewRenderer(cfg *config.PipelineConfig) *Renderer {
	return &Renderer{
		dir:      cfg.ImagesDir,
		fontFile: cfg.FontFile,
		log:      logging.With().Str("component", "wordcloud").Logger(),
	}
}

// Enabled reports whether rendering can run. The renderer needs a TTF font
// on disk; without one the pipeline skips this stage with a warning rather
// than failing the run.
func (r *Renderer) Enabled() bool {
	if r.fontFile == "" {
		return false
	}
	_, err := os.Stat(r.fontFile)
	return err == nil
}

// Render draws the cloud for one subject and writes it atomically. Token
// frequency drives the font size.
func (r *Renderer) Render(subjectID string, tokens []string) error {
	if len(tokens) == 0 {
		return fmt.Errorf("no tokens for subject %s", subjectID)
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("creating images directory: %w", err)
	}

	counts := make(map[string]int, len(tokens))
	for _, tok := range tokens {
		counts[tok]++
	}

	cloud := wordclouds.NewWordcloud(counts,
		wordclouds.FontFile(r.fontFile),
		wordclouds.FontMaxSize(maxFontSize),
		wordclouds.Width(imageWidth),
		wordclouds.Height(imageHeight),
		wordclouds.BackgroundColor(color.White),
	)
	img := cloud.Draw()

	// Write to a temp file first so a crash mid-encode never leaves a
	// truncated PNG at the published path.
	final := filepath.Join(r.dir, SanitizeID(subjectID)+".png")
	tmp, err := os.CreateTemp(r.dir, "wordcloud-*.png.tmp")
	if err != nil {
		return fmt.Errorf("creating temp image: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding image for %s: %w", subjectID, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp image: %w", err)
	}
	if err := os.Rename(tmp.Name(), final); err != nil {
		return fmt.Errorf("publishing image for %s: %w", subjectID, err)
	}

	r.log.Debug().Str("subject_id", subjectID).Str("path", final).Msg("Rendered word cloud")
	return nil
}

// SanitizeID strips every non-alphanumeric character from a subject id,
// producing the deterministic image basename. Subject ids are URIs, so
// this collapses scheme, separators and percent-escapes into one flat
// token.
func SanitizeID(subjectID string) string {
	var b strings.Builder
	b.Grow(len(subjectID))
	for _, r := range subjectID {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
