// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

// Package similarity builds the all-pairs cosine-similarity matrix over
// TF-IDF vectors of normalized opinions, and answers top-K neighbor
// queries against it.
package similarity

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// minTokenLength drops single-character tokens from the vocabulary. They
// survive normalization (letter runs) but carry no similarity signal.
const minTokenLength = 2

// vectorize turns pre-tokenized documents into L2-normalized TF-IDF rows
// over a shared vocabulary. Term frequency is the raw in-document count;
// inverse document frequency is smoothed: ln((1+n)/(1+df)) + 1.
func vectorize(docs [][]string) [][]float64 {
	vocab := make(map[string]int)
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{}, len(doc))
		for _, tok := range doc {
			if len(tok) < minTokenLength {
				continue
			}
			if _, ok := vocab[tok]; !ok {
				vocab[tok] = len(vocab)
			}
			seen[tok] = struct{}{}
		}
		for tok := range seen {
			df[tok]++
		}
	}

	n := float64(len(docs))
	idf := make([]float64, len(vocab))
	for tok, col := range vocab {
		idf[col] = math.Log((1+n)/(1+float64(df[tok]))) + 1
	}

	rows := make([][]float64, len(docs))
	for i, doc := range docs {
		row := make([]float64, len(vocab))
		for _, tok := range doc {
			if col, ok := vocab[tok]; ok {
				row[col] += idf[col]
			}
		}
		if norm := floats.Norm(row, 2); norm > 0 {
			floats.Scale(1/norm, row)
		}
		rows[i] = row
	}
	return rows
}

// round3 rounds half away from zero to 3 decimals, the precision the
// matrix is persisted at.
func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
