// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

// Package textproc turns raw opinion text into the token streams the
// similarity model and the word-cloud renderer consume.
package textproc

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball/english"
	"github.com/mozillazg/go-unidecode"
)

// Normalize reduces opinion text to a list of content tokens: lowercased,
// folded to ASCII, split on letter runs, stripped of stopwords and stemmed.
// Numbers and punctuation never survive because tokens are letter runs.
func Normalize(text string) []string {
	text = strings.ToLower(text)
	text = unidecode.Unidecode(text)

	var tokens []string
	for _, tok := range splitLetters(text) {
		if IsStopword(tok) {
			continue
		}
		tokens = append(tokens, english.Stem(tok, false))
	}
	return tokens
}

// splitLetters cuts the text into maximal runs of letters.
func splitLetters(text string) []string {
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

// PruneRare removes every token whose total count across all documents is
// exactly one. A word a single reviewer used a single time carries no
// similarity signal and only widens the vocabulary.
func PruneRare(docs [][]string) [][]string {
	counts := make(map[string]int)
	for _, doc := range docs {
		for _, tok := range doc {
			counts[tok]++
		}
	}

	pruned := make([][]string, len(docs))
	for i, doc := range docs {
		kept := make([]string, 0, len(doc))
		for _, tok := range doc {
			if counts[tok] > 1 {
				kept = append(kept, tok)
			}
		}
		pruned[i] = kept
	}
	return pruned
}
