// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

package textproc

import (
	"reflect"
	"testing"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{
			name: "lowercases and stems",
			text: "Visited twice, visiting again",
			want: []string{"visit", "twice", "visit"},
		},
		{
			name: "drops stopwords and punctuation",
			text: "The food was very good!",
			want: []string{"food", "good"},
		},
		{
			name: "folds accents to ascii",
			text: "schöne café",
			want: []string{"schone", "cafe"},
		},
		{
			name: "numbers never survive",
			text: "room 42 costs 100EUR",
			want: []string{"room", "cost", "eur"},
		},
		{
			name: "contraction fragments are stopwords",
			text: "don't go",
			want: []string{"go"},
		},
		{
			name: "empty input",
			text: "   ",
			want: nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Normalize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestPruneRare(t *testing.T) {
	docs := [][]string{
		{"coffe", "great", "staff"},
		{"coffe", "terribl"},
		{"staff", "staff"},
	}
	got := PruneRare(docs)
	want := [][]string{
		{"coffe", "staff"},
		{"coffe"},
		{"staff", "staff"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PruneRare() = %v, want %v", got, want)
	}
}

func TestPruneRareCountsWithinOneDocument(t *testing.T) {
	// A token repeated inside a single document is not rare.
	docs := [][]string{{"echo", "echo"}, {"lonely"}}
	got := PruneRare(docs)
	if !reflect.DeepEqual(got[0], []string{"echo", "echo"}) {
		t.Errorf("repeated in-document token pruned: %v", got[0])
	}
	if len(got[1]) != 0 {
		t.Errorf("singleton token kept: %v", got[1])
	}
}

func TestIsStopword(t *testing.T) {
	for _, w := range []string{"the", "and", "t", "don"} {
		if !IsStopword(w) {
			t.Errorf("IsStopword(%q) = false, want true", w)
		}
	}
	if IsStopword("coffee") {
		t.Error("IsStopword(coffee) = true, want false")
	}
}
