// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

package similarity

import (
	"reflect"
	"testing"
)

func TestBuildCosines(t *testing.T) {
	subjects := []string{"s1", "s2", "s3"}
	docs := [][]string{
		{"coffe", "great", "coffe"},
		{"coffe", "great"},
		{"tea", "aw"},
	}
	m, err := Build(subjects, docs)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	// s1 and s2 share the full vocabulary with identical idf weights, so
	// the cosine reduces to (2+1)/(sqrt(5)*sqrt(2)) = 0.9486...
	if got := m.Scores[0][1]; got != 0.949 {
		t.Errorf("sim(s1,s2) = %v, want 0.949", got)
	}
	if got := m.Scores[0][2]; got != 0 {
		t.Errorf("sim(s1,s3) = %v, want 0 for disjoint vocabularies", got)
	}
}

func TestBuildMatrixInvariants(t *testing.T) {
	subjects := []string{"a", "b", "c", "d"}
	docs := [][]string{
		{"quiet", "garden", "quiet"},
		{"garden", "view", "view", "nice"},
		{"nois", "street", "view"},
		{}, // all tokens pruned upstream
	}
	m, err := Build(subjects, docs)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	for i := range subjects {
		if m.Scores[i][i] != 1 {
			t.Errorf("diagonal [%d][%d] = %v, want 1", i, i, m.Scores[i][i])
		}
		for j := range subjects {
			if m.Scores[i][j] != m.Scores[j][i] {
				t.Errorf("matrix asymmetric at [%d][%d]: %v vs %v", i, j, m.Scores[i][j], m.Scores[j][i])
			}
			if m.Scores[i][j] < 0 || m.Scores[i][j] > 1 {
				t.Errorf("score [%d][%d] = %v outside [0,1]", i, j, m.Scores[i][j])
			}
		}
	}
	// The empty document matches nothing but itself.
	for j := 0; j < 3; j++ {
		if m.Scores[3][j] != 0 {
			t.Errorf("empty document similarity [3][%d] = %v, want 0", j, m.Scores[3][j])
		}
	}
}

func TestBuildLengthMismatch(t *testing.T) {
	if _, err := Build([]string{"a"}, nil); err == nil {
		t.Fatal("Build() expected error for mismatched lengths")
	}
}

func TestBuildDropsSingleCharacterTokens(t *testing.T) {
	m, err := Build([]string{"x", "y"}, [][]string{{"a", "b"}, {"a", "c"}})
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if got := m.Scores[0][1]; got != 0 {
		t.Errorf("single-character tokens should not contribute, sim = %v", got)
	}
}

func testMatrix() *Matrix {
	subjects := []string{"s1", "s2", "s3", "s4", "s5"}
	scores := [][]float64{
		{1.000, 0.800, 0.600, 0.400, 0.200},
		{0.800, 1.000, 0.500, 0.300, 0.100},
		{0.600, 0.500, 1.000, 0.200, 0.050},
		{0.400, 0.300, 0.200, 1.000, 0.020},
		{0.200, 0.100, 0.050, 0.020, 1.000},
	}
	return New(subjects, scores)
}

func TestTopK(t *testing.T) {
	m := testMatrix()
	all := m.Subjects

	tests := []struct {
		name       string
		target     string
		candidates []string
		want       []Neighbor
	}{
		{
			name:       "returns three best without self",
			target:     "s1",
			candidates: all,
			want: []Neighbor{
				{SubjectID: "s2", Similarity: 0.8},
				{SubjectID: "s3", Similarity: 0.6},
				{SubjectID: "s4", Similarity: 0.4},
			},
		},
		{
			name:       "candidate filter narrows the pool",
			target:     "s1",
			candidates: []string{"s1", "s4", "s5"},
			want: []Neighbor{
				{SubjectID: "s4", Similarity: 0.4},
				{SubjectID: "s5", Similarity: 0.2},
			},
		},
		{
			name:       "target missing from matrix",
			target:     "unknown",
			candidates: append([]string{"unknown"}, all...),
			want:       []Neighbor{},
		},
		{
			name:       "target excluded by candidate filter",
			target:     "s1",
			candidates: []string{"s2", "s3"},
			want:       []Neighbor{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := m.TopK(tt.target, tt.candidates, 3)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("TopK() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTopKTiesKeepMatrixOrder(t *testing.T) {
	subjects := []string{"t", "a", "b", "c"}
	scores := [][]float64{
		{1.0, 0.5, 0.5, 0.5},
		{0.5, 1.0, 0, 0},
		{0.5, 0, 1.0, 0},
		{0.5, 0, 0, 1.0},
	}
	m := New(subjects, scores)
	got := m.TopK("t", subjects, 3)
	want := []Neighbor{
		{SubjectID: "a", Similarity: 0.5},
		{SubjectID: "b", Similarity: 0.5},
		{SubjectID: "c", Similarity: 0.5},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("TopK() tie order = %v, want matrix order %v", got, want)
	}
}
