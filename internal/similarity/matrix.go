// ReviewAtlas - Geotagged Review Analytics and Content Similarity
// Copyright 2026 ReviewAtlas contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/reviewatlas/reviewatlas

package similarity

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// Matrix is the symmetric subject-by-subject cosine-similarity matrix.
// Row and column order both follow Subjects.
type Matrix struct {
	Subjects []string
	Scores   [][]float64

	index map[string]int
}

// Neighbor is one row of a top-K answer.
type Neighbor struct {
	SubjectID  string  `json:"sub"`
	Similarity float64 `json:"similarity"`
}

// Build fits TF-IDF over the tokenized documents and computes all pairwise
// cosines, rounded to 3 decimals. docs[i] belongs to subjects[i]. The
// diagonal is pinned to 1 so a subject whose tokens were all pruned still
// reads as identical to itself.
func Build(subjects []string, docs [][]string) (*Matrix, error) {
	if len(subjects) != len(docs) {
		return nil, fmt.Errorf("similarity: %d subjects but %d documents", len(subjects), len(docs))
	}

	rows := vectorize(docs)
	n := len(rows)
	scores := make([][]float64, n)
	for i := range scores {
		scores[i] = make([]float64, n)
		scores[i][i] = 1
	}
	// Rows are unit vectors, so the dot product is the cosine. Computing
	// the upper triangle and mirroring keeps the matrix exactly symmetric.
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			cos := round3(floats.Dot(rows[i], rows[j]))
			scores[i][j] = cos
			scores[j][i] = cos
		}
	}

	return New(subjects, scores), nil
}

// New wraps already-computed scores, e.g. rows loaded from the database.
func New(subjects []string, scores [][]float64) *Matrix {
	index := make(map[string]int, len(subjects))
	for i, sub := range subjects {
		index[sub] = i
	}
	return &Matrix{Subjects: subjects, Scores: scores, index: index}
}

// Contains reports whether the subject has a row in the matrix.
func (m *Matrix) Contains(subjectID string) bool {
	_, ok := m.index[subjectID]
	return ok
}

// TopK returns up to k neighbors of target, considering only candidate
// subjects that have a matrix row. Ties keep matrix order. The target is
// never part of its own answer; a target without a matrix row, or outside
// the candidate set, yields an empty result.
func (m *Matrix) TopK(target string, candidates []string, k int) []Neighbor {
	candidateSet := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		candidateSet[c] = struct{}{}
	}
	if _, ok := candidateSet[target]; !ok {
		return []Neighbor{}
	}
	col, ok := m.index[target]
	if !ok {
		return []Neighbor{}
	}

	neighbors := make([]Neighbor, 0, len(candidates))
	for row, sub := range m.Subjects {
		if _, ok := candidateSet[sub]; !ok {
			continue
		}
		neighbors = append(neighbors, Neighbor{SubjectID: sub, Similarity: m.Scores[row][col]})
	}
	sort.SliceStable(neighbors, func(i, j int) bool {
		return neighbors[i].Similarity > neighbors[j].Similarity
	})

	// The candidate window is one wider than the answer because the
	// target rides along in it until this point.
	if len(neighbors) > k+1 {
		neighbors = neighbors[:k+1]
	}
	result := make([]Neighbor, 0, k)
	for _, n := range neighbors {
		if n.SubjectID == target {
			continue
		}
		result = append(result, n)
	}
	if len(result) > k {
		result = result[:k]
	}
	return result
}
