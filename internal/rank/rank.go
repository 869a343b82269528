// Package rank scores candidate vectors against a query vector by cosine
// similarity and produces a deterministic top-N ordering.
package rank

import (
	"math"
	"sort"
)

// Candidate is one embedded function offered for ranking.
type Candidate struct {
	File     string
	Function string
	Body     string
	Vector   []float32
}

// Match is a ranked result.
type Match struct {
	File       string  `json:"file"`
	Function   string  `json:"function"`
	Similarity float32 `json:"similarity"`
	Body       string  `json:"body,omitempty"`
}

// Cosine returns the cosine similarity of a and b. It returns 0 when either
// vector is empty, has zero norm, or the dimensionalities differ. A length
// mismatch means the vectors come from different models and any score over
// the overlap would look plausible while meaning nothing.
func Cosine(a, b []float32) float32 {
	if len(a) == 0 || len(b) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

// Rank scores every candidate against query, sorts by descending similarity,
// and truncates to topN. Equal similarities keep candidate order, so results
// are deterministic across runs on identical input. topN larger than the
// candidate count returns every candidate.
func Rank(query []float32, candidates []Candidate, topN int) []Match {
	matches := make([]Match, len(candidates))
	for i, c := range candidates {
		matches[i] = Match{
			File:       c.File,
			Function:   c.Function,
			Similarity: Cosine(query, c.Vector),
			Body:       c.Body,
		}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Similarity > matches[j].Similarity
	})

	if topN >= 0 && topN < len(matches) {
		matches = matches[:topN]
	}
	return matches
}
