package resolve

import "github.com/agext/levenshtein"

// Scorer rates how similar two lowercase names are, from 0 (nothing in
// common) to 1 (identical). The resolver only relies on the threshold
// comparison, so any normalized metric fits.
type Scorer func(a, b string) float64

// LevenshteinScorer is the default Scorer: one minus the edit distance over
// the longer rune length.
func LevenshteinScorer(a, b string) float64 {
	return levenshtein.Similarity(a, b, nil)
}
