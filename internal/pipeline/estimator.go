//-------------------------------------------------------------------------
//
// G-RAG Server
//
// Portions copyright (c) 2026, the G-RAG Server authors
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package pipeline

import "strings"

// DefaultTokenMultiplier converts a word count into a rough token
// count. It is a heuristic, not a tokenizer.
const DefaultTokenMultiplier = 1.3

// TokenEstimator estimates how many model tokens a piece of text
// would consume.
type TokenEstimator interface {
	Estimate(text string) int
}

// WordCountEstimator estimates tokens as words times a fixed
// multiplier.
type WordCountEstimator struct {
	Multiplier float64
}

var _ TokenEstimator = WordCountEstimator{}

// Estimate implements TokenEstimator.
func (e WordCountEstimator) Estimate(text string) int {
	m := e.Multiplier
	if m <= 0 {
		m = DefaultTokenMultiplier
	}
	return int(float64(len(strings.Fields(text))) * m)
}
