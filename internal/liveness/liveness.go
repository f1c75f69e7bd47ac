// Package liveness supplies the per-submission liveness score.
//
// The score itself comes from an external classifier service; this package
// only carries it into the pipeline as an opaque float in [0, 1]. When no
// classifier endpoint is configured, a deterministic byte-statistics stand-in
// keeps the service runnable end to end, mirroring how the original system
// ships a demo model when no trained one is present.
package liveness

import (
	"context"
	"math"
)

// Scorer estimates the probability that a raw sample comes from a live
// source rather than a spoof. Implementations must be safe for concurrent
// use and must return scores in [0, 1].
type Scorer interface {
	Score(ctx context.Context, sample []byte) (float64, error)
}

// StaticScorer always returns the same score. Test fixture.
type StaticScorer struct {
	Value float64
}

func (s StaticScorer) Score(ctx context.Context, sample []byte) (float64, error) {
	return s.Value, nil
}

// HeuristicScorer is the no-classifier fallback. It maps the byte-value
// entropy of the sample into a score: real capture output (compressed image
// data) sits near maximum entropy, while flat synthetic inputs score low.
// This is a stand-in, not a spoof detector — deployments point LIVENESS_URL
// at the real classifier.
type HeuristicScorer struct{}

func (HeuristicScorer) Score(ctx context.Context, sample []byte) (float64, error) {
	if len(sample) == 0 {
		return 0.0, nil
	}

	var counts [256]int
	for _, b := range sample {
		counts[b]++
	}

	entropy := 0.0
	n := float64(len(sample))
	for _, c := range counts {
		if c == 0 {
			continue
		}
		p := float64(c) / n
		entropy -= p * math.Log2(p)
	}

	// Normalize against the 8-bit maximum and keep away from the hard
	// extremes so the stand-in never single-handedly forces a HIGH verdict.
	score := 0.2 + 0.7*(entropy/8.0)
	if score > 0.9 {
		score = 0.9
	}
	return score, nil
}
