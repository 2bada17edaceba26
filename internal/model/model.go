// Package model defines the black-box scoring collaborators the recommender
// consumes, plus a linear implementation calibrated from a JSON weights file.
package model

import "context"

// Features is the augmented context a single candidate is scored with: the
// validated demographic fields plus the candidate movie.
type Features struct {
	Age        int
	Gender     string
	Occupation string
	Movie      string
}

// Scorer predicts a rating for one feature vector.
type Scorer interface {
	Score(ctx context.Context, f Features) (float64, error)
}

// CandidateSource lists the movies a model can score, in model order. The
// returned slice is immutable per request as far as callers are concerned.
type CandidateSource interface {
	Movies(ctx context.Context) ([]string, error)
}

// Model is the full contract the recommendation path depends on.
type Model interface {
	Scorer
	CandidateSource
}
