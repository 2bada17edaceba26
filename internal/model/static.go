package model

import (
	"context"
	"fmt"
)

// Static is a fixed in-memory model used in tests and local development.
// Scores come from ByTitle when the movie is present there, otherwise from
// Constant. A non-nil Err makes every Score call fail.
type Static struct {
	Titles   []string
	Constant float64
	ByTitle  map[string]float64
	Err      error
}

// Movies returns the configured titles in order.
func (s *Static) Movies(_ context.Context) ([]string, error) {
	out := make([]string, len(s.Titles))
	copy(out, s.Titles)
	return out, nil
}

// Score returns the configured score for the movie.
func (s *Static) Score(_ context.Context, f Features) (float64, error) {
	if s.Err != nil {
		return 0, fmt.Errorf("static model: %w", s.Err)
	}
	if score, ok := s.ByTitle[f.Movie]; ok {
		return score, nil
	}
	return s.Constant, nil
}
