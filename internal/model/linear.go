package model

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
)

// MovieWeight is one candidate movie and its learned bias. Movies are kept
// as an array in the calibration file so their order survives loading.
type MovieWeight struct {
	Title  string  `json:"title"`
	Weight float64 `json:"weight"`
}

// calibration is the JSON structure of the model weights file.
type calibration struct {
	Version    string             `json:"version"`
	Intercept  float64            `json:"intercept"`
	AgeWeight  float64            `json:"age_weight"`
	Gender     map[string]float64 `json:"gender"`
	Occupation map[string]float64 `json:"occupation"`
	Movies     []MovieWeight      `json:"movies"`
}

// LinearModel scores candidates with a linear combination of one-hot
// demographic features and a per-movie bias. It is the flattened form of a
// vectorize-then-regress pipeline: each enum value and each movie title
// contributes one learned weight.
type LinearModel struct {
	version    string
	intercept  float64
	ageWeight  float64
	gender     map[string]float64
	occupation map[string]float64
	movieBias  map[string]float64
	movies     []string
}

// LoadLinear reads a calibration file and builds the model. A file with no
// movies is rejected: a recommender with an empty candidate set is useless.
func LoadLinear(path string) (*LinearModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read model file: %w", err)
	}

	var cal calibration
	if err := json.Unmarshal(data, &cal); err != nil {
		return nil, fmt.Errorf("failed to parse model file %s: %w", path, err)
	}
	if len(cal.Movies) == 0 {
		return nil, fmt.Errorf("model file %s declares no movies", path)
	}

	m := &LinearModel{
		version:    cal.Version,
		intercept:  cal.Intercept,
		ageWeight:  cal.AgeWeight,
		gender:     cal.Gender,
		occupation: cal.Occupation,
		movieBias:  make(map[string]float64, len(cal.Movies)),
		movies:     make([]string, 0, len(cal.Movies)),
	}
	for _, mw := range cal.Movies {
		if _, dup := m.movieBias[mw.Title]; dup {
			return nil, fmt.Errorf("model file %s declares movie %q twice", path, mw.Title)
		}
		m.movieBias[mw.Title] = mw.Weight
		m.movies = append(m.movies, mw.Title)
	}

	slog.Info("loaded linear model",
		"path", path,
		"version", cal.Version,
		"movies", len(m.movies))
	return m, nil
}

// Movies returns the candidate movie titles in calibration-file order.
func (m *LinearModel) Movies(_ context.Context) ([]string, error) {
	out := make([]string, len(m.movies))
	copy(out, m.movies)
	return out, nil
}

// Score computes intercept + age*w_age + w_gender + w_occupation + w_movie.
// Unknown demographic values contribute zero weight; an unknown movie is an
// error because it means the caller scored outside the candidate set.
func (m *LinearModel) Score(_ context.Context, f Features) (float64, error) {
	bias, ok := m.movieBias[f.Movie]
	if !ok {
		return 0, fmt.Errorf("movie %q is not in the model's candidate set", f.Movie)
	}
	return m.intercept +
		float64(f.Age)*m.ageWeight +
		m.gender[f.Gender] +
		m.occupation[f.Occupation] +
		bias, nil
}
