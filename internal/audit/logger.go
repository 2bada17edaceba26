package audit

import (
	"context"
	"errors"
	"log/slog"

	"github.com/reelworks/cinerec/internal/middleware"
)

// ErrNilRepository is returned when a nil repository is passed to the
// recording helpers.
var ErrNilRepository = errors.New("audit repository cannot be nil")

// RecordRecommendation appends one audit record for a completed ranking
// call: the request inputs, the chosen candidates and their scores, keyed by
// the ranking's correlation id. The request id is taken from the context.
//
// Fail-closed: if the append fails the error is returned so the caller can
// decide whether to degrade; nothing is swallowed.
func RecordRecommendation(ctx context.Context, repo Repository, age int, gender, occupation string, movies []string, scores []float64, correlationID string) error {
	if repo == nil {
		return ErrNilRepository
	}

	stored, err := repo.Append(Record{
		Kind:          KindRecommendation,
		CorrelationID: correlationID,
		RequestID:     middleware.GetRequestID(ctx),
		Age:           age,
		Gender:        gender,
		Occupation:    occupation,
		Movies:        movies,
		Scores:        scores,
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "recommendation audited",
		"audit_id", stored.ID,
		"correlation_id", correlationID,
		"candidates", len(movies))
	return nil
}

// RecordFeedback appends one audit record for a submitted score event. The
// correlation id is recorded as submitted; it is not matched against a
// previously issued ranking id. Duplicate submissions produce duplicate
// records.
func RecordFeedback(ctx context.Context, repo Repository, correlationID, movie string, score float64) error {
	if repo == nil {
		return ErrNilRepository
	}

	stored, err := repo.Append(Record{
		Kind:          KindFeedback,
		CorrelationID: correlationID,
		RequestID:     middleware.GetRequestID(ctx),
		Movie:         movie,
		Score:         score,
	})
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "feedback audited",
		"audit_id", stored.ID,
		"correlation_id", correlationID,
		"movie", movie)
	return nil
}
