// Package ranking scores a finite candidate set against a request profile
// and returns the top-K movies in deterministic order.
package ranking

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/reelworks/cinerec/internal/model"
)

// ErrRanking wraps any scoring failure. A single failed candidate aborts the
// whole ranking; there is no partial-result degrade. Callers must surface a
// generic failure and keep the wrapped detail for their own logs.
var ErrRanking = errors.New("ranking failed")

// ScoreFunc produces a predicted rating for one candidate in the given
// profile. It may block on I/O; callers wrap Rank in their request timeout.
type ScoreFunc func(ctx context.Context, f model.Features) (float64, error)

// Profile is the validated recommend context candidates are scored in.
type Profile struct {
	Age        int
	Gender     string
	Occupation string
}

// Result is one ranking outcome. Movies and Scores are aligned: Scores[i]
// is the predicted rating of Movies[i]. The correlation id is freshly
// minted per call so later feedback can reference this exact ranking.
type Result struct {
	Movies        []string
	Scores        []float64
	CorrelationID string
}

// Ranker runs the enumerate-score-sort-truncate algorithm. It holds no
// mutable state besides optional metrics, so one Ranker serves arbitrarily
// many concurrent requests.
type Ranker struct {
	metrics *Metrics
}

// New creates a Ranker. metrics may be nil.
func New(metrics *Metrics) *Ranker {
	return &Ranker{metrics: metrics}
}

// Rank scores every candidate once (O(n) ScoreFunc calls), sorts by
// descending score with ties broken by original candidate order, and
// truncates to the first k. k greater than the candidate count is clamped;
// k <= 0 yields an empty result, not an error.
func (r *Ranker) Rank(ctx context.Context, profile Profile, candidates []string, scoreFn ScoreFunc, k int) (*Result, error) {
	start := time.Now()

	scores := make([]float64, len(candidates))
	for i, movie := range candidates {
		score, err := scoreFn(ctx, model.Features{
			Age:        profile.Age,
			Gender:     profile.Gender,
			Occupation: profile.Occupation,
			Movie:      movie,
		})
		if err != nil {
			r.metrics.observeFailure()
			return nil, fmt.Errorf("%w: scoring candidate %d of %d: %v", ErrRanking, i+1, len(candidates), err)
		}
		scores[i] = score
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	// Stable sort on the index slice: equal scores keep their original
	// candidate order, so identical inputs always yield identical output.
	sort.SliceStable(order, func(a, b int) bool {
		return scores[order[a]] > scores[order[b]]
	})

	if k > len(order) {
		k = len(order)
	}
	if k < 0 {
		k = 0
	}

	result := &Result{
		Movies:        make([]string, k),
		Scores:        make([]float64, k),
		CorrelationID: uuid.New().String(),
	}
	for i := 0; i < k; i++ {
		result.Movies[i] = candidates[order[i]]
		result.Scores[i] = scores[order[i]]
	}

	r.metrics.observeRank(len(candidates), time.Since(start))
	return result, nil
}
