package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/reelworks/cinerec/internal/audit"
	"github.com/reelworks/cinerec/internal/model"
	"github.com/reelworks/cinerec/internal/params"
	"github.com/reelworks/cinerec/internal/ranking"
)

// RecommendHandlers maps validated recommend requests onto the ranking
// pipeline: enumerate the model's candidates, score each one, return the
// top-K, and append an audit record keyed by a fresh correlation id.
type RecommendHandlers struct {
	model  model.Model
	ranker *ranking.Ranker
	audit  audit.Repository
}

// NewRecommendHandlers creates a new RecommendHandlers instance.
func NewRecommendHandlers(m model.Model, ranker *ranking.Ranker, auditRepo audit.Repository) *RecommendHandlers {
	return &RecommendHandlers{
		model:  m,
		ranker: ranker,
		audit:  auditRepo,
	}
}

// recommendResponse is the success body for POST /api/recommend.
type recommendResponse struct {
	Recommendations []string `json:"recommendations"`
	CorrelationID   string   `json:"correlation_id"`
}

// maxRecsFromPath parses the optional path parameter of
// /api/recommend/{max_recs}. Returns ok=false on a malformed segment.
func maxRecsFromPath(path string) (value int, present, ok bool) {
	rest := strings.TrimPrefix(path, "/api/recommend")
	rest = strings.TrimPrefix(rest, "/")
	if rest == "" {
		return 0, false, true
	}
	if strings.Contains(rest, "/") {
		return 0, true, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, true, false
	}
	return n, true, true
}

// Recommend handles POST /api/recommend and POST /api/recommend/{max_recs}.
// The requested count resolves as: path parameter, else body max_recs, else
// the default of 10. A count larger than the candidate set is clamped; zero
// or negative yields an empty list.
func (h *RecommendHandlers) Recommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}

	pathMax, pathPresent, pathOK := maxRecsFromPath(r.URL.Path)
	if !pathOK {
		WriteMessage(w, r.Context(), http.StatusBadRequest, ErrCodeValidation, "The parameter 'max_recs' must be an integer")
		return
	}

	payload, vErr := params.DecodeJSON(r)
	if vErr != nil {
		WriteValidationError(w, r, vErr)
		return
	}
	fields, vErr := params.ValidateRecommend(payload)
	if vErr != nil {
		WriteValidationError(w, r, vErr)
		return
	}

	maxRecs := params.DefaultMaxRecs
	switch {
	case pathPresent:
		maxRecs = pathMax
	case fields.MaxRecs != nil:
		maxRecs = *fields.MaxRecs
	}

	candidates, err := h.model.Movies(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to list candidates", "error", err)
		WriteMessage(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal,
			"The recommendation service is temporarily unavailable. Try again later")
		return
	}

	profile := ranking.Profile{
		Age:        fields.Age,
		Gender:     fields.Gender,
		Occupation: fields.Occupation,
	}
	result, err := h.ranker.Rank(r.Context(), profile, candidates, h.model.Score, maxRecs)
	if err != nil {
		// Full detail stays in the log; the caller only sees a generic
		// failure.
		slog.ErrorContext(r.Context(), "ranking failed",
			"error", err,
			"candidates", len(candidates))
		WriteMessage(w, r.Context(), http.StatusInternalServerError, ErrCodeRankingFailed,
			"The recommendation service is temporarily unavailable. Try again later")
		return
	}

	if err := audit.RecordRecommendation(r.Context(), h.audit,
		fields.Age, fields.Gender, fields.Occupation,
		result.Movies, result.Scores, result.CorrelationID); err != nil {
		slog.ErrorContext(r.Context(), "failed to audit recommendation",
			"error", err,
			"correlation_id", result.CorrelationID)
		WriteMessage(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal,
			"The recommendation service is temporarily unavailable. Try again later")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, recommendResponse{
		Recommendations: result.Movies,
		CorrelationID:   result.CorrelationID,
	})
}
