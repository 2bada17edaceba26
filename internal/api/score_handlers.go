package api

import (
	"log/slog"
	"net/http"

	"github.com/reelworks/cinerec/internal/audit"
	"github.com/reelworks/cinerec/internal/params"
)

// ScoreHandlers accepts user feedback on a previous recommendation and
// appends it to the audit trail. The submitted id is only checked for
// shape, not against previously issued correlation ids, and duplicate
// submissions append duplicate records.
type ScoreHandlers struct {
	audit audit.Repository
}

// NewScoreHandlers creates a new ScoreHandlers instance.
func NewScoreHandlers(auditRepo audit.Repository) *ScoreHandlers {
	return &ScoreHandlers{audit: auditRepo}
}

// Score handles POST /api/score.
func (h *ScoreHandlers) Score(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r)
		return
	}

	payload, vErr := params.DecodeJSON(r)
	if vErr != nil {
		WriteValidationError(w, r, vErr)
		return
	}
	fields, vErr := params.ValidateScore(payload)
	if vErr != nil {
		WriteValidationError(w, r, vErr)
		return
	}

	if err := audit.RecordFeedback(r.Context(), h.audit, fields.ID, fields.Movie, fields.Score); err != nil {
		slog.ErrorContext(r.Context(), "failed to audit feedback",
			"error", err,
			"correlation_id", fields.ID)
		WriteMessage(w, r.Context(), http.StatusInternalServerError, ErrCodeInternal,
			"The score could not be recorded. Try again later")
		return
	}

	WriteJSON(w, r.Context(), http.StatusOK, map[string]string{"message": "Score recorded"})
}
