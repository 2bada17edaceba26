// Package audit provides the append-only audit trail for ranking calls and
// submitted feedback. Records carry a SHA-256 hash chain for tamper evidence.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Record kinds.
const (
	KindRecommendation = "recommendation"
	KindFeedback       = "feedback"
)

// Record is a single audit event. Records are write-only: once appended they
// are never mutated, and duplicates are kept as-is (no deduplication).
type Record struct {
	ID            string
	Kind          string
	CorrelationID string
	RequestID     string

	// Recommendation fields: the request inputs plus the chosen candidates
	// and their scores, aligned by index.
	Age        int
	Gender     string
	Occupation string
	Movies     []string
	Scores     []float64

	// Feedback fields.
	Movie string
	Score float64

	CreatedAt time.Time

	// Hash chain. PreviousHash is the EntryHash of the preceding record
	// (empty for the first); EntryHash covers this record's content and
	// PreviousHash, so rewriting any record breaks every later hash.
	PreviousHash string
	EntryHash    string
}

// chainHash computes the entry hash over the record's content and the hash
// of the preceding entry.
func chainHash(r *Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|%s|%s|%s|%d|%s|%s|", r.ID, r.Kind, r.CorrelationID, r.RequestID, r.Age, r.Gender, r.Occupation)
	for i, m := range r.Movies {
		fmt.Fprintf(&b, "%s=%g;", m, r.Scores[i])
	}
	fmt.Fprintf(&b, "|%s|%g|%d|%s", r.Movie, r.Score, r.CreatedAt.UnixNano(), r.PreviousHash)
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
