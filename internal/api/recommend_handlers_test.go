package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reelworks/cinerec/internal/audit"
	"github.com/reelworks/cinerec/internal/model"
	"github.com/reelworks/cinerec/internal/ranking"
)

func newRecommendHandlers(m model.Model) (*RecommendHandlers, *audit.InMemoryRepository) {
	repo := audit.NewInMemoryRepository()
	return NewRecommendHandlers(m, ranking.New(nil), repo), repo
}

func staticModel() *model.Static {
	return &model.Static{
		Titles: []string{"Alien", "Heat", "Fargo"},
		ByTitle: map[string]float64{
			"Alien": 3.1,
			"Heat":  4.7,
			"Fargo": 4.2,
		},
	}
}

func recommendations(t *testing.T, rec *httptest.ResponseRecorder) []string {
	t.Helper()
	body := decodeBody(t, rec)
	raw, ok := body["recommendations"].([]any)
	if !ok {
		t.Fatalf("expected recommendations array, got %v", body)
	}
	out := make([]string, len(raw))
	for i, v := range raw {
		out[i], _ = v.(string)
	}
	return out
}

func TestRecommendRanksAllCandidates(t *testing.T) {
	h, repo := newRecommendHandlers(staticModel())

	rec := httptest.NewRecorder()
	h.Recommend(rec, newJSONRequest(t, "POST", "/api/recommend",
		`{"age": 30, "gender": "F", "occupation": "engineer"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	got := recommendations(t, rec)
	want := []string{"Heat", "Fargo", "Alien"}
	if len(got) != len(want) {
		t.Fatalf("expected %d recommendations, got %d", len(want), len(got))
	}
	for i, title := range want {
		if got[i] != title {
			t.Errorf("position %d: expected %q, got %q", i, title, got[i])
		}
	}

	corrID, _ := decodeBody(t, rec)["correlation_id"].(string)
	if len(corrID) != 36 {
		t.Errorf("expected 36-character correlation id, got %q", corrID)
	}

	// One audit record per ranking, keyed by the returned correlation id.
	all := repo.All()
	if len(all) != 1 {
		t.Fatalf("expected 1 audit record, got %d", len(all))
	}
	if all[0].CorrelationID != corrID {
		t.Errorf("audit correlation id %q does not match response %q", all[0].CorrelationID, corrID)
	}
	if all[0].Kind != audit.KindRecommendation {
		t.Errorf("unexpected audit kind %q", all[0].Kind)
	}
}

func TestRecommendBodyMaxRecs(t *testing.T) {
	h, _ := newRecommendHandlers(staticModel())

	rec := httptest.NewRecorder()
	h.Recommend(rec, newJSONRequest(t, "POST", "/api/recommend",
		`{"age": 30, "gender": "F", "occupation": "engineer", "max_recs": 1}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := recommendations(t, rec)
	if len(got) != 1 || got[0] != "Heat" {
		t.Errorf("expected top-1 [Heat], got %v", got)
	}
}

func TestRecommendPathMaxRecs(t *testing.T) {
	h, _ := newRecommendHandlers(staticModel())

	rec := httptest.NewRecorder()
	h.Recommend(rec, newJSONRequest(t, "POST", "/api/recommend/2",
		`{"age": 30, "gender": "F", "occupation": "engineer"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := recommendations(t, rec)
	if len(got) != 2 {
		t.Errorf("expected 2 recommendations, got %v", got)
	}
}

func TestRecommendPathOverridesBody(t *testing.T) {
	h, _ := newRecommendHandlers(staticModel())

	rec := httptest.NewRecorder()
	h.Recommend(rec, newJSONRequest(t, "POST", "/api/recommend/1",
		`{"age": 30, "gender": "F", "occupation": "engineer", "max_recs": 3}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := recommendations(t, rec); len(got) != 1 {
		t.Errorf("path parameter should win over body max_recs, got %v", got)
	}
}

func TestRecommendMaxRecsLargerThanCandidates(t *testing.T) {
	h, _ := newRecommendHandlers(staticModel())

	rec := httptest.NewRecorder()
	h.Recommend(rec, newJSONRequest(t, "POST", "/api/recommend/100",
		`{"age": 30, "gender": "F", "occupation": "engineer"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := recommendations(t, rec); len(got) != 3 {
		t.Errorf("expected all 3 candidates, got %v", got)
	}
}

func TestRecommendZeroMaxRecs(t *testing.T) {
	h, _ := newRecommendHandlers(staticModel())

	rec := httptest.NewRecorder()
	h.Recommend(rec, newJSONRequest(t, "POST", "/api/recommend/0",
		`{"age": 30, "gender": "F", "occupation": "engineer"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got := recommendations(t, rec); len(got) != 0 {
		t.Errorf("expected empty recommendations, got %v", got)
	}
}

func TestRecommendBadPathSegment(t *testing.T) {
	h, _ := newRecommendHandlers(staticModel())

	rec := httptest.NewRecorder()
	h.Recommend(rec, newJSONRequest(t, "POST", "/api/recommend/soon",
		`{"age": 30, "gender": "F", "occupation": "engineer"}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if msg := decodeBody(t, rec)["message"]; msg != "The parameter 'max_recs' must be an integer" {
		t.Errorf("unexpected message: %v", msg)
	}
}

func TestRecommendValidationError(t *testing.T) {
	h, repo := newRecommendHandlers(staticModel())

	rec := httptest.NewRecorder()
	h.Recommend(rec, newJSONRequest(t, "POST", "/api/recommend",
		`{"age": "a", "gender": "F", "occupation": "engineer"}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if msg := decodeBody(t, rec)["message"]; msg != "The parameter 'age' must be an integer" {
		t.Errorf("unexpected message: %v", msg)
	}
	if len(repo.All()) != 0 {
		t.Error("rejected requests must not be audited")
	}
}

func TestRecommendMissingBody(t *testing.T) {
	h, _ := newRecommendHandlers(staticModel())

	rec := httptest.NewRecorder()
	h.Recommend(rec, newJSONRequest(t, "POST", "/api/recommend", ""))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if msg := decodeBody(t, rec)["message"]; msg != "Missing JSON request" {
		t.Errorf("unexpected message: %v", msg)
	}
}

func TestRecommendSingleCandidate(t *testing.T) {
	h, _ := newRecommendHandlers(&model.Static{Titles: []string{"Heat"}, Constant: 3.5})

	rec := httptest.NewRecorder()
	h.Recommend(rec, newJSONRequest(t, "POST", "/api/recommend",
		`{"age": 1, "gender": "O", "occupation": "none"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	got := recommendations(t, rec)
	if len(got) != 1 || got[0] != "Heat" {
		t.Errorf("expected [Heat], got %v", got)
	}
}

func TestRecommendScoringFailure(t *testing.T) {
	h, repo := newRecommendHandlers(&model.Static{
		Titles: []string{"Heat"},
		Err:    errors.New("weights corrupted"),
	})

	rec := httptest.NewRecorder()
	h.Recommend(rec, newJSONRequest(t, "POST", "/api/recommend",
		`{"age": 30, "gender": "F", "occupation": "engineer"}`))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
	msg, _ := decodeBody(t, rec)["message"].(string)
	if msg != "The recommendation service is temporarily unavailable. Try again later" {
		t.Errorf("unexpected message: %q", msg)
	}
	if len(repo.All()) != 0 {
		t.Error("failed rankings must not be audited")
	}
}

func TestRecommendRejectsGet(t *testing.T) {
	h, _ := newRecommendHandlers(staticModel())

	rec := httptest.NewRecorder()
	h.Recommend(rec, httptest.NewRequest("GET", "/api/recommend", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestRecommendDistinctCorrelationIDs(t *testing.T) {
	h, _ := newRecommendHandlers(staticModel())

	seen := make(map[string]bool)
	for i := 0; i < 5; i++ {
		rec := httptest.NewRecorder()
		h.Recommend(rec, newJSONRequest(t, "POST", "/api/recommend",
			`{"age": 30, "gender": "F", "occupation": "engineer"}`))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		id, _ := decodeBody(t, rec)["correlation_id"].(string)
		if seen[id] {
			t.Fatalf("correlation id %q repeated", id)
		}
		seen[id] = true
	}
}
