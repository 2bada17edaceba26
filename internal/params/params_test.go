package params

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
)

// decode parses a raw JSON document the way the HTTP layer does, preserving
// number fidelity.
func decode(t *testing.T, raw string) map[string]any {
	t.Helper()
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil {
		t.Fatalf("failed to decode test payload %q: %v", raw, err)
	}
	return payload
}

const occupationMessage = "The parameter 'occupation' must be one of the following: " +
	"'administrator', 'artist', 'doctor', 'educator', 'engineer', 'entertainment', " +
	"'executive', 'healthcare', 'homemaker', 'lawyer', 'librarian', 'marketing', " +
	"'none', 'other', 'programmer', 'retired', 'salesman', 'scientist', 'student', " +
	"'technician', 'writer'"

func TestDecodeJSON(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		contentType string
		wantErr     bool
	}{
		{
			name:        "valid object",
			body:        `{"age": 25}`,
			contentType: "application/json",
		},
		{
			name:        "content type with charset",
			body:        `{"age": 25}`,
			contentType: "application/json; charset=utf-8",
		},
		{
			name:    "no content type header",
			body:    `{"age": 25}`,
			wantErr: true,
		},
		{
			name:        "wrong content type",
			body:        `{"age": 25}`,
			contentType: "text/plain",
			wantErr:     true,
		},
		{
			name:        "malformed json",
			body:        `{"age":`,
			contentType: "application/json",
			wantErr:     true,
		},
		{
			name:        "empty body",
			body:        "",
			contentType: "application/json",
			wantErr:     true,
		},
		{
			name:        "json null",
			body:        `null`,
			contentType: "application/json",
			wantErr:     true,
		},
		{
			name:        "json array",
			body:        `[1, 2, 3]`,
			contentType: "application/json",
			wantErr:     true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/api/recommend", strings.NewReader(tt.body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}

			payload, vErr := DecodeJSON(req)
			if tt.wantErr {
				if vErr == nil {
					t.Fatalf("expected error, got payload %v", payload)
				}
				if vErr != ErrMissingJSON {
					t.Errorf("expected ErrMissingJSON, got %v", vErr)
				}
				return
			}
			if vErr != nil {
				t.Fatalf("unexpected error: %v", vErr)
			}
			if payload == nil {
				t.Fatal("expected non-nil payload")
			}
		})
	}
}

func TestDecodeJSONPreservesNumberFidelity(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/recommend", strings.NewReader(`{"age": 25}`))
	req.Header.Set("Content-Type", "application/json")

	payload, vErr := DecodeJSON(req)
	if vErr != nil {
		t.Fatalf("unexpected error: %v", vErr)
	}
	if _, ok := payload["age"].(json.Number); !ok {
		t.Errorf("expected age to decode as json.Number, got %T", payload["age"])
	}
}

func TestValidateLogin(t *testing.T) {
	t.Run("missing password", func(t *testing.T) {
		_, vErr := ValidateLogin(decode(t, `{}`))
		if vErr == nil {
			t.Fatal("expected error")
		}
		if vErr.Message != "Missing parameter: 'session_password'" {
			t.Errorf("unexpected message: %q", vErr.Message)
		}
		if vErr.Status != 400 {
			t.Errorf("expected status 400, got %d", vErr.Status)
		}
	})

	t.Run("string password", func(t *testing.T) {
		login, vErr := ValidateLogin(decode(t, `{"session_password": "hunter2"}`))
		if vErr != nil {
			t.Fatalf("unexpected error: %v", vErr)
		}
		if login.SessionPassword != "hunter2" {
			t.Errorf("unexpected password: %v", login.SessionPassword)
		}
	})

	t.Run("non-string password passes the schema", func(t *testing.T) {
		// Type coercion is the password check's concern; the schema only
		// requires presence.
		login, vErr := ValidateLogin(decode(t, `{"session_password": 12345}`))
		if vErr != nil {
			t.Fatalf("unexpected error: %v", vErr)
		}
		if _, ok := login.SessionPassword.(string); ok {
			t.Error("expected non-string password to survive as-is")
		}
	})
}

func TestValidateRecommend(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantMsg string
	}{
		{
			name:    "valid minimal",
			payload: `{"age": 25, "gender": "M", "occupation": "engineer"}`,
		},
		{
			name:    "valid with max_recs",
			payload: `{"age": 25, "gender": "F", "occupation": "doctor", "max_recs": 3}`,
		},
		{
			name:    "missing age",
			payload: `{"gender": "M", "occupation": "engineer"}`,
			wantMsg: "Missing parameter: 'age'",
		},
		{
			name:    "age as string",
			payload: `{"age": "25", "gender": "M", "occupation": "engineer"}`,
			wantMsg: "The parameter 'age' must be an integer",
		},
		{
			name:    "age as float",
			payload: `{"age": 25.5, "gender": "M", "occupation": "engineer"}`,
			wantMsg: "The parameter 'age' must be an integer",
		},
		{
			name:    "age as whole-number float literal",
			payload: `{"age": 25.0, "gender": "M", "occupation": "engineer"}`,
			wantMsg: "The parameter 'age' must be an integer",
		},
		{
			name:    "missing gender",
			payload: `{"age": 25, "occupation": "engineer"}`,
			wantMsg: "Missing parameter: 'gender'",
		},
		{
			name:    "invalid gender",
			payload: `{"age": 25, "gender": "X", "occupation": "engineer"}`,
			wantMsg: "The parameter 'gender' must be one of the following: 'F', 'M', 'O'",
		},
		{
			name:    "gender as number",
			payload: `{"age": 25, "gender": 1, "occupation": "engineer"}`,
			wantMsg: "The parameter 'gender' must be one of the following: 'F', 'M', 'O'",
		},
		{
			name:    "missing occupation",
			payload: `{"age": 25, "gender": "M"}`,
			wantMsg: "Missing parameter: 'occupation'",
		},
		{
			name:    "invalid occupation",
			payload: `{"age": 25, "gender": "M", "occupation": "astronaut"}`,
			wantMsg: occupationMessage,
		},
		{
			name:    "max_recs as string",
			payload: `{"age": 25, "gender": "M", "occupation": "engineer", "max_recs": "3"}`,
			wantMsg: "The parameter 'max_recs' must be an integer",
		},
		{
			name:    "max_recs as float",
			payload: `{"age": 25, "gender": "M", "occupation": "engineer", "max_recs": 3.5}`,
			wantMsg: "The parameter 'max_recs' must be an integer",
		},
		{
			name:    "unexpected key",
			payload: `{"age": 25, "gender": "M", "occupation": "engineer", "name": "alice"}`,
			wantMsg: "The only valid parameters are: 'age', 'gender', 'occupation', and 'max_recs'",
		},
		{
			name:    "age check precedes gender check",
			payload: `{"gender": "X", "occupation": "astronaut"}`,
			wantMsg: "Missing parameter: 'age'",
		},
		{
			name:    "age type check precedes gender check",
			payload: `{"age": "old", "gender": "X"}`,
			wantMsg: "The parameter 'age' must be an integer",
		},
		{
			name:    "gender check precedes occupation check",
			payload: `{"age": 25, "gender": "X"}`,
			wantMsg: "The parameter 'gender' must be one of the following: 'F', 'M', 'O'",
		},
		{
			name:    "occupation check precedes unexpected key check",
			payload: `{"age": 25, "gender": "M", "occupation": "astronaut", "name": "alice"}`,
			wantMsg: occupationMessage,
		},
		{
			name:    "max_recs check precedes unexpected key check",
			payload: `{"age": 25, "gender": "M", "occupation": "engineer", "max_recs": "3", "name": "alice"}`,
			wantMsg: "The parameter 'max_recs' must be an integer",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, vErr := ValidateRecommend(decode(t, tt.payload))
			if tt.wantMsg != "" {
				if vErr == nil {
					t.Fatalf("expected error, got %+v", fields)
				}
				if vErr.Message != tt.wantMsg {
					t.Errorf("message mismatch:\n got: %q\nwant: %q", vErr.Message, tt.wantMsg)
				}
				if vErr.Status != 400 {
					t.Errorf("expected status 400, got %d", vErr.Status)
				}
				return
			}
			if vErr != nil {
				t.Fatalf("unexpected error: %v", vErr)
			}
		})
	}
}

func TestValidateRecommendFields(t *testing.T) {
	fields, vErr := ValidateRecommend(decode(t, `{"age": 42, "gender": "O", "occupation": "none", "max_recs": 7}`))
	if vErr != nil {
		t.Fatalf("unexpected error: %v", vErr)
	}
	if fields.Age != 42 || fields.Gender != "O" || fields.Occupation != "none" {
		t.Errorf("unexpected fields: %+v", fields)
	}
	if fields.MaxRecs == nil || *fields.MaxRecs != 7 {
		t.Errorf("expected max_recs 7, got %v", fields.MaxRecs)
	}

	fields, vErr = ValidateRecommend(decode(t, `{"age": 42, "gender": "O", "occupation": "none"}`))
	if vErr != nil {
		t.Fatalf("unexpected error: %v", vErr)
	}
	if fields.MaxRecs != nil {
		t.Errorf("expected nil max_recs when omitted, got %v", *fields.MaxRecs)
	}
}

func TestValidateScore(t *testing.T) {
	const validID = "1b4db7eb-4057-5ddf-91e0-36dec72071f5"

	tests := []struct {
		name    string
		payload string
		wantMsg string
	}{
		{
			name:    "valid",
			payload: `{"id": "` + validID + `", "movie": "Heat", "score": 4.5}`,
		},
		{
			name:    "valid integer score",
			payload: `{"id": "` + validID + `", "movie": "Heat", "score": 3}`,
		},
		{
			name:    "score at lower bound",
			payload: `{"id": "` + validID + `", "movie": "Heat", "score": 1}`,
		},
		{
			name:    "score at upper bound",
			payload: `{"id": "` + validID + `", "movie": "Heat", "score": 5}`,
		},
		{
			name:    "missing id",
			payload: `{"movie": "Heat", "score": 4.5}`,
			wantMsg: "Missing parameter: 'id'",
		},
		{
			name:    "id too short",
			payload: `{"id": "abc-def-ghi-jkl-mno", "movie": "Heat", "score": 4.5}`,
			wantMsg: "The parameter 'id' must be a 36 character identifier of 5 hyphen-separated groups",
		},
		{
			name:    "id with wrong group count",
			payload: `{"id": "1b4db7eb14057-5ddf-91e0-36dec72071f5", "movie": "Heat", "score": 4.5}`,
			wantMsg: "The parameter 'id' must be a 36 character identifier of 5 hyphen-separated groups",
		},
		{
			name:    "id as number",
			payload: `{"id": 12345, "movie": "Heat", "score": 4.5}`,
			wantMsg: "The parameter 'id' must be a 36 character identifier of 5 hyphen-separated groups",
		},
		{
			name:    "missing movie",
			payload: `{"id": "` + validID + `", "score": 4.5}`,
			wantMsg: "Missing parameter: 'movie'",
		},
		{
			name:    "empty movie",
			payload: `{"id": "` + validID + `", "movie": "", "score": 4.5}`,
			wantMsg: "The parameter 'movie' must be a non-empty string",
		},
		{
			name:    "movie as number",
			payload: `{"id": "` + validID + `", "movie": 7, "score": 4.5}`,
			wantMsg: "The parameter 'movie' must be a non-empty string",
		},
		{
			name:    "missing score",
			payload: `{"id": "` + validID + `", "movie": "Heat"}`,
			wantMsg: "Missing parameter: 'score'",
		},
		{
			name:    "score as string",
			payload: `{"id": "` + validID + `", "movie": "Heat", "score": "4.5"}`,
			wantMsg: "The parameter 'score' must be a number",
		},
		{
			name:    "score below range",
			payload: `{"id": "` + validID + `", "movie": "Heat", "score": 0.5}`,
			wantMsg: "The parameter 'score' must be a number in the interval [1, 5]",
		},
		{
			name:    "score above range",
			payload: `{"id": "` + validID + `", "movie": "Heat", "score": 5.5}`,
			wantMsg: "The parameter 'score' must be a number in the interval [1, 5]",
		},
		{
			name:    "id check precedes movie check",
			payload: `{"id": "nope", "score": 99}`,
			wantMsg: "The parameter 'id' must be a 36 character identifier of 5 hyphen-separated groups",
		},
		{
			name:    "movie check precedes score check",
			payload: `{"id": "` + validID + `", "movie": "", "score": 99}`,
			wantMsg: "The parameter 'movie' must be a non-empty string",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, vErr := ValidateScore(decode(t, tt.payload))
			if tt.wantMsg != "" {
				if vErr == nil {
					t.Fatalf("expected error, got %+v", fields)
				}
				if vErr.Message != tt.wantMsg {
					t.Errorf("message mismatch:\n got: %q\nwant: %q", vErr.Message, tt.wantMsg)
				}
				return
			}
			if vErr != nil {
				t.Fatalf("unexpected error: %v", vErr)
			}
		})
	}
}
