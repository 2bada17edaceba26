// Package params validates decoded request payloads against the fixed
// per-endpoint schemas and converts them into typed records. Validation is
// pure: nothing past this boundary touches untyped maps.
package params

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"sort"
	"strings"
)

// Error represents a single request validation failure. Every violation is
// distinguishable by its message, which always names the offending parameter.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

// ErrMissingJSON is reported when the request body is absent, not declared
// as JSON, or not a well-formed JSON object. It fires before any field check.
var ErrMissingJSON = &Error{Status: http.StatusBadRequest, Message: "Missing JSON request"}

func invalid(format string, args ...any) *Error {
	return &Error{Status: http.StatusBadRequest, Message: fmt.Sprintf(format, args...)}
}

func missing(name string) *Error {
	return invalid("Missing parameter: '%s'", name)
}

// ValidGenders is the closed gender enumeration.
var ValidGenders = map[string]bool{"M": true, "F": true, "O": true}

// ValidOccupations is the closed 21-value occupation enumeration.
var ValidOccupations = map[string]bool{
	"administrator": true, "artist": true, "doctor": true, "educator": true,
	"engineer": true, "entertainment": true, "executive": true, "healthcare": true,
	"homemaker": true, "lawyer": true, "librarian": true, "marketing": true,
	"none": true, "other": true, "programmer": true, "retired": true,
	"salesman": true, "scientist": true, "student": true, "technician": true,
	"writer": true,
}

// DefaultMaxRecs is the recommendation count used when max_recs is absent.
const DefaultMaxRecs = 10

// LoginParams is a validated login payload. The password is kept as-is;
// type coercion is the password check's concern, not the schema's.
type LoginParams struct {
	SessionPassword any
}

// RecommendParams is a validated recommend payload.
type RecommendParams struct {
	Age        int
	Gender     string
	Occupation string
	// MaxRecs is nil when the payload omitted it.
	MaxRecs *int
}

// ScoreParams is a validated score-submission payload.
type ScoreParams struct {
	ID    string
	Movie string
	Score float64
}

// DecodeJSON reads the request body into a generic object, preserving number
// fidelity via json.Number so integer/float distinctions survive decoding.
// Any malformed or non-object body yields ErrMissingJSON.
func DecodeJSON(r *http.Request) (map[string]any, *Error) {
	if r.Body == nil {
		return nil, ErrMissingJSON
	}
	// The body must be declared as JSON; a missing Content-Type counts as
	// not-JSON.
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mt != "application/json" {
		return nil, ErrMissingJSON
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var payload map[string]any
	if err := dec.Decode(&payload); err != nil || payload == nil {
		return nil, ErrMissingJSON
	}
	return payload, nil
}

// asInt converts a decoded JSON value to an int only when the wire value was
// an integer literal. Strings and floats (including "1.0") are rejected.
func asInt(v any) (int, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	i, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return int(i), true
}

// asFloat converts a decoded JSON value to a float64 for any numeric literal.
func asFloat(v any) (float64, bool) {
	n, ok := v.(json.Number)
	if !ok {
		return 0, false
	}
	f, err := n.Float64()
	if err != nil {
		return 0, false
	}
	return f, true
}

// sortedQuoted renders an enumeration as "'a', 'b', 'c'" in alphabetical order.
func sortedQuoted(set map[string]bool) string {
	values := make([]string, 0, len(set))
	for v := range set {
		values = append(values, v)
	}
	sort.Strings(values)
	for i, v := range values {
		values[i] = "'" + v + "'"
	}
	return strings.Join(values, ", ")
}

// ValidateLogin validates a login payload.
func ValidateLogin(payload map[string]any) (*LoginParams, *Error) {
	password, ok := payload["session_password"]
	if !ok {
		return nil, missing("session_password")
	}
	return &LoginParams{SessionPassword: password}, nil
}

// ValidateRecommend validates a recommend payload. Checks run in a fixed
// order and short-circuit on the first failure: age presence, age type,
// gender presence, gender value, occupation presence, occupation value,
// max_recs type, unexpected keys.
func ValidateRecommend(payload map[string]any) (*RecommendParams, *Error) {
	rawAge, ok := payload["age"]
	if !ok {
		return nil, missing("age")
	}
	age, ok := asInt(rawAge)
	if !ok {
		return nil, invalid("The parameter 'age' must be an integer")
	}

	rawGender, ok := payload["gender"]
	if !ok {
		return nil, missing("gender")
	}
	gender, isString := rawGender.(string)
	if !isString || !ValidGenders[gender] {
		return nil, invalid("The parameter 'gender' must be one of the following: %s", sortedQuoted(ValidGenders))
	}

	rawOccupation, ok := payload["occupation"]
	if !ok {
		return nil, missing("occupation")
	}
	occupation, isString := rawOccupation.(string)
	if !isString || !ValidOccupations[occupation] {
		return nil, invalid("The parameter 'occupation' must be one of the following: %s", sortedQuoted(ValidOccupations))
	}

	var maxRecs *int
	if rawMax, present := payload["max_recs"]; present {
		m, ok := asInt(rawMax)
		if !ok {
			return nil, invalid("The parameter 'max_recs' must be an integer")
		}
		maxRecs = &m
	}

	for key := range payload {
		switch key {
		case "age", "gender", "occupation", "max_recs":
		default:
			return nil, invalid("The only valid parameters are: 'age', 'gender', 'occupation', and 'max_recs'")
		}
	}

	return &RecommendParams{Age: age, Gender: gender, Occupation: occupation, MaxRecs: maxRecs}, nil
}

// ValidateScore validates a score-submission payload. Fixed short-circuit
// order: id presence, id shape, movie presence, score presence, score type,
// score range.
func ValidateScore(payload map[string]any) (*ScoreParams, *Error) {
	rawID, ok := payload["id"]
	if !ok {
		return nil, missing("id")
	}
	id, isString := rawID.(string)
	if !isString || len(id) != 36 || len(strings.Split(id, "-")) != 5 {
		return nil, invalid("The parameter 'id' must be a 36 character identifier of 5 hyphen-separated groups")
	}

	rawMovie, ok := payload["movie"]
	if !ok {
		return nil, missing("movie")
	}
	movie, isString := rawMovie.(string)
	if !isString || movie == "" {
		return nil, invalid("The parameter 'movie' must be a non-empty string")
	}

	rawScore, ok := payload["score"]
	if !ok {
		return nil, missing("score")
	}
	score, isNumber := asFloat(rawScore)
	if !isNumber {
		return nil, invalid("The parameter 'score' must be a number")
	}
	if score < 1 || score > 5 {
		return nil, invalid("The parameter 'score' must be a number in the interval [1, 5]")
	}

	return &ScoreParams{ID: id, Movie: movie, Score: score}, nil
}
