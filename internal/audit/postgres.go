package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// Schema is the DDL for the audit trail table. Movie/score pairs are stored
// as JSON text; the trail is append-only so no indexes beyond the primary
// key are needed.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_records (
    id             UUID PRIMARY KEY,
    kind           TEXT NOT NULL,
    correlation_id TEXT NOT NULL,
    request_id     TEXT NOT NULL DEFAULT '',
    age            INTEGER NOT NULL DEFAULT 0,
    gender         TEXT NOT NULL DEFAULT '',
    occupation     TEXT NOT NULL DEFAULT '',
    movies         TEXT NOT NULL DEFAULT '[]',
    scores         TEXT NOT NULL DEFAULT '[]',
    movie          TEXT NOT NULL DEFAULT '',
    score          DOUBLE PRECISION NOT NULL DEFAULT 0,
    created_at     TIMESTAMPTZ NOT NULL,
    previous_hash  TEXT NOT NULL DEFAULT '',
    entry_hash     TEXT NOT NULL
)`

// PostgresRepository persists audit records to PostgreSQL. The hash chain is
// computed in-process under a mutex so concurrent appends still form a
// single linear chain.
type PostgresRepository struct {
	db *sql.DB

	mu       sync.Mutex
	lastHash string
}

// NewPostgresRepository creates a repository on an open database handle and
// ensures the audit table exists.
func NewPostgresRepository(db *sql.DB) (*PostgresRepository, error) {
	if _, err := db.Exec(Schema); err != nil {
		return nil, fmt.Errorf("failed to create audit table: %w", err)
	}

	repo := &PostgresRepository{db: db}
	// Resume the chain from the newest stored record.
	err := db.QueryRow(`SELECT entry_hash FROM audit_records ORDER BY created_at DESC, id DESC LIMIT 1`).
		Scan(&repo.lastHash)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read audit chain head: %w", err)
	}
	return repo, nil
}

// Append stores the record.
func (r *PostgresRepository) Append(record Record) (*Record, error) {
	record.ID = uuid.New().String()
	record.CreatedAt = time.Now().UTC()

	movies, err := json.Marshal(record.Movies)
	if err != nil {
		return nil, fmt.Errorf("failed to encode movies: %w", err)
	}
	scores, err := json.Marshal(record.Scores)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scores: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	record.PreviousHash = r.lastHash
	record.EntryHash = chainHash(&record)

	_, err = r.db.Exec(`
		INSERT INTO audit_records
		(id, kind, correlation_id, request_id, age, gender, occupation,
		 movies, scores, movie, score, created_at, previous_hash, entry_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		record.ID, record.Kind, record.CorrelationID, record.RequestID,
		record.Age, record.Gender, record.Occupation,
		string(movies), string(scores), record.Movie, record.Score,
		record.CreatedAt, record.PreviousHash, record.EntryHash)
	if err != nil {
		return nil, fmt.Errorf("failed to append audit record: %w", err)
	}

	r.lastHash = record.EntryHash
	out := record
	return &out, nil
}
