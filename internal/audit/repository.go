package audit

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Repository is an append-only sink for audit records.
type Repository interface {
	// Append stores the record, filling in ID, CreatedAt and the hash
	// chain fields, and returns the stored copy.
	Append(record Record) (*Record, error)
}

// InMemoryRepository keeps records in insertion order in memory. Used for
// tests and for deployments without an audit database. Thread-safe.
type InMemoryRepository struct {
	mu       sync.RWMutex
	records  []*Record
	lastHash string
}

// NewInMemoryRepository creates an empty in-memory audit repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{}
}

// Append stores the record at the end of the trail.
func (r *InMemoryRepository) Append(record Record) (*Record, error) {
	record.ID = uuid.New().String()
	record.CreatedAt = time.Now().UTC()

	r.mu.Lock()
	record.PreviousHash = r.lastHash
	record.EntryHash = chainHash(&record)
	r.lastHash = record.EntryHash
	stored := record
	r.records = append(r.records, &stored)
	r.mu.Unlock()

	// Return a copy so callers cannot mutate the stored record.
	out := record
	return &out, nil
}

// All returns a copy of the trail in insertion order.
func (r *InMemoryRepository) All() []*Record {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Record, len(r.records))
	for i, rec := range r.records {
		c := *rec
		out[i] = &c
	}
	return out
}

// VerifyChain recomputes every entry hash and reports whether the chain is
// intact.
func (r *InMemoryRepository) VerifyChain() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	prev := ""
	for _, rec := range r.records {
		if rec.PreviousHash != prev {
			return false
		}
		if chainHash(rec) != rec.EntryHash {
			return false
		}
		prev = rec.EntryHash
	}
	return true
}
