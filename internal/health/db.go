// Package health provides health check implementations for external
// dependencies of the recommendation service.
package health

import (
	"context"
	"database/sql"
)

// DBChecker implements health checking for the audit database.
type DBChecker struct {
	db *sql.DB
}

// NewDBChecker creates a new database health checker.
func NewDBChecker(db *sql.DB) *DBChecker {
	return &DBChecker{db: db}
}

// HealthCheck pings the database.
func (d *DBChecker) HealthCheck(ctx context.Context) error {
	return d.db.PingContext(ctx)
}
