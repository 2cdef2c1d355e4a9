package models

import "time"

// AuditFields are the bookkeeping columns shared by every mutable row.
// Version backs optimistic locking: guarded updates compare and increment it.
type AuditFields struct {
	CreatedAt     time.Time `db:"created_at"`
	CreatedBy     string    `db:"created_by"`
	LastUpdatedAt time.Time `db:"last_updated_at"`
	LastUpdatedBy string    `db:"last_updated_by"`
	Version       int64     `db:"version"`
}
