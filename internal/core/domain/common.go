package domain

import "time"

// AuditFields holds standard audit information for domain entities.
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy"` // Actor reference (API token ID or "system")
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy"` // Actor reference
	Version       int64     `json:"version"`       // Incremented on every update
}

// SystemActorID marks changes performed by the application itself rather than a caller.
const SystemActorID = "system"
