package domain

import "time"

// ComplaintUpdate is an append-only audit entry recorded on every status
// change or note. Entries are never mutated or deleted.
type ComplaintUpdate struct {
	ID          string
	ComplaintID string
	Message     string
	Status      ComplaintStatus
	CreatedAt   time.Time
}
