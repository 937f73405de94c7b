package events

import (
	"time"

	"github.com/pln-care/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated       EventType = "complaint_created"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
	EventComplaintAssigned      EventType = "complaint_assigned"
	EventComplaintDeleted       EventType = "complaint_deleted"
	EventWorkReportSubmitted    EventType = "work_report_submitted"
	EventWorkReportReviewed     EventType = "work_report_reviewed"
)

// Actor encapsulates actor metadata for an event. Public submissions have
// no user id.
type Actor struct {
	UserID *string      `json:"user_id,omitempty"`
	Role   *domain.Role `json:"role,omitempty"`
	Public bool         `json:"public,omitempty"`
}

// Event represents a domain event emitted by services. TicketNumber rides
// along so subscribers (notifications, tracking cache) need no extra read.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	ComplaintID  string      `json:"complaint_id"`
	TicketNumber string      `json:"ticket_number"`
	Actor        Actor       `json:"actor"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	Title    string                   `json:"title"`
	Priority domain.ComplaintPriority `json:"priority"`
	IsPublic bool                     `json:"is_public"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	OldStatus domain.ComplaintStatus `json:"old_status"`
	NewStatus domain.ComplaintStatus `json:"new_status"`
	Message   string                 `json:"message,omitempty"`
}

// ComplaintAssignedPayload payload.
type ComplaintAssignedPayload struct {
	OfficerID   string `json:"officer_id"`
	OfficerName string `json:"officer_name"`
}

// WorkReportSubmittedPayload payload.
type WorkReportSubmittedPayload struct {
	WorkReportID string  `json:"work_report_id"`
	TotalCost    float64 `json:"total_cost"`
	Resubmission bool    `json:"resubmission"`
}

// WorkReportReviewedPayload payload.
type WorkReportReviewedPayload struct {
	WorkReportID string              `json:"work_report_id"`
	Outcome      domain.ReviewStatus `json:"outcome"`
	ReviewNotes  *string             `json:"review_notes,omitempty"`
}
