package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	StatusPending        ComplaintStatus = "PENDING"
	StatusReviewed       ComplaintStatus = "REVIEWED"
	StatusAssigned       ComplaintStatus = "ASSIGNED"
	StatusOnTheWay       ComplaintStatus = "ON_THE_WAY"
	StatusWorking        ComplaintStatus = "WORKING"
	StatusCompleted      ComplaintStatus = "COMPLETED"
	StatusApproved       ComplaintStatus = "APPROVED"
	StatusResolved       ComplaintStatus = "RESOLVED"
	StatusRevisionNeeded ComplaintStatus = "REVISION_NEEDED"
	StatusRejected       ComplaintStatus = "REJECTED"
	StatusCancelled      ComplaintStatus = "CANCELLED"
)

// Valid reports whether the status is one of the enumerated values.
func (s ComplaintStatus) Valid() bool {
	switch s {
	case StatusPending, StatusReviewed, StatusAssigned, StatusOnTheWay,
		StatusWorking, StatusCompleted, StatusApproved, StatusResolved,
		StatusRevisionNeeded, StatusRejected, StatusCancelled:
		return true
	}
	return false
}

// ComplaintPriority enumerates urgency levels.
type ComplaintPriority string

const (
	PriorityLow    ComplaintPriority = "LOW"
	PriorityMedium ComplaintPriority = "MEDIUM"
	PriorityHigh   ComplaintPriority = "HIGH"
	PriorityUrgent ComplaintPriority = "URGENT"
)

// Valid reports whether the priority is one of the enumerated values.
func (p ComplaintPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// Complaint is the aggregate for infrastructure fault reports. TicketNumber
// is immutable after creation. Public complaints carry reporter contact
// fields instead of a ReporterID.
type Complaint struct {
	ID            string
	TicketNumber  string
	Title         string
	Description   string
	Location      string
	Latitude      *float64
	Longitude     *float64
	Priority      ComplaintPriority
	Status        ComplaintStatus
	IsPublic      bool
	ReporterID    *string
	ReporterName  *string
	ReporterEmail *string
	ReporterPhone *string
	AssignedTo    *string
	Images        []string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	AssignedAt    *time.Time
	ResolvedAt    *time.Time

	// Loaded relations, nil unless the read joined them.
	Reporter *UserRef
	Officer  *UserRef
}
