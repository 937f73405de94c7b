package domain

import "time"

// ReviewStatus is the admin verdict on a submitted work report, distinct
// from the complaint's own status.
type ReviewStatus string

const (
	ReviewPending        ReviewStatus = "PENDING"
	ReviewApproved       ReviewStatus = "APPROVED"
	ReviewRevisionNeeded ReviewStatus = "REVISION_NEEDED"
	ReviewRejected       ReviewStatus = "REJECTED"
)

// Valid reports whether the review status is one of the enumerated values.
func (r ReviewStatus) Valid() bool {
	switch r {
	case ReviewPending, ReviewApproved, ReviewRevisionNeeded, ReviewRejected:
		return true
	}
	return false
}

// ReviewOutcome reports whether the value is a terminal review verdict an
// admin may submit (PENDING is the resting state, not an outcome).
func (r ReviewStatus) ReviewOutcome() bool {
	switch r {
	case ReviewApproved, ReviewRevisionNeeded, ReviewRejected:
		return true
	}
	return false
}

// WorkReport records the repair work done for a complaint. At most one
// exists per complaint; revisions update it in place.
type WorkReport struct {
	ID              string
	ComplaintID     string
	WorkStartTime   time.Time
	WorkEndTime     time.Time
	WorkDescription string
	MaterialsUsed   []string
	LaborCost       *float64
	MaterialCost    *float64
	TotalCost       float64
	Notes           *string
	TechnicianNotes *string
	BeforePhotos    []string
	AfterPhotos     []string
	ReviewStatus    ReviewStatus
	ReviewNotes     *string
	ReviewedBy      *string
	ReviewedAt      *time.Time
	SubmittedAt     time.Time
	UpdatedAt       time.Time

	// Loaded relations, nil unless the read joined them.
	Complaint *Complaint
	Reviewer  *UserRef
}

// Editable reports whether an officer may still modify the report.
func (w *WorkReport) Editable() bool {
	return w.ReviewStatus == ReviewPending || w.ReviewStatus == ReviewRevisionNeeded
}
