package dto

import (
	"time"

	"github.com/pln-care/complaint-service/internal/domain"
)

// TrackingResponse is the anonymized projection served to the public
// tracking page. Reporter contact details and internal ids stay out.
type TrackingResponse struct {
	TicketNumber string                    `json:"ticket_number"`
	Title        string                    `json:"title"`
	Description  string                    `json:"description"`
	Location     string                    `json:"location"`
	Priority     string                    `json:"priority"`
	Status       string                    `json:"status"`
	StatusInfo   StatusInfoResponse        `json:"status_info"`
	OfficerName  *string                   `json:"officer_name,omitempty"`
	CreatedAt    time.Time                 `json:"created_at"`
	ResolvedAt   *time.Time                `json:"resolved_at,omitempty"`
	Timeline     []ComplaintUpdateResponse `json:"timeline"`
	WorkReport   *TrackingWorkReport       `json:"work_report,omitempty"`
}

// TrackingWorkReport is the reduced work report shown on the tracking page.
type TrackingWorkReport struct {
	WorkDescription string     `json:"work_description"`
	ReviewStatus    string     `json:"review_status"`
	AfterPhotos     []string   `json:"after_photos,omitempty"`
	SubmittedAt     time.Time  `json:"submitted_at"`
	ReviewedAt      *time.Time `json:"reviewed_at,omitempty"`
}

// NewTrackingResponse assembles the tracking projection.
func NewTrackingResponse(c *domain.Complaint, updates []domain.ComplaintUpdate, report *domain.WorkReport) TrackingResponse {
	info := c.Status.Info()
	resp := TrackingResponse{
		TicketNumber: c.TicketNumber,
		Title:        c.Title,
		Description:  c.Description,
		Location:     c.Location,
		Priority:     string(c.Priority),
		Status:       string(c.Status),
		StatusInfo: StatusInfoResponse{
			Label:       info.Label,
			Description: info.Description,
			Color:       info.Color,
		},
		CreatedAt:  c.CreatedAt,
		ResolvedAt: c.ResolvedAt,
		Timeline:   NewComplaintUpdateResponses(updates),
	}
	if c.Officer != nil {
		name := c.Officer.Name
		resp.OfficerName = &name
	}
	if report != nil {
		resp.WorkReport = &TrackingWorkReport{
			WorkDescription: report.WorkDescription,
			ReviewStatus:    string(report.ReviewStatus),
			AfterPhotos:     report.AfterPhotos,
			SubmittedAt:     report.SubmittedAt,
			ReviewedAt:      report.ReviewedAt,
		}
	}
	return resp
}

// PublicStatsResponse is the landing-page aggregate payload.
type PublicStatsResponse struct {
	TotalComplaints    int64   `json:"total_complaints"`
	ResolvedComplaints int64   `json:"resolved_complaints"`
	ResolutionRate     float64 `json:"resolution_rate"`
}
