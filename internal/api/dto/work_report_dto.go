package dto

import (
	"time"

	"github.com/pln-care/complaint-service/internal/domain"
)

// WorkReportCreateRequest payload for submitting a work report.
type WorkReportCreateRequest struct {
	ComplaintID string `json:"complaint_id" validate:"required"`
	WorkReportRequest
}

// WorkReportRequest payload for the report fields shared by submit and revise.
type WorkReportRequest struct {
	WorkStartTime   time.Time `json:"work_start_time" validate:"required"`
	WorkEndTime     time.Time `json:"work_end_time" validate:"required"`
	WorkDescription string    `json:"work_description" validate:"required"`
	MaterialsUsed   []string  `json:"materials_used,omitempty"`
	LaborCost       *float64  `json:"labor_cost,omitempty" validate:"omitempty,gte=0"`
	MaterialCost    *float64  `json:"material_cost,omitempty" validate:"omitempty,gte=0"`
	Notes           *string   `json:"notes,omitempty"`
	TechnicianNotes *string   `json:"technician_notes,omitempty"`
	BeforePhotos    []string  `json:"before_photos,omitempty"`
	AfterPhotos     []string  `json:"after_photos,omitempty"`
}

// WorkReportReviewRequest payload for the admin verdict.
type WorkReportReviewRequest struct {
	ReviewStatus string  `json:"review_status" validate:"required,oneof=APPROVED REVISION_NEEDED REJECTED"`
	ReviewNotes  *string `json:"review_notes,omitempty"`
}

// WorkReportResponse is the report projection for API reads.
type WorkReportResponse struct {
	ID              string             `json:"id"`
	ComplaintID     string             `json:"complaint_id"`
	WorkStartTime   time.Time          `json:"work_start_time"`
	WorkEndTime     time.Time          `json:"work_end_time"`
	WorkDescription string             `json:"work_description"`
	MaterialsUsed   []string           `json:"materials_used,omitempty"`
	LaborCost       *float64           `json:"labor_cost,omitempty"`
	MaterialCost    *float64           `json:"material_cost,omitempty"`
	TotalCost       float64            `json:"total_cost"`
	Notes           *string            `json:"notes,omitempty"`
	TechnicianNotes *string            `json:"technician_notes,omitempty"`
	BeforePhotos    []string           `json:"before_photos,omitempty"`
	AfterPhotos     []string           `json:"after_photos,omitempty"`
	ReviewStatus    string             `json:"review_status"`
	ReviewNotes     *string            `json:"review_notes,omitempty"`
	ReviewedAt      *time.Time         `json:"reviewed_at,omitempty"`
	Reviewer        *UserRefResponse   `json:"reviewer,omitempty"`
	Complaint       *ComplaintResponse `json:"complaint,omitempty"`
	SubmittedAt     time.Time          `json:"submitted_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// NewWorkReportResponse maps a domain work report.
func NewWorkReportResponse(w *domain.WorkReport) WorkReportResponse {
	resp := WorkReportResponse{
		ID:              w.ID,
		ComplaintID:     w.ComplaintID,
		WorkStartTime:   w.WorkStartTime,
		WorkEndTime:     w.WorkEndTime,
		WorkDescription: w.WorkDescription,
		MaterialsUsed:   w.MaterialsUsed,
		LaborCost:       w.LaborCost,
		MaterialCost:    w.MaterialCost,
		TotalCost:       w.TotalCost,
		Notes:           w.Notes,
		TechnicianNotes: w.TechnicianNotes,
		BeforePhotos:    w.BeforePhotos,
		AfterPhotos:     w.AfterPhotos,
		ReviewStatus:    string(w.ReviewStatus),
		ReviewNotes:     w.ReviewNotes,
		ReviewedAt:      w.ReviewedAt,
		Reviewer:        NewUserRefResponse(w.Reviewer),
		SubmittedAt:     w.SubmittedAt,
		UpdatedAt:       w.UpdatedAt,
	}
	if w.Complaint != nil {
		complaint := NewComplaintResponse(w.Complaint)
		resp.Complaint = &complaint
	}
	return resp
}

// NewWorkReportResponses maps a slice of domain reports.
func NewWorkReportResponses(reports []domain.WorkReport) []WorkReportResponse {
	out := make([]WorkReportResponse, 0, len(reports))
	for i := range reports {
		out = append(out, NewWorkReportResponse(&reports[i]))
	}
	return out
}
