package dto

import (
	"time"

	"github.com/pln-care/complaint-service/internal/domain"
)

// ComplaintCreateRequest payload for authenticated complaint creation.
type ComplaintCreateRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description" validate:"required"`
	Location    string   `json:"location" validate:"required"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Priority    string   `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Images      []string `json:"images,omitempty" validate:"max=5"`
}

// PublicComplaintCreateRequest payload for anonymous complaint creation.
type PublicComplaintCreateRequest struct {
	ComplaintCreateRequest
	ReporterName  string `json:"reporter_name" validate:"required"`
	ReporterEmail string `json:"reporter_email" validate:"required,email"`
	ReporterPhone string `json:"reporter_phone" validate:"required"`
}

// ComplaintUpdateRequest payload for the admin's partial complaint edit.
type ComplaintUpdateRequest struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Location    *string  `json:"location,omitempty"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Priority    *string  `json:"priority,omitempty" validate:"omitempty,oneof=LOW MEDIUM HIGH URGENT"`
	Status      *string  `json:"status,omitempty"`
	AssignedTo  *string  `json:"assigned_to,omitempty"`
}

// ComplaintAssignRequest payload for assignment.
type ComplaintAssignRequest struct {
	OfficerID string `json:"officer_id" validate:"required"`
}

// StatusUpdateRequest payload for a status transition.
type StatusUpdateRequest struct {
	Status  string `json:"status" validate:"required"`
	Message string `json:"message,omitempty"`
}

// ComplaintUpdateCreateRequest payload for a timeline note.
type ComplaintUpdateCreateRequest struct {
	Message string `json:"message" validate:"required"`
	Status  string `json:"status" validate:"required"`
}

// StatusInfoResponse carries the presentation metadata for a status.
type StatusInfoResponse struct {
	Label       string `json:"label"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// ComplaintResponse is the full complaint projection for internal reads.
type ComplaintResponse struct {
	ID           string             `json:"id"`
	TicketNumber string             `json:"ticket_number"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Location     string             `json:"location"`
	Latitude     *float64           `json:"latitude,omitempty"`
	Longitude    *float64           `json:"longitude,omitempty"`
	Priority     string             `json:"priority"`
	Status       string             `json:"status"`
	StatusInfo   StatusInfoResponse `json:"status_info"`
	IsPublic     bool               `json:"is_public"`
	ReporterName *string            `json:"reporter_name,omitempty"`
	Reporter     *UserRefResponse   `json:"reporter,omitempty"`
	Officer      *UserRefResponse   `json:"assigned_officer,omitempty"`
	Images       []string           `json:"images,omitempty"`
	CreatedAt    time.Time          `json:"created_at"`
	UpdatedAt    time.Time          `json:"updated_at"`
	AssignedAt   *time.Time         `json:"assigned_at,omitempty"`
	ResolvedAt   *time.Time         `json:"resolved_at,omitempty"`
}

// NewComplaintResponse maps a domain complaint.
func NewComplaintResponse(c *domain.Complaint) ComplaintResponse {
	info := c.Status.Info()
	return ComplaintResponse{
		ID:           c.ID,
		TicketNumber: c.TicketNumber,
		Title:        c.Title,
		Description:  c.Description,
		Location:     c.Location,
		Latitude:     c.Latitude,
		Longitude:    c.Longitude,
		Priority:     string(c.Priority),
		Status:       string(c.Status),
		StatusInfo: StatusInfoResponse{
			Label:       info.Label,
			Description: info.Description,
			Color:       info.Color,
		},
		IsPublic:     c.IsPublic,
		ReporterName: c.ReporterName,
		Reporter:     NewUserRefResponse(c.Reporter),
		Officer:      NewUserRefResponse(c.Officer),
		Images:       c.Images,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
		AssignedAt:   c.AssignedAt,
		ResolvedAt:   c.ResolvedAt,
	}
}

// NewComplaintResponses maps a slice of domain complaints.
func NewComplaintResponses(complaints []domain.Complaint) []ComplaintResponse {
	out := make([]ComplaintResponse, 0, len(complaints))
	for i := range complaints {
		out = append(out, NewComplaintResponse(&complaints[i]))
	}
	return out
}

// ComplaintUpdateResponse is one timeline entry.
type ComplaintUpdateResponse struct {
	ID        string    `json:"id"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// NewComplaintUpdateResponses maps timeline entries.
func NewComplaintUpdateResponses(updates []domain.ComplaintUpdate) []ComplaintUpdateResponse {
	out := make([]ComplaintUpdateResponse, 0, len(updates))
	for _, u := range updates {
		out = append(out, ComplaintUpdateResponse{
			ID:        u.ID,
			Message:   u.Message,
			Status:    string(u.Status),
			CreatedAt: u.CreatedAt,
		})
	}
	return out
}

// ComplaintStatsResponse is the dashboard counter payload.
type ComplaintStatsResponse struct {
	Total          int64  `json:"total"`
	Pending        int64  `json:"pending"`
	InProgress     int64  `json:"in_progress"`
	Resolved       int64  `json:"resolved"`
	MyAssignedTask *int64 `json:"my_assigned_task,omitempty"`
}

// OverviewStatsResponse extends the dashboard counters for admins.
type OverviewStatsResponse struct {
	Total         int64 `json:"total"`
	Pending       int64 `json:"pending"`
	InProgress    int64 `json:"in_progress"`
	Resolved      int64 `json:"resolved"`
	TotalUsers    int64 `json:"total_users"`
	TotalOfficers int64 `json:"total_officers"`
}
