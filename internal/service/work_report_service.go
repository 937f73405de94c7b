package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/pln-care/complaint-service/internal/domain"
	"github.com/pln-care/complaint-service/internal/events"
	"github.com/pln-care/complaint-service/internal/lifecycle"
	"github.com/pln-care/complaint-service/internal/repository"
	apperrors "github.com/pln-care/complaint-service/pkg/util"
)

// WorkReportService handles submission, revision and review of work reports.
type WorkReportService struct {
	repos      repository.Repos
	atomic     repository.Atomic
	dispatcher events.Dispatcher
}

// WorkReportDependencies bundles requirements for the work report service.
type WorkReportDependencies struct {
	Repos      repository.Repos
	Atomic     repository.Atomic
	Dispatcher events.Dispatcher
}

// NewWorkReportService constructs the service.
func NewWorkReportService(deps WorkReportDependencies) *WorkReportService {
	return &WorkReportService{
		repos:      deps.Repos,
		atomic:     deps.Atomic,
		dispatcher: deps.Dispatcher,
	}
}

// WorkReportInput carries the officer's report fields for submit and update.
type WorkReportInput struct {
	WorkStartTime   time.Time
	WorkEndTime     time.Time
	WorkDescription string
	MaterialsUsed   []string
	LaborCost       *float64
	MaterialCost    *float64
	Notes           *string
	TechnicianNotes *string
	BeforePhotos    []string
	AfterPhotos     []string
}

// ReviewInput carries the admin verdict on a report.
type ReviewInput struct {
	Outcome     domain.ReviewStatus
	ReviewNotes *string
}

// WorkReportListFilter narrows work report listings.
type WorkReportListFilter struct {
	ReviewStatus *domain.ReviewStatus
}

// Submit files the one work report a complaint may carry and moves the
// complaint to COMPLETED awaiting review.
func (s *WorkReportService) Submit(ctx context.Context, actor *domain.User, complaintID string, input WorkReportInput) (*domain.WorkReport, error) {
	if err := validateReportInput(input); err != nil {
		return nil, err
	}

	var (
		report    *domain.WorkReport
		complaint *domain.Complaint
	)
	err := s.atomic.InTx(ctx, func(r repository.Repos) error {
		var err error
		complaint, err = getComplaintByID(ctx, r, complaintID)
		if err != nil {
			return err
		}
		if err := authorizeReportWrite(actor, complaint); err != nil {
			return err
		}
		if _, err := r.WorkReports.GetByComplaintID(ctx, complaint.ID); err == nil {
			return apperrors.NewConflict("work report already exists for this complaint", map[string]any{"complaint_id": complaint.ID})
		} else if !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		report = &domain.WorkReport{
			ComplaintID:     complaint.ID,
			WorkStartTime:   input.WorkStartTime,
			WorkEndTime:     input.WorkEndTime,
			WorkDescription: strings.TrimSpace(input.WorkDescription),
			MaterialsUsed:   input.MaterialsUsed,
			LaborCost:       input.LaborCost,
			MaterialCost:    input.MaterialCost,
			TotalCost:       totalCost(input.LaborCost, input.MaterialCost),
			Notes:           input.Notes,
			TechnicianNotes: input.TechnicianNotes,
			BeforePhotos:    input.BeforePhotos,
			AfterPhotos:     input.AfterPhotos,
			ReviewStatus:    domain.ReviewPending,
		}
		if err := r.WorkReports.Create(ctx, report); err != nil {
			if apperrors.IsUniqueViolation(err, "work_reports_complaint_id_key") {
				return apperrors.NewConflict("work report already exists for this complaint", map[string]any{"complaint_id": complaint.ID})
			}
			return err
		}

		if err := lifecycle.Authorize(actor, complaint, domain.StatusCompleted); err != nil {
			return err
		}
		lifecycle.Apply(complaint, domain.StatusCompleted, time.Now())
		if err := r.Complaints.Update(ctx, complaint); err != nil {
			return err
		}
		if err := r.Updates.Create(ctx, &domain.ComplaintUpdate{
			ComplaintID: complaint.ID,
			Message:     "Pekerjaan selesai dilakukan oleh petugas. Menunggu review dari admin.",
			Status:      domain.StatusCompleted,
		}); err != nil {
			return err
		}
		return r.ActivityLogs.Create(ctx, &domain.ActivityLog{
			UserID:  &actor.ID,
			Action:  domain.ActionSubmitWorkReport,
			Details: "Submitted work report for complaint " + complaint.TicketNumber,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishReportEvent(ctx, actor, complaint, events.EventWorkReportSubmitted, events.WorkReportSubmittedPayload{
		WorkReportID: report.ID,
		TotalCost:    report.TotalCost,
		Resubmission: false,
	})
	return report, nil
}

// Update revises an existing report while it is still editable. Any edit
// resets the review cycle: the verdict fields clear and the complaint goes
// back to COMPLETED awaiting a fresh review.
func (s *WorkReportService) Update(ctx context.Context, actor *domain.User, reportID string, input WorkReportInput) (*domain.WorkReport, error) {
	if err := validateReportInput(input); err != nil {
		return nil, err
	}

	var (
		report    *domain.WorkReport
		complaint *domain.Complaint
	)
	err := s.atomic.InTx(ctx, func(r repository.Repos) error {
		var err error
		report, err = getReportByID(ctx, r, reportID)
		if err != nil {
			return err
		}
		complaint, err = getComplaintByID(ctx, r, report.ComplaintID)
		if err != nil {
			return err
		}
		if err := authorizeReportWrite(actor, complaint); err != nil {
			return err
		}
		if !report.Editable() {
			return apperrors.NewConflict("work report cannot be modified", map[string]any{"review_status": report.ReviewStatus})
		}
		wasRevision := report.ReviewStatus == domain.ReviewRevisionNeeded

		report.WorkStartTime = input.WorkStartTime
		report.WorkEndTime = input.WorkEndTime
		report.WorkDescription = strings.TrimSpace(input.WorkDescription)
		report.MaterialsUsed = input.MaterialsUsed
		report.LaborCost = input.LaborCost
		report.MaterialCost = input.MaterialCost
		report.TotalCost = totalCost(input.LaborCost, input.MaterialCost)
		report.Notes = input.Notes
		report.TechnicianNotes = input.TechnicianNotes
		report.BeforePhotos = input.BeforePhotos
		report.AfterPhotos = input.AfterPhotos
		report.ReviewStatus = domain.ReviewPending
		report.ReviewNotes = nil
		report.ReviewedBy = nil
		report.ReviewedAt = nil

		if err := r.WorkReports.Update(ctx, report); err != nil {
			return err
		}

		if wasRevision {
			if err := lifecycle.Authorize(actor, complaint, domain.StatusCompleted); err != nil {
				return err
			}
			lifecycle.Apply(complaint, domain.StatusCompleted, time.Now())
			if err := r.Complaints.Update(ctx, complaint); err != nil {
				return err
			}
			if err := r.Updates.Create(ctx, &domain.ComplaintUpdate{
				ComplaintID: complaint.ID,
				Message:     "Pekerjaan selesai dilakukan oleh petugas. Menunggu review dari admin.",
				Status:      domain.StatusCompleted,
			}); err != nil {
				return err
			}
		}
		return r.ActivityLogs.Create(ctx, &domain.ActivityLog{
			UserID:  &actor.ID,
			Action:  domain.ActionUpdateWorkReport,
			Details: "Updated work report for complaint " + complaint.TicketNumber,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishReportEvent(ctx, actor, complaint, events.EventWorkReportSubmitted, events.WorkReportSubmittedPayload{
		WorkReportID: report.ID,
		TotalCost:    report.TotalCost,
		Resubmission: true,
	})
	return report, nil
}

// Get fetches one report with officer scoping via the owning complaint.
func (s *WorkReportService) Get(ctx context.Context, actor *domain.User, reportID string) (*domain.WorkReport, error) {
	report, err := getReportByID(ctx, s.repos, reportID)
	if err != nil {
		return nil, err
	}
	complaint, err := getComplaintByID(ctx, s.repos, report.ComplaintID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanRead(actor, complaint) {
		return nil, apperrors.NewForbidden("access denied")
	}
	report.Complaint = complaint
	return report, nil
}

// GetByComplaint fetches a complaint's report, if any.
func (s *WorkReportService) GetByComplaint(ctx context.Context, actor *domain.User, complaintID string) (*domain.WorkReport, error) {
	complaint, err := getComplaintByID(ctx, s.repos, complaintID)
	if err != nil {
		return nil, err
	}
	if !lifecycle.CanRead(actor, complaint) {
		return nil, apperrors.NewForbidden("access denied")
	}
	report, err := s.repos.WorkReports.GetByComplaintID(ctx, complaint.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("work report", map[string]any{"complaint_id": complaintID})
		}
		return nil, apperrors.MapError(err)
	}
	return report, nil
}

// List returns reports visible to the actor. Officers only see reports on
// complaints assigned to them.
func (s *WorkReportService) List(ctx context.Context, actor *domain.User, filter WorkReportListFilter) ([]domain.WorkReport, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	repoFilter := repository.WorkReportFilter{ReviewStatus: filter.ReviewStatus}
	switch actor.Role {
	case domain.RoleAdminUtama:
	case domain.RolePetugasLapangan:
		repoFilter.AssignedTo = &actor.ID
	default:
		return nil, apperrors.NewForbidden("access denied")
	}

	reports, err := s.repos.WorkReports.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return reports, nil
}

// Review records the admin's verdict and drives the owning complaint to the
// status the verdict implies.
func (s *WorkReportService) Review(ctx context.Context, actor *domain.User, reportID string, input ReviewInput) (*domain.WorkReport, error) {
	if actor == nil || actor.Role != domain.RoleAdminUtama {
		return nil, apperrors.NewForbidden("access denied")
	}
	if !input.Outcome.ReviewOutcome() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"review_status": input.Outcome})
	}

	var (
		report    *domain.WorkReport
		complaint *domain.Complaint
		oldStatus domain.ComplaintStatus
	)
	err := s.atomic.InTx(ctx, func(r repository.Repos) error {
		var err error
		report, err = getReportByID(ctx, r, reportID)
		if err != nil {
			return err
		}
		complaint, err = getComplaintByID(ctx, r, report.ComplaintID)
		if err != nil {
			return err
		}
		oldStatus = complaint.Status

		notes := ""
		if input.ReviewNotes != nil {
			notes = strings.TrimSpace(*input.ReviewNotes)
		}
		nextStatus, message, err := lifecycle.ReviewVerdict(input.Outcome, notes)
		if err != nil {
			return err
		}
		if err := lifecycle.Authorize(actor, complaint, nextStatus); err != nil {
			return err
		}

		now := time.Now()
		report.ReviewStatus = input.Outcome
		report.ReviewNotes = input.ReviewNotes
		report.ReviewedBy = &actor.ID
		report.ReviewedAt = &now
		if err := r.WorkReports.Update(ctx, report); err != nil {
			return err
		}

		lifecycle.Apply(complaint, nextStatus, now)
		if err := r.Complaints.Update(ctx, complaint); err != nil {
			return err
		}
		if err := r.Updates.Create(ctx, &domain.ComplaintUpdate{
			ComplaintID: complaint.ID,
			Message:     message,
			Status:      nextStatus,
		}); err != nil {
			return err
		}
		return r.ActivityLogs.Create(ctx, &domain.ActivityLog{
			UserID:  &actor.ID,
			Action:  domain.ActionReviewWorkReport,
			Details: "Reviewed work report for complaint " + complaint.TicketNumber + ": " + string(input.Outcome),
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishReportEvent(ctx, actor, complaint, events.EventWorkReportReviewed, events.WorkReportReviewedPayload{
		WorkReportID: report.ID,
		Outcome:      input.Outcome,
		ReviewNotes:  input.ReviewNotes,
	})
	s.publish(ctx, events.Event{
		Type:         events.EventComplaintStatusChanged,
		ComplaintID:  complaint.ID,
		TicketNumber: complaint.TicketNumber,
		Actor:        userActor(actor),
		Payload: events.ComplaintStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: complaint.Status,
		},
	})
	return report, nil
}

func (s *WorkReportService) publishReportEvent(ctx context.Context, actor *domain.User, complaint *domain.Complaint, eventType events.EventType, payload any) {
	s.publish(ctx, events.Event{
		Type:         eventType,
		ComplaintID:  complaint.ID,
		TicketNumber: complaint.TicketNumber,
		Actor:        userActor(actor),
		Payload:      payload,
	})
}

func (s *WorkReportService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func getComplaintByID(ctx context.Context, r repository.Repos, id string) (*domain.Complaint, error) {
	complaint, err := r.Complaints.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return complaint, nil
}

func getReportByID(ctx context.Context, r repository.Repos, id string) (*domain.WorkReport, error) {
	report, err := r.WorkReports.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("work report", map[string]any{"work_report_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return report, nil
}

// authorizeReportWrite allows the assigned officer or an admin to write the
// complaint's report.
func authorizeReportWrite(actor *domain.User, complaint *domain.Complaint) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	switch actor.Role {
	case domain.RoleAdminUtama:
		return nil
	case domain.RolePetugasLapangan:
		if complaint.AssignedTo == nil || *complaint.AssignedTo != actor.ID {
			return apperrors.NewForbidden("access denied")
		}
		return nil
	default:
		return apperrors.NewForbidden("access denied")
	}
}

// totalCost derives the stored total, treating absent costs as zero.
func totalCost(labor, material *float64) float64 {
	var total float64
	if labor != nil {
		total += *labor
	}
	if material != nil {
		total += *material
	}
	return total
}

func validateReportInput(input WorkReportInput) error {
	if strings.TrimSpace(input.WorkDescription) == "" {
		return apperrors.NewValidationError("work description is required", nil)
	}
	if input.WorkStartTime.IsZero() || input.WorkEndTime.IsZero() {
		return apperrors.NewValidationError("work start and end times are required", nil)
	}
	if input.WorkEndTime.Before(input.WorkStartTime) {
		return apperrors.NewValidationError("work end time must be after start time", nil)
	}
	return nil
}
