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
	"github.com/pln-care/complaint-service/pkg/ticket"
	apperrors "github.com/pln-care/complaint-service/pkg/util"
)

// Sequence wraparound into the six-digit space is the only way a generated
// ticket number can collide; one retry round per attempt is plenty.
const maxTicketAttempts = 3

const maxComplaintImages = 5

// ComplaintService coordinates complaint workflows around the lifecycle
// rules engine.
type ComplaintService struct {
	repos      repository.Repos
	atomic     repository.Atomic
	dispatcher events.Dispatcher
}

// ComplaintDependencies bundles requirements for the complaint service.
type ComplaintDependencies struct {
	Repos      repository.Repos
	Atomic     repository.Atomic
	Dispatcher events.Dispatcher
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	return &ComplaintService{
		repos:      deps.Repos,
		atomic:     deps.Atomic,
		dispatcher: deps.Dispatcher,
	}
}

// ComplaintCreateInput describes complaint creation payload.
type ComplaintCreateInput struct {
	Title       string
	Description string
	Location    string
	Latitude    *float64
	Longitude   *float64
	Priority    domain.ComplaintPriority
	Images      []string
}

// PublicComplaintInput extends creation with public reporter contact data.
type PublicComplaintInput struct {
	ComplaintCreateInput
	ReporterName  string
	ReporterEmail string
	ReporterPhone string
}

// ComplaintListFilter describes listing filters.
type ComplaintListFilter struct {
	Status     *domain.ComplaintStatus
	Priority   *domain.ComplaintPriority
	AssignedTo *string
	Limit      int
}

// AdminComplaintUpdate carries the admin's partial complaint edit.
type AdminComplaintUpdate struct {
	Title       *string
	Description *string
	Location    *string
	Latitude    *float64
	Longitude   *float64
	Priority    *domain.ComplaintPriority
	Status      *domain.ComplaintStatus
	AssignedTo  *string
}

// ComplaintStats summarizes counts for dashboards.
type ComplaintStats struct {
	Total          int64
	Pending        int64
	InProgress     int64
	Resolved       int64
	MyAssignedTask *int64
}

// OverviewStats extends ComplaintStats with account counts for admins.
type OverviewStats struct {
	Total         int64
	Pending       int64
	InProgress    int64
	Resolved      int64
	TotalUsers    int64
	TotalOfficers int64
}

// PublicStats is the landing-page aggregate over public complaints.
type PublicStats struct {
	TotalComplaints    int64
	ResolvedComplaints int64
	ResolutionRate     float64
}

// Statuses counted as "in progress" for dashboard aggregates.
var inProgressStatuses = []domain.ComplaintStatus{
	domain.StatusReviewed,
	domain.StatusAssigned,
	domain.StatusOnTheWay,
	domain.StatusWorking,
	domain.StatusCompleted,
	domain.StatusApproved,
	domain.StatusRevisionNeeded,
}

// CreateInternal files a complaint on behalf of an authenticated account.
func (s *ComplaintService) CreateInternal(ctx context.Context, actor *domain.User, input ComplaintCreateInput) (*domain.Complaint, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	if err := validateCreateInput(&input); err != nil {
		return nil, err
	}

	complaint := &domain.Complaint{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Location:    strings.TrimSpace(input.Location),
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
		Priority:    input.Priority,
		Status:      domain.StatusPending,
		IsPublic:    false,
		ReporterID:  &actor.ID,
		Images:      input.Images,
	}

	if err := s.createComplaint(ctx, complaint, &domain.ActivityLog{
		UserID:  &actor.ID,
		Action:  domain.ActionCreateComplaint,
		Details: "Created complaint: " + complaint.Title,
	}); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:         events.EventComplaintCreated,
		ComplaintID:  complaint.ID,
		TicketNumber: complaint.TicketNumber,
		Actor:        userActor(actor),
		Payload: events.ComplaintCreatedPayload{
			Title:    complaint.Title,
			Priority: complaint.Priority,
			IsPublic: false,
		},
	})
	return complaint, nil
}

// CreatePublic files an anonymous complaint carrying reporter contact data.
func (s *ComplaintService) CreatePublic(ctx context.Context, input PublicComplaintInput) (*domain.Complaint, error) {
	if err := validateCreateInput(&input.ComplaintCreateInput); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(input.ReporterName)
	email := strings.TrimSpace(input.ReporterEmail)
	phone := strings.TrimSpace(input.ReporterPhone)

	complaint := &domain.Complaint{
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		Location:      strings.TrimSpace(input.Location),
		Latitude:      input.Latitude,
		Longitude:     input.Longitude,
		Priority:      input.Priority,
		Status:        domain.StatusPending,
		IsPublic:      true,
		ReporterName:  &name,
		ReporterEmail: &email,
		ReporterPhone: &phone,
		Images:        input.Images,
	}

	if err := s.createComplaint(ctx, complaint, nil); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{
		Type:         events.EventComplaintCreated,
		ComplaintID:  complaint.ID,
		TicketNumber: complaint.TicketNumber,
		Actor:        events.Actor{Public: true},
		Payload: events.ComplaintCreatedPayload{
			Title:    complaint.Title,
			Priority: complaint.Priority,
			IsPublic: true,
		},
	})
	return complaint, nil
}

// List returns complaints visible to the actor. Officers only ever see
// complaints assigned to them regardless of requested filters.
func (s *ComplaintService) List(ctx context.Context, actor *domain.User, filter ComplaintListFilter) ([]domain.Complaint, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	repoFilter := repository.ComplaintFilter{
		Status:   filter.Status,
		Priority: filter.Priority,
		Limit:    filter.Limit,
	}
	switch actor.Role {
	case domain.RoleAdminUtama:
		repoFilter.AssignedTo = filter.AssignedTo
	case domain.RolePetugasLapangan:
		repoFilter.AssignedTo = &actor.ID
	default:
		return nil, apperrors.NewForbidden("access denied")
	}

	complaints, err := s.repos.Complaints.List(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return complaints, nil
}

// Get fetches a complaint and its timeline, enforcing officer scoping.
func (s *ComplaintService) Get(ctx context.Context, actor *domain.User, id string) (*domain.Complaint, []domain.ComplaintUpdate, error) {
	complaint, err := s.getComplaint(ctx, s.repos, id)
	if err != nil {
		return nil, nil, err
	}
	if !lifecycle.CanRead(actor, complaint) {
		return nil, nil, apperrors.NewForbidden("access denied")
	}
	updates, err := s.repos.Updates.ListByComplaint(ctx, complaint.ID)
	if err != nil {
		return nil, nil, apperrors.MapError(err)
	}
	return complaint, updates, nil
}

// AdminUpdate applies an administrative edit. A status change rides through
// the same lifecycle checks as any other transition.
func (s *ComplaintService) AdminUpdate(ctx context.Context, actor *domain.User, id string, input AdminComplaintUpdate) (*domain.Complaint, error) {
	if actor == nil || actor.Role != domain.RoleAdminUtama {
		return nil, apperrors.NewForbidden("access denied")
	}

	var (
		complaint *domain.Complaint
		oldStatus domain.ComplaintStatus
	)
	err := s.atomic.InTx(ctx, func(r repository.Repos) error {
		var err error
		complaint, err = s.getComplaint(ctx, r, id)
		if err != nil {
			return err
		}
		oldStatus = complaint.Status

		if input.Title != nil {
			complaint.Title = *input.Title
		}
		if input.Description != nil {
			complaint.Description = *input.Description
		}
		if input.Location != nil {
			complaint.Location = *input.Location
		}
		if input.Latitude != nil {
			complaint.Latitude = input.Latitude
		}
		if input.Longitude != nil {
			complaint.Longitude = input.Longitude
		}
		if input.Priority != nil {
			if !input.Priority.Valid() {
				return apperrors.NewValidationError("invalid priority", map[string]any{"priority": *input.Priority})
			}
			complaint.Priority = *input.Priority
		}
		if input.AssignedTo != nil {
			officer, err := s.lookupOfficer(ctx, r, *input.AssignedTo)
			if err != nil {
				return err
			}
			complaint.AssignedTo = &officer.ID
		}
		if input.Status != nil && *input.Status != complaint.Status {
			if err := lifecycle.Authorize(actor, complaint, *input.Status); err != nil {
				return err
			}
			lifecycle.Apply(complaint, *input.Status, time.Now())
			if err := r.Updates.Create(ctx, &domain.ComplaintUpdate{
				ComplaintID: complaint.ID,
				Message:     "Status diperbarui: " + complaint.Status.Info().Label,
				Status:      complaint.Status,
			}); err != nil {
				return err
			}
		}

		if err := r.Complaints.Update(ctx, complaint); err != nil {
			return err
		}
		return r.ActivityLogs.Create(ctx, &domain.ActivityLog{
			UserID:  &actor.ID,
			Action:  domain.ActionUpdateComplaint,
			Details: "Updated complaint: " + complaint.Title,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	if oldStatus != complaint.Status {
		s.publishStatusChanged(ctx, actor, complaint, oldStatus, "")
	}
	return complaint, nil
}

// Delete removes a complaint and, by cascade, its updates and work report.
func (s *ComplaintService) Delete(ctx context.Context, actor *domain.User, id string) error {
	if actor == nil || actor.Role != domain.RoleAdminUtama {
		return apperrors.NewForbidden("access denied")
	}

	var ticketNumber string
	err := s.atomic.InTx(ctx, func(r repository.Repos) error {
		complaint, err := s.getComplaint(ctx, r, id)
		if err != nil {
			return err
		}
		ticketNumber = complaint.TicketNumber
		if err := r.Complaints.Delete(ctx, id); err != nil {
			return err
		}
		return r.ActivityLogs.Create(ctx, &domain.ActivityLog{
			UserID:  &actor.ID,
			Action:  domain.ActionDeleteComplaint,
			Details: "Deleted complaint " + ticketNumber,
		})
	})
	if err != nil {
		return apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:         events.EventComplaintDeleted,
		ComplaintID:  id,
		TicketNumber: ticketNumber,
		Actor:        userActor(actor),
	})
	return nil
}

// Assign puts a field officer on a complaint and moves it to ASSIGNED.
func (s *ComplaintService) Assign(ctx context.Context, actor *domain.User, complaintID, officerID string) (*domain.Complaint, error) {
	if actor == nil || actor.Role != domain.RoleAdminUtama {
		return nil, apperrors.NewForbidden("access denied")
	}

	var (
		complaint *domain.Complaint
		officer   *domain.User
		oldStatus domain.ComplaintStatus
	)
	err := s.atomic.InTx(ctx, func(r repository.Repos) error {
		var err error
		officer, err = s.lookupOfficer(ctx, r, officerID)
		if err != nil {
			return err
		}
		complaint, err = s.getComplaint(ctx, r, complaintID)
		if err != nil {
			return err
		}
		oldStatus = complaint.Status

		if err := lifecycle.Authorize(actor, complaint, domain.StatusAssigned); err != nil {
			return err
		}
		complaint.AssignedTo = &officer.ID
		lifecycle.Apply(complaint, domain.StatusAssigned, time.Now())

		if err := r.Complaints.Update(ctx, complaint); err != nil {
			return err
		}
		if err := r.Updates.Create(ctx, &domain.ComplaintUpdate{
			ComplaintID: complaint.ID,
			Message:     "Ditugaskan kepada " + officer.Name,
			Status:      domain.StatusAssigned,
		}); err != nil {
			return err
		}
		return r.ActivityLogs.Create(ctx, &domain.ActivityLog{
			UserID:  &actor.ID,
			Action:  domain.ActionAssignComplaint,
			Details: "Assigned complaint " + complaint.TicketNumber + " to " + officer.Name,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:         events.EventComplaintAssigned,
		ComplaintID:  complaint.ID,
		TicketNumber: complaint.TicketNumber,
		Actor:        userActor(actor),
		Payload: events.ComplaintAssignedPayload{
			OfficerID:   officer.ID,
			OfficerName: officer.Name,
		},
	})
	s.publishStatusChanged(ctx, actor, complaint, oldStatus, "Ditugaskan kepada "+officer.Name)
	return complaint, nil
}

// UpdateStatus performs a generic status transition with an optional
// message, for admins and assigned officers.
func (s *ComplaintService) UpdateStatus(ctx context.Context, actor *domain.User, id string, next domain.ComplaintStatus, message string) (*domain.Complaint, error) {
	message = strings.TrimSpace(message)

	var (
		complaint *domain.Complaint
		oldStatus domain.ComplaintStatus
	)
	err := s.atomic.InTx(ctx, func(r repository.Repos) error {
		var err error
		complaint, err = s.getComplaint(ctx, r, id)
		if err != nil {
			return err
		}
		oldStatus = complaint.Status

		if err := lifecycle.Authorize(actor, complaint, next); err != nil {
			return err
		}
		lifecycle.Apply(complaint, next, time.Now())

		if message == "" {
			message = "Status diperbarui: " + next.Info().Label
		}
		if err := r.Complaints.Update(ctx, complaint); err != nil {
			return err
		}
		if err := r.Updates.Create(ctx, &domain.ComplaintUpdate{
			ComplaintID: complaint.ID,
			Message:     message,
			Status:      next,
		}); err != nil {
			return err
		}
		return r.ActivityLogs.Create(ctx, &domain.ActivityLog{
			UserID:  &actor.ID,
			Action:  domain.ActionAddUpdate,
			Details: "Added update to complaint " + complaint.TicketNumber,
		})
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publishStatusChanged(ctx, actor, complaint, oldStatus, message)
	return complaint, nil
}

// AddUpdate records a progress note with an explicit status, the original
// "add complaint update" action. Message is required here.
func (s *ComplaintService) AddUpdate(ctx context.Context, actor *domain.User, id string, message string, status domain.ComplaintStatus) (*domain.Complaint, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperrors.NewValidationError("message and status required", nil)
	}
	return s.UpdateStatus(ctx, actor, id, status, message)
}

// Stats aggregates dashboard counters scoped to the actor.
func (s *ComplaintService) Stats(ctx context.Context, actor *domain.User) (*ComplaintStats, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	base := repository.ComplaintFilter{}
	if actor.Role == domain.RolePetugasLapangan {
		base.AssignedTo = &actor.ID
	}

	stats := &ComplaintStats{}
	var err error
	if stats.Total, err = s.repos.Complaints.Count(ctx, base); err != nil {
		return nil, apperrors.MapError(err)
	}
	if stats.Pending, err = s.countStatus(ctx, base, domain.StatusPending); err != nil {
		return nil, err
	}
	inProgress := base
	inProgress.Statuses = inProgressStatuses
	if stats.InProgress, err = s.repos.Complaints.Count(ctx, inProgress); err != nil {
		return nil, apperrors.MapError(err)
	}
	if stats.Resolved, err = s.countStatus(ctx, base, domain.StatusResolved); err != nil {
		return nil, err
	}
	if actor.Role == domain.RolePetugasLapangan {
		assigned := stats.Total
		stats.MyAssignedTask = &assigned
	}
	return stats, nil
}

// StatsOverview aggregates system-wide counters for admins.
func (s *ComplaintService) StatsOverview(ctx context.Context, actor *domain.User) (*OverviewStats, error) {
	if actor == nil || actor.Role != domain.RoleAdminUtama {
		return nil, apperrors.NewForbidden("access denied")
	}

	stats := &OverviewStats{}
	var err error
	if stats.Total, err = s.repos.Complaints.Count(ctx, repository.ComplaintFilter{}); err != nil {
		return nil, apperrors.MapError(err)
	}
	if stats.Pending, err = s.countStatus(ctx, repository.ComplaintFilter{}, domain.StatusPending); err != nil {
		return nil, err
	}
	if stats.InProgress, err = s.repos.Complaints.Count(ctx, repository.ComplaintFilter{Statuses: inProgressStatuses}); err != nil {
		return nil, apperrors.MapError(err)
	}
	if stats.Resolved, err = s.countStatus(ctx, repository.ComplaintFilter{}, domain.StatusResolved); err != nil {
		return nil, err
	}
	if stats.TotalUsers, err = s.repos.Users.Count(ctx, repository.UserFilter{}); err != nil {
		return nil, apperrors.MapError(err)
	}
	officer := domain.RolePetugasLapangan
	if stats.TotalOfficers, err = s.repos.Users.Count(ctx, repository.UserFilter{Role: &officer}); err != nil {
		return nil, apperrors.MapError(err)
	}
	return stats, nil
}

// PublicStats aggregates landing-page counters over public complaints.
func (s *ComplaintService) PublicStats(ctx context.Context) (*PublicStats, error) {
	public := true
	total, err := s.repos.Complaints.Count(ctx, repository.ComplaintFilter{IsPublic: &public})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	resolved := domain.StatusResolved
	resolvedCount, err := s.repos.Complaints.Count(ctx, repository.ComplaintFilter{IsPublic: &public, Status: &resolved})
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	stats := &PublicStats{TotalComplaints: total, ResolvedComplaints: resolvedCount}
	if total > 0 {
		stats.ResolutionRate = float64(resolvedCount) / float64(total) * 100
	}
	return stats, nil
}

// Track fetches the public projection inputs for a ticket number.
func (s *ComplaintService) Track(ctx context.Context, ticketNumber string) (*domain.Complaint, []domain.ComplaintUpdate, *domain.WorkReport, error) {
	complaint, err := s.repos.Complaints.GetByTicketNumber(ctx, ticketNumber)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil, apperrors.NewNotFound("complaint", map[string]any{"ticket_number": ticketNumber})
		}
		return nil, nil, nil, apperrors.MapError(err)
	}
	updates, err := s.repos.Updates.ListByComplaint(ctx, complaint.ID)
	if err != nil {
		return nil, nil, nil, apperrors.MapError(err)
	}
	report, err := s.repos.WorkReports.GetByComplaintID(ctx, complaint.ID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, nil, apperrors.MapError(err)
		}
		report = nil
	}
	return complaint, updates, report, nil
}

// createComplaint persists the complaint together with its intake timeline
// row and, for internal submissions, an activity log entry. Each attempt runs
// as its own transaction: a ticket-number collision aborts the transaction on
// Postgres, so statement-level retry inside it is impossible. The whole
// write is rolled back and repeated with a fresh sequence value instead.
// Collisions only arise when the six-digit suffix wraps across year rollover.
func (s *ComplaintService) createComplaint(ctx context.Context, complaint *domain.Complaint, log *domain.ActivityLog) error {
	year := time.Now().Year()
	for attempt := 0; attempt < maxTicketAttempts; attempt++ {
		err := s.atomic.InTx(ctx, func(r repository.Repos) error {
			seq, err := r.Complaints.NextTicketSeq(ctx)
			if err != nil {
				return err
			}
			complaint.TicketNumber = ticket.Format(year, seq)
			if err := r.Complaints.Create(ctx, complaint); err != nil {
				return err
			}
			if err := r.Updates.Create(ctx, &domain.ComplaintUpdate{
				ComplaintID: complaint.ID,
				Message:     "Laporan Anda telah diterima dan sedang dalam antrian untuk ditinjau",
				Status:      domain.StatusPending,
			}); err != nil {
				return err
			}
			if log == nil {
				return nil
			}
			return r.ActivityLogs.Create(ctx, log)
		})
		if err == nil {
			return nil
		}
		if !apperrors.IsUniqueViolation(err, "complaints_ticket_number_key") {
			return apperrors.MapError(err)
		}
	}
	return apperrors.NewConflict("could not allocate a unique ticket number", nil)
}

func (s *ComplaintService) getComplaint(ctx context.Context, r repository.Repos, id string) (*domain.Complaint, error) {
	complaint, err := r.Complaints.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"complaint_id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return complaint, nil
}

func (s *ComplaintService) lookupOfficer(ctx context.Context, r repository.Repos, officerID string) (*domain.User, error) {
	officer, err := r.Users.GetByID(ctx, officerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": officerID})
		}
		return nil, apperrors.MapError(err)
	}
	if officer.Role != domain.RolePetugasLapangan {
		return nil, apperrors.NewValidationError("assignee must be a field officer", map[string]any{"user_id": officerID})
	}
	if !officer.IsActive {
		return nil, apperrors.NewConflict("officer is inactive", map[string]any{"user_id": officerID})
	}
	return officer, nil
}

func (s *ComplaintService) countStatus(ctx context.Context, base repository.ComplaintFilter, status domain.ComplaintStatus) (int64, error) {
	filter := base
	filter.Status = &status
	count, err := s.repos.Complaints.Count(ctx, filter)
	if err != nil {
		return 0, apperrors.MapError(err)
	}
	return count, nil
}

func (s *ComplaintService) publishStatusChanged(ctx context.Context, actor *domain.User, complaint *domain.Complaint, oldStatus domain.ComplaintStatus, message string) {
	s.publish(ctx, events.Event{
		Type:         events.EventComplaintStatusChanged,
		ComplaintID:  complaint.ID,
		TicketNumber: complaint.TicketNumber,
		Actor:        userActor(actor),
		Payload: events.ComplaintStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: complaint.Status,
			Message:   message,
		},
	})
}

func (s *ComplaintService) publish(ctx context.Context, event events.Event) {
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

func userActor(user *domain.User) events.Actor {
	if user == nil {
		return events.Actor{Public: true}
	}
	id := user.ID
	role := user.Role
	return events.Actor{UserID: &id, Role: &role}
}

func validateCreateInput(input *ComplaintCreateInput) error {
	if strings.TrimSpace(input.Title) == "" ||
		strings.TrimSpace(input.Description) == "" ||
		strings.TrimSpace(input.Location) == "" {
		return apperrors.NewValidationError("title, description and location are required", nil)
	}
	if len(input.Images) > maxComplaintImages {
		return apperrors.NewValidationError("too many images", map[string]any{"max": maxComplaintImages})
	}
	if input.Priority == "" {
		input.Priority = domain.PriorityMedium
	}
	if !input.Priority.Valid() {
		return apperrors.NewValidationError("invalid priority", map[string]any{"priority": input.Priority})
	}
	return nil
}
