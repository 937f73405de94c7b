package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pln-care/complaint-service/internal/domain"
	"github.com/pln-care/complaint-service/internal/events"
	"github.com/pln-care/complaint-service/internal/repository/repositorytest"
	"github.com/pln-care/complaint-service/pkg/ticket"
	apperrors "github.com/pln-care/complaint-service/pkg/util"
)

type complaintEnv struct {
	db      *repositorytest.DB
	service *ComplaintService
	events  *[]events.Event
	admin   domain.User
	officer domain.User
}

func newComplaintEnv(t *testing.T) *complaintEnv {
	t.Helper()
	db := repositorytest.New()
	captured := &[]events.Event{}
	dispatcher := events.NewInMemoryDispatcher()
	capture := func(ctx context.Context, event events.Event) error {
		*captured = append(*captured, event)
		return nil
	}
	for _, eventType := range []events.EventType{
		events.EventComplaintCreated,
		events.EventComplaintStatusChanged,
		events.EventComplaintAssigned,
		events.EventComplaintDeleted,
	} {
		dispatcher.Subscribe(eventType, capture)
	}

	admin := db.AddUser(domain.User{Name: "Admin", Email: "admin@pln.test", Role: domain.RoleAdminUtama, IsActive: true})
	officer := db.AddUser(domain.User{Name: "Budi Santoso", Email: "budi@pln.test", Role: domain.RolePetugasLapangan, IsActive: true})

	svc := NewComplaintService(ComplaintDependencies{
		Repos:      db.Repos(),
		Atomic:     db.Atomic(),
		Dispatcher: dispatcher,
	})
	return &complaintEnv{db: db, service: svc, events: captured, admin: admin, officer: officer}
}

func (e *complaintEnv) seedComplaint(status domain.ComplaintStatus, assignedTo *string) domain.Complaint {
	e.db.Seq++
	c := e.db.AddComplaint(domain.Complaint{
		TicketNumber: ticket.Format(time.Now().Year(), e.db.Seq),
		Title:        "Listrik padam",
		Description:  "Padam sejak pagi",
		Location:     "Jl. Sudirman",
		Priority:     domain.PriorityMedium,
		Status:       status,
		AssignedTo:   assignedTo,
	})
	return c
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, code, apperrors.ToDomainError(err).Code)
}

func TestCreatePublicComplaint(t *testing.T) {
	env := newComplaintEnv(t)

	complaint, err := env.service.CreatePublic(context.Background(), PublicComplaintInput{
		ComplaintCreateInput: ComplaintCreateInput{
			Title:       "Kabel Putus",
			Description: "Kabel listrik putus di depan rumah",
			Location:    "Jl. A",
		},
		ReporterName:  "Siti",
		ReporterEmail: "a@b.com",
		ReporterPhone: "0812000000",
	})
	require.NoError(t, err)
	require.True(t, ticket.Valid(complaint.TicketNumber))
	require.Equal(t, domain.StatusPending, complaint.Status)
	require.True(t, complaint.IsPublic)
	require.Equal(t, domain.PriorityMedium, complaint.Priority)

	updates, err := env.db.Repos().Updates.ListByComplaint(context.Background(), complaint.ID)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	require.Equal(t, "Laporan Anda telah diterima dan sedang dalam antrian untuk ditinjau", updates[0].Message)

	require.Len(t, *env.events, 1)
	require.Equal(t, events.EventComplaintCreated, (*env.events)[0].Type)
	require.True(t, (*env.events)[0].Actor.Public)
}

func TestCreatePublicComplaintRejectsMissingFields(t *testing.T) {
	env := newComplaintEnv(t)

	_, err := env.service.CreatePublic(context.Background(), PublicComplaintInput{
		ComplaintCreateInput: ComplaintCreateInput{Title: "Kabel Putus"},
		ReporterName:         "Siti",
		ReporterEmail:        "a@b.com",
		ReporterPhone:        "0812000000",
	})
	requireDomainCode(t, err, "VALIDATION_FAILED")
	require.Empty(t, env.db.Complaints)
}

func TestCreateComplaintRejectsTooManyImages(t *testing.T) {
	env := newComplaintEnv(t)

	_, err := env.service.CreateInternal(context.Background(), &env.admin, ComplaintCreateInput{
		Title:       "Tiang miring",
		Description: "Tiang hampir roboh",
		Location:    "Jl. B",
		Images:      []string{"1", "2", "3", "4", "5", "6"},
	})
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestTicketNumberRetriesOnCollision(t *testing.T) {
	env := newComplaintEnv(t)
	year := time.Now().Year()
	// Occupy the number the next sequence value would produce.
	env.db.AddComplaint(domain.Complaint{
		TicketNumber: ticket.Format(year, 1),
		Title:        "x", Description: "x", Location: "x",
		Priority: domain.PriorityLow, Status: domain.StatusPending,
	})

	complaint, err := env.service.CreateInternal(context.Background(), &env.admin, ComplaintCreateInput{
		Title:       "Meteran rusak",
		Description: "Meteran tidak berputar",
		Location:    "Jl. C",
	})
	require.NoError(t, err)
	require.Equal(t, ticket.Format(year, 2), complaint.TicketNumber)

	// The colliding attempt must leave nothing behind: only the committed
	// attempt's intake row and activity log are visible.
	require.Len(t, env.db.Complaints, 2)
	require.Len(t, env.db.Updates, 1)
	require.Equal(t, complaint.ID, env.db.Updates[0].ComplaintID)
	require.Len(t, env.db.Logs, 1)
}

func TestTicketNumberExhaustionConflicts(t *testing.T) {
	env := newComplaintEnv(t)
	year := time.Now().Year()
	// Occupy all the numbers the bounded retry will try.
	for seq := int64(1); seq <= 3; seq++ {
		env.db.AddComplaint(domain.Complaint{
			TicketNumber: ticket.Format(year, seq),
			Title:        "x", Description: "x", Location: "x",
			Priority: domain.PriorityLow, Status: domain.StatusPending,
		})
	}

	_, err := env.service.CreateInternal(context.Background(), &env.admin, ComplaintCreateInput{
		Title:       "Meteran rusak",
		Description: "Meteran tidak berputar",
		Location:    "Jl. C",
	})
	requireDomainCode(t, err, "CONFLICT")
	require.Len(t, env.db.Complaints, 3)
	require.Empty(t, env.db.Updates)
	require.Empty(t, env.db.Logs)
}

func TestAssignComplaint(t *testing.T) {
	env := newComplaintEnv(t)
	seeded := env.seedComplaint(domain.StatusPending, nil)

	complaint, err := env.service.Assign(context.Background(), &env.admin, seeded.ID, env.officer.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusAssigned, complaint.Status)
	require.NotNil(t, complaint.AssignedTo)
	require.Equal(t, env.officer.ID, *complaint.AssignedTo)
	require.NotNil(t, complaint.AssignedAt)

	updates, err := env.db.Repos().Updates.ListByComplaint(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	require.Equal(t, "Ditugaskan kepada Budi Santoso", updates[0].Message)

	require.Len(t, env.db.Logs, 1)
	require.Equal(t, domain.ActionAssignComplaint, env.db.Logs[0].Action)
}

func TestAssignRejectsNonOfficerTarget(t *testing.T) {
	env := newComplaintEnv(t)
	seeded := env.seedComplaint(domain.StatusPending, nil)

	_, err := env.service.Assign(context.Background(), &env.admin, seeded.ID, env.admin.ID)
	requireDomainCode(t, err, "VALIDATION_FAILED")

	stored := env.db.Complaints[seeded.ID]
	require.Equal(t, domain.StatusPending, stored.Status)
	require.Nil(t, stored.AssignedTo)
	require.Empty(t, env.db.Updates)
}

func TestAssignRejectsInactiveOfficer(t *testing.T) {
	env := newComplaintEnv(t)
	inactive := env.db.AddUser(domain.User{Name: "Cuti", Email: "cuti@pln.test", Role: domain.RolePetugasLapangan, IsActive: false})
	seeded := env.seedComplaint(domain.StatusPending, nil)

	_, err := env.service.Assign(context.Background(), &env.admin, seeded.ID, inactive.ID)
	requireDomainCode(t, err, "CONFLICT")
}

func TestAssignForbiddenForOfficer(t *testing.T) {
	env := newComplaintEnv(t)
	seeded := env.seedComplaint(domain.StatusPending, nil)

	_, err := env.service.Assign(context.Background(), &env.officer, seeded.ID, env.officer.ID)
	requireDomainCode(t, err, "FORBIDDEN")
}

func TestOfficerCannotMoveUnassignedComplaint(t *testing.T) {
	env := newComplaintEnv(t)
	other := env.db.AddUser(domain.User{Name: "Lain", Email: "lain@pln.test", Role: domain.RolePetugasLapangan, IsActive: true})
	seeded := env.seedComplaint(domain.StatusAssigned, &other.ID)

	_, err := env.service.UpdateStatus(context.Background(), &env.officer, seeded.ID, domain.StatusOnTheWay, "")
	requireDomainCode(t, err, "FORBIDDEN")

	stored := env.db.Complaints[seeded.ID]
	require.Equal(t, domain.StatusAssigned, stored.Status)
	require.Empty(t, env.db.Updates)
	require.Empty(t, env.db.Logs)
}

func TestOfficerDrivesFieldTransitions(t *testing.T) {
	env := newComplaintEnv(t)
	seeded := env.seedComplaint(domain.StatusAssigned, &env.officer.ID)

	for _, next := range []domain.ComplaintStatus{domain.StatusOnTheWay, domain.StatusWorking, domain.StatusCompleted} {
		complaint, err := env.service.UpdateStatus(context.Background(), &env.officer, seeded.ID, next, "")
		require.NoError(t, err)
		require.Equal(t, next, complaint.Status)
	}
	updates, err := env.db.Repos().Updates.ListByComplaint(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Len(t, updates, 3)
}

func TestStatusChangeWritesExactlyOneUpdateRow(t *testing.T) {
	env := newComplaintEnv(t)
	seeded := env.seedComplaint(domain.StatusPending, nil)

	_, err := env.service.UpdateStatus(context.Background(), &env.admin, seeded.ID, domain.StatusReviewed, "")
	require.NoError(t, err)

	updates, err := env.db.Repos().Updates.ListByComplaint(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.Len(t, updates, 1)
	require.Equal(t, "Status diperbarui: Sudah Ditinjau", updates[0].Message)
	require.Equal(t, domain.StatusReviewed, updates[0].Status)
}

func TestTerminalStatusHasNoExit(t *testing.T) {
	env := newComplaintEnv(t)
	for _, terminal := range []domain.ComplaintStatus{domain.StatusResolved, domain.StatusRejected, domain.StatusCancelled} {
		seeded := env.seedComplaint(terminal, nil)
		_, err := env.service.UpdateStatus(context.Background(), &env.admin, seeded.ID, domain.StatusPending, "")
		requireDomainCode(t, err, "VALIDATION_FAILED")
	}
}

func TestResolvedAtSetWhenEnteringResolved(t *testing.T) {
	env := newComplaintEnv(t)
	seeded := env.seedComplaint(domain.StatusCompleted, &env.officer.ID)

	complaint, err := env.service.UpdateStatus(context.Background(), &env.admin, seeded.ID, domain.StatusResolved, "")
	require.NoError(t, err)
	require.NotNil(t, complaint.ResolvedAt)
}

func TestListScopesOfficerToOwnAssignments(t *testing.T) {
	env := newComplaintEnv(t)
	other := env.db.AddUser(domain.User{Name: "Lain", Email: "lain2@pln.test", Role: domain.RolePetugasLapangan, IsActive: true})
	env.seedComplaint(domain.StatusAssigned, &env.officer.ID)
	env.seedComplaint(domain.StatusAssigned, &other.ID)
	env.seedComplaint(domain.StatusPending, nil)

	mine, err := env.service.List(context.Background(), &env.officer, ComplaintListFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)

	// An officer's explicit assigned_to filter cannot widen the scope.
	widened, err := env.service.List(context.Background(), &env.officer, ComplaintListFilter{AssignedTo: &other.ID})
	require.NoError(t, err)
	require.Len(t, widened, 1)
	require.Equal(t, env.officer.ID, *widened[0].AssignedTo)

	all, err := env.service.List(context.Background(), &env.admin, ComplaintListFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestGetForbiddenForUnassignedOfficer(t *testing.T) {
	env := newComplaintEnv(t)
	seeded := env.seedComplaint(domain.StatusPending, nil)

	_, _, err := env.service.Get(context.Background(), &env.officer, seeded.ID)
	requireDomainCode(t, err, "FORBIDDEN")
}

func TestStatsScopedByRole(t *testing.T) {
	env := newComplaintEnv(t)
	env.seedComplaint(domain.StatusPending, nil)
	env.seedComplaint(domain.StatusWorking, &env.officer.ID)
	env.seedComplaint(domain.StatusResolved, &env.officer.ID)

	adminStats, err := env.service.Stats(context.Background(), &env.admin)
	require.NoError(t, err)
	require.EqualValues(t, 3, adminStats.Total)
	require.EqualValues(t, 1, adminStats.Pending)
	require.EqualValues(t, 1, adminStats.InProgress)
	require.EqualValues(t, 1, adminStats.Resolved)
	require.Nil(t, adminStats.MyAssignedTask)

	officerStats, err := env.service.Stats(context.Background(), &env.officer)
	require.NoError(t, err)
	require.EqualValues(t, 2, officerStats.Total)
	require.NotNil(t, officerStats.MyAssignedTask)
	require.EqualValues(t, 2, *officerStats.MyAssignedTask)
}

func TestStatsOverviewCountsAccounts(t *testing.T) {
	env := newComplaintEnv(t)
	env.seedComplaint(domain.StatusPending, nil)

	overview, err := env.service.StatsOverview(context.Background(), &env.admin)
	require.NoError(t, err)
	require.EqualValues(t, 2, overview.TotalUsers)
	require.EqualValues(t, 1, overview.TotalOfficers)

	_, err = env.service.StatsOverview(context.Background(), &env.officer)
	requireDomainCode(t, err, "FORBIDDEN")
}

func TestPublicStatsResolutionRate(t *testing.T) {
	env := newComplaintEnv(t)
	for i := 0; i < 3; i++ {
		c := env.seedComplaint(domain.StatusPending, nil)
		stored := env.db.Complaints[c.ID]
		stored.IsPublic = true
		if i == 0 {
			stored.Status = domain.StatusResolved
		}
		env.db.Complaints[c.ID] = stored
	}

	stats, err := env.service.PublicStats(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 3, stats.TotalComplaints)
	require.EqualValues(t, 1, stats.ResolvedComplaints)
	require.InDelta(t, 100.0/3.0, stats.ResolutionRate, 0.01)
}

func TestTrackUnknownTicket(t *testing.T) {
	env := newComplaintEnv(t)

	_, _, _, err := env.service.Track(context.Background(), "PLN-2026-999999")
	requireDomainCode(t, err, "NOT_FOUND")
}

func TestDeleteAdminOnly(t *testing.T) {
	env := newComplaintEnv(t)
	seeded := env.seedComplaint(domain.StatusPending, nil)

	err := env.service.Delete(context.Background(), &env.officer, seeded.ID)
	requireDomainCode(t, err, "FORBIDDEN")

	require.NoError(t, env.service.Delete(context.Background(), &env.admin, seeded.ID))
	_, ok := env.db.Complaints[seeded.ID]
	require.False(t, ok)
}
