package lifecycle

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pln-care/complaint-service/internal/domain"
)

var allStatuses = []domain.ComplaintStatus{
	domain.StatusPending,
	domain.StatusReviewed,
	domain.StatusAssigned,
	domain.StatusOnTheWay,
	domain.StatusWorking,
	domain.StatusCompleted,
	domain.StatusApproved,
	domain.StatusResolved,
	domain.StatusRevisionNeeded,
	domain.StatusRejected,
	domain.StatusCancelled,
}

func TestTransitionTableCoversEveryStatus(t *testing.T) {
	for _, status := range allStatuses {
		_, ok := allowedTransitions[status]
		require.True(t, ok, "missing transition entry for %s", status)
	}
	require.Len(t, allowedTransitions, len(allStatuses))
}

func TestTransitionTargetsAreValidStatuses(t *testing.T) {
	for from, targets := range allowedTransitions {
		for _, to := range targets {
			require.True(t, to.Valid(), "%s -> %s targets unknown status", from, to)
			require.NotEqual(t, from, to, "%s allows a self transition", from)
		}
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []domain.ComplaintStatus{domain.StatusResolved, domain.StatusRejected, domain.StatusCancelled} {
		require.True(t, Terminal(terminal))
		for _, next := range allStatuses {
			require.False(t, CanTransition(terminal, next), "%s -> %s should be impossible", terminal, next)
		}
	}
}

func TestHappyPathChain(t *testing.T) {
	chain := []domain.ComplaintStatus{
		domain.StatusPending,
		domain.StatusReviewed,
		domain.StatusAssigned,
		domain.StatusOnTheWay,
		domain.StatusWorking,
		domain.StatusCompleted,
		domain.StatusApproved,
		domain.StatusResolved,
	}
	for i := 0; i < len(chain)-1; i++ {
		require.True(t, CanTransition(chain[i], chain[i+1]), "%s -> %s", chain[i], chain[i+1])
	}
}

func TestRevisionLoop(t *testing.T) {
	require.True(t, CanTransition(domain.StatusCompleted, domain.StatusRevisionNeeded))
	require.True(t, CanTransition(domain.StatusRevisionNeeded, domain.StatusCompleted))
	require.False(t, CanTransition(domain.StatusRevisionNeeded, domain.StatusResolved))
}

func officerWith(id string) *domain.User {
	return &domain.User{ID: id, Role: domain.RolePetugasLapangan, IsActive: true}
}

func adminUser() *domain.User {
	return &domain.User{ID: "admin-1", Role: domain.RoleAdminUtama, IsActive: true}
}

func TestAuthorizeAdminAnyValidTransition(t *testing.T) {
	complaint := &domain.Complaint{Status: domain.StatusPending}
	require.NoError(t, Authorize(adminUser(), complaint, domain.StatusReviewed))
	require.Error(t, Authorize(adminUser(), complaint, domain.StatusWorking))
}

func TestAuthorizeOfficerAssignmentScoped(t *testing.T) {
	officerID := "officer-1"
	complaint := &domain.Complaint{Status: domain.StatusAssigned, AssignedTo: &officerID}

	require.NoError(t, Authorize(officerWith(officerID), complaint, domain.StatusOnTheWay))
	require.Error(t, Authorize(officerWith("someone-else"), complaint, domain.StatusOnTheWay))

	// Officers never drive admin transitions, even on their own complaints.
	require.Error(t, Authorize(officerWith(officerID), complaint, domain.StatusCancelled))
}

func TestAuthorizeSupervisorHasNoLifecycleRights(t *testing.T) {
	officerID := "officer-1"
	complaint := &domain.Complaint{Status: domain.StatusAssigned, AssignedTo: &officerID}
	supervisor := &domain.User{ID: "spv-1", Role: domain.RoleSupervisor, IsActive: true}
	require.Error(t, Authorize(supervisor, complaint, domain.StatusOnTheWay))
}

func TestAuthorizeRejectsUnknownStatus(t *testing.T) {
	complaint := &domain.Complaint{Status: domain.StatusPending}
	require.Error(t, Authorize(adminUser(), complaint, domain.ComplaintStatus("DONE")))
}

func TestApplySetsResolvedAtOnlyOnResolved(t *testing.T) {
	now := time.Now()
	complaint := &domain.Complaint{Status: domain.StatusApproved}
	Apply(complaint, domain.StatusResolved, now)
	require.NotNil(t, complaint.ResolvedAt)
	require.Equal(t, now, *complaint.ResolvedAt)

	other := &domain.Complaint{Status: domain.StatusPending}
	Apply(other, domain.StatusReviewed, now)
	require.Nil(t, other.ResolvedAt)
}

func TestApplySetsAssignedAt(t *testing.T) {
	now := time.Now()
	complaint := &domain.Complaint{Status: domain.StatusPending}
	Apply(complaint, domain.StatusAssigned, now)
	require.NotNil(t, complaint.AssignedAt)
	require.Equal(t, now, *complaint.AssignedAt)
}

func TestCanReadScoping(t *testing.T) {
	officerID := "officer-1"
	complaint := &domain.Complaint{Status: domain.StatusAssigned, AssignedTo: &officerID}

	require.True(t, CanRead(adminUser(), complaint))
	require.True(t, CanRead(officerWith(officerID), complaint))
	require.False(t, CanRead(officerWith("someone-else"), complaint))
	require.False(t, CanRead(nil, complaint))
}

func TestReviewVerdictMapping(t *testing.T) {
	status, message, err := ReviewVerdict(domain.ReviewApproved, "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusResolved, status)
	require.Equal(t, "Laporan pekerjaan telah disetujui. Pekerjaan selesai.", message)

	status, message, err = ReviewVerdict(domain.ReviewRevisionNeeded, "kurang rapi")
	require.NoError(t, err)
	require.Equal(t, domain.StatusRevisionNeeded, status)
	require.Equal(t, "Laporan pekerjaan perlu revisi. Catatan: kurang rapi", message)

	status, message, err = ReviewVerdict(domain.ReviewRejected, "")
	require.NoError(t, err)
	require.Equal(t, domain.StatusRejected, status)
	require.Equal(t, "Laporan pekerjaan ditolak. Alasan: Tidak ada alasan", message)

	_, _, err = ReviewVerdict(domain.ReviewPending, "")
	require.Error(t, err)
}
