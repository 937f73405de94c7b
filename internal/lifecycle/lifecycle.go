// Package lifecycle is the rules engine for the complaint status machine:
// which transitions exist, who may drive them, and which timestamps move
// when they are applied. It holds no state and touches no storage; services
// consult it before writing anything.
package lifecycle

import (
	"time"

	"github.com/pln-care/complaint-service/internal/domain"
	apperrors "github.com/pln-care/complaint-service/pkg/util"
)

var allowedTransitions = map[domain.ComplaintStatus][]domain.ComplaintStatus{
	domain.StatusPending:        {domain.StatusReviewed, domain.StatusAssigned, domain.StatusRejected, domain.StatusCancelled},
	domain.StatusReviewed:       {domain.StatusAssigned, domain.StatusRejected, domain.StatusCancelled},
	domain.StatusAssigned:       {domain.StatusOnTheWay, domain.StatusCancelled},
	domain.StatusOnTheWay:       {domain.StatusWorking, domain.StatusCancelled},
	domain.StatusWorking:        {domain.StatusCompleted, domain.StatusCancelled},
	domain.StatusCompleted:      {domain.StatusApproved, domain.StatusResolved, domain.StatusRevisionNeeded, domain.StatusRejected},
	domain.StatusApproved:       {domain.StatusResolved},
	domain.StatusRevisionNeeded: {domain.StatusCompleted, domain.StatusCancelled},
	domain.StatusResolved:       {},
	domain.StatusRejected:       {},
	domain.StatusCancelled:      {},
}

// Statuses an assigned officer may move a complaint into. Everything else is
// admin territory.
var officerTransitions = map[domain.ComplaintStatus]struct{}{
	domain.StatusOnTheWay:  {},
	domain.StatusWorking:   {},
	domain.StatusCompleted: {},
}

// CanTransition reports whether next is reachable from current.
func CanTransition(current, next domain.ComplaintStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Terminal reports whether the status has no outgoing transitions.
func Terminal(status domain.ComplaintStatus) bool {
	return len(allowedTransitions[status]) == 0
}

// CanRead reports whether the actor may read the complaint at all. Officers
// are limited to complaints assigned to them.
func CanRead(actor *domain.User, complaint *domain.Complaint) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case domain.RoleAdminUtama:
		return true
	case domain.RolePetugasLapangan:
		return complaint.AssignedTo != nil && *complaint.AssignedTo == actor.ID
	default:
		return false
	}
}

// Authorize decides whether the actor may move the complaint to next. The
// transition itself must also be valid; both checks run before any write.
func Authorize(actor *domain.User, complaint *domain.Complaint, next domain.ComplaintStatus) error {
	if actor == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if !next.Valid() {
		return apperrors.NewValidationError("invalid status", map[string]any{"status": next})
	}
	if !CanTransition(complaint.Status, next) {
		return apperrors.NewValidationError("invalid status transition", map[string]any{
			"from": complaint.Status,
			"to":   next,
		})
	}
	switch actor.Role {
	case domain.RoleAdminUtama:
		return nil
	case domain.RolePetugasLapangan:
		if complaint.AssignedTo == nil || *complaint.AssignedTo != actor.ID {
			return apperrors.NewForbidden("access denied")
		}
		if _, ok := officerTransitions[next]; !ok {
			return apperrors.NewForbidden("access denied")
		}
		return nil
	default:
		return apperrors.NewForbidden("access denied")
	}
}

// Apply mutates the complaint's status and dependent timestamps. ResolvedAt
// is set exactly when entering RESOLVED and cleared when leaving it; no
// other path touches it.
func Apply(complaint *domain.Complaint, next domain.ComplaintStatus, now time.Time) {
	prev := complaint.Status
	complaint.Status = next

	if next == domain.StatusResolved {
		resolved := now
		complaint.ResolvedAt = &resolved
	} else if prev == domain.StatusResolved {
		complaint.ResolvedAt = nil
	}
	if next == domain.StatusAssigned {
		assigned := now
		complaint.AssignedAt = &assigned
	}
	complaint.UpdatedAt = now
}

// ReviewVerdict maps an admin review outcome to the complaint status it
// drives and the timeline message recorded alongside it.
func ReviewVerdict(outcome domain.ReviewStatus, reviewNotes string) (domain.ComplaintStatus, string, error) {
	switch outcome {
	case domain.ReviewApproved:
		return domain.StatusResolved, "Laporan pekerjaan telah disetujui. Pekerjaan selesai.", nil
	case domain.ReviewRevisionNeeded:
		if reviewNotes == "" {
			reviewNotes = "Tidak ada catatan"
		}
		return domain.StatusRevisionNeeded, "Laporan pekerjaan perlu revisi. Catatan: " + reviewNotes, nil
	case domain.ReviewRejected:
		if reviewNotes == "" {
			reviewNotes = "Tidak ada alasan"
		}
		return domain.StatusRejected, "Laporan pekerjaan ditolak. Alasan: " + reviewNotes, nil
	default:
		return "", "", apperrors.NewValidationError("invalid status", map[string]any{"review_status": outcome})
	}
}
