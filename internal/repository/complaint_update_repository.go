package repository

import (
	"context"

	"github.com/pln-care/complaint-service/internal/domain"
)

// ComplaintUpdateRepository stores the append-only complaint timeline.
type ComplaintUpdateRepository interface {
	Create(ctx context.Context, update *domain.ComplaintUpdate) error
	ListByComplaint(ctx context.Context, complaintID string) ([]domain.ComplaintUpdate, error)
}

type complaintUpdateRepository struct {
	db Querier
}

// NewComplaintUpdateRepository builds repository.
func NewComplaintUpdateRepository(db Querier) ComplaintUpdateRepository {
	return &complaintUpdateRepository{db: db}
}

func (r *complaintUpdateRepository) Create(ctx context.Context, update *domain.ComplaintUpdate) error {
	const query = `
        INSERT INTO complaint_updates (complaint_id, message, status)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		update.ComplaintID,
		update.Message,
		update.Status,
	).Scan(&update.ID, &update.CreatedAt)
}

func (r *complaintUpdateRepository) ListByComplaint(ctx context.Context, complaintID string) ([]domain.ComplaintUpdate, error) {
	const query = `
        SELECT id, complaint_id, message, status, created_at
        FROM complaint_updates WHERE complaint_id=$1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, complaintID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ComplaintUpdate
	for rows.Next() {
		var update domain.ComplaintUpdate
		if err := rows.Scan(
			&update.ID,
			&update.ComplaintID,
			&update.Message,
			&update.Status,
			&update.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, update)
	}
	return result, rows.Err()
}
