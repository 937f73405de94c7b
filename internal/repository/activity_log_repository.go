package repository

import (
	"context"

	"github.com/pln-care/complaint-service/internal/domain"
)

// ActivityLogRepository stores the append-only action audit. Nothing in the
// business logic reads these back; ListByUser exists for operators.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLog) error
	ListByUser(ctx context.Context, userID string, limit int) ([]domain.ActivityLog, error)
}

type activityLogRepository struct {
	db Querier
}

// NewActivityLogRepository builds repository.
func NewActivityLogRepository(db Querier) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *domain.ActivityLog) error {
	const query = `
        INSERT INTO activity_logs (user_id, action, details, ip_address)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return r.db.QueryRow(ctx, query,
		entry.UserID,
		entry.Action,
		entry.Details,
		entry.IPAddress,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *activityLogRepository) ListByUser(ctx context.Context, userID string, limit int) ([]domain.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	const query = `
        SELECT id, user_id, action, details, ip_address, created_at
        FROM activity_logs WHERE user_id=$1 ORDER BY created_at DESC LIMIT $2`
	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ActivityLog
	for rows.Next() {
		var entry domain.ActivityLog
		if err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Action,
			&entry.Details,
			&entry.IPAddress,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
