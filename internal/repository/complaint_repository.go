package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pln-care/complaint-service/internal/domain"
)

// ComplaintFilter captures complaint listing parameters.
type ComplaintFilter struct {
	Status     *domain.ComplaintStatus
	Statuses   []domain.ComplaintStatus
	Priority   *domain.ComplaintPriority
	AssignedTo *string
	IsPublic   *bool
	Limit      int
}

// ComplaintRepository encapsulates complaint persistence.
type ComplaintRepository interface {
	NextTicketSeq(ctx context.Context) (int64, error)
	Create(ctx context.Context, complaint *domain.Complaint) error
	Update(ctx context.Context, complaint *domain.Complaint) error
	GetByID(ctx context.Context, id string) (*domain.Complaint, error)
	GetByTicketNumber(ctx context.Context, ticketNumber string) (*domain.Complaint, error)
	List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error)
	Count(ctx context.Context, filter ComplaintFilter) (int64, error)
	Delete(ctx context.Context, id string) error
}

type complaintRepository struct {
	db Querier
}

// NewComplaintRepository instantiates repository.
func NewComplaintRepository(db Querier) ComplaintRepository {
	return &complaintRepository{db: db}
}

const complaintSelect = `
        SELECT c.id, c.ticket_number, c.title, c.description, c.location,
               c.latitude, c.longitude, c.priority, c.status, c.is_public,
               c.reporter_id, c.reporter_name, c.reporter_email, c.reporter_phone,
               c.assigned_to, c.images, c.created_at, c.updated_at, c.assigned_at, c.resolved_at,
               r.name, r.email, r.phone,
               o.name, o.email, o.phone
        FROM complaints c
        LEFT JOIN users r ON r.id = c.reporter_id
        LEFT JOIN users o ON o.id = c.assigned_to`

func (r *complaintRepository) NextTicketSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.db.QueryRow(ctx, `SELECT nextval('complaint_ticket_seq')`).Scan(&seq); err != nil {
		return 0, err
	}
	return seq, nil
}

func (r *complaintRepository) Create(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        INSERT INTO complaints (ticket_number, title, description, location, latitude, longitude,
            priority, status, is_public, reporter_id, reporter_name, reporter_email, reporter_phone,
            assigned_to, images)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING id, created_at, updated_at`
	return r.db.QueryRow(ctx, query,
		complaint.TicketNumber,
		complaint.Title,
		complaint.Description,
		complaint.Location,
		complaint.Latitude,
		complaint.Longitude,
		complaint.Priority,
		complaint.Status,
		complaint.IsPublic,
		complaint.ReporterID,
		complaint.ReporterName,
		complaint.ReporterEmail,
		complaint.ReporterPhone,
		complaint.AssignedTo,
		complaint.Images,
	).Scan(&complaint.ID, &complaint.CreatedAt, &complaint.UpdatedAt)
}

// Update persists every mutable column; ticket_number, is_public and the
// reporter identity are immutable after creation.
func (r *complaintRepository) Update(ctx context.Context, complaint *domain.Complaint) error {
	const query = `
        UPDATE complaints SET title=$1, description=$2, location=$3, latitude=$4, longitude=$5,
            priority=$6, status=$7, assigned_to=$8, images=$9, assigned_at=$10, resolved_at=$11,
            updated_at=NOW()
        WHERE id=$12`
	cmd, err := r.db.Exec(ctx, query,
		complaint.Title,
		complaint.Description,
		complaint.Location,
		complaint.Latitude,
		complaint.Longitude,
		complaint.Priority,
		complaint.Status,
		complaint.AssignedTo,
		complaint.Images,
		complaint.AssignedAt,
		complaint.ResolvedAt,
		complaint.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *complaintRepository) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	return r.fetchSingle(ctx, complaintSelect+` WHERE c.id=$1`, id)
}

func (r *complaintRepository) GetByTicketNumber(ctx context.Context, ticketNumber string) (*domain.Complaint, error) {
	return r.fetchSingle(ctx, complaintSelect+` WHERE c.ticket_number=$1`, ticketNumber)
}

func (r *complaintRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Complaint, error) {
	row := r.db.QueryRow(ctx, query, arg)
	complaint, err := scanComplaint(row)
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

func (r *complaintRepository) List(ctx context.Context, filter ComplaintFilter) ([]domain.Complaint, error) {
	clauses, args := complaintFilterClauses(filter)
	query := fmt.Sprintf(`%s WHERE %s ORDER BY c.created_at DESC`, complaintSelect, strings.Join(clauses, " AND "))
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Complaint
	for rows.Next() {
		complaint, err := scanComplaint(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *complaint)
	}
	return result, rows.Err()
}

func (r *complaintRepository) Count(ctx context.Context, filter ComplaintFilter) (int64, error) {
	clauses, args := complaintFilterClauses(filter)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM complaints c WHERE %s`, strings.Join(clauses, " AND "))

	var count int64
	if err := r.db.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *complaintRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.db.Exec(ctx, `DELETE FROM complaints WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func complaintFilterClauses(filter ComplaintFilter) ([]string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("c.status=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("c.status IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		clauses = append(clauses, fmt.Sprintf("c.priority=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("c.assigned_to=$%d", len(args)))
	}
	if filter.IsPublic != nil {
		args = append(args, *filter.IsPublic)
		clauses = append(clauses, fmt.Sprintf("c.is_public=$%d", len(args)))
	}
	return clauses, args
}

func scanComplaint(row pgx.Row) (*domain.Complaint, error) {
	var (
		complaint                          domain.Complaint
		reporterName, reporterEmail        *string
		reporterPhone                      *string
		officerName, officerEmail          *string
		officerPhone                       *string
	)
	if err := row.Scan(
		&complaint.ID,
		&complaint.TicketNumber,
		&complaint.Title,
		&complaint.Description,
		&complaint.Location,
		&complaint.Latitude,
		&complaint.Longitude,
		&complaint.Priority,
		&complaint.Status,
		&complaint.IsPublic,
		&complaint.ReporterID,
		&complaint.ReporterName,
		&complaint.ReporterEmail,
		&complaint.ReporterPhone,
		&complaint.AssignedTo,
		&complaint.Images,
		&complaint.CreatedAt,
		&complaint.UpdatedAt,
		&complaint.AssignedAt,
		&complaint.ResolvedAt,
		&reporterName,
		&reporterEmail,
		&reporterPhone,
		&officerName,
		&officerEmail,
		&officerPhone,
	); err != nil {
		return nil, err
	}
	if complaint.ReporterID != nil && reporterName != nil {
		complaint.Reporter = &domain.UserRef{
			ID:    *complaint.ReporterID,
			Name:  *reporterName,
			Email: derefString(reporterEmail),
			Phone: reporterPhone,
		}
	}
	if complaint.AssignedTo != nil && officerName != nil {
		complaint.Officer = &domain.UserRef{
			ID:    *complaint.AssignedTo,
			Name:  *officerName,
			Email: derefString(officerEmail),
			Phone: officerPhone,
		}
	}
	return &complaint, nil
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
