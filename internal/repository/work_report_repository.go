package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/pln-care/complaint-service/internal/domain"
)

// WorkReportFilter captures work report listing parameters.
type WorkReportFilter struct {
	ReviewStatus *domain.ReviewStatus
	ComplaintID  *string
	AssignedTo   *string
}

// WorkReportRepository encapsulates work report persistence.
type WorkReportRepository interface {
	Create(ctx context.Context, report *domain.WorkReport) error
	Update(ctx context.Context, report *domain.WorkReport) error
	GetByID(ctx context.Context, id string) (*domain.WorkReport, error)
	GetByComplaintID(ctx context.Context, complaintID string) (*domain.WorkReport, error)
	List(ctx context.Context, filter WorkReportFilter) ([]domain.WorkReport, error)
}

type workReportRepository struct {
	db Querier
}

// NewWorkReportRepository instantiates repository.
func NewWorkReportRepository(db Querier) WorkReportRepository {
	return &workReportRepository{db: db}
}

const workReportColumns = `
        w.id, w.complaint_id, w.work_start_time, w.work_end_time, w.work_description,
        w.materials_used, w.labor_cost, w.material_cost, w.total_cost, w.notes,
        w.technician_notes, w.before_photos, w.after_photos, w.review_status,
        w.review_notes, w.reviewed_by, w.reviewed_at, w.submitted_at, w.updated_at`

func (r *workReportRepository) Create(ctx context.Context, report *domain.WorkReport) error {
	const query = `
        INSERT INTO work_reports (complaint_id, work_start_time, work_end_time, work_description,
            materials_used, labor_cost, material_cost, total_cost, notes, technician_notes,
            before_photos, after_photos, review_status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
        RETURNING id, submitted_at, updated_at`
	return r.db.QueryRow(ctx, query,
		report.ComplaintID,
		report.WorkStartTime,
		report.WorkEndTime,
		report.WorkDescription,
		report.MaterialsUsed,
		report.LaborCost,
		report.MaterialCost,
		report.TotalCost,
		report.Notes,
		report.TechnicianNotes,
		report.BeforePhotos,
		report.AfterPhotos,
		report.ReviewStatus,
	).Scan(&report.ID, &report.SubmittedAt, &report.UpdatedAt)
}

func (r *workReportRepository) Update(ctx context.Context, report *domain.WorkReport) error {
	const query = `
        UPDATE work_reports SET work_start_time=$1, work_end_time=$2, work_description=$3,
            materials_used=$4, labor_cost=$5, material_cost=$6, total_cost=$7, notes=$8,
            technician_notes=$9, before_photos=$10, after_photos=$11, review_status=$12,
            review_notes=$13, reviewed_by=$14, reviewed_at=$15, updated_at=NOW()
        WHERE id=$16`
	cmd, err := r.db.Exec(ctx, query,
		report.WorkStartTime,
		report.WorkEndTime,
		report.WorkDescription,
		report.MaterialsUsed,
		report.LaborCost,
		report.MaterialCost,
		report.TotalCost,
		report.Notes,
		report.TechnicianNotes,
		report.BeforePhotos,
		report.AfterPhotos,
		report.ReviewStatus,
		report.ReviewNotes,
		report.ReviewedBy,
		report.ReviewedAt,
		report.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *workReportRepository) GetByID(ctx context.Context, id string) (*domain.WorkReport, error) {
	return r.fetchSingle(ctx, `WHERE w.id=$1`, id)
}

func (r *workReportRepository) GetByComplaintID(ctx context.Context, complaintID string) (*domain.WorkReport, error) {
	return r.fetchSingle(ctx, `WHERE w.complaint_id=$1`, complaintID)
}

func (r *workReportRepository) fetchSingle(ctx context.Context, where string, arg any) (*domain.WorkReport, error) {
	query := fmt.Sprintf(`SELECT %s, rv.name, rv.email FROM work_reports w
        LEFT JOIN users rv ON rv.id = w.reviewed_by %s`, workReportColumns, where)
	row := r.db.QueryRow(ctx, query, arg)
	return scanWorkReport(row)
}

func (r *workReportRepository) List(ctx context.Context, filter WorkReportFilter) ([]domain.WorkReport, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.ReviewStatus != nil {
		args = append(args, *filter.ReviewStatus)
		clauses = append(clauses, fmt.Sprintf("w.review_status=$%d", len(args)))
	}
	if filter.ComplaintID != nil {
		args = append(args, *filter.ComplaintID)
		clauses = append(clauses, fmt.Sprintf("w.complaint_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("c.assigned_to=$%d", len(args)))
	}

	query := fmt.Sprintf(`SELECT %s, rv.name, rv.email FROM work_reports w
        JOIN complaints c ON c.id = w.complaint_id
        LEFT JOIN users rv ON rv.id = w.reviewed_by
        WHERE %s ORDER BY w.submitted_at DESC`, workReportColumns, strings.Join(clauses, " AND "))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.WorkReport
	for rows.Next() {
		report, err := scanWorkReport(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *report)
	}
	return result, rows.Err()
}

func scanWorkReport(row pgx.Row) (*domain.WorkReport, error) {
	var (
		report                      domain.WorkReport
		reviewerName, reviewerEmail *string
	)
	if err := row.Scan(
		&report.ID,
		&report.ComplaintID,
		&report.WorkStartTime,
		&report.WorkEndTime,
		&report.WorkDescription,
		&report.MaterialsUsed,
		&report.LaborCost,
		&report.MaterialCost,
		&report.TotalCost,
		&report.Notes,
		&report.TechnicianNotes,
		&report.BeforePhotos,
		&report.AfterPhotos,
		&report.ReviewStatus,
		&report.ReviewNotes,
		&report.ReviewedBy,
		&report.ReviewedAt,
		&report.SubmittedAt,
		&report.UpdatedAt,
		&reviewerName,
		&reviewerEmail,
	); err != nil {
		return nil, err
	}
	if report.ReviewedBy != nil && reviewerName != nil {
		report.Reviewer = &domain.UserRef{
			ID:    *report.ReviewedBy,
			Name:  *reviewerName,
			Email: derefString(reviewerEmail),
		}
	}
	return &report, nil
}
