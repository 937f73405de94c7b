// Package repositorytest provides an in-memory implementation of the
// repository interfaces for tests. The Atomic implementation clones the
// store per transaction and swaps the clone in on commit, so a failed
// transaction really does leave no trace. Failed statements poison the
// rest of the transaction the way Postgres does (SQLSTATE 25P02), so code
// under test cannot lean on statement-level recovery inside one transaction.
package repositorytest

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/pln-care/complaint-service/internal/domain"
	"github.com/pln-care/complaint-service/internal/repository"
)

// DB is an in-memory stand-in for the Postgres schema.
type DB struct {
	Users      map[string]domain.User
	Complaints map[string]domain.Complaint
	Updates    []domain.ComplaintUpdate
	Reports    map[string]domain.WorkReport
	Logs       []domain.ActivityLog
	Seq        int64

	root    *DB
	aborted bool
}

// New returns an empty store.
func New() *DB {
	return &DB{
		Users:      map[string]domain.User{},
		Complaints: map[string]domain.Complaint{},
		Reports:    map[string]domain.WorkReport{},
	}
}

// Repos returns repository implementations bound to the store.
func (db *DB) Repos() repository.Repos {
	return repository.Repos{
		Users:        &memUsers{db},
		Complaints:   &memComplaints{db},
		Updates:      &memUpdates{db},
		WorkReports:  &memReports{db},
		ActivityLogs: &memLogs{db},
	}
}

// Atomic returns a transaction runner over the store.
func (db *DB) Atomic() repository.Atomic {
	return &memAtomic{db: db}
}

// AddUser seeds an account, filling id and timestamps.
func (db *DB) AddUser(user domain.User) domain.User {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	user.UpdatedAt = user.CreatedAt
	db.Users[user.ID] = user
	return user
}

// AddComplaint seeds a complaint, filling id and timestamps.
func (db *DB) AddComplaint(c domain.Complaint) domain.Complaint {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	c.UpdatedAt = c.CreatedAt
	db.Complaints[c.ID] = c
	return c
}

func (db *DB) clone() *DB {
	out := New()
	out.root = db
	for k, v := range db.Users {
		out.Users[k] = v
	}
	for k, v := range db.Complaints {
		out.Complaints[k] = v
	}
	for k, v := range db.Reports {
		out.Reports[k] = v
	}
	out.Updates = append(out.Updates, db.Updates...)
	out.Logs = append(out.Logs, db.Logs...)
	return out
}

// copyFrom installs a committed clone's data. Seq is not copied: sequence
// values are allocated on the root store, like nextval in Postgres.
func (db *DB) copyFrom(other *DB) {
	db.Users = other.Users
	db.Complaints = other.Complaints
	db.Updates = other.Updates
	db.Reports = other.Reports
	db.Logs = other.Logs
}

// guard mirrors Postgres transaction semantics: after any failed statement
// every further statement in the same transaction errors until rollback.
func (db *DB) guard() error {
	if db.aborted {
		return &pgconn.PgError{
			Code:    "25P02",
			Message: "current transaction is aborted, commands ignored until end of transaction block",
		}
	}
	return nil
}

// fail marks the transaction aborted. Only real SQL errors abort a
// transaction; pgx.ErrNoRows is a client-side condition and must not.
func (db *DB) fail(err error) error {
	if db.root != nil {
		db.aborted = true
	}
	return err
}

type memAtomic struct {
	db *DB
}

func (a *memAtomic) InTx(ctx context.Context, fn func(repository.Repos) error) error {
	tx := a.db.clone()
	if err := fn(tx.Repos()); err != nil {
		return err
	}
	a.db.copyFrom(tx)
	return nil
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

type memUsers struct{ db *DB }

func (r *memUsers) Create(ctx context.Context, user *domain.User) error {
	if err := r.db.guard(); err != nil {
		return err
	}
	for _, existing := range r.db.Users {
		if strings.EqualFold(existing.Email, user.Email) {
			return r.db.fail(uniqueViolation("users_email_key"))
		}
	}
	*user = r.db.AddUser(*user)
	return nil
}

func (r *memUsers) Update(ctx context.Context, user *domain.User) error {
	if err := r.db.guard(); err != nil {
		return err
	}
	if _, ok := r.db.Users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	user.UpdatedAt = time.Now()
	r.db.Users[user.ID] = *user
	return nil
}

func (r *memUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := r.db.guard(); err != nil {
		return nil, err
	}
	user, ok := r.db.Users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (r *memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if err := r.db.guard(); err != nil {
		return nil, err
	}
	for _, user := range r.db.Users {
		if strings.EqualFold(user.Email, email) {
			out := user
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUsers) List(ctx context.Context, filter repository.UserFilter) ([]domain.User, error) {
	if err := r.db.guard(); err != nil {
		return nil, err
	}
	out := []domain.User{}
	for _, user := range r.db.Users {
		if matchUser(user, filter) {
			out = append(out, user)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memUsers) Count(ctx context.Context, filter repository.UserFilter) (int64, error) {
	if err := r.db.guard(); err != nil {
		return 0, err
	}
	var count int64
	for _, user := range r.db.Users {
		if matchUser(user, filter) {
			count++
		}
	}
	return count, nil
}

func (r *memUsers) Delete(ctx context.Context, id string) error {
	if err := r.db.guard(); err != nil {
		return err
	}
	if _, ok := r.db.Users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.db.Users, id)
	return nil
}

func matchUser(user domain.User, filter repository.UserFilter) bool {
	if filter.Role != nil && user.Role != *filter.Role {
		return false
	}
	if filter.IsActive != nil && user.IsActive != *filter.IsActive {
		return false
	}
	return true
}

type memComplaints struct{ db *DB }

func (r *memComplaints) NextTicketSeq(ctx context.Context) (int64, error) {
	if err := r.db.guard(); err != nil {
		return 0, err
	}
	// Sequence values come from the root store and survive rollback, the
	// way nextval does; a retried transaction gets a fresh value.
	db := r.db
	if db.root != nil {
		db = db.root
	}
	db.Seq++
	return db.Seq, nil
}

func (r *memComplaints) Create(ctx context.Context, c *domain.Complaint) error {
	if err := r.db.guard(); err != nil {
		return err
	}
	for _, existing := range r.db.Complaints {
		if existing.TicketNumber == c.TicketNumber {
			return r.db.fail(uniqueViolation("complaints_ticket_number_key"))
		}
	}
	*c = r.db.AddComplaint(*c)
	return nil
}

func (r *memComplaints) Update(ctx context.Context, c *domain.Complaint) error {
	if err := r.db.guard(); err != nil {
		return err
	}
	existing, ok := r.db.Complaints[c.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	// Immutable columns stay as written at creation.
	c.TicketNumber = existing.TicketNumber
	c.IsPublic = existing.IsPublic
	c.CreatedAt = existing.CreatedAt
	r.db.Complaints[c.ID] = *c
	return nil
}

func (r *memComplaints) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	if err := r.db.guard(); err != nil {
		return nil, err
	}
	c, ok := r.db.Complaints[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	r.loadRefs(&c)
	return &c, nil
}

func (r *memComplaints) GetByTicketNumber(ctx context.Context, ticketNumber string) (*domain.Complaint, error) {
	if err := r.db.guard(); err != nil {
		return nil, err
	}
	for _, c := range r.db.Complaints {
		if c.TicketNumber == ticketNumber {
			out := c
			r.loadRefs(&out)
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memComplaints) List(ctx context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	if err := r.db.guard(); err != nil {
		return nil, err
	}
	out := []domain.Complaint{}
	for _, c := range r.db.Complaints {
		if matchComplaint(c, filter) {
			r.loadRefs(&c)
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (r *memComplaints) Count(ctx context.Context, filter repository.ComplaintFilter) (int64, error) {
	if err := r.db.guard(); err != nil {
		return 0, err
	}
	var count int64
	for _, c := range r.db.Complaints {
		if matchComplaint(c, filter) {
			count++
		}
	}
	return count, nil
}

func (r *memComplaints) Delete(ctx context.Context, id string) error {
	if err := r.db.guard(); err != nil {
		return err
	}
	if _, ok := r.db.Complaints[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.db.Complaints, id)
	return nil
}

func (r *memComplaints) loadRefs(c *domain.Complaint) {
	if c.ReporterID != nil {
		if user, ok := r.db.Users[*c.ReporterID]; ok {
			c.Reporter = &domain.UserRef{ID: user.ID, Name: user.Name, Email: user.Email, Phone: user.Phone}
		}
	}
	if c.AssignedTo != nil {
		if user, ok := r.db.Users[*c.AssignedTo]; ok {
			c.Officer = &domain.UserRef{ID: user.ID, Name: user.Name, Email: user.Email, Phone: user.Phone}
		}
	}
}

func matchComplaint(c domain.Complaint, filter repository.ComplaintFilter) bool {
	if filter.Status != nil && c.Status != *filter.Status {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, status := range filter.Statuses {
			if c.Status == status {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.Priority != nil && c.Priority != *filter.Priority {
		return false
	}
	if filter.AssignedTo != nil && (c.AssignedTo == nil || *c.AssignedTo != *filter.AssignedTo) {
		return false
	}
	if filter.IsPublic != nil && c.IsPublic != *filter.IsPublic {
		return false
	}
	return true
}

type memUpdates struct{ db *DB }

func (r *memUpdates) Create(ctx context.Context, update *domain.ComplaintUpdate) error {
	if err := r.db.guard(); err != nil {
		return err
	}
	update.ID = uuid.NewString()
	update.CreatedAt = time.Now()
	r.db.Updates = append(r.db.Updates, *update)
	return nil
}

func (r *memUpdates) ListByComplaint(ctx context.Context, complaintID string) ([]domain.ComplaintUpdate, error) {
	if err := r.db.guard(); err != nil {
		return nil, err
	}
	out := []domain.ComplaintUpdate{}
	for _, update := range r.db.Updates {
		if update.ComplaintID == complaintID {
			out = append(out, update)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type memReports struct{ db *DB }

func (r *memReports) Create(ctx context.Context, report *domain.WorkReport) error {
	if err := r.db.guard(); err != nil {
		return err
	}
	for _, existing := range r.db.Reports {
		if existing.ComplaintID == report.ComplaintID {
			return r.db.fail(uniqueViolation("work_reports_complaint_id_key"))
		}
	}
	report.ID = uuid.NewString()
	report.SubmittedAt = time.Now()
	report.UpdatedAt = report.SubmittedAt
	r.db.Reports[report.ID] = *report
	return nil
}

func (r *memReports) Update(ctx context.Context, report *domain.WorkReport) error {
	if err := r.db.guard(); err != nil {
		return err
	}
	if _, ok := r.db.Reports[report.ID]; !ok {
		return pgx.ErrNoRows
	}
	report.UpdatedAt = time.Now()
	r.db.Reports[report.ID] = *report
	return nil
}

func (r *memReports) GetByID(ctx context.Context, id string) (*domain.WorkReport, error) {
	if err := r.db.guard(); err != nil {
		return nil, err
	}
	report, ok := r.db.Reports[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &report, nil
}

func (r *memReports) GetByComplaintID(ctx context.Context, complaintID string) (*domain.WorkReport, error) {
	if err := r.db.guard(); err != nil {
		return nil, err
	}
	for _, report := range r.db.Reports {
		if report.ComplaintID == complaintID {
			out := report
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memReports) List(ctx context.Context, filter repository.WorkReportFilter) ([]domain.WorkReport, error) {
	if err := r.db.guard(); err != nil {
		return nil, err
	}
	out := []domain.WorkReport{}
	for _, report := range r.db.Reports {
		if filter.ReviewStatus != nil && report.ReviewStatus != *filter.ReviewStatus {
			continue
		}
		if filter.ComplaintID != nil && report.ComplaintID != *filter.ComplaintID {
			continue
		}
		if filter.AssignedTo != nil {
			complaint, ok := r.db.Complaints[report.ComplaintID]
			if !ok || complaint.AssignedTo == nil || *complaint.AssignedTo != *filter.AssignedTo {
				continue
			}
		}
		out = append(out, report)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

type memLogs struct{ db *DB }

func (r *memLogs) Create(ctx context.Context, entry *domain.ActivityLog) error {
	if err := r.db.guard(); err != nil {
		return err
	}
	entry.ID = uuid.NewString()
	entry.CreatedAt = time.Now()
	r.db.Logs = append(r.db.Logs, *entry)
	return nil
}

func (r *memLogs) ListByUser(ctx context.Context, userID string, limit int) ([]domain.ActivityLog, error) {
	if err := r.db.guard(); err != nil {
		return nil, err
	}
	out := []domain.ActivityLog{}
	for _, entry := range r.db.Logs {
		if entry.UserID != nil && *entry.UserID == userID {
			out = append(out, entry)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
