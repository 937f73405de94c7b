package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repos bundles every repository over a shared Querier. Multi-step writes
// (complaint row + audit update + activity log) always go through a
// transaction-bound Repos so partial audit trails cannot be persisted.
type Repos struct {
	Users        UserRepository
	Complaints   ComplaintRepository
	Updates      ComplaintUpdateRepository
	WorkReports  WorkReportRepository
	ActivityLogs ActivityLogRepository
}

// NewRepos builds a Repos bound to db.
func NewRepos(db Querier) Repos {
	return Repos{
		Users:        NewUserRepository(db),
		Complaints:   NewComplaintRepository(db),
		Updates:      NewComplaintUpdateRepository(db),
		WorkReports:  NewWorkReportRepository(db),
		ActivityLogs: NewActivityLogRepository(db),
	}
}

// Atomic runs a unit of work against transaction-bound repositories.
type Atomic interface {
	InTx(ctx context.Context, fn func(Repos) error) error
}

type pgxAtomic struct {
	pool *pgxpool.Pool
}

// NewAtomic returns a pgx-backed Atomic over the pool.
func NewAtomic(pool *pgxpool.Pool) Atomic {
	return &pgxAtomic{pool: pool}
}

func (a *pgxAtomic) InTx(ctx context.Context, fn func(Repos) error) error {
	return pgx.BeginFunc(ctx, a.pool, func(tx pgx.Tx) error {
		return fn(NewRepos(tx))
	})
}
