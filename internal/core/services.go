package core

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the services need.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Services struct {
	Convoy *ConvoyService
	Audit  *AuditService
	User   *UserService
}

func NewServices(db DB) *Services {
	audit := NewAuditService(db)
	return &Services{
		Convoy: NewConvoyService(db),
		Audit:  audit,
		User:   NewUserService(db, audit),
	}
}
