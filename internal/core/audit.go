package core

import (
	"context"
	"fmt"

	"github.com/deflogis/convoy/internal/model"
)

type AuditService struct {
	db DB
}

func NewAuditService(db DB) *AuditService {
	return &AuditService{db: db}
}

// Record appends one audit entry. Entries are never updated or deleted.
func (s *AuditService) Record(ctx context.Context, e *model.AuditEntry) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO audit_logs (id, time, event, actor, origin, status)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		e.ID, e.Time, e.Event, e.Actor, e.Origin, e.Status,
	)
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// List returns audit entries, most recent first.
func (s *AuditService) List(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	rows, err := s.db.Query(ctx,
		`SELECT id, time, event, actor, origin, status
		 FROM audit_logs ORDER BY time DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []model.AuditEntry
	for rows.Next() {
		var e model.AuditEntry
		if err := rows.Scan(&e.ID, &e.Time, &e.Event, &e.Actor, &e.Origin, &e.Status); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}

	return entries, nil
}
