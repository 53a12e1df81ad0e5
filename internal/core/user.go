package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/deflogis/convoy/internal/model"
	"github.com/deflogis/convoy/internal/platform"
)

var (
	ErrUserExists   = errors.New("user id already registered")
	ErrUserNotFound = errors.New("user id not found")
	ErrWrongRole    = errors.New("invalid role for this id")
)

type UserService struct {
	db    DB
	audit *AuditService
}

func NewUserService(db DB, audit *AuditService) *UserService {
	return &UserService{db: db, audit: audit}
}

// Register creates a user with a clearance level derived from the role and
// writes an informational audit entry.
func (s *UserService) Register(ctx context.Context, id, name, role string) (*model.User, error) {
	var existing string
	err := s.db.QueryRow(ctx, `SELECT id FROM users WHERE id = $1`, id).Scan(&existing)
	if err == nil {
		return nil, ErrUserExists
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("check user: %w", err)
	}

	user := &model.User{
		ID:             id,
		Name:           name,
		Role:           role,
		ClearanceLevel: model.ClearanceForRole(role),
		CreatedAt:      time.Now(),
	}

	_, err = s.db.Exec(ctx,
		`INSERT INTO users (id, name, role, clearance_level, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Name, user.Role, user.ClearanceLevel, user.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}

	if err := s.audit.Record(ctx, &model.AuditEntry{
		ID:     platform.NewLogID(""),
		Time:   time.Now(),
		Event:  model.EventUserRegistered,
		Actor:  user.ID,
		Origin: "127.0.0.1",
		Status: model.StatusInfo,
	}); err != nil {
		return nil, err
	}

	return user, nil
}

// Login checks id and role, distinguishing an unknown id from a known id
// presented with the wrong role.
func (s *UserService) Login(ctx context.Context, id, role string) (*model.User, error) {
	var user model.User
	err := s.db.QueryRow(ctx,
		`SELECT id, name, role, clearance_level, created_at FROM users WHERE id = $1`, id,
	).Scan(&user.ID, &user.Name, &user.Role, &user.ClearanceLevel, &user.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if user.Role != role {
		return nil, ErrWrongRole
	}

	if err := s.audit.Record(ctx, &model.AuditEntry{
		ID:     platform.NewLogID(""),
		Time:   time.Now(),
		Event:  model.EventUserLogin,
		Actor:  user.ID,
		Origin: "127.0.0.1",
		Status: model.StatusSuccess,
	}); err != nil {
		return nil, err
	}

	return &user, nil
}

// List returns all users.
func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, name, role, clearance_level, created_at FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Role, &u.ClearanceLevel, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	return users, nil
}
