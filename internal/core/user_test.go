package core

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/deflogis/convoy/internal/model"
)

func newUserService(db *mockDB) *UserService {
	return NewUserService(db, NewAuditService(db))
}

func TestRegister_NewUser(t *testing.T) {
	db := &mockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}).Once()
	// One user insert, one audit insert.
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.CommandTag{}, nil).Twice()

	user, err := newUserService(db).Register(context.Background(), "cmd-7", "R. Vance", model.RoleCommander)
	require.NoError(t, err)

	assert.Equal(t, 5, user.ClearanceLevel)
	assert.Equal(t, model.RoleCommander, user.Role)
	db.AssertExpectations(t)
}

func TestRegister_ClearanceByRole(t *testing.T) {
	cases := map[string]int{
		model.RoleCommander:        5,
		model.RoleLogisticsOfficer: 3,
		model.RoleFieldAgent:       1,
	}
	for role, clearance := range cases {
		db := &mockDB{}
		db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
			Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }})
		db.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.CommandTag{}, nil)

		user, err := newUserService(db).Register(context.Background(), "u1", "name", role)
		require.NoError(t, err)
		assert.Equal(t, clearance, user.ClearanceLevel, "role %s", role)
	}
}

func TestRegister_DuplicateID(t *testing.T) {
	db := &mockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error {
			setString(dest[0], "cmd-7")
			return nil
		}}).Once()

	_, err := newUserService(db).Register(context.Background(), "cmd-7", "R. Vance", model.RoleCommander)
	assert.ErrorIs(t, err, ErrUserExists)
	db.AssertNotCalled(t, "Exec", mock.Anything, mock.Anything, mock.Anything)
}

func userRow(id, role string) func(dest ...any) error {
	return func(dest ...any) error {
		setString(dest[0], id)
		setString(dest[1], "Name")
		setString(dest[2], role)
		setInt(dest[3], model.ClearanceForRole(role))
		if d, ok := dest[4].(*time.Time); ok {
			*d = time.Now()
		}
		return nil
	}
}

func TestLogin_Success(t *testing.T) {
	db := &mockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&mockRow{scanFunc: userRow("agent-1", model.RoleFieldAgent)}).Once()
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.CommandTag{}, nil).Once()

	user, err := newUserService(db).Login(context.Background(), "agent-1", model.RoleFieldAgent)
	require.NoError(t, err)
	assert.Equal(t, 1, user.ClearanceLevel)
	db.AssertExpectations(t)
}

func TestLogin_WrongRole(t *testing.T) {
	db := &mockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&mockRow{scanFunc: userRow("agent-1", model.RoleFieldAgent)}).Once()

	_, err := newUserService(db).Login(context.Background(), "agent-1", model.RoleCommander)
	assert.ErrorIs(t, err, ErrWrongRole)
}

func TestLogin_UnknownID(t *testing.T) {
	db := &mockDB{}
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).
		Return(&mockRow{scanFunc: func(dest ...any) error { return pgx.ErrNoRows }}).Once()

	_, err := newUserService(db).Login(context.Background(), "ghost", model.RoleCommander)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
