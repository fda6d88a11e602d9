package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/regworks/enroll-api/internal/models"
)

func TestUserRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRosterRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "role"}).
		AddRow(1, "Ada", models.RoleStudent)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, role FROM users WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	user, err := repo.FindByID(context.Background(), 1)
	require.NoError(t, err)
	require.Equal(t, "Ada", user.Name)
	require.Equal(t, models.RoleStudent, user.Role)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newRosterRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, role FROM users WHERE id = $1")).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 404)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestUserRepositoryFindManyByID(t *testing.T) {
	db, mock, cleanup := newRosterRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "role"}).
		AddRow(1, "Ada", models.RoleStudent).
		AddRow(2, "Ben", models.RoleStudent)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, role FROM users WHERE id IN ($1,$2)")).
		WithArgs(int64(1), int64(2)).
		WillReturnRows(rows)

	users, err := repo.FindManyByID(context.Background(), []int64{1, 2})
	require.NoError(t, err)
	require.Len(t, users, 2)
	require.Equal(t, "Ben", users[2].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFindManyByIDEmpty(t *testing.T) {
	db, _, cleanup := newRosterRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	users, err := repo.FindManyByID(context.Background(), nil)
	require.NoError(t, err)
	require.Empty(t, users)
}
