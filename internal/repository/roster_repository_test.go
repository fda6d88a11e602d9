package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/regworks/enroll-api/internal/models"
)

var classFixture = models.Class{
	ID: 101, Name: "Databases", CourseCode: "CS-310", SectionNumber: 2,
	Department: "CS", InstructorID: 9, Capacity: 30,
}

func newRosterRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestRosterRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRosterRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "course_code", "section_number", "department", "instructor_id", "capacity", "enrolled", "dropped"}).
		AddRow(100, "Algorithms", "CS-301", 1, "CS", 9, 2, pq.Int64Array{1, 2}, pq.Int64Array{5})
	mock.ExpectQuery(`SELECT id, name, course_code, section_number, department, instructor_id, capacity, enrolled, dropped\s+FROM classes WHERE id = \$1`).
		WithArgs(int64(100)).
		WillReturnRows(rows)

	class, err := repo.FindByID(context.Background(), 100)
	require.NoError(t, err)
	require.Equal(t, int64(100), class.ID)
	require.Equal(t, 2, class.SeatsTaken())
	require.True(t, class.HasEnrolled(1))
	require.False(t, class.HasEnrolled(5))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryFindByIDMissing(t *testing.T) {
	db, mock, cleanup := newRosterRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectQuery(`SELECT id, name, course_code`).
		WithArgs(int64(404)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), 404)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestRosterRepositoryAdmitStudent(t *testing.T) {
	db, mock, cleanup := newRosterRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectExec(`UPDATE classes\s+SET enrolled = array_append\(enrolled, \$2\),\s+dropped\s+= array_remove\(dropped, \$2\)\s+WHERE id = \$1\s+AND cardinality\(enrolled\) < capacity\s+AND NOT \(\$2 = ANY\(enrolled\)\)`).
		WithArgs(int64(100), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	admitted, err := repo.AdmitStudent(context.Background(), 100, 3)
	require.NoError(t, err)
	require.True(t, admitted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryAdmitStudentConditionFails(t *testing.T) {
	db, mock, cleanup := newRosterRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	// Zero rows affected: the class filled up or the student already holds
	// a seat. Not an error, the caller re-runs the decision.
	mock.ExpectExec(`UPDATE classes\s+SET enrolled = array_append`).
		WithArgs(int64(100), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	admitted, err := repo.AdmitStudent(context.Background(), 100, 3)
	require.NoError(t, err)
	require.False(t, admitted)
}

func TestRosterRepositoryDropStudent(t *testing.T) {
	db, mock, cleanup := newRosterRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectExec(`UPDATE classes\s+SET enrolled = array_remove\(enrolled, \$2\),\s+dropped\s+= array_append\(array_remove\(dropped, \$2\), \$2\)\s+WHERE id = \$1\s+AND \$2 = ANY\(enrolled\)`).
		WithArgs(int64(100), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	dropped, err := repo.DropStudent(context.Background(), 100, 1)
	require.NoError(t, err)
	require.True(t, dropped)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryDropStudentNotEnrolled(t *testing.T) {
	db, mock, cleanup := newRosterRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectExec(`UPDATE classes\s+SET enrolled = array_remove`).
		WithArgs(int64(100), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	dropped, err := repo.DropStudent(context.Background(), 100, 7)
	require.NoError(t, err)
	require.False(t, dropped)
}

func TestRosterRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRosterRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO classes")).
		WithArgs(int64(101), "Databases", "CS-310", 2, "CS", int64(9), 30).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &classFixture)
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRosterRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRosterRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM classes WHERE id = $1")).
		WithArgs(int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := repo.Delete(context.Background(), 100)
	require.NoError(t, err)
	require.True(t, deleted)
}

func TestRosterRepositoryUpdateCapacity(t *testing.T) {
	db, mock, cleanup := newRosterRepoMock(t)
	defer cleanup()
	repo := NewRosterRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE classes SET capacity = $2 WHERE id = $1")).
		WithArgs(int64(100), 5).
		WillReturnResult(sqlmock.NewResult(0, 1))

	updated, err := repo.UpdateCapacity(context.Background(), 100, 5)
	require.NoError(t, err)
	require.True(t, updated)
}
