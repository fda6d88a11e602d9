package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/regworks/enroll-api/internal/models"
)

// RosterRepository handles persistence of class records: capacity and the
// authoritative enrolled/dropped membership lists.
type RosterRepository struct {
	db *sqlx.DB
}

// NewRosterRepository constructs the repository.
func NewRosterRepository(db *sqlx.DB) *RosterRepository {
	return &RosterRepository{db: db}
}

// FindByID returns a class record by its ID.
func (r *RosterRepository) FindByID(ctx context.Context, id int64) (*models.Class, error) {
	const query = `SELECT id, name, course_code, section_number, department, instructor_id, capacity, enrolled, dropped
        FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// ListAll returns every class ordered by ID.
func (r *RosterRepository) ListAll(ctx context.Context) ([]models.Class, error) {
	const query = `SELECT id, name, course_code, section_number, department, instructor_id, capacity, enrolled, dropped
        FROM classes ORDER BY id`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}

// AdmitStudent appends the student to the enrolled list and clears any prior
// dropped entry in a single conditional update. The write only succeeds when
// a seat is still open and the student is not already enrolled; both guards
// are evaluated at write time so two racing requests can never both take the
// last seat. Returns false when the condition failed.
func (r *RosterRepository) AdmitStudent(ctx context.Context, classID, studentID int64) (bool, error) {
	const query = `UPDATE classes
        SET enrolled = array_append(enrolled, $2),
            dropped  = array_remove(dropped, $2)
        WHERE id = $1
          AND cardinality(enrolled) < capacity
          AND NOT ($2 = ANY(enrolled))`
	res, err := r.db.ExecContext(ctx, query, classID, studentID)
	if err != nil {
		return false, fmt.Errorf("admit student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("admit student rows: %w", err)
	}
	return affected == 1, nil
}

// DropStudent removes the student from the enrolled list and appends them to
// the dropped list, conditioned on current membership. Returns false when
// the student did not hold a seat.
func (r *RosterRepository) DropStudent(ctx context.Context, classID, studentID int64) (bool, error) {
	const query = `UPDATE classes
        SET enrolled = array_remove(enrolled, $2),
            dropped  = array_append(array_remove(dropped, $2), $2)
        WHERE id = $1
          AND $2 = ANY(enrolled)`
	res, err := r.db.ExecContext(ctx, query, classID, studentID)
	if err != nil {
		return false, fmt.Errorf("drop student: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("drop student rows: %w", err)
	}
	return affected == 1, nil
}

// Create persists a new class record with empty membership lists.
func (r *RosterRepository) Create(ctx context.Context, class *models.Class) error {
	const query = `INSERT INTO classes (id, name, course_code, section_number, department, instructor_id, capacity, enrolled, dropped)
        VALUES ($1, $2, $3, $4, $5, $6, $7, '{}', '{}')`
	if _, err := r.db.ExecContext(ctx, query,
		class.ID, class.Name, class.CourseCode, class.SectionNumber,
		class.Department, class.InstructorID, class.Capacity); err != nil {
		return fmt.Errorf("create class: %w", err)
	}
	return nil
}

// Delete removes a class record.
func (r *RosterRepository) Delete(ctx context.Context, id int64) (bool, error) {
	const query = `DELETE FROM classes WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete class: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete class rows: %w", err)
	}
	return affected == 1, nil
}

// UpdateCapacity sets a new seat capacity for the class.
func (r *RosterRepository) UpdateCapacity(ctx context.Context, id int64, capacity int) (bool, error) {
	const query = `UPDATE classes SET capacity = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, capacity)
	if err != nil {
		return false, fmt.Errorf("update class capacity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update class capacity rows: %w", err)
	}
	return affected == 1, nil
}

// UpdateInstructor reassigns the class to another instructor.
func (r *RosterRepository) UpdateInstructor(ctx context.Context, id, instructorID int64) (bool, error) {
	const query = `UPDATE classes SET instructor_id = $2 WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id, instructorID)
	if err != nil {
		return false, fmt.Errorf("update class instructor: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update class instructor rows: %w", err)
	}
	return affected == 1, nil
}
