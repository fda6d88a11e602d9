package models

import "github.com/lib/pq"

// Class represents a bounded-capacity course section stored in the roster
// store. The enrolled list preserves admission order; the dropped list keeps
// students who left.
type Class struct {
	ID            int64         `db:"id" json:"id"`
	Name          string        `db:"name" json:"name"`
	CourseCode    string        `db:"course_code" json:"course_code"`
	SectionNumber int           `db:"section_number" json:"section_number"`
	Department    string        `db:"department" json:"department"`
	InstructorID  int64         `db:"instructor_id" json:"instructor_id"`
	Capacity      int           `db:"capacity" json:"capacity"`
	Enrolled      pq.Int64Array `db:"enrolled" json:"enrolled"`
	Dropped       pq.Int64Array `db:"dropped" json:"dropped"`
}

// HasEnrolled reports whether the student currently holds a seat.
func (c *Class) HasEnrolled(studentID int64) bool {
	for _, id := range c.Enrolled {
		if id == studentID {
			return true
		}
	}
	return false
}

// SeatsTaken returns the number of occupied seats.
func (c *Class) SeatsTaken() int {
	return len(c.Enrolled)
}

// ClassSummary is the student-facing view of a class merged with live
// waitlist occupancy.
type ClassSummary struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	CourseCode      string `json:"course_code"`
	SectionNumber   int    `json:"section_number"`
	Department      string `json:"department"`
	Instructor      User   `json:"instructor"`
	CurrentEnroll   int    `json:"current_enroll"`
	MaxEnroll       int    `json:"max_enroll"`
	CurrentWaitlist int    `json:"current_waitlist"`
	MaxWaitlist     int    `json:"max_waitlist"`
}
