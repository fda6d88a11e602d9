package models

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent    UserRole = "STUDENT"
	RoleInstructor UserRole = "INSTRUCTOR"
	RoleRegistrar  UserRole = "REGISTRAR"
)

// User represents a student, instructor or registrar stored in the users
// table. Credential storage lives in a separate subsystem.
type User struct {
	ID   int64    `db:"id" json:"id"`
	Name string   `db:"name" json:"name"`
	Role UserRole `db:"role" json:"role,omitempty"`
}
