package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/regworks/enroll-api/internal/models"
)

// UserRepository reads student and instructor identities. Identity creation
// and credential management belong to a separate subsystem; this service
// only resolves references.
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository constructs the repository.
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// FindByID returns a user by ID.
func (r *UserRepository) FindByID(ctx context.Context, id int64) (*models.User, error) {
	const query = `SELECT id, name, role FROM users WHERE id = $1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, err
	}
	return &user, nil
}

// FindManyByID resolves a set of user IDs to their records, keyed by ID.
// Missing IDs are simply absent from the result.
func (r *UserRepository) FindManyByID(ctx context.Context, ids []int64) (map[int64]models.User, error) {
	result := make(map[int64]models.User, len(ids))
	if len(ids) == 0 {
		return result, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]interface{}, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := fmt.Sprintf("SELECT id, name, role FROM users WHERE id IN (%s)", strings.Join(placeholders, ","))
	var users []models.User
	if err := r.db.SelectContext(ctx, &users, query, args...); err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}
	for _, u := range users {
		result[u.ID] = u
	}
	return result, nil
}
