package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// UserRepository handles user data operations
type UserRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sqlx.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CountByCategory tallies users per category server-side
func (r *UserRepository) CountByCategory(ctx context.Context) (map[string]int, error) {
	query := `SELECT category, COUNT(*) AS total FROM users GROUP BY category`

	var rows []struct {
		Category string `db:"category"`
		Total    int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Category] = row.Total
	}

	return counts, nil
}
