package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/model"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/store"
)

// PromotionRepository runs the promotional-slot transaction against PostgreSQL.
// Row locks taken by the transaction serialize concurrent allocations, so the
// slot cap holds without any manual retry loop.
type PromotionRepository struct {
	db *sqlx.DB
}

// NewPromotionRepository creates a new promotion repository
func NewPromotionRepository(db *sqlx.DB) *PromotionRepository {
	return &PromotionRepository{db: db}
}

// RunTransaction executes fn inside a single database transaction
func (r *PromotionRepository) RunTransaction(ctx context.Context, fn func(tx store.PromotionTx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&promotionTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

type promotionTx struct {
	tx *sqlx.Tx
}

// CounterCount reads the counter row under FOR UPDATE, creating it lazily at
// zero. The lock is held until commit, so concurrent allocations queue here.
func (t *promotionTx) CounterCount(ctx context.Context, name string) (int, error) {
	insert := `
		INSERT INTO promotion_counters (name, count)
		VALUES ($1, 0)
		ON CONFLICT (name) DO NOTHING
	`
	if _, err := t.tx.ExecContext(ctx, insert, name); err != nil {
		return 0, fmt.Errorf("failed to initialize counter: %w", err)
	}

	query := `SELECT name, count FROM promotion_counters WHERE name = $1 FOR UPDATE`

	var counter model.PromotionCounter
	if err := t.tx.GetContext(ctx, &counter, query, name); err != nil {
		return 0, fmt.Errorf("failed to read counter: %w", err)
	}

	return counter.Count, nil
}

// IncrementCounter adds one slot to the counter. Only the count column is
// written so any other counter fields are preserved.
func (t *promotionTx) IncrementCounter(ctx context.Context, name string) error {
	query := `UPDATE promotion_counters SET count = count + 1 WHERE name = $1`

	result, err := t.tx.ExecContext(ctx, query, name)
	if err != nil {
		return fmt.Errorf("failed to increment counter: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("counter %q not found", name)
	}

	return nil
}

// User reads the target user under FOR UPDATE so a redelivered creation event
// cannot race a grant in flight.
func (t *promotionTx) User(ctx context.Context, id string) (*model.User, error) {
	query := `
		SELECT id, category, account_type, plan, promotion_end_date, created_at
		FROM users
		WHERE id = $1
		FOR UPDATE
	`

	var user model.User
	err := t.tx.GetContext(ctx, &user, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}

// GrantPromotion sets the promotional plan and its end date on the user
func (t *promotionTx) GrantPromotion(ctx context.Context, id, plan string, endDate time.Time) error {
	query := `UPDATE users SET plan = $2, promotion_end_date = $3 WHERE id = $1`

	result, err := t.tx.ExecContext(ctx, query, id, plan, endDate)
	if err != nil {
		return fmt.Errorf("failed to grant promotion: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrUserNotFound
	}

	return nil
}
