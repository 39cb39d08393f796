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

// PartnerRepository handles partner data operations
type PartnerRepository struct {
	db *sqlx.DB
}

// NewPartnerRepository creates a new partner repository
func NewPartnerRepository(db *sqlx.DB) *PartnerRepository {
	return &PartnerRepository{db: db}
}

// Get retrieves a partner by its record key
func (r *PartnerRepository) Get(ctx context.Context, id string) (*model.Partner, error) {
	query := `
		SELECT id, name, email, phone, partner_id, status, plan,
		       payment_status, last_payment_id, plan_updated_at, approved_at, created_at
		FROM partners
		WHERE id = $1
	`

	var partner model.Partner
	err := r.db.GetContext(ctx, &partner, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPartnerNotFound
		}
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}

	return &partner, nil
}

// PartnerIDExists reports whether any partner already holds the 6-digit ID
func (r *PartnerRepository) PartnerIDExists(ctx context.Context, partnerID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM partners WHERE partner_id = $1)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, partnerID); err != nil {
		return false, fmt.Errorf("failed to check partner id: %w", err)
	}

	return exists, nil
}

// Approve assigns the partner ID and flips the listing to approved in a single
// atomic update. The partner_id IS NULL guard keeps an assigned ID immutable.
func (r *PartnerRepository) Approve(ctx context.Context, id, partnerID string, approvedAt time.Time) error {
	query := `
		UPDATE partners
		SET status = $2, partner_id = $3, approved_at = $4
		WHERE id = $1 AND partner_id IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, id, model.StatusApproved, partnerID, approvedAt)
	if err != nil {
		return fmt.Errorf("failed to approve partner: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Distinguish a missing record from an already assigned ID
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return getErr
		}
		return store.ErrPartnerIDAssigned
	}

	return nil
}

// ApplyPayment records an approved payment reported by the gateway webhook
func (r *PartnerRepository) ApplyPayment(ctx context.Context, id, plan, paymentID string, at time.Time) error {
	query := `
		UPDATE partners
		SET plan = $2, status = $3, payment_status = 'pago',
		    last_payment_id = $4, plan_updated_at = $5
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, plan, model.StatusApproved, paymentID, at)
	if err != nil {
		return fmt.Errorf("failed to apply payment: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return store.ErrPartnerNotFound
	}

	return nil
}

// CountByStatus tallies partners per status server-side
func (r *PartnerRepository) CountByStatus(ctx context.Context) (map[string]int, error) {
	query := `SELECT status, COUNT(*) AS total FROM partners GROUP BY status`

	var rows []struct {
		Status string `db:"status"`
		Total  int    `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("failed to count partners: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}

	return counts, nil
}
