// Package store defines the persistence contracts consumed by the workflow
// services. The sqlx implementations live in internal/repository; tests use
// in-memory fakes.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/model"
)

var (
	ErrPartnerNotFound = errors.New("partner not found")
	ErrUserNotFound    = errors.New("user not found")

	// ErrPartnerIDAssigned is returned when an approval update targets a
	// partner that already carries a partner ID. The ID is immutable.
	ErrPartnerIDAssigned = errors.New("partner id already assigned")
)

// PartnerStore persists partner listings.
type PartnerStore interface {
	Get(ctx context.Context, id string) (*model.Partner, error)

	// PartnerIDExists reports whether any partner already holds the
	// human-facing 6-digit identifier.
	PartnerIDExists(ctx context.Context, partnerID string) (bool, error)

	// Approve sets status, partner ID and approval time in one atomic
	// update. Fails with ErrPartnerNotFound if the record is absent and
	// ErrPartnerIDAssigned if an ID was assigned before.
	Approve(ctx context.Context, id, partnerID string, approvedAt time.Time) error

	// ApplyPayment records an approved payment against the partner:
	// plan, paid status and the provider's payment id.
	ApplyPayment(ctx context.Context, id, plan, paymentID string, at time.Time) error

	CountByStatus(ctx context.Context) (map[string]int, error)
}

// UserStore exposes the aggregate queries the admin dashboard needs.
type UserStore interface {
	CountByCategory(ctx context.Context) (map[string]int, error)
}

// PromotionTx is the view of the store inside a promotion transaction. All
// reads lock the rows they touch so concurrent allocations serialize.
type PromotionTx interface {
	// CounterCount returns the current slot count for the named counter,
	// creating the counter lazily at zero if it does not exist yet.
	CounterCount(ctx context.Context, name string) (int, error)

	// IncrementCounter adds one to the named counter. Only the count
	// column is written; other counter fields are preserved.
	IncrementCounter(ctx context.Context, name string) error

	User(ctx context.Context, id string) (*model.User, error)

	GrantPromotion(ctx context.Context, id, plan string, endDate time.Time) error
}

// PromotionStore runs the promotion allocation transaction. The callback's
// mutations commit atomically or not at all.
type PromotionStore interface {
	RunTransaction(ctx context.Context, fn func(tx PromotionTx) error) error
}
