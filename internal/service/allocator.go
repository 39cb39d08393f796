package service

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"

	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/apperr"
	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/store"
)

// The human-facing partner identifier is a 6-digit numeric string.
const (
	partnerIDMin = 100000
	partnerIDMax = 999999
)

// IDAllocator produces partner IDs that no existing partner holds. The
// candidate is not reserved, so two concurrent allocations can race; the
// unique index on partner_id is the final guard.
type IDAllocator struct {
	partners    store.PartnerStore
	min         int
	max         int
	maxAttempts int
	randInt     func(n int) int
}

// NewIDAllocator creates an allocator over the full 6-digit range.
func NewIDAllocator(partners store.PartnerStore, maxAttempts int) *IDAllocator {
	return &IDAllocator{
		partners:    partners,
		min:         partnerIDMin,
		max:         partnerIDMax,
		maxAttempts: maxAttempts,
		randInt:     rand.Intn,
	}
}

// Allocate draws random candidates until one is unused. The attempt ceiling
// turns a saturated ID space into a typed error instead of an endless loop.
func (a *IDAllocator) Allocate(ctx context.Context) (string, error) {
	for attempt := 0; attempt < a.maxAttempts; attempt++ {
		candidate := strconv.Itoa(a.min + a.randInt(a.max-a.min+1))

		exists, err := a.partners.PartnerIDExists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("failed to verify candidate id: %w", err)
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", apperr.New(apperr.CodeResourceExhausted,
		fmt.Sprintf("could not allocate a unique partner id after %d attempts", a.maxAttempts))
}
