package service

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suaviagemaquiadm-dev/plataforma-viagens/internal/apperr"
)

func TestAllocateReturnsSixDigitID(t *testing.T) {
	partners := newFakePartnerStore()
	allocator := NewIDAllocator(partners, 20)

	id, err := allocator.Allocate(context.Background())
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^[1-9]\d{5}$`), id)
}

func TestAllocateSkipsTakenIDs(t *testing.T) {
	partners := newFakePartnerStore()
	allocator := NewIDAllocator(partners, 20)

	// Shrink the space to three values and mark two of them as taken.
	allocator.min = 100
	allocator.max = 102
	partners.takenIDs["100"] = true
	partners.takenIDs["101"] = true

	draws := []int{0, 1, 2} // candidates 100, 101, 102 in order
	allocator.randInt = func(int) int {
		n := draws[0]
		draws = draws[1:]
		return n
	}

	id, err := allocator.Allocate(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "102", id)
}

func TestAllocateExhaustsAfterCeiling(t *testing.T) {
	partners := newFakePartnerStore()
	allocator := NewIDAllocator(partners, 5)

	// Every value in the space is taken, so the ceiling must trip.
	allocator.min = 100
	allocator.max = 101
	partners.takenIDs["100"] = true
	partners.takenIDs["101"] = true

	_, err := allocator.Allocate(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperr.CodeResourceExhausted, apperr.CodeOf(err))
}

func TestAllocatePropagatesStoreErrors(t *testing.T) {
	partners := newFakePartnerStore()
	partners.existsErr = errors.New("connection reset")
	allocator := NewIDAllocator(partners, 20)

	_, err := allocator.Allocate(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, partners.existsErr)
}
