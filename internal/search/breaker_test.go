package search

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_OpensOnConsecutiveFailures(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(2, time.Minute, nil)
	cb.now = func() time.Time { return now }

	boom := errors.New("connection refused")
	cb.RecordFailure(boom)
	require.True(t, cb.CanProceed())
	cb.RecordFailure(boom)
	require.False(t, cb.CanProceed())
	require.True(t, cb.Status().Open)

	now = now.Add(30 * time.Second)
	require.False(t, cb.CanProceed())

	now = now.Add(31 * time.Second)
	require.True(t, cb.CanProceed())
	require.Equal(t, BreakerStatus{}, cb.Status())
}

func TestCircuitBreaker_SuccessResetsStreak(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(2, time.Minute, nil)
	boom := errors.New("timeout")
	cb.RecordFailure(boom)
	cb.RecordSuccess()
	cb.RecordFailure(boom)
	require.True(t, cb.CanProceed())
}

func TestCircuitBreaker_OpensOnFailureRate(t *testing.T) {
	t.Parallel()

	cb := NewCircuitBreaker(5, time.Minute, nil)
	boom := errors.New("503")
	// 8 failures in 20 calls, never two in a row
	for i := 0; i < 4; i++ {
		cb.RecordSuccess()
	}
	for i := 0; i < 8; i++ {
		cb.RecordSuccess()
		cb.RecordFailure(boom)
	}
	require.Equal(t, 20, cb.Status().Total)
	require.False(t, cb.CanProceed())
}
