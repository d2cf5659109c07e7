package search

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// CircuitBreaker stops sending queries to Meilisearch after it keeps
// failing, so /api/search answers from the in-memory filter right away
// instead of waiting on a dead index.
type CircuitBreaker struct {
	consecutiveLimit int
	resetTimeout     time.Duration
	logger           *zap.Logger
	now              func() time.Time

	mu                  sync.Mutex
	failures            int
	total               int
	consecutiveFailures int
	isOpen              bool
	lastFailure         time.Time
}

// minSample is how many calls are needed before the failure rate counts.
const (
	minSample       = 20
	maxFailureRatio = 0.40
)

// NewCircuitBreaker opens after consecutiveLimit failures in a row, or a 40%
// failure rate over at least 20 calls, and closes again after resetTimeout.
func NewCircuitBreaker(consecutiveLimit int, resetTimeout time.Duration, logger *zap.Logger) *CircuitBreaker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if consecutiveLimit <= 0 {
		consecutiveLimit = 3
	}
	return &CircuitBreaker{
		consecutiveLimit: consecutiveLimit,
		resetTimeout:     resetTimeout,
		logger:           logger,
		now:              time.Now,
	}
}

// RecordSuccess records a successful query
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.total++
	cb.consecutiveFailures = 0
}

// RecordFailure records a failed query
func (cb *CircuitBreaker) RecordFailure(err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failures++
	cb.consecutiveFailures++
	cb.total++
	cb.lastFailure = cb.now()

	if cb.isOpen {
		return
	}
	if cb.consecutiveFailures >= cb.consecutiveLimit {
		cb.isOpen = true
		cb.logger.Warn("search circuit open",
			zap.Int("consecutive_failures", cb.consecutiveFailures),
			zap.Duration("retry_after", cb.resetTimeout),
			zap.Error(err))
		return
	}
	if cb.total >= minSample {
		if rate := float64(cb.failures) / float64(cb.total); rate >= maxFailureRatio {
			cb.isOpen = true
			cb.logger.Warn("search circuit open",
				zap.Float64("failure_rate", rate),
				zap.Int("failures", cb.failures),
				zap.Int("total", cb.total),
				zap.Error(err))
		}
	}
}

// CanProceed reports whether a query may be sent. Once resetTimeout has
// passed since the last failure the counters reset and one query is let through.
func (cb *CircuitBreaker) CanProceed() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if !cb.isOpen {
		return true
	}
	if cb.now().Sub(cb.lastFailure) > cb.resetTimeout {
		cb.logger.Info("search circuit half-open")
		cb.isOpen = false
		cb.failures = 0
		cb.total = 0
		cb.consecutiveFailures = 0
		return true
	}
	return false
}

// BreakerStatus is a point-in-time view for the admin stats.
type BreakerStatus struct {
	Open     bool `json:"open"`
	Failures int  `json:"failures"`
	Total    int  `json:"total"`
}

// Status returns the current counters
func (cb *CircuitBreaker) Status() BreakerStatus {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return BreakerStatus{Open: cb.isOpen, Failures: cb.failures, Total: cb.total}
}
