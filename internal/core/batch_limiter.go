package core

// batch_limiter.go bounds how many file batches are decoded and parsed at
// once across all sessions.
//
// Each Register call holds one slot while it reads and tokenizes its files.
// When every slot is taken a caller waits up to maxWait, then fails with
// ErrTooManyBatches. WaitForDrain lets shutdown wait for in-flight batches.

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrTooManyBatches is returned when no batch slot frees up within the wait
// timeout. Clients should retry after a short delay.
var ErrTooManyBatches = errors.New("too many uploads in progress, please try again later")

// DefaultMaxConcurrentBatches is the default number of parallel batches.
const DefaultMaxConcurrentBatches = 5

// DefaultMaxBatchWait is how long Acquire waits for a slot by default.
const DefaultMaxBatchWait = 30 * time.Second

// BatchLimiter is a counting semaphore with a bounded wait.
type BatchLimiter struct {
	slots   chan struct{}
	maxWait time.Duration

	mu     sync.RWMutex
	active int
}

// NewBatchLimiter returns a limiter admitting maxConcurrent batches at once.
// Non-positive arguments select the package defaults.
func NewBatchLimiter(maxConcurrent int, maxWait time.Duration) *BatchLimiter {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentBatches
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxBatchWait
	}
	return &BatchLimiter{
		slots:   make(chan struct{}, maxConcurrent),
		maxWait: maxWait,
	}
}

// Acquire takes a slot, waiting at most maxWait. The caller must Release
// after a nil return.
func (l *BatchLimiter) Acquire(ctx context.Context) error {
	timer := time.NewTimer(l.maxWait)
	defer timer.Stop()

	select {
	case l.slots <- struct{}{}:
		l.mu.Lock()
		l.active++
		l.mu.Unlock()
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return ErrTooManyBatches
	}
}

// Release returns a slot taken by Acquire.
func (l *BatchLimiter) Release() {
	l.mu.Lock()
	l.active--
	l.mu.Unlock()
	<-l.slots
}

// ActiveCount returns the number of batches currently holding a slot.
func (l *BatchLimiter) ActiveCount() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.active
}

// MaxConcurrent returns the slot capacity.
func (l *BatchLimiter) MaxConcurrent() int {
	return cap(l.slots)
}

// WaitForDrain blocks until no batch holds a slot or ctx is done.
func (l *BatchLimiter) WaitForDrain(ctx context.Context) error {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		if l.ActiveCount() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// BatchLimiterStatus is a point-in-time view of a BatchLimiter.
type BatchLimiterStatus struct {
	Active        int `json:"active"`
	Available     int `json:"available"`
	MaxConcurrent int `json:"max_concurrent"`
}

// Status returns the limiter's current occupancy.
func (l *BatchLimiter) Status() BatchLimiterStatus {
	active := l.ActiveCount()
	return BatchLimiterStatus{
		Active:        active,
		Available:     cap(l.slots) - len(l.slots),
		MaxConcurrent: cap(l.slots),
	}
}
