package core

import (
	"context"
	"log/slog"
	"time"
)

// ServiceConfig holds the tunables for a Service.
type ServiceConfig struct {
	Session       Options
	IdleTimeout   time.Duration
	MaxConcurrent int
	MaxWait       time.Duration
}

// Service is the entry point hosts use to drive sessions. It owns the
// session store and the server-wide batch limiter.
type Service struct {
	store   *Store
	limiter *BatchLimiter
}

// NewService creates a Service from cfg.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		store:   NewStore(cfg.Session, cfg.IdleTimeout),
		limiter: NewBatchLimiter(cfg.MaxConcurrent, cfg.MaxWait),
	}
}

// Sessions returns the underlying store.
func (s *Service) Sessions() *Store {
	return s.store
}

// Session returns the session for id, starting a new one when id is unknown.
func (s *Service) Session(id string) (*Session, bool) {
	return s.store.GetOrCreate(id)
}

// Register adds uploads to the session with the given ID.
// It waits for a batch slot first and fails with ErrTooManyBatches if
// none becomes free in time.
func (s *Service) Register(ctx context.Context, sessionID string, uploads []Upload) (BatchResult, error) {
	sess, err := s.store.Get(sessionID)
	if err != nil {
		return BatchResult{}, err
	}

	if err := s.limiter.Acquire(ctx); err != nil {
		slog.Warn("batch slot unavailable", "session_id", sessionID, "error", err)
		return BatchResult{}, err
	}
	defer s.limiter.Release()

	return sess.Register(ctx, uploads)
}

// LimiterStatus reports batch limiter occupancy.
func (s *Service) LimiterStatus() BatchLimiterStatus {
	return s.limiter.Status()
}

// WaitForBatches blocks until in-flight batches finish or ctx is done.
func (s *Service) WaitForBatches(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// StartReaper runs the session reaper until ctx is cancelled.
func (s *Service) StartReaper(ctx context.Context, interval time.Duration) {
	s.store.StartReaper(ctx, interval)
}
