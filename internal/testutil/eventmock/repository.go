package eventmock

import (
	"context"
	"sync"
	"time"

	domain "approv-backend/internal/domain/notification"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository. Enqueued events
// are recorded when EnqueueFn is nil.
type Repo struct {
	EnqueueFn        func(ctx context.Context, e *domain.Event) error
	FetchDueFn       func(ctx context.Context, now time.Time, limit int) ([]domain.Event, error)
	ClaimFn          func(ctx context.Context, id uint64, now, until time.Time) (bool, error)
	MarkDispatchedFn func(ctx context.Context, id uint64, at time.Time) error
	MarkFailedFn     func(ctx context.Context, id uint64, attempts int, next time.Time, lastErr string, giveUp bool) error

	mu       sync.Mutex
	Enqueued []*domain.Event
}

func (m *Repo) Enqueue(ctx context.Context, e *domain.Event) error {
	if m.EnqueueFn != nil {
		return m.EnqueueFn(ctx, e)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Enqueued = append(m.Enqueued, e)
	return nil
}

// Types returns the types of recorded events in order.
func (m *Repo) Types() []domain.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Type, 0, len(m.Enqueued))
	for _, e := range m.Enqueued {
		out = append(out, e.Type)
	}
	return out
}

func (m *Repo) FetchDue(ctx context.Context, now time.Time, limit int) ([]domain.Event, error) {
	if m.FetchDueFn != nil {
		return m.FetchDueFn(ctx, now, limit)
	}
	return nil, nil
}

func (m *Repo) Claim(ctx context.Context, id uint64, now, until time.Time) (bool, error) {
	if m.ClaimFn != nil {
		return m.ClaimFn(ctx, id, now, until)
	}
	return true, nil
}

func (m *Repo) MarkDispatched(ctx context.Context, id uint64, at time.Time) error {
	if m.MarkDispatchedFn != nil {
		return m.MarkDispatchedFn(ctx, id, at)
	}
	return nil
}

func (m *Repo) MarkFailed(ctx context.Context, id uint64, attempts int, next time.Time, lastErr string, giveUp bool) error {
	if m.MarkFailedFn != nil {
		return m.MarkFailedFn(ctx, id, attempts, next, lastErr, giveUp)
	}
	return nil
}
