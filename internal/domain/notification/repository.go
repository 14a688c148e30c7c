package notification

import (
	"context"
	"time"
)

type Repository interface {
	// Enqueue stores an event; call it inside the tx that performs the state change.
	Enqueue(ctx context.Context, e *Event) error

	// FetchDue returns undispatched events whose next attempt is due and that are not leased.
	FetchDue(ctx context.Context, now time.Time, limit int) ([]Event, error)

	// Claim leases an event until `until`; false means another relay holds it.
	Claim(ctx context.Context, id uint64, now, until time.Time) (bool, error)

	MarkDispatched(ctx context.Context, id uint64, at time.Time) error

	// MarkFailed records a failed attempt. giveUp stops further retries.
	MarkFailed(ctx context.Context, id uint64, attempts int, next time.Time, lastErr string, giveUp bool) error
}
