package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	domain "approv-backend/internal/domain/notification"
	"approv-backend/internal/metrics"

	"github.com/sirupsen/logrus"
)

// Dispatcher delivers one event downstream (log, redis, nats).
type Dispatcher interface {
	Dispatch(ctx context.Context, e domain.Event) error
}

var ErrInvalidConfig = errors.New("notification: invalid relay config")

// Relay drains the approval_events outbox. Delivery failures are retried with
// backoff and never affect the approvals that produced the events.
type Relay struct {
	events     domain.Repository
	dispatcher Dispatcher
	opts       RelayOptions
}

func NewRelay(events domain.Repository, dispatcher Dispatcher, opts RelayOptions) (*Relay, error) {
	if events == nil {
		return nil, fmt.Errorf("%w: events repository is required", ErrInvalidConfig)
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("%w: dispatcher is required", ErrInvalidConfig)
	}
	opts.setDefaults()
	return &Relay{events: events, dispatcher: dispatcher, opts: opts}, nil
}

// Run polls until ctx is done.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	r.opts.Logger.WithField("poll_interval", r.opts.PollInterval.String()).Info("outbox relay started")
	for {
		select {
		case <-ctx.Done():
			r.opts.Logger.Info("outbox relay stopped")
			return ctx.Err()
		case <-ticker.C:
		}

		if _, err := r.ProcessOnce(ctx); err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			r.opts.Logger.WithError(err).Warn("outbox: process tick failed")
		}
	}
}

// ProcessOnce handles one batch and reports how many events were delivered.
func (r *Relay) ProcessOnce(ctx context.Context) (int, error) {
	now := r.opts.Now().UTC()
	due, err := r.events.FetchDue(ctx, now, r.opts.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("fetch due events: %w", err)
	}

	delivered := 0
	for _, e := range due {
		ok, err := r.events.Claim(ctx, e.ID, now, now.Add(r.opts.LockTTL))
		if err != nil {
			r.opts.Logger.WithError(err).WithFields(fields(e)).Warn("outbox: claim failed")
			continue
		}
		if !ok {
			continue
		}
		if r.dispatch(ctx, e) {
			delivered++
		}
	}
	return delivered, nil
}

func (r *Relay) dispatch(ctx context.Context, e domain.Event) bool {
	dctx, cancel := context.WithTimeout(ctx, r.opts.DispatchTimeout)
	start := time.Now()
	err := r.dispatcher.Dispatch(dctx, e)
	cancel()
	latency := time.Since(start)

	if err == nil {
		record(e.Type, "success", latency)
		if ackErr := r.events.MarkDispatched(ctx, e.ID, r.opts.Now()); ackErr != nil {
			r.opts.Logger.WithError(ackErr).WithFields(fields(e)).Warn("outbox: ack failed")
		}
		return true
	}

	attempts := e.Attempts + 1
	giveUp := attempts >= r.opts.MaxAttempts
	result := "failure"
	if giveUp {
		result = "dead"
	}
	record(e.Type, result, latency)

	next := r.opts.Now().Add(backoff(attempts, r.opts.MaxBackoff) + jitter(r.opts.Rand, r.opts.JitterMax))
	log := r.opts.Logger.WithError(err).WithFields(fields(e)).WithField("attempts", attempts)
	if giveUp {
		log.Error("outbox: giving up on event")
	} else {
		log.WithField("next_attempt_at", next.UTC().Format(time.RFC3339)).Warn("outbox: dispatch failed")
	}
	if nackErr := r.events.MarkFailed(ctx, e.ID, attempts, next, truncate(err.Error(), r.opts.LastErrorMaxLen), giveUp); nackErr != nil {
		r.opts.Logger.WithError(nackErr).WithFields(fields(e)).Warn("outbox: nack failed")
	}
	return false
}

func record(t domain.Type, result string, latency time.Duration) {
	metrics.OutboxDispatch.WithLabelValues(string(t), result).Inc()
	metrics.OutboxDispatchLatency.WithLabelValues(string(t), result).Observe(latency.Seconds())
}

func fields(e domain.Event) logrus.Fields {
	return logrus.Fields{
		"event_id":    e.EventID,
		"event_type":  string(e.Type),
		"approval_id": e.AggregateID,
	}
}
