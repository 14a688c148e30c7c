package mysql

import (
	"context"
	"time"

	notificationDomain "approv-backend/internal/domain/notification"

	"gorm.io/gorm"
)

type EventRepository struct{ db *gorm.DB }

func NewEventRepository(db *gorm.DB) *EventRepository { return &EventRepository{db: db} }

func (r *EventRepository) Enqueue(ctx context.Context, e *notificationDomain.Event) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *EventRepository) FetchDue(ctx context.Context, now time.Time, limit int) ([]notificationDomain.Event, error) {
	now = now.UTC()
	var out []notificationDomain.Event
	res := r.db.WithContext(ctx).
		Where("dispatched_at IS NULL AND gave_up_at IS NULL AND next_attempt_at <= ?", now).
		Where("(claimed_until IS NULL OR claimed_until < ?)", now).
		Order("id ASC").
		Limit(limit).
		Find(&out)
	return out, res.Error
}

// Claim is a conditional lease so two relays never dispatch the same row at once.
func (r *EventRepository) Claim(ctx context.Context, id uint64, now, until time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&notificationDomain.Event{}).
		Where("id = ? AND dispatched_at IS NULL", id).
		Where("(claimed_until IS NULL OR claimed_until < ?)", now.UTC()).
		Update("claimed_until", until.UTC())
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *EventRepository) MarkDispatched(ctx context.Context, id uint64, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&notificationDomain.Event{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"dispatched_at": at.UTC(),
			"claimed_until": nil,
		}).Error
}

func (r *EventRepository) MarkFailed(ctx context.Context, id uint64, attempts int, next time.Time, lastErr string, giveUp bool) error {
	updates := map[string]any{
		"attempts":        attempts,
		"next_attempt_at": next.UTC(),
		"last_error":      lastErr,
		"claimed_until":   nil,
	}
	if giveUp {
		updates["gave_up_at"] = next.UTC()
	}
	return r.db.WithContext(ctx).
		Model(&notificationDomain.Event{}).
		Where("id = ?", id).
		Updates(updates).Error
}
