package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "approv-backend/internal/domain/notification"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Envelope is the wire shape published to redis and nats subscribers.
type Envelope struct {
	EventID    string          `json:"event_id"`
	Type       domain.Type     `json:"type"`
	ApprovalID string          `json:"approval_id"`
	Attempts   int             `json:"attempts"`
	CreatedAt  string          `json:"created_at"`
	Payload    json.RawMessage `json:"payload"`
}

func Encode(e domain.Event) ([]byte, error) {
	return json.Marshal(Envelope{
		EventID:    e.EventID,
		Type:       e.Type,
		ApprovalID: e.AggregateID,
		Attempts:   e.Attempts,
		CreatedAt:  e.CreatedAt.UTC().Format(time.RFC3339),
		Payload:    json.RawMessage(e.Payload),
	})
}

// LogDispatcher writes events to the application log. Always succeeds.
type LogDispatcher struct{ log logrus.FieldLogger }

func NewLogDispatcher(log logrus.FieldLogger) *LogDispatcher { return &LogDispatcher{log: log} }

func (d *LogDispatcher) Dispatch(_ context.Context, e domain.Event) error {
	entry := d.log.WithFields(logrus.Fields{
		"event_id":    e.EventID,
		"event_type":  string(e.Type),
		"approval_id": e.AggregateID,
	})
	if p, err := e.Decode(); err == nil {
		entry = entry.WithFields(logrus.Fields{
			"project":      p.ProjectName,
			"stage":        p.Stage,
			"status":       p.Status,
			"client_email": p.ClientEmail,
		})
	}
	entry.Info("notification")
	return nil
}

// RedisDispatcher publishes the envelope on a pub/sub channel.
type RedisDispatcher struct {
	rdb     redis.UniversalClient
	channel string
}

func NewRedisDispatcher(rdb redis.UniversalClient, channel string) *RedisDispatcher {
	return &RedisDispatcher{rdb: rdb, channel: channel}
}

func (d *RedisDispatcher) Dispatch(ctx context.Context, e domain.Event) error {
	b, err := Encode(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := d.rdb.Publish(ctx, d.channel, b).Err(); err != nil {
		return fmt.Errorf("redis publish %s: %w", d.channel, err)
	}
	return nil
}

// Publisher is the subset of *nats.Conn the NATS dispatcher needs.
type Publisher interface {
	Publish(subj string, data []byte) error
}

const SubjectPrefix = "approv.events."

type NATSDispatcher struct{ pub Publisher }

func NewNATSDispatcher(pub Publisher) *NATSDispatcher { return &NATSDispatcher{pub: pub} }

func Subject(t domain.Type) string { return SubjectPrefix + string(t) }

func (d *NATSDispatcher) Dispatch(ctx context.Context, e domain.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b, err := Encode(e)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := d.pub.Publish(Subject(e.Type), b); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}
	return nil
}

type Dispatcher interface {
	Dispatch(ctx context.Context, e domain.Event) error
}

// Fanout sends to every target and joins the failures. One failing target
// makes the event retry for all of them, so targets must tolerate duplicates.
type Fanout struct{ targets []Dispatcher }

func NewFanout(targets ...Dispatcher) *Fanout { return &Fanout{targets: targets} }

func (f *Fanout) Dispatch(ctx context.Context, e domain.Event) error {
	var errs []error
	for _, t := range f.targets {
		if err := t.Dispatch(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
