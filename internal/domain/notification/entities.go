package notification

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type Type string

const (
	TypeApprovalRequested Type = "approval.requested"
	TypeApprovalApproved  Type = "approval.approved"
	TypeChangesRequested  Type = "approval.changes_requested"
	TypeResubmitted       Type = "approval.resubmitted"
	TypeReminder          Type = "approval.reminder"
)

// Payload is what downstream senders (email, SMS, Slack) receive.
type Payload struct {
	ApprovalID  string    `json:"approval_id"`
	ProjectID   string    `json:"project_id"`
	ProjectName string    `json:"project_name"`
	ClientName  string    `json:"client_name,omitempty"`
	ClientEmail string    `json:"client_email,omitempty"`
	ClientPhone string    `json:"client_phone,omitempty"`
	Stage       string    `json:"stage"`
	StageLabel  string    `json:"stage_label"`
	Status      string    `json:"status"`
	Link        string    `json:"link,omitempty"`
	Deliverable string    `json:"deliverable,omitempty"`
	Message     string    `json:"message,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Revision    uint      `json:"revision"`
	Revised     bool      `json:"revised"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Table: approval_events (transactional outbox)
type Event struct {
	ID            uint64         `gorm:"column:id;primaryKey;autoIncrement"`
	EventID       string         `gorm:"column:event_id;size:36;not null;uniqueIndex:ux_approval_events_event_id"`
	Type          Type           `gorm:"column:type;size:64;not null"`
	AggregateID   string         `gorm:"column:aggregate_id;size:32;not null;index:idx_approval_events_aggregate"`
	Payload       datatypes.JSON `gorm:"column:payload;not null"`
	Attempts      int            `gorm:"column:attempts;not null;default:0"`
	NextAttemptAt time.Time      `gorm:"column:next_attempt_at;not null;index:idx_approval_events_due"`
	ClaimedUntil  *time.Time     `gorm:"column:claimed_until"`
	DispatchedAt  *time.Time     `gorm:"column:dispatched_at;index:idx_approval_events_due"`
	GaveUpAt      *time.Time     `gorm:"column:gave_up_at"`
	LastError     string         `gorm:"column:last_error;type:text"`
	CreatedAt     time.Time      `gorm:"column:created_at"`
}

func (Event) TableName() string { return "approval_events" }

// NewEvent builds an outbox row that is due immediately.
func NewEvent(t Type, p Payload, now time.Time) (*Event, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return &Event{
		EventID:       uuid.NewString(),
		Type:          t,
		AggregateID:   p.ApprovalID,
		Payload:       datatypes.JSON(b),
		NextAttemptAt: now.UTC(),
		CreatedAt:     now.UTC(),
	}, nil
}

// Decode returns the payload carried by the event.
func (e *Event) Decode() (Payload, error) {
	var p Payload
	err := json.Unmarshal(e.Payload, &p)
	return p, err
}
