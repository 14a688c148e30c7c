package approval

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound         = errors.New("approval not found")
	ErrExpired          = errors.New("approval link has expired")
	ErrAlreadyResponded = errors.New("approval already responded")
	// Losing side of a concurrent submission. Wraps ErrAlreadyResponded so callers
	// that only care about the user-visible outcome can treat both the same.
	ErrConcurrencyConflict = fmt.Errorf("%w: concurrent response won", ErrAlreadyResponded)
	ErrInvalidTransition   = errors.New("approval not in a state that allows this action")
	ErrAlreadyResubmitted  = errors.New("approval already has a resubmission")
	ErrReminderTooSoon     = errors.New("reminder sent too recently")

	ErrValidation         = errors.New("validation failed")
	ErrInvalidAction      = fmt.Errorf("%w: action must be approve or request_changes", ErrValidation)
	ErrNotesTooShort      = fmt.Errorf("%w: notes must be at least %d characters", ErrValidation, MinNotesLength)
	ErrNothingToResubmit  = fmt.Errorf("%w: resubmission needs a new deliverable or a message", ErrValidation)
	ErrInvalidExpiryDays  = fmt.Errorf("%w: expiry days must be between %d and %d", ErrValidation, MinExpiryDays, MaxExpiryDays)
	ErrInvalidStage       = fmt.Errorf("%w: invalid stage", ErrValidation)
	ErrInvalidDeliverable = fmt.Errorf("%w: invalid deliverable", ErrValidation)
)

type Status string

const (
	StatusPending          Status = "pending"
	StatusApproved         Status = "approved"
	StatusChangesRequested Status = "changes_requested"
	StatusExpired          Status = "expired"
)

// Responded reports whether the status records a client decision.
func (s Status) Responded() bool {
	return s == StatusApproved || s == StatusChangesRequested
}

type DeliverableKind string

const (
	DeliverablePDF   DeliverableKind = "pdf"
	DeliverableImage DeliverableKind = "image"
	DeliverableLink  DeliverableKind = "link"
)

func (k DeliverableKind) Valid() bool {
	switch k {
	case DeliverablePDF, DeliverableImage, DeliverableLink:
		return true
	default:
		return false
	}
}

// Deliverable is the file or link a client reviews. A zero Kind means none.
type Deliverable struct {
	Kind       DeliverableKind `gorm:"column:kind;size:16"`
	Name       string          `gorm:"column:name;size:255"`
	URL        string          `gorm:"column:url;type:text"`
	StorageKey string          `gorm:"column:storage_key;size:64"`
}

func (d Deliverable) IsZero() bool { return d.Kind == "" }

func (d Deliverable) Validate() error {
	if d.IsZero() {
		return nil
	}
	if !d.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidDeliverable, d.Kind)
	}
	if d.URL == "" && d.StorageKey == "" {
		return fmt.Errorf("%w: url or storage key required", ErrInvalidDeliverable)
	}
	if d.Kind == DeliverableLink && d.URL == "" {
		return fmt.Errorf("%w: link needs a url", ErrInvalidDeliverable)
	}
	return nil
}

// Table: approvals
type Approval struct {
	// Internal numeric PK
	ID uint64 `gorm:"column:id;primaryKey;autoIncrement"`
	// Public identifier (32-char lowercase hex)
	ApprovalID string `gorm:"column:approval_id;type:char(32);not null;uniqueIndex:ux_approvals_approval_id"`
	// Client credential, never rotated
	Token string `gorm:"column:token;type:varchar(64);not null;uniqueIndex:ux_approvals_token"`
	// FK to projects.id (numeric)
	ProjectID   uint64      `gorm:"column:project_id;not null;index:idx_approvals_project"`
	Stage       string      `gorm:"column:stage;size:64;not null"`
	StageLabel  string      `gorm:"column:stage_label;size:255;not null"`
	Deliverable Deliverable `gorm:"embedded;embeddedPrefix:deliverable_"`
	Message     string      `gorm:"column:message;type:text"`
	Status      Status      `gorm:"column:status;size:32;not null;default:'pending';index:idx_approvals_status"`

	CreatedAt     time.Time  `gorm:"column:created_at"`
	ExpiresAt     time.Time  `gorm:"column:expires_at;not null"`
	RespondedAt   *time.Time `gorm:"column:responded_at"`
	ResponseNotes *string    `gorm:"column:response_notes;type:text"`

	ViewCount      uint       `gorm:"column:view_count;not null;default:0"`
	ReminderCount  uint       `gorm:"column:reminder_count;not null;default:0"`
	LastReminderAt *time.Time `gorm:"column:last_reminder_at"`

	PreviousApprovalID *uint64   `gorm:"column:previous_approval_id;index:idx_approvals_previous"`
	Revision           uint      `gorm:"column:revision;not null;default:1"`
	CreatedBy          string    `gorm:"column:created_by;size:64"`
	UpdatedAt          time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Approval) TableName() string { return "approvals" }
