package approval

import (
	"fmt"
	"time"

	domainApproval "approv-backend/internal/domain/approval"
)

type CreateInput struct {
	ProjectID   string // public project id
	Stage       string
	StageLabel  string
	Deliverable *domainApproval.Deliverable
	Message     string
	ExpiryDays  int // 0 = configured default
	CreatedBy   string
}

type ResubmitInput struct {
	Deliverable *domainApproval.Deliverable // nil keeps the original deliverable
	Message     string
	ExpiryDays  int
	CreatedBy   string
}

type DeliverableDTO struct {
	Kind       string `json:"kind"`
	Name       string `json:"name,omitempty"`
	URL        string `json:"url,omitempty"`
	StorageKey string `json:"storage_key,omitempty"`
}

// ApprovalDTO is the internal representation. It carries the client link.
type ApprovalDTO struct {
	ApprovalID     string          `json:"approval_id"`
	ProjectID      string          `json:"project_id"`
	Stage          string          `json:"stage"`
	StageLabel     string          `json:"stage_label"`
	Deliverable    *DeliverableDTO `json:"deliverable,omitempty"`
	Message        string          `json:"message,omitempty"`
	Status         string          `json:"status"` // stored
	State          string          `json:"state"`  // derived at read time
	Token          string          `json:"token"`
	Link           string          `json:"link"`
	CreatedAt      time.Time       `json:"created_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
	RespondedAt    *time.Time      `json:"responded_at,omitempty"`
	ResponseNotes  *string         `json:"response_notes,omitempty"`
	ViewCount      uint            `json:"view_count"`
	ReminderCount  uint            `json:"reminder_count"`
	LastReminderAt *time.Time      `json:"last_reminder_at,omitempty"`
	Revision       uint            `json:"revision"`
	Resubmission   bool            `json:"resubmission"`
	CreatedBy      string          `json:"created_by,omitempty"`
}

// ViewDTO is what the public approval page receives. No ids, no token.
type ViewDTO struct {
	State         string          `json:"state"`
	ProjectName   string          `json:"project_name,omitempty"`
	Stage         string          `json:"stage"`
	StageLabel    string          `json:"stage_label"`
	Deliverable   *DeliverableDTO `json:"deliverable,omitempty"`
	Message       string          `json:"message,omitempty"`
	ExpiresAt     time.Time       `json:"expires_at"`
	RespondedAt   *time.Time      `json:"responded_at,omitempty"`
	ResponseNotes *string         `json:"response_notes,omitempty"`
	Revision      uint            `json:"revision"`
}

type SubmitResult struct {
	Status      string    `json:"status"`
	RespondedAt time.Time `json:"responded_at"`
}

type ReminderDTO struct {
	ApprovalID     string    `json:"approval_id"`
	ReminderCount  uint      `json:"reminder_count"`
	LastReminderAt time.Time `json:"last_reminder_at"`
}

func deliverableDTO(d domainApproval.Deliverable) *DeliverableDTO {
	if d.IsZero() {
		return nil
	}
	return &DeliverableDTO{Kind: string(d.Kind), Name: d.Name, URL: d.URL, StorageKey: d.StorageKey}
}

// StateError carries the current status alongside a rejection, so callers can
// tell the client what already happened.
type StateError struct {
	State domainApproval.Status
	Err   error
}

func (e *StateError) Error() string { return fmt.Sprintf("%v (state %s)", e.Err, e.State) }

func (e *StateError) Unwrap() error { return e.Err }
