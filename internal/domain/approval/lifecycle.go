package approval

import (
	"strings"
	"time"
	"unicode/utf8"
)

// MinNotesLength is the shortest feedback accepted with a change request.
const MinNotesLength = 10

type Action string

const (
	ActionApprove        Action = "approve"
	ActionRequestChanges Action = "request_changes"
)

// Decision is what a client submits from the public page.
type Decision struct {
	Action Action
	Notes  string
}

// Response is the outcome of a valid decision, ready to be persisted.
type Response struct {
	Status      Status
	RespondedAt time.Time
	Notes       *string
}

// DisplayState is the state a viewer sees. Expiry is derived here and never written back.
func (a *Approval) DisplayState(now time.Time) Status {
	if a.Status != StatusPending {
		return a.Status
	}
	if now.After(a.ExpiresAt) {
		return StatusExpired
	}
	return StatusPending
}

// Decide checks a decision against the current state and returns the response to
// persist. It does not mutate the approval.
func (a *Approval) Decide(d Decision, now time.Time) (Response, error) {
	switch a.DisplayState(now) {
	case StatusApproved, StatusChangesRequested:
		return Response{}, ErrAlreadyResponded
	case StatusExpired:
		return Response{}, ErrExpired
	case StatusPending:
		switch d.Action {
		case ActionApprove:
			return Response{Status: StatusApproved, RespondedAt: now}, nil
		case ActionRequestChanges:
			notes, err := normalizeNotes(d.Notes)
			if err != nil {
				return Response{}, err
			}
			return Response{Status: StatusChangesRequested, RespondedAt: now, Notes: &notes}, nil
		default:
			return Response{}, ErrInvalidAction
		}
	default:
		return Response{}, ErrInvalidTransition
	}
}

// Apply copies a response onto the approval. Callers persist first.
func (r Response) Apply(a *Approval) {
	a.Status = r.Status
	t := r.RespondedAt
	a.RespondedAt = &t
	a.ResponseNotes = r.Notes
}

func normalizeNotes(raw string) (string, error) {
	notes := strings.TrimSpace(raw)
	if utf8.RuneCountInString(notes) < MinNotesLength {
		return "", ErrNotesTooShort
	}
	return notes, nil
}

// CanResubmit reports whether an internal user may send a revision.
func (a *Approval) CanResubmit(now time.Time) bool {
	return a.DisplayState(now) == StatusChangesRequested
}

// CanRemind reports whether a reminder may go out, given the minimum gap between reminders.
func (a *Approval) CanRemind(now time.Time, cooldown time.Duration) bool {
	if a.DisplayState(now) != StatusPending {
		return false
	}
	if a.LastReminderAt == nil {
		return true
	}
	return !now.Before(a.LastReminderAt.Add(cooldown))
}
