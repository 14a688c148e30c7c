package approval

import (
	"context"
	"time"
)

type ListFilter struct {
	ProjectIDs  []uint64
	CreatedFrom *time.Time
	Statuses    []Status
}

type Repository interface {
	// Create a new approval (token and approval_id are unique in the DB)
	Create(ctx context.Context, a *Approval) error

	// Exact-match lookup by client token
	GetByToken(ctx context.Context, token string) (*Approval, error)

	// Get by public approval_id
	GetByApprovalID(ctx context.Context, approvalID string) (*Approval, error)

	// Same as GetByApprovalID, but locks the row inside a tx
	GetByApprovalIDForUpdate(ctx context.Context, approvalID string) (*Approval, error)

	ListByProjectID(ctx context.Context, projectID uint64) ([]Approval, error)
	List(ctx context.Context, f ListFilter) ([]Approval, error)

	// HasSuccessor reports whether a resubmission already points at this approval.
	HasSuccessor(ctx context.Context, id uint64) (bool, error)

	// ApplyResponse writes a decision only while the row is still pending and
	// unexpired at r.RespondedAt. applied=false means another writer got there first
	// or the deadline passed.
	ApplyResponse(ctx context.Context, id uint64, r Response) (applied bool, err error)

	// IncrementViewCount bumps view_count while the row is pending.
	IncrementViewCount(ctx context.Context, id uint64) error

	// RecordReminder bumps reminder_count if the row is pending at `at` and the last
	// reminder is not newer than notAfter.
	RecordReminder(ctx context.Context, id uint64, at, notAfter time.Time) (applied bool, err error)

	// MarkExpired flips overdue pending rows to expired.
	MarkExpired(ctx context.Context, now time.Time) (int64, error)
}
