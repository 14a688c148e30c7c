package uow

import (
	"context"

	"approv-backend/internal/domain/approval"
	"approv-backend/internal/domain/notification"
	"approv-backend/internal/domain/project"
)

// Repos are bound to the same transaction.
type Repos struct {
	Projects  project.Repository
	Clients   project.ClientRepository
	Approvals approval.Repository
	Events    notification.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// convenience: lock the approval row first, then pass it in
	WithinApprovalTx(ctx context.Context, approvalID string, fn func(r Repos, a *approval.Approval) error) error
}
