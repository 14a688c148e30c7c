package approvalmock

import (
	"context"
	"time"

	domain "approv-backend/internal/domain/approval"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is a function-backed mock that satisfies domain.Repository.
// Lookups without a func return context.Canceled; writes without a func are no-ops.
type Repo struct {
	CreateFn                   func(ctx context.Context, a *domain.Approval) error
	GetByTokenFn               func(ctx context.Context, token string) (*domain.Approval, error)
	GetByApprovalIDFn          func(ctx context.Context, approvalID string) (*domain.Approval, error)
	GetByApprovalIDForUpdateFn func(ctx context.Context, approvalID string) (*domain.Approval, error)
	ListByProjectIDFn          func(ctx context.Context, projectID uint64) ([]domain.Approval, error)
	ListFn                     func(ctx context.Context, f domain.ListFilter) ([]domain.Approval, error)
	HasSuccessorFn             func(ctx context.Context, id uint64) (bool, error)
	ApplyResponseFn            func(ctx context.Context, id uint64, r domain.Response) (bool, error)
	IncrementViewCountFn       func(ctx context.Context, id uint64) error
	RecordReminderFn           func(ctx context.Context, id uint64, at, notAfter time.Time) (bool, error)
	MarkExpiredFn              func(ctx context.Context, now time.Time) (int64, error)
}

func (m *Repo) Create(ctx context.Context, a *domain.Approval) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, a)
	}
	return nil
}

func (m *Repo) GetByToken(ctx context.Context, token string) (*domain.Approval, error) {
	if m.GetByTokenFn != nil {
		return m.GetByTokenFn(ctx, token)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByApprovalID(ctx context.Context, approvalID string) (*domain.Approval, error) {
	if m.GetByApprovalIDFn != nil {
		return m.GetByApprovalIDFn(ctx, approvalID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByApprovalIDForUpdate(ctx context.Context, approvalID string) (*domain.Approval, error) {
	if m.GetByApprovalIDForUpdateFn != nil {
		return m.GetByApprovalIDForUpdateFn(ctx, approvalID)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByProjectID(ctx context.Context, projectID uint64) ([]domain.Approval, error) {
	if m.ListByProjectIDFn != nil {
		return m.ListByProjectIDFn(ctx, projectID)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context, f domain.ListFilter) ([]domain.Approval, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, f)
	}
	return nil, context.Canceled
}

func (m *Repo) HasSuccessor(ctx context.Context, id uint64) (bool, error) {
	if m.HasSuccessorFn != nil {
		return m.HasSuccessorFn(ctx, id)
	}
	return false, nil
}

func (m *Repo) ApplyResponse(ctx context.Context, id uint64, r domain.Response) (bool, error) {
	if m.ApplyResponseFn != nil {
		return m.ApplyResponseFn(ctx, id, r)
	}
	return true, nil
}

func (m *Repo) IncrementViewCount(ctx context.Context, id uint64) error {
	if m.IncrementViewCountFn != nil {
		return m.IncrementViewCountFn(ctx, id)
	}
	return nil
}

func (m *Repo) RecordReminder(ctx context.Context, id uint64, at, notAfter time.Time) (bool, error) {
	if m.RecordReminderFn != nil {
		return m.RecordReminderFn(ctx, id, at, notAfter)
	}
	return true, nil
}

func (m *Repo) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.MarkExpiredFn != nil {
		return m.MarkExpiredFn(ctx, now)
	}
	return 0, nil
}
