package mysql

import (
	"context"

	"approv-backend/internal/domain/approval"
	"approv-backend/internal/domain/uow"

	"gorm.io/gorm"
)

type GormUoW struct{ db *gorm.DB }

func NewGormUoW(db *gorm.DB) *GormUoW { return &GormUoW{db: db} }

func reposFor(tx *gorm.DB) uow.Repos {
	return uow.Repos{
		Projects:  &ProjectRepository{db: tx},
		Clients:   &ClientRepository{db: tx},
		Approvals: &ApprovalRepository{db: tx},
		Events:    &EventRepository{db: tx},
	}
}

func (u *GormUoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(reposFor(tx))
	})
}

func (u *GormUoW) WithinApprovalTx(ctx context.Context, approvalID string, fn func(r uow.Repos, a *approval.Approval) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r := reposFor(tx)
		// lock the approval row up-front to prevent races
		a, err := r.Approvals.GetByApprovalIDForUpdate(ctx, approvalID)
		if err != nil {
			return err
		}
		return fn(r, a)
	})
}
