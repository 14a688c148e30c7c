package dashboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"approv-backend/internal/domain/approval"
	"approv-backend/internal/domain/project"

	"gorm.io/gorm"
)

type Usecase struct {
	approvals approval.Repository
	projects  project.Repository
	now       func() time.Time
}

func NewUsecase(approvals approval.Repository, projects project.Repository, now func() time.Time) *Usecase {
	if now == nil {
		now = time.Now
	}
	return &Usecase{approvals: approvals, projects: projects, now: now}
}

// Overview summarizes every approval, optionally only those created since `since`.
func (u *Usecase) Overview(ctx context.Context, since *time.Time) (Summary, error) {
	rows, err := u.approvals.List(ctx, approval.ListFilter{CreatedFrom: since})
	if err != nil {
		return Summary{}, fmt.Errorf("list approvals: %w", err)
	}
	return Summarize(rows, u.now().UTC()), nil
}

func (u *Usecase) ProjectOverview(ctx context.Context, projectID string) (Summary, error) {
	p, err := u.projects.GetByProjectID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Summary{}, project.ErrNotFound
		}
		return Summary{}, fmt.Errorf("load project: %w", err)
	}
	rows, err := u.approvals.ListByProjectID(ctx, p.ID)
	if err != nil {
		return Summary{}, fmt.Errorf("list approvals: %w", err)
	}
	return Summarize(rows, u.now().UTC()), nil
}
