package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"approv-backend/internal/domain/approval"
	"approv-backend/internal/domain/project"
	"approv-backend/internal/testutil/approvalmock"
	"approv-backend/internal/testutil/projectmock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var now = time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

func row(stage string, status approval.Status, created, expires time.Time) approval.Approval {
	return approval.Approval{Stage: stage, Status: status, CreatedAt: created, ExpiresAt: expires}
}

func responded(a approval.Approval, after time.Duration) approval.Approval {
	at := a.CreatedAt.Add(after)
	a.RespondedAt = &at
	return a
}

func fixtureRows() []approval.Approval {
	prev := uint64(1)
	resub := row("DETAILED_DESIGN", approval.StatusPending, now.Add(-time.Hour), now.Add(24*time.Hour))
	resub.PreviousApprovalID = &prev
	resub.ViewCount = 3

	return []approval.Approval{
		responded(row("INITIAL_DRAWINGS", approval.StatusApproved, now.Add(-72*time.Hour), now.Add(24*time.Hour)), 10*time.Hour),
		responded(row("INITIAL_DRAWINGS", approval.StatusChangesRequested, now.Add(-72*time.Hour), now.Add(24*time.Hour)), 20*time.Hour),
		row("DETAILED_DESIGN", approval.StatusPending, now.Add(-time.Hour), now.Add(10*24*time.Hour)),
		resub,
		row("FINAL_SIGN_OFF", approval.StatusPending, now.Add(-48*time.Hour), now.Add(-time.Minute)), // derived expired
		row("FINAL_SIGN_OFF", approval.StatusExpired, now.Add(-480*time.Hour), now.Add(-200*time.Hour)),
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(fixtureRows(), now)

	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 2, s.Pending)
	assert.Equal(t, 1, s.Approved)
	assert.Equal(t, 1, s.ChangesRequested)
	assert.Equal(t, 2, s.Expired)
	assert.Equal(t, 1, s.ExpiringSoon)
	assert.Equal(t, 1, s.Resubmissions)
	assert.Equal(t, uint64(3), s.TotalViews)
	assert.InDelta(t, 2.0/6.0, s.ResponseRate, 1e-9)
	assert.InDelta(t, 0.5, s.ApprovalRate, 1e-9)
	assert.InDelta(t, 15.0, s.AvgResponseHours, 1e-9)
	assert.Equal(t, map[string]int{"INITIAL_DRAWINGS": 2, "DETAILED_DESIGN": 2, "FINAL_SIGN_OFF": 2}, s.ByStage)
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil, now)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.ResponseRate)
	assert.Zero(t, s.ApprovalRate)
	assert.NotNil(t, s.ByStage)
}

func TestOverview(t *testing.T) {
	since := now.Add(-24 * time.Hour)
	apprs := &approvalmock.Repo{
		ListFn: func(ctx context.Context, f approval.ListFilter) ([]approval.Approval, error) {
			require.NotNil(t, f.CreatedFrom)
			assert.True(t, f.CreatedFrom.Equal(since))
			return fixtureRows(), nil
		},
	}
	uc := NewUsecase(apprs, &projectmock.Repo{}, func() time.Time { return now })

	s, err := uc.Overview(context.Background(), &since)
	require.NoError(t, err)
	assert.Equal(t, 6, s.Total)
}

func TestProjectOverview(t *testing.T) {
	apprs := &approvalmock.Repo{
		ListByProjectIDFn: func(ctx context.Context, id uint64) ([]approval.Approval, error) {
			assert.Equal(t, uint64(42), id)
			return fixtureRows()[:2], nil
		},
	}
	projects := &projectmock.Repo{
		GetByProjectIDFn: func(ctx context.Context, id string) (*project.Project, error) {
			if id == "missing" {
				return nil, gorm.ErrRecordNotFound
			}
			return &project.Project{ID: 42, ProjectID: id}, nil
		},
	}
	uc := NewUsecase(apprs, projects, func() time.Time { return now })

	s, err := uc.ProjectOverview(context.Background(), "PRJ-1")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Total)
	assert.InDelta(t, 1.0, s.ResponseRate, 1e-9)

	_, err = uc.ProjectOverview(context.Background(), "missing")
	assert.True(t, errors.Is(err, project.ErrNotFound))
}
