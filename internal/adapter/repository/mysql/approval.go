package mysql

import (
	"context"
	"crypto/subtle"
	"time"

	approvalDomain "approv-backend/internal/domain/approval"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ApprovalRepository struct{ db *gorm.DB }

func NewApprovalRepository(db *gorm.DB) *ApprovalRepository { return &ApprovalRepository{db: db} }

func (r *ApprovalRepository) Create(ctx context.Context, a *approvalDomain.Approval) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// GetByToken matches the unique index, then compares bytes again so a
// case-insensitive column collation can never resolve a different token.
func (r *ApprovalRepository) GetByToken(ctx context.Context, token string) (*approvalDomain.Approval, error) {
	var out approvalDomain.Approval
	res := r.db.WithContext(ctx).Where("token = ?", token).First(&out)
	if res.Error != nil {
		return nil, res.Error
	}
	if subtle.ConstantTimeCompare([]byte(out.Token), []byte(token)) != 1 {
		return nil, gorm.ErrRecordNotFound
	}
	return &out, nil
}

func (r *ApprovalRepository) GetByApprovalID(ctx context.Context, approvalID string) (*approvalDomain.Approval, error) {
	var out approvalDomain.Approval
	res := r.db.WithContext(ctx).Where("approval_id = ?", approvalID).First(&out)
	return &out, res.Error
}

func (r *ApprovalRepository) GetByApprovalIDForUpdate(ctx context.Context, approvalID string) (*approvalDomain.Approval, error) {
	var out approvalDomain.Approval
	res := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("approval_id = ?", approvalID).
		First(&out)
	return &out, res.Error
}

func (r *ApprovalRepository) ListByProjectID(ctx context.Context, projectID uint64) ([]approvalDomain.Approval, error) {
	var out []approvalDomain.Approval
	res := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at DESC, id DESC").
		Find(&out)
	return out, res.Error
}

func (r *ApprovalRepository) List(ctx context.Context, f approvalDomain.ListFilter) ([]approvalDomain.Approval, error) {
	q := r.db.WithContext(ctx).Model(&approvalDomain.Approval{})
	if len(f.ProjectIDs) > 0 {
		q = q.Where("project_id IN ?", f.ProjectIDs)
	}
	if f.CreatedFrom != nil {
		q = q.Where("created_at >= ?", f.CreatedFrom.UTC())
	}
	if len(f.Statuses) > 0 {
		statuses := make([]string, 0, len(f.Statuses))
		for _, s := range f.Statuses {
			statuses = append(statuses, string(s))
		}
		q = q.Where("status IN ?", statuses)
	}
	var out []approvalDomain.Approval
	res := q.Order("created_at DESC, id DESC").Find(&out)
	return out, res.Error
}

func (r *ApprovalRepository) HasSuccessor(ctx context.Context, id uint64) (bool, error) {
	var n int64
	res := r.db.WithContext(ctx).
		Model(&approvalDomain.Approval{}).
		Where("previous_approval_id = ?", id).
		Count(&n)
	return n > 0, res.Error
}

// ApplyResponse is a compare-and-swap on status: a single UPDATE guarded by
// status = pending and the deadline, so only one decision can ever land.
func (r *ApprovalRepository) ApplyResponse(ctx context.Context, id uint64, resp approvalDomain.Response) (bool, error) {
	at := resp.RespondedAt.UTC()
	res := r.db.WithContext(ctx).
		Model(&approvalDomain.Approval{}).
		Where("id = ? AND status = ? AND expires_at >= ?", id, string(approvalDomain.StatusPending), at).
		Updates(map[string]any{
			"status":         string(resp.Status),
			"responded_at":   at,
			"response_notes": resp.Notes,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ApprovalRepository) IncrementViewCount(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).
		Model(&approvalDomain.Approval{}).
		Where("id = ? AND status = ?", id, string(approvalDomain.StatusPending)).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1)).Error
}

func (r *ApprovalRepository) RecordReminder(ctx context.Context, id uint64, at, notAfter time.Time) (bool, error) {
	at = at.UTC()
	res := r.db.WithContext(ctx).
		Model(&approvalDomain.Approval{}).
		Where("id = ? AND status = ? AND expires_at >= ?", id, string(approvalDomain.StatusPending), at).
		Where("(last_reminder_at IS NULL OR last_reminder_at <= ?)", notAfter.UTC()).
		Updates(map[string]any{
			"reminder_count":   gorm.Expr("reminder_count + ?", 1),
			"last_reminder_at": at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ApprovalRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&approvalDomain.Approval{}).
		Where("status = ? AND expires_at < ?", string(approvalDomain.StatusPending), now.UTC()).
		Update("status", string(approvalDomain.StatusExpired))
	return res.RowsAffected, res.Error
}
