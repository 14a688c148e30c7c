package dashboard

import (
	"time"

	"approv-backend/internal/domain/approval"
)

// ExpiringWindow is how close to its deadline a pending approval must be to count as expiring soon.
const ExpiringWindow = 48 * time.Hour

type Summary struct {
	Total            int            `json:"total"`
	Pending          int            `json:"pending"`
	Approved         int            `json:"approved"`
	ChangesRequested int            `json:"changes_requested"`
	Expired          int            `json:"expired"`
	ExpiringSoon     int            `json:"expiring_soon"`
	Resubmissions    int            `json:"resubmissions"`
	TotalViews       uint64         `json:"total_views"`
	ResponseRate     float64        `json:"response_rate"`      // responded / total
	ApprovalRate     float64        `json:"approval_rate"`      // approved / responded
	AvgResponseHours float64        `json:"avg_response_hours"` // over responded approvals
	ByStage          map[string]int `json:"by_stage"`
}

// Summarize aggregates approvals by display state at now. It is pure.
func Summarize(rows []approval.Approval, now time.Time) Summary {
	s := Summary{ByStage: map[string]int{}}
	var responseTime time.Duration

	for i := range rows {
		a := &rows[i]
		s.Total++
		s.TotalViews += uint64(a.ViewCount)
		s.ByStage[a.Stage]++
		if a.PreviousApprovalID != nil {
			s.Resubmissions++
		}

		switch a.DisplayState(now) {
		case approval.StatusPending:
			s.Pending++
			if a.ExpiresAt.Sub(now) <= ExpiringWindow {
				s.ExpiringSoon++
			}
		case approval.StatusApproved:
			s.Approved++
		case approval.StatusChangesRequested:
			s.ChangesRequested++
		case approval.StatusExpired:
			s.Expired++
		}
		if a.Status.Responded() && a.RespondedAt != nil {
			responseTime += a.RespondedAt.Sub(a.CreatedAt)
		}
	}

	responded := s.Approved + s.ChangesRequested
	if s.Total > 0 {
		s.ResponseRate = ratio(responded, s.Total)
	}
	if responded > 0 {
		s.ApprovalRate = ratio(s.Approved, responded)
		s.AvgResponseHours = responseTime.Hours() / float64(responded)
	}
	return s
}

func ratio(n, d int) float64 { return float64(n) / float64(d) }
