package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	domainApproval "approv-backend/internal/domain/approval"
	"approv-backend/internal/domain/notification"
	domainProject "approv-backend/internal/domain/project"
	"approv-backend/internal/domain/uow"
	"approv-backend/internal/metrics"
	"approv-backend/pkg/id"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const defaultReminderCooldown = 24 * time.Hour

type Options struct {
	PublicBaseURL     string
	DefaultExpiryDays int
	ReminderCooldown  time.Duration
	Logger            logrus.FieldLogger
	Now               func() time.Time
}

type Usecase struct {
	approvals domainApproval.Repository
	projects  domainProject.Repository
	clients   domainProject.ClientRepository
	uow       uow.UnitOfWork

	baseURL     string
	defaultDays int
	cooldown    time.Duration
	log         logrus.FieldLogger
	now         func() time.Time
}

// errNotApplied rolls back a transition whose conditional write matched no row.
var errNotApplied = errors.New("conditional write not applied")

func NewUsecase(approvals domainApproval.Repository, projects domainProject.Repository, clients domainProject.ClientRepository, tx uow.UnitOfWork, opts Options) *Usecase {
	u := &Usecase{
		approvals:   approvals,
		projects:    projects,
		clients:     clients,
		uow:         tx,
		baseURL:     strings.TrimRight(opts.PublicBaseURL, "/"),
		defaultDays: opts.DefaultExpiryDays,
		cooldown:    opts.ReminderCooldown,
		log:         opts.Logger,
		now:         opts.Now,
	}
	if u.defaultDays == 0 {
		u.defaultDays = domainApproval.DefaultExpiryDays
	}
	if u.cooldown <= 0 {
		u.cooldown = defaultReminderCooldown
	}
	if u.log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		u.log = l
	}
	if u.now == nil {
		u.now = time.Now
	}
	return u
}

func (u *Usecase) clock() time.Time { return u.now().UTC() }

// Link is the public URL a client opens.
func (u *Usecase) Link(token string) string { return u.baseURL + "/a/" + token }

func (u *Usecase) Create(ctx context.Context, in CreateInput) (*ApprovalDTO, error) {
	stage, err := domainApproval.ResolveStage(in.Stage, in.StageLabel)
	if err != nil {
		return nil, err
	}
	days, err := u.expiryDays(in.ExpiryDays)
	if err != nil {
		return nil, err
	}
	var deliverable domainApproval.Deliverable
	if in.Deliverable != nil {
		deliverable = *in.Deliverable
		if err := deliverable.Validate(); err != nil {
			return nil, err
		}
	}

	p, err := u.activeProject(ctx, in.ProjectID)
	if err != nil {
		return nil, err
	}
	client := u.clientFor(ctx, u.clients, p)

	now := u.clock()
	a := &domainApproval.Approval{
		ApprovalID:  id.NewID32(),
		Token:       id.NewToken(),
		ProjectID:   p.ID,
		Stage:       stage.Code,
		StageLabel:  stage.Label,
		Deliverable: deliverable,
		Message:     strings.TrimSpace(in.Message),
		Status:      domainApproval.StatusPending,
		CreatedAt:   now,
		ExpiresAt:   domainApproval.ComputeExpiry(now, days),
		Revision:    1,
		CreatedBy:   in.CreatedBy,
	}

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Approvals.Create(ctx, a); err != nil {
			return fmt.Errorf("create approval: %w", err)
		}
		return u.enqueue(ctx, r, notification.TypeApprovalRequested, a, p, client, now)
	})
	if err != nil {
		return nil, err
	}

	metrics.Transitions.WithLabelValues(string(domainApproval.StatusPending)).Inc()
	u.log.WithFields(logrus.Fields{
		"approval_id": a.ApprovalID,
		"project_id":  p.ProjectID,
		"stage":       a.Stage,
		"expires_at":  a.ExpiresAt,
	}).Info("approval requested")

	return u.toDTO(a, p.ProjectID, now), nil
}

// View resolves a public token. A miss and a malformed token look the same.
func (u *Usecase) View(ctx context.Context, token string) (*ViewDTO, error) {
	a, err := u.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	now := u.clock()
	state := a.DisplayState(now)
	if state == domainApproval.StatusPending {
		if err := u.approvals.IncrementViewCount(ctx, a.ID); err != nil {
			u.log.WithError(err).WithField("approval_id", a.ApprovalID).Warn("view count not recorded")
		}
	}

	out := &ViewDTO{
		State:         string(state),
		Stage:         a.Stage,
		StageLabel:    a.StageLabel,
		Deliverable:   deliverableDTO(a.Deliverable),
		Message:       a.Message,
		ExpiresAt:     a.ExpiresAt,
		RespondedAt:   a.RespondedAt,
		ResponseNotes: a.ResponseNotes,
		Revision:      a.Revision,
	}
	if p, err := u.projects.GetByID(ctx, a.ProjectID); err == nil {
		out.ProjectName = p.Name
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load project: %w", err)
	}
	return out, nil
}

// Submit records a client decision. Decide gives the precise rejection; the
// conditional update in ApplyResponse settles races between concurrent submits.
func (u *Usecase) Submit(ctx context.Context, token string, d domainApproval.Decision) (*SubmitResult, error) {
	a, err := u.resolve(ctx, token)
	if err != nil {
		return nil, err
	}
	now := u.clock()
	resp, err := a.Decide(d, now)
	if errors.Is(err, domainApproval.ErrAlreadyResponded) {
		return nil, &StateError{State: a.Status, Err: err}
	}
	if err != nil {
		return nil, err
	}

	p, err := u.projects.GetByID(ctx, a.ProjectID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load project: %w", err)
	}
	if err != nil {
		p = &domainProject.Project{}
	}
	client := u.clientFor(ctx, u.clients, p)

	evType := notification.TypeApprovalApproved
	if resp.Status == domainApproval.StatusChangesRequested {
		evType = notification.TypeChangesRequested
	}

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		applied, err := r.Approvals.ApplyResponse(ctx, a.ID, resp)
		if err != nil {
			return fmt.Errorf("apply response: %w", err)
		}
		if !applied {
			return errNotApplied
		}
		updated := *a
		resp.Apply(&updated)
		return u.enqueue(ctx, r, evType, &updated, p, client, now)
	})
	if errors.Is(err, errNotApplied) {
		return nil, u.explainLostWrite(ctx, a.ApprovalID, now)
	}
	if err != nil {
		return nil, err
	}

	metrics.Transitions.WithLabelValues(string(resp.Status)).Inc()
	u.log.WithFields(logrus.Fields{
		"approval_id": a.ApprovalID,
		"status":      resp.Status,
	}).Info("approval responded")

	return &SubmitResult{Status: string(resp.Status), RespondedAt: resp.RespondedAt}, nil
}

// explainLostWrite reloads after a conditional write matched nothing.
func (u *Usecase) explainLostWrite(ctx context.Context, approvalID string, now time.Time) error {
	cur, err := u.approvals.GetByApprovalID(ctx, approvalID)
	if err != nil {
		return fmt.Errorf("reload approval: %w", err)
	}
	if cur.DisplayState(now) == domainApproval.StatusExpired {
		return domainApproval.ErrExpired
	}
	return &StateError{State: cur.Status, Err: domainApproval.ErrConcurrencyConflict}
}

// Resubmit opens a new pending cycle after changes were requested. The original
// row is locked for the duration and never modified.
func (u *Usecase) Resubmit(ctx context.Context, approvalID string, in ResubmitInput) (*ApprovalDTO, error) {
	var (
		next    *domainApproval.Approval
		project *domainProject.Project
	)
	now := u.clock()

	err := u.uow.WithinApprovalTx(ctx, approvalID, func(r uow.Repos, orig *domainApproval.Approval) error {
		if !orig.CanResubmit(now) {
			return domainApproval.ErrInvalidTransition
		}
		has, err := r.Approvals.HasSuccessor(ctx, orig.ID)
		if err != nil {
			return fmt.Errorf("check successor: %w", err)
		}
		if has {
			return domainApproval.ErrAlreadyResubmitted
		}

		message := strings.TrimSpace(in.Message)
		hasNew := in.Deliverable != nil && !in.Deliverable.IsZero()
		if !hasNew && message == "" {
			return domainApproval.ErrNothingToResubmit
		}
		deliverable := orig.Deliverable
		if hasNew {
			if err := in.Deliverable.Validate(); err != nil {
				return err
			}
			deliverable = *in.Deliverable
		}
		days, err := u.expiryDays(in.ExpiryDays)
		if err != nil {
			return err
		}

		p, err := r.Projects.GetByID(ctx, orig.ProjectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domainProject.ErrNotFound
			}
			return fmt.Errorf("load project: %w", err)
		}
		if p.Status != domainProject.StatusActive {
			return domainProject.ErrNotActive
		}
		project = p

		prevID := orig.ID
		next = &domainApproval.Approval{
			ApprovalID:         id.NewID32(),
			Token:              id.NewToken(),
			ProjectID:          orig.ProjectID,
			Stage:              orig.Stage,
			StageLabel:         orig.StageLabel,
			Deliverable:        deliverable,
			Message:            message,
			Status:             domainApproval.StatusPending,
			CreatedAt:          now,
			ExpiresAt:          domainApproval.ComputeExpiry(now, days),
			PreviousApprovalID: &prevID,
			Revision:           orig.Revision + 1,
			CreatedBy:          in.CreatedBy,
		}
		if err := r.Approvals.Create(ctx, next); err != nil {
			return fmt.Errorf("create resubmission: %w", err)
		}
		return u.enqueue(ctx, r, notification.TypeResubmitted, next, p, u.clientFor(ctx, r.Clients, p), now)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domainApproval.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	metrics.Transitions.WithLabelValues(string(domainApproval.StatusPending)).Inc()
	u.log.WithFields(logrus.Fields{
		"approval_id": next.ApprovalID,
		"previous_id": approvalID,
		"revision":    next.Revision,
	}).Info("approval resubmitted")

	return u.toDTO(next, project.ProjectID, now), nil
}

// Remind nudges the client of a pending approval, at most once per cooldown.
func (u *Usecase) Remind(ctx context.Context, approvalID string) (*ReminderDTO, error) {
	a, err := u.approvals.GetByApprovalID(ctx, approvalID)
	if err != nil {
		return nil, notFound(err)
	}
	now := u.clock()
	switch a.DisplayState(now) {
	case domainApproval.StatusExpired:
		return nil, domainApproval.ErrExpired
	case domainApproval.StatusApproved, domainApproval.StatusChangesRequested:
		return nil, &StateError{State: a.Status, Err: domainApproval.ErrAlreadyResponded}
	}
	if !a.CanRemind(now, u.cooldown) {
		return nil, domainApproval.ErrReminderTooSoon
	}

	p, err := u.projects.GetByID(ctx, a.ProjectID)
	if err != nil {
		return nil, notFound(err)
	}
	client := u.clientFor(ctx, u.clients, p)

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		applied, err := r.Approvals.RecordReminder(ctx, a.ID, now, now.Add(-u.cooldown))
		if err != nil {
			return fmt.Errorf("record reminder: %w", err)
		}
		if !applied {
			return errNotApplied
		}
		return u.enqueue(ctx, r, notification.TypeReminder, a, p, client, now)
	})
	if errors.Is(err, errNotApplied) {
		return nil, domainApproval.ErrReminderTooSoon
	}
	if err != nil {
		return nil, err
	}

	u.log.WithField("approval_id", a.ApprovalID).Info("reminder queued")
	return &ReminderDTO{ApprovalID: a.ApprovalID, ReminderCount: a.ReminderCount + 1, LastReminderAt: now}, nil
}

func (u *Usecase) Get(ctx context.Context, approvalID string) (*ApprovalDTO, error) {
	a, err := u.approvals.GetByApprovalID(ctx, approvalID)
	if err != nil {
		return nil, notFound(err)
	}
	p, err := u.projects.GetByID(ctx, a.ProjectID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("load project: %w", err)
	}
	projectID := ""
	if err == nil {
		projectID = p.ProjectID
	}
	return u.toDTO(a, projectID, u.clock()), nil
}

func (u *Usecase) ListByProject(ctx context.Context, projectID string) ([]ApprovalDTO, error) {
	p, err := u.projects.GetByProjectID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainProject.ErrNotFound
		}
		return nil, fmt.Errorf("load project: %w", err)
	}
	rows, err := u.approvals.ListByProjectID(ctx, p.ID)
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	now := u.clock()
	out := make([]ApprovalDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *u.toDTO(&rows[i], p.ProjectID, now))
	}
	return out, nil
}

// SweepExpired persists the expired status for overdue pending rows. Reads never
// depend on it.
func (u *Usecase) SweepExpired(ctx context.Context) (int64, error) {
	n, err := u.approvals.MarkExpired(ctx, u.clock())
	if err != nil {
		return 0, fmt.Errorf("mark expired: %w", err)
	}
	if n > 0 {
		metrics.Transitions.WithLabelValues(string(domainApproval.StatusExpired)).Add(float64(n))
	}
	u.log.WithField("count", n).Info("expired approvals swept")
	return n, nil
}

func (u *Usecase) resolve(ctx context.Context, token string) (*domainApproval.Approval, error) {
	a, err := u.approvals.GetByToken(ctx, token)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.TokenResolutions.WithLabelValues("miss").Inc()
			return nil, domainApproval.ErrNotFound
		}
		return nil, fmt.Errorf("resolve token: %w", err)
	}
	metrics.TokenResolutions.WithLabelValues("hit").Inc()
	return a, nil
}

func (u *Usecase) expiryDays(days int) (int, error) {
	if days == 0 {
		days = u.defaultDays
	}
	return domainApproval.ExpiryDays(days)
}

func (u *Usecase) activeProject(ctx context.Context, projectID string) (*domainProject.Project, error) {
	p, err := u.projects.GetByProjectID(ctx, projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domainProject.ErrNotFound
		}
		return nil, fmt.Errorf("load project: %w", err)
	}
	if p.Status != domainProject.StatusActive {
		return nil, domainProject.ErrNotActive
	}
	return p, nil
}

// clientFor loads contact details for notifications. A missing client only
// thins the payload.
func (u *Usecase) clientFor(ctx context.Context, clients domainProject.ClientRepository, p *domainProject.Project) *domainProject.Client {
	if p == nil || p.ClientID == 0 {
		return nil
	}
	c, err := clients.GetByID(ctx, p.ClientID)
	if err != nil {
		u.log.WithError(err).WithField("project_id", p.ProjectID).Warn("client not loaded for notification")
		return nil
	}
	return c
}

func (u *Usecase) enqueue(ctx context.Context, r uow.Repos, t notification.Type, a *domainApproval.Approval, p *domainProject.Project, c *domainProject.Client, now time.Time) error {
	payload := notification.Payload{
		ApprovalID:  a.ApprovalID,
		ProjectID:   p.ProjectID,
		ProjectName: p.Name,
		Stage:       a.Stage,
		StageLabel:  a.StageLabel,
		Status:      string(a.Status),
		Link:        u.Link(a.Token),
		Deliverable: a.Deliverable.Name,
		Message:     a.Message,
		Revision:    a.Revision,
		Revised:     a.PreviousApprovalID != nil,
		ExpiresAt:   a.ExpiresAt,
	}
	if a.ResponseNotes != nil {
		payload.Notes = *a.ResponseNotes
	}
	if c != nil {
		payload.ClientName = c.Name
		payload.ClientEmail = c.Email
		payload.ClientPhone = c.Phone
	}
	ev, err := notification.NewEvent(t, payload, now)
	if err != nil {
		return fmt.Errorf("build %s event: %w", t, err)
	}
	if err := r.Events.Enqueue(ctx, ev); err != nil {
		return fmt.Errorf("enqueue %s event: %w", t, err)
	}
	return nil
}

func (u *Usecase) toDTO(a *domainApproval.Approval, projectID string, now time.Time) *ApprovalDTO {
	return &ApprovalDTO{
		ApprovalID:     a.ApprovalID,
		ProjectID:      projectID,
		Stage:          a.Stage,
		StageLabel:     a.StageLabel,
		Deliverable:    deliverableDTO(a.Deliverable),
		Message:        a.Message,
		Status:         string(a.Status),
		State:          string(a.DisplayState(now)),
		Token:          a.Token,
		Link:           u.Link(a.Token),
		CreatedAt:      a.CreatedAt,
		ExpiresAt:      a.ExpiresAt,
		RespondedAt:    a.RespondedAt,
		ResponseNotes:  a.ResponseNotes,
		ViewCount:      a.ViewCount,
		ReminderCount:  a.ReminderCount,
		LastReminderAt: a.LastReminderAt,
		Revision:       a.Revision,
		Resubmission:   a.PreviousApprovalID != nil,
		CreatedBy:      a.CreatedBy,
	}
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainApproval.ErrNotFound
	}
	return err
}
