package project

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	domainApproval "approv-backend/internal/domain/approval"
	domain "approv-backend/internal/domain/project"
	"approv-backend/internal/domain/uow"
	"approv-backend/pkg/id"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

type Usecase struct {
	projects  domain.Repository
	clients   domain.ClientRepository
	approvals domainApproval.Repository
	uow       uow.UnitOfWork
	baseURL   string
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewUsecase(projects domain.Repository, clients domain.ClientRepository, approvals domainApproval.Repository, tx uow.UnitOfWork, baseURL string, log logrus.FieldLogger) *Usecase {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.PanicLevel)
		log = l
	}
	return &Usecase{
		projects:  projects,
		clients:   clients,
		approvals: approvals,
		uow:       tx,
		baseURL:   strings.TrimRight(baseURL, "/"),
		log:       log,
		now:       time.Now,
	}
}

// WithClock overrides the time source.
func (u *Usecase) WithClock(now func() time.Time) *Usecase {
	u.now = now
	return u
}

func (u *Usecase) CreateClient(ctx context.Context, in CreateClientInput) (*ClientDTO, error) {
	name := strings.TrimSpace(in.Name)
	email := strings.TrimSpace(in.Email)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrValidation)
	}

	c := &domain.Client{
		ClientID:    id.NewID32(),
		Name:        name,
		Email:       strings.ToLower(email),
		Phone:       strings.TrimSpace(in.Phone),
		Company:     strings.TrimSpace(in.Company),
		PortalToken: id.NewToken(),
		CreatedBy:   in.CreatedBy,
	}
	if err := u.clients.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create client: %w", err)
	}
	u.log.WithField("client_id", c.ClientID).Info("client created")
	return u.clientDTO(c), nil
}

func (u *Usecase) GetClient(ctx context.Context, clientID string) (*ClientDTO, error) {
	c, err := u.clients.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, clientNotFound(err)
	}
	return u.clientDTO(c), nil
}

func (u *Usecase) ListClients(ctx context.Context) ([]ClientDTO, error) {
	rows, err := u.clients.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	out := make([]ClientDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *u.clientDTO(&rows[i]))
	}
	return out, nil
}

func (u *Usecase) CreateProject(ctx context.Context, in CreateProjectInput) (*ProjectDTO, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	c, err := u.clients.GetByClientID(ctx, in.ClientID)
	if err != nil {
		return nil, clientNotFound(err)
	}

	now := u.now().UTC()
	p := &domain.Project{
		ProjectID:       id.NewID32(),
		ClientID:        c.ID,
		Name:            name,
		Reference:       strings.TrimSpace(in.Reference),
		Address:         strings.TrimSpace(in.Address),
		Status:          domain.StatusActive,
		StatusUpdatedAt: now,
		CreatedBy:       in.CreatedBy,
	}
	if err := u.projects.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	u.log.WithFields(logrus.Fields{"project_id": p.ProjectID, "client_id": c.ClientID}).Info("project created")
	return projectDTO(p, c.ClientID), nil
}

func (u *Usecase) GetProject(ctx context.Context, projectID string) (*ProjectDTO, error) {
	p, err := u.projects.GetByProjectID(ctx, projectID)
	if err != nil {
		return nil, projectNotFound(err)
	}
	return projectDTO(p, u.publicClientID(ctx, p.ClientID)), nil
}

// ListProjects lists all projects, or one client's when clientID is set.
func (u *Usecase) ListProjects(ctx context.Context, clientID string) ([]ProjectDTO, error) {
	var (
		rows []domain.Project
		err  error
	)
	if clientID != "" {
		c, cerr := u.clients.GetByClientID(ctx, clientID)
		if cerr != nil {
			return nil, clientNotFound(cerr)
		}
		rows, err = u.projects.ListByClientID(ctx, c.ID)
	} else {
		rows, err = u.projects.List(ctx)
	}
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	ids := map[uint64]string{}
	out := make([]ProjectDTO, 0, len(rows))
	for i := range rows {
		cid, ok := ids[rows[i].ClientID]
		if !ok {
			cid = u.publicClientID(ctx, rows[i].ClientID)
			ids[rows[i].ClientID] = cid
		}
		out = append(out, *projectDTO(&rows[i], cid))
	}
	return out, nil
}

// UpdateStatus moves a project between statuses. Archived projects are frozen.
func (u *Usecase) UpdateStatus(ctx context.Context, projectID, status string) (*ProjectDTO, error) {
	next, err := domain.ParseStatus(status)
	if err != nil {
		return nil, err
	}
	var out *domain.Project
	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		p, err := r.Projects.GetByProjectID(ctx, projectID)
		if err != nil {
			return projectNotFound(err)
		}
		if !p.Status.CanMoveTo(next) {
			return domain.ErrInvalidTransition
		}
		p.Status = next
		p.StatusUpdatedAt = u.now().UTC()
		if err := r.Projects.Save(ctx, p); err != nil {
			return fmt.Errorf("save project: %w", err)
		}
		out = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	u.log.WithFields(logrus.Fields{"project_id": projectID, "status": next}).Info("project status changed")
	return projectDTO(out, u.publicClientID(ctx, out.ClientID)), nil
}

// Portal resolves a client's portal token into their projects and approval history.
// Tokens of individual approvals are exposed only while they can still be answered.
func (u *Usecase) Portal(ctx context.Context, portalToken string) (*PortalDTO, error) {
	c, err := u.clients.GetByPortalToken(ctx, portalToken)
	if err != nil {
		return nil, clientNotFound(err)
	}
	projects, err := u.projects.ListByClientID(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	out := &PortalDTO{ClientName: c.Name, Company: c.Company, Projects: make([]PortalProjectDTO, 0, len(projects))}
	if len(projects) == 0 {
		return out, nil
	}

	ids := make([]uint64, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}
	rows, err := u.approvals.List(ctx, domainApproval.ListFilter{ProjectIDs: ids})
	if err != nil {
		return nil, fmt.Errorf("list approvals: %w", err)
	}
	byProject := map[uint64][]PortalApprovalDTO{}
	now := u.now().UTC()
	for i := range rows {
		a := &rows[i]
		state := a.DisplayState(now)
		dto := PortalApprovalDTO{
			Stage:       a.Stage,
			StageLabel:  a.StageLabel,
			State:       string(state),
			Revision:    a.Revision,
			CreatedAt:   a.CreatedAt,
			ExpiresAt:   a.ExpiresAt,
			RespondedAt: a.RespondedAt,
		}
		if state == domainApproval.StatusPending {
			dto.Link = u.baseURL + "/a/" + a.Token
		}
		byProject[a.ProjectID] = append(byProject[a.ProjectID], dto)
	}
	for _, p := range projects {
		approvals := byProject[p.ID]
		if approvals == nil {
			approvals = []PortalApprovalDTO{}
		}
		out.Projects = append(out.Projects, PortalProjectDTO{
			Name:      p.Name,
			Reference: p.Reference,
			Status:    string(p.Status),
			Approvals: approvals,
		})
	}
	return out, nil
}

func (u *Usecase) publicClientID(ctx context.Context, pk uint64) string {
	c, err := u.clients.GetByID(ctx, pk)
	if err != nil {
		u.log.WithError(err).WithField("client", pk).Warn("client lookup failed")
		return ""
	}
	return c.ClientID
}

func (u *Usecase) clientDTO(c *domain.Client) *ClientDTO {
	return &ClientDTO{
		ClientID:   c.ClientID,
		Name:       c.Name,
		Email:      c.Email,
		Phone:      c.Phone,
		Company:    c.Company,
		PortalLink: u.baseURL + "/portal/" + c.PortalToken,
		CreatedAt:  c.CreatedAt,
	}
}

func projectDTO(p *domain.Project, clientID string) *ProjectDTO {
	return &ProjectDTO{
		ProjectID:       p.ProjectID,
		ClientID:        clientID,
		Name:            p.Name,
		Reference:       p.Reference,
		Address:         p.Address,
		Status:          string(p.Status),
		StatusUpdatedAt: p.StatusUpdatedAt,
		CreatedAt:       p.CreatedAt,
	}
}

func clientNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrClientNotFound
	}
	return err
}

func projectNotFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}
	return err
}
