package projectmock

import (
	"context"

	domain "approv-backend/internal/domain/project"
)

var (
	_ domain.Repository       = (*Repo)(nil)
	_ domain.ClientRepository = (*ClientRepo)(nil)
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn         func(ctx context.Context, p *domain.Project) error
	GetByProjectIDFn func(ctx context.Context, projectID string) (*domain.Project, error)
	GetByIDFn        func(ctx context.Context, id uint64) (*domain.Project, error)
	ListFn           func(ctx context.Context) ([]domain.Project, error)
	ListByClientIDFn func(ctx context.Context, clientID uint64) ([]domain.Project, error)
	SaveFn           func(ctx context.Context, p *domain.Project) error
}

func (m *Repo) Create(ctx context.Context, p *domain.Project) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, p)
	}
	return nil
}

func (m *Repo) GetByProjectID(ctx context.Context, projectID string) (*domain.Project, error) {
	if m.GetByProjectIDFn != nil {
		return m.GetByProjectIDFn(ctx, projectID)
	}
	return nil, context.Canceled
}

func (m *Repo) GetByID(ctx context.Context, id uint64) (*domain.Project, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *Repo) List(ctx context.Context) ([]domain.Project, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, context.Canceled
}

func (m *Repo) ListByClientID(ctx context.Context, clientID uint64) ([]domain.Project, error) {
	if m.ListByClientIDFn != nil {
		return m.ListByClientIDFn(ctx, clientID)
	}
	return nil, context.Canceled
}

func (m *Repo) Save(ctx context.Context, p *domain.Project) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, p)
	}
	return nil
}

// ClientRepo is a function-backed mock that satisfies domain.ClientRepository.
type ClientRepo struct {
	CreateFn           func(ctx context.Context, c *domain.Client) error
	GetByClientIDFn    func(ctx context.Context, clientID string) (*domain.Client, error)
	GetByIDFn          func(ctx context.Context, id uint64) (*domain.Client, error)
	GetByPortalTokenFn func(ctx context.Context, token string) (*domain.Client, error)
	ListFn             func(ctx context.Context) ([]domain.Client, error)
}

func (m *ClientRepo) Create(ctx context.Context, c *domain.Client) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, c)
	}
	return nil
}

func (m *ClientRepo) GetByClientID(ctx context.Context, clientID string) (*domain.Client, error) {
	if m.GetByClientIDFn != nil {
		return m.GetByClientIDFn(ctx, clientID)
	}
	return nil, context.Canceled
}

func (m *ClientRepo) GetByID(ctx context.Context, id uint64) (*domain.Client, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}
	return nil, context.Canceled
}

func (m *ClientRepo) GetByPortalToken(ctx context.Context, token string) (*domain.Client, error) {
	if m.GetByPortalTokenFn != nil {
		return m.GetByPortalTokenFn(ctx, token)
	}
	return nil, context.Canceled
}

func (m *ClientRepo) List(ctx context.Context) ([]domain.Client, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, context.Canceled
}
