package project

import "context"

type Repository interface {
	Create(ctx context.Context, p *Project) error
	GetByProjectID(ctx context.Context, projectID string) (*Project, error)
	GetByID(ctx context.Context, id uint64) (*Project, error)
	List(ctx context.Context) ([]Project, error)
	ListByClientID(ctx context.Context, clientID uint64) ([]Project, error)
	Save(ctx context.Context, p *Project) error
}

type ClientRepository interface {
	Create(ctx context.Context, c *Client) error
	GetByClientID(ctx context.Context, clientID string) (*Client, error)
	GetByID(ctx context.Context, id uint64) (*Client, error)
	GetByPortalToken(ctx context.Context, token string) (*Client, error)
	List(ctx context.Context) ([]Client, error)
}
