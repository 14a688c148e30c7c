package mysql

import (
	"context"
	"crypto/subtle"

	projectDomain "approv-backend/internal/domain/project"

	"gorm.io/gorm"
)

type ClientRepository struct{ db *gorm.DB }

func NewClientRepository(db *gorm.DB) *ClientRepository { return &ClientRepository{db: db} }

func (r *ClientRepository) Create(ctx context.Context, c *projectDomain.Client) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *ClientRepository) GetByClientID(ctx context.Context, clientID string) (*projectDomain.Client, error) {
	var out projectDomain.Client
	res := r.db.WithContext(ctx).Where("client_id = ?", clientID).First(&out)
	return &out, res.Error
}

func (r *ClientRepository) GetByID(ctx context.Context, id uint64) (*projectDomain.Client, error) {
	var out projectDomain.Client
	res := r.db.WithContext(ctx).Where("id = ?", id).First(&out)
	return &out, res.Error
}

func (r *ClientRepository) GetByPortalToken(ctx context.Context, token string) (*projectDomain.Client, error) {
	var out projectDomain.Client
	res := r.db.WithContext(ctx).Where("portal_token = ?", token).First(&out)
	if res.Error != nil {
		return nil, res.Error
	}
	if subtle.ConstantTimeCompare([]byte(out.PortalToken), []byte(token)) != 1 {
		return nil, gorm.ErrRecordNotFound
	}
	return &out, nil
}

func (r *ClientRepository) List(ctx context.Context) ([]projectDomain.Client, error) {
	var out []projectDomain.Client
	res := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&out)
	return out, res.Error
}
