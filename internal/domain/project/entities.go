package project

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound          = errors.New("project not found")
	ErrClientNotFound    = errors.New("client not found")
	ErrNotActive         = errors.New("project is not accepting approval requests")
	ErrInvalidTransition = errors.New("project status change not allowed")
	ErrInvalidStatus     = fmt.Errorf("%w: invalid project status", ErrValidation)

	ErrValidation = errors.New("validation failed")
)

type Status string

const (
	StatusActive    Status = "active"
	StatusOnHold    Status = "on_hold"
	StatusCompleted Status = "completed"
	StatusArchived  Status = "archived"
)

func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusOnHold, StatusCompleted, StatusArchived:
		return st, nil
	default:
		return "", ErrInvalidStatus
	}
}

// CanMoveTo reports whether a status change is allowed. Archived projects are frozen.
func (s Status) CanMoveTo(next Status) bool {
	if s == StatusArchived || s == next {
		return false
	}
	switch next {
	case StatusActive, StatusOnHold, StatusCompleted, StatusArchived:
		return true
	default:
		return false
	}
}

type Client struct {
	ID          uint64    `gorm:"primaryKey;column:id" json:"-"`
	ClientID    string    `gorm:"size:32;uniqueIndex:ux_clients_client_id" json:"client_id"`
	Name        string    `gorm:"size:255;not null" json:"name"`
	Email       string    `gorm:"size:255;not null;index:idx_clients_email" json:"email"`
	Phone       string    `gorm:"size:32" json:"phone,omitempty"`
	Company     string    `gorm:"size:255" json:"company,omitempty"`
	PortalToken string    `gorm:"size:64;uniqueIndex:ux_clients_portal_token" json:"-"`
	CreatedBy   string    `gorm:"size:64" json:"-"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Client) TableName() string { return "clients" }

type Project struct {
	ID              uint64    `gorm:"primaryKey;column:id" json:"-"`
	ProjectID       string    `gorm:"size:32;uniqueIndex:ux_projects_project_id" json:"project_id"`
	ClientID        uint64    `gorm:"not null;index:idx_projects_client" json:"-"`
	Name            string    `gorm:"size:255;not null" json:"name"`
	Reference       string    `gorm:"size:64" json:"reference,omitempty"`
	Address         string    `gorm:"type:text" json:"address,omitempty"`
	Status          Status    `gorm:"size:32;default:'active'" json:"status"`
	StatusUpdatedAt time.Time `gorm:"autoCreateTime" json:"status_updated_at"`
	CreatedBy       string    `gorm:"size:64" json:"-"`
	CreatedAt       time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (Project) TableName() string { return "projects" }
