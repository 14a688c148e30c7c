package project

import (
	"time"
)

type CreateClientInput struct {
	Name      string
	Email     string
	Phone     string
	Company   string
	CreatedBy string
}

type CreateProjectInput struct {
	ClientID  string // public client id
	Name      string
	Reference string
	Address   string
	CreatedBy string
}

type ClientDTO struct {
	ClientID   string    `json:"client_id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Phone      string    `json:"phone,omitempty"`
	Company    string    `json:"company,omitempty"`
	PortalLink string    `json:"portal_link"`
	CreatedAt  time.Time `json:"created_at"`
}

type ProjectDTO struct {
	ProjectID       string    `json:"project_id"`
	ClientID        string    `json:"client_id"`
	Name            string    `json:"name"`
	Reference       string    `json:"reference,omitempty"`
	Address         string    `json:"address,omitempty"`
	Status          string    `json:"status"`
	StatusUpdatedAt time.Time `json:"status_updated_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// PortalDTO is the read-only overview a client sees through the portal link.
type PortalDTO struct {
	ClientName string             `json:"client_name"`
	Company    string             `json:"company,omitempty"`
	Projects   []PortalProjectDTO `json:"projects"`
}

type PortalProjectDTO struct {
	Name      string              `json:"name"`
	Reference string              `json:"reference,omitempty"`
	Status    string              `json:"status"`
	Approvals []PortalApprovalDTO `json:"approvals"`
}

type PortalApprovalDTO struct {
	Stage       string     `json:"stage"`
	StageLabel  string     `json:"stage_label"`
	State       string     `json:"state"`
	Revision    uint       `json:"revision"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
	Link        string     `json:"link,omitempty"` // pending only
}
