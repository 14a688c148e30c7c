package http

import (
	"context"
	"net/http"

	"approv-backend/internal/adapter/middleware"
	ucProject "approv-backend/internal/usecase/project"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type ProjectService interface {
	CreateClient(ctx context.Context, in ucProject.CreateClientInput) (*ucProject.ClientDTO, error)
	GetClient(ctx context.Context, clientID string) (*ucProject.ClientDTO, error)
	ListClients(ctx context.Context) ([]ucProject.ClientDTO, error)
	CreateProject(ctx context.Context, in ucProject.CreateProjectInput) (*ucProject.ProjectDTO, error)
	GetProject(ctx context.Context, projectID string) (*ucProject.ProjectDTO, error)
	ListProjects(ctx context.Context, clientID string) ([]ucProject.ProjectDTO, error)
	UpdateStatus(ctx context.Context, projectID, status string) (*ucProject.ProjectDTO, error)
	Portal(ctx context.Context, portalToken string) (*ucProject.PortalDTO, error)
}

type ProjectHandler struct {
	uc ProjectService
	errorMapper
}

func NewProjectHandler(uc ProjectService, log logrus.FieldLogger) *ProjectHandler {
	return &ProjectHandler{uc: uc, errorMapper: errorMapper{log: log}}
}

type createClientReq struct {
	Name    string `json:"name"    validate:"required,max=255"`
	Email   string `json:"email"   validate:"required,email,max=255"`
	Phone   string `json:"phone"   validate:"max=32"`
	Company string `json:"company" validate:"max=255"`
}

type createProjectReq struct {
	ClientID  string `json:"client_id" validate:"required,hex32"`
	Name      string `json:"name"      validate:"required,max=255"`
	Reference string `json:"reference" validate:"max=64"`
	Address   string `json:"address"   validate:"max=500"`
}

type updateStatusReq struct {
	Status string `json:"status" validate:"required"`
}

// CreateClient POST /clients
func (h *ProjectHandler) CreateClient(c echo.Context) error {
	var req createClientReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.CreateClient(c.Request().Context(), ucProject.CreateClientInput{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Company:   req.Company,
		CreatedBy: middleware.Subject(c),
	})
	if err != nil {
		return h.write(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

// GetClient GET /clients/:client_id
func (h *ProjectHandler) GetClient(c echo.Context) error {
	clientID, ok := hex32Param(c, "client_id")
	if !ok {
		return c.JSON(http.StatusNotFound, notFoundBody)
	}
	dto, err := h.uc.GetClient(c.Request().Context(), clientID)
	if err != nil {
		return h.write(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// ListClients GET /clients
func (h *ProjectHandler) ListClients(c echo.Context) error {
	rows, err := h.uc.ListClients(c.Request().Context())
	if err != nil {
		return h.write(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"clients": rows})
}

// CreateProject POST /projects
func (h *ProjectHandler) CreateProject(c echo.Context) error {
	var req createProjectReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.CreateProject(c.Request().Context(), ucProject.CreateProjectInput{
		ClientID:  req.ClientID,
		Name:      req.Name,
		Reference: req.Reference,
		Address:   req.Address,
		CreatedBy: middleware.Subject(c),
	})
	if err != nil {
		return h.write(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

// GetProject GET /projects/:project_id
func (h *ProjectHandler) GetProject(c echo.Context) error {
	projectID, ok := hex32Param(c, "project_id")
	if !ok {
		return c.JSON(http.StatusNotFound, notFoundBody)
	}
	dto, err := h.uc.GetProject(c.Request().Context(), projectID)
	if err != nil {
		return h.write(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// ListProjects GET /projects?client_id= and GET /clients/:client_id/projects
func (h *ProjectHandler) ListProjects(c echo.Context) error {
	clientID := c.Param("client_id")
	if clientID == "" {
		clientID = c.QueryParam("client_id")
	}
	if clientID != "" && !reHex32.MatchString(clientID) {
		return c.JSON(http.StatusNotFound, notFoundBody)
	}
	rows, err := h.uc.ListProjects(c.Request().Context(), clientID)
	if err != nil {
		return h.write(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"projects": rows})
}

// UpdateStatus PATCH /projects/:project_id/status
func (h *ProjectHandler) UpdateStatus(c echo.Context) error {
	projectID, ok := hex32Param(c, "project_id")
	if !ok {
		return c.JSON(http.StatusNotFound, notFoundBody)
	}
	var req updateStatusReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.UpdateStatus(c.Request().Context(), projectID, req.Status)
	if err != nil {
		return h.write(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// Portal is the client's read-only overview. GET /portal/:token
func (h *ProjectHandler) Portal(c echo.Context) error {
	dto, err := h.uc.Portal(c.Request().Context(), c.Param("token"))
	if err != nil {
		return h.write(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}
