package http

import (
	"context"
	"net/http"
	"time"

	"approv-backend/internal/usecase/dashboard"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type DashboardService interface {
	Overview(ctx context.Context, since *time.Time) (dashboard.Summary, error)
	ProjectOverview(ctx context.Context, projectID string) (dashboard.Summary, error)
}

type DashboardHandler struct {
	uc DashboardService
	errorMapper
}

func NewDashboardHandler(uc DashboardService, log logrus.FieldLogger) *DashboardHandler {
	return &DashboardHandler{uc: uc, errorMapper: errorMapper{log: log}}
}

// Overview GET /dashboard?since=RFC3339
func (h *DashboardHandler) Overview(c echo.Context) error {
	var since *time.Time
	if raw := c.QueryParam("since"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
				Error:   "validation failed",
				Details: []FieldError{{Field: "since", Message: "must be RFC3339 with timezone"}},
			})
		}
		t = t.UTC()
		since = &t
	}
	s, err := h.uc.Overview(c.Request().Context(), since)
	if err != nil {
		return h.write(c, err)
	}
	return c.JSON(http.StatusOK, s)
}

// ProjectOverview GET /projects/:project_id/dashboard
func (h *DashboardHandler) ProjectOverview(c echo.Context) error {
	projectID, ok := hex32Param(c, "project_id")
	if !ok {
		return c.JSON(http.StatusNotFound, notFoundBody)
	}
	s, err := h.uc.ProjectOverview(c.Request().Context(), projectID)
	if err != nil {
		return h.write(c, err)
	}
	return c.JSON(http.StatusOK, s)
}
