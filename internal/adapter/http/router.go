package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"approv-backend/internal/adapter/middleware"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

type RouterConfig struct {
	JWTSecret      []byte
	Redis          redis.Cmdable
	IdempotencyTTL time.Duration
	RequestTimeout time.Duration
	MaxUploadBytes int64
	Logger         logrus.FieldLogger
}

type Handlers struct {
	Health    *Handler
	Approvals *ApprovalHandler
	Projects  *ProjectHandler
	Uploads   *UploadHandler
	Dashboard *DashboardHandler
}

// NewEcho builds the server with the shared middleware stack.
func NewEcho(cfg RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewValidator()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		// unmatched paths and methods answer like an unknown token
		var he *echo.HTTPError
		if errors.As(err, &he) && (he.Code == http.StatusNotFound || he.Code == http.StatusMethodNotAllowed) && !c.Response().Committed {
			_ = c.JSON(http.StatusNotFound, notFoundBody)
			return
		}
		e.DefaultHTTPErrorHandler(err, c)
	}

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(cfg.Logger))
	e.Use(echomw.Recover())
	e.Use(middleware.Metrics())
	if cfg.RequestTimeout > 0 {
		e.Use(echomw.ContextTimeout(cfg.RequestTimeout))
	}
	return e
}

// Register mounts every route. Public routes authenticate by path token;
// internal routes need a bearer JWT.
func Register(e *echo.Echo, cfg RouterConfig, h Handlers) {
	idem := middleware.IdempotencyMiddleware(cfg.Redis, cfg.IdempotencyTTL, middleware.SubjectOrToken, cfg.Logger)

	e.GET("/health", h.Health.Health)
	e.GET("/ready", h.Health.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// public
	e.GET("/a/:token", h.Approvals.View)
	e.POST("/a/:token/respond", h.Approvals.Respond, idem)
	e.GET("/portal/:token", h.Projects.Portal)
	e.GET("/files/:key", h.Uploads.File)

	// internal: auth is attached per route. Group middleware would also catch
	// every unmatched path and turn public 404s into 401s.
	auth := middleware.JWTAuth(cfg.JWTSecret)
	e.GET("/stages", h.Approvals.Stages, auth)

	e.POST("/clients", h.Projects.CreateClient, auth, idem)
	e.GET("/clients", h.Projects.ListClients, auth)
	e.GET("/clients/:client_id", h.Projects.GetClient, auth)
	e.GET("/clients/:client_id/projects", h.Projects.ListProjects, auth)

	e.POST("/projects", h.Projects.CreateProject, auth, idem)
	e.GET("/projects", h.Projects.ListProjects, auth)
	e.GET("/projects/:project_id", h.Projects.GetProject, auth)
	e.PATCH("/projects/:project_id/status", h.Projects.UpdateStatus, auth, idem)
	e.GET("/projects/:project_id/approvals", h.Approvals.ListByProject, auth)
	e.GET("/projects/:project_id/dashboard", h.Dashboard.ProjectOverview, auth)

	e.POST("/approvals", h.Approvals.Create, auth, idem)
	e.GET("/approvals/:approval_id", h.Approvals.Get, auth)
	e.POST("/approvals/:approval_id/resubmit", h.Approvals.Resubmit, auth, idem)
	e.POST("/approvals/:approval_id/remind", h.Approvals.Remind, auth, idem)

	// multipart bodies are too large to buffer for idempotency replay
	e.POST("/uploads", h.Uploads.Upload, auth, echomw.BodyLimit(fmt.Sprintf("%dB", cfg.MaxUploadBytes+1<<20)))

	e.GET("/dashboard", h.Dashboard.Overview, auth)
}
