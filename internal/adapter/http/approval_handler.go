package http

import (
	"context"
	"net/http"

	"approv-backend/internal/adapter/middleware"
	domainApproval "approv-backend/internal/domain/approval"
	ucApproval "approv-backend/internal/usecase/approval"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type ApprovalService interface {
	Create(ctx context.Context, in ucApproval.CreateInput) (*ucApproval.ApprovalDTO, error)
	View(ctx context.Context, token string) (*ucApproval.ViewDTO, error)
	Submit(ctx context.Context, token string, d domainApproval.Decision) (*ucApproval.SubmitResult, error)
	Resubmit(ctx context.Context, approvalID string, in ucApproval.ResubmitInput) (*ucApproval.ApprovalDTO, error)
	Remind(ctx context.Context, approvalID string) (*ucApproval.ReminderDTO, error)
	Get(ctx context.Context, approvalID string) (*ucApproval.ApprovalDTO, error)
	ListByProject(ctx context.Context, projectID string) ([]ucApproval.ApprovalDTO, error)
}

type ApprovalHandler struct {
	uc ApprovalService
	errorMapper
}

func NewApprovalHandler(uc ApprovalService, log logrus.FieldLogger) *ApprovalHandler {
	return &ApprovalHandler{uc: uc, errorMapper: errorMapper{log: log}}
}

type deliverableReq struct {
	Kind       string `json:"kind"        validate:"required,oneof=pdf image link"`
	Name       string `json:"name"        validate:"max=255"`
	URL        string `json:"url"         validate:"omitempty,max=2048,deliverableurl"`
	StorageKey string `json:"storage_key" validate:"omitempty,storagekey"`
}

func (r *deliverableReq) toDomain() *domainApproval.Deliverable {
	if r == nil {
		return nil
	}
	d := &domainApproval.Deliverable{
		Kind:       domainApproval.DeliverableKind(r.Kind),
		Name:       r.Name,
		URL:        r.URL,
		StorageKey: r.StorageKey,
	}
	if d.StorageKey != "" {
		d.URL = "/files/" + d.StorageKey
	}
	return d
}

type createApprovalReq struct {
	ProjectID   string          `json:"project_id"  validate:"required,hex32"`
	Stage       string          `json:"stage"       validate:"required,max=64"`
	StageLabel  string          `json:"stage_label" validate:"max=255"`
	Deliverable *deliverableReq `json:"deliverable"`
	Message     string          `json:"message"     validate:"max=5000"`
	// Range is checked by the usecase; 0 means the configured default.
	ExpiryDays int `json:"expiry_days"`
}

type respondReq struct {
	// Checked after the approval state, so a closed approval reports its state first.
	Action string `json:"action"`
	Notes  string `json:"notes" validate:"max=5000"`
}

type resubmitReq struct {
	Deliverable *deliverableReq `json:"deliverable"`
	Message     string          `json:"message" validate:"max=5000"`
	ExpiryDays  int             `json:"expiry_days"`
}

type resubmitResp struct {
	ApprovalID string `json:"approval_id"`
	Token      string `json:"token"`
	Link       string `json:"link"`
}

// View is the public approval page. GET /a/:token
func (h *ApprovalHandler) View(c echo.Context) error {
	dto, err := h.uc.View(c.Request().Context(), c.Param("token"))
	if err != nil {
		return h.write(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// Respond records the client's decision. POST /a/:token/respond
func (h *ApprovalHandler) Respond(c echo.Context) error {
	var req respondReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	res, err := h.uc.Submit(c.Request().Context(), c.Param("token"), domainApproval.Decision{
		Action: domainApproval.Action(req.Action),
		Notes:  req.Notes,
	})
	if err != nil {
		return h.write(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// Create opens a new approval request. POST /approvals
func (h *ApprovalHandler) Create(c echo.Context) error {
	var req createApprovalReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Create(c.Request().Context(), ucApproval.CreateInput{
		ProjectID:   req.ProjectID,
		Stage:       req.Stage,
		StageLabel:  req.StageLabel,
		Deliverable: req.Deliverable.toDomain(),
		Message:     req.Message,
		ExpiryDays:  req.ExpiryDays,
		CreatedBy:   middleware.Subject(c),
	})
	if err != nil {
		return h.write(c, err)
	}
	return c.JSON(http.StatusCreated, dto)
}

// Get GET /approvals/:approval_id
func (h *ApprovalHandler) Get(c echo.Context) error {
	approvalID, ok := hex32Param(c, "approval_id")
	if !ok {
		return c.JSON(http.StatusNotFound, notFoundBody)
	}
	dto, err := h.uc.Get(c.Request().Context(), approvalID)
	if err != nil {
		return h.write(c, err)
	}
	return c.JSON(http.StatusOK, dto)
}

// ListByProject GET /projects/:project_id/approvals
func (h *ApprovalHandler) ListByProject(c echo.Context) error {
	projectID, ok := hex32Param(c, "project_id")
	if !ok {
		return c.JSON(http.StatusNotFound, notFoundBody)
	}
	rows, err := h.uc.ListByProject(c.Request().Context(), projectID)
	if err != nil {
		return h.write(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"approvals": rows})
}

// Resubmit POST /approvals/:approval_id/resubmit
func (h *ApprovalHandler) Resubmit(c echo.Context) error {
	approvalID, ok := hex32Param(c, "approval_id")
	if !ok {
		return c.JSON(http.StatusNotFound, notFoundBody)
	}
	var req resubmitReq
	if ok, err := bind(c, &req); !ok {
		return err
	}
	dto, err := h.uc.Resubmit(c.Request().Context(), approvalID, ucApproval.ResubmitInput{
		Deliverable: req.Deliverable.toDomain(),
		Message:     req.Message,
		ExpiryDays:  req.ExpiryDays,
		CreatedBy:   middleware.Subject(c),
	})
	if err != nil {
		return h.write(c, err)
	}
	return c.JSON(http.StatusCreated, resubmitResp{ApprovalID: dto.ApprovalID, Token: dto.Token, Link: dto.Link})
}

// Remind POST /approvals/:approval_id/remind
func (h *ApprovalHandler) Remind(c echo.Context) error {
	approvalID, ok := hex32Param(c, "approval_id")
	if !ok {
		return c.JSON(http.StatusNotFound, notFoundBody)
	}
	dto, err := h.uc.Remind(c.Request().Context(), approvalID)
	if err != nil {
		return h.write(c, err)
	}
	return c.JSON(http.StatusAccepted, dto)
}

// Stages lists the predefined stage catalogue. GET /stages
func (h *ApprovalHandler) Stages(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{"stages": domainApproval.Stages()})
}

func hex32Param(c echo.Context, name string) (string, bool) {
	v := c.Param(name)
	return v, reHex32.MatchString(v)
}
