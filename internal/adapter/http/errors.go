package http

import (
	"errors"
	"net/http"

	domainApproval "approv-backend/internal/domain/approval"
	domainProject "approv-backend/internal/domain/project"
	ucApproval "approv-backend/internal/usecase/approval"
	ucUpload "approv-backend/internal/usecase/upload"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// notFoundBody is identical for every miss so lookups reveal nothing.
var notFoundBody = ErrorResponse{Error: "not found"}

// errorMapper turns usecase errors into HTTP responses.
type errorMapper struct{ log logrus.FieldLogger }

func (m errorMapper) write(c echo.Context, err error) error {
	var se *ucApproval.StateError
	switch {
	case errors.Is(err, domainApproval.ErrNotFound),
		errors.Is(err, domainProject.ErrNotFound),
		errors.Is(err, domainProject.ErrClientNotFound),
		errors.Is(err, ucUpload.ErrNotFound):
		return c.JSON(http.StatusNotFound, notFoundBody)

	case errors.Is(err, domainApproval.ErrExpired):
		return c.JSON(http.StatusGone, ErrorResponse{Error: domainApproval.ErrExpired.Error(), State: string(domainApproval.StatusExpired)})

	case errors.As(err, &se):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: se.Err.Error(), State: string(se.State)})

	case errors.Is(err, domainApproval.ErrAlreadyResponded),
		errors.Is(err, domainApproval.ErrAlreadyResubmitted),
		errors.Is(err, domainApproval.ErrInvalidTransition),
		errors.Is(err, domainApproval.ErrReminderTooSoon),
		errors.Is(err, domainProject.ErrNotActive),
		errors.Is(err, domainProject.ErrInvalidTransition):
		return c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error()})

	case errors.Is(err, domainApproval.ErrValidation),
		errors.Is(err, domainProject.ErrValidation):
		return c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: []FieldError{{Field: "_", Message: err.Error()}},
		})
	}

	m.log.WithError(err).WithField("route", c.Path()).Error("request failed")
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// bind decodes and validates a JSON body, writing 400/422 itself. ok=false
// means a response was already sent.
func bind(c echo.Context, req any) (bool, error) {
	if err := c.Bind(req); err != nil {
		return false, c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}
	if err := c.Validate(req); err != nil {
		return false, c.JSON(http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "validation failed",
			Details: ToFieldErrors(err),
		})
	}
	return true, nil
}
