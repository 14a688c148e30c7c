package http

import (
	"context"
	"io"
	"net/http"

	domainApproval "approv-backend/internal/domain/approval"
	ucUpload "approv-backend/internal/usecase/upload"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

type UploadService interface {
	Upload(ctx context.Context, name string, r io.Reader) (*domainApproval.Deliverable, error)
	Open(ctx context.Context, key string) (*ucUpload.File, error)
}

type UploadHandler struct {
	uc UploadService
	errorMapper
}

func NewUploadHandler(uc UploadService, log logrus.FieldLogger) *UploadHandler {
	return &UploadHandler{uc: uc, errorMapper: errorMapper{log: log}}
}

type uploadResp struct {
	Kind       string `json:"kind"`
	Name       string `json:"name"`
	StorageKey string `json:"storage_key"`
	URL        string `json:"url"`
}

// Upload stores a deliverable file. POST /uploads (multipart field "file")
func (h *UploadHandler) Upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "missing multipart field: file"})
	}
	f, err := fh.Open()
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "unreadable upload"})
	}
	defer f.Close()

	d, err := h.uc.Upload(c.Request().Context(), fh.Filename, f)
	if err != nil {
		return h.write(c, err)
	}
	return c.JSON(http.StatusCreated, uploadResp{
		Kind:       string(d.Kind),
		Name:       d.Name,
		StorageKey: d.StorageKey,
		URL:        d.URL,
	})
}

// File streams a stored deliverable. GET /files/:key
func (h *UploadHandler) File(c echo.Context) error {
	key := c.Param("key")
	if !reStorageKey.MatchString(key) {
		return c.JSON(http.StatusNotFound, notFoundBody)
	}
	f, err := h.uc.Open(c.Request().Context(), key)
	if err != nil {
		return h.write(c, err)
	}
	defer f.Close()

	hdr := c.Response().Header()
	hdr.Set("X-Content-Type-Options", "nosniff")
	hdr.Set("Cache-Control", "private, max-age=3600")
	hdr.Set("Content-Disposition", "inline")
	return c.Stream(http.StatusOK, f.ContentType, f)
}
