// handlers_upload.go - Canvas background image handlers
package api

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iagro/supervisory/internal/storage"
)

// UploadHandlerImpl implements the UploadHandler interface
type UploadHandlerImpl struct {
	store        storage.Store
	sessions     SessionManager
	allowedTypes map[string]struct{}
}

// NewUploadHandler creates a new upload handler instance. allowedTypes is a
// comma-separated extension list such as ".png,.svg"; empty allows anything.
func NewUploadHandler(store storage.Store, sessions SessionManager, allowedTypes string) UploadHandler {
	h := &UploadHandlerImpl{
		store:    store,
		sessions: sessions,
	}
	for _, ext := range strings.Split(allowedTypes, ",") {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if h.allowedTypes == nil {
			h.allowedTypes = make(map[string]struct{})
		}
		h.allowedTypes[ext] = struct{}{}
	}
	return h
}

// HandleUploadBackground accepts a plant schematic as base64 JSON, stores it
// and sets it as the canvas background
func (h *UploadHandlerImpl) HandleUploadBackground(c echo.Context) error {
	cv, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return err
	}

	var req uploadBackgroundRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid JSON body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(req.Name))
	if !h.allowed(ext) {
		return NewBadRequestError(fmt.Sprintf("file type not allowed: %q", ext), nil)
	}

	// Decode base64 content
	decoded, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		return NewBadRequestError("invalid base64 data", err)
	}

	contentType := req.ContentType
	if contentType == "" {
		contentType = mime.TypeByExtension(ext)
	}
	if contentType == "" {
		contentType = http.DetectContentType(decoded)
	}

	info, err := h.store.Save(req.Name, contentType, bytes.NewReader(decoded))
	if err != nil {
		return NewInternalError("failed to save file", err)
	}
	cv.SetBackground(info)

	return c.JSON(http.StatusCreated, info)
}

// HandleClearBackground removes the canvas background. The stored file stays
// available to other canvases.
func (h *UploadHandlerImpl) HandleClearBackground(c echo.Context) error {
	cv, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		return err
	}
	cv.SetBackground(nil)
	return c.NoContent(http.StatusNoContent)
}

// HandleListFiles returns the most recently uploaded images
func (h *UploadHandlerImpl) HandleListFiles(c echo.Context) error {
	limit := 20
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return NewValidationError("limit")
		}
		limit = n
	}

	files, err := h.store.List(limit)
	if err != nil {
		return NewInternalError("failed to list files", err)
	}
	return c.JSON(http.StatusOK, files)
}

// HandleGetFile streams a stored image
func (h *UploadHandlerImpl) HandleGetFile(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return NewValidationError("id")
	}

	rc, info, err := h.store.Open(id)
	if err != nil {
		return err
	}
	defer rc.Close()

	contentType := info.ContentType
	if contentType == "" {
		contentType = echo.MIMEOctetStream
	}
	c.Response().Header().Set("Cache-Control", "private, max-age=3600")
	return c.Stream(http.StatusOK, contentType, rc)
}

func (h *UploadHandlerImpl) allowed(ext string) bool {
	if h.allowedTypes == nil {
		return true
	}
	_, ok := h.allowedTypes[ext]
	return ok
}

// Request/Response types

type uploadBackgroundRequest struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType,omitempty"`
	Data        string `json:"data"` // Base64-encoded content
}

func (r *uploadBackgroundRequest) validate() error {
	if r.Name == "" {
		return NewValidationError("name")
	}
	if r.Data == "" {
		return NewValidationError("data")
	}
	return nil
}
