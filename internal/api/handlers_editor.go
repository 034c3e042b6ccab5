// handlers_editor.go - Properties editor handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iagro/supervisory/internal/editor"
	"github.com/iagro/supervisory/internal/session"
)

// EditorHandlerImpl implements the EditorHandler interface
type EditorHandlerImpl struct {
	sessions  SessionManager
	variables VariableSource
	telemetry Telemetry
}

// NewEditorHandler creates a new editor handler instance
func NewEditorHandler(sessions SessionManager, variables VariableSource, telemetry Telemetry) EditorHandler {
	if telemetry == nil {
		telemetry = nopTelemetry{}
	}
	return &EditorHandlerImpl{
		sessions:  sessions,
		variables: variables,
		telemetry: telemetry,
	}
}

// HandleGetEditor returns the editor view for the selected component,
// with binding options filtered by ?q=
func (h *EditorHandlerImpl) HandleGetEditor(c echo.Context) error {
	cv, err := h.canvas(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cv.EditorView(h.variables.Snapshot(), c.QueryParam("q")))
}

// HandleEditField applies one raw form input to the selected component.
// Unparseable numbers fall back per field and never fail the request.
func (h *EditorHandlerImpl) HandleEditField(c echo.Context) error {
	cv, err := h.canvas(c)
	if err != nil {
		return err
	}

	var req editFieldRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	if _, err := cv.Edit(editor.Field(req.Field), req.Value); err != nil {
		return err
	}
	h.telemetry.RecordEditorChange(req.Field)

	return c.JSON(http.StatusOK, cv.EditorView(h.variables.Snapshot(), c.QueryParam("q")))
}

// HandleEditorDelete removes the selected component
func (h *EditorHandlerImpl) HandleEditorDelete(c echo.Context) error {
	cv, err := h.canvas(c)
	if err != nil {
		return err
	}

	id, err := cv.DeleteSelected()
	if err != nil {
		return err
	}
	h.telemetry.RecordComponentDeleted()

	return c.JSON(http.StatusOK, map[string]string{"deletedId": id})
}

func (h *EditorHandlerImpl) canvas(c echo.Context) (*session.Canvas, error) {
	id := c.Param("id")
	if id == "" {
		return nil, NewValidationError("id")
	}
	return h.sessions.Get(id)
}

// Request/Response types

type editFieldRequest struct {
	Field string `json:"field"`
	Value string `json:"value"`
}

func (r *editFieldRequest) validate() error {
	if !editor.Field(r.Field).Valid() {
		return NewValidationError("field")
	}
	return nil
}
