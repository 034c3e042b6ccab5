// handlers_canvas.go - Canvas session, component and pointer handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/iagro/supervisory/internal/canvas"
	"github.com/iagro/supervisory/internal/models"
	"github.com/iagro/supervisory/internal/session"
)

// CanvasHandlerImpl implements the CanvasHandler interface
type CanvasHandlerImpl struct {
	sessions  SessionManager
	variables VariableSource
	telemetry Telemetry
	logger    zerolog.Logger
}

// NewCanvasHandler creates a new canvas handler instance
func NewCanvasHandler(sessions SessionManager, variables VariableSource, telemetry Telemetry, logger zerolog.Logger) CanvasHandler {
	if telemetry == nil {
		telemetry = nopTelemetry{}
	}
	return &CanvasHandlerImpl{
		sessions:  sessions,
		variables: variables,
		telemetry: telemetry,
		logger:    logger,
	}
}

// HandleCreateCanvas opens an empty canvas session
func (h *CanvasHandlerImpl) HandleCreateCanvas(c echo.Context) error {
	cv := h.sessions.Create()
	return c.JSON(http.StatusCreated, h.canvasResponse(cv))
}

// HandleListCanvases returns a summary of every open canvas
func (h *CanvasHandlerImpl) HandleListCanvases(c echo.Context) error {
	return c.JSON(http.StatusOK, h.sessions.List())
}

// HandleGetCanvas returns the session summary and the rendered scene
func (h *CanvasHandlerImpl) HandleGetCanvas(c echo.Context) error {
	cv, err := h.canvas(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.canvasResponse(cv))
}

// HandleGetSceneMsgpack returns the rendered scene encoded as msgpack
func (h *CanvasHandlerImpl) HandleGetSceneMsgpack(c echo.Context) error {
	cv, err := h.canvas(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(cv.Scene(h.variables.Snapshot()))
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}

	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleDeleteCanvas closes a canvas session
func (h *CanvasHandlerImpl) HandleDeleteCanvas(c echo.Context) error {
	id := c.Param("id")
	if err := h.sessions.Delete(id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleAddComponent places a new component from the palette
func (h *CanvasHandlerImpl) HandleAddComponent(c echo.Context) error {
	cv, err := h.canvas(c)
	if err != nil {
		return err
	}

	var req addComponentRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if err := req.validate(); err != nil {
		return err
	}

	comp, err := cv.AddComponent(models.ComponentKind(req.Kind))
	if err != nil {
		return err
	}
	h.telemetry.RecordComponentAdded(comp.Kind)
	h.logger.Debug().
		Str("session_id", cv.ID()).
		Str("component_id", comp.ID).
		Str("kind", string(comp.Kind)).
		Msg("component added")

	return c.JSON(http.StatusCreated, comp)
}

// HandleUpdateComponent replaces a component wholesale
func (h *CanvasHandlerImpl) HandleUpdateComponent(c echo.Context) error {
	cv, err := h.canvas(c)
	if err != nil {
		return err
	}

	componentID := c.Param("cid")
	var req models.PlacedComponent
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if req.ID != "" && req.ID != componentID {
		return NewValidationError("id")
	}
	req.ID = componentID

	updated, err := cv.UpdateComponent(req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, updated)
}

// HandleDeleteComponent removes a component
func (h *CanvasHandlerImpl) HandleDeleteComponent(c echo.Context) error {
	cv, err := h.canvas(c)
	if err != nil {
		return err
	}
	if err := cv.DeleteComponent(c.Param("cid")); err != nil {
		return err
	}
	h.telemetry.RecordComponentDeleted()
	return c.NoContent(http.StatusNoContent)
}

// HandlePointer feeds one pointer event to the canvas engine and returns the
// resulting scene
func (h *CanvasHandlerImpl) HandlePointer(c echo.Context) error {
	cv, err := h.canvas(c)
	if err != nil {
		return err
	}

	var ev canvas.PointerEvent
	if err := c.Bind(&ev); err != nil {
		return NewBadRequestError("invalid request body", err)
	}
	if !ev.Valid() {
		return NewValidationError("type")
	}

	cv.Pointer(ev)
	h.telemetry.RecordPointerEvent(string(ev.Type))

	return c.JSON(http.StatusOK, cv.Scene(h.variables.Snapshot()))
}

func (h *CanvasHandlerImpl) canvas(c echo.Context) (*session.Canvas, error) {
	id := c.Param("id")
	if id == "" {
		return nil, NewValidationError("id")
	}
	return h.sessions.Get(id)
}

func (h *CanvasHandlerImpl) canvasResponse(cv *session.Canvas) canvasResponse {
	return canvasResponse{
		Session: cv.Summary(),
		Scene:   cv.Scene(h.variables.Snapshot()),
	}
}

// Request/Response types

type canvasResponse struct {
	Session models.CanvasSession `json:"session"`
	Scene   canvas.Scene         `json:"scene"`
}

type addComponentRequest struct {
	Kind string `json:"kind"`
}

func (r *addComponentRequest) validate() error {
	if r.Kind == "" {
		return NewValidationError("kind")
	}
	return nil
}
