// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/iagro/supervisory/internal/history"
	"github.com/iagro/supervisory/internal/models"
	"github.com/iagro/supervisory/internal/session"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// CatalogHandler serves the component palette
type CatalogHandler interface {
	HandleGetCatalog(c echo.Context) error
}

// VariableHandler serves PLC tags and their trend history
type VariableHandler interface {
	HandleListVariables(c echo.Context) error
	HandleVariableHistory(c echo.Context) error
}

// CanvasHandler handles canvas sessions, components and pointer gestures
type CanvasHandler interface {
	HandleCreateCanvas(c echo.Context) error
	HandleListCanvases(c echo.Context) error
	HandleGetCanvas(c echo.Context) error
	HandleGetSceneMsgpack(c echo.Context) error
	HandleDeleteCanvas(c echo.Context) error
	HandleAddComponent(c echo.Context) error
	HandleUpdateComponent(c echo.Context) error
	HandleDeleteComponent(c echo.Context) error
	HandlePointer(c echo.Context) error
}

// EditorHandler handles the properties editor of the selected component
type EditorHandler interface {
	HandleGetEditor(c echo.Context) error
	HandleEditField(c echo.Context) error
	HandleEditorDelete(c echo.Context) error
}

// UploadHandler handles canvas background images
type UploadHandler interface {
	HandleUploadBackground(c echo.Context) error
	HandleClearBackground(c echo.Context) error
	HandleListFiles(c echo.Context) error
	HandleGetFile(c echo.Context) error
}

// SessionManager defines the interface for canvas session management
// This allows mocking in tests
type SessionManager interface {
	Create() *session.Canvas
	Get(id string) (*session.Canvas, error)
	Delete(id string) error
	List() []models.CanvasSession
}

// VariableSource supplies the live PLC tag values
type VariableSource interface {
	Snapshot() []models.PlcVariable
	Search(query string) []models.PlcVariable
	Lookup(address string) (models.PlcVariable, bool)
}

// HistoryReader reads recorded tag values
type HistoryReader interface {
	Recent(ctx context.Context, address string, limit int) ([]history.Sample, error)
}

// Telemetry receives domain counters
type Telemetry interface {
	RecordComponentAdded(kind models.ComponentKind)
	RecordComponentDeleted()
	RecordPointerEvent(eventType string)
	RecordEditorChange(field string)
	WebSocketOpened()
	WebSocketClosed()
}

type nopTelemetry struct{}

func (nopTelemetry) RecordComponentAdded(models.ComponentKind) {}
func (nopTelemetry) RecordComponentDeleted()                   {}
func (nopTelemetry) RecordPointerEvent(string)                 {}
func (nopTelemetry) RecordEditorChange(string)                 {}
func (nopTelemetry) WebSocketOpened()                          {}
func (nopTelemetry) WebSocketClosed()                          {}
