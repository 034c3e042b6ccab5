// handlers_health.go - Health check handlers
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version   string
	startedAt time.Time
	sessions  SessionManager
	variables VariableSource
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, sessions SessionManager, variables VariableSource) HealthHandler {
	return &HealthHandlerImpl{
		version:   version,
		startedAt: time.Now(),
		sessions:  sessions,
		variables: variables,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	body := map[string]interface{}{
		"status":        "ok",
		"version":       h.version,
		"uptimeSeconds": int64(time.Since(h.startedAt).Seconds()),
	}
	if h.sessions != nil {
		body["sessions"] = len(h.sessions.List())
	}
	if h.variables != nil {
		body["variables"] = len(h.variables.Snapshot())
	}
	return c.JSON(http.StatusOK, body)
}
