// handlers_catalog.go - Component palette and PLC variable handlers
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iagro/supervisory/internal/catalog"
	"github.com/iagro/supervisory/internal/history"
)

// CatalogHandlerImpl implements the CatalogHandler interface
type CatalogHandlerImpl struct{}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler() CatalogHandler {
	return &CatalogHandlerImpl{}
}

// HandleGetCatalog returns every placeable kind with its icon and label
func (h *CatalogHandlerImpl) HandleGetCatalog(c echo.Context) error {
	return c.JSON(http.StatusOK, catalog.Entries())
}

// VariableHandlerImpl implements the VariableHandler interface
type VariableHandlerImpl struct {
	variables VariableSource
	history   HistoryReader
}

// NewVariableHandler creates a new variable handler. history may be nil when
// trend recording is disabled.
func NewVariableHandler(variables VariableSource, history HistoryReader) VariableHandler {
	return &VariableHandlerImpl{
		variables: variables,
		history:   history,
	}
}

// HandleListVariables returns the current tag snapshot, filtered by ?q=
func (h *VariableHandlerImpl) HandleListVariables(c echo.Context) error {
	return c.JSON(http.StatusOK, h.variables.Search(c.QueryParam("q")))
}

// HandleVariableHistory returns recent samples of one tag, newest first
func (h *VariableHandlerImpl) HandleVariableHistory(c echo.Context) error {
	address := c.Param("address")
	if address == "" {
		return NewValidationError("address")
	}
	if h.history == nil {
		return NewServiceUnavailableError("variable history is disabled")
	}
	if _, ok := h.variables.Lookup(address); !ok {
		return NewNotFoundError("variable", address)
	}

	limit := history.DefaultLimit
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return NewValidationError("limit")
		}
		limit = n
	}

	samples, err := h.history.Recent(c.Request().Context(), address, limit)
	if err != nil {
		if errors.Is(err, history.ErrClosed) {
			return NewServiceUnavailableError("variable history is shutting down")
		}
		return NewInternalError("failed to read history", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"address": address,
		"samples": samples,
	})
}
