// Package admin exposes a ConnectionManager's state over HTTP for
// operational visibility: the live messenger list, the live broker
// connections, and a shutdown endpoint that runs removeAllConnections.
package admin

import (
	"net/http"

	"github.com/labstack/echo/v4"
	appErrors "github.com/oakbridge/mqconnect/pkg/errors"
	"github.com/oakbridge/mqconnect/pkg/logger"
	"github.com/oakbridge/mqconnect/pkg/mqconn"
)

func init() {
	appErrors.RegisterHTTPStatus(mqconn.CodeNoSuchConnection, http.StatusNotFound)
	appErrors.RegisterHTTPStatus(mqconn.CodeUnknownMessenger, http.StatusNotFound)
}

// Handler holds the manager the admin routes report on.
type Handler struct {
	manager *mqconn.ConnectionManager
}

// New creates an admin Handler for manager.
func New(manager *mqconn.ConnectionManager) *Handler {
	return &Handler{manager: manager}
}

// Register mounts the admin routes on e.
func (h *Handler) Register(e *echo.Echo) {
	e.GET("/messengers", h.listMessengers)
	e.GET("/connections", h.listConnections)
	e.GET("/connections/:brokerId", h.getConnection)
	e.POST("/shutdown", h.shutdown)
}

func (h *Handler) listMessengers(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"messengers": h.manager.GetAllMessengers(),
	})
}

func (h *Handler) listConnections(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"connections": h.manager.ListConnections(),
	})
}

func (h *Handler) getConnection(c echo.Context) error {
	brokerID := c.Param("brokerId")
	if _, err := h.manager.GetConnector(brokerID); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]any{
		"brokerId":  brokerID,
		"connected": true,
	})
}

func (h *Handler) shutdown(c echo.Context) error {
	ctx := c.Request().Context()
	logger.L().InfoContext(ctx, "admin: removeAllConnections requested")
	h.manager.RemoveAllConnections(ctx)
	return c.NoContent(http.StatusNoContent)
}
