// Package handlers holds the HTTP handlers mounted on the liveness server.
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// PingHandler answers every method and path with "Alive" so that uptime
// monitors keep the process warm.
type PingHandler struct {
	logger *slog.Logger
}

// NewPingHandler creates a ping handler.
func NewPingHandler(log *slog.Logger) *PingHandler {
	if log == nil {
		log = slog.Default()
	}
	return &PingHandler{logger: log.With(slog.String("handler", "ping"))}
}

// Register mounts the catch-all liveness routes.
func (h *PingHandler) Register(e *echo.Echo) {
	e.Any("/", h.Ping)
	e.Any("/*", h.Ping)
}

// Ping returns 200 text "Alive".
func (h *PingHandler) Ping(c echo.Context) error {
	if c.Request().Method == http.MethodHead {
		return c.NoContent(http.StatusOK)
	}
	return c.String(http.StatusOK, "Alive")
}
