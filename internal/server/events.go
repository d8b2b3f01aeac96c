package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tradenotehq/tradenote/backend/internal/events"
)

// handleCalendarEvents serves the static economic-calendar feed. No auth:
// the payload is public mock content.
func (h *httpHandler) handleCalendarEvents(c *gin.Context) {
	c.JSON(http.StatusOK, events.Calendar())
}
