package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prepforge/prepforge/internal/services"
)

type MaintenanceHandler struct {
	transcripts services.TranscriptService
}

func NewMaintenanceHandler(transcripts services.TranscriptService) *MaintenanceHandler {
	return &MaintenanceHandler{transcripts: transcripts}
}

// PurgeExpired runs the same purge the background sweeper runs, on demand.
// Admin-only route.
func (h *MaintenanceHandler) PurgeExpired(c *gin.Context) {
	n, err := h.transcripts.PurgeExpired(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"purged": n})
}
