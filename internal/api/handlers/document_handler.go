package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prepforge/prepforge/internal/services"
)

type DocumentHandler struct {
	svc services.DocumentService
}

func NewDocumentHandler(svc services.DocumentService) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// List shows the caller's uploaded documents with their extraction status.
// Uploads themselves go through the external pipeline, not this API.
func (h *DocumentHandler) List(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	rows, err := h.svc.ListMine(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"documents": rows})
}
