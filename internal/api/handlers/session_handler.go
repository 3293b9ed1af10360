package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prepforge/prepforge/internal/models"
	"github.com/prepforge/prepforge/internal/services"
	"github.com/prepforge/prepforge/internal/utils"
)

type SessionHandler struct {
	svc services.SessionService
}

func NewSessionHandler(svc services.SessionService) *SessionHandler {
	return &SessionHandler{svc: svc}
}

type StartSessionRequest struct {
	Metadata models.SessionMetadata `json:"metadata"`
}

type StartSessionResponse struct {
	SessionID  string                  `json:"session_id"`
	Status     string                  `json:"status"`
	Processing models.ProcessingStatus `json:"processing_status"`
	CreatedAt  string                  `json:"created_at"`
}

func (h *SessionHandler) Start(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req StartSessionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.Start", "invalid request body", err))
			return
		}
	}

	sess, err := h.svc.Start(c.Request.Context(), userID, req.Metadata)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, StartSessionResponse{
		SessionID:  sess.SessionID,
		Status:     sess.Status,
		Processing: sess.Processing,
		CreatedAt:  sess.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

func (h *SessionHandler) Get(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	sess, err := h.svc.Get(c.Request.Context(), c.Param("session_id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sess)
}

type AppendEntryRequest struct {
	Speaker string `json:"speaker" binding:"required"` // ai|user
	Text    string `json:"text" binding:"required"`
}

func (h *SessionHandler) AppendEntry(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req AppendEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.AppendEntry", "invalid request body", err))
		return
	}

	entry, err := h.svc.AppendEntry(c.Request.Context(), c.Param("session_id"), userID, req.Speaker, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, entry)
}

type GenerateFeedbackRequest struct {
	IncludeDocuments bool `json:"include_documents"`
}

func (h *SessionHandler) GenerateFeedback(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req GenerateFeedbackRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "SessionHandler.GenerateFeedback", "invalid request body", err))
			return
		}
	}

	resp, err := h.svc.GenerateFeedback(c.Request.Context(), c.Param("session_id"), userID, req.IncludeDocuments)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *SessionHandler) End(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	ended, err := h.svc.End(c.Request.Context(), c.Param("session_id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, ended)
}
