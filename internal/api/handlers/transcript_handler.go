package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prepforge/prepforge/internal/models"
	"github.com/prepforge/prepforge/internal/services"
	"github.com/prepforge/prepforge/internal/utils"
)

type TranscriptHandler struct {
	transcripts services.TranscriptService
	ratings     services.RatingService
}

func NewTranscriptHandler(transcripts services.TranscriptService, ratings services.RatingService) *TranscriptHandler {
	return &TranscriptHandler{transcripts: transcripts, ratings: ratings}
}

type transcriptMessageRequest struct {
	Speaker   string     `json:"speaker" binding:"required"` // ai|user
	Text      string     `json:"text" binding:"required"`
	Timestamp *time.Time `json:"timestamp"`
}

type CreateTranscriptRequest struct {
	Messages []transcriptMessageRequest `json:"messages" binding:"required"`
	Context  models.InterviewContext    `json:"context"`
}

type CreateTranscriptResponse struct {
	TranscriptID string    `json:"transcript_id"`
	Status       string    `json:"status"`
	ExpiresAt    time.Time `json:"expires_at"`
}

func (h *TranscriptHandler) Create(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req CreateTranscriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, "TranscriptHandler.Create", "invalid request body", err))
		return
	}

	msgs := make([]models.TranscriptMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		msg := models.TranscriptMessage{Speaker: m.Speaker, Text: m.Text}
		if m.Timestamp != nil {
			msg.Timestamp = m.Timestamp.UTC()
		}
		msgs = append(msgs, msg)
	}

	t, err := h.transcripts.Create(c.Request.Context(), userID, msgs, req.Context)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, CreateTranscriptResponse{
		TranscriptID: t.TranscriptID,
		Status:       t.Status,
		ExpiresAt:    t.ExpiresAt,
	})
}

type GenerateRatingRequest struct {
	IncludeDocuments bool `json:"include_documents"`
}

func (h *TranscriptHandler) GenerateRating(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	var req GenerateRatingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, utils.E(utils.CodeInvalidArgument, "TranscriptHandler.GenerateRating", "invalid request body", err))
			return
		}
	}

	resp, err := h.ratings.Generate(c.Request.Context(), c.Param("transcript_id"), userID, req.IncludeDocuments)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

func (h *TranscriptHandler) GetRating(c *gin.Context) {
	userID, ok := requireUserID(c)
	if !ok {
		return
	}

	resp, err := h.ratings.Get(c.Request.Context(), c.Param("transcript_id"), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
