package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prepforge/prepforge/internal/api/handlers"
	"github.com/prepforge/prepforge/internal/api/middleware"
)

type Deps struct {
	Transcript  *handlers.TranscriptHandler
	Session     *handlers.SessionHandler
	Profile     *handlers.ProfileHandler
	Document    *handlers.DocumentHandler
	Maintenance *handlers.MaintenanceHandler
	WS          *handlers.WSHandler

	// Limits admitted rating-generation requests per user; each one may cost
	// an external analysis call.
	GenerateLimiter *middleware.RateLimiter
	GenerateRule    middleware.RateLimitRule
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Protected routes (JWT)
	auth := r.Group("/")
	auth.Use(middleware.JWTAuth())

	auth.POST("/transcripts", d.Transcript.Create)
	auth.POST("/transcripts/:transcript_id/rating",
		middleware.RateLimit(d.GenerateLimiter, d.GenerateRule),
		d.Transcript.GenerateRating)
	auth.GET("/transcripts/:transcript_id/rating", d.Transcript.GetRating)

	auth.POST("/sessions/start", d.Session.Start)
	auth.GET("/sessions/:session_id", d.Session.Get)
	auth.POST("/sessions/:session_id/entries", d.Session.AppendEntry)
	auth.POST("/sessions/:session_id/feedback",
		middleware.RateLimit(d.GenerateLimiter, d.GenerateRule),
		d.Session.GenerateFeedback)
	auth.POST("/sessions/:session_id/end", d.Session.End)

	auth.GET("/profile/me", d.Profile.Me)
	auth.PUT("/profile", d.Profile.Update)

	auth.GET("/documents", d.Document.List)

	// WebSocket
	auth.GET("/ws/sessions/:session_id", d.WS.SessionWS)

	// Admin
	admin := auth.Group("/admin")
	admin.Use(middleware.RequireAdmin())
	admin.POST("/maintenance/purge-expired", d.Maintenance.PurgeExpired)
}
