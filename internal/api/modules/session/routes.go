package session_module

import "github.com/gin-gonic/gin"

// Register routes for the session module
func RegisterRoutes(g *gin.RouterGroup) {
	// Create base group for session routes
	group := g.Group("/sessions")

	group.GET("/:id/summary", GetSummary) // Summarize a session's timeline
	group.POST("/:id/chat", PostChat)     // Ask a question about a session
}
