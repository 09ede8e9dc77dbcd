package session_module

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	session_store "github.com/traceline/traceline/internal/stores/session"
	"github.com/traceline/traceline/pkg/sdk"
)

// GetSummary handles GET requests to summarize a session
func GetSummary(c *gin.Context) {
	sessionID := c.Param("id")

	service := GetService()
	resp, err := service.Summarize(c.Request.Context(), sessionID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Session summarized successfully", resp).AsGinResponse())
}

// PostChat handles POST requests to ask a question about a session
func PostChat(c *gin.Context) {
	sessionID := c.Param("id")

	// Parse request body
	var req sdk.SessionChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Could not parse request body", err.Error()).AsGinResponse())
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		c.JSON(sdk.NewErrorResponse(http.StatusBadRequest, "Question must not be blank", nil).AsGinResponse())
		return
	}

	service := GetService()
	resp, err := service.Chat(c.Request.Context(), sessionID, req.Question, req.ConversationID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(sdk.NewSuccessResponse("Question answered successfully", resp).AsGinResponse())
}

// respondError translates the service error taxonomy to HTTP responses.
// Not-found carries its full search diagnostic into the body; upstream and
// internal failures surface only a generic message.
func respondError(c *gin.Context, err error) {
	var notFound *session_store.NotFoundError
	if errors.As(err, &notFound) {
		c.JSON(sdk.NewErrorResponse(http.StatusNotFound, "Session not found", notFound.Diagnostic).AsGinResponse())
		return
	}

	var upstream *UpstreamError
	if errors.As(err, &upstream) {
		log.Printf("[SESSION]: Upstream failure during %s: %v", upstream.Op, upstream.Err)
		c.JSON(sdk.NewErrorResponse(http.StatusBadGateway, "Upstream provider request failed", nil).AsGinResponse())
		return
	}

	log.Printf("[SESSION]: Unexpected error: %v", err)
	c.JSON(sdk.NewErrorResponse(http.StatusInternalServerError, "Internal server error", nil).AsGinResponse())
}
